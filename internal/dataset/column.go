// Package dataset implements the Header/Row/Dataset builder of spec §4.G:
// a cell-level dependency scheduler that threads raw text through default
// substitution, sandboxed expression evaluation, and type parsing into the
// immutable Cell/Row/Dataset object model described in spec §3.
package dataset

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/tabulua/tabulua/internal/cellvalue"
	"github.com/tabulua/tabulua/internal/colname"
	"github.com/tabulua/tabulua/internal/diag"
	"github.com/tabulua/tabulua/internal/typereg"
	"github.com/tabulua/tabulua/internal/typespec"
)

// CollectionInfo mirrors spec §3 Column's collection_info: base_path,
// index, and whether the column holds a map value rather than an
// array element / map key.
type CollectionInfo struct {
	BasePath   string
	Index      int
	IsMapValue bool
}

// Subscriber is the callback type held in Column.Subscribers. Nothing in
// this module adds to or calls Column.Subscribers, so published column
// values are not delivered to any subscriber.
type Subscriber func(rowKey string, value interface{})

// Column is the immutable per-column descriptor of spec §3.
type Column struct {
	Name         string // with any trailing "!" stripped
	Idx          int    // 1-based
	TypeSpecText string // original text after the first ":"
	TypeText     string // TypeSpecText unchanged; the type spec is not evaluated as an expression
	Parser       typereg.Parser
	HasParser    bool
	DefaultExpr  string
	HasDefault   bool
	ValidName    bool
	Published    bool

	IsExploded    bool
	ExplodedPath  []string
	IsCollection  bool
	Collection    CollectionInfo

	// AdmitsNil reports whether the column's declared type spec accepts a
	// nil value, either directly (type "nil") or as a union alternative
	// (e.g. "integer|nil"). Used by the scheduler to decide whether a
	// short row's absent cell is a structural error (spec §4.G).
	AdmitsNil bool

	Subscribers []Subscriber
}

// parseColumnSpec splits one raw header cell "name[!]:type_spec[:default_expr]"
// (spec §6.2) into its three parts. The type_spec/default_expr split uses
// typespec.ParsePartial rather than a naive second-colon split, since a
// braced type_spec may itself contain colons (record field types, map
// key:value syntax).
func parseColumnSpec(raw string) (name, typeSpecText string, defaultExpr string, hasDefault bool, err error) {
	colonIdx := strings.Index(raw, ":")
	if colonIdx < 0 {
		return "", "", "", false, errors.Errorf("column spec %q: missing type spec", raw)
	}
	name = raw[:colonIdx]
	rest := raw[colonIdx+1:]

	_, remainder, perr := typespec.ParsePartial(rest)
	if perr != nil {
		return "", "", "", false, errors.Wrapf(perr, "column spec %q: type spec", raw)
	}
	typeSpecText = strings.TrimSuffix(rest, remainder)

	if remainder == "" {
		return name, typeSpecText, "", false, nil
	}
	if !strings.HasPrefix(remainder, ":") {
		return "", "", "", false, errors.Errorf("column spec %q: unexpected trailing %q after type spec", raw, remainder)
	}
	return name, typeSpecText, remainder[1:], true, nil
}

// buildColumn constructs one Column from a raw header cell, resolving its
// type through the registry. Type resolution failures are reported to sink
// (a Schema error) but do not stop header construction; the column is kept
// with HasParser=false so later cells short-circuit to an empty marker.
func buildColumn(sink *diag.Sink, idx int, raw string, reg *typereg.Registry) (Column, error) {
	name, typeSpecText, defaultExpr, hasDefault, err := parseColumnSpec(raw)
	if err != nil {
		return Column{}, err
	}

	ref, nameErr := colname.Parse(name)
	validName := nameErr == nil

	col := Column{
		Name:         strings.TrimSuffix(name, "!"),
		Idx:          idx,
		TypeSpecText: typeSpecText,
		TypeText:     typeSpecText,
		DefaultExpr:  defaultExpr,
		HasDefault:   hasDefault,
		ValidName:    validName,
		Published:    strings.HasSuffix(name, "!"),
	}

	if validName {
		col.IsExploded = ref.IsDotted()
		col.IsCollection = ref.IsCollection()
		if col.IsExploded {
			col.ExplodedPath = segmentNames(ref)
		}
		if col.IsCollection {
			last := ref.Last()
			col.Collection = CollectionInfo{
				BasePath:   ref.BasePath(),
				Index:      last.Index,
				IsMapValue: last.IsMapValue,
			}
		}
	} else {
		sink.AtColumn(name, idx).ReportKind(diag.KindStructural, cellvalue.String(name), nameErr.Error())
	}

	typeNode, terr := typespec.Parse(col.TypeText)
	if terr != nil {
		sink.AtColumn(col.Name, idx).ReportKind(diag.KindSchema, cellvalue.String(name), terr.Error())
		return col, nil
	}
	col.AdmitsNil = admitsNil(typeNode)
	parser, perr := reg.ParseType(sink.AtColumn(col.Name, idx), typeNode)
	if perr != nil {
		sink.AtColumn(col.Name, idx).ReportKind(diag.KindSchema, cellvalue.String(name), perr.Error())
		return col, nil
	}
	col.Parser = parser
	col.HasParser = true
	return col, nil
}

// admitsNil reports whether a type-spec node accepts a bare nil value,
// either as the type itself or as one alternative of a top-level union.
func admitsNil(node *typespec.Node) bool {
	if node.Tag == typespec.TagName && node.Name == "nil" {
		return true
	}
	if node.Tag == typespec.TagUnion {
		for _, alt := range node.Alternatives {
			if alt.Tag == typespec.TagName && alt.Name == "nil" {
				return true
			}
		}
	}
	return false
}

func segmentNames(ref colname.Ref) []string {
	out := make([]string, len(ref.Segments))
	for i, s := range ref.Segments {
		out[i] = s.Name
	}
	return out
}
