package dataset

import (
	"sort"
	"strings"

	"github.com/tabulua/tabulua/internal/cellvalue"
	"github.com/tabulua/tabulua/internal/diag"
	"github.com/tabulua/tabulua/internal/explode"
	"github.com/tabulua/tabulua/internal/typereg"
)

// Header is the immutable column-descriptor sequence of spec §3 Header.
type Header struct {
	Source      string
	Columns     []Column
	nameIndex   map[string]int // column name -> 0-based slice index
	TypeSpec    string         // __type_spec
	ExplodedMap map[string]explode.Structure
}

// ColumnByName looks up a column by its declared name (exploded/bracket
// form included, "!" stripped).
func (h *Header) ColumnByName(name string) (*Column, bool) {
	i, ok := h.nameIndex[name]
	if !ok {
		return nil, false
	}
	return &h.Columns[i], true
}

// TopLevelFieldNames returns the header's top-level field names (plain
// column names plus exploded/collection roots collapsed to one entry),
// alphabetically sorted: the same field set BuildHeader's __type_spec
// describes, used by validators to present a Row as a cellvalue Record.
func (h *Header) TopLevelFieldNames() []string {
	seen := make(map[string]bool, len(h.Columns))
	var names []string
	for _, c := range h.Columns {
		if !c.ValidName {
			continue
		}
		name := c.Name
		if c.IsExploded || c.IsCollection {
			name = topLevelRoot(c)
		}
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// ColumnByIdx looks up a column by its 1-based index.
func (h *Header) ColumnByIdx(idx int) (*Column, bool) {
	if idx < 1 || idx > len(h.Columns) {
		return nil, false
	}
	return &h.Columns[idx-1], true
}

// BuildHeader implements spec §4.G's newHeader: parse the raw header cells
// into columns, validate names, validate exploded/collection consistency,
// and synthesize __exploded_map / __type_spec.
func BuildHeader(sink *diag.Sink, source string, headerCells []string, reg *typereg.Registry) (*Header, error) {
	columns := make([]Column, len(headerCells))
	seen := make(map[string]bool, len(headerCells))

	for i, raw := range headerCells {
		col, err := buildColumn(sink, i+1, raw, reg)
		if err != nil {
			return nil, sink.ReportKind(diag.KindStructural, cellvalue.String(raw), err.Error())
		}
		if seen[col.Name] {
			return nil, sink.ReportKind(diag.KindStructural, cellvalue.String(col.Name), "duplicate column name")
		}
		seen[col.Name] = true
		columns[i] = col
	}

	explodedCols := make([]explode.ColumnInfo, 0, len(columns))
	for _, c := range columns {
		if !c.ValidName {
			continue
		}
		if c.IsExploded || c.IsCollection {
			explodedCols = append(explodedCols, explode.ColumnInfo{Name: rawExplodedName(c), Idx: c.Idx, TypeSpec: c.TypeText})
		}
	}
	explodedMap, err := explode.Build(explodedCols)
	if err != nil {
		return nil, sink.ReportKind(diag.KindSchema, cellvalue.String(source), err.Error())
	}

	nameIndex := make(map[string]int, len(columns))
	for i, c := range columns {
		nameIndex[c.Name] = i
	}

	h := &Header{
		Source:      source,
		Columns:     columns,
		nameIndex:   nameIndex,
		ExplodedMap: explodedMap,
	}
	h.TypeSpec = buildTypeSpec(columns, explodedMap)
	return h, nil
}

// rawExplodedName reconstructs the dotted/bracketed column-name text the
// explode analyzer expects, from a Column's already-parsed path/collection
// fields (ExplodedPath segments joined by ".", collection suffix
// reappended for collection columns).
func rawExplodedName(c Column) string {
	if c.IsCollection && !c.IsExploded {
		suffix := "[" + itoa(c.Collection.Index) + "]"
		if c.Collection.IsMapValue {
			suffix += "="
		}
		return c.Collection.BasePath + suffix
	}
	if c.IsExploded {
		last := c.ExplodedPath[len(c.ExplodedPath)-1]
		if c.IsCollection {
			suffix := "[" + itoa(c.Collection.Index) + "]"
			if c.Collection.IsMapValue {
				suffix += "="
			}
			last = lastSegmentName(c.Collection.BasePath) + suffix
		}
		path := append([]string(nil), c.ExplodedPath[:len(c.ExplodedPath)-1]...)
		path = append(path, last)
		return strings.Join(path, ".")
	}
	return c.Name
}

func lastSegmentName(basePath string) string {
	parts := strings.Split(basePath, ".")
	return parts[len(parts)-1]
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

// buildTypeSpec synthesizes the Header's __type_spec: a record type whose
// fields are the alphabetically sorted top-level column names, exploded
// roots collapsed to their analyzed structure's type spec (spec §3 Header).
func buildTypeSpec(columns []Column, explodedMap map[string]explode.Structure) string {
	fields := make(map[string]string)
	for _, c := range columns {
		if !c.ValidName {
			continue
		}
		if c.IsExploded || c.IsCollection {
			root := topLevelRoot(c)
			if _, ok := fields[root]; !ok {
				if s, ok := explodedMap[root]; ok {
					fields[root] = explode.CollapsedColumnSpec(root, s)
				}
			}
			continue
		}
		fields[c.Name] = c.Name + ":" + c.TypeText
	}

	names := make([]string, 0, len(fields))
	for n := range fields {
		names = append(names, n)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = fields[n]
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func topLevelRoot(c Column) string {
	if c.IsExploded {
		return c.ExplodedPath[0]
	}
	return lastSegmentName(c.Collection.BasePath)
}

