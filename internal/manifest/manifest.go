// Package manifest implements the manifest and file-descriptor loader of
// spec §4.H: parsing package manifests (transposed TSV), resolving their
// inter-dependencies into a topological package order, and matching file
// descriptors to physical files.
package manifest

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"

	"github.com/tabulua/tabulua/internal/cellvalue"
	"github.com/tabulua/tabulua/internal/codec"
	"github.com/tabulua/tabulua/internal/diag"
)

// ReqOp is one of the version-comparison operators a dependency may declare
// (spec §3 Manifest: "req_op ∈ {=,>,>=,<,<=,~,^}").
type ReqOp string

const (
	OpEqual       ReqOp = "="
	OpGreater     ReqOp = ">"
	OpGreaterEq   ReqOp = ">="
	OpLess        ReqOp = "<"
	OpLessEq      ReqOp = "<="
	OpTilde       ReqOp = "~"
	OpCaret       ReqOp = "^"
)

// Dependency is one entry of Manifest.Dependencies.
type Dependency struct {
	PackageID  string `json:"package_id"`
	ReqOp      ReqOp  `json:"req_op"`
	ReqVersion string `json:"req_version"`
}

// CodeLibrary is one entry of Manifest.CodeLibraries.
type CodeLibrary struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// CustomType is one entry of Manifest.CustomTypes: a user-declared alias or
// restriction, registered into the type registry before any data file in
// the package is parsed (spec §4.H step 4).
type CustomType struct {
	Name     string `json:"name"`
	Spec     string `json:"spec"`
	Validate string `json:"validate,omitempty"`
}

// ValidatorSpec is the normalized form of spec §3's "bare expression string
// (level=error) or {expr,level}".
type ValidatorSpec struct {
	Expr  string
	Level string // "error" or "warn"
}

// Manifest is the immutable package descriptor of spec §3 Manifest.
type Manifest struct {
	Path                string
	PackageID           string
	Name                string
	Version             string
	Description         string
	URL                 string
	CustomTypes         []CustomType
	CodeLibraries       []CodeLibrary
	Dependencies        []Dependency
	LoadAfter           []string
	PackageValidators   []ValidatorSpec
}

// manifestFields is the fixed column order of spec §6.1's "Manifest header
// columns (after transposition)".
var manifestFields = []string{
	"path", "package_id", "name", "version", "description", "url",
	"custom_types", "code_libraries", "dependencies", "load_after",
	"package_validators",
}

// Parse implements spec §4.H step 2: a Manifest.transposed.tsv file is
// physically stored column-per-row (to make vertical editing of a single
// record convenient); codec.Transpose recovers the logical header+value
// layout before field extraction.
func Parse(sink *diag.Sink, path string, text string) (*Manifest, error) {
	decoded, err := codec.Decode(text)
	if err != nil {
		return nil, sink.Wrap(err, "manifest decode")
	}
	logical := codec.Transpose(decoded)
	if len(logical) < 2 {
		return nil, errors.Errorf("manifest %s: expected header and value rows after transposition", path)
	}

	header := logical[0]
	values := logical[1]
	if header.IsComment || values.IsComment {
		return nil, errors.Errorf("manifest %s: malformed header/value rows", path)
	}

	known := make(map[string]bool, len(manifestFields))
	for _, f := range manifestFields {
		known[f] = true
	}

	fieldIdx := make(map[string]int, len(header.Cells))
	for i, name := range header.Cells {
		name = strings.TrimSpace(name)
		if !known[name] {
			sink.ReportKind(diag.KindSchema, cellvalue.String(name), "manifest "+path+" has unrecognized field")
		}
		fieldIdx[name] = i
	}

	get := func(name string) string {
		i, ok := fieldIdx[name]
		if !ok || i >= len(values.Cells) {
			return ""
		}
		return values.Cells[i]
	}

	for _, required := range []string{"package_id", "name", "version"} {
		if get(required) == "" {
			return nil, sink.ReportKind(diag.KindStructural, cellvalue.String(path), "manifest "+path+" missing required field "+required)
		}
	}

	m := &Manifest{
		Path:        get("path"),
		PackageID:   get("package_id"),
		Name:        get("name"),
		Version:     get("version"),
		Description: get("description"),
		URL:         get("url"),
	}
	if m.Path == "" {
		m.Path = path
	}

	if raw := get("custom_types"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &m.CustomTypes); err != nil {
			sink.ReportKind(diag.KindStructural, cellvalue.String(path), "manifest "+path+" custom_types: "+err.Error())
		}
	}
	if raw := get("code_libraries"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &m.CodeLibraries); err != nil {
			sink.ReportKind(diag.KindStructural, cellvalue.String(path), "manifest "+path+" code_libraries: "+err.Error())
		}
	}
	if raw := get("dependencies"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &m.Dependencies); err != nil {
			sink.ReportKind(diag.KindStructural, cellvalue.String(path), "manifest "+path+" dependencies: "+err.Error())
		}
	}
	if raw := get("load_after"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &m.LoadAfter); err != nil {
			sink.ReportKind(diag.KindStructural, cellvalue.String(path), "manifest "+path+" load_after: "+err.Error())
		}
	}
	if raw := get("package_validators"); raw != "" {
		specs, err := parseValidatorSpecs(raw)
		if err != nil {
			sink.ReportKind(diag.KindStructural, cellvalue.String(path), "manifest "+path+" package_validators: "+err.Error())
		}
		m.PackageValidators = specs
	}

	return m, nil
}

// parseValidatorSpecs decodes spec §3's "array of (bare expression string
// with level=error) or ({expr,level})" into normalized ValidatorSpecs.
func parseValidatorSpecs(raw string) ([]ValidatorSpec, error) {
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, err
	}
	out := make([]ValidatorSpec, 0, len(items))
	for _, item := range items {
		var asString string
		if err := json.Unmarshal(item, &asString); err == nil {
			out = append(out, ValidatorSpec{Expr: asString, Level: "error"})
			continue
		}
		var asStruct struct {
			Expr  string `json:"expr"`
			Level string `json:"level"`
		}
		if err := json.Unmarshal(item, &asStruct); err != nil {
			return nil, err
		}
		level := asStruct.Level
		if level == "" {
			level = "error"
		}
		out = append(out, ValidatorSpec{Expr: asStruct.Expr, Level: level})
	}
	return out, nil
}
