package tabulua

import (
	"strings"

	"github.com/tabulua/tabulua/internal/cellvalue"
	"github.com/tabulua/tabulua/internal/dataset"
	"github.com/tabulua/tabulua/internal/diag"
	"github.com/tabulua/tabulua/internal/manifest"
	"github.com/tabulua/tabulua/internal/typereg"
	"github.com/tabulua/tabulua/internal/typespec"
)

// fileKind classifies a declared type name as an Enum subtype, a Type
// subtype, or a plain record type (spec §4.H step 6).
type fileKind int

const (
	kindRecord fileKind = iota
	kindEnum
	kindType
)

// typeKindTracker records which declared type names are Enum/Type
// subtypes, resolved from manifest custom_types entries declared with
// `{extends,Enum}`/`{extends,Type}` (spec §4.H step 6: "files whose type
// name is a subtype of Enum/Type").
type typeKindTracker struct {
	kinds map[string]fileKind
}

func newTypeKindTracker() *typeKindTracker {
	return &typeKindTracker{kinds: map[string]fileKind{}}
}

func (t *typeKindTracker) kindOf(name string) fileKind {
	return t.kinds[name]
}

// registerCustomTypes implements spec §4.H step 4: register a package's
// custom_types and code_libraries into the shared registry before any of
// its data files are parsed. A custom type whose spec extends "Enum" or
// "Type" is recorded as a subtype marker rather than a concrete alias:
// it exists to classify later data files, not to parse values itself.
func registerCustomTypes(sink *diag.Sink, reg *typereg.Registry, kinds *typeKindTracker, m *manifest.Manifest) {
	for _, ct := range m.CustomTypes {
		node, err := typespec.Parse(ct.Spec)
		if err != nil {
			sink.ReportKind(diag.KindSchema, cellvalue.String(ct.Name), err.Error())
			continue
		}

		if node.Extends != nil && node.Extends.Tag == typespec.TagName {
			switch node.Extends.Name {
			case "Enum":
				kinds.kinds[ct.Name] = kindEnum
				continue
			case "Type":
				kinds.kinds[ct.Name] = kindType
				continue
			}
		}

		reg.RegisterAlias(sink, ct.Name, node)
	}
	// code_libraries (m.CodeLibraries) name Lua modules a package's
	// expressions may load; TabuLua's sandbox (§4.F) has no require/import
	// primitive of its own, so loading them is the orchestrator's job
	// alone, not the type registry's; nothing further to register here.
}

// registerFileType implements spec §4.H step 6's per-file registration
// rule: an Enum-subtype file's rows become enum labels; a Type-subtype
// file's rows each declare a name/spec alias pair; every other file
// registers its own record type under its declared name, unless that
// name is already a built-in or already registered.
func registerFileType(sink *diag.Sink, reg *typereg.Registry, kinds *typeKindTracker, declared string, ds *dataset.Dataset) {
	switch kinds.kindOf(declared) {
	case kindEnum:
		labels := enumLabels(ds)
		reg.RegisterEnumParser(sink, declared, labels)
	case kindType:
		registerAliasRows(sink, reg, ds)
	default:
		if reg.IsBuiltInType(declared) || reg.GetTypeKind(declared) != "" {
			return
		}
		node, err := typespec.Parse(ds.Header.TypeSpec)
		if err != nil {
			sink.ReportKind(diag.KindSchema, cellvalue.String(declared), err.Error())
			return
		}
		reg.RegisterAlias(sink, declared, node)
	}
}

// enumLabels reads the first column of every row as a label string
// (an Enum-subtype file is, by convention, a one-column list of labels).
func enumLabels(ds *dataset.Dataset) []string {
	var labels []string
	for _, row := range ds.Rows() {
		v, ok := row.GetIdx(1)
		if !ok || v.IsNil() {
			continue
		}
		labels = append(labels, v.Str())
	}
	return labels
}

// registerAliasRows reads each row of a Type-subtype file as a name/spec
// pair (columns "name" and "spec", the same shape as a manifest
// CustomType entry) and registers each as an alias.
func registerAliasRows(sink *diag.Sink, reg *typereg.Registry, ds *dataset.Dataset) {
	for _, row := range ds.Rows() {
		nameVal, ok := row.Get("name")
		if !ok || nameVal.IsNil() {
			continue
		}
		specVal, ok := row.Get("spec")
		if !ok || specVal.IsNil() {
			continue
		}
		node, err := typespec.Parse(strings.TrimSpace(specVal.Str()))
		if err != nil {
			sink.ReportKind(diag.KindSchema, nameVal, err.Error())
			continue
		}
		reg.RegisterAlias(sink, nameVal.Str(), node)
	}
}
