// Package typereg holds the process-wide type registry described in
// spec §4.C: built-in parsers, user aliases, enum parsers, and the
// generic composite-type parser constructors (array/map/tuple/record/
// union) that wrap them. Scalar built-ins live in internal/cellparse and
// are handed to NewRegistry rather than imported here, keeping typereg
// free of any dependency on the concrete per-type parsing logic.
package typereg

import (
	"github.com/pkg/errors"

	"github.com/tabulua/tabulua/internal/cellvalue"
	"github.com/tabulua/tabulua/internal/diag"
	"github.com/tabulua/tabulua/internal/typespec"
)

// Mode selects how a Parser's input should be interpreted, mirroring
// spec §4.D's `mode ∈ {tsv, parsed}`. Modeled as two methods rather than
// a string-switched single method, since that is how Go expresses a
// closed two-way dispatch without stringly-typed branching.
type Parser interface {
	// ParseTSV interprets text taken verbatim from a TSV cell.
	ParseTSV(sink *diag.Sink, text string) (cellvalue.Value, string)
	// ParseValue validates/coerces an already-typed value, produced by
	// expression evaluation, and reformats it.
	ParseValue(sink *diag.Sink, value cellvalue.Value) (cellvalue.Value, string)
}

// Registry is the explicit, threaded TypeRegistry value described in
// spec §9 ("Global registries... become an explicit TypeRegistry value
// threaded through the orchestrator rather than process globals").
type Registry struct {
	builtins map[string]Parser
	aliases  map[string]*typespec.Node
	enums    map[string]*EnumParser
}

// NewRegistry seeds a Registry with the given built-in scalar parsers.
// Callers (the orchestrator) pass in internal/cellparse's built-in table.
func NewRegistry(builtins map[string]Parser) *Registry {
	cp := make(map[string]Parser, len(builtins))
	for k, v := range builtins {
		cp[k] = v
	}
	return &Registry{
		builtins: cp,
		aliases:  make(map[string]*typespec.Node),
		enums:    make(map[string]*EnumParser),
	}
}

// IsBuiltInType reports whether name names a built-in scalar type.
func (r *Registry) IsBuiltInType(name string) bool {
	_, ok := r.builtins[name]
	return ok
}

// RegisterAlias registers name as an alias for spec. Aliasing a built-in
// name is rejected (Schema error). A second registration of an existing
// alias name keeps the first registration and reports a Schema diagnostic
// through sink (counted in its ErrorCount) instead of overwriting it; the
// call still returns nil (Open Question #3, SPEC_FULL.md).
func (r *Registry) RegisterAlias(sink *diag.Sink, name string, spec *typespec.Node) error {
	if r.IsBuiltInType(name) {
		err := errors.Errorf("cannot register alias %q: shadows a built-in type", name)
		return sink.ReportKind(diag.KindSchema, cellvalue.String(name), err.Error())
	}
	if _, exists := r.aliases[name]; exists {
		sink.ReportKind(diag.KindSchema, cellvalue.String(name),
			"alias already registered; keeping first registration")
		return nil
	}
	r.aliases[name] = spec
	return nil
}

// RegisterEnumParser registers name as an enum type accepting only the
// given labels.
func (r *Registry) RegisterEnumParser(sink *diag.Sink, name string, labels []string) error {
	if r.IsBuiltInType(name) {
		err := errors.Errorf("cannot register enum %q: shadows a built-in type", name)
		return sink.ReportKind(diag.KindSchema, cellvalue.String(name), err.Error())
	}
	if _, exists := r.enums[name]; exists {
		sink.ReportKind(diag.KindSchema, cellvalue.String(name),
			"enum already registered; keeping first registration")
		return nil
	}
	r.enums[name] = NewEnumParser(labels)
	return nil
}

// GetTypeKind reports the structural kind backing name, resolving
// through aliases: "builtin", "enum", "alias", or "" if unknown.
func (r *Registry) GetTypeKind(name string) string {
	switch {
	case r.IsBuiltInType(name):
		return "builtin"
	case r.enums[name] != nil:
		return "enum"
	case r.aliases[name] != nil:
		return "alias"
	default:
		return ""
	}
}

// ParseType resolves a type-spec AST node into an executable Parser.
// Resolution order for a TagName leaf is: exact alias, then built-in,
// then enum, else a Schema "unknown type" error (spec §4.C).
func (r *Registry) ParseType(sink *diag.Sink, node *typespec.Node) (Parser, error) {
	return r.parseType(sink, node, make(map[string]bool))
}

func (r *Registry) parseType(sink *diag.Sink, node *typespec.Node, visiting map[string]bool) (Parser, error) {
	switch node.Tag {
	case typespec.TagSelfRef:
		return nil, errors.Errorf("self-reference %q is not valid as a top-level type", node.Name)

	case typespec.TagName:
		return r.resolveName(sink, node, visiting)

	case typespec.TagTable:
		return TableParser{}, nil

	case typespec.TagEnum:
		return NewEnumParser(node.EnumLabels), nil

	case typespec.TagArray:
		elem, err := r.parseType(sink, node.Elem, visiting)
		if err != nil {
			return nil, err
		}
		return &ArrayParser{Elem: elem, TypeSpec: typespec.Render(node)}, nil

	case typespec.TagMap:
		key, err := r.parseType(sink, node.KeyType, visiting)
		if err != nil {
			return nil, err
		}
		val, err := r.parseType(sink, node.ValueType, visiting)
		if err != nil {
			return nil, err
		}
		return &MapParser{Key: key, Value: val, TypeSpec: typespec.Render(node)}, nil

	case typespec.TagTuple:
		fields := make([]Parser, len(node.TupleFields))
		for i, f := range node.TupleFields {
			p, err := r.parseType(sink, f, visiting)
			if err != nil {
				return nil, err
			}
			fields[i] = p
		}
		return &TupleParser{Fields: fields, TypeSpec: typespec.Render(node)}, nil

	case typespec.TagRecord:
		names := make([]string, len(node.RecordFields))
		fields := make([]Parser, len(node.RecordFields))
		for i, f := range node.RecordFields {
			p, err := r.parseType(sink, f.Type, visiting)
			if err != nil {
				return nil, err
			}
			names[i] = f.Name
			fields[i] = p
		}
		return &RecordParser{Names: names, Fields: fields, TypeSpec: typespec.Render(node)}, nil

	case typespec.TagUnion:
		alts := make([]Parser, len(node.Alternatives))
		for i, a := range node.Alternatives {
			p, err := r.parseType(sink, a, visiting)
			if err != nil {
				return nil, err
			}
			alts[i] = p
		}
		return &UnionParser{Alternatives: alts, TypeSpec: typespec.Render(node)}, nil

	default:
		return nil, errors.Errorf("unrecognized type-spec tag %q", node.Tag)
	}
}

func (r *Registry) resolveName(sink *diag.Sink, node *typespec.Node, visiting map[string]bool) (Parser, error) {
	name := node.Name

	if alias, ok := r.aliases[name]; ok {
		if visiting[name] {
			return nil, errors.Errorf("alias cycle detected at %q", name)
		}
		visiting[name] = true
		defer delete(visiting, name)
		base, err := r.parseType(sink, alias, visiting)
		if err != nil {
			return nil, err
		}
		if node.Extends != nil {
			return r.applyExtends(sink, base, node.Extends, visiting)
		}
		return base, nil
	}

	if p, ok := r.builtins[name]; ok {
		if node.Extends != nil {
			return r.applyExtends(sink, p, node.Extends, visiting)
		}
		return p, nil
	}

	if e, ok := r.enums[name]; ok {
		return e, nil
	}

	return nil, sinkUnknownType(sink, name)
}

func (r *Registry) applyExtends(sink *diag.Sink, base Parser, extends *typespec.Node, visiting map[string]bool) (Parser, error) {
	parent, err := r.parseType(sink, extends, visiting)
	if err != nil {
		return nil, errors.Wrapf(err, "extends constraint on %q", typespec.Render(extends))
	}
	return &ExtendsParser{Base: base, Parent: parent, TypeSpec: typespec.Render(extends)}, nil
}

func sinkUnknownType(sink *diag.Sink, name string) error {
	return sink.ReportKind(diag.KindSchema, cellvalue.String(name), "unknown type")
}

// ArrayElementType returns the declared element type spec of an
// ArrayParser, used by the exploded-column analyzer's introspection
// needs (spec §4.C: "arrayElementType").
func ArrayElementType(p Parser) (string, bool) {
	ap, ok := p.(*ArrayParser)
	if !ok {
		return "", false
	}
	n, err := typespec.Parse(ap.TypeSpec)
	if err != nil || n.Tag != typespec.TagArray {
		return "", false
	}
	return typespec.Render(n.Elem), true
}

// MapKVType returns the declared key/value type specs of a MapParser.
func MapKVType(p Parser) (key, value string, ok bool) {
	mp, isMap := p.(*MapParser)
	if !isMap {
		return "", "", false
	}
	n, err := typespec.Parse(mp.TypeSpec)
	if err != nil || n.Tag != typespec.TagMap {
		return "", "", false
	}
	return typespec.Render(n.KeyType), typespec.Render(n.ValueType), true
}
