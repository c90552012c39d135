package typereg

import (
	"sort"
	"strings"

	"github.com/tabulua/tabulua/internal/cellvalue"
	"github.com/tabulua/tabulua/internal/diag"
)

// TableParser implements the untyped `{}` table type: any value passes
// through unchanged.
type TableParser struct{}

func (TableParser) ParseTSV(sink *diag.Sink, text string) (cellvalue.Value, string) {
	return cellvalue.String(text), text
}

func (TableParser) ParseValue(sink *diag.Sink, value cellvalue.Value) (cellvalue.Value, string) {
	return value, value.GoString()
}

// EnumParser accepts only a fixed set of string labels (spec §4.C).
type EnumParser struct {
	Labels    []string
	labelSet  map[string]bool
}

func NewEnumParser(labels []string) *EnumParser {
	set := make(map[string]bool, len(labels))
	for _, l := range labels {
		set[l] = true
	}
	return &EnumParser{Labels: labels, labelSet: set}
}

func (e *EnumParser) ParseTSV(sink *diag.Sink, text string) (cellvalue.Value, string) {
	if !e.labelSet[text] {
		sink.ReportKind(diag.KindValue, cellvalue.String(text), "not a member of enum "+strings.Join(e.Labels, "|"))
		return cellvalue.Nil, text
	}
	return cellvalue.String(text), text
}

func (e *EnumParser) ParseValue(sink *diag.Sink, value cellvalue.Value) (cellvalue.Value, string) {
	if value.Kind() != cellvalue.KindString || !e.labelSet[value.Str()] {
		sink.ReportKind(diag.KindValue, value, "not a member of enum "+strings.Join(e.Labels, "|"))
		return cellvalue.Nil, value.GoString()
	}
	return value, value.Str()
}

// ArrayParser parses a homogeneous list encoded as JSON array text. The
// textual encoding for inline (non-exploded) composite cells is JSON
// throughout this registry: spec.md does not define a literal syntax for
// composite types reached outside the exploded-column path, so a single
// canonical, unambiguous textual form is needed and JSON is it (see
// DESIGN.md's "composite literal encoding" entry).
type ArrayParser struct {
	Elem     Parser
	TypeSpec string
}

func (p *ArrayParser) ParseTSV(sink *diag.Sink, text string) (cellvalue.Value, string) {
	raw, err := decodeJSONList(text)
	if err != nil {
		sink.ReportKind(diag.KindValue, cellvalue.String(text), err.Error())
		return cellvalue.Nil, text
	}
	items := make([]cellvalue.Value, len(raw))
	for i, r := range raw {
		v, _ := p.Elem.ParseTSV(sink, r)
		items[i] = v
	}
	result := cellvalue.List(items)
	return result, encodeJSON(result)
}

func (p *ArrayParser) ParseValue(sink *diag.Sink, value cellvalue.Value) (cellvalue.Value, string) {
	if value.Kind() != cellvalue.KindList {
		sink.ReportKind(diag.KindValue, value, "expected array, got "+value.Kind().String())
		return cellvalue.Nil, value.GoString()
	}
	items := make([]cellvalue.Value, len(value.List()))
	for i, v := range value.List() {
		pv, _ := p.Elem.ParseValue(sink, v)
		items[i] = pv
	}
	result := cellvalue.List(items)
	return result, encodeJSON(result)
}

// MapParser parses an ordered key/value collection.
type MapParser struct {
	Key, Value Parser
	TypeSpec   string
}

func (p *MapParser) ParseTSV(sink *diag.Sink, text string) (cellvalue.Value, string) {
	raw, err := decodeJSONObject(text)
	if err != nil {
		sink.ReportKind(diag.KindValue, cellvalue.String(text), err.Error())
		return cellvalue.Nil, text
	}
	entries := make([]cellvalue.MapEntry, len(raw))
	for i, kv := range raw {
		k, _ := p.Key.ParseTSV(sink, kv.key)
		v, _ := p.Value.ParseTSV(sink, kv.value)
		entries[i] = cellvalue.MapEntry{Key: k, Value: v}
	}
	result := cellvalue.Map(entries)
	return result, encodeJSON(result)
}

func (p *MapParser) ParseValue(sink *diag.Sink, value cellvalue.Value) (cellvalue.Value, string) {
	if value.Kind() != cellvalue.KindMap {
		sink.ReportKind(diag.KindValue, value, "expected map, got "+value.Kind().String())
		return cellvalue.Nil, value.GoString()
	}
	entries := make([]cellvalue.MapEntry, len(value.Entries()))
	for i, e := range value.Entries() {
		k, _ := p.Key.ParseValue(sink, e.Key)
		v, _ := p.Value.ParseValue(sink, e.Value)
		entries[i] = cellvalue.MapEntry{Key: k, Value: v}
	}
	result := cellvalue.Map(entries)
	return result, encodeJSON(result)
}

// TupleParser parses a fixed-arity positional sequence.
type TupleParser struct {
	Fields   []Parser
	TypeSpec string
}

func (p *TupleParser) ParseTSV(sink *diag.Sink, text string) (cellvalue.Value, string) {
	raw, err := decodeJSONList(text)
	if err != nil {
		sink.ReportKind(diag.KindValue, cellvalue.String(text), err.Error())
		return cellvalue.Nil, text
	}
	if len(raw) != len(p.Fields) {
		sink.ReportKind(diag.KindValue, cellvalue.String(text), "tuple arity mismatch")
		return cellvalue.Nil, text
	}
	items := make([]cellvalue.Value, len(raw))
	for i, r := range raw {
		v, _ := p.Fields[i].ParseTSV(sink, r)
		items[i] = v
	}
	result := cellvalue.Tuple(items)
	return result, encodeJSON(result)
}

func (p *TupleParser) ParseValue(sink *diag.Sink, value cellvalue.Value) (cellvalue.Value, string) {
	if value.Kind() != cellvalue.KindTuple || len(value.List()) != len(p.Fields) {
		sink.ReportKind(diag.KindValue, value, "expected tuple of arity "+itoa(len(p.Fields)))
		return cellvalue.Nil, value.GoString()
	}
	items := make([]cellvalue.Value, len(p.Fields))
	for i, v := range value.List() {
		pv, _ := p.Fields[i].ParseValue(sink, v)
		items[i] = pv
	}
	result := cellvalue.Tuple(items)
	return result, encodeJSON(result)
}

// RecordParser parses a fixed set of named fields.
type RecordParser struct {
	Names    []string
	Fields   []Parser
	TypeSpec string
}

func (p *RecordParser) ParseTSV(sink *diag.Sink, text string) (cellvalue.Value, string) {
	raw, err := decodeJSONObjectOrdered(text, p.Names)
	if err != nil {
		sink.ReportKind(diag.KindValue, cellvalue.String(text), err.Error())
		return cellvalue.Nil, text
	}
	entries := make([]cellvalue.RecordEntry, len(p.Names))
	for i, name := range p.Names {
		v, _ := p.Fields[i].ParseTSV(sink, raw[name])
		entries[i] = cellvalue.RecordEntry{Name: name, Value: v}
	}
	result := cellvalue.Record(entries)
	return result, encodeJSON(result)
}

func (p *RecordParser) ParseValue(sink *diag.Sink, value cellvalue.Value) (cellvalue.Value, string) {
	if value.Kind() != cellvalue.KindRecord {
		sink.ReportKind(diag.KindValue, value, "expected record, got "+value.Kind().String())
		return cellvalue.Nil, value.GoString()
	}
	entries := make([]cellvalue.RecordEntry, len(p.Names))
	for i, name := range p.Names {
		fv, ok := value.Field(name)
		if !ok {
			sink.ReportKind(diag.KindValue, value, "missing field "+name)
			fv = cellvalue.Nil
		}
		pv, _ := p.Fields[i].ParseValue(sink, fv)
		entries[i] = cellvalue.RecordEntry{Name: name, Value: pv}
	}
	result := cellvalue.Record(entries)
	return result, encodeJSON(result)
}

// UnionParser tries each alternative in declared order and accepts the
// first one that parses without introducing a new sink error.
type UnionParser struct {
	Alternatives []Parser
	TypeSpec     string
}

func (p *UnionParser) ParseTSV(sink *diag.Sink, text string) (cellvalue.Value, string) {
	null := diag.NewNullSink()
	for _, alt := range p.Alternatives {
		v, reformatted := alt.ParseTSV(null, text)
		if null.ErrorCount() == 0 {
			return v, reformatted
		}
		null = diag.NewNullSink()
	}
	sink.ReportKind(diag.KindValue, cellvalue.String(text), "matches no union alternative in "+p.TypeSpec)
	return cellvalue.Nil, text
}

func (p *UnionParser) ParseValue(sink *diag.Sink, value cellvalue.Value) (cellvalue.Value, string) {
	null := diag.NewNullSink()
	for _, alt := range p.Alternatives {
		v, reformatted := alt.ParseValue(null, value)
		if null.ErrorCount() == 0 {
			return v, reformatted
		}
		null = diag.NewNullSink()
	}
	sink.ReportKind(diag.KindValue, value, "matches no union alternative in "+p.TypeSpec)
	return cellvalue.Nil, value.GoString()
}

// ExtendsParser enforces an ancestor-type constraint (spec §4.B
// `{extends,T}` / `{extends:T}`): the value must parse under Base, and
// additionally satisfy Parent (a restriction or another named type).
type ExtendsParser struct {
	Base, Parent Parser
	TypeSpec     string
}

func (p *ExtendsParser) ParseTSV(sink *diag.Sink, text string) (cellvalue.Value, string) {
	v, reformatted := p.Base.ParseTSV(sink, text)
	null := diag.NewNullSink()
	p.Parent.ParseValue(null, v)
	if null.ErrorCount() > 0 {
		sink.ReportKind(diag.KindValue, v, "does not satisfy extends constraint "+p.TypeSpec)
	}
	return v, reformatted
}

func (p *ExtendsParser) ParseValue(sink *diag.Sink, value cellvalue.Value) (cellvalue.Value, string) {
	v, reformatted := p.Base.ParseValue(sink, value)
	null := diag.NewNullSink()
	p.Parent.ParseValue(null, v)
	if null.ErrorCount() > 0 {
		sink.ReportKind(diag.KindValue, v, "does not satisfy extends constraint "+p.TypeSpec)
	}
	return v, reformatted
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// SortedNames is used by introspection helpers that need a stable field
// ordering independent of declaration order (e.g. diagnostics output).
func SortedNames(names []string) []string {
	out := append([]string(nil), names...)
	sort.Strings(out)
	return out
}

// typeSpecOf extracts the rendered type-spec text from any composite
// parser, used by the registry's introspection helpers.
func typeSpecOf(p Parser) string {
	switch t := p.(type) {
	case *ArrayParser:
		return t.TypeSpec
	case *MapParser:
		return t.TypeSpec
	case *TupleParser:
		return t.TypeSpec
	case *RecordParser:
		return t.TypeSpec
	case *UnionParser:
		return t.TypeSpec
	case *ExtendsParser:
		return t.TypeSpec
	default:
		return ""
	}
}
