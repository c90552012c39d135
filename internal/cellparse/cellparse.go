// Package cellparse implements the built-in scalar parsers described in
// spec §4.D: the uniform parse(text|value, mode) -> (parsed, reformatted)
// contract for every primitive and extended-string type named in §4.B.
// Composite types (array/map/tuple/record/union/enum) are generic and
// live in internal/typereg instead; this package supplies only the
// scalar leaves that typereg's registry is seeded with.
package cellparse

import (
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cast"
	"golang.org/x/text/unicode/norm"

	"github.com/tabulua/tabulua/internal/cellvalue"
	"github.com/tabulua/tabulua/internal/diag"
	"github.com/tabulua/tabulua/internal/typereg"
)

// Builtins returns the full built-in scalar parser table, ready to seed
// a typereg.Registry.
func Builtins() map[string]typereg.Parser {
	m := map[string]typereg.Parser{
		"nil":         nilParser{},
		"boolean":     boolParser{},
		"true":        literalTrueParser{},
		"integer":     integerParser{bits: 64, signed: true},
		"number":      floatParser{},
		"string":      stringParser{},
		"text":        textParser{markdown: false},
		"markdown":    textParser{markdown: true},
		"identifier":  patternParser{name: "identifier", re: identifierPattern},
		"name":        nameParser{},
		"version":     patternParser{name: "version", re: semverPattern},
		"cmp_version": patternParser{name: "cmp_version", re: cmpVersionPattern},
		"http":        patternParser{name: "http", re: httpPattern},
		"type_spec":   typeSpecParser{},
		"type":        typeSpecParser{},
		"percent":     percentParser{},
		"ratio":       ratioParser{},
		"comment":     commentParser{},
		"table":       tableParser{},
	}
	for _, bits := range []int{8, 16, 32, 64} {
		m["int"+itoa(bits)] = integerParser{bits: bits, signed: true}
		m["uint"+itoa(bits)] = integerParser{bits: bits, signed: false}
	}
	return m
}

func itoa(n int) string { return strconv.Itoa(n) }

// nilParser accepts only the empty/absent value.
type nilParser struct{}

func (nilParser) ParseTSV(sink *diag.Sink, text string) (cellvalue.Value, string) {
	if text != "" {
		sink.ReportKind(diag.KindValue, cellvalue.String(text), "expected nil")
		return cellvalue.Nil, text
	}
	return cellvalue.Nil, ""
}

func (nilParser) ParseValue(sink *diag.Sink, value cellvalue.Value) (cellvalue.Value, string) {
	if !value.IsNil() {
		sink.ReportKind(diag.KindValue, value, "expected nil")
	}
	return cellvalue.Nil, ""
}

// boolParser accepts "true"/"false" text.
type boolParser struct{}

func (boolParser) ParseTSV(sink *diag.Sink, text string) (cellvalue.Value, string) {
	switch text {
	case "true":
		return cellvalue.Bool(true), "true"
	case "false":
		return cellvalue.Bool(false), "false"
	default:
		sink.ReportKind(diag.KindValue, cellvalue.String(text), "expected boolean")
		return cellvalue.Nil, text
	}
}

func (boolParser) ParseValue(sink *diag.Sink, value cellvalue.Value) (cellvalue.Value, string) {
	b, err := cast.ToBoolE(valueToCastable(value))
	if err != nil {
		sink.ReportKind(diag.KindValue, value, "expected boolean")
		return cellvalue.Nil, value.GoString()
	}
	return cellvalue.Bool(b), strconv.FormatBool(b)
}

// literalTrueParser implements the `true` singleton type: the only valid
// value is the boolean true.
type literalTrueParser struct{}

func (literalTrueParser) ParseTSV(sink *diag.Sink, text string) (cellvalue.Value, string) {
	if text != "true" {
		sink.ReportKind(diag.KindValue, cellvalue.String(text), "expected literal true")
		return cellvalue.Nil, text
	}
	return cellvalue.Bool(true), "true"
}

func (literalTrueParser) ParseValue(sink *diag.Sink, value cellvalue.Value) (cellvalue.Value, string) {
	if value.Kind() != cellvalue.KindBool || !value.Bool() {
		sink.ReportKind(diag.KindValue, value, "expected literal true")
		return cellvalue.Nil, value.GoString()
	}
	return cellvalue.Bool(true), "true"
}

// tableParser accepts the untyped `table` primitive; same semantics as
// typereg.TableParser but registered under the bare name "table" too.
type tableParser struct{}

func (tableParser) ParseTSV(sink *diag.Sink, text string) (cellvalue.Value, string) {
	return cellvalue.String(text), text
}

func (tableParser) ParseValue(sink *diag.Sink, value cellvalue.Value) (cellvalue.Value, string) {
	return value, value.GoString()
}

// integerParser implements exact, two's-complement sized integers
// (spec §4.D numeric semantics).
type integerParser struct {
	bits   int
	signed bool
}

func (p integerParser) rangeOf() (min, max int64) {
	if p.signed {
		max = int64(1)<<(uint(p.bits)-1) - 1
		min = -max - 1
		return
	}
	return 0, int64(1)<<uint(p.bits) - 1
}

func (p integerParser) inRange(n int64) bool {
	min, max := p.rangeOf()
	return n >= min && n <= max
}

func (p integerParser) ParseTSV(sink *diag.Sink, text string) (cellvalue.Value, string) {
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		sink.ReportKind(diag.KindValue, cellvalue.String(text), "expected integer")
		return cellvalue.Nil, text
	}
	if !p.inRange(n) {
		sink.ReportKind(diag.KindValue, cellvalue.Int(n), "integer overflow for declared width")
		return cellvalue.Nil, text
	}
	return cellvalue.Int(n), strconv.FormatInt(n, 10)
}

func (p integerParser) ParseValue(sink *diag.Sink, value cellvalue.Value) (cellvalue.Value, string) {
	var n int64
	switch value.Kind() {
	case cellvalue.KindInt:
		n = value.Int()
	case cellvalue.KindFloat:
		f := value.Float()
		if f != math.Trunc(f) {
			sink.ReportKind(diag.KindValue, value, "expected integer-valued number")
			return cellvalue.Nil, value.GoString()
		}
		n = int64(f)
	default:
		coerced, err := cast.ToInt64E(valueToCastable(value))
		if err != nil {
			sink.ReportKind(diag.KindValue, value, "expected integer")
			return cellvalue.Nil, value.GoString()
		}
		n = coerced
	}
	if !p.inRange(n) {
		sink.ReportKind(diag.KindValue, cellvalue.Int(n), "integer overflow for declared width")
		return cellvalue.Nil, value.GoString()
	}
	return cellvalue.Int(n), strconv.FormatInt(n, 10)
}

// floatParser implements IEEE 754 `number`.
type floatParser struct{}

func (floatParser) ParseTSV(sink *diag.Sink, text string) (cellvalue.Value, string) {
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		sink.ReportKind(diag.KindValue, cellvalue.String(text), "expected number")
		return cellvalue.Nil, text
	}
	return cellvalue.Float(f), formatFloatLiteral(f)
}

func (floatParser) ParseValue(sink *diag.Sink, value cellvalue.Value) (cellvalue.Value, string) {
	switch value.Kind() {
	case cellvalue.KindFloat:
		return value, formatFloatLiteral(value.Float())
	case cellvalue.KindInt:
		f := float64(value.Int())
		return cellvalue.Float(f), formatFloatLiteral(f)
	default:
		f, err := cast.ToFloat64E(valueToCastable(value))
		if err != nil {
			sink.ReportKind(diag.KindValue, value, "expected number")
			return cellvalue.Nil, value.GoString()
		}
		return cellvalue.Float(f), formatFloatLiteral(f)
	}
}

func formatFloatLiteral(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NAN"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	default:
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
}

// stringParser implements the bare `string` primitive: any text, no
// escapes, reformatted verbatim.
type stringParser struct{}

func (stringParser) ParseTSV(sink *diag.Sink, text string) (cellvalue.Value, string) {
	return cellvalue.String(text), text
}

func (stringParser) ParseValue(sink *diag.Sink, value cellvalue.Value) (cellvalue.Value, string) {
	s, err := cast.ToStringE(valueToCastable(value))
	if err != nil {
		sink.ReportKind(diag.KindValue, value, "expected string")
		return cellvalue.Nil, value.GoString()
	}
	return cellvalue.String(s), s
}

// valueToCastable adapts a cellvalue.Value to the kind of Go scalar
// github.com/spf13/cast knows how to coerce.
func valueToCastable(v cellvalue.Value) interface{} {
	switch v.Kind() {
	case cellvalue.KindBool:
		return v.Bool()
	case cellvalue.KindInt:
		return v.Int()
	case cellvalue.KindFloat:
		return v.Float()
	case cellvalue.KindString:
		return v.Str()
	case cellvalue.KindNil:
		return nil
	default:
		return v.GoString()
	}
}

// textParser implements `text` (and, extended, `markdown`): accepts
// `\t`, `\n`, `\\` backslash escapes in the TSV literal and normalizes
// to NFC so canonically-equivalent byte sequences reformat identically.
type textParser struct{ markdown bool }

func (p textParser) ParseTSV(sink *diag.Sink, text string) (cellvalue.Value, string) {
	unescaped, err := unescapeText(text)
	if err != nil {
		sink.ReportKind(diag.KindValue, cellvalue.String(text), err.Error())
		return cellvalue.Nil, text
	}
	normalized := norm.NFC.String(unescaped)
	return cellvalue.String(normalized), escapeText(normalized)
}

func (p textParser) ParseValue(sink *diag.Sink, value cellvalue.Value) (cellvalue.Value, string) {
	s, err := cast.ToStringE(valueToCastable(value))
	if err != nil {
		sink.ReportKind(diag.KindValue, value, "expected text")
		return cellvalue.Nil, value.GoString()
	}
	normalized := norm.NFC.String(s)
	return cellvalue.String(normalized), escapeText(normalized)
}

func unescapeText(s string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' {
			b.WriteByte(s[i])
			continue
		}
		i++
		if i >= len(s) {
			return "", strconvError("dangling backslash escape")
		}
		switch s[i] {
		case 't':
			b.WriteByte('\t')
		case 'n':
			b.WriteByte('\n')
		case '\\':
			b.WriteByte('\\')
		default:
			return "", strconvError("unsupported escape \\" + string(s[i]))
		}
	}
	return b.String(), nil
}

func escapeText(s string) string {
	r := strings.NewReplacer("\\", "\\\\", "\t", "\\t", "\n", "\\n")
	return r.Replace(s)
}

type strconvError string

func (e strconvError) Error() string { return string(e) }

// commentParser stores a raw comment line's text as an opaque string,
// used for the dummyN:comment synthetic columns produced by
// internal/codec's transpose.
type commentParser struct{}

func (commentParser) ParseTSV(sink *diag.Sink, text string) (cellvalue.Value, string) {
	return cellvalue.String(text), text
}

func (commentParser) ParseValue(sink *diag.Sink, value cellvalue.Value) (cellvalue.Value, string) {
	s, _ := cast.ToStringE(valueToCastable(value))
	return cellvalue.String(s), s
}
