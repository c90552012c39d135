package cellparse

import (
	"math"
	"strconv"
	"strings"

	"github.com/tabulua/tabulua/internal/cellvalue"
	"github.com/tabulua/tabulua/internal/diag"
	"github.com/tabulua/tabulua/internal/typespec"
)

// ratioTolerance resolves Open Question #2 (spec.md §9): the source
// relies on implicit float comparison with no stated epsilon; this
// implementation declares a concrete tolerance.
const ratioTolerance = 1e-9

// percentParser implements `percent` (spec §4.D): accepts `N%`, `N.M%`,
// or `N/M` with M != 0, parsed to an exact decimal fraction (1.0 == 100%).
type percentParser struct{}

func (percentParser) ParseTSV(sink *diag.Sink, text string) (cellvalue.Value, string) {
	f, err := parsePercentText(text)
	if err != nil {
		sink.ReportKind(diag.KindValue, cellvalue.String(text), err.Error())
		return cellvalue.Nil, text
	}
	return cellvalue.Float(f), formatPercent(f)
}

func (percentParser) ParseValue(sink *diag.Sink, value cellvalue.Value) (cellvalue.Value, string) {
	var f float64
	switch value.Kind() {
	case cellvalue.KindFloat:
		f = value.Float()
	case cellvalue.KindInt:
		f = float64(value.Int())
	case cellvalue.KindString:
		parsed, err := parsePercentText(value.Str())
		if err != nil {
			sink.ReportKind(diag.KindValue, value, err.Error())
			return cellvalue.Nil, value.GoString()
		}
		f = parsed
	default:
		sink.ReportKind(diag.KindValue, value, "expected percent")
		return cellvalue.Nil, value.GoString()
	}
	return cellvalue.Float(f), formatPercent(f)
}

// parsePercentText resolves Open Question #1 (spec.md §9): a fraction
// form with any negative sign in numerator or denominator is rejected
// outright, rather than guessing the intended sign convention for cases
// like "-1/-2".
func parsePercentText(text string) (float64, error) {
	text = strings.TrimSpace(text)
	switch {
	case strings.HasSuffix(text, "%"):
		n, err := strconv.ParseFloat(strings.TrimSuffix(text, "%"), 64)
		if err != nil {
			return 0, percentError("malformed percent literal")
		}
		return n / 100, nil

	case strings.Contains(text, "/"):
		parts := strings.SplitN(text, "/", 2)
		if len(parts) != 2 {
			return 0, percentError("malformed fraction")
		}
		if strings.Contains(parts[0], "-") || strings.Contains(parts[1], "-") {
			return 0, percentError("negative sign in fraction form is not permitted")
		}
		num, err1 := strconv.ParseFloat(parts[0], 64)
		den, err2 := strconv.ParseFloat(parts[1], 64)
		if err1 != nil || err2 != nil {
			return 0, percentError("malformed fraction")
		}
		if den == 0 {
			return 0, percentError("zero denominator")
		}
		return num / den, nil

	default:
		return 0, percentError("expected N%%, N.M%% or N/M")
	}
}

func formatPercent(f float64) string {
	return strconv.FormatFloat(f*100, 'g', -1, 64) + "%"
}

type percentError string

func (e percentError) Error() string { return string(e) }

// ratioParser implements `ratio` (spec §4.D): a named collection of
// percent fields whose fractions must sum to 1 within ratioTolerance.
// TSV text is a comma-separated "name=percentLiteral" list (no literal
// syntax for this composite is given in spec.md beyond "named percent
// fields"; this implementation adopts the flattest possible textual form,
// consistent with the percent parser's own plain-text literals rather
// than nesting JSON for what is conceptually a flat field set).
type ratioParser struct{}

func (ratioParser) ParseTSV(sink *diag.Sink, text string) (cellvalue.Value, string) {
	entries, err := parseRatioText(text)
	if err != nil {
		sink.ReportKind(diag.KindValue, cellvalue.String(text), err.Error())
		return cellvalue.Nil, text
	}
	return finishRatio(sink, entries)
}

func (ratioParser) ParseValue(sink *diag.Sink, value cellvalue.Value) (cellvalue.Value, string) {
	if value.Kind() != cellvalue.KindRecord {
		sink.ReportKind(diag.KindValue, value, "expected ratio record")
		return cellvalue.Nil, value.GoString()
	}
	entries := make([]cellvalue.RecordEntry, 0, len(value.Fields()))
	for _, f := range value.Fields() {
		var frac float64
		switch f.Value.Kind() {
		case cellvalue.KindFloat:
			frac = f.Value.Float()
		case cellvalue.KindInt:
			frac = float64(f.Value.Int())
		case cellvalue.KindString:
			parsed, err := parsePercentText(f.Value.Str())
			if err != nil {
				sink.ReportKind(diag.KindValue, value, err.Error())
				return cellvalue.Nil, value.GoString()
			}
			frac = parsed
		default:
			sink.ReportKind(diag.KindValue, value, "ratio field "+f.Name+" is not a percent")
			return cellvalue.Nil, value.GoString()
		}
		entries = append(entries, cellvalue.RecordEntry{Name: f.Name, Value: cellvalue.Float(frac)})
	}
	return finishRatio(sink, entries)
}

func parseRatioText(text string) ([]cellvalue.RecordEntry, error) {
	parts := strings.Split(text, ",")
	entries := make([]cellvalue.RecordEntry, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			return nil, percentError("ratio field must be name=percent")
		}
		name := strings.TrimSpace(kv[0])
		frac, err := parsePercentText(strings.TrimSpace(kv[1]))
		if err != nil {
			return nil, err
		}
		entries = append(entries, cellvalue.RecordEntry{Name: name, Value: cellvalue.Float(frac)})
	}
	return entries, nil
}

func finishRatio(sink *diag.Sink, entries []cellvalue.RecordEntry) (cellvalue.Value, string) {
	sum := 0.0
	parts := make([]string, len(entries))
	for i, e := range entries {
		sum += e.Value.Float()
		parts[i] = e.Name + "=" + formatPercent(e.Value.Float())
	}
	result := cellvalue.Record(entries)
	if math.Abs(sum-1) > ratioTolerance {
		sink.ReportKind(diag.KindValue, result, "ratio fields do not sum to 1")
	}
	return result, strings.Join(parts, ",")
}

// typeSpecParser implements `type_spec`/`type`: validates by invoking
// the type-spec grammar (spec §4.B) and stores the rendered canonical form.
type typeSpecParser struct{}

func (typeSpecParser) ParseTSV(sink *diag.Sink, text string) (cellvalue.Value, string) {
	node, err := typespec.Parse(text)
	if err != nil {
		sink.ReportKind(diag.KindValue, cellvalue.String(text), err.Error())
		return cellvalue.Nil, text
	}
	rendered := typespec.Render(node)
	return cellvalue.String(rendered), rendered
}

func (typeSpecParser) ParseValue(sink *diag.Sink, value cellvalue.Value) (cellvalue.Value, string) {
	if value.Kind() != cellvalue.KindString {
		sink.ReportKind(diag.KindValue, value, "expected type spec string")
		return cellvalue.Nil, value.GoString()
	}
	return typeSpecParser{}.ParseTSV(sink, value.Str())
}
