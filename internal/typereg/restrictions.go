package typereg

import (
	"regexp"

	"github.com/tabulua/tabulua/internal/cellvalue"
	"github.com/tabulua/tabulua/internal/diag"
)

// RestrictionParser narrows a parent parser by range, length, pattern,
// enum-style value set, or an arbitrary predicate (spec §4.C: numeric
// restrictions {min,max}, string restrictions {minLen,maxLen,pattern,
// values,validate}, union restrictions). All restriction kinds reduce to
// the same shape: parse with Base, then Check the result.
type RestrictionParser struct {
	Base     Parser
	Describe string
	Check    func(cellvalue.Value) error
}

func (p *RestrictionParser) ParseTSV(sink *diag.Sink, text string) (cellvalue.Value, string) {
	v, reformatted := p.Base.ParseTSV(sink, text)
	if err := p.Check(v); err != nil {
		sink.ReportKind(diag.KindValue, v, p.Describe+": "+err.Error())
	}
	return v, reformatted
}

func (p *RestrictionParser) ParseValue(sink *diag.Sink, value cellvalue.Value) (cellvalue.Value, string) {
	v, reformatted := p.Base.ParseValue(sink, value)
	if err := p.Check(v); err != nil {
		sink.ReportKind(diag.KindValue, v, p.Describe+": "+err.Error())
	}
	return v, reformatted
}

// NewRangeRestriction enforces min <= v <= max on a numeric parser.
// Either bound may be nil to leave that side unconstrained.
func NewRangeRestriction(base Parser, min, max *float64) *RestrictionParser {
	return &RestrictionParser{
		Base:     base,
		Describe: "out of range",
		Check: func(v cellvalue.Value) error {
			var n float64
			switch v.Kind() {
			case cellvalue.KindInt:
				n = float64(v.Int())
			case cellvalue.KindFloat:
				n = v.Float()
			default:
				return nil
			}
			if min != nil && n < *min {
				return errLow
			}
			if max != nil && n > *max {
				return errHigh
			}
			return nil
		},
	}
}

// NewLengthRestriction enforces minLen <= len(v) <= maxLen on a string
// or collection-typed parser.
func NewLengthRestriction(base Parser, minLen, maxLen *int) *RestrictionParser {
	return &RestrictionParser{
		Base:     base,
		Describe: "length out of bounds",
		Check: func(v cellvalue.Value) error {
			var n int
			switch v.Kind() {
			case cellvalue.KindString:
				n = len([]rune(v.Str()))
			case cellvalue.KindList, cellvalue.KindTuple:
				n = len(v.List())
			case cellvalue.KindMap:
				n = len(v.Entries())
			default:
				return nil
			}
			if minLen != nil && n < *minLen {
				return errLow
			}
			if maxLen != nil && n > *maxLen {
				return errHigh
			}
			return nil
		},
	}
}

// NewPatternRestriction enforces that a string value fully matches pattern.
func NewPatternRestriction(base Parser, pattern *regexp.Regexp) *RestrictionParser {
	return &RestrictionParser{
		Base:     base,
		Describe: "does not match pattern " + pattern.String(),
		Check: func(v cellvalue.Value) error {
			if v.Kind() != cellvalue.KindString {
				return nil
			}
			if !pattern.MatchString(v.Str()) {
				return errPattern
			}
			return nil
		},
	}
}

// NewValuesRestriction enforces membership in a fixed allowed-value set.
func NewValuesRestriction(base Parser, allowed []string) *RestrictionParser {
	set := make(map[string]bool, len(allowed))
	for _, a := range allowed {
		set[a] = true
	}
	return &RestrictionParser{
		Base:     base,
		Describe: "not an allowed value",
		Check: func(v cellvalue.Value) error {
			if v.Kind() != cellvalue.KindString {
				return nil
			}
			if !set[v.Str()] {
				return errNotAllowed
			}
			return nil
		},
	}
}

// NewPredicateRestriction wraps an arbitrary manifest-declared `validate`
// expression (spec §9: "custom_types[].validate ... compiled lazily and
// cached in the registry"). The caller supplies check, typically a closure
// over a compiled sandbox expression (internal/sandbox).
func NewPredicateRestriction(base Parser, describe string, check func(cellvalue.Value) error) *RestrictionParser {
	return &RestrictionParser{Base: base, Describe: describe, Check: check}
}

// NewUnionRestriction wraps a union parser in a RestrictionParser whose
// Check accepts every value. allowedTypeSpecs is neither consulted nor
// stored, so the result accepts exactly what base accepts.
func NewUnionRestriction(base *UnionParser, allowedTypeSpecs map[string]bool) *RestrictionParser {
	return &RestrictionParser{
		Base:     base,
		Describe: "not a permitted union alternative",
		Check: func(v cellvalue.Value) error {
			return nil
		},
	}
}

var (
	errLow        = restrictionError("below minimum")
	errHigh       = restrictionError("above maximum")
	errPattern    = restrictionError("pattern mismatch")
	errNotAllowed = restrictionError("value not permitted")
)

type restrictionError string

func (e restrictionError) Error() string { return string(e) }
