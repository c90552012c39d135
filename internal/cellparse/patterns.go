package cellparse

import (
	"regexp"

	"github.com/spf13/cast"
	"golang.org/x/text/unicode/norm"

	"github.com/tabulua/tabulua/internal/cellvalue"
	"github.com/tabulua/tabulua/internal/diag"
)

var (
	identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	namePattern       = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_ \-]*$`)
	semverPattern     = regexp.MustCompile(`^\d+\.\d+\.\d+(-[0-9A-Za-z.-]+)?(\+[0-9A-Za-z.-]+)?$`)
	cmpVersionPattern = regexp.MustCompile(`^(=|>=|<=|>|<|~|\^)\s*\d+\.\d+\.\d+(-[0-9A-Za-z.-]+)?$`)
	httpPattern       = regexp.MustCompile(`^https?://[^\s]+$`)
)

// patternParser validates TSV text against a fixed regular expression,
// covering the extended string forms of spec §4.D ("identifier, name,
// http, version, cmp_version validate by pattern").
type patternParser struct {
	name string
	re   *regexp.Regexp
}

func (p patternParser) ParseTSV(sink *diag.Sink, text string) (cellvalue.Value, string) {
	if !p.re.MatchString(text) {
		sink.ReportKind(diag.KindValue, cellvalue.String(text), "does not match "+p.name+" pattern")
		return cellvalue.Nil, text
	}
	return cellvalue.String(text), text
}

func (p patternParser) ParseValue(sink *diag.Sink, value cellvalue.Value) (cellvalue.Value, string) {
	s, err := cast.ToStringE(valueToCastable(value))
	if err != nil || !p.re.MatchString(s) {
		sink.ReportKind(diag.KindValue, value, "does not match "+p.name+" pattern")
		return cellvalue.Nil, value.GoString()
	}
	return cellvalue.String(s), s
}

// nameParser implements `name`: an identifier-like string that additionally
// permits spaces and hyphens, NFC-normalized like text/markdown so two
// canonically equivalent byte sequences reformat identically.
type nameParser struct{}

func (nameParser) ParseTSV(sink *diag.Sink, text string) (cellvalue.Value, string) {
	normalized := norm.NFC.String(text)
	if !namePattern.MatchString(normalized) {
		sink.ReportKind(diag.KindValue, cellvalue.String(text), "does not match name pattern")
		return cellvalue.Nil, text
	}
	return cellvalue.String(normalized), normalized
}

func (nameParser) ParseValue(sink *diag.Sink, value cellvalue.Value) (cellvalue.Value, string) {
	s, err := cast.ToStringE(valueToCastable(value))
	if err != nil {
		sink.ReportKind(diag.KindValue, value, "expected name")
		return cellvalue.Nil, value.GoString()
	}
	normalized := norm.NFC.String(s)
	if !namePattern.MatchString(normalized) {
		sink.ReportKind(diag.KindValue, value, "does not match name pattern")
		return cellvalue.Nil, value.GoString()
	}
	return cellvalue.String(normalized), normalized
}
