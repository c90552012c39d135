package typereg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabulua/tabulua/internal/cellvalue"
	"github.com/tabulua/tabulua/internal/diag"
	"github.com/tabulua/tabulua/internal/typespec"
)

type stubIntParser struct{}

func (stubIntParser) ParseTSV(sink *diag.Sink, text string) (cellvalue.Value, string) {
	if text == "" {
		sink.ReportKind(diag.KindValue, cellvalue.String(text), "empty integer")
		return cellvalue.Nil, text
	}
	return cellvalue.Int(7), "7"
}

func (stubIntParser) ParseValue(sink *diag.Sink, value cellvalue.Value) (cellvalue.Value, string) {
	return value, value.GoString()
}

func testRegistry() *Registry {
	return NewRegistry(map[string]Parser{"integer": stubIntParser{}})
}

func TestResolvesBuiltin(t *testing.T) {
	r := testRegistry()
	sink := diag.NewNullSink()
	node, err := typespec.Parse("integer")
	require.NoError(t, err)
	p, err := r.ParseType(sink, node)
	require.NoError(t, err)
	v, _ := p.ParseTSV(sink, "5")
	assert.Equal(t, int64(7), v.Int())
}

func TestUnknownTypeReportsSchemaError(t *testing.T) {
	r := testRegistry()
	sink := diag.NewNullSink()
	node, err := typespec.Parse("bogus")
	require.NoError(t, err)
	_, err = r.ParseType(sink, node)
	assert.Error(t, err)
	assert.Equal(t, 1, sink.ErrorCount())
}

func TestRegisterAliasRejectsBuiltinShadow(t *testing.T) {
	r := testRegistry()
	sink := diag.NewNullSink()
	node, _ := typespec.Parse("string")
	err := r.RegisterAlias(sink, "integer", node)
	assert.Error(t, err)
}

func TestRegisterAliasKeepsFirstOnCollision(t *testing.T) {
	r := testRegistry()
	sink := diag.NewNullSink()
	first, _ := typespec.Parse("integer")
	second, _ := typespec.Parse("string")

	require.NoError(t, r.RegisterAlias(sink, "itemCount", first))
	require.NoError(t, r.RegisterAlias(sink, "itemCount", second))
	assert.Equal(t, 1, sink.ErrorCount())

	node, _ := typespec.Parse("itemCount")
	p, err := r.ParseType(sink, node)
	require.NoError(t, err)
	v, _ := p.ParseTSV(sink, "1")
	assert.Equal(t, int64(7), v.Int())
}

func TestAliasCycleDetected(t *testing.T) {
	r := testRegistry()
	sink := diag.NewNullSink()
	a, _ := typespec.Parse("b")
	b, _ := typespec.Parse("a")
	require.NoError(t, r.RegisterAlias(sink, "a", a))
	require.NoError(t, r.RegisterAlias(sink, "b", b))

	node, _ := typespec.Parse("a")
	_, err := r.ParseType(sink, node)
	assert.Error(t, err)
}

func TestParseArrayType(t *testing.T) {
	r := testRegistry()
	sink := diag.NewNullSink()
	node, _ := typespec.Parse("{integer}")
	p, err := r.ParseType(sink, node)
	require.NoError(t, err)
	v, reformatted := p.ParseTSV(sink, "[1,2,3]")
	require.Equal(t, cellvalue.KindList, v.Kind())
	assert.Equal(t, 3, len(v.List()))
	assert.Equal(t, "[7,7,7]", reformatted)
}

func TestParseRecordType(t *testing.T) {
	r := testRegistry()
	sink := diag.NewNullSink()
	node, _ := typespec.Parse("{a:integer,b:integer}")
	p, err := r.ParseType(sink, node)
	require.NoError(t, err)
	v, _ := p.ParseTSV(sink, `{"a":1,"b":2}`)
	require.Equal(t, cellvalue.KindRecord, v.Kind())
	fv, ok := v.Field("a")
	require.True(t, ok)
	assert.Equal(t, int64(7), fv.Int())
}

func TestEnumParserRejectsUnknownLabel(t *testing.T) {
	e := NewEnumParser([]string{"common", "rare"})
	sink := diag.NewNullSink()
	_, _ = e.ParseTSV(sink, "legendary")
	assert.Equal(t, 1, sink.ErrorCount())
}

func TestRangeRestriction(t *testing.T) {
	max := 10.0
	restricted := NewRangeRestriction(stubIntParser{}, nil, &max)
	assert.Error(t, restricted.Check(cellvalue.Int(20)))
	assert.NoError(t, restricted.Check(cellvalue.Int(5)))
}
