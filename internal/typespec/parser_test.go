package typespec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrimitive(t *testing.T) {
	n, err := Parse("integer")
	require.NoError(t, err)
	assert.Equal(t, TagName, n.Tag)
	assert.Equal(t, "integer", n.Name)
}

func TestParseUnion(t *testing.T) {
	n, err := Parse("integer|string|nil")
	require.NoError(t, err)
	require.Equal(t, TagUnion, n.Tag)
	require.Len(t, n.Alternatives, 3)
	assert.Equal(t, "nil", n.Alternatives[2].Name)
}

func TestParseUnionRejectsNilBeforeEnd(t *testing.T) {
	_, err := Parse("nil|integer")
	assert.Error(t, err)
}

func TestParseUnionRejectsStringTooEarly(t *testing.T) {
	_, err := Parse("string|integer|boolean")
	assert.Error(t, err)
}

func TestParseUnionAllowsStringSecondToLast(t *testing.T) {
	_, err := Parse("integer|string|nil")
	assert.NoError(t, err)
}

func TestParseArray(t *testing.T) {
	n, err := Parse("{integer}")
	require.NoError(t, err)
	require.Equal(t, TagArray, n.Tag)
	assert.Equal(t, "integer", n.Elem.Name)
}

func TestParseMap(t *testing.T) {
	n, err := Parse("{string:integer}")
	require.NoError(t, err)
	require.Equal(t, TagMap, n.Tag)
	assert.Equal(t, "string", n.KeyType.Name)
	assert.Equal(t, "integer", n.ValueType.Name)
}

func TestParseTuple(t *testing.T) {
	n, err := Parse("{integer,integer}")
	require.NoError(t, err)
	require.Equal(t, TagTuple, n.Tag)
	require.Len(t, n.TupleFields, 2)
}

func TestParseRecord(t *testing.T) {
	n, err := Parse("{level:name,position:{integer,integer}}")
	require.NoError(t, err)
	require.Equal(t, TagRecord, n.Tag)
	require.Len(t, n.RecordFields, 2)
	assert.Equal(t, "level", n.RecordFields[0].Name)
	assert.Equal(t, TagTuple, n.RecordFields[1].Type.Tag)
}

func TestParseMixedColonRejected(t *testing.T) {
	_, err := Parse("{a:integer,string}")
	assert.Error(t, err)
}

func TestParseEnum(t *testing.T) {
	n, err := Parse("{enum:common|rare|epic}")
	require.NoError(t, err)
	require.Equal(t, TagEnum, n.Tag)
	assert.Equal(t, []string{"common", "rare", "epic"}, n.EnumLabels)
}

func TestParseExtendsConstraint(t *testing.T) {
	n, err := Parse("{extends,Item}")
	require.NoError(t, err)
	assert.Equal(t, TagName, n.Tag)
	require.NotNil(t, n.Extends)
	assert.Equal(t, "Item", n.Extends.Name)
}

func TestParseTupleInheritance(t *testing.T) {
	n, err := Parse("{extends,Point2D,integer}")
	require.NoError(t, err)
	require.Equal(t, TagTuple, n.Tag)
	assert.Equal(t, "Point2D", n.Extends.Name)
	require.Len(t, n.TupleFields, 1)
}

func TestParseRecordInheritance(t *testing.T) {
	n, err := Parse("{extends:Item,durability:integer}")
	require.NoError(t, err)
	require.Equal(t, TagRecord, n.Tag)
	assert.Equal(t, "Item", n.Extends.Name)
	require.Len(t, n.RecordFields, 1)
	assert.Equal(t, "durability", n.RecordFields[0].Name)
}

func TestParseSelfRef(t *testing.T) {
	n, err := Parse("self.price")
	require.NoError(t, err)
	assert.Equal(t, TagSelfRef, n.Tag)
	assert.Equal(t, "price", SelfRefTarget(n))
}

func TestParsePartialSplitsDefaultExpr(t *testing.T) {
	n, remainder, err := ParsePartial("float:=self.price*2")
	require.NoError(t, err)
	assert.Equal(t, "float", n.Name)
	assert.Equal(t, ":=self.price*2", remainder)
}

func TestParseTrailingInputRejected(t *testing.T) {
	_, err := Parse("integer garbage")
	assert.Error(t, err)
}

func TestRenderRoundTrip(t *testing.T) {
	for _, spec := range []string{
		"integer",
		"integer|string|nil",
		"{integer}",
		"{string:integer}",
		"{integer,integer}",
		"{level:name,position:{integer,integer}}",
	} {
		n, err := Parse(spec)
		require.NoError(t, err)
		assert.Equal(t, spec, Render(n))
	}
}
