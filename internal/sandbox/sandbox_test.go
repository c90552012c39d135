package sandbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabulua/tabulua/internal/cellvalue"
)

type fakeSelf struct {
	fields map[string]cellvalue.Value
	byIdx  []cellvalue.Value
}

func (f fakeSelf) Field(name string) (cellvalue.Value, bool) {
	v, ok := f.fields[name]
	return v, ok
}

func (f fakeSelf) Index(i int) (cellvalue.Value, bool) {
	if i < 1 || i > len(f.byIdx) {
		return cellvalue.Nil, false
	}
	return f.byIdx[i-1], true
}

func newEnv(self fakeSelf) *Env {
	return &Env{
		Self:   self,
		Vars:   map[string]cellvalue.Value{},
		Funcs:  StandardFuncs(),
		Budget: NewBudget(10000),
	}
}

func evalStr(t *testing.T, src string, env *Env) cellvalue.Value {
	t.Helper()
	expr, err := Parse(src)
	require.NoError(t, err)
	v, err := Eval(expr, env)
	require.NoError(t, err)
	return v
}

func TestArithmeticAndPrecedence(t *testing.T) {
	env := newEnv(fakeSelf{})
	v := evalStr(t, "=1 + 2 * 3", env)
	assert.Equal(t, int64(7), v.Int())
}

func TestDivisionAlwaysFloat(t *testing.T) {
	env := newEnv(fakeSelf{})
	v := evalStr(t, "=4 / 2", env)
	assert.Equal(t, cellvalue.KindFloat, v.Kind())
	assert.Equal(t, 2.0, v.Float())
}

func TestFloorDivisionKeepsInt(t *testing.T) {
	env := newEnv(fakeSelf{})
	v := evalStr(t, "=7 // 2", env)
	assert.Equal(t, cellvalue.KindInt, v.Kind())
	assert.Equal(t, int64(3), v.Int())
}

func TestSelfFieldAccess(t *testing.T) {
	env := newEnv(fakeSelf{fields: map[string]cellvalue.Value{"price": cellvalue.Int(10)}})
	v := evalStr(t, "=self.price * 2", env)
	assert.Equal(t, int64(20), v.Int())
}

func TestSelfIndexAccess(t *testing.T) {
	env := newEnv(fakeSelf{byIdx: []cellvalue.Value{cellvalue.Int(1), cellvalue.Int(2)}})
	v := evalStr(t, "=self[2]", env)
	assert.Equal(t, int64(2), v.Int())
}

func TestConcatCoercesNumbers(t *testing.T) {
	env := newEnv(fakeSelf{})
	v := evalStr(t, `="x=" .. 3`, env)
	assert.Equal(t, "x=3", v.Str())
}

func TestLogicalShortCircuit(t *testing.T) {
	env := newEnv(fakeSelf{})
	v := evalStr(t, "=false and (1/0)", env)
	assert.False(t, v.Bool())
}

func TestComparisonStrings(t *testing.T) {
	env := newEnv(fakeSelf{})
	v := evalStr(t, `="abc" < "abd"`, env)
	assert.True(t, v.Bool())
}

func TestNumericAwareEquality(t *testing.T) {
	env := newEnv(fakeSelf{})
	v := evalStr(t, "=3 == 3.0", env)
	assert.True(t, v.Bool())
}

func TestTableConstructorArray(t *testing.T) {
	env := newEnv(fakeSelf{})
	v := evalStr(t, "={1, 2, 3}", env)
	require.Equal(t, cellvalue.KindList, v.Kind())
	assert.Len(t, v.List(), 3)
}

func TestTableConstructorKeyed(t *testing.T) {
	env := newEnv(fakeSelf{})
	v := evalStr(t, `={name = "a", [1+1] = "b"}`, env)
	require.Equal(t, cellvalue.KindMap, v.Kind())
	got, ok := v.Lookup(cellvalue.String("name"))
	require.True(t, ok)
	assert.Equal(t, "a", got.Str())
}

func TestHostFunctionCall(t *testing.T) {
	env := newEnv(fakeSelf{})
	v := evalStr(t, "=max(3, 7, 2)", env)
	assert.Equal(t, int64(7), v.Int())
}

func TestBudgetExhaustion(t *testing.T) {
	expr, err := Parse("=1 + 1 + 1 + 1 + 1")
	require.NoError(t, err)
	env := &Env{Self: fakeSelf{}, Vars: map[string]cellvalue.Value{}, Funcs: StandardFuncs(), Budget: NewBudget(2)}
	_, err = Eval(expr, env)
	assert.ErrorIs(t, err, ErrQuotaExceeded)
}

func TestExtractSelfRefsFieldAndIndex(t *testing.T) {
	expr, err := Parse("=self.price + self[2]")
	require.NoError(t, err)
	refs := ExtractSelfRefs(expr)
	require.Len(t, refs, 2)
	assert.Equal(t, "price", refs[0].Name)
	assert.True(t, refs[1].IsIndex)
	assert.Equal(t, 2, refs[1].Index)
}

func TestUndefinedSelfFieldErrors(t *testing.T) {
	env := newEnv(fakeSelf{fields: map[string]cellvalue.Value{}})
	expr, err := Parse("=self.missing")
	require.NoError(t, err)
	_, err = Eval(expr, env)
	assert.Error(t, err)
}
