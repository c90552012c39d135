package sandbox

import (
	"math"
	"strconv"

	"github.com/pkg/errors"

	"github.com/tabulua/tabulua/internal/cellvalue"
)

// ErrQuotaExceeded is returned when an evaluation exhausts its operation
// budget (spec §4.F: "enforces an operation budget... causing termination
// with a 'quota exceeded' error").
var ErrQuotaExceeded = errors.New("quota exceeded")

// Budget caps the number of AST nodes an evaluation may visit.
type Budget struct{ remaining int }

// NewBudget constructs a budget with n operations available.
func NewBudget(n int) *Budget { return &Budget{remaining: n} }

func (b *Budget) tick() error {
	if b == nil {
		return nil
	}
	if b.remaining <= 0 {
		return ErrQuotaExceeded
	}
	b.remaining--
	return nil
}

// SelfAccessor exposes `self` inside an expression: field access by
// sibling column name and 1-based positional index access, matching
// spec §4.F/§4.G's eval_row contract.
type SelfAccessor interface {
	Field(name string) (cellvalue.Value, bool)
	Index(i int) (cellvalue.Value, bool)
}

// HostFunc is a sandbox-exposed helper function (math/string ops for
// cell expressions; aggregate helpers for validator expressions, per
// spec §4.F/§4.I). Host functions cannot perform I/O or access anything
// not explicitly closed over when registered; that is the sandbox
// boundary.
type HostFunc func(args []cellvalue.Value) (cellvalue.Value, error)

// Env is the evaluation environment for one expression invocation (spec
// §5: "each expression evaluation uses a fresh environment instance over
// a shared immutable base").
type Env struct {
	Self      SelfAccessor
	SelfValue cellvalue.Value // used only when `self` is referenced bare, e.g. passed whole to a function
	Vars      map[string]cellvalue.Value
	Funcs     map[string]HostFunc
	Budget    *Budget
}

// Eval evaluates expr under env, returning a concise error (stripped of
// any sandbox-internal frames, since errors here never carry a Go stack)
// on failure.
func Eval(expr Expr, env *Env) (cellvalue.Value, error) {
	if err := env.Budget.tick(); err != nil {
		return cellvalue.Nil, err
	}
	switch t := expr.(type) {
	case NumberLit:
		return numberValue(t.Value), nil
	case StringLit:
		return cellvalue.String(t.Value), nil
	case BoolLit:
		return cellvalue.Bool(t.Value), nil
	case NilLit:
		return cellvalue.Nil, nil
	case SelfExpr:
		return env.SelfValue, nil
	case NameExpr:
		if v, ok := env.Vars[t.Name]; ok {
			return v, nil
		}
		return cellvalue.Nil, errors.Errorf("undefined name %q", t.Name)
	case *FieldExpr:
		return evalField(t, env)
	case *IndexExpr:
		return evalIndex(t, env)
	case *UnaryExpr:
		return evalUnary(t, env)
	case *BinaryExpr:
		return evalBinary(t, env)
	case *CallExpr:
		return evalCall(t, env)
	case *TableExpr:
		return evalTable(t, env)
	default:
		return cellvalue.Nil, errors.Errorf("expression: unsupported node %T", expr)
	}
}

// numberValue stores a Lua-style number as Int when it has no fractional
// part and fits exactly, else Float, mirroring how a literal like `10`
// should feed an `integer` column without an explicit cast.
func numberValue(f float64) cellvalue.Value {
	if f == math.Trunc(f) && !math.IsInf(f, 0) {
		return cellvalue.Int(int64(f))
	}
	return cellvalue.Float(f)
}

func evalField(t *FieldExpr, env *Env) (cellvalue.Value, error) {
	if _, ok := t.Target.(SelfExpr); ok {
		v, ok := env.Self.Field(t.Name)
		if !ok {
			return cellvalue.Nil, errors.Errorf("unresolved reference self.%s", t.Name)
		}
		return v, nil
	}
	target, err := Eval(t.Target, env)
	if err != nil {
		return cellvalue.Nil, err
	}
	return fieldOf(target, t.Name)
}

func fieldOf(target cellvalue.Value, name string) (cellvalue.Value, error) {
	switch target.Kind() {
	case cellvalue.KindRecord:
		v, ok := target.Field(name)
		if !ok {
			return cellvalue.Nil, errors.Errorf("no field %q", name)
		}
		return v, nil
	case cellvalue.KindMap:
		v, ok := target.Lookup(cellvalue.String(name))
		if !ok {
			return cellvalue.Nil, nil
		}
		return v, nil
	default:
		return cellvalue.Nil, errors.Errorf("cannot index %s with .%s", target.Kind(), name)
	}
}

func evalIndex(t *IndexExpr, env *Env) (cellvalue.Value, error) {
	idx, err := Eval(t.Index, env)
	if err != nil {
		return cellvalue.Nil, err
	}
	if _, ok := t.Target.(SelfExpr); ok {
		switch idx.Kind() {
		case cellvalue.KindString:
			v, ok := env.Self.Field(idx.Str())
			if !ok {
				return cellvalue.Nil, errors.Errorf("unresolved reference self[%q]", idx.Str())
			}
			return v, nil
		case cellvalue.KindInt:
			v, ok := env.Self.Index(int(idx.Int()))
			if !ok {
				return cellvalue.Nil, errors.Errorf("unresolved reference self[%d]", idx.Int())
			}
			return v, nil
		default:
			return cellvalue.Nil, errors.New("self[] index must be a string or integer")
		}
	}

	target, err := Eval(t.Target, env)
	if err != nil {
		return cellvalue.Nil, err
	}
	switch target.Kind() {
	case cellvalue.KindList, cellvalue.KindTuple:
		if idx.Kind() != cellvalue.KindInt {
			return cellvalue.Nil, errors.New("array index must be an integer")
		}
		i := int(idx.Int())
		items := target.List()
		if i < 1 || i > len(items) {
			return cellvalue.Nil, nil
		}
		return items[i-1], nil
	case cellvalue.KindMap:
		v, _ := target.Lookup(idx)
		return v, nil
	case cellvalue.KindRecord:
		if idx.Kind() != cellvalue.KindString {
			return cellvalue.Nil, errors.New("record index must be a string")
		}
		return fieldOf(target, idx.Str())
	default:
		return cellvalue.Nil, errors.Errorf("cannot index value of kind %s", target.Kind())
	}
}

func truthy(v cellvalue.Value) bool {
	if v.IsNil() {
		return false
	}
	if v.Kind() == cellvalue.KindBool {
		return v.Bool()
	}
	return true
}

func evalUnary(t *UnaryExpr, env *Env) (cellvalue.Value, error) {
	switch t.Op {
	case "not":
		x, err := Eval(t.X, env)
		if err != nil {
			return cellvalue.Nil, err
		}
		return cellvalue.Bool(!truthy(x)), nil
	case "-":
		x, err := Eval(t.X, env)
		if err != nil {
			return cellvalue.Nil, err
		}
		switch x.Kind() {
		case cellvalue.KindInt:
			return cellvalue.Int(-x.Int()), nil
		case cellvalue.KindFloat:
			return cellvalue.Float(-x.Float()), nil
		default:
			return cellvalue.Nil, errors.New("unary '-' requires a number")
		}
	case "#":
		x, err := Eval(t.X, env)
		if err != nil {
			return cellvalue.Nil, err
		}
		switch x.Kind() {
		case cellvalue.KindString:
			return cellvalue.Int(int64(len([]rune(x.Str())))), nil
		case cellvalue.KindList, cellvalue.KindTuple:
			return cellvalue.Int(int64(len(x.List()))), nil
		case cellvalue.KindMap:
			return cellvalue.Int(int64(len(x.Entries()))), nil
		default:
			return cellvalue.Nil, errors.New("'#' requires a string or collection")
		}
	default:
		return cellvalue.Nil, errors.Errorf("unsupported unary operator %q", t.Op)
	}
}

func asFloat(v cellvalue.Value) (float64, bool) {
	switch v.Kind() {
	case cellvalue.KindInt:
		return float64(v.Int()), true
	case cellvalue.KindFloat:
		return v.Float(), true
	default:
		return 0, false
	}
}

func bothInt(a, b cellvalue.Value) bool {
	return a.Kind() == cellvalue.KindInt && b.Kind() == cellvalue.KindInt
}

func evalBinary(t *BinaryExpr, env *Env) (cellvalue.Value, error) {
	if t.Op == "and" {
		l, err := Eval(t.L, env)
		if err != nil {
			return cellvalue.Nil, err
		}
		if !truthy(l) {
			return l, nil
		}
		return Eval(t.R, env)
	}
	if t.Op == "or" {
		l, err := Eval(t.L, env)
		if err != nil {
			return cellvalue.Nil, err
		}
		if truthy(l) {
			return l, nil
		}
		return Eval(t.R, env)
	}

	l, err := Eval(t.L, env)
	if err != nil {
		return cellvalue.Nil, err
	}
	r, err := Eval(t.R, env)
	if err != nil {
		return cellvalue.Nil, err
	}

	switch t.Op {
	case "+", "-", "*", "%":
		return arith(t.Op, l, r)
	case "/":
		lf, ok1 := asFloat(l)
		rf, ok2 := asFloat(r)
		if !ok1 || !ok2 {
			return cellvalue.Nil, errors.New("'/' requires numbers")
		}
		return cellvalue.Float(lf / rf), nil
	case "//":
		lf, ok1 := asFloat(l)
		rf, ok2 := asFloat(r)
		if !ok1 || !ok2 {
			return cellvalue.Nil, errors.New("'//' requires numbers")
		}
		q := math.Floor(lf / rf)
		if bothInt(l, r) {
			return cellvalue.Int(int64(q)), nil
		}
		return cellvalue.Float(q), nil
	case "^":
		lf, ok1 := asFloat(l)
		rf, ok2 := asFloat(r)
		if !ok1 || !ok2 {
			return cellvalue.Nil, errors.New("'^' requires numbers")
		}
		return cellvalue.Float(math.Pow(lf, rf)), nil
	case "..":
		return cellvalue.String(concatText(l) + concatText(r)), nil
	case "==":
		return cellvalue.Bool(numericAwareEqual(l, r)), nil
	case "~=":
		return cellvalue.Bool(!numericAwareEqual(l, r)), nil
	case "<", "<=", ">", ">=":
		return compare(t.Op, l, r)
	default:
		return cellvalue.Nil, errors.Errorf("unsupported binary operator %q", t.Op)
	}
}

func arith(op string, l, r cellvalue.Value) (cellvalue.Value, error) {
	lf, ok1 := asFloat(l)
	rf, ok2 := asFloat(r)
	if !ok1 || !ok2 {
		return cellvalue.Nil, errors.Errorf("'%s' requires numbers", op)
	}
	if bothInt(l, r) {
		li, ri := l.Int(), r.Int()
		switch op {
		case "+":
			return cellvalue.Int(li + ri), nil
		case "-":
			return cellvalue.Int(li - ri), nil
		case "*":
			return cellvalue.Int(li * ri), nil
		case "%":
			if ri == 0 {
				return cellvalue.Nil, errors.New("modulo by zero")
			}
			return cellvalue.Int(li % ri), nil
		}
	}
	switch op {
	case "+":
		return cellvalue.Float(lf + rf), nil
	case "-":
		return cellvalue.Float(lf - rf), nil
	case "*":
		return cellvalue.Float(lf * rf), nil
	case "%":
		return cellvalue.Float(math.Mod(lf, rf)), nil
	}
	return cellvalue.Nil, errors.Errorf("unsupported arithmetic operator %q", op)
}

func concatText(v cellvalue.Value) string {
	switch v.Kind() {
	case cellvalue.KindString:
		return v.Str()
	case cellvalue.KindInt:
		return strconv.FormatInt(v.Int(), 10)
	case cellvalue.KindFloat:
		return strconv.FormatFloat(v.Float(), 'g', -1, 64)
	default:
		return v.GoString()
	}
}

func numericAwareEqual(a, b cellvalue.Value) bool {
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if aok && bok {
		if math.IsNaN(af) || math.IsNaN(bf) {
			return false
		}
		return af == bf
	}
	return a.Equal(b)
}

func compare(op string, l, r cellvalue.Value) (cellvalue.Value, error) {
	if l.Kind() == cellvalue.KindString && r.Kind() == cellvalue.KindString {
		a, b := l.Str(), r.Str()
		switch op {
		case "<":
			return cellvalue.Bool(a < b), nil
		case "<=":
			return cellvalue.Bool(a <= b), nil
		case ">":
			return cellvalue.Bool(a > b), nil
		case ">=":
			return cellvalue.Bool(a >= b), nil
		}
	}
	lf, ok1 := asFloat(l)
	rf, ok2 := asFloat(r)
	if !ok1 || !ok2 {
		return cellvalue.Nil, errors.Errorf("attempt to compare %s with %s", l.Kind(), r.Kind())
	}
	switch op {
	case "<":
		return cellvalue.Bool(lf < rf), nil
	case "<=":
		return cellvalue.Bool(lf <= rf), nil
	case ">":
		return cellvalue.Bool(lf > rf), nil
	case ">=":
		return cellvalue.Bool(lf >= rf), nil
	}
	return cellvalue.Nil, errors.Errorf("unsupported comparison operator %q", op)
}

func evalCall(t *CallExpr, env *Env) (cellvalue.Value, error) {
	name, ok := t.Callee.(NameExpr)
	if !ok {
		return cellvalue.Nil, errors.New("only named host functions may be called")
	}
	fn, ok := env.Funcs[name.Name]
	if !ok {
		return cellvalue.Nil, errors.Errorf("undefined function %q", name.Name)
	}
	args := make([]cellvalue.Value, len(t.Args))
	for i, a := range t.Args {
		v, err := Eval(a, env)
		if err != nil {
			return cellvalue.Nil, err
		}
		args[i] = v
	}
	return fn(args)
}

func evalTable(t *TableExpr, env *Env) (cellvalue.Value, error) {
	if len(t.Keyed) == 0 {
		items := make([]cellvalue.Value, len(t.ArrayItems))
		for i, e := range t.ArrayItems {
			v, err := Eval(e, env)
			if err != nil {
				return cellvalue.Nil, err
			}
			items[i] = v
		}
		return cellvalue.List(items), nil
	}

	entries := make([]cellvalue.MapEntry, 0, len(t.ArrayItems)+len(t.Keyed))
	for i, e := range t.ArrayItems {
		v, err := Eval(e, env)
		if err != nil {
			return cellvalue.Nil, err
		}
		entries = append(entries, cellvalue.MapEntry{Key: cellvalue.Int(int64(i + 1)), Value: v})
	}
	for _, f := range t.Keyed {
		var key cellvalue.Value
		if f.KeyExpr != nil {
			k, err := Eval(f.KeyExpr, env)
			if err != nil {
				return cellvalue.Nil, err
			}
			key = k
		} else {
			key = cellvalue.String(f.Key)
		}
		v, err := Eval(f.Value, env)
		if err != nil {
			return cellvalue.Nil, err
		}
		entries = append(entries, cellvalue.MapEntry{Key: key, Value: v})
	}
	return cellvalue.Map(entries), nil
}
