package sandbox

import (
	"math"
	"strings"

	"github.com/pkg/errors"

	"github.com/tabulua/tabulua/internal/cellvalue"
)

// StandardFuncs returns the fixed set of math/string helpers exposed to
// every expression (spec §4.F: "exposes only a fixed set of helpers (math,
// string ops, safe table helpers...)"). Validator-only aggregate helpers
// (unique, sum, lookup, groupBy, ...) are added on top of this set by
// internal/validate, which knows about whole columns and packages; this
// package only ever sees one row's worth of data.
func StandardFuncs() map[string]HostFunc {
	return map[string]HostFunc{
		"abs":    hostAbs,
		"floor":  hostFloor,
		"ceil":   hostCeil,
		"round":  hostRound,
		"min":    hostMin,
		"max":    hostMax,
		"upper":  hostUpper,
		"lower":  hostLower,
		"len":    hostLen,
		"concat": hostConcat,
	}
}

func wantFloat(v cellvalue.Value) (float64, error) {
	f, ok := asFloat(v)
	if !ok {
		return 0, errors.Errorf("expected a number, got %s", v.Kind())
	}
	return f, nil
}

func hostAbs(args []cellvalue.Value) (cellvalue.Value, error) {
	if len(args) != 1 {
		return cellvalue.Nil, errors.New("abs() takes exactly one argument")
	}
	if args[0].Kind() == cellvalue.KindInt {
		n := args[0].Int()
		if n < 0 {
			n = -n
		}
		return cellvalue.Int(n), nil
	}
	f, err := wantFloat(args[0])
	if err != nil {
		return cellvalue.Nil, err
	}
	return cellvalue.Float(math.Abs(f)), nil
}

func hostFloor(args []cellvalue.Value) (cellvalue.Value, error) {
	if len(args) != 1 {
		return cellvalue.Nil, errors.New("floor() takes exactly one argument")
	}
	f, err := wantFloat(args[0])
	if err != nil {
		return cellvalue.Nil, err
	}
	return cellvalue.Int(int64(math.Floor(f))), nil
}

func hostCeil(args []cellvalue.Value) (cellvalue.Value, error) {
	if len(args) != 1 {
		return cellvalue.Nil, errors.New("ceil() takes exactly one argument")
	}
	f, err := wantFloat(args[0])
	if err != nil {
		return cellvalue.Nil, err
	}
	return cellvalue.Int(int64(math.Ceil(f))), nil
}

func hostRound(args []cellvalue.Value) (cellvalue.Value, error) {
	if len(args) != 1 {
		return cellvalue.Nil, errors.New("round() takes exactly one argument")
	}
	f, err := wantFloat(args[0])
	if err != nil {
		return cellvalue.Nil, err
	}
	return cellvalue.Int(int64(math.Round(f))), nil
}

func hostMin(args []cellvalue.Value) (cellvalue.Value, error) {
	if len(args) == 0 {
		return cellvalue.Nil, errors.New("min() requires at least one argument")
	}
	best := args[0]
	for _, a := range args[1:] {
		r, err := compare("<", a, best)
		if err != nil {
			return cellvalue.Nil, err
		}
		if r.Bool() {
			best = a
		}
	}
	return best, nil
}

func hostMax(args []cellvalue.Value) (cellvalue.Value, error) {
	if len(args) == 0 {
		return cellvalue.Nil, errors.New("max() requires at least one argument")
	}
	best := args[0]
	for _, a := range args[1:] {
		r, err := compare(">", a, best)
		if err != nil {
			return cellvalue.Nil, err
		}
		if r.Bool() {
			best = a
		}
	}
	return best, nil
}

func hostUpper(args []cellvalue.Value) (cellvalue.Value, error) {
	if len(args) != 1 || args[0].Kind() != cellvalue.KindString {
		return cellvalue.Nil, errors.New("upper() takes exactly one string argument")
	}
	return cellvalue.String(strings.ToUpper(args[0].Str())), nil
}

func hostLower(args []cellvalue.Value) (cellvalue.Value, error) {
	if len(args) != 1 || args[0].Kind() != cellvalue.KindString {
		return cellvalue.Nil, errors.New("lower() takes exactly one string argument")
	}
	return cellvalue.String(strings.ToLower(args[0].Str())), nil
}

func hostLen(args []cellvalue.Value) (cellvalue.Value, error) {
	if len(args) != 1 {
		return cellvalue.Nil, errors.New("len() takes exactly one argument")
	}
	switch args[0].Kind() {
	case cellvalue.KindString:
		return cellvalue.Int(int64(len([]rune(args[0].Str())))), nil
	case cellvalue.KindList, cellvalue.KindTuple:
		return cellvalue.Int(int64(len(args[0].List()))), nil
	case cellvalue.KindMap:
		return cellvalue.Int(int64(len(args[0].Entries()))), nil
	default:
		return cellvalue.Nil, errors.Errorf("len() does not support %s", args[0].Kind())
	}
}

func hostConcat(args []cellvalue.Value) (cellvalue.Value, error) {
	var b strings.Builder
	for _, a := range args {
		b.WriteString(concatText(a))
	}
	return cellvalue.String(b.String()), nil
}
