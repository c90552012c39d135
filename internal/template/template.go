// Package template implements spec §6.3's COG-style template preprocessing
// pass: before a TSV is decoded, blocks delimited by a three-character
// comment marker are executed in the expression sandbox and their
// auto-generated body is replaced with the stringified result.
package template

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/tabulua/tabulua/internal/cellvalue"
	"github.com/tabulua/tabulua/internal/sandbox"
)

// markers is the fixed set of three-char comment styles a block may use
// (spec §6.3: "delimited by three-char comment markers: ---, ###, or ///").
var markers = []string{"---", "###", "///"}

// Budget is the operation budget for a template code block, matching the
// default cell-expression budget (spec §4.F).
const Budget = 10000

// nilAccessor is used as `self` for template code blocks, which have no row
// context; any self.X / self[i] reference inside a block fails cleanly
// instead of the sandbox dereferencing a nil SelfAccessor.
type nilAccessor struct{}

func (nilAccessor) Field(string) (cellvalue.Value, bool) { return cellvalue.Nil, false }
func (nilAccessor) Index(int) (cellvalue.Value, bool)    { return cellvalue.Nil, false }

// Process runs the COG pass over raw file text. A file with no
// "<marker>[[[end]]]" anywhere skips the pass entirely and is returned
// unchanged (spec §6.3's explicit short-circuit).
func Process(text string) (string, error) {
	if !hasAnyEndMarker(text) {
		return text, nil
	}

	lines := strings.Split(text, "\n")
	var out []string

	for i := 0; i < len(lines); i++ {
		marker, isStart := startMarker(lines[i])
		if !isStart {
			out = append(out, lines[i])
			continue
		}

		codeEnd := i + 1
		var code []string
		for codeEnd < len(lines) && strings.HasPrefix(lines[codeEnd], marker) && lines[codeEnd] != marker+"]]]" {
			code = append(code, strings.TrimSpace(strings.TrimPrefix(lines[codeEnd], marker)))
			codeEnd++
		}
		if codeEnd >= len(lines) || lines[codeEnd] != marker+"]]]" {
			return "", errors.Errorf("template: unterminated %s[[[ block at line %d", marker, i+1)
		}
		if len(code) == 0 {
			return "", errors.Errorf("template: empty %s[[[ block at line %d", marker, i+1)
		}

		bodyStart := codeEnd + 1
		endMarker := marker + "[[[end]]]"
		bodyEnd := bodyStart
		for bodyEnd < len(lines) && lines[bodyEnd] != endMarker {
			bodyEnd++
		}
		if bodyEnd >= len(lines) {
			return "", errors.Errorf("template: missing %s at block starting line %d", endMarker, i+1)
		}

		result, err := execute(strings.Join(code, "\n"))
		if err != nil {
			return "", errors.Wrapf(err, "template block at line %d", i+1)
		}

		out = append(out, lines[i])
		out = append(out, lines[i+1:codeEnd]...)
		out = append(out, marker+"]]]")
		out = append(out, result)
		out = append(out, endMarker)

		i = bodyEnd
	}

	return strings.Join(out, "\n"), nil
}

func hasAnyEndMarker(text string) bool {
	for _, m := range markers {
		if strings.Contains(text, m+"[[[end]]]") {
			return true
		}
	}
	return false
}

func startMarker(line string) (marker string, ok bool) {
	for _, m := range markers {
		if line == m+"[[[" {
			return m, true
		}
	}
	return "", false
}

func execute(code string) (string, error) {
	expr, err := sandbox.Parse(code)
	if err != nil {
		return "", err
	}
	env := &sandbox.Env{
		Self:   nilAccessor{},
		Vars:   map[string]cellvalue.Value{},
		Funcs:  sandbox.StandardFuncs(),
		Budget: sandbox.NewBudget(Budget),
	}
	result, err := sandbox.Eval(expr, env)
	if err != nil {
		return "", err
	}
	return stringify(result), nil
}

func stringify(v cellvalue.Value) string {
	switch v.Kind() {
	case cellvalue.KindString:
		return v.Str()
	case cellvalue.KindNil:
		return ""
	default:
		return v.GoString()
	}
}
