package dataset

import (
	"github.com/tabulua/tabulua/internal/cellvalue"
	"github.com/tabulua/tabulua/internal/diag"
	"github.com/tabulua/tabulua/internal/sandbox"
)

// rowAccessor implements sandbox.SelfAccessor over a row under
// construction: it exposes only the columns already marked done in the
// scheduler, per spec §4.G's eval_row contract ("eval_row[idx] and
// eval_row[name] store the parsed value, not the cell object").
type rowAccessor struct {
	header *Header
	cells  []Cell
	done   []bool
}

func (r *rowAccessor) Field(name string) (cellvalue.Value, bool) {
	col, ok := r.header.ColumnByName(name)
	if !ok || !r.done[col.Idx-1] {
		return cellvalue.Nil, false
	}
	return r.cells[col.Idx-1].Parsed, true
}

func (r *rowAccessor) Index(i int) (cellvalue.Value, bool) {
	if i < 1 || i > len(r.cells) || !r.done[i-1] {
		return cellvalue.Nil, false
	}
	return r.cells[i-1].Parsed, true
}

// dependenciesOf returns the column indices a raw expression cell depends
// on, resolved against header's column names. A dynamic/unresolvable
// self-reference (sandbox.SelfRef with neither Name nor IsIndex set) forces
// the cell to depend on every other column, matching the "whole row" escape
// hatch noted in internal/sandbox/refs.go.
func dependenciesOf(header *Header, expr sandbox.Expr, selfIdx int) (deps []int, ok bool) {
	for _, ref := range sandbox.ExtractSelfRefs(expr) {
		switch {
		case ref.IsIndex:
			deps = append(deps, ref.Index)
		case ref.Name != "":
			col, found := header.ColumnByName(ref.Name)
			if !found {
				return nil, false
			}
			deps = append(deps, col.Idx)
		default:
			for _, c := range header.Columns {
				if c.Idx != selfIdx {
					deps = append(deps, c.Idx)
				}
			}
		}
	}
	return deps, true
}

// buildRowCells runs spec §4.G's cell-level dependency scheduler: a
// fixed-point loop over a bitset, processing any not-yet-done column whose
// expression dependencies (if it is an expression) are all already done.
// Always returns the row's cells; if a full pass makes no progress while
// columns remain undone, markCyclic reports a cyclic-dependency diagnostic
// to sink for each of them and fills them with empty markers.
func buildRowCells(sink *diag.Sink, header *Header, rawCells []string, budget int) []Cell {
	n := len(header.Columns)
	cells := make([]Cell, n)
	done := make([]bool, n)
	parsedExprs := make(map[int]sandbox.Expr, n)
	depsOf := make(map[int][]int, n)

	rawText := func(col *Column) (string, bool) {
		if col.Idx-1 >= len(rawCells) {
			return "", false
		}
		return rawCells[col.Idx-1], true
	}

	for i := range header.Columns {
		col := &header.Columns[i]
		text, present := rawText(col)
		if present && len(text) > 0 && text[0] == '=' {
			expr, err := sandbox.Parse(text)
			if err != nil {
				sink.AtColumn(col.Name, col.Idx).ReportKind(diag.KindExpression, cellvalue.String(text), err.Error())
				cells[i] = emptyCellMarker()
				done[i] = true
				continue
			}
			parsedExprs[col.Idx] = expr
			deps, ok := dependenciesOf(header, expr, col.Idx)
			if !ok {
				sink.AtColumn(col.Name, col.Idx).ReportKind(diag.KindExpression, cellvalue.String(text), "reference to an unresolvable column")
				cells[i] = emptyCellMarker()
				done[i] = true
				continue
			}
			depsOf[col.Idx] = deps
		}
	}

	accessor := &rowAccessor{header: header, cells: cells, done: done}

	for {
		progressed := false
		allDone := true
		for i := range header.Columns {
			if done[i] {
				continue
			}
			allDone = false
			col := &header.Columns[i]
			if !readyFor(col.Idx, depsOf, done) {
				continue
			}
			text, present := rawText(col)
			cells[i] = evalCell(sink, header, col, text, present, accessor, parsedExprs[col.Idx], budget)
			done[i] = true
			progressed = true
		}
		if allDone {
			break
		}
		if !progressed {
			markCyclic(sink, header, done, cells)
			break
		}
	}
	return cells
}

func readyFor(selfIdx int, depsOf map[int][]int, done []bool) bool {
	deps, hasDeps := depsOf[selfIdx]
	if !hasDeps {
		return true
	}
	for _, d := range deps {
		if d == selfIdx {
			continue
		}
		if d < 1 || d > len(done) || !done[d-1] {
			return false
		}
	}
	return true
}

func markCyclic(sink *diag.Sink, header *Header, done []bool, cells []Cell) {
	for i := range header.Columns {
		if done[i] {
			continue
		}
		col := &header.Columns[i]
		sink.AtColumn(col.Name, col.Idx).ReportKind(diag.KindStructural, cellvalue.Nil, "cyclic row dependencies")
		cells[i] = emptyCellMarker()
		done[i] = true
	}
}

func evalCell(sink *diag.Sink, header *Header, col *Column, text string, present bool, accessor *rowAccessor, expr sandbox.Expr, budget int) Cell {
	colSink := sink.AtColumn(col.Name, col.Idx)

	if !present {
		if !col.AdmitsNil {
			colSink.ReportKind(diag.KindStructural, cellvalue.Nil, "short row: column value absent")
		}
		return Cell{Missing: true, Parsed: cellvalue.Nil, Reformatted: ""}
	}

	if text == "" && col.HasDefault {
		return evalDefault(colSink, col, accessor, budget)
	}

	if text != "" && text[0] == '=' {
		return evalExpression(colSink, col, text, accessor, expr, budget)
	}

	if !col.HasParser {
		return Cell{Value: text, Evaluated: cellvalue.String(text), Parsed: cellvalue.Nil, Reformatted: text}
	}
	parsed, reformatted := col.Parser.ParseTSV(colSink, text)
	return Cell{Value: text, Evaluated: cellvalue.String(text), Parsed: parsed, Reformatted: reformatted}
}

func evalDefault(colSink *diag.Sink, col *Column, accessor *rowAccessor, budget int) Cell {
	expr, err := sandbox.Parse(col.DefaultExpr)
	if err != nil {
		colSink.ReportKind(diag.KindExpression, cellvalue.String(col.DefaultExpr), err.Error())
		return Cell{Value: "", Parsed: cellvalue.Nil, Reformatted: ""}
	}
	env := &sandbox.Env{
		Self:   accessor,
		Vars:   map[string]cellvalue.Value{},
		Funcs:  sandbox.StandardFuncs(),
		Budget: sandbox.NewBudget(budget),
	}
	result, err := sandbox.Eval(expr, env)
	if err != nil {
		colSink.ReportKind(diag.KindExpression, cellvalue.String(col.DefaultExpr), err.Error())
		return Cell{Value: "", Evaluated: cellvalue.Nil, Parsed: cellvalue.Nil, Reformatted: ""}
	}
	var parsed cellvalue.Value
	if col.HasParser {
		parsed, _ = col.Parser.ParseValue(colSink, result)
	} else {
		parsed = result
	}
	return Cell{Value: "", Evaluated: result, Parsed: parsed, Reformatted: ""}
}

func evalExpression(colSink *diag.Sink, col *Column, text string, accessor *rowAccessor, expr sandbox.Expr, budget int) Cell {
	env := &sandbox.Env{
		Self:   accessor,
		Vars:   map[string]cellvalue.Value{},
		Funcs:  sandbox.StandardFuncs(),
		Budget: sandbox.NewBudget(budget),
	}
	result, err := sandbox.Eval(expr, env)
	if err != nil {
		colSink.ReportKind(diag.KindExpression, cellvalue.String(text), err.Error())
		return Cell{Value: text, IsExpr: true, Evaluated: cellvalue.Nil, Parsed: cellvalue.Nil, Reformatted: text}
	}
	var parsed cellvalue.Value
	if col.HasParser {
		parsed, _ = col.Parser.ParseValue(colSink, result)
	} else {
		parsed = result
	}
	return Cell{Value: text, IsExpr: true, Evaluated: result, Parsed: parsed, Reformatted: text}
}
