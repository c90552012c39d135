// Package validate implements spec §4.I's sandboxed validator execution:
// row/file/package-scoped expressions evaluated with bounded quotas,
// warn/error level handling, and a fixed set of aggregate helpers over
// cellvalue sequences.
package validate

import (
	"sort"
	"strconv"

	"github.com/tabulua/tabulua/internal/cellvalue"
	"github.com/tabulua/tabulua/internal/dataset"
	"github.com/tabulua/tabulua/internal/diag"
	"github.com/tabulua/tabulua/internal/manifest"
	"github.com/tabulua/tabulua/internal/sandbox"
)

// Quotas per scope (spec §4.I step 4).
const (
	RowBudget     = 1000
	FileBudget    = 10000
	PackageBudget = 100000
)

// Warning is a recorded warn-level validator failure (spec §4.I step 6).
type Warning struct {
	Validator string
	Message   string
	Scope     string // "rowIndex:N", "file:name", or "package:id"
}

// rowRecord renders a Row as a cellvalue Record, so `row.colName` in a
// validator expression reads exactly like a cell expression's `self.col`
// (spec §4.I step 3).
func rowRecord(row *dataset.Row) cellvalue.Value {
	names := row.Header().TopLevelFieldNames()
	fields := make([]cellvalue.RecordEntry, 0, len(names))
	for _, n := range names {
		v, _ := row.Get(n)
		fields = append(fields, cellvalue.RecordEntry{Name: n, Value: v})
	}
	return cellvalue.Record(fields)
}

func rowsRecord(rows []*dataset.Row) cellvalue.Value {
	items := make([]cellvalue.Value, len(rows))
	for i, r := range rows {
		items[i] = rowRecord(r)
	}
	return cellvalue.List(items)
}

// recordAccessor adapts a single cellvalue Record/List value to
// sandbox.SelfAccessor, so `self` can be used as an expression-root even
// though the scheduler's rowAccessor type is private to internal/dataset.
type recordAccessor struct{ v cellvalue.Value }

func (a recordAccessor) Field(name string) (cellvalue.Value, bool) {
	switch a.v.Kind() {
	case cellvalue.KindRecord:
		return a.v.Field(name)
	default:
		return cellvalue.Nil, false
	}
}

func (a recordAccessor) Index(i int) (cellvalue.Value, bool) {
	switch a.v.Kind() {
	case cellvalue.KindList, cellvalue.KindTuple:
		items := a.v.List()
		if i < 1 || i > len(items) {
			return cellvalue.Nil, false
		}
		return items[i-1], true
	default:
		return cellvalue.Nil, false
	}
}

func baseEnv(self cellvalue.Value, budget int) *sandbox.Env {
	return &sandbox.Env{
		Self:      recordAccessor{v: self},
		SelfValue: self,
		Vars:      map[string]cellvalue.Value{},
		Funcs:     mergedFuncs(),
		Budget:    sandbox.NewBudget(budget),
	}
}

func mergedFuncs() map[string]sandbox.HostFunc {
	out := sandbox.StandardFuncs()
	for name, fn := range aggregateFuncs() {
		out[name] = fn
	}
	return out
}

// result is the normalized outcome of spec §4.I step 5's result
// interpretation.
type result struct {
	passed  bool
	message string // non-empty only on a string-message failure
}

func interpret(v cellvalue.Value) result {
	switch v.Kind() {
	case cellvalue.KindBool:
		return result{passed: v.Bool()}
	case cellvalue.KindString:
		if v.Str() == "" {
			return result{passed: true}
		}
		return result{passed: false, message: v.Str()}
	case cellvalue.KindNil:
		return result{passed: false}
	default:
		return result{passed: false, message: "validator returned a non-boolean, non-string value"}
	}
}

// RunRowValidators implements spec §4.I for the row scope: self/row are the
// row itself; rows is every row in the file.
func RunRowValidators(sink *diag.Sink, specs []manifest.ValidatorSpec, row *dataset.Row, allRows []*dataset.Row, rowIndex int, fileName, packageID string) (passed bool, warnings []Warning) {
	self := rowRecord(row)
	passed = true
	for _, spec := range specs {
		env := baseEnv(self, RowBudget)
		env.Vars["rowIndex"] = cellvalue.Int(int64(rowIndex))
		env.Vars["fileName"] = cellvalue.String(fileName)
		env.Vars["packageId"] = cellvalue.String(packageID)
		env.Vars["row"] = self
		env.Vars["rows"] = rowsRecord(allRows)
		env.Vars["file"] = cellvalue.String(fileName)
		env.Vars["package"] = cellvalue.String(packageID)
		env.Vars["ctx"] = cellvalue.Nil

		if !runExprEnv(sink, spec, env, "rowIndex:"+strconv.Itoa(rowIndex), &warnings) {
			passed = false
			return passed, warnings
		}
	}
	return passed, warnings
}

// RunFileValidators implements spec §4.I for the file scope: self and rows
// are every row in the file as an array; file holds the file name.
func RunFileValidators(sink *diag.Sink, specs []manifest.ValidatorSpec, allRows []*dataset.Row, fileName, packageID string) (passed bool, warnings []Warning) {
	self := rowsRecord(allRows)
	passed = true
	for _, spec := range specs {
		env := baseEnv(self, FileBudget)
		env.Vars["fileName"] = cellvalue.String(fileName)
		env.Vars["packageId"] = cellvalue.String(packageID)
		env.Vars["rows"] = self
		env.Vars["file"] = cellvalue.String(fileName)
		env.Vars["package"] = cellvalue.String(packageID)
		env.Vars["ctx"] = cellvalue.Nil

		if !runExprEnv(sink, spec, env, "file:"+fileName, &warnings) {
			passed = false
			return passed, warnings
		}
	}
	return passed, warnings
}

// RunPackageValidators implements spec §4.I for the package scope: self and
// files are a map from file name to that file's rows.
func RunPackageValidators(sink *diag.Sink, specs []manifest.ValidatorSpec, filesRows map[string][]*dataset.Row, packageID string) (passed bool, warnings []Warning) {
	names := make([]string, 0, len(filesRows))
	for name := range filesRows {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]cellvalue.MapEntry, 0, len(names))
	for _, n := range names {
		entries = append(entries, cellvalue.MapEntry{Key: cellvalue.String(n), Value: rowsRecord(filesRows[n])})
	}
	self := cellvalue.Map(entries)

	passed = true
	for _, spec := range specs {
		env := baseEnv(self, PackageBudget)
		env.Vars["packageId"] = cellvalue.String(packageID)
		env.Vars["package"] = cellvalue.String(packageID)
		env.Vars["files"] = self
		env.Vars["ctx"] = cellvalue.Nil

		if !runExprEnv(sink, spec, env, "package:"+packageID, &warnings) {
			passed = false
			return passed, warnings
		}
	}
	return passed, warnings
}

func runExprEnv(sink *diag.Sink, spec manifest.ValidatorSpec, env *sandbox.Env, scope string, warnings *[]Warning) bool {
	expr, err := sandbox.Parse(spec.Expr)
	if err != nil {
		sink.ReportKind(diag.KindValidation, cellvalue.String(spec.Expr), err.Error())
		return false
	}
	out, err := sandbox.Eval(expr, env)
	if err != nil {
		sink.ReportKind(diag.KindValidation, cellvalue.String(spec.Expr), err.Error())
		return false
	}

	r := interpret(out)
	if r.passed {
		return true
	}
	msg := r.message
	if msg == "" {
		msg = "validation failed"
	}
	if spec.Level == "warn" {
		*warnings = append(*warnings, Warning{Validator: spec.Expr, Message: msg, Scope: scope})
		return true
	}
	sink.ReportKind(diag.KindValidation, cellvalue.String(spec.Expr), msg)
	return false
}

