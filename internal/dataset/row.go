package dataset

import (
	"github.com/pkg/errors"

	"github.com/tabulua/tabulua/internal/cellvalue"
	"github.com/tabulua/tabulua/internal/diag"
	"github.com/tabulua/tabulua/internal/explode"
)

// Row is the immutable cell sequence of spec §3 Row: cells plus a
// name-keyed lookup, carrying __idx (the row's 1-based line position,
// always >= 2) and a back-pointer to its owning Dataset.
type Row struct {
	Idx     int // __idx
	Cells   []Cell
	header  *Header
	dataset *Dataset

	exploded map[string]cellvalue.Value
	pkValue  cellvalue.Value
	pkKey    string
}

// rowCellSource adapts a Row's cells to explode.CellSource.
type rowCellSource struct{ cells []Cell }

func (s rowCellSource) ParsedAt(colIdx int) cellvalue.Value {
	if colIdx < 1 || colIdx > len(s.cells) {
		return cellvalue.Nil
	}
	return s.cells[colIdx-1].Parsed
}

// buildRow runs the §4.G scheduler over one row's raw cells and
// materializes every exploded root eagerly (spec §9 Design Notes:
// "materializing on first row access... do not share mutable caches
// across rows"); eager, per-row materialization at construction time
// satisfies this without needing any lock around a lazily-populated
// cache on an otherwise-immutable Row.
func buildRow(sink *diag.Sink, header *Header, idx int, rawCells []string, budget int) (*Row, error) {
	cells := buildRowCells(sink, header, rawCells, budget)

	exploded := make(map[string]cellvalue.Value, len(header.ExplodedMap))
	src := rowCellSource{cells: cells}
	for root, s := range header.ExplodedMap {
		exploded[root] = explode.Assemble(src, s)
	}

	row := &Row{Idx: idx, Cells: cells, header: header, exploded: exploded}

	if len(cells) > 0 {
		pk := cells[0].Parsed
		if !pk.IsNil() && !pk.IsScalar() {
			sink.AtLine(uint64(idx), pk.GoString()).ReportKind(diag.KindStructural, pk, "primary key (column 1) must be a basic scalar")
		} else {
			row.pkValue = pk
			row.pkKey = pk.StringKey()
		}
	}
	return row, nil
}

// PrimaryKey returns the row's stringified primary key (spec §3 Row:
// "Numbers are stringified for the dataset's key index").
func (r *Row) PrimaryKey() string { return r.pkKey }

// Get resolves a column or exploded-root name to its value, the way
// cell/validator expressions read `row.colName` (spec §4.I step 3).
func (r *Row) Get(name string) (cellvalue.Value, bool) {
	if v, ok := r.exploded[name]; ok {
		return v, true
	}
	if col, ok := r.header.ColumnByName(name); ok {
		return r.Cells[col.Idx-1].Parsed, true
	}
	return cellvalue.Nil, false
}

// GetIdx resolves a 1-based column position to its parsed value.
func (r *Row) GetIdx(i int) (cellvalue.Value, bool) {
	if i < 1 || i > len(r.Cells) {
		return cellvalue.Nil, false
	}
	return r.Cells[i-1].Parsed, true
}

// Field implements sandbox.SelfAccessor, so a fully-built Row can be
// passed as `self` to validator expressions (spec §4.I).
func (r *Row) Field(name string) (cellvalue.Value, bool) { return r.Get(name) }

// Index implements sandbox.SelfAccessor.
func (r *Row) Index(i int) (cellvalue.Value, bool) { return r.GetIdx(i) }

// Header returns the row's owning Header.
func (r *Row) Header() *Header { return r.header }

// Dataset returns the row's owning Dataset (__dataset).
func (r *Row) Dataset() *Dataset { return r.dataset }

var errImmutable = errors.New("row is immutable")

// Set always fails: Row is sealed immutable after construction (spec §3
// Lifecycles, §8 property 8).
func (r *Row) Set(string, cellvalue.Value) error { return errImmutable }
