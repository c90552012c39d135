package dataset

import "github.com/tabulua/tabulua/internal/cellvalue"

// Cell is the immutable 4-slot record of spec §3: (value, evaluated,
// parsed, reformatted). See spec §3's Cell invariant and §8 property 2.
type Cell struct {
	Value       string
	IsExpr      bool
	Evaluated   cellvalue.Value
	Parsed      cellvalue.Value
	Reformatted string
	// Missing reports a short-row cell inserted per spec §4.G's "short
	// rows" rule: absent text where the column's type does not admit nil.
	Missing bool
}

// emptyCellMarker constructs the empty-cell placeholder spec §4.G
// mandates for unresolvable or short-row cells.
func emptyCellMarker() Cell {
	return Cell{Value: "", Parsed: cellvalue.Nil, Reformatted: ""}
}
