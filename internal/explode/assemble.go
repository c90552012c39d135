package explode

import "github.com/tabulua/tabulua/internal/cellvalue"

// CellSource gives Assemble access to a row's parsed cell values by
// column index, without explode depending on internal/dataset's Row type.
type CellSource interface {
	ParsedAt(colIdx int) cellvalue.Value
}

// Assemble recursively materializes a Structure into a cellvalue.Value,
// reading leaf values from src (spec §4.E "assemble(row, structure)").
// Assembly is not cached here; callers (internal/dataset's Row) are
// responsible for caching per-row, per spec §9's "do not share mutable
// caches across rows" guidance.
func Assemble(src CellSource, s Structure) cellvalue.Value {
	switch t := s.(type) {
	case *Leaf:
		return src.ParsedAt(t.ColIdx)

	case *Record:
		entries := make([]cellvalue.RecordEntry, len(t.Order))
		for i, name := range t.Order {
			entries[i] = cellvalue.RecordEntry{Name: name, Value: Assemble(src, t.Fields[name])}
		}
		return cellvalue.Record(entries)

	case *Tuple:
		items := make([]cellvalue.Value, len(t.Fields))
		for i, f := range t.Fields {
			items[i] = Assemble(src, f)
		}
		return cellvalue.Tuple(items)

	case *Array:
		items := make([]cellvalue.Value, t.MaxIndex)
		for i := 1; i <= t.MaxIndex; i++ {
			items[i-1] = src.ParsedAt(t.ElementColumns[i])
		}
		return cellvalue.List(items)

	case *Map:
		entries := make([]cellvalue.MapEntry, 0, t.MaxIndex)
		for i := 1; i <= t.MaxIndex; i++ {
			key := src.ParsedAt(t.KeyColumns[i])
			if key.IsNil() {
				continue
			}
			value := src.ParsedAt(t.ValueColumns[i])
			entries = append(entries, cellvalue.MapEntry{Key: key, Value: value})
		}
		return cellvalue.Map(entries)

	default:
		return cellvalue.Nil
	}
}
