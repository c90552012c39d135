// Package explode implements the exploded/collection column analyzer of
// spec §4.E: flat columns named with dotted or bracketed paths are
// grouped into nested record/tuple/array/map Structure trees, which
// Assemble turns into cellvalue.Value containers. internal/dataset
// assembles every root once, when the row is built, not on access.
package explode

// Structure is the recursive sum type described in spec §3 ("Structure
// (exploded)"): leaf | record | tuple | array | map. Implemented as a
// closed Go interface with an unexported marker method, the idiomatic
// substitute for the source's tagged variant.
type Structure interface {
	structureSpec() string
}

// Leaf is a terminal structure node backed directly by one column.
type Leaf struct {
	ColIdx   int
	TypeSpec string
}

func (l *Leaf) structureSpec() string { return l.TypeSpec }

// Record is an ordered name->Structure mapping, synthesized from dotted
// columns whose children are not a contiguous _1.._N sequence.
type Record struct {
	TypeSpecText string
	Order        []string
	Fields       map[string]Structure
}

func (r *Record) structureSpec() string { return r.TypeSpecText }

// Tuple is an ordered sequence of Structures, synthesized when a node's
// children are named _1.._N contiguously from 1.
type Tuple struct {
	TypeSpecText string
	Fields       []Structure
}

func (t *Tuple) structureSpec() string { return t.TypeSpecText }

// Array is a homogeneous collection addressed by `base[N]`.
type Array struct {
	TypeSpecText   string
	ElementType    string
	MaxIndex       int
	ElementColumns map[int]int // index -> col_idx
}

func (a *Array) structureSpec() string { return a.TypeSpecText }

// Map is a collection with distinct key and value columns per index,
// addressed by `base[N]` (key) and `base[N]=` (value).
type Map struct {
	TypeSpecText string
	KeyType      string
	ValueType    string
	MaxIndex     int
	KeyColumns   map[int]int
	ValueColumns map[int]int
}

func (m *Map) structureSpec() string { return m.TypeSpecText }

// CollapsedColumnSpec implements spec §4.E's
// `collapsed_column_spec(root, structure) = "<root>:<structure.type_spec>"`.
func CollapsedColumnSpec(root string, s Structure) string {
	return root + ":" + s.structureSpec()
}
