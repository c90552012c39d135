// Package typespec implements the type-spec grammar described in spec §4.B:
// a recursive descent parser producing a tagged AST over primitives,
// unions, arrays, maps, tuples, records, enums, extends/inheritance markers,
// and self-references. It is built from small composable functions over a
// cursor, each succeeding or failing by how much input it consumes, as a
// direct recursive-descent parser rather than a compiled NFA/DFA, since the
// type grammar is a handful of fixed productions rather than an open-ended
// regular language.
package typespec

import "strings"

// Tag identifies the variant of a Node, matching spec §4.B's output
// variant set {name, array, tuple, union, map, record, table, enum, selfref}.
type Tag string

const (
	TagName   Tag = "name"
	TagArray  Tag = "array"
	TagTuple  Tag = "tuple"
	TagUnion  Tag = "union"
	TagMap    Tag = "map"
	TagRecord Tag = "record"
	TagTable  Tag = "table"
	TagEnum   Tag = "enum"
	TagSelfRef Tag = "selfref"
)

// Field is a named member of a record, in declaration order.
type Field struct {
	Name string
	Type *Node
}

// Node is a tagged type-spec AST node.
type Node struct {
	Tag Tag

	// TagName / TagSelfRef
	Name string

	// TagArray: Elem is the element type.
	// TagUnion: Elem is unused; Alternatives holds the union members.
	Elem *Node

	// TagUnion
	Alternatives []*Node

	// TagTuple
	TupleFields []*Node

	// TagRecord
	RecordFields []Field

	// TagMap
	KeyType   *Node
	ValueType *Node

	// TagEnum
	EnumLabels []string

	// Extends holds the ancestor-type name for {extends,T}/{extends:T} and
	// the base tuple/record name for the inheritance forms. Nil when the
	// node does not extend anything.
	Extends *Node

	// Source is the exact substring this node was parsed from, used to
	// reconstruct Column.type_spec / type text verbatim (spec §3 Column).
	Source string
}

// IsSelfRef reports whether n is a self-reference node (TagSelfRef); the
// parser gives "self.X" that tag directly rather than TagName (spec §4.B:
// "self.X is a typeName syntactically; it is semantically a dependent
// reference").
func IsSelfRef(n *Node) bool {
	return n.Tag == TagSelfRef
}

// SelfRefTarget returns the referenced sibling field name for a self-ref
// node, e.g. "X" for "self.X" and "_2" for "self._2".
func SelfRefTarget(n *Node) string {
	return strings.TrimPrefix(n.Name, "self.")
}
