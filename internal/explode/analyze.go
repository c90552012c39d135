package explode

import (
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/tabulua/tabulua/internal/colname"
)

// ColumnInfo is the minimal per-column information the analyzer needs:
// its resolved name, 1-based index, and declared type-spec text. Header
// construction (internal/dataset) supplies these.
type ColumnInfo struct {
	Name     string
	Idx      int
	TypeSpec string
}

// Build runs the two-pass analysis of spec §4.E and returns a root->Structure
// map, one entry per distinct top-level name. Plain (non-dotted,
// non-collection) columns are included too, each as a Leaf root.
func Build(columns []ColumnInfo) (map[string]Structure, error) {
	refs := make(map[int]colname.Ref, len(columns))
	byIdx := make(map[int]ColumnInfo, len(columns))
	for _, c := range columns {
		ref, err := colname.Parse(c.Name)
		if err != nil {
			return nil, err
		}
		refs[c.Idx] = ref
		byIdx[c.Idx] = c
	}

	groups := groupCollections(columns, refs)

	collections := make(map[string]Structure, len(groups))
	for base, g := range groups {
		s, err := g.finalize(base)
		if err != nil {
			return nil, err
		}
		collections[base] = s
	}

	root := newTreeNode()
	for _, c := range columns {
		ref := refs[c.Idx]
		if ref.IsCollection() {
			// Collection columns are represented by their finalized
			// structure, inserted once at BasePath below; skip here.
			continue
		}
		insertLeaf(root, ref.Segments, &Leaf{ColIdx: c.Idx, TypeSpec: c.TypeSpec})
	}
	for base, s := range collections {
		insertCollection(root, strings.Split(base, "."), s)
	}

	result := make(map[string]Structure, len(root.order))
	for _, name := range root.order {
		child := root.children[name]
		s, err := child.toStructure(name)
		if err != nil {
			return nil, err
		}
		result[name] = s
	}
	return result, nil
}

type collectionGroup struct {
	isMap          bool
	maxIndex       int
	elementType    string
	valueType      string
	elementColumns map[int]int
	valueColumns   map[int]int
}

func groupCollections(columns []ColumnInfo, refs map[int]colname.Ref) map[string]*collectionGroup {
	groups := make(map[string]*collectionGroup)
	for _, c := range columns {
		ref := refs[c.Idx]
		if !ref.IsCollection() {
			continue
		}
		base := ref.BasePath()
		g, ok := groups[base]
		if !ok {
			g = &collectionGroup{elementColumns: map[int]int{}, valueColumns: map[int]int{}}
			groups[base] = g
		}
		last := ref.Last()
		if last.Index > g.maxIndex {
			g.maxIndex = last.Index
		}
		if last.IsMapValue {
			g.isMap = true
			g.valueColumns[last.Index] = c.Idx
			g.valueType = c.TypeSpec
		} else {
			g.elementColumns[last.Index] = c.Idx
			g.elementType = c.TypeSpec
		}
	}
	return groups
}

func (g *collectionGroup) finalize(base string) (Structure, error) {
	for i := 1; i <= g.maxIndex; i++ {
		if _, ok := g.elementColumns[i]; !ok {
			return nil, errors.Errorf("collection %q: missing index %d", base, i)
		}
		if g.isMap {
			if _, ok := g.valueColumns[i]; !ok {
				return nil, errors.Errorf("collection %q: map index %d missing value column", base, i)
			}
		}
	}
	if g.isMap {
		return &Map{
			TypeSpecText: "{" + g.elementType + ":" + g.valueType + "}",
			KeyType:      g.elementType,
			ValueType:    g.valueType,
			MaxIndex:     g.maxIndex,
			KeyColumns:   g.elementColumns,
			ValueColumns: g.valueColumns,
		}, nil
	}
	return &Array{
		TypeSpecText:   "{" + g.elementType + "}",
		ElementType:    g.elementType,
		MaxIndex:       g.maxIndex,
		ElementColumns: g.elementColumns,
	}, nil
}

// treeNode is the mutable intermediate form of the path tree built in
// pass 2, converted to an immutable Structure once fully populated.
type treeNode struct {
	order      []string
	children   map[string]*treeNode
	leaf       *Leaf
	collection Structure
}

func newTreeNode() *treeNode {
	return &treeNode{children: map[string]*treeNode{}}
}

func (n *treeNode) child(name string) *treeNode {
	c, ok := n.children[name]
	if !ok {
		c = newTreeNode()
		n.children[name] = c
		n.order = append(n.order, name)
	}
	return c
}

func insertLeaf(root *treeNode, segments []colname.Segment, leaf *Leaf) {
	n := root
	for _, seg := range segments[:len(segments)-1] {
		n = n.child(seg.Name)
	}
	last := n.child(segments[len(segments)-1].Name)
	last.leaf = leaf
}

func insertCollection(root *treeNode, path []string, s Structure) {
	n := root
	for _, name := range path[:len(path)-1] {
		n = n.child(name)
	}
	last := n.child(path[len(path)-1])
	last.collection = s
}

func (n *treeNode) toStructure(name string) (Structure, error) {
	if n.collection != nil {
		return n.collection, nil
	}
	if n.leaf != nil && len(n.children) == 0 {
		return n.leaf, nil
	}
	if len(n.children) == 0 {
		return nil, errors.Errorf("exploded column %q: no leaves", name)
	}

	if isContiguousTuple(n.order) {
		ordered := append([]string(nil), n.order...)
		sort.Slice(ordered, func(i, j int) bool {
			return tuplePosition(ordered[i]) < tuplePosition(ordered[j])
		})
		fields := make([]Structure, len(ordered))
		specs := make([]string, len(ordered))
		for i, childName := range ordered {
			s, err := n.children[childName].toStructure(childName)
			if err != nil {
				return nil, err
			}
			fields[i] = s
			specs[i] = s.structureSpec()
		}
		return &Tuple{TypeSpecText: "{" + strings.Join(specs, ",") + "}", Fields: fields}, nil
	}

	fields := make(map[string]Structure, len(n.order))
	specParts := make([]string, len(n.order))
	for i, childName := range n.order {
		s, err := n.children[childName].toStructure(childName)
		if err != nil {
			return nil, err
		}
		fields[childName] = s
		specParts[i] = childName + ":" + s.structureSpec()
	}
	return &Record{
		TypeSpecText: "{" + strings.Join(specParts, ",") + "}",
		Order:        append([]string(nil), n.order...),
		Fields:       fields,
	}, nil
}

// isContiguousTuple reports whether names is exactly {_1, ..., _N} for
// some N >= 1, in any order (spec §4.E: "classify the node as a tuple
// when all children are named _1.._N contiguously from 1").
func isContiguousTuple(names []string) bool {
	if len(names) == 0 {
		return false
	}
	seen := make(map[int]bool, len(names))
	for _, n := range names {
		pos := tuplePosition(n)
		if pos < 1 {
			return false
		}
		seen[pos] = true
	}
	for i := 1; i <= len(names); i++ {
		if !seen[i] {
			return false
		}
	}
	return true
}

func tuplePosition(name string) int {
	if !strings.HasPrefix(name, "_") {
		return -1
	}
	n := 0
	for _, r := range name[1:] {
		if r < '0' || r > '9' {
			return -1
		}
		n = n*10 + int(r-'0')
	}
	if n == 0 {
		return -1
	}
	return n
}
