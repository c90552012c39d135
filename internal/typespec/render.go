package typespec

import "strings"

// Render reconstructs a canonical textual type spec from a Node. Used when
// synthesizing Header.__type_spec and Structure.type_spec (spec §3, §4.E).
func Render(n *Node) string {
	switch n.Tag {
	case TagName:
		if n.Extends != nil {
			return "{extends:" + Render(n.Extends) + "}"
		}
		return n.Name
	case TagSelfRef:
		return n.Name
	case TagTable:
		return "{}"
	case TagEnum:
		return "{enum:" + strings.Join(n.EnumLabels, "|") + "}"
	case TagArray:
		return "{" + Render(n.Elem) + "}"
	case TagMap:
		return "{" + Render(n.KeyType) + ":" + Render(n.ValueType) + "}"
	case TagTuple:
		parts := make([]string, len(n.TupleFields))
		for i, f := range n.TupleFields {
			parts[i] = Render(f)
		}
		if n.Extends != nil {
			return "{extends," + Render(n.Extends) + "," + strings.Join(parts, ",") + "}"
		}
		return "{" + strings.Join(parts, ",") + "}"
	case TagRecord:
		parts := make([]string, len(n.RecordFields))
		for i, f := range n.RecordFields {
			parts[i] = f.Name + ":" + Render(f.Type)
		}
		if n.Extends != nil {
			return "{extends:" + Render(n.Extends) + "," + strings.Join(parts, ",") + "}"
		}
		return "{" + strings.Join(parts, ",") + "}"
	case TagUnion:
		parts := make([]string, len(n.Alternatives))
		for i, a := range n.Alternatives {
			parts[i] = Render(a)
		}
		return strings.Join(parts, "|")
	default:
		return ""
	}
}
