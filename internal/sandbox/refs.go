package sandbox

// SelfRef is one static reference to a sibling cell, either by column name
// (self.price, self["price"]) or by 1-based position (self[2]). The cell
// dependency scheduler (internal/dataset) uses these to order evaluation
// without running the expression, per spec §4.F's requirement to derive
// dependencies from a real parse rather than pattern-matching the source
// text.
type SelfRef struct {
	Name    string
	Index   int
	IsIndex bool
}

// ExtractSelfRefs walks expr and returns every self.X / self[N] / self["X"]
// reference reachable from it. Order follows first occurrence; duplicates
// are kept so callers may not assume uniqueness (cheap to dedupe by the
// caller if desired).
func ExtractSelfRefs(expr Expr) []SelfRef {
	var out []SelfRef
	walkSelfRefs(expr, &out)
	return out
}

func walkSelfRefs(expr Expr, out *[]SelfRef) {
	switch t := expr.(type) {
	case nil:
	case NumberLit, StringLit, BoolLit, NilLit, SelfExpr, NameExpr:
		// leaves; a bare SelfExpr with no field/index carries no
		// single-cell dependency (it refers to the whole row)
	case *FieldExpr:
		if _, ok := t.Target.(SelfExpr); ok {
			*out = append(*out, SelfRef{Name: t.Name})
			return
		}
		walkSelfRefs(t.Target, out)
	case *IndexExpr:
		if _, ok := t.Target.(SelfExpr); ok {
			switch idx := t.Index.(type) {
			case StringLit:
				*out = append(*out, SelfRef{Name: idx.Value})
			case NumberLit:
				*out = append(*out, SelfRef{Index: int(idx.Value), IsIndex: true})
			default:
				// dynamic index into self: dependency cannot be
				// determined statically, caller must treat the
				// whole row as a dependency
				*out = append(*out, SelfRef{IsIndex: false, Name: ""})
			}
			walkSelfRefs(t.Index, out)
			return
		}
		walkSelfRefs(t.Target, out)
		walkSelfRefs(t.Index, out)
	case *UnaryExpr:
		walkSelfRefs(t.X, out)
	case *BinaryExpr:
		walkSelfRefs(t.L, out)
		walkSelfRefs(t.R, out)
	case *CallExpr:
		walkSelfRefs(t.Callee, out)
		for _, a := range t.Args {
			walkSelfRefs(a, out)
		}
	case *TableExpr:
		for _, e := range t.ArrayItems {
			walkSelfRefs(e, out)
		}
		for _, f := range t.Keyed {
			if f.KeyExpr != nil {
				walkSelfRefs(f.KeyExpr, out)
			}
			walkSelfRefs(f.Value, out)
		}
	}
}
