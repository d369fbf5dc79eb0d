package plan

import (
	"approxeq-generator/internal/descriptor"
	"approxeq-generator/internal/expr"
)

// Term builds the comparison term of one field plan.
func Term(p ComparisonPlan, c expr.Comparison) expr.Expr {
	switch p.Strategy {
	case StrategyEquality:
		return expr.Equal{L: p.Own, R: p.Other}
	case StrategyMapped:
		return expr.Mapped{
			Fn:   p.ValueMap,
			L:    p.Own,
			R:    p.Other,
			Term: tolerance(p, c, nil, expr.Bound{Side: expr.Left}, expr.Bound{Side: expr.Right}),
		}
	case StrategyIterative:
		var l, r expr.Expr = expr.Bound{Side: expr.Left}, expr.Bound{Side: expr.Right}
		if p.ElemCast != nil {
			l = expr.Convert{Type: *p.ElemCast, X: l}
			r = expr.Convert{Type: *p.ElemCast, X: r}
		}

		base := p.BaseType

		return expr.Pairwise{
			Seq:  p.Field.Type,
			L:    p.Own,
			R:    p.Other,
			Term: tolerance(p, c, &base, l, r),
		}
	default:
		base := p.BaseType
		return tolerance(p, c, &base, p.Own, p.Other)
	}
}

func tolerance(p ComparisonPlan, c expr.Comparison, base *descriptor.TypeRef, l, r expr.Expr) expr.Tolerance {
	t := expr.Tolerance{
		Comparison: c,
		Base:       base,
		L:          l,
		R:          r,
		Epsilon:    p.Epsilon,
	}

	if c == expr.Relative {
		t.MaxRelative = p.MaxRelative
	}

	return t
}

// AssembleRecord joins the field terms with a short-circuit conjunction in
// declaration order. A record whose fields are all skipped is always equal.
func AssembleRecord(plans []ComparisonPlan, c expr.Comparison) expr.Expr {
	terms := make([]expr.Expr, len(plans))
	for i, p := range plans {
		terms[i] = Term(p, c)
	}

	return expr.Conj(terms...)
}

// AssembleUnion builds one arm per variant in declaration order. Operands of
// different variants fall through to false.
func AssembleUnion(variants []VariantPlan, c expr.Comparison) expr.Expr {
	arms := make([]expr.Arm, len(variants))
	for i, v := range variants {
		arms[i] = expr.Arm{Variant: v.Variant, Body: AssembleRecord(v.Fields, c)}
	}

	return expr.Switch{Arms: arms}
}
