package plan

import (
	"approxeq-generator/internal/descriptor"
	"approxeq-generator/internal/expr"
)

// applyCast reconciles the field type F with the tolerance type P for a
// whole-value comparison.
//
//	cast_field: operands converted to P, compared at P, tolerances as-is
//	cast_value: operands native, compared at F, tolerances converted to F
//	none:       operands native, compared at F, whose tolerance type must be P
func applyCast(p *ComparisonPlan, cast descriptor.CastStrategy, tol Tolerance) {
	fieldType := p.Field.Type

	switch cast {
	case descriptor.CastField:
		p.BaseType = tol.Type
		p.Own = expr.Convert{Type: tol.Type, X: p.Own}
		p.Other = expr.Convert{Type: tol.Type, X: p.Other}
	case descriptor.CastValue:
		p.BaseType = fieldType
		p.Epsilon = expr.Convert{Type: fieldType, X: p.Epsilon}
		p.MaxRelative = expr.Convert{Type: fieldType, X: p.MaxRelative}
	default:
		p.BaseType = fieldType
	}
}

// applyElemCast is applyCast for into_iter fields: F is the element type and
// the conversion happens per element.
func applyElemCast(p *ComparisonPlan, cast descriptor.CastStrategy, tol Tolerance) {
	elem := elemType(p.Field.Type)

	switch cast {
	case descriptor.CastField:
		p.BaseType = tol.Type
		p.ElemCast = &tol.Type
	case descriptor.CastValue:
		p.BaseType = elem
		p.Epsilon = expr.Convert{Type: elem, X: p.Epsilon}
		p.MaxRelative = expr.Convert{Type: elem, X: p.MaxRelative}
	default:
		p.BaseType = elem
	}
}

// elemType returns the element type of a sequence. Other types are returned
// unchanged and left for the compiler to reject.
func elemType(t descriptor.TypeRef) descriptor.TypeRef {
	if (t.Class == descriptor.ClassSlice || t.Class == descriptor.ClassArray) && t.Elem != nil {
		return *t.Elem
	}

	return t
}
