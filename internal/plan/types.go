package plan

import (
	"approxeq-generator/internal/common"
	"approxeq-generator/internal/descriptor"
	"approxeq-generator/internal/expr"
)

// Output is the result of one synthesis run. It is everything the renderer
// and the evaluator need.
type Output struct {
	// Descriptor is the input type.
	Descriptor *descriptor.Descriptor
	// Tolerance is the resolved tolerance type and its defaults.
	Tolerance Tolerance
	// Fields holds the record field plans in declaration order (records only).
	Fields []ComparisonPlan
	// Variants holds the per-variant field plans in declaration order (unions only).
	Variants []VariantPlan
	// Abs is the absolute-tolerance procedure.
	Abs Procedure
	// Rel is the relative-tolerance procedure.
	Rel Procedure
}

// Procedure is one synthesized comparison procedure.
type Procedure struct {
	// Comparison selects absolute or relative tolerance calls.
	Comparison expr.Comparison
	// Body evaluates to true iff the two operands are equal.
	Body expr.Expr
	// Constraints are the generic parameter bounds the procedure needs.
	Constraints ConstraintSet
}

// Procedure returns the procedure for c.
func (o *Output) Procedure(c expr.Comparison) Procedure {
	if c == expr.Relative {
		return o.Rel
	}

	return o.Abs
}

// ToleranceSource records which resolution rule produced the tolerance type.
type ToleranceSource int

const (
	// ToleranceExplicit - from the epsilon_type directive.
	ToleranceExplicit ToleranceSource = iota
	// ToleranceInferred - from the first non-skipped field.
	ToleranceInferred
	// ToleranceFallback - no candidate, default floating point type.
	ToleranceFallback
)

// String returns a human-readable source name.
func (s ToleranceSource) String() string {
	switch s {
	case ToleranceExplicit:
		return "epsilon_type"
	case ToleranceInferred:
		return "first field"
	case ToleranceFallback:
		return "fallback"
	default:
		return common.UnknownStr
	}
}

// Tolerance is the resolved tolerance type of a descriptor.
type Tolerance struct {
	// Parent is the type the tolerance type was taken from.
	Parent descriptor.TypeRef
	// Type is the tolerance type: the epsilon type of Parent.
	Type descriptor.TypeRef
	// Source is the rule that produced Parent.
	Source ToleranceSource
	// DefaultEpsilon is the default epsilon value.
	DefaultEpsilon expr.Expr
	// DefaultMaxRelative is the default max-relative value.
	DefaultMaxRelative expr.Expr
	// Coupled is the type parameter identical to Type, or nil.
	Coupled *descriptor.GenericParam
}

// IsCoupled reports whether the tolerance type is one of the type's own parameters.
func (t Tolerance) IsCoupled() bool {
	return t.Coupled != nil
}

// Strategy describes how a field term compares its operands.
type Strategy int

const (
	// StrategyEquality - host equality, tolerance ignored.
	StrategyEquality Strategy = iota
	// StrategyMapped - both operands mapped, absent results fail.
	StrategyMapped
	// StrategyIterative - element-wise over equal-length sequences.
	StrategyIterative
	// StrategyDirect - tolerance interface call at the base type.
	StrategyDirect
)

// String returns a human-readable strategy name.
func (s Strategy) String() string {
	switch s {
	case StrategyEquality:
		return "equality"
	case StrategyMapped:
		return "mapped"
	case StrategyIterative:
		return "iterative"
	case StrategyDirect:
		return "direct"
	default:
		return common.UnknownStr
	}
}

// ComparisonPlan is the resolved, ready-to-assemble description of how one
// field is compared.
type ComparisonPlan struct {
	// Field is the planned field.
	Field descriptor.Field
	// Strategy selects the term shape.
	Strategy Strategy
	// BaseType is the type whose tolerance implementation is called.
	// For StrategyIterative it applies per element.
	BaseType descriptor.TypeRef
	// Own and Other are the operand values, casts applied.
	Own, Other expr.Expr
	// Epsilon and MaxRelative are the effective tolerance values.
	Epsilon, MaxRelative expr.Expr
	// ValueMap is the map function for StrategyMapped.
	ValueMap expr.Expr
	// ElemCast converts every element before comparison (StrategyIterative with cast_field).
	ElemCast *descriptor.TypeRef
	// Explanation describes why this plan was chosen.
	Explanation string
}

// VariantPlan holds the field plans of one union variant.
type VariantPlan struct {
	Variant descriptor.Variant
	Fields  []ComparisonPlan
}
