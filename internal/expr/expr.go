// Package expr is the intermediate representation of synthesized comparison
// logic.
//
// The assembler builds one Expr tree per comparison procedure. The tree is
// consumed by two back ends: the Go source renderer and the reference
// evaluator. Nodes are plain immutable values.
package expr

import (
	"approxeq-generator/internal/common"
	"approxeq-generator/internal/descriptor"
)

// Expr is a node of a comparison expression tree.
type Expr interface {
	exprNode()
}

// Side selects one of the two compared operands.
type Side int

const (
	Left  Side = iota // the receiver / first operand
	Right             // the other operand
)

// String returns a human-readable representation of the Side.
func (s Side) String() string {
	switch s {
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return common.UnknownStr
	}
}

// Comparison selects which tolerance interface call a procedure uses.
type Comparison int

const (
	Absolute Comparison = iota // AbsDiffEq(a, b, epsilon)
	Relative                   // RelativeEq(a, b, epsilon, maxRelative)
)

// String returns a human-readable representation of the Comparison.
func (c Comparison) String() string {
	switch c {
	case Absolute:
		return "absolute"
	case Relative:
		return "relative"
	default:
		return common.UnknownStr
	}
}

// ParamKind selects an ambient tolerance parameter.
type ParamKind int

const (
	Epsilon     ParamKind = iota // the epsilon parameter
	MaxRelative                  // the max-relative parameter
)

// String returns a human-readable representation of the ParamKind.
func (p ParamKind) String() string {
	switch p {
	case Epsilon:
		return "epsilon"
	case MaxRelative:
		return "max_relative"
	default:
		return common.UnknownStr
	}
}

type (
	// Bool is a literal truth value.
	Bool struct {
		Value bool
	}

	// Slot is the value of a field of one operand. The operand is the one
	// bound by the innermost record or variant scope.
	Slot struct {
		Side  Side
		Field descriptor.FieldName
	}

	// Bound is a value bound by the innermost Mapped or Pairwise scope:
	// the mapped result or the current element of the given side.
	Bound struct {
		Side Side
	}

	// Param is an ambient tolerance parameter of the procedure.
	Param struct {
		Kind ParamKind
	}

	// Source is a user-supplied Go expression (static value, map function, default).
	Source struct {
		Text descriptor.Expr
	}

	// Convert is a numeric conversion of X to Type.
	Convert struct {
		Type descriptor.TypeRef
		X    Expr
	}

	// Apply calls Fn with Args.
	Apply struct {
		Fn   Expr
		Args []Expr
	}

	// Equal is host equality L == R.
	Equal struct {
		L, R Expr
	}

	// Tolerance calls the tolerance interface on L and R. Base is the type
	// whose implementation is used; nil lets the host infer it. MaxRelative
	// is nil for absolute comparisons.
	Tolerance struct {
		Comparison  Comparison
		Base        *descriptor.TypeRef
		L, R        Expr
		Epsilon     Expr
		MaxRelative Expr
	}

	// Mapped applies Fn to L and R. Term is evaluated with the two results
	// bound when both are present; an absent result makes the node false.
	Mapped struct {
		Fn   Expr
		L, R Expr
		Term Expr
	}

	// Pairwise compares two sequences of Elem positionally. Term is
	// evaluated with each element pair bound; a length mismatch or the first
	// false Term makes the node false.
	Pairwise struct {
		Seq  descriptor.TypeRef
		L, R Expr
		Term Expr
	}

	// And is a short-circuit conjunction in order. No terms is true.
	And struct {
		Terms []Expr
	}

	// Arm matches operands that are both of Variant and binds them for Body.
	Arm struct {
		Variant descriptor.Variant
		Body    Expr
	}

	// Switch dispatches on the variants of both operands. Operands of
	// different variants match no arm and the node is false.
	Switch struct {
		Arms []Arm
	}

	// Default is the tolerance interface's default value of Type.
	Default struct {
		Kind ParamKind
		Type descriptor.TypeRef
	}
)

func (Bool) exprNode()      {}
func (Slot) exprNode()      {}
func (Bound) exprNode()     {}
func (Param) exprNode()     {}
func (Source) exprNode()    {}
func (Convert) exprNode()   {}
func (Apply) exprNode()     {}
func (Equal) exprNode()     {}
func (Tolerance) exprNode() {}
func (Mapped) exprNode()    {}
func (Pairwise) exprNode()  {}
func (And) exprNode()       {}
func (Switch) exprNode()    {}
func (Default) exprNode()   {}

// Conj returns the conjunction of terms, flattening a single term.
func Conj(terms ...Expr) Expr {
	switch len(terms) {
	case 0:
		return Bool{Value: true}
	case 1:
		return terms[0]
	default:
		return And{Terms: terms}
	}
}

// Walk calls fn for e and then for each of its children, depth first.
func Walk(e Expr, fn func(Expr)) {
	if e == nil {
		return
	}

	fn(e)

	switch n := e.(type) {
	case Convert:
		Walk(n.X, fn)
	case Apply:
		Walk(n.Fn, fn)

		for _, a := range n.Args {
			Walk(a, fn)
		}
	case Equal:
		Walk(n.L, fn)
		Walk(n.R, fn)
	case Tolerance:
		Walk(n.L, fn)
		Walk(n.R, fn)
		Walk(n.Epsilon, fn)
		Walk(n.MaxRelative, fn)
	case Mapped:
		Walk(n.Fn, fn)
		Walk(n.L, fn)
		Walk(n.R, fn)
		Walk(n.Term, fn)
	case Pairwise:
		Walk(n.L, fn)
		Walk(n.R, fn)
		Walk(n.Term, fn)
	case And:
		for _, t := range n.Terms {
			Walk(t, fn)
		}
	case Switch:
		for _, a := range n.Arms {
			Walk(a.Body, fn)
		}
	}
}

// UsesSide reports whether e reads a field of the given operand.
func UsesSide(e Expr, side Side) bool {
	used := false

	Walk(e, func(n Expr) {
		if s, ok := n.(Slot); ok && s.Side == side {
			used = true
		}
	})

	return used
}
