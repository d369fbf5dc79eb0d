package plan

import (
	"approxeq-generator/internal/common"
	"approxeq-generator/internal/expr"
)

// Capability is a requirement placed on a type parameter.
type Capability int

const (
	CapAbsDiffEq  Capability = iota // absolute tolerance comparison
	CapRelativeEq                   // relative tolerance comparison
	CapEquality                     // host equality
	CapClone                        // epsilon type copyable
)

// String returns a human-readable representation of the Capability.
func (c Capability) String() string {
	switch c {
	case CapAbsDiffEq:
		return "AbsDiffEq"
	case CapRelativeEq:
		return "RelativeEq"
	case CapEquality:
		return "PartialEq"
	case CapClone:
		return "Clone"
	default:
		return common.UnknownStr
	}
}

// Obligation requires Param to provide Capability.
type Obligation struct {
	Param      string
	Capability Capability
}

// ConstraintSet is the list of extra bounds a procedure adds to the type's
// own parameter constraints.
type ConstraintSet struct {
	Obligations []Obligation
}

// IsEmpty reports whether no bound is added.
func (cs ConstraintSet) IsEmpty() bool {
	return len(cs.Obligations) == 0
}

// For returns the capabilities required of param, in order.
func (cs ConstraintSet) For(param string) []Capability {
	var caps []Capability

	for _, o := range cs.Obligations {
		if o.Param == param {
			caps = append(caps, o.Capability)
		}
	}

	return caps
}

// Has reports whether param is required to provide c.
func (cs ConstraintSet) Has(param string, c Capability) bool {
	for _, o := range cs.Obligations {
		if o.Param == param && o.Capability == c {
			return true
		}
	}

	return false
}

// DeriveConstraints returns the bounds needed when the tolerance type is one
// of the type's own parameters. Uncoupled types need none.
func DeriveConstraints(tol Tolerance, c expr.Comparison) ConstraintSet {
	if !tol.IsCoupled() {
		return ConstraintSet{}
	}

	name := tol.Coupled.Name

	cmp := CapAbsDiffEq
	if c == expr.Relative {
		cmp = CapRelativeEq
	}

	return ConstraintSet{Obligations: []Obligation{
		{Param: name, Capability: cmp},
		{Param: name, Capability: CapEquality},
		{Param: name, Capability: CapClone},
	}}
}
