package plan

import (
	"github.com/hashicorp/go-set/v3"

	"approxeq-generator/internal/common"
	"approxeq-generator/internal/descriptor"
	"approxeq-generator/internal/expr"
)

// ResolveTolerance determines the single tolerance type of d and its default
// values.
//
// Priority: the epsilon_type directive, then the declared type of the first
// non-skipped field (flattened across variants for unions), then float64.
func ResolveTolerance(d *descriptor.Descriptor) Tolerance {
	var tol Tolerance

	tol.Parent, tol.Source = parentType(d)
	tol.Type = tol.Parent.EpsilonType()

	tol.DefaultEpsilon = defaultValue(d.Directives.DefaultEpsilon, expr.Epsilon, tol.Parent)
	tol.DefaultMaxRelative = defaultValue(d.Directives.DefaultMaxRelative, expr.MaxRelative, tol.Parent)

	tol.Coupled = coupledParam(d, tol.Type)

	return tol
}

// parentType picks the type the tolerance type is taken from.
func parentType(d *descriptor.Descriptor) (descriptor.TypeRef, ToleranceSource) {
	if d.Directives.EpsilonType != nil {
		return *d.Directives.EpsilonType, ToleranceExplicit
	}

	if f, ok := common.FirstFunc(d.AllFields(), isRetained); ok {
		return f.Type, ToleranceInferred
	}

	return descriptor.Float64(), ToleranceFallback
}

func isRetained(f descriptor.Field) bool {
	return !f.Directives.IsSkipped()
}

func defaultValue(override *descriptor.Expr, kind expr.ParamKind, parent descriptor.TypeRef) expr.Expr {
	if override != nil {
		return expr.Source{Text: *override}
	}

	return expr.Default{Kind: kind, Type: parent}
}

// coupledParam returns the type parameter nominally identical to tolType.
func coupledParam(d *descriptor.Descriptor, tolType descriptor.TypeRef) *descriptor.GenericParam {
	if tolType.Class != descriptor.ClassParam || !d.IsGeneric() {
		return nil
	}

	names := set.New[string](len(d.Params))
	for _, p := range d.Params {
		names.Insert(p.Name)
	}

	if !names.Contains(tolType.Expr) {
		return nil
	}

	for i := range d.Params {
		if d.Params[i].Name == tolType.Expr {
			p := d.Params[i]
			return &p
		}
	}

	return nil
}
