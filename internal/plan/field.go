package plan

import (
	"fmt"

	"approxeq-generator/internal/descriptor"
	"approxeq-generator/internal/expr"
)

// Strategy explanation constants.
const (
	explEqual    = "equal directive"
	explMapped   = "value_map"
	explIterate  = "into_iter"
	explDirect   = "tolerance call"
	explSkipped  = "skipped"
	explElemCast = "per element"
)

// PlanField resolves how one field is compared under tol. It reports false
// for a skipped field, which contributes no term.
func PlanField(f descriptor.Field, tol Tolerance) (ComparisonPlan, bool) {
	dirs := f.Directives
	if dirs.IsSkipped() {
		return ComparisonPlan{Field: f, Explanation: explSkipped}, false
	}

	p := ComparisonPlan{
		Field:       f,
		Own:         expr.Slot{Side: expr.Left, Field: f.Name},
		Other:       expr.Slot{Side: expr.Right, Field: f.Name},
		Epsilon:     ambient(dirs.StaticEpsilon, expr.Epsilon),
		MaxRelative: ambient(dirs.StaticMaxRelative, expr.MaxRelative),
	}

	p.Strategy = selectStrategy(dirs)

	if p.Strategy == StrategyIterative {
		applyElemCast(&p, dirs.CastStrategy(), tol)
	} else {
		applyCast(&p, dirs.CastStrategy(), tol)
	}

	p.Epsilon = wrapMap(dirs.EpsilonMap, p.Epsilon)
	p.MaxRelative = wrapMap(dirs.MaxRelativeMap, p.MaxRelative)

	if p.Strategy == StrategyMapped {
		p.ValueMap = expr.Source{Text: *dirs.ValueMap}
	}

	p.Explanation = explain(p, dirs.CastStrategy())

	return p, true
}

// PlanFields plans fields in order, dropping skipped ones.
func PlanFields(fields []descriptor.Field, tol Tolerance) []ComparisonPlan {
	plans := make([]ComparisonPlan, 0, len(fields))

	for _, f := range fields {
		if p, ok := PlanField(f, tol); ok {
			plans = append(plans, p)
		}
	}

	return plans
}

// selectStrategy applies the strategy precedence: equal, value_map, into_iter, direct.
func selectStrategy(dirs descriptor.Directives) Strategy {
	switch {
	case dirs.IsEqual():
		return StrategyEquality
	case dirs.ValueMap != nil:
		return StrategyMapped
	case dirs.Iterates():
		return StrategyIterative
	default:
		return StrategyDirect
	}
}

func ambient(static *descriptor.Expr, kind expr.ParamKind) expr.Expr {
	if static != nil {
		return expr.Source{Text: *static}
	}

	return expr.Param{Kind: kind}
}

func wrapMap(fn *descriptor.Expr, value expr.Expr) expr.Expr {
	if fn == nil {
		return value
	}

	return expr.Apply{Fn: expr.Source{Text: *fn}, Args: []expr.Expr{value}}
}

func explain(p ComparisonPlan, cast descriptor.CastStrategy) string {
	var base string

	switch p.Strategy {
	case StrategyEquality:
		return explEqual
	case StrategyMapped:
		base = explMapped
	case StrategyIterative:
		base = explIterate
	default:
		base = explDirect
	}

	if cast == descriptor.CastNone {
		return fmt.Sprintf("%s at %s", base, p.BaseType)
	}

	if p.Strategy == StrategyIterative {
		return fmt.Sprintf("%s at %s (%s %s)", base, p.BaseType, cast, explElemCast)
	}

	return fmt.Sprintf("%s at %s (%s)", base, p.BaseType, cast)
}
