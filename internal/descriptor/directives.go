package descriptor

import "approxeq-generator/internal/common"

// Expr is a Go expression supplied by the user, kept as source text.
type Expr string

// String returns the expression source.
func (e Expr) String() string {
	return string(e)
}

// CastStrategy reconciles a field's declared type with the tolerance type.
type CastStrategy int

const (
	CastNone  CastStrategy = iota // compare at the field type, values as-is
	CastField                     // convert the operands to the tolerance type
	CastValue                     // convert the tolerances to the field type
)

// String returns a human-readable representation of the CastStrategy.
func (c CastStrategy) String() string {
	switch c {
	case CastNone:
		return "none"
	case CastField:
		return "cast_field"
	case CastValue:
		return "cast_value"
	default:
		return common.UnknownStr
	}
}

// Directives are the per-field directives. A nil entry is unset.
type Directives struct {
	Skip              *bool
	Equal             *bool
	Cast              *CastStrategy
	StaticEpsilon     *Expr
	StaticMaxRelative *Expr
	ValueMap          *Expr
	EpsilonMap        *Expr
	MaxRelativeMap    *Expr
	Iterate           *bool
}

// Merge returns d with every unset entry taken from defaults. Entries set on d
// always win.
func (d Directives) Merge(defaults Directives) Directives {
	return Directives{
		Skip:              override(d.Skip, defaults.Skip),
		Equal:             override(d.Equal, defaults.Equal),
		Cast:              override(d.Cast, defaults.Cast),
		StaticEpsilon:     override(d.StaticEpsilon, defaults.StaticEpsilon),
		StaticMaxRelative: override(d.StaticMaxRelative, defaults.StaticMaxRelative),
		ValueMap:          override(d.ValueMap, defaults.ValueMap),
		EpsilonMap:        override(d.EpsilonMap, defaults.EpsilonMap),
		MaxRelativeMap:    override(d.MaxRelativeMap, defaults.MaxRelativeMap),
		Iterate:           override(d.Iterate, defaults.Iterate),
	}
}

// Merge returns d with every unset entry taken from defaults.
func (d TypeDirectives) Merge(defaults TypeDirectives) TypeDirectives {
	return TypeDirectives{
		EpsilonType:        override(d.EpsilonType, defaults.EpsilonType),
		DefaultEpsilon:     override(d.DefaultEpsilon, defaults.DefaultEpsilon),
		DefaultMaxRelative: override(d.DefaultMaxRelative, defaults.DefaultMaxRelative),
	}
}

// IsSkipped reports whether the field is excluded from comparison.
func (d Directives) IsSkipped() bool {
	return isTrue(d.Skip)
}

// IsEqual reports whether the field is compared with ==.
func (d Directives) IsEqual() bool {
	return isTrue(d.Equal)
}

// Iterates reports whether the field is compared element-wise.
func (d Directives) Iterates() bool {
	return isTrue(d.Iterate)
}

// CastStrategy returns the cast strategy, CastNone when unset.
func (d Directives) CastStrategy() CastStrategy {
	if d.Cast == nil {
		return CastNone
	}

	return *d.Cast
}

// IsZero reports whether no directive is set.
func (d Directives) IsZero() bool {
	return d == Directives{}
}

// Ptr returns a pointer to v, for building directives literally.
func Ptr[T any](v T) *T {
	return &v
}

func override[T any](own, fallback *T) *T {
	if own != nil {
		return own
	}

	return fallback
}

func isTrue(b *bool) bool {
	return b != nil && *b
}
