package eval

import (
	"errors"
	"fmt"
	"go/constant"
	"reflect"

	"approxeq-generator/approx"
	"approxeq-generator/internal/expr"
	"approxeq-generator/primitive"
)

// untyped is an untyped constant from a user expression. It takes the type
// of the position it is used in, like a Go constant.
type untyped struct {
	val constant.Value
}

var untypedType = reflect.TypeFor[untyped]()

var (
	errTruncated = errors.New("constant truncated")
	errOverflow  = errors.New("constant overflows")
)

func isUntyped(v reflect.Value) bool {
	return v.IsValid() && v.Type() == untypedType
}

func untypedOf(v reflect.Value) constant.Value {
	return v.Interface().(untyped).val
}

// constantValue converts c to a value of the numeric type t.
func constantValue(c constant.Value, t reflect.Type) (reflect.Value, error) {
	out := reflect.New(t).Elem()

	switch k := primitive.FromReflectType(t); {
	case k.IsFloat():
		f := constant.ToFloat(c)
		if f.Kind() != constant.Float && f.Kind() != constant.Int {
			return reflect.Value{}, fmt.Errorf("cannot use %s as %s", c, t)
		}

		v, _ := constant.Float64Val(f)
		out.SetFloat(v)

	case k.IsSigned():
		i := constant.ToInt(c)
		if i.Kind() != constant.Int {
			return reflect.Value{}, fmt.Errorf("%w: %s to %s", errTruncated, c, t)
		}

		v, exact := constant.Int64Val(i)
		if !exact || out.OverflowInt(v) {
			return reflect.Value{}, fmt.Errorf("%w: %s in %s", errOverflow, c, t)
		}

		out.SetInt(v)

	case k.IsUnsigned():
		i := constant.ToInt(c)
		if i.Kind() != constant.Int {
			return reflect.Value{}, fmt.Errorf("%w: %s to %s", errTruncated, c, t)
		}

		v, exact := constant.Uint64Val(i)
		if !exact || out.OverflowUint(v) {
			return reflect.Value{}, fmt.Errorf("%w: %s in %s", errOverflow, c, t)
		}

		out.SetUint(v)

	default:
		return reflect.Value{}, fmt.Errorf("cannot use constant %s as %s", c, t)
	}

	return out, nil
}

// defaultType is the type an untyped numeric constant takes without context.
func defaultType(c constant.Value) reflect.Type {
	if c.Kind() == constant.Int {
		return reflect.TypeFor[int]()
	}

	return reflect.TypeFor[float64]()
}

// convert is a Go conversion T(v).
func convert(v reflect.Value, t reflect.Type) (reflect.Value, error) {
	if isUntyped(v) {
		return constantValue(untypedOf(v), t)
	}

	if !v.Type().ConvertibleTo(t) {
		return reflect.Value{}, fmt.Errorf("cannot convert %s to %s", v.Type(), t)
	}

	return v.Convert(t), nil
}

// adapt checks that v can be passed where a value of t is expected. Numeric
// values of the same kind are accepted, untyped constants take type t.
func adapt(v reflect.Value, t reflect.Type) (reflect.Value, error) {
	if isUntyped(v) {
		return constantValue(untypedOf(v), t)
	}

	if primitive.FromReflectType(v.Type()) != primitive.FromReflectType(t) {
		return reflect.Value{}, fmt.Errorf("mismatched types %s and %s", v.Type(), t)
	}

	return v, nil
}

func num[T approx.Number](v reflect.Value) T {
	switch {
	case v.CanInt():
		return T(v.Int())
	case v.CanUint():
		return T(v.Uint())
	default:
		return T(v.Float())
	}
}

func absAs[T approx.Number](l, r, eps reflect.Value) bool {
	return approx.AbsDiffEq(num[T](l), num[T](r), num[T](eps))
}

func relAs[T approx.Float](l, r, eps, maxRel reflect.Value) bool {
	return approx.RelativeEq(num[T](l), num[T](r), num[T](eps), num[T](maxRel))
}

// absDiffEq runs the runtime comparison at the given numeric kind.
func absDiffEq(k primitive.KindEnum, l, r, eps reflect.Value) (bool, error) {
	switch k {
	case primitive.KindInt:
		return absAs[int](l, r, eps), nil
	case primitive.KindInt8:
		return absAs[int8](l, r, eps), nil
	case primitive.KindInt16:
		return absAs[int16](l, r, eps), nil
	case primitive.KindInt32:
		return absAs[int32](l, r, eps), nil
	case primitive.KindInt64:
		return absAs[int64](l, r, eps), nil
	case primitive.KindUint:
		return absAs[uint](l, r, eps), nil
	case primitive.KindUint8:
		return absAs[uint8](l, r, eps), nil
	case primitive.KindUint16:
		return absAs[uint16](l, r, eps), nil
	case primitive.KindUint32:
		return absAs[uint32](l, r, eps), nil
	case primitive.KindUint64:
		return absAs[uint64](l, r, eps), nil
	case primitive.KindFloat32:
		return absAs[float32](l, r, eps), nil
	case primitive.KindFloat64:
		return absAs[float64](l, r, eps), nil
	default:
		return false, fmt.Errorf("%w: %s", ErrNotNumeric, k)
	}
}

func relativeEq(k primitive.KindEnum, l, r, eps, maxRel reflect.Value) (bool, error) {
	switch k {
	case primitive.KindFloat32:
		return relAs[float32](l, r, eps, maxRel), nil
	case primitive.KindFloat64:
		return relAs[float64](l, r, eps, maxRel), nil
	default:
		return false, fmt.Errorf("%w: relative comparison of %s", ErrNotFloat, k)
	}
}

func defaultAs[T approx.Number](kind expr.ParamKind) reflect.Value {
	if kind == expr.MaxRelative {
		return reflect.ValueOf(approx.DefaultMaxRelative[T]())
	}

	return reflect.ValueOf(approx.DefaultEpsilon[T]())
}

// defaultFor returns the runtime default of a numeric kind.
func defaultFor(k primitive.KindEnum, kind expr.ParamKind) (reflect.Value, error) {
	switch k {
	case primitive.KindInt:
		return defaultAs[int](kind), nil
	case primitive.KindInt8:
		return defaultAs[int8](kind), nil
	case primitive.KindInt16:
		return defaultAs[int16](kind), nil
	case primitive.KindInt32:
		return defaultAs[int32](kind), nil
	case primitive.KindInt64:
		return defaultAs[int64](kind), nil
	case primitive.KindUint:
		return defaultAs[uint](kind), nil
	case primitive.KindUint8:
		return defaultAs[uint8](kind), nil
	case primitive.KindUint16:
		return defaultAs[uint16](kind), nil
	case primitive.KindUint32:
		return defaultAs[uint32](kind), nil
	case primitive.KindUint64:
		return defaultAs[uint64](kind), nil
	case primitive.KindFloat32:
		return defaultAs[float32](kind), nil
	case primitive.KindFloat64:
		return defaultAs[float64](kind), nil
	default:
		return reflect.Value{}, fmt.Errorf("%w: %s", ErrNotNumeric, k)
	}
}

// deref follows pointers to the value they point to.
func deref(v reflect.Value) reflect.Value {
	for v.IsValid() && v.Kind() == reflect.Pointer && !v.IsNil() {
		v = v.Elem()
	}

	return v
}
