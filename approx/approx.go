// Package approx is the runtime tolerance contract called by generated
// comparison code.
//
// Numeric kinds are compared here; records and unions get generated
// AbsDiffEq/RelativeEq methods or functions that call back into this package
// for their numeric leaves.
package approx

import (
	"math"
	"reflect"
)

// Integer is the set of integer kinds, including named integer types.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Float is the set of floating point kinds. It is the capability required for
// relative comparison.
type Float interface {
	~float32 | ~float64
}

// Number is the capability required for absolute comparison.
type Number interface {
	Integer | Float
}

var (
	float32Epsilon = math.Nextafter32(1, 2) - 1
	float64Epsilon = math.Nextafter(1, 2) - 1
)

// DefaultEpsilon returns the smallest meaningful difference of T: the machine
// epsilon for floating point kinds and zero for integers.
func DefaultEpsilon[T Number]() T {
	switch reflect.TypeFor[T]().Kind() {
	case reflect.Float32:
		return T(float32Epsilon)
	case reflect.Float64:
		return T(float64Epsilon)
	default:
		return 0
	}
}

// DefaultMaxRelative returns the default relative bound of T.
func DefaultMaxRelative[T Number]() T {
	return DefaultEpsilon[T]()
}

// AbsDiffEq reports whether |a-b| <= epsilon. NaN operands are never equal.
// A signed difference that overflows T is larger than any epsilon.
func AbsDiffEq[T Number](a, b, epsilon T) bool {
	var diff T
	if a > b {
		diff = a - b
	} else {
		diff = b - a
	}

	return diff >= 0 && diff <= epsilon
}

// RelativeEq reports whether a and b are equal within epsilon, or within
// maxRelative times the larger magnitude of the two.
func RelativeEq[T Float](a, b, epsilon, maxRelative T) bool {
	if a == b {
		return true
	}

	if math.IsInf(float64(a), 0) || math.IsInf(float64(b), 0) {
		return false
	}

	diff := abs(a - b)
	if diff <= epsilon {
		return true
	}

	largest := max(abs(a), abs(b))

	return diff <= largest*maxRelative
}

// Pairwise reports whether a and b have the same length and eq holds for
// every positional pair. It stops at the first failing pair.
func Pairwise[S ~[]E, E any](a, b S, eq func(E, E) bool) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if !eq(a[i], b[i]) {
			return false
		}
	}

	return true
}

func abs[T Float](v T) T {
	if v < 0 {
		return -v
	}

	return v
}
