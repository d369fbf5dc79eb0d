package approx_test

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"approxeq-generator/approx"
)

type meters float64

func TestDefaultEpsilon(t *testing.T) {
	t.Parallel()

	assert.Equal(t, float32(1.1920929e-07), approx.DefaultEpsilon[float32]())
	assert.Equal(t, 2.220446049250313e-16, approx.DefaultEpsilon[float64]())
	assert.Equal(t, meters(2.220446049250313e-16), approx.DefaultEpsilon[meters]())
	assert.Equal(t, 0, approx.DefaultEpsilon[int]())
	assert.Equal(t, uint16(0), approx.DefaultMaxRelative[uint16]())
}

func TestAbsDiffEq(t *testing.T) {
	t.Parallel()

	assert.True(t, approx.AbsDiffEq(1.0, 1.0, 0))
	assert.True(t, approx.AbsDiffEq(1.01, 0.99, 0.021))
	assert.False(t, approx.AbsDiffEq(1.01, 0.99, 0.01))
	assert.True(t, approx.AbsDiffEq[uint64](239, 248, 10))
	assert.False(t, approx.AbsDiffEq[uint64](248, 239, 5))
	assert.False(t, approx.AbsDiffEq(math.NaN(), math.NaN(), math.Inf(1)))
}

func TestAbsDiffEq_Overflow(t *testing.T) {
	t.Parallel()

	assert.False(t, approx.AbsDiffEq[int8](math.MaxInt8, math.MinInt8, 0))
	assert.False(t, approx.AbsDiffEq[int8](math.MinInt8, math.MaxInt8, math.MaxInt8))
	assert.True(t, approx.AbsDiffEq[int8](math.MaxInt8, 0, math.MaxInt8))
	assert.False(t, approx.AbsDiffEq[int64](math.MaxInt64, math.MinInt64, math.MaxInt64))
	assert.False(t, approx.AbsDiffEq[int64](math.MinInt64, 1, 0))
	assert.True(t, approx.AbsDiffEq[int64](math.MinInt64, math.MinInt64, 0))
	assert.True(t, approx.AbsDiffEq[uint8](math.MaxUint8, 0, math.MaxUint8))
}

func TestRelativeEq(t *testing.T) {
	t.Parallel()

	assert.True(t, approx.RelativeEq(math.Inf(1), math.Inf(1), 0, 0))
	assert.False(t, approx.RelativeEq(math.Inf(1), 1e300, 0, 1))
	assert.True(t, approx.RelativeEq[float32](3.502785781, 3.7023458, 0, 0.1))
	assert.False(t, approx.RelativeEq[float32](3.502785781, 3.7023458, 0, 0.05))
	assert.True(t, approx.RelativeEq(100.0, 100.5, 1, 0))
}

func TestPairwise(t *testing.T) {
	t.Parallel()

	eq := func(a, b float64) bool { return approx.AbsDiffEq(a, b, 0.1) }

	assert.True(t, approx.Pairwise([]float64{1, 2}, []float64{1.05, 2}, eq))
	assert.False(t, approx.Pairwise([]float64{1, 2}, []float64{1, 2, 3}, eq))
	assert.False(t, approx.Pairwise([]float64{1, 2}, []float64{2, 2}, eq))
	assert.True(t, approx.Pairwise[[]float64](nil, []float64{}, eq))
}

func ExampleAbsDiffEq() {
	fmt.Println(approx.AbsDiffEq(2.36, 2.38, 0.01))
	fmt.Println(approx.AbsDiffEq(2.36, 2.38, 0.021))
	// Output:
	// false
	// true
}
