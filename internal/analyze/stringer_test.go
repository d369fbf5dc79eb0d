package analyze

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypePath(t *testing.T) {
	// Simple path
	p1 := NewTypePath("Location")
	assert.Equal(t, "Location", p1.String())
	assert.Empty(t, p1.Tail())

	// Variant field path
	p2 := p1.Field("Smooth").Field("X")
	assert.Equal(t, "Location.Smooth.X", p2.String())
	assert.Equal(t, "Smooth.X", p2.Tail())

	// Slice path
	p3 := NewTypePath("Series").Field("Samples").Slice()
	assert.Equal(t, "Series.Samples[]", p3.String())

	// Paths are immutable
	assert.Equal(t, "Location", p1.String())
}
