package analyze

import (
	"strings"
)

// TypePath builds a readable path string for a field.
// Examples:
//   - "Rectangle" for a type
//   - "Rectangle.Origin" for a field
//   - "Location.Smooth.X" for a field of a union variant
//   - "Series.Samples[]" for the elements of a sequence field
type TypePath struct {
	parts []string
}

// NewTypePath creates a new TypePath from a root type name.
func NewTypePath(root string) *TypePath {
	return &TypePath{
		parts: []string{root},
	}
}

// Field appends a field name to the path.
func (p *TypePath) Field(name string) *TypePath {
	return &TypePath{
		parts: append(append([]string{}, p.parts...), name),
	}
}

// Slice appends a slice indicator "[]" to the path.
func (p *TypePath) Slice() *TypePath {
	if len(p.parts) == 0 {
		return &TypePath{parts: []string{"[]"}}
	}

	newParts := make([]string, len(p.parts))
	copy(newParts, p.parts)
	newParts[len(newParts)-1] += "[]"

	return &TypePath{parts: newParts}
}

// Tail returns the path without its root.
func (p *TypePath) Tail() string {
	if len(p.parts) < 2 {
		return ""
	}

	return strings.Join(p.parts[1:], ".")
}

// String returns the full path string.
func (p *TypePath) String() string {
	return strings.Join(p.parts, ".")
}
