package descriptor

import (
	"errors"
	"strings"
)

// Descriptor errors. They abort synthesis and are never folded into a comparison result.
var (
	ErrNoFields           = errors.New("record declares no fields")
	ErrUnknownShape       = errors.New("variant shape cannot be classified")
	ErrUnknownDirective   = errors.New("unrecognized directive keyword")
	ErrMalformedDirective = errors.New("malformed directive")
)

// Error locates a descriptor error in the offending type, field or variant and directive.
type Error struct {
	Type      string // Type name
	Variant   string // Variant name, if any
	Field     string // Field name, if any
	Directive string // Directive text, if any
	Err       error  // One of the sentinel errors above
}

// Error returns a formatted description, e.g. "Shape.Circle.R: approx:\"bogus\": unrecognized directive keyword".
func (e *Error) Error() string {
	var path []string
	for _, p := range []string{e.Type, e.Variant, e.Field} {
		if p != "" {
			path = append(path, p)
		}
	}

	var sb strings.Builder

	sb.WriteString(strings.Join(path, "."))

	if e.Directive != "" {
		if sb.Len() > 0 {
			sb.WriteString(": ")
		}

		sb.WriteString(`directive "` + e.Directive + `"`)
	}

	if sb.Len() > 0 {
		sb.WriteString(": ")
	}

	sb.WriteString(e.Err.Error())

	return sb.String()
}

// Unwrap returns the sentinel error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Validate checks the descriptor errors that synthesis cannot fall back from.
func (d *Descriptor) Validate() error {
	switch d.Kind {
	case KindRecord:
		if len(d.Fields) == 0 {
			return &Error{Type: d.Name, Err: ErrNoFields}
		}
	case KindUnion:
		for _, v := range d.Variants {
			if v.Shape == ShapeUnknown {
				return &Error{Type: d.Name, Variant: v.Name, Err: ErrUnknownShape}
			}
		}
	}

	return nil
}
