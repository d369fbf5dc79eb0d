// Package directive parses the approx directives attached to Go declarations.
//
// Field directives live in the struct tag under the "approx" key:
//
//	X float32 `approx:"cast_field;static_epsilon=5e-2"`
//
// Type directives live in comment lines of the type declaration:
//
//	//approx:derive=relative
//	//approx:epsilon_type=float64
//	//approx:default_epsilon=1e-6
//
// Field directives in a declaration comment apply to every field of the type
// unless the field sets them itself. This is how union variants carry their
// variant-level defaults.
package directive

import (
	"reflect"
	"strings"

	"github.com/hashicorp/go-set/v3"

	"approxeq-generator/internal/descriptor"
)

// TagKey is the struct tag key holding field directives.
const TagKey = "approx"

// CommentPrefix starts a directive comment line.
const CommentPrefix = "//approx:"

// Field directive keywords.
const (
	KeySkip              = "skip"
	KeyEqual             = "equal"
	KeyCastField         = "cast_field"
	KeyCastValue         = "cast_value"
	KeyIntoIter          = "into_iter"
	KeyStaticEpsilon     = "static_epsilon"
	KeyStaticMaxRelative = "static_max_relative"
	KeyMap               = "map"
	KeyEpsilonMap        = "epsilon_map"
	KeyMaxRelativeMap    = "max_relative_map"
)

// Type directive keywords.
const (
	KeyDerive             = "derive"
	KeyEpsilonType        = "epsilon_type"
	KeyDefaultEpsilon     = "default_epsilon"
	KeyDefaultMaxRelative = "default_max_relative"
)

// DeriveRelative is the derive value that also requests the relative procedure.
const DeriveRelative = "relative"

var (
	flagKeys = set.From([]string{KeySkip, KeyEqual, KeyCastField, KeyCastValue, KeyIntoIter})

	fieldValueKeys = set.From([]string{
		KeyStaticEpsilon, KeyStaticMaxRelative, KeyMap, KeyEpsilonMap, KeyMaxRelativeMap,
	})

	typeValueKeys = set.From([]string{KeyEpsilonType, KeyDefaultEpsilon, KeyDefaultMaxRelative})
)

// IsFieldKeyword reports whether key is a field directive keyword.
func IsFieldKeyword(key string) bool {
	return flagKeys.Contains(key) || fieldValueKeys.Contains(key)
}

// IsTypeKeyword reports whether key is a type directive keyword.
func IsTypeKeyword(key string) bool {
	return key == KeyDerive || typeValueKeys.Contains(key)
}

// Entry is one parsed keyword with its optional value.
type Entry struct {
	Key      string
	Value    string
	HasValue bool
	Text     string // entry as written, for error reporting
}

// Block is the content of the directive comment lines of a type declaration.
type Block struct {
	Derive      bool
	Relative    bool
	EpsilonType string // type expression, resolved by the loader
	Type        descriptor.TypeDirectives
	Defaults    descriptor.Directives // field defaults
}

// IsZero reports whether the block carries no directive.
func (b Block) IsZero() bool {
	return !b.Derive && b.EpsilonType == "" &&
		b.Type.DefaultEpsilon == nil && b.Type.DefaultMaxRelative == nil &&
		b.Defaults.IsZero()
}

// ParseTag parses the approx entry of a struct tag. A missing entry yields
// no directives.
func ParseTag(tag string) (descriptor.Directives, error) {
	text, ok := reflect.StructTag(tag).Lookup(TagKey)
	if !ok {
		return descriptor.Directives{}, nil
	}

	return ParseField(text)
}

// ParseField parses a ';' separated list of field directives.
func ParseField(text string) (descriptor.Directives, error) {
	entries, err := Split(text)
	if err != nil {
		return descriptor.Directives{}, err
	}

	var d descriptor.Directives

	seen := set.New[string](len(entries))

	for _, e := range entries {
		if !IsFieldKeyword(e.Key) {
			return descriptor.Directives{}, errorf(e, descriptor.ErrUnknownDirective)
		}

		if err := checkEntry(e, seen); err != nil {
			return descriptor.Directives{}, err
		}

		applyField(&d, e)
	}

	if seen.Contains(KeyCastField) && seen.Contains(KeyCastValue) {
		return descriptor.Directives{}, &descriptor.Error{
			Directive: KeyCastField + ";" + KeyCastValue,
			Err:       errConflictingCast,
		}
	}

	return d, nil
}

// ParseComments parses the directive lines among the given comment lines.
// Lines without the directive prefix are ignored.
func ParseComments(lines []string) (Block, error) {
	var (
		b     Block
		field []string
	)

	seen := set.New[string](len(lines))

	for _, line := range lines {
		text, ok := strings.CutPrefix(strings.TrimSpace(line), CommentPrefix)
		if !ok {
			continue
		}

		entries, err := Split(text)
		if err != nil {
			return Block{}, err
		}

		for _, e := range entries {
			if IsFieldKeyword(e.Key) {
				field = append(field, e.Text)
				continue
			}

			if !IsTypeKeyword(e.Key) {
				return Block{}, errorf(e, descriptor.ErrUnknownDirective)
			}

			if err := checkTypeEntry(e, seen); err != nil {
				return Block{}, err
			}

			applyType(&b, e)
		}
	}

	if len(field) > 0 {
		defaults, err := ParseField(strings.Join(field, ";"))
		if err != nil {
			return Block{}, err
		}

		b.Defaults = defaults
	}

	return b, nil
}

func applyField(d *descriptor.Directives, e Entry) {
	value := descriptor.Expr(e.Value)

	switch e.Key {
	case KeySkip:
		d.Skip = descriptor.Ptr(true)
	case KeyEqual:
		d.Equal = descriptor.Ptr(true)
	case KeyIntoIter:
		d.Iterate = descriptor.Ptr(true)
	case KeyCastField:
		d.Cast = descriptor.Ptr(descriptor.CastField)
	case KeyCastValue:
		d.Cast = descriptor.Ptr(descriptor.CastValue)
	case KeyStaticEpsilon:
		d.StaticEpsilon = &value
	case KeyStaticMaxRelative:
		d.StaticMaxRelative = &value
	case KeyMap:
		d.ValueMap = &value
	case KeyEpsilonMap:
		d.EpsilonMap = &value
	case KeyMaxRelativeMap:
		d.MaxRelativeMap = &value
	}
}

func applyType(b *Block, e Entry) {
	value := descriptor.Expr(e.Value)

	switch e.Key {
	case KeyDerive:
		b.Derive = true
		b.Relative = e.Value == DeriveRelative
	case KeyEpsilonType:
		b.EpsilonType = e.Value
	case KeyDefaultEpsilon:
		b.Type.DefaultEpsilon = &value
	case KeyDefaultMaxRelative:
		b.Type.DefaultMaxRelative = &value
	}
}
