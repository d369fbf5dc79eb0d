package directive

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-set/v3"

	"approxeq-generator/internal/descriptor"
)

var (
	errConflictingCast = fmt.Errorf("%w: cast_field and cast_value are exclusive", descriptor.ErrMalformedDirective)
	errDuplicate       = fmt.Errorf("%w: keyword repeated", descriptor.ErrMalformedDirective)
	errMissingValue    = fmt.Errorf("%w: keyword requires a value", descriptor.ErrMalformedDirective)
	errUnexpectedValue = fmt.Errorf("%w: keyword takes no value", descriptor.ErrMalformedDirective)
	errDeriveValue     = fmt.Errorf("%w: derive accepts only %q", descriptor.ErrMalformedDirective, DeriveRelative)
	errUnbalanced      = fmt.Errorf("%w: unbalanced brackets or quotes", descriptor.ErrMalformedDirective)
)

// Split cuts text into entries at top-level ';'. Separators inside brackets
// or quotes belong to the value, so values may be arbitrary Go expressions.
func Split(text string) ([]Entry, error) {
	var (
		entries []Entry
		depth   int
		quote   rune
		escaped bool
		start   int
	)

	flush := func(end int) {
		if e, ok := parseEntry(text[start:end]); ok {
			entries = append(entries, e)
		}

		start = end + 1
	}

	for i, r := range text {
		if quote != 0 {
			switch {
			case escaped:
				escaped = false
			case r == '\\' && quote != '`':
				escaped = true
			case r == quote:
				quote = 0
			}

			continue
		}

		switch r {
		case '"', '\'', '`':
			quote = r
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ';':
			if depth == 0 {
				flush(i)
			}
		}

		if depth < 0 {
			return nil, &descriptor.Error{Directive: strings.TrimSpace(text), Err: errUnbalanced}
		}
	}

	if depth != 0 || quote != 0 {
		return nil, &descriptor.Error{Directive: strings.TrimSpace(text), Err: errUnbalanced}
	}

	flush(len(text))

	return entries, nil
}

func parseEntry(raw string) (Entry, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Entry{}, false
	}

	key, value, hasValue := strings.Cut(raw, "=")

	return Entry{
		Key:      strings.TrimSpace(key),
		Value:    strings.TrimSpace(value),
		HasValue: hasValue,
		Text:     raw,
	}, true
}

// checkEntry validates the arity of a field entry and records it in seen.
func checkEntry(e Entry, seen *set.Set[string]) error {
	if !seen.Insert(e.Key) {
		return errorf(e, errDuplicate)
	}

	if flagKeys.Contains(e.Key) && e.HasValue {
		return errorf(e, errUnexpectedValue)
	}

	if fieldValueKeys.Contains(e.Key) && e.Value == "" {
		return errorf(e, errMissingValue)
	}

	return nil
}

// checkTypeEntry validates the arity of a type entry and records it in seen.
func checkTypeEntry(e Entry, seen *set.Set[string]) error {
	if !seen.Insert(e.Key) {
		return errorf(e, errDuplicate)
	}

	if e.Key == KeyDerive {
		if e.HasValue && e.Value != DeriveRelative {
			return errorf(e, errDeriveValue)
		}

		return nil
	}

	if e.Value == "" {
		return errorf(e, errMissingValue)
	}

	return nil
}

func errorf(e Entry, err error) error {
	return &descriptor.Error{Directive: e.Text, Err: err}
}

// Locate fills the declaration path of a descriptor error returned by the
// parsers. Other errors are returned unchanged.
func Locate(err error, typeName, variant, field string) error {
	var de *descriptor.Error
	if !errors.As(err, &de) {
		return err
	}

	located := *de
	located.Type = typeName
	located.Variant = variant
	located.Field = field

	return &located
}
