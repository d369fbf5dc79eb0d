package config

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"approxeq-generator/internal/common"
)

// File is a YAML overrides file.
type File struct {
	// Version is the schema version, "1" when omitted.
	Version string `yaml:"version,omitempty"`
	// Types holds one entry per overridden type.
	Types []TypeOverride `yaml:"types"`
}

// Derive values of TypeOverride.Derive.
const (
	DeriveAbsolute = "absolute"
	DeriveRelative = "relative"
)

// TypeOverride pins the directives of one type. Pinned entries win over
// the tags and comment lines in source.
type TypeOverride struct {
	// Type is "Name", "pkg.Name" or "import/path.Name".
	Type string `yaml:"type"`
	// Derive selects the type for generation: "absolute" or "relative".
	Derive string `yaml:"derive,omitempty"`
	// EpsilonType is a type expression in the type's package.
	EpsilonType string `yaml:"epsilon_type,omitempty"`
	// DefaultEpsilon is a Go expression.
	DefaultEpsilon string `yaml:"default_epsilon,omitempty"`
	// DefaultMaxRelative is a Go expression.
	DefaultMaxRelative string `yaml:"default_max_relative,omitempty"`
	// Fields maps record field names to field directives.
	Fields map[string]Directives `yaml:"fields,omitempty"`
	// Variants maps union variant names to their overrides.
	Variants map[string]VariantOverride `yaml:"variants,omitempty"`
}

// VariantOverride pins the directives of one union variant.
type VariantOverride struct {
	// Defaults apply to every field of the variant that sets no directive of its own.
	Defaults Directives `yaml:"defaults,omitempty"`
	// Fields maps variant field names to field directives. A positional
	// variant's value is field "0".
	Fields map[string]Directives `yaml:"fields,omitempty"`
}

// Directives is a list of field directives in tag syntax. In YAML it is
// either one string ("cast_field;static_epsilon=0.1") or a list of strings.
type Directives []string

// UnmarshalYAML implements custom YAML unmarshaling for Directives.
// Accepts either a single string or an array of strings.
func (d *Directives) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var str string

		err := node.Decode(&str)
		if err != nil {
			return err
		}

		if str != "" {
			*d = Directives{str}
		} else {
			*d = Directives{}
		}

		return nil

	case yaml.SequenceNode:
		var arr []string

		err := node.Decode(&arr)
		if err != nil {
			return err
		}

		*d = arr

		return nil

	default:
		return fmt.Errorf("line %d: expected string or array, got %v", node.Line, node.Kind)
	}
}

// MarshalYAML implements custom YAML marshaling for Directives.
// Outputs a single string if length is 1, otherwise an array.
func (d Directives) MarshalYAML() (any, error) {
	if common.IsSingle(d) {
		return d[0], nil
	}

	return []string(d), nil
}

// Text joins the entries in tag syntax.
func (d Directives) Text() string {
	return strings.Join(d, ";")
}

// IsEmpty returns true if no directive is listed.
func (d Directives) IsEmpty() bool {
	return common.IsEmpty(d)
}
