package eval

import (
	"fmt"
	"go/token"
	"go/types"
	"reflect"
	"strings"

	"approxeq-generator/internal/plan"
	"approxeq-generator/primitive"
)

// Registry resolves the names user expressions refer to and the outputs of
// nested records and unions.
type Registry struct {
	values  map[string]reflect.Value
	outputs map[string]*plan.Output
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		values:  make(map[string]reflect.Value),
		outputs: make(map[string]*plan.Output),
	}
}

// Register binds the expression text name to v, e.g. a map function.
func (r *Registry) Register(name string, v any) *Registry {
	r.values[name] = reflect.ValueOf(v)
	return r
}

// RegisterOutput makes outs available to comparisons of fields of their
// type, by type name.
func (r *Registry) RegisterOutput(outs ...*plan.Output) *Registry {
	for _, out := range outs {
		r.outputs[out.Descriptor.Name] = out
	}

	return r
}

// Output returns the registered output of the named type.
func (r *Registry) Output(name string) (*plan.Output, error) {
	out, ok := r.outputs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoOutput, name)
	}

	return out, nil
}

// resolve evaluates user expression text: a registered name, or a constant
// expression of predeclared identifiers.
func (r *Registry) resolve(text string) (reflect.Value, error) {
	text = strings.TrimSpace(text)

	if v, ok := r.values[text]; ok {
		return v, nil
	}

	tv, err := types.Eval(token.NewFileSet(), nil, token.NoPos, text)
	if err != nil || tv.Value == nil {
		return reflect.Value{}, fmt.Errorf("%w: %s", ErrUnresolved, text)
	}

	basic, ok := tv.Type.(*types.Basic)
	if !ok {
		return reflect.Value{}, fmt.Errorf("%w: %s", ErrUnresolved, text)
	}

	if basic.Info()&types.IsUntyped != 0 {
		return reflect.ValueOf(untyped{val: tv.Value}), nil
	}

	k := primitive.FromGoType(basic)
	if !k.IsValid() {
		return reflect.Value{}, fmt.Errorf("%w: %s is not numeric", ErrUnresolved, text)
	}

	return constantValue(tv.Value, k.ReflectType())
}
