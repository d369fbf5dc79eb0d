package config

import (
	"fmt"
	"slices"
	"strings"

	"approxeq-generator/internal/common"
	"approxeq-generator/internal/descriptor"
	"approxeq-generator/internal/directive"
)

// TypeResolver resolves epsilon_type expressions in the scope of a package.
type TypeResolver interface {
	ResolveType(pkgPath, expr string) (descriptor.TypeRef, error)
}

// Matches reports whether the override names the type pkgPath.name. The
// name may be bare, qualified by the package name, or by the full import path.
func (t *TypeOverride) Matches(pkgPath, name string) bool {
	qual, typeName, ok := cutLast(t.Type, ".")
	if !ok {
		return t.Type == name
	}

	if typeName != name {
		return false
	}

	return qual == pkgPath || qual == common.PkgAlias(pkgPath)
}

// Lookup returns the override of the type pkgPath.name, or nil.
func (f *File) Lookup(pkgPath, name string) *TypeOverride {
	if f == nil {
		return nil
	}

	for i := range f.Types {
		if f.Types[i].Matches(pkgPath, name) {
			return &f.Types[i]
		}
	}

	return nil
}

// DerivedTypes returns the names among candidates that an override marks
// with derive, in the order given.
func (f *File) DerivedTypes(pkgPath string, candidates []string) []string {
	var names []string

	for _, name := range candidates {
		if o := f.Lookup(pkgPath, name); o != nil && o.Derive != "" {
			names = append(names, name)
		}
	}

	return names
}

// Apply returns a copy of d with the pinned directives of its override
// applied. d is returned as-is when the file has no override for it.
func (f *File) Apply(d *descriptor.Descriptor, resolver TypeResolver) (*descriptor.Descriptor, error) {
	o := f.Lookup(d.PkgPath, d.Name)
	if o == nil {
		return d, nil
	}

	out := *d

	switch o.Derive {
	case DeriveRelative:
		out.Relative = true
	case DeriveAbsolute:
		out.Relative = false
	}

	pinned, err := o.typeDirectives(d, resolver)
	if err != nil {
		return nil, err
	}

	out.Directives = pinned.Merge(d.Directives)

	if d.Kind == descriptor.KindRecord {
		if len(o.Variants) > 0 {
			return nil, fmt.Errorf("type %s: variants given for a record", d.Name)
		}

		out.Fields, err = pinFields(d.Name, "", d.Fields, o.Fields, nil)
		if err != nil {
			return nil, err
		}

		return &out, nil
	}

	if len(o.Fields) > 0 {
		return nil, fmt.Errorf("type %s: fields given for a union, use variants", d.Name)
	}

	out.Variants = slices.Clone(d.Variants)

	for name, vo := range o.Variants {
		i := slices.IndexFunc(out.Variants, func(v descriptor.Variant) bool { return v.Name == name })
		if i < 0 {
			return nil, fmt.Errorf("type %s: unknown variant %s", d.Name, name)
		}

		defaults, err := parse(d.Name, name, "", vo.Defaults)
		if err != nil {
			return nil, err
		}

		v := &out.Variants[i]

		v.Fields, err = pinFields(d.Name, name, v.Fields, vo.Fields, &defaults)
		if err != nil {
			return nil, err
		}
	}

	return &out, nil
}

func (o *TypeOverride) typeDirectives(d *descriptor.Descriptor, resolver TypeResolver) (descriptor.TypeDirectives, error) {
	var td descriptor.TypeDirectives

	if o.EpsilonType != "" {
		ref, err := resolveEpsilonType(d, o.EpsilonType, resolver)
		if err != nil {
			return td, &descriptor.Error{
				Type:      d.Name,
				Directive: directive.KeyEpsilonType + "=" + o.EpsilonType,
				Err:       fmt.Errorf("%w: %w", descriptor.ErrMalformedDirective, err),
			}
		}

		td.EpsilonType = &ref
	}

	if o.DefaultEpsilon != "" {
		td.DefaultEpsilon = descriptor.Ptr(descriptor.Expr(o.DefaultEpsilon))
	}

	if o.DefaultMaxRelative != "" {
		td.DefaultMaxRelative = descriptor.Ptr(descriptor.Expr(o.DefaultMaxRelative))
	}

	return td, nil
}

func resolveEpsilonType(d *descriptor.Descriptor, text string, resolver TypeResolver) (descriptor.TypeRef, error) {
	for _, p := range d.Params {
		if p.Name == text {
			return descriptor.Param(text), nil
		}
	}

	if resolver == nil {
		return descriptor.TypeRef{}, fmt.Errorf("cannot resolve %s", text)
	}

	return resolver.ResolveType(d.PkgPath, text)
}

// pinFields applies pinned field directives over the source ones, then
// fills unset entries from defaults when given.
func pinFields(typeName, variant string, fields []descriptor.Field, pinned map[string]Directives, defaults *descriptor.Directives) ([]descriptor.Field, error) {
	out := slices.Clone(fields)

	for name := range pinned {
		if !slices.ContainsFunc(out, func(f descriptor.Field) bool { return f.Name.String() == name }) {
			return nil, fmt.Errorf("type %s: unknown field %s", path(typeName, variant), name)
		}
	}

	for i := range out {
		f := &out[i]
		name := f.Name.String()

		if text, ok := pinned[name]; ok {
			dirs, err := parse(typeName, variant, name, text)
			if err != nil {
				return nil, err
			}

			f.Directives = dirs.Merge(f.Directives)
		}

		if defaults != nil {
			f.Directives = f.Directives.Merge(*defaults)
		}
	}

	return out, nil
}

func parse(typeName, variant, field string, d Directives) (descriptor.Directives, error) {
	dirs, err := directive.ParseField(d.Text())
	if err != nil {
		return descriptor.Directives{}, directive.Locate(err, typeName, variant, field)
	}

	return dirs, nil
}

func path(parts ...string) string {
	return strings.Join(slices.DeleteFunc(parts, func(s string) bool { return s == "" }), ".")
}

func cutLast(s, sep string) (before, after string, found bool) {
	i := strings.LastIndex(s, sep)
	if i < 0 {
		return "", s, false
	}

	return s[:i], s[i+len(sep):], true
}
