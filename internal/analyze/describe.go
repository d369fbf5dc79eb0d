package analyze

import (
	"fmt"
	"go/token"
	"go/types"

	"approxeq-generator/internal/descriptor"
	"approxeq-generator/internal/directive"
)

// builder turns the declarations of one package into descriptors.
type builder struct {
	fset  *token.FileSet
	pkg   *types.Package
	cls   *classifier
	infos []*TypeInfo // declaration order, candidates for union variants

	imports []descriptor.Import
}

// describe builds the descriptor of a struct or sealed interface type.
// Other types have no descriptor.
func (b *builder) describe(info *TypeInfo) (*descriptor.Descriptor, error) {
	if info.Obj.IsAlias() {
		return nil, nil
	}

	named, ok := info.Obj.Type().(*types.Named)
	if !ok {
		return nil, nil
	}

	d := &descriptor.Descriptor{
		Name:       info.Obj.Name(),
		PkgPath:    b.pkg.Path(),
		PkgName:    b.pkg.Name(),
		Directives: info.Block.Type,
		Relative:   info.Block.Relative,
		Params:     b.params(named),
		Imports:    b.imports,
	}

	var err error

	switch u := named.Underlying().(type) {
	case *types.Struct:
		d.Kind = descriptor.KindRecord

		d.Fields, err = b.fields(d.Name, "", u, info.Block.Defaults)
		if err != nil {
			return nil, err
		}

	case *types.Interface:
		if u.NumMethods() == 0 {
			return nil, nil
		}

		d.Kind = descriptor.KindUnion

		d.Variants, err = b.variants(d.Name, u)
		if err != nil {
			return nil, err
		}

	default:
		return nil, nil
	}

	if info.Block.EpsilonType != "" {
		ref, err := b.epsilonType(info, d.Params)
		if err != nil {
			return nil, err
		}

		d.Directives.EpsilonType = &ref
	}

	if err := d.Validate(); err != nil {
		return nil, err
	}

	return d, nil
}

func (b *builder) params(named *types.Named) []descriptor.GenericParam {
	tparams := named.TypeParams()
	if tparams.Len() == 0 {
		return nil
	}

	params := make([]descriptor.GenericParam, tparams.Len())
	for i := range tparams.Len() {
		tp := tparams.At(i)
		params[i] = descriptor.GenericParam{
			Name:       tp.Obj().Name(),
			Constraint: types.TypeString(tp.Constraint(), b.cls.qualifier),
		}
	}

	return params
}

// fields lists the struct fields in declaration order with their tag
// directives merged over the declaration defaults.
func (b *builder) fields(typeName, variant string, st *types.Struct, defaults descriptor.Directives) ([]descriptor.Field, error) {
	fields := make([]descriptor.Field, 0, st.NumFields())

	for i := range st.NumFields() {
		f := st.Field(i)
		if f.Name() == "_" {
			continue
		}

		dirs, err := directive.ParseTag(st.Tag(i))
		if err != nil {
			return nil, directive.Locate(err, typeName, variant, f.Name())
		}

		fields = append(fields, descriptor.Field{
			Name:       descriptor.FieldName{Ident: f.Name()},
			Type:       b.cls.ref(f.Type()),
			Directives: dirs.Merge(defaults),
		})
	}

	return fields, nil
}

// variants finds the named types of the package implementing iface, in
// declaration order. A type whose pointer implements iface is matched as a
// pointer.
func (b *builder) variants(union string, iface *types.Interface) ([]descriptor.Variant, error) {
	var variants []descriptor.Variant

	for _, info := range b.infos {
		if info.Obj.IsAlias() {
			continue
		}

		named, ok := info.Obj.Type().(*types.Named)
		if !ok || named.TypeParams().Len() > 0 || types.IsInterface(named) {
			continue
		}

		name := info.Obj.Name()

		var typeExpr string

		switch {
		case types.Implements(named, iface):
			typeExpr = name
		case types.Implements(types.NewPointer(named), iface):
			typeExpr = "*" + name
		default:
			continue
		}

		if info.blockErr != nil {
			return nil, directive.Locate(info.blockErr, union, name, "")
		}

		v := descriptor.Variant{Name: name, TypeExpr: typeExpr}

		switch u := named.Underlying().(type) {
		case *types.Struct:
			if u.NumFields() == 0 {
				v.Shape = descriptor.ShapeUnit
				break
			}

			fields, err := b.fields(union, name, u, info.Block.Defaults)
			if err != nil {
				return nil, err
			}

			v.Shape = descriptor.ShapeNamed
			v.Fields = fields

		case *types.Signature, *types.Chan, *types.Map:
			v.Shape = descriptor.ShapeUnknown

		default:
			v.Shape = descriptor.ShapePositional
			v.Fields = []descriptor.Field{{
				Name:       descriptor.FieldName{Index: 0},
				Type:       b.cls.ref(named),
				Directives: info.Block.Defaults,
			}}
		}

		variants = append(variants, v)
	}

	return variants, nil
}

// epsilonType resolves the epsilon_type directive in the scope of the declaration.
func (b *builder) epsilonType(info *TypeInfo, params []descriptor.GenericParam) (descriptor.TypeRef, error) {
	text := info.Block.EpsilonType

	for _, p := range params {
		if p.Name == text {
			return descriptor.Param(text), nil
		}
	}

	tv, err := types.Eval(b.fset, b.pkg, info.Obj.Pos(), text)
	if err == nil && !tv.IsType() {
		err = fmt.Errorf("%s is not a type", text)
	}

	if err != nil {
		return descriptor.TypeRef{}, &descriptor.Error{
			Type:      info.Obj.Name(),
			Directive: directive.KeyEpsilonType + "=" + text,
			Err:       fmt.Errorf("%w: %w", descriptor.ErrMalformedDirective, err),
		}
	}

	return b.cls.ref(tv.Type), nil
}
