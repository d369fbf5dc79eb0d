package analyze

import (
	"go/types"

	"approxeq-generator/internal/descriptor"
	"approxeq-generator/primitive"
)

// classifier turns go/types types into descriptor references spelled as
// they are written inside pkg.
type classifier struct {
	pkg *types.Package
}

func (c *classifier) qualifier(p *types.Package) string {
	if p == c.pkg {
		return ""
	}

	return p.Name()
}

// ref classifies t by how the generated comparison reaches it.
func (c *classifier) ref(t types.Type) descriptor.TypeRef {
	expr := types.TypeString(t, c.qualifier)

	switch tt := types.Unalias(t).(type) {
	case *types.TypeParam:
		return descriptor.Param(tt.Obj().Name())

	case *types.Basic:
		if k := primitive.FromGoType(tt); k.IsValid() {
			return descriptor.Prim(k)
		}

	case *types.Slice:
		elem := c.ref(tt.Elem())
		return descriptor.TypeRef{Expr: expr, Class: descriptor.ClassSlice, Elem: &elem}

	case *types.Array:
		elem := c.ref(tt.Elem())
		return descriptor.TypeRef{Expr: expr, Class: descriptor.ClassArray, Elem: &elem}

	case *types.Named:
		return c.named(tt, expr)
	}

	return descriptor.TypeRef{Expr: expr, Class: descriptor.ClassOther}
}

func (c *classifier) named(named *types.Named, expr string) descriptor.TypeRef {
	ref := descriptor.TypeRef{Expr: expr, Class: descriptor.ClassOther}

	switch u := named.Underlying().(type) {
	case *types.Basic:
		if k := primitive.FromGoType(u); k.IsValid() {
			ref.Class = descriptor.ClassPrimitive
			ref.Prim = k
		}

	case *types.Slice:
		elem := c.ref(u.Elem())
		ref.Class = descriptor.ClassSlice
		ref.Elem = &elem

	case *types.Array:
		elem := c.ref(u.Elem())
		ref.Class = descriptor.ClassArray
		ref.Elem = &elem

	case *types.Struct:
		ref.Class = descriptor.ClassRecord
		ref.Epsilon = c.methodEpsilon(named)

	case *types.Interface:
		if u.NumMethods() > 0 {
			ref.Class = descriptor.ClassUnion
			ref.Epsilon = c.funcEpsilon(named)
		}
	}

	return ref
}

// methodEpsilon reads the tolerance type of a record that already has a
// DefaultEpsilon method, generated earlier or written by hand.
func (c *classifier) methodEpsilon(named *types.Named) *descriptor.TypeRef {
	obj, _, _ := types.LookupFieldOrMethod(named, false, named.Obj().Pkg(), "DefaultEpsilon")

	fn, ok := obj.(*types.Func)
	if !ok {
		return nil
	}

	return c.result(fn)
}

// funcEpsilon is methodEpsilon for unions, whose defaults are package functions.
func (c *classifier) funcEpsilon(named *types.Named) *descriptor.TypeRef {
	pkg := named.Obj().Pkg()
	if pkg == nil || named.TypeArgs().Len() > 0 {
		return nil
	}

	fn, ok := pkg.Scope().Lookup(named.Obj().Name() + "DefaultEpsilon").(*types.Func)
	if !ok {
		return nil
	}

	return c.result(fn)
}

func (c *classifier) result(fn *types.Func) *descriptor.TypeRef {
	sig, ok := fn.Type().(*types.Signature)
	if !ok || sig.Results().Len() != 1 || sig.TypeParams().Len() > 0 {
		return nil
	}

	ref := c.ref(sig.Results().At(0).Type())

	return &ref
}
