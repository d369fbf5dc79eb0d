package plan

import (
	"approxeq-generator/internal/descriptor"
	"approxeq-generator/primitive"
)

var (
	f32 = descriptor.Prim(primitive.KindFloat32)
	f64 = descriptor.Float64()
	i64 = descriptor.Prim(primitive.KindInt64)
	u8  = descriptor.Prim(primitive.KindUint8)
)

func field(name string, t descriptor.TypeRef, dirs ...descriptor.Directives) descriptor.Field {
	f := descriptor.Field{Name: descriptor.FieldName{Ident: name}, Type: t}
	if len(dirs) > 0 {
		f.Directives = dirs[0]
	}

	return f
}

func slot(index int, t descriptor.TypeRef, dirs ...descriptor.Directives) descriptor.Field {
	f := field("", t, dirs...)
	f.Name = descriptor.FieldName{Index: index}

	return f
}

func record(name string, fields ...descriptor.Field) *descriptor.Descriptor {
	return &descriptor.Descriptor{Name: name, Kind: descriptor.KindRecord, Fields: fields}
}

func recordRef(name string) descriptor.TypeRef {
	return descriptor.TypeRef{Expr: name, Class: descriptor.ClassRecord}
}

func skip() descriptor.Directives {
	return descriptor.Directives{Skip: descriptor.Ptr(true)}
}

func src(s string) *descriptor.Expr {
	return descriptor.Ptr(descriptor.Expr(s))
}

// location is a union with named, unit and positional variants.
func location() *descriptor.Descriptor {
	return &descriptor.Descriptor{
		Name: "Location",
		Kind: descriptor.KindUnion,
		Variants: []descriptor.Variant{
			{
				Name: "Smooth", TypeExpr: "Smooth", Shape: descriptor.ShapeNamed,
				Fields: []descriptor.Field{field("X", f64), field("Y", f64)},
			},
			{Name: "Origin", TypeExpr: "Origin", Shape: descriptor.ShapeUnit},
			{
				Name: "Lattice", TypeExpr: "Lattice", Shape: descriptor.ShapePositional,
				Fields: []descriptor.Field{
					slot(0, descriptor.Prim(primitive.KindInt), descriptor.Directives{Cast: descriptor.Ptr(descriptor.CastValue)}),
				},
			},
		},
	}
}
