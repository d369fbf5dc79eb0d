package descriptor

import (
	"strconv"
	"strings"

	"approxeq-generator/internal/common"
	"approxeq-generator/primitive"
)

// Kind distinguishes records from unions.
type Kind int

const (
	KindRecord Kind = iota // struct type
	KindUnion              // sealed interface with variant types
)

// String returns a human-readable representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindRecord:
		return "record"
	case KindUnion:
		return "union"
	default:
		return common.UnknownStr
	}
}

// TypeClass classifies a TypeRef by how the tolerance interface reaches it.
type TypeClass int

const (
	ClassOther     TypeClass = iota // anything the comparison can only reach through equality
	ClassPrimitive                  // numeric kind, possibly named (type Meters float64)
	ClassRecord                     // struct with generated comparison methods
	ClassUnion                      // sealed interface with generated comparison functions
	ClassParam                      // generic type parameter
	ClassSlice                      // slice, compared element-wise with into_iter
	ClassArray                      // array, compared element-wise with into_iter
)

// String returns a human-readable representation of the TypeClass.
func (c TypeClass) String() string {
	switch c {
	case ClassOther:
		return "other"
	case ClassPrimitive:
		return "primitive"
	case ClassRecord:
		return "record"
	case ClassUnion:
		return "union"
	case ClassParam:
		return "param"
	case ClassSlice:
		return "slice"
	case ClassArray:
		return "array"
	default:
		return common.UnknownStr
	}
}

// TypeRef is a reference to a Go type as it is spelled in the package that
// receives the generated code.
type TypeRef struct {
	Expr    string             // Go type expression, e.g. "float64", "geo.Point", "T", "[]float32"
	Class   TypeClass          // How the type is compared
	Prim    primitive.KindEnum // Numeric kind for ClassPrimitive
	Elem    *TypeRef           // Element type for ClassSlice and ClassArray
	Epsilon *TypeRef           // Tolerance type of a ClassRecord or ClassUnion, when known
}

// Float64 is the fallback tolerance type.
func Float64() TypeRef {
	return Prim(primitive.KindFloat64)
}

// Prim returns a reference to a predeclared numeric type.
func Prim(k primitive.KindEnum) TypeRef {
	return TypeRef{Expr: k.GoName(), Class: ClassPrimitive, Prim: k}
}

// Param returns a reference to a generic type parameter.
func Param(name string) TypeRef {
	return TypeRef{Expr: name, Class: ClassParam}
}

// SliceOf returns a reference to []elem.
func SliceOf(elem TypeRef) TypeRef {
	return TypeRef{Expr: "[]" + elem.Expr, Class: ClassSlice, Elem: &elem}
}

// ArrayOf returns a reference to [n]elem.
func ArrayOf(n int, elem TypeRef) TypeRef {
	return TypeRef{Expr: "[" + strconv.Itoa(n) + "]" + elem.Expr, Class: ClassArray, Elem: &elem}
}

// String returns the Go type expression.
func (t TypeRef) String() string {
	return t.Expr
}

// IsZero reports whether the reference is unset.
func (t TypeRef) IsZero() bool {
	return t.Expr == ""
}

// Same reports nominal identity of two references.
func (t TypeRef) Same(other TypeRef) bool {
	return t.Class == other.Class && t.Expr == other.Expr
}

// EpsilonType returns the tolerance type a value of this type is compared
// with: numeric kinds and type parameters are their own tolerance type, records
// and unions use their resolved tolerance type, sequences use their element's.
func (t TypeRef) EpsilonType() TypeRef {
	switch t.Class {
	case ClassRecord, ClassUnion:
		if t.Epsilon != nil {
			return *t.Epsilon
		}
	case ClassSlice, ClassArray:
		if t.Elem != nil {
			return t.Elem.EpsilonType()
		}
	}

	return t
}

// FieldName identifies a field by identifier, or by position when Ident is empty.
type FieldName struct {
	Ident string
	Index int
}

// IsPositional reports whether the field has no identifier.
func (n FieldName) IsPositional() bool {
	return n.Ident == ""
}

// String returns the identifier or the positional index.
func (n FieldName) String() string {
	if n.IsPositional() {
		return strconv.Itoa(n.Index)
	}

	return n.Ident
}

// Field describes one field of a record or variant.
type Field struct {
	Name       FieldName
	Type       TypeRef
	Directives Directives
}

// Shape classifies how a variant carries its fields.
type Shape int

const (
	ShapeUnknown    Shape = iota // cannot be compared
	ShapeNamed                   // struct with named fields
	ShapePositional              // non-struct named type; its value is slot 0
	ShapeUnit                    // struct{}
)

// String returns a human-readable representation of the Shape.
func (s Shape) String() string {
	switch s {
	case ShapeNamed:
		return "named"
	case ShapePositional:
		return "positional"
	case ShapeUnit:
		return "unit"
	default:
		return common.UnknownStr
	}
}

// Variant describes one alternative of a union.
type Variant struct {
	Name     string  // Variant type name, e.g. "Circle"
	TypeExpr string  // Type used in the type switch, e.g. "Circle" or "*Circle"
	Shape    Shape   // How fields are carried
	Fields   []Field // Directives already merged with the variant-level defaults
}

// GenericParam is a type parameter of the described type.
type GenericParam struct {
	Name       string // e.g. "T"
	Constraint string // e.g. "any", "approx.Float"
}

// TypeDirectives are the type-level directives.
type TypeDirectives struct {
	EpsilonType        *TypeRef
	DefaultEpsilon     *Expr
	DefaultMaxRelative *Expr
}

// Descriptor is the immutable input of the synthesis pipeline.
type Descriptor struct {
	Name       string         // Type name, e.g. "Position"
	PkgPath    string         // Import path of the package declaring the type
	PkgName    string         // Package name used for the generated file
	Kind       Kind           // Record or union
	Fields     []Field        // Record fields in declaration order
	Variants   []Variant      // Union variants in declaration order
	Params     []GenericParam // Type parameters in declaration order
	Directives TypeDirectives // Type-level directives
	Relative   bool           // Whether the relative procedure is requested
	Imports    []Import       // Packages imported by the declaring package, sorted by path
}

// Import is a package visible to user expressions in the declaring package.
type Import struct {
	Name string // Package name, e.g. "yaml"
	Path string // Import path, e.g. "gopkg.in/yaml.v3"
}

// IsGeneric reports whether the type declares type parameters.
func (d *Descriptor) IsGeneric() bool {
	return len(d.Params) > 0
}

// InstanceExpr returns the type spelled with its own parameters, e.g. "Pair[T]".
func (d *Descriptor) InstanceExpr() string {
	if !d.IsGeneric() {
		return d.Name
	}

	names := make([]string, len(d.Params))
	for i, p := range d.Params {
		names[i] = p.Name
	}

	return d.Name + "[" + strings.Join(names, ", ") + "]"
}

// AllFields returns the fields in declaration order, flattened across variants for unions.
func (d *Descriptor) AllFields() []Field {
	if d.Kind == KindRecord {
		return d.Fields
	}

	var all []Field
	for _, v := range d.Variants {
		all = append(all, v.Fields...)
	}

	return all
}

// Ref returns a TypeRef to the described type itself. tol is its resolved tolerance type.
func (d *Descriptor) Ref(tol TypeRef) TypeRef {
	class := ClassRecord
	if d.Kind == KindUnion {
		class = ClassUnion
	}

	return TypeRef{Expr: d.InstanceExpr(), Class: class, Epsilon: &tol}
}
