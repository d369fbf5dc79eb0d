package eval

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"approxeq-generator/internal/descriptor"
	"approxeq-generator/internal/expr"
	"approxeq-generator/internal/plan"
	"approxeq-generator/primitive"
)

// Evaluation errors. A comparison that merely fails is false, not an error.
var (
	ErrUnresolved = errors.New("unresolved expression")
	ErrNoOutput   = errors.New("no registered output")
	ErrNotNumeric = errors.New("not a numeric type")
	ErrNotFloat   = errors.New("not a floating point type")
	ErrBadMap     = errors.New("map function must return (T, bool)")
)

// Evaluator interprets synthesized procedures against runtime values.
type Evaluator struct {
	reg *Registry
}

// New creates an Evaluator resolving names through reg.
func New(reg *Registry) *Evaluator {
	if reg == nil {
		reg = NewRegistry()
	}

	return &Evaluator{reg: reg}
}

// frame is the evaluation scope of one procedure.
type frame struct {
	left, right    reflect.Value // record or variant operands
	boundL, boundR reflect.Value // mapped results or sequence elements
	eps, maxRel    reflect.Value
	params         map[string]reflect.Type
}

// AbsDiffEq evaluates the absolute procedure of out on a and b. A nil
// epsilon uses the type's default.
func (e *Evaluator) AbsDiffEq(out *plan.Output, a, b, epsilon any) (bool, error) {
	return e.compare(out, expr.Absolute, reflect.ValueOf(a), reflect.ValueOf(b), reflect.ValueOf(epsilon), reflect.Value{})
}

// RelativeEq evaluates the relative procedure of out on a and b. Nil
// tolerances use the type's defaults.
func (e *Evaluator) RelativeEq(out *plan.Output, a, b, epsilon, maxRelative any) (bool, error) {
	return e.compare(out, expr.Relative, reflect.ValueOf(a), reflect.ValueOf(b), reflect.ValueOf(epsilon), reflect.ValueOf(maxRelative))
}

// DefaultEpsilon evaluates the default epsilon of a non-generic type.
func (e *Evaluator) DefaultEpsilon(out *plan.Output) (any, error) {
	return e.publicDefault(out, expr.Epsilon)
}

// DefaultMaxRelative evaluates the default max-relative value of a non-generic type.
func (e *Evaluator) DefaultMaxRelative(out *plan.Output) (any, error) {
	return e.publicDefault(out, expr.MaxRelative)
}

func (e *Evaluator) publicDefault(out *plan.Output, kind expr.ParamKind) (any, error) {
	v, err := e.defaultValue(out, kind, nil)
	if err != nil {
		return nil, err
	}

	if isUntyped(v) {
		c := untypedOf(v)

		v, err = constantValue(c, defaultType(c))
		if err != nil {
			return nil, err
		}
	}

	return v.Interface(), nil
}

func (e *Evaluator) compare(out *plan.Output, c expr.Comparison, a, b, eps, maxRel reflect.Value) (bool, error) {
	if out.Descriptor.Kind == descriptor.KindRecord {
		a, b = deref(a), deref(b)
	} else {
		a, b = dynamic(a), dynamic(b)
	}

	params := bindParams(out.Descriptor, a)

	var err error

	if !eps.IsValid() {
		if eps, err = e.defaultValue(out, expr.Epsilon, params); err != nil {
			return false, err
		}
	}

	if c == expr.Relative && !maxRel.IsValid() {
		if maxRel, err = e.defaultValue(out, expr.MaxRelative, params); err != nil {
			return false, err
		}
	}

	f := &frame{left: a, right: b, eps: eps, maxRel: maxRel, params: params}

	v, err := e.eval(out.Procedure(c).Body, f)
	if err != nil {
		return false, fmt.Errorf("%s: %w", out.Descriptor.Name, err)
	}

	return v.Bool(), nil
}

// bindParams binds the type parameters of d to the runtime types of the
// fields declared with them.
func bindParams(d *descriptor.Descriptor, v reflect.Value) map[string]reflect.Type {
	if !d.IsGeneric() || !v.IsValid() || v.Kind() != reflect.Struct {
		return nil
	}

	params := make(map[string]reflect.Type, len(d.Params))

	for _, f := range d.Fields {
		if f.Type.Class != descriptor.ClassParam || f.Name.IsPositional() {
			continue
		}

		if fv := v.FieldByName(f.Name.Ident); fv.IsValid() {
			params[f.Type.Expr] = fv.Type()
		}
	}

	for _, f := range d.Fields {
		seq := f.Type.Class == descriptor.ClassSlice || f.Type.Class == descriptor.ClassArray
		if !seq || f.Type.Elem == nil || f.Type.Elem.Class != descriptor.ClassParam || f.Name.IsPositional() {
			continue
		}

		if _, ok := params[f.Type.Elem.Expr]; ok {
			continue
		}

		if fv := v.FieldByName(f.Name.Ident); fv.IsValid() {
			params[f.Type.Elem.Expr] = fv.Type().Elem()
		}
	}

	return params
}

// dynamic unwraps an interface value to the value it holds. A nil
// interface is invalid.
func dynamic(v reflect.Value) reflect.Value {
	if v.IsValid() && v.Kind() == reflect.Interface {
		return v.Elem()
	}

	return v
}

// paramsFromArgs binds the type parameters of d to the type arguments
// spelled in an instantiated type expression.
func paramsFromArgs(d *descriptor.Descriptor, typeExpr string) map[string]reflect.Type {
	i := strings.IndexByte(typeExpr, '[')
	if !d.IsGeneric() || i < 0 {
		return nil
	}

	args := strings.Split(strings.TrimSuffix(typeExpr[i+1:], "]"), ",")
	params := make(map[string]reflect.Type, len(args))

	for k, arg := range args {
		if k >= len(d.Params) {
			break
		}

		if kind := primitive.FromName(strings.TrimSpace(arg)); kind.IsValid() {
			params[d.Params[k].Name] = kind.ReflectType()
		}
	}

	return params
}

func (e *Evaluator) defaultValue(out *plan.Output, kind expr.ParamKind, params map[string]reflect.Type) (reflect.Value, error) {
	src := out.Tolerance.DefaultEpsilon
	if kind == expr.MaxRelative {
		src = out.Tolerance.DefaultMaxRelative
	}

	f := &frame{params: params}

	v, err := e.eval(src, f)
	if err != nil {
		return reflect.Value{}, err
	}

	if isUntyped(v) {
		if t, err := typeOf(out.Tolerance.Type, f); err == nil {
			return constantValue(untypedOf(v), t)
		}
	}

	return v, nil
}

// typeOf returns the runtime type of a numeric type reference. Named
// numeric types map to their predeclared kind.
func typeOf(t descriptor.TypeRef, f *frame) (reflect.Type, error) {
	switch t.Class {
	case descriptor.ClassPrimitive:
		if rt := t.Prim.ReflectType(); rt != nil {
			return rt, nil
		}
	case descriptor.ClassParam:
		if rt, ok := f.params[t.Expr]; ok {
			return rt, nil
		}

		return nil, fmt.Errorf("type parameter %s is not bound", t.Expr)
	}

	return nil, fmt.Errorf("%w: %s", ErrNotNumeric, t.Expr)
}

// eval evaluates n in f. Truth-valued nodes yield a bool value.
func (e *Evaluator) eval(n expr.Expr, f *frame) (reflect.Value, error) {
	switch n := n.(type) {
	case expr.Bool:
		return reflect.ValueOf(n.Value), nil
	case expr.Slot:
		return slot(n, f)
	case expr.Bound:
		if n.Side == expr.Left {
			return f.boundL, nil
		}

		return f.boundR, nil
	case expr.Param:
		v := f.eps
		if n.Kind == expr.MaxRelative {
			v = f.maxRel
		}

		if !v.IsValid() {
			return reflect.Value{}, fmt.Errorf("%s is not bound", n.Kind)
		}

		return v, nil
	case expr.Source:
		return e.reg.resolve(string(n.Text))
	case expr.Convert:
		return e.convert(n, f)
	case expr.Apply:
		return e.apply(n, f)
	case expr.Equal:
		return e.equal(n, f)
	case expr.Tolerance:
		return e.tolerance(n, f)
	case expr.Mapped:
		return e.mapped(n, f)
	case expr.Pairwise:
		return e.pairwise(n, f)
	case expr.And:
		for _, t := range n.Terms {
			v, err := e.eval(t, f)
			if err != nil || !v.Bool() {
				return reflect.ValueOf(false), err
			}
		}

		return reflect.ValueOf(true), nil
	case expr.Switch:
		return e.dispatch(n, f)
	case expr.Default:
		return e.defaultOf(n.Type, n.Kind, f)
	default:
		return reflect.Value{}, fmt.Errorf("cannot evaluate %T", n)
	}
}

func slot(s expr.Slot, f *frame) (reflect.Value, error) {
	operand := f.left
	if s.Side == expr.Right {
		operand = f.right
	}

	operand = deref(operand)
	if !operand.IsValid() {
		return reflect.Value{}, fmt.Errorf("%s operand is nil", s.Side)
	}

	if s.Field.IsPositional() {
		return operand, nil
	}

	if operand.Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("%s operand %s has no field %s", s.Side, operand.Type(), s.Field)
	}

	v := operand.FieldByName(s.Field.Ident)
	if !v.IsValid() {
		return reflect.Value{}, fmt.Errorf("%s has no field %s", operand.Type(), s.Field)
	}

	return v, nil
}

func (e *Evaluator) convert(n expr.Convert, f *frame) (reflect.Value, error) {
	t, err := typeOf(n.Type, f)
	if err != nil {
		return reflect.Value{}, err
	}

	x, err := e.eval(n.X, f)
	if err != nil {
		return reflect.Value{}, err
	}

	return convert(x, t)
}

func (e *Evaluator) apply(n expr.Apply, f *frame) (reflect.Value, error) {
	fn, err := e.eval(n.Fn, f)
	if err != nil {
		return reflect.Value{}, err
	}

	args := make([]reflect.Value, len(n.Args))
	for i, a := range n.Args {
		if args[i], err = e.eval(a, f); err != nil {
			return reflect.Value{}, err
		}
	}

	res, err := call(fn, args)
	if err != nil {
		return reflect.Value{}, err
	}

	if len(res) != 1 {
		return reflect.Value{}, fmt.Errorf("%s returns %d values, want 1", fn.Type(), len(res))
	}

	return res[0], nil
}

// call calls fn, giving untyped constant arguments the parameter types.
func call(fn reflect.Value, args []reflect.Value) (res []reflect.Value, err error) {
	if !fn.IsValid() || fn.Kind() != reflect.Func {
		return nil, fmt.Errorf("%w: not a function", ErrUnresolved)
	}

	ft := fn.Type()
	if ft.IsVariadic() || ft.NumIn() != len(args) {
		return nil, fmt.Errorf("%s called with %d arguments", ft, len(args))
	}

	in := make([]reflect.Value, len(args))

	for i, a := range args {
		pt := ft.In(i)

		switch {
		case isUntyped(a):
			if in[i], err = constantValue(untypedOf(a), pt); err != nil {
				return nil, err
			}
		case a.Type().AssignableTo(pt):
			in[i] = a
		default:
			return nil, fmt.Errorf("cannot use %s as %s in call to %s", a.Type(), pt, ft)
		}
	}

	// reflect refuses to pass values read from unexported fields.
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("calling %s: %v", ft, p)
		}
	}()

	return fn.Call(in), nil
}

func (e *Evaluator) equal(n expr.Equal, f *frame) (reflect.Value, error) {
	l, err := e.eval(n.L, f)
	if err != nil {
		return reflect.Value{}, err
	}

	r, err := e.eval(n.R, f)
	if err != nil {
		return reflect.Value{}, err
	}

	if l.Type() != r.Type() || !l.Comparable() {
		return reflect.Value{}, fmt.Errorf("cannot compare %s and %s with ==", l.Type(), r.Type())
	}

	return reflect.ValueOf(l.Equal(r)), nil
}

func (e *Evaluator) tolerance(n expr.Tolerance, f *frame) (reflect.Value, error) {
	operands := []expr.Expr{n.L, n.R, n.Epsilon}
	if n.Comparison == expr.Relative {
		operands = append(operands, n.MaxRelative)
	}

	vals := make([]reflect.Value, 4)

	for i, o := range operands {
		v, err := e.eval(o, f)
		if err != nil {
			return reflect.Value{}, err
		}

		vals[i] = v
	}

	if n.Base != nil && (n.Base.Class == descriptor.ClassRecord || n.Base.Class == descriptor.ClassUnion) {
		out, err := e.reg.Output(baseName(n.Base.Expr))
		if err != nil {
			return reflect.Value{}, err
		}

		ok, err := e.compare(out, n.Comparison, vals[0], vals[1], vals[2], vals[3])

		return reflect.ValueOf(ok), err
	}

	t, err := e.baseType(n.Base, vals[0], vals[1], f)
	if err != nil {
		return reflect.Value{}, err
	}

	for i := range operands {
		if vals[i], err = adapt(vals[i], t); err != nil {
			return reflect.Value{}, err
		}
	}

	k := primitive.FromReflectType(t)

	var ok bool
	if n.Comparison == expr.Relative {
		ok, err = relativeEq(k, vals[0], vals[1], vals[2], vals[3])
	} else {
		ok, err = absDiffEq(k, vals[0], vals[1], vals[2])
	}

	return reflect.ValueOf(ok), err
}

// baseType is the declared base type, or the type of the operands when it
// is left to inference.
func (e *Evaluator) baseType(base *descriptor.TypeRef, l, r reflect.Value, f *frame) (reflect.Type, error) {
	if base != nil {
		return typeOf(*base, f)
	}

	switch {
	case !isUntyped(l):
		return l.Type(), nil
	case !isUntyped(r):
		return r.Type(), nil
	default:
		return defaultType(untypedOf(l)), nil
	}
}

func (e *Evaluator) mapped(n expr.Mapped, f *frame) (reflect.Value, error) {
	fn, err := e.eval(n.Fn, f)
	if err != nil {
		return reflect.Value{}, err
	}

	results := make([]reflect.Value, 2)

	for i, side := range []expr.Expr{n.L, n.R} {
		v, err := e.eval(side, f)
		if err != nil {
			return reflect.Value{}, err
		}

		res, err := call(fn, []reflect.Value{v})
		if err != nil {
			return reflect.Value{}, err
		}

		value, present, err := optional(res)
		if err != nil {
			return reflect.Value{}, err
		}

		if !present {
			return reflect.ValueOf(false), nil
		}

		results[i] = value
	}

	sub := *f
	sub.boundL, sub.boundR = results[0], results[1]

	return e.eval(n.Term, &sub)
}

// optional reads the result of a map function: a value and whether it is
// present.
func optional(res []reflect.Value) (reflect.Value, bool, error) {
	if len(res) != 2 || res[1].Kind() != reflect.Bool {
		return reflect.Value{}, false, ErrBadMap
	}

	return res[0], res[1].Bool(), nil
}

func (e *Evaluator) pairwise(n expr.Pairwise, f *frame) (reflect.Value, error) {
	l, err := e.eval(n.L, f)
	if err != nil {
		return reflect.Value{}, err
	}

	r, err := e.eval(n.R, f)
	if err != nil {
		return reflect.Value{}, err
	}

	for _, v := range []reflect.Value{l, r} {
		if k := v.Kind(); k != reflect.Slice && k != reflect.Array {
			return reflect.Value{}, fmt.Errorf("into_iter on %s, which is not a slice or array", v.Type())
		}
	}

	if l.Len() != r.Len() {
		return reflect.ValueOf(false), nil
	}

	sub := *f

	for i := range l.Len() {
		sub.boundL, sub.boundR = l.Index(i), r.Index(i)

		v, err := e.eval(n.Term, &sub)
		if err != nil || !v.Bool() {
			return reflect.ValueOf(false), err
		}
	}

	return reflect.ValueOf(true), nil
}

// dispatch finds the arm of the left operand's variant. The right operand
// must be of the same variant.
func (e *Evaluator) dispatch(n expr.Switch, f *frame) (reflect.Value, error) {
	l, r := f.left, f.right
	if !l.IsValid() || !r.IsValid() {
		return reflect.ValueOf(false), nil
	}

	for _, arm := range n.Arms {
		if !matches(l.Type(), arm.Variant) {
			continue
		}

		if !matches(r.Type(), arm.Variant) {
			return reflect.ValueOf(false), nil
		}

		if l.Kind() == reflect.Pointer && (l.IsNil() || r.IsNil()) {
			return reflect.ValueOf(l.IsNil() && r.IsNil()), nil
		}

		sub := *f
		sub.left, sub.right = l, r

		return e.eval(arm.Body, &sub)
	}

	return reflect.ValueOf(false), nil
}

// matches reports whether a value of dynamic type t is of variant v.
func matches(t reflect.Type, v descriptor.Variant) bool {
	name := v.TypeExpr
	if name == "" {
		name = v.Name
	}

	if elem, ok := strings.CutPrefix(name, "*"); ok {
		return t.Kind() == reflect.Pointer && t.Elem().Name() == elem
	}

	return t.Name() == name
}

// defaultOf is the tolerance interface's default of t. Sequences use their
// element's default, records and unions their registered output's.
func (e *Evaluator) defaultOf(t descriptor.TypeRef, kind expr.ParamKind, f *frame) (reflect.Value, error) {
	for (t.Class == descriptor.ClassSlice || t.Class == descriptor.ClassArray) && t.Elem != nil {
		t = *t.Elem
	}

	if t.Class == descriptor.ClassRecord || t.Class == descriptor.ClassUnion {
		out, err := e.reg.Output(baseName(t.Expr))
		if err != nil {
			return reflect.Value{}, err
		}

		return e.defaultValue(out, kind, paramsFromArgs(out.Descriptor, t.Expr))
	}

	rt, err := typeOf(t, f)
	if err != nil {
		return reflect.Value{}, err
	}

	return defaultFor(primitive.FromReflectType(rt), kind)
}

// baseName strips pointer and type argument syntax: "*Pair[float64]" is "Pair".
func baseName(typeExpr string) string {
	typeExpr = strings.TrimLeft(typeExpr, "*")
	if i := strings.IndexByte(typeExpr, '['); i >= 0 {
		return typeExpr[:i]
	}

	return typeExpr
}
