package gen

import (
	"fmt"
	"strconv"
	"strings"

	"approxeq-generator/internal/descriptor"
	"approxeq-generator/internal/expr"
)

// Identifiers used in generated procedures.
const (
	recvName        = "v"
	otherName       = "other"
	leftVariant     = "l"
	rightVariant    = "r"
	okName          = "ok"
	leftMapped      = "lv"
	rightMapped     = "rv"
	leftElem        = "le"
	rightElem       = "re"
	epsilonName     = "epsilon"
	maxRelativeName = "maxRelative"
)

// Procedure and default names of the tolerance interface.
const (
	absName           = "AbsDiffEq"
	relName           = "RelativeEq"
	defaultEpsName    = "DefaultEpsilon"
	defaultMaxRelName = "DefaultMaxRelative"
)

// scope holds the Go expressions the operand-relative nodes resolve to.
type scope struct {
	left, right   string // innermost record or variant operands
	boundL, boundR string // innermost Mapped results or Pairwise elements
}

// renderer prints expression trees as Go source.
type renderer struct {
	rt    string // runtime package name
	scope scope
	err   error
}

func procName(c expr.Comparison) string {
	if c == expr.Relative {
		return relName
	}

	return absName
}

func defaultName(k expr.ParamKind) string {
	if k == expr.MaxRelative {
		return defaultMaxRelName
	}

	return defaultEpsName
}

func (r *renderer) fail(format string, args ...any) string {
	if r.err == nil {
		r.err = fmt.Errorf(format, args...)
	}

	return "false"
}

// expr renders e as a Go expression.
func (r *renderer) expr(e expr.Expr) string {
	switch n := e.(type) {
	case expr.Bool:
		return strconv.FormatBool(n.Value)
	case expr.Slot:
		return r.slot(n)
	case expr.Bound:
		if n.Side == expr.Left {
			return r.scope.boundL
		}

		return r.scope.boundR
	case expr.Param:
		if n.Kind == expr.MaxRelative {
			return maxRelativeName
		}

		return epsilonName
	case expr.Source:
		return string(n.Text)
	case expr.Convert:
		return convertType(n.Type.Expr) + "(" + r.expr(n.X) + ")"
	case expr.Apply:
		return r.expr(n.Fn) + "(" + r.list(n.Args) + ")"
	case expr.Equal:
		return r.expr(n.L) + " == " + r.expr(n.R)
	case expr.Tolerance:
		return r.tolerance(n)
	case expr.Mapped:
		return r.mapped(n)
	case expr.Pairwise:
		return r.pairwise(n)
	case expr.And:
		terms := make([]string, len(n.Terms))
		for i, t := range n.Terms {
			terms[i] = r.expr(t)
		}

		return strings.Join(terms, " &&\n")
	case expr.Default:
		return r.defaultValue(n)
	default:
		return r.fail("cannot render %T as an expression", e)
	}
}

func (r *renderer) list(args []expr.Expr) string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = r.expr(a)
	}

	return strings.Join(out, ", ")
}

// slot renders a field of the operand in scope. A positional slot is the
// variant value itself.
func (r *renderer) slot(s expr.Slot) string {
	operand := r.scope.left
	if s.Side == expr.Right {
		operand = r.scope.right
	}

	if s.Field.IsPositional() {
		return operand
	}

	return operand + "." + s.Field.Ident
}

func (r *renderer) tolerance(t expr.Tolerance) string {
	args := []expr.Expr{t.L, t.R, t.Epsilon}
	if t.Comparison == expr.Relative {
		args = append(args, t.MaxRelative)
	}

	name := procName(t.Comparison)

	if t.Base == nil {
		return r.rt + "." + name + "(" + r.list(args) + ")"
	}

	base := *t.Base

	switch {
	case base.Class == descriptor.ClassRecord && !isGeneric(base.Expr):
		return r.expr(t.L) + "." + name + "(" + r.list(args[1:]) + ")"
	case base.Class == descriptor.ClassRecord, base.Class == descriptor.ClassUnion:
		fn, _ := splitGeneric(base.Expr)
		return fn + name + "(" + r.list(args) + ")"
	default:
		return r.rt + "." + name + "[" + base.Expr + "](" + r.list(args) + ")"
	}
}

// mapped renders a closure that applies the map to both operands and
// compares the results only when both are present.
func (r *renderer) mapped(m expr.Mapped) string {
	fn := r.expr(m.Fn)
	l, rr := r.expr(m.L), r.expr(m.R)

	saved := r.scope
	r.scope.boundL, r.scope.boundR = leftMapped, rightMapped
	term := r.expr(m.Term)
	r.scope = saved

	var sb strings.Builder

	sb.WriteString("func() bool {\n")
	fmt.Fprintf(&sb, "%s, lok := %s(%s)\n", leftMapped, fn, l)
	fmt.Fprintf(&sb, "%s, rok := %s(%s)\n", rightMapped, fn, rr)
	fmt.Fprintf(&sb, "return lok && rok && %s\n", term)
	sb.WriteString("}()")

	return sb.String()
}

func (r *renderer) pairwise(p expr.Pairwise) string {
	if p.Seq.Elem == nil {
		return r.fail("into_iter on %s, which is not a slice or array", p.Seq.Expr)
	}

	l, rr := r.expr(p.L), r.expr(p.R)
	if p.Seq.Class == descriptor.ClassArray {
		l, rr = l+"[:]", rr+"[:]"
	}

	saved := r.scope
	r.scope.boundL, r.scope.boundR = leftElem, rightElem
	term := r.expr(p.Term)
	r.scope = saved

	return fmt.Sprintf("%s.Pairwise(%s, %s, func(%s, %s %s) bool {\nreturn %s\n})",
		r.rt, l, rr, leftElem, rightElem, p.Seq.Elem.Expr, term)
}

// defaultValue renders the default tolerance value of a type. Sequences
// use their element's default.
func (r *renderer) defaultValue(d expr.Default) string {
	t := d.Type
	for (t.Class == descriptor.ClassSlice || t.Class == descriptor.ClassArray) && t.Elem != nil {
		t = *t.Elem
	}

	name := defaultName(d.Kind)

	switch {
	case t.Class == descriptor.ClassRecord && !isGeneric(t.Expr):
		return t.Expr + "{}." + name + "()"
	case t.Class == descriptor.ClassRecord, t.Class == descriptor.ClassUnion:
		fn, args := splitGeneric(t.Expr)
		return fn + name + args + "()"
	default:
		return r.rt + "." + name + "[" + t.Expr + "]()"
	}
}

// body renders the statements of a procedure.
func (r *renderer) body(e expr.Expr) string {
	sw, ok := e.(expr.Switch)
	if !ok {
		r.scope = scope{left: recvName, right: otherName}
		return "return " + r.expr(e)
	}

	if len(sw.Arms) == 0 {
		return "return false"
	}

	bindLeft := false

	for _, arm := range sw.Arms {
		if isPointerVariant(arm.Variant) || expr.UsesSide(arm.Body, expr.Left) {
			bindLeft = true
		}
	}

	var sb strings.Builder

	if bindLeft {
		fmt.Fprintf(&sb, "switch %s := %s.(type) {\n", leftVariant, recvName)
	} else {
		fmt.Fprintf(&sb, "switch %s.(type) {\n", recvName)
	}

	for _, arm := range sw.Arms {
		r.arm(&sb, arm)
	}

	sb.WriteString("}\n\nreturn false")

	return sb.String()
}

func (r *renderer) arm(sb *strings.Builder, arm expr.Arm) {
	typeExpr := arm.Variant.TypeExpr
	if typeExpr == "" {
		typeExpr = arm.Variant.Name
	}

	pointer := isPointerVariant(arm.Variant)

	right := "_"
	if pointer || expr.UsesSide(arm.Body, expr.Right) {
		right = rightVariant
	}

	r.scope = scope{left: operand(leftVariant, typeExpr), right: operand(rightVariant, typeExpr)}

	fmt.Fprintf(sb, "case %s:\n", typeExpr)
	fmt.Fprintf(sb, "%s, %s := %s.(%s)\n", right, okName, otherName, typeExpr)

	// Nil pointers of the variant are equal only to each other.
	if pointer {
		fmt.Fprintf(sb, "if !%[1]s || %[2]s == nil || %[3]s == nil {\nreturn %[1]s && %[2]s == %[3]s\n}\n\n",
			okName, leftVariant, rightVariant)
	}

	// A guarded arm has already checked ok.
	cond := okName
	if pointer {
		cond = "true"
	}

	if b, ok := arm.Body.(expr.Bool); ok && b.Value {
		fmt.Fprintf(sb, "return %s\n", cond)
		return
	}

	if pointer {
		fmt.Fprintf(sb, "return %s\n", r.expr(arm.Body))
		return
	}

	fmt.Fprintf(sb, "return %s && %s\n", okName, r.expr(arm.Body))
}

func isPointerVariant(v descriptor.Variant) bool {
	return strings.HasPrefix(v.TypeExpr, "*")
}

// operand dereferences pointer variants so positional slots compare values.
func operand(name, typeExpr string) string {
	if strings.HasPrefix(typeExpr, "*") {
		return "(*" + name + ")"
	}

	return name
}

func isGeneric(typeExpr string) bool {
	return strings.HasSuffix(typeExpr, "]") && !strings.HasPrefix(typeExpr, "[")
}

// splitGeneric splits "geo.Pair[float64]" into "geo.Pair" and "[float64]".
func splitGeneric(typeExpr string) (base, args string) {
	if !isGeneric(typeExpr) {
		return typeExpr, ""
	}

	i := strings.IndexByte(typeExpr, '[')

	return typeExpr[:i], typeExpr[i:]
}

// convertType parenthesizes type expressions that are ambiguous as a conversion.
func convertType(typeExpr string) string {
	if strings.HasPrefix(typeExpr, "*") || strings.HasPrefix(typeExpr, "func") || strings.HasPrefix(typeExpr, "<-") {
		return "(" + typeExpr + ")"
	}

	return typeExpr
}
