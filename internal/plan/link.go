package plan

import (
	"fmt"
	"strings"

	"approxeq-generator/internal/descriptor"
	"approxeq-generator/primitive"
)

// linked is the resolved tolerance of one descriptor in a Link run.
type linked struct {
	desc    *descriptor.Descriptor
	tol     descriptor.TypeRef
	coupled int // index of the coupled type parameter, -1 if none
}

// Link resolves the tolerance type of every descriptor, following references
// between them, and returns copies whose record and union type references
// carry the resolved tolerance type of the referenced descriptor.
//
// A reference to a generic descriptor whose tolerance type is one of its own
// parameters resolves to the corresponding type argument.
func Link(descs []*descriptor.Descriptor) ([]*descriptor.Descriptor, error) {
	index := make(map[string]int, len(descs))
	for i, d := range descs {
		index[d.Name] = i
	}

	deps := func(i int) []int {
		parent, _ := parentType(descs[i])

		var out []int

		for _, name := range referencedNames(parent) {
			if j, ok := index[name]; ok {
				out = append(out, j)
			}
		}

		return out
	}

	order, stuck, err := topoSort(len(descs), deps)
	if err != nil {
		names := make([]string, len(stuck))
		for k, i := range stuck {
			names[k] = descs[i].Name
		}

		return nil, fmt.Errorf("%w: %s", err, strings.Join(names, ", "))
	}

	l := &linker{index: index, resolved: make([]*linked, len(descs))}

	for _, i := range order {
		d := descs[i]
		parent, _ := parentType(d)
		tol := l.ref(parent).EpsilonType()

		coupled := -1

		if tol.Class == descriptor.ClassParam {
			for k, p := range d.Params {
				if p.Name == tol.Expr {
					coupled = k
				}
			}
		}

		l.resolved[i] = &linked{desc: d, tol: tol, coupled: coupled}
	}

	result := make([]*descriptor.Descriptor, len(descs))
	for i, d := range descs {
		result[i] = l.descriptor(d)
	}

	return result, nil
}

type linker struct {
	index    map[string]int
	resolved []*linked
}

func (l *linker) descriptor(d *descriptor.Descriptor) *descriptor.Descriptor {
	out := *d
	out.Fields = l.fields(d.Fields)

	if d.Variants != nil {
		out.Variants = make([]descriptor.Variant, len(d.Variants))
		for i, v := range d.Variants {
			v.Fields = l.fields(v.Fields)
			out.Variants[i] = v
		}
	}

	if d.Directives.EpsilonType != nil {
		ref := l.ref(*d.Directives.EpsilonType)
		out.Directives.EpsilonType = &ref
	}

	return &out
}

func (l *linker) fields(fields []descriptor.Field) []descriptor.Field {
	if fields == nil {
		return nil
	}

	out := make([]descriptor.Field, len(fields))
	for i, f := range fields {
		f.Type = l.ref(f.Type)
		out[i] = f
	}

	return out
}

// ref returns t with the tolerance type of every referenced descriptor filled in.
func (l *linker) ref(t descriptor.TypeRef) descriptor.TypeRef {
	if t.Elem != nil {
		elem := l.ref(*t.Elem)
		t.Elem = &elem
	}

	if t.Class != descriptor.ClassRecord && t.Class != descriptor.ClassUnion {
		return t
	}

	i, ok := l.index[baseName(t.Expr)]
	if !ok || l.resolved[i] == nil {
		return t
	}

	res := l.resolved[i]
	tol := res.tol

	if res.coupled >= 0 {
		if args := typeArgs(t.Expr); res.coupled < len(args) {
			tol = l.argRef(args[res.coupled])
		}
	}

	t.Epsilon = &tol

	return t
}

// argRef classifies a type argument spelled in source.
func (l *linker) argRef(arg string) descriptor.TypeRef {
	if k := primitive.FromName(arg); k.IsValid() {
		return descriptor.Prim(k)
	}

	if i, ok := l.index[baseName(arg)]; ok && l.resolved[i] != nil {
		return l.resolved[i].tol
	}

	return descriptor.TypeRef{Expr: arg, Class: descriptor.ClassOther}
}

// referencedNames returns the base names of the named types t refers to.
func referencedNames(t descriptor.TypeRef) []string {
	var names []string

	for ref := &t; ref != nil; ref = ref.Elem {
		if ref.Class == descriptor.ClassRecord || ref.Class == descriptor.ClassUnion {
			names = append(names, baseName(ref.Expr))
		}
	}

	return names
}

// baseName strips pointer and type argument syntax: "*Pair[float64]" is "Pair".
func baseName(expr string) string {
	expr = strings.TrimLeft(expr, "*")
	if i := strings.IndexByte(expr, '['); i >= 0 {
		return expr[:i]
	}

	return expr
}

// typeArgs splits the type argument list of an instantiated type expression
// at top-level commas: "Pair[float64, []int]" is ["float64", "[]int"].
func typeArgs(expr string) []string {
	open := strings.IndexByte(expr, '[')
	if open < 0 || !strings.HasSuffix(expr, "]") {
		return nil
	}

	inner := expr[open+1 : len(expr)-1]

	var (
		args  []string
		depth int
		start int
	)

	for i, r := range inner {
		switch r {
		case '[', '(', '{':
			depth++
		case ']', ')', '}':
			depth--
		case ',':
			if depth == 0 {
				args = append(args, strings.TrimSpace(inner[start:i]))
				start = i + 1
			}
		}
	}

	return append(args, strings.TrimSpace(inner[start:]))
}
