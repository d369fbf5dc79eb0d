package gen

import (
	"bytes"
	"errors"
	"fmt"
	"path"
	"strings"
	"text/template"

	"approxeq-generator/internal/common"
	"approxeq-generator/internal/descriptor"
	"approxeq-generator/internal/expr"
	"approxeq-generator/internal/plan"
)

// GeneratorConfig holds configuration for code generation.
type GeneratorConfig struct {
	// Filename is the name of the generated file in each package.
	Filename string
	// OutputDir is where the unformatted sidecar is written when formatting
	// fails. Empty disables the sidecar.
	OutputDir string
	// GenerateComments enables per-field plan comments on the procedures.
	GenerateComments bool
	// RuntimePath is the import path of the tolerance runtime package.
	RuntimePath string
}

// DefaultGeneratorConfig returns the default generator configuration.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		Filename:         "approxeq_gen.go",
		GenerateComments: true,
		RuntimePath:      "approxeq-generator/approx",
	}
}

// Generator renders synthesized procedures as Go source.
type Generator struct {
	config GeneratorConfig
}

// NewGenerator creates a new Generator with the given configuration.
func NewGenerator(config GeneratorConfig) *Generator {
	return &Generator{config: config}
}

// GeneratedFile represents a generated Go source file.
type GeneratedFile struct {
	// PkgPath is the import path of the package the file belongs to.
	PkgPath string
	// Filename is the name of the file (e.g., "approxeq_gen.go").
	Filename string
	// Content is the formatted Go source code.
	Content []byte
}

// Generate renders one file per package, types in the order given.
func (g *Generator) Generate(outputs []*plan.Output) ([]GeneratedFile, error) {
	var (
		order  []string
		groups = make(map[string][]*plan.Output)
	)

	for _, out := range outputs {
		p := out.Descriptor.PkgPath
		if _, ok := groups[p]; !ok {
			order = append(order, p)
		}

		groups[p] = append(groups[p], out)
	}

	files := make([]GeneratedFile, 0, len(order))

	for _, p := range order {
		file, err := g.generatePackage(groups[p])
		if err != nil {
			if file != nil {
				files = append(files, *file)
			}

			return files, fmt.Errorf("generating %s: %w", p, err)
		}

		files = append(files, *file)
	}

	return files, nil
}

// importSpec is one import line of a generated file.
type importSpec struct {
	Alias string
	Path  string
}

// fileData holds all data needed for the file template.
type fileData struct {
	PackageName string
	Imports     []importSpec
	Funcs       []funcData
}

// funcData is one generated function or method.
type funcData struct {
	Doc        []string
	Method     bool
	Instance   string
	Func       string
	TypeParams string
	Params     string
	Result     string
	Body       string
}

func (g *Generator) generatePackage(outputs []*plan.Output) (*GeneratedFile, error) {
	first := outputs[0].Descriptor

	data := &fileData{
		PackageName: first.PkgName,
		Imports:     g.candidateImports(outputs),
	}

	r := &renderer{rt: common.PkgAlias(g.config.RuntimePath)}

	for _, out := range outputs {
		funcs, err := g.typeFuncs(r, out)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", out.Descriptor.Name, err)
		}

		data.Funcs = append(data.Funcs, funcs...)
	}

	var buf bytes.Buffer
	if err := fileTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("executing template: %w", err)
	}

	file := &GeneratedFile{PkgPath: first.PkgPath, Filename: g.config.Filename}

	formatted, err := formatSource(g.config.Filename, buf.Bytes())
	if err != nil {
		// Best-effort: write unformatted code to a sidecar file to aid debugging.
		if g.config.OutputDir != "" {
			_ = writeDebugUnformatted(g.config.OutputDir, g.config.Filename, buf.Bytes())
		}

		file.Content = buf.Bytes()

		return file, fmt.Errorf("formatting code: %w (unformatted code returned)", err)
	}

	file.Content = formatted

	return file, nil
}

// candidateImports lists the runtime and every package imported by the
// declaring packages. Unused ones are pruned after rendering.
func (g *Generator) candidateImports(outputs []*plan.Output) []importSpec {
	specs := []importSpec{{Path: g.config.RuntimePath}}
	seen := map[string]bool{g.config.RuntimePath: true, common.PkgAlias(g.config.RuntimePath): true}

	for _, out := range outputs {
		for _, imp := range out.Descriptor.Imports {
			if seen[imp.Path] || seen[imp.Name] {
				continue
			}

			seen[imp.Path], seen[imp.Name] = true, true

			spec := importSpec{Path: imp.Path}
			if imp.Name != path.Base(imp.Path) {
				spec.Alias = imp.Name
			}

			specs = append(specs, spec)
		}
	}

	return specs
}

// typeFuncs renders the defaults and procedures of one type. Records get
// methods. Unions and generic records get package functions prefixed with
// the type name, since they cannot carry methods or need extra constraints.
func (g *Generator) typeFuncs(r *renderer, out *plan.Output) ([]funcData, error) {
	d := out.Descriptor
	free := d.Kind == descriptor.KindUnion || d.IsGeneric()
	tol := out.Tolerance.Type.Expr

	r.err = nil

	base := funcData{Method: !free, Instance: d.InstanceExpr()}

	prefix := ""
	if free {
		prefix = d.Name
	}

	comparisons := []expr.Comparison{expr.Absolute}
	if d.Relative {
		comparisons = append(comparisons, expr.Relative)
	}

	var funcs []funcData

	for _, c := range comparisons {
		proc := out.Procedure(c)
		params := typeParams(d, proc.Constraints, r.rt)

		dflt := base
		dflt.Func = prefix + defaultName(paramKind(c))
		dflt.TypeParams = params
		dflt.Result = tol
		dflt.Body = "return " + r.expr(defaultExpr(out.Tolerance, c))
		dflt.Doc = []string{fmt.Sprintf("// %s returns the default %s of %s.", dflt.Func, defaultDoc(c), d.Name)}

		cmp := base
		cmp.Func = prefix + procName(c)
		cmp.TypeParams = params
		cmp.Result = "bool"
		cmp.Params = procParams(free, d.InstanceExpr(), tol, c)
		cmp.Body = r.body(proc.Body)
		cmp.Doc = g.procDoc(cmp.Func, out, c)

		funcs = append(funcs, dflt, cmp)
	}

	if r.err != nil {
		return nil, r.err
	}

	return funcs, nil
}

func paramKind(c expr.Comparison) expr.ParamKind {
	if c == expr.Relative {
		return expr.MaxRelative
	}

	return expr.Epsilon
}

func defaultExpr(tol plan.Tolerance, c expr.Comparison) expr.Expr {
	if c == expr.Relative {
		return tol.DefaultMaxRelative
	}

	return tol.DefaultEpsilon
}

func defaultDoc(c expr.Comparison) string {
	if c == expr.Relative {
		return "relative bound"
	}

	return "absolute tolerance"
}

func procParams(free bool, instance, tol string, c expr.Comparison) string {
	tolParams := epsilonName + " " + tol
	if c == expr.Relative {
		tolParams = epsilonName + ", " + maxRelativeName + " " + tol
	}

	if free {
		return recvName + ", " + otherName + " " + instance + ", " + tolParams
	}

	return otherName + " " + instance + ", " + tolParams
}

// typeParams renders the type parameter list, adding the procedure's
// obligations to the constraint of each coupled parameter. Numeric type sets
// are comparable, so equality adds nothing next to a numeric capability.
func typeParams(d *descriptor.Descriptor, cs plan.ConstraintSet, rt string) string {
	if !d.IsGeneric() {
		return ""
	}

	params := make([]string, len(d.Params))

	for i, p := range d.Params {
		numeric := cs.Has(p.Name, plan.CapAbsDiffEq) || cs.Has(p.Name, plan.CapRelativeEq)

		var extra []string

		for _, c := range cs.For(p.Name) {
			switch c {
			case plan.CapAbsDiffEq:
				extra = append(extra, rt+".Number")
			case plan.CapRelativeEq:
				extra = append(extra, rt+".Float")
			case plan.CapEquality:
				if !numeric {
					extra = append(extra, "comparable")
				}
			}
		}

		constraint := p.Constraint
		if constraint != "any" && constraint != "interface{}" || len(extra) == 0 {
			extra = append([]string{constraint}, extra...)
		}

		if len(extra) > 1 {
			constraint = "interface{ " + strings.Join(extra, "; ") + " }"
		} else {
			constraint = extra[0]
		}

		params[i] = p.Name + " " + constraint
	}

	return "[" + strings.Join(params, ", ") + "]"
}

func (g *Generator) procDoc(name string, out *plan.Output, c expr.Comparison) []string {
	within := epsilonName
	if c == expr.Relative {
		within = epsilonName + " or " + maxRelativeName
	}

	doc := []string{fmt.Sprintf("// %s reports whether %s and %s are equal within %s.", name, recvName, otherName, within)}

	if !g.config.GenerateComments {
		return doc
	}

	doc = append(doc, "//", fmt.Sprintf("// Tolerance type %s (%s).", out.Tolerance.Type, out.Tolerance.Source))

	if len(out.Fields) > 0 || len(out.Variants) > 0 {
		doc = append(doc, "//")
	}

	for _, p := range out.Fields {
		doc = append(doc, fmt.Sprintf("//   - %s: %s", p.Field.Name, p.Explanation))
	}

	for _, v := range out.Variants {
		for _, p := range v.Fields {
			doc = append(doc, fmt.Sprintf("//   - %s.%s: %s", v.Variant.Name, p.Field.Name, p.Explanation))
		}
	}

	return doc
}

// ErrNoOutputs is returned by GenerateFile when there is nothing to render.
var ErrNoOutputs = errors.New("no types to generate")

// GenerateFile renders the outputs of a single package.
func (g *Generator) GenerateFile(outputs []*plan.Output) (*GeneratedFile, error) {
	if len(outputs) == 0 {
		return nil, ErrNoOutputs
	}

	for _, out := range outputs[1:] {
		if out.Descriptor.PkgPath != outputs[0].Descriptor.PkgPath {
			return nil, fmt.Errorf("%s and %s are in different packages", outputs[0].Descriptor.Name, out.Descriptor.Name)
		}
	}

	return g.generatePackage(outputs)
}

var fileTemplate = template.Must(template.New("approxeq").Parse(`// Code generated by approxeq-generator. DO NOT EDIT.

package {{.PackageName}}

import (
{{range .Imports}}	{{if .Alias}}{{.Alias}} {{end}}"{{.Path}}"
{{end}})
{{range .Funcs}}
{{range .Doc}}{{.}}
{{end}}{{if .Method}}func (v {{.Instance}}) {{.Func}}({{.Params}}) {{.Result}} {{else}}func {{.Func}}{{.TypeParams}}({{.Params}}) {{.Result}} {{end}}{
{{.Body}}
}
{{end}}`))
