package analyze

import (
	"errors"
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/tools/go/packages"

	"approxeq-generator/internal/descriptor"
	"approxeq-generator/internal/directive"
)

// LoadMode specifies what information to load from packages.
const LoadMode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedSyntax |
	packages.NeedTypes |
	packages.NeedTypesInfo |
	packages.NeedImports

// Analyzer loads Go packages and builds descriptors for their types.
type Analyzer struct {
	// Dir is the directory package patterns are resolved in. Empty means
	// the current directory.
	Dir string

	graph *TypeGraph
}

// NewAnalyzer creates a new Analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		graph: NewTypeGraph(),
	}
}

// LoadPackages loads the specified packages and builds the type graph.
// Patterns are standard Go package patterns (e.g., "./geometry", "approxeq-generator/examples/geometry").
//
// Descriptor errors do not fail loading; they are kept on the TypeInfo and
// reported when the type is selected.
func (a *Analyzer) LoadPackages(patterns ...string) (*TypeGraph, error) {
	cfg := &packages.Config{
		Mode: LoadMode,
		Dir:  a.Dir,
	}

	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("failed to load packages: %w", err)
	}

	// Check for package errors
	var errs []error

	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			errs = append(errs, e)
		}
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("package errors: %w", errors.Join(errs...))
	}

	for _, pkg := range pkgs {
		if err := a.processPackage(pkg); err != nil {
			return nil, fmt.Errorf("failed to process package %s: %w", pkg.PkgPath, err)
		}
	}

	return a.graph, nil
}

// Graph returns the current type graph.
func (a *Analyzer) Graph() *TypeGraph {
	return a.graph
}

// typeDecl is one type declaration with the comment group documenting it.
type typeDecl struct {
	obj *types.TypeName
	doc *ast.CommentGroup
}

// processPackage extracts the package's type declarations in source order.
func (a *Analyzer) processPackage(pkg *packages.Package) error {
	if pkg.Types == nil || pkg.TypesInfo == nil {
		return errors.New("type information not loaded")
	}

	pkgInfo := &PackageInfo{
		Path: pkg.PkgPath,
		Name: pkg.Name,
		pkg:  pkg.Types,
		fset: pkg.Fset,
	}

	if len(pkg.GoFiles) > 0 {
		pkgInfo.Dir = filepath.Dir(pkg.GoFiles[0])
	}

	decls := collectDecls(pkg)
	infos := make([]*TypeInfo, 0, len(decls))

	for _, d := range decls {
		info := &TypeInfo{
			ID:  TypeID{PkgPath: pkg.PkgPath, Name: d.obj.Name()},
			Obj: d.obj,
		}

		block, err := directive.ParseComments(commentLines(d.doc))
		if err != nil {
			info.blockErr = directive.Locate(err, d.obj.Name(), "", "")
			info.Err = info.blockErr
		} else {
			info.Block = block
		}

		infos = append(infos, info)
		a.graph.Types[info.ID] = info
		pkgInfo.Types = append(pkgInfo.Types, info.ID)
	}

	b := &builder{
		fset:    pkg.Fset,
		pkg:     pkg.Types,
		cls:     &classifier{pkg: pkg.Types},
		infos:   infos,
		imports: packageImports(pkg),
	}

	for _, info := range infos {
		if info.Err != nil {
			continue
		}

		info.Descriptor, info.Err = b.describe(info)
	}

	a.graph.Packages[pkg.PkgPath] = pkgInfo

	return nil
}

// collectDecls walks the syntax in file order. The doc comment of a
// single-spec declaration sits on the GenDecl, of a grouped one on the spec.
func collectDecls(pkg *packages.Package) []typeDecl {
	var decls []typeDecl

	for _, file := range pkg.Syntax {
		for _, decl := range file.Decls {
			gen, ok := decl.(*ast.GenDecl)
			if !ok || gen.Tok != token.TYPE {
				continue
			}

			for _, spec := range gen.Specs {
				ts, ok := spec.(*ast.TypeSpec)
				if !ok {
					continue
				}

				obj, ok := pkg.TypesInfo.Defs[ts.Name].(*types.TypeName)
				if !ok {
					continue
				}

				doc := ts.Doc
				if doc == nil && len(gen.Specs) == 1 {
					doc = gen.Doc
				}

				decls = append(decls, typeDecl{obj: obj, doc: doc})
			}
		}
	}

	return decls
}

// packageImports lists the packages imported anywhere in pkg.
func packageImports(pkg *packages.Package) []descriptor.Import {
	imports := make([]descriptor.Import, 0, len(pkg.Imports))
	for path, imp := range pkg.Imports {
		imports = append(imports, descriptor.Import{Name: imp.Name, Path: path})
	}

	slices.SortFunc(imports, func(a, b descriptor.Import) int {
		return strings.Compare(a.Path, b.Path)
	})

	return imports
}

func commentLines(cg *ast.CommentGroup) []string {
	if cg == nil {
		return nil
	}

	lines := make([]string, len(cg.List))
	for i, c := range cg.List {
		lines[i] = c.Text
	}

	return lines
}
