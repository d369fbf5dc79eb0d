package analyze

import (
	"fmt"
	"go/token"
	"go/types"
	"slices"

	"approxeq-generator/internal/descriptor"
	"approxeq-generator/internal/diagnostic"
	"approxeq-generator/internal/directive"
)

// TypeID uniquely identifies a type by its package path and name.
type TypeID struct {
	PkgPath string // e.g., "approxeq-generator/examples/geometry"
	Name    string // e.g., "Position"
}

// String returns a human-readable representation of the TypeID.
func (t TypeID) String() string {
	if t.PkgPath == "" {
		return t.Name
	}

	return t.PkgPath + "." + t.Name
}

// TypeInfo describes one named type declared in a loaded package.
type TypeInfo struct {
	ID         TypeID                 // Unique identifier
	Obj        *types.TypeName        // Declared object
	Block      directive.Block        // Directive comment lines of the declaration
	Descriptor *descriptor.Descriptor // Set for struct and union types
	Err        error                  // Descriptor error, if building it failed

	blockErr error // directive comment error, also fatal for unions using the type as a variant
}

// IsDerived reports whether the declaration is marked for generation.
func (t *TypeInfo) IsDerived() bool {
	return t.Block.Derive
}

// PackageInfo holds information about a loaded package.
type PackageInfo struct {
	Path  string   // Import path
	Name  string   // Package name
	Dir   string   // Directory of the package sources
	Types []TypeID // Named types in declaration order

	pkg  *types.Package
	fset *token.FileSet
}

// TypeGraph holds all analyzed types from loaded packages.
type TypeGraph struct {
	// Types maps TypeID to TypeInfo for all named types.
	Types map[TypeID]*TypeInfo
	// Packages maps package paths to their package info.
	Packages map[string]*PackageInfo
}

// NewTypeGraph creates a new empty TypeGraph.
func NewTypeGraph() *TypeGraph {
	return &TypeGraph{
		Types:    make(map[TypeID]*TypeInfo),
		Packages: make(map[string]*PackageInfo),
	}
}

// GetType returns the TypeInfo for a given TypeID, or nil if not found.
func (g *TypeGraph) GetType(id TypeID) *TypeInfo {
	return g.Types[id]
}

// PackagePaths returns the loaded package paths in sorted order.
func (g *TypeGraph) PackagePaths() []string {
	paths := make([]string, 0, len(g.Packages))
	for p := range g.Packages {
		paths = append(paths, p)
	}

	slices.Sort(paths)

	return paths
}

// Select returns the descriptors of the named types of a package in
// declaration order, or of every type marked with //approx:derive when no
// name is given. Descriptor errors and warnings of the selected types are
// recorded in diags.
func (g *TypeGraph) Select(pkgPath string, names []string, diags *diagnostic.Diagnostics) []*descriptor.Descriptor {
	pkg, ok := g.Packages[pkgPath]
	if !ok {
		diags.AddError(diagnostic.CodeOther, fmt.Sprintf("package %s not loaded", pkgPath), "", "")
		return nil
	}

	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true

		if g.Types[TypeID{PkgPath: pkgPath, Name: n}] == nil {
			diags.AddError(diagnostic.CodeOther, "type not found in "+pkgPath, n, "")
		}
	}

	var out []*descriptor.Descriptor

	for _, id := range pkg.Types {
		info := g.Types[id]

		if len(names) > 0 && !wanted[id.Name] || len(names) == 0 && !info.IsDerived() {
			continue
		}

		switch {
		case info.Err != nil:
			diags.AddErr(info.Err)
		case info.Descriptor == nil:
			diags.AddError(diagnostic.CodeNotDerived, "neither a struct nor a sealed interface", id.Name, "")
		default:
			out = append(out, info.Descriptor)
		}
	}

	return out
}

// ResolveType resolves a type expression written at package scope of
// pkgPath, e.g. "float32" or "Position".
func (g *TypeGraph) ResolveType(pkgPath, expr string) (descriptor.TypeRef, error) {
	pkg, ok := g.Packages[pkgPath]
	if !ok || pkg.pkg == nil {
		return descriptor.TypeRef{}, fmt.Errorf("package %s not loaded", pkgPath)
	}

	tv, err := types.Eval(pkg.fset, pkg.pkg, token.NoPos, expr)
	if err != nil {
		return descriptor.TypeRef{}, err
	}

	if !tv.IsType() {
		return descriptor.TypeRef{}, fmt.Errorf("%s is not a type", expr)
	}

	cls := &classifier{pkg: pkg.pkg}

	return cls.ref(tv.Type), nil
}
