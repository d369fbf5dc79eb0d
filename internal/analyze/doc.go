// Package analyze provides package loading and descriptor extraction.
//
// It uses golang.org/x/tools/go/packages with AST and go/types to find
// the named types of a package and build a descriptor for each struct and
// sealed interface, with the directives of its tags and //approx: comments.
//
// Key types:
//   - TypeID: package import path + type name
//   - TypeInfo: declared object, directive block and descriptor of one type
//   - TypeGraph: every analyzed type, resolvable by package and expression
package analyze
