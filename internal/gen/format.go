package gen

import (
	"bytes"
	"go/format"
	"go/parser"
	"go/token"
	"strconv"

	"golang.org/x/tools/go/ast/astutil"
)

// formatSource drops the imports the rendered code does not use and formats
// the result in canonical gofmt style.
func formatSource(filename string, src []byte) ([]byte, error) {
	fset := token.NewFileSet()

	f, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		return nil, err
	}

	type unused struct{ name, path string }

	var drop []unused

	for _, imp := range f.Imports {
		p, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			return nil, err
		}

		if astutil.UsesImport(f, p) {
			continue
		}

		u := unused{path: p}
		if imp.Name != nil {
			u.name = imp.Name.Name
		}

		drop = append(drop, u)
	}

	for _, u := range drop {
		astutil.DeleteNamedImport(fset, f, u.name, u.path)
	}

	var buf bytes.Buffer
	if err := format.Node(&buf, fset, f); err != nil {
		return nil, err
	}

	return format.Source(buf.Bytes())
}
