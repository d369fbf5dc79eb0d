package analyze

import (
	"fmt"

	"approxeq-generator/internal/descriptor"
	"approxeq-generator/internal/diagnostic"
)

// FieldWarnings flags fields that can only be compared with == but are not
// marked equal, mapped or skipped. Run it on the descriptor after overrides
// have been applied.
func FieldWarnings(d *descriptor.Descriptor) []diagnostic.Diagnostic {
	root := NewTypePath(d.Name)

	if d.Kind == descriptor.KindRecord {
		return fieldWarnings(root, d.Fields)
	}

	var warnings []diagnostic.Diagnostic
	for _, v := range d.Variants {
		warnings = append(warnings, fieldWarnings(root.Field(v.Name), v.Fields)...)
	}

	return warnings
}

func fieldWarnings(path *TypePath, fields []descriptor.Field) []diagnostic.Diagnostic {
	var warnings []diagnostic.Diagnostic

	for _, f := range fields {
		dirs := f.Directives
		if f.Type.Class != descriptor.ClassOther || dirs.IsSkipped() || dirs.IsEqual() || dirs.ValueMap != nil {
			continue
		}

		warnings = append(warnings, diagnostic.Diagnostic{
			Severity:  diagnostic.DiagnosticWarning,
			Code:      diagnostic.CodeUnsupportedField,
			Message:   fmt.Sprintf("%s has no tolerance comparison; mark it equal, map or skip", f.Type.Expr),
			TypeName:  path.parts[0],
			FieldPath: path.Field(f.Name.String()).Tail(),
		})
	}

	return warnings
}
