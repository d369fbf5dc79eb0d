package diagnostic

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"approxeq-generator/internal/descriptor"
)

func TestDiagnostics_AddErr(t *testing.T) {
	var d Diagnostics

	d.AddErr(&descriptor.Error{
		Type:      "Shape",
		Variant:   "Circle",
		Field:     "R",
		Directive: "bogus",
		Err:       descriptor.ErrUnknownDirective,
	})
	d.AddErr(nil)

	require.Len(t, d.Errors, 1)

	e := d.Errors[0]
	assert.Equal(t, CodeUnknownDirective, e.Code)
	assert.Equal(t, "Shape", e.TypeName)
	assert.Equal(t, "Circle.R", e.FieldPath)
	assert.Equal(t, `[Shape] Circle.R: [unknown_directive] directive "bogus": unrecognized directive keyword`, e.String())
}

func TestDiagnostics_Error(t *testing.T) {
	var d Diagnostics
	assert.NoError(t, d.Error())
	assert.True(t, d.IsValid())

	d.AddWarning(CodeUnsupportedField, "compared with ==", "Meta", "Labels")
	assert.NoError(t, d.Error())

	d.AddErr(&descriptor.Error{Type: "Empty", Err: descriptor.ErrNoFields})
	d.AddError(CodeToleranceCycle, "A, B", "", "")

	err := d.Error()
	require.Error(t, err)
	assert.True(t, errors.Is(err, descriptor.ErrNoFields))
	assert.Equal(t, "[Empty]: [no_fields] record declares no fields; [tolerance_cycle] A, B", err.Error())
}

func TestCode(t *testing.T) {
	assert.Equal(t, CodeNoFields, Code(descriptor.ErrNoFields))
	assert.Equal(t, CodeUnknownShape, Code(&descriptor.Error{Err: descriptor.ErrUnknownShape}))
	assert.Equal(t, CodeMalformedDirective, Code(descriptor.ErrMalformedDirective))
	assert.Equal(t, CodeOther, Code(errors.New("boom")))
}

func TestDiagnostics_Merge(t *testing.T) {
	var a, b Diagnostics

	b.AddInfo(CodeNotDerived, "skipped", "Helper", "")
	b.AddError(CodeOther, "x", "", "")
	a.Merge(b)

	assert.True(t, a.HasErrors())
	assert.Len(t, a.Infos, 1)
	assert.Equal(t, "info", a.Infos[0].Severity.String())
}
