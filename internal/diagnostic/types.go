package diagnostic

import (
	"errors"
	"fmt"
	"strings"

	"approxeq-generator/internal/common"
	"approxeq-generator/internal/descriptor"
)

// Diagnostic codes.
const (
	CodeNoFields           = "no_fields"
	CodeUnknownShape       = "unknown_shape"
	CodeUnknownDirective   = "unknown_directive"
	CodeMalformedDirective = "malformed_directive"
	CodeToleranceCycle     = "tolerance_cycle"
	CodeUnsupportedField   = "unsupported_field"
	CodeNotDerived         = "not_derived"
	CodeOther              = "error"
)

// Diagnostics holds all diagnostic information from one front end run.
type Diagnostics struct {
	Errors   []Diagnostic
	Warnings []Diagnostic
	Infos    []Diagnostic
}

// Diagnostic represents a single diagnostic message.
type Diagnostic struct {
	// Severity of the diagnostic.
	Severity DiagnosticSeverity
	// Code is a unique identifier for this type of diagnostic.
	Code string
	// Message is the human-readable description.
	Message string
	// TypeName identifies the type this relates to (if any).
	TypeName string
	// FieldPath identifies the variant or field this relates to (if any).
	FieldPath string
	// Err is the underlying error, for errors.Is on Diagnostics.Error.
	Err error
}

// DiagnosticSeverity represents the severity level of a diagnostic.
type DiagnosticSeverity int

const (
	DiagnosticInfo DiagnosticSeverity = iota
	DiagnosticWarning
	DiagnosticError
)

// String returns a human-readable severity name.
func (s DiagnosticSeverity) String() string {
	switch s {
	case DiagnosticInfo:
		return "info"
	case DiagnosticWarning:
		return "warning"
	case DiagnosticError:
		return "error"
	default:
		return common.UnknownStr
	}
}

// AddError adds an error diagnostic.
func (d *Diagnostics) AddError(code, message, typeName, fieldPath string) {
	d.Errors = append(d.Errors, Diagnostic{
		Severity:  DiagnosticError,
		Code:      code,
		Message:   message,
		TypeName:  typeName,
		FieldPath: fieldPath,
	})
}

// AddWarning adds a warning diagnostic.
func (d *Diagnostics) AddWarning(code, message, typeName, fieldPath string) {
	d.Warnings = append(d.Warnings, Diagnostic{
		Severity:  DiagnosticWarning,
		Code:      code,
		Message:   message,
		TypeName:  typeName,
		FieldPath: fieldPath,
	})
}

// AddInfo adds an info diagnostic.
func (d *Diagnostics) AddInfo(code, message, typeName, fieldPath string) {
	d.Infos = append(d.Infos, Diagnostic{
		Severity:  DiagnosticInfo,
		Code:      code,
		Message:   message,
		TypeName:  typeName,
		FieldPath: fieldPath,
	})
}

// AddErr records err as an error diagnostic. A *descriptor.Error keeps its
// location and gets the code of its sentinel.
func (d *Diagnostics) AddErr(err error) {
	if err == nil {
		return
	}

	diag := Diagnostic{
		Severity: DiagnosticError,
		Code:     Code(err),
		Message:  err.Error(),
		Err:      err,
	}

	var de *descriptor.Error
	if errors.As(err, &de) {
		diag.TypeName = de.Type
		diag.FieldPath = joinPath(de.Variant, de.Field)
		diag.Message = de.Err.Error()

		if de.Directive != "" {
			diag.Message = fmt.Sprintf("directive %q: %s", de.Directive, diag.Message)
		}
	}

	d.Errors = append(d.Errors, diag)
}

// Code returns the diagnostic code of a descriptor error sentinel.
func Code(err error) string {
	switch {
	case errors.Is(err, descriptor.ErrNoFields):
		return CodeNoFields
	case errors.Is(err, descriptor.ErrUnknownShape):
		return CodeUnknownShape
	case errors.Is(err, descriptor.ErrUnknownDirective):
		return CodeUnknownDirective
	case errors.Is(err, descriptor.ErrMalformedDirective):
		return CodeMalformedDirective
	default:
		return CodeOther
	}
}

// HasErrors returns true if there are any error diagnostics.
func (d *Diagnostics) HasErrors() bool {
	return len(d.Errors) > 0
}

// Merge merges another Diagnostics instance into this one.
func (d *Diagnostics) Merge(other Diagnostics) {
	d.Errors = append(d.Errors, other.Errors...)
	d.Warnings = append(d.Warnings, other.Warnings...)
	d.Infos = append(d.Infos, other.Infos...)
}

// IsValid returns true if there are no errors.
func (d *Diagnostics) IsValid() bool {
	return len(d.Errors) == 0
}

// Error returns a combined error from all error diagnostics, or nil if valid.
// Underlying errors stay reachable through errors.Is and errors.As.
func (d *Diagnostics) Error() error {
	if d.IsValid() {
		return nil
	}

	var (
		parts []string
		errs  []error
	)

	for _, e := range d.Errors {
		parts = append(parts, e.String())

		if e.Err != nil {
			errs = append(errs, e.Err)
		}
	}

	return &combinedError{msg: strings.Join(parts, "; "), errs: errs}
}

type combinedError struct {
	msg  string
	errs []error
}

func (e *combinedError) Error() string   { return e.msg }
func (e *combinedError) Unwrap() []error { return e.errs }

// String returns a formatted diagnostic string.
func (d Diagnostic) String() string {
	var prefix []string
	if d.TypeName != "" {
		prefix = append(prefix, "["+d.TypeName+"]")
	}

	if d.FieldPath != "" {
		prefix = append(prefix, d.FieldPath)
	}

	msg := d.Message
	if d.Code != "" {
		msg = fmt.Sprintf("[%s] %s", d.Code, msg)
	}

	if len(prefix) > 0 {
		return strings.Join(prefix, " ") + ": " + msg
	}

	return msg
}

func joinPath(parts ...string) string {
	var nonEmpty []string

	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}

	return strings.Join(nonEmpty, ".")
}
