package diag

import "lumen/internal/source"

// NewError is an error diagnostic at primary.
func NewError(code Code, primary source.Span, msg string) Diagnostic {
	return Diagnostic{Severity: SevError, Code: code, Primary: primary, Message: msg}
}

// NewWarning is a warning diagnostic at primary.
func NewWarning(code Code, primary source.Span, msg string) Diagnostic {
	return Diagnostic{Severity: SevWarning, Code: code, Primary: primary, Message: msg}
}

// WithUnit names the compiled unit the diagnostic belongs to.
func (d Diagnostic) WithUnit(unit string) Diagnostic {
	d.Unit = unit
	return d
}
