package diag

import (
	"lumen/internal/source"
)

type Note struct {
	Span source.Span
	Msg  string
}

// Diagnostic is a single compile-time finding. Unit names the compiled unit
// (script, function, getter, lazy block) the finding belongs to, when known.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Unit     string
	Primary  source.Span
	Notes    []Note
}
