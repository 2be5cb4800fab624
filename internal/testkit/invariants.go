// Package testkit holds checks shared by parser tests and fuzz harnesses.
package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"lumen/internal/ast"
	"lumen/internal/source"
)

// CheckSpanInvariants verifies the spans of a parsed script:
// the script span lies within the file content, and every top-level
// statement span is well formed and inside the script span.
func CheckSpanInvariants(script *ast.Script, sf *source.File) error {
	if script == nil || sf == nil {
		return fmt.Errorf("nil script or file")
	}
	lenContent, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}
	span := script.Span
	if span.File != sf.ID {
		return fmt.Errorf("script span points to different file id: got=%d want=%d", span.File, sf.ID)
	}
	if span.End < span.Start || span.End > lenContent {
		return fmt.Errorf("script span %v outside content of %d bytes", span, lenContent)
	}
	for i, st := range script.Body {
		sp := st.Pos()
		if sp.File != sf.ID {
			return fmt.Errorf("statement %d: span file mismatch: got=%d want=%d", i, sp.File, sf.ID)
		}
		if sp.End < sp.Start {
			return fmt.Errorf("statement %d: inverted span %v", i, sp)
		}
		if sp.Start < span.Start || sp.End > span.End {
			return fmt.Errorf("statement %d: span %v is outside script span %v", i, sp, span)
		}
	}
	return nil
}
