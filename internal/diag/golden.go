package diag

import (
	"fmt"
	"sort"
	"strings"

	"lumen/internal/source"
)

type shortDiagnostic struct {
	Severity string
	Code     string
	Path     string
	Line     uint32
	Column   uint32
	Unit     string
	Message  string
}

// FormatShort renders diagnostics one per line, sorted by path and position:
//
//	path:line:col: ERROR CMP3001 (unit): message
func FormatShort(diags []Diagnostic, fs *source.FileSet, includeNotes bool) string {
	if fs == nil || len(diags) == 0 {
		return ""
	}
	rendered := make([]shortDiagnostic, 0, len(diags))
	for i := range diags {
		d := &diags[i]
		rendered = append(rendered, renderShort(fs, d.Severity.String(), d.Code.ID(), d.Unit, d.Primary, d.Message))
		if includeNotes {
			for _, n := range d.Notes {
				rendered = append(rendered, renderShort(fs, "NOTE", d.Code.ID(), d.Unit, n.Span, n.Msg))
			}
		}
	}
	sort.SliceStable(rendered, func(i, j int) bool {
		di, dj := rendered[i], rendered[j]
		if di.Path != dj.Path {
			return di.Path < dj.Path
		}
		if di.Line != dj.Line {
			return di.Line < dj.Line
		}
		return di.Column < dj.Column
	})

	var sb strings.Builder
	for _, r := range rendered {
		fmt.Fprintf(&sb, "%s:%d:%d: %s %s", r.Path, r.Line, r.Column, r.Severity, r.Code)
		if r.Unit != "" {
			fmt.Fprintf(&sb, " (%s)", r.Unit)
		}
		fmt.Fprintf(&sb, ": %s\n", r.Message)
	}
	return sb.String()
}

func renderShort(fs *source.FileSet, sev, code, unit string, sp source.Span, msg string) shortDiagnostic {
	path := "<unknown>"
	var lc source.LineCol
	if int(sp.File) < fs.Len() {
		path = fs.Get(sp.File).Path
		lc, _ = fs.Resolve(sp)
	}
	return shortDiagnostic{
		Severity: sev,
		Code:     code,
		Path:     path,
		Line:     lc.Line,
		Column:   lc.Col,
		Unit:     unit,
		Message:  msg,
	}
}
