package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"lumen/internal/diag"
	"lumen/internal/source"
)

// Pretty writes each diagnostic as
//
//	path:line:col: SEVERITY CODE: message (in unit)
//	   12 | source line
//	      |     ^~~~
//
// followed by its notes. The caret is aligned by display width, so wide
// and combining characters before the span do not shift it.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	sevColor := map[diag.Severity]*color.Color{
		diag.SevError:   color.New(color.FgRed, color.Bold),
		diag.SevWarning: color.New(color.FgYellow, color.Bold),
		diag.SevInfo:    color.New(color.FgCyan),
	}
	bold := color.New(color.Bold)
	dim := color.New(color.FgBlue)
	paint := func(c *color.Color, s string) string {
		if !opts.Color {
			return s
		}
		c.EnableColor()
		return c.Sprint(s)
	}

	for _, d := range bag.Items() {
		f := fs.Get(d.Primary.File)
		start, end := fs.Resolve(d.Primary)
		head := fmt.Sprintf("%s:%d:%d:", formatPath(f, opts.PathMode, opts.BaseDir), start.Line, start.Col)
		fmt.Fprintf(w, "%s %s %s: %s", paint(bold, head), paint(sevColor[d.Severity], d.Severity.String()), d.Code.ID(), d.Message)
		if d.Unit != "" {
			fmt.Fprintf(w, " (in %s)", d.Unit)
		}
		fmt.Fprintln(w)
		snippet(w, f, start, end, opts, func(s string) string { return paint(dim, s) }, func(s string) string { return paint(sevColor[d.Severity], s) })
		if !opts.ShowNotes {
			continue
		}
		for _, n := range d.Notes {
			nf := fs.Get(n.Span.File)
			ns, _ := fs.Resolve(n.Span)
			fmt.Fprintf(w, "  %s %s:%d:%d: %s\n", paint(dim, "note:"), formatPath(nf, opts.PathMode, opts.BaseDir), ns.Line, ns.Col, n.Msg)
		}
	}
}

func snippet(w io.Writer, f *source.File, start, end source.LineCol, opts PrettyOpts, gutter, mark func(string) string) {
	first := start.Line
	if opts.Context > 0 && int(first) > opts.Context {
		first -= uint32(opts.Context)
	} else if opts.Context > 0 {
		first = 1
	}
	width := len(fmt.Sprint(start.Line))
	for ln := first; ln <= start.Line; ln++ {
		text := strings.ReplaceAll(f.GetLine(ln), "\t", "    ")
		fmt.Fprintf(w, "%s %s\n", gutter(fmt.Sprintf(" %*d |", width, ln)), text)
	}
	line := f.GetLine(start.Line)
	col := min(int(start.Col)-1, len(line))
	pad := displayWidth(line[:col])
	span := 1
	if end.Line == start.Line && end.Col > start.Col {
		stop := min(int(end.Col)-1, len(line))
		span = max(displayWidth(line[col:stop]), 1)
	}
	carets := "^" + strings.Repeat("~", span-1)
	fmt.Fprintf(w, "%s %s%s\n", gutter(fmt.Sprintf(" %*s |", width, "")), strings.Repeat(" ", pad), mark(carets))
}

// displayWidth measures s in terminal cells, counting tabs as four.
func displayWidth(s string) int {
	n := 0
	for _, r := range s {
		if r == '\t' {
			n += 4
			continue
		}
		n += runewidth.RuneWidth(r)
	}
	return n
}
