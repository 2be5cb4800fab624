package vm

import (
	"fmt"
	"strings"

	"lumen/internal/bytecode"
)

// StackTracer records the frames active on one thread so exceptions can
// describe where they were raised.
type StackTracer struct {
	stack []*Frame
}

func (s *StackTracer) push(f *Frame) { s.stack = append(s.stack, f) }

func (s *StackTracer) pop() { s.stack = s.stack[:len(s.stack)-1] }

// Depth is the number of active frames.
func (s *StackTracer) Depth() int { return len(s.stack) }

type traceFrame struct {
	unit string
	pc   int
	line int
}

// frames lists the active frames, innermost first.
func (s *StackTracer) frames(p *bytecode.Program) []traceFrame {
	out := make([]traceFrame, 0, len(s.stack))
	for i := len(s.stack) - 1; i >= 0; i-- {
		f := s.stack[i]
		out = append(out, traceFrame{unit: f.unit.Name, pc: f.at, line: p.Line(f.unit, f.at)})
	}
	return out
}

// String describes the active frames joined by "\n  at ".
func (s *StackTracer) String(p *bytecode.Program) string {
	frames := s.frames(p)
	parts := make([]string, len(frames))
	for i, fr := range frames {
		if fr.line > 0 {
			parts[i] = fmt.Sprintf("%s (%s:%d)", fr.unit, p.SourceName, fr.line)
		} else {
			parts[i] = fmt.Sprintf("%s (%s)", fr.unit, p.SourceName)
		}
	}
	return strings.Join(parts, "\n  at ")
}
