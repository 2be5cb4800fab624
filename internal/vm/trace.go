package vm

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"lumen/internal/bytecode"
	"lumen/internal/value"
)

// Tracer writes one line per executed instruction.
// Format: [depth=N] <unit> ip=<pc> <op> <operands> @ line <n>
type Tracer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewTracer creates a tracer that writes to w.
func NewTracer(w io.Writer) *Tracer {
	return &Tracer{w: w}
}

// TraceInstr traces the instruction about to run in f.
func (t *Tracer) TraceInstr(depth int, p *bytecode.Program, f *Frame) {
	if t == nil || t.w == nil {
		return
	}
	ins, err := p.InstructionAt(f.unit, f.pc)
	if err != nil {
		return
	}
	line := fmt.Sprintf("[depth=%d] %s ip=%04d %s %s", depth, f.unit.Name, f.pc, ins.Op, strings.Join(ins.Operands, ", "))
	if ins.Line > 0 {
		line += fmt.Sprintf(" @ line %d", ins.Line)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.w, line)
}

// TraceThrow records an exception being routed to a catch address.
func (t *Tracer) TraceThrow(depth int, f *Frame, v value.Value, catch int) {
	if t == nil || t.w == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.w, "[depth=%d] %s throw %s -> ip=%04d\n", depth, f.unit.Name, v.Repr(), catch)
}
