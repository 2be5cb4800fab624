package vm

import (
	"lumen/internal/bytecode"
	"lumen/internal/value"
)

// tryEntry is one active try bracket.
type tryEntry struct {
	id    int32
	catch int
	reg   int32
}

// Frame is the activation record of one unit.
type Frame struct {
	unit    *bytecode.Unit
	closure *Closure
	regs    []value.Value
	this    value.Value
	args    []value.Value
	// chain[level] is the shared frame of the enclosing activation at that nesting level.
	chain []*SharedFrame
	pc    int
	// at is the start of the instruction being executed.
	at    int
	tries []tryEntry
}

// newFrame creates the activation of c. The chain is extended with a fresh
// shared frame when the unit pins variables.
func newFrame(c *Closure, this value.Value, args []value.Value) *Frame {
	u := c.Unit
	chain := make([]*SharedFrame, u.NestLevel+1)
	copy(chain, c.Chain)
	if u.NumSharedSlots > 0 {
		chain[u.NestLevel] = newSharedFrame(u.NumSharedSlots)
	}
	return &Frame{
		unit:    u,
		closure: c,
		regs:    make([]value.Value, u.NumRegisters),
		this:    this,
		args:    args,
		chain:   chain,
	}
}

func (f *Frame) arg(i int) value.Value {
	if i < len(f.args) {
		return f.args[i]
	}
	return value.Void()
}
