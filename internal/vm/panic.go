package vm

import (
	"fmt"
	"strings"

	"lumen/internal/value"
)

// FaultCode identifies a VM fault.
type FaultCode int

// Stable fault codes - do not change values.
const (
	FaultBadOpcode   FaultCode = 1001 // VM1001: unknown opcode
	FaultBadRegister FaultCode = 1002 // VM1002: register outside the window
	FaultBadOperand  FaultCode = 1003 // VM1003: constant, unit or slot out of range
	FaultTryMismatch FaultCode = 1004 // VM1004: exit from a try that is not innermost
	FaultNoAccessMap FaultCode = 1005 // VM1005: access map opcode outside a lazy block
	FaultRanOff      FaultCode = 1006 // VM1006: control ran past the end of a unit
	FaultUnsupported FaultCode = 1999 // VM1999: unimplemented opcode
)

// String returns the code as "VM1001".
func (c FaultCode) String() string {
	return fmt.Sprintf("VM%d", int(c))
}

// BacktraceFrame is one active call when a fault was raised.
type BacktraceFrame struct {
	Unit string
	PC   int
	Line int
}

// Fault reports malformed bytecode. Scripts cannot catch it; it ends the
// current top-level evaluation.
type Fault struct {
	Code      FaultCode
	Message   string
	Backtrace []BacktraceFrame // innermost first
}

func (f *Fault) Error() string {
	return fmt.Sprintf("fault %s: %s", f.Code, f.Message)
}

// Format renders the fault with its backtrace.
func (f *Fault) Format(source string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "fault %s: %s\n", f.Code, f.Message)
	if len(f.Backtrace) > 0 {
		sb.WriteString("backtrace:\n")
		for i, fr := range f.Backtrace {
			fmt.Fprintf(&sb, "  %d: %s at %s:%d (pc %d)\n", i, fr.Unit, source, fr.Line, fr.PC)
		}
	}
	return sb.String()
}

// ScriptError is an exception no try in the call chain caught.
type ScriptError struct {
	Value value.Value
	// Trace lists the active frames at raise time, innermost first.
	Trace string
}

func (e *ScriptError) Error() string {
	msg := "uncaught exception: " + e.Value.String()
	if e.Value.Kind() == value.KindString {
		msg = "uncaught exception: " + e.Value.Repr()
	}
	if e.Trace == "" {
		return msg
	}
	return msg + "\n  at " + e.Trace
}

// errorBuilder creates faults and VM-raised exceptions for one thread.
type errorBuilder struct {
	t *Thread
}

func (eb *errorBuilder) fault(code FaultCode, format string, args ...any) *Fault {
	f := &Fault{Code: code, Message: fmt.Sprintf(format, args...)}
	for _, fr := range eb.t.tracer.frames(eb.t.prog) {
		f.Backtrace = append(f.Backtrace, BacktraceFrame{Unit: fr.unit, PC: fr.pc, Line: fr.line})
	}
	return f
}

// raise builds a catchable exception carrying the current trace.
func (eb *errorBuilder) raise(name, format string, args ...any) *ScriptError {
	trace := eb.t.tracer.String(eb.t.prog)
	exc := &Exception{Name: name, Message: fmt.Sprintf(format, args...), Trace: trace}
	return &ScriptError{Value: value.Obj(exc), Trace: trace}
}

func (eb *errorBuilder) typeError(format string, args ...any) *ScriptError {
	return eb.raise("TypeError", format, args...)
}

func (eb *errorBuilder) badRegister(r int32) *Fault {
	return eb.fault(FaultBadRegister, "register %d outside the window", r)
}

func (eb *errorBuilder) badOperand(what string, n int32) *Fault {
	return eb.fault(FaultBadOperand, "%s %d out of range", what, n)
}
