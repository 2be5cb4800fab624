// Package vm executes bytecode programs. A program is immutable and may be
// run by any number of threads at once; each thread owns its register
// windows, try brackets and stack tracer, while closures share pinned
// variables through locked shared frames.
package vm

import (
	"io"
	"os"

	"github.com/google/uuid"

	"lumen/internal/bytecode"
	"lumen/internal/value"
)

// DefaultMaxDepth bounds the call stack of a thread.
const DefaultMaxDepth = 1000

// Options configures execution.
type Options struct {
	// Stdout receives the output of print; defaults to os.Stdout.
	Stdout io.Writer
	// Trace, when set, logs every executed instruction.
	Trace    *Tracer
	MaxDepth int
}

// VM binds a program to its global object.
type VM struct {
	ID     uuid.UUID
	prog   *bytecode.Program
	opts   Options
	global *Instance
}

// New prepares p for execution and installs the native library.
func New(p *bytecode.Program, opts Options) *VM {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	vm := &VM{
		ID:   uuid.New(),
		prog: p,
		opts: opts,
		global: &Instance{
			Class:  &Class{Name: "global", Members: NewDict()},
			Fields: NewDict(),
		},
	}
	installNatives(vm)
	return vm
}

// Program returns the program the VM runs.
func (vm *VM) Program() *bytecode.Program { return vm.prog }

// Global returns the global object.
func (vm *VM) Global() value.Value { return value.Obj(vm.global) }

// Define installs a native function as a global.
func (vm *VM) Define(name string, fn NativeFunc) {
	vm.global.Fields.Set(name, value.Obj(&NativeFunction{Name: name, Fn: fn}))
}

// Run executes the entry unit on a new thread and returns its result.
// The error is a *ScriptError for uncaught exceptions and a *Fault for
// malformed bytecode.
func (vm *VM) Run() (value.Value, error) {
	entry := &Closure{
		Unit: vm.prog.Units[vm.prog.Entry],
		This: vm.Global(),
	}
	return vm.newThread().protect(func(t *Thread) (value.Value, error) {
		return t.invoke(entry, vm.Global(), nil)
	})
}

// Call invokes fn on a new thread. Closures returned by scripts may be
// called concurrently from several goroutines.
func (vm *VM) Call(fn, this value.Value, args ...value.Value) (value.Value, error) {
	return vm.newThread().protect(func(t *Thread) (value.Value, error) {
		return t.Call(fn, this, args...)
	})
}

// Thread is one logical call chain.
type Thread struct {
	vm     *VM
	prog   *bytecode.Program
	tracer StackTracer
	eb     errorBuilder
}

func (vm *VM) newThread() *Thread {
	t := &Thread{vm: vm, prog: vm.prog}
	t.eb.t = t
	return t
}

// VM returns the machine the thread runs on.
func (t *Thread) VM() *VM { return t.vm }

// Trace describes the active frames, innermost first.
func (t *Thread) Trace() string { return t.tracer.String(t.prog) }

// Call invokes fn from native code running on t.
func (t *Thread) Call(fn, this value.Value, args ...value.Value) (value.Value, error) {
	return t.call(fn, this, args)
}

// Throw builds an exception natives can return to raise a script error.
func (t *Thread) Throw(name, format string, args ...any) error {
	return t.eb.raise(name, format, args...)
}

func (t *Thread) protect(fn func(*Thread) (value.Value, error)) (v value.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			f, ok := r.(*Fault)
			if !ok {
				panic(r)
			}
			v, err = value.Void(), f
		}
	}()
	return fn(t)
}
