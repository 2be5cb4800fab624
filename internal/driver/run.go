package driver

import (
	"context"
	"io"

	"lumen/internal/bytecode"
	"lumen/internal/trace"
	"lumen/internal/value"
	"lumen/internal/vm"
)

// RunOptions configures execution of a compiled program.
type RunOptions struct {
	Stdout io.Writer
	// VMTrace receives one line per executed instruction when set.
	VMTrace  io.Writer
	MaxDepth int
}

// Run executes p on a fresh VM.
func Run(ctx context.Context, p *bytecode.Program, opts RunOptions) (value.Value, error) {
	vopts := vm.Options{Stdout: opts.Stdout, MaxDepth: opts.MaxDepth}
	if opts.VMTrace != nil {
		vopts.Trace = vm.NewTracer(opts.VMTrace)
	}
	machine := vm.New(p, vopts)
	span := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "run", trace.CurrentSpan(ctx)).
		WithExtra("vm", machine.ID.String())
	v, err := machine.Run()
	detail := "ok"
	if err != nil {
		detail = err.Error()
	}
	span.End(detail)
	return v, err
}
