// Package trace records what the compiler and VM driver are doing.
//
// Spans bracket driver operations, compiler passes and per-unit work. A
// tracer writes them as they happen (stream), keeps the most recent ones in
// memory for crash dumps (ring), or both:
//
//	lumen run --trace=- --trace-level=phase main.lm
//
// Every tracer created by New carries a session id that is stamped into the
// events it records, so traces of concurrent runs can be told apart.
//
//	ctx = trace.WithTracer(ctx, tr)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "ssa", 0)
//	defer span.End("")
package trace
