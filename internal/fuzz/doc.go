// Package fuzztests holds Go fuzz harnesses for the compile pipeline
// (source, lexer, parser, SSA, code generation, fixup). They guard against
// panics and hangs on arbitrary input; compile errors are expected.
package fuzztests
