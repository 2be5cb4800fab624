package ssa

import (
	"errors"
	"fmt"

	"lumen/internal/diag"
	"lumen/internal/source"
)

// CompileError is a fatal error in the user's program. It aborts the unit being compiled.
type CompileError struct {
	Code    diag.Code
	Message string
	Unit    string
	Span    source.Span
}

func (e *CompileError) Error() string {
	if e.Unit == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Unit, e.Message)
}

// InternalError reports a broken invariant of the SSA builder or its passes.
type InternalError struct {
	Message string
}

func (e *InternalError) Error() string { return "ssa: internal error: " + e.Message }

func internalf(format string, args ...any) {
	panic(&InternalError{Message: fmt.Sprintf(format, args...)})
}

func (f *Form) errorf(code diag.Code, span source.Span, format string, args ...any) *CompileError {
	return &CompileError{Code: code, Message: fmt.Sprintf(format, args...), Unit: f.Name, Span: span}
}

func (f *Form) scopeError(name string, span source.Span) *CompileError {
	return f.errorf(diag.CmpOutOfScope, span, "local variable '%s' is from out of scope", name)
}

// catch turns an aborting panic raised by the builder into an error.
func catch(err *error) {
	switch r := recover().(type) {
	case nil:
	case *CompileError:
		*err = r
	case *InternalError:
		*err = r
	default:
		panic(r)
	}
}

// AsCompileError unwraps err into a *CompileError.
func AsCompileError(err error) (*CompileError, bool) {
	var ce *CompileError
	ok := errors.As(err, &ce)
	return ce, ok
}
