package driver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lumen/internal/ast"
	"lumen/internal/bytecode"
	"lumen/internal/codegen"
	"lumen/internal/diag"
	"lumen/internal/parser"
	"lumen/internal/project"
	"lumen/internal/source"
	"lumen/internal/ssa"
	"lumen/internal/trace"
)

// ErrFailed is reported to the observer for files that did not compile.
var ErrFailed = errors.New("compilation failed")

// Result is the outcome of compiling one file. Compile errors are reported
// in Bag; Program is nil when the bag has errors.
type Result struct {
	Path    string
	FileSet *source.FileSet
	File    *source.File
	Bag     *diag.Bag
	Script  *ast.Script
	// Form is the SSA of the script; nil when the program came from the cache.
	Form    *ssa.Form
	Program *bytecode.Program
	Cached  bool
}

// Failed reports whether the file did not compile.
func (r *Result) Failed() bool { return r.Program == nil || r.Bag.HasErrors() }

// CompileFile loads and compiles the script at path.
func CompileFile(ctx context.Context, path string, opts Options) (*Result, error) {
	fs := source.NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		return nil, fmt.Errorf("driver: load %s: %w", path, err)
	}
	return Compile(ctx, fs, id, opts)
}

// CompileSource compiles src as a script named name.
func CompileSource(ctx context.Context, name string, src []byte, opts Options) (*Result, error) {
	fs := source.NewFileSet()
	return Compile(ctx, fs, fs.AddVirtual(name, src), opts)
}

// Compile runs the pipeline over one file of fs. The error is non-nil only
// when ctx is cancelled.
func Compile(ctx context.Context, fs *source.FileSet, id source.FileID, opts Options) (*Result, error) {
	file := fs.Get(id)
	res := &Result{Path: file.Path, FileSet: fs, File: file, Bag: diag.NewBag(opts.maxDiagnostics())}
	c := &compilation{opts: opts, res: res, tr: trace.FromContext(ctx)}
	span := trace.Begin(c.tr, trace.ScopeDriver, "compile", trace.CurrentSpan(ctx)).WithExtra("file", file.Path)
	defer func() { span.End("") }()
	c.parent = span.ID()
	defer func() {
		var err error
		if res.Failed() {
			err = ErrFailed
		}
		opts.observe(PhaseEvent{Path: file.Path, Name: "compile", Status: PhaseDone, Err: err})
	}()

	key := opts.cacheKey(file)
	if opts.Cache != nil {
		entry, ok, err := opts.Cache.Get(key)
		if err != nil {
			c.warn(diag.IOCacheError, "ignoring unreadable cache entry: %v", err)
		}
		if ok {
			res.Program, res.Cached = entry.Program, true
			c.replay(entry.Diagnostics)
			span.WithExtra("cache", "hit")
			return res, nil
		}
	}

	steps := []struct {
		name string
		run  func() error
	}{
		{"parse", c.parse},
		{"ssa", c.ssa},
		{"codegen", c.codegen},
	}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := c.phase(step.name, step.run); err != nil || res.Bag.HasErrors() {
			return res, nil
		}
	}
	if opts.Cache != nil {
		entry := CacheEntry{Program: res.Program, Diagnostics: c.cacheable()}
		if err := opts.Cache.Put(key, file.Path, project.Digest(file.Hash), entry); err != nil {
			c.warn(diag.IOCacheError, "could not cache %s: %v", file.Path, err)
		}
	}
	return res, nil
}

type compilation struct {
	opts   Options
	res    *Result
	tr     trace.Tracer
	parent uint64
}

func (c *compilation) phase(name string, fn func() error) error {
	span := trace.Begin(c.tr, trace.ScopePass, name, c.parent)
	c.opts.observe(PhaseEvent{Path: c.res.Path, Name: name, Status: PhaseStart})
	start := time.Now()
	var err error
	if c.opts.Timer != nil {
		err = c.opts.Timer.Measure(name, fn)
	} else {
		err = fn()
	}
	c.opts.observe(PhaseEvent{Path: c.res.Path, Name: name, Status: PhaseEnd, Elapsed: time.Since(start), Err: err})
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	span.End(detail)
	return err
}

func (c *compilation) parse() error {
	script, _ := parser.ParseFile(c.res.File, parser.Options{
		Reporter:  diag.BagReporter{Bag: c.res.Bag},
		MaxErrors: c.opts.maxDiagnostics(),
	})
	c.res.Script = script
	return nil
}

func (c *compilation) ssa() error {
	form, err := ssa.Compile(c.res.Script, ssa.Options{
		Name:          c.opts.unitName(),
		FoldConstants: c.opts.FoldConstants,
		Warn: func(w *ssa.CompileError) {
			c.res.Bag.Add(diag.NewWarning(w.Code, w.Span, w.Message).WithUnit(w.Unit))
		},
	})
	if err != nil {
		c.report(err)
		return err
	}
	c.res.Form = form
	return nil
}

func (c *compilation) codegen() error {
	unit, err := codegen.Generate(c.res.Form)
	if err != nil {
		c.report(err)
		return err
	}
	prog, err := bytecode.Fixup(unit, c.res.File.Path, c.res.File.LineIdx)
	if err != nil {
		c.report(err)
		return err
	}
	for _, u := range prog.Units {
		trace.Point(c.tr, trace.ScopeUnit, "unit:"+u.Name,
			fmt.Sprintf("%s regs=%d consts=%d words=%d", u.Kind, u.NumRegisters, len(u.Consts), len(u.Code)), c.parent)
	}
	c.res.Program = prog
	return nil
}

// report turns a pipeline error into a diagnostic.
func (c *compilation) report(err error) {
	var ce *ssa.CompileError
	if errors.As(err, &ce) {
		c.res.Bag.Add(diag.NewError(ce.Code, ce.Span, ce.Message).WithUnit(ce.Unit))
		return
	}
	d := diag.NewError(diag.CmpInternal, source.Span{File: c.res.File.ID}, err.Error())
	var ie *codegen.InternalError
	if errors.As(err, &ie) {
		d = d.WithUnit(ie.Unit)
	}
	c.res.Bag.Add(d)
}

// cacheable lists the diagnostics a cache hit must reproduce. Cache I/O
// warnings belong to this run only.
func (c *compilation) cacheable() []diag.Diagnostic {
	var out []diag.Diagnostic
	for _, d := range c.res.Bag.Items() {
		if d.Code != diag.IOCacheError {
			out = append(out, d)
		}
	}
	return out
}

// replay adds diagnostics from a cache entry, rebinding their spans to
// the file being compiled.
func (c *compilation) replay(items []diag.Diagnostic) {
	id := c.res.File.ID
	for _, d := range items {
		d.Primary.File = id
		if len(d.Notes) > 0 {
			notes := make([]diag.Note, len(d.Notes))
			for i, n := range d.Notes {
				n.Span.File = id
				notes[i] = n
			}
			d.Notes = notes
		}
		c.res.Bag.Add(d)
	}
}

func (c *compilation) warn(code diag.Code, format string, args ...any) {
	c.res.Bag.Add(diag.NewWarning(code, source.Span{File: c.res.File.ID}, fmt.Sprintf(format, args...)))
}
