package ssa

import (
	"slices"

	"lumen/internal/ast"
	"lumen/internal/diag"
	"lumen/internal/source"
	"lumen/internal/value"
)

// Options configures SSA construction.
type Options struct {
	// Name names the script unit; defaults to the script's own name.
	Name          string
	FoldConstants bool
	// Warn receives non-fatal findings, such as constant expressions that
	// are certain to fail at run time.
	Warn func(*CompileError)
}

// Generate lowers a script and every nested function into a tree of Forms.
// The forms still contain phis and namespace pseudo statements; run Optimize next.
func Generate(script *ast.Script, opts Options) (f *Form, err error) {
	defer catch(&err)
	name := opts.Name
	if name == "" {
		name = script.Name
	}
	if name == "" {
		name = "main"
	}
	f = newForm(newSession(opts), nil, FormScript, name, script.Span)
	b := newBuilder(f)
	b.stmts(script.Body)
	b.finish(script.Span)
	return f, nil
}

// Compile runs Generate followed by Optimize.
func Compile(script *ast.Script, opts Options) (*Form, error) {
	f, err := Generate(script, opts)
	if err != nil {
		return nil, err
	}
	if err := Optimize(f); err != nil {
		return nil, err
	}
	return f, nil
}

// jumpTarget collects the pending jumps of one breakable statement.
type jumpTarget struct {
	loop      bool
	tries     int
	breaks    []*Statement
	continues []*Statement
}

type label struct {
	block *Block
	tries []int
	span  source.Span
}

type pendingGoto struct {
	jump  *Statement
	name  string
	tries []int
	span  source.Span
}

// tryRegion collects the blocks whose exceptions land in one catch block.
type tryRegion struct {
	blocks []BlockID
}

// builder lowers the AST of one form.
type builder struct {
	f       *Form
	targets []*jumpTarget
	tries   []int
	regions []*tryRegion
	labels  map[string]*label
	gotos   []pendingGoto
}

func newBuilder(f *Form) *builder {
	return &builder{f: f, labels: make(map[string]*label)}
}

func (b *builder) fail(code diag.Code, span source.Span, format string, args ...any) {
	panic(b.f.errorf(code, span, format, args...))
}

// emit appends a statement to the current block.
func (b *builder) emit(op Op, span source.Span, used ...VarID) *Statement {
	s := b.f.newStmt(op, span)
	b.f.insert(b.f.cur, s, AtTail)
	for _, u := range used {
		b.f.use(s, u)
	}
	return s
}

// emitValue appends a statement declaring a fresh temporary.
func (b *builder) emitValue(op Op, span source.Span, used ...VarID) (VarID, *Statement) {
	s := b.emit(op, span, used...)
	return b.f.declare(s, "", ""), s
}

func (b *builder) constant(v value.Value, span source.Span) VarID {
	s := b.emit(OpAssignConst, span)
	return b.f.constant(s, v)
}

func (b *builder) terminated() bool {
	return b.f.Terminator(b.f.cur) != nil
}

// newBlock closes the current block, snapshotting its namespace, and continues
// in a fresh block whose first reads will synthesize phis.
func (b *builder) newBlock(name string) *Block {
	f := b.f
	if !b.terminated() {
		internalf("block %s left without terminator", f.cur)
	}
	f.cur.ns = f.ns.clone()
	f.ns.markToCreatePhi()
	nb := f.addBlock(name)
	f.cur = nb
	for _, r := range b.regions {
		r.blocks = append(r.blocks, nb.ID)
	}
	return nb
}

func (b *builder) setJump(s *Statement, to *Block) {
	s.Target = to.ID
	b.f.addPred(to, b.f.Blocks[s.Block])
}

func (b *builder) setTrue(s *Statement, to *Block) {
	s.True = to.ID
	b.f.addPred(to, b.f.Blocks[s.Block])
}

func (b *builder) setFalse(s *Statement, to *Block) {
	s.False = to.ID
	b.f.addPred(to, b.f.Blocks[s.Block])
}

func (b *builder) setCatch(s *Statement, to *Block) {
	s.Catch = to.ID
	b.f.addPred(to, b.f.Blocks[s.Block])
}

// jumpOut ends the current block with an unresolved jump.
func (b *builder) jumpOut(span source.Span, after string) *Statement {
	j := b.emit(OpJump, span)
	b.newBlock(after)
	return j
}

// exitTries emits exit-try markers for every try entered after depth.
func (b *builder) exitTries(depth int, span source.Span) {
	for i := len(b.tries) - 1; i >= depth; i-- {
		s := b.emit(OpExitTry, span)
		s.Index = b.tries[i]
	}
}

// finish terminates the last block and resolves gotos.
func (b *builder) finish(span source.Span) {
	if !b.terminated() {
		b.exitTries(0, span)
		b.emit(OpReturn, span, b.constant(value.Void(), span))
	}
	b.f.cur.ns = b.f.ns.clone()
	for _, g := range b.gotos {
		l, ok := b.labels[g.name]
		if !ok {
			b.fail(diag.CmpUndefinedLabel, g.span, "label '%s' is not defined", g.name)
		}
		if !slices.Equal(l.tries, g.tries) {
			b.fail(diag.CmpLabelAcrossTry, g.span, "goto '%s' crosses a try boundary", g.name)
		}
		b.setJump(g.jump, l.block)
	}
}

// declareName adds name to the innermost scope and binds it to v.
func (b *builder) declareName(name string, v VarID, span source.Span) {
	b.f.ns.add(name, b.f.sess.number(name))
	b.writeName(name, v, span)
}

// readName loads the current value of a surface name.
func (b *builder) readName(name string, span source.Span) VarID {
	f := b.f
	numbered, sc, _, ok := f.ns.lookup(name)
	if !ok {
		return b.readOuter(name, span)
	}
	v := sc.vars[numbered]
	if v == NoVar {
		v = f.addPhi(f.cur, name, numbered, span)
		sc.vars[numbered] = v
	}
	r, s := b.emitValue(OpReadVar, span, v)
	s.Name = numbered
	return r
}

// writeName binds a new version of a surface name to v.
func (b *builder) writeName(name string, v VarID, span source.Span) {
	f := b.f
	numbered, sc, crossedTry, ok := f.ns.lookup(name)
	if !ok {
		b.writeOuter(name, v, span)
		return
	}
	if crossedTry {
		f.pin(numbered)
	}
	s := b.emit(OpWriteVar, span, v)
	s.Name = numbered
	sc.vars[numbered] = f.declare(s, name, numbered)
}

// resolveOuter finds the nearest enclosing form declaring name.
func (b *builder) resolveOuter(name string) (*Form, string, bool) {
	for p := b.f.Parent; p != nil; p = p.Parent {
		if numbered, _, _, ok := p.ns.lookup(name); ok {
			return p, numbered, true
		}
	}
	return nil, "", false
}

func (b *builder) readOuter(name string, span source.Span) VarID {
	owner, numbered, ok := b.resolveOuter(name)
	if !ok {
		g, _ := b.emitValue(OpAssignGlobal, span)
		r, s := b.emitValue(OpDGet, span, g)
		s.Name = name
		return r
	}
	r, s := b.emitValue(OpParentRead, span)
	b.parentAccess(s, owner, name, numbered)
	if s.Access == ViaAccessMap {
		b.f.Access.recordRead(name)
	}
	return r
}

func (b *builder) writeOuter(name string, v VarID, span source.Span) {
	owner, numbered, ok := b.resolveOuter(name)
	if !ok {
		g, _ := b.emitValue(OpAssignGlobal, span)
		s := b.emit(OpDSet, span, g, v)
		s.Name = name
		return
	}
	s := b.emit(OpParentWrite, span, v)
	b.parentAccess(s, owner, name, numbered)
	if s.Access == ViaAccessMap {
		b.f.Access.recordWrite(name)
	}
}

// parentAccess decides between the lazy block's access map and a pinned shared slot.
func (b *builder) parentAccess(s *Statement, owner *Form, name, numbered string) {
	if b.f.Access != nil {
		s.Access = ViaAccessMap
		s.Name = name
		return
	}
	owner.pin(numbered)
	s.Access = ViaSharedFrame
	s.Name = numbered
	s.Owner = owner
}

// withScope runs fn inside a pushed lexical scope.
func (b *builder) withScope(try bool, fn func()) {
	b.f.ns.push(try)
	fn()
	b.f.ns.pop()
}
