// Package codegen turns optimized SSA forms into bytecode units: it assigns
// registers, emits instructions with their constant pool and source map, and
// resolves jumps once every block has an address.
package codegen

import (
	"fmt"

	"fortio.org/safecast"

	"lumen/internal/bytecode"
	"lumen/internal/source"
	"lumen/internal/ssa"
	"lumen/internal/value"
)

var unitKinds = [...]bytecode.Kind{
	ssa.FormScript:    bytecode.KindScript,
	ssa.FormFunction:  bytecode.KindFunction,
	ssa.FormGetter:    bytecode.KindGetter,
	ssa.FormSetter:    bytecode.KindSetter,
	ssa.FormLazyBlock: bytecode.KindBlock,
	ssa.FormClass:     bytecode.KindClass,
}

// Generate compiles root and its descendants. The forms must have been
// through ssa.Optimize. The result still carries relocations; pass it to
// bytecode.Fixup.
func Generate(root *ssa.Form) (*bytecode.Unit, error) {
	return generate(root, 0)
}

func generate(f *ssa.Form, base int32) (u *bytecode.Unit, err error) {
	if f.Order == nil {
		return nil, fmt.Errorf("codegen: %s has not been optimized", f.Name)
	}
	u, err = generateForm(f, base)
	if err != nil {
		return nil, err
	}
	for _, c := range f.Children {
		// A lazy block runs while its caller's registers are still in use.
		var cbase int32
		if c.Kind == ssa.FormLazyBlock {
			cbase, err = safecast.Conv[int32](u.NumRegisters)
			if err != nil {
				return nil, fmt.Errorf("codegen: %s: %w", c.Name, err)
			}
		}
		cu, err := generate(c, cbase)
		if err != nil {
			return nil, err
		}
		u.Children = append(u.Children, cu)
	}
	return u, nil
}

type fixup struct {
	at     int
	from   int
	target ssa.BlockID
}

type generator struct {
	f    *ssa.Form
	code []int32
	pool constPool
	regs *allocator

	order  []ssa.BlockID
	thread map[ssa.BlockID]ssa.BlockID
	addr   map[ssa.BlockID]int
	fixups []fixup

	// refs counts the reads of each variable by live statements.
	refs map[ssa.VarID]int
	dead map[ssa.StmtID]bool

	// per block
	pos     int
	lastUse map[ssa.VarID]int

	srcmap    []bytecode.SourcePos
	lastSpan  source.Span
	hasSpan   bool
	nested    []int32
	tryRelocs []int32
}

func generateForm(f *ssa.Form, base int32) (u *bytecode.Unit, err error) {
	defer recoverInternal(&err)
	g := &generator{
		f:      f,
		regs:   newAllocator(base),
		thread: make(map[ssa.BlockID]ssa.BlockID),
		addr:   make(map[ssa.BlockID]int),
	}
	g.threadJumps()
	g.plan()
	g.sweep()
	g.span()
	for i, id := range g.order {
		g.block(i, g.f.Block(id))
	}
	g.patch()
	return &bytecode.Unit{
		Name:           f.Name,
		Kind:           unitKinds[f.Kind],
		Code:           g.code,
		Consts:         g.pool.values,
		NumRegisters:   g.regs.numRegisters(),
		RegisterBase:   int(base),
		NumSharedSlots: len(f.PinnedNames),
		NestLevel:      f.Level,
		NumParams:      f.NumParams,
		Collapse:       f.Collapse,
		UnnamedTail:    f.UnnamedTail,
		NumTries:       f.TryCount,
		SourceMap:      g.srcmap,
		NestedRelocs:   g.nested,
		TryRelocs:      g.tryRelocs,
	}, nil
}

// plan fixes the emission order.
func (g *generator) plan() {
	f := g.f
	for _, id := range f.Order {
		if id == f.Entry || g.thread[id] == id {
			g.order = append(g.order, id)
		}
	}
}

// sweep marks side-effect free statements whose result is never read,
// directly or through other dead statements.
func (g *generator) sweep() {
	g.refs = make(map[ssa.VarID]int)
	g.dead = make(map[ssa.StmtID]bool)
	var candidates []*ssa.Statement
	for _, id := range g.order {
		for _, s := range g.f.Statements(g.f.Block(id)) {
			for _, u := range s.Used {
				g.refs[u]++
			}
			if s.Declared != ssa.NoVar && pure(s.Op) {
				candidates = append(candidates, s)
			}
		}
	}
	for changed := true; changed; {
		changed = false
		for _, s := range candidates {
			if g.dead[s.ID] || g.refs[s.Declared] > 0 {
				continue
			}
			g.dead[s.ID] = true
			changed = true
			for _, u := range s.Used {
				g.refs[u]--
			}
		}
	}
}

// span records the blocks each read variable occupies a register in.
func (g *generator) span() {
	for i, id := range g.order {
		blk := g.f.Block(id)
		for v := range blk.LiveIn {
			g.spanVar(v, i)
		}
		for v := range blk.LiveOut {
			g.spanVar(v, i)
		}
		for _, s := range g.f.Statements(blk) {
			if g.dead[s.ID] {
				continue
			}
			if s.Declared != ssa.NoVar {
				g.spanVar(s.Declared, i)
			}
			for _, u := range s.Used {
				g.spanVar(u, i)
			}
		}
	}
}

func (g *generator) spanVar(v ssa.VarID, pos int) {
	if g.refs[v] > 0 {
		g.regs.span(v, pos)
	}
}

func (g *generator) block(i int, blk *ssa.Block) {
	g.pos = i
	g.addr[blk.ID] = len(g.code)
	for _, v := range blk.LiveIn.Sorted() {
		if g.refs[v] > 0 {
			g.regs.assign(v)
		}
	}
	stmts := g.f.Statements(blk)
	g.lastUse = make(map[ssa.VarID]int)
	for idx, s := range stmts {
		if g.dead[s.ID] {
			continue
		}
		for _, u := range s.Used {
			g.lastUse[u] = idx
		}
		if s.Declared != ssa.NoVar {
			g.lastUse[s.Declared] = max(g.lastUse[s.Declared], idx)
		}
	}
	for idx, s := range stmts {
		g.statement(idx, s, blk)
	}
	g.regs.releaseEnding(i)
}

// dying reports whether v can give its register back after statement idx.
func (g *generator) dying(v ssa.VarID, idx int, blk *ssa.Block) bool {
	return g.regs.local(v, g.pos) && !blk.LiveOut.Has(v) && g.lastUse[v] <= idx
}

// use returns the register holding v.
func (g *generator) use(v ssa.VarID) int32 {
	r, ok := g.regs.get(v)
	if !ok {
		g.internalf("%s is used before it has a register", g.f.Var(v))
	}
	return r
}

// operands maps the statement's operands to registers and frees the ones
// that die here, so the result may reuse them.
func (g *generator) operands(idx int, s *ssa.Statement, blk *ssa.Block) []int32 {
	regs := make([]int32, len(s.Used))
	for i, u := range s.Used {
		regs[i] = g.use(u)
	}
	for _, u := range s.Used {
		if g.dying(u, idx, blk) {
			g.regs.release(u)
		}
	}
	return regs
}

// def returns the destination register of s, or NoReg when nothing reads it.
func (g *generator) def(s *ssa.Statement) int32 {
	v := s.Declared
	if v == ssa.NoVar || g.refs[v] == 0 {
		return bytecode.NoReg
	}
	return g.regs.assign(v)
}

// retire frees the destination of s when it is never read past idx.
func (g *generator) retire(idx int, s *ssa.Statement, blk *ssa.Block) {
	if s.Declared != ssa.NoVar && g.dying(s.Declared, idx, blk) {
		g.regs.release(s.Declared)
	}
}

// emit appends one instruction and checks its width against the opcode table.
func (g *generator) emit(span source.Span, op bytecode.Opcode, operands ...int32) int {
	start := len(g.code)
	g.mark(span, start)
	g.code = append(g.code, int32(op))
	g.code = append(g.code, operands...)
	w, err := bytecode.Width(g.code, start)
	if err != nil || w != len(g.code)-start {
		g.internalf("%s emitted with %d operands", op, len(operands))
	}
	return start
}

func (g *generator) mark(span source.Span, pc int) {
	if g.hasSpan && g.lastSpan.Start == span.Start {
		return
	}
	g.srcmap = append(g.srcmap, bytecode.SourcePos{Code: g.word(pc), Offset: span.Start})
	g.lastSpan = span
	g.hasSpan = true
}

// name returns the constant slot of a member or variable name.
func (g *generator) name(n string) int32 {
	return g.word(g.pool.index(value.Str(n)))
}
