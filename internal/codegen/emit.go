package codegen

import (
	"lumen/internal/bytecode"
	"lumen/internal/ssa"
)

var loads = map[ssa.Op]bytecode.Opcode{
	ssa.OpAssignThis:   bytecode.OpThis,
	ssa.OpAssignSuper:  bytecode.OpSuper,
	ssa.OpAssignGlobal: bytecode.OpGlobal,
}

func (g *generator) statement(idx int, s *ssa.Statement, blk *ssa.Block) {
	switch s.Op {
	case ssa.OpNop:
		return
	case ssa.OpPhi, ssa.OpReadVar, ssa.OpWriteVar:
		g.internalf("%s survived the SSA passes", s.Op)
	}
	if g.dead[s.ID] {
		return
	}
	defer g.retire(idx, s, blk)
	ops := g.operands(idx, s, blk)
	switch s.Op {
	case ssa.OpAssign:
		dst := g.def(s)
		if dst != ops[0] {
			g.emit(s.Span, bytecode.OpCopy, dst, ops[0])
		}
	case ssa.OpAssignConst:
		g.emit(s.Span, bytecode.OpConst, g.def(s), g.word(g.pool.index(s.Const)))
	case ssa.OpAssignThis, ssa.OpAssignSuper, ssa.OpAssignGlobal:
		g.emit(s.Span, loads[s.Op], g.def(s))
	case ssa.OpAssignParam:
		g.emit(s.Span, bytecode.OpParam, g.def(s), g.word(s.Index))
	case ssa.OpAssignCollapse:
		g.emit(s.Span, bytecode.OpCollapse, g.def(s), g.word(s.Index))
	case ssa.OpNewArray:
		g.emit(s.Span, bytecode.OpArray, append([]int32{g.def(s), g.word(len(ops))}, ops...)...)
	case ssa.OpNewDict:
		g.emit(s.Span, bytecode.OpDict, append([]int32{g.def(s), g.word(len(ops) / 2)}, ops...)...)
	case ssa.OpDefineFunction:
		at := g.emit(s.Span, bytecode.OpFunc, g.def(s), g.child(s))
		g.nested = append(g.nested, g.word(at+2))
	case ssa.OpDefineLazyBlock:
		at := g.emit(s.Span, bytecode.OpBlock, g.def(s), g.child(s), ops[0])
		g.nested = append(g.nested, g.word(at+2))
	case ssa.OpDefineClass:
		super := bytecode.NoReg
		if len(ops) > 0 {
			super = ops[0]
		}
		at := g.emit(s.Span, bytecode.OpClass, g.def(s), super, g.child(s), g.name(s.Name))
		g.nested = append(g.nested, g.word(at+3))
	case ssa.OpDefineProperty:
		getter, setter := bytecode.NoReg, bytecode.NoReg
		rest := ops
		if s.Props&ssa.PropGetter != 0 {
			getter, rest = rest[0], rest[1:]
		}
		if s.Props&ssa.PropSetter != 0 {
			setter = rest[0]
		}
		g.emit(s.Span, bytecode.OpProperty, g.def(s), getter, setter)
	case ssa.OpDefineAccessMap:
		g.emit(s.Span, bytecode.OpAccessMap, g.def(s))
	case ssa.OpEndAccessMap:
		g.emit(s.Span, bytecode.OpEndAccessMap, ops[0])
	case ssa.OpChildWrite:
		g.emit(s.Span, bytecode.OpChildWrite, ops[0], g.name(s.Name), ops[1])
	case ssa.OpChildRead:
		g.emit(s.Span, bytecode.OpChildRead, g.def(s), ops[0], g.name(s.Name))
	case ssa.OpParentRead:
		dst := g.def(s)
		if s.Access == ssa.ViaAccessMap {
			g.emit(s.Span, bytecode.OpMapRead, dst, g.name(s.Name))
			break
		}
		g.emit(s.Span, bytecode.OpSharedRead, dst, g.word(s.Owner.Level), g.slot(s.Owner, s.Name))
	case ssa.OpParentWrite:
		if s.Access == ssa.ViaAccessMap {
			g.emit(s.Span, bytecode.OpMapWrite, g.name(s.Name), ops[0])
			break
		}
		g.emit(s.Span, bytecode.OpSharedWrite, g.word(s.Owner.Level), g.slot(s.Owner, s.Name), ops[0])
	case ssa.OpRead:
		g.emit(s.Span, bytecode.OpSharedRead, g.def(s), g.word(g.f.Level), g.slot(g.f, s.Name))
	case ssa.OpWrite:
		g.emit(s.Span, bytecode.OpSharedWrite, g.word(g.f.Level), g.slot(g.f, s.Name), ops[0])
	case ssa.OpCall:
		this := bytecode.NoReg
		rest := ops[1:]
		if s.Call.HasThis {
			this, rest = rest[0], rest[1:]
		}
		mode, args := g.args(s.Call, rest)
		g.emit(s.Span, bytecode.OpCall, append([]int32{g.def(s), ops[0], this, mode, g.count(s.Call)}, args...)...)
	case ssa.OpNew:
		mode, args := g.args(s.Call, ops[1:])
		g.emit(s.Span, bytecode.OpNew, append([]int32{g.def(s), ops[0], mode, g.count(s.Call)}, args...)...)
	case ssa.OpUnary:
		g.emit(s.Span, bytecode.UnaryOpcode(s.Un), g.def(s), ops[0])
	case ssa.OpBinary:
		g.emit(s.Span, bytecode.BinaryOpcode(s.Bin), g.def(s), ops[0], ops[1])
	case ssa.OpDGet:
		g.emit(s.Span, bytecode.OpDGet, g.def(s), ops[0], g.name(s.Name))
	case ssa.OpIGet:
		g.emit(s.Span, bytecode.OpIGet, g.def(s), ops[0], ops[1])
	case ssa.OpDSet:
		g.emit(s.Span, bytecode.OpDSet, ops[0], g.name(s.Name), ops[1])
	case ssa.OpISet:
		g.emit(s.Span, bytecode.OpISet, ops[0], ops[1], ops[2])
	case ssa.OpDDelete:
		g.emit(s.Span, bytecode.OpDDelete, g.def(s), ops[0], g.name(s.Name))
	case ssa.OpIDelete:
		g.emit(s.Span, bytecode.OpIDelete, g.def(s), ops[0], ops[1])
	case ssa.OpJump:
		g.jump(s, s.Target)
	case ssa.OpBranch:
		t, f := g.thread[s.True], g.thread[s.False]
		if t == f {
			g.jump(s, s.True)
			break
		}
		at := g.emit(s.Span, bytecode.OpBranch, ops[0], 0, 0)
		g.fixups = append(g.fixups, fixup{at: at + 2, from: at, target: t}, fixup{at: at + 3, from: at, target: f})
	case ssa.OpReturn:
		g.emit(s.Span, bytecode.OpReturn, ops[0])
	case ssa.OpThrow:
		g.emit(s.Span, bytecode.OpThrow, ops[0])
	case ssa.OpEnterTry:
		at := g.emit(s.Span, bytecode.OpEnterTry, 0, g.def(s), g.word(s.Index))
		g.fixups = append(g.fixups, fixup{at: at + 1, from: at, target: g.thread[s.Catch]})
		g.tryRelocs = append(g.tryRelocs, g.word(at+3))
		g.jump(s, s.Target)
	case ssa.OpExitTry:
		at := g.emit(s.Span, bytecode.OpExitTry, g.word(s.Index))
		g.tryRelocs = append(g.tryRelocs, g.word(at+1))
	default:
		g.internalf("no instruction for %s", s.Op)
	}
}

// pure reports whether op only produces its result.
func pure(op ssa.Op) bool {
	switch op {
	case ssa.OpAssign, ssa.OpAssignConst, ssa.OpAssignThis, ssa.OpAssignSuper, ssa.OpAssignGlobal,
		ssa.OpAssignParam, ssa.OpAssignCollapse, ssa.OpNewArray, ssa.OpNewDict,
		ssa.OpDefineFunction, ssa.OpDefineProperty, ssa.OpRead, ssa.OpParentRead:
		return true
	}
	return false
}

func (g *generator) child(s *ssa.Statement) int32 {
	i := g.f.ChildIndex(s.Child)
	if i < 0 {
		g.internalf("%s is not a child of %s", s.Child.Name, g.f.Name)
	}
	return g.word(i)
}

func (g *generator) slot(owner *ssa.Form, numbered string) int32 {
	slot, ok := owner.SharedSlot(numbered)
	if !ok {
		g.internalf("%s is not pinned in %s", numbered, owner.Name)
	}
	return g.word(slot)
}

// count is the number of argument items the call instruction lists.
func (g *generator) count(c *ssa.CallInfo) int32 {
	return g.word(len(c.Args))
}

// args encodes the argument list and picks the call mode.
func (g *generator) args(c *ssa.CallInfo, regs []int32) (int32, []int32) {
	expand := false
	for _, k := range c.Args {
		if k != ssa.ArgPlain {
			expand = true
		}
	}
	switch {
	case expand:
		out := make([]int32, 0, 2*len(c.Args))
		i := 0
		for _, k := range c.Args {
			switch k {
			case ssa.ArgUnnamedExpand:
				out = append(out, bytecode.ArgUnnamed, bytecode.NoReg)
			case ssa.ArgExpand:
				out = append(out, bytecode.ArgExpand, regs[i])
				i++
			default:
				out = append(out, bytecode.ArgPlain, regs[i])
				i++
			}
		}
		if c.Omit {
			g.internalf("argument omission combined with expansion")
		}
		return bytecode.CallExpand, out
	case c.Omit:
		return bytecode.CallOmit, regs
	}
	return bytecode.CallFixed, regs
}
