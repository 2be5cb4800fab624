package codegen

import (
	"lumen/internal/bytecode"
	"lumen/internal/ssa"
)

// threadJumps maps every block to the block control really lands in:
// a block holding nothing but a jump forwards to its target. Cycles of
// such blocks are left alone.
func (g *generator) threadJumps() {
	for _, id := range g.f.Order {
		t := id
		seen := make(map[ssa.BlockID]bool)
		for {
			next := g.forward(t)
			if next == ssa.NoBlock {
				break
			}
			if seen[t] {
				t = id
				break
			}
			seen[t] = true
			t = next
		}
		g.thread[id] = t
	}
}

// forward returns the target of a block that only jumps, or NoBlock.
func (g *generator) forward(id ssa.BlockID) ssa.BlockID {
	blk := g.f.Block(id)
	if blk.First == ssa.NoStmt || blk.First != blk.Last {
		return ssa.NoBlock
	}
	s := g.f.Stmts[blk.First]
	if s.Op != ssa.OpJump {
		return ssa.NoBlock
	}
	return s.Target
}

// jump transfers control to target, falling through when it is emitted next.
func (g *generator) jump(s *ssa.Statement, target ssa.BlockID) {
	t := g.thread[target]
	if g.pos+1 < len(g.order) && g.order[g.pos+1] == t {
		return
	}
	at := g.emit(s.Span, bytecode.OpJump, 0)
	g.fixups = append(g.fixups, fixup{at: at + 1, from: at, target: t})
}

// patch writes jump offsets. A jump that lands on another jump, which
// happens when the copies ahead of it were all coalesced away, goes straight
// to the final destination.
func (g *generator) patch() {
	jumps := make(map[int]ssa.BlockID)
	for _, fx := range g.fixups {
		if bytecode.Opcode(g.code[fx.from]) == bytecode.OpJump {
			jumps[fx.from] = fx.target
		}
	}
	for _, fx := range g.fixups {
		addr := g.land(fx.target)
		seen := make(map[int]bool)
		for {
			next, ok := jumps[addr]
			if !ok || seen[addr] {
				break
			}
			seen[addr] = true
			addr = g.land(next)
		}
		g.code[fx.at] = g.word(addr - fx.from)
	}
}

func (g *generator) land(target ssa.BlockID) int {
	addr, ok := g.addr[target]
	if !ok {
		g.internalf("jump to block %d, which was not emitted", target)
	}
	return addr
}
