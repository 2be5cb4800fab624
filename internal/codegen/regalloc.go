package codegen

import (
	"maps"
	"slices"

	"lumen/internal/ssa"
)

// allocator hands out registers from a free list. A variable keeps its
// register from the first block of the emission order it is live in until
// the last one; variables confined to a single block give their register
// back right after their last use.
type allocator struct {
	base  int32
	next  int32
	high  int32
	free  []int32
	regs  map[ssa.VarID]int32
	first map[ssa.VarID]int
	last  map[ssa.VarID]int
}

func newAllocator(base int32) *allocator {
	return &allocator{
		base:  base,
		next:  base,
		high:  base,
		regs:  make(map[ssa.VarID]int32),
		first: make(map[ssa.VarID]int),
		last:  make(map[ssa.VarID]int),
	}
}

// span records every block position at which v must hold its register.
func (a *allocator) span(v ssa.VarID, pos int) {
	if f, ok := a.first[v]; !ok || pos < f {
		a.first[v] = pos
	}
	if l, ok := a.last[v]; !ok || pos > l {
		a.last[v] = pos
	}
}

// local reports whether v lives in block pos only.
func (a *allocator) local(v ssa.VarID, pos int) bool {
	return a.first[v] == pos && a.last[v] == pos
}

func (a *allocator) get(v ssa.VarID) (int32, bool) {
	r, ok := a.regs[v]
	return r, ok
}

// assign returns the register of v, taking one from the free list if needed.
func (a *allocator) assign(v ssa.VarID) int32 {
	if r, ok := a.regs[v]; ok {
		return r
	}
	var r int32
	if n := len(a.free); n > 0 {
		// Lowest register first keeps listings readable.
		slices.Sort(a.free)
		r = a.free[0]
		a.free = a.free[1:]
	} else {
		r = a.next
		a.next++
		a.high = max(a.high, a.next)
	}
	a.regs[v] = r
	return r
}

func (a *allocator) release(v ssa.VarID) {
	r, ok := a.regs[v]
	if !ok {
		return
	}
	delete(a.regs, v)
	a.free = append(a.free, r)
}

// releaseEnding frees every variable whose last block is pos.
func (a *allocator) releaseEnding(pos int) {
	for _, v := range slices.Sorted(maps.Keys(a.regs)) {
		if a.last[v] <= pos {
			a.release(v)
		}
	}
}

// NumRegisters is the high watermark, base included.
func (a *allocator) numRegisters() int {
	return int(a.high)
}
