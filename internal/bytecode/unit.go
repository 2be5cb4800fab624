package bytecode

import (
	"fmt"
	"slices"
	"sort"

	"fortio.org/safecast"

	"lumen/internal/source"
	"lumen/internal/value"
)

// Kind tells what a unit was compiled from.
type Kind uint8

const (
	KindScript Kind = iota
	KindFunction
	KindGetter
	KindSetter
	KindBlock
	KindClass
)

var kindNames = [...]string{"script", "function", "getter", "setter", "block", "class"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// SourcePos maps a code offset to a source offset.
type SourcePos struct {
	Code   int32
	Offset uint32
}

// Unit is the output of code generation for one form.
type Unit struct {
	Name   string
	Kind   Kind
	Code   []int32
	Consts []value.Value

	// NumRegisters is the size of the register window, RegisterBase included.
	NumRegisters   int
	RegisterBase   int
	NumSharedSlots int
	NestLevel      int
	NumParams      int
	Collapse       bool
	UnnamedTail    bool
	NumTries       int

	// SourceMap is sorted by Code.
	SourceMap []SourcePos

	// Children, NestedRelocs and TryRelocs are consumed by Fixup.
	Children     []*Unit
	NestedRelocs []int32
	TryRelocs    []int32
}

// Offset returns the source offset of the instruction at pc.
func (u *Unit) Offset(pc int) (uint32, bool) {
	i := sort.Search(len(u.SourceMap), func(i int) bool { return int(u.SourceMap[i].Code) > pc })
	if i == 0 {
		return 0, false
	}
	return u.SourceMap[i-1].Offset, true
}

// Program is a fixed-up, immutable tree of units flattened into one table.
// It may be shared by any number of concurrent executions.
type Program struct {
	SourceName string
	// Lines is the newline index of the source, as in source.File.LineIdx.
	Lines []uint32
	Units []*Unit
	Entry int
}

// Line returns the 1-based source line of pc in u, or 0 when unknown.
func (p *Program) Line(u *Unit, pc int) int {
	off, ok := u.Offset(pc)
	if !ok {
		return 0
	}
	return int(source.LineOf(p.Lines, off))
}

// Fixup flattens root and its descendants into a Program, rewriting child
// unit references to program unit indices and try identifiers to
// program-wide ones. The program holds relocated copies without relocation
// tables; the units reachable from root are not modified.
func Fixup(root *Unit, sourceName string, lines []uint32) (*Program, error) {
	var tree []*Unit
	index := make(map[*Unit]int)
	var collect func(u *Unit)
	collect = func(u *Unit) {
		index[u] = len(tree)
		tree = append(tree, u)
		for _, c := range u.Children {
			collect(c)
		}
	}
	collect(root)

	p := &Program{SourceName: sourceName, Lines: lines, Units: make([]*Unit, len(tree))}
	tryBase := 0
	for i, u := range tree {
		code := slices.Clone(u.Code)
		for _, pos := range u.NestedRelocs {
			child := int(code[pos])
			if child < 0 || child >= len(u.Children) {
				return nil, fmt.Errorf("bytecode: %s: child reference %d out of range at %d", u.Name, child, pos)
			}
			ref, err := safecast.Conv[int32](index[u.Children[child]])
			if err != nil {
				return nil, fmt.Errorf("bytecode: %s: %w", u.Name, err)
			}
			code[pos] = ref
		}
		for _, pos := range u.TryRelocs {
			id := int(code[pos])
			if id < 0 || id >= u.NumTries {
				return nil, fmt.Errorf("bytecode: %s: try id %d out of range at %d", u.Name, id, pos)
			}
			ref, err := safecast.Conv[int32](tryBase + id)
			if err != nil {
				return nil, fmt.Errorf("bytecode: %s: %w", u.Name, err)
			}
			code[pos] = ref
		}
		tryBase += u.NumTries
		fixed := *u
		fixed.Code = code
		fixed.Children = nil
		fixed.NestedRelocs = nil
		fixed.TryRelocs = nil
		p.Units[i] = &fixed
	}
	p.Entry = index[root]
	return p, nil
}
