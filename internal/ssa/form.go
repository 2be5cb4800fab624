package ssa

import (
	"fmt"
	"slices"

	"lumen/internal/source"
	"lumen/internal/value"
)

// FormKind is the kind of unit a Form compiles to.
type FormKind uint8

const (
	FormScript FormKind = iota
	FormFunction
	FormGetter
	FormSetter
	FormLazyBlock
	FormClass
)

func (k FormKind) String() string {
	switch k {
	case FormScript:
		return "script"
	case FormFunction:
		return "function"
	case FormGetter:
		return "getter"
	case FormSetter:
		return "setter"
	case FormLazyBlock:
		return "block"
	case FormClass:
		return "class"
	}
	return fmt.Sprintf("FormKind(%d)", uint8(k))
}

// session is the state shared by every form of one compilation.
type session struct {
	names    map[string]int
	versions map[string]int
	fold     bool
	warn     func(*CompileError)
	temps    int
}

func newSession(opts Options) *session {
	return &session{
		names:    make(map[string]int),
		versions: make(map[string]int),
		fold:     opts.FoldConstants,
		warn:     opts.Warn,
	}
}

func (s *session) number(name string) string {
	s.names[name]++
	return fmt.Sprintf("%s#%d", name, s.names[name])
}

func (s *session) version(numbered string) int {
	s.versions[numbered]++
	return s.versions[numbered]
}

func (s *session) warning(e *CompileError) {
	if s.warn != nil {
		s.warn(e)
	}
}

// hiddenName returns a name no source identifier can spell.
func (s *session) hiddenName(prefix string) string {
	s.temps++
	return fmt.Sprintf("%%%s%d", prefix, s.temps)
}

// Form is the SSA representation of one compiled unit. It owns its blocks,
// statements and variables; IDs index the arenas below.
type Form struct {
	Name     string
	Kind     FormKind
	Span     source.Span
	Parent   *Form
	Children []*Form
	// Level is the nesting depth; shared frames are addressed by it.
	Level int

	NumParams   int
	Collapse    bool
	UnnamedTail bool

	Blocks []*Block
	Stmts  []*Statement
	Vars   []*Variable
	Entry  BlockID
	// Order lists live blocks breadth-first from the entry once dead blocks are gone.
	Order []BlockID

	// Pinned maps pinned numbered names to their shared frame slot.
	Pinned      map[string]int
	PinnedNames []string
	// Access is set on lazy blocks.
	Access *AccessMap
	// TryCount is the number of try statements; try ids are 0..TryCount-1.
	TryCount int

	ns   *Namespace
	cur  *Block
	sess *session
}

func newForm(sess *session, parent *Form, kind FormKind, name string, span source.Span) *Form {
	f := &Form{
		Name:   name,
		Kind:   kind,
		Span:   span,
		Parent: parent,
		Pinned: make(map[string]int),
		ns:     newNamespace(),
		sess:   sess,
	}
	if parent != nil {
		f.Level = parent.Level + 1
		parent.Children = append(parent.Children, f)
	}
	if kind == FormLazyBlock {
		f.Access = newAccessMap()
	}
	entry := f.addBlock("entry")
	f.Entry = entry.ID
	f.cur = entry
	return f
}

// ChildIndex returns the position of c among f's children.
func (f *Form) ChildIndex(c *Form) int {
	return slices.Index(f.Children, c)
}

// Block returns the block with the given id.
func (f *Form) Block(id BlockID) *Block { return f.Blocks[id] }

// Var returns the variable with the given id.
func (f *Form) Var(id VarID) *Variable { return f.Vars[id] }

// SharedSlot returns the shared frame slot of a pinned numbered name.
func (f *Form) SharedSlot(numbered string) (int, bool) {
	slot, ok := f.Pinned[numbered]
	return slot, ok
}

func (f *Form) pin(numbered string) {
	if _, ok := f.Pinned[numbered]; ok {
		return
	}
	f.Pinned[numbered] = len(f.PinnedNames)
	f.PinnedNames = append(f.PinnedNames, numbered)
}

func (f *Form) addBlock(name string) *Block {
	b := &Block{
		ID:    BlockID(len(f.Blocks)),
		Name:  name,
		First: NoStmt,
		Last:  NoStmt,
		Alive: true,
	}
	f.Blocks = append(f.Blocks, b)
	return b
}

func (f *Form) newStmt(op Op, span source.Span) *Statement {
	s := &Statement{
		ID:       StmtID(len(f.Stmts)),
		Op:       op,
		Span:     span,
		Block:    NoBlock,
		Prev:     NoStmt,
		Next:     NoStmt,
		Declared: NoVar,
		Target:   NoBlock,
		True:     NoBlock,
		False:    NoBlock,
		Catch:    NoBlock,
	}
	f.Stmts = append(f.Stmts, s)
	return s
}

// declare makes s the declaring statement of a new variable.
func (f *Form) declare(s *Statement, name, numbered string) VarID {
	v := &Variable{ID: VarID(len(f.Vars)), Name: name, Numbered: numbered, Decl: s.ID}
	if numbered != "" {
		v.Version = f.sess.version(numbered)
	}
	f.Vars = append(f.Vars, v)
	s.Declared = v.ID
	return v.ID
}

// newTemp makes a variable whose declaring statement is set by the caller.
func (f *Form) newTemp() VarID {
	v := &Variable{ID: VarID(len(f.Vars)), Decl: NoStmt}
	f.Vars = append(f.Vars, v)
	return v.ID
}

func (f *Form) use(s *Statement, v VarID) {
	s.Used = append(s.Used, v)
	f.Vars[v].addUse(s.ID)
}

func (f *Form) constant(s *Statement, v value.Value) VarID {
	id := f.declare(s, "", "")
	s.Const = v
	vr := f.Vars[id]
	vr.IsConst = true
	vr.Const = v
	vr.Fixed = v.Kind()
	vr.HasFixed = v.Kind() != value.KindObject
	return id
}

// Walk calls fn for f and every descendant, parents first.
func (f *Form) Walk(fn func(*Form) error) error {
	if err := fn(f); err != nil {
		return err
	}
	for _, c := range f.Children {
		if err := c.Walk(fn); err != nil {
			return err
		}
	}
	return nil
}
