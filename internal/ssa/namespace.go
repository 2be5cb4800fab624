package ssa

type scope struct {
	// aliases maps surface names to numbered names declared in this scope.
	aliases map[string]string
	// vars holds the current version of each numbered name; NoVar means a phi is needed.
	vars map[string]VarID
	// try marks the outermost scope of a try body.
	try bool
}

func newScope() *scope {
	return &scope{aliases: make(map[string]string), vars: make(map[string]VarID)}
}

// Namespace is the lexical scope stack of a form at one point of the source.
// The form keeps one live namespace; each block keeps a snapshot of it taken
// when control leaves the block.
type Namespace struct {
	scopes []*scope
}

func newNamespace() *Namespace {
	return &Namespace{scopes: []*scope{newScope()}}
}

func (ns *Namespace) push(try bool) {
	sc := newScope()
	sc.try = try
	ns.scopes = append(ns.scopes, sc)
}

func (ns *Namespace) pop() {
	ns.scopes = ns.scopes[:len(ns.scopes)-1]
}

func (ns *Namespace) depth() int { return len(ns.scopes) }

// add declares name in the innermost scope.
func (ns *Namespace) add(name, numbered string) {
	sc := ns.scopes[len(ns.scopes)-1]
	sc.aliases[name] = numbered
	sc.vars[numbered] = NoVar
}

// lookup resolves a surface name, innermost scope first. crossedTry reports
// whether a try body boundary lies between the innermost scope and the declaration.
func (ns *Namespace) lookup(name string) (numbered string, sc *scope, crossedTry bool, ok bool) {
	for i := len(ns.scopes) - 1; i >= 0; i-- {
		s := ns.scopes[i]
		if n, found := s.aliases[name]; found {
			return n, s, crossedTry, true
		}
		if s.try {
			crossedTry = true
		}
	}
	return "", nil, false, false
}

// find locates the scope holding a numbered name.
func (ns *Namespace) find(numbered string) (*scope, bool) {
	for i := len(ns.scopes) - 1; i >= 0; i-- {
		if _, ok := ns.scopes[i].vars[numbered]; ok {
			return ns.scopes[i], true
		}
	}
	return nil, false
}

func (ns *Namespace) clone() *Namespace {
	out := &Namespace{scopes: make([]*scope, len(ns.scopes))}
	for i, s := range ns.scopes {
		c := &scope{
			aliases: make(map[string]string, len(s.aliases)),
			vars:    make(map[string]VarID, len(s.vars)),
			try:     s.try,
		}
		for k, v := range s.aliases {
			c.aliases[k] = v
		}
		for k, v := range s.vars {
			c.vars[k] = v
		}
		out.scopes[i] = c
	}
	return out
}

// markToCreatePhi forgets every current version so the next read in the new
// block synthesizes a phi over its predecessors.
func (ns *Namespace) markToCreatePhi() {
	for _, s := range ns.scopes {
		for k := range s.vars {
			s.vars[k] = NoVar
		}
	}
}

// AccessMap records which outer names a lazy block reads and writes.
type AccessMap struct {
	Reads  []string
	Writes []string
	read   map[string]bool
	write  map[string]bool
}

func newAccessMap() *AccessMap {
	return &AccessMap{read: make(map[string]bool), write: make(map[string]bool)}
}

func (m *AccessMap) recordRead(name string) {
	if !m.read[name] {
		m.read[name] = true
		m.Reads = append(m.Reads, name)
	}
}

func (m *AccessMap) recordWrite(name string) {
	if !m.write[name] {
		m.write[name] = true
		m.Writes = append(m.Writes, name)
	}
}
