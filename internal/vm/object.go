package vm

import (
	"slices"
	"strings"
	"sync"

	"lumen/internal/bytecode"
	"lumen/internal/value"
)

// Array is a growable list of values.
type Array struct {
	Elems []value.Value
}

func (*Array) TypeName() string { return "array" }

func (a *Array) String() string {
	parts := make([]string, len(a.Elems))
	for i, e := range a.Elems {
		parts[i] = e.Repr()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Dict maps string keys to values and remembers insertion order.
type Dict struct {
	keys []string
	vals map[string]value.Value
}

func NewDict() *Dict {
	return &Dict{vals: make(map[string]value.Value)}
}

func (*Dict) TypeName() string { return "dictionary" }

func (d *Dict) Get(key string) (value.Value, bool) {
	v, ok := d.vals[key]
	return v, ok
}

func (d *Dict) Set(key string, v value.Value) {
	if _, ok := d.vals[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.vals[key] = v
}

// Delete removes key and reports whether it was present.
func (d *Dict) Delete(key string) bool {
	if _, ok := d.vals[key]; !ok {
		return false
	}
	delete(d.vals, key)
	d.keys = slices.DeleteFunc(d.keys, func(k string) bool { return k == key })
	return true
}

func (d *Dict) Keys() []string { return slices.Clone(d.keys) }

func (d *Dict) Len() int { return len(d.keys) }

func (d *Dict) String() string {
	parts := make([]string, len(d.keys))
	for i, k := range d.keys {
		parts[i] = value.Str(k).Repr() + " => " + d.vals[k].Repr()
	}
	return "%[" + strings.Join(parts, ", ") + "]"
}

// Class holds the members defined by a class body.
type Class struct {
	Name    string
	Super   *Class
	Members *Dict
}

func (*Class) TypeName() string { return "class" }

func (c *Class) String() string { return "[class " + c.Name + "]" }

// lookup finds a member on c or its ancestors.
func (c *Class) lookup(name string) (value.Value, bool) {
	for k := c; k != nil; k = k.Super {
		if v, ok := k.Members.Get(name); ok {
			return v, true
		}
	}
	return value.Void(), false
}

// Instance is an object created by new.
type Instance struct {
	Class  *Class
	Fields *Dict
}

func (i *Instance) TypeName() string { return i.Class.Name }

// Property dispatches member reads and writes to accessor functions.
type Property struct {
	Name   string
	Getter value.Value
	Setter value.Value
}

func (*Property) TypeName() string { return "property" }

// SuperProxy resolves members starting at a superclass while keeping the receiver.
type SuperProxy struct {
	Class *Class
	This  value.Value
}

func (*SuperProxy) TypeName() string { return "super" }

// AccessMap carries the caller's locals into a lazy block and back out.
// A block may escape and run on another goroutine while its caller is
// still copying names in or out.
type AccessMap struct {
	mu     sync.Mutex
	vals   map[string]value.Value
	closed bool
}

func newAccessMap() *AccessMap {
	return &AccessMap{vals: make(map[string]value.Value)}
}

func (*AccessMap) TypeName() string { return "accessmap" }

// get and put serve the caller, which may use the map after closing it.
func (m *AccessMap) get(name string) value.Value {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.vals[name]
}

func (m *AccessMap) put(name string, v value.Value) {
	m.mu.Lock()
	m.vals[name] = v
	m.mu.Unlock()
}

func (m *AccessMap) close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
}

// load and store serve the block; both fail once the caller closed the map.
func (m *AccessMap) load(name string) (value.Value, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return value.Void(), false
	}
	return m.vals[name], true
}

func (m *AccessMap) store(name string, v value.Value) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false
	}
	m.vals[name] = v
	return true
}

// SharedFrame holds the pinned variables of one activation. Closures created
// by that activation or its descendants reach it by nesting level, possibly
// from several goroutines at once.
type SharedFrame struct {
	mu    sync.Mutex
	slots []value.Value
}

func newSharedFrame(n int) *SharedFrame {
	return &SharedFrame{slots: make([]value.Value, n)}
}

func (s *SharedFrame) load(slot int) value.Value {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slots[slot]
}

func (s *SharedFrame) store(slot int, v value.Value) {
	s.mu.Lock()
	s.slots[slot] = v
	s.mu.Unlock()
}

// Closure is a compiled unit bound to the shared frames visible where it was created.
type Closure struct {
	Unit  *bytecode.Unit
	Chain []*SharedFrame
	This  value.Value
	// Home is the class whose body defined the closure; super starts at its superclass.
	Home      *Class
	AccessMap *AccessMap
}

func (c *Closure) TypeName() string {
	if c.Unit.Kind == bytecode.KindBlock {
		return "block"
	}
	return "function"
}

func (c *Closure) String() string { return "[function " + c.Unit.Name + "]" }

// NativeFunc implements a function in Go. this is void for plain calls.
type NativeFunc func(t *Thread, this value.Value, args []value.Value) (value.Value, error)

// NativeFunction exposes a NativeFunc to scripts.
type NativeFunction struct {
	Name string
	Fn   NativeFunc
}

func (*NativeFunction) TypeName() string { return "function" }

func (n *NativeFunction) String() string { return "[native " + n.Name + "]" }

// Exception is the value of errors raised by the VM itself.
type Exception struct {
	Name    string
	Message string
	Trace   string
}

func (*Exception) TypeName() string { return "exception" }

func (e *Exception) String() string { return e.Name + ": " + e.Message }
