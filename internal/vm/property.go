package vm

import (
	"unicode/utf8"

	"lumen/internal/value"
)

// dget reads the member name of obj.
func (t *Thread) dget(obj value.Value, name string) (value.Value, error) {
	switch obj.Kind() {
	case value.KindString:
		if name == "length" {
			return value.Int(int64(utf8.RuneCountInString(obj.AsString()))), nil
		}
		return value.Void(), t.eb.typeError("string has no member '%s'", name)
	case value.KindOctet:
		if name == "length" {
			return value.Int(int64(len(obj.AsOctet()))), nil
		}
		return value.Void(), t.eb.typeError("octet has no member '%s'", name)
	case value.KindObject:
	default:
		return value.Void(), t.eb.typeError("cannot read member '%s' of %s", name, obj.TypeName())
	}
	switch o := obj.AsObject().(type) {
	case *Array:
		if name == "length" {
			return value.Int(int64(len(o.Elems))), nil
		}
		if m, ok := arrayMethods[name]; ok {
			return value.Obj(m), nil
		}
	case *Dict:
		v, _ := o.Get(name)
		return v, nil
	case *Instance:
		if v, ok := o.Fields.Get(name); ok {
			return v, nil
		}
		if v, ok := o.Class.lookup(name); ok {
			return t.readMember(v, obj)
		}
		if o == t.vm.global {
			return value.Void(), t.eb.raise("ReferenceError", "'%s' is not defined", name)
		}
	case *Class:
		if v, ok := o.lookup(name); ok {
			return t.readMember(v, obj)
		}
	case *SuperProxy:
		if v, ok := o.Class.lookup(name); ok {
			return t.readMember(v, o.This)
		}
	case *Exception:
		switch name {
		case "name":
			return value.Str(o.Name), nil
		case "message":
			return value.Str(o.Message), nil
		case "trace":
			return value.Str(o.Trace), nil
		}
	}
	return value.Void(), t.eb.raise("ReferenceError", "member '%s' not found in %s", name, obj.TypeName())
}

// readMember calls the getter of a property found by lookup.
func (t *Thread) readMember(v, this value.Value) (value.Value, error) {
	p, ok := v.AsObject().(*Property)
	if !ok {
		return v, nil
	}
	if p.Getter.IsVoid() {
		return value.Void(), t.eb.typeError("property is write-only")
	}
	return t.call(p.Getter, this, nil)
}

// dset writes the member name of obj.
func (t *Thread) dset(obj value.Value, name string, v value.Value) error {
	if obj.Kind() != value.KindObject {
		return t.eb.typeError("cannot set member '%s' of %s", name, obj.TypeName())
	}
	switch o := obj.AsObject().(type) {
	case *Array:
		if name == "length" {
			n, err := v.ToInt()
			if err != nil || n < 0 {
				return t.eb.typeError("invalid array length %s", v.Repr())
			}
			o.resize(int(n))
			return nil
		}
	case *Dict:
		o.Set(name, v)
		return nil
	case *Instance:
		if handled, err := t.writeProperty(o.Class, name, obj, v); handled {
			return err
		}
		o.Fields.Set(name, v)
		return nil
	case *Class:
		o.Members.Set(name, v)
		return nil
	case *SuperProxy:
		if handled, err := t.writeProperty(o.Class, name, o.This, v); handled {
			return err
		}
		return t.dset(o.This, name, v)
	}
	return t.eb.typeError("cannot set member '%s' of %s", name, obj.TypeName())
}

// writeProperty calls the setter when name resolves to a property of cls.
func (t *Thread) writeProperty(cls *Class, name string, this, v value.Value) (bool, error) {
	m, ok := cls.lookup(name)
	if !ok {
		return false, nil
	}
	p, ok := m.AsObject().(*Property)
	if !ok {
		return false, nil
	}
	if p.Setter.IsVoid() {
		return true, t.eb.typeError("property '%s' is read-only", name)
	}
	_, err := t.call(p.Setter, this, []value.Value{v})
	return true, err
}

// iget reads obj[key].
func (t *Thread) iget(obj, key value.Value) (value.Value, error) {
	i, isIndex := index(key)
	switch obj.Kind() {
	case value.KindString:
		if !isIndex {
			return t.dget(obj, key.String())
		}
		for n, r := range []rune(obj.AsString()) {
			if n == i {
				return value.Str(string(r)), nil
			}
		}
		return value.Void(), nil
	case value.KindOctet:
		if !isIndex {
			return t.dget(obj, key.String())
		}
		b := obj.AsOctet()
		if i < 0 || i >= len(b) {
			return value.Void(), nil
		}
		return value.Int(int64(b[i])), nil
	}
	if a, ok := obj.AsObject().(*Array); ok && isIndex {
		if i < 0 || i >= len(a.Elems) {
			return value.Void(), nil
		}
		return a.Elems[i], nil
	}
	return t.dget(obj, key.String())
}

// iset writes obj[key]. Writing past the end of an array extends it with void.
func (t *Thread) iset(obj, key, v value.Value) error {
	if a, ok := obj.AsObject().(*Array); ok {
		i, isIndex := index(key)
		if !isIndex {
			return t.dset(obj, key.String(), v)
		}
		if i < 0 {
			return t.eb.raise("RangeError", "array index %d out of range", i)
		}
		if i >= len(a.Elems) {
			a.resize(i + 1)
		}
		a.Elems[i] = v
		return nil
	}
	return t.dset(obj, key.String(), v)
}

// ddelete removes the member name and reports whether it existed.
func (t *Thread) ddelete(obj value.Value, name string) (value.Value, error) {
	switch o := obj.AsObject().(type) {
	case *Dict:
		return value.Bool(o.Delete(name)), nil
	case *Instance:
		return value.Bool(o.Fields.Delete(name)), nil
	case *Class:
		return value.Bool(o.Members.Delete(name)), nil
	}
	return value.Void(), t.eb.typeError("cannot delete member '%s' of %s", name, obj.TypeName())
}

// idelete removes obj[key]; array elements after it move down.
func (t *Thread) idelete(obj, key value.Value) (value.Value, error) {
	if a, ok := obj.AsObject().(*Array); ok {
		i, isIndex := index(key)
		if !isIndex || i < 0 || i >= len(a.Elems) {
			return value.Bool(false), nil
		}
		a.Elems = append(a.Elems[:i], a.Elems[i+1:]...)
		return value.Bool(true), nil
	}
	return t.ddelete(obj, key.String())
}

// index converts an integral key to an element index.
func index(key value.Value) (int, bool) {
	switch key.Kind() {
	case value.KindInt:
		return int(key.AsInt()), true
	case value.KindReal:
		f := key.AsReal()
		if f == float64(int64(f)) {
			return int(f), true
		}
	}
	return 0, false
}

func (a *Array) resize(n int) {
	if n <= len(a.Elems) {
		a.Elems = a.Elems[:n]
		return
	}
	a.Elems = append(a.Elems, make([]value.Value, n-len(a.Elems))...)
}
