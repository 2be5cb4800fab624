package vm

import (
	"fmt"
	"strings"

	"lumen/internal/value"
)

func installNatives(vm *VM) {
	vm.Define("print", nativePrint)
	vm.Define("typeof", nativeTypeof)
}

func nativePrint(t *Thread, _ value.Value, args []value.Value) (value.Value, error) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	if _, err := fmt.Fprintln(t.vm.opts.Stdout, strings.Join(parts, " ")); err != nil {
		return value.Void(), t.eb.raise("IOError", "print: %v", err)
	}
	return value.Void(), nil
}

func nativeTypeof(_ *Thread, _ value.Value, args []value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.Str(value.Void().TypeName()), nil
	}
	return value.Str(args[0].TypeName()), nil
}

var arrayMethods = map[string]*NativeFunction{
	"push": {Name: "push", Fn: arrayPush},
	"pop":  {Name: "pop", Fn: arrayPop},
}

func receiver(t *Thread, this value.Value, method string) (*Array, error) {
	a, ok := this.AsObject().(*Array)
	if !ok {
		return nil, t.eb.typeError("%s called on %s", method, this.TypeName())
	}
	return a, nil
}

func arrayPush(t *Thread, this value.Value, args []value.Value) (value.Value, error) {
	a, err := receiver(t, this, "push")
	if err != nil {
		return value.Void(), err
	}
	a.Elems = append(a.Elems, args...)
	return value.Int(int64(len(a.Elems))), nil
}

func arrayPop(t *Thread, this value.Value, _ []value.Value) (value.Value, error) {
	a, err := receiver(t, this, "pop")
	if err != nil {
		return value.Void(), err
	}
	if len(a.Elems) == 0 {
		return value.Void(), nil
	}
	last := a.Elems[len(a.Elems)-1]
	a.Elems = a.Elems[:len(a.Elems)-1]
	return last, nil
}
