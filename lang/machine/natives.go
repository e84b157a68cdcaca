package machine

import (
	"time"

	"github.com/mna/glox/lang/bytecode"
)

// defineNatives installs the VM's built-in global bindings.
func (vm *VM) defineNatives() {
	vm.defineNative("clock", func(args []bytecode.Value) (bytecode.Value, error) {
		return bytecode.Number(float64(time.Now().UnixMilli())), nil
	})
}

func (vm *VM) defineNative(name string, fn bytecode.NativeFn) {
	vm.globals.define(name, bytecode.Obj(bytecode.KindNative, &bytecode.Native{Name: name, Fn: fn}))
}
