// Package machine implements the stack-based virtual machine that executes
// compiled bytecode: the operand stack, the call-frame stack, the global
// environment, the native-function registry, and the runtime error
// reporter.
package machine

import (
	"fmt"
	"io"
	"os"

	"github.com/mna/glox/lang/bytecode"
)

// MaxFrames is the largest number of nested call frames the VM allows
// before reporting a stack overflow.
const MaxFrames = 256

type openUpvalue struct {
	slot int
	uv   *bytecode.Upvalue
}

// VM executes compiled chunks. A VM is reusable across multiple calls to
// Interpret, though each call starts from a fresh stack and frame state;
// globals persist across calls on the same VM, which is how a REPL keeps
// bindings live between lines.
type VM struct {
	Stdout io.Writer
	Stderr io.Writer

	maxFrames int

	stack []bytecode.Value
	sp    int

	frames []CallFrame

	globals      *globals
	openUpvalues []openUpvalue
}

// New returns a VM with its native bindings installed, writing print output
// to stdout and nothing to stderr directly (runtime errors are returned to
// the caller, who decides how to report them). maxFrames overrides the
// default call-frame depth limit (MaxFrames) when positive.
func New(stdout, stderr io.Writer, maxFrames int) *VM {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	if maxFrames <= 0 {
		maxFrames = MaxFrames
	}
	vm := &VM{
		Stdout:    stdout,
		Stderr:    stderr,
		maxFrames: maxFrames,
		// The operand stack is sized at exactly maxFrames * the compiler's
		// per-function local-variable limit (256 slots per frame); the VM does not
		// compute a tighter per-chunk high-water mark the way the compiler's
		// Chunk format would allow, since the source material this module is
		// grounded on does not demonstrate that static analysis either.
		stack:   make([]bytecode.Value, maxFrames*256),
		globals:   newGlobals(),
	}
	vm.defineNatives()
	return vm
}

// Interpret wraps fn in a closure, installs it as the initial call frame,
// and runs it to completion. It returns nil on success or a *RuntimeError
// on failure.
func (vm *VM) Interpret(fn *bytecode.Function) error {
	vm.sp = 0
	vm.frames = vm.frames[:0]
	vm.openUpvalues = nil

	closure := &bytecode.Closure{Function: fn}
	vm.push(bytecode.Obj(bytecode.KindClosure, closure))
	if err := vm.call(closure, 0); err != nil {
		return err
	}
	return vm.run()
}

func (vm *VM) push(v bytecode.Value) {
	vm.stack[vm.sp] = v
	vm.sp++
}

func (vm *VM) pop() bytecode.Value {
	vm.sp--
	return vm.stack[vm.sp]
}

func (vm *VM) peek(distance int) bytecode.Value {
	return vm.stack[vm.sp-1-distance]
}

func (vm *VM) captureUpvalue(slot int) *bytecode.Upvalue {
	for _, o := range vm.openUpvalues {
		if o.slot == slot {
			return o.uv
		}
	}
	uv := bytecode.NewOpenUpvalue(&vm.stack[slot])
	vm.openUpvalues = append(vm.openUpvalues, openUpvalue{slot: slot, uv: uv})
	return uv
}

// closeUpvalues promotes every open upvalue whose captured slot is at or
// above fromSlot, since those slots are about to go out of scope.
func (vm *VM) closeUpvalues(fromSlot int) {
	kept := vm.openUpvalues[:0]
	for _, o := range vm.openUpvalues {
		if o.slot >= fromSlot {
			o.uv.Close()
		} else {
			kept = append(kept, o)
		}
	}
	vm.openUpvalues = kept
}

func (vm *VM) call(closure *bytecode.Closure, argc int) error {
	if argc != closure.Function.Arity {
		return vm.runtimeErrorf("Expected %d arguments but got %d.", closure.Function.Arity, argc)
	}
	if len(vm.frames) >= vm.maxFrames {
		return vm.runtimeErrorf("Stack overflow.")
	}
	vm.frames = append(vm.frames, CallFrame{closure: closure, slots: vm.sp - argc - 1})
	return nil
}

func (vm *VM) callNative(native *bytecode.Native, argc int) error {
	args := vm.stack[vm.sp-argc : vm.sp]
	result, err := native.Fn(args)
	if err != nil {
		return vm.runtimeErrorf("%s", err.Error())
	}
	vm.sp -= argc + 1
	vm.push(result)
	return nil
}

func (vm *VM) callValue(callee bytecode.Value, argc int) error {
	switch callee.Kind() {
	case bytecode.KindClosure:
		return vm.call(callee.Object().(*bytecode.Closure), argc)
	case bytecode.KindNative:
		return vm.callNative(callee.Object().(*bytecode.Native), argc)
	case bytecode.KindClass:
		class := callee.Object().(*bytecode.Class)
		vm.stack[vm.sp-argc-1] = bytecode.Obj(bytecode.KindInstance, bytecode.NewInstance(class))
		if class.Init != nil {
			return vm.call(class.Init, argc)
		}
		if argc != 0 {
			return vm.runtimeErrorf("Expected 0 arguments but got %d.", argc)
		}
		return nil
	case bytecode.KindBound:
		bound := callee.Object().(*bytecode.BoundMethod)
		vm.stack[vm.sp-argc-1] = bound.Receiver
		return vm.call(bound.Method, argc)
	default:
		return vm.runtimeErrorf("Can only call functions and classes.")
	}
}

// bindMethodValue looks up name on class and, if found, pushes a bound
// method wrapping receiver. It reports ok=false without touching the stack
// if no such method exists.
func (vm *VM) bindMethodValue(receiver bytecode.Value, class *bytecode.Class, name string) bool {
	method, ok := class.Methods[name]
	if !ok {
		return false
	}
	vm.push(bytecode.Obj(bytecode.KindBound, &bytecode.BoundMethod{Receiver: receiver, Method: method}))
	return true
}

func (vm *VM) defineMethod(name string) {
	method := vm.pop().Object().(*bytecode.Closure)
	class := vm.peek(0).Object().(*bytecode.Class)
	class.Methods[name] = method
	if name == "init" {
		class.Init = method
	}
}

func (vm *VM) invokeFromClass(class *bytecode.Class, name string, argc int) error {
	method, ok := class.Methods[name]
	if !ok {
		return vm.runtimeErrorf("Undefined property '%s'.", name)
	}
	return vm.call(method, argc)
}

func (vm *VM) invoke(name string, argc int) error {
	receiver := vm.peek(argc)
	if receiver.Kind() != bytecode.KindInstance {
		return vm.runtimeErrorf("Only instances have methods.")
	}
	instance := receiver.Object().(*bytecode.Instance)
	if v, ok := instance.Fields.Get(name); ok {
		vm.stack[vm.sp-argc-1] = v
		return vm.callValue(v, argc)
	}
	return vm.invokeFromClass(instance.Class, name, argc)
}

// run executes bytecode starting at the innermost active call frame until
// the frame stack empties (success) or an instruction fails (runtime
// error).
func (vm *VM) run() error {
	fr := &vm.frames[len(vm.frames)-1]

	for {
		chunk := fr.chunk()
		op := bytecode.Opcode(chunk.Read(fr.ip))
		fr.ip++

		switch op {
		case bytecode.OpConstant:
			idx := chunk.Read(fr.ip)
			fr.ip++
			vm.push(chunk.GetConstant(idx))

		case bytecode.OpNil:
			vm.push(bytecode.Nil)
		case bytecode.OpTrue:
			vm.push(bytecode.Bool(true))
		case bytecode.OpFalse:
			vm.push(bytecode.Bool(false))
		case bytecode.OpPop:
			vm.pop()

		case bytecode.OpGetLocal:
			slot := chunk.Read(fr.ip)
			fr.ip++
			vm.push(vm.stack[fr.slots+int(slot)])

		case bytecode.OpSetLocal:
			slot := chunk.Read(fr.ip)
			fr.ip++
			vm.stack[fr.slots+int(slot)] = vm.peek(0)

		case bytecode.OpGetGlobal:
			idx := chunk.Read(fr.ip)
			fr.ip++
			name := chunk.GetConstant(idx).AsString()
			v, ok := vm.globals.get(name)
			if !ok {
				return vm.runtimeErrorf("Undefined variable %s.", name)
			}
			vm.push(v)

		case bytecode.OpDefineGlobal:
			idx := chunk.Read(fr.ip)
			fr.ip++
			name := chunk.GetConstant(idx).AsString()
			vm.globals.define(name, vm.peek(0))
			vm.pop()

		case bytecode.OpSetGlobal:
			idx := chunk.Read(fr.ip)
			fr.ip++
			name := chunk.GetConstant(idx).AsString()
			if !vm.globals.set(name, vm.peek(0)) {
				return vm.runtimeErrorf("Undefined variable '%s'.", name)
			}

		case bytecode.OpGetUpvalue:
			idx := chunk.Read(fr.ip)
			fr.ip++
			vm.push(fr.closure.Upvalues[idx].Get())

		case bytecode.OpSetUpvalue:
			idx := chunk.Read(fr.ip)
			fr.ip++
			fr.closure.Upvalues[idx].Set(vm.peek(0))

		case bytecode.OpCloseUpvalue:
			vm.closeUpvalues(vm.sp - 1)
			vm.pop()

		case bytecode.OpEqual:
			b, a := vm.pop(), vm.pop()
			vm.push(bytecode.Bool(bytecode.Equal(a, b)))

		case bytecode.OpGreater:
			b, a := vm.pop(), vm.pop()
			r, err := bytecode.Greater(a, b)
			if err != nil {
				return vm.runtimeErrorf("%s", err.Error())
			}
			vm.push(bytecode.Bool(r))

		case bytecode.OpLess:
			b, a := vm.pop(), vm.pop()
			r, err := bytecode.Less(a, b)
			if err != nil {
				return vm.runtimeErrorf("%s", err.Error())
			}
			vm.push(bytecode.Bool(r))

		case bytecode.OpAdd:
			b, a := vm.pop(), vm.pop()
			r, err := bytecode.Add(a, b)
			if err != nil {
				return vm.runtimeErrorf("%s", err.Error())
			}
			vm.push(r)

		case bytecode.OpSubtract:
			b, a := vm.pop(), vm.pop()
			r, err := bytecode.Subtract(a, b)
			if err != nil {
				return vm.runtimeErrorf("%s", err.Error())
			}
			vm.push(r)

		case bytecode.OpMultiply:
			b, a := vm.pop(), vm.pop()
			r, err := bytecode.Multiply(a, b)
			if err != nil {
				return vm.runtimeErrorf("%s", err.Error())
			}
			vm.push(r)

		case bytecode.OpDivide:
			b, a := vm.pop(), vm.pop()
			r, err := bytecode.Divide(a, b)
			if err != nil {
				return vm.runtimeErrorf("%s", err.Error())
			}
			vm.push(r)

		case bytecode.OpNot:
			vm.push(bytecode.Not(vm.pop()))

		case bytecode.OpNegate:
			r, err := bytecode.Negate(vm.pop())
			if err != nil {
				return vm.runtimeErrorf("%s", err.Error())
			}
			vm.push(r)

		case bytecode.OpPrint:
			fmt.Fprintln(vm.Stdout, vm.pop().Display())

		case bytecode.OpJump:
			offset := chunk.GetJumpOffset(fr.ip)
			fr.ip += 2 + int(offset)

		case bytecode.OpJumpIfFalse:
			offset := chunk.GetJumpOffset(fr.ip)
			fr.ip += 2
			if !vm.peek(0).Truthy() {
				fr.ip += int(offset)
			}

		case bytecode.OpLoop:
			offset := chunk.GetJumpOffset(fr.ip)
			fr.ip += 2
			fr.ip -= int(offset)

		case bytecode.OpCall:
			argc := int(chunk.Read(fr.ip))
			fr.ip++
			if err := vm.callValue(vm.peek(argc), argc); err != nil {
				return err
			}
			fr = &vm.frames[len(vm.frames)-1]

		case bytecode.OpInvoke:
			idx := chunk.Read(fr.ip)
			fr.ip++
			argc := int(chunk.Read(fr.ip))
			fr.ip++
			name := chunk.GetConstant(idx).AsString()
			if err := vm.invoke(name, argc); err != nil {
				return err
			}
			fr = &vm.frames[len(vm.frames)-1]

		case bytecode.OpGetSuper:
			idx := chunk.Read(fr.ip)
			fr.ip++
			name := chunk.GetConstant(idx).AsString()
			superclass := vm.pop().Object().(*bytecode.Class)
			receiver := vm.pop()
			if !vm.bindMethodValue(receiver, superclass, name) {
				return vm.runtimeErrorf("Undefined property '%s'.", name)
			}

		case bytecode.OpSuperInvoke:
			idx := chunk.Read(fr.ip)
			fr.ip++
			argc := int(chunk.Read(fr.ip))
			fr.ip++
			name := chunk.GetConstant(idx).AsString()
			superclass := vm.pop().Object().(*bytecode.Class)
			if err := vm.invokeFromClass(superclass, name, argc); err != nil {
				return err
			}
			fr = &vm.frames[len(vm.frames)-1]

		case bytecode.OpClosure:
			idx := chunk.Read(fr.ip)
			fr.ip++
			fn := chunk.GetConstant(idx).Object().(*bytecode.Function)
			closure := &bytecode.Closure{Function: fn, Upvalues: make([]*bytecode.Upvalue, fn.UpvalueCount)}
			for i := 0; i < fn.UpvalueCount; i++ {
				isLocal := chunk.Read(fr.ip)
				fr.ip++
				index := chunk.Read(fr.ip)
				fr.ip++
				if isLocal == 1 {
					closure.Upvalues[i] = vm.captureUpvalue(fr.slots + int(index))
				} else {
					closure.Upvalues[i] = fr.closure.Upvalues[index]
				}
			}
			vm.push(bytecode.Obj(bytecode.KindClosure, closure))

		case bytecode.OpReturn:
			result := vm.pop()
			vm.closeUpvalues(fr.slots)
			vm.frames = vm.frames[:len(vm.frames)-1]
			if len(vm.frames) == 0 {
				return nil
			}
			vm.sp = fr.slots
			vm.push(result)
			fr = &vm.frames[len(vm.frames)-1]

		case bytecode.OpClass:
			idx := chunk.Read(fr.ip)
			fr.ip++
			name := chunk.GetConstant(idx).AsString()
			vm.push(bytecode.Obj(bytecode.KindClass, bytecode.NewClass(name)))

		case bytecode.OpInherit:
			super := vm.peek(1)
			if super.Kind() != bytecode.KindClass {
				return vm.runtimeErrorf("Superclass must be a class.")
			}
			superclass := super.Object().(*bytecode.Class)
			subclass := vm.peek(0).Object().(*bytecode.Class)
			for name, m := range superclass.Methods {
				subclass.Methods[name] = m
			}
			subclass.Init = superclass.Init
			vm.pop()

		case bytecode.OpMethod:
			idx := chunk.Read(fr.ip)
			fr.ip++
			name := chunk.GetConstant(idx).AsString()
			vm.defineMethod(name)

		case bytecode.OpGetProperty:
			idx := chunk.Read(fr.ip)
			fr.ip++
			name := chunk.GetConstant(idx).AsString()
			if vm.peek(0).Kind() != bytecode.KindInstance {
				return vm.runtimeErrorf("Only instances have properties.")
			}
			instance := vm.peek(0).Object().(*bytecode.Instance)
			if v, ok := instance.Fields.Get(name); ok {
				vm.pop()
				vm.push(v)
				break
			}
			receiver := vm.pop()
			if !vm.bindMethodValue(receiver, instance.Class, name) {
				return vm.runtimeErrorf("Undefined property '%s'.", name)
			}

		case bytecode.OpSetProperty:
			idx := chunk.Read(fr.ip)
			fr.ip++
			name := chunk.GetConstant(idx).AsString()
			if vm.peek(1).Kind() != bytecode.KindInstance {
				return vm.runtimeErrorf("Only instances have fields.")
			}
			instance := vm.peek(1).Object().(*bytecode.Instance)
			instance.Fields.Put(name, vm.peek(0))
			value := vm.pop()
			vm.pop()
			vm.push(value)

		default:
			return vm.runtimeErrorf("internal error: unimplemented opcode %s", op)
		}
	}
}
