package machine

import "github.com/mna/glox/lang/bytecode"

// CallFrame is the runtime record for one in-flight call: the closure being
// executed, the instruction pointer into its chunk, and the base stack index
// of slot 0 (the callee itself for a function, the receiver for a method).
type CallFrame struct {
	closure *bytecode.Closure
	ip      int
	slots   int
}

func (fr *CallFrame) chunk() *bytecode.Chunk { return &fr.closure.Function.Chunk }

// displayName returns the name the stack trace should use for this frame:
// the function's own display name, or "script" for the implicit top-level
// function.
func (fr *CallFrame) displayName() string {
	if name := fr.closure.Function.Name; name != "" {
		return name
	}
	return "script"
}
