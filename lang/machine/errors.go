package machine

import (
	"fmt"
	"strings"
)

// RuntimeError is the error the VM surfaces when bytecode execution fails
// after compiling successfully. Its Error() message is the plain failure
// message; Trace holds the formatted call stack, innermost frame first, as
// written to standard error below the message.
type RuntimeError struct {
	Msg   string
	Trace []string
}

func (e *RuntimeError) Error() string { return e.Msg }

// Report writes the message followed by its stack trace, one "[line L] in
// NAME" line per frame, matching the wire format the driver writes to
// standard error.
func (e *RuntimeError) Report() string {
	var sb strings.Builder
	sb.WriteString(e.Msg)
	for _, line := range e.Trace {
		sb.WriteByte('\n')
		sb.WriteString(line)
	}
	return sb.String()
}

func (vm *VM) runtimeErrorf(format string, args ...any) *RuntimeError {
	err := &RuntimeError{Msg: fmt.Sprintf(format, args...)}
	for i := len(vm.frames) - 1; i >= 0; i-- {
		fr := &vm.frames[i]
		line := fr.chunk().GetLine(fr.ip - 1)
		err.Trace = append(err.Trace, fmt.Sprintf("[line %d] in %s", line, fr.displayName()))
	}
	return err
}
