package compiler

import (
	"sort"
	"strings"
)

// CompileError is a single positioned error produced while compiling a
// chunk of source. Its Error() method returns the message exactly as it
// should be written to stderr, already in the "[line L] Error ...: MSG"
// form spec.md mandates.
type CompileError struct {
	Line int
	Msg  string
}

func (e *CompileError) Error() string { return e.Msg }

// ErrorList accumulates CompileErrors across a single compile pass. Its
// shape — Add, Sort, Err, Unwrap — mirrors the standard library's
// go/scanner.ErrorList, which the scanner package of this module's own
// teacher lineage aliases directly; ErrorList re-implements it instead of
// reusing that type because go/scanner's own "file:line: msg" formatting
// does not match the wire format this module's driver must print (see
// DESIGN.md).
type ErrorList []*CompileError

// Add appends a new error at the given source line.
func (el *ErrorList) Add(line int, msg string) {
	*el = append(*el, &CompileError{Line: line, Msg: msg})
}

// Sort orders the list by source line, for stable, deterministic output.
func (el ErrorList) Sort() {
	sort.SliceStable(el, func(i, j int) bool { return el[i].Line < el[j].Line })
}

// Err returns nil if the list is empty, the sole error if it holds exactly
// one, or the list itself (which implements error) otherwise.
func (el ErrorList) Err() error {
	switch len(el) {
	case 0:
		return nil
	case 1:
		return el[0]
	default:
		return el
	}
}

func (el ErrorList) Error() string {
	switch len(el) {
	case 0:
		return "no errors"
	case 1:
		return el[0].Error()
	}
	var sb strings.Builder
	for i, e := range el {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(e.Error())
	}
	return sb.String()
}

// Unwrap exposes the individual errors for errors.Is/As over the whole list.
func (el ErrorList) Unwrap() []error {
	errs := make([]error, len(el))
	for i, e := range el {
		errs[i] = e
	}
	return errs
}
