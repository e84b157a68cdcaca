// Package bytecode is the data model shared by the compiler and the virtual
// machine: the instruction set (Opcode), the compiled unit (Chunk), the
// tagged runtime value (Value), and the heap-allocated object kinds
// (Function, Closure, Upvalue, Class, Instance, BoundMethod, Native) that a
// Value may reference.
package bytecode

import "strconv"

// Kind identifies which variant of Value is held.
type Kind uint8

//nolint:revive
const (
	KindNil Kind = iota
	KindBool
	KindNumber
	KindString
	KindFunction
	KindClosure
	KindNative
	KindClass
	KindInstance
	KindBound
)

// Value is a tagged sum of every value the machine can manipulate. Per the
// data model's design notes, it favors a single closed representation over
// per-type polymorphism: dispatch is by Kind, not by interface method.
// Compound variants hold a shared reference in obj, so copying a Value is
// always cheap and never deep-copies a string, closure, or instance.
type Value struct {
	kind Kind
	num  float64 // number payload, and 0/1 for bool
	obj  any     // string, *Function, *Closure, *Native, *Class, *Instance, *BoundMethod
}

// Nil is the single value of kind KindNil.
var Nil = Value{kind: KindNil}

// Bool returns the Value wrapping b.
func Bool(b bool) Value {
	if b {
		return Value{kind: KindBool, num: 1}
	}
	return Value{kind: KindBool, num: 0}
}

// Number returns the Value wrapping n.
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

// Str returns the Value wrapping s. Go strings are already immutable
// reference-counted-by-the-runtime buffers, so no further sharing wrapper is
// needed to make copies of this Value cheap.
func Str(s string) Value { return Value{kind: KindString, obj: s} }

// Obj wraps a heap-allocated runtime object (*Function, *Closure, *Native,
// *Class, *Instance, or *BoundMethod) in a Value.
func Obj(kind Kind, obj any) Value { return Value{kind: kind, obj: obj} }

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsNil() bool { return v.kind == KindNil }
func (v Value) IsBool() bool { return v.kind == KindBool }
func (v Value) IsNumber() bool { return v.kind == KindNumber }
func (v Value) IsString() bool { return v.kind == KindString }

func (v Value) AsBool() bool    { return v.num != 0 }
func (v Value) AsNumber() float64 { return v.num }
func (v Value) AsString() string  { return v.obj.(string) }

// Object returns the underlying heap object for a compound-kind Value.
func (v Value) Object() any { return v.obj }

// Truthy implements Lox truthiness: nil and false are falsey, everything
// else — including 0 and the empty string — is truthy.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindNil:
		return false
	case KindBool:
		return v.AsBool()
	default:
		return true
	}
}

// Equal implements Lox equality: same-kind structural equality for
// primitives and strings, reference identity for every compound kind, and
// false across differing kinds.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNil:
		return true
	case KindBool, KindNumber:
		return a.num == b.num
	case KindString:
		return a.obj.(string) == b.obj.(string)
	default:
		return a.obj == b.obj
	}
}

// Display renders v the way a `print` statement writes it.
func (v Value) Display() string {
	switch v.kind {
	case KindNil:
		return "nil"
	case KindBool:
		if v.AsBool() {
			return "true"
		}
		return "false"
	case KindNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindString:
		return v.AsString()
	case KindFunction:
		return displayFunction(v.obj.(*Function))
	case KindClosure:
		return displayFunction(v.obj.(*Closure).Function)
	case KindNative:
		return "<native fn>"
	case KindClass:
		return v.obj.(*Class).Name
	case KindInstance:
		return v.obj.(*Instance).Class.Name + " instance"
	case KindBound:
		return displayFunction(v.obj.(*BoundMethod).Method.Function)
	default:
		return "<value>"
	}
}

func displayFunction(fn *Function) string {
	if fn.Name == "" {
		return "<script>"
	}
	return "<fn " + fn.Name + ">"
}
