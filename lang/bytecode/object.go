package bytecode

import "github.com/dolthub/swiss"

// Function is the compiled form of a user-defined function, method, or the
// top-level script. It is immutable once the compiler has finished with it.
type Function struct {
	Arity        int
	Chunk        Chunk
	Name         string // empty for the top-level script
	UpvalueCount int
}

// Upvalue is a cell referring to a captured local variable. While open, it
// aliases a live slot on an enclosing call frame's stack; once that slot
// goes out of scope the VM closes the upvalue, copying the value into the
// cell so it continues to be visible to every closure sharing it.
type Upvalue struct {
	location *Value
	closed   Value
}

// NewOpenUpvalue returns an upvalue that aliases the given stack slot.
func NewOpenUpvalue(slot *Value) *Upvalue {
	return &Upvalue{location: slot}
}

// Location returns the stack slot this upvalue currently reads and writes,
// used by the VM to compare open upvalues by the slot they alias.
func (u *Upvalue) Location() *Value { return u.location }

// IsOpen reports whether the upvalue still aliases a live stack slot.
func (u *Upvalue) IsOpen() bool { return u.location != &u.closed }

// Get returns the current value of the upvalue.
func (u *Upvalue) Get() Value { return *u.location }

// Set assigns the current value of the upvalue.
func (u *Upvalue) Set(v Value) { *u.location = v }

// Close promotes the upvalue from open to closed: it copies the current
// value out of the stack slot it aliased and retargets itself at its own
// storage, so subsequent reads and writes see the same value regardless of
// the stack slot's lifetime.
func (u *Upvalue) Close() {
	u.closed = *u.location
	u.location = &u.closed
}

// Closure pairs a compiled Function with the upvalue cells it captured at
// creation time.
type Closure struct {
	Function *Function
	Upvalues []*Upvalue
}

// NativeFn is the signature of a built-in function implemented in Go. It
// receives a borrowed view of its argument values and returns a result or an
// error that becomes a runtime error.
type NativeFn func(args []Value) (Value, error)

// Native wraps a NativeFn as a callable runtime value.
type Native struct {
	Name string
	Fn   NativeFn
}

// Class is a single-inheritance class: a name, its own method table, and a
// cached initializer closure (the method named "init"), if any.
//
// Methods is a plain Go map rather than the dolthub/swiss map Instance.Fields
// uses below: OpInherit must enumerate every entry to copy it onto a
// subclass, and Go's builtin range is how this module's other
// enumerated tables (e.g. the upvalue-descriptor slice) are walked, while
// swiss.Map here is reserved for the Get/Put-only lookup tables (globals,
// instance fields) that never need to be walked.
type Class struct {
	Name    string
	Methods map[string]*Closure
	Init    *Closure
}

// NewClass returns an empty class named name.
func NewClass(name string) *Class {
	return &Class{Name: name, Methods: make(map[string]*Closure)}
}

// Instance is a single live object of a Class: a shared reference to its
// class plus its own field values, created lazily on first assignment. Like
// the VM's global table, fields are only ever looked up or assigned by
// name, never enumerated, so they are backed by the same vendored
// swiss-table map rather than a builtin Go map.
type Instance struct {
	Class  *Class
	Fields *swiss.Map[string, Value]
}

// NewInstance returns a fresh, field-less instance of class.
func NewInstance(class *Class) *Instance {
	return &Instance{Class: class, Fields: swiss.NewMap[string, Value](4)}
}

// BoundMethod pairs a receiver instance with one of its class's closures,
// produced when a method is read off an instance without being called
// immediately (`var m = obj.method;`).
type BoundMethod struct {
	Receiver Value
	Method   *Closure
}
