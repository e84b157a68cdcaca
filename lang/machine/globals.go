package machine

import (
	"github.com/dolthub/swiss"

	"github.com/mna/glox/lang/bytecode"
)

// globals is the VM's single name-to-value table for top-level bindings. It
// is backed by a swiss-table map rather than a plain Go map: like
// Instance.Fields and unlike Class.Methods (see lang/bytecode/object.go),
// globals are never enumerated, only looked up and assigned by name, which
// is exactly the Get/Put surface this module's vendored swiss map exercises.
type globals struct {
	m *swiss.Map[string, bytecode.Value]
}

func newGlobals() *globals {
	return &globals{m: swiss.NewMap[string, bytecode.Value](32)}
}

func (g *globals) get(name string) (bytecode.Value, bool) {
	return g.m.Get(name)
}

func (g *globals) define(name string, v bytecode.Value) {
	g.m.Put(name, v)
}

// set assigns an existing global. It reports ok=false without modifying
// anything if name is not yet defined.
func (g *globals) set(name string, v bytecode.Value) bool {
	if _, ok := g.m.Get(name); !ok {
		return false
	}
	g.m.Put(name, v)
	return true
}
