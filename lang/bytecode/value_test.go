package bytecode_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mna/glox/lang/bytecode"
)

func TestTruthy(t *testing.T) {
	require.False(t, bytecode.Nil.Truthy())
	require.False(t, bytecode.Bool(false).Truthy())
	require.True(t, bytecode.Bool(true).Truthy())
	require.True(t, bytecode.Number(0).Truthy())
	require.True(t, bytecode.Str("").Truthy())
}

func TestEqual(t *testing.T) {
	require.True(t, bytecode.Equal(bytecode.Nil, bytecode.Nil))
	require.True(t, bytecode.Equal(bytecode.Number(1), bytecode.Number(1)))
	require.False(t, bytecode.Equal(bytecode.Number(1), bytecode.Number(2)))
	require.True(t, bytecode.Equal(bytecode.Str("a"), bytecode.Str("a")))
	require.False(t, bytecode.Equal(bytecode.Str("a"), bytecode.Number(1)))

	fn := &bytecode.Function{Name: "f"}
	a := bytecode.Obj(bytecode.KindFunction, fn)
	b := bytecode.Obj(bytecode.KindFunction, fn)
	other := bytecode.Obj(bytecode.KindFunction, &bytecode.Function{Name: "f"})
	require.True(t, bytecode.Equal(a, b))
	require.False(t, bytecode.Equal(a, other))
}

func TestDisplay(t *testing.T) {
	require.Equal(t, "nil", bytecode.Nil.Display())
	require.Equal(t, "true", bytecode.Bool(true).Display())
	require.Equal(t, "false", bytecode.Bool(false).Display())
	require.Equal(t, "1", bytecode.Number(1).Display())
	require.Equal(t, "1.5", bytecode.Number(1.5).Display())
	require.Equal(t, "hi", bytecode.Str("hi").Display())

	script := bytecode.Obj(bytecode.KindFunction, &bytecode.Function{})
	require.Equal(t, "<script>", script.Display())

	named := bytecode.Obj(bytecode.KindFunction, &bytecode.Function{Name: "add"})
	require.Equal(t, "<fn add>", named.Display())

	class := bytecode.NewClass("Pair")
	classVal := bytecode.Obj(bytecode.KindClass, class)
	require.Equal(t, "Pair", classVal.Display())

	instance := bytecode.NewInstance(class)
	instVal := bytecode.Obj(bytecode.KindInstance, instance)
	require.Equal(t, "Pair instance", instVal.Display())
}
