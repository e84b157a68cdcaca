package bytecode_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mna/glox/lang/bytecode"
)

func TestAdd(t *testing.T) {
	v, err := bytecode.Add(bytecode.Number(1), bytecode.Number(2))
	require.NoError(t, err)
	require.Equal(t, float64(3), v.AsNumber())

	v, err = bytecode.Add(bytecode.Str("a"), bytecode.Str("b"))
	require.NoError(t, err)
	require.Equal(t, "ab", v.AsString())

	_, err = bytecode.Add(bytecode.Number(1), bytecode.Str("b"))
	require.ErrorIs(t, err, bytecode.ErrOperandsNotNumbersOrStrs)
}

func TestArithmeticErrors(t *testing.T) {
	_, err := bytecode.Subtract(bytecode.Str("a"), bytecode.Number(1))
	require.ErrorIs(t, err, bytecode.ErrOperandsNotNumbers)

	_, err = bytecode.Negate(bytecode.Str("a"))
	require.ErrorIs(t, err, bytecode.ErrOperandNotNumber)
}

func TestComparisons(t *testing.T) {
	lt, err := bytecode.Less(bytecode.Number(1), bytecode.Number(2))
	require.NoError(t, err)
	require.True(t, lt)

	gt, err := bytecode.Greater(bytecode.Str("b"), bytecode.Str("a"))
	require.NoError(t, err)
	require.True(t, gt)

	_, err = bytecode.Less(bytecode.Number(1), bytecode.Str("a"))
	require.ErrorIs(t, err, bytecode.ErrOperandsNotNumbers)
}

func TestNot(t *testing.T) {
	require.True(t, bytecode.Not(bytecode.Bool(false)).AsBool())
	require.False(t, bytecode.Not(bytecode.Number(1)).AsBool())
}
