package bytecode_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mna/glox/lang/bytecode"
)

func TestChunkWriteAndRead(t *testing.T) {
	var c bytecode.Chunk
	c.Write(byte(bytecode.OpNil), 1)
	c.Write(byte(bytecode.OpReturn), 1)
	require.Equal(t, 2, c.Count())
	require.Equal(t, byte(bytecode.OpNil), c.Read(0))
	require.Equal(t, 1, c.GetLine(0))
}

func TestChunkJumpPatching(t *testing.T) {
	var c bytecode.Chunk
	c.Write(byte(bytecode.OpJump), 1)
	offset := c.Count()
	c.Write(0xff, 1)
	c.Write(0xff, 1)
	c.Write(byte(bytecode.OpNil), 1)

	jump := c.Count() - offset - 2
	c.WriteAt(offset, byte(jump>>8))
	c.WriteAt(offset+1, byte(jump&0xff))
	require.Equal(t, uint16(1), c.GetJumpOffset(offset))
}

func TestChunkConstantPoolLimit(t *testing.T) {
	var c bytecode.Chunk
	for i := 0; i < bytecode.MaxConstants; i++ {
		_, ok := c.AddConstant(bytecode.Number(float64(i)))
		require.True(t, ok)
	}
	_, ok := c.AddConstant(bytecode.Number(999))
	require.False(t, ok)
}
