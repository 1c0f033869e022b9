package vulkan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlign(t *testing.T) {
	assert.Equal(t, uint64(12), makeAlignUp(12, 3))
	assert.Equal(t, uint64(12), makeAlignUp(10, 3))
	assert.Equal(t, uint64(7), makeAlignUp(7, 1))
	assert.Equal(t, uint64(7), makeAlignUp(7, 0))
}

func TestAllocator(t *testing.T) {
	a := linearAllocator{Size: 1024}

	assert.Nil(t, a.Allocate(2048, 1), "larger than the region")
	assert.Nil(t, a.Allocate(0, 1))

	first := a.Allocate(512, 1)
	require.NotNil(t, first)
	assert.Equal(t, uint64(0), first.Offset)

	assert.Nil(t, a.Allocate(768, 1))

	second := a.Allocate(500, 1)
	require.NotNil(t, second)
	assert.Equal(t, uint64(512), second.Offset)

	assert.Nil(t, a.Allocate(50, 1), "only 12 bytes left")
	tail := a.Allocate(5, 1)
	require.NotNil(t, tail)
	assert.Equal(t, uint64(1012), tail.Offset)

	a.Free(second)
	again := a.Allocate(500, 1)
	require.NotNil(t, again)
	assert.Equal(t, uint64(512), again.Offset, "reuses the freed gap")

	a.Free(first)
	head := a.Allocate(20, 1)
	require.NotNil(t, head)
	assert.Equal(t, uint64(0), head.Offset, "fills the head first")
	assert.NotNil(t, a.Allocate(40, 1))
	assert.Nil(t, a.Allocate(500, 1))
	assert.Equal(t, uint64(20+40+500+5), a.Used())
}

func TestAllocatorAlignment(t *testing.T) {
	a := linearAllocator{Size: 256}
	x := a.Allocate(10, 16)
	y := a.Allocate(10, 16)
	require.NotNil(t, x)
	require.NotNil(t, y)
	assert.Equal(t, uint64(16), y.Offset)

	a.Free(x)
	a.Free(x)
	assert.Equal(t, uint64(10), a.Used(), "double free is ignored")

	z := a.Allocate(240, 16)
	require.NotNil(t, z)
	assert.Equal(t, uint64(16), z.Offset%16)
}
