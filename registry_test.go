package vkframe

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryInsertUnique(t *testing.T) {
	r := NewRegistry[string](nil)
	seen := map[Handle]bool{}
	for i := 0; i < 100; i++ {
		h := r.Insert("v")
		assert.NotEqual(t, NoHandle, h)
		assert.False(t, seen[h], "handle %s issued twice", h)
		seen[h] = true
	}
	assert.Equal(t, 100, r.Len())
}

func TestRegistryRemovedHandleNotReissued(t *testing.T) {
	r := NewRegistry[int](nil)
	a := r.Insert(1)
	require.NoError(t, r.Remove(a))
	b := r.Insert(2)
	assert.NotEqual(t, a, b)
}

func TestRegistryReplaceKeepsHandle(t *testing.T) {
	var destroyed []string
	r := NewRegistry(func(s string) { destroyed = append(destroyed, s) })
	h := r.Insert("v1")
	other := r.Insert("other")

	got, err := r.InsertOrReplace(h, "v2")
	require.NoError(t, err)
	assert.Equal(t, h, got)

	v, err := r.Get(h)
	require.NoError(t, err)
	assert.Equal(t, "v2", v)
	assert.Equal(t, []string{"v1"}, destroyed)
	assert.Equal(t, []Handle{h, other}, r.Handles(), "replace keeps insertion order")
}

func TestRegistryInsertOrReplaceSentinelInserts(t *testing.T) {
	r := NewRegistry[string](nil)
	h, err := r.InsertOrReplace(NoHandle, "v")
	require.NoError(t, err)
	assert.NotEqual(t, NoHandle, h)
	assert.True(t, r.Contains(h))
}

func TestRegistryNotFound(t *testing.T) {
	r := NewRegistry[string](nil)
	h := r.Insert("v")

	_, err := r.Get(h + 100)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, ErrNotFound, errors.Cause(err))
	assert.EqualError(t, err, "get handle(101): handle not found")
	_, err = r.InsertOrReplace(h+100, "x")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, r.Remove(h+100), ErrNotFound)

	require.NoError(t, r.Remove(h))
	_, err = r.Get(h)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, r.Remove(h), ErrNotFound)
	assert.Equal(t, 0, r.Len())
}

func TestRegistryClearDestroysInReverseOrder(t *testing.T) {
	var destroyed []int
	r := NewRegistry(func(v int) { destroyed = append(destroyed, v) })
	for i := 1; i <= 4; i++ {
		r.Insert(i)
	}
	r.Clear()
	assert.Equal(t, []int{4, 3, 2, 1}, destroyed)
	assert.Equal(t, 0, r.Len())

	h := r.Insert(5)
	assert.Equal(t, Handle(5), h, "counter survives Clear")
}

func TestRegistryWrapSkipsSentinelAndLiveHandles(t *testing.T) {
	r := NewRegistry[string](nil)
	first := r.Insert("first")
	require.Equal(t, Handle(1), first)

	r.next = math.MaxUint64 - 1
	last := r.Insert("last")
	assert.Equal(t, Handle(math.MaxUint64), last)

	wrapped := r.Insert("wrapped")
	assert.Equal(t, Handle(2), wrapped, "0 is reserved and 1 is live")
}
