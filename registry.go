package vkframe

import (
	"fmt"

	"cogentcore.org/core/base/ordmap"
	"github.com/pkg/errors"
)

// Handle is an opaque identifier for a resource owned by a Registry. A
// handle stays valid until the resource is removed, including across an in
// place replacement.
type Handle uint64

// NoHandle is the sentinel meaning "allocate a new handle" to
// InsertOrReplace, and "none" where a handle is optional.
const NoHandle Handle = 0

func (h Handle) String() string {
	if h == NoHandle {
		return "handle(none)"
	}
	return fmt.Sprintf("handle(%d)", uint64(h))
}

// Registry maps handles to values it exclusively owns. Values are kept in
// insertion order so shutdown destroys them deterministically.
//
// A Registry is not safe for concurrent use; the Renderer serializes all
// access to its registries.
type Registry[T any] struct {
	items   *ordmap.Map[Handle, T]
	next    Handle
	destroy func(T)
}

// NewRegistry creates an empty registry. destroy, if not nil, is called on
// every value the registry releases.
func NewRegistry[T any](destroy func(T)) *Registry[T] {
	return &Registry[T]{
		items:   ordmap.New[Handle, T](),
		destroy: destroy,
	}
}

func (r *Registry[T]) allocate() Handle {
	for {
		r.next++
		if r.next == NoHandle {
			continue
		}
		if _, live := r.items.Map[r.next]; !live {
			return r.next
		}
	}
}

// Insert stores v under a fresh handle.
func (r *Registry[T]) Insert(v T) Handle {
	h := r.allocate()
	r.items.Add(h, v)
	return h
}

// InsertOrReplace behaves like Insert when h is NoHandle. Otherwise h must
// already be live; its value is replaced in place, the previous value is
// destroyed and h is returned unchanged.
func (r *Registry[T]) InsertOrReplace(h Handle, v T) (Handle, error) {
	if h == NoHandle {
		return r.Insert(v), nil
	}
	idx, ok := r.items.IndexByKeyTry(h)
	if !ok {
		return NoHandle, errors.Wrapf(ErrNotFound, "replace %s", h)
	}
	old := r.items.Order[idx].Value
	r.items.ReplaceIndex(idx, h, v)
	r.release(old)
	return h, nil
}

// Get returns the value stored under h.
func (r *Registry[T]) Get(h Handle) (T, error) {
	v, ok := r.items.ValueByKeyTry(h)
	if !ok {
		var zero T
		return zero, errors.Wrapf(ErrNotFound, "get %s", h)
	}
	return v, nil
}

// Contains reports whether h is live.
func (r *Registry[T]) Contains(h Handle) bool {
	_, ok := r.items.Map[h]
	return ok
}

// Remove destroys the value stored under h and retires the handle.
func (r *Registry[T]) Remove(h Handle) error {
	v, ok := r.items.ValueByKeyTry(h)
	if !ok {
		return errors.Wrapf(ErrNotFound, "remove %s", h)
	}
	r.items.DeleteKey(h)
	r.release(v)
	return nil
}

// Len returns the number of live values.
func (r *Registry[T]) Len() int {
	return r.items.Len()
}

// Handles returns the live handles in insertion order.
func (r *Registry[T]) Handles() []Handle {
	return r.items.Keys()
}

// Clear destroys every value, most recently inserted first. The handle
// counter is not reset, so cleared handles are not reissued.
func (r *Registry[T]) Clear() {
	values := r.items.Values()
	r.items.Reset()
	r.items.Init()
	for i := len(values) - 1; i >= 0; i-- {
		r.release(values[i])
	}
}

func (r *Registry[T]) release(v T) {
	if r.destroy != nil {
		r.destroy(v)
	}
}
