package vulkan

import (
	"fmt"
	"sort"
)

// Allocation is a range handed out by a linearAllocator.
type Allocation struct {
	Offset uint64
	Size   uint64
}

func (a *Allocation) String() string {
	return fmt.Sprintf("[%d %d]", a.Offset, a.Size)
}

// linearAllocator hands out aligned ranges of a fixed size region, first
// fit. Live allocations are kept sorted by offset.
type linearAllocator struct {
	Size   uint64
	allocs []*Allocation
}

func makeAlignUp(a uint64, align uint64) uint64 {
	if align <= 1 {
		return a
	}
	m := a % align
	if m == 0 {
		return a
	}
	return a - m + align
}

// Allocate returns the lowest aligned range of size bytes, or nil when no
// gap is large enough.
func (p *linearAllocator) Allocate(size uint64, align uint64) *Allocation {
	if size == 0 || size > p.Size {
		return nil
	}
	var start uint64
	for i, a := range p.allocs {
		if a.Offset >= start && a.Offset-start >= size {
			return p.insert(i, start, size)
		}
		start = makeAlignUp(a.Offset+a.Size, align)
	}
	if start <= p.Size && p.Size-start >= size {
		return p.insert(len(p.allocs), start, size)
	}
	return nil
}

func (p *linearAllocator) insert(i int, offset, size uint64) *Allocation {
	na := &Allocation{Offset: offset, Size: size}
	p.allocs = append(p.allocs, nil)
	copy(p.allocs[i+1:], p.allocs[i:])
	p.allocs[i] = na
	return na
}

// Free returns a range. Freeing a range twice, or one from another
// allocator, is a no-op.
func (p *linearAllocator) Free(fa *Allocation) {
	i := sort.Search(len(p.allocs), func(i int) bool { return p.allocs[i].Offset >= fa.Offset })
	if i < len(p.allocs) && p.allocs[i] == fa {
		p.allocs = append(p.allocs[:i], p.allocs[i+1:]...)
	}
}

// Used returns the number of bytes handed out.
func (p *linearAllocator) Used() uint64 {
	var n uint64
	for _, a := range p.allocs {
		n += a.Size
	}
	return n
}

func (p *linearAllocator) String() string {
	return fmt.Sprintf("%v", p.allocs)
}
