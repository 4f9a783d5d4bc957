package memory

import "fmt"

// Handle addresses a slot in a Pool.
type Handle uint32

// Nil is the zero handle. It is never issued by Alloc.
const Nil Handle = 0

// DefaultChunkSize is used when NewPool is given a non-positive size.
const DefaultChunkSize = 1024

type slot[T any] struct {
	val  T
	live bool
}

// Pool is a chunked free-list allocator with stable handles.
//
// Slot 0 is allocated up front and never issued, so At(Nil) returns a
// zero value that index structures may use as a shared sentinel.
type Pool[T any] struct {
	chunkSize uint32
	chunks    [][]slot[T]
	free      []Handle
	next      Handle
	live      int
}

func NewPool[T any](chunkSize int) *Pool[T] {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	p := &Pool[T]{
		chunkSize: uint32(chunkSize),
		next:      1,
	}
	p.grow()
	return p
}

// Alloc returns a zeroed slot. Freed slots are reused before the pool grows.
func (p *Pool[T]) Alloc() (Handle, *T) {
	var h Handle
	if n := len(p.free); n > 0 {
		h = p.free[n-1]
		p.free = p.free[:n-1]
	} else {
		if uint64(p.next) == uint64(len(p.chunks))*uint64(p.chunkSize) {
			p.grow()
		}
		h = p.next
		p.next++
	}

	s := p.slot(h)
	s.live = true
	p.live++
	return h, &s.val
}

// At returns the slot addressed by h. The pointer is stable until h is freed.
func (p *Pool[T]) At(h Handle) *T {
	return &p.slot(h).val
}

// Valid reports whether h addresses a live slot.
func (p *Pool[T]) Valid(h Handle) bool {
	if h == Nil || h >= p.next {
		return false
	}
	return p.slot(h).live
}

// Free zeroes the slot and makes it available to Alloc.
// Freeing Nil, an unissued handle or a dead slot panics.
func (p *Pool[T]) Free(h Handle) {
	if !p.Valid(h) {
		panic(fmt.Sprintf("memory.Pool: free of invalid handle %d", h))
	}
	s := p.slot(h)
	var zero T
	s.val = zero
	s.live = false
	p.free = append(p.free, h)
	p.live--
}

// Live returns the number of allocated slots.
func (p *Pool[T]) Live() int { return p.live }

// Cap returns the number of slots backed by memory, including the Nil slot.
func (p *Pool[T]) Cap() int { return len(p.chunks) * int(p.chunkSize) }

func (p *Pool[T]) grow() {
	p.chunks = append(p.chunks, make([]slot[T], p.chunkSize))
}

func (p *Pool[T]) slot(h Handle) *slot[T] {
	return &p.chunks[uint32(h)/p.chunkSize][uint32(h)%p.chunkSize]
}
