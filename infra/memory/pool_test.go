package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	ID  uint64
	Qty uint64
}

func TestPoolNeverIssuesNil(t *testing.T) {
	p := NewPool[record](4)
	h, r := p.Alloc()
	require.NotEqual(t, Nil, h)
	require.NotNil(t, r)
	assert.Equal(t, 1, p.Live())
	assert.False(t, p.Valid(Nil))
}

func TestPoolPointersStableAcrossGrowth(t *testing.T) {
	p := NewPool[record](2)

	h, r := p.Alloc()
	r.ID = 42
	for i := 0; i < 100; i++ {
		_, o := p.Alloc()
		o.ID = uint64(i)
	}

	assert.Same(t, r, p.At(h))
	assert.Equal(t, uint64(42), p.At(h).ID)
	assert.GreaterOrEqual(t, p.Cap(), 102)
}

func TestPoolFreeZeroesAndReuses(t *testing.T) {
	p := NewPool[record](8)

	a, ra := p.Alloc()
	ra.ID, ra.Qty = 1, 10
	b, _ := p.Alloc()

	p.Free(a)
	assert.False(t, p.Valid(a))
	assert.True(t, p.Valid(b))
	assert.Equal(t, record{}, *p.At(a))

	c, rc := p.Alloc()
	assert.Equal(t, a, c, "freed slot is reused first")
	assert.Equal(t, record{}, *rc)
	assert.Equal(t, 2, p.Live())
}

func TestPoolFreeInvalidPanics(t *testing.T) {
	p := NewPool[record](4)
	h, _ := p.Alloc()
	p.Free(h)

	assert.Panics(t, func() { p.Free(h) })
	assert.Panics(t, func() { p.Free(Nil) })
	assert.Panics(t, func() { p.Free(Handle(99)) })
}

func TestPoolSentinelSlotIsZero(t *testing.T) {
	p := NewPool[record](4)
	assert.Equal(t, record{}, *p.At(Nil))
}

func BenchmarkPoolAllocFree(b *testing.B) {
	p := NewPool[record](4096)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		h, r := p.Alloc()
		r.ID = uint64(i)
		p.Free(h)
	}
}
