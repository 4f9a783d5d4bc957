package market

import (
	"github.com/cockroachdb/errors"

	"tradebook/infra/memory"
)

// Entry locates a resting order: the book that owns it and the order
// slot. The slot itself links to its level and queue neighbours.
type Entry struct {
	Book  memory.Handle
	Order memory.Handle
}

// OrderIndex is the O(1) path from an order id to its record.
type OrderIndex struct {
	entries map[uint64]Entry
}

func NewOrderIndex(sizeHint int) *OrderIndex {
	return &OrderIndex{entries: make(map[uint64]Entry, sizeHint)}
}

// Add registers id. It fails with ErrDuplicateOrder if id is present.
func (x *OrderIndex) Add(id uint64, e Entry) error {
	if _, ok := x.entries[id]; ok {
		return errors.Wrapf(ErrDuplicateOrder, "order id %d", id)
	}
	x.entries[id] = e
	return nil
}

func (x *OrderIndex) Get(id uint64) (Entry, bool) {
	e, ok := x.entries[id]
	return e, ok
}

// Delete forgets id. Absent ids are ignored.
func (x *OrderIndex) Delete(id uint64) {
	delete(x.entries, id)
}

func (x *OrderIndex) Len() int { return len(x.entries) }

// Each visits entries in unspecified order.
func (x *OrderIndex) Each(fn func(id uint64, e Entry) bool) {
	for id, e := range x.entries {
		if !fn(id, e) {
			return
		}
	}
}
