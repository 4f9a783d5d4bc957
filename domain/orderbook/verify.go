package orderbook

import (
	"github.com/cockroachdb/errors"

	"tradebook/infra/memory"
)

// Verify walks the whole book and reports the first broken invariant.
// It is O(n) and meant for tests and debug builds of the engine.
func (b *OrderBook) Verify() error {
	total := 0
	for _, side := range []Side{Buy, Sell} {
		t := b.tree(side)
		n, err := b.verifySide(side, t)
		if err != nil {
			return err
		}
		total += n
	}
	if total != b.orders {
		return errors.AssertionFailedf("symbol %d: order count %d, walked %d", b.symbolID, b.orders, total)
	}

	if want := b.bids.last(); b.bestBid != want {
		return errors.AssertionFailedf("symbol %d: best bid handle %d, max level %d", b.symbolID, b.bestBid, want)
	}
	if want := b.asks.first(); b.bestAsk != want {
		return errors.AssertionFailedf("symbol %d: best ask handle %d, min level %d", b.symbolID, b.bestAsk, want)
	}
	return nil
}

func (b *OrderBook) verifySide(side Side, t *priceTree) (int, error) {
	if t.lv(t.root).color != black {
		return 0, errors.AssertionFailedf("symbol %d %s: red root", b.symbolID, side)
	}
	if t.root != memory.Nil && t.lv(t.root).parent != memory.Nil {
		return 0, errors.AssertionFailedf("symbol %d %s: root has a parent", b.symbolID, side)
	}
	if _, err := b.verifySubtree(side, t, t.root); err != nil {
		return 0, err
	}

	var (
		err    error
		levels int
		orders int
		last   uint64
	)
	t.walkAsc(func(lh memory.Handle) bool {
		l := t.lv(lh)
		if levels > 0 && l.Price <= last {
			err = errors.AssertionFailedf("symbol %d %s: level %d not above %d", b.symbolID, side, l.Price, last)
			return false
		}
		last = l.Price
		levels++

		var n int
		if n, err = b.verifyLevel(side, lh, l); err != nil {
			return false
		}
		orders += n
		return true
	})
	if err != nil {
		return 0, err
	}
	if levels != t.size {
		return 0, errors.AssertionFailedf("symbol %d %s: tree size %d, walked %d", b.symbolID, side, t.size, levels)
	}
	return orders, nil
}

// verifySubtree checks parent links and red-black colouring and returns
// the black height.
func (b *OrderBook) verifySubtree(side Side, t *priceTree, n memory.Handle) (int, error) {
	if n == memory.Nil {
		return 1, nil
	}
	l := t.lv(n)
	for _, c := range []memory.Handle{l.left, l.right} {
		if c == memory.Nil {
			continue
		}
		if t.lv(c).parent != n {
			return 0, errors.AssertionFailedf("symbol %d %s: broken parent link at %d", b.symbolID, side, t.lv(c).Price)
		}
		if l.color == red && t.lv(c).color == red {
			return 0, errors.AssertionFailedf("symbol %d %s: red level %d has red child", b.symbolID, side, l.Price)
		}
	}
	lh, err := b.verifySubtree(side, t, l.left)
	if err != nil {
		return 0, err
	}
	rh, err := b.verifySubtree(side, t, l.right)
	if err != nil {
		return 0, err
	}
	if lh != rh {
		return 0, errors.AssertionFailedf("symbol %d %s: black height mismatch under %d", b.symbolID, side, l.Price)
	}
	if l.color == black {
		lh++
	}
	return lh, nil
}

func (b *OrderBook) verifyLevel(side Side, lh memory.Handle, l *Level) (int, error) {
	if l.head == memory.Nil || l.Count == 0 {
		return 0, errors.AssertionFailedf("symbol %d %s: empty level %d", b.symbolID, side, l.Price)
	}

	var (
		volume uint64
		count  int
		prev   = memory.Nil
	)
	for h := l.head; h != memory.Nil; h = b.store.Orders.At(h).next {
		if !b.store.Orders.Valid(h) {
			return 0, errors.AssertionFailedf("symbol %d %s: level %d links a freed order", b.symbolID, side, l.Price)
		}
		o := b.store.Orders.At(h)
		switch {
		case o.level != lh:
			return 0, errors.AssertionFailedf("order %d: level handle %d, queued in %d", o.ID, o.level, lh)
		case o.prev != prev:
			return 0, errors.AssertionFailedf("order %d: broken prev link", o.ID)
		case o.Quantity == 0:
			return 0, errors.AssertionFailedf("order %d: zero quantity while resting", o.ID)
		case o.Side != side || o.Price != l.Price || o.SymbolID != b.symbolID:
			return 0, errors.AssertionFailedf("order %d: queued at %s %d of symbol %d but is %s %d of symbol %d",
				o.ID, side, l.Price, b.symbolID, o.Side, o.Price, o.SymbolID)
		}
		volume += o.Quantity
		count++
		prev = h
	}
	if prev != l.tail {
		return 0, errors.AssertionFailedf("symbol %d %s: level %d tail mismatch", b.symbolID, side, l.Price)
	}
	if volume != l.Volume {
		return 0, errors.AssertionFailedf("symbol %d %s: level %d volume %d, orders sum %d", b.symbolID, side, l.Price, l.Volume, volume)
	}
	if count != l.Count {
		return 0, errors.AssertionFailedf("symbol %d %s: level %d count %d, walked %d", b.symbolID, side, l.Price, l.Count, count)
	}
	return count, nil
}
