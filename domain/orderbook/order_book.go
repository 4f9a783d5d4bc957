package orderbook

import (
	"fmt"

	"tradebook/infra/memory"
)

// Storage holds the order and level pools shared by every book of an engine.
type Storage struct {
	Orders *memory.Pool[Order]
	Levels *memory.Pool[Level]
}

func NewStorage(orderChunk, levelChunk int) *Storage {
	return &Storage{
		Orders: memory.NewPool[Order](orderChunk),
		Levels: memory.NewPool[Level](levelChunk),
	}
}

// OrderBook holds the resting orders of one symbol.
//
// The zero value is unusable; books are either built with New or, when
// vended from a pool, initialised with Init.
type OrderBook struct {
	symbolID uint32
	store    *Storage

	bids priceTree
	asks priceTree

	bestBid memory.Handle
	bestAsk memory.Handle

	orders int
}

func New(symbolID uint32, store *Storage) *OrderBook {
	b := &OrderBook{}
	b.Init(symbolID, store)
	return b
}

func (b *OrderBook) Init(symbolID uint32, store *Storage) {
	*b = OrderBook{
		symbolID: symbolID,
		store:    store,
		bids:     newPriceTree(store.Levels),
		asks:     newPriceTree(store.Levels),
	}
}

func (b *OrderBook) SymbolID() uint32 { return b.symbolID }

// ──────────────────────────────────────────────────────────
// Mutations
// ──────────────────────────────────────────────────────────

// AddOrder appends the order record h to the tail of its price level,
// creating the level if the price is new on that side.
// The record must already carry this book's symbol and a positive quantity.
func (b *OrderBook) AddOrder(h memory.Handle) {
	o := b.store.Orders.At(h)
	if o.SymbolID != b.symbolID || o.Quantity == 0 || !o.Side.Valid() {
		panic(fmt.Sprintf("orderbook: invalid order %d for symbol %d", o.ID, b.symbolID))
	}

	tree := b.tree(o.Side)
	lh := tree.find(o.Price)
	created := false
	if lh == memory.Nil {
		var l *Level
		lh, l = b.store.Levels.Alloc()
		l.Price = o.Price
		tree.insert(lh)
		created = true
	}

	b.store.Levels.At(lh).enqueue(b.store.Orders, lh, h)
	b.orders++

	if created {
		b.promote(o.Side, lh)
	}
}

// ReduceOrder removes min(qty, remaining) from the order and returns the
// amount removed. When the remaining quantity reaches zero the record is
// freed (gone reports true) and an emptied level is destroyed.
func (b *OrderBook) ReduceOrder(h memory.Handle, qty uint64) (removed uint64, gone bool) {
	o := b.store.Orders.At(h)
	lh := o.level
	l := b.store.Levels.At(lh)

	removed = min(qty, o.Quantity)
	o.Quantity -= removed
	l.Volume -= removed
	if o.Quantity > 0 {
		return removed, false
	}

	side := o.Side
	l.unlink(b.store.Orders, h)
	b.store.Orders.Free(h)
	b.orders--

	if l.Empty() {
		b.removeLevel(side, lh)
	}
	return removed, true
}

// DeleteOrder removes the order entirely and returns the quantity it had left.
func (b *OrderBook) DeleteOrder(h memory.Handle) uint64 {
	removed, _ := b.ReduceOrder(h, b.store.Orders.At(h).Quantity)
	return removed
}

// Reset frees every order and level of the book. The caller is
// responsible for forgetting any handle it still holds.
func (b *OrderBook) Reset() {
	for _, t := range []*priceTree{&b.bids, &b.asks} {
		var levels []memory.Handle
		t.walkAsc(func(lh memory.Handle) bool {
			levels = append(levels, lh)
			return true
		})
		for _, lh := range levels {
			for oh := b.store.Levels.At(lh).head; oh != memory.Nil; {
				next := b.store.Orders.At(oh).next
				b.store.Orders.Free(oh)
				oh = next
			}
			b.store.Levels.Free(lh)
		}
		t.root = memory.Nil
		t.size = 0
	}
	b.bestBid = memory.Nil
	b.bestAsk = memory.Nil
	b.orders = 0
}

// ──────────────────────────────────────────────────────────
// Queries
// ──────────────────────────────────────────────────────────

// BestBid returns the highest bid level or nil.
func (b *OrderBook) BestBid() *Level { return b.levelOrNil(b.bestBid) }

// BestAsk returns the lowest ask level or nil.
func (b *OrderBook) BestAsk() *Level { return b.levelOrNil(b.bestAsk) }

// Level looks up the level at price on side.
func (b *OrderBook) Level(side Side, price uint64) *Level {
	return b.levelOrNil(b.tree(side).find(price))
}

func (b *OrderBook) LevelCount(side Side) int { return b.tree(side).Size() }

func (b *OrderBook) OrderCount() int { return b.orders }

func (b *OrderBook) Empty() bool { return b.orders == 0 }

// WalkBids visits bid levels from the best (highest) price down.
func (b *OrderBook) WalkBids(fn func(*Level) bool) {
	b.bids.walkDesc(func(h memory.Handle) bool { return fn(b.store.Levels.At(h)) })
}

// WalkAsks visits ask levels from the best (lowest) price up.
func (b *OrderBook) WalkAsks(fn func(*Level) bool) {
	b.asks.walkAsc(func(h memory.Handle) bool { return fn(b.store.Levels.At(h)) })
}

// Walk visits the levels of one side, best first.
func (b *OrderBook) Walk(side Side, fn func(*Level) bool) {
	if side == Buy {
		b.WalkBids(fn)
	} else {
		b.WalkAsks(fn)
	}
}

// WalkOrders visits the orders of a level in time priority.
func (b *OrderBook) WalkOrders(l *Level, fn func(*Order) bool) {
	for h := l.head; h != memory.Nil; {
		o := b.store.Orders.At(h)
		next := o.next
		if !fn(o) {
			return
		}
		h = next
	}
}

// Depth returns copies of up to n levels per side, best first.
// n <= 0 returns every level.
func (b *OrderBook) Depth(n int) (bids, asks []LevelInfo) {
	collect := func(side Side) []LevelInfo {
		out := make([]LevelInfo, 0, b.LevelCount(side))
		b.Walk(side, func(l *Level) bool {
			out = append(out, l.Info())
			return n <= 0 || len(out) < n
		})
		return out
	}
	return collect(Buy), collect(Sell)
}

// Levels copies every level of one side, best first.
func (b *OrderBook) Levels(side Side) []LevelInfo {
	out := make([]LevelInfo, 0, b.LevelCount(side))
	b.Walk(side, func(l *Level) bool {
		out = append(out, l.Info())
		return true
	})
	return out
}

// Orders visits every resting order with its handle, bids first.
func (b *OrderBook) Orders(fn func(h memory.Handle, o *Order) bool) {
	stop := false
	visit := func(l *Level) bool {
		for h := l.head; h != memory.Nil; {
			o := b.store.Orders.At(h)
			next := o.next
			if !fn(h, o) {
				stop = true
				return false
			}
			h = next
		}
		return true
	}
	b.WalkBids(visit)
	if !stop {
		b.WalkAsks(visit)
	}
}

// ──────────────────────────────────────────────────────────
// internals
// ──────────────────────────────────────────────────────────

func (b *OrderBook) tree(side Side) *priceTree {
	if side == Buy {
		return &b.bids
	}
	return &b.asks
}

func (b *OrderBook) levelOrNil(h memory.Handle) *Level {
	if h == memory.Nil {
		return nil
	}
	return b.store.Levels.At(h)
}

// promote makes a freshly created level the best if it improves on it.
func (b *OrderBook) promote(side Side, lh memory.Handle) {
	price := b.store.Levels.At(lh).Price
	switch side {
	case Buy:
		if b.bestBid == memory.Nil || price > b.store.Levels.At(b.bestBid).Price {
			b.bestBid = lh
		}
	case Sell:
		if b.bestAsk == memory.Nil || price < b.store.Levels.At(b.bestAsk).Price {
			b.bestAsk = lh
		}
	}
}

// removeLevel destroys an empty level, handing the best slot to its
// neighbour when needed.
func (b *OrderBook) removeLevel(side Side, lh memory.Handle) {
	tree := b.tree(side)
	switch side {
	case Buy:
		if b.bestBid == lh {
			b.bestBid = tree.prev(lh)
		}
	case Sell:
		if b.bestAsk == lh {
			b.bestAsk = tree.next(lh)
		}
	}
	tree.delete(lh)
	b.store.Levels.Free(lh)
}
