package market

import (
	"github.com/cockroachdb/errors"

	"tradebook/domain/orderbook"
	"tradebook/infra/memory"
)

type Config struct {
	// OrderChunk, LevelChunk and BookChunk size the pool chunks.
	OrderChunk int
	LevelChunk int
	BookChunk  int
	// IndexHint pre-sizes the order index.
	IndexHint int
	// MaxSymbolID bounds the id-indexed book table.
	MaxSymbolID uint32
}

func DefaultConfig() Config {
	return Config{
		OrderChunk:  4096,
		LevelChunk:  1024,
		BookChunk:   64,
		IndexHint:   1 << 16,
		MaxSymbolID: 1 << 20,
	}
}

// Manager is the market manager: symbol registry, book table and order index.
type Manager struct {
	cfg Config

	store *orderbook.Storage
	books *memory.Pool[orderbook.OrderBook]
	byID  []memory.Handle

	symbols *symbolRegistry
	index   *OrderIndex

	stats Stats
}

func NewManager(cfg Config) *Manager {
	def := DefaultConfig()
	if cfg.OrderChunk <= 0 {
		cfg.OrderChunk = def.OrderChunk
	}
	if cfg.LevelChunk <= 0 {
		cfg.LevelChunk = def.LevelChunk
	}
	if cfg.BookChunk <= 0 {
		cfg.BookChunk = def.BookChunk
	}
	if cfg.IndexHint < 0 {
		cfg.IndexHint = 0
	}
	if cfg.MaxSymbolID == 0 {
		cfg.MaxSymbolID = def.MaxSymbolID
	}

	return &Manager{
		cfg:     cfg,
		store:   orderbook.NewStorage(cfg.OrderChunk, cfg.LevelChunk),
		books:   memory.NewPool[orderbook.OrderBook](cfg.BookChunk),
		symbols: newSymbolRegistry(),
		index:   NewOrderIndex(cfg.IndexHint),
	}
}

//
// ──────────────────────────────────────────────────────────
// Symbols
// ──────────────────────────────────────────────────────────
//

// AddSymbol registers s and creates its empty book. Books are indexed by
// id, so ids above Config.MaxSymbolID (default 1<<20) are rejected with
// ErrSymbolRange, a precondition error, as are ids already registered.
func (m *Manager) AddSymbol(s Symbol) error {
	if s.ID > m.cfg.MaxSymbolID {
		m.stats.Rejected.Add(1)
		return errors.Wrapf(ErrSymbolRange, "symbol id %d above %d", s.ID, m.cfg.MaxSymbolID)
	}
	if m.bookHandle(s.ID) != memory.Nil {
		m.stats.Rejected.Add(1)
		return errors.Wrapf(ErrDuplicateSymbol, "symbol id %d", s.ID)
	}

	if int(s.ID) >= len(m.byID) {
		m.byID = append(m.byID, make([]memory.Handle, int(s.ID)+1-len(m.byID))...)
	}

	h, book := m.books.Alloc()
	book.Init(s.ID, m.store)
	m.byID[s.ID] = h
	m.symbols.add(s)

	m.stats.Books.Add(1)
	return nil
}

// DeleteSymbol drops the symbol's book. Every order still resting in it
// is evicted from the order index before the book's storage is reclaimed.
func (m *Manager) DeleteSymbol(id uint32) error {
	h := m.bookHandle(id)
	if h == memory.Nil {
		m.stats.Rejected.Add(1)
		return errors.Wrapf(ErrSymbolNotFound, "symbol id %d", id)
	}

	book := m.books.At(h)
	evicted := book.OrderCount()
	book.Orders(func(_ memory.Handle, o *orderbook.Order) bool {
		m.index.Delete(o.ID)
		return true
	})
	book.Reset()
	m.books.Free(h)
	m.byID[id] = memory.Nil
	m.symbols.remove(id)

	m.stats.OrdersRemoved.Add(uint64(evicted))
	m.stats.Books.Add(-1)
	m.syncGauges()
	return nil
}

func (m *Manager) Symbol(id uint32) (Symbol, bool) { return m.symbols.get(id) }

// SymbolByName returns the lowest-id symbol registered under name.
func (m *Manager) SymbolByName(name string) (Symbol, bool) { return m.symbols.lookup(name) }

// Symbols lists registered symbols ordered by name.
func (m *Manager) Symbols() []Symbol { return m.symbols.list() }

//
// ──────────────────────────────────────────────────────────
// Orders
// ──────────────────────────────────────────────────────────
//

// AddOrder rests o in its symbol's book. It reports whether the order
// was added. Zero quantity and unknown symbols are dropped silently;
// an invalid side or an id already resting is a precondition error.
func (m *Manager) AddOrder(o orderbook.Order) (bool, error) {
	if o.Quantity == 0 {
		m.stats.DroppedZeroQuantity.Add(1)
		return false, nil
	}
	bh := m.bookHandle(o.SymbolID)
	if bh == memory.Nil {
		m.stats.DroppedUnknownSymbol.Add(1)
		return false, nil
	}
	if !o.Side.Valid() {
		m.stats.Rejected.Add(1)
		return false, errors.Wrapf(ErrInvalidSide, "order id %d side %d", o.ID, o.Side)
	}
	if _, ok := m.index.Get(o.ID); ok {
		m.stats.Rejected.Add(1)
		return false, errors.Wrapf(ErrDuplicateOrder, "order id %d", o.ID)
	}

	h, rec := m.store.Orders.Alloc()
	*rec = orderbook.Order{
		ID:       o.ID,
		SymbolID: o.SymbolID,
		Side:     o.Side,
		Price:    o.Price,
		Quantity: o.Quantity,
	}
	if err := m.index.Add(o.ID, Entry{Book: bh, Order: h}); err != nil {
		m.store.Orders.Free(h)
		m.stats.Rejected.Add(1)
		return false, err
	}
	m.books.At(bh).AddOrder(h)

	m.stats.OrdersAdded.Add(1)
	m.syncGauges()
	return true, nil
}

// CancelOrder reduces the order by min(qty, remaining) and returns the
// amount removed. The order disappears when nothing remains. Unknown ids
// and qty == 0 are no-ops.
func (m *Manager) CancelOrder(id, qty uint64) uint64 {
	if qty == 0 {
		m.stats.DroppedZeroQuantity.Add(1)
		return 0
	}
	e, ok := m.index.Get(id)
	if !ok {
		m.stats.IgnoredUnknownOrder.Add(1)
		return 0
	}

	removed, gone := m.books.At(e.Book).ReduceOrder(e.Order, qty)
	if gone {
		m.index.Delete(id)
		m.stats.OrdersRemoved.Add(1)
	} else {
		m.stats.OrdersReduced.Add(1)
	}
	m.syncGauges()
	return removed
}

// DeleteOrder removes the order and returns the quantity it had left.
// Unknown ids are a no-op.
func (m *Manager) DeleteOrder(id uint64) uint64 {
	e, ok := m.index.Get(id)
	if !ok {
		m.stats.IgnoredUnknownOrder.Add(1)
		return 0
	}

	removed := m.books.At(e.Book).DeleteOrder(e.Order)
	m.index.Delete(id)

	m.stats.OrdersRemoved.Add(1)
	m.syncGauges()
	return removed
}

//
// ──────────────────────────────────────────────────────────
// Queries
// ──────────────────────────────────────────────────────────
//

// GetOrderBook returns the symbol's book or nil. The book is read-only
// for callers and only valid until the next mutation of the manager.
func (m *Manager) GetOrderBook(symbolID uint32) *orderbook.OrderBook {
	h := m.bookHandle(symbolID)
	if h == memory.Nil {
		return nil
	}
	return m.books.At(h)
}

// GetOrder returns the resting order or nil. Same ownership rules as
// GetOrderBook.
func (m *Manager) GetOrder(id uint64) *orderbook.Order {
	e, ok := m.index.Get(id)
	if !ok {
		return nil
	}
	return m.store.Orders.At(e.Order)
}

func (m *Manager) OrderCount() int { return m.index.Len() }

func (m *Manager) Stats() *Stats { return &m.stats }

// Close releases every book back to the pool.
func (m *Manager) Close() {
	for id, h := range m.byID {
		if h == memory.Nil {
			continue
		}
		m.books.At(h).Reset()
		m.books.Free(h)
		m.byID[id] = memory.Nil
		m.symbols.remove(uint32(id))
	}
	m.index = NewOrderIndex(0)
	m.stats.Books.Store(0)
	m.syncGauges()
}

func (m *Manager) bookHandle(id uint32) memory.Handle {
	if int(id) >= len(m.byID) {
		return memory.Nil
	}
	return m.byID[id]
}

func (m *Manager) syncGauges() {
	m.stats.LiveOrders.Store(int64(m.store.Orders.Live()))
	m.stats.LiveLevels.Store(int64(m.store.Levels.Live()))
}
