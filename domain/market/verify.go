package market

import (
	"github.com/cockroachdb/errors"

	"tradebook/domain/orderbook"
	"tradebook/infra/memory"
)

// Verify checks every book and the order index against each other and
// returns the first inconsistency. It is O(n).
func (m *Manager) Verify() error {
	orders, levels, books := 0, 0, 0
	for id, h := range m.byID {
		if h == memory.Nil {
			continue
		}
		books++
		book := m.books.At(h)
		if book.SymbolID() != uint32(id) {
			return errors.AssertionFailedf("book slot %d holds symbol %d", id, book.SymbolID())
		}
		if _, ok := m.symbols.get(uint32(id)); !ok {
			return errors.AssertionFailedf("book %d has no registered symbol", id)
		}
		if err := book.Verify(); err != nil {
			return err
		}
		orders += book.OrderCount()
		levels += book.LevelCount(orderbook.Buy) + book.LevelCount(orderbook.Sell)
	}

	if books != m.symbols.len() {
		return errors.AssertionFailedf("%d books, %d symbols", books, m.symbols.len())
	}
	if orders != m.index.Len() {
		return errors.AssertionFailedf("%d resting orders, %d indexed", orders, m.index.Len())
	}
	if orders != m.store.Orders.Live() {
		return errors.AssertionFailedf("%d resting orders, %d order slots live", orders, m.store.Orders.Live())
	}
	if levels != m.store.Levels.Live() {
		return errors.AssertionFailedf("%d levels, %d level slots live", levels, m.store.Levels.Live())
	}

	var err error
	m.index.Each(func(id uint64, e Entry) bool {
		switch {
		case !m.books.Valid(e.Book):
			err = errors.AssertionFailedf("order %d: dead book handle %d", id, e.Book)
		case !m.store.Orders.Valid(e.Order):
			err = errors.AssertionFailedf("order %d: dead order handle %d", id, e.Order)
		default:
			o := m.store.Orders.At(e.Order)
			if o.ID != id {
				err = errors.AssertionFailedf("index id %d points at order %d", id, o.ID)
			} else if m.bookHandle(o.SymbolID) != e.Book {
				err = errors.AssertionFailedf("order %d: indexed book is not symbol %d's book", id, o.SymbolID)
			}
		}
		return err == nil
	})
	return err
}
