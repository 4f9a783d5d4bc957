package market

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"

	"tradebook/domain/orderbook"
)

// Digest hashes the logical state of the market: registered symbols,
// every level in price order and every order in time priority.
// Two managers with equal digests hold the same books.
func (m *Manager) Digest() uint64 {
	d := xxhash.New()
	buf := make([]byte, 0, 64)

	for id := range m.byID {
		book := m.GetOrderBook(uint32(id))
		if book == nil {
			continue
		}
		s, _ := m.symbols.get(uint32(id))
		buf = binary.LittleEndian.AppendUint32(buf[:0], s.ID)
		buf = append(buf, s.Name[:]...)
		_, _ = d.Write(buf)

		for _, side := range []orderbook.Side{orderbook.Buy, orderbook.Sell} {
			buf = append(buf[:0], 'L', byte(side))
			_, _ = d.Write(buf)
			book.Walk(side, func(l *orderbook.Level) bool {
				buf = binary.LittleEndian.AppendUint64(buf[:0], l.Price)
				buf = binary.LittleEndian.AppendUint64(buf, l.Volume)
				buf = binary.LittleEndian.AppendUint32(buf, uint32(l.Count))
				_, _ = d.Write(buf)
				book.WalkOrders(l, func(o *orderbook.Order) bool {
					buf = binary.LittleEndian.AppendUint64(buf[:0], o.ID)
					buf = binary.LittleEndian.AppendUint64(buf, o.Quantity)
					_, _ = d.Write(buf)
					return true
				})
				return true
			})
		}
	}

	buf = binary.LittleEndian.AppendUint64(buf[:0], uint64(m.index.Len()))
	_, _ = d.Write(buf)
	return d.Sum64()
}
