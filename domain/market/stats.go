package market

import "sync/atomic"

// Stats are written by the engine goroutine and may be read from any
// goroutine.
type Stats struct {
	OrdersAdded   atomic.Uint64
	OrdersReduced atomic.Uint64
	OrdersRemoved atomic.Uint64

	// DroppedUnknownSymbol counts AddOrder calls for symbols with no
	// book. A rising value usually means a misconfigured symbol source.
	DroppedUnknownSymbol atomic.Uint64
	DroppedZeroQuantity  atomic.Uint64
	IgnoredUnknownOrder  atomic.Uint64
	Rejected             atomic.Uint64

	LiveOrders atomic.Int64
	LiveLevels atomic.Int64
	Books      atomic.Int64
}

// StatsSnapshot is a plain copy of Stats.
type StatsSnapshot struct {
	OrdersAdded          uint64
	OrdersReduced        uint64
	OrdersRemoved        uint64
	DroppedUnknownSymbol uint64
	DroppedZeroQuantity  uint64
	IgnoredUnknownOrder  uint64
	Rejected             uint64
	LiveOrders           int64
	LiveLevels           int64
	Books                int64
}

func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		OrdersAdded:          s.OrdersAdded.Load(),
		OrdersReduced:        s.OrdersReduced.Load(),
		OrdersRemoved:        s.OrdersRemoved.Load(),
		DroppedUnknownSymbol: s.DroppedUnknownSymbol.Load(),
		DroppedZeroQuantity:  s.DroppedZeroQuantity.Load(),
		IgnoredUnknownOrder:  s.IgnoredUnknownOrder.Load(),
		Rejected:             s.Rejected.Load(),
		LiveOrders:           s.LiveOrders.Load(),
		LiveLevels:           s.LiveLevels.Load(),
		Books:                s.Books.Load(),
	}
}
