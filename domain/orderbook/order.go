package orderbook

import "tradebook/infra/memory"

type Side uint8

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	default:
		return "UNKNOWN"
	}
}

func (s Side) Valid() bool { return s == Buy || s == Sell }

// Order is a resting limit order. Quantity is the remaining size.
//
// Records returned by the book are owned by it; callers must treat them
// as read-only.
type Order struct {
	ID       uint64
	SymbolID uint32
	Side     Side
	Price    uint64
	Quantity uint64

	level memory.Handle
	prev  memory.Handle
	next  memory.Handle
}
