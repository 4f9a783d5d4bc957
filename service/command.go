package service

import (
	"github.com/cockroachdb/errors"

	"tradebook/domain/market"
	"tradebook/domain/orderbook"
)

type Kind uint8

const (
	KindAddSymbol Kind = iota + 1
	KindDeleteSymbol
	KindAddOrder
	KindCancelOrder
	KindDeleteOrder
)

func (k Kind) String() string {
	switch k {
	case KindAddSymbol:
		return "AddSymbol"
	case KindDeleteSymbol:
		return "DeleteSymbol"
	case KindAddOrder:
		return "AddOrder"
	case KindCancelOrder:
		return "CancelOrder"
	case KindDeleteOrder:
		return "DeleteOrder"
	default:
		return "Unknown"
	}
}

// Command is one mutation of the market. Which fields are read depends
// on Kind:
//
//	AddSymbol     Symbol
//	DeleteSymbol  SymbolID
//	AddOrder      Order
//	CancelOrder   OrderID, Quantity
//	DeleteOrder   OrderID
//
// On CancelOrder and DeleteOrder, SymbolID is optional and only used to
// route the command next to the AddOrder it refers to; the engine finds
// the order by id.
type Command struct {
	Kind     Kind
	Symbol   market.Symbol
	SymbolID uint32
	Order    orderbook.Order
	OrderID  uint64
	Quantity uint64
}

func AddSymbol(s market.Symbol) Command { return Command{Kind: KindAddSymbol, Symbol: s} }

func DeleteSymbol(id uint32) Command { return Command{Kind: KindDeleteSymbol, SymbolID: id} }

func AddOrder(o orderbook.Order) Command { return Command{Kind: KindAddOrder, Order: o} }

func CancelOrder(id, qty uint64) Command {
	return Command{Kind: KindCancelOrder, OrderID: id, Quantity: qty}
}

func DeleteOrder(id uint64) Command { return Command{Kind: KindDeleteOrder, OrderID: id} }

// WithSymbol sets the routing symbol of a CancelOrder or DeleteOrder.
func (c Command) WithSymbol(id uint32) Command {
	c.SymbolID = id
	return c
}

type Status uint8

const (
	// StatusOK means the command changed the market.
	StatusOK Status = iota
	// StatusIgnored means the command was a silent no-op: zero quantity,
	// unknown symbol on AddOrder or unknown order id.
	StatusIgnored
	// StatusRejected means the command broke a precondition. The market
	// is unchanged.
	StatusRejected
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusIgnored:
		return "IGNORED"
	case StatusRejected:
		return "REJECTED"
	default:
		return "UNKNOWN"
	}
}

// Result is the outcome of an applied command.
type Result struct {
	Seq    uint64
	Kind   Kind
	Status Status
	// Quantity is the size rested by AddOrder or removed by
	// CancelOrder and DeleteOrder.
	Quantity uint64
}

// BookView is a copy of a book's state.
type BookView struct {
	Symbol market.Symbol
	Bids   []orderbook.LevelInfo
	Asks   []orderbook.LevelInfo
	Orders int
}

var (
	ErrClosed         = errors.New("engine closed")
	ErrRunning        = errors.New("engine already running")
	ErrUnknownCommand = errors.Mark(errors.New("unknown command"), market.ErrPrecondition)
)
