package wire

import (
	"github.com/cockroachdb/errors"

	"tradebook/domain/market"
	"tradebook/domain/orderbook"
	"tradebook/service"
)

// ErrInvalid marks messages that cannot be turned into an engine command.
var ErrInvalid = errors.New("invalid message")

// invalidSide is never valid in the domain; the engine rejects it as a
// precondition violation.
const invalidSide = orderbook.Side(0xff)

func (s Side) Domain() orderbook.Side {
	switch s {
	case SideBuy:
		return orderbook.Buy
	case SideSell:
		return orderbook.Sell
	default:
		return invalidSide
	}
}

func SideOf(s orderbook.Side) Side {
	switch s {
	case orderbook.Buy:
		return SideBuy
	case orderbook.Sell:
		return SideSell
	default:
		return SideUnspecified
	}
}

func (m *Symbol) Domain() (market.Symbol, error) {
	if m.Name == "" || len(m.Name) > market.SymbolNameLen {
		return market.Symbol{}, errors.Wrapf(ErrInvalid, "symbol name %q must be 1 to %d bytes", m.Name, market.SymbolNameLen)
	}
	return market.NewSymbol(m.ID, m.Name), nil
}

func SymbolOf(s market.Symbol) Symbol {
	return Symbol{ID: s.ID, Name: s.String()}
}

func (m *Order) Domain() orderbook.Order {
	return orderbook.Order{
		ID:       m.ID,
		SymbolID: m.SymbolID,
		Side:     m.Side.Domain(),
		Price:    m.Price,
		Quantity: m.Quantity,
	}
}

func OrderOf(o orderbook.Order) Order {
	return Order{
		ID:       o.ID,
		SymbolID: o.SymbolID,
		Side:     SideOf(o.Side),
		Price:    o.Price,
		Quantity: o.Quantity,
	}
}

// Engine converts m into an engine command.
func (m *Command) Engine() (service.Command, error) {
	switch m.Kind {
	case KindAddSymbol:
		s, err := m.Symbol.Domain()
		if err != nil {
			return service.Command{}, err
		}
		return service.AddSymbol(s), nil
	case KindDeleteSymbol:
		return service.DeleteSymbol(m.SymbolID), nil
	case KindAddOrder:
		return service.AddOrder(m.Order.Domain()), nil
	case KindCancelOrder:
		return service.CancelOrder(m.OrderID, m.Quantity).WithSymbol(m.SymbolID), nil
	case KindDeleteOrder:
		return service.DeleteOrder(m.OrderID).WithSymbol(m.SymbolID), nil
	default:
		return service.Command{}, errors.Wrapf(ErrInvalid, "command kind %d", m.Kind)
	}
}

func CommandOf(c service.Command) Command {
	out := Command{Kind: Kind(c.Kind)}
	switch c.Kind {
	case service.KindAddSymbol:
		out.Symbol = SymbolOf(c.Symbol)
	case service.KindDeleteSymbol:
		out.SymbolID = c.SymbolID
	case service.KindAddOrder:
		out.Order = OrderOf(c.Order)
	case service.KindCancelOrder:
		out.OrderID, out.Quantity, out.SymbolID = c.OrderID, c.Quantity, c.SymbolID
	case service.KindDeleteOrder:
		out.OrderID, out.SymbolID = c.OrderID, c.SymbolID
	}
	return out
}

// AckOf builds the acknowledgement of cmd. err is the error Submit
// returned alongside res, if any.
func AckOf(cmd service.Command, res service.Result, err error) Ack {
	ack := Ack{
		Seq:      res.Seq,
		Kind:     Kind(cmd.Kind),
		Status:   Status(res.Status),
		Quantity: res.Quantity,
	}
	switch cmd.Kind {
	case service.KindAddSymbol:
		ack.SymbolID = cmd.Symbol.ID
	case service.KindDeleteSymbol:
		ack.SymbolID = cmd.SymbolID
	case service.KindAddOrder:
		ack.OrderID = cmd.Order.ID
		ack.SymbolID = cmd.Order.SymbolID
	default:
		ack.OrderID = cmd.OrderID
		ack.SymbolID = cmd.SymbolID
	}
	if err != nil {
		ack.Status = StatusRejected
		ack.Error = err.Error()
	}
	return ack
}

func BookReplyOf(v service.BookView, found bool) BookReply {
	if !found {
		return BookReply{}
	}
	levels := func(in []orderbook.LevelInfo) []LevelEntry {
		out := make([]LevelEntry, len(in))
		for i, l := range in {
			out[i] = LevelEntry{Price: l.Price, Volume: l.Volume, Count: uint64(l.Count)}
		}
		return out
	}
	return BookReply{
		Found:  true,
		Symbol: SymbolOf(v.Symbol),
		Bids:   levels(v.Bids),
		Asks:   levels(v.Asks),
		Orders: uint64(v.Orders),
	}
}
