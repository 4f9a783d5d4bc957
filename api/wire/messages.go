// Package wire defines the messages exchanged with the engine over gRPC
// and Kafka, encoded in the protobuf wire format. tradebook.proto
// describes the same schema for clients in other languages.
package wire

import (
	"google.golang.org/protobuf/encoding/protowire"
)

type Message interface {
	// AppendWire appends the encoded message to b.
	AppendWire(b []byte) []byte
	// UnmarshalWire replaces the message with the decoding of b.
	// Unknown fields are skipped.
	UnmarshalWire(b []byte) error
}

func Marshal(m Message) []byte { return m.AppendWire(nil) }

type Side uint32

const (
	SideUnspecified Side = iota
	SideBuy
	SideSell
)

type Kind uint32

const (
	KindUnspecified Kind = iota
	KindAddSymbol
	KindDeleteSymbol
	KindAddOrder
	KindCancelOrder
	KindDeleteOrder
)

type Status uint32

const (
	StatusOK Status = iota
	StatusIgnored
	StatusRejected
)

type Symbol struct {
	ID       uint32
	Name     string
	TickSize string
}

func (m *Symbol) AppendWire(b []byte) []byte {
	b = appendUint(b, 1, uint64(m.ID))
	b = appendString(b, 2, m.Name)
	return appendString(b, 3, m.TickSize)
}

func (m *Symbol) UnmarshalWire(b []byte) error {
	*m = Symbol{}
	return walk(b, func(num protowire.Number, typ protowire.Type, v []byte) (int, error) {
		switch num {
		case 1:
			return readUint32(typ, v, &m.ID)
		case 2:
			return readString(typ, v, &m.Name)
		case 3:
			return readString(typ, v, &m.TickSize)
		}
		return skip, nil
	})
}

type SymbolRef struct {
	ID uint32
}

func (m *SymbolRef) AppendWire(b []byte) []byte { return appendUint(b, 1, uint64(m.ID)) }

func (m *SymbolRef) UnmarshalWire(b []byte) error {
	*m = SymbolRef{}
	return walk(b, func(num protowire.Number, typ protowire.Type, v []byte) (int, error) {
		if num == 1 {
			return readUint32(typ, v, &m.ID)
		}
		return skip, nil
	})
}

type Order struct {
	ID       uint64
	SymbolID uint32
	Side     Side
	Price    uint64
	Quantity uint64
}

func (m *Order) AppendWire(b []byte) []byte {
	b = appendUint(b, 1, m.ID)
	b = appendUint(b, 2, uint64(m.SymbolID))
	b = appendUint(b, 3, uint64(m.Side))
	b = appendUint(b, 4, m.Price)
	return appendUint(b, 5, m.Quantity)
}

func (m *Order) UnmarshalWire(b []byte) error {
	*m = Order{}
	return walk(b, func(num protowire.Number, typ protowire.Type, v []byte) (int, error) {
		switch num {
		case 1:
			return readUint(typ, v, &m.ID)
		case 2:
			return readUint32(typ, v, &m.SymbolID)
		case 3:
			return readUint32(typ, v, (*uint32)(&m.Side))
		case 4:
			return readUint(typ, v, &m.Price)
		case 5:
			return readUint(typ, v, &m.Quantity)
		}
		return skip, nil
	})
}

// OrderRef names an order. SymbolID is an optional routing hint.
type OrderRef struct {
	ID       uint64
	SymbolID uint32
}

func (m *OrderRef) AppendWire(b []byte) []byte {
	b = appendUint(b, 1, m.ID)
	return appendUint(b, 2, uint64(m.SymbolID))
}

func (m *OrderRef) UnmarshalWire(b []byte) error {
	*m = OrderRef{}
	return walk(b, func(num protowire.Number, typ protowire.Type, v []byte) (int, error) {
		switch num {
		case 1:
			return readUint(typ, v, &m.ID)
		case 2:
			return readUint32(typ, v, &m.SymbolID)
		}
		return skip, nil
	})
}

type CancelRequest struct {
	OrderID  uint64
	Quantity uint64
	SymbolID uint32
}

func (m *CancelRequest) AppendWire(b []byte) []byte {
	b = appendUint(b, 1, m.OrderID)
	b = appendUint(b, 2, m.Quantity)
	return appendUint(b, 3, uint64(m.SymbolID))
}

func (m *CancelRequest) UnmarshalWire(b []byte) error {
	*m = CancelRequest{}
	return walk(b, func(num protowire.Number, typ protowire.Type, v []byte) (int, error) {
		switch num {
		case 1:
			return readUint(typ, v, &m.OrderID)
		case 2:
			return readUint(typ, v, &m.Quantity)
		case 3:
			return readUint32(typ, v, &m.SymbolID)
		}
		return skip, nil
	})
}

// Command carries one mutation through Kafka. Only the fields named by
// Kind are meaningful; CancelOrder and DeleteOrder also carry the order's
// SymbolID so they are keyed like the AddOrder they follow.
type Command struct {
	Kind     Kind
	Symbol   Symbol
	Order    Order
	OrderID  uint64
	Quantity uint64
	SymbolID uint32
}

func (m *Command) AppendWire(b []byte) []byte {
	b = appendUint(b, 1, uint64(m.Kind))
	switch m.Kind {
	case KindAddSymbol:
		b = appendMessage(b, 2, &m.Symbol)
	case KindAddOrder:
		b = appendMessage(b, 3, &m.Order)
	}
	b = appendUint(b, 4, m.OrderID)
	b = appendUint(b, 5, m.Quantity)
	return appendUint(b, 6, uint64(m.SymbolID))
}

func (m *Command) UnmarshalWire(b []byte) error {
	*m = Command{}
	return walk(b, func(num protowire.Number, typ protowire.Type, v []byte) (int, error) {
		switch num {
		case 1:
			return readUint32(typ, v, (*uint32)(&m.Kind))
		case 2:
			return readMessage(typ, v, &m.Symbol)
		case 3:
			return readMessage(typ, v, &m.Order)
		case 4:
			return readUint(typ, v, &m.OrderID)
		case 5:
			return readUint(typ, v, &m.Quantity)
		case 6:
			return readUint32(typ, v, &m.SymbolID)
		}
		return skip, nil
	})
}

// Ack answers a mutation.
type Ack struct {
	Seq      uint64
	Kind     Kind
	Status   Status
	OrderID  uint64
	SymbolID uint32
	Quantity uint64
	Error    string
}

func (m *Ack) AppendWire(b []byte) []byte {
	b = appendUint(b, 1, m.Seq)
	b = appendUint(b, 2, uint64(m.Kind))
	b = appendUint(b, 3, uint64(m.Status))
	b = appendUint(b, 4, m.OrderID)
	b = appendUint(b, 5, uint64(m.SymbolID))
	b = appendUint(b, 6, m.Quantity)
	return appendString(b, 7, m.Error)
}

func (m *Ack) UnmarshalWire(b []byte) error {
	*m = Ack{}
	return walk(b, func(num protowire.Number, typ protowire.Type, v []byte) (int, error) {
		switch num {
		case 1:
			return readUint(typ, v, &m.Seq)
		case 2:
			return readUint32(typ, v, (*uint32)(&m.Kind))
		case 3:
			return readUint32(typ, v, (*uint32)(&m.Status))
		case 4:
			return readUint(typ, v, &m.OrderID)
		case 5:
			return readUint32(typ, v, &m.SymbolID)
		case 6:
			return readUint(typ, v, &m.Quantity)
		case 7:
			return readString(typ, v, &m.Error)
		}
		return skip, nil
	})
}

type OrderReply struct {
	Found bool
	Order Order
}

func (m *OrderReply) AppendWire(b []byte) []byte {
	b = appendBool(b, 1, m.Found)
	if m.Found {
		b = appendMessage(b, 2, &m.Order)
	}
	return b
}

func (m *OrderReply) UnmarshalWire(b []byte) error {
	*m = OrderReply{}
	return walk(b, func(num protowire.Number, typ protowire.Type, v []byte) (int, error) {
		switch num {
		case 1:
			return readBool(typ, v, &m.Found)
		case 2:
			return readMessage(typ, v, &m.Order)
		}
		return skip, nil
	})
}

type BookRequest struct {
	SymbolID uint32
	// Depth caps the levels returned per side; 0 returns all of them.
	Depth uint32
}

func (m *BookRequest) AppendWire(b []byte) []byte {
	b = appendUint(b, 1, uint64(m.SymbolID))
	return appendUint(b, 2, uint64(m.Depth))
}

func (m *BookRequest) UnmarshalWire(b []byte) error {
	*m = BookRequest{}
	return walk(b, func(num protowire.Number, typ protowire.Type, v []byte) (int, error) {
		switch num {
		case 1:
			return readUint32(typ, v, &m.SymbolID)
		case 2:
			return readUint32(typ, v, &m.Depth)
		}
		return skip, nil
	})
}

type LevelEntry struct {
	Price  uint64
	Volume uint64
	Count  uint64
}

func (m *LevelEntry) AppendWire(b []byte) []byte {
	b = appendUint(b, 1, m.Price)
	b = appendUint(b, 2, m.Volume)
	return appendUint(b, 3, m.Count)
}

func (m *LevelEntry) UnmarshalWire(b []byte) error {
	*m = LevelEntry{}
	return walk(b, func(num protowire.Number, typ protowire.Type, v []byte) (int, error) {
		switch num {
		case 1:
			return readUint(typ, v, &m.Price)
		case 2:
			return readUint(typ, v, &m.Volume)
		case 3:
			return readUint(typ, v, &m.Count)
		}
		return skip, nil
	})
}

type BookReply struct {
	Found  bool
	Symbol Symbol
	Bids   []LevelEntry
	Asks   []LevelEntry
	Orders uint64
}

func (m *BookReply) AppendWire(b []byte) []byte {
	b = appendBool(b, 1, m.Found)
	if m.Found {
		b = appendMessage(b, 2, &m.Symbol)
	}
	for i := range m.Bids {
		b = appendMessage(b, 3, &m.Bids[i])
	}
	for i := range m.Asks {
		b = appendMessage(b, 4, &m.Asks[i])
	}
	return appendUint(b, 5, m.Orders)
}

func (m *BookReply) UnmarshalWire(b []byte) error {
	*m = BookReply{}
	return walk(b, func(num protowire.Number, typ protowire.Type, v []byte) (int, error) {
		switch num {
		case 1:
			return readBool(typ, v, &m.Found)
		case 2:
			return readMessage(typ, v, &m.Symbol)
		case 3, 4:
			var l LevelEntry
			n, err := readMessage(typ, v, &l)
			if err != nil || n == skip {
				return n, err
			}
			if num == 3 {
				m.Bids = append(m.Bids, l)
			} else {
				m.Asks = append(m.Asks, l)
			}
			return n, nil
		case 5:
			return readUint(typ, v, &m.Orders)
		}
		return skip, nil
	})
}
