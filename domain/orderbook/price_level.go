package orderbook

import "tradebook/infra/memory"

type color uint8

// black must stay the zero value: the Nil slot of the level pool is the
// tree sentinel.
const (
	black color = iota
	red
)

// Level is the FIFO queue of orders resting at one price on one side.
// Volume is always the sum of the queued orders' quantities.
type Level struct {
	Price  uint64
	Volume uint64
	Count  int

	head memory.Handle
	tail memory.Handle

	left   memory.Handle
	right  memory.Handle
	parent memory.Handle
	color  color
}

// LevelInfo is a detached copy of a level's aggregates.
type LevelInfo struct {
	Price  uint64
	Volume uint64
	Count  int
}

func (l *Level) Info() LevelInfo {
	return LevelInfo{Price: l.Price, Volume: l.Volume, Count: l.Count}
}

func (l *Level) Empty() bool { return l.head == memory.Nil }

func (l *Level) enqueue(orders *memory.Pool[Order], self, h memory.Handle) {
	o := orders.At(h)
	o.level = self
	o.prev = l.tail
	o.next = memory.Nil

	if l.tail != memory.Nil {
		orders.At(l.tail).next = h
	} else {
		l.head = h
	}
	l.tail = h

	l.Volume += o.Quantity
	l.Count++
}

func (l *Level) unlink(orders *memory.Pool[Order], h memory.Handle) {
	o := orders.At(h)
	if o.prev != memory.Nil {
		orders.At(o.prev).next = o.next
	} else {
		l.head = o.next
	}
	if o.next != memory.Nil {
		orders.At(o.next).prev = o.prev
	} else {
		l.tail = o.prev
	}

	l.Volume -= o.Quantity
	l.Count--

	o.prev = memory.Nil
	o.next = memory.Nil
	o.level = memory.Nil
}
