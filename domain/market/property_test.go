package market

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"tradebook/domain/orderbook"
)

// model is a naive reference of the resting orders.
type model map[uint64]orderbook.Order

func checkAgainstModel(t *testing.T, m *Manager, ref model) {
	t.Helper()
	require.NoError(t, m.Verify())
	require.Equal(t, len(ref), m.OrderCount())

	for id, want := range ref {
		got := m.GetOrder(id)
		require.NotNil(t, got, "order %d", id)
		require.Equal(t, want.Quantity, got.Quantity, "order %d", id)
		require.Equal(t, want.Price, got.Price, "order %d", id)
		require.Equal(t, want.Side, got.Side, "order %d", id)

		// the indexed record is the one queued in its level
		book := m.GetOrderBook(got.SymbolID)
		require.NotNil(t, book)
		l := book.Level(got.Side, got.Price)
		require.NotNil(t, l)
		found := false
		book.WalkOrders(l, func(o *orderbook.Order) bool {
			found = o == got
			return !found
		})
		require.True(t, found, "order %d not reachable from its level", id)
	}

	for _, s := range m.Symbols() {
		book := m.GetOrderBook(s.ID)
		var maxBid, minAsk uint64
		haveBid, haveAsk := false, false
		var bidVol, askVol uint64
		for _, o := range ref {
			if o.SymbolID != s.ID {
				continue
			}
			if o.Side == orderbook.Buy {
				bidVol += o.Quantity
				if !haveBid || o.Price > maxBid {
					maxBid, haveBid = o.Price, true
				}
			} else {
				askVol += o.Quantity
				if !haveAsk || o.Price < minAsk {
					minAsk, haveAsk = o.Price, true
				}
			}
		}
		if haveBid {
			require.Equal(t, maxBid, book.BestBid().Price)
		} else {
			require.Nil(t, book.BestBid())
		}
		if haveAsk {
			require.Equal(t, minAsk, book.BestAsk().Price)
		} else {
			require.Nil(t, book.BestAsk())
		}

		var sumBid, sumAsk uint64
		book.WalkBids(func(l *orderbook.Level) bool { sumBid += l.Volume; return true })
		book.WalkAsks(func(l *orderbook.Level) bool { sumAsk += l.Volume; return true })
		require.Equal(t, bidVol, sumBid)
		require.Equal(t, askVol, sumAsk)
	}
}

func TestRandomizedOperationsKeepInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(20171008))
	m := NewManager(Config{OrderChunk: 32, LevelChunk: 16, BookChunk: 2})
	ref := model{}
	symbols := []uint32{1, 2, 5}
	live := map[uint32]bool{}
	for _, s := range symbols {
		require.NoError(t, m.AddSymbol(NewSymbol(s, "S")))
		live[s] = true
	}

	nextID := uint64(1)
	for step := 0; step < 4000; step++ {
		switch op := rng.Intn(100); {
		case op < 50:
			o := orderbook.Order{
				ID:       nextID,
				SymbolID: symbols[rng.Intn(len(symbols))],
				Side:     orderbook.Side(rng.Intn(2)),
				Price:    uint64(90 + rng.Intn(20)),
				Quantity: uint64(rng.Intn(5)),
			}
			nextID++
			added, err := m.AddOrder(o)
			require.NoError(t, err)
			require.Equal(t, o.Quantity > 0 && live[o.SymbolID], added)
			if added {
				ref[o.ID] = o
			}
		case op < 75:
			id := uint64(rng.Int63n(int64(nextID) + 3))
			qty := uint64(rng.Intn(6))
			removed := m.CancelOrder(id, qty)
			if o, ok := ref[id]; ok && qty > 0 {
				want := min(qty, o.Quantity)
				require.Equal(t, want, removed)
				o.Quantity -= want
				if o.Quantity == 0 {
					delete(ref, id)
				} else {
					ref[id] = o
				}
			} else {
				require.Zero(t, removed)
			}
		case op < 97:
			id := uint64(rng.Int63n(int64(nextID) + 3))
			removed := m.DeleteOrder(id)
			if o, ok := ref[id]; ok {
				require.Equal(t, o.Quantity, removed)
				delete(ref, id)
			} else {
				require.Zero(t, removed)
			}
		default:
			s := symbols[rng.Intn(len(symbols))]
			if live[s] {
				require.NoError(t, m.DeleteSymbol(s))
				for id, o := range ref {
					if o.SymbolID == s {
						delete(ref, id)
					}
				}
			} else {
				require.NoError(t, m.AddSymbol(NewSymbol(s, "S")))
			}
			live[s] = !live[s]
		}
		checkAgainstModel(t, m, ref)
	}
}
