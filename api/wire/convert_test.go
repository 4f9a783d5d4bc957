package wire

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradebook/domain/market"
	"tradebook/domain/orderbook"
	"tradebook/service"
)

func TestCommandToEngine(t *testing.T) {
	cmds := []service.Command{
		service.AddSymbol(market.NewSymbol(4, "GOOG")),
		service.DeleteSymbol(4),
		service.AddOrder(orderbook.Order{ID: 1, SymbolID: 4, Side: orderbook.Sell, Price: 10, Quantity: 2}),
		service.CancelOrder(1, 1),
		service.CancelOrder(1, 1).WithSymbol(4),
		service.DeleteOrder(1),
		service.DeleteOrder(1).WithSymbol(4),
	}
	for _, c := range cmds {
		w := CommandOf(c)
		got, err := w.Engine()
		require.NoError(t, err, c.Kind)
		assert.Equal(t, c, got, c.Kind)
	}
}

func TestCommandToEngineInvalid(t *testing.T) {
	_, err := (&Command{}).Engine()
	assert.True(t, errors.Is(err, ErrInvalid))

	_, err = (&Command{Kind: KindAddSymbol, Symbol: Symbol{ID: 1, Name: "TOOLONGNAME"}}).Engine()
	assert.True(t, errors.Is(err, ErrInvalid))

	_, err = (&Command{Kind: KindAddSymbol, Symbol: Symbol{ID: 1}}).Engine()
	assert.True(t, errors.Is(err, ErrInvalid))
}

func TestUnspecifiedSideStaysInvalid(t *testing.T) {
	o := (&Order{ID: 1, Side: SideUnspecified}).Domain()
	assert.False(t, o.Side.Valid())
	assert.Equal(t, SideUnspecified, SideOf(o.Side))
}

func TestAckOf(t *testing.T) {
	cmd := service.AddOrder(orderbook.Order{ID: 9, SymbolID: 2, Side: orderbook.Buy, Price: 1, Quantity: 3})
	ack := AckOf(cmd, service.Result{Seq: 4, Kind: service.KindAddOrder, Quantity: 3}, nil)
	assert.Equal(t, Ack{Seq: 4, Kind: KindAddOrder, Status: StatusOK, OrderID: 9, SymbolID: 2, Quantity: 3}, ack)

	rej := AckOf(service.DeleteSymbol(8),
		service.Result{Seq: 5, Kind: service.KindDeleteSymbol, Status: service.StatusRejected},
		errors.Wrap(market.ErrSymbolNotFound, "symbol id 8"))
	assert.Equal(t, StatusRejected, rej.Status)
	assert.Equal(t, uint32(8), rej.SymbolID)
	assert.Contains(t, rej.Error, "symbol not found")

	cancel := AckOf(service.CancelOrder(9, 1).WithSymbol(2), service.Result{Seq: 6, Kind: service.KindCancelOrder, Quantity: 1}, nil)
	assert.Equal(t, Ack{Seq: 6, Kind: KindCancelOrder, Status: StatusOK, OrderID: 9, SymbolID: 2, Quantity: 1}, cancel)
}

func TestBookReplyOf(t *testing.T) {
	v := service.BookView{
		Symbol: market.NewSymbol(1, "X"),
		Bids:   []orderbook.LevelInfo{{Price: 5, Volume: 2, Count: 1}},
		Orders: 1,
	}
	r := BookReplyOf(v, true)
	assert.True(t, r.Found)
	assert.Equal(t, Symbol{ID: 1, Name: "X"}, r.Symbol)
	assert.Equal(t, []LevelEntry{{Price: 5, Volume: 2, Count: 1}}, r.Bids)
	assert.Empty(t, r.Asks)

	assert.Equal(t, BookReply{}, BookReplyOf(service.BookView{}, false))
}
