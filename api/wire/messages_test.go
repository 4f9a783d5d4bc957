package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

func TestOrderEncoding(t *testing.T) {
	o := Order{ID: 1, SymbolID: 2, Side: SideSell, Price: 300, Quantity: 4}
	want := []byte{0x08, 0x01, 0x10, 0x02, 0x18, 0x02, 0x20, 0xac, 0x02, 0x28, 0x04}
	assert.Equal(t, want, Marshal(&o))

	var got Order
	require.NoError(t, got.UnmarshalWire(want))
	assert.Equal(t, o, got)
}

func TestZeroValuesAreOmitted(t *testing.T) {
	assert.Empty(t, Marshal(&Order{}))
	assert.Empty(t, Marshal(&Ack{}))
	assert.Empty(t, Marshal(&OrderReply{}))
}

func TestUnknownFieldsAreSkipped(t *testing.T) {
	b := Marshal(&CancelRequest{OrderID: 9, Quantity: 3})
	b = protowire.AppendTag(b, 99, protowire.BytesType)
	b = protowire.AppendString(b, "future")
	b = protowire.AppendTag(b, 98, protowire.Fixed64Type)
	b = protowire.AppendFixed64(b, 7)
	// known number with an unexpected type is skipped too
	b = protowire.AppendTag(b, 1, protowire.BytesType)
	b = protowire.AppendString(b, "x")

	var got CancelRequest
	require.NoError(t, got.UnmarshalWire(b))
	assert.Equal(t, CancelRequest{OrderID: 9, Quantity: 3}, got)
}

func TestRoutingSymbolOnOrderRefs(t *testing.T) {
	// field 3 of CancelRequest, field 2 of OrderRef
	assert.Equal(t, []byte{0x08, 0x09, 0x10, 0x03, 0x18, 0x07},
		Marshal(&CancelRequest{OrderID: 9, Quantity: 3, SymbolID: 7}))
	assert.Equal(t, []byte{0x08, 0x0c, 0x10, 0x07}, Marshal(&OrderRef{ID: 12, SymbolID: 7}))

	var ref OrderRef
	require.NoError(t, ref.UnmarshalWire(Marshal(&OrderRef{ID: 12, SymbolID: 7})))
	assert.Equal(t, OrderRef{ID: 12, SymbolID: 7}, ref)

	var cmd Command
	require.NoError(t, cmd.UnmarshalWire(Marshal(&Command{Kind: KindDeleteOrder, OrderID: 12, SymbolID: 7})))
	assert.Equal(t, Command{Kind: KindDeleteOrder, OrderID: 12, SymbolID: 7}, cmd)
}

func TestUnmarshalResetsMessage(t *testing.T) {
	got := Ack{Seq: 5, Error: "stale"}
	require.NoError(t, got.UnmarshalWire(Marshal(&Ack{Kind: KindDeleteOrder})))
	assert.Equal(t, Ack{Kind: KindDeleteOrder}, got)
}

func TestTruncatedInput(t *testing.T) {
	b := Marshal(&Ack{Seq: 1 << 40, Error: "precondition violated"})

	var a Ack
	assert.Error(t, a.UnmarshalWire(b[:len(b)-1]))
	assert.Error(t, a.UnmarshalWire(b[:2]), "cut inside a varint")
}

func TestUint32Overflow(t *testing.T) {
	b := protowire.AppendTag(nil, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, 1<<33)

	var s SymbolRef
	assert.Error(t, s.UnmarshalWire(b))
}

func TestCommandNesting(t *testing.T) {
	cases := []Command{
		{Kind: KindAddSymbol, Symbol: Symbol{ID: 3, Name: "AAPL", TickSize: "0.01"}},
		{Kind: KindDeleteSymbol, SymbolID: 3},
		{Kind: KindAddOrder, Order: Order{ID: 7, SymbolID: 3, Side: SideBuy, Price: 100, Quantity: 5}},
		{Kind: KindCancelOrder, OrderID: 7, Quantity: 2},
		{Kind: KindDeleteOrder, OrderID: 7},
	}
	for _, c := range cases {
		var got Command
		require.NoError(t, got.UnmarshalWire(Marshal(&c)))
		assert.Equal(t, c, got)
	}
}

func TestBookReply(t *testing.T) {
	r := BookReply{
		Found:  true,
		Symbol: Symbol{ID: 1, Name: "MSFT"},
		Bids:   []LevelEntry{{Price: 101, Volume: 5, Count: 2}, {Price: 100, Volume: 1, Count: 1}},
		Asks:   []LevelEntry{{Price: 103, Volume: 9, Count: 3}},
		Orders: 6,
	}
	var got BookReply
	require.NoError(t, got.UnmarshalWire(Marshal(&r)))
	assert.Equal(t, r, got)

	var empty BookReply
	require.NoError(t, empty.UnmarshalWire(Marshal(&BookReply{})))
	assert.False(t, empty.Found)
	assert.Nil(t, empty.Bids)
}

func TestCodec(t *testing.T) {
	c := Codec{}
	assert.Equal(t, "tradebook", c.Name())

	b, err := c.Marshal(&OrderRef{ID: 12})
	require.NoError(t, err)

	var ref OrderRef
	require.NoError(t, c.Unmarshal(b, &ref))
	assert.Equal(t, uint64(12), ref.ID)

	_, err = c.Marshal("not a message")
	assert.Error(t, err)
	assert.Error(t, c.Unmarshal(b, new(int)))
}
