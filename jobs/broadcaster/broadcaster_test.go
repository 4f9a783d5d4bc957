package broadcaster

import (
	"context"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradebook/api/wire"
)

func TestBroadcasterPublishes(t *testing.T) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	p := mocks.NewSyncProducer(t, cfg)

	want := wire.Ack{Seq: 3, Kind: wire.KindAddOrder, OrderID: 9, SymbolID: 2, Quantity: 5}
	p.ExpectSendMessageWithCheckerFunctionAndSucceed(func(v []byte) error {
		var got wire.Ack
		if err := got.UnmarshalWire(v); err != nil {
			return err
		}
		assert.Equal(t, want, got)
		return nil
	})
	p.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	b := New(p, "acks", 8, nil)
	require.True(t, b.Enqueue(want))
	require.True(t, b.Enqueue(wire.Ack{Seq: 4}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b.Run(ctx)

	assert.Equal(t, uint64(1), b.Sent())
	assert.Equal(t, uint64(1), b.Failed())
	require.NoError(t, b.Close())
}

func TestBroadcasterDropsWhenFull(t *testing.T) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	p := mocks.NewSyncProducer(t, cfg)
	defer p.Close()

	b := New(p, "acks", 1, nil)
	assert.True(t, b.Enqueue(wire.Ack{Seq: 1}))
	assert.False(t, b.Enqueue(wire.Ack{Seq: 2}))
	assert.Equal(t, uint64(1), b.Dropped())
}

func TestAckKey(t *testing.T) {
	assert.Equal(t, "s/2", string(AckKey(&wire.Ack{Kind: wire.KindAddOrder, OrderID: 9, SymbolID: 2})))
	assert.Equal(t, "s/2", string(AckKey(&wire.Ack{Kind: wire.KindCancelOrder, OrderID: 9, SymbolID: 2})))
	assert.Equal(t, "s/4", string(AckKey(&wire.Ack{Kind: wire.KindDeleteSymbol, SymbolID: 4})))
}
