package kafka

import (
	"context"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradebook/api/wire"
)

type fakeWriter struct {
	msgs   []kafka.Message
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestProducerSend(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{writer: w}

	cmd := wire.Command{Kind: wire.KindAddOrder, Order: wire.Order{ID: 1, SymbolID: 9, Side: wire.SideSell, Price: 5, Quantity: 2}}
	require.NoError(t, p.Send(context.Background(), cmd))
	require.NoError(t, p.Close())

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "s/9", string(w.msgs[0].Key))

	var got wire.Command
	require.NoError(t, got.UnmarshalWire(w.msgs[0].Value))
	assert.Equal(t, cmd, got)
	assert.True(t, w.closed)
}

func TestNewProducerTopic(t *testing.T) {
	p := NewProducer([]string{"localhost:9092"}, "cmds")
	w, ok := p.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, "cmds", w.Topic)
}
