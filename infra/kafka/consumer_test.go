package kafka

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradebook/api/wire"
	"tradebook/service"
)

// fakeReader hands out msgs, then blocks until the context ends.
type fakeReader struct {
	mu        sync.Mutex
	msgs      []kafka.Message
	committed []int64
	drained   chan struct{}
	commitErr error
}

func newFakeReader(msgs ...kafka.Message) *fakeReader {
	return &fakeReader{msgs: msgs, drained: make(chan struct{})}
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.msgs) > 0 {
		m := r.msgs[0]
		r.msgs = r.msgs[1:]
		r.mu.Unlock()
		return m, nil
	}
	r.mu.Unlock()
	select {
	case <-r.drained:
	default:
		close(r.drained)
	}
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.commitErr != nil {
		return r.commitErr
	}
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

type ackRecorder struct {
	mu   sync.Mutex
	acks []wire.Ack
}

func (a *ackRecorder) Enqueue(ack wire.Ack) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acks = append(a.acks, ack)
	return true
}

func msg(offset int64, cmd wire.Command) kafka.Message {
	return kafka.Message{Offset: offset, Key: CommandKey(&cmd), Value: wire.Marshal(&cmd)}
}

func startEngine(t *testing.T) *service.Engine {
	eng := service.New(service.DefaultConfig(), nil)
	go func() { _ = eng.Run(context.Background()) }()
	t.Cleanup(eng.Close)
	return eng
}

func runUntilDrained(t *testing.T, c *Consumer, r *fakeReader) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	select {
	case <-r.drained:
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not drain the reader")
	}
	cancel()
	require.NoError(t, <-done)
}

func TestConsumerAppliesAndAcks(t *testing.T) {
	eng := startEngine(t)
	r := newFakeReader(
		msg(0, wire.Command{Kind: wire.KindAddSymbol, Symbol: wire.Symbol{ID: 1, Name: "AAPL"}}),
		msg(1, wire.Command{Kind: wire.KindAddOrder, Order: wire.Order{ID: 5, SymbolID: 1, Side: wire.SideBuy, Price: 10, Quantity: 4}}),
		msg(2, wire.Command{Kind: wire.KindCancelOrder, OrderID: 5, Quantity: 1, SymbolID: 1}),
		msg(3, wire.Command{Kind: wire.KindAddSymbol, Symbol: wire.Symbol{ID: 1, Name: "AAPL"}}),
		kafka.Message{Offset: 4, Value: []byte{0xff}},
		msg(5, wire.Command{Kind: wire.Kind(42)}),
	)
	acks := &ackRecorder{}
	c := NewConsumer(r, eng, acks, nil)

	runUntilDrained(t, c, r)

	assert.Equal(t, []int64{0, 1, 2, 3, 4, 5}, r.committed)
	assert.Equal(t, uint64(4), c.Applied())
	assert.Equal(t, uint64(2), c.Malformed())

	require.Len(t, acks.acks, 5)
	assert.Equal(t, wire.StatusOK, acks.acks[0].Status)
	assert.Equal(t, wire.Ack{Seq: 2, Kind: wire.KindAddOrder, Status: wire.StatusOK, OrderID: 5, SymbolID: 1, Quantity: 4}, acks.acks[1])
	assert.Equal(t, wire.Ack{Seq: 3, Kind: wire.KindCancelOrder, Status: wire.StatusOK, OrderID: 5, SymbolID: 1, Quantity: 1}, acks.acks[2])
	assert.Equal(t, wire.StatusRejected, acks.acks[3].Status)
	assert.Contains(t, acks.acks[3].Error, "duplicate symbol")
	assert.Equal(t, wire.StatusRejected, acks.acks[4].Status)

	o, found, err := eng.Order(context.Background(), 5)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, uint64(3), o.Quantity)
}

func TestConsumerStopsWhenEngineCloses(t *testing.T) {
	eng := service.New(service.DefaultConfig(), nil)
	eng.Close()

	r := newFakeReader(msg(0, wire.Command{Kind: wire.KindDeleteOrder, OrderID: 1}))
	c := NewConsumer(r, eng, nil, nil)

	err := c.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, service.ErrClosed)
	assert.Empty(t, r.committed, "an unapplied command is not committed")
}

func TestConsumerCommitError(t *testing.T) {
	eng := startEngine(t)
	r := newFakeReader(msg(0, wire.Command{Kind: wire.KindDeleteOrder, OrderID: 1}))
	r.commitErr = assert.AnError

	err := NewConsumer(r, eng, nil, nil).Run(context.Background())
	assert.ErrorIs(t, err, assert.AnError)
}

func TestCommandKey(t *testing.T) {
	assert.Equal(t, "s/7", string(CommandKey(&wire.Command{Kind: wire.KindAddSymbol, Symbol: wire.Symbol{ID: 7}})))
	assert.Equal(t, "s/7", string(CommandKey(&wire.Command{Kind: wire.KindAddOrder, Order: wire.Order{SymbolID: 7}})))
	assert.Equal(t, "s/3", string(CommandKey(&wire.Command{Kind: wire.KindDeleteSymbol, SymbolID: 3})))
	assert.Equal(t, "s/7", string(CommandKey(&wire.Command{Kind: wire.KindCancelOrder, OrderID: 12, SymbolID: 7})))
	assert.Equal(t, "s/7", string(CommandKey(&wire.Command{Kind: wire.KindDeleteOrder, OrderID: 12, SymbolID: 7})))
}

func TestOrderLifecycleSharesPartition(t *testing.T) {
	partitions := []int{0, 1, 2, 3, 4, 5, 6, 7}
	balancer := &kafka.Hash{}

	for id := uint64(1); id <= 100; id++ {
		cmds := []wire.Command{
			{Kind: wire.KindAddOrder, Order: wire.Order{ID: id, SymbolID: 7, Side: wire.SideBuy, Price: 100, Quantity: 5}},
			{Kind: wire.KindCancelOrder, OrderID: id, Quantity: 2, SymbolID: 7},
			{Kind: wire.KindDeleteOrder, OrderID: id, SymbolID: 7},
		}
		key := CommandKey(&cmds[0])
		want := balancer.Balance(kafka.Message{Key: key}, partitions...)
		for _, cmd := range cmds[1:] {
			k := CommandKey(&cmd)
			require.Equal(t, string(key), string(k), "order %d %d", id, cmd.Kind)
			assert.Equal(t, want, balancer.Balance(kafka.Message{Key: k}, partitions...), "order %d %d", id, cmd.Kind)
		}
	}
}
