// Package broadcaster publishes command acknowledgements to Kafka.
package broadcaster

import (
	"context"
	"strconv"
	"sync/atomic"

	"github.com/IBM/sarama"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"tradebook/api/wire"
)

// NewProducer returns a sync producer that waits for every in-sync
// replica.
func NewProducer(brokers []string, retries int) (sarama.SyncProducer, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = retries
	cfg.Producer.Partitioner = sarama.NewHashPartitioner

	p, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "sarama producer")
	}
	return p, nil
}

// Broadcaster drains a bounded queue of acks into the ack topic. The
// engine side never blocks: when the queue is full the ack is dropped and
// counted.
type Broadcaster struct {
	producer sarama.SyncProducer
	topic    string
	log      *zap.Logger
	queue    chan wire.Ack

	sent    atomic.Uint64
	failed  atomic.Uint64
	dropped atomic.Uint64
}

func New(producer sarama.SyncProducer, topic string, queue int, logger *zap.Logger) *Broadcaster {
	if queue <= 0 {
		queue = 1024
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Broadcaster{
		producer: producer,
		topic:    topic,
		log:      logger.Named("broadcaster"),
		queue:    make(chan wire.Ack, queue),
	}
}

// Enqueue schedules ack for publishing and reports whether it fit.
func (b *Broadcaster) Enqueue(ack wire.Ack) bool {
	select {
	case b.queue <- ack:
		return true
	default:
		b.dropped.Add(1)
		return false
	}
}

// Run publishes queued acks until ctx is done, then flushes what is
// already queued.
func (b *Broadcaster) Run(ctx context.Context) {
	b.log.Info("broadcaster started", zap.String("topic", b.topic))
	defer b.log.Info("broadcaster stopped",
		zap.Uint64("sent", b.sent.Load()),
		zap.Uint64("failed", b.failed.Load()),
		zap.Uint64("dropped", b.dropped.Load()),
	)

	for {
		select {
		case <-ctx.Done():
			b.flush()
			return
		case ack := <-b.queue:
			b.publish(ack)
		}
	}
}

func (b *Broadcaster) flush() {
	for {
		select {
		case ack := <-b.queue:
			b.publish(ack)
		default:
			return
		}
	}
}

func (b *Broadcaster) publish(ack wire.Ack) {
	msg := &sarama.ProducerMessage{
		Topic: b.topic,
		Key:   sarama.ByteEncoder(AckKey(&ack)),
		Value: sarama.ByteEncoder(wire.Marshal(&ack)),
	}
	if _, _, err := b.producer.SendMessage(msg); err != nil {
		b.failed.Add(1)
		b.log.Warn("publish ack failed", zap.Uint64("seq", ack.Seq), zap.Error(err))
		return
	}
	b.sent.Add(1)
}

// AckKey keys an ack by symbol, the same way its command was keyed, so
// the acks of one symbol stay in sequence order.
func AckKey(ack *wire.Ack) []byte {
	return append([]byte("s/"), strconv.FormatUint(uint64(ack.SymbolID), 10)...)
}

func (b *Broadcaster) Sent() uint64    { return b.sent.Load() }
func (b *Broadcaster) Failed() uint64  { return b.failed.Load() }
func (b *Broadcaster) Dropped() uint64 { return b.dropped.Load() }

func (b *Broadcaster) Close() error {
	return b.producer.Close()
}
