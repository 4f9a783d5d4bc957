// Package kafka moves engine commands over Kafka: Producer publishes
// them and Consumer feeds them to the engine.
package kafka

import (
	"context"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"tradebook/api/wire"
	"tradebook/infra/config"
	"tradebook/service"
)

// Reader is the part of *kafka.Reader the consumer uses.
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Submitter interface {
	Submit(ctx context.Context, cmd service.Command) (service.Result, error)
}

// AckSink receives the acknowledgement of every consumed command.
type AckSink interface {
	Enqueue(ack wire.Ack) bool
}

func NewReader(cfg config.KafkaConfig) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.GroupID,
		Topic:    cfg.CommandTopic,
		MinBytes: cfg.MinBytes,
		MaxBytes: cfg.MaxBytes,
		MaxWait:  cfg.MaxWait,
	})
}

// Consumer applies commands from the command topic in partition order.
// An offset is committed only once the engine has applied the command,
// so a crash redelivers rather than loses.
type Consumer struct {
	r    Reader
	eng  Submitter
	acks AckSink
	log  *zap.Logger

	applied   atomic.Uint64
	malformed atomic.Uint64
}

// NewConsumer wires r to eng. acks may be nil.
func NewConsumer(r Reader, eng Submitter, acks AckSink, logger *zap.Logger) *Consumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Consumer{r: r, eng: eng, acks: acks, log: logger.Named("kafka")}
}

// Run consumes until ctx is done. It returns nil on cancellation and the
// first transport or engine error otherwise.
func (c *Consumer) Run(ctx context.Context) error {
	c.log.Info("consumer started")
	defer c.log.Info("consumer stopped",
		zap.Uint64("applied", c.applied.Load()),
		zap.Uint64("malformed", c.malformed.Load()),
	)

	for {
		m, err := c.r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, "kafka fetch")
		}

		if err := c.handle(ctx, m); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		if err := c.r.CommitMessages(ctx, m); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrapf(err, "kafka commit partition %d offset %d", m.Partition, m.Offset)
		}
	}
}

// handle applies one message. Malformed messages are logged and skipped.
func (c *Consumer) handle(ctx context.Context, m kafka.Message) error {
	var wc wire.Command
	if err := wc.UnmarshalWire(m.Value); err != nil {
		c.skip(m, err)
		return nil
	}
	cmd, err := wc.Engine()
	if err != nil {
		c.skip(m, err)
		c.ack(wire.Ack{Kind: wc.Kind, Status: wire.StatusRejected, Error: err.Error()})
		return nil
	}

	res, err := c.eng.Submit(ctx, cmd)
	if err != nil && res.Status != service.StatusRejected {
		return errors.Wrapf(err, "apply partition %d offset %d", m.Partition, m.Offset)
	}
	c.applied.Add(1)
	c.ack(wire.AckOf(cmd, res, err))
	return nil
}

func (c *Consumer) skip(m kafka.Message, err error) {
	c.malformed.Add(1)
	c.log.Warn("skipping malformed command",
		zap.Int("partition", m.Partition),
		zap.Int64("offset", m.Offset),
		zap.Error(err),
	)
}

func (c *Consumer) ack(a wire.Ack) {
	if c.acks == nil {
		return
	}
	if !c.acks.Enqueue(a) {
		c.log.Warn("ack dropped", zap.Uint64("seq", a.Seq))
	}
}

func (c *Consumer) Applied() uint64   { return c.applied.Load() }
func (c *Consumer) Malformed() uint64 { return c.malformed.Load() }
