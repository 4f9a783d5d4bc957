package kafka

import (
	"context"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"tradebook/api/wire"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes engine commands to the command topic.
type Producer struct {
	writer messageWriter
}

func NewProducer(brokers []string, topic string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Async:        false,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

// Send publishes cmd keyed by the symbol it touches, so every command of
// one symbol, an order's add and its later cancel or delete included,
// lands on the same partition and is consumed in publish order.
func (p *Producer) Send(ctx context.Context, cmd wire.Command) error {
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   CommandKey(&cmd),
		Value: wire.Marshal(&cmd),
	})
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

// CommandKey returns the partition key of cmd: "s/<symbol id>".
// Cancel and delete use the SymbolID the caller set for the order.
func CommandKey(cmd *wire.Command) []byte {
	switch cmd.Kind {
	case wire.KindAddSymbol:
		return SymbolKey(cmd.Symbol.ID)
	case wire.KindAddOrder:
		return SymbolKey(cmd.Order.SymbolID)
	default:
		return SymbolKey(cmd.SymbolID)
	}
}

func SymbolKey(id uint32) []byte {
	return append([]byte("s/"), strconv.FormatUint(uint64(id), 10)...)
}
