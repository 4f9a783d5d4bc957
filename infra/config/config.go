// Package config loads the server configuration from YAML.
package config

import (
	"io"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Engine  EngineConfig  `yaml:"engine"`
	GRPC    GRPCConfig    `yaml:"grpc"`
	Metrics MetricsConfig `yaml:"metrics"`
	Catalog CatalogConfig `yaml:"catalog"`
	Kafka   KafkaConfig   `yaml:"kafka"`
	Log     LogConfig     `yaml:"log"`
}

type EngineConfig struct {
	// CommandBuffer is the size of the engine's inbound command channel.
	CommandBuffer int `yaml:"command_buffer"`
	OrderChunk    int `yaml:"order_chunk"`
	LevelChunk    int `yaml:"level_chunk"`
	BookChunk     int `yaml:"book_chunk"`
	IndexHint     int `yaml:"index_hint"`
	// MaxSymbolID bounds the symbol id space.
	MaxSymbolID uint32 `yaml:"max_symbol_id"`
	// Verify runs a full consistency check after every mutation.
	Verify bool `yaml:"verify"`
}

type GRPCConfig struct {
	Addr string `yaml:"addr"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

type CatalogConfig struct {
	// Dir is the pebble directory holding symbol metadata. Empty disables it.
	Dir string `yaml:"dir"`
}

type KafkaConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Brokers         []string      `yaml:"brokers"`
	CommandTopic    string        `yaml:"command_topic"`
	GroupID         string        `yaml:"group_id"`
	AckTopic        string        `yaml:"ack_topic"`
	MinBytes        int           `yaml:"min_bytes"`
	MaxBytes        int           `yaml:"max_bytes"`
	MaxWait         time.Duration `yaml:"max_wait"`
	ProducerRetries int           `yaml:"producer_retries"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

func Default() Config {
	return Config{
		Engine: EngineConfig{
			CommandBuffer: 1024,
			OrderChunk:    4096,
			LevelChunk:    1024,
			BookChunk:     64,
			IndexHint:     1 << 16,
			MaxSymbolID:   1 << 20,
		},
		GRPC: GRPCConfig{Addr: ":50051"},
		Metrics: MetricsConfig{
			Enabled: true,
			Addr:    ":9102",
		},
		Catalog: CatalogConfig{Dir: "./catalog"},
		Kafka: KafkaConfig{
			CommandTopic:    "tradebook.commands",
			GroupID:         "tradebook",
			AckTopic:        "tradebook.acks",
			MinBytes:        1,
			MaxBytes:        10 << 20,
			MaxWait:         250 * time.Millisecond,
			ProducerRetries: 5,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads path on top of Default. Unknown keys are an error.
func Load(path string) (Config, error) {
	cfg := Default()

	f, err := os.Open(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "open config %s", path)
	}
	defer f.Close()

	if err := Decode(f, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "config %s", path)
	}
	return cfg, cfg.Validate()
}

// Decode overlays YAML from r onto cfg. An empty document is allowed.
func Decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return errors.Wrap(err, "decode yaml")
	}
	return nil
}

func (c Config) Validate() error {
	switch {
	case c.Engine.CommandBuffer <= 0:
		return errors.Newf("engine.command_buffer must be positive, got %d", c.Engine.CommandBuffer)
	case c.Engine.OrderChunk <= 0 || c.Engine.LevelChunk <= 0 || c.Engine.BookChunk <= 0:
		return errors.New("engine chunk sizes must be positive")
	case c.GRPC.Addr == "":
		return errors.New("grpc.addr is required")
	case c.Metrics.Enabled && c.Metrics.Addr == "":
		return errors.New("metrics.addr is required when metrics are enabled")
	}

	if c.Kafka.Enabled {
		switch {
		case len(c.Kafka.Brokers) == 0:
			return errors.New("kafka.brokers is required when kafka is enabled")
		case c.Kafka.CommandTopic == "" || c.Kafka.AckTopic == "":
			return errors.New("kafka.command_topic and kafka.ack_topic are required")
		case c.Kafka.GroupID == "":
			return errors.New("kafka.group_id is required")
		}
	}

	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrapf(err, "log.level %q", c.Log.Level)
	}
	return nil
}
