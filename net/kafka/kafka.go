package kafka

import (
	"context"
	"time"

	kafkaGo "github.com/segmentio/kafka-go"
)

// Config for the analytics event stream
type Config struct {
	Brokers []string     `mapstructure:"brokers"`
	Topic   string       `mapstructure:"topic"`
	UseTLS  bool         `mapstructure:"use_tls"`
	Writer  WriterConfig `mapstructure:"writer"`
}

// WriterConfig tunes the kafka writer
type WriterConfig struct {
	QueueCapacity int  `mapstructure:"queue_capacity"`
	BatchSize     int  `mapstructure:"batch_size"`
	BatchBytes    int  `mapstructure:"batch_bytes"`
	BatchTimeout  int  `mapstructure:"batch_timeout"`
	Async         bool `mapstructure:"async"`
}

// Writer wraps a kafka writer bound to the configured topic
type Writer struct {
	writer *kafkaGo.Writer
}

// NewWriter creates a kafka writer from the given config
func NewWriter(cfg Config) *Writer {
	return &Writer{
		writer: &kafkaGo.Writer{
			Addr:         kafkaGo.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafkaGo.LeastBytes{},
			BatchSize:    cfg.Writer.BatchSize,
			BatchBytes:   int64(cfg.Writer.BatchBytes),
			BatchTimeout: time.Duration(cfg.Writer.BatchTimeout) * time.Millisecond,
			Async:        cfg.Writer.Async,
		},
	}
}

// Publish writes one message on the configured topic
func (w *Writer) Publish(ctx context.Context, key, value []byte) error {
	return w.writer.WriteMessages(ctx, kafkaGo.Message{Key: key, Value: value})
}

// Close flushes and closes the writer
func (w *Writer) Close() error {
	return w.writer.Close()
}
