package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/logger"
)

const (
	// SchemaVersion is stamped on every published message. Consumers skip
	// messages from a newer schema.
	SchemaVersion = 1

	headerContentType = "content-type"
	headerVersion     = "schema-version"
)

// Event is published with Key as the partition key and Value as JSON.
type Event struct {
	Key   string
	Value any
}

// Publisher is the producer side as seen by the indexer.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

type Producer struct {
	writer *kafka.Writer
	logger *slog.Logger
}

// NewProducer writes to topic with acks from all in-sync replicas.
// Index events are rare and small, so batches flush after 10ms.
func NewProducer(cfg config.KafkaConfig, topic string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			BatchTimeout:           10 * time.Millisecond,
			MaxAttempts:            3,
			RequiredAcks:           kafka.RequireAll,
			Compression:            kafka.Snappy,
			AllowAutoTopicCreation: true,
		},
		logger: logger.WithComponent("kafka-producer").With("topic", topic),
	}
}

// Publish writes one event synchronously.
func (p *Producer) Publish(ctx context.Context, event Event) error {
	msg, err := encode(event)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publishing %s to kafka: %w", event.Key, err)
	}
	p.logger.Debug("message published", "key", event.Key, "value_size", len(msg.Value))
	return nil
}

func encode(event Event) (kafka.Message, error) {
	value, err := json.Marshal(event.Value)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshaling %s event: %w", event.Key, err)
	}
	return kafka.Message{
		Key:   []byte(event.Key),
		Value: value,
		Headers: []kafka.Header{
			{Key: headerContentType, Value: []byte("application/json")},
			{Key: headerVersion, Value: []byte(strconv.Itoa(SchemaVersion))},
		},
	}, nil
}

// messageVersion returns the schema version header, or 0 when absent.
func messageVersion(msg kafka.Message) int {
	for _, h := range msg.Headers {
		if h.Key == headerVersion {
			v, err := strconv.Atoi(string(h.Value))
			if err != nil {
				return 0
			}
			return v
		}
	}
	return 0
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
