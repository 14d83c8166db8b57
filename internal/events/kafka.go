package events

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"

	"contract-risk-lab/internal/observability"
)

// DefaultTopic receives analysis-completed events.
const DefaultTopic = "contract-risk.analysis-completed"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publishes AnalysisCompleted events to a Kafka topic.
type KafkaPublisher struct {
	writer messageWriter
	Topic  string
}

// NewKafkaPublisher creates a publisher writing to topic on brokers.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		RequiredAcks:           kafka.RequireAll,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	return &KafkaPublisher{writer: writer, Topic: topic}
}

// Publish sends an event keyed by chain and address.
func (p *KafkaPublisher) Publish(ctx context.Context, e AnalysisCompleted) error {
	value, err := Encode(e)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   e.Key(),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(TypeAnalysisCompleted)},
			{Key: "kind", Value: []byte(e.Kind)},
		},
	}

	err = p.writer.WriteMessages(ctx, msg)
	observability.RecordEventPublished(TypeAnalysisCompleted, err)
	if err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

// Close closes the underlying Kafka writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
