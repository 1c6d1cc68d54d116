package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"GoldSentinel/internal/model"
)

// messageWriter is the subset of *kafka.Writer used here.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaForwarder publishes report payloads to a Kafka topic.
type KafkaForwarder struct {
	writer messageWriter
	topic  string
}

// NewKafkaForwarder creates a new Kafka forwarder.
func NewKafkaForwarder(brokers []string, topic string) *KafkaForwarder {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
	return &KafkaForwarder{writer: writer, topic: topic}
}

func (k *KafkaForwarder) Name() string { return "kafka" }

// Forward publishes payload keyed by its report id.
func (k *KafkaForwarder) Forward(ctx context.Context, payload *model.ForwardPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(payload.System.ReportID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "source", Value: []byte(payload.System.Source)},
		},
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to kafka topic %s: %w", k.topic, err)
	}
	return nil
}

// Close flushes pending messages and closes the writer.
func (k *KafkaForwarder) Close() error {
	return k.writer.Close()
}
