package collector

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nergy-se/factoryenergy/pkg/api/v1/meter"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka publishes readings as JSON keyed by machine, so each machine stays on one partition.
type Kafka struct {
	w messageWriter
}

func NewKafka(brokers []string, topic string) *Kafka {
	return &Kafka{w: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}}
}

func (k *Kafka) Name() string {
	return "kafka"
}

func (k *Kafka) Write(ctx context.Context, readings []meter.Reading) error {
	msgs := make([]kafka.Message, 0, len(readings))
	for _, r := range readings {
		b, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("error encoding reading: %w", err)
		}
		msgs = append(msgs, kafka.Message{Key: []byte(r.Machine), Value: b, Time: r.Timestamp})
	}
	if err := k.w.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("error writing kafka messages: %w", err)
	}
	return nil
}

func (k *Kafka) Close() error {
	return k.w.Close()
}
