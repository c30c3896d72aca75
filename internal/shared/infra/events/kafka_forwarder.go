package events

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/segmentio/kafka-go"

	sharedEvents "github.com/davicafu/blogolab/internal/shared/domain/events"
)

// KafkaForwarder reenvía al broker los eventos que el dispatcher publica
// en el bus interno. Se suscribe como un handler más.
type KafkaForwarder struct {
	writer *kafka.Writer
	log    *zap.Logger
}

func NewKafkaForwarder(writer *kafka.Writer, log *zap.Logger) *KafkaForwarder {
	return &KafkaForwarder{writer: writer, log: log}
}

// Handle envuelve el evento en el contrato de integración y lo escribe en
// el topic del writer, particionando por agregado para conservar el orden
// relativo de sus eventos.
func (f *KafkaForwarder) Handle(ctx context.Context, evt sharedEvents.DomainEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	envelope, err := json.Marshal(sharedEvents.IntegrationEvent{
		Type:      evt.EventType(),
		Timestamp: time.Now().UTC(),
		Data:      data,
	})
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(evt.AggregateID()),
		Value: envelope,
	}

	if err := f.writer.WriteMessages(ctx, msg); err != nil {
		f.log.Error("Error publishing to Kafka", zap.Error(err))
		return err
	}

	f.log.Debug("Event published successfully",
		zap.String("event_type", evt.EventType()),
		zap.String("aggregate_id", evt.AggregateID()),
	)
	return nil
}
