package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Astemirdum/book-inventory/inventory/internal/model"
	"github.com/Astemirdum/book-inventory/pkg/circuit_breaker"
	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	cb       circuit_breaker.CircuitBreaker
	log      *zap.Logger
	now      func() time.Time
}

func NewKafkaPublisher(producer sarama.SyncProducer, topic string, cb circuit_breaker.CircuitBreaker, log *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		producer: producer,
		topic:    topic,
		cb:       cb,
		log:      log.Named("events"),
		now:      time.Now,
	}
}

// Publish sends one event per committed change. Failures are logged and swallowed.
func (p *KafkaPublisher) Publish(_ context.Context, typ model.EventType, ids []int64) {
	event := model.BookEvent{
		ID:        uuid.NewString(),
		Type:      typ,
		BookIDs:   ids,
		Timestamp: p.now().UTC(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		p.log.Error("json.Marshal", zap.Error(err))
		return
	}
	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(typ),
		Value: sarama.ByteEncoder(data),
	}
	err = p.cb.Call(func() error {
		_, _, err := p.producer.SendMessage(msg)
		return err
	})
	if err != nil {
		p.log.Warn("publish", zap.String("type", string(typ)), zap.Int64s("ids", ids), zap.Error(err))
		return
	}
	p.log.Debug("published", zap.String("id", event.ID), zap.String("type", string(typ)))
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

// NoopPublisher is used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, model.EventType, []int64) {}

func (NoopPublisher) Close() error { return nil }
