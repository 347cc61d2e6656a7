package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Astemirdum/book-inventory/inventory/internal/model"
	"github.com/Astemirdum/book-inventory/pkg/circuit_breaker"
	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestKafkaPublisher_Publish(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	var got model.BookEvent
	producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		require.Equal(t, "books", msg.Topic)
		data, err := msg.Value.Encode()
		if err != nil {
			return err
		}
		return json.Unmarshal(data, &got)
	})

	cb := circuit_breaker.New(circuit_breaker.Config{RecordLength: 10, Timeout: time.Minute, Percentile: 0.5, RecoveryRequests: 1})
	p := NewKafkaPublisher(producer, "books", cb, zap.NewNop())
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	p.now = func() time.Time { return ts }

	p.Publish(context.Background(), model.EventCreated, []int64{1, 2})
	require.NoError(t, p.Close())

	require.NotEmpty(t, got.ID)
	require.Equal(t, model.EventCreated, got.Type)
	require.Equal(t, []int64{1, 2}, got.BookIDs)
	require.True(t, ts.Equal(got.Timestamp))
}

func TestKafkaPublisher_BreakerOpens(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndFail(errors.New("broker down"))

	cb := circuit_breaker.New(circuit_breaker.Config{RecordLength: 1, Timeout: time.Minute, Percentile: 1, RecoveryRequests: 1})
	p := NewKafkaPublisher(producer, "books", cb, zap.NewNop())

	p.Publish(context.Background(), model.EventDeleted, []int64{7})
	require.Equal(t, circuit_breaker.Open, cb.State())

	// rejected by the breaker, the producer is not called again
	p.Publish(context.Background(), model.EventDeleted, []int64{8})
	require.NoError(t, p.Close())
}

func TestNoopPublisher(t *testing.T) {
	require.NotPanics(t, func() {
		NoopPublisher{}.Publish(context.Background(), model.EventUpdated, []int64{1})
	})
}
