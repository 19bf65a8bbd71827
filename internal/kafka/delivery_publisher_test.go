package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samims/notifyd/internal/model"
)

const deliveryTopic = "notification.delivery.log"

func producerConfig() *sarama.Config {
	cfg := mocks.NewTestConfig()
	cfg.Producer.Return.Successes = true
	return cfg
}

func TestNewDeliveryPublisher(t *testing.T) {
	producer := mocks.NewAsyncProducer(t, producerConfig())
	defer producer.Close()

	_, err := NewDeliveryPublisher(nil, deliveryTopic, noopTracer(), discardLogger())
	assert.Error(t, err)
	_, err = NewDeliveryPublisher(producer, "", noopTracer(), discardLogger())
	assert.Error(t, err)
}

func TestDeliveryPublisher_Record(t *testing.T) {
	producer := mocks.NewAsyncProducer(t, producerConfig())
	producer.ExpectInputWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != deliveryTopic {
			return errors.New("wrong topic " + msg.Topic)
		}
		key, err := msg.Key.Encode()
		if err != nil {
			return err
		}
		if string(key) != "42" {
			return errors.New("wrong key " + string(key))
		}
		value, err := msg.Value.Encode()
		if err != nil {
			return err
		}
		var rec model.DeliveryRecord
		if err := json.Unmarshal(value, &rec); err != nil {
			return err
		}
		if rec.Status != model.DeliverySuccess || rec.DeliveryID != "msg-1" {
			return errors.New("unexpected record " + string(value))
		}
		return nil
	})

	p, err := NewDeliveryPublisher(producer, deliveryTopic, noopTracer(), discardLogger())
	require.NoError(t, err)
	p.Start()

	rec := &model.DeliveryRecord{
		DeliveryID:     "msg-1",
		CustomerID:     "42",
		NotificationID: "1",
		Channel:        "INAPP",
		Type:           "MESSAGE",
		Status:         model.DeliverySuccess,
	}
	require.NoError(t, p.Record(context.Background(), rec))
	assert.NotEmpty(t, rec.ID)
	assert.False(t, rec.SentAt.IsZero())

	p.Close()
	assert.ErrorIs(t, p.Record(context.Background(), rec), ErrPublisherClosed)
}
