package kafka

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transmute/sink"
)

func withMockProducer(t *testing.T) *mocks.AsyncProducer {
	t.Helper()
	mp := mocks.NewAsyncProducer(t, nil)
	prev := newProducer
	newProducer = func([]string, *sarama.Config) (sarama.AsyncProducer, error) { return mp, nil }
	t.Cleanup(func() { newProducer = prev })
	return mp
}

func TestDriver_PublishesEventAsJSON(t *testing.T) {
	mp := withMockProducer(t)
	mp.ExpectInputWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != "results" {
			return errors.New("wrong topic " + msg.Topic)
		}
		raw, err := msg.Value.Encode()
		if err != nil {
			return err
		}
		var doc map[string]any
		if err := json.Unmarshal(raw, &doc); err != nil {
			return err
		}
		if doc["action"] != "uppercase" || doc["success"] != false || doc["failure"] != "boom" {
			return errors.New("unexpected payload " + string(raw))
		}
		return nil
	})

	d, err := sink.NewAdapter("kafka")
	require.NoError(t, err)
	require.NoError(t, d.Configure(Config{Brokers: []string{"localhost:9092"}, Topic: "results", Acks: 1, Version: "2.8.0"}))
	require.NoError(t, d.Push(sink.Event{
		Action: "uppercase", Environment: "flat", Failure: "boom",
		Duration: 3 * time.Millisecond, At: time.Unix(0, 0),
	}))
	require.NoError(t, d.Close())
	require.NoError(t, d.Close())
}

func TestDriver_ConfigureRejectsBadInput(t *testing.T) {
	d := &driver{}
	assert.Error(t, d.Configure("nope"))
	assert.Error(t, d.Configure(Config{Brokers: []string{"b"}}))
	assert.Error(t, d.Configure(Config{Topic: "t", Version: "not-a-version"}))
	assert.Error(t, d.Push(sink.Event{}))
}
