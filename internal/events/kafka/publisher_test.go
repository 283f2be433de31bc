package kafka

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sheikh-saqib/currency-ledger/internal/models/events"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMessage_PrefixesTopicAndKeysByAccount(t *testing.T) {
	p := NewPublisher([]string{"localhost:9092"}, "ledger.", zap.NewNop())
	defer p.Close()

	event := events.AccountToppedUp{
		AccountID:  "0b6f0d57-8f0a-4c0e-9d6b-0f7f8c1a2b3c",
		UserID:     1,
		CurrencyID: 2,
		Amount:     decimal.RequireFromString("10.50"),
		OccurredAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	msg, err := p.message(events.TopicAccountToppedUp, event.AccountID, event)
	require.NoError(t, err)

	assert.Equal(t, "ledger.account.topped_up", msg.Topic)
	assert.Equal(t, []byte(event.AccountID), msg.Key)

	var decoded events.AccountToppedUp
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, event.AccountID, decoded.AccountID)
	assert.True(t, decoded.Amount.Equal(event.Amount))
	assert.True(t, decoded.OccurredAt.Equal(event.OccurredAt))
}

func TestMessage_UnencodableEvent(t *testing.T) {
	p := NewPublisher([]string{"localhost:9092"}, "", zap.NewNop())
	defer p.Close()

	_, err := p.message("topic", "key", make(chan int))
	assert.Error(t, err)
}

func TestNewPublisher_WritesAsync(t *testing.T) {
	p := NewPublisher([]string{"localhost:9092"}, "", zap.NewNop())
	defer p.Close()

	assert.True(t, p.writer.Async)
	assert.NotNil(t, p.writer.Completion)
}

func TestCompleted_LogsFailedDeliveries(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	p := NewPublisher([]string{"localhost:9092"}, "ledger.", zap.New(core))
	defer p.Close()

	p.completed([]kafka.Message{{Topic: "ledger.account.topped_up", Key: []byte("acc-1")}}, nil)
	assert.Equal(t, 0, logs.Len())

	p.completed([]kafka.Message{
		{Topic: "ledger.account.topped_up", Key: []byte("acc-1")},
		{Topic: "ledger.account.converted", Key: []byte("7")},
	}, errors.New("leader not available"))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "deliver event failed", entries[0].Message)
	assert.Equal(t, "ledger.account.topped_up", entries[0].ContextMap()["topic"])
	assert.Equal(t, "7", entries[1].ContextMap()["key"])
}
