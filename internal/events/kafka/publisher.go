package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	interfaces "github.com/sheikh-saqib/currency-ledger/internal/interfaces"
	"go.uber.org/zap"
)

// Publisher writes ledger events to kafka. The topic of each message is the
// event topic prefixed with the configured prefix.
//
// The writer is async: Publish only enqueues, delivery errors are reported
// through the logger once the batch completes. Close flushes what is pending.
type Publisher struct {
	writer      *kafka.Writer
	topicPrefix string
	logger      *zap.Logger
}

func NewPublisher(brokers []string, topicPrefix string, logger *zap.Logger) *Publisher {
	p := &Publisher{
		topicPrefix: topicPrefix,
		logger:      logger,
	}
	p.writer = &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		BatchTimeout:           10 * time.Millisecond,
		Async:                  true,
		Completion:             p.completed,
	}
	return p
}

// Publish returns once the event is queued on the writer
func (p *Publisher) Publish(ctx context.Context, topic string, key string, event any) error {
	msg, err := p.message(topic, key, event)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, msg)
}

// message keys by account/user so events of one key keep their order within a partition
func (p *Publisher) message(topic string, key string, event any) (kafka.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, err
	}

	return kafka.Message{
		Topic: p.topicPrefix + topic,
		Key:   []byte(key),
		Value: data,
	}, nil
}

func (p *Publisher) completed(messages []kafka.Message, err error) {
	if err == nil {
		return
	}
	for _, msg := range messages {
		p.logger.Warn("deliver event failed",
			zap.String("topic", msg.Topic),
			zap.ByteString("key", msg.Key),
			zap.Error(err),
		)
	}
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

var _ interfaces.EventPublisher = (*Publisher)(nil)
