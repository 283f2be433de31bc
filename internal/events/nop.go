package events

import (
	"context"

	interfaces "github.com/sheikh-saqib/currency-ledger/internal/interfaces"
)

// NopPublisher drops every event. Used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, topic string, key string, event any) error {
	return nil
}

func (NopPublisher) Close() error {
	return nil
}

var _ interfaces.EventPublisher = NopPublisher{}
