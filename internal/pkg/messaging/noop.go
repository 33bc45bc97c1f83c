package messaging

import (
	"context"
	"time"
)

// Noop accepts and discards every message.
type Noop struct{}

// NewNoop returns a publisher that drops messages.
func NewNoop() *Noop { return &Noop{} }

// Publish validates the call and discards msg.
func (*Noop) Publish(ctx context.Context, topic string, _ Message) (Receipt, error) {
	if err := validate(ctx, topic); err != nil {
		return Receipt{}, err
	}
	return Receipt{Topic: topic, Timestamp: time.Now()}, nil
}

// Close is a no-op.
func (*Noop) Close() error { return nil }
