package messaging

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrTopicRequired is returned when Publish is called without a topic.
	ErrTopicRequired = errors.New("messaging: topic is required")
	// ErrClosed is returned when publishing on a closed publisher.
	ErrClosed = errors.New("messaging: publisher is closed")
)

// Publisher sends messages to a topic (subject for NATS).
type Publisher interface {
	io.Closer

	Publish(ctx context.Context, topic string, msg Message) (Receipt, error)
}

// Message is a broker-agnostic outgoing message.
type Message struct {
	// Key is used for partitioning by Kafka and as ordering key by Pub/Sub.
	Key []byte
	// Body is the message payload.
	Body []byte
	// Headers become message headers or Pub/Sub attributes. NSQ drops them.
	Headers map[string]string
}

// Receipt carries what the broker reported for an accepted message.
type Receipt struct {
	ID        string
	Topic     string
	Timestamp time.Time
}

func validate(ctx context.Context, topic string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if topic == "" {
		return ErrTopicRequired
	}
	return nil
}
