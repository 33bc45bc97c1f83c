package messaging

import (
	"context"
	"errors"
	"fmt"
	"time"

	nsq "github.com/nsqio/go-nsq"
	"go.uber.org/atomic"
)

// ErrNSQAddrRequired is returned when the nsqd address is missing.
var ErrNSQAddrRequired = errors.New("messaging: nsq address is required")

// NSQConfig configures the NSQ publisher.
type NSQConfig struct {
	// Addr is the nsqd TCP address.
	Addr string
	// Config overrides the default producer config.
	Config *nsq.Config
}

// NSQ publishes to NSQ topics.
type NSQ struct {
	producer *nsq.Producer
	closed   atomic.Bool
}

// NewNSQ builds a producer. The connection is opened on first publish.
func NewNSQ(cfg NSQConfig) (*NSQ, error) {
	if cfg.Addr == "" {
		return nil, ErrNSQAddrRequired
	}

	pcfg := cfg.Config
	if pcfg == nil {
		pcfg = nsq.NewConfig()
	}

	p, err := nsq.NewProducer(cfg.Addr, pcfg)
	if err != nil {
		return nil, fmt.Errorf("messaging: nsq new producer: %w", err)
	}
	p.SetLoggerLevel(nsq.LogLevelError)

	return &NSQ{producer: p}, nil
}

// Close stops the producer.
func (n *NSQ) Close() error {
	if n.closed.CompareAndSwap(false, true) {
		n.producer.Stop()
	}
	return nil
}

// Publish sends msg.Body to the topic. The NSQ protocol has no headers.
func (n *NSQ) Publish(ctx context.Context, topic string, msg Message) (Receipt, error) {
	if err := validate(ctx, topic); err != nil {
		return Receipt{}, err
	}
	if n.closed.Load() {
		return Receipt{}, ErrClosed
	}

	done := make(chan *nsq.ProducerTransaction, 1)
	if err := n.producer.PublishAsync(topic, msg.Body, done); err != nil {
		return Receipt{}, fmt.Errorf("messaging: nsq publish: %w", err)
	}

	select {
	case tx := <-done:
		if tx.Error != nil {
			return Receipt{}, fmt.Errorf("messaging: nsq publish: %w", tx.Error)
		}
	case <-ctx.Done():
		return Receipt{}, ctx.Err()
	}

	return Receipt{Topic: topic, Timestamp: time.Now()}, nil
}
