package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shandysiswandi/gopasscode/internal/passcode/entity"
	"github.com/shandysiswandi/gopasscode/internal/passcode/usecase"
	"github.com/shandysiswandi/gopasscode/internal/pkg/config"
	"github.com/shandysiswandi/gopasscode/internal/pkg/instrument"
	"github.com/shandysiswandi/gopasscode/internal/pkg/mail"
	"github.com/shandysiswandi/gopasscode/internal/pkg/messaging"
	"github.com/shandysiswandi/gopasscode/internal/pkg/sms"
	"github.com/shandysiswandi/gopasscode/internal/shared/event"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const keyOfCorrelationID string = "cID"

// Channel names accepted under modules.passcode.channel.*.
const (
	ChannelMail  = "mail"
	ChannelSMS   = "sms"
	ChannelQueue = "queue"
)

var (
	ErrUnknownChannel = errors.New("delivery: unknown channel")
	ErrNoChannel      = errors.New("delivery: no channel for identity kind")
)

type Delivery struct {
	mail      mail.Mail
	sms       sms.SMS
	publisher messaging.Publisher
	ins       instrument.Instrumentation
	routes    map[entity.IdentityKind]string
}

type Dependency struct {
	Config    config.Config
	Mail      mail.Mail
	SMS       sms.SMS
	Publisher messaging.Publisher
	Ins       instrument.Instrumentation
}

// NewDelivery resolves the channel of every identity kind up front so a
// misconfigured channel fails at boot rather than on the first request.
func NewDelivery(dep Dependency) (*Delivery, error) {
	d := &Delivery{
		mail:      dep.Mail,
		sms:       dep.SMS,
		publisher: dep.Publisher,
		ins:       dep.Ins,
		routes:    map[entity.IdentityKind]string{},
	}

	defaults := map[entity.IdentityKind]string{
		entity.IdentityKindEmail: ChannelMail,
		entity.IdentityKindPhone: ChannelSMS,
	}
	for kind, def := range defaults {
		channel := dep.Config.GetString("modules.passcode.channel." + kind.String())
		if channel == "" {
			channel = def
		}
		if err := d.available(channel); err != nil {
			return nil, fmt.Errorf("%s channel %q: %w", kind, channel, err)
		}
		d.routes[kind] = channel
	}

	return d, nil
}

func (d *Delivery) available(channel string) error {
	switch channel {
	case ChannelMail:
		if d.mail == nil {
			return errors.New("mail client is not configured")
		}
	case ChannelSMS:
		if d.sms == nil {
			return errors.New("sms client is not configured")
		}
	case ChannelQueue:
		if d.publisher == nil {
			return errors.New("messaging publisher is not configured")
		}
	default:
		return ErrUnknownChannel
	}
	return nil
}

func (d *Delivery) Send(ctx context.Context, msg usecase.DeliveryMessage) (err error) {
	channel, ok := d.routes[msg.Kind]
	if !ok {
		return ErrNoChannel
	}

	ctx, span := d.ins.Tracer("passcode.outbound.delivery").Start(ctx, "Send", trace.WithAttributes(
		attribute.String("delivery.channel", channel),
		attribute.String("delivery.kind", msg.Kind.String()),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	switch channel {
	case ChannelMail:
		return d.mail.Send(ctx, mail.Message{
			To:       []string{msg.Destination},
			Subject:  msg.Subject,
			TextBody: msg.Body,
		})
	case ChannelSMS:
		return d.sms.Send(ctx, msg.Destination, msg.Body)
	default:
		return d.enqueue(ctx, msg)
	}
}

func (d *Delivery) enqueue(ctx context.Context, msg usecase.DeliveryMessage) error {
	body, err := json.Marshal(event.PasscodeDeliveryMessage{
		Identity: msg.Destination,
		Kind:     msg.Kind.String(),
		Subject:  msg.Subject,
		Body:     msg.Body,
	})
	if err != nil {
		return err
	}

	_, err = d.publisher.Publish(ctx, event.PasscodeDeliveryDestination, messaging.Message{
		Key:     []byte(msg.Destination),
		Body:    body,
		Headers: map[string]string{keyOfCorrelationID: instrument.GetCorrelationID(ctx)},
	})
	return err
}
