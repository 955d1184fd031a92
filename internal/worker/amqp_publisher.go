package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/EnuliForge/kwikorder-engine/internal/domain"
)

// ErrNotAcked is returned when the broker nacks a message or the channel closes
// before confirming it.
var ErrNotAcked = errors.New("broker did not ack event")

// ChannelSource opens broker channels. *persistence.RabbitMQ satisfies it.
type ChannelSource interface {
	Channel() (*amqp.Channel, error)
}

// confirmation is a pending publisher confirm. *amqp.DeferredConfirmation satisfies it.
type confirmation interface {
	WaitContext(ctx context.Context) (bool, error)
}

type confirmChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	Confirm(noWait bool) error
	PublishDeferred(ctx context.Context, exchange, key string, msg amqp.Publishing) (confirmation, error)
	Close() error
}

type amqpChannel struct {
	*amqp.Channel
}

func (c amqpChannel) PublishDeferred(ctx context.Context, exchange, key string, msg amqp.Publishing) (confirmation, error) {
	dc, err := c.PublishWithDeferredConfirmWithContext(ctx, exchange, key, false, false, msg)
	if err != nil {
		return nil, err
	}
	if dc == nil {
		return nil, errors.New("channel is not in confirm mode")
	}
	return dc, nil
}

// AMQPPublisher publishes domain events to a durable fanout exchange.
type AMQPPublisher struct {
	open     func() (confirmChannel, error)
	exchange string
}

// NewAMQPPublisher builds a publisher for exchange.
func NewAMQPPublisher(source ChannelSource, exchange string) *AMQPPublisher {
	return &AMQPPublisher{
		open: func() (confirmChannel, error) {
			ch, err := source.Channel()
			if err != nil {
				return nil, err
			}
			return amqpChannel{Channel: ch}, nil
		},
		exchange: exchange,
	}
}

// PublishBatch sends events in order on one confirm-mode channel and returns the
// length of the prefix the broker acked.
func (p *AMQPPublisher) PublishBatch(ctx context.Context, batch []domain.DomainEvent) (int, error) {
	ch, err := p.open()
	if err != nil {
		return 0, fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(p.exchange, amqp.ExchangeFanout, true, false, false, false, nil); err != nil {
		return 0, fmt.Errorf("declare exchange: %w", err)
	}
	if err := ch.Confirm(false); err != nil {
		return 0, fmt.Errorf("enable confirms: %w", err)
	}

	pending := make([]confirmation, 0, len(batch))
	var publishErr error
	for _, event := range batch {
		body, err := json.Marshal(event)
		if err != nil {
			publishErr = fmt.Errorf("encode event %s: %w", event.ID, err)
			break
		}
		conf, err := ch.PublishDeferred(ctx, p.exchange, string(event.Type), amqp.Publishing{
			MessageId:    event.ID,
			Type:         string(event.Type),
			Timestamp:    event.OccurredAt,
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Headers: amqp.Table{
				"entity_type": event.EntityType,
				"entity_id":   event.EntityID,
				"version":     int32(event.Version),
			},
			Body: body,
		})
		if err != nil {
			publishErr = fmt.Errorf("publish event %s: %w", event.ID, err)
			break
		}
		pending = append(pending, conf)
	}

	for i, conf := range pending {
		acked, err := conf.WaitContext(ctx)
		if err != nil {
			return i, fmt.Errorf("confirm event %s: %w", batch[i].ID, err)
		}
		if !acked {
			return i, fmt.Errorf("event %s: %w", batch[i].ID, ErrNotAcked)
		}
	}
	return len(pending), publishErr
}
