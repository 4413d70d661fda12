package rabbit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/Temutjin2k/fleet-ledger/internal/domain/models"
	"github.com/Temutjin2k/fleet-ledger/pkg/logger"
	wrap "github.com/Temutjin2k/fleet-ledger/pkg/logger/wrapper"
	"github.com/Temutjin2k/fleet-ledger/pkg/rabbit"
)

const resubscribeDelay = 2 * time.Second

type LocationUpdateHandler func(ctx context.Context, msg models.LocationUpdateMessage) error

// LocationConsumer feeds positions published by mobile gateways into the ride service.
type LocationConsumer struct {
	client *rabbit.RabbitMQ
	l      logger.Logger
}

func NewLocationConsumer(client *rabbit.RabbitMQ, log logger.Logger) *LocationConsumer {
	return &LocationConsumer{client: client, l: log}
}

// Consume blocks until ctx is cancelled, resubscribing whenever the channel drops.
func (c *LocationConsumer) Consume(ctx context.Context, handler LocationUpdateHandler) error {
	ctx = wrap.WithAction(ctx, "rabbitmq_consume_location")

	for {
		if ctx.Err() != nil {
			c.l.Debug(ctx, "location consumer stopped by context")
			return nil
		}

		msgs, err := c.subscribe(ctx)
		if err != nil {
			c.l.Error(ctx, "subscribe failed", err, "queue", QueueLocationUpdate)
			if !sleep(ctx, resubscribeDelay) {
				return nil
			}
			continue
		}

		c.l.Info(ctx, "start consuming location updates", "queue", QueueLocationUpdate)
		if !c.drain(ctx, msgs, handler) {
			return nil
		}
		c.l.Warn(ctx, "message channel closed, resubscribing")
	}
}

func (c *LocationConsumer) subscribe(ctx context.Context) (<-chan amqp091.Delivery, error) {
	if err := c.client.EnsureConnection(ctx); err != nil {
		return nil, err
	}
	ch, err := c.client.Channel()
	if err != nil {
		return nil, err
	}
	return ch.Consume(QueueLocationUpdate, "", false, false, false, false, nil)
}

// drain handles deliveries until the channel closes (true) or ctx ends (false).
func (c *LocationConsumer) drain(ctx context.Context, msgs <-chan amqp091.Delivery, handler LocationUpdateHandler) bool {
	for {
		select {
		case <-ctx.Done():
			c.l.Info(ctx, "location consumer shutting down")
			return false
		case d, ok := <-msgs:
			if !ok {
				return sleep(ctx, resubscribeDelay)
			}
			c.handle(ctx, d, handler)
		}
	}
}

func (c *LocationConsumer) handle(ctx context.Context, d amqp091.Delivery, handler LocationUpdateHandler) {
	var msg models.LocationUpdateMessage
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		c.l.Error(ctx, "failed to unmarshal location update", err)
		_ = d.Nack(false, false)
		return
	}

	ctx = wrap.WithRequestID(wrap.WithRideID(ctx, msg.RideID.String()), d.CorrelationId)
	if err := handler(ctx, msg); err != nil {
		requeue := isRecoverableError(err) && !d.Redelivered
		c.l.Error(wrap.ErrorCtx(ctx, err), "failed to handle location update", err, "requeue", requeue)
		_ = d.Nack(false, requeue)
		return
	}

	if err := d.Ack(false); err != nil {
		c.l.Error(ctx, "failed to ack message", err)
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
