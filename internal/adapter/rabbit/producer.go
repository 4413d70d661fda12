package rabbit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/Temutjin2k/fleet-ledger/internal/domain/models"
	"github.com/Temutjin2k/fleet-ledger/pkg/logger"
	wrap "github.com/Temutjin2k/fleet-ledger/pkg/logger/wrapper"
	"github.com/Temutjin2k/fleet-ledger/pkg/metrics"
	"github.com/Temutjin2k/fleet-ledger/pkg/rabbit"
)

const (
	RideExchange     = "ride_topic"
	LedgerExchange   = "ledger_topic"
	LocationExchange = "location_fanout"

	QueueLocationUpdate = "location_updates"

	publishAttempts = 3
)

// Topology is declared once at startup.
var (
	Exchanges = []rabbit.Exchange{
		{Name: RideExchange, Kind: amqp091.ExchangeTopic},
		{Name: LedgerExchange, Kind: amqp091.ExchangeTopic},
		{Name: LocationExchange, Kind: amqp091.ExchangeFanout},
	}
	Bindings = []rabbit.Binding{
		{Queue: QueueLocationUpdate, Exchange: LocationExchange},
	}
)

// Producer publishes ride status changes and ledger movements.
type Producer struct {
	client *rabbit.RabbitMQ
	l      logger.Logger
}

func NewProducer(client *rabbit.RabbitMQ, log logger.Logger) *Producer {
	return &Producer{
		client: client,
		l:      log,
	}
}

// PublishRideStatus sends to 'ride_topic' with key 'ride.status.{STATUS}'.
func (p *Producer) PublishRideStatus(ctx context.Context, msg models.RideStatusUpdate) error {
	const op = "Producer.PublishRideStatus"
	key := fmt.Sprintf("ride.status.%s", msg.Status)
	return p.publish(ctx, op, RideExchange, key, msg.CorrelationID, msg)
}

// PublishLedgerEvent sends to 'ledger_topic' with key 'ledger.{event}', e.g. 'ledger.payout_paid'.
func (p *Producer) PublishLedgerEvent(ctx context.Context, msg models.LedgerEvent) error {
	const op = "Producer.PublishLedgerEvent"
	key := "ledger." + strings.ToLower(string(msg.Event))
	return p.publish(ctx, op, LedgerExchange, key, wrap.GetRequestID(ctx), msg)
}

func (p *Producer) publish(ctx context.Context, op, exchange, key, correlationID string, msg any) (err error) {
	defer func() { metrics.RecordRabbitMQPublish(exchange, err) }()

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("%s: failed to marshal message: %w", op, err)
	}

	if err := p.client.EnsureConnection(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = retry(ctx, publishAttempts, 500*time.Millisecond, func() error {
		ch, err := p.client.Channel()
		if err != nil {
			return err
		}
		return ch.PublishWithContext(
			ctx,
			exchange, // exchange
			key,      // routing key
			false,    // mandatory
			false,    // immediate
			amqp091.Publishing{
				ContentType:   "application/json",
				DeliveryMode:  amqp091.Persistent,
				CorrelationId: correlationID,
				Body:          body,
				Timestamp:     time.Now(),
			},
		)
	})
	if err != nil {
		return fmt.Errorf("%s: failed to publish with context: %w", op, err)
	}

	p.l.Debug(ctx, "message published", "exchange", exchange, "routing_key", key)
	return nil
}
