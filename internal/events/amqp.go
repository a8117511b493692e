// Package events publishes conversation events to a RabbitMQ topic exchange.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"github.com/tendant/simple-helpdesk/pkg/conversation"
)

const maxDialDelay = 30 * time.Second

// Options configures the AMQP publisher.
type Options struct {
	URL           string
	Exchange      string
	RetryAttempts int
	Delay         time.Duration
	Logger        *slog.Logger
}

// Publisher implements conversation.Publisher on an AMQP connection.
// Each event is published with its type as the routing key.
type Publisher struct {
	conn     *amqp091.Connection
	exchange string
	log      *slog.Logger
}

var _ conversation.Publisher = (*Publisher)(nil)

// NewPublisher dials the broker and declares the exchange.
func NewPublisher(ctx context.Context, opts Options) (*Publisher, error) {
	if opts.Exchange == "" {
		return nil, errors.New("events: exchange is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	conn, err := dialWithRetry(ctx, opts)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(opts.Exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", opts.Exchange, err)
	}

	return &Publisher{
		conn:     conn,
		exchange: opts.Exchange,
		log:      opts.Logger,
	}, nil
}

// Publish sends evt to the exchange.
func (p *Publisher) Publish(ctx context.Context, evt conversation.Event) error {
	msg, err := publishing(evt)
	if err != nil {
		return err
	}

	ch, err := p.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if err := ch.PublishWithContext(ctx, p.exchange, evt.Type, false, false, msg); err != nil {
		return err
	}

	p.log.Debug("published", slog.String("key", evt.Type), slog.String("exchange", p.exchange))
	return nil
}

// Close closes the broker connection.
func (p *Publisher) Close() error {
	return p.conn.Close()
}

func publishing(evt conversation.Event) (amqp091.Publishing, error) {
	body, err := json.Marshal(evt)
	if err != nil {
		return amqp091.Publishing{}, err
	}

	ts := evt.OccurredAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	return amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    uuid.NewString(),
		Type:         evt.Type,
		Timestamp:    ts,
		Body:         body,
	}, nil
}

func dialWithRetry(ctx context.Context, opts Options) (*amqp091.Connection, error) {
	attempts := opts.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}
	delay := opts.Delay
	if delay <= 0 {
		delay = time.Second
	}

	var lastErr error
	for i := 1; i <= attempts; i++ {
		conn, err := amqp091.Dial(opts.URL)
		if err == nil {
			if i > 1 {
				opts.Logger.Info("broker connected", slog.Int("attempt", i))
			}
			return conn, nil
		}
		lastErr = err
		if i == attempts {
			break
		}

		sleep := backoff(delay, i)
		opts.Logger.Warn("broker dial failed",
			slog.Int("attempt", i),
			slog.Duration("sleep", sleep),
			slog.Any("error", err),
		)

		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("dial cancelled: %w", ctx.Err())
		case <-timer.C:
		}
	}

	return nil, fmt.Errorf("connect to broker after %d attempts: %w", attempts, lastErr)
}

// backoff doubles delay per attempt, capped at maxDialDelay.
func backoff(delay time.Duration, attempt int) time.Duration {
	if attempt > 16 {
		return maxDialDelay
	}
	sleep := delay << (attempt - 1)
	if sleep <= 0 || sleep > maxDialDelay {
		return maxDialDelay
	}
	return sleep
}
