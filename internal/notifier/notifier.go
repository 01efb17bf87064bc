// Package notifier consumes order events and sends customer confirmations.
package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/patelashutosh/bloom-store/internal/domain"
)

type Mailer interface {
	SendOrderConfirmation(ctx context.Context, event domain.OrderConfirmedEvent) error
}

// MessageReader is satisfied by *kafka.Reader.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	reader  MessageReader
	mailer  Mailer
	log     *zap.Logger
	backOff func() backoff.BackOff
}

func NewKafkaReader(topic, groupID string, brokers ...string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MaxBytes: 10e6, // 10MB
	})
}

func NewConsumer(reader MessageReader, mailer Mailer, log *zap.Logger) *Consumer {
	return &Consumer{reader: reader, mailer: mailer, log: log, backOff: defaultBackOff}
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.MaxInterval = 30 * time.Second
	return b
}

// Run consumes until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		c.processMessage(ctx)
	}
}

func (c *Consumer) Close() {
	if err := c.reader.Close(); err != nil {
		c.log.Warn("error closing kafka reader", zap.Error(err))
	}
}

func (c *Consumer) processMessage(ctx context.Context) {
	m, err := c.reader.FetchMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}
		c.log.Warn("error reading message", zap.Error(err))
		return
	}

	// A later commit on the same partition would commit this offset too,
	// so the message is retried in place until it succeeds.
	send := func() (struct{}, error) {
		return struct{}{}, c.handle(ctx, m)
	}
	_, err = backoff.Retry(ctx, send,
		backoff.WithBackOff(c.backOff()),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			c.log.Error("failed to handle order event, retrying",
				zap.String("key", string(m.Key)), zap.Duration("retry_in", next), zap.Error(err))
		}),
	)
	if err != nil {
		// only cancellation ends the retries; the group resumes from this offset
		c.log.Warn("order event left uncommitted", zap.String("key", string(m.Key)),
			zap.Int64("offset", m.Offset), zap.Error(err))
		return
	}

	if err := c.reader.CommitMessages(ctx, m); err != nil {
		c.log.Warn("failed to commit message", zap.String("key", string(m.Key)), zap.Error(err))
	}
}

// handle returns nil for messages that should be skipped for good.
func (c *Consumer) handle(ctx context.Context, m kafka.Message) error {
	if eventType(m) != domain.EventOrderConfirmed {
		return nil
	}

	var event domain.OrderConfirmedEvent
	if err := json.Unmarshal(m.Value, &event); err != nil {
		c.log.Warn("error parsing message, skipping", zap.String("key", string(m.Key)), zap.Error(err))
		return nil
	}
	if event.Email == "" {
		c.log.Warn("order event without email, skipping", zap.String("order_id", event.OrderID))
		return nil
	}

	if err := c.mailer.SendOrderConfirmation(ctx, event); err != nil {
		return fmt.Errorf("send confirmation for %s: %w", event.OrderID, err)
	}
	return nil
}

func eventType(m kafka.Message) string {
	for _, h := range m.Headers {
		if h.Key == "event_type" {
			return string(h.Value)
		}
	}
	return ""
}

// LogMailer writes confirmations to the log instead of sending email.
type LogMailer struct {
	Log *zap.Logger
}

func (l LogMailer) SendOrderConfirmation(_ context.Context, event domain.OrderConfirmedEvent) error {
	l.Log.Info("order confirmation email",
		zap.String("to", event.Email),
		zap.String("order_number", event.OrderNumber),
		zap.String("total", event.Total.String()),
		zap.String("currency", event.Currency),
		zap.Int("lines", len(event.Items)))
	return nil
}
