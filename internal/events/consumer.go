// AngelaMos | 2026
// consumer.go

package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	consumerPrefetch = 50
	maxBackoff       = 30 * time.Second
)

// Handler processes one decoded event. A returned error rejects the
// delivery without requeueing it.
type Handler func(ctx context.Context, event ReportEvent) error

type Consumer struct {
	url     string
	queue   string
	handler Handler
	logger  *slog.Logger
}

func NewConsumer(url, queue string, handler Handler, logger *slog.Logger) *Consumer {
	if queue == "" {
		queue = DefaultQueue
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{url: url, queue: queue, handler: handler, logger: logger}
}

// Run consumes until ctx is cancelled, redialing with exponential
// backoff whenever the connection is lost.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second

	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.logger.Warn("broker dial failed",
				"error", err,
				"retry_in", backoff,
			)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			backoff = min(backoff*2, maxBackoff)
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close() //nolint:errcheck // reconnecting anyway

		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Warn("consume loop ended, reconnecting", "error", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer func() { _ = ch.Close() }() //nolint:errcheck // best-effort

	if err := ch.Qos(consumerPrefetch, 0, false); err != nil {
		c.logger.Warn("set qos failed", "error", err)
	}

	if _, err := declareQueue(ch, c.queue); err != nil {
		return err
	}

	deliveries, err := ch.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", c.queue, err)
	}

	c.logger.Info("consuming report events", "queue", c.queue)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			c.process(ctx, d)
		}
	}
}

func (c *Consumer) process(ctx context.Context, d amqp.Delivery) {
	var event ReportEvent
	if err := json.Unmarshal(d.Body, &event); err != nil {
		c.logger.Error("malformed event", "error", err)
		_ = d.Nack(false, false) //nolint:errcheck // channel errors surface on next read
		return
	}

	if err := c.handler(ctx, event); err != nil {
		c.logger.Error("handle event failed",
			"type", event.Type,
			"report_id", event.ReportID,
			"error", err,
		)
		_ = d.Nack(false, false) //nolint:errcheck // channel errors surface on next read
		return
	}

	_ = d.Ack(false) //nolint:errcheck // channel errors surface on next read
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// LogDispatch is the notifier's default handler: it records which
// department should be alerted about a report.
func LogDispatch(logger *slog.Logger) Handler {
	return func(ctx context.Context, event ReportEvent) error {
		attrs := []any{
			"type", event.Type,
			"report_id", event.ReportID,
			"status", event.Status,
			"severity", event.Severity,
			"location", event.Location,
		}
		if event.PreviousStatus != "" {
			attrs = append(attrs, "previous_status", event.PreviousStatus)
		}
		if event.DepartmentID != nil {
			attrs = append(attrs, "department_id", *event.DepartmentID)
		}

		logger.InfoContext(ctx, "dispatch notice", attrs...)
		return nil
	}
}
