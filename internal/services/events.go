package services

import (
	"context"

	"kannadi/internal/amqp"
	"kannadi/internal/core"
	applog "kannadi/internal/log"
	"kannadi/internal/metrics"
)

// EventPublisher sends month-changed notifications to the snapshot worker.
type EventPublisher interface {
	PublishMonthChanged(ctx context.Context, msg *amqp.MonthChangedMessage) error
}

// Invalidator drops cached reports after a write.
type Invalidator interface {
	Invalidate(months ...core.Month)
}

// notifier fans a write out to the report cache and the broker. Both are
// optional; publish failures are logged and never fail the write.
type notifier struct {
	publisher   EventPublisher
	invalidator Invalidator
	logger      *applog.Logger
}

func (n notifier) changed(ctx context.Context, reason string, months ...core.Month) {
	if n.invalidator != nil {
		n.invalidator.Invalidate(months...)
	}
	if n.publisher == nil {
		n.logger.DebugContext(ctx, "No broker configured, skipping month changed event", "reason", reason)
		return
	}
	msg := amqp.NewMonthChangedMessage(reason, months...)
	err := n.publisher.PublishMonthChanged(ctx, msg)
	metrics.EventsPublishedTotal.WithLabelValues(metrics.Outcome(err)).Inc()
	if err != nil {
		n.logger.ErrorContext(ctx, "Failed to publish month changed event",
			applog.FieldError, err, "months", msg.Months, "reason", reason)
	}
}
