// AngelaMos | 2026
// recorder.go

// Package metrics counts domain events on the OpenTelemetry metric API.
package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Recorder satisfies the recorder interfaces of the auth, report and
// message services.
type Recorder struct {
	reports     metric.Int64Counter
	transitions metric.Int64Counter
	logins      metric.Int64Counter
	messages    metric.Int64Counter
}

func New(meter metric.Meter) (*Recorder, error) {
	reports, err := meter.Int64Counter("emergency_reports_total",
		metric.WithDescription("Emergency reports filed"),
	)
	if err != nil {
		return nil, fmt.Errorf("create reports counter: %w", err)
	}

	transitions, err := meter.Int64Counter("report_status_changes_total",
		metric.WithDescription("Report status transitions"),
	)
	if err != nil {
		return nil, fmt.Errorf("create transitions counter: %w", err)
	}

	logins, err := meter.Int64Counter("login_attempts_total",
		metric.WithDescription("Login attempts by method and outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("create logins counter: %w", err)
	}

	messages, err := meter.Int64Counter("messages_posted_total",
		metric.WithDescription("Community messages posted"),
	)
	if err != nil {
		return nil, fmt.Errorf("create messages counter: %w", err)
	}

	return &Recorder{
		reports:     reports,
		transitions: transitions,
		logins:      logins,
		messages:    messages,
	}, nil
}

func (r *Recorder) ReportCreated(ctx context.Context, severity string) {
	r.reports.Add(ctx, 1, metric.WithAttributes(
		attribute.String("severity", severity),
	))
}

func (r *Recorder) StatusChanged(ctx context.Context, from, to string) {
	r.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

func (r *Recorder) LoginAttempt(ctx context.Context, method string, success bool) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	r.logins.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("outcome", outcome),
	))
}

func (r *Recorder) MessagePosted(ctx context.Context, messageType string) {
	r.messages.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", messageType),
	))
}
