// AngelaMos | 2026
// event.go

// Package events carries report lifecycle notifications over RabbitMQ.
package events

import (
	"context"
	"time"
)

const DefaultQueue = "emergency.reports"

type Type string

const (
	TypeReportCreated       Type = "report.created"
	TypeReportStatusChanged Type = "report.status_changed"
)

// ReportEvent is the JSON body published for every new report and every
// status change.
type ReportEvent struct {
	Type           Type      `json:"type"`
	ReportID       int64     `json:"report_id"`
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	Severity       string    `json:"severity"`
	Location       string    `json:"location"`
	Latitude       *float64  `json:"latitude,omitempty"`
	Longitude      *float64  `json:"longitude,omitempty"`
	DepartmentID   *int64    `json:"department_id,omitempty"`
	ActorID        *int64    `json:"actor_id,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, event ReportEvent) error
	Close() error
}

// NopPublisher drops every event. It is used when the broker is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ReportEvent) error { return nil }

func (NopPublisher) Close() error { return nil }
