// AngelaMos | 2026
// service.go

package report

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/Favourez/loope/internal/core"
	"github.com/Favourez/loope/internal/events"
	"github.com/Favourez/loope/internal/identity"
)

const publishTimeout = 2 * time.Second

type Recorder interface {
	ReportCreated(ctx context.Context, severity string)
	StatusChanged(ctx context.Context, from, to string)
}

type nopRecorder struct{}

func (nopRecorder) ReportCreated(context.Context, string) {}

func (nopRecorder) StatusChanged(context.Context, string, string) {}

type Service struct {
	repo         Repository
	tx           core.Transactor
	publisher    events.Publisher
	recorder     Recorder
	defaultLimit int
}

type ServiceConfig struct {
	Repo         Repository
	Tx           core.Transactor
	Publisher    events.Publisher
	Recorder     Recorder
	DefaultLimit int
}

func NewService(cfg ServiceConfig) *Service {
	s := &Service{
		repo:         cfg.Repo,
		tx:           cfg.Tx,
		publisher:    cfg.Publisher,
		recorder:     cfg.Recorder,
		defaultLimit: cfg.DefaultLimit,
	}
	if s.publisher == nil {
		s.publisher = events.NopPublisher{}
	}
	if s.recorder == nil {
		s.recorder = nopRecorder{}
	}
	if s.defaultLimit <= 0 || s.defaultLimit > MaxListLimit {
		s.defaultLimit = DefaultListLimit
	}
	return s
}

// Create files a new report in status reported with no department
// assigned. Severity is matched case-insensitively and an emergency type
// is folded into the description as "<type>: <description>". Nothing is
// written when validation fails.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Report, error) {
	severity, err := ParseSeverity(strings.ToLower(strings.TrimSpace(in.Severity)))
	if err != nil {
		return nil, fmt.Errorf("create report: %w", err)
	}

	location := strings.TrimSpace(in.Location)
	if location == "" {
		return nil, fmt.Errorf("create report: location is required: %w", core.ErrInvalidInput)
	}

	if err := validateCoordinates(in.Latitude, in.Longitude, in.Accuracy); err != nil {
		return nil, fmt.Errorf("create report: %w", err)
	}

	report := &Report{
		ReporterID:       in.ReporterID,
		Location:         location,
		Description:      composeDescription(in.EmergencyType, in.Description),
		Severity:         severity,
		Status:           StatusReported,
		Latitude:         in.Latitude,
		Longitude:        in.Longitude,
		LocationAccuracy: in.Accuracy,
	}

	err = s.tx.InTx(ctx, func(tx core.DBTX) error {
		return s.repo.WithTx(tx).Create(ctx, report)
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "report created",
		"report_id", report.ID,
		"severity", string(report.Severity),
		"anonymous", report.ReporterID == nil,
	)

	s.recorder.ReportCreated(ctx, string(report.Severity))
	s.publish(ctx, events.ReportEvent{
		Type:       events.TypeReportCreated,
		ReportID:   report.ID,
		Status:     string(report.Status),
		Severity:   string(report.Severity),
		Location:   report.Location,
		Latitude:   report.Latitude,
		Longitude:  report.Longitude,
		ActorID:    report.ReporterID,
		OccurredAt: report.ReportedAt,
	})

	return report, nil
}

func composeDescription(emergencyType, description string) string {
	emergencyType = strings.TrimSpace(emergencyType)
	description = strings.TrimSpace(description)

	switch {
	case emergencyType == "":
		return description
	case description == "":
		return emergencyType
	default:
		return emergencyType + ": " + description
	}
}

func validateCoordinates(lat, lon, accuracy *float64) error {
	if (lat == nil) != (lon == nil) {
		return fmt.Errorf(
			"latitude and longitude must be given together: %w",
			core.ErrInvalidInput,
		)
	}

	if lat != nil && (*lat < -90 || *lat > 90) {
		return fmt.Errorf("latitude %v out of range: %w", *lat, core.ErrInvalidInput)
	}

	if lon != nil && (*lon < -180 || *lon > 180) {
		return fmt.Errorf("longitude %v out of range: %w", *lon, core.ErrInvalidInput)
	}

	if accuracy != nil && *accuracy < 0 {
		return fmt.Errorf("location accuracy must not be negative: %w", core.ErrInvalidInput)
	}

	return nil
}

// List returns reports newest first.
func (s *Service) List(ctx context.Context, params ListParams) ([]Report, error) {
	switch {
	case params.Limit <= 0:
		params.Limit = s.defaultLimit
	case params.Limit > MaxListLimit:
		params.Limit = MaxListLimit
	}

	if params.Status != "" {
		if _, err := ParseStatus(params.Status); err != nil {
			return nil, fmt.Errorf("list reports: %w", err)
		}
	}
	if params.Severity != "" {
		if _, err := ParseSeverity(params.Severity); err != nil {
			return nil, fmt.Errorf("list reports: %w", err)
		}
	}

	return s.repo.List(ctx, params)
}

func (s *Service) Get(ctx context.Context, id int64) (*Report, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateStatus moves a report to newStatus on behalf of actor. Only fire
// department identities may transition, resolved and cancelled reports
// never change again, and a given departmentID must name an active fire
// department. The read, checks and write share one transaction.
func (s *Service) UpdateStatus(
	ctx context.Context,
	actor *identity.Identity,
	id int64,
	newStatus string,
	departmentID *int64,
) (*Report, error) {
	if !actor.IsFireDepartment() {
		return nil, fmt.Errorf(
			"update report status: fire department role required: %w",
			core.ErrForbidden,
		)
	}

	target, err := ParseStatus(strings.ToLower(strings.TrimSpace(newStatus)))
	if err != nil {
		return nil, fmt.Errorf("update report status: %w", err)
	}

	var (
		updated  *Report
		previous Status
	)

	err = s.tx.InTx(ctx, func(tx core.DBTX) error {
		repo := s.repo.WithTx(tx)

		current, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if current.Status.IsTerminal() {
			return fmt.Errorf(
				"report %d is %s: %w",
				id,
				current.Status,
				ErrTerminalStatus,
			)
		}

		if departmentID != nil {
			ok, err := repo.IsActiveFireDepartment(ctx, *departmentID)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf(
					"department %d is not an active fire department: %w",
					*departmentID,
					core.ErrInvalidInput,
				)
			}
		}

		if err := repo.UpdateStatus(ctx, id, target, departmentID, time.Now()); err != nil {
			return err
		}

		previous = current.Status
		updated, err = repo.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("update report status: %w", err)
	}

	core.AddSpanEvent(ctx, "report.status_changed",
		attribute.Int64("report.id", id),
		attribute.String("report.status.from", string(previous)),
		attribute.String("report.status.to", string(target)),
	)
	slog.InfoContext(ctx, "report status changed",
		"report_id", id,
		"from", string(previous),
		"to", string(target),
		"actor_id", actor.ID(),
	)

	actorID := actor.ID()
	s.recorder.StatusChanged(ctx, string(previous), string(target))
	s.publish(ctx, events.ReportEvent{
		Type:           events.TypeReportStatusChanged,
		ReportID:       updated.ID,
		Status:         string(updated.Status),
		PreviousStatus: string(previous),
		Severity:       string(updated.Severity),
		Location:       updated.Location,
		Latitude:       updated.Latitude,
		Longitude:      updated.Longitude,
		DepartmentID:   updated.AssignedDepartmentID,
		ActorID:        &actorID,
		OccurredAt:     updated.UpdatedAt,
	})

	return updated, nil
}

// CountByStatus returns how many reports sit in each lifecycle state.
func (s *Service) CountByStatus(ctx context.Context) (map[Status]int64, error) {
	return s.repo.CountByStatus(ctx)
}

// publish never fails the caller; the report is already committed.
func (s *Service) publish(ctx context.Context, event events.ReportEvent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := s.publisher.Publish(ctx, event); err != nil {
		core.SetSpanError(ctx, err)
		slog.WarnContext(ctx, "report event not published",
			"type", string(event.Type),
			"report_id", event.ReportID,
			"error", err,
		)
	}
}
