// AngelaMos | 2026
// repository.go

package report

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/Favourez/loope/internal/core"
	"github.com/Favourez/loope/internal/identity"
)

type Repository interface {
	Create(ctx context.Context, report *Report) error
	GetByID(ctx context.Context, id int64) (*Report, error)
	List(ctx context.Context, params ListParams) ([]Report, error)
	UpdateStatus(
		ctx context.Context,
		id int64,
		status Status,
		departmentID *int64,
		at time.Time,
	) error
	CountByStatus(ctx context.Context) (map[Status]int64, error)
	IsActiveFireDepartment(ctx context.Context, userID int64) (bool, error)
	WithTx(tx core.DBTX) Repository
}

var reportColumns = []string{
	"id", "reporter_id", "location", "description", "severity", "status",
	"latitude", "longitude", "location_accuracy", "assigned_department_id",
	"reported_at", "updated_at",
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx core.DBTX) Repository {
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, report *Report) error {
	now := time.Now().UTC()
	report.ReportedAt = now
	report.UpdatedAt = now

	query, args, err := sq.Insert("emergency_reports").
		Columns(
			"reporter_id", "location", "description", "severity", "status",
			"latitude", "longitude", "location_accuracy",
			"reported_at", "updated_at",
		).
		Values(
			report.ReporterID, report.Location, report.Description,
			report.Severity, report.Status, report.Latitude,
			report.Longitude, report.LocationAccuracy, now, now,
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("create report: build query: %w", err)
	}

	err = r.db.GetContext(ctx, &report.ID, r.db.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("create report: %w", core.ClassifyStorageError(err))
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Report, error) {
	query, args, err := sq.Select(reportColumns...).
		From("emergency_reports").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("get report: build query: %w", err)
	}

	var report Report
	err = r.db.GetContext(ctx, &report, r.db.Rebind(query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get report: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get report: %w", core.ClassifyStorageError(err))
	}

	return &report, nil
}

// List expects params already validated by the service.
func (r *repository) List(
	ctx context.Context,
	params ListParams,
) ([]Report, error) {
	builder := sq.Select(reportColumns...).
		From("emergency_reports").
		OrderBy("reported_at DESC", "id DESC").
		Limit(uint64(params.Limit)) //nolint:gosec // limit is clamped positive

	if params.Status != "" {
		builder = builder.Where(sq.Eq{"status": params.Status})
	}
	if params.Severity != "" {
		builder = builder.Where(sq.Eq{"severity": params.Severity})
	}
	if params.DepartmentID != nil {
		builder = builder.Where(sq.Eq{"assigned_department_id": *params.DepartmentID})
	}
	if params.ReporterID != nil {
		builder = builder.Where(sq.Eq{"reporter_id": *params.ReporterID})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("list reports: build query: %w", err)
	}

	reports := []Report{}
	if err := r.db.SelectContext(ctx, &reports, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list reports: %w", core.ClassifyStorageError(err))
	}

	return reports, nil
}

// UpdateStatus writes the new status and bumps updated_at. A nil
// departmentID leaves the current assignment in place.
func (r *repository) UpdateStatus(
	ctx context.Context,
	id int64,
	status Status,
	departmentID *int64,
	at time.Time,
) error {
	builder := sq.Update("emergency_reports").
		Set("status", status).
		Set("updated_at", at.UTC()).
		Where(sq.Eq{"id": id})

	if departmentID != nil {
		builder = builder.Set("assigned_department_id", *departmentID)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("update report status: build query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("update report status: %w", core.ClassifyStorageError(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update report status: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("update report status: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) CountByStatus(ctx context.Context) (map[Status]int64, error) {
	query, args, err := sq.Select("status", "COUNT(*) AS total").
		From("emergency_reports").
		GroupBy("status").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("count reports: build query: %w", err)
	}

	var rows []struct {
		Status Status `db:"status"`
		Total  int64  `db:"total"`
	}
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("count reports: %w", core.ClassifyStorageError(err))
	}

	counts := make(map[Status]int64, len(Statuses))
	for _, s := range Statuses {
		counts[s] = 0
	}
	for _, row := range rows {
		counts[row.Status] = row.Total
	}

	return counts, nil
}

// IsActiveFireDepartment checks the users table from inside the
// caller's transaction.
func (r *repository) IsActiveFireDepartment(
	ctx context.Context,
	userID int64,
) (bool, error) {
	query, args, err := sq.Select("COUNT(*)").
		From("users").
		Where(sq.Eq{
			"id":        userID,
			"role":      identity.RoleFireDepartment.String(),
			"is_active": true,
		}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("check department: build query: %w", err)
	}

	var n int
	if err := r.db.GetContext(ctx, &n, r.db.Rebind(query), args...); err != nil {
		return false, fmt.Errorf("check department: %w", core.ClassifyStorageError(err))
	}

	return n > 0, nil
}
