// AngelaMos | 2026
// entity.go

package report

import (
	"fmt"
	"time"

	"github.com/Favourez/loope/internal/core"
)

// ErrTerminalStatus is returned when a resolved or cancelled report is
// asked to change status again.
var ErrTerminalStatus = fmt.Errorf("report status is final: %w", core.ErrConflict)

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

func ParseSeverity(s string) (Severity, error) {
	switch sev := Severity(s); sev {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return sev, nil
	default:
		return "", fmt.Errorf("unknown severity %q: %w", s, core.ErrInvalidInput)
	}
}

type Status string

const (
	StatusReported   Status = "reported"
	StatusResponding Status = "responding"
	StatusResolved   Status = "resolved"
	StatusCancelled  Status = "cancelled"
)

// Statuses lists every lifecycle state in order.
var Statuses = []Status{
	StatusReported,
	StatusResponding,
	StatusResolved,
	StatusCancelled,
}

func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusReported, StatusResponding, StatusResolved, StatusCancelled:
		return st, nil
	default:
		return "", fmt.Errorf("unknown status %q: %w", s, core.ErrInvalidInput)
	}
}

// IsTerminal reports whether no transition leaves s.
func (s Status) IsTerminal() bool {
	return s == StatusResolved || s == StatusCancelled
}

type Report struct {
	ID                   int64     `db:"id"`
	ReporterID           *int64    `db:"reporter_id"`
	Location             string    `db:"location"`
	Description          string    `db:"description"`
	Severity             Severity  `db:"severity"`
	Status               Status    `db:"status"`
	Latitude             *float64  `db:"latitude"`
	Longitude            *float64  `db:"longitude"`
	LocationAccuracy     *float64  `db:"location_accuracy"`
	AssignedDepartmentID *int64    `db:"assigned_department_id"`
	ReportedAt           time.Time `db:"reported_at"`
	UpdatedAt            time.Time `db:"updated_at"`
}

// ReportedBy reports whether userID filed r. Anonymous reports belong to
// nobody.
func (r *Report) ReportedBy(userID int64) bool {
	return r.ReporterID != nil && *r.ReporterID == userID
}
