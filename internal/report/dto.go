// AngelaMos | 2026
// dto.go

package report

import (
	"time"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

type CreateInput struct {
	ReporterID    *int64
	Location      string
	EmergencyType string
	Description   string
	Severity      string
	Latitude      *float64
	Longitude     *float64
	Accuracy      *float64
}

// ListParams filters are AND-ed. Empty strings and nil pointers mean no
// filter.
type ListParams struct {
	Limit        int
	Status       string
	Severity     string
	DepartmentID *int64
	ReporterID   *int64
}

type CreateReportRequest struct {
	Location      string   `json:"location"                    validate:"required,max=255"`
	EmergencyType string   `json:"emergency_type,omitempty"    validate:"max=64"`
	Description   string   `json:"description"                 validate:"max=5000"`
	Severity      string   `json:"severity"                    validate:"required,max=16"`
	Latitude      *float64 `json:"latitude,omitempty"          validate:"omitempty,latitude"`
	Longitude     *float64 `json:"longitude,omitempty"         validate:"omitempty,longitude"`
	Accuracy      *float64 `json:"location_accuracy,omitempty" validate:"omitempty,gte=0"`
}

type UpdateStatusRequest struct {
	Status       string `json:"status"                  validate:"required"`
	DepartmentID *int64 `json:"department_id,omitempty" validate:"omitempty,gt=0"`
}

type ReportResponse struct {
	ID                   int64     `json:"id"`
	ReporterID           *int64    `json:"reporter_id"`
	Location             string    `json:"location"`
	Description          string    `json:"description"`
	Severity             string    `json:"severity"`
	Status               string    `json:"status"`
	Latitude             *float64  `json:"latitude,omitempty"`
	Longitude            *float64  `json:"longitude,omitempty"`
	LocationAccuracy     *float64  `json:"location_accuracy,omitempty"`
	AssignedDepartmentID *int64    `json:"assigned_department_id"`
	ReportedAt           time.Time `json:"reported_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

type ReportListResponse struct {
	Reports []ReportResponse `json:"reports"`
	Count   int              `json:"count"`
}

func ToReportResponse(r *Report) ReportResponse {
	return ReportResponse{
		ID:                   r.ID,
		ReporterID:           r.ReporterID,
		Location:             r.Location,
		Description:          r.Description,
		Severity:             string(r.Severity),
		Status:               string(r.Status),
		Latitude:             r.Latitude,
		Longitude:            r.Longitude,
		LocationAccuracy:     r.LocationAccuracy,
		AssignedDepartmentID: r.AssignedDepartmentID,
		ReportedAt:           r.ReportedAt,
		UpdatedAt:            r.UpdatedAt,
	}
}

func ToReportListResponse(reports []Report) ReportListResponse {
	out := make([]ReportResponse, 0, len(reports))
	for i := range reports {
		out = append(out, ToReportResponse(&reports[i]))
	}
	return ReportListResponse{Reports: out, Count: len(out)}
}
