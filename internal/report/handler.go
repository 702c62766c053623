// AngelaMos | 2026
// handler.go

package report

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/Favourez/loope/internal/core"
	"github.com/Favourez/loope/internal/identity"
)

type Handler struct {
	service        *Service
	validator      *validator.Validate
	allowAnonymous bool
}

func NewHandler(service *Service, allowAnonymous bool) *Handler {
	return &Handler{
		service:        service,
		validator:      validator.New(validator.WithRequiredStructEnabled()),
		allowAnonymous: allowAnonymous,
	}
}

// RegisterRoutes mounts the web endpoints. Citizens only see the reports
// they filed.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/reports", func(r chi.Router) {
		r.Use(authenticator)

		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Get("/{reportID}", h.Get)
		r.Put("/{reportID}/status", h.UpdateStatus)
	})
}

// RegisterAPIRoutes mounts the REST endpoints. The caller is expected to
// have applied the API key gate and the bearer authenticator.
func (h *Handler) RegisterAPIRoutes(r chi.Router) {
	r.Route("/emergencies", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Get("/{reportID}", h.Get)
		r.Put("/{reportID}/status", h.UpdateStatus)
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	caller := identity.FromContext(r.Context())
	if caller == nil && !h.allowAnonymous {
		core.Unauthorized(w, "")
		return
	}

	var req CreateReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	in := CreateInput{
		Location:      req.Location,
		EmergencyType: req.EmergencyType,
		Description:   req.Description,
		Severity:      req.Severity,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
		Accuracy:      req.Accuracy,
	}
	if caller != nil {
		id := caller.ID()
		in.ReporterID = &id
	}

	report, err := h.service.Create(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}

	core.Created(w, ToReportResponse(report))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	params, ok := parseListParams(w, r)
	if !ok {
		return
	}

	caller := identity.FromContext(r.Context())
	if caller != nil && caller.IsRegularUser() {
		id := caller.ID()
		params.ReporterID = &id
	}

	reports, err := h.service.List(r.Context(), params)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ToReportListResponse(reports))
}

func parseListParams(w http.ResponseWriter, r *http.Request) (ListParams, bool) {
	q := r.URL.Query()
	params := ListParams{
		Status:   q.Get("status"),
		Severity: q.Get("severity"),
	}

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			core.BadRequest(w, "limit must be a non-negative integer")
			return params, false
		}
		params.Limit = limit
	}

	if raw := q.Get("department_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			core.BadRequest(w, "invalid department_id")
			return params, false
		}
		params.DepartmentID = &id
	}

	return params, true
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := reportID(w, r)
	if !ok {
		return
	}

	report, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	caller := identity.FromContext(r.Context())
	if caller != nil && caller.IsRegularUser() && !report.ReportedBy(caller.ID()) {
		core.NotFound(w, "report")
		return
	}

	core.OK(w, ToReportResponse(report))
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	caller := identity.FromContext(r.Context())
	if caller == nil {
		core.Unauthorized(w, "")
		return
	}

	id, ok := reportID(w, r)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	report, err := h.service.UpdateStatus(r.Context(), caller, id, req.Status, req.DepartmentID)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ToReportResponse(report))
}

func reportID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "reportID"), 10, 64)
	if err != nil || id <= 0 {
		core.BadRequest(w, "invalid report id")
		return 0, false
	}
	return id, true
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "report")
	case errors.Is(err, core.ErrForbidden):
		core.Forbidden(w, "fire department access required")
	case errors.Is(err, ErrTerminalStatus):
		core.Conflict(w, "report is already resolved or cancelled")
	case errors.Is(err, core.ErrInvalidInput):
		core.BadRequest(w, err.Error())
	default:
		core.InternalServerError(w, err)
	}
}
