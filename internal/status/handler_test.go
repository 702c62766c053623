// AngelaMos | 2026
// handler_test.go

package status

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Favourez/loope/internal/report"
	"github.com/Favourez/loope/internal/user"
)

type fakeReports struct {
	counts map[report.Status]int64
	err    error
}

func (f fakeReports) CountByStatus(context.Context) (map[report.Status]int64, error) {
	return f.counts, f.err
}

type fakeMessages int64

func (f fakeMessages) Count(context.Context) (int64, error) { return int64(f), nil }

type fakeDepartments int

func (f fakeDepartments) ListFireDepartments(context.Context) ([]user.User, error) {
	return make([]user.User, int(f)), nil
}

func okPing(context.Context) error { return nil }

type envelope struct {
	Success bool                 `json:"success"`
	Data    SystemStatusResponse `json:"data"`
}

func fetch(t *testing.T, h *Handler) envelope {
	t.Helper()

	r := chi.NewRouter()
	h.RegisterRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestSystemStatusStatistics(t *testing.T) {
	h := NewHandler(HandlerConfig{
		Reports: fakeReports{counts: map[report.Status]int64{
			report.StatusReported:   3,
			report.StatusResponding: 2,
			report.StatusResolved:   4,
			report.StatusCancelled:  1,
		}},
		Messages:    fakeMessages(7),
		Departments: fakeDepartments(2),
		DBPing:      okPing,
		DBStats:     func() sql.DBStats { return sql.DBStats{MaxOpenConnections: 10, InUse: 1} },
		StartedAt:   time.Now().Add(-time.Minute),
	})

	body := fetch(t, h)
	assert.True(t, body.Success)
	assert.Equal(t, SystemOperational, body.Data.SystemStatus)

	stats := body.Data.Statistics
	require.NotNil(t, stats)
	assert.Equal(t, int64(10), stats.TotalEmergencyReports)
	assert.Equal(t, int64(5), stats.ActiveEmergencies)
	assert.Equal(t, int64(4), stats.ReportsByStatus["resolved"])
	assert.Equal(t, int64(7), stats.TotalMessages)
	assert.Equal(t, int64(2), stats.TotalFireDepartments)

	assert.True(t, body.Data.Database.Healthy)
	require.NotNil(t, body.Data.Database.Stats)
	assert.Equal(t, 10, body.Data.Database.Stats.MaxOpenConnections)
	assert.Nil(t, body.Data.Redis)
	assert.NotEmpty(t, body.Data.Uptime)
}

func TestSystemStatusDegraded(t *testing.T) {
	h := NewHandler(HandlerConfig{
		Reports:     fakeReports{err: errors.New("database is locked")},
		Messages:    fakeMessages(0),
		Departments: fakeDepartments(0),
		DBPing:      okPing,
		RedisPing:   func(context.Context) error { return errors.New("dial tcp: refused") },
	})

	body := fetch(t, h)
	assert.Equal(t, SystemDegraded, body.Data.SystemStatus)
	assert.Nil(t, body.Data.Statistics)
	require.NotNil(t, body.Data.Redis)
	assert.False(t, body.Data.Redis.Healthy)
}

func TestSystemStatusDatabaseDown(t *testing.T) {
	h := NewHandler(HandlerConfig{
		Reports:     fakeReports{counts: map[report.Status]int64{}},
		Messages:    fakeMessages(0),
		Departments: fakeDepartments(0),
		DBPing:      func(context.Context) error { return errors.New("closed") },
	})

	body := fetch(t, h)
	assert.Equal(t, SystemDegraded, body.Data.SystemStatus)
	assert.False(t, body.Data.Database.Healthy)
}
