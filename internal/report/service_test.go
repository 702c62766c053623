// AngelaMos | 2026
// service_test.go

package report

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Favourez/loope/internal/core"
	"github.com/Favourez/loope/internal/events"
	"github.com/Favourez/loope/internal/identity"
	"github.com/Favourez/loope/internal/testutil"
)

type capturePublisher struct {
	mu     sync.Mutex
	events []events.ReportEvent
	err    error
}

func (p *capturePublisher) Publish(_ context.Context, e events.ReportEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *capturePublisher) Close() error { return nil }

type countRecorder struct {
	created     int
	transitions []string
}

func (c *countRecorder) ReportCreated(context.Context, string) { c.created++ }

func (c *countRecorder) StatusChanged(_ context.Context, from, to string) {
	c.transitions = append(c.transitions, from+"->"+to)
}

type fixture struct {
	svc       *Service
	db        *core.Database
	publisher *capturePublisher
	recorder  *countRecorder
	citizen   *identity.Identity
	firefight *identity.Identity
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.NewDB(t)
	pub := &capturePublisher{}
	rec := &countRecorder{}

	aliceID := testutil.InsertUser(t, db, testutil.UserFixture{
		Username: "alice",
		Email:    "alice@x.com",
	})
	bobID := testutil.InsertUser(t, db, testutil.UserFixture{
		Username: "bob",
		Email:    "bob@x.com",
		Role:     "fire_department",
	})

	return &fixture{
		svc: NewService(ServiceConfig{
			Repo:      NewRepository(db.DB),
			Tx:        core.NewTransactor(db.DB),
			Publisher: pub,
			Recorder:  rec,
		}),
		db:        db,
		publisher: pub,
		recorder:  rec,
		citizen: identity.New(identity.Attributes{
			ID: aliceID, Username: "alice", Role: identity.RoleCitizen,
		}),
		firefight: identity.New(identity.Attributes{
			ID: bobID, Username: "bob", Role: identity.RoleFireDepartment,
		}),
	}
}

func ptr[T any](v T) *T { return &v }

func (f *fixture) create(t *testing.T, in CreateInput) *Report {
	t.Helper()

	r, err := f.svc.Create(context.Background(), in)
	require.NoError(t, err)
	return r
}

func countReports(t *testing.T, db *core.Database) int {
	t.Helper()

	var n int
	require.NoError(t, db.DB.GetContext(context.Background(), &n,
		"SELECT COUNT(*) FROM emergency_reports"))
	return n
}

func TestScenarioCitizenCannotResolveFireDepartmentResponds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reporter := f.citizen.ID()
	r := f.create(t, CreateInput{
		ReporterID: &reporter,
		Location:   "Central market",
		Severity:   "high",
		Latitude:   ptr(3.86),
		Longitude:  ptr(11.52),
	})
	assert.Equal(t, StatusReported, r.Status)
	assert.Nil(t, r.AssignedDepartmentID)

	_, err := f.svc.UpdateStatus(ctx, f.citizen, r.ID, "resolved", nil)
	require.ErrorIs(t, err, core.ErrForbidden)

	unchanged, err := f.svc.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusReported, unchanged.Status)
	assert.True(t, unchanged.UpdatedAt.Equal(r.UpdatedAt))

	dept := f.firefight.ID()
	updated, err := f.svc.UpdateStatus(ctx, f.firefight, r.ID, "responding", &dept)
	require.NoError(t, err)
	assert.Equal(t, StatusResponding, updated.Status)
	require.NotNil(t, updated.AssignedDepartmentID)
	assert.Equal(t, dept, *updated.AssignedDepartmentID)
	assert.False(t, updated.UpdatedAt.Before(r.UpdatedAt))
	assert.True(t, updated.ReportedAt.Equal(r.ReportedAt))
}

func TestUpdateStatusWithoutIdentity(t *testing.T) {
	f := newFixture(t)
	r := f.create(t, CreateInput{Location: "Bridge", Severity: "low"})

	_, err := f.svc.UpdateStatus(context.Background(), nil, r.ID, "responding", nil)
	assert.ErrorIs(t, err, core.ErrForbidden)
}

func TestTerminalStatusesAreFinal(t *testing.T) {
	for _, terminal := range []string{"resolved", "cancelled"} {
		t.Run(terminal, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			r := f.create(t, CreateInput{Location: "Depot", Severity: "medium"})

			_, err := f.svc.UpdateStatus(ctx, f.firefight, r.ID, terminal, nil)
			require.NoError(t, err)

			for _, next := range []string{"reported", "responding", "resolved", "cancelled"} {
				_, err := f.svc.UpdateStatus(ctx, f.firefight, r.ID, next, nil)
				assert.ErrorIs(t, err, ErrTerminalStatus)
				assert.ErrorIs(t, err, core.ErrConflict)
			}

			got, err := f.svc.Get(ctx, r.ID)
			require.NoError(t, err)
			assert.Equal(t, Status(terminal), got.Status)
		})
	}
}

func TestReportedCanResolveDirectly(t *testing.T) {
	f := newFixture(t)
	r := f.create(t, CreateInput{Location: "School", Severity: "critical"})

	got, err := f.svc.UpdateStatus(context.Background(), f.firefight, r.ID, "resolved", nil)
	require.NoError(t, err)
	assert.Equal(t, StatusResolved, got.Status)
}

func TestUpdateStatusFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.create(t, CreateInput{Location: "Harbor", Severity: "low"})

	_, err := f.svc.UpdateStatus(ctx, f.firefight, r.ID, "exploded", nil)
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = f.svc.UpdateStatus(ctx, f.firefight, 9999, "responding", nil)
	assert.ErrorIs(t, err, core.ErrNotFound)

	citizenAsDept := f.citizen.ID()
	_, err = f.svc.UpdateStatus(ctx, f.firefight, r.ID, "responding", &citizenAsDept)
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	got, err := f.svc.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusReported, got.Status)
	assert.Nil(t, got.AssignedDepartmentID)
}

func TestOmittedDepartmentKeepsAssignment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.create(t, CreateInput{Location: "Airport", Severity: "high"})

	dept := f.firefight.ID()
	_, err := f.svc.UpdateStatus(ctx, f.firefight, r.ID, "responding", &dept)
	require.NoError(t, err)

	got, err := f.svc.UpdateStatus(ctx, f.firefight, r.ID, "resolved", nil)
	require.NoError(t, err)
	require.NotNil(t, got.AssignedDepartmentID)
	assert.Equal(t, dept, *got.AssignedDepartmentID)
}

func TestCreateRejectsUnknownSeverity(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), CreateInput{
		Location: "Somewhere",
		Severity: "unknown",
	})
	require.ErrorIs(t, err, core.ErrInvalidInput)
	assert.Zero(t, countReports(t, f.db))
	assert.Empty(t, f.publisher.events)
}

func TestCreateValidation(t *testing.T) {
	tests := []struct {
		name string
		in   CreateInput
	}{
		{"empty location", CreateInput{Location: "  ", Severity: "low"}},
		{"latitude out of range", CreateInput{
			Location: "x", Severity: "low", Latitude: ptr(91.0), Longitude: ptr(0.0),
		}},
		{"longitude out of range", CreateInput{
			Location: "x", Severity: "low", Latitude: ptr(0.0), Longitude: ptr(-180.5),
		}},
		{"latitude alone", CreateInput{Location: "x", Severity: "low", Latitude: ptr(1.0)}},
		{"negative accuracy", CreateInput{
			Location: "x", Severity: "low", Latitude: ptr(1.0), Longitude: ptr(1.0), Accuracy: ptr(-1.0),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			_, err := f.svc.Create(context.Background(), tt.in)
			assert.ErrorIs(t, err, core.ErrInvalidInput)
			assert.Zero(t, countReports(t, f.db))
		})
	}
}

func TestCreateFoldsEmergencyTypeIntoDescription(t *testing.T) {
	tests := []struct {
		name          string
		emergencyType string
		description   string
		want          string
	}{
		{"type and description", "flood", " water rising ", "flood: water rising"},
		{"type only", "flood", "", "flood"},
		{"description only", "  ", "water rising", "water rising"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			r := f.create(t, CreateInput{
				Location:      "Riverside",
				Severity:      "low",
				EmergencyType: tt.emergencyType,
				Description:   tt.description,
			})
			assert.Equal(t, tt.want, r.Description)
		})
	}
}

func TestCreateAnonymousReport(t *testing.T) {
	f := newFixture(t)

	r := f.create(t, CreateInput{Location: "Park", Severity: "Medium"})
	assert.Nil(t, r.ReporterID)
	assert.Equal(t, SeverityMedium, r.Severity)
	assert.False(t, r.ReportedBy(f.citizen.ID()))
}

func TestListOrderingFiltersAndLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reporter := f.citizen.ID()

	var ids []int64
	for i, sev := range []string{"low", "high", "high", "critical"} {
		in := CreateInput{Location: "spot", Severity: sev}
		if i%2 == 0 {
			in.ReporterID = &reporter
		}
		ids = append(ids, f.create(t, in).ID)
		time.Sleep(2 * time.Millisecond)
	}

	dept := f.firefight.ID()
	_, err := f.svc.UpdateStatus(ctx, f.firefight, ids[1], "responding", &dept)
	require.NoError(t, err)

	all, err := f.svc.List(ctx, ListParams{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, ids[3], all[0].ID)
	assert.Equal(t, ids[0], all[3].ID)

	limited, err := f.svc.List(ctx, ListParams{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	high, err := f.svc.List(ctx, ListParams{Severity: "high", Status: "reported"})
	require.NoError(t, err)
	require.Len(t, high, 1)
	assert.Equal(t, ids[2], high[0].ID)

	assigned, err := f.svc.List(ctx, ListParams{DepartmentID: &dept})
	require.NoError(t, err)
	require.Len(t, assigned, 1)
	assert.Equal(t, ids[1], assigned[0].ID)

	mine, err := f.svc.List(ctx, ListParams{ReporterID: &reporter})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	_, err = f.svc.List(ctx, ListParams{Status: "lost"})
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestEventsAndMetricsFollowCommits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.publisher.err = errors.New("broker down")

	r := f.create(t, CreateInput{Location: "Mill", Severity: "high"})
	_, err := f.svc.UpdateStatus(ctx, f.firefight, r.ID, "responding", nil)
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, f.citizen, r.ID, "resolved", nil)
	require.Error(t, err)

	require.Len(t, f.publisher.events, 2)
	assert.Equal(t, events.TypeReportCreated, f.publisher.events[0].Type)
	assert.Equal(t, events.TypeReportStatusChanged, f.publisher.events[1].Type)
	assert.Equal(t, "reported", f.publisher.events[1].PreviousStatus)

	assert.Equal(t, 1, f.recorder.created)
	assert.Equal(t, []string{"reported->responding"}, f.recorder.transitions)
}

func TestCountByStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r := f.create(t, CreateInput{Location: "a", Severity: "low"})
	f.create(t, CreateInput{Location: "b", Severity: "low"})
	_, err := f.svc.UpdateStatus(ctx, f.firefight, r.ID, "cancelled", nil)
	require.NoError(t, err)

	counts, err := f.svc.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[StatusReported])
	assert.Equal(t, int64(1), counts[StatusCancelled])
	assert.Equal(t, int64(0), counts[StatusResolved])
}
