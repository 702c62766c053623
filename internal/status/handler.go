// AngelaMos | 2026
// handler.go

package status

import (
	"context"
	"database/sql"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/Favourez/loope/internal/core"
	"github.com/Favourez/loope/internal/report"
	"github.com/Favourez/loope/internal/user"
)

const (
	SystemOperational = "operational"
	SystemDegraded    = "degraded"
)

type ReportCounter interface {
	CountByStatus(ctx context.Context) (map[report.Status]int64, error)
}

type MessageCounter interface {
	Count(ctx context.Context) (int64, error)
}

type DepartmentLister interface {
	ListFireDepartments(ctx context.Context) ([]user.User, error)
}

type Handler struct {
	reports     ReportCounter
	messages    MessageCounter
	departments DepartmentLister

	dbStats    func() sql.DBStats
	dbPing     func(ctx context.Context) error
	redisStats func() *redis.PoolStats
	redisPing  func(ctx context.Context) error

	startedAt time.Time
}

// HandlerConfig wires the statistics sources. Redis fields stay nil when
// the service runs without Redis.
type HandlerConfig struct {
	Reports     ReportCounter
	Messages    MessageCounter
	Departments DepartmentLister

	DBStats    func() sql.DBStats
	DBPing     func(ctx context.Context) error
	RedisStats func() *redis.PoolStats
	RedisPing  func(ctx context.Context) error

	StartedAt time.Time
}

func NewHandler(cfg HandlerConfig) *Handler {
	startedAt := cfg.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now()
	}

	return &Handler{
		reports:     cfg.Reports,
		messages:    cfg.Messages,
		departments: cfg.Departments,
		dbStats:     cfg.DBStats,
		dbPing:      cfg.DBPing,
		redisStats:  cfg.RedisStats,
		redisPing:   cfg.RedisPing,
		startedAt:   startedAt,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/status", h.GetSystemStatus)
}

func (h *Handler) GetSystemStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	response := SystemStatusResponse{
		SystemStatus: SystemOperational,
		Database: DatabaseStatus{
			Healthy: ping(ctx, h.dbPing),
			Stats:   h.getDBStats(),
		},
		Runtime:     runtimeStats(),
		Uptime:      time.Since(h.startedAt).Truncate(time.Second).String(),
		LastUpdated: time.Now().UTC(),
	}

	if h.redisPing != nil {
		response.Redis = &RedisStatus{
			Healthy: ping(ctx, h.redisPing),
			Stats:   h.getRedisStats(),
		}
	}

	stats, err := h.collectStatistics(ctx)
	if err != nil {
		core.SetSpanError(ctx, err)
		response.SystemStatus = SystemDegraded
	} else {
		response.Statistics = stats
	}

	if !response.Database.Healthy {
		response.SystemStatus = SystemDegraded
	}

	core.OK(w, response)
}

func (h *Handler) collectStatistics(ctx context.Context) (*Statistics, error) {
	byStatus, err := h.reports.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	messages, err := h.messages.Count(ctx)
	if err != nil {
		return nil, err
	}

	departments, err := h.departments.ListFireDepartments(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Statistics{
		ReportsByStatus:      make(map[string]int64, len(byStatus)),
		TotalMessages:        messages,
		TotalFireDepartments: int64(len(departments)),
	}
	for st, n := range byStatus {
		stats.ReportsByStatus[string(st)] = n
		stats.TotalEmergencyReports += n
		if !st.IsTerminal() {
			stats.ActiveEmergencies += n
		}
	}

	return stats, nil
}

func ping(ctx context.Context, fn func(ctx context.Context) error) bool {
	if fn == nil {
		return false
	}
	return fn(ctx) == nil
}

func runtimeStats() RuntimeStats {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return RuntimeStats{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		MemAlloc:     memStats.Alloc,
		MemSys:       memStats.Sys,
		NumGC:        memStats.NumGC,
	}
}

func (h *Handler) getDBStats() *DBPoolStats {
	if h.dbStats == nil {
		return nil
	}

	stats := h.dbStats()
	return &DBPoolStats{
		MaxOpenConnections: stats.MaxOpenConnections,
		OpenConnections:    stats.OpenConnections,
		InUse:              stats.InUse,
		Idle:               stats.Idle,
		WaitCount:          stats.WaitCount,
		WaitDuration:       stats.WaitDuration.String(),
	}
}

func (h *Handler) getRedisStats() *RedisPoolStats {
	if h.redisStats == nil {
		return nil
	}

	stats := h.redisStats()
	return &RedisPoolStats{
		Hits:       stats.Hits,
		Misses:     stats.Misses,
		Timeouts:   stats.Timeouts,
		TotalConns: stats.TotalConns,
		IdleConns:  stats.IdleConns,
		StaleConns: stats.StaleConns,
	}
}

type SystemStatusResponse struct {
	SystemStatus string         `json:"system_status"`
	Statistics   *Statistics    `json:"statistics,omitempty"`
	Database     DatabaseStatus `json:"database"`
	Redis        *RedisStatus   `json:"redis,omitempty"`
	Runtime      RuntimeStats   `json:"runtime"`
	Uptime       string         `json:"uptime"`
	LastUpdated  time.Time      `json:"last_updated"`
}

type Statistics struct {
	TotalEmergencyReports int64            `json:"total_emergency_reports"`
	ActiveEmergencies     int64            `json:"active_emergencies"`
	ReportsByStatus       map[string]int64 `json:"reports_by_status"`
	TotalMessages         int64            `json:"total_messages"`
	TotalFireDepartments  int64            `json:"total_fire_departments"`
}

type DatabaseStatus struct {
	Healthy bool         `json:"healthy"`
	Stats   *DBPoolStats `json:"stats,omitempty"`
}

type RedisStatus struct {
	Healthy bool            `json:"healthy"`
	Stats   *RedisPoolStats `json:"stats,omitempty"`
}

type DBPoolStats struct {
	MaxOpenConnections int    `json:"max_open_connections"`
	OpenConnections    int    `json:"open_connections"`
	InUse              int    `json:"in_use"`
	Idle               int    `json:"idle"`
	WaitCount          int64  `json:"wait_count"`
	WaitDuration       string `json:"wait_duration"`
}

type RedisPoolStats struct {
	Hits       uint32 `json:"hits"`
	Misses     uint32 `json:"misses"`
	Timeouts   uint32 `json:"timeouts"`
	TotalConns uint32 `json:"total_conns"`
	IdleConns  uint32 `json:"idle_conns"`
	StaleConns uint32 `json:"stale_conns"`
}

type RuntimeStats struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutine"`
	NumCPU       int    `json:"num_cpu"`
	MemAlloc     uint64 `json:"mem_alloc_bytes"`
	MemSys       uint64 `json:"mem_sys_bytes"`
	NumGC        uint32 `json:"num_gc"`
}
