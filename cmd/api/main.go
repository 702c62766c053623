// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/Favourez/loope/internal/auth"
	"github.com/Favourez/loope/internal/config"
	"github.com/Favourez/loope/internal/core"
	"github.com/Favourez/loope/internal/events"
	"github.com/Favourez/loope/internal/health"
	"github.com/Favourez/loope/internal/message"
	"github.com/Favourez/loope/internal/metrics"
	"github.com/Favourez/loope/internal/middleware"
	"github.com/Favourez/loope/internal/report"
	"github.com/Favourez/loope/internal/server"
	"github.com/Favourez/loope/internal/status"
	"github.com/Favourez/loope/internal/user"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.StringP("config", "c", "config.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	startedAt := time.Now()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	telemetry, err := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
	if err != nil {
		return err
	}
	if cfg.Otel.Enabled {
		logger.Info("OpenTelemetry exporters initialized",
			"endpoint", cfg.Otel.Endpoint,
		)
	}

	recorder, err := metrics.New(telemetry.Meter)
	if err != nil {
		return err
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"driver", db.Driver(),
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	if err := core.Migrate(ctx, db); err != nil {
		return err
	}

	redis, err := core.OpenRedis(ctx, cfg.Redis, cfg.IsProduction(), logger)
	if err != nil {
		return err
	}

	if cfg.IsDevelopment() {
		generated, keyErr := auth.EnsureKeyPair(cfg.JWT.PrivateKeyPath, cfg.JWT.PublicKeyPath)
		if keyErr != nil {
			return keyErr
		}
		if generated {
			logger.Warn("generated development signing key",
				"path", cfg.JWT.PrivateKeyPath,
			)
		}
	}

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("JWT manager initialized",
		"algorithm", "ES256",
		"key_id", jwtManager.GetKeyID(),
	)

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Broker.Enabled {
		publisher = events.NewAMQPPublisher(cfg.Broker.URL, cfg.Broker.Queue)
		logger.Info("report events enabled", "queue", cfg.Broker.Queue)
	}

	tx := core.NewTransactor(db.DB)

	redisClient := redis.Client()

	userSvc := user.NewService(user.NewRepository(db.DB), tx)

	authSvc := auth.NewService(auth.ServiceConfig{
		Repo:       auth.NewRepository(db.DB),
		JWT:        jwtManager,
		Users:      userSvc,
		Redis:      redisClient,
		Recorder:   recorder,
		SessionTTL: cfg.Session.TTL,
	})

	reportSvc := report.NewService(report.ServiceConfig{
		Repo:         report.NewRepository(db.DB),
		Tx:           tx,
		Publisher:    publisher,
		Recorder:     recorder,
		DefaultLimit: cfg.Reports.DefaultLimit,
	})

	messageSvc := message.NewService(message.NewRepository(db.DB), tx, recorder)

	deps := []health.Dependency{{Name: "database", Checker: db}}
	if redis != nil {
		deps = append(deps, health.Dependency{Name: "redis", Checker: redis, Optional: true})
	}
	healthHandler := health.NewHandler(cfg.App.Name, cfg.App.Version, deps...)

	statusCfg := status.HandlerConfig{
		Reports:     reportSvc,
		Messages:    messageSvc,
		Departments: userSvc,
		DBStats:     db.Stats,
		DBPing:      db.Ping,
		StartedAt:   startedAt,
	}
	if redis != nil {
		statusCfg.RedisStats = redis.PoolStats
		statusCfg.RedisPing = redis.Ping
	}

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
		ServiceName:   cfg.Otel.ServiceName,
	})

	router := srv.Router()

	router.Use(middleware.Logger(logger))
	router.Use(
		middleware.NewRateLimiter(redisClient, middleware.RateLimitConfig{
			Limit: middleware.PerWindow(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
				cfg.RateLimit.Window,
			),
			FailOpen: true,
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	loginLimiter := middleware.NewRateLimiter(redisClient, middleware.RateLimitConfig{
		Limit: middleware.PerMinute(
			cfg.RateLimit.LoginRequests,
			cfg.RateLimit.LoginBurst,
		),
		KeyFunc: middleware.KeyByIPAndEndpoint,
		BypassFunc: func(r *http.Request) bool {
			return !server.IsCredentialEndpoint(r)
		},
		FailOpen: true,
	})

	server.Mount(router, server.Routes{
		APIKey:       cfg.API.Key,
		SessionAuth:  middleware.SessionAuth(authSvc, authSvc.LoadIdentity, cfg.Session.CookieName),
		BearerAuth:   middleware.BearerAuth(authSvc, authSvc.LoadIdentity),
		LoginLimiter: loginLimiter.Handler,
		JWKS:         jwtManager.GetJWKSHandler(),
		Health:       healthHandler,
		Auth: auth.NewHandler(authSvc, auth.CookieConfig{
			Name:   cfg.Session.CookieName,
			TTL:    cfg.Session.TTL,
			Secure: cfg.IsProduction(),
		}),
		Users:    user.NewHandler(userSvc, authSvc),
		Reports:  report.NewHandler(reportSvc, cfg.Reports.AllowAnonymous),
		Messages: message.NewHandler(messageSvc),
		Status:   status.NewHandler(statusCfg),
	})

	pruneCtx, stopPruner := context.WithCancel(ctx)
	defer stopPruner()
	go authSvc.RunPruner(pruneCtx, cfg.Session.PruneInterval)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	stopPruner()

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if err := publisher.Close(); err != nil {
		logger.Error("event publisher close error", "error", err)
	}

	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		logger.Error("telemetry shutdown error", "error", err)
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
