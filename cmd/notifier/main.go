// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/Favourez/loope/internal/config"
	"github.com/Favourez/loope/internal/events"
)

func main() {
	configPath := flag.StringP("config", "c", "config.yaml", "path to config file")
	queue := flag.String("queue", "", "queue to consume (defaults to broker.queue)")
	flag.Parse()

	if err := run(*configPath, *queue); err != nil {
		slog.Error("notifier error", "error", err)
		os.Exit(1)
	}
}

func run(configPath, queue string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	if queue == "" {
		queue = cfg.Broker.Queue
	}

	logger.Info("notifier starting", "queue", queue)

	consumer := events.NewConsumer(cfg.Broker.URL, queue, events.LogDispatch(logger), logger)
	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logger.Info("notifier stopped")
	return nil
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
