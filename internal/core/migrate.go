// AngelaMos | 2026
// migrate.go

package core

import (
	"context"
	"embed"
	"fmt"
	"log/slog"

	"github.com/pressly/goose/v3"
)

//go:embed migrations
var migrations embed.FS

// MigrationCommand is one of the goose commands exposed by cmd/migrate.
type MigrationCommand string

const (
	MigrateUp     MigrationCommand = "up"
	MigrateDown   MigrationCommand = "down"
	MigrateStatus MigrationCommand = "status"
)

func dialectFor(driver string) (goose.Dialect, string, error) {
	switch driver {
	case DriverSQLite:
		return goose.DialectSQLite3, "migrations/sqlite", nil
	case DriverPostgres:
		return goose.DialectPostgres, "migrations/postgres", nil
	default:
		return "", "", fmt.Errorf("unsupported driver %q", driver)
	}
}

// Migrate applies the embedded migrations for the database's driver.
func Migrate(ctx context.Context, db *Database) error {
	return RunMigrations(ctx, db, MigrateUp)
}

func RunMigrations(
	ctx context.Context,
	db *Database,
	cmd MigrationCommand,
) error {
	dialect, dir, err := dialectFor(db.Driver())
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	goose.SetBaseFS(migrations)
	goose.SetLogger(gooseLogger{})
	if err := goose.SetDialect(string(dialect)); err != nil {
		return fmt.Errorf("migrate: set dialect: %w", err)
	}

	switch cmd {
	case MigrateUp:
		err = goose.UpContext(ctx, db.DB.DB, dir)
	case MigrateDown:
		err = goose.DownContext(ctx, db.DB.DB, dir)
	case MigrateStatus:
		err = goose.StatusContext(ctx, db.DB.DB, dir)
	default:
		return fmt.Errorf("migrate: unknown command %q", cmd)
	}
	if err != nil {
		return fmt.Errorf("migrate %s: %w", cmd, err)
	}

	return nil
}

type gooseLogger struct{}

func (gooseLogger) Printf(format string, v ...any) {
	slog.Debug(fmt.Sprintf(format, v...), "component", "goose")
}

func (gooseLogger) Fatalf(format string, v ...any) {
	slog.Error(fmt.Sprintf(format, v...), "component", "goose")
}
