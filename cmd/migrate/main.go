// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/Favourez/loope/internal/config"
	"github.com/Favourez/loope/internal/core"
	"github.com/Favourez/loope/internal/identity"
	"github.com/Favourez/loope/internal/user"
)

const usage = `usage: migrate [--config path] <command> [flags]

commands:
  up                  apply all pending migrations
  down                roll back the most recent migration
  status              print applied and pending migrations
  create-department   create a fire department account
`

func main() {
	configPath := flag.StringP("config", "c", "config.yaml", "path to config file")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.SetInterspersed(false)
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})))

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*configPath, args[0], args[1:]); err != nil {
		slog.Error("migrate failed", "command", args[0], "error", err)
		os.Exit(1)
	}
}

func run(configPath, command string, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck // process exit

	switch command {
	case string(core.MigrateUp), string(core.MigrateDown), string(core.MigrateStatus):
		return core.RunMigrations(ctx, db, core.MigrationCommand(command))
	case "create-department":
		in, err := parseDepartmentFlags(args)
		if err != nil {
			return err
		}
		if err := core.Migrate(ctx, db); err != nil {
			return err
		}
		svc := user.NewService(user.NewRepository(db.DB), core.NewTransactor(db.DB))
		return createDepartment(ctx, svc, in)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func parseDepartmentFlags(args []string) (user.CreateUserInput, error) {
	fs := flag.NewFlagSet("create-department", flag.ContinueOnError)

	username := fs.String("username", "", "login name")
	email := fs.String("email", "", "contact email")
	password := fs.String("password", "", "initial password")
	fullName := fs.String("full-name", "", "name of the officer in charge")
	phone := fs.String("phone", "", "contact phone")
	name := fs.String("department-name", "", "department name")
	location := fs.String("department-location", "", "department location")

	if err := fs.Parse(args); err != nil {
		return user.CreateUserInput{}, err
	}

	in := user.CreateUserInput{
		Username: *username,
		Email:    *email,
		Password: *password,
		Role:     identity.RoleFireDepartment.String(),
		FullName: *fullName,
	}
	if *phone != "" {
		in.Phone = phone
	}
	if *name != "" {
		in.DepartmentName = name
	}
	if *location != "" {
		in.DepartmentLocation = location
	}

	return in, nil
}

// createDepartment treats an existing account as success so seeding can
// be rerun.
func createDepartment(ctx context.Context, svc *user.Service, in user.CreateUserInput) error {
	u, err := svc.CreateUser(ctx, in)

	var dup *user.DuplicateIdentityError
	if errors.As(err, &dup) {
		slog.Info("fire department already exists",
			"username", in.Username,
			"field", dup.Field,
		)
		return nil
	}
	if err != nil {
		return err
	}

	slog.Info("fire department created",
		"id", u.ID,
		"username", u.Username,
	)
	return nil
}
