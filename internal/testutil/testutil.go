// AngelaMos | 2026
// testutil.go

// Package testutil opens throwaway migrated databases for package tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Favourez/loope/internal/config"
	"github.com/Favourez/loope/internal/core"
)

// NewDB opens a SQLite database in a temp dir with every migration
// applied. It is closed when the test ends.
func NewDB(t *testing.T) *core.Database {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	db, err := core.NewDatabase(ctx, config.DatabaseConfig{
		Driver:          core.DriverSQLite,
		URL:             "file:" + path,
		MaxOpenConns:    4,
		MaxIdleConns:    4,
		ConnMaxLifetime: time.Hour,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.Close() //nolint:errcheck // test cleanup
	})

	require.NoError(t, core.Migrate(ctx, db))

	return db
}

// UserFixture describes a row inserted directly into users, bypassing
// the credential store.
type UserFixture struct {
	Username string
	Email    string
	Password string
	Role     string
	FullName string
	Inactive bool
}

// InsertUser writes a user row and returns its id.
func InsertUser(t *testing.T, db *core.Database, f UserFixture) int64 {
	t.Helper()

	if f.Email == "" {
		f.Email = f.Username + "@example.com"
	}
	if f.Password == "" {
		f.Password = "pw123456"
	}
	if f.Role == "" {
		f.Role = "citizen"
	}
	if f.FullName == "" {
		f.FullName = f.Username
	}

	hash, err := core.HashPassword(f.Password)
	require.NoError(t, err)

	var deptName any
	if f.Role == "fire_department" {
		deptName = f.FullName
	}

	now := time.Now().UTC()
	query := db.DB.Rebind(`
		INSERT INTO users (
			username, email, password_hash, role, full_name,
			department_name, is_active, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)

	var id int64
	err = db.DB.GetContext(context.Background(), &id, query,
		f.Username, f.Email, hash, f.Role, f.FullName,
		deptName, !f.Inactive, now, now,
	)
	require.NoError(t, err)

	return id
}
