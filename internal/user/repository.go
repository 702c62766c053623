// AngelaMos | 2026
// repository.go

package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/Favourez/loope/internal/core"
	"github.com/Favourez/loope/internal/identity"
)

type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	FindDuplicateField(
		ctx context.Context,
		username, email string,
		excludeID int64,
	) (string, error)
	Update(ctx context.Context, user *User) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	Deactivate(ctx context.Context, id int64) error
	ListFireDepartments(ctx context.Context) ([]User, error)
	WithTx(tx core.DBTX) Repository
}

// activeUsers is applied to every read so soft-deleted accounts never
// leave the store.
var activeUsers = sq.Eq{"is_active": true}

var userColumns = []string{
	"id", "username", "email", "password_hash", "role", "full_name",
	"phone", "department_name", "department_location", "is_active",
	"created_at", "updated_at",
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx core.DBTX) Repository {
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, user *User) error {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.IsActive = true

	query, args, err := sq.Insert("users").
		Columns(
			"username", "email", "password_hash", "role", "full_name",
			"phone", "department_name", "department_location",
			"is_active", "created_at", "updated_at",
		).
		Values(
			user.Username, user.Email, user.PasswordHash, user.Role,
			user.FullName, user.Phone, user.DepartmentName,
			user.DepartmentLocation, true, now, now,
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("create user: build query: %w", err)
	}

	err = r.db.GetContext(ctx, &user.ID, r.db.Rebind(query), args...)
	if err != nil {
		if core.IsUniqueViolation(err) {
			return fmt.Errorf("create user: %w", duplicateFrom(err))
		}
		return fmt.Errorf("create user: %w", core.ClassifyStorageError(err))
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (*User, error) {
	return r.getOne(ctx, "get user", sq.Eq{"id": id})
}

func (r *repository) GetByUsername(
	ctx context.Context,
	username string,
) (*User, error) {
	return r.getOne(ctx, "get user by username", sq.Eq{"username": username})
}

func (r *repository) GetByEmail(
	ctx context.Context,
	email string,
) (*User, error) {
	return r.getOne(ctx, "get user by email", sq.Eq{"email": email})
}

func (r *repository) getOne(
	ctx context.Context,
	op string,
	where sq.Sqlizer,
) (*User, error) {
	query, args, err := sq.Select(userColumns...).
		From("users").
		Where(activeUsers).
		Where(where).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: build query: %w", op, err)
	}

	var user User
	err = r.db.GetContext(ctx, &user, r.db.Rebind(query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, core.ClassifyStorageError(err))
	}

	return &user, nil
}

// FindDuplicateField reports which of username or email is already taken
// by another row, including deactivated ones, or "" when neither is.
func (r *repository) FindDuplicateField(
	ctx context.Context,
	username, email string,
	excludeID int64,
) (string, error) {
	query, args, err := sq.Select("username", "email").
		From("users").
		Where(sq.Or{sq.Eq{"username": username}, sq.Eq{"email": email}}).
		Where(sq.NotEq{"id": excludeID}).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("find duplicate: build query: %w", err)
	}

	var rows []struct {
		Username string `db:"username"`
		Email    string `db:"email"`
	}
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return "", fmt.Errorf("find duplicate: %w", core.ClassifyStorageError(err))
	}

	field := ""
	for _, row := range rows {
		if row.Username == username {
			return "username", nil
		}
		if row.Email == email {
			field = "email"
		}
	}

	return field, nil
}

func (r *repository) Update(ctx context.Context, user *User) error {
	user.UpdatedAt = time.Now().UTC()

	query, args, err := sq.Update("users").
		Set("username", user.Username).
		Set("email", user.Email).
		Set("full_name", user.FullName).
		Set("phone", user.Phone).
		Set("department_name", user.DepartmentName).
		Set("department_location", user.DepartmentLocation).
		Set("updated_at", user.UpdatedAt).
		Where(sq.Eq{"id": user.ID}).
		Where(activeUsers).
		ToSql()
	if err != nil {
		return fmt.Errorf("update user: build query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		if core.IsUniqueViolation(err) {
			return fmt.Errorf("update user: %w", duplicateFrom(err))
		}
		return fmt.Errorf("update user: %w", core.ClassifyStorageError(err))
	}

	return expectRow(result, "update user")
}

func (r *repository) UpdatePassword(
	ctx context.Context,
	id int64,
	passwordHash string,
) error {
	query, args, err := sq.Update("users").
		Set("password_hash", passwordHash).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": id}).
		Where(activeUsers).
		ToSql()
	if err != nil {
		return fmt.Errorf("update password: build query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("update password: %w", core.ClassifyStorageError(err))
	}

	return expectRow(result, "update password")
}

// Deactivate matches inactive rows too, so a second call still finds
// the user and succeeds.
func (r *repository) Deactivate(ctx context.Context, id int64) error {
	query, args, err := sq.Update("users").
		Set("is_active", false).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("deactivate user: build query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("deactivate user: %w", core.ClassifyStorageError(err))
	}

	return expectRow(result, "deactivate user")
}

func (r *repository) ListFireDepartments(ctx context.Context) ([]User, error) {
	query, args, err := sq.Select(userColumns...).
		From("users").
		Where(activeUsers).
		Where(sq.Eq{"role": identity.RoleFireDepartment.String()}).
		OrderBy("full_name", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("list fire departments: build query: %w", err)
	}

	var users []User
	if err := r.db.SelectContext(ctx, &users, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf(
			"list fire departments: %w",
			core.ClassifyStorageError(err),
		)
	}

	return users, nil
}

func expectRow(result sql.Result, op string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if rows == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}

	return nil
}

func duplicateFrom(err error) *DuplicateIdentityError {
	field := core.UniqueViolationColumn(err, "username", "email")
	if field == "" {
		field = "username or email"
	}
	return &DuplicateIdentityError{Field: field}
}
