// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Favourez/loope/internal/core"
	"github.com/Favourez/loope/internal/identity"
)

type Service struct {
	repo Repository
	tx   core.Transactor
}

func NewService(repo Repository, tx core.Transactor) *Service {
	return &Service{repo: repo, tx: tx}
}

// CreateUser hashes the password with a fresh salt and stores the
// account. The duplicate check and insert share one transaction.
func (s *Service) CreateUser(
	ctx context.Context,
	in CreateUserInput,
) (*User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.FullName = strings.TrimSpace(in.FullName)

	if in.Username == "" || in.Email == "" || in.Password == "" {
		return nil, fmt.Errorf(
			"create user: username, email and password are required: %w",
			core.ErrInvalidInput,
		)
	}

	role, err := identity.ParseRole(in.Role)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	hash, err := core.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &User{
		Username:           in.Username,
		Email:              in.Email,
		PasswordHash:       hash,
		Role:               role,
		FullName:           in.FullName,
		Phone:              in.Phone,
		DepartmentName:     in.DepartmentName,
		DepartmentLocation: in.DepartmentLocation,
	}
	user.normalizeDepartment()

	err = s.tx.InTx(ctx, func(tx core.DBTX) error {
		repo := s.repo.WithTx(tx)

		field, err := repo.FindDuplicateField(ctx, user.Username, user.Email, 0)
		if err != nil {
			return err
		}
		if field != "" {
			return &DuplicateIdentityError{Field: field}
		}

		return repo.Create(ctx, user)
	})
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	slog.InfoContext(ctx, "user created",
		"user_id", user.ID,
		"role", user.Role.String(),
	)

	return user, nil
}

// Authenticate accepts a username or an email. A miss still pays for a
// full hash verification.
func (s *Service) Authenticate(
	ctx context.Context,
	identifier, password string,
) (*User, error) {
	user, err := s.lookupIdentifier(ctx, identifier)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	var storedHash *string
	if user != nil {
		storedHash = &user.PasswordHash
	}

	valid, newHash, err := core.VerifyPasswordTimingSafe(password, storedHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}

	if user == nil || !valid {
		return nil, ErrInvalidCredentials
	}

	if newHash != "" {
		if err := s.repo.UpdatePassword(ctx, user.ID, newHash); err != nil {
			slog.WarnContext(ctx, "password rehash failed",
				"user_id", user.ID,
				"error", err,
			)
		} else {
			user.PasswordHash = newHash
		}
	}

	return user, nil
}

func (s *Service) lookupIdentifier(
	ctx context.Context,
	identifier string,
) (*User, error) {
	if identifier == "" {
		return nil, core.ErrNotFound
	}

	user, err := s.repo.GetByUsername(ctx, identifier)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return nil, err
	}

	return s.repo.GetByEmail(ctx, identifier)
}

func (s *Service) GetByID(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByUsername(
	ctx context.Context,
	username string,
) (*User, error) {
	return s.repo.GetByUsername(ctx, username)
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.repo.GetByEmail(ctx, email)
}

// UpdateProfile returns (false, nil) when the new username or email is
// taken. That is the only failure reported softly.
func (s *Service) UpdateProfile(
	ctx context.Context,
	id int64,
	in UpdateProfileInput,
) (bool, error) {
	err := s.tx.InTx(ctx, func(tx core.DBTX) error {
		repo := s.repo.WithTx(tx)

		user, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		applyProfile(user, in)

		field, err := repo.FindDuplicateField(ctx, user.Username, user.Email, user.ID)
		if err != nil {
			return err
		}
		if field != "" {
			return &DuplicateIdentityError{Field: field}
		}

		return repo.Update(ctx, user)
	})

	var dupErr *DuplicateIdentityError
	if errors.As(err, &dupErr) {
		slog.InfoContext(ctx, "profile update rejected",
			"user_id", id,
			"field", dupErr.Field,
		)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("update profile: %w", err)
	}

	return true, nil
}

func applyProfile(user *User, in UpdateProfileInput) {
	if in.Username != nil && strings.TrimSpace(*in.Username) != "" {
		user.Username = strings.TrimSpace(*in.Username)
	}
	if in.Email != nil && strings.TrimSpace(*in.Email) != "" {
		user.Email = strings.TrimSpace(*in.Email)
	}
	if in.FullName != nil {
		user.FullName = strings.TrimSpace(*in.FullName)
	}
	if in.Phone != nil {
		user.Phone = in.Phone
	}
	if in.DepartmentName != nil {
		user.DepartmentName = in.DepartmentName
	}
	if in.DepartmentLocation != nil {
		user.DepartmentLocation = in.DepartmentLocation
	}
	user.normalizeDepartment()
}

func (s *Service) ChangePassword(
	ctx context.Context,
	id int64,
	newPassword string,
) error {
	if newPassword == "" {
		return fmt.Errorf("change password: %w", core.ErrInvalidInput)
	}

	hash, err := core.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.repo.UpdatePassword(ctx, id, hash); err != nil {
		return err
	}

	slog.InfoContext(ctx, "password changed", "user_id", id)
	return nil
}

// VerifyPassword checks password against the stored hash of an active
// user and returns ErrInvalidCredentials on mismatch.
func (s *Service) VerifyPassword(
	ctx context.Context,
	id int64,
	password string,
) error {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	valid, err := core.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		return ErrInvalidCredentials
	}

	return nil
}

func (s *Service) Deactivate(ctx context.Context, id int64) error {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return err
	}

	slog.InfoContext(ctx, "user deactivated", "user_id", id)
	return nil
}

func (s *Service) ListFireDepartments(ctx context.Context) ([]User, error) {
	return s.repo.ListFireDepartments(ctx)
}
