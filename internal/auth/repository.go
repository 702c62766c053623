// AngelaMos | 2026
// repository.go

package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Favourez/loope/internal/core"
)

type Repository interface {
	Create(ctx context.Context, session *Session) error
	FindByHash(ctx context.Context, tokenHash string) (*Session, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeByID(ctx context.Context, userID, id int64) error
	RevokeAllForUser(ctx context.Context, userID int64) error
	ListActiveForUser(ctx context.Context, userID int64) ([]Session, error)
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const sessionColumns = `id, user_id, token_hash, user_agent, ip_address,
	created_at, expires_at, revoked_at`

func (r *repository) Create(ctx context.Context, session *Session) error {
	query := r.db.Rebind(`
		INSERT INTO user_sessions (
			user_id, token_hash, user_agent, ip_address, created_at, expires_at
		) VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`)

	session.CreatedAt = time.Now().UTC()

	err := r.db.GetContext(ctx, &session.ID, query,
		session.UserID,
		session.TokenHash,
		session.UserAgent,
		session.IPAddress,
		session.CreatedAt,
		session.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("create session: %w", core.ClassifyStorageError(err))
	}

	return nil
}

func (r *repository) FindByHash(
	ctx context.Context,
	tokenHash string,
) (*Session, error) {
	query := r.db.Rebind(`
		SELECT ` + sessionColumns + `
		FROM user_sessions
		WHERE token_hash = ?`)

	var session Session
	err := r.db.GetContext(ctx, &session, query, tokenHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find session: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find session: %w", core.ClassifyStorageError(err))
	}

	return &session, nil
}

func (r *repository) RevokeByHash(ctx context.Context, tokenHash string) error {
	query := r.db.Rebind(`
		UPDATE user_sessions
		SET revoked_at = ?
		WHERE token_hash = ? AND revoked_at IS NULL`)

	if _, err := r.db.ExecContext(ctx, query, time.Now().UTC(), tokenHash); err != nil {
		return fmt.Errorf("revoke session: %w", core.ClassifyStorageError(err))
	}

	return nil
}

func (r *repository) RevokeByID(ctx context.Context, userID, id int64) error {
	query := r.db.Rebind(`
		UPDATE user_sessions
		SET revoked_at = ?
		WHERE id = ? AND user_id = ? AND revoked_at IS NULL`)

	result, err := r.db.ExecContext(ctx, query, time.Now().UTC(), id, userID)
	if err != nil {
		return fmt.Errorf("revoke session: %w", core.ClassifyStorageError(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("revoke session: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) RevokeAllForUser(ctx context.Context, userID int64) error {
	query := r.db.Rebind(`
		UPDATE user_sessions
		SET revoked_at = ?
		WHERE user_id = ? AND revoked_at IS NULL`)

	if _, err := r.db.ExecContext(ctx, query, time.Now().UTC(), userID); err != nil {
		return fmt.Errorf("revoke all sessions: %w", core.ClassifyStorageError(err))
	}

	return nil
}

func (r *repository) ListActiveForUser(
	ctx context.Context,
	userID int64,
) ([]Session, error) {
	query := r.db.Rebind(`
		SELECT ` + sessionColumns + `
		FROM user_sessions
		WHERE user_id = ?
			AND revoked_at IS NULL
			AND expires_at > ?
		ORDER BY created_at DESC, id DESC`)

	var sessions []Session
	err := r.db.SelectContext(ctx, &sessions, query, userID, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", core.ClassifyStorageError(err))
	}

	return sessions, nil
}

func (r *repository) DeleteExpired(
	ctx context.Context,
	before time.Time,
) (int64, error) {
	query := r.db.Rebind(`
		DELETE FROM user_sessions
		WHERE expires_at < ?`)

	result, err := r.db.ExecContext(ctx, query, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", core.ClassifyStorageError(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}

	return rows, nil
}
