// AngelaMos | 2026
// repository.go

package message

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/Favourez/loope/internal/core"
)

type Repository interface {
	Create(ctx context.Context, msg *Message) error
	GetByID(ctx context.Context, id int64) (*Message, error)
	ListRecent(ctx context.Context, limit int) ([]Message, error)
	SoftDelete(ctx context.Context, id int64) error
	IncrementLikes(ctx context.Context, id int64) (int64, error)
	Count(ctx context.Context) (int64, error)
	WithTx(tx core.DBTX) Repository
}

// visible is applied to every read so deleted messages never leave the
// store.
var visible = sq.Eq{"m.is_deleted": false}

var messageColumns = []string{
	"m.id", "m.user_id", "m.content", "m.message_type", "m.likes",
	"m.is_deleted", "m.created_at", "m.updated_at",
	"u.username AS author_username",
	"u.full_name AS author_full_name",
	"u.role AS author_role",
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

func selectMessages() sq.SelectBuilder {
	return sq.Select(messageColumns...).
		From("messages m").
		LeftJoin("users u ON u.id = m.user_id").
		Where(visible)
}

func (r *repository) Create(ctx context.Context, msg *Message) error {
	now := time.Now().UTC()
	msg.CreatedAt = now
	msg.UpdatedAt = now

	query, args, err := sq.Insert("messages").
		Columns("user_id", "content", "message_type", "likes", "is_deleted", "created_at", "updated_at").
		Values(msg.UserID, msg.Content, msg.Type, 0, false, now, now).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("create message: build query: %w", err)
	}

	err = r.db.GetContext(ctx, &msg.ID, r.db.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("create message: %w", core.ClassifyStorageError(err))
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Message, error) {
	query, args, err := selectMessages().Where(sq.Eq{"m.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("get message: build query: %w", err)
	}

	var msg Message
	err = r.db.GetContext(ctx, &msg, r.db.Rebind(query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get message: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get message: %w", core.ClassifyStorageError(err))
	}

	return &msg, nil
}

// ListRecent returns the newest limit messages, newest first.
func (r *repository) ListRecent(ctx context.Context, limit int) ([]Message, error) {
	query, args, err := selectMessages().
		OrderBy("m.created_at DESC", "m.id DESC").
		Limit(uint64(limit)). //nolint:gosec // limit is clamped positive
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("list messages: build query: %w", err)
	}

	messages := []Message{}
	if err := r.db.SelectContext(ctx, &messages, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list messages: %w", core.ClassifyStorageError(err))
	}

	return messages, nil
}

func (r *repository) SoftDelete(ctx context.Context, id int64) error {
	query, args, err := sq.Update("messages").
		Set("is_deleted", true).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": id, "is_deleted": false}).
		ToSql()
	if err != nil {
		return fmt.Errorf("delete message: build query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("delete message: %w", core.ClassifyStorageError(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete message: %w", core.ErrNotFound)
	}

	return nil
}

// IncrementLikes adds one like and returns the new total. Repeated calls
// keep counting.
func (r *repository) IncrementLikes(ctx context.Context, id int64) (int64, error) {
	query, args, err := sq.Update("messages").
		Set("likes", sq.Expr("likes + 1")).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": id, "is_deleted": false}).
		Suffix("RETURNING likes").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("like message: build query: %w", err)
	}

	var likes int64
	err = r.db.GetContext(ctx, &likes, r.db.Rebind(query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("like message: %w", core.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("like message: %w", core.ClassifyStorageError(err))
	}

	return likes, nil
}

func (r *repository) Count(ctx context.Context) (int64, error) {
	query, args, err := sq.Select("COUNT(*)").
		From("messages m").
		Where(visible).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("count messages: build query: %w", err)
	}

	var n int64
	if err := r.db.GetContext(ctx, &n, r.db.Rebind(query), args...); err != nil {
		return 0, fmt.Errorf("count messages: %w", core.ClassifyStorageError(err))
	}

	return n, nil
}
