// AngelaMos | 2026
// service.go

package message

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/Favourez/loope/internal/core"
	"github.com/Favourez/loope/internal/identity"
)

type Recorder interface {
	MessagePosted(ctx context.Context, messageType string)
}

type nopRecorder struct{}

func (nopRecorder) MessagePosted(context.Context, string) {}

type Service struct {
	repo     Repository
	tx       core.Transactor
	recorder Recorder
}

func NewService(repo Repository, tx core.Transactor, recorder Recorder) *Service {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Service{repo: repo, tx: tx, recorder: recorder}
}

func (s *Service) Create(
	ctx context.Context,
	author *identity.Identity,
	content, messageType string,
) (*Message, error) {
	if author == nil {
		return nil, fmt.Errorf("create message: %w", core.ErrUnauthorized)
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("create message: content is required: %w", core.ErrInvalidInput)
	}
	if len(content) > MaxContentLength {
		return nil, fmt.Errorf("create message: content too long: %w", core.ErrInvalidInput)
	}

	kind, err := ParseType(strings.ToLower(strings.TrimSpace(messageType)))
	if err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}

	msg := &Message{UserID: author.ID(), Content: content, Type: kind}
	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "message posted",
		"message_id", msg.ID,
		"user_id", msg.UserID,
		"type", string(msg.Type),
	)
	s.recorder.MessagePosted(ctx, string(msg.Type))

	return s.repo.GetByID(ctx, msg.ID)
}

// List returns the newest limit messages in reading order, oldest first.
func (s *Service) List(ctx context.Context, limit int) ([]Message, error) {
	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}

	messages, err := s.repo.ListRecent(ctx, limit)
	if err != nil {
		return nil, err
	}

	slices.Reverse(messages)
	return messages, nil
}

// Delete hides a message. Only its author may delete it.
func (s *Service) Delete(ctx context.Context, actor *identity.Identity, id int64) error {
	if actor == nil {
		return fmt.Errorf("delete message: %w", core.ErrUnauthorized)
	}

	return s.tx.InTx(ctx, func(tx core.DBTX) error {
		repo := s.repo.WithTx(tx)

		msg, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		if msg.UserID != actor.ID() {
			return fmt.Errorf("delete message %d: not the author: %w", id, core.ErrForbidden)
		}

		return repo.SoftDelete(ctx, id)
	})
}

func (s *Service) Like(ctx context.Context, id int64) (int64, error) {
	return s.repo.IncrementLikes(ctx, id)
}

func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}
