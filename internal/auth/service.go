// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Favourez/loope/internal/core"
	"github.com/Favourez/loope/internal/identity"
	"github.com/Favourez/loope/internal/middleware"
	"github.com/Favourez/loope/internal/user"
)

const blacklistPrefix = "blacklist:"

// CredentialStore is the part of the user service the login flows need.
type CredentialStore interface {
	Authenticate(ctx context.Context, identifier, password string) (*user.User, error)
	CreateUser(ctx context.Context, in user.CreateUserInput) (*user.User, error)
	GetByID(ctx context.Context, id int64) (*user.User, error)
}

// LoginRecorder counts login outcomes.
type LoginRecorder interface {
	LoginAttempt(ctx context.Context, method string, success bool)
}

type nopRecorder struct{}

func (nopRecorder) LoginAttempt(context.Context, string, bool) {}

type Service struct {
	repo       Repository
	jwt        *JWTManager
	users      CredentialStore
	redis      *redis.Client
	recorder   LoginRecorder
	sessionTTL time.Duration
}

type ServiceConfig struct {
	Repo       Repository
	JWT        *JWTManager
	Users      CredentialStore
	Redis      *redis.Client
	Recorder   LoginRecorder
	SessionTTL time.Duration
}

func NewService(cfg ServiceConfig) *Service {
	recorder := cfg.Recorder
	if recorder == nil {
		recorder = nopRecorder{}
	}

	return &Service{
		repo:       cfg.Repo,
		jwt:        cfg.JWT,
		users:      cfg.Users,
		redis:      cfg.Redis,
		recorder:   recorder,
		sessionTTL: cfg.SessionTTL,
	}
}

// Login authenticates the caller and opens a browser session. The
// returned token is the cookie value; only its hash is stored.
func (s *Service) Login(
	ctx context.Context,
	identifier, password, userAgent, ipAddress string,
) (string, *user.User, error) {
	u, err := s.authenticate(ctx, "session", identifier, password)
	if err != nil {
		return "", nil, err
	}

	token, err := core.GenerateSessionToken()
	if err != nil {
		return "", nil, fmt.Errorf("generate session token: %w", err)
	}

	session := &Session{
		UserID:    u.ID,
		TokenHash: core.HashToken(token),
		UserAgent: userAgent,
		IPAddress: ipAddress,
		ExpiresAt: time.Now().UTC().Add(s.sessionTTL),
	}

	if err := s.repo.Create(ctx, session); err != nil {
		return "", nil, fmt.Errorf("login: %w", err)
	}

	slog.InfoContext(ctx, "session opened",
		"user_id", u.ID,
		"session_id", session.ID,
	)

	return token, u, nil
}

// IssueAccessToken authenticates the caller and signs a bearer token
// for the REST surface.
func (s *Service) IssueAccessToken(
	ctx context.Context,
	identifier, password string,
) (*TokenResponse, *user.User, error) {
	u, err := s.authenticate(ctx, "token", identifier, password)
	if err != nil {
		return nil, nil, err
	}

	token, expiresAt, err := s.jwt.CreateAccessToken(AccessTokenClaims{
		UserID: u.ID,
		Role:   u.Role.String(),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create access token: %w", err)
	}

	return &TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(time.Until(expiresAt).Seconds()),
		ExpiresAt:   expiresAt,
	}, u, nil
}

func (s *Service) authenticate(
	ctx context.Context,
	method, identifier, password string,
) (*user.User, error) {
	u, err := s.users.Authenticate(ctx, identifier, password)
	if err != nil {
		if errors.Is(err, user.ErrInvalidCredentials) {
			s.recorder.LoginAttempt(ctx, method, false)
		}
		return nil, err
	}

	s.recorder.LoginAttempt(ctx, method, true)
	return u, nil
}

// Register creates a citizen account. Fire department accounts are
// provisioned by operators.
func (s *Service) Register(
	ctx context.Context,
	req RegisterRequest,
) (*user.User, error) {
	return s.users.CreateUser(ctx, user.CreateUserInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     identity.RoleCitizen.String(),
		FullName: req.FullName,
		Phone:    req.Phone,
	})
}

// Logout revokes the session behind token. Unknown tokens are ignored.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	if err := s.repo.RevokeByHash(ctx, core.HashToken(token)); err != nil {
		return fmt.Errorf("logout: %w", err)
	}

	return nil
}

// ResolveSession returns the user id owning a live session token.
func (s *Service) ResolveSession(
	ctx context.Context,
	token string,
) (int64, error) {
	session, err := s.repo.FindByHash(ctx, core.HashToken(token))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return 0, fmt.Errorf("resolve session: %w", core.ErrTokenInvalid)
		}
		return 0, fmt.Errorf("resolve session: %w", err)
	}

	if session.IsRevoked() {
		return 0, fmt.Errorf("resolve session: %w", core.ErrTokenRevoked)
	}
	if session.IsExpired() {
		return 0, fmt.Errorf("resolve session: %w", core.ErrTokenExpired)
	}

	return session.UserID, nil
}

// LoadIdentity builds the request identity for id. Unknown and
// deactivated users yield a nil identity without error.
func (s *Service) LoadIdentity(
	ctx context.Context,
	id int64,
) (*identity.Identity, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load identity: %w", err)
	}

	return u.Identity(), nil
}

// VerifyAccessToken checks a bearer token and rejects revoked token ids.
func (s *Service) VerifyAccessToken(
	ctx context.Context,
	token string,
) (*middleware.AccessTokenClaims, error) {
	claims, err := s.jwt.VerifyAccessToken(token)
	if err != nil {
		return nil, err
	}

	revoked, err := s.isAccessTokenBlacklisted(ctx, claims.TokenID)
	if err != nil {
		slog.WarnContext(ctx, "token blacklist check failed",
			"error", err,
		)
		return claims, nil
	}
	if revoked {
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenRevoked)
	}

	return claims, nil
}

// RevokeAccessToken blacklists a bearer token until it would have
// expired. Without Redis there is nowhere to keep the list and tokens
// simply run out.
func (s *Service) RevokeAccessToken(
	ctx context.Context,
	jti string,
	expiresAt time.Time,
) error {
	if s.redis == nil || jti == "" {
		return nil
	}

	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}

	if err := s.redis.Set(ctx, blacklistPrefix+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("blacklist token: %w", err)
	}

	return nil
}

func (s *Service) isAccessTokenBlacklisted(
	ctx context.Context,
	jti string,
) (bool, error) {
	if s.redis == nil || jti == "" {
		return false, nil
	}

	exists, err := s.redis.Exists(ctx, blacklistPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("check blacklist: %w", err)
	}

	return exists > 0, nil
}

func (s *Service) RevokeAllForUser(ctx context.Context, userID int64) error {
	if err := s.repo.RevokeAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}

	slog.InfoContext(ctx, "sessions revoked", "user_id", userID)
	return nil
}

func (s *Service) ListSessions(
	ctx context.Context,
	userID int64,
) ([]SessionInfo, error) {
	sessions, err := s.repo.ListActiveForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	return toSessionInfoList(sessions), nil
}

func (s *Service) RevokeSession(
	ctx context.Context,
	userID, sessionID int64,
) error {
	if err := s.repo.RevokeByID(ctx, userID, sessionID); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}

	return nil
}

// PruneExpired deletes sessions that expired before now.
func (s *Service) PruneExpired(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteExpired(ctx, time.Now())
	if err != nil {
		return 0, err
	}

	if n > 0 {
		slog.InfoContext(ctx, "expired sessions pruned", "count", n)
	}

	return n, nil
}

// RunPruner calls PruneExpired every interval until ctx is done.
func (s *Service) RunPruner(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.PruneExpired(ctx); err != nil {
				slog.WarnContext(ctx, "session pruning failed", "error", err)
			}
		}
	}
}
