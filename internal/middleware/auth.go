// AngelaMos | 2026
// auth.go

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Favourez/loope/internal/core"
	"github.com/Favourez/loope/internal/identity"
)

type contextKey string

const ClaimsKey contextKey = "jwt_claims"

// SessionResolver maps an opaque session cookie value to a user id.
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (int64, error)
}

type TokenVerifier interface {
	VerifyAccessToken(
		ctx context.Context,
		token string,
	) (*AccessTokenClaims, error)
}

type AccessTokenClaims struct {
	UserID    int64
	TokenID   string
	ExpiresAt time.Time
}

// SessionAuth attaches the identity behind the session cookie, if any.
// It never rejects a request; pair it with RequireIdentity or
// RequireFireDepartment on routes that need a caller.
func SessionAuth(
	resolver SessionResolver,
	loader identity.Loader,
	cookieName string,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			userID, err := resolver.ResolveSession(ctx, cookie.Value)
			if err != nil {
				if errors.Is(err, core.ErrStorageUnavailable) {
					core.InternalServerError(w, err)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			id, ok := loadIdentity(w, r, loader, userID)
			if !ok {
				return
			}
			if id != nil {
				r = r.WithContext(identity.WithContext(ctx, id))
			}

			next.ServeHTTP(w, r)
		})
	}
}

// BearerAuth verifies an Authorization bearer token and attaches the
// identity it names. A bad token is rejected; a missing one passes
// through as anonymous.
func BearerAuth(
	verifier TokenVerifier,
	loader identity.Loader,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := verifier.VerifyAccessToken(r.Context(), token)
			if err != nil {
				handleAuthError(w, err)
				return
			}

			id, ok := loadIdentity(w, r, loader, claims.UserID)
			if !ok {
				return
			}
			if id == nil {
				core.JSONError(w, core.TokenInvalidError())
				return
			}

			ctx := identity.WithContext(r.Context(), id)
			ctx = context.WithValue(ctx, ClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// loadIdentity runs the loader once. ok is false when a response has
// already been written.
func loadIdentity(
	w http.ResponseWriter,
	r *http.Request,
	loader identity.Loader,
	userID int64,
) (*identity.Identity, bool) {
	id, err := loader(r.Context(), userID)
	if err != nil {
		slog.ErrorContext(r.Context(), "load identity failed",
			"user_id", userID,
			"error", err,
		)
		core.InternalServerError(w, err)
		return nil, false
	}
	return id, true
}

func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !identity.IsAuthenticated(r.Context()) {
			core.JSONError(w, core.UnauthorizedError("authentication required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func RequireFireDepartment(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller := identity.FromContext(r.Context())
		if caller == nil {
			core.JSONError(w, core.UnauthorizedError("authentication required"))
			return
		}

		if !caller.IsFireDepartment() {
			core.JSONError(w, core.ForbiddenError("fire department access required"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func ExtractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

func handleAuthError(w http.ResponseWriter, err error) {
	if core.IsAppError(err) {
		core.JSONError(w, err)
		return
	}

	switch {
	case errors.Is(err, core.ErrTokenExpired):
		core.JSONError(w, core.TokenExpiredError())
	case errors.Is(err, core.ErrTokenRevoked):
		core.JSONError(w, core.TokenRevokedError())
	case errors.Is(err, core.ErrStorageUnavailable):
		core.InternalServerError(w, err)
	default:
		core.JSONError(w, core.TokenInvalidError())
	}
}

func GetClaims(ctx context.Context) *AccessTokenClaims {
	if claims, ok := ctx.Value(ClaimsKey).(*AccessTokenClaims); ok {
		return claims
	}
	return nil
}
