// AngelaMos | 2026
// auth_test.go

package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Favourez/loope/internal/core"
	"github.com/Favourez/loope/internal/identity"
)

type fakeResolver map[string]int64

func (f fakeResolver) ResolveSession(_ context.Context, token string) (int64, error) {
	if id, ok := f[token]; ok {
		return id, nil
	}
	return 0, core.ErrTokenInvalid
}

type fakeVerifier struct {
	claims *AccessTokenClaims
	err    error
}

func (f fakeVerifier) VerifyAccessToken(context.Context, string) (*AccessTokenClaims, error) {
	return f.claims, f.err
}

type countingLoader struct {
	calls int
	users map[int64]*identity.Identity
}

func (l *countingLoader) load(_ context.Context, id int64) (*identity.Identity, error) {
	l.calls++
	return l.users[id], nil
}

func newLoader() *countingLoader {
	return &countingLoader{users: map[int64]*identity.Identity{
		1: identity.New(identity.Attributes{ID: 1, Username: "alice", Role: identity.RoleCitizen}),
		2: identity.New(identity.Attributes{ID: 2, Username: "bob", Role: identity.RoleFireDepartment}),
	}}
}

func captureIdentity(got **identity.Identity) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = identity.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestSessionAuthAttachesIdentity(t *testing.T) {
	loader := newLoader()
	var got *identity.Identity
	h := SessionAuth(fakeResolver{"tok-bob": 2}, loader.load, "session")(captureIdentity(&got))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "tok-bob"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got)
	assert.Equal(t, int64(2), got.ID())
	assert.Equal(t, 1, loader.calls)
}

func TestSessionAuthAnonymousCases(t *testing.T) {
	tests := []struct {
		name   string
		cookie string
	}{
		{"no cookie", ""},
		{"unknown session", "tok-unknown"},
		{"deactivated user", "tok-gone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := newLoader()
			var got *identity.Identity
			h := SessionAuth(fakeResolver{"tok-gone": 99}, loader.load, "session")(captureIdentity(&got))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "session", Value: tt.cookie})
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Nil(t, got)
			assert.LessOrEqual(t, loader.calls, 1)
		})
	}
}

func TestSessionAuthLoaderError(t *testing.T) {
	failing := func(context.Context, int64) (*identity.Identity, error) {
		return nil, errors.New("db down")
	}
	var got *identity.Identity
	h := SessionAuth(fakeResolver{"tok": 1}, failing, "session")(captureIdentity(&got))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "tok"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestBearerAuth(t *testing.T) {
	t.Run("valid token", func(t *testing.T) {
		loader := newLoader()
		var got *identity.Identity
		h := BearerAuth(fakeVerifier{claims: &AccessTokenClaims{UserID: 1}}, loader.load)(captureIdentity(&got))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer abc")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, int64(1), got.ID())
		assert.Equal(t, 1, loader.calls)
	})

	t.Run("no token is anonymous", func(t *testing.T) {
		loader := newLoader()
		var got *identity.Identity
		h := BearerAuth(fakeVerifier{}, loader.load)(captureIdentity(&got))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Nil(t, got)
		assert.Zero(t, loader.calls)
	})

	t.Run("expired token", func(t *testing.T) {
		loader := newLoader()
		var got *identity.Identity
		h := BearerAuth(fakeVerifier{err: core.ErrTokenExpired}, loader.load)(captureIdentity(&got))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer abc")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "TOKEN_EXPIRED")
	})

	t.Run("token for deactivated user", func(t *testing.T) {
		loader := newLoader()
		var got *identity.Identity
		h := BearerAuth(fakeVerifier{claims: &AccessTokenClaims{UserID: 42}}, loader.load)(captureIdentity(&got))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer abc")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Nil(t, got)
	})
}

func TestRequireFireDepartment(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	h := RequireFireDepartment(ok)

	tests := []struct {
		name   string
		caller *identity.Identity
		want   int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"citizen", identity.New(identity.Attributes{ID: 1}), http.StatusForbidden},
		{"fire department", identity.New(identity.Attributes{ID: 2, Role: identity.RoleFireDepartment}), http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, "/", nil)
			if tt.caller != nil {
				req = req.WithContext(identity.WithContext(req.Context(), tt.caller))
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestExtractToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, ExtractToken(req))

	req.Header.Set("Authorization", "bearer  tok ")
	assert.Equal(t, "tok", ExtractToken(req))

	req.Header.Set("Authorization", "Basic abc")
	assert.Empty(t, ExtractToken(req))
}
