// AngelaMos | 2026
// handler_test.go

package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Favourez/loope/internal/middleware"
	"github.com/Favourez/loope/internal/testutil"
)

func newTestRouter(f *fixture) http.Handler {
	h := NewHandler(f.svc, CookieConfig{Name: "session", TTL: time.Hour})

	r := chi.NewRouter()
	r.Use(middleware.SessionAuth(f.svc, f.svc.LoadIdentity, "session"))
	h.RegisterRoutes(r, middleware.RequireIdentity)
	r.Route("/api", func(r chi.Router) {
		h.RegisterAPIRoutes(r, middleware.BearerAuth(f.svc, f.svc.LoadIdentity))
	})
	return r
}

func do(h http.Handler, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func sessionCookieFrom(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()

	for _, c := range rec.Result().Cookies() {
		if c.Name == "session" {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func TestHandlerLoginMeLogout(t *testing.T) {
	f := newFixture(t)
	testutil.InsertUser(t, f.db, testutil.UserFixture{Username: "alice"})
	router := newTestRouter(f)

	rec := do(router, http.MethodPost, "/auth/login", `{"username":"alice","password":"pw123456"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	cookie := sessionCookieFrom(t, rec)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)

	rec = do(router, http.MethodGet, "/auth/me", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"alice"`)

	rec = do(router, http.MethodPost, "/auth/logout", "", cookie)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(router, http.MethodGet, "/auth/me", "", cookie)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandlerLoginBadCredentials(t *testing.T) {
	f := newFixture(t)
	testutil.InsertUser(t, f.db, testutil.UserFixture{Username: "alice"})
	router := newTestRouter(f)

	rec := do(router, http.MethodPost, "/auth/login", `{"username":"alice","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(router, http.MethodPost, "/auth/login", `{"username":"ghost","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(router, http.MethodPost, "/auth/login", `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerRegisterDuplicate(t *testing.T) {
	f := newFixture(t)
	router := newTestRouter(f)

	body := `{"username":"bob","email":"bob@example.com","password":"pw123456","full_name":"Bob"}`
	rec := do(router, http.MethodPost, "/auth/register", body)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"role":"citizen"`)

	rec = do(router, http.MethodPost, "/auth/register", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandlerBearerLogin(t *testing.T) {
	f := newFixture(t)
	testutil.InsertUser(t, f.db, testutil.UserFixture{Username: "alice"})
	router := newTestRouter(f)

	rec := do(router, http.MethodPost, "/api/auth/login", `{"username":"alice","password":"pw123456"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"access_token"`)

	rec = do(router, http.MethodPost, "/api/auth/logout", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
