// AngelaMos | 2026
// handler_test.go

package report

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Favourez/loope/internal/identity"
)

// asCaller attaches the identity named by the X-Test-User header.
func asCaller(users map[string]*identity.Identity) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id, ok := users[r.Header.Get("X-Test-User")]; ok {
				r = r.WithContext(identity.WithContext(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func newRouter(f *fixture, allowAnonymous bool) http.Handler {
	h := NewHandler(f.svc, allowAnonymous)
	users := map[string]*identity.Identity{"alice": f.citizen, "bob": f.firefight}

	r := chi.NewRouter()
	r.Use(asCaller(users))
	h.RegisterAPIRoutes(r)
	return r
}

func call(h http.Handler, method, path, user, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandlerCreateAndTransition(t *testing.T) {
	f := newFixture(t)
	router := newRouter(f, true)

	rec := call(router, http.MethodPost, "/emergencies", "alice",
		`{"location":"Central market","severity":"high","latitude":3.86,"longitude":11.52}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"status":"reported"`)

	path := "/emergencies/1/status"

	rec = call(router, http.MethodPut, path, "alice", `{"status":"resolved"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = call(router, http.MethodPut, path, "", `{"status":"resolved"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	body := fmt.Sprintf(`{"status":"responding","department_id":%d}`, f.firefight.ID())
	rec = call(router, http.MethodPut, path, "bob", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"status":"responding"`)

	rec = call(router, http.MethodPut, path, "bob", `{"status":"resolved"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = call(router, http.MethodPut, path, "bob", `{"status":"responding"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = call(router, http.MethodPut, "/emergencies/99/status", "bob", `{"status":"responding"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerCreateValidation(t *testing.T) {
	f := newFixture(t)
	router := newRouter(f, true)

	rec := call(router, http.MethodPost, "/emergencies", "", `{"location":"x","severity":"unknown"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(router, http.MethodPost, "/emergencies", "", `{"location":"x","severity":"low","latitude":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(router, http.MethodPost, "/emergencies", "", `{"location":"x","severity":"low"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"reporter_id":null`)
}

func TestHandlerCreateNormalizesSeverityAndType(t *testing.T) {
	f := newFixture(t)
	router := newRouter(f, true)

	rec := call(router, http.MethodPost, "/emergencies", "alice",
		`{"location":"Bastos","severity":"HIGH","emergency_type":"fire","description":"smoke from the roof"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"severity":"high"`)
	assert.Contains(t, rec.Body.String(), `"description":"fire: smoke from the roof"`)
}

func TestHandlerAnonymousDisabled(t *testing.T) {
	f := newFixture(t)
	router := newRouter(f, false)

	rec := call(router, http.MethodPost, "/emergencies", "", `{"location":"x","severity":"low"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandlerCitizenSeesOwnReports(t *testing.T) {
	f := newFixture(t)
	router := newRouter(f, true)

	require.Equal(t, http.StatusCreated,
		call(router, http.MethodPost, "/emergencies", "alice", `{"location":"a","severity":"low"}`).Code)
	require.Equal(t, http.StatusCreated,
		call(router, http.MethodPost, "/emergencies", "", `{"location":"b","severity":"low"}`).Code)

	rec := call(router, http.MethodGet, "/emergencies", "alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":1`)

	rec = call(router, http.MethodGet, "/emergencies", "bob", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":2`)

	assert.Equal(t, http.StatusNotFound, call(router, http.MethodGet, "/emergencies/2", "alice", "").Code)
	assert.Equal(t, http.StatusOK, call(router, http.MethodGet, "/emergencies/2", "bob", "").Code)

	assert.Equal(t, http.StatusBadRequest,
		call(router, http.MethodGet, "/emergencies?status=lost", "bob", "").Code)
	assert.Equal(t, http.StatusBadRequest,
		call(router, http.MethodGet, "/emergencies?limit=abc", "bob", "").Code)
}
