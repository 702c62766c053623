// AngelaMos | 2026
// service_test.go

package message

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Favourez/loope/internal/core"
	"github.com/Favourez/loope/internal/identity"
	"github.com/Favourez/loope/internal/testutil"
)

type postCounter map[string]int

func (p postCounter) MessagePosted(_ context.Context, kind string) { p[kind]++ }

func setup(t *testing.T) (*Service, *core.Database, *identity.Identity, *identity.Identity, postCounter) {
	t.Helper()

	db := testutil.NewDB(t)
	aliceID := testutil.InsertUser(t, db, testutil.UserFixture{Username: "alice", FullName: "Alice A"})
	bobID := testutil.InsertUser(t, db, testutil.UserFixture{Username: "bob", Role: "fire_department"})

	counter := postCounter{}
	svc := NewService(NewRepository(db.DB), core.NewTransactor(db.DB), counter)

	alice := identity.New(identity.Attributes{ID: aliceID, Username: "alice", Role: identity.RoleCitizen})
	bob := identity.New(identity.Attributes{ID: bobID, Username: "bob", Role: identity.RoleFireDepartment})
	return svc, db, alice, bob, counter
}

func TestCreateMessage(t *testing.T) {
	svc, _, alice, _, counter := setup(t)
	ctx := context.Background()

	msg, err := svc.Create(ctx, alice, "  Smoke near the school  ", "")
	require.NoError(t, err)
	assert.Equal(t, "Smoke near the school", msg.Content)
	assert.Equal(t, TypeGeneral, msg.Type)
	require.NotNil(t, msg.AuthorFullName)
	assert.Equal(t, "Alice A", *msg.AuthorFullName)
	assert.Equal(t, 1, counter["general"])

	_, err = svc.Create(ctx, alice, "hello", "rumor")
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = svc.Create(ctx, alice, "   ", "info")
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	_, err = svc.Create(ctx, nil, "hello", "info")
	assert.ErrorIs(t, err, core.ErrUnauthorized)
}

func TestListReturnsNewestInReadingOrder(t *testing.T) {
	svc, _, alice, bob, _ := setup(t)
	ctx := context.Background()

	for _, content := range []string{"one", "two", "three"} {
		_, err := svc.Create(ctx, alice, content, "info")
		require.NoError(t, err)
	}
	_, err := svc.Create(ctx, bob, "four", "alert")
	require.NoError(t, err)

	msgs, err := svc.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "three", msgs[0].Content)
	assert.Equal(t, "four", msgs[1].Content)
	require.NotNil(t, msgs[1].AuthorRole)
	assert.True(t, msgs[1].AuthorRole.IsFireDepartment())
}

func TestDeleteOnlyByAuthor(t *testing.T) {
	svc, db, alice, bob, _ := setup(t)
	ctx := context.Background()

	msg, err := svc.Create(ctx, alice, "mine", "general")
	require.NoError(t, err)

	err = svc.Delete(ctx, bob, msg.ID)
	assert.ErrorIs(t, err, core.ErrForbidden)

	require.NoError(t, svc.Delete(ctx, alice, msg.ID))

	err = svc.Delete(ctx, alice, msg.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	msgs, err := svc.List(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	var deleted bool
	require.NoError(t, db.DB.GetContext(ctx, &deleted,
		"SELECT is_deleted FROM messages WHERE id = ?", msg.ID))
	assert.True(t, deleted)

	n, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestLikeCountsEveryCall(t *testing.T) {
	svc, _, alice, _, _ := setup(t)
	ctx := context.Background()

	msg, err := svc.Create(ctx, alice, "like me", "general")
	require.NoError(t, err)

	likes, err := svc.Like(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), likes)

	likes, err = svc.Like(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), likes)

	_, err = svc.Like(ctx, 9999)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestHandlerRoutes(t *testing.T) {
	svc, _, alice, bob, _ := setup(t)

	callers := map[string]*identity.Identity{"alice": alice, "bob": bob}
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if id, ok := callers[req.Header.Get("X-Test-User")]; ok {
				req = req.WithContext(identity.WithContext(req.Context(), id))
			}
			next.ServeHTTP(w, req)
		})
	})
	NewHandler(svc).RegisterRoutes(r)

	send := func(method, path, user, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("X-Test-User", user)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusUnauthorized,
		send(http.MethodPost, "/messages", "", `{"content":"hi"}`).Code)

	rec := send(http.MethodPost, "/messages", "alice", `{"content":"hi","message_type":"info"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = send(http.MethodGet, "/messages", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total_count":1`)

	rec = send(http.MethodPost, "/messages/1/like", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"likes":1`)

	assert.Equal(t, http.StatusForbidden, send(http.MethodDelete, "/messages/1", "bob", "").Code)
	assert.Equal(t, http.StatusNoContent, send(http.MethodDelete, "/messages/1", "alice", "").Code)
	assert.Equal(t, http.StatusNotFound, send(http.MethodDelete, "/messages/1", "alice", "").Code)
}
