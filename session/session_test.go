package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ratemyfit/model"
)

// memStore is an in-memory Store for tests.
type memStore struct {
	data map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{data: map[string][]byte{}}
}

func (s *memStore) Set(_ context.Context, id string, data []byte, _ time.Duration) error {
	s.data[id] = data
	return nil
}

func (s *memStore) Get(_ context.Context, id string) ([]byte, error) {
	data, ok := s.data[id]
	if !ok {
		return nil, ErrNoSession
	}
	return data, nil
}

func (s *memStore) Refresh(_ context.Context, id string, _ time.Duration) error {
	if _, ok := s.data[id]; !ok {
		return ErrNoSession
	}
	return nil
}

func (s *memStore) Delete(_ context.Context, id string) error {
	delete(s.data, id)
	return nil
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "rmf_session" {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func TestCreateAndCurrent(t *testing.T) {
	store := newMemStore()
	m := NewManager(store, false)
	ctx := context.Background()

	rec := httptest.NewRecorder()
	user := &model.User{ID: 9, Username: "alice", Email: "alice@example.com"}
	require.NoError(t, m.Create(ctx, rec, user))

	cookie := sessionCookie(t, rec)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.False(t, cookie.Secure, "secure flag follows the production setting")
	assert.Len(t, store.data, 1)

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(cookie)
	restored, sid, err := m.Current(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, cookie.Value, sid)
	assert.Equal(t, user.ID, restored.ID)
	assert.Equal(t, "alice", restored.Username)
}

func TestCurrentWithoutCookie(t *testing.T) {
	m := NewManager(newMemStore(), false)

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	_, _, err := m.Current(context.Background(), req)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestCurrentAfterStoreExpiry(t *testing.T) {
	store := newMemStore()
	m := NewManager(store, false)
	ctx := context.Background()

	rec := httptest.NewRecorder()
	require.NoError(t, m.Create(ctx, rec, &model.User{ID: 1, Username: "bob"}))
	cookie := sessionCookie(t, rec)

	// Simulate the Redis record expiring while the cookie lives on.
	store.data = map[string][]byte{}

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(cookie)
	_, _, err := m.Current(ctx, req)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestUpdateRewritesSnapshot(t *testing.T) {
	store := newMemStore()
	m := NewManager(store, false)
	ctx := context.Background()

	rec := httptest.NewRecorder()
	user := &model.User{ID: 2, Username: "old_name"}
	require.NoError(t, m.Create(ctx, rec, user))
	cookie := sessionCookie(t, rec)

	user.Username = "new_name"
	require.NoError(t, m.Update(ctx, cookie.Value, user))

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	req.AddCookie(cookie)
	restored, _, err := m.Current(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "new_name", restored.Username)
}

func TestDestroy(t *testing.T) {
	store := newMemStore()
	m := NewManager(store, true)
	ctx := context.Background()

	rec := httptest.NewRecorder()
	require.NoError(t, m.Create(ctx, rec, &model.User{ID: 3, Username: "carol"}))
	cookie := sessionCookie(t, rec)
	assert.True(t, cookie.Secure)

	req := httptest.NewRequest(http.MethodGet, "/logout", nil)
	req.AddCookie(cookie)
	rec2 := httptest.NewRecorder()
	require.NoError(t, m.Destroy(ctx, rec2, req))

	assert.Empty(t, store.data, "the server-side record is deleted")
	cleared := sessionCookie(t, rec2)
	assert.Empty(t, cleared.Value)
	assert.Negative(t, cleared.MaxAge, "the cookie is expired")
}

func TestDestroyWithoutCookie(t *testing.T) {
	m := NewManager(newMemStore(), false)

	req := httptest.NewRequest(http.MethodGet, "/logout", nil)
	rec := httptest.NewRecorder()
	assert.NoError(t, m.Destroy(context.Background(), rec, req), "logout without a session is a no-op")
}
