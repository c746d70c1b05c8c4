// Package session keeps the logged-in user consistent between the browser
// cookie and the server-side session record. The session snapshot is the
// single source of truth handlers read; it is installed at login, written
// back on profile changes, and destroyed on logout in both layers.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"ratemyfit/model"
)

const (
	cookieName = "rmf_session"
	// TTL is the sliding session expiry: every authenticated request
	// pushes it forward.
	TTL = 24 * time.Hour
)

// Manager issues, restores and destroys cookie-backed sessions.
type Manager struct {
	store  Store
	secure bool // Secure cookie flag, on in production
}

// NewManager creates a Manager over the given store.
func NewManager(store Store, secure bool) *Manager {
	return &Manager{store: store, secure: secure}
}

// Create starts a session for the resolved user and sets the cookie.
func (m *Manager) Create(ctx context.Context, w http.ResponseWriter, user *model.User) error {
	id := uuid.NewString()
	if err := m.write(ctx, id, user); err != nil {
		return err
	}
	m.setCookie(w, id, int(TTL.Seconds()))
	return nil
}

// Current restores the session user for a request. Returns the user and the
// session ID, or ErrNoSession when the cookie is absent or the record expired.
func (m *Manager) Current(ctx context.Context, r *http.Request) (*model.User, string, error) {
	cookie, err := r.Cookie(cookieName)
	if err != nil {
		return nil, "", ErrNoSession
	}
	data, err := m.store.Get(ctx, cookie.Value)
	if err != nil {
		return nil, "", err
	}
	var user model.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, "", fmt.Errorf("corrupt session %s: %w", cookie.Value, err)
	}
	return &user, cookie.Value, nil
}

// Touch slides the expiry window forward, on both the server record and the
// cookie.
func (m *Manager) Touch(ctx context.Context, w http.ResponseWriter, id string) {
	// Best effort: a failed refresh just means the session expires on the
	// original schedule.
	_ = m.store.Refresh(ctx, id, TTL)
	m.setCookie(w, id, int(TTL.Seconds()))
}

// Update overwrites the stored user snapshot so the session mirrors the
// credential store after profile or avatar changes.
func (m *Manager) Update(ctx context.Context, id string, user *model.User) error {
	return m.write(ctx, id, user)
}

// Destroy ends the session: the server-side record first, then the cookie.
// Both always run, so a partial logout cannot persist.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var storeErr error
	if cookie, err := r.Cookie(cookieName); err == nil {
		storeErr = m.store.Delete(ctx, cookie.Value)
	}
	m.setCookie(w, "", -1)
	return storeErr
}

func (m *Manager) write(ctx context.Context, id string, user *model.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal session user: %w", err)
	}
	return m.store.Set(ctx, id, data, TTL)
}

func (m *Manager) setCookie(w http.ResponseWriter, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
