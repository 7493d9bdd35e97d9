// Package session provides per-visitor checkout session management. Each
// session owns exactly one cart and one discount state; no state is shared
// across sessions.
package session

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/soleshopapp/soleshop/internal/checkout"
)

const (
	cookieName = "soleshop_checkout"
	ttl        = 24 * time.Hour
)

// Data is the persisted state of one checkout session. Revision increments
// on every committed mutation; a stale writer (an abandoned network call
// resolving late) detects the mismatch and discards its result instead of
// clobbering newer state.
type Data struct {
	CartLines []checkout.LineItem    `json:"cart_lines,omitempty"`
	Discount  checkout.DiscountState `json:"discount,omitempty"`
	Revision  int64                  `json:"revision"`
	CreatedAt int64                  `json:"created_at"`
}

// Manager handles session creation, lookup, and storage.
type Manager struct {
	store  Store
	secure bool
}

// Store defines the interface for session storage.
type Store interface {
	Get(ctx context.Context, key string) (*Data, bool)
	Set(ctx context.Context, key string, data *Data, ttl time.Duration)
	Delete(ctx context.Context, key string)
	Close() error
}

func NewManager(store Store, secure bool) *Manager {
	return &Manager{
		store:  store,
		secure: secure,
	}
}

func (m *Manager) Close() error {
	if m == nil || m.store == nil {
		return nil
	}
	return m.store.Close()
}

// CreateSession creates a fresh session and sets the cookie.
func (m *Manager) CreateSession(ctx context.Context, w http.ResponseWriter) (string, *Data, error) {
	if ctx == nil {
		return "", nil, fmt.Errorf("context is required")
	}

	sessionID := uuid.NewString()
	data := &Data{CreatedAt: time.Now().Unix()}
	m.store.Set(ctx, sessionID, data, ttl)

	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})

	return sessionID, data, nil
}

// SessionID extracts the session identifier from the request cookie.
func (m *Manager) SessionID(r *http.Request) (string, error) {
	cookie, err := r.Cookie(cookieName)
	if err != nil {
		return "", fmt.Errorf("no session cookie found: %w", err)
	}
	return cookie.Value, nil
}

// GetSession retrieves the session bound to the request.
func (m *Manager) GetSession(ctx context.Context, r *http.Request) (string, *Data, error) {
	sessionID, err := m.SessionID(r)
	if err != nil {
		return "", nil, err
	}

	if ctx == nil {
		ctx = r.Context()
	}

	data, ok := m.store.Get(ctx, sessionID)
	if !ok {
		return "", nil, fmt.Errorf("session not found or expired")
	}

	if time.Now().Unix()-data.CreatedAt > int64(ttl.Seconds()) {
		m.store.Delete(ctx, sessionID)
		return "", nil, fmt.Errorf("session expired")
	}

	return sessionID, data, nil
}

// Load fetches session state by id, bypassing the request cookie.
func (m *Manager) Load(ctx context.Context, sessionID string) (*Data, bool) {
	return m.store.Get(ctx, sessionID)
}

// Commit writes back mutated session state, bumping the revision. The
// caller passes the revision it read; a mismatch means the session moved on
// (the user mutated the cart or started over while a network call was in
// flight) and the write is refused so the late result is discarded.
func (m *Manager) Commit(ctx context.Context, sessionID string, data *Data, readRevision int64) error {
	current, ok := m.store.Get(ctx, sessionID)
	if !ok {
		return fmt.Errorf("session no longer exists")
	}
	if current.Revision != readRevision {
		return ErrSessionSuperseded
	}

	committed := cloneData(data)
	committed.Revision = readRevision + 1
	m.store.Set(ctx, sessionID, committed, ttl)
	return nil
}

// DestroySession removes the session and clears the cookie.
func (m *Manager) DestroySession(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	cookie, err := r.Cookie(cookieName)
	if ctx == nil {
		ctx = r.Context()
	}
	if err == nil {
		m.store.Delete(ctx, cookie.Value)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})

	return nil
}

func cloneData(data *Data) *Data {
	if data == nil {
		return nil
	}
	cloned := *data
	cloned.CartLines = append([]checkout.LineItem(nil), data.CartLines...)
	if data.Discount.Descriptor != nil {
		descriptor := *data.Discount.Descriptor
		cloned.Discount.Descriptor = &descriptor
	}
	return &cloned
}
