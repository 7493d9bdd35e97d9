package session

import (
	"context"
	"net/http"
)

// contextKey is a type for context keys to avoid collisions
type contextKey string

const (
	idCtxKey   contextKey = "session_id"
	dataCtxKey contextKey = "session_data"
)

// Middleware resolves the visitor's session and adds it to the request
// context. A request without a valid session gets a fresh one so that cart
// endpoints never have to handle the missing-session case themselves.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID, data, err := m.GetSession(r.Context(), r)
		if err != nil {
			sessionID, data, err = m.CreateSession(r.Context(), w)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
		}

		ctx := context.WithValue(r.Context(), idCtxKey, sessionID)
		ctx = context.WithValue(ctx, dataCtxKey, data)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// IDFromContext retrieves the session identifier from the request context.
func IDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(idCtxKey).(string)
	return id, ok
}

// FromContext retrieves session data from the request context.
func FromContext(ctx context.Context) *Data {
	if ctx == nil {
		return nil
	}
	data, ok := ctx.Value(dataCtxKey).(*Data)
	if !ok {
		return nil
	}
	return data
}
