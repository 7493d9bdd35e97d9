package handlers

import (
	"context"
	"net/http"

	"github.com/soleshopapp/soleshop/internal/session"
)

func (h *Handlers) sessionFromRequest(ctx context.Context, r *http.Request) (string, *session.Data) {
	if ctx == nil {
		ctx = context.Background()
	}
	if id, ok := session.IDFromContext(ctx); ok {
		return id, session.FromContext(ctx)
	}
	if h == nil || h.sessionManager == nil || r == nil {
		return "", nil
	}
	id, data, err := h.sessionManager.GetSession(ctx, r)
	if err != nil {
		return "", nil
	}
	return id, data
}
