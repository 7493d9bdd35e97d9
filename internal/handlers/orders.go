package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

func (h *Handlers) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := h.sessionID(r)
	if !ok {
		h.respondError(ctx, w, http.StatusUnauthorized, "no session")
		return
	}

	orders, err := h.orderService.ListOrders(ctx, sessionID)
	if err != nil {
		h.loggerFromContext(ctx).Error("failed to list orders", "error", err)
		h.respondError(ctx, w, http.StatusInternalServerError, "internal error")
		return
	}
	h.respondJSON(ctx, w, http.StatusOK, map[string]any{"orders": orders})
}

func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := h.sessionID(r)
	if !ok {
		h.respondError(ctx, w, http.StatusUnauthorized, "no session")
		return
	}

	orderID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid order id")
		return
	}

	order, err := h.orderService.GetOrder(ctx, sessionID, orderID)
	if err != nil {
		h.writeCheckoutError(w, r, err)
		return
	}
	h.respondJSON(ctx, w, http.StatusOK, order)
}

// ReorderItems replays a past order's lines into the current cart.
func (h *Handlers) ReorderItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := h.sessionID(r)
	if !ok {
		h.respondError(ctx, w, http.StatusUnauthorized, "no session")
		return
	}

	orderID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid order id")
		return
	}

	result, err := h.orderService.BuyAgain(ctx, sessionID, orderID)
	if err != nil {
		h.writeCheckoutError(w, r, err)
		return
	}
	h.respondJSON(ctx, w, http.StatusOK, result)
}
