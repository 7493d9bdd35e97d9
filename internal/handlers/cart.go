package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/soleshopapp/soleshop/internal/checkout"
	"github.com/soleshopapp/soleshop/internal/services"
	"github.com/soleshopapp/soleshop/internal/session"
	"github.com/soleshopapp/soleshop/internal/shopapi"
)

func (h *Handlers) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := h.sessionID(r)
	if !ok {
		h.respondError(ctx, w, http.StatusUnauthorized, "no session")
		return
	}

	view, err := h.checkoutService.Cart(ctx, sessionID)
	if err != nil {
		h.writeCheckoutError(w, r, err)
		return
	}
	h.respondJSON(ctx, w, http.StatusOK, view)
}

type addItemRequest struct {
	ProductID int64 `json:"product_id"`
	VariantID int64 `json:"variant_id,omitempty"`
	Quantity  int   `json:"quantity,omitempty"`
}

func (h *Handlers) AddCartItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := h.sessionID(r)
	if !ok {
		h.respondError(ctx, w, http.StatusUnauthorized, "no session")
		return
	}

	var req addItemRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := h.checkoutService.AddItem(ctx, sessionID, services.AddItemInput{
		ProductID: req.ProductID,
		VariantID: req.VariantID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		h.writeCheckoutError(w, r, err)
		return
	}
	h.respondJSON(ctx, w, http.StatusOK, view)
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handlers) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := h.sessionID(r)
	if !ok {
		h.respondError(ctx, w, http.StatusUnauthorized, "no session")
		return
	}

	var req updateQuantityRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := h.checkoutService.UpdateQuantity(ctx, sessionID, mux.Vars(r)["key"], req.Quantity)
	if err != nil {
		h.writeCheckoutError(w, r, err)
		return
	}
	h.respondJSON(ctx, w, http.StatusOK, view)
}

func (h *Handlers) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := h.sessionID(r)
	if !ok {
		h.respondError(ctx, w, http.StatusUnauthorized, "no session")
		return
	}

	view, err := h.checkoutService.RemoveItem(ctx, sessionID, mux.Vars(r)["key"])
	if err != nil {
		h.writeCheckoutError(w, r, err)
		return
	}
	h.respondJSON(ctx, w, http.StatusOK, view)
}

type applyDiscountRequest struct {
	Code string `json:"code"`
}

func (h *Handlers) ApplyDiscount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := h.sessionID(r)
	if !ok {
		h.respondError(ctx, w, http.StatusUnauthorized, "no session")
		return
	}

	var req applyDiscountRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := h.checkoutService.ApplyDiscount(ctx, sessionID, req.Code)
	if err != nil {
		h.writeCheckoutError(w, r, err)
		return
	}
	h.respondJSON(ctx, w, http.StatusOK, view)
}

func (h *Handlers) RemoveDiscount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := h.sessionID(r)
	if !ok {
		h.respondError(ctx, w, http.StatusUnauthorized, "no session")
		return
	}

	view, err := h.checkoutService.RemoveDiscount(ctx, sessionID)
	if err != nil {
		h.writeCheckoutError(w, r, err)
		return
	}
	h.respondJSON(ctx, w, http.StatusOK, view)
}

// writeCheckoutError maps service errors to HTTP statuses. Shopper-caused
// conditions get 4xx with the reason; everything else is a logged 500.
func (h *Handlers) writeCheckoutError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	var limitErr *checkout.QuantityLimitError
	var apiErr *shopapi.APIError
	var driftErr *services.PriceDriftError
	switch {
	case errors.As(err, &driftErr):
		// Changed prices are already written back to the cart; the body
		// carries the diff for the shopper to confirm before retrying.
		h.respondJSON(ctx, w, http.StatusConflict, map[string]any{
			"error": driftErr.Error(),
			"drift": driftErr.Drift,
		})
	case errors.As(err, &apiErr):
		// The shop service rejected the request for a shopper-visible
		// reason (bad code, sold out, region limits). Pass it through.
		status := http.StatusUnprocessableEntity
		if apiErr.StatusCode >= http.StatusInternalServerError {
			status = http.StatusBadGateway
		}
		h.respondError(ctx, w, status, err.Error())
	case errors.As(err, &limitErr):
		h.respondJSON(ctx, w, http.StatusConflict, map[string]any{
			"error":     limitErr.Error(),
			"available": limitErr.Available,
		})
	case errors.Is(err, checkout.ErrSubmissionInFlight):
		h.respondError(ctx, w, http.StatusConflict, err.Error())
	case errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, checkout.ErrShippingRequired),
		errors.Is(err, checkout.ErrSizeUnavailable),
		errors.Is(err, checkout.ErrNoSizeSelected),
		errors.Is(err, services.ErrVariantRequired),
		errors.Is(err, services.ErrUnknownShippingMethod),
		errors.Is(err, services.ErrUnknownPaymentMethod):
		h.respondError(ctx, w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, services.ErrLineNotFound), errors.Is(err, services.ErrOrderNotFound):
		h.respondError(ctx, w, http.StatusNotFound, err.Error())
	case errors.Is(err, session.ErrSessionSuperseded):
		h.respondError(ctx, w, http.StatusConflict, "cart changed, please retry")
	default:
		h.loggerFromContext(ctx).Error("checkout request failed", "error", err)
		h.respondError(ctx, w, http.StatusInternalServerError, "internal error")
	}
}
