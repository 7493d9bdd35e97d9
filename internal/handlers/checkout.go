package handlers

import (
	"net/http"

	"github.com/soleshopapp/soleshop/internal/services"
)

// PriceCheck re-verifies every cart line against the authoritative product
// prices and reports what moved. Clients call this before showing the final
// confirmation step; submission runs the same check again before placing
// the order.
func (h *Handlers) PriceCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := h.sessionID(r)
	if !ok {
		h.respondError(ctx, w, http.StatusUnauthorized, "no session")
		return
	}

	result, err := h.checkoutService.CheckPrices(ctx, sessionID)
	if err != nil {
		h.writeCheckoutError(w, r, err)
		return
	}
	h.respondJSON(ctx, w, http.StatusOK, result)
}

type submitRequest struct {
	ShippingID      int64  `json:"shipping_id"`
	PaymentMethodID int64  `json:"payment_method_id"`
	CustomerEmail   string `json:"customer_email,omitempty"`
	CustomerName    string `json:"customer_name,omitempty"`
}

func (h *Handlers) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID, ok := h.sessionID(r)
	if !ok {
		h.respondError(ctx, w, http.StatusUnauthorized, "no session")
		return
	}

	var req submitRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.checkoutService.Submit(ctx, sessionID, services.SubmitInput{
		ShippingID:      req.ShippingID,
		PaymentMethodID: req.PaymentMethodID,
		CustomerEmail:   req.CustomerEmail,
		CustomerName:    req.CustomerName,
	})
	if err != nil {
		h.writeCheckoutError(w, r, err)
		return
	}
	h.respondJSON(ctx, w, http.StatusCreated, result)
}
