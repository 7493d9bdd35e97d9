package shopapi

import (
	"context"
	"net/http"

	"github.com/soleshopapp/soleshop/internal/checkout"
)

type createOrderResponse struct {
	OrderID    string `json:"order_id"`
	PaymentURL string `json:"payment_url,omitempty"`
}

// PlaceOrder submits a composed order to the shop API. The request carries
// the item list, shipping choice, payment method, and any discount code; the
// server prices the order and returns its identifier, plus a payment URL
// when the chosen method needs a gateway redirect.
func (c *Client) PlaceOrder(ctx context.Context, req checkout.OrderRequest) (*checkout.OrderReceipt, error) {
	var resp createOrderResponse
	if err := c.do(ctx, http.MethodPost, "/v1/orders", req, &resp); err != nil {
		return nil, err
	}

	return &checkout.OrderReceipt{
		OrderID:    resp.OrderID,
		PaymentURL: resp.PaymentURL,
	}, nil
}
