package shopapi

import (
	"context"
	"net/http"
	"time"

	"github.com/soleshopapp/soleshop/internal/checkout"
)

type validateDiscountRequest struct {
	Code       string  `json:"code"`
	Subtotal   float64 `json:"subtotal"`
	ProductIDs []int64 `json:"product_ids"`
}

type validateDiscountResponse struct {
	Code          string    `json:"code"`
	Percent       float64   `json:"percent"`
	ValidTo       time.Time `json:"valid_to"`
	RemainingUses int       `json:"remaining_uses"`
}

// ValidateCode asks the shop API whether a discount code applies to the
// given subtotal and product set. The server is authoritative; a non-2xx
// response is the rejection reason.
func (c *Client) ValidateCode(ctx context.Context, code string, subtotal float64, productIDs []int64) (*checkout.Descriptor, error) {
	var resp validateDiscountResponse
	err := c.do(ctx, http.MethodPost, "/v1/discounts/validate", validateDiscountRequest{
		Code:       code,
		Subtotal:   subtotal,
		ProductIDs: productIDs,
	}, &resp)
	if err != nil {
		return nil, err
	}

	return &checkout.Descriptor{
		Code:          resp.Code,
		Percent:       resp.Percent,
		ValidTo:       resp.ValidTo,
		RemainingUses: resp.RemainingUses,
	}, nil
}
