package shopapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/soleshopapp/soleshop/internal/catalog"
	"github.com/soleshopapp/soleshop/internal/checkout"
)

type productResponse struct {
	ID               int64           `json:"id"`
	Name             string          `json:"name"`
	Price            float64         `json:"price"`
	PromotionalPrice *float64        `json:"promotional_price,omitempty"`
	Active           bool            `json:"active"`
	Variants         json.RawMessage `json:"variants,omitempty"`
}

// LookupProduct fetches the current authoritative state of one product. An
// inactive product is reported as an error so price checks treat it the same
// as a vanished one. The variant list rides along for stock revalidation;
// older product records serialize it as a nested JSON string, which the
// catalog parser unwraps.
func (c *Client) LookupProduct(ctx context.Context, productID int64) (*checkout.ProductInfo, error) {
	var resp productResponse
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/v1/products/%d", productID), nil, &resp); err != nil {
		return nil, err
	}

	if !resp.Active {
		return nil, fmt.Errorf("product %d is no longer available", productID)
	}

	variants, err := catalog.ParseVariantPayload(resp.Variants)
	if err != nil {
		return nil, fmt.Errorf("product %d has a malformed variant payload: %w", productID, err)
	}

	return &checkout.ProductInfo{
		ID:               resp.ID,
		Name:             resp.Name,
		Price:            resp.Price,
		PromotionalPrice: resp.PromotionalPrice,
		Variants:         variants,
	}, nil
}
