package checkout

// Package checkout implements the order-composition engine: per-session
// cart state, discount handling, price drift detection, and order
// submission against the storefront's collaborator services.

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/soleshopapp/soleshop/internal/catalog"
)

var (
	ErrSubmissionInFlight = errors.New("an order submission is already in flight")
	ErrShippingRequired   = errors.New("a shipping selection is required")
	ErrEmptyCart          = errors.New("cart has no line items")
	ErrNoSizeSelected     = errors.New("no size selected")
	ErrSizeUnavailable    = errors.New("size is unavailable for the selected color")
)

// LineItem is one row of a cart: a product, optionally pinned to a specific
// variant, at the unit price captured when it was added.
type LineItem struct {
	Key       string  `json:"key"`
	ProductID int64   `json:"product_id"`
	VariantID int64   `json:"variant_id,omitempty"` // 0 means non-variable product
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
	Thumbnail string  `json:"thumbnail,omitempty"`
}

// LineTotal is always derived from the current unit price and quantity,
// never cached.
func (l LineItem) LineTotal() float64 {
	return l.UnitPrice * float64(l.Quantity)
}

// LineKey builds the stable cart key for a product/variant pair: the
// variant identifier when the product is variable, else the product
// identifier.
func LineKey(productID, variantID int64) string {
	if variantID != 0 {
		return fmt.Sprintf("v%d", variantID)
	}
	return fmt.Sprintf("p%d", productID)
}

// Descriptor holds the validated terms of a discount code. RemainingUses is
// display-only; the order-creation service owns the authoritative count.
type Descriptor struct {
	Code          string    `json:"code"`
	Percent       float64   `json:"percent"`
	ValidTo       time.Time `json:"valid_to"`
	RemainingUses int       `json:"remaining_uses"`
}

// ProductInfo is the authoritative product record returned by the lookup
// collaborator, used for drift checks and "buy again" revalidation.
type ProductInfo struct {
	ID               int64
	Name             string
	Price            float64
	PromotionalPrice *float64
	Thumbnail        string
	Variants         []catalog.RawVariant
}

// EffectivePrice mirrors the storefront display price: the promotional
// price when one applies, else the list price.
func (p *ProductInfo) EffectivePrice() float64 {
	if p.PromotionalPrice != nil && *p.PromotionalPrice > 0 && *p.PromotionalPrice < p.Price {
		return *p.PromotionalPrice
	}
	return p.Price
}

// OrderRequestItem carries a line into the order-creation request. The
// variant id is omitted entirely for non-variable products: the receiving
// system treats absence as "no variant" and an explicit 0 as variant zero.
type OrderRequestItem struct {
	ProductID int64  `json:"product_id"`
	Quantity  int    `json:"quantity"`
	VariantID *int64 `json:"variant_id,omitempty"`
}

type OrderRequest struct {
	Items           []OrderRequestItem `json:"items"`
	ShippingID      int64              `json:"shipping_id"`
	PaymentMethodID int64              `json:"payment_method_id"`
	DiscountCode    string             `json:"discount_code,omitempty"`
}

// OrderReceipt is the order-creation response. PaymentURL is set for
// non-cash payment methods.
type OrderReceipt struct {
	OrderID    string `json:"order_id"`
	PaymentURL string `json:"payment_url,omitempty"`
}

// DiscountValidator is the discount validation collaborator.
type DiscountValidator interface {
	ValidateCode(ctx context.Context, code string, subtotal float64, productIDs []int64) (*Descriptor, error)
}

// ProductLookup is the authoritative product/price collaborator.
type ProductLookup interface {
	LookupProduct(ctx context.Context, productID int64) (*ProductInfo, error)
}

// OrderPlacer performs the single order-creation call.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, req OrderRequest) (*OrderReceipt, error)
}
