package models

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	StatusPendingPayment OrderStatus = "pending_payment"
	StatusPaid           OrderStatus = "paid"
	StatusPaymentFailed  OrderStatus = "payment_failed"
	StatusExpired        OrderStatus = "expired"
	StatusShipped        OrderStatus = "shipped"
	StatusDelivered      OrderStatus = "delivered"
	StatusRefunded       OrderStatus = "refunded"
)

// Order is the locally persisted record of a submitted checkout. The shop
// service owns the authoritative order; this row supports order history and
// buy-again without a round trip.
type Order struct {
	ID                      uuid.UUID   `json:"id"`
	SessionID               string      `json:"session_id"`
	RemoteOrderID           string      `json:"remote_order_id"`
	ShippingID              int64       `json:"shipping_id"`
	PaymentMethodID         int64       `json:"payment_method_id"`
	DiscountCode            string      `json:"discount_code"`
	DiscountPercent         float64     `json:"discount_percent"`
	Subtotal                float64     `json:"subtotal"`
	DiscountAmount          float64     `json:"discount_amount"`
	Total                   float64     `json:"total"`
	StripeCheckoutSessionID string      `json:"stripe_checkout_session_id"`
	CustomerEmail           string      `json:"customer_email"`
	CustomerName            string      `json:"customer_name"`
	Status                  OrderStatus `json:"status"`
	Lines                   []OrderLine `json:"lines"`
	CreatedAt               time.Time   `json:"created_at"`
	PaidAt                  time.Time   `json:"paid_at"`
	ShippedAt               time.Time   `json:"shipped_at"`
	DeliveredAt             time.Time   `json:"delivered_at"`
}

// OrderLine is one priced line of a persisted order. VariantID is zero for
// products sold without variants.
type OrderLine struct {
	ID        uuid.UUID `json:"id"`
	OrderID   uuid.UUID `json:"order_id"`
	ProductID int64     `json:"product_id"`
	VariantID int64     `json:"variant_id"`
	Name      string    `json:"name"`
	UnitPrice float64   `json:"unit_price"`
	Quantity  int       `json:"quantity"`
	Thumbnail string    `json:"thumbnail"`
}

func (l OrderLine) LineTotal() float64 {
	return l.UnitPrice * float64(l.Quantity)
}
