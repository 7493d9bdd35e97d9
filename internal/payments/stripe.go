// Package payments creates Stripe checkout sessions for gateway-paid
// orders.
package payments

import (
	"context"
	"fmt"
	"math"

	"github.com/stripe/stripe-go/v84"

	"github.com/soleshopapp/soleshop/internal/models"
)

type StripeClient struct {
	client  *stripe.Client
	baseURL string
}

func NewStripeClient(secretKey, baseURL string) *StripeClient {
	return &StripeClient{
		client:  stripe.NewClient(secretKey),
		baseURL: baseURL,
	}
}

// CreateCheckoutSession builds a Stripe checkout session mirroring the
// order's lines and discount. The returned session URL is where the shopper
// completes payment.
func (c *StripeClient) CreateCheckoutSession(ctx context.Context, order *models.Order) (*stripe.CheckoutSession, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context is required")
	}
	if order == nil || len(order.Lines) == 0 {
		return nil, fmt.Errorf("order with at least one line is required")
	}

	lineItems := make([]*stripe.CheckoutSessionCreateLineItemParams, 0, len(order.Lines))
	for _, line := range order.Lines {
		lineItems = append(lineItems, &stripe.CheckoutSessionCreateLineItemParams{
			PriceData: &stripe.CheckoutSessionCreateLineItemPriceDataParams{
				Currency: stripe.String("usd"),
				ProductData: &stripe.CheckoutSessionCreateLineItemPriceDataProductDataParams{
					Name: stripe.String(line.Name),
				},
				UnitAmount: stripe.Int64(toCents(line.UnitPrice)),
			},
			Quantity: stripe.Int64(int64(line.Quantity)),
		})
	}

	// The order total includes the shipping fee; charge it as its own line
	// so the Stripe amount matches the order.
	if fee := order.Total - order.Subtotal + order.DiscountAmount; fee > 0 {
		lineItems = append(lineItems, &stripe.CheckoutSessionCreateLineItemParams{
			PriceData: &stripe.CheckoutSessionCreateLineItemPriceDataParams{
				Currency: stripe.String("usd"),
				ProductData: &stripe.CheckoutSessionCreateLineItemPriceDataProductDataParams{
					Name: stripe.String("Shipping"),
				},
				UnitAmount: stripe.Int64(toCents(fee)),
			},
			Quantity: stripe.Int64(1),
		})
	}

	sessionParams := &stripe.CheckoutSessionCreateParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:         stripe.String(c.baseURL + "/orders/" + order.ID.String() + "?payment=success"),
		CancelURL:          stripe.String(c.baseURL + "/orders/" + order.ID.String() + "?payment=cancelled"),
		LineItems:          lineItems,
		Metadata: map[string]string{
			"order_id":        order.ID.String(),
			"remote_order_id": order.RemoteOrderID,
			"session_id":      order.SessionID,
		},
	}

	if order.DiscountAmount > 0 {
		coupon, err := c.client.V1Coupons.Create(ctx, &stripe.CouponCreateParams{
			AmountOff: stripe.Int64(toCents(order.DiscountAmount)),
			Currency:  stripe.String("usd"),
			Duration:  stripe.String(string(stripe.CouponDurationOnce)),
			Name:      stripe.String(order.DiscountCode),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create discount coupon: %w", err)
		}
		sessionParams.Discounts = []*stripe.CheckoutSessionCreateDiscountParams{
			{Coupon: stripe.String(coupon.ID)},
		}
	}

	if order.CustomerEmail != "" {
		sessionParams.CustomerEmail = stripe.String(order.CustomerEmail)
	}

	sess, err := c.client.V1CheckoutSessions.Create(ctx, sessionParams)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	return sess, nil
}

func toCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
