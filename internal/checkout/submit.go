package checkout

import (
	"context"
	"fmt"
	"sync/atomic"
)

// OrderDraft is assembled only at submission time and never outlives the
// single attempt it was built for.
type OrderDraft struct {
	Lines           []LineItem
	ShippingID      int64
	PaymentMethodID int64
	DiscountCode    string
}

// Submitter performs the order-creation call with an at-most-one-in-flight
// guarantee: while a submission is pending, further Submit calls are
// rejected so a double click can never create two orders.
type Submitter struct {
	placer   OrderPlacer
	inFlight atomic.Bool
}

func NewSubmitter(placer OrderPlacer) *Submitter {
	return &Submitter{placer: placer}
}

// InFlight reports whether a submission is currently pending.
func (s *Submitter) InFlight() bool {
	return s.inFlight.Load()
}

// Submit validates the draft locally, builds the order-creation request,
// and fires it exactly once. A missing shipping selection or an empty line
// set is rejected before any network call. On failure the caller's cart is
// untouched; the service's rejection reason is wrapped verbatim.
func (s *Submitter) Submit(ctx context.Context, draft OrderDraft) (*OrderReceipt, error) {
	if draft.ShippingID == 0 {
		return nil, ErrShippingRequired
	}
	if len(draft.Lines) == 0 {
		return nil, ErrEmptyCart
	}

	if !s.inFlight.CompareAndSwap(false, true) {
		return nil, ErrSubmissionInFlight
	}
	defer s.inFlight.Store(false)

	receipt, err := s.placer.PlaceOrder(ctx, buildOrderRequest(draft))
	if err != nil {
		return nil, fmt.Errorf("order creation failed: %w", err)
	}
	return receipt, nil
}

func buildOrderRequest(draft OrderDraft) OrderRequest {
	items := make([]OrderRequestItem, 0, len(draft.Lines))
	for _, line := range draft.Lines {
		item := OrderRequestItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
		}
		if line.VariantID != 0 {
			variantID := line.VariantID
			item.VariantID = &variantID
		}
		items = append(items, item)
	}

	return OrderRequest{
		Items:           items,
		ShippingID:      draft.ShippingID,
		PaymentMethodID: draft.PaymentMethodID,
		DiscountCode:    draft.DiscountCode,
	}
}
