package checkout

import (
	"context"
	"fmt"
	"strings"
)

// DiscountEngine owns the discount state of one checkout session: the code
// the user entered and, once validated, the cached descriptor. The cached
// percent is trusted for subtotal changes, but any change to the set of
// products in the cart forces a full re-validation because eligibility can
// be product-scoped.
type DiscountEngine struct {
	validator  DiscountValidator
	code       string
	descriptor *Descriptor
}

// DiscountState is the serializable snapshot persisted with the session.
type DiscountState struct {
	Code       string      `json:"code,omitempty"`
	Descriptor *Descriptor `json:"descriptor,omitempty"`
}

func NewDiscountEngine(validator DiscountValidator) *DiscountEngine {
	return &DiscountEngine{validator: validator}
}

// Apply validates a code against the current subtotal and product set. An
// empty or whitespace code is a no-op, not an error: a user who never typed
// a code must never see a discount error. On a rejected code any previously
// cached descriptor is cleared and the service's reason is returned.
func (e *DiscountEngine) Apply(ctx context.Context, code string, subtotal float64, productIDs []int64) (*Descriptor, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}

	descriptor, err := e.validator.ValidateCode(ctx, code, subtotal, productIDs)
	if err != nil {
		e.code = ""
		e.descriptor = nil
		return nil, fmt.Errorf("discount code rejected: %w", err)
	}

	e.code = code
	e.descriptor = descriptor
	return e.Descriptor(), nil
}

// Recompute derives the discount amount for a new subtotal from the cached
// descriptor without re-calling the validation service. No descriptor means
// no discount.
func (e *DiscountEngine) Recompute(subtotal float64) float64 {
	if e.descriptor == nil {
		return 0
	}
	return subtotal * e.descriptor.Percent / 100
}

// OnItemSetChanged re-validates the cached code against the new subtotal
// and product set. A failed re-validation drops the descriptor and returns
// the reason so the user can be told the discount no longer applies; it is
// never left silently stale.
func (e *DiscountEngine) OnItemSetChanged(ctx context.Context, subtotal float64, productIDs []int64) (*Descriptor, error) {
	if e.code == "" {
		return nil, nil
	}
	return e.Apply(ctx, e.code, subtotal, productIDs)
}

// Remove clears the code and descriptor unconditionally.
func (e *DiscountEngine) Remove() {
	e.code = ""
	e.descriptor = nil
}

// Code returns the currently applied code, empty when none.
func (e *DiscountEngine) Code() string {
	return e.code
}

// Descriptor returns a copy of the cached descriptor, nil when none.
func (e *DiscountEngine) Descriptor() *Descriptor {
	if e.descriptor == nil {
		return nil
	}
	copied := *e.descriptor
	return &copied
}

// State snapshots the engine for session persistence.
func (e *DiscountEngine) State() DiscountState {
	return DiscountState{
		Code:       e.code,
		Descriptor: e.Descriptor(),
	}
}

// Restore rebuilds the engine state from a session snapshot.
func (e *DiscountEngine) Restore(state DiscountState) {
	e.code = state.Code
	e.descriptor = nil
	if state.Descriptor != nil {
		copied := *state.Descriptor
		e.descriptor = &copied
	}
}
