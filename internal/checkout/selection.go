package checkout

import (
	"fmt"

	"github.com/soleshopapp/soleshop/internal/catalog"
)

// Selection tracks the color/size/quantity choice on one product page. It
// is local to a single product view and never persisted: navigating away or
// rebuilding the page starts from a fresh Selection.
type Selection struct {
	catalog  *catalog.Catalog
	colorID  int64
	hasColor bool
	size     string
	hasSize  bool
	quantity int
}

// QuantityLimitError reports the stock ceiling that a quantity change would
// exceed, so the page can show "only N left" instead of silently clamping.
type QuantityLimitError struct {
	Available int
}

func (e *QuantityLimitError) Error() string {
	return fmt.Sprintf("requested quantity exceeds available stock (%d left)", e.Available)
}

func NewSelection(c *catalog.Catalog) *Selection {
	return &Selection{catalog: c}
}

// SelectColor switches the active color and resets the size to the first
// in-stock size under it, quantity 1. A color with no stocked size leaves
// the selection with no size and quantity 0.
func (s *Selection) SelectColor(colorID int64) {
	s.colorID = colorID
	s.hasColor = true

	entry, ok := s.catalog.FirstInStockSize(colorID)
	if !ok {
		s.size = ""
		s.hasSize = false
		s.quantity = 0
		return
	}

	s.size = entry.Size
	s.hasSize = true
	s.quantity = 1
}

// SelectSize picks a size under the current color. The size must exist with
// stock; picking it resets quantity to 1.
func (s *Selection) SelectSize(size string) error {
	if !s.hasColor {
		return ErrSizeUnavailable
	}

	entry, ok := s.catalog.Availability(s.colorID, size)
	if !ok || entry.Quantity <= 0 {
		return ErrSizeUnavailable
	}

	s.size = size
	s.hasSize = true
	s.quantity = 1
	return nil
}

// ChangeQuantity adjusts the quantity by delta. The result is clamped to a
// minimum of 1; exceeding the available stock is rejected with a
// QuantityLimitError carrying the ceiling, leaving the quantity unchanged.
func (s *Selection) ChangeQuantity(delta int) error {
	if !s.hasSize {
		return ErrNoSizeSelected
	}

	available := s.Available()
	next := s.quantity + delta
	if next < 1 {
		next = 1
	}
	if next > available {
		return &QuantityLimitError{Available: available}
	}

	s.quantity = next
	return nil
}

// Available returns the stock of the currently selected (color, size) entry.
func (s *Selection) Available() int {
	if !s.hasSize {
		return 0
	}
	entry, ok := s.catalog.Availability(s.colorID, s.size)
	if !ok {
		return 0
	}
	return entry.Quantity
}

// Current returns the selection when it is complete enough to add to a
// cart: a color, a size, and a positive quantity.
func (s *Selection) Current() (colorID int64, size string, quantity int, ok bool) {
	if !s.hasColor || !s.hasSize || s.quantity < 1 {
		return 0, "", 0, false
	}
	return s.colorID, s.size, s.quantity, true
}

// LineItemID resolves the cart identifier of the selected (color, size)
// entry.
func (s *Selection) LineItemID() (int64, bool) {
	if !s.hasSize {
		return 0, false
	}
	entry, ok := s.catalog.Availability(s.colorID, s.size)
	if !ok {
		return 0, false
	}
	return entry.LineItemID, true
}
