package checkout

import "fmt"

// Cart is an ordered set of line items keyed by LineKey. All totals are
// recomputed from the lines on every read; nothing money-shaped is cached
// separately from the items it derives from.
type Cart struct {
	lines []LineItem
	index map[string]int
}

func NewCart() *Cart {
	return &Cart{index: make(map[string]int)}
}

// NewCartFromLines rebuilds a cart from persisted lines, merging any
// duplicate keys the same way Add does.
func NewCartFromLines(lines []LineItem) *Cart {
	c := NewCart()
	for _, line := range lines {
		_ = c.Add(line)
	}
	return c
}

// Add inserts a line or, when the key is already present, increments the
// existing line's quantity by the incoming quantity. The merge applies to
// every entry path into the cart, including order replays.
func (c *Cart) Add(item LineItem) error {
	if item.Quantity < 1 {
		return fmt.Errorf("line quantity must be at least 1, got %d", item.Quantity)
	}
	if item.Key == "" {
		item.Key = LineKey(item.ProductID, item.VariantID)
	}

	if i, ok := c.index[item.Key]; ok {
		c.lines[i].Quantity += item.Quantity
		return nil
	}

	c.index[item.Key] = len(c.lines)
	c.lines = append(c.lines, item)
	return nil
}

// Remove deletes a line. Removing an absent key is a no-op.
func (c *Cart) Remove(key string) bool {
	i, ok := c.index[key]
	if !ok {
		return false
	}

	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	delete(c.index, key)
	for j := i; j < len(c.lines); j++ {
		c.index[c.lines[j].Key] = j
	}
	return true
}

// SetQuantity replaces a line's quantity. Quantities below 1 are rejected
// as a no-op: callers remove the line to go to zero.
func (c *Cart) SetQuantity(key string, quantity int) bool {
	if quantity < 1 {
		return false
	}
	i, ok := c.index[key]
	if !ok {
		return false
	}
	c.lines[i].Quantity = quantity
	return true
}

// Reprice updates a line's unit price after the authoritative price moved.
// The line total follows the new price on the next read.
func (c *Cart) Reprice(key string, unitPrice float64) bool {
	i, ok := c.index[key]
	if !ok {
		return false
	}
	c.lines[i].UnitPrice = unitPrice
	return true
}

func (c *Cart) Get(key string) (LineItem, bool) {
	i, ok := c.index[key]
	if !ok {
		return LineItem{}, false
	}
	return c.lines[i], true
}

// Lines returns a copy of the lines in insertion order.
func (c *Cart) Lines() []LineItem {
	lines := make([]LineItem, len(c.lines))
	copy(lines, c.lines)
	return lines
}

func (c *Cart) Len() int {
	return len(c.lines)
}

// Subtotal sums unit price times quantity over the current lines. It is
// recomputed on every call so it can never drift from the items.
func (c *Cart) Subtotal() float64 {
	var subtotal float64
	for _, line := range c.lines {
		subtotal += line.LineTotal()
	}
	return subtotal
}

// ProductIDs returns the distinct product identifiers in first-appearance
// order; discount eligibility is scoped to this set.
func (c *Cart) ProductIDs() []int64 {
	seen := make(map[int64]bool, len(c.lines))
	ids := make([]int64, 0, len(c.lines))
	for _, line := range c.lines {
		if seen[line.ProductID] {
			continue
		}
		seen[line.ProductID] = true
		ids = append(ids, line.ProductID)
	}
	return ids
}

// Clear empties the cart. Used after a fully successful checkout.
func (c *Cart) Clear() {
	c.lines = nil
	c.index = make(map[string]int)
}
