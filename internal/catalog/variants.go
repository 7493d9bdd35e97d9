package catalog

// Package catalog normalizes product variant payloads into a
// color -> size -> stock structure used by product pages and checkout.

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// RawVariant is the wire shape of one color variant as returned by the
// product lookup service (and as stored in the seed catalog file).
type RawVariant struct {
	ColorID   int64     `json:"color_id" yaml:"color_id"`
	ColorName string    `json:"color_name" yaml:"color_name"`
	Image     string    `json:"image" yaml:"image"`
	Sizes     []RawSize `json:"sizes" yaml:"sizes"`
}

type RawSize struct {
	Size       string  `json:"size" yaml:"size"`
	Quantity   int     `json:"quantity" yaml:"quantity"`
	LineItemID int64   `json:"line_item_id" yaml:"line_item_id"`
	Price      float64 `json:"price,omitempty" yaml:"price,omitempty"`
}

// SizeEntry is one selectable size under a color.
type SizeEntry struct {
	Size       string
	Quantity   int
	LineItemID int64
}

// Color annotates a distinct color with whether any of its sizes has stock.
// Out-of-stock colors are still listed so the page can render them as
// unselectable.
type Color struct {
	ID      int64
	Name    string
	Image   string
	InStock bool
}

// Catalog is the normalized variant set of a single product. A product with
// no variants yields an empty catalog and is treated as non-variable.
type Catalog struct {
	order   []int64
	byColor map[int64]*variant
}

type variant struct {
	color Color
	sizes []SizeEntry
}

// ParseVariantPayload decodes a variant payload. Some product records carry
// the variant list double-encoded as a JSON string; that legacy form is
// unwrapped here so callers never re-parse it downstream.
func ParseVariantPayload(data []byte) ([]RawVariant, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}

	if strings.HasPrefix(trimmed, "\"") {
		var inner string
		if err := json.Unmarshal([]byte(trimmed), &inner); err != nil {
			return nil, fmt.Errorf("failed to unwrap serialized variant payload: %w", err)
		}
		trimmed = strings.TrimSpace(inner)
		if trimmed == "" {
			return nil, nil
		}
	}

	var raw []RawVariant
	if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse variant payload: %w", err)
	}
	return raw, nil
}

// NewCatalog normalizes raw variants. Duplicate color IDs keep the first
// occurrence; duplicate sizes within a color keep the first occurrence.
func NewCatalog(raw []RawVariant) *Catalog {
	c := &Catalog{
		byColor: make(map[int64]*variant, len(raw)),
	}

	for _, rv := range raw {
		if _, exists := c.byColor[rv.ColorID]; exists {
			continue
		}

		v := &variant{
			color: Color{
				ID:    rv.ColorID,
				Name:  rv.ColorName,
				Image: rv.Image,
			},
		}
		seen := make(map[string]bool, len(rv.Sizes))
		for _, rs := range rv.Sizes {
			if seen[rs.Size] {
				continue
			}
			seen[rs.Size] = true
			if rs.Quantity < 0 {
				rs.Quantity = 0
			}
			v.sizes = append(v.sizes, SizeEntry{
				Size:       rs.Size,
				Quantity:   rs.Quantity,
				LineItemID: rs.LineItemID,
			})
			if rs.Quantity > 0 {
				v.color.InStock = true
			}
		}

		c.order = append(c.order, rv.ColorID)
		c.byColor[rv.ColorID] = v
	}

	return c
}

// Empty reports whether the product has no variants (non-variable product).
func (c *Catalog) Empty() bool {
	return c == nil || len(c.order) == 0
}

// Colors returns the distinct colors in source order.
func (c *Catalog) Colors() []Color {
	if c == nil {
		return nil
	}
	colors := make([]Color, 0, len(c.order))
	for _, id := range c.order {
		colors = append(colors, c.byColor[id].color)
	}
	return colors
}

// SizesFor returns the sizes of a color sorted by SortSizes. An unknown
// color yields no sizes rather than an error: the color list and the size
// map come from the same payload, and a desync should degrade, not crash.
func (c *Catalog) SizesFor(colorID int64) []SizeEntry {
	if c == nil {
		return nil
	}
	v, ok := c.byColor[colorID]
	if !ok {
		return nil
	}
	sizes := make([]SizeEntry, len(v.sizes))
	copy(sizes, v.sizes)
	SortSizes(sizes)
	return sizes
}

// FirstInStockSize returns the first size with stock under a color, in the
// SizesFor order.
func (c *Catalog) FirstInStockSize(colorID int64) (SizeEntry, bool) {
	for _, entry := range c.SizesFor(colorID) {
		if entry.Quantity > 0 {
			return entry, true
		}
	}
	return SizeEntry{}, false
}

// Availability looks up a specific (color, size) entry.
func (c *Catalog) Availability(colorID int64, size string) (SizeEntry, bool) {
	if c == nil {
		return SizeEntry{}, false
	}
	v, ok := c.byColor[colorID]
	if !ok {
		return SizeEntry{}, false
	}
	for _, entry := range v.sizes {
		if entry.Size == size {
			return entry, true
		}
	}
	return SizeEntry{}, false
}

// Variant resolves a line item id back to its color and size entry.
func (c *Catalog) Variant(lineItemID int64) (Color, SizeEntry, bool) {
	if c == nil {
		return Color{}, SizeEntry{}, false
	}
	for _, id := range c.order {
		v := c.byColor[id]
		for _, entry := range v.sizes {
			if entry.LineItemID == lineItemID {
				return v.color, entry, true
			}
		}
	}
	return Color{}, SizeEntry{}, false
}

// SortSizes orders sizes ascending by the numeric value of the label.
// Labels that do not parse numerically sort after the numeric ones and keep
// their original relative order. Do not "fix" this to a lexicographic or
// locale-aware sort without a product decision; screens disagree on the
// intended order for non-numeric labels.
func SortSizes(entries []SizeEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		vi, oki := parseSizeLabel(entries[i].Size)
		vj, okj := parseSizeLabel(entries[j].Size)
		if oki && okj {
			return vi < vj
		}
		return oki && !okj
	})
}

func parseSizeLabel(label string) (float64, bool) {
	value, err := strconv.ParseFloat(strings.TrimSpace(label), 64)
	if err != nil {
		return 0, false
	}
	return value, true
}
