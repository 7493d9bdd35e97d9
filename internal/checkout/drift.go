package checkout

import (
	"context"
	"math"
)

// PriceTolerance is the absolute price difference below which a line is not
// considered drifted. Exact equality is too strict for decimal prices that
// round-trip through JSON.
const PriceTolerance = 0.01

type DriftStatus string

const (
	// DriftUnchanged means every line matches the authoritative price and
	// submission may proceed.
	DriftUnchanged DriftStatus = "unchanged"
	// DriftChanged means at least one price moved; the updated lines require
	// explicit confirmation before resubmission.
	DriftChanged DriftStatus = "changed"
	// DriftUnresolvable means a referenced product vanished or could not be
	// fetched. This is fatal to the checkout attempt, not skippable.
	DriftUnresolvable DriftStatus = "unresolvable"
)

// DriftChange describes one repriced line.
type DriftChange struct {
	Key          string  `json:"key"`
	ProductID    int64   `json:"product_id"`
	OldPrice     float64 `json:"old_price"`
	NewPrice     float64 `json:"new_price"`
	Quantity     int     `json:"quantity"`
	NewLineTotal float64 `json:"new_line_total"`
}

// DriftFailure describes a product that could not be re-fetched.
type DriftFailure struct {
	ProductID int64  `json:"product_id"`
	Reason    string `json:"reason"`
}

type DriftResult struct {
	Status   DriftStatus    `json:"status"`
	Changes  []DriftChange  `json:"changes,omitempty"`
	Failures []DriftFailure `json:"failures,omitempty"`
}

// DriftChecker compares cached cart prices against the authoritative
// product records immediately before submission.
type DriftChecker struct {
	products ProductLookup
}

func NewDriftChecker(products ProductLookup) *DriftChecker {
	return &DriftChecker{products: products}
}

// Check re-fetches every distinct product in the lines and reports a
// structured diff. It never overwrites the cart itself; applying the new
// prices is the caller's decision after user confirmation. Check must run
// before every submission attempt, including retries after a confirmation:
// stock and prices can move again between confirmation and submission.
func (d *DriftChecker) Check(ctx context.Context, lines []LineItem) (*DriftResult, error) {
	result := &DriftResult{Status: DriftUnchanged}

	infos := make(map[int64]*ProductInfo)
	for _, id := range distinctProductIDs(lines) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		info, err := d.products.LookupProduct(ctx, id)
		if err != nil {
			result.Failures = append(result.Failures, DriftFailure{
				ProductID: id,
				Reason:    err.Error(),
			})
			continue
		}
		infos[id] = info
	}

	for _, line := range lines {
		info, ok := infos[line.ProductID]
		if !ok {
			continue
		}
		current := info.EffectivePrice()
		if math.Abs(current-line.UnitPrice) <= PriceTolerance {
			continue
		}
		result.Changes = append(result.Changes, DriftChange{
			Key:          line.Key,
			ProductID:    line.ProductID,
			OldPrice:     line.UnitPrice,
			NewPrice:     current,
			Quantity:     line.Quantity,
			NewLineTotal: current * float64(line.Quantity),
		})
	}

	switch {
	case len(result.Failures) > 0:
		result.Status = DriftUnresolvable
	case len(result.Changes) > 0:
		result.Status = DriftChanged
	}
	return result, nil
}

func distinctProductIDs(lines []LineItem) []int64 {
	seen := make(map[int64]bool, len(lines))
	ids := make([]int64, 0, len(lines))
	for _, line := range lines {
		if seen[line.ProductID] {
			continue
		}
		seen[line.ProductID] = true
		ids = append(ids, line.ProductID)
	}
	return ids
}
