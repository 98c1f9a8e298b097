package allocator

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Precision is the number of decimal places every part is truncated to
// before the remainder is assigned
const Precision = 8

// ProRata splits a total across parts in proportion to their weights
// Returns one amount per weight, in input order
// Logic:
//  1. Each part gets total x weight / sum(weights), truncated to Precision places
//  2. The last part with a positive weight absorbs what truncation left over
//
// Safety: Ensures the parts sum to the total exactly (no fraction of a share lost)
func ProRata(total decimal.Decimal, weights []decimal.Decimal) ([]decimal.Decimal, error) {
	if total.LessThan(decimal.Zero) {
		return nil, errors.New("total cannot be negative")
	}

	if len(weights) == 0 {
		return nil, errors.New("weights list cannot be empty")
	}

	weightSum := decimal.Zero
	last := -1
	for i, w := range weights {
		if w.LessThan(decimal.Zero) {
			return nil, errors.New("weights cannot be negative")
		}
		if w.GreaterThan(decimal.Zero) {
			last = i
		}
		weightSum = weightSum.Add(w)
	}
	if last < 0 {
		return nil, errors.New("at least one weight must be positive")
	}

	parts := make([]decimal.Decimal, len(weights))
	allocated := decimal.Zero
	for i, w := range weights {
		if i == last || w.IsZero() {
			parts[i] = decimal.Zero
			continue
		}
		parts[i] = total.Mul(w).Div(weightSum).Truncate(Precision)
		allocated = allocated.Add(parts[i])
	}

	// Assign the leftover to the last weighted part
	parts[last] = total.Sub(allocated)

	// Safety check: Ensure the parts sum to the total exactly
	sum := decimal.Zero
	for _, p := range parts {
		sum = sum.Add(p)
	}
	if !sum.Equal(total) {
		return nil, errors.New("allocation does not equal total")
	}

	return parts, nil
}
