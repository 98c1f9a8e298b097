package lots

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/captable-backend/internal/domain"
)

// ErrInsufficientQuantity is returned when the lots cannot cover the requested quantity
var ErrInsufficientQuantity = errors.New("active lots do not cover the requested quantity")

// Consumption is the portion of one lot used by a transfer or cancellation
type Consumption struct {
	Share     *domain.Share
	Consumed  decimal.Decimal
	Remainder decimal.Decimal // Positive when the lot is only partially consumed
}

// IsPartial reports whether the lot must be split
func (c Consumption) IsPartial() bool {
	return c.Remainder.GreaterThan(decimal.Zero)
}

// PlanFIFO selects the lots that satisfy quantity, oldest acquisition date first
// Logic:
//  1. Keep ACTIVE lots only, sorted by AcquisitionDate, then CreatedAt (stable)
//  2. Consume whole lots while the outstanding quantity covers them
//  3. The last lot touched may be consumed partially; its unconsumed quantity is the Remainder
//
// Safety: Ensures the consumed quantities add up to exactly the requested quantity
func PlanFIFO(available []*domain.Share, quantity decimal.Decimal) ([]Consumption, error) {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, errors.New("quantity to consume must be positive")
	}

	// Create a copy of the active lots to avoid reordering the caller's slice
	ordered := make([]*domain.Share, 0, len(available))
	total := decimal.Zero
	for _, share := range available {
		if share.IsActive() {
			ordered = append(ordered, share)
			total = total.Add(share.Quantity)
		}
	}

	if total.LessThan(quantity) {
		return nil, fmt.Errorf("%w: available %s, requested %s", ErrInsufficientQuantity, total, quantity)
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].AcquisitionDate.Equal(ordered[j].AcquisitionDate) {
			return ordered[i].AcquisitionDate.Before(ordered[j].AcquisitionDate)
		}
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	plan := make([]Consumption, 0)
	outstanding := quantity
	for _, share := range ordered {
		if outstanding.IsZero() {
			break
		}

		consumed := decimal.Min(share.Quantity, outstanding)
		plan = append(plan, Consumption{
			Share:     share,
			Consumed:  consumed,
			Remainder: share.Quantity.Sub(consumed),
		})
		outstanding = outstanding.Sub(consumed)
	}

	consumedTotal := decimal.Zero
	for _, c := range plan {
		consumedTotal = consumedTotal.Add(c.Consumed)
	}
	if !consumedTotal.Equal(quantity) {
		return nil, errors.New("consumed quantity does not equal requested quantity")
	}

	return plan, nil
}

// Remainder builds the active lot that keeps the unconsumed part of a split lot.
// The remainder inherits acquisition date, price, origin and certificate so FIFO order
// and cost basis are preserved; it records the splitting transaction as its origin event.
func Remainder(c Consumption, transactionID uuid.UUID, at time.Time, createdBy uuid.UUID) *domain.Share {
	if !c.IsPartial() {
		return nil
	}

	parentID := c.Share.ID
	return &domain.Share{
		ID:                uuid.New(),
		CompanyID:         c.Share.CompanyID,
		ShareholderID:     c.Share.ShareholderID,
		ShareClassID:      c.Share.ShareClassID,
		Quantity:          c.Remainder,
		AcquisitionPrice:  c.Share.AcquisitionPrice,
		AcquisitionDate:   c.Share.AcquisitionDate,
		Origin:            c.Share.Origin,
		CertificateNumber: c.Share.CertificateNumber,
		TransactionID:     transactionID,
		ParentShareID:     &parentID,
		Status:            domain.ShareStatusActive,
		CreatedAt:         at,
		CreatedBy:         createdBy,
		UpdatedAt:         at,
	}
}
