package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ShareOrigin represents how a share lot came into existence
type ShareOrigin string

const (
	ShareOriginIssue      ShareOrigin = "ISSUE"
	ShareOriginTransfer   ShareOrigin = "TRANSFER"
	ShareOriginConversion ShareOrigin = "CONVERSION"
)

// ShareStatus represents the lifecycle state of a share lot.
// ACTIVE is the only mutable state: TRANSFERRED and CANCELLED are terminal.
type ShareStatus string

const (
	ShareStatusActive      ShareStatus = "ACTIVE"
	ShareStatusTransferred ShareStatus = "TRANSFERRED"
	ShareStatusCancelled   ShareStatus = "CANCELLED"
)

// ErrShareNotActive is returned when a terminal lot is asked to change state
var ErrShareNotActive = errors.New("share lot is not active")

// Share represents a lot of shares held by one shareholder in one class,
// acquired at one time and price.
type Share struct {
	ID                uuid.UUID
	CompanyID         uuid.UUID
	ShareholderID     uuid.UUID
	ShareClassID      uuid.UUID
	Quantity          decimal.Decimal
	AcquisitionPrice  decimal.Decimal // Per unit
	AcquisitionDate   time.Time
	Origin            ShareOrigin
	CertificateNumber string
	TransactionID     uuid.UUID  // Transaction that created this lot record
	ParentShareID     *uuid.UUID // Set on remainder lots produced by a partial consumption
	Status            ShareStatus
	CreatedAt         time.Time
	CreatedBy         uuid.UUID
	UpdatedAt         time.Time
}

// TotalCost returns quantity x acquisition price
func (s *Share) TotalCost() decimal.Decimal {
	return s.Quantity.Mul(s.AcquisitionPrice)
}

// IsActive reports whether the lot counts towards balances
func (s *Share) IsActive() bool {
	return s.Status == ShareStatusActive
}

// MarkTransferred moves an active lot to TRANSFERRED
func (s *Share) MarkTransferred(at time.Time) error {
	return s.transition(ShareStatusTransferred, at)
}

// MarkCancelled moves an active lot to CANCELLED
func (s *Share) MarkCancelled(at time.Time) error {
	return s.transition(ShareStatusCancelled, at)
}

func (s *Share) transition(to ShareStatus, at time.Time) error {
	if !s.IsActive() {
		return ErrShareNotActive
	}
	s.Status = to
	s.UpdatedAt = at
	return nil
}

// Validate ensures the share lot adheres to domain rules at creation
func (s *Share) Validate() error {
	if s.Quantity.LessThanOrEqual(decimal.Zero) {
		return NewValidationError("quantity", s.Quantity, "share quantity must be positive")
	}
	if s.AcquisitionPrice.LessThan(decimal.Zero) {
		return NewValidationError("acquisition_price", s.AcquisitionPrice, "acquisition price cannot be negative")
	}
	if s.TransactionID == uuid.Nil {
		return NewValidationError("transaction_id", s.TransactionID, "share lot must reference its originating transaction")
	}

	switch s.Origin {
	case ShareOriginIssue, ShareOriginTransfer, ShareOriginConversion:
	default:
		return NewValidationError("origin", s.Origin, "share origin must be ISSUE, TRANSFER or CONVERSION")
	}

	switch s.Status {
	case ShareStatusActive, ShareStatusTransferred, ShareStatusCancelled:
	default:
		return NewValidationError("status", s.Status, "share status must be ACTIVE, TRANSFERRED or CANCELLED")
	}

	return nil
}
