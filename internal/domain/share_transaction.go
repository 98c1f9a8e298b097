package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType represents the kind of equity event
type TransactionType string

const (
	TransactionTypeIssue    TransactionType = "ISSUE"
	TransactionTypeTransfer TransactionType = "TRANSFER"
	TransactionTypeCancel   TransactionType = "CANCEL"
)

// ShareTransaction is the append-only audit record of one equity event.
// It is never updated or deleted once created.
type ShareTransaction struct {
	ID                uuid.UUID
	CompanyID         uuid.UUID
	Type              TransactionType
	TransactionNumber string // TXN-<year>-<seq>, sequential per company
	ReferenceDate     time.Time
	ShareClassID      uuid.UUID
	Quantity          decimal.Decimal
	PricePerUnit      decimal.Decimal
	FromShareholderID *uuid.UUID // NULL for ISSUE
	ToShareholderID   *uuid.UUID // NULL for CANCEL
	ShareID           *uuid.UUID // Lot affected by the event
	Reason            string
	Notes             string
	DocumentReference string
	ApprovedBy        *uuid.UUID
	ApprovedAt        *time.Time
	CreatedAt         time.Time
	CreatedBy         uuid.UUID
}

// FormatTransactionNumber renders a company-scoped sequence as TXN-<year>-<seq>
func FormatTransactionNumber(year, seq int) string {
	return fmt.Sprintf("TXN-%d-%04d", year, seq)
}

// TotalValue returns quantity x price per unit
func (t *ShareTransaction) TotalValue() decimal.Decimal {
	return t.Quantity.Mul(t.PricePerUnit)
}

// Delta returns the signed balance change this event applies to a shareholder.
// A transfer to oneself nets to zero.
func (t *ShareTransaction) Delta(shareholderID uuid.UUID) decimal.Decimal {
	delta := decimal.Zero
	if t.ToShareholderID != nil && *t.ToShareholderID == shareholderID {
		delta = delta.Add(t.Quantity)
	}
	if t.FromShareholderID != nil && *t.FromShareholderID == shareholderID {
		delta = delta.Sub(t.Quantity)
	}
	return delta
}

// Validate ensures the transaction adheres to domain rules
// CRITICAL: issue has only "to", cancel has only "from", transfer has both
func (t *ShareTransaction) Validate() error {
	if t.TransactionNumber == "" {
		return NewValidationError("transaction_number", t.TransactionNumber, "transaction number cannot be empty")
	}
	if t.Quantity.LessThanOrEqual(decimal.Zero) {
		return NewValidationError("quantity", t.Quantity, "quantity must be positive")
	}
	if t.PricePerUnit.LessThan(decimal.Zero) {
		return NewValidationError("price_per_unit", t.PricePerUnit, "price per unit cannot be negative")
	}

	switch t.Type {
	case TransactionTypeIssue:
		if t.ToShareholderID == nil || t.FromShareholderID != nil {
			return NewValidationError("shareholders", t.Type, "issue transaction must have only a receiving shareholder")
		}
	case TransactionTypeTransfer:
		if t.ToShareholderID == nil || t.FromShareholderID == nil {
			return NewValidationError("shareholders", t.Type, "transfer transaction must have both sending and receiving shareholders")
		}
	case TransactionTypeCancel:
		if t.FromShareholderID == nil || t.ToShareholderID != nil {
			return NewValidationError("shareholders", t.Type, "cancel transaction must have only a sending shareholder")
		}
		if !t.PricePerUnit.IsZero() {
			return NewValidationError("price_per_unit", t.PricePerUnit, "cancel transaction must have a zero price")
		}
	default:
		return NewValidationError("type", t.Type, "transaction type must be ISSUE, TRANSFER or CANCEL")
	}

	return nil
}
