package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CapTableEntry is one (shareholder, share class) aggregate of active lots.
// Derived on every request, never persisted.
type CapTableEntry struct {
	ShareholderID          uuid.UUID
	ShareholderName        string
	ShareholderType        ShareholderType
	ShareClassID           uuid.UUID
	ShareClassName         string
	ShareClassCode         string
	Shares                 decimal.Decimal
	Value                  decimal.Decimal // Cost basis, or projected value in a simulation
	OwnershipPercentage    decimal.Decimal // Rounded to 2 decimal places
	VotingPercentage       decimal.Decimal
	FullyDilutedPercentage decimal.Decimal
	DilutionDelta          decimal.Decimal // Before % - after %, only set on simulated "after" entries
	IsSynthetic            bool            // New investor or option pool line of a simulation
}

// ShareholderTypeSummary folds entries by holder type
type ShareholderTypeSummary struct {
	Type                ShareholderType
	ShareholderCount    int
	TotalShares         decimal.Decimal
	OwnershipPercentage decimal.Decimal
}

// ShareClassSummary folds entries by share class
type ShareClassSummary struct {
	ShareClassID        uuid.UUID
	ShareClassName      string
	ShareClassCode      string
	TotalShares         decimal.Decimal
	TotalValue          decimal.Decimal
	OwnershipPercentage decimal.Decimal
}

// CapTable is the current-state ownership view of a company
type CapTable struct {
	CompanyID         uuid.UUID
	TotalShares       decimal.Decimal
	TotalValue        decimal.Decimal
	Entries           []CapTableEntry
	ByShareholderType []ShareholderTypeSummary
	ByShareClass      []ShareClassSummary
	GeneratedAt       time.Time
}
