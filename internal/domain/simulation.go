package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvestorAllocation is the projected position of one incoming investor
type InvestorAllocation struct {
	Name                string
	ShareholderID       *uuid.UUID // Set when the investor already exists in the directory
	InvestmentAmount    decimal.Decimal
	Shares              decimal.Decimal
	OwnershipPercentage decimal.Decimal
}

// OptionPoolAllocation is the projected option pool of a round
type OptionPoolAllocation struct {
	Name                string
	TargetPercentage    decimal.Decimal
	IsPreMoney          bool
	Shares              decimal.Decimal
	OwnershipPercentage decimal.Decimal
}

// RoundSimulationResult is the projection of a financing round onto a company's cap table.
// It is never persisted and never mutates the ledger.
type RoundSimulationResult struct {
	CompanyID               uuid.UUID
	PreMoneyValuation       decimal.Decimal
	InvestmentAmount        decimal.Decimal
	PostMoneyValuation      decimal.Decimal
	PricePerShare           decimal.Decimal
	SharesBefore            decimal.Decimal
	NewShares               decimal.Decimal
	SharesAfter             decimal.Decimal
	TotalDilutionPercentage decimal.Decimal
	UsedBaselineShares      bool // Company had no recorded shares
	CapTableBefore          []CapTableEntry
	CapTableAfter           []CapTableEntry
	NewInvestors            []InvestorAllocation
	OptionPool              *OptionPoolAllocation
}
