package simulation

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/captable-backend/internal/domain"
	"github.com/simaogato/captable-backend/internal/usecase/allocator"
	"github.com/simaogato/captable-backend/internal/usecase/captable"
)

// DefaultBaselineShares stands in for the share count of a company with no recorded shares
var DefaultBaselineShares = decimal.NewFromInt(1_000_000)

const (
	DefaultInvestorName   = "Novo Investidor"
	DefaultOptionPoolName = "Pool de Opções"
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// Options tunes the conventions of the simulation engine
type Options struct {
	BaselineShares      decimal.Decimal
	DefaultInvestorName string
	OptionPoolName      string
}

// DefaultOptions returns the engine's conventional settings
func DefaultOptions() Options {
	return Options{
		BaselineShares:      DefaultBaselineShares,
		DefaultInvestorName: DefaultInvestorName,
		OptionPoolName:      DefaultOptionPoolName,
	}
}

func (o Options) withDefaults() Options {
	if o.BaselineShares.LessThanOrEqual(decimal.Zero) {
		o.BaselineShares = DefaultBaselineShares
	}
	if o.DefaultInvestorName == "" {
		o.DefaultInvestorName = DefaultInvestorName
	}
	if o.OptionPoolName == "" {
		o.OptionPoolName = DefaultOptionPoolName
	}
	return o
}

// NewInvestor is one proposed participant of a round
type NewInvestor struct {
	Name             string
	ShareholderID    *uuid.UUID
	InvestmentAmount decimal.Decimal
}

// Round holds the validated parameters of a financing round
type Round struct {
	PreMoneyValuation    decimal.Decimal
	InvestmentAmount     decimal.Decimal
	NewInvestors         []NewInvestor // Empty means one generic investor for the whole amount
	IncludeOptionPool    bool
	OptionPoolPercentage decimal.Decimal
	OptionPoolIsPreMoney bool
}

// Pricing is the share math of a round, unrounded
type Pricing struct {
	SharesBefore       decimal.Decimal
	UsedBaseline       bool
	PricePerShare      decimal.Decimal
	PostMoneyValuation decimal.Decimal
	NewShares          decimal.Decimal
	PoolShares         decimal.Decimal
	SharesAfter        decimal.Decimal
	TotalDilution      decimal.Decimal
}

// Price derives price per share, new shares, option pool and dilution from the current share count
// Logic (order matters):
//  1. sharesBefore = recorded shares, or the baseline when none are recorded
//  2. pricePerShare = preMoney / sharesBefore
//  3. postMoney = preMoney + investment
//  4. newShares = investment / pricePerShare
//  5. sharesAfter = sharesBefore + newShares
//  6. Option pool with p = percentage / 100:
//     pre-money: (p / (1 - p)) x (sharesBefore + newShares); post-money: (sharesBefore + newShares) x p
//  7. totalDilution = (1 - sharesBefore / sharesAfter) x 100
func Price(recordedShares decimal.Decimal, round Round, opts Options) Pricing {
	opts = opts.withDefaults()

	p := Pricing{SharesBefore: recordedShares, PoolShares: decimal.Zero}
	if p.SharesBefore.LessThanOrEqual(decimal.Zero) {
		p.SharesBefore = opts.BaselineShares
		p.UsedBaseline = true
	}

	p.PricePerShare = round.PreMoneyValuation.Div(p.SharesBefore)
	p.PostMoneyValuation = round.PreMoneyValuation.Add(round.InvestmentAmount)
	p.NewShares = round.InvestmentAmount.Div(p.PricePerShare)
	p.SharesAfter = p.SharesBefore.Add(p.NewShares)

	if round.IncludeOptionPool && round.OptionPoolPercentage.GreaterThan(decimal.Zero) {
		fraction := round.OptionPoolPercentage.Div(hundred)
		base := p.SharesBefore.Add(p.NewShares)
		if round.OptionPoolIsPreMoney {
			p.PoolShares = fraction.Div(one.Sub(fraction)).Mul(base)
		} else {
			p.PoolShares = base.Mul(fraction)
		}
		p.SharesAfter = p.SharesAfter.Add(p.PoolShares)
	}

	p.TotalDilution = one.Sub(p.SharesBefore.Div(p.SharesAfter)).Mul(hundred)
	return p
}

// Project applies a round to the current positions and builds the projected result
// Logic:
//   - Before table: current positions valued at the round price
//   - After table: every position rescaled to sharesAfter with its dilution delta,
//     plus one synthetic entry per new investor and one for the option pool
//   - New shares are split among investors pro rata to their amounts and sum to NewShares exactly
//   - Both tables sorted descending by ownership
//
// New shares are assumed to carry one vote each; the option pool is unissued and does not vote.
func Project(companyID uuid.UUID, positions []captable.Position, recordedShares decimal.Decimal, round Round, opts Options) *domain.RoundSimulationResult {
	opts = opts.withDefaults()
	pricing := Price(recordedShares, round, opts)

	investors := round.NewInvestors
	if len(investors) == 0 {
		investors = []NewInvestor{{Name: opts.DefaultInvestorName, InvestmentAmount: round.InvestmentAmount}}
	}

	votesBefore := captable.TotalVotes(positions)
	votesAfter := votesBefore.Add(pricing.NewShares)

	result := &domain.RoundSimulationResult{
		CompanyID:               companyID,
		PreMoneyValuation:       round.PreMoneyValuation,
		InvestmentAmount:        round.InvestmentAmount,
		PostMoneyValuation:      pricing.PostMoneyValuation,
		PricePerShare:           pricing.PricePerShare,
		SharesBefore:            pricing.SharesBefore,
		NewShares:               pricing.NewShares,
		SharesAfter:             pricing.SharesAfter,
		TotalDilutionPercentage: pricing.TotalDilution.Round(captable.PercentagePlaces),
		UsedBaselineShares:      pricing.UsedBaseline,
		CapTableBefore:          make([]domain.CapTableEntry, 0, len(positions)),
		CapTableAfter:           make([]domain.CapTableEntry, 0, len(positions)+len(investors)+1),
		NewInvestors:            make([]domain.InvestorAllocation, 0, len(investors)),
	}

	for _, pos := range positions {
		value := pos.Shares.Mul(pricing.PricePerShare)
		before := captable.Entry(pos, value, recordedShares, votesBefore)
		result.CapTableBefore = append(result.CapTableBefore, before)

		ownershipBefore := captable.Percentage(pos.Shares, recordedShares)
		ownershipAfter := captable.Percentage(pos.Shares, pricing.SharesAfter)
		after := captable.Entry(pos, value, pricing.SharesAfter, votesAfter)
		after.DilutionDelta = ownershipBefore.Sub(ownershipAfter).Round(captable.PercentagePlaces)
		result.CapTableAfter = append(result.CapTableAfter, after)
	}

	amounts := make([]decimal.Decimal, len(investors))
	for i, investor := range investors {
		amounts[i] = investor.InvestmentAmount
	}
	allocated, err := allocator.ProRata(pricing.NewShares, amounts)
	if err != nil {
		// Unreachable for validated rounds; fall back to pricing each investor alone
		allocated = make([]decimal.Decimal, len(investors))
		for i, investor := range investors {
			allocated[i] = investor.InvestmentAmount.Div(pricing.PricePerShare)
		}
	}

	for i, investor := range investors {
		name := investor.Name
		if name == "" {
			name = opts.DefaultInvestorName
		}
		shares := allocated[i]
		ownership := captable.Percentage(shares, pricing.SharesAfter).Round(captable.PercentagePlaces)

		result.NewInvestors = append(result.NewInvestors, domain.InvestorAllocation{
			Name:                name,
			ShareholderID:       investor.ShareholderID,
			InvestmentAmount:    investor.InvestmentAmount,
			Shares:              shares,
			OwnershipPercentage: ownership,
		})

		holderID := uuid.Nil
		if investor.ShareholderID != nil {
			holderID = *investor.ShareholderID
		}
		result.CapTableAfter = append(result.CapTableAfter, domain.CapTableEntry{
			ShareholderID:          holderID,
			ShareholderName:        name,
			ShareholderType:        domain.ShareholderTypeInvestor,
			Shares:                 shares,
			Value:                  investor.InvestmentAmount,
			OwnershipPercentage:    ownership,
			VotingPercentage:       captable.Percentage(shares, votesAfter).Round(captable.PercentagePlaces),
			FullyDilutedPercentage: ownership,
			DilutionDelta:          decimal.Zero,
			IsSynthetic:            true,
		})
	}

	if pricing.PoolShares.GreaterThan(decimal.Zero) {
		ownership := captable.Percentage(pricing.PoolShares, pricing.SharesAfter).Round(captable.PercentagePlaces)
		result.OptionPool = &domain.OptionPoolAllocation{
			Name:                opts.OptionPoolName,
			TargetPercentage:    round.OptionPoolPercentage,
			IsPreMoney:          round.OptionPoolIsPreMoney,
			Shares:              pricing.PoolShares,
			OwnershipPercentage: ownership,
		}
		result.CapTableAfter = append(result.CapTableAfter, domain.CapTableEntry{
			ShareholderName:        opts.OptionPoolName,
			ShareholderType:        domain.ShareholderTypeESOP,
			Shares:                 pricing.PoolShares,
			Value:                  pricing.PoolShares.Mul(pricing.PricePerShare),
			OwnershipPercentage:    ownership,
			VotingPercentage:       decimal.Zero,
			FullyDilutedPercentage: ownership,
			DilutionDelta:          decimal.Zero,
			IsSynthetic:            true,
		})
	}

	sortByOwnership(result.CapTableBefore)
	sortByOwnership(result.CapTableAfter)
	return result
}

// sortByOwnership orders entries descending by shares, which within one table
// is the same as descending ownership but free of rounding ties
func sortByOwnership(entries []domain.CapTableEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].Shares.Equal(entries[j].Shares) {
			return entries[i].Shares.GreaterThan(entries[j].Shares)
		}
		return entries[i].ShareholderName < entries[j].ShareholderName
	})
}
