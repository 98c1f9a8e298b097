package simulation

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/captable-backend/internal/domain"
	"github.com/simaogato/captable-backend/internal/usecase/captable"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestPrice(t *testing.T) {
	tests := []struct {
		name          string
		recorded      string
		round         Round
		wantPrice     string
		wantNewShares string // rounded to 2 places
		wantPool      string // rounded to 0 places
		wantDilution  string // rounded to 2 places
		wantBaseline  bool
	}{
		{
			name:          "standard round",
			recorded:      "1000000",
			round:         Round{PreMoneyValuation: d("9000000"), InvestmentAmount: d("1000000")},
			wantPrice:     "9",
			wantNewShares: "111111.11",
			wantPool:      "0",
			wantDilution:  "10",
		},
		{
			name:     "pre-money option pool",
			recorded: "1000000",
			round: Round{PreMoneyValuation: d("9000000"), InvestmentAmount: d("1000000"),
				IncludeOptionPool: true, OptionPoolPercentage: d("10"), OptionPoolIsPreMoney: true},
			wantPrice:     "9",
			wantNewShares: "111111.11",
			wantPool:      "123457",
			wantDilution:  "19",
		},
		{
			name:     "post-money option pool",
			recorded: "1000000",
			round: Round{PreMoneyValuation: d("9000000"), InvestmentAmount: d("1000000"),
				IncludeOptionPool: true, OptionPoolPercentage: d("10")},
			wantPrice:     "9",
			wantNewShares: "111111.11",
			wantPool:      "111111",
			wantDilution:  "18.18",
		},
		{
			name:     "pool flag without percentage is ignored",
			recorded: "1000000",
			round: Round{PreMoneyValuation: d("9000000"), InvestmentAmount: d("1000000"),
				IncludeOptionPool: true, OptionPoolPercentage: decimal.Zero},
			wantPrice:     "9",
			wantNewShares: "111111.11",
			wantPool:      "0",
			wantDilution:  "10",
		},
		{
			name:          "company without shares uses the baseline",
			recorded:      "0",
			round:         Round{PreMoneyValuation: d("4000000"), InvestmentAmount: d("1000000")},
			wantPrice:     "4",
			wantNewShares: "250000",
			wantPool:      "0",
			wantDilution:  "20",
			wantBaseline:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Price(d(tt.recorded), tt.round, DefaultOptions())

			assert.Equal(t, tt.wantPrice, p.PricePerShare.String())
			assert.Equal(t, tt.wantNewShares, p.NewShares.Round(2).String())
			assert.Equal(t, tt.wantPool, p.PoolShares.Round(0).String())
			assert.Equal(t, tt.wantDilution, p.TotalDilution.Round(2).String())
			assert.Equal(t, tt.wantBaseline, p.UsedBaseline)
			assert.True(t, p.PostMoneyValuation.Equal(tt.round.PreMoneyValuation.Add(tt.round.InvestmentAmount)))
			assert.True(t, p.SharesAfter.Equal(p.SharesBefore.Add(p.NewShares).Add(p.PoolShares)))
		})
	}
}

func TestPrice_CustomBaseline(t *testing.T) {
	opts := DefaultOptions()
	opts.BaselineShares = decimal.NewFromInt(10_000)

	p := Price(decimal.Zero, Round{PreMoneyValuation: d("100000"), InvestmentAmount: d("25000")}, opts)

	assert.Equal(t, "10", p.PricePerShare.String())
	assert.Equal(t, "2500", p.NewShares.String())
}

func positions() []captable.Position {
	on := &domain.ShareClass{ID: uuid.New(), Code: "ON", Name: "Ordinária", HasVotingRights: true, VotesPerShare: decimal.NewFromInt(1)}
	return []captable.Position{
		{
			Shareholder: &domain.Shareholder{ID: uuid.New(), Name: "Ana", Type: domain.ShareholderTypeFounder},
			ShareClass:  on,
			Shares:      d("600000"),
			CostBasis:   d("600"),
		},
		{
			Shareholder: &domain.Shareholder{ID: uuid.New(), Name: "Bruno", Type: domain.ShareholderTypeFounder},
			ShareClass:  on,
			Shares:      d("400000"),
			CostBasis:   d("400"),
		},
	}
}

func TestProject_GenericInvestor(t *testing.T) {
	companyID := uuid.New()
	round := Round{PreMoneyValuation: d("9000000"), InvestmentAmount: d("1000000")}

	result := Project(companyID, positions(), d("1000000"), round, DefaultOptions())

	assert.Equal(t, companyID, result.CompanyID)
	assert.Equal(t, "10000000", result.PostMoneyValuation.String())
	assert.Equal(t, "10", result.TotalDilutionPercentage.String())
	assert.Nil(t, result.OptionPool)

	require.Len(t, result.CapTableBefore, 2)
	assert.Equal(t, "Ana", result.CapTableBefore[0].ShareholderName)
	assert.Equal(t, "60", result.CapTableBefore[0].OwnershipPercentage.String())
	// Before values use the round price, not the cost basis
	assert.Equal(t, "5400000", result.CapTableBefore[0].Value.String())

	require.Len(t, result.NewInvestors, 1)
	assert.Equal(t, DefaultInvestorName, result.NewInvestors[0].Name)
	assert.Equal(t, "10", result.NewInvestors[0].OwnershipPercentage.String())

	require.Len(t, result.CapTableAfter, 3)
	ana := result.CapTableAfter[0]
	assert.Equal(t, "Ana", ana.ShareholderName)
	assert.Equal(t, "54", ana.OwnershipPercentage.String())
	assert.Equal(t, "6", ana.DilutionDelta.String())
	assert.False(t, ana.IsSynthetic)

	bruno := result.CapTableAfter[1]
	assert.Equal(t, "36", bruno.OwnershipPercentage.String())
	assert.Equal(t, "4", bruno.DilutionDelta.String())

	investor := result.CapTableAfter[2]
	assert.True(t, investor.IsSynthetic)
	assert.Equal(t, domain.ShareholderTypeInvestor, investor.ShareholderType)
	assert.Equal(t, "10", investor.OwnershipPercentage.String())
	assert.Equal(t, "10", investor.VotingPercentage.String())
}

func TestProject_InvestorsAndPool(t *testing.T) {
	existing := uuid.New()
	round := Round{
		PreMoneyValuation: d("9000000"),
		InvestmentAmount:  d("1000000"),
		NewInvestors: []NewInvestor{
			{Name: "Fundo A", InvestmentAmount: d("750000")},
			{ShareholderID: &existing, InvestmentAmount: d("250000")},
		},
		IncludeOptionPool:    true,
		OptionPoolPercentage: d("10"),
		OptionPoolIsPreMoney: true,
	}

	result := Project(uuid.New(), positions(), d("1000000"), round, DefaultOptions())

	require.NotNil(t, result.OptionPool)
	assert.Equal(t, DefaultOptionPoolName, result.OptionPool.Name)
	assert.Equal(t, "10", result.OptionPool.OwnershipPercentage.String())
	assert.True(t, result.OptionPool.IsPreMoney)

	require.Len(t, result.NewInvestors, 2)
	assert.Equal(t, "Fundo A", result.NewInvestors[0].Name)
	assert.Equal(t, "83333.33", result.NewInvestors[0].Shares.Round(2).String())
	assert.Equal(t, DefaultInvestorName, result.NewInvestors[1].Name)
	assert.Equal(t, existing, *result.NewInvestors[1].ShareholderID)

	require.Len(t, result.CapTableAfter, 5)
	for i := 1; i < len(result.CapTableAfter); i++ {
		assert.True(t, result.CapTableAfter[i-1].Shares.GreaterThanOrEqual(result.CapTableAfter[i].Shares))
	}

	total := decimal.Zero
	for _, e := range result.CapTableAfter {
		total = total.Add(e.Shares)
	}
	assert.Equal(t, result.SharesAfter.Round(6).String(), total.Round(6).String())

	var pool *domain.CapTableEntry
	for i := range result.CapTableAfter {
		if result.CapTableAfter[i].ShareholderType == domain.ShareholderTypeESOP {
			pool = &result.CapTableAfter[i]
		}
	}
	require.NotNil(t, pool)
	assert.True(t, pool.VotingPercentage.IsZero())
}

func TestProject_EmptyCompany(t *testing.T) {
	round := Round{PreMoneyValuation: d("1000000"), InvestmentAmount: d("250000")}

	result := Project(uuid.New(), nil, decimal.Zero, round, DefaultOptions())

	assert.True(t, result.UsedBaselineShares)
	assert.Empty(t, result.CapTableBefore)
	require.Len(t, result.CapTableAfter, 1)
	assert.Equal(t, "20", result.CapTableAfter[0].OwnershipPercentage.String())
}

func TestProject_InvestorSharesSumToNewShares(t *testing.T) {
	round := Round{
		PreMoneyValuation: d("7000000"),
		InvestmentAmount:  d("1000000"),
		NewInvestors: []NewInvestor{
			{Name: "A", InvestmentAmount: d("333333")},
			{Name: "B", InvestmentAmount: d("333333")},
			{Name: "C", InvestmentAmount: d("333334")},
		},
	}

	result := Project(uuid.New(), positions(), d("1000000"), round, DefaultOptions())

	sum := decimal.Zero
	for _, inv := range result.NewInvestors {
		sum = sum.Add(inv.Shares)
	}
	assert.True(t, sum.Equal(result.NewShares), "investors %s, new shares %s", sum, result.NewShares)
}
