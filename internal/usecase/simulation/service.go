package simulation

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/simaogato/captable-backend/internal/domain"
	"github.com/simaogato/captable-backend/internal/usecase/captable"
)

// SimulationService is the Round Simulation Engine.
// It only reads the ledger; results are never persisted.
type SimulationService struct {
	CompanyRepo domain.CompanyRepository
	ShareRepo   domain.ShareRepository
	CapTable    *captable.CapTableService
	Options     Options
	Logger      zerolog.Logger
}

// NewSimulationService creates a new SimulationService instance
func NewSimulationService(
	companyRepo domain.CompanyRepository,
	shareRepo domain.ShareRepository,
	capTable *captable.CapTableService,
	opts Options,
) *SimulationService {
	return &SimulationService{
		CompanyRepo: companyRepo,
		ShareRepo:   shareRepo,
		CapTable:    capTable,
		Options:     opts.withDefaults(),
		Logger:      zerolog.Nop(),
	}
}

// SimulateRoundInput represents the input for projecting a financing round
type SimulateRoundInput struct {
	CompanyID            uuid.UUID
	PreMoneyValuation    decimal.Decimal
	InvestmentAmount     decimal.Decimal // May be zero when NewInvestors define it
	NewInvestors         []NewInvestor
	IncludeOptionPool    bool
	OptionPoolPercentage decimal.Decimal
	OptionPoolIsPreMoney bool
}

// SimulateRound projects a financing round onto the company's current cap table
func (s *SimulationService) SimulateRound(ctx context.Context, input SimulateRoundInput) (*domain.RoundSimulationResult, error) {
	round, err := input.validate()
	if err != nil {
		return nil, err
	}

	snapshot, err := s.CapTable.LoadSnapshot(ctx, input.CompanyID)
	if err != nil {
		return nil, err
	}

	result := Project(snapshot.Company.ID, snapshot.Positions, snapshot.TotalShares, round, s.Options)

	s.Logger.Debug().
		Str("company_id", snapshot.Company.ID.String()).
		Str("pre_money", round.PreMoneyValuation.String()).
		Str("investment", round.InvestmentAmount.String()).
		Str("dilution", result.TotalDilutionPercentage.String()).
		Bool("baseline_shares", result.UsedBaselineShares).
		Msg("round simulated")

	return result, nil
}

// CalculateDilution returns the total dilution percentage of a round without building tables.
// Returns 0 when either input is not positive; the company must exist otherwise.
func (s *SimulationService) CalculateDilution(ctx context.Context, companyID uuid.UUID, investmentAmount, preMoneyValuation decimal.Decimal) (decimal.Decimal, error) {
	if investmentAmount.LessThanOrEqual(decimal.Zero) || preMoneyValuation.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, nil
	}

	if _, err := s.CompanyRepo.GetByID(ctx, companyID); err != nil {
		return decimal.Zero, err
	}

	total, err := s.ShareRepo.TotalByCompany(ctx, companyID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to total company shares: %w", err)
	}

	pricing := Price(total, Round{PreMoneyValuation: preMoneyValuation, InvestmentAmount: investmentAmount}, s.Options)
	return pricing.TotalDilution.Round(captable.PercentagePlaces), nil
}

// SimulateScenarios runs independent round simulations and returns them in input order
func (s *SimulationService) SimulateScenarios(ctx context.Context, scenarios []SimulateRoundInput) ([]*domain.RoundSimulationResult, error) {
	results := make([]*domain.RoundSimulationResult, 0, len(scenarios))
	for i, scenario := range scenarios {
		result, err := s.SimulateRound(ctx, scenario)
		if err != nil {
			return nil, fmt.Errorf("scenario %d: %w", i+1, err)
		}
		results = append(results, result)
	}
	return results, nil
}

// validate checks the round preconditions and resolves the investment amount
// Logic:
//   - preMoney > 0
//   - every investor amount > 0; their sum defines the investment when none is given
//     and must match it otherwise
//   - investment > 0
//   - an included option pool must be below 100%
func (in SimulateRoundInput) validate() (Round, error) {
	if in.PreMoneyValuation.LessThanOrEqual(decimal.Zero) {
		return Round{}, domain.NewValidationError("pre_money_valuation", in.PreMoneyValuation, "pre-money valuation must be positive")
	}

	investment := in.InvestmentAmount
	if len(in.NewInvestors) > 0 {
		sum := decimal.Zero
		for i, investor := range in.NewInvestors {
			if investor.InvestmentAmount.LessThanOrEqual(decimal.Zero) {
				return Round{}, domain.NewValidationError(fmt.Sprintf("new_investors[%d].investment_amount", i),
					investor.InvestmentAmount, "investor amount must be positive")
			}
			sum = sum.Add(investor.InvestmentAmount)
		}

		if investment.IsZero() {
			investment = sum
		} else if !investment.Equal(sum) {
			return Round{}, domain.NewValidationError("investment_amount", investment,
				fmt.Sprintf("investment amount must equal the sum of new investor amounts (%s)", sum))
		}
	}

	if investment.LessThanOrEqual(decimal.Zero) {
		return Round{}, domain.NewValidationError("investment_amount", investment, "investment amount must be positive")
	}

	if in.IncludeOptionPool {
		if in.OptionPoolPercentage.LessThan(decimal.Zero) || in.OptionPoolPercentage.GreaterThanOrEqual(hundred) {
			return Round{}, domain.NewValidationError("option_pool_percentage", in.OptionPoolPercentage,
				"option pool percentage must be between 0 and 100")
		}
	}

	return Round{
		PreMoneyValuation:    in.PreMoneyValuation,
		InvestmentAmount:     investment,
		NewInvestors:         in.NewInvestors,
		IncludeOptionPool:    in.IncludeOptionPool,
		OptionPoolPercentage: in.OptionPoolPercentage,
		OptionPoolIsPreMoney: in.OptionPoolIsPreMoney,
	}, nil
}
