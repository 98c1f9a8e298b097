package seeder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/captable-backend/internal/domain"
)

// Codes of the default share classes
const (
	CodeCommon    = "ON"
	CodePreferred = "PN"
)

// DefaultClass defines a share class every company starts with
type DefaultClass struct {
	Code                  string
	Name                  string
	Description           string
	HasVotingRights       bool
	VotesPerShare         decimal.Decimal
	LiquidationPreference decimal.Decimal
	DisplayOrder          int
}

// DefaultClasses returns the common and preferred classes seeded for a company
func DefaultClasses() []DefaultClass {
	return []DefaultClass{
		{
			Code:                  CodeCommon,
			Name:                  "Ordinária",
			Description:           "Ações ordinárias com direito a voto",
			HasVotingRights:       true,
			VotesPerShare:         decimal.NewFromInt(1),
			LiquidationPreference: decimal.Zero,
			DisplayOrder:          1,
		},
		{
			Code:                  CodePreferred,
			Name:                  "Preferencial",
			Description:           "Ações preferenciais sem direito a voto",
			HasVotingRights:       false,
			VotesPerShare:         decimal.Zero,
			LiquidationPreference: decimal.NewFromInt(1),
			DisplayOrder:          2,
		},
	}
}

// ClassSeeder handles seeding of the default share classes of a company
type ClassSeeder struct {
	companies domain.CompanyRepository
	classes   domain.ShareClassRepository
	clock     func() time.Time
}

// NewClassSeeder creates a new ClassSeeder instance
func NewClassSeeder(companies domain.CompanyRepository, classes domain.ShareClassRepository) *ClassSeeder {
	return &ClassSeeder{
		companies: companies,
		classes:   classes,
		clock:     time.Now,
	}
}

// Seed ensures the default share classes exist for a company
// A class whose code is already taken is left untouched; returns the classes created.
func (s *ClassSeeder) Seed(ctx context.Context, companyID uuid.UUID, actor domain.Actor) ([]*domain.ShareClass, error) {
	company, err := s.companies.GetByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if !company.VisibleTo(actor) {
		return nil, domain.NewNotFoundError("company", companyID)
	}

	created := make([]*domain.ShareClass, 0)
	for _, def := range DefaultClasses() {
		_, err := s.classes.GetByCode(ctx, company.ID, def.Code)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("failed to look up share class %s: %w", def.Code, err)
		}

		now := s.clock()
		class := &domain.ShareClass{
			ID:                    uuid.New(),
			CompanyID:             company.ID,
			Name:                  def.Name,
			Code:                  def.Code,
			Description:           def.Description,
			HasVotingRights:       def.HasVotingRights,
			VotesPerShare:         def.VotesPerShare,
			LiquidationPreference: def.LiquidationPreference,
			AntiDilution:          domain.AntiDilutionNone,
			DisplayOrder:          def.DisplayOrder,
			Status:                domain.ShareClassStatusActive,
			CreatedAt:             now,
			CreatedBy:             actor.UserID,
			UpdatedAt:             now,
		}

		// Validate before creating
		if err := class.Validate(); err != nil {
			return nil, err
		}
		if err := s.classes.Create(ctx, class); err != nil {
			return nil, fmt.Errorf("failed to create share class %s: %w", def.Code, err)
		}
		created = append(created, class)
	}

	return created, nil
}
