package registry

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/simaogato/captable-backend/internal/domain"
)

// ShareClassService handles administrative operations on share classes
type ShareClassService struct {
	CompanyRepo    domain.CompanyRepository
	ShareClassRepo domain.ShareClassRepository
	ShareRepo      domain.ShareRepository
	Clock          func() time.Time
	Logger         zerolog.Logger
}

// NewShareClassService creates a new ShareClassService instance
func NewShareClassService(
	companyRepo domain.CompanyRepository,
	shareClassRepo domain.ShareClassRepository,
	shareRepo domain.ShareRepository,
) *ShareClassService {
	return &ShareClassService{
		CompanyRepo:    companyRepo,
		ShareClassRepo: shareClassRepo,
		ShareRepo:      shareRepo,
		Clock:          time.Now,
		Logger:         zerolog.Nop(),
	}
}

// CreateShareClassInput represents the input for creating a share class
type CreateShareClassInput struct {
	CompanyID             uuid.UUID
	Name                  string
	Code                  string
	Description           string
	HasVotingRights       bool
	VotesPerShare         decimal.Decimal
	LiquidationPreference decimal.Decimal
	IsParticipating       bool
	DividendPreference    *decimal.Decimal
	IsConvertible         bool
	ConvertsToClassID     *uuid.UUID
	ConversionRatio       *decimal.Decimal
	AntiDilution          domain.AntiDilutionKind
	Rights                domain.Rights
	DisplayOrder          int
	Actor                 domain.Actor
}

// CreateShareClass registers a new share class for a company
// Logic:
//  1. Company must exist and be visible to the actor
//  2. Code is normalized (trimmed, upper case) and must be unique among the company's non-deleted classes
//  3. A conversion target must exist in the same company
func (s *ShareClassService) CreateShareClass(ctx context.Context, input CreateShareClassInput) (*domain.ShareClass, error) {
	company, err := loadCompany(ctx, s.CompanyRepo, input.CompanyID, input.Actor)
	if err != nil {
		return nil, err
	}

	antiDilution := input.AntiDilution
	if antiDilution == "" {
		antiDilution = domain.AntiDilutionNone
	}
	votes := input.VotesPerShare
	if input.HasVotingRights && votes.IsZero() {
		votes = decimal.NewFromInt(1)
	}

	now := s.now()
	class := &domain.ShareClass{
		ID:                    uuid.New(),
		CompanyID:             company.ID,
		Name:                  strings.TrimSpace(input.Name),
		Code:                  domain.NormalizeClassCode(input.Code),
		Description:           input.Description,
		HasVotingRights:       input.HasVotingRights,
		VotesPerShare:         votes,
		LiquidationPreference: input.LiquidationPreference,
		IsParticipating:       input.IsParticipating,
		DividendPreference:    input.DividendPreference,
		IsConvertible:         input.IsConvertible,
		ConvertsToClassID:     input.ConvertsToClassID,
		ConversionRatio:       input.ConversionRatio,
		AntiDilution:          antiDilution,
		Rights:                input.Rights,
		DisplayOrder:          input.DisplayOrder,
		Status:                domain.ShareClassStatusActive,
		CreatedAt:             now,
		CreatedBy:             input.Actor.UserID,
		UpdatedAt:             now,
	}
	if err := class.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkConversionTarget(ctx, class); err != nil {
		return nil, err
	}

	exists, err := s.ShareClassRepo.ExistsByCode(ctx, company.ID, class.Code, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check share class code: %w", err)
	}
	if exists {
		return nil, domain.NewConflictError("share class", "code", class.Code)
	}

	if err := s.ShareClassRepo.Create(ctx, class); err != nil {
		return nil, fmt.Errorf("failed to create share class: %w", err)
	}

	s.Logger.Info().
		Str("company_id", company.ID.String()).
		Str("share_class", class.Code).
		Msg("share class created")

	return class, nil
}

// UpdateShareClassInput represents a partial update; nil fields are left unchanged
type UpdateShareClassInput struct {
	ShareClassID          uuid.UUID
	Name                  *string
	Code                  *string
	Description           *string
	LiquidationPreference *decimal.Decimal
	Rights                *domain.Rights
	DisplayOrder          *int
	Actor                 domain.Actor
}

// UpdateShareClass changes the descriptive attributes of a share class
func (s *ShareClassService) UpdateShareClass(ctx context.Context, input UpdateShareClassInput) (*domain.ShareClass, error) {
	class, err := s.loadShareClass(ctx, input.ShareClassID, input.Actor)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		class.Name = strings.TrimSpace(*input.Name)
	}
	if input.Code != nil {
		class.Code = domain.NormalizeClassCode(*input.Code)
	}
	if input.Description != nil {
		class.Description = *input.Description
	}
	if input.LiquidationPreference != nil {
		class.LiquidationPreference = *input.LiquidationPreference
	}
	if input.Rights != nil {
		class.Rights = *input.Rights
	}
	if input.DisplayOrder != nil {
		class.DisplayOrder = *input.DisplayOrder
	}
	class.UpdatedAt = s.now()

	if err := class.Validate(); err != nil {
		return nil, err
	}

	exists, err := s.ShareClassRepo.ExistsByCode(ctx, class.CompanyID, class.Code, &class.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check share class code: %w", err)
	}
	if exists {
		return nil, domain.NewConflictError("share class", "code", class.Code)
	}

	if err := s.ShareClassRepo.Update(ctx, class); err != nil {
		return nil, fmt.Errorf("failed to update share class: %w", err)
	}
	return class, nil
}

// DeactivateShareClass stops new issuances in a class; existing lots are unaffected
func (s *ShareClassService) DeactivateShareClass(ctx context.Context, shareClassID uuid.UUID, actor domain.Actor) (*domain.ShareClass, error) {
	return s.setStatus(ctx, shareClassID, domain.ShareClassStatusInactive, actor)
}

// ActivateShareClass re-opens an inactive class for issuance
func (s *ShareClassService) ActivateShareClass(ctx context.Context, shareClassID uuid.UUID, actor domain.Actor) (*domain.ShareClass, error) {
	return s.setStatus(ctx, shareClassID, domain.ShareClassStatusActive, actor)
}

// DeleteShareClass soft-deletes a class
// Business rule: a class with outstanding (active) shares cannot be deleted
func (s *ShareClassService) DeleteShareClass(ctx context.Context, shareClassID uuid.UUID, actor domain.Actor) error {
	class, err := s.loadShareClass(ctx, shareClassID, actor)
	if err != nil {
		return err
	}

	outstanding, err := s.ShareRepo.TotalByClass(ctx, class.ID)
	if err != nil {
		return fmt.Errorf("failed to total share class: %w", err)
	}
	if outstanding.GreaterThan(decimal.Zero) {
		return domain.NewBusinessRuleError("outstanding_shares",
			fmt.Sprintf("share class %s still has %s outstanding shares", class.Code, outstanding))
	}

	class.Status = domain.ShareClassStatusDeleted
	class.UpdatedAt = s.now()
	if err := s.ShareClassRepo.Update(ctx, class); err != nil {
		return fmt.Errorf("failed to delete share class: %w", err)
	}

	s.Logger.Info().
		Str("company_id", class.CompanyID.String()).
		Str("share_class", class.Code).
		Msg("share class deleted")
	return nil
}

// ListShareClasses returns the non-deleted classes of a company
func (s *ShareClassService) ListShareClasses(ctx context.Context, companyID uuid.UUID, actor domain.Actor) ([]*domain.ShareClass, error) {
	company, err := loadCompany(ctx, s.CompanyRepo, companyID, actor)
	if err != nil {
		return nil, err
	}
	return s.ShareClassRepo.ListByCompany(ctx, company.ID)
}

// GetShareClassByCode looks a class up by its (case-insensitive) code
func (s *ShareClassService) GetShareClassByCode(ctx context.Context, companyID uuid.UUID, code string, actor domain.Actor) (*domain.ShareClass, error) {
	company, err := loadCompany(ctx, s.CompanyRepo, companyID, actor)
	if err != nil {
		return nil, err
	}
	return s.ShareClassRepo.GetByCode(ctx, company.ID, domain.NormalizeClassCode(code))
}

func (s *ShareClassService) setStatus(ctx context.Context, shareClassID uuid.UUID, status domain.ShareClassStatus, actor domain.Actor) (*domain.ShareClass, error) {
	class, err := s.loadShareClass(ctx, shareClassID, actor)
	if err != nil {
		return nil, err
	}
	if class.Status == status {
		return class, nil
	}

	class.Status = status
	class.UpdatedAt = s.now()
	if err := s.ShareClassRepo.Update(ctx, class); err != nil {
		return nil, fmt.Errorf("failed to update share class status: %w", err)
	}
	return class, nil
}

// checkConversionTarget requires the target class to exist in the same company
func (s *ShareClassService) checkConversionTarget(ctx context.Context, class *domain.ShareClass) error {
	if class.ConvertsToClassID == nil {
		return nil
	}
	target, err := s.ShareClassRepo.GetByID(ctx, *class.ConvertsToClassID)
	if err != nil {
		return err
	}
	if target.CompanyID != class.CompanyID {
		return domain.NewNotFoundError("share class", target.ID)
	}
	return nil
}

// loadShareClass fetches a class whose company is visible to the actor
func (s *ShareClassService) loadShareClass(ctx context.Context, shareClassID uuid.UUID, actor domain.Actor) (*domain.ShareClass, error) {
	class, err := s.ShareClassRepo.GetByID(ctx, shareClassID)
	if err != nil {
		return nil, err
	}
	if _, err := loadCompany(ctx, s.CompanyRepo, class.CompanyID, actor); err != nil {
		return nil, domain.NewNotFoundError("share class", shareClassID)
	}
	return class, nil
}

func (s *ShareClassService) now() time.Time {
	if s.Clock == nil {
		return time.Now()
	}
	return s.Clock()
}

// loadCompany fetches a company and hides it from actors of another tenant
func loadCompany(ctx context.Context, repo domain.CompanyRepository, companyID uuid.UUID, actor domain.Actor) (*domain.Company, error) {
	company, err := repo.GetByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if !company.VisibleTo(actor) {
		return nil, domain.NewNotFoundError("company", companyID)
	}
	return company, nil
}
