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

// ShareholderService handles administrative operations on shareholders
type ShareholderService struct {
	CompanyRepo     domain.CompanyRepository
	ShareholderRepo domain.ShareholderRepository
	ShareRepo       domain.ShareRepository
	Clock           func() time.Time
	Logger          zerolog.Logger
}

// NewShareholderService creates a new ShareholderService instance
func NewShareholderService(
	companyRepo domain.CompanyRepository,
	shareholderRepo domain.ShareholderRepository,
	shareRepo domain.ShareRepository,
) *ShareholderService {
	return &ShareholderService{
		CompanyRepo:     companyRepo,
		ShareholderRepo: shareholderRepo,
		ShareRepo:       shareRepo,
		Clock:           time.Now,
		Logger:          zerolog.Nop(),
	}
}

// CreateShareholderInput represents the input for registering a shareholder
type CreateShareholderInput struct {
	CompanyID    uuid.UUID
	Name         string
	Document     string
	DocumentType domain.DocumentType
	Type         domain.ShareholderType
	Email        string
	Phone        string
	Address      string
	Actor        domain.Actor
}

// CreateShareholder registers a shareholder of a company
// The document is stored normalized and must be unique among the company's non-deleted shareholders.
func (s *ShareholderService) CreateShareholder(ctx context.Context, input CreateShareholderInput) (*domain.Shareholder, error) {
	company, err := loadCompany(ctx, s.CompanyRepo, input.CompanyID, input.Actor)
	if err != nil {
		return nil, err
	}

	now := s.now()
	holder := &domain.Shareholder{
		ID:           uuid.New(),
		CompanyID:    company.ID,
		Name:         strings.TrimSpace(input.Name),
		Document:     domain.NormalizeDocument(input.Document, input.DocumentType),
		DocumentType: input.DocumentType,
		Type:         input.Type,
		Email:        strings.TrimSpace(input.Email),
		Phone:        input.Phone,
		Address:      input.Address,
		Status:       domain.ShareholderStatusActive,
		CreatedAt:    now,
		CreatedBy:    input.Actor.UserID,
		UpdatedAt:    now,
	}
	if err := holder.Validate(); err != nil {
		return nil, err
	}

	exists, err := s.ShareholderRepo.ExistsByDocument(ctx, company.ID, holder.Document, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check shareholder document: %w", err)
	}
	if exists {
		return nil, domain.NewConflictError("shareholder", "document", holder.Document)
	}

	if err := s.ShareholderRepo.Create(ctx, holder); err != nil {
		return nil, fmt.Errorf("failed to create shareholder: %w", err)
	}

	s.Logger.Info().
		Str("company_id", company.ID.String()).
		Str("shareholder_id", holder.ID.String()).
		Str("type", string(holder.Type)).
		Msg("shareholder created")

	return holder, nil
}

// UpdateShareholderStatus moves a shareholder between ACTIVE, SUSPENDED and INACTIVE
func (s *ShareholderService) UpdateShareholderStatus(ctx context.Context, shareholderID uuid.UUID, status domain.ShareholderStatus, actor domain.Actor) (*domain.Shareholder, error) {
	switch status {
	case domain.ShareholderStatusActive, domain.ShareholderStatusSuspended, domain.ShareholderStatusInactive:
	default:
		return nil, domain.NewValidationError("status", status, "status must be ACTIVE, SUSPENDED or INACTIVE")
	}

	holder, err := s.loadShareholder(ctx, shareholderID, actor)
	if err != nil {
		return nil, err
	}

	holder.Status = status
	holder.UpdatedAt = s.now()
	if err := s.ShareholderRepo.Update(ctx, holder); err != nil {
		return nil, fmt.Errorf("failed to update shareholder status: %w", err)
	}
	return holder, nil
}

// DeleteShareholder soft-deletes a shareholder
// Business rule: a shareholder still holding active shares cannot be deleted
func (s *ShareholderService) DeleteShareholder(ctx context.Context, shareholderID uuid.UUID, actor domain.Actor) error {
	holder, err := s.loadShareholder(ctx, shareholderID, actor)
	if err != nil {
		return err
	}

	active, err := s.ShareRepo.ListActiveByCompany(ctx, holder.CompanyID)
	if err != nil {
		return fmt.Errorf("failed to list active shares: %w", err)
	}
	held := decimal.Zero
	for _, share := range active {
		if share.ShareholderID == holder.ID {
			held = held.Add(share.Quantity)
		}
	}
	if held.GreaterThan(decimal.Zero) {
		return domain.NewBusinessRuleError("outstanding_shares",
			fmt.Sprintf("shareholder %s still holds %s shares", holder.Name, held))
	}

	holder.Status = domain.ShareholderStatusDeleted
	holder.UpdatedAt = s.now()
	if err := s.ShareholderRepo.Update(ctx, holder); err != nil {
		return fmt.Errorf("failed to delete shareholder: %w", err)
	}
	return nil
}

// ListShareholders returns the non-deleted shareholders of a company
func (s *ShareholderService) ListShareholders(ctx context.Context, companyID uuid.UUID, actor domain.Actor) ([]*domain.Shareholder, error) {
	company, err := loadCompany(ctx, s.CompanyRepo, companyID, actor)
	if err != nil {
		return nil, err
	}
	return s.ShareholderRepo.ListByCompany(ctx, company.ID)
}

func (s *ShareholderService) loadShareholder(ctx context.Context, shareholderID uuid.UUID, actor domain.Actor) (*domain.Shareholder, error) {
	holder, err := s.ShareholderRepo.GetByID(ctx, shareholderID)
	if err != nil {
		return nil, err
	}
	if _, err := loadCompany(ctx, s.CompanyRepo, holder.CompanyID, actor); err != nil {
		return nil, domain.NewNotFoundError("shareholder", shareholderID)
	}
	return holder, nil
}

func (s *ShareholderService) now() time.Time {
	if s.Clock == nil {
		return time.Now()
	}
	return s.Clock()
}
