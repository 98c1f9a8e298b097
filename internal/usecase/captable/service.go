package captable

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/captable-backend/internal/domain"
)

// CapTableService serves the current-state ownership view of a company
type CapTableService struct {
	CompanyRepo     domain.CompanyRepository
	ShareholderRepo domain.ShareholderRepository
	ShareClassRepo  domain.ShareClassRepository
	ShareRepo       domain.ShareRepository
	Clock           func() time.Time
}

// NewCapTableService creates a new CapTableService instance
func NewCapTableService(
	companyRepo domain.CompanyRepository,
	shareholderRepo domain.ShareholderRepository,
	shareClassRepo domain.ShareClassRepository,
	shareRepo domain.ShareRepository,
) *CapTableService {
	return &CapTableService{
		CompanyRepo:     companyRepo,
		ShareholderRepo: shareholderRepo,
		ShareClassRepo:  shareClassRepo,
		ShareRepo:       shareRepo,
		Clock:           time.Now,
	}
}

// Snapshot is the grouped state of a company's active lots
type Snapshot struct {
	Company     *domain.Company
	Shares      []*domain.Share
	Directory   Directory
	Positions   []Position
	TotalShares decimal.Decimal
}

// LoadSnapshot reads the active lots of a company and groups them into positions
func (s *CapTableService) LoadSnapshot(ctx context.Context, companyID uuid.UUID) (*Snapshot, error) {
	company, err := s.CompanyRepo.GetByID(ctx, companyID)
	if err != nil {
		return nil, err
	}

	shares, err := s.ShareRepo.ListActiveByCompany(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active shares: %w", err)
	}

	holders, err := s.ShareholderRepo.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shareholders: %w", err)
	}

	classes, err := s.ShareClassRepo.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list share classes: %w", err)
	}

	dir := NewDirectory(holders, classes)
	positions, total := Positions(shares, dir)

	return &Snapshot{
		Company:     company,
		Shares:      shares,
		Directory:   dir,
		Positions:   positions,
		TotalShares: total,
	}, nil
}

// GetCapTable builds the cap table of a company from its active lots.
// Recomputed on every call.
func (s *CapTableService) GetCapTable(ctx context.Context, companyID uuid.UUID) (*domain.CapTable, error) {
	snapshot, err := s.LoadSnapshot(ctx, companyID)
	if err != nil {
		return nil, err
	}

	now := time.Now
	if s.Clock != nil {
		now = s.Clock
	}
	return BuildCapTable(snapshot.Company.ID, snapshot.Shares, snapshot.Directory, now()), nil
}
