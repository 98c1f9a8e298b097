package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/simaogato/captable-backend/internal/domain"
)

// LedgerService is the Transaction Processor: it validates and executes issuance,
// transfer and cancellation of shares against current balances.
type LedgerService struct {
	CompanyRepo     domain.CompanyRepository
	ShareholderRepo domain.ShareholderRepository
	ShareClassRepo  domain.ShareClassRepository
	ShareRepo       domain.ShareRepository
	TransactionRepo domain.ShareTransactionRepository
	Transactor      domain.Transactor

	// Clock supplies reference-date defaults and audit timestamps
	Clock  func() time.Time
	Logger zerolog.Logger
}

// NewLedgerService creates a new LedgerService instance
func NewLedgerService(
	companyRepo domain.CompanyRepository,
	shareholderRepo domain.ShareholderRepository,
	shareClassRepo domain.ShareClassRepository,
	shareRepo domain.ShareRepository,
	transactionRepo domain.ShareTransactionRepository,
	transactor domain.Transactor,
) *LedgerService {
	return &LedgerService{
		CompanyRepo:     companyRepo,
		ShareholderRepo: shareholderRepo,
		ShareClassRepo:  shareClassRepo,
		ShareRepo:       shareRepo,
		TransactionRepo: transactionRepo,
		Transactor:      transactor,
		Clock:           time.Now,
		Logger:          zerolog.Nop(),
	}
}

// Result is what a mutating ledger operation produced
type Result struct {
	Transaction *domain.ShareTransaction
	Share       *domain.Share   // New lot (issue: holder lot, transfer: recipient lot); nil for cancel
	Consumed    []uuid.UUID     // Lots moved to TRANSFERRED or CANCELLED
	Remainders  []*domain.Share // Active lots keeping the unconsumed part of split lots
}

// GetShareholderBalance returns the sum of active lots of a shareholder in a class
func (s *LedgerService) GetShareholderBalance(ctx context.Context, shareholderID, shareClassID uuid.UUID) (decimal.Decimal, error) {
	holder, err := s.ShareholderRepo.GetByID(ctx, shareholderID)
	if err != nil {
		return decimal.Zero, err
	}

	class, err := s.ShareClassRepo.GetByID(ctx, shareClassID)
	if err != nil {
		return decimal.Zero, err
	}
	if class.CompanyID != holder.CompanyID {
		return decimal.Zero, domain.NewNotFoundError("share class", shareClassID)
	}

	return s.ShareRepo.BalanceOf(ctx, shareholderID, shareClassID)
}

// GetTotalSharesByCompany returns the sum of active lots of a company
func (s *LedgerService) GetTotalSharesByCompany(ctx context.Context, companyID uuid.UUID) (decimal.Decimal, error) {
	if _, err := s.CompanyRepo.GetByID(ctx, companyID); err != nil {
		return decimal.Zero, err
	}
	return s.ShareRepo.TotalByCompany(ctx, companyID)
}

// GetTotalSharesByClass returns the sum of active lots of a share class
func (s *LedgerService) GetTotalSharesByClass(ctx context.Context, shareClassID uuid.UUID) (decimal.Decimal, error) {
	if _, err := s.ShareClassRepo.GetByID(ctx, shareClassID); err != nil {
		return decimal.Zero, err
	}
	return s.ShareRepo.TotalByClass(ctx, shareClassID)
}

// ListTransactions returns a page of the company ledger and the total number of records
func (s *LedgerService) ListTransactions(ctx context.Context, companyID uuid.UUID, limit, offset int) ([]*domain.ShareTransaction, int, error) {
	if _, err := s.CompanyRepo.GetByID(ctx, companyID); err != nil {
		return nil, 0, err
	}

	txs, err := s.TransactionRepo.ListByCompany(ctx, companyID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list transactions: %w", err)
	}

	total, err := s.TransactionRepo.CountByCompany(ctx, companyID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	return txs, total, nil
}

// loadCompany fetches a company and hides it from actors of another tenant
func (s *LedgerService) loadCompany(ctx context.Context, companyID uuid.UUID, actor domain.Actor) (*domain.Company, error) {
	company, err := s.CompanyRepo.GetByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if !company.VisibleTo(actor) {
		return nil, domain.NewNotFoundError("company", companyID)
	}
	return company, nil
}

// loadShareholder fetches a shareholder that must belong to the company
func (s *LedgerService) loadShareholder(ctx context.Context, companyID, shareholderID uuid.UUID) (*domain.Shareholder, error) {
	holder, err := s.ShareholderRepo.GetByID(ctx, shareholderID)
	if err != nil {
		return nil, err
	}
	if holder.CompanyID != companyID {
		return nil, domain.NewNotFoundError("shareholder", shareholderID)
	}
	return holder, nil
}

// loadShareClass fetches a share class that must belong to the company
func (s *LedgerService) loadShareClass(ctx context.Context, companyID, shareClassID uuid.UUID) (*domain.ShareClass, error) {
	class, err := s.ShareClassRepo.GetByID(ctx, shareClassID)
	if err != nil {
		return nil, err
	}
	if class.CompanyID != companyID {
		return nil, domain.NewNotFoundError("share class", shareClassID)
	}
	return class, nil
}

// transactionNumber keeps a caller-supplied number or allocates
// TXN-<UTC year>-<count of company transactions + 1>.
// The company ledger lock is held until the unit of work commits, so
// concurrent operations on different holdings never count the same total.
func (s *LedgerService) transactionNumber(ctx context.Context, companyID uuid.UUID, supplied string, now time.Time) (string, error) {
	if supplied != "" {
		return supplied, nil
	}

	if err := s.TransactionRepo.LockLedger(ctx, companyID); err != nil {
		return "", fmt.Errorf("failed to lock company ledger: %w", err)
	}
	count, err := s.TransactionRepo.CountByCompany(ctx, companyID)
	if err != nil {
		return "", fmt.Errorf("failed to count company transactions: %w", err)
	}
	return domain.FormatTransactionNumber(now.UTC().Year(), count+1), nil
}

func (s *LedgerService) now() time.Time {
	if s.Clock == nil {
		return time.Now()
	}
	return s.Clock()
}

func validateQuantity(quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return domain.NewValidationError("quantity", quantity, "quantity must be positive")
	}
	return nil
}

func validatePrice(price decimal.Decimal) error {
	if price.LessThan(decimal.Zero) {
		return domain.NewValidationError("price_per_unit", price, "price per unit cannot be negative")
	}
	return nil
}
