package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/captable-backend/internal/domain"
	"github.com/stretchr/testify/mock"
)

// MockCompanyRepository is a mock implementation of CompanyRepository for testing
type MockCompanyRepository struct {
	mock.Mock
}

func (m *MockCompanyRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Company, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Company), args.Error(1)
}

// MockShareholderRepository is a mock implementation of ShareholderRepository for testing
type MockShareholderRepository struct {
	mock.Mock
}

func (m *MockShareholderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Shareholder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Shareholder), args.Error(1)
}

func (m *MockShareholderRepository) ExistsByDocument(ctx context.Context, companyID uuid.UUID, document string, excludeID *uuid.UUID) (bool, error) {
	args := m.Called(ctx, companyID, document, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockShareholderRepository) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]*domain.Shareholder, error) {
	args := m.Called(ctx, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Shareholder), args.Error(1)
}

func (m *MockShareholderRepository) Create(ctx context.Context, shareholder *domain.Shareholder) error {
	args := m.Called(ctx, shareholder)
	return args.Error(0)
}

func (m *MockShareholderRepository) Update(ctx context.Context, shareholder *domain.Shareholder) error {
	args := m.Called(ctx, shareholder)
	return args.Error(0)
}

// MockShareClassRepository is a mock implementation of ShareClassRepository for testing
type MockShareClassRepository struct {
	mock.Mock
}

func (m *MockShareClassRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ShareClass, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ShareClass), args.Error(1)
}

func (m *MockShareClassRepository) GetByCode(ctx context.Context, companyID uuid.UUID, code string) (*domain.ShareClass, error) {
	args := m.Called(ctx, companyID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ShareClass), args.Error(1)
}

func (m *MockShareClassRepository) ExistsByCode(ctx context.Context, companyID uuid.UUID, code string, excludeID *uuid.UUID) (bool, error) {
	args := m.Called(ctx, companyID, code, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockShareClassRepository) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]*domain.ShareClass, error) {
	args := m.Called(ctx, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ShareClass), args.Error(1)
}

func (m *MockShareClassRepository) Create(ctx context.Context, shareClass *domain.ShareClass) error {
	args := m.Called(ctx, shareClass)
	return args.Error(0)
}

func (m *MockShareClassRepository) Update(ctx context.Context, shareClass *domain.ShareClass) error {
	args := m.Called(ctx, shareClass)
	return args.Error(0)
}

// MockShareRepository is a mock implementation of ShareRepository for testing
type MockShareRepository struct {
	mock.Mock
}

func (m *MockShareRepository) Create(ctx context.Context, share *domain.Share) error {
	args := m.Called(ctx, share)
	return args.Error(0)
}

func (m *MockShareRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ShareStatus, updatedAt time.Time) error {
	args := m.Called(ctx, id, status, updatedAt)
	return args.Error(0)
}

func (m *MockShareRepository) ListActiveByCompany(ctx context.Context, companyID uuid.UUID) ([]*domain.Share, error) {
	args := m.Called(ctx, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Share), args.Error(1)
}

func (m *MockShareRepository) ListActiveByHolding(ctx context.Context, shareholderID, shareClassID uuid.UUID) ([]*domain.Share, error) {
	args := m.Called(ctx, shareholderID, shareClassID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Share), args.Error(1)
}

func (m *MockShareRepository) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]*domain.Share, error) {
	args := m.Called(ctx, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Share), args.Error(1)
}

func (m *MockShareRepository) BalanceOf(ctx context.Context, shareholderID, shareClassID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, shareholderID, shareClassID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockShareRepository) TotalByCompany(ctx context.Context, companyID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, companyID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockShareRepository) TotalByClass(ctx context.Context, shareClassID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, shareClassID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockShareRepository) LockHolding(ctx context.Context, companyID, shareholderID, shareClassID uuid.UUID) error {
	args := m.Called(ctx, companyID, shareholderID, shareClassID)
	return args.Error(0)
}

// MockShareTransactionRepository is a mock implementation of ShareTransactionRepository for testing
type MockShareTransactionRepository struct {
	mock.Mock
}

func (m *MockShareTransactionRepository) Create(ctx context.Context, tx *domain.ShareTransaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockShareTransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ShareTransaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ShareTransaction), args.Error(1)
}

func (m *MockShareTransactionRepository) CountByCompany(ctx context.Context, companyID uuid.UUID) (int, error) {
	args := m.Called(ctx, companyID)
	return args.Int(0), args.Error(1)
}

func (m *MockShareTransactionRepository) LockLedger(ctx context.Context, companyID uuid.UUID) error {
	args := m.Called(ctx, companyID)
	return args.Error(0)
}

func (m *MockShareTransactionRepository) ListByCompany(ctx context.Context, companyID uuid.UUID, limit, offset int) ([]*domain.ShareTransaction, error) {
	args := m.Called(ctx, companyID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ShareTransaction), args.Error(1)
}

// passthroughTransactor runs the unit of work directly
type passthroughTransactor struct{}

func (passthroughTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
