package seeder

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/simaogato/captable-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockCompanyRepository is a mock implementation of CompanyRepository
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

// MockShareClassRepository is a mock implementation of ShareClassRepository
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

func TestClassSeeder_Seed_ClassesMissing(t *testing.T) {
	ctx := context.Background()
	companies := new(MockCompanyRepository)
	classes := new(MockShareClassRepository)
	seeder := NewClassSeeder(companies, classes)

	company := &domain.Company{ID: uuid.New()}
	actor := domain.Actor{UserID: uuid.New()}

	companies.On("GetByID", ctx, company.ID).Return(company, nil)
	classes.On("GetByCode", ctx, company.ID, CodeCommon).Return(nil, domain.NewNotFoundError("share class", uuid.Nil))
	classes.On("GetByCode", ctx, company.ID, CodePreferred).Return(nil, domain.NewNotFoundError("share class", uuid.Nil))

	classes.On("Create", ctx, mock.MatchedBy(func(c *domain.ShareClass) bool {
		return c.Code == CodeCommon &&
			c.CompanyID == company.ID &&
			c.HasVotingRights &&
			c.VotesPerShare.String() == "1" &&
			c.CreatedBy == actor.UserID
	})).Return(nil)

	classes.On("Create", ctx, mock.MatchedBy(func(c *domain.ShareClass) bool {
		return c.Code == CodePreferred &&
			!c.HasVotingRights &&
			c.LiquidationPreference.String() == "1"
	})).Return(nil)

	created, err := seeder.Seed(ctx, company.ID, actor)

	require.NoError(t, err)
	assert.Len(t, created, 2)
	companies.AssertExpectations(t)
	classes.AssertExpectations(t)
}

func TestClassSeeder_Seed_ClassesExist(t *testing.T) {
	ctx := context.Background()
	companies := new(MockCompanyRepository)
	classes := new(MockShareClassRepository)
	seeder := NewClassSeeder(companies, classes)

	company := &domain.Company{ID: uuid.New()}
	companies.On("GetByID", ctx, company.ID).Return(company, nil)
	classes.On("GetByCode", ctx, company.ID, CodeCommon).Return(&domain.ShareClass{Code: CodeCommon}, nil)
	classes.On("GetByCode", ctx, company.ID, CodePreferred).Return(&domain.ShareClass{Code: CodePreferred}, nil)

	created, err := seeder.Seed(ctx, company.ID, domain.Actor{})

	require.NoError(t, err)
	assert.Empty(t, created)
	classes.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestClassSeeder_Seed_LookupFails(t *testing.T) {
	ctx := context.Background()
	companies := new(MockCompanyRepository)
	classes := new(MockShareClassRepository)
	seeder := NewClassSeeder(companies, classes)

	company := &domain.Company{ID: uuid.New()}
	companies.On("GetByID", ctx, company.ID).Return(company, nil)
	classes.On("GetByCode", ctx, company.ID, CodeCommon).Return(nil, errors.New("connection reset"))

	_, err := seeder.Seed(ctx, company.ID, domain.Actor{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	classes.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestClassSeeder_Seed_OtherTenant(t *testing.T) {
	ctx := context.Background()
	companies := new(MockCompanyRepository)
	classes := new(MockShareClassRepository)
	seeder := NewClassSeeder(companies, classes)

	company := &domain.Company{ID: uuid.New(), TenantID: uuid.New()}
	companies.On("GetByID", ctx, company.ID).Return(company, nil)

	_, err := seeder.Seed(ctx, company.ID, domain.Actor{TenantID: uuid.New()})

	assert.ErrorIs(t, err, domain.ErrNotFound)
}
