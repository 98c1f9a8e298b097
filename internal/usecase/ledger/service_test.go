package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/captable-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

type ledgerMocks struct {
	companies    *MockCompanyRepository
	holders      *MockShareholderRepository
	classes      *MockShareClassRepository
	shares       *MockShareRepository
	transactions *MockShareTransactionRepository
}

func newMockedService() (*LedgerService, *ledgerMocks) {
	m := &ledgerMocks{
		companies:    new(MockCompanyRepository),
		holders:      new(MockShareholderRepository),
		classes:      new(MockShareClassRepository),
		shares:       new(MockShareRepository),
		transactions: new(MockShareTransactionRepository),
	}
	service := NewLedgerService(m.companies, m.holders, m.classes, m.shares, m.transactions, passthroughTransactor{})
	service.Clock = func() time.Time { return fixedNow }
	return service, m
}

func TestIssueShares_StandardFlow(t *testing.T) {
	ctx := context.Background()
	service, m := newMockedService()

	company := &domain.Company{ID: uuid.New(), Name: "Acme"}
	holder := &domain.Shareholder{ID: uuid.New(), CompanyID: company.ID, Name: "Ana", Type: domain.ShareholderTypeFounder}
	class := &domain.ShareClass{ID: uuid.New(), CompanyID: company.ID, Code: "ON", Status: domain.ShareClassStatusActive}
	actor := domain.Actor{UserID: uuid.New()}

	m.companies.On("GetByID", ctx, company.ID).Return(company, nil)
	m.holders.On("GetByID", ctx, holder.ID).Return(holder, nil)
	m.classes.On("GetByID", ctx, class.ID).Return(class, nil)
	m.transactions.On("LockLedger", ctx, company.ID).Return(nil)
	m.transactions.On("CountByCompany", ctx, company.ID).Return(6, nil)

	var recorded *domain.ShareTransaction
	m.transactions.On("Create", ctx, mock.MatchedBy(func(tx *domain.ShareTransaction) bool {
		recorded = tx
		return tx.Type == domain.TransactionTypeIssue &&
			tx.TransactionNumber == "TXN-2026-0007" &&
			tx.FromShareholderID == nil &&
			*tx.ToShareholderID == holder.ID &&
			tx.Quantity.Equal(decimal.NewFromInt(1000)) &&
			tx.CreatedBy == actor.UserID
	})).Return(nil)

	m.shares.On("Create", ctx, mock.MatchedBy(func(s *domain.Share) bool {
		// The lot is written after its transaction and points back at it
		return recorded != nil &&
			s.TransactionID == recorded.ID &&
			*recorded.ShareID == s.ID &&
			s.Status == domain.ShareStatusActive &&
			s.Origin == domain.ShareOriginIssue &&
			s.AcquisitionPrice.Equal(decimal.RequireFromString("1.5")) &&
			s.AcquisitionDate.Equal(fixedNow)
	})).Return(nil)

	result, err := service.IssueShares(ctx, IssueSharesInput{
		CompanyID:     company.ID,
		ShareholderID: holder.ID,
		ShareClassID:  class.ID,
		Quantity:      decimal.NewFromInt(1000),
		PricePerUnit:  decimal.RequireFromString("1.5"),
		Actor:         actor,
	})

	require.NoError(t, err)
	assert.Equal(t, "TXN-2026-0007", result.Transaction.TransactionNumber)
	assert.Equal(t, holder.ID, result.Share.ShareholderID)
	assert.True(t, result.Transaction.TotalValue().Equal(decimal.NewFromInt(1500)))

	m.companies.AssertExpectations(t)
	m.holders.AssertExpectations(t)
	m.classes.AssertExpectations(t)
	m.shares.AssertExpectations(t)
	m.transactions.AssertExpectations(t)
}

func TestIssueShares_KeepsSuppliedTransactionNumber(t *testing.T) {
	ctx := context.Background()
	service, m := newMockedService()

	company := &domain.Company{ID: uuid.New()}
	holder := &domain.Shareholder{ID: uuid.New(), CompanyID: company.ID}
	class := &domain.ShareClass{ID: uuid.New(), CompanyID: company.ID, Code: "ON", Status: domain.ShareClassStatusActive}

	m.companies.On("GetByID", ctx, company.ID).Return(company, nil)
	m.holders.On("GetByID", ctx, holder.ID).Return(holder, nil)
	m.classes.On("GetByID", ctx, class.ID).Return(class, nil)
	m.transactions.On("Create", ctx, mock.MatchedBy(func(tx *domain.ShareTransaction) bool {
		return tx.TransactionNumber == "BOARD-2026-A"
	})).Return(nil)
	m.shares.On("Create", ctx, mock.Anything).Return(nil)

	_, err := service.IssueShares(ctx, IssueSharesInput{
		CompanyID:         company.ID,
		ShareholderID:     holder.ID,
		ShareClassID:      class.ID,
		Quantity:          decimal.NewFromInt(10),
		PricePerUnit:      decimal.Zero,
		TransactionNumber: "BOARD-2026-A",
	})

	require.NoError(t, err)
	m.transactions.AssertNotCalled(t, "CountByCompany", mock.Anything, mock.Anything)
	m.transactions.AssertNotCalled(t, "LockLedger", mock.Anything, mock.Anything)
}

func TestIssueShares_NumbersUnderLedgerLock(t *testing.T) {
	ctx := context.Background()
	service, m := newMockedService()

	company := &domain.Company{ID: uuid.New()}
	holder := &domain.Shareholder{ID: uuid.New(), CompanyID: company.ID}
	class := &domain.ShareClass{ID: uuid.New(), CompanyID: company.ID, Code: "ON", Status: domain.ShareClassStatusActive}

	m.companies.On("GetByID", ctx, company.ID).Return(company, nil)
	m.holders.On("GetByID", ctx, holder.ID).Return(holder, nil)
	m.classes.On("GetByID", ctx, class.ID).Return(class, nil)

	var calls []string
	m.transactions.On("LockLedger", ctx, company.ID).Run(func(mock.Arguments) {
		calls = append(calls, "lock")
	}).Return(nil)
	m.transactions.On("CountByCompany", ctx, company.ID).Run(func(mock.Arguments) {
		calls = append(calls, "count")
	}).Return(2, nil)
	m.transactions.On("Create", ctx, mock.Anything).Return(nil)
	m.shares.On("Create", ctx, mock.Anything).Return(nil)

	result, err := service.IssueShares(ctx, IssueSharesInput{
		CompanyID:     company.ID,
		ShareholderID: holder.ID,
		ShareClassID:  class.ID,
		Quantity:      decimal.NewFromInt(10),
		PricePerUnit:  decimal.Zero,
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"lock", "count"}, calls)
	assert.Equal(t, "TXN-2026-0003", result.Transaction.TransactionNumber)
}

func TestIssueShares_LedgerLockFailureWritesNothing(t *testing.T) {
	ctx := context.Background()
	service, m := newMockedService()

	company := &domain.Company{ID: uuid.New()}
	holder := &domain.Shareholder{ID: uuid.New(), CompanyID: company.ID}
	class := &domain.ShareClass{ID: uuid.New(), CompanyID: company.ID, Code: "ON", Status: domain.ShareClassStatusActive}

	m.companies.On("GetByID", ctx, company.ID).Return(company, nil)
	m.holders.On("GetByID", ctx, holder.ID).Return(holder, nil)
	m.classes.On("GetByID", ctx, class.ID).Return(class, nil)
	lockErr := errors.New("canceling statement due to lock timeout")
	m.transactions.On("LockLedger", ctx, company.ID).Return(lockErr)

	_, err := service.IssueShares(ctx, IssueSharesInput{
		CompanyID:     company.ID,
		ShareholderID: holder.ID,
		ShareClassID:  class.ID,
		Quantity:      decimal.NewFromInt(10),
		PricePerUnit:  decimal.Zero,
	})

	require.ErrorIs(t, err, lockErr)
	m.transactions.AssertNotCalled(t, "CountByCompany", mock.Anything, mock.Anything)
	m.transactions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	m.shares.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestIssueShares_Rejections(t *testing.T) {
	companyID := uuid.New()
	otherCompanyID := uuid.New()
	tenantID := uuid.New()

	tests := []struct {
		name    string
		input   func(holderID, classID uuid.UUID) IssueSharesInput
		holder  *domain.Shareholder
		class   *domain.ShareClass
		wantErr error
	}{
		{
			name: "zero quantity",
			input: func(h, c uuid.UUID) IssueSharesInput {
				return IssueSharesInput{CompanyID: companyID, ShareholderID: h, ShareClassID: c, Quantity: decimal.Zero}
			},
			wantErr: domain.ErrValidation,
		},
		{
			name: "negative price",
			input: func(h, c uuid.UUID) IssueSharesInput {
				return IssueSharesInput{CompanyID: companyID, ShareholderID: h, ShareClassID: c,
					Quantity: decimal.NewFromInt(1), PricePerUnit: decimal.NewFromInt(-1)}
			},
			wantErr: domain.ErrValidation,
		},
		{
			name: "actor from another tenant",
			input: func(h, c uuid.UUID) IssueSharesInput {
				return IssueSharesInput{CompanyID: companyID, ShareholderID: h, ShareClassID: c,
					Quantity: decimal.NewFromInt(1), Actor: domain.Actor{TenantID: uuid.New()}}
			},
			wantErr: domain.ErrNotFound,
		},
		{
			name: "shareholder of another company",
			input: func(h, c uuid.UUID) IssueSharesInput {
				return IssueSharesInput{CompanyID: companyID, ShareholderID: h, ShareClassID: c, Quantity: decimal.NewFromInt(1)}
			},
			holder:  &domain.Shareholder{ID: uuid.New(), CompanyID: otherCompanyID},
			wantErr: domain.ErrNotFound,
		},
		{
			name: "share class of another company",
			input: func(h, c uuid.UUID) IssueSharesInput {
				return IssueSharesInput{CompanyID: companyID, ShareholderID: h, ShareClassID: c, Quantity: decimal.NewFromInt(1)}
			},
			class:   &domain.ShareClass{ID: uuid.New(), CompanyID: otherCompanyID, Status: domain.ShareClassStatusActive},
			wantErr: domain.ErrNotFound,
		},
		{
			name: "inactive share class",
			input: func(h, c uuid.UUID) IssueSharesInput {
				return IssueSharesInput{CompanyID: companyID, ShareholderID: h, ShareClassID: c, Quantity: decimal.NewFromInt(1)}
			},
			class:   &domain.ShareClass{ID: uuid.New(), CompanyID: companyID, Code: "PN", Status: domain.ShareClassStatusInactive},
			wantErr: domain.ErrBusinessRule,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			service, m := newMockedService()

			holder := tt.holder
			if holder == nil {
				holder = &domain.Shareholder{ID: uuid.New(), CompanyID: companyID}
			}
			class := tt.class
			if class == nil {
				class = &domain.ShareClass{ID: uuid.New(), CompanyID: companyID, Status: domain.ShareClassStatusActive}
			}

			m.companies.On("GetByID", ctx, companyID).Return(&domain.Company{ID: companyID, TenantID: tenantID}, nil).Maybe()
			m.holders.On("GetByID", ctx, holder.ID).Return(holder, nil).Maybe()
			m.classes.On("GetByID", ctx, class.ID).Return(class, nil).Maybe()

			_, err := service.IssueShares(ctx, tt.input(holder.ID, class.ID))

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			m.transactions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			m.shares.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestTransferShares_InsufficientBalance(t *testing.T) {
	ctx := context.Background()
	service, m := newMockedService()

	company := &domain.Company{ID: uuid.New()}
	from := &domain.Shareholder{ID: uuid.New(), CompanyID: company.ID}
	to := &domain.Shareholder{ID: uuid.New(), CompanyID: company.ID}
	class := &domain.ShareClass{ID: uuid.New(), CompanyID: company.ID, Code: "ON", Status: domain.ShareClassStatusActive}

	m.companies.On("GetByID", ctx, company.ID).Return(company, nil)
	m.holders.On("GetByID", ctx, from.ID).Return(from, nil)
	m.holders.On("GetByID", ctx, to.ID).Return(to, nil)
	m.classes.On("GetByID", ctx, class.ID).Return(class, nil)
	m.shares.On("LockHolding", ctx, company.ID, from.ID, class.ID).Return(nil)
	m.shares.On("BalanceOf", ctx, from.ID, class.ID).Return(decimal.NewFromInt(100), nil)

	_, err := service.TransferShares(ctx, TransferSharesInput{
		CompanyID:         company.ID,
		FromShareholderID: from.ID,
		ToShareholderID:   to.ID,
		ShareClassID:      class.ID,
		Quantity:          decimal.NewFromInt(150),
		PricePerUnit:      decimal.NewFromInt(2),
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrBusinessRule)

	var insufficient *domain.InsufficientBalanceError
	require.True(t, errors.As(err, &insufficient))
	assert.True(t, insufficient.Available.Equal(decimal.NewFromInt(100)))
	assert.True(t, insufficient.Requested.Equal(decimal.NewFromInt(150)))
	assert.Contains(t, err.Error(), "available 100, requested 150")

	m.transactions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	m.shares.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	m.shares.AssertExpectations(t)
}

func TestTransferShares_LotUpdateFailureIsSurfaced(t *testing.T) {
	ctx := context.Background()
	service, m := newMockedService()

	company := &domain.Company{ID: uuid.New()}
	from := &domain.Shareholder{ID: uuid.New(), CompanyID: company.ID}
	to := &domain.Shareholder{ID: uuid.New(), CompanyID: company.ID}
	class := &domain.ShareClass{ID: uuid.New(), CompanyID: company.ID, Code: "ON", Status: domain.ShareClassStatusActive}
	lot := &domain.Share{
		ID: uuid.New(), CompanyID: company.ID, ShareholderID: from.ID, ShareClassID: class.ID,
		Quantity: decimal.NewFromInt(100), Status: domain.ShareStatusActive, TransactionID: uuid.New(),
		Origin: domain.ShareOriginIssue,
	}

	m.companies.On("GetByID", ctx, company.ID).Return(company, nil)
	m.holders.On("GetByID", ctx, from.ID).Return(from, nil)
	m.holders.On("GetByID", ctx, to.ID).Return(to, nil)
	m.classes.On("GetByID", ctx, class.ID).Return(class, nil)
	m.shares.On("LockHolding", ctx, company.ID, from.ID, class.ID).Return(nil)
	m.shares.On("BalanceOf", ctx, from.ID, class.ID).Return(decimal.NewFromInt(100), nil)
	m.shares.On("ListActiveByHolding", ctx, from.ID, class.ID).Return([]*domain.Share{lot}, nil)
	m.transactions.On("LockLedger", ctx, company.ID).Return(nil)
	m.transactions.On("CountByCompany", ctx, company.ID).Return(0, nil)
	m.transactions.On("Create", ctx, mock.Anything).Return(nil)
	m.shares.On("Create", ctx, mock.Anything).Return(nil)
	m.shares.On("UpdateStatus", ctx, lot.ID, domain.ShareStatusTransferred, fixedNow).Return(domain.ErrShareNotActive)

	_, err := service.TransferShares(ctx, TransferSharesInput{
		CompanyID:         company.ID,
		FromShareholderID: from.ID,
		ToShareholderID:   to.ID,
		ShareClassID:      class.ID,
		Quantity:          decimal.NewFromInt(40),
		PricePerUnit:      decimal.NewFromInt(2),
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrShareNotActive)
	m.transactions.AssertCalled(t, "Create", ctx, mock.Anything)
}

func TestGetShareholderBalance_ClassOfAnotherCompany(t *testing.T) {
	ctx := context.Background()
	service, m := newMockedService()

	holder := &domain.Shareholder{ID: uuid.New(), CompanyID: uuid.New()}
	class := &domain.ShareClass{ID: uuid.New(), CompanyID: uuid.New()}

	m.holders.On("GetByID", ctx, holder.ID).Return(holder, nil)
	m.classes.On("GetByID", ctx, class.ID).Return(class, nil)

	_, err := service.GetShareholderBalance(ctx, holder.ID, class.ID)

	assert.ErrorIs(t, err, domain.ErrNotFound)
	m.shares.AssertNotCalled(t, "BalanceOf", mock.Anything, mock.Anything, mock.Anything)
}
