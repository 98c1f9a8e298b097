package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/captable-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShareClassRepository_CodeUniqueness(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repo := NewShareClassRepository(store)

	companyID := uuid.New()
	on := &domain.ShareClass{ID: uuid.New(), CompanyID: companyID, Name: "Ordinária", Code: "ON", Status: domain.ShareClassStatusActive}
	require.NoError(t, repo.Create(ctx, on))

	err := repo.Create(ctx, &domain.ShareClass{ID: uuid.New(), CompanyID: companyID, Code: " on ", Status: domain.ShareClassStatusActive})
	assert.ErrorIs(t, err, domain.ErrConflict)

	// Same code in another company is fine
	require.NoError(t, repo.Create(ctx, &domain.ShareClass{ID: uuid.New(), CompanyID: uuid.New(), Code: "ON", Status: domain.ShareClassStatusActive}))

	exists, err := repo.ExistsByCode(ctx, companyID, "on", &on.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	found, err := repo.GetByCode(ctx, companyID, "On")
	require.NoError(t, err)
	assert.Equal(t, on.ID, found.ID)

	// Deleted classes free their code and disappear from reads
	on.Status = domain.ShareClassStatusDeleted
	require.NoError(t, repo.Update(ctx, on))

	_, err = repo.GetByID(ctx, on.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, repo.Create(ctx, &domain.ShareClass{ID: uuid.New(), CompanyID: companyID, Code: "ON", Status: domain.ShareClassStatusActive}))
}

func TestShareClassRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewShareClassRepository(NewStore())

	class := &domain.ShareClass{ID: uuid.New(), CompanyID: uuid.New(), Name: "Preferencial", Code: "PN", Status: domain.ShareClassStatusActive}
	require.NoError(t, repo.Create(ctx, class))

	fetched, err := repo.GetByID(ctx, class.ID)
	require.NoError(t, err)
	fetched.Name = "changed"

	again, err := repo.GetByID(ctx, class.ID)
	require.NoError(t, err)
	assert.Equal(t, "Preferencial", again.Name)
}

func TestShareholderRepository_ListSortedByName(t *testing.T) {
	ctx := context.Background()
	repo := NewShareholderRepository(NewStore())
	companyID := uuid.New()

	for _, name := range []string{"carla", "Ana", "Bruno"} {
		require.NoError(t, repo.Create(ctx, &domain.Shareholder{
			ID: uuid.New(), CompanyID: companyID, Name: name, Document: name, Status: domain.ShareholderStatusActive,
		}))
	}

	holders, err := repo.ListByCompany(ctx, companyID)
	require.NoError(t, err)
	require.Len(t, holders, 3)
	assert.Equal(t, "Ana", holders[0].Name)
	assert.Equal(t, "Bruno", holders[1].Name)
	assert.Equal(t, "carla", holders[2].Name)

	err = repo.Create(ctx, &domain.Shareholder{ID: uuid.New(), CompanyID: companyID, Name: "Dup", Document: "Ana"})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestShareRepository_StatusAndBalances(t *testing.T) {
	ctx := context.Background()
	repo := NewShareRepository(NewStore())

	companyID, holderID, classID := uuid.New(), uuid.New(), uuid.New()
	older := &domain.Share{
		ID: uuid.New(), CompanyID: companyID, ShareholderID: holderID, ShareClassID: classID,
		Quantity: decimal.NewFromInt(30), Status: domain.ShareStatusActive,
		AcquisitionDate: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	newer := &domain.Share{
		ID: uuid.New(), CompanyID: companyID, ShareholderID: holderID, ShareClassID: classID,
		Quantity: decimal.NewFromInt(70), Status: domain.ShareStatusActive,
		AcquisitionDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Create(ctx, newer))
	require.NoError(t, repo.Create(ctx, older))

	held, err := repo.ListActiveByHolding(ctx, holderID, classID)
	require.NoError(t, err)
	require.Len(t, held, 2)
	assert.Equal(t, older.ID, held[0].ID)

	balance, err := repo.BalanceOf(ctx, holderID, classID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(100)))

	now := time.Now()
	require.NoError(t, repo.UpdateStatus(ctx, older.ID, domain.ShareStatusCancelled, now))
	assert.ErrorIs(t, repo.UpdateStatus(ctx, older.ID, domain.ShareStatusTransferred, now), domain.ErrShareNotActive)
	assert.ErrorIs(t, repo.UpdateStatus(ctx, newer.ID, domain.ShareStatusActive, now), domain.ErrValidation)

	total, err := repo.TotalByCompany(ctx, companyID)
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(70)))

	all, err := repo.ListByCompany(ctx, companyID)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestShareTransactionRepository_NumberUniquePerCompany(t *testing.T) {
	ctx := context.Background()
	repo := NewShareTransactionRepository(NewStore())
	companyID := uuid.New()

	require.NoError(t, repo.Create(ctx, &domain.ShareTransaction{ID: uuid.New(), CompanyID: companyID, TransactionNumber: "TXN-2026-0001"}))
	err := repo.Create(ctx, &domain.ShareTransaction{ID: uuid.New(), CompanyID: companyID, TransactionNumber: "TXN-2026-0001"})
	assert.ErrorIs(t, err, domain.ErrConflict)
	require.NoError(t, repo.Create(ctx, &domain.ShareTransaction{ID: uuid.New(), CompanyID: uuid.New(), TransactionNumber: "TXN-2026-0001"}))

	count, err := repo.CountByCompany(ctx, companyID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	page, err := repo.ListByCompany(ctx, companyID, 10, 5)
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestStore_WithinTransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	shares := NewShareRepository(store)
	txs := NewShareTransactionRepository(store)
	companyID := uuid.New()

	boom := errors.New("boom")
	err := store.WithinTransaction(ctx, func(ctx context.Context) error {
		require.NoError(t, txs.Create(ctx, &domain.ShareTransaction{ID: uuid.New(), CompanyID: companyID, TransactionNumber: "TXN-2026-0001"}))
		require.NoError(t, shares.Create(ctx, &domain.Share{ID: uuid.New(), CompanyID: companyID, Quantity: decimal.NewFromInt(5), Status: domain.ShareStatusActive}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	count, err := txs.CountByCompany(ctx, companyID)
	require.NoError(t, err)
	assert.Zero(t, count)

	total, err := shares.TotalByCompany(ctx, companyID)
	require.NoError(t, err)
	assert.True(t, total.IsZero())
}

func TestCompanyRepository_CreateListGet(t *testing.T) {
	ctx := context.Background()
	repo := NewCompanyRepository(NewStore())

	beta := &domain.Company{ID: uuid.New(), Name: "Beta S.A."}
	acme := &domain.Company{ID: uuid.New(), Name: "Acme Ltda"}
	require.NoError(t, repo.Create(ctx, beta))
	require.NoError(t, repo.Create(ctx, acme))

	err := repo.Create(ctx, acme)
	assert.ErrorIs(t, err, domain.ErrConflict)

	companies, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, companies, 2)
	assert.Equal(t, "Acme Ltda", companies[0].Name)
	assert.Equal(t, "Beta S.A.", companies[1].Name)

	got, err := repo.GetByID(ctx, beta.ID)
	require.NoError(t, err)
	assert.Equal(t, beta.Name, got.Name)

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
