package captable

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/captable-backend/internal/adapter/repository/memory"
	"github.com/simaogato/captable-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	companyID uuid.UUID
	ana       *domain.Shareholder
	bruno     *domain.Shareholder
	carla     *domain.Shareholder
	on        *domain.ShareClass
	pn        *domain.ShareClass
}

func newFixture() fixture {
	companyID := uuid.New()
	return fixture{
		companyID: companyID,
		ana:       &domain.Shareholder{ID: uuid.New(), CompanyID: companyID, Name: "Ana", Type: domain.ShareholderTypeFounder},
		bruno:     &domain.Shareholder{ID: uuid.New(), CompanyID: companyID, Name: "Bruno", Type: domain.ShareholderTypeInvestor},
		carla:     &domain.Shareholder{ID: uuid.New(), CompanyID: companyID, Name: "Carla", Type: domain.ShareholderTypeEmployee},
		on: &domain.ShareClass{ID: uuid.New(), CompanyID: companyID, Name: "Ordinária", Code: "ON",
			HasVotingRights: true, VotesPerShare: decimal.NewFromInt(1), DisplayOrder: 1},
		pn: &domain.ShareClass{ID: uuid.New(), CompanyID: companyID, Name: "Preferencial", Code: "PN", DisplayOrder: 2},
	}
}

func (f fixture) directory() Directory {
	return NewDirectory(
		[]*domain.Shareholder{f.ana, f.bruno, f.carla},
		[]*domain.ShareClass{f.on, f.pn},
	)
}

func lot(holder *domain.Shareholder, class *domain.ShareClass, qty, price int64, status domain.ShareStatus) *domain.Share {
	return &domain.Share{
		ID:               uuid.New(),
		CompanyID:        holder.CompanyID,
		ShareholderID:    holder.ID,
		ShareClassID:     class.ID,
		Quantity:         decimal.NewFromInt(qty),
		AcquisitionPrice: decimal.NewFromInt(price),
		Status:           status,
	}
}

func TestBuildCapTable_GroupsAndSorts(t *testing.T) {
	f := newFixture()
	shares := []*domain.Share{
		lot(f.carla, f.on, 100, 1, domain.ShareStatusActive),
		lot(f.ana, f.on, 400, 1, domain.ShareStatusActive),
		lot(f.bruno, f.pn, 300, 5, domain.ShareStatusActive),
		lot(f.ana, f.on, 200, 2, domain.ShareStatusActive),
		lot(f.ana, f.on, 999, 1, domain.ShareStatusTransferred),
		lot(f.bruno, f.pn, 50, 5, domain.ShareStatusCancelled),
	}
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	table := BuildCapTable(f.companyID, shares, f.directory(), at)

	assert.True(t, table.TotalShares.Equal(decimal.NewFromInt(1000)))
	assert.True(t, table.TotalValue.Equal(decimal.NewFromInt(2400)))
	assert.Equal(t, at, table.GeneratedAt)
	require.Len(t, table.Entries, 3)

	ana := table.Entries[0]
	assert.Equal(t, f.ana.ID, ana.ShareholderID)
	assert.True(t, ana.Shares.Equal(decimal.NewFromInt(600)))
	assert.True(t, ana.Value.Equal(decimal.NewFromInt(800)))
	assert.Equal(t, "60", ana.OwnershipPercentage.String())
	assert.Equal(t, "85.71", ana.VotingPercentage.String())
	assert.True(t, ana.FullyDilutedPercentage.Equal(ana.OwnershipPercentage))

	bruno := table.Entries[1]
	assert.Equal(t, "PN", bruno.ShareClassCode)
	assert.Equal(t, "30", bruno.OwnershipPercentage.String())
	assert.True(t, bruno.VotingPercentage.IsZero())

	carla := table.Entries[2]
	assert.Equal(t, "10", carla.OwnershipPercentage.String())
	assert.Equal(t, "14.29", carla.VotingPercentage.String())

	require.Len(t, table.ByShareholderType, 3)
	assert.Equal(t, domain.ShareholderTypeFounder, table.ByShareholderType[0].Type)
	assert.Equal(t, domain.ShareholderTypeInvestor, table.ByShareholderType[1].Type)
	assert.Equal(t, domain.ShareholderTypeEmployee, table.ByShareholderType[2].Type)
	assert.Equal(t, 1, table.ByShareholderType[0].ShareholderCount)

	require.Len(t, table.ByShareClass, 2)
	assert.Equal(t, "ON", table.ByShareClass[0].ShareClassCode)
	assert.True(t, table.ByShareClass[0].TotalShares.Equal(decimal.NewFromInt(700)))
	assert.Equal(t, "70", table.ByShareClass[0].OwnershipPercentage.String())
	assert.True(t, table.ByShareClass[1].TotalValue.Equal(decimal.NewFromInt(1500)))
}

func TestBuildCapTable_DistinctHolderCountByType(t *testing.T) {
	f := newFixture()
	f.bruno.Type = domain.ShareholderTypeFounder
	shares := []*domain.Share{
		lot(f.ana, f.on, 10, 0, domain.ShareStatusActive),
		lot(f.ana, f.pn, 10, 0, domain.ShareStatusActive),
		lot(f.bruno, f.on, 10, 0, domain.ShareStatusActive),
	}

	table := BuildCapTable(f.companyID, shares, f.directory(), time.Now())

	require.Len(t, table.ByShareholderType, 1)
	assert.Equal(t, 2, table.ByShareholderType[0].ShareholderCount)
	assert.Equal(t, "100", table.ByShareholderType[0].OwnershipPercentage.String())
}

func TestBuildCapTable_ZeroTotal(t *testing.T) {
	f := newFixture()
	shares := []*domain.Share{lot(f.ana, f.on, 10, 1, domain.ShareStatusCancelled)}

	table := BuildCapTable(f.companyID, shares, f.directory(), time.Now())

	assert.True(t, table.TotalShares.IsZero())
	assert.Empty(t, table.Entries)
	assert.Empty(t, table.ByShareholderType)
	assert.Empty(t, table.ByShareClass)
	assert.True(t, Percentage(decimal.NewFromInt(5), decimal.Zero).IsZero())
}

func TestBuildCapTable_RoundsOnlyAtPresentation(t *testing.T) {
	f := newFixture()
	shares := []*domain.Share{
		lot(f.ana, f.on, 1, 0, domain.ShareStatusActive),
		lot(f.bruno, f.on, 1, 0, domain.ShareStatusActive),
		lot(f.carla, f.on, 1, 0, domain.ShareStatusActive),
	}

	table := BuildCapTable(f.companyID, shares, f.directory(), time.Now())

	require.Len(t, table.Entries, 3)
	// Equal holdings keep a deterministic order
	assert.Equal(t, "Ana", table.Entries[0].ShareholderName)
	assert.Equal(t, "Bruno", table.Entries[1].ShareholderName)
	assert.Equal(t, "Carla", table.Entries[2].ShareholderName)
	for _, e := range table.Entries {
		assert.Equal(t, "33.33", e.OwnershipPercentage.String())
	}
}

func TestBuildCapTable_UnknownHolderStaysVisible(t *testing.T) {
	f := newFixture()
	ghost := &domain.Shareholder{ID: uuid.New(), CompanyID: f.companyID}
	shares := []*domain.Share{lot(ghost, f.on, 10, 1, domain.ShareStatusActive)}

	table := BuildCapTable(f.companyID, shares, f.directory(), time.Now())

	require.Len(t, table.Entries, 1)
	assert.Equal(t, domain.ShareholderTypeOther, table.Entries[0].ShareholderType)
	assert.Equal(t, ghost.ID.String(), table.Entries[0].ShareholderName)
}

func TestBuildCapTable_Idempotent(t *testing.T) {
	f := newFixture()
	// A second holder with the same name and the same stake forces a full tie
	homonym := &domain.Shareholder{ID: uuid.New(), CompanyID: f.companyID, Name: "Ana", Type: domain.ShareholderTypeAdvisor}
	dir := NewDirectory(
		[]*domain.Shareholder{f.ana, f.bruno, f.carla, homonym},
		[]*domain.ShareClass{f.on, f.pn},
	)
	shares := []*domain.Share{
		lot(f.ana, f.on, 300, 1, domain.ShareStatusActive),
		lot(homonym, f.on, 300, 2, domain.ShareStatusActive),
		lot(f.bruno, f.pn, 300, 5, domain.ShareStatusActive),
		lot(f.carla, f.on, 100, 1, domain.ShareStatusActive),
		lot(f.carla, f.pn, 100, 1, domain.ShareStatusActive),
		lot(f.ana, f.on, 50, 1, domain.ShareStatusCancelled),
	}
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	first := BuildCapTable(f.companyID, shares, dir, at)
	second := BuildCapTable(f.companyID, shares, dir, at)
	assert.Equal(t, first, second)

	reversed := make([]*domain.Share, len(shares))
	for i, s := range shares {
		reversed[len(shares)-1-i] = s
	}
	rotated := append(append([]*domain.Share{}, shares[2:]...), shares[:2]...)

	for name, order := range map[string][]*domain.Share{"reversed": reversed, "rotated": rotated} {
		t.Run(name, func(t *testing.T) {
			table := BuildCapTable(f.companyID, order, dir, at)
			assert.Equal(t, first.Entries, table.Entries)
			assert.Equal(t, first.ByShareholderType, table.ByShareholderType)
			assert.Equal(t, first.ByShareClass, table.ByShareClass)
			assert.True(t, first.TotalShares.Equal(table.TotalShares))
			assert.True(t, first.TotalValue.Equal(table.TotalValue))
		})
	}
}

func TestCapTableService_GetCapTableTwice(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	store := memory.NewStore()
	store.AddCompany(domain.Company{ID: f.companyID, Name: "Acme"})

	holders := memory.NewShareholderRepository(store)
	classes := memory.NewShareClassRepository(store)
	shareRepo := memory.NewShareRepository(store)

	for i, h := range []*domain.Shareholder{f.ana, f.bruno, f.carla} {
		h.Document = []string{"1", "2", "3"}[i]
		h.Status = domain.ShareholderStatusActive
		require.NoError(t, holders.Create(ctx, h))
	}
	for _, c := range []*domain.ShareClass{f.on, f.pn} {
		c.Status = domain.ShareClassStatusActive
		require.NoError(t, classes.Create(ctx, c))
	}
	require.NoError(t, shareRepo.Create(ctx, lot(f.ana, f.on, 40, 1, domain.ShareStatusActive)))
	require.NoError(t, shareRepo.Create(ctx, lot(f.bruno, f.pn, 40, 3, domain.ShareStatusActive)))
	require.NoError(t, shareRepo.Create(ctx, lot(f.carla, f.on, 20, 1, domain.ShareStatusActive)))

	service := NewCapTableService(memory.NewCompanyRepository(store), holders, classes, shareRepo)
	at := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	service.Clock = func() time.Time { return at }

	first, err := service.GetCapTable(ctx, f.companyID)
	require.NoError(t, err)
	second, err := service.GetCapTable(ctx, f.companyID)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	require.Len(t, first.Entries, 3)
	assert.Equal(t, "Ana", first.Entries[0].ShareholderName)
	assert.Equal(t, "Bruno", first.Entries[1].ShareholderName)
}

func TestCapTableService_GetCapTable(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	store := memory.NewStore()
	store.AddCompany(domain.Company{ID: f.companyID, Name: "Acme"})

	holders := memory.NewShareholderRepository(store)
	classes := memory.NewShareClassRepository(store)
	shareRepo := memory.NewShareRepository(store)

	for i, h := range []*domain.Shareholder{f.ana, f.bruno} {
		h.Document = []string{"1", "2"}[i]
		h.Status = domain.ShareholderStatusActive
		require.NoError(t, holders.Create(ctx, h))
	}
	f.on.Status = domain.ShareClassStatusActive
	require.NoError(t, classes.Create(ctx, f.on))
	require.NoError(t, shareRepo.Create(ctx, lot(f.ana, f.on, 75, 1, domain.ShareStatusActive)))
	require.NoError(t, shareRepo.Create(ctx, lot(f.bruno, f.on, 25, 1, domain.ShareStatusActive)))

	service := NewCapTableService(memory.NewCompanyRepository(store), holders, classes, shareRepo)
	table, err := service.GetCapTable(ctx, f.companyID)
	require.NoError(t, err)

	require.Len(t, table.Entries, 2)
	assert.Equal(t, "Ana", table.Entries[0].ShareholderName)
	assert.Equal(t, "75", table.Entries[0].OwnershipPercentage.String())

	_, err = service.GetCapTable(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
