package captable

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/captable-backend/internal/domain"
)

// PercentagePlaces is the precision percentages are presented with
const PercentagePlaces = 2

var hundred = decimal.NewFromInt(100)

// Percentage returns part / total x 100, unrounded; a zero total yields zero
func Percentage(part, total decimal.Decimal) decimal.Decimal {
	if total.IsZero() {
		return decimal.Zero
	}
	return part.Div(total).Mul(hundred)
}

// Position is the unrounded aggregate of one (shareholder, share class) holding
type Position struct {
	Shareholder *domain.Shareholder
	ShareClass  *domain.ShareClass
	Shares      decimal.Decimal
	CostBasis   decimal.Decimal
}

// Directory resolves the shareholders and classes referenced by lots
type Directory struct {
	Shareholders map[uuid.UUID]*domain.Shareholder
	ShareClasses map[uuid.UUID]*domain.ShareClass
}

// NewDirectory indexes shareholders and classes by ID
func NewDirectory(holders []*domain.Shareholder, classes []*domain.ShareClass) Directory {
	dir := Directory{
		Shareholders: make(map[uuid.UUID]*domain.Shareholder, len(holders)),
		ShareClasses: make(map[uuid.UUID]*domain.ShareClass, len(classes)),
	}
	for _, h := range holders {
		dir.Shareholders[h.ID] = h
	}
	for _, c := range classes {
		dir.ShareClasses[c.ID] = c
	}
	return dir
}

func (d Directory) shareholder(id uuid.UUID) *domain.Shareholder {
	if h, ok := d.Shareholders[id]; ok {
		return h
	}
	// Lots may outlive a directory entry; keep them visible
	return &domain.Shareholder{ID: id, Name: id.String(), Type: domain.ShareholderTypeOther}
}

func (d Directory) shareClass(id uuid.UUID) *domain.ShareClass {
	if c, ok := d.ShareClasses[id]; ok {
		return c
	}
	return &domain.ShareClass{ID: id, Name: id.String(), Code: id.String()}
}

type holdingKey struct {
	shareholderID uuid.UUID
	shareClassID  uuid.UUID
}

// Positions groups active lots by (shareholder, share class) and returns them
// sorted descending by shares; ties are ordered by holder name, class code, then holder ID
func Positions(shares []*domain.Share, dir Directory) ([]Position, decimal.Decimal) {
	index := make(map[holdingKey]int)
	positions := make([]Position, 0)
	total := decimal.Zero

	for _, share := range shares {
		if !share.IsActive() {
			continue
		}
		total = total.Add(share.Quantity)

		key := holdingKey{shareholderID: share.ShareholderID, shareClassID: share.ShareClassID}
		i, ok := index[key]
		if !ok {
			i = len(positions)
			index[key] = i
			positions = append(positions, Position{
				Shareholder: dir.shareholder(share.ShareholderID),
				ShareClass:  dir.shareClass(share.ShareClassID),
				Shares:      decimal.Zero,
				CostBasis:   decimal.Zero,
			})
		}
		positions[i].Shares = positions[i].Shares.Add(share.Quantity)
		positions[i].CostBasis = positions[i].CostBasis.Add(share.TotalCost())
	}

	sort.SliceStable(positions, func(i, j int) bool {
		a, b := positions[i], positions[j]
		if !a.Shares.Equal(b.Shares) {
			return a.Shares.GreaterThan(b.Shares)
		}
		if a.Shareholder.Name != b.Shareholder.Name {
			return a.Shareholder.Name < b.Shareholder.Name
		}
		if a.ShareClass.Code != b.ShareClass.Code {
			return a.ShareClass.Code < b.ShareClass.Code
		}
		return a.Shareholder.ID.String() < b.Shareholder.ID.String()
	})

	return positions, total
}

// TotalVotes sums the votes carried by the positions
func TotalVotes(positions []Position) decimal.Decimal {
	votes := decimal.Zero
	for _, p := range positions {
		votes = votes.Add(p.ShareClass.Votes(p.Shares))
	}
	return votes
}

// Entry renders a position as a cap table entry against the given totals
func Entry(p Position, value, totalShares, totalVotes decimal.Decimal) domain.CapTableEntry {
	ownership := Percentage(p.Shares, totalShares).Round(PercentagePlaces)
	return domain.CapTableEntry{
		ShareholderID:          p.Shareholder.ID,
		ShareholderName:        p.Shareholder.Name,
		ShareholderType:        p.Shareholder.Type,
		ShareClassID:           p.ShareClass.ID,
		ShareClassName:         p.ShareClass.Name,
		ShareClassCode:         p.ShareClass.Code,
		Shares:                 p.Shares,
		Value:                  value,
		OwnershipPercentage:    ownership,
		VotingPercentage:       Percentage(p.ShareClass.Votes(p.Shares), totalVotes).Round(PercentagePlaces),
		FullyDilutedPercentage: ownership,
	}
}

// BuildCapTable folds a company's lots into the current-state ownership view
// Logic:
//  1. Total = sum of ACTIVE lot quantities; inactive lots are ignored
//  2. One entry per (shareholder, class) with summed quantity and cost basis
//  3. Entries sorted descending by quantity
//  4. Summaries by shareholder type (with distinct holder count) and by share class
//
// A zero total yields zero percentages.
func BuildCapTable(companyID uuid.UUID, shares []*domain.Share, dir Directory, generatedAt time.Time) *domain.CapTable {
	positions, total := Positions(shares, dir)
	totalVotes := TotalVotes(positions)

	table := &domain.CapTable{
		CompanyID:   companyID,
		TotalShares: total,
		TotalValue:  decimal.Zero,
		Entries:     make([]domain.CapTableEntry, 0, len(positions)),
		GeneratedAt: generatedAt,
	}
	for _, p := range positions {
		table.Entries = append(table.Entries, Entry(p, p.CostBasis, total, totalVotes))
		table.TotalValue = table.TotalValue.Add(p.CostBasis)
	}

	table.ByShareholderType = summarizeByType(positions, total)
	table.ByShareClass = summarizeByClass(positions, total)
	return table
}

func summarizeByType(positions []Position, total decimal.Decimal) []domain.ShareholderTypeSummary {
	shares := make(map[domain.ShareholderType]decimal.Decimal)
	holders := make(map[domain.ShareholderType]map[uuid.UUID]struct{})

	for _, p := range positions {
		t := p.Shareholder.Type
		if _, ok := holders[t]; !ok {
			holders[t] = make(map[uuid.UUID]struct{})
			shares[t] = decimal.Zero
		}
		holders[t][p.Shareholder.ID] = struct{}{}
		shares[t] = shares[t].Add(p.Shares)
	}

	summaries := make([]domain.ShareholderTypeSummary, 0, len(holders))
	for _, t := range orderedTypes(holders) {
		summaries = append(summaries, domain.ShareholderTypeSummary{
			Type:                t,
			ShareholderCount:    len(holders[t]),
			TotalShares:         shares[t],
			OwnershipPercentage: Percentage(shares[t], total).Round(PercentagePlaces),
		})
	}
	return summaries
}

// orderedTypes returns the present holder types in presentation order, unknown types last
func orderedTypes(present map[domain.ShareholderType]map[uuid.UUID]struct{}) []domain.ShareholderType {
	ordered := make([]domain.ShareholderType, 0, len(present))
	known := make(map[domain.ShareholderType]bool, len(domain.ShareholderTypes))
	for _, t := range domain.ShareholderTypes {
		known[t] = true
		if _, ok := present[t]; ok {
			ordered = append(ordered, t)
		}
	}

	unknown := make([]domain.ShareholderType, 0)
	for t := range present {
		if !known[t] {
			unknown = append(unknown, t)
		}
	}
	sort.Slice(unknown, func(i, j int) bool { return unknown[i] < unknown[j] })
	return append(ordered, unknown...)
}

func summarizeByClass(positions []Position, total decimal.Decimal) []domain.ShareClassSummary {
	index := make(map[uuid.UUID]int)
	classes := make([]*domain.ShareClass, 0)
	summaries := make([]domain.ShareClassSummary, 0)

	for _, p := range positions {
		i, ok := index[p.ShareClass.ID]
		if !ok {
			i = len(summaries)
			index[p.ShareClass.ID] = i
			classes = append(classes, p.ShareClass)
			summaries = append(summaries, domain.ShareClassSummary{
				ShareClassID:   p.ShareClass.ID,
				ShareClassName: p.ShareClass.Name,
				ShareClassCode: p.ShareClass.Code,
				TotalShares:    decimal.Zero,
				TotalValue:     decimal.Zero,
			})
		}
		summaries[i].TotalShares = summaries[i].TotalShares.Add(p.Shares)
		summaries[i].TotalValue = summaries[i].TotalValue.Add(p.CostBasis)
	}

	for i := range summaries {
		summaries[i].OwnershipPercentage = Percentage(summaries[i].TotalShares, total).Round(PercentagePlaces)
	}

	order := make([]int, len(summaries))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ca, cb := classes[order[a]], classes[order[b]]
		if ca.DisplayOrder != cb.DisplayOrder {
			return ca.DisplayOrder < cb.DisplayOrder
		}
		return ca.Code < cb.Code
	})

	sorted := make([]domain.ShareClassSummary, 0, len(summaries))
	for _, i := range order {
		sorted = append(sorted, summaries[i])
	}
	return sorted
}
