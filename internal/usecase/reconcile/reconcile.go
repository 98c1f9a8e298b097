package reconcile

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/simaogato/captable-backend/internal/domain"
)

// HoldingCheck compares one (shareholder, class) balance as seen by the ledger and by the lots
type HoldingCheck struct {
	ShareholderID uuid.UUID
	ShareClassID  uuid.UUID
	LedgerBalance decimal.Decimal // Sum of signed transaction deltas
	LotBalance    decimal.Decimal // Sum of active lot quantities
}

// Difference returns ledger balance - lot balance
func (h HoldingCheck) Difference() decimal.Decimal {
	return h.LedgerBalance.Sub(h.LotBalance)
}

// Consistent reports whether both views agree
func (h HoldingCheck) Consistent() bool {
	return h.LedgerBalance.Equal(h.LotBalance)
}

// Report is the outcome of a ledger/lot reconciliation
type Report struct {
	CompanyID        uuid.UUID
	Transactions     int
	Holdings         []HoldingCheck
	Mismatches       []HoldingCheck
	NegativeBalances []HoldingCheck // Holdings whose ledger balance went below zero
	DanglingLots     []uuid.UUID    // Active lots whose originating transaction is missing
}

// Consistent reports whether the report found no problem
func (r *Report) Consistent() bool {
	return len(r.Mismatches) == 0 && len(r.NegativeBalances) == 0 && len(r.DanglingLots) == 0
}

type holdingKey struct {
	shareholderID uuid.UUID
	shareClassID  uuid.UUID
}

// Compare rebuilds balances from the ledger and checks them against the active lots
// Logic:
//   - Every transaction applies its signed delta to the sending and receiving holdings
//     (a transfer to oneself nets to zero)
//   - Active lots are summed per holding
//   - Holdings where the two sums differ are mismatches
//   - Active lots that point to an unknown transaction are dangling
func Compare(companyID uuid.UUID, txs []*domain.ShareTransaction, shares []*domain.Share) *Report {
	checks := make(map[holdingKey]*HoldingCheck)
	get := func(holderID, classID uuid.UUID) *HoldingCheck {
		key := holdingKey{shareholderID: holderID, shareClassID: classID}
		check, ok := checks[key]
		if !ok {
			check = &HoldingCheck{
				ShareholderID: holderID,
				ShareClassID:  classID,
				LedgerBalance: decimal.Zero,
				LotBalance:    decimal.Zero,
			}
			checks[key] = check
		}
		return check
	}

	known := make(map[uuid.UUID]struct{}, len(txs))
	for _, tx := range txs {
		known[tx.ID] = struct{}{}

		parties := make([]uuid.UUID, 0, 2)
		if tx.FromShareholderID != nil {
			parties = append(parties, *tx.FromShareholderID)
		}
		if tx.ToShareholderID != nil && (tx.FromShareholderID == nil || *tx.ToShareholderID != *tx.FromShareholderID) {
			parties = append(parties, *tx.ToShareholderID)
		}
		for _, party := range parties {
			check := get(party, tx.ShareClassID)
			check.LedgerBalance = check.LedgerBalance.Add(tx.Delta(party))
		}
	}

	report := &Report{
		CompanyID:        companyID,
		Transactions:     len(txs),
		Holdings:         make([]HoldingCheck, 0, len(checks)),
		Mismatches:       make([]HoldingCheck, 0),
		NegativeBalances: make([]HoldingCheck, 0),
		DanglingLots:     make([]uuid.UUID, 0),
	}

	for _, share := range shares {
		if !share.IsActive() {
			continue
		}
		check := get(share.ShareholderID, share.ShareClassID)
		check.LotBalance = check.LotBalance.Add(share.Quantity)
		if _, ok := known[share.TransactionID]; !ok {
			report.DanglingLots = append(report.DanglingLots, share.ID)
		}
	}

	for _, check := range checks {
		report.Holdings = append(report.Holdings, *check)
	}
	sort.Slice(report.Holdings, func(i, j int) bool {
		a, b := report.Holdings[i], report.Holdings[j]
		if a.ShareholderID != b.ShareholderID {
			return bytes.Compare(a.ShareholderID[:], b.ShareholderID[:]) < 0
		}
		return bytes.Compare(a.ShareClassID[:], b.ShareClassID[:]) < 0
	})

	for _, check := range report.Holdings {
		if !check.Consistent() {
			report.Mismatches = append(report.Mismatches, check)
		}
		if check.LedgerBalance.LessThan(decimal.Zero) {
			report.NegativeBalances = append(report.NegativeBalances, check)
		}
	}

	return report
}

// Service reconciles the ledger of a company with its share lots
type Service struct {
	CompanyRepo     domain.CompanyRepository
	ShareRepo       domain.ShareRepository
	TransactionRepo domain.ShareTransactionRepository
	Logger          zerolog.Logger
}

// NewService creates a new reconciliation Service
func NewService(
	companyRepo domain.CompanyRepository,
	shareRepo domain.ShareRepository,
	transactionRepo domain.ShareTransactionRepository,
) *Service {
	return &Service{
		CompanyRepo:     companyRepo,
		ShareRepo:       shareRepo,
		TransactionRepo: transactionRepo,
		Logger:          zerolog.Nop(),
	}
}

// Reconcile checks every holding of a company
func (s *Service) Reconcile(ctx context.Context, companyID uuid.UUID) (*Report, error) {
	if _, err := s.CompanyRepo.GetByID(ctx, companyID); err != nil {
		return nil, err
	}

	txs, err := s.TransactionRepo.ListByCompany(ctx, companyID, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	shares, err := s.ShareRepo.ListActiveByCompany(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active shares: %w", err)
	}

	report := Compare(companyID, txs, shares)
	if !report.Consistent() {
		s.Logger.Warn().
			Str("company_id", companyID.String()).
			Int("mismatches", len(report.Mismatches)).
			Int("negative", len(report.NegativeBalances)).
			Int("dangling_lots", len(report.DanglingLots)).
			Msg("ledger and share lots disagree")
	}
	return report, nil
}
