package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/captable-backend/internal/domain"
)

// IssueSharesInput represents the input for issuing new shares
type IssueSharesInput struct {
	CompanyID         uuid.UUID
	ShareholderID     uuid.UUID
	ShareClassID      uuid.UUID
	Quantity          decimal.Decimal
	PricePerUnit      decimal.Decimal
	ReferenceDate     time.Time // Defaults to the service clock
	TransactionNumber string    // Allocated when empty
	CertificateNumber string
	Reason            string
	Notes             string
	DocumentReference string
	Actor             domain.Actor
}

// IssueShares creates new shares for a shareholder
// Logic:
//  1. Validate quantity (> 0) and price (>= 0)
//  2. Fetch Company, Shareholder and Share Class; all must belong to the same company
//  3. Reject inactive share classes
//  4. In one unit of work: append the ISSUE transaction, then create the active lot it points to
func (s *LedgerService) IssueShares(ctx context.Context, input IssueSharesInput) (*Result, error) {
	if err := validateQuantity(input.Quantity); err != nil {
		return nil, err
	}
	if err := validatePrice(input.PricePerUnit); err != nil {
		return nil, err
	}

	company, err := s.loadCompany(ctx, input.CompanyID, input.Actor)
	if err != nil {
		return nil, err
	}
	holder, err := s.loadShareholder(ctx, company.ID, input.ShareholderID)
	if err != nil {
		return nil, err
	}
	class, err := s.loadShareClass(ctx, company.ID, input.ShareClassID)
	if err != nil {
		return nil, err
	}
	if !class.IsActive() {
		return nil, domain.NewBusinessRuleError("inactive_share_class",
			fmt.Sprintf("share class %s is not active and cannot receive new issuances", class.Code))
	}

	now := s.now()
	referenceDate := input.ReferenceDate
	if referenceDate.IsZero() {
		referenceDate = now
	}

	shareID := uuid.New()
	holderID := holder.ID
	result := &Result{}

	err = s.Transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		number, err := s.transactionNumber(ctx, company.ID, input.TransactionNumber, now)
		if err != nil {
			return err
		}

		tx := &domain.ShareTransaction{
			ID:                uuid.New(),
			CompanyID:         company.ID,
			Type:              domain.TransactionTypeIssue,
			TransactionNumber: number,
			ReferenceDate:     referenceDate,
			ShareClassID:      class.ID,
			Quantity:          input.Quantity,
			PricePerUnit:      input.PricePerUnit,
			ToShareholderID:   &holderID,
			ShareID:           &shareID,
			Reason:            input.Reason,
			Notes:             input.Notes,
			DocumentReference: input.DocumentReference,
			CreatedAt:         now,
			CreatedBy:         input.Actor.UserID,
		}
		if err := tx.Validate(); err != nil {
			return err
		}
		if err := s.TransactionRepo.Create(ctx, tx); err != nil {
			return fmt.Errorf("failed to record issue transaction: %w", err)
		}

		share := &domain.Share{
			ID:                shareID,
			CompanyID:         company.ID,
			ShareholderID:     holder.ID,
			ShareClassID:      class.ID,
			Quantity:          input.Quantity,
			AcquisitionPrice:  input.PricePerUnit,
			AcquisitionDate:   referenceDate,
			Origin:            domain.ShareOriginIssue,
			CertificateNumber: input.CertificateNumber,
			TransactionID:     tx.ID,
			Status:            domain.ShareStatusActive,
			CreatedAt:         now,
			CreatedBy:         input.Actor.UserID,
			UpdatedAt:         now,
		}
		if err := share.Validate(); err != nil {
			return err
		}
		if err := s.ShareRepo.Create(ctx, share); err != nil {
			return fmt.Errorf("failed to create share lot: %w", err)
		}

		result.Transaction = tx
		result.Share = share
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info().
		Str("company_id", company.ID.String()).
		Str("transaction_number", result.Transaction.TransactionNumber).
		Str("shareholder_id", holder.ID.String()).
		Str("share_class", class.Code).
		Str("quantity", input.Quantity.String()).
		Msg("shares issued")

	return result, nil
}
