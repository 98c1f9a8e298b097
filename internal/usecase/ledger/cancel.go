package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/captable-backend/internal/domain"
)

// CancelSharesInput represents the input for cancelling shares
type CancelSharesInput struct {
	CompanyID         uuid.UUID
	ShareholderID     uuid.UUID
	ShareClassID      uuid.UUID
	Quantity          decimal.Decimal
	Reason            string
	ReferenceDate     time.Time
	TransactionNumber string
	Notes             string
	DocumentReference string
	Actor             domain.Actor
}

// CancelShares removes shares from a shareholder's balance
// Logic: same checks as TransferShares; the CANCEL transaction is recorded at price 0,
// then the holder's lots are consumed FIFO and marked CANCELLED (splitting the last one if needed).
// The transaction points at the first lot it consumed.
func (s *LedgerService) CancelShares(ctx context.Context, input CancelSharesInput) (*Result, error) {
	if err := validateQuantity(input.Quantity); err != nil {
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

	now := s.now()
	referenceDate := input.ReferenceDate
	if referenceDate.IsZero() {
		referenceDate = now
	}

	holderID := holder.ID
	result := &Result{}

	err = s.Transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		plan, err := s.planConsumption(ctx, company.ID, holder.ID, class.ID, input.Quantity)
		if err != nil {
			return err
		}

		number, err := s.transactionNumber(ctx, company.ID, input.TransactionNumber, now)
		if err != nil {
			return err
		}

		firstLotID := plan[0].Share.ID
		tx := &domain.ShareTransaction{
			ID:                uuid.New(),
			CompanyID:         company.ID,
			Type:              domain.TransactionTypeCancel,
			TransactionNumber: number,
			ReferenceDate:     referenceDate,
			ShareClassID:      class.ID,
			Quantity:          input.Quantity,
			PricePerUnit:      decimal.Zero,
			FromShareholderID: &holderID,
			ShareID:           &firstLotID,
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
			return fmt.Errorf("failed to record cancel transaction: %w", err)
		}
		result.Transaction = tx

		return s.consume(ctx, plan, domain.ShareStatusCancelled, tx, now, input.Actor, result)
	})
	if err != nil {
		var insufficient *domain.InsufficientBalanceError
		if errors.As(err, &insufficient) {
			s.Logger.Warn().
				Str("company_id", company.ID.String()).
				Str("shareholder_id", holder.ID.String()).
				Str("available", insufficient.Available.String()).
				Str("requested", insufficient.Requested.String()).
				Msg("cancellation rejected")
		}
		return nil, err
	}

	s.Logger.Info().
		Str("company_id", company.ID.String()).
		Str("transaction_number", result.Transaction.TransactionNumber).
		Str("shareholder_id", holder.ID.String()).
		Str("share_class", class.Code).
		Str("quantity", input.Quantity.String()).
		Str("reason", input.Reason).
		Msg("shares cancelled")

	return result, nil
}
