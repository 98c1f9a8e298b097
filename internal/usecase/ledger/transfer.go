package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/captable-backend/internal/domain"
	"github.com/simaogato/captable-backend/internal/usecase/lots"
)

// TransferSharesInput represents the input for transferring shares between shareholders
type TransferSharesInput struct {
	CompanyID         uuid.UUID
	FromShareholderID uuid.UUID
	ToShareholderID   uuid.UUID
	ShareClassID      uuid.UUID
	Quantity          decimal.Decimal
	PricePerUnit      decimal.Decimal
	ReferenceDate     time.Time
	TransactionNumber string
	CertificateNumber string // Certificate of the recipient lot
	Reason            string
	Notes             string
	DocumentReference string
	Actor             domain.Actor
}

// TransferShares moves shares of one class from one shareholder to another
// Logic:
//  1. Validate quantity and price; fetch Company, both Shareholders and the Share Class
//  2. In one unit of work:
//     - Lock the sender holding and check its balance (sum of active lots) covers the quantity
//     - Append the TRANSFER transaction
//     - Create one active lot for the recipient (origin TRANSFER, price = transfer price)
//     - Consume the sender's lots FIFO; a partially consumed lot is split into a
//     TRANSFERRED lot and an active remainder lot
//
// from == to is not rejected here; it nets to a zero balance change.
func (s *LedgerService) TransferShares(ctx context.Context, input TransferSharesInput) (*Result, error) {
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
	from, err := s.loadShareholder(ctx, company.ID, input.FromShareholderID)
	if err != nil {
		return nil, err
	}
	to, err := s.loadShareholder(ctx, company.ID, input.ToShareholderID)
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

	fromID := from.ID
	toID := to.ID
	recipientLotID := uuid.New()
	result := &Result{}

	err = s.Transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		plan, err := s.planConsumption(ctx, company.ID, from.ID, class.ID, input.Quantity)
		if err != nil {
			return err
		}

		number, err := s.transactionNumber(ctx, company.ID, input.TransactionNumber, now)
		if err != nil {
			return err
		}

		tx := &domain.ShareTransaction{
			ID:                uuid.New(),
			CompanyID:         company.ID,
			Type:              domain.TransactionTypeTransfer,
			TransactionNumber: number,
			ReferenceDate:     referenceDate,
			ShareClassID:      class.ID,
			Quantity:          input.Quantity,
			PricePerUnit:      input.PricePerUnit,
			FromShareholderID: &fromID,
			ToShareholderID:   &toID,
			ShareID:           &recipientLotID,
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
			return fmt.Errorf("failed to record transfer transaction: %w", err)
		}
		result.Transaction = tx

		recipientLot := &domain.Share{
			ID:                recipientLotID,
			CompanyID:         company.ID,
			ShareholderID:     to.ID,
			ShareClassID:      class.ID,
			Quantity:          input.Quantity,
			AcquisitionPrice:  input.PricePerUnit,
			AcquisitionDate:   referenceDate,
			Origin:            domain.ShareOriginTransfer,
			CertificateNumber: input.CertificateNumber,
			TransactionID:     tx.ID,
			Status:            domain.ShareStatusActive,
			CreatedAt:         now,
			CreatedBy:         input.Actor.UserID,
			UpdatedAt:         now,
		}
		if err := recipientLot.Validate(); err != nil {
			return err
		}
		if err := s.ShareRepo.Create(ctx, recipientLot); err != nil {
			return fmt.Errorf("failed to create recipient share lot: %w", err)
		}
		result.Share = recipientLot

		return s.consume(ctx, plan, domain.ShareStatusTransferred, tx, now, input.Actor, result)
	})
	if err != nil {
		var insufficient *domain.InsufficientBalanceError
		if errors.As(err, &insufficient) {
			s.Logger.Warn().
				Str("company_id", company.ID.String()).
				Str("shareholder_id", from.ID.String()).
				Str("available", insufficient.Available.String()).
				Str("requested", insufficient.Requested.String()).
				Msg("transfer rejected")
		}
		return nil, err
	}

	s.Logger.Info().
		Str("company_id", company.ID.String()).
		Str("transaction_number", result.Transaction.TransactionNumber).
		Str("from_shareholder_id", from.ID.String()).
		Str("to_shareholder_id", to.ID.String()).
		Str("share_class", class.Code).
		Str("quantity", input.Quantity.String()).
		Int("lots_consumed", len(result.Consumed)).
		Int("lots_split", len(result.Remainders)).
		Msg("shares transferred")

	return result, nil
}

// planConsumption locks the holding, checks its balance and plans the FIFO consumption
func (s *LedgerService) planConsumption(ctx context.Context, companyID, shareholderID, shareClassID uuid.UUID, quantity decimal.Decimal) ([]lots.Consumption, error) {
	if err := s.ShareRepo.LockHolding(ctx, companyID, shareholderID, shareClassID); err != nil {
		return nil, fmt.Errorf("failed to lock holding: %w", err)
	}

	available, err := s.ShareRepo.BalanceOf(ctx, shareholderID, shareClassID)
	if err != nil {
		return nil, fmt.Errorf("failed to read balance: %w", err)
	}
	if available.LessThan(quantity) {
		return nil, &domain.InsufficientBalanceError{
			ShareholderID: shareholderID,
			ShareClassID:  shareClassID,
			Available:     available,
			Requested:     quantity,
		}
	}

	held, err := s.ShareRepo.ListActiveByHolding(ctx, shareholderID, shareClassID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active lots: %w", err)
	}

	plan, err := lots.PlanFIFO(held, quantity)
	if err != nil {
		return nil, fmt.Errorf("balance and active lots disagree: %w", err)
	}
	return plan, nil
}

// consume moves every planned lot to a terminal status and creates the remainder lots of split lots.
// Runs after the transaction record is appended; any failure aborts the unit of work.
func (s *LedgerService) consume(
	ctx context.Context,
	plan []lots.Consumption,
	status domain.ShareStatus,
	tx *domain.ShareTransaction,
	now time.Time,
	actor domain.Actor,
	result *Result,
) error {
	for _, c := range plan {
		if err := s.ShareRepo.UpdateStatus(ctx, c.Share.ID, status, now); err != nil {
			return fmt.Errorf("failed to mark share lot %s as %s: %w", c.Share.ID, status, err)
		}
		result.Consumed = append(result.Consumed, c.Share.ID)

		remainder := lots.Remainder(c, tx.ID, now, actor.UserID)
		if remainder == nil {
			continue
		}
		if err := s.ShareRepo.Create(ctx, remainder); err != nil {
			return fmt.Errorf("failed to create remainder of share lot %s: %w", c.Share.ID, err)
		}
		result.Remainders = append(result.Remainders, remainder)
	}
	return nil
}
