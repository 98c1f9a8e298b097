package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/simaogato/captable-backend/internal/domain"
)

type shareRow struct {
	ID                uuid.UUID       `db:"id"`
	CompanyID         uuid.UUID       `db:"company_id"`
	ShareholderID     uuid.UUID       `db:"shareholder_id"`
	ShareClassID      uuid.UUID       `db:"share_class_id"`
	Quantity          decimal.Decimal `db:"quantity"`
	AcquisitionPrice  decimal.Decimal `db:"acquisition_price"`
	AcquisitionDate   time.Time       `db:"acquisition_date"`
	Origin            string          `db:"origin"`
	CertificateNumber string          `db:"certificate_number"`
	TransactionID     uuid.UUID       `db:"transaction_id"`
	ParentShareID     uuid.NullUUID   `db:"parent_share_id"`
	Status            string          `db:"status"`
	CreatedAt         time.Time       `db:"created_at"`
	CreatedBy         uuid.UUID       `db:"created_by"`
	UpdatedAt         time.Time       `db:"updated_at"`
}

const shareColumns = `
	id, company_id, shareholder_id, share_class_id, quantity, acquisition_price,
	acquisition_date, origin, certificate_number, transaction_id, parent_share_id,
	status, created_at, created_by, updated_at
`

func newShareRow(s *domain.Share) shareRow {
	row := shareRow{
		ID:                s.ID,
		CompanyID:         s.CompanyID,
		ShareholderID:     s.ShareholderID,
		ShareClassID:      s.ShareClassID,
		Quantity:          s.Quantity,
		AcquisitionPrice:  s.AcquisitionPrice,
		AcquisitionDate:   s.AcquisitionDate,
		Origin:            string(s.Origin),
		CertificateNumber: s.CertificateNumber,
		TransactionID:     s.TransactionID,
		Status:            string(s.Status),
		CreatedAt:         s.CreatedAt,
		CreatedBy:         s.CreatedBy,
		UpdatedAt:         s.UpdatedAt,
	}
	if s.ParentShareID != nil {
		row.ParentShareID = uuid.NullUUID{UUID: *s.ParentShareID, Valid: true}
	}
	return row
}

func (r shareRow) toDomain() *domain.Share {
	s := &domain.Share{
		ID:                r.ID,
		CompanyID:         r.CompanyID,
		ShareholderID:     r.ShareholderID,
		ShareClassID:      r.ShareClassID,
		Quantity:          r.Quantity,
		AcquisitionPrice:  r.AcquisitionPrice,
		AcquisitionDate:   r.AcquisitionDate,
		Origin:            domain.ShareOrigin(r.Origin),
		CertificateNumber: r.CertificateNumber,
		TransactionID:     r.TransactionID,
		Status:            domain.ShareStatus(r.Status),
		CreatedAt:         r.CreatedAt,
		CreatedBy:         r.CreatedBy,
		UpdatedAt:         r.UpdatedAt,
	}
	if r.ParentShareID.Valid {
		v := r.ParentShareID.UUID
		s.ParentShareID = &v
	}
	return s
}

type shareRepository struct {
	db *DB
}

// NewShareRepository creates a new PostgreSQL share lot repository
func NewShareRepository(db *DB) domain.ShareRepository {
	return &shareRepository{db: db}
}

// Create creates a new share lot
func (r *shareRepository) Create(ctx context.Context, share *domain.Share) error {
	query := `
		INSERT INTO shares (` + shareColumns + `)
		VALUES (
			:id, :company_id, :shareholder_id, :share_class_id, :quantity, :acquisition_price,
			:acquisition_date, :origin, :certificate_number, :transaction_id, :parent_share_id,
			:status, :created_at, :created_by, :updated_at
		)
	`

	if _, err := sqlx.NamedExecContext(ctx, r.db.conn(ctx), query, newShareRow(share)); err != nil {
		return fmt.Errorf("failed to create share lot: %w", translate(err, "share", "id", share.ID.String()))
	}
	return nil
}

// UpdateStatus moves an ACTIVE lot to TRANSFERRED or CANCELLED
func (r *shareRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ShareStatus, updatedAt time.Time) error {
	if status != domain.ShareStatusTransferred && status != domain.ShareStatusCancelled {
		return domain.NewValidationError("status", status, "share lots can only move to TRANSFERRED or CANCELLED")
	}

	query := `
		UPDATE shares
		SET status = $2, updated_at = $3
		WHERE id = $1 AND status = 'ACTIVE'
	`

	result, err := r.db.conn(ctx).ExecContext(ctx, query, id, string(status), updatedAt)
	if err != nil {
		return fmt.Errorf("failed to update share lot status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n > 0 {
		return nil
	}

	var exists bool
	if err := r.db.conn(ctx).GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM shares WHERE id = $1)`, id); err != nil {
		return fmt.Errorf("failed to check share lot: %w", err)
	}
	if !exists {
		return domain.NewNotFoundError("share", id)
	}
	return domain.ErrShareNotActive
}

func (r *shareRepository) list(ctx context.Context, query string, args ...interface{}) ([]*domain.Share, error) {
	var rows []shareRow
	if err := r.db.conn(ctx).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	shares := make([]*domain.Share, 0, len(rows))
	for _, row := range rows {
		shares = append(shares, row.toDomain())
	}
	return shares, nil
}

// ListActiveByCompany retrieves every active lot of a company
func (r *shareRepository) ListActiveByCompany(ctx context.Context, companyID uuid.UUID) ([]*domain.Share, error) {
	query := `SELECT ` + shareColumns + `
		FROM shares
		WHERE company_id = $1 AND status = 'ACTIVE'
		ORDER BY acquisition_date, created_at, id
	`

	shares, err := r.list(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active share lots: %w", err)
	}
	return shares, nil
}

// ListActiveByHolding retrieves the active lots of one holding, oldest acquisition first
func (r *shareRepository) ListActiveByHolding(ctx context.Context, shareholderID, shareClassID uuid.UUID) ([]*domain.Share, error) {
	query := `SELECT ` + shareColumns + `
		FROM shares
		WHERE shareholder_id = $1 AND share_class_id = $2 AND status = 'ACTIVE'
		ORDER BY acquisition_date, created_at, id
	`

	shares, err := r.list(ctx, query, shareholderID, shareClassID)
	if err != nil {
		return nil, fmt.Errorf("failed to list holding share lots: %w", err)
	}
	return shares, nil
}

// ListByCompany retrieves every lot of a company regardless of status
func (r *shareRepository) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]*domain.Share, error) {
	query := `SELECT ` + shareColumns + `
		FROM shares
		WHERE company_id = $1
		ORDER BY created_at, id
	`

	shares, err := r.list(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list share lots: %w", err)
	}
	return shares, nil
}

func (r *shareRepository) sum(ctx context.Context, query string, args ...interface{}) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	if err := r.db.conn(ctx).GetContext(ctx, &total, query, args...); err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

// BalanceOf returns the sum of active lot quantities of a shareholder in a class
func (r *shareRepository) BalanceOf(ctx context.Context, shareholderID, shareClassID uuid.UUID) (decimal.Decimal, error) {
	query := `
		SELECT SUM(quantity) FROM shares
		WHERE shareholder_id = $1 AND share_class_id = $2 AND status = 'ACTIVE'
	`

	total, err := r.sum(ctx, query, shareholderID, shareClassID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to compute balance: %w", err)
	}
	return total, nil
}

// TotalByCompany returns the sum of active lot quantities of a company
func (r *shareRepository) TotalByCompany(ctx context.Context, companyID uuid.UUID) (decimal.Decimal, error) {
	query := `SELECT SUM(quantity) FROM shares WHERE company_id = $1 AND status = 'ACTIVE'`

	total, err := r.sum(ctx, query, companyID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to compute company total: %w", err)
	}
	return total, nil
}

// TotalByClass returns the sum of active lot quantities of a share class
func (r *shareRepository) TotalByClass(ctx context.Context, shareClassID uuid.UUID) (decimal.Decimal, error) {
	query := `SELECT SUM(quantity) FROM shares WHERE share_class_id = $1 AND status = 'ACTIVE'`

	total, err := r.sum(ctx, query, shareClassID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to compute class total: %w", err)
	}
	return total, nil
}

// holdingLockKey names the advisory lock of one (company, shareholder, class) holding
func holdingLockKey(companyID, shareholderID, shareClassID uuid.UUID) string {
	return fmt.Sprintf("captable:%s:%s:%s", companyID, shareholderID, shareClassID)
}

var errLockOutsideTransaction = errors.New("holding lock requires an open unit of work")

// LockHolding takes a transaction-scoped advisory lock released on commit or rollback
func (r *shareRepository) LockHolding(ctx context.Context, companyID, shareholderID, shareClassID uuid.UUID) error {
	if !inTransaction(ctx) {
		return errLockOutsideTransaction
	}

	key := holdingLockKey(companyID, shareholderID, shareClassID)
	if _, err := r.db.conn(ctx).ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
		return fmt.Errorf("failed to acquire holding lock: %w", err)
	}
	return nil
}
