package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/simaogato/captable-backend/internal/domain"
)

type shareTransactionRow struct {
	ID                uuid.UUID       `db:"id"`
	CompanyID         uuid.UUID       `db:"company_id"`
	Type              string          `db:"type"`
	TransactionNumber string          `db:"transaction_number"`
	ReferenceDate     time.Time       `db:"reference_date"`
	ShareClassID      uuid.UUID       `db:"share_class_id"`
	Quantity          decimal.Decimal `db:"quantity"`
	PricePerUnit      decimal.Decimal `db:"price_per_unit"`
	FromShareholderID uuid.NullUUID   `db:"from_shareholder_id"`
	ToShareholderID   uuid.NullUUID   `db:"to_shareholder_id"`
	ShareID           uuid.NullUUID   `db:"share_id"`
	Reason            string          `db:"reason"`
	Notes             string          `db:"notes"`
	DocumentReference string          `db:"document_reference"`
	ApprovedBy        uuid.NullUUID   `db:"approved_by"`
	ApprovedAt        sql.NullTime    `db:"approved_at"`
	CreatedAt         time.Time       `db:"created_at"`
	CreatedBy         uuid.UUID       `db:"created_by"`
}

const shareTransactionColumns = `
	id, company_id, type, transaction_number, reference_date, share_class_id, quantity,
	price_per_unit, from_shareholder_id, to_shareholder_id, share_id, reason, notes,
	document_reference, approved_by, approved_at, created_at, created_by
`

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func uuidPtr(id uuid.NullUUID) *uuid.UUID {
	if !id.Valid {
		return nil
	}
	v := id.UUID
	return &v
}

func newShareTransactionRow(t *domain.ShareTransaction) shareTransactionRow {
	row := shareTransactionRow{
		ID:                t.ID,
		CompanyID:         t.CompanyID,
		Type:              string(t.Type),
		TransactionNumber: t.TransactionNumber,
		ReferenceDate:     t.ReferenceDate,
		ShareClassID:      t.ShareClassID,
		Quantity:          t.Quantity,
		PricePerUnit:      t.PricePerUnit,
		FromShareholderID: nullUUID(t.FromShareholderID),
		ToShareholderID:   nullUUID(t.ToShareholderID),
		ShareID:           nullUUID(t.ShareID),
		Reason:            t.Reason,
		Notes:             t.Notes,
		DocumentReference: t.DocumentReference,
		ApprovedBy:        nullUUID(t.ApprovedBy),
		CreatedAt:         t.CreatedAt,
		CreatedBy:         t.CreatedBy,
	}
	if t.ApprovedAt != nil {
		row.ApprovedAt = sql.NullTime{Time: *t.ApprovedAt, Valid: true}
	}
	return row
}

func (r shareTransactionRow) toDomain() *domain.ShareTransaction {
	t := &domain.ShareTransaction{
		ID:                r.ID,
		CompanyID:         r.CompanyID,
		Type:              domain.TransactionType(r.Type),
		TransactionNumber: r.TransactionNumber,
		ReferenceDate:     r.ReferenceDate,
		ShareClassID:      r.ShareClassID,
		Quantity:          r.Quantity,
		PricePerUnit:      r.PricePerUnit,
		FromShareholderID: uuidPtr(r.FromShareholderID),
		ToShareholderID:   uuidPtr(r.ToShareholderID),
		ShareID:           uuidPtr(r.ShareID),
		Reason:            r.Reason,
		Notes:             r.Notes,
		DocumentReference: r.DocumentReference,
		ApprovedBy:        uuidPtr(r.ApprovedBy),
		CreatedAt:         r.CreatedAt,
		CreatedBy:         r.CreatedBy,
	}
	if r.ApprovedAt.Valid {
		v := r.ApprovedAt.Time
		t.ApprovedAt = &v
	}
	return t
}

type shareTransactionRepository struct {
	db *DB
}

// NewShareTransactionRepository creates a new PostgreSQL ledger repository
func NewShareTransactionRepository(db *DB) domain.ShareTransactionRepository {
	return &shareTransactionRepository{db: db}
}

// Create appends a new transaction record; the table is never updated
func (r *shareTransactionRepository) Create(ctx context.Context, tx *domain.ShareTransaction) error {
	query := `
		INSERT INTO share_transactions (` + shareTransactionColumns + `)
		VALUES (
			:id, :company_id, :type, :transaction_number, :reference_date, :share_class_id, :quantity,
			:price_per_unit, :from_shareholder_id, :to_shareholder_id, :share_id, :reason, :notes,
			:document_reference, :approved_by, :approved_at, :created_at, :created_by
		)
	`

	if _, err := sqlx.NamedExecContext(ctx, r.db.conn(ctx), query, newShareTransactionRow(tx)); err != nil {
		return fmt.Errorf("failed to create share transaction: %w",
			translate(err, "share transaction", "transaction_number", tx.TransactionNumber))
	}
	return nil
}

// GetByID retrieves a transaction by its ID
func (r *shareTransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ShareTransaction, error) {
	query := `SELECT ` + shareTransactionColumns + `
		FROM share_transactions
		WHERE id = $1
	`

	var row shareTransactionRow
	if err := r.db.conn(ctx).GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("share transaction", id)
		}
		return nil, fmt.Errorf("failed to get share transaction: %w", err)
	}
	return row.toDomain(), nil
}

// CountByCompany returns the number of transactions recorded for a company
func (r *shareTransactionRepository) CountByCompany(ctx context.Context, companyID uuid.UUID) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM share_transactions WHERE company_id = $1`
	if err := r.db.conn(ctx).GetContext(ctx, &count, query, companyID); err != nil {
		return 0, fmt.Errorf("failed to count share transactions: %w", err)
	}
	return count, nil
}

// ledgerLockKey names the advisory lock guarding transaction numbering of one company
func ledgerLockKey(companyID uuid.UUID) string {
	return fmt.Sprintf("captable-ledger:%s", companyID)
}

// LockLedger takes a transaction-scoped advisory lock on the company ledger.
// Callers take it after any holding lock so the lock order stays the same everywhere.
func (r *shareTransactionRepository) LockLedger(ctx context.Context, companyID uuid.UUID) error {
	if !inTransaction(ctx) {
		return errLockOutsideTransaction
	}

	if _, err := r.db.conn(ctx).ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, ledgerLockKey(companyID)); err != nil {
		return fmt.Errorf("failed to acquire ledger lock: %w", err)
	}
	return nil
}

// ListByCompany retrieves a page of the company ledger, oldest first
func (r *shareTransactionRepository) ListByCompany(ctx context.Context, companyID uuid.UUID, limit, offset int) ([]*domain.ShareTransaction, error) {
	query := `SELECT ` + shareTransactionColumns + `
		FROM share_transactions
		WHERE company_id = $1
		ORDER BY created_at, transaction_number
		OFFSET $2
	`
	args := []interface{}{companyID, offset}
	if limit > 0 {
		query += ` LIMIT $3`
		args = append(args, limit)
	}

	var rows []shareTransactionRow
	if err := r.db.conn(ctx).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list share transactions: %w", err)
	}

	txs := make([]*domain.ShareTransaction, 0, len(rows))
	for _, row := range rows {
		txs = append(txs, row.toDomain())
	}
	return txs, nil
}
