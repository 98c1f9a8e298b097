package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/simaogato/captable-backend/internal/domain"
)

type shareholderRow struct {
	ID           uuid.UUID `db:"id"`
	CompanyID    uuid.UUID `db:"company_id"`
	Name         string    `db:"name"`
	Document     string    `db:"document"`
	DocumentType string    `db:"document_type"`
	Type         string    `db:"type"`
	Email        string    `db:"email"`
	Phone        string    `db:"phone"`
	Address      string    `db:"address"`
	Status       string    `db:"status"`
	CreatedAt    time.Time `db:"created_at"`
	CreatedBy    uuid.UUID `db:"created_by"`
	UpdatedAt    time.Time `db:"updated_at"`
}

const shareholderColumns = `
	id, company_id, name, document, document_type, type, email, phone, address,
	status, created_at, created_by, updated_at
`

func newShareholderRow(s *domain.Shareholder) shareholderRow {
	return shareholderRow{
		ID:           s.ID,
		CompanyID:    s.CompanyID,
		Name:         s.Name,
		Document:     domain.NormalizeDocument(s.Document, s.DocumentType),
		DocumentType: string(s.DocumentType),
		Type:         string(s.Type),
		Email:        s.Email,
		Phone:        s.Phone,
		Address:      s.Address,
		Status:       string(s.Status),
		CreatedAt:    s.CreatedAt,
		CreatedBy:    s.CreatedBy,
		UpdatedAt:    s.UpdatedAt,
	}
}

func (r shareholderRow) toDomain() *domain.Shareholder {
	return &domain.Shareholder{
		ID:           r.ID,
		CompanyID:    r.CompanyID,
		Name:         r.Name,
		Document:     r.Document,
		DocumentType: domain.DocumentType(r.DocumentType),
		Type:         domain.ShareholderType(r.Type),
		Email:        r.Email,
		Phone:        r.Phone,
		Address:      r.Address,
		Status:       domain.ShareholderStatus(r.Status),
		CreatedAt:    r.CreatedAt,
		CreatedBy:    r.CreatedBy,
		UpdatedAt:    r.UpdatedAt,
	}
}

type shareholderRepository struct {
	db *DB
}

// NewShareholderRepository creates a new PostgreSQL shareholder repository
func NewShareholderRepository(db *DB) domain.ShareholderRepository {
	return &shareholderRepository{db: db}
}

// GetByID retrieves a shareholder by its ID
func (r *shareholderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Shareholder, error) {
	query := `SELECT ` + shareholderColumns + `
		FROM shareholders
		WHERE id = $1 AND status <> 'DELETED'
	`

	var row shareholderRow
	if err := r.db.conn(ctx).GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("shareholder", id)
		}
		return nil, fmt.Errorf("failed to get shareholder: %w", err)
	}
	return row.toDomain(), nil
}

// ExistsByDocument reports whether a non-deleted holder of the company already uses the document
func (r *shareholderRepository) ExistsByDocument(ctx context.Context, companyID uuid.UUID, document string, excludeID *uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM shareholders
			WHERE company_id = $1 AND document = $2 AND status <> 'DELETED'
			  AND ($3::uuid IS NULL OR id <> $3::uuid)
		)
	`

	var exclude uuid.NullUUID
	if excludeID != nil {
		exclude = uuid.NullUUID{UUID: *excludeID, Valid: true}
	}

	var exists bool
	if err := r.db.conn(ctx).GetContext(ctx, &exists, query, companyID, document, exclude); err != nil {
		return false, fmt.Errorf("failed to check shareholder document: %w", err)
	}
	return exists, nil
}

// ListByCompany retrieves the shareholders of a company ordered by name
func (r *shareholderRepository) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]*domain.Shareholder, error) {
	query := `SELECT ` + shareholderColumns + `
		FROM shareholders
		WHERE company_id = $1 AND status <> 'DELETED'
		ORDER BY lower(name), id
	`

	var rows []shareholderRow
	if err := r.db.conn(ctx).SelectContext(ctx, &rows, query, companyID); err != nil {
		return nil, fmt.Errorf("failed to list shareholders: %w", err)
	}

	holders := make([]*domain.Shareholder, 0, len(rows))
	for _, row := range rows {
		holders = append(holders, row.toDomain())
	}
	return holders, nil
}

// Create creates a new shareholder
func (r *shareholderRepository) Create(ctx context.Context, shareholder *domain.Shareholder) error {
	row := newShareholderRow(shareholder)
	query := `
		INSERT INTO shareholders (` + shareholderColumns + `)
		VALUES (
			:id, :company_id, :name, :document, :document_type, :type, :email, :phone, :address,
			:status, :created_at, :created_by, :updated_at
		)
	`

	if _, err := sqlx.NamedExecContext(ctx, r.db.conn(ctx), query, row); err != nil {
		return fmt.Errorf("failed to create shareholder: %w", translate(err, "shareholder", "document", row.Document))
	}
	return nil
}

// Update persists every mutable attribute of a shareholder, including its status
func (r *shareholderRepository) Update(ctx context.Context, shareholder *domain.Shareholder) error {
	row := newShareholderRow(shareholder)
	query := `
		UPDATE shareholders SET
			name = :name,
			document = :document,
			document_type = :document_type,
			type = :type,
			email = :email,
			phone = :phone,
			address = :address,
			status = :status,
			updated_at = :updated_at
		WHERE id = :id AND status <> 'DELETED'
	`

	result, err := sqlx.NamedExecContext(ctx, r.db.conn(ctx), query, row)
	if err != nil {
		return fmt.Errorf("failed to update shareholder: %w", translate(err, "shareholder", "document", row.Document))
	}
	return expectOneRow(result, "shareholder", shareholder.ID)
}
