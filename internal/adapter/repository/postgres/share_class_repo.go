package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/simaogato/captable-backend/internal/domain"
)

type shareClassRow struct {
	ID                    uuid.UUID           `db:"id"`
	CompanyID             uuid.UUID           `db:"company_id"`
	Name                  string              `db:"name"`
	Code                  string              `db:"code"`
	Description           string              `db:"description"`
	HasVotingRights       bool                `db:"has_voting_rights"`
	VotesPerShare         decimal.Decimal     `db:"votes_per_share"`
	LiquidationPreference decimal.Decimal     `db:"liquidation_preference"`
	IsParticipating       bool                `db:"is_participating"`
	DividendPreference    decimal.NullDecimal `db:"dividend_preference"`
	IsConvertible         bool                `db:"is_convertible"`
	ConvertsToClassID     uuid.NullUUID       `db:"converts_to_class_id"`
	ConversionRatio       decimal.NullDecimal `db:"conversion_ratio"`
	AntiDilution          string              `db:"anti_dilution"`
	Rights                string              `db:"rights"`
	DisplayOrder          int                 `db:"display_order"`
	Status                string              `db:"status"`
	CreatedAt             time.Time           `db:"created_at"`
	CreatedBy             uuid.UUID           `db:"created_by"`
	UpdatedAt             time.Time           `db:"updated_at"`
}

const shareClassColumns = `
	id, company_id, name, code, description, has_voting_rights, votes_per_share,
	liquidation_preference, is_participating, dividend_preference, is_convertible,
	converts_to_class_id, conversion_ratio, anti_dilution, rights, display_order,
	status, created_at, created_by, updated_at
`

// encodeRights serializes the rights value object into the JSONB column
func encodeRights(rights domain.Rights) (string, error) {
	data, err := json.Marshal(rights)
	if err != nil {
		return "", fmt.Errorf("failed to encode share class rights: %w", err)
	}
	return string(data), nil
}

// decodeRights reads the JSONB column back; an empty document yields zero rights
func decodeRights(data string) (domain.Rights, error) {
	var rights domain.Rights
	if data == "" {
		return rights, nil
	}
	if err := json.Unmarshal([]byte(data), &rights); err != nil {
		return rights, fmt.Errorf("failed to decode share class rights: %w", err)
	}
	return rights, nil
}

func newShareClassRow(sc *domain.ShareClass) (shareClassRow, error) {
	rights, err := encodeRights(sc.Rights)
	if err != nil {
		return shareClassRow{}, err
	}

	antiDilution := sc.AntiDilution
	if antiDilution == "" {
		antiDilution = domain.AntiDilutionNone
	}

	row := shareClassRow{
		ID:                    sc.ID,
		CompanyID:             sc.CompanyID,
		Name:                  sc.Name,
		Code:                  sc.Code,
		Description:           sc.Description,
		HasVotingRights:       sc.HasVotingRights,
		VotesPerShare:         sc.VotesPerShare,
		LiquidationPreference: sc.LiquidationPreference,
		IsParticipating:       sc.IsParticipating,
		IsConvertible:         sc.IsConvertible,
		AntiDilution:          string(antiDilution),
		Rights:                rights,
		DisplayOrder:          sc.DisplayOrder,
		Status:                string(sc.Status),
		CreatedAt:             sc.CreatedAt,
		CreatedBy:             sc.CreatedBy,
		UpdatedAt:             sc.UpdatedAt,
	}
	if sc.DividendPreference != nil {
		row.DividendPreference = decimal.NewNullDecimal(*sc.DividendPreference)
	}
	if sc.ConvertsToClassID != nil {
		row.ConvertsToClassID = uuid.NullUUID{UUID: *sc.ConvertsToClassID, Valid: true}
	}
	if sc.ConversionRatio != nil {
		row.ConversionRatio = decimal.NewNullDecimal(*sc.ConversionRatio)
	}
	return row, nil
}

func (r shareClassRow) toDomain() (*domain.ShareClass, error) {
	rights, err := decodeRights(r.Rights)
	if err != nil {
		return nil, err
	}

	sc := &domain.ShareClass{
		ID:                    r.ID,
		CompanyID:             r.CompanyID,
		Name:                  r.Name,
		Code:                  r.Code,
		Description:           r.Description,
		HasVotingRights:       r.HasVotingRights,
		VotesPerShare:         r.VotesPerShare,
		LiquidationPreference: r.LiquidationPreference,
		IsParticipating:       r.IsParticipating,
		IsConvertible:         r.IsConvertible,
		AntiDilution:          domain.AntiDilutionKind(r.AntiDilution),
		Rights:                rights,
		DisplayOrder:          r.DisplayOrder,
		Status:                domain.ShareClassStatus(r.Status),
		CreatedAt:             r.CreatedAt,
		CreatedBy:             r.CreatedBy,
		UpdatedAt:             r.UpdatedAt,
	}
	if r.DividendPreference.Valid {
		v := r.DividendPreference.Decimal
		sc.DividendPreference = &v
	}
	if r.ConvertsToClassID.Valid {
		v := r.ConvertsToClassID.UUID
		sc.ConvertsToClassID = &v
	}
	if r.ConversionRatio.Valid {
		v := r.ConversionRatio.Decimal
		sc.ConversionRatio = &v
	}
	return sc, nil
}

type shareClassRepository struct {
	db *DB
}

// NewShareClassRepository creates a new PostgreSQL share class repository
func NewShareClassRepository(db *DB) domain.ShareClassRepository {
	return &shareClassRepository{db: db}
}

func (r *shareClassRepository) getOne(ctx context.Context, query string, args ...interface{}) (*domain.ShareClass, error) {
	var row shareClassRow
	if err := r.db.conn(ctx).GetContext(ctx, &row, query, args...); err != nil {
		return nil, err
	}
	return row.toDomain()
}

// GetByID retrieves a share class by its ID
func (r *shareClassRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ShareClass, error) {
	query := `SELECT ` + shareClassColumns + `
		FROM share_classes
		WHERE id = $1 AND status <> 'DELETED'
	`

	sc, err := r.getOne(ctx, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("share class", id)
		}
		return nil, fmt.Errorf("failed to get share class: %w", err)
	}
	return sc, nil
}

// GetByCode retrieves a share class by its code (case-insensitive) within a company
func (r *shareClassRepository) GetByCode(ctx context.Context, companyID uuid.UUID, code string) (*domain.ShareClass, error) {
	query := `SELECT ` + shareClassColumns + `
		FROM share_classes
		WHERE company_id = $1 AND upper(code) = $2 AND status <> 'DELETED'
	`

	normalized := domain.NormalizeClassCode(code)
	sc, err := r.getOne(ctx, query, companyID, normalized)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &domain.NotFoundError{Entity: "share class", ID: normalized}
		}
		return nil, fmt.Errorf("failed to get share class by code: %w", err)
	}
	return sc, nil
}

// ExistsByCode reports whether a non-deleted class of the company already uses the code
func (r *shareClassRepository) ExistsByCode(ctx context.Context, companyID uuid.UUID, code string, excludeID *uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM share_classes
			WHERE company_id = $1 AND upper(code) = $2 AND status <> 'DELETED'
			  AND ($3::uuid IS NULL OR id <> $3::uuid)
		)
	`

	var exclude uuid.NullUUID
	if excludeID != nil {
		exclude = uuid.NullUUID{UUID: *excludeID, Valid: true}
	}

	var exists bool
	if err := r.db.conn(ctx).GetContext(ctx, &exists, query, companyID, domain.NormalizeClassCode(code), exclude); err != nil {
		return false, fmt.Errorf("failed to check share class code: %w", err)
	}
	return exists, nil
}

// ListByCompany retrieves the share classes of a company ordered by display order
func (r *shareClassRepository) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]*domain.ShareClass, error) {
	query := `SELECT ` + shareClassColumns + `
		FROM share_classes
		WHERE company_id = $1 AND status <> 'DELETED'
		ORDER BY display_order, upper(code)
	`

	var rows []shareClassRow
	if err := r.db.conn(ctx).SelectContext(ctx, &rows, query, companyID); err != nil {
		return nil, fmt.Errorf("failed to list share classes: %w", err)
	}

	classes := make([]*domain.ShareClass, 0, len(rows))
	for _, row := range rows {
		sc, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		classes = append(classes, sc)
	}
	return classes, nil
}

// Create creates a new share class
func (r *shareClassRepository) Create(ctx context.Context, shareClass *domain.ShareClass) error {
	row, err := newShareClassRow(shareClass)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO share_classes (` + shareClassColumns + `)
		VALUES (
			:id, :company_id, :name, :code, :description, :has_voting_rights, :votes_per_share,
			:liquidation_preference, :is_participating, :dividend_preference, :is_convertible,
			:converts_to_class_id, :conversion_ratio, :anti_dilution, :rights, :display_order,
			:status, :created_at, :created_by, :updated_at
		)
	`

	if _, err := sqlx.NamedExecContext(ctx, r.db.conn(ctx), query, row); err != nil {
		return fmt.Errorf("failed to create share class: %w",
			translate(err, "share class", "code", domain.NormalizeClassCode(shareClass.Code)))
	}
	return nil
}

// Update persists every mutable attribute of a share class, including its status
func (r *shareClassRepository) Update(ctx context.Context, shareClass *domain.ShareClass) error {
	row, err := newShareClassRow(shareClass)
	if err != nil {
		return err
	}

	query := `
		UPDATE share_classes SET
			name = :name,
			code = :code,
			description = :description,
			has_voting_rights = :has_voting_rights,
			votes_per_share = :votes_per_share,
			liquidation_preference = :liquidation_preference,
			is_participating = :is_participating,
			dividend_preference = :dividend_preference,
			is_convertible = :is_convertible,
			converts_to_class_id = :converts_to_class_id,
			conversion_ratio = :conversion_ratio,
			anti_dilution = :anti_dilution,
			rights = :rights,
			display_order = :display_order,
			status = :status,
			updated_at = :updated_at
		WHERE id = :id AND status <> 'DELETED'
	`

	result, err := sqlx.NamedExecContext(ctx, r.db.conn(ctx), query, row)
	if err != nil {
		return fmt.Errorf("failed to update share class: %w",
			translate(err, "share class", "code", domain.NormalizeClassCode(shareClass.Code)))
	}
	return expectOneRow(result, "share class", shareClass.ID)
}
