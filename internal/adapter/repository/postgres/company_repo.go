package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/simaogato/captable-backend/internal/domain"
)

type companyRow struct {
	ID        uuid.UUID `db:"id"`
	TenantID  uuid.UUID `db:"tenant_id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
}

func (r companyRow) toDomain() *domain.Company {
	return &domain.Company{ID: r.ID, TenantID: r.TenantID, Name: r.Name}
}

// CompanyRepository is the company directory backed by the companies table
type CompanyRepository struct {
	db *DB
}

// NewCompanyRepository creates a new PostgreSQL company repository
func NewCompanyRepository(db *DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

// GetByID retrieves a company by its ID
func (r *CompanyRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Company, error) {
	query := `
		SELECT id, tenant_id, name, created_at
		FROM companies
		WHERE id = $1
	`

	var row companyRow
	if err := r.db.conn(ctx).GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("company", id)
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return row.toDomain(), nil
}

// Create registers a company
func (r *CompanyRepository) Create(ctx context.Context, company *domain.Company) error {
	query := `
		INSERT INTO companies (id, tenant_id, name)
		VALUES ($1, $2, $3)
	`

	if _, err := r.db.conn(ctx).ExecContext(ctx, query, company.ID, company.TenantID, company.Name); err != nil {
		return fmt.Errorf("failed to create company: %w", translate(err, "company", "id", company.ID.String()))
	}
	return nil
}

// List retrieves every company ordered by name
func (r *CompanyRepository) List(ctx context.Context) ([]*domain.Company, error) {
	query := `
		SELECT id, tenant_id, name, created_at
		FROM companies
		ORDER BY name, id
	`

	var rows []companyRow
	if err := r.db.conn(ctx).SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}

	companies := make([]*domain.Company, 0, len(rows))
	for _, row := range rows {
		companies = append(companies, row.toDomain())
	}
	return companies, nil
}
