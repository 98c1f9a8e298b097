package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CompanyRepository is the Company Directory collaborator
type CompanyRepository interface {
	// GetByID retrieves a company by its ID
	// Returns a NotFoundError if the company does not exist
	GetByID(ctx context.Context, id uuid.UUID) (*Company, error)
}

// CompanyStore is the writable company directory the command line registers companies in
type CompanyStore interface {
	CompanyRepository

	// Create registers a company; returns a ConflictError if the ID is taken
	Create(ctx context.Context, company *Company) error

	// List retrieves every company ordered by name
	List(ctx context.Context) ([]*Company, error)
}

// ShareClassRepository defines the interface for share class persistence operations
// Deleted classes are invisible to every read method
type ShareClassRepository interface {
	// GetByID retrieves a share class by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*ShareClass, error)

	// GetByCode retrieves a share class by its code (case-insensitive) within a company
	GetByCode(ctx context.Context, companyID uuid.UUID, code string) (*ShareClass, error)

	// ExistsByCode reports whether a non-deleted class of the company already uses the code
	// excludeID allows an update to keep its own code
	ExistsByCode(ctx context.Context, companyID uuid.UUID, code string, excludeID *uuid.UUID) (bool, error)

	// ListByCompany retrieves the share classes of a company ordered by display order
	ListByCompany(ctx context.Context, companyID uuid.UUID) ([]*ShareClass, error)

	// Create creates a new share class
	Create(ctx context.Context, shareClass *ShareClass) error

	// Update persists every mutable attribute of a share class, including its status
	Update(ctx context.Context, shareClass *ShareClass) error
}

// ShareholderRepository defines the interface for shareholder persistence operations
// Deleted shareholders are invisible to every read method
type ShareholderRepository interface {
	// GetByID retrieves a shareholder by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*Shareholder, error)

	// ExistsByDocument reports whether a non-deleted holder of the company already uses the normalized document
	ExistsByDocument(ctx context.Context, companyID uuid.UUID, document string, excludeID *uuid.UUID) (bool, error)

	// ListByCompany retrieves the shareholders of a company ordered by name
	ListByCompany(ctx context.Context, companyID uuid.UUID) ([]*Shareholder, error)

	// Create creates a new shareholder
	Create(ctx context.Context, shareholder *Shareholder) error

	// Update persists every mutable attribute of a shareholder, including its status
	Update(ctx context.Context, shareholder *Shareholder) error
}

// ShareRepository is the share-lot half of the Share Store
type ShareRepository interface {
	// Create creates a new share lot
	Create(ctx context.Context, share *Share) error

	// UpdateStatus moves an ACTIVE lot to a terminal status
	// Returns ErrShareNotActive if the lot is no longer active
	UpdateStatus(ctx context.Context, id uuid.UUID, status ShareStatus, updatedAt time.Time) error

	// ListActiveByCompany retrieves every active lot of a company
	ListActiveByCompany(ctx context.Context, companyID uuid.UUID) ([]*Share, error)

	// ListActiveByHolding retrieves the active lots of one shareholder in one class,
	// oldest acquisition date first (FIFO order)
	ListActiveByHolding(ctx context.Context, shareholderID, shareClassID uuid.UUID) ([]*Share, error)

	// ListByCompany retrieves every lot of a company regardless of status
	ListByCompany(ctx context.Context, companyID uuid.UUID) ([]*Share, error)

	// BalanceOf returns the sum of active lot quantities of a shareholder in a class
	BalanceOf(ctx context.Context, shareholderID, shareClassID uuid.UUID) (decimal.Decimal, error)

	// TotalByCompany returns the sum of active lot quantities of a company
	TotalByCompany(ctx context.Context, companyID uuid.UUID) (decimal.Decimal, error)

	// TotalByClass returns the sum of active lot quantities of a share class
	TotalByClass(ctx context.Context, shareClassID uuid.UUID) (decimal.Decimal, error)

	// LockHolding serializes balance checks on one (company, shareholder, class) holding
	// until the surrounding unit of work ends
	LockHolding(ctx context.Context, companyID, shareholderID, shareClassID uuid.UUID) error
}

// ShareTransactionRepository is the append-only ledger half of the Share Store
type ShareTransactionRepository interface {
	// Create appends a new transaction record
	Create(ctx context.Context, tx *ShareTransaction) error

	// GetByID retrieves a transaction by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*ShareTransaction, error)

	// CountByCompany returns the number of transactions recorded for a company
	CountByCompany(ctx context.Context, companyID uuid.UUID) (int, error)

	// LockLedger serializes transaction numbering within one company until the unit of work ends
	LockLedger(ctx context.Context, companyID uuid.UUID) error

	// ListByCompany retrieves a paginated list of transactions, oldest first
	// A limit of 0 returns every transaction
	ListByCompany(ctx context.Context, companyID uuid.UUID, limit, offset int) ([]*ShareTransaction, error)
}

// Transactor supplies the atomic unit of work a balance check and its writes run in
type Transactor interface {
	// WithinTransaction runs fn atomically; if fn returns an error nothing it wrote is kept
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
