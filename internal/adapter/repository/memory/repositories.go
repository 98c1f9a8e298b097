package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/captable-backend/internal/domain"
)

// companyRepository implements domain.CompanyStore
type companyRepository struct {
	store *Store
}

// NewCompanyRepository creates a new in-memory company directory
func NewCompanyRepository(store *Store) domain.CompanyStore {
	return &companyRepository{store: store}
}

// Create registers a company
func (r *companyRepository) Create(ctx context.Context, company *domain.Company) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.companies[company.ID]; ok {
		return domain.NewConflictError("company", "id", company.ID.String())
	}
	r.store.companies[company.ID] = *company
	return nil
}

// List retrieves every company ordered by name
func (r *companyRepository) List(ctx context.Context) ([]*domain.Company, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	companies := make([]*domain.Company, 0, len(r.store.companies))
	for _, c := range r.store.companies {
		company := c
		companies = append(companies, &company)
	}
	sort.Slice(companies, func(i, j int) bool {
		if companies[i].Name != companies[j].Name {
			return companies[i].Name < companies[j].Name
		}
		return companies[i].ID.String() < companies[j].ID.String()
	})
	return companies, nil
}

// GetByID retrieves a company by its ID
func (r *companyRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Company, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	company, ok := r.store.companies[id]
	if !ok {
		return nil, domain.NewNotFoundError("company", id)
	}
	return &company, nil
}

// shareClassRepository implements domain.ShareClassRepository
type shareClassRepository struct {
	store *Store
}

// NewShareClassRepository creates a new in-memory share class repository
func NewShareClassRepository(store *Store) domain.ShareClassRepository {
	return &shareClassRepository{store: store}
}

// GetByID retrieves a non-deleted share class by its ID
func (r *shareClassRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ShareClass, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	class, ok := r.store.shareClasses[id]
	if !ok || class.Status == domain.ShareClassStatusDeleted {
		return nil, domain.NewNotFoundError("share class", id)
	}
	return &class, nil
}

// GetByCode retrieves a non-deleted share class by code within a company
func (r *shareClassRepository) GetByCode(ctx context.Context, companyID uuid.UUID, code string) (*domain.ShareClass, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	if class := r.findByCode(companyID, code, nil); class != nil {
		found := *class
		return &found, nil
	}
	return nil, &domain.NotFoundError{Entity: "share class", ID: domain.NormalizeClassCode(code)}
}

// ExistsByCode reports whether the code is taken within the company
func (r *shareClassRepository) ExistsByCode(ctx context.Context, companyID uuid.UUID, code string, excludeID *uuid.UUID) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return r.findByCode(companyID, code, excludeID) != nil, nil
}

// findByCode must be called with the store lock held
func (r *shareClassRepository) findByCode(companyID uuid.UUID, code string, excludeID *uuid.UUID) *domain.ShareClass {
	normalized := domain.NormalizeClassCode(code)
	for _, id := range r.store.classOrder {
		class := r.store.shareClasses[id]
		if class.CompanyID != companyID || class.Status == domain.ShareClassStatusDeleted {
			continue
		}
		if excludeID != nil && class.ID == *excludeID {
			continue
		}
		if domain.NormalizeClassCode(class.Code) == normalized {
			return &class
		}
	}
	return nil
}

// ListByCompany retrieves the non-deleted share classes of a company ordered by display order
func (r *shareClassRepository) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]*domain.ShareClass, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	classes := make([]*domain.ShareClass, 0)
	for _, id := range r.store.classOrder {
		class := r.store.shareClasses[id]
		if class.CompanyID == companyID && class.Status != domain.ShareClassStatusDeleted {
			classes = append(classes, &class)
		}
	}
	sort.SliceStable(classes, func(i, j int) bool {
		return classes[i].DisplayOrder < classes[j].DisplayOrder
	})
	return classes, nil
}

// Create creates a new share class
func (r *shareClassRepository) Create(ctx context.Context, shareClass *domain.ShareClass) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if r.findByCode(shareClass.CompanyID, shareClass.Code, nil) != nil {
		return domain.NewConflictError("share class", "code", shareClass.Code)
	}
	r.store.shareClasses[shareClass.ID] = *shareClass
	r.store.classOrder = append(r.store.classOrder, shareClass.ID)
	return nil
}

// Update persists a share class
func (r *shareClassRepository) Update(ctx context.Context, shareClass *domain.ShareClass) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.shareClasses[shareClass.ID]; !ok {
		return domain.NewNotFoundError("share class", shareClass.ID)
	}
	if shareClass.Status != domain.ShareClassStatusDeleted {
		if r.findByCode(shareClass.CompanyID, shareClass.Code, &shareClass.ID) != nil {
			return domain.NewConflictError("share class", "code", shareClass.Code)
		}
	}
	r.store.shareClasses[shareClass.ID] = *shareClass
	return nil
}

// shareholderRepository implements domain.ShareholderRepository
type shareholderRepository struct {
	store *Store
}

// NewShareholderRepository creates a new in-memory shareholder repository
func NewShareholderRepository(store *Store) domain.ShareholderRepository {
	return &shareholderRepository{store: store}
}

// GetByID retrieves a non-deleted shareholder by its ID
func (r *shareholderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Shareholder, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	holder, ok := r.store.shareholders[id]
	if !ok || holder.Status == domain.ShareholderStatusDeleted {
		return nil, domain.NewNotFoundError("shareholder", id)
	}
	return &holder, nil
}

// ExistsByDocument reports whether the document is taken within the company
func (r *shareholderRepository) ExistsByDocument(ctx context.Context, companyID uuid.UUID, document string, excludeID *uuid.UUID) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return r.documentTaken(companyID, document, excludeID), nil
}

// documentTaken must be called with the store lock held
func (r *shareholderRepository) documentTaken(companyID uuid.UUID, document string, excludeID *uuid.UUID) bool {
	for _, holder := range r.store.shareholders {
		if holder.CompanyID != companyID || holder.Status == domain.ShareholderStatusDeleted {
			continue
		}
		if excludeID != nil && holder.ID == *excludeID {
			continue
		}
		if holder.Document == document {
			return true
		}
	}
	return false
}

// ListByCompany retrieves the non-deleted shareholders of a company ordered by name
func (r *shareholderRepository) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]*domain.Shareholder, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	holders := make([]*domain.Shareholder, 0)
	for _, id := range r.store.holderOrder {
		holder := r.store.shareholders[id]
		if holder.CompanyID == companyID && holder.Status != domain.ShareholderStatusDeleted {
			holders = append(holders, &holder)
		}
	}
	sort.SliceStable(holders, func(i, j int) bool {
		return strings.ToLower(holders[i].Name) < strings.ToLower(holders[j].Name)
	})
	return holders, nil
}

// Create creates a new shareholder
func (r *shareholderRepository) Create(ctx context.Context, shareholder *domain.Shareholder) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if r.documentTaken(shareholder.CompanyID, shareholder.Document, nil) {
		return domain.NewConflictError("shareholder", "document", shareholder.Document)
	}
	r.store.shareholders[shareholder.ID] = *shareholder
	r.store.holderOrder = append(r.store.holderOrder, shareholder.ID)
	return nil
}

// Update persists a shareholder
func (r *shareholderRepository) Update(ctx context.Context, shareholder *domain.Shareholder) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.shareholders[shareholder.ID]; !ok {
		return domain.NewNotFoundError("shareholder", shareholder.ID)
	}
	if shareholder.Status != domain.ShareholderStatusDeleted &&
		r.documentTaken(shareholder.CompanyID, shareholder.Document, &shareholder.ID) {
		return domain.NewConflictError("shareholder", "document", shareholder.Document)
	}
	r.store.shareholders[shareholder.ID] = *shareholder
	return nil
}

// shareRepository implements domain.ShareRepository
type shareRepository struct {
	store *Store
}

// NewShareRepository creates a new in-memory share lot repository
func NewShareRepository(store *Store) domain.ShareRepository {
	return &shareRepository{store: store}
}

// Create creates a new share lot
func (r *shareRepository) Create(ctx context.Context, share *domain.Share) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.shares[share.ID]; exists {
		return domain.NewConflictError("share", "id", share.ID.String())
	}
	r.store.shares[share.ID] = *share
	r.store.shareOrder = append(r.store.shareOrder, share.ID)
	return nil
}

// UpdateStatus moves an active lot to a terminal status
func (r *shareRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ShareStatus, updatedAt time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	share, ok := r.store.shares[id]
	if !ok {
		return domain.NewNotFoundError("share", id)
	}

	var err error
	switch status {
	case domain.ShareStatusTransferred:
		err = share.MarkTransferred(updatedAt)
	case domain.ShareStatusCancelled:
		err = share.MarkCancelled(updatedAt)
	default:
		err = domain.NewValidationError("status", status, "lots can only move to TRANSFERRED or CANCELLED")
	}
	if err != nil {
		return err
	}

	r.store.shares[id] = share
	return nil
}

// filter returns copies of the lots matching keep, in insertion order
// Must be called with the store lock held
func (r *shareRepository) filter(keep func(s *domain.Share) bool) []*domain.Share {
	result := make([]*domain.Share, 0)
	for _, id := range r.store.shareOrder {
		share := r.store.shares[id]
		if keep(&share) {
			result = append(result, &share)
		}
	}
	return result
}

// ListActiveByCompany retrieves every active lot of a company
func (r *shareRepository) ListActiveByCompany(ctx context.Context, companyID uuid.UUID) ([]*domain.Share, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return r.filter(func(s *domain.Share) bool {
		return s.CompanyID == companyID && s.IsActive()
	}), nil
}

// ListActiveByHolding retrieves the active lots of a holding, oldest acquisition first
func (r *shareRepository) ListActiveByHolding(ctx context.Context, shareholderID, shareClassID uuid.UUID) ([]*domain.Share, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	held := r.filter(func(s *domain.Share) bool {
		return s.ShareholderID == shareholderID && s.ShareClassID == shareClassID && s.IsActive()
	})
	sort.SliceStable(held, func(i, j int) bool {
		return held[i].AcquisitionDate.Before(held[j].AcquisitionDate)
	})
	return held, nil
}

// ListByCompany retrieves every lot of a company
func (r *shareRepository) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]*domain.Share, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return r.filter(func(s *domain.Share) bool {
		return s.CompanyID == companyID
	}), nil
}

// sum adds the quantities of the active lots matching keep
func (r *shareRepository) sum(keep func(s *domain.Share) bool) decimal.Decimal {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	total := decimal.Zero
	for _, share := range r.store.shares {
		if share.IsActive() && keep(&share) {
			total = total.Add(share.Quantity)
		}
	}
	return total
}

// BalanceOf returns the active quantity held by a shareholder in a class
func (r *shareRepository) BalanceOf(ctx context.Context, shareholderID, shareClassID uuid.UUID) (decimal.Decimal, error) {
	return r.sum(func(s *domain.Share) bool {
		return s.ShareholderID == shareholderID && s.ShareClassID == shareClassID
	}), nil
}

// TotalByCompany returns the active quantity of a company
func (r *shareRepository) TotalByCompany(ctx context.Context, companyID uuid.UUID) (decimal.Decimal, error) {
	return r.sum(func(s *domain.Share) bool {
		return s.CompanyID == companyID
	}), nil
}

// TotalByClass returns the active quantity of a share class
func (r *shareRepository) TotalByClass(ctx context.Context, shareClassID uuid.UUID) (decimal.Decimal, error) {
	return r.sum(func(s *domain.Share) bool {
		return s.ShareClassID == shareClassID
	}), nil
}

// LockHolding is a no-op: Store.WithinTransaction already serializes units of work
func (r *shareRepository) LockHolding(ctx context.Context, companyID, shareholderID, shareClassID uuid.UUID) error {
	return nil
}

// shareTransactionRepository implements domain.ShareTransactionRepository
type shareTransactionRepository struct {
	store *Store
}

// NewShareTransactionRepository creates a new in-memory ledger
func NewShareTransactionRepository(store *Store) domain.ShareTransactionRepository {
	return &shareTransactionRepository{store: store}
}

// Create appends a transaction; numbers are unique per company
func (r *shareTransactionRepository) Create(ctx context.Context, tx *domain.ShareTransaction) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, existing := range r.store.transactions {
		if existing.CompanyID == tx.CompanyID && existing.TransactionNumber == tx.TransactionNumber {
			return domain.NewConflictError("share transaction", "transaction_number", tx.TransactionNumber)
		}
	}
	r.store.transactions = append(r.store.transactions, *tx)
	return nil
}

// GetByID retrieves a transaction by its ID
func (r *shareTransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ShareTransaction, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, tx := range r.store.transactions {
		if tx.ID == id {
			found := tx
			return &found, nil
		}
	}
	return nil, domain.NewNotFoundError("share transaction", id)
}

// LockLedger is a no-op: Store.WithinTransaction already serializes units of work
func (r *shareTransactionRepository) LockLedger(ctx context.Context, companyID uuid.UUID) error {
	return nil
}

// CountByCompany returns the number of transactions of a company
func (r *shareTransactionRepository) CountByCompany(ctx context.Context, companyID uuid.UUID) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	count := 0
	for _, tx := range r.store.transactions {
		if tx.CompanyID == companyID {
			count++
		}
	}
	return count, nil
}

// ListByCompany retrieves a page of a company's transactions, oldest first
func (r *shareTransactionRepository) ListByCompany(ctx context.Context, companyID uuid.UUID, limit, offset int) ([]*domain.ShareTransaction, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	matched := make([]*domain.ShareTransaction, 0)
	for _, tx := range r.store.transactions {
		if tx.CompanyID == companyID {
			found := tx
			matched = append(matched, &found)
		}
	}

	if offset >= len(matched) {
		return []*domain.ShareTransaction{}, nil
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}
