// Package memory provides in-memory implementations of the equity repositories.
// Used for fixtures, dry runs and tests; state lives only as long as the Store.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/simaogato/captable-backend/internal/domain"
)

// Store holds every record behind the in-memory repositories
type Store struct {
	txMu sync.Mutex   // serializes units of work
	mu   sync.RWMutex // guards the maps below

	companies    map[uuid.UUID]domain.Company
	shareClasses map[uuid.UUID]domain.ShareClass
	classOrder   []uuid.UUID
	shareholders map[uuid.UUID]domain.Shareholder
	holderOrder  []uuid.UUID
	shares       map[uuid.UUID]domain.Share
	shareOrder   []uuid.UUID
	transactions []domain.ShareTransaction
}

// NewStore creates an empty Store
func NewStore() *Store {
	return &Store{
		companies:    make(map[uuid.UUID]domain.Company),
		shareClasses: make(map[uuid.UUID]domain.ShareClass),
		shareholders: make(map[uuid.UUID]domain.Shareholder),
		shares:       make(map[uuid.UUID]domain.Share),
	}
}

// AddCompany registers a company in the directory
func (s *Store) AddCompany(company domain.Company) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.companies[company.ID] = company
}

type snapshot struct {
	shareClasses map[uuid.UUID]domain.ShareClass
	classOrder   []uuid.UUID
	shareholders map[uuid.UUID]domain.Shareholder
	holderOrder  []uuid.UUID
	shares       map[uuid.UUID]domain.Share
	shareOrder   []uuid.UUID
	transactions []domain.ShareTransaction
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := snapshot{
		shareClasses: make(map[uuid.UUID]domain.ShareClass, len(s.shareClasses)),
		classOrder:   append([]uuid.UUID(nil), s.classOrder...),
		shareholders: make(map[uuid.UUID]domain.Shareholder, len(s.shareholders)),
		holderOrder:  append([]uuid.UUID(nil), s.holderOrder...),
		shares:       make(map[uuid.UUID]domain.Share, len(s.shares)),
		shareOrder:   append([]uuid.UUID(nil), s.shareOrder...),
		transactions: append([]domain.ShareTransaction(nil), s.transactions...),
	}
	for k, v := range s.shareClasses {
		snap.shareClasses[k] = v
	}
	for k, v := range s.shareholders {
		snap.shareholders[k] = v
	}
	for k, v := range s.shares {
		snap.shares[k] = v
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.shareClasses = snap.shareClasses
	s.classOrder = snap.classOrder
	s.shareholders = snap.shareholders
	s.holderOrder = snap.holderOrder
	s.shares = snap.shares
	s.shareOrder = snap.shareOrder
	s.transactions = snap.transactions
}

// WithinTransaction implements domain.Transactor.
// Units of work run one at a time; a failing fn leaves the store as it was before fn.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	if err := fn(ctx); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}
