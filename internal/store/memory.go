package store

import (
	"context"
	"sync"

	"github.com/usecalistar/checkout-service/internal/models"
	pkgerrors "github.com/usecalistar/checkout-service/pkg/errors"
)

// MemoryStore is a single-process TransactionStore for tests and local
// development.
type MemoryStore struct {
	mu  sync.RWMutex
	txs map[string]models.Transaction
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{txs: make(map[string]models.Transaction)}
}

func (s *MemoryStore) Save(_ context.Context, sessionID string, tx *models.Transaction) error {
	if tx == nil {
		return pkgerrors.ErrNilTransaction
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs[sessionID] = *tx
	return nil
}

func (s *MemoryStore) Load(_ context.Context, sessionID string) (*models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tx, ok := s.txs[sessionID]
	if !ok {
		return nil, pkgerrors.ErrNoTransaction
	}
	copied := tx
	return &copied, nil
}

func (s *MemoryStore) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.txs, sessionID)
	return nil
}
