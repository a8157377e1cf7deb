package memory

import (
	"context"
	"sync"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
)

// UserStore is a seller directory for local runs and tests.
type UserStore struct {
	mu      sync.RWMutex
	sellers map[string]domain.Seller
	open    bool
}

func NewUserStore(sellers ...domain.Seller) *UserStore {
	s := &UserStore{sellers: make(map[string]domain.Seller, len(sellers))}
	for _, seller := range sellers {
		s.sellers[seller.ID] = seller
	}
	return s
}

// NewOpenUserStore treats every unknown id as a regular free-tier seller,
// so a memory-backed instance works with any valid token.
func NewOpenUserStore() *UserStore {
	s := NewUserStore()
	s.open = true
	return s
}

func (s *UserStore) Put(seller domain.Seller) {
	s.mu.Lock()
	s.sellers[seller.ID] = seller
	s.mu.Unlock()
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*domain.Seller, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	seller, ok := s.sellers[id]
	if !ok {
		if !s.open || id == "" {
			return nil, domain.ErrNotFound
		}
		seller = domain.Seller{ID: id}
	}
	return &seller, nil
}
