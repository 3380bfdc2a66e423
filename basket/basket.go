package basket

import (
	"context"
	"sync"
)

// Item is one per-user basket entry.
type Item struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

// Store is the per-user basket collaborator. The order core only reads
// and clears it; writes belong to the storefront. Clear on an empty
// basket is a no-op, never an error.
type Store interface {
	Items(ctx context.Context, userID uint) ([]Item, error)
	Clear(ctx context.Context, userID uint) error
}

// MemoryStore is an in-process Store used in tests and when no redis
// address is configured.
type MemoryStore struct {
	mu      sync.RWMutex
	baskets map[uint][]Item
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{baskets: make(map[uint][]Item)}
}

func (s *MemoryStore) Items(ctx context.Context, userID uint) ([]Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]Item, len(s.baskets[userID]))
	copy(items, s.baskets[userID])
	return items, nil
}

func (s *MemoryStore) Clear(ctx context.Context, userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.baskets, userID)
	return nil
}

// Put replaces a user's basket. Test/seeding helper.
func (s *MemoryStore) Put(userID uint, items []Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.baskets[userID] = items
}
