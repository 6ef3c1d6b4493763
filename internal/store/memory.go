package store

import (
	"context"
	"sync"
	"time"

	"github.com/Adda-Baaj/prism-news/internal/domain"
)

// MemoryStore is a process-local Store, used for local runs and tests.
type MemoryStore struct {
	mu    sync.RWMutex
	order []string
	items map[string]domain.NewsRecord
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[string]domain.NewsRecord),
		now:   time.Now,
	}
}

func (s *MemoryStore) Put(ctx context.Context, rec domain.NewsRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[rec.ID]; !ok {
		s.order = append(s.order, rec.ID)
	}
	s.items[rec.ID] = rec
	return nil
}

// Scan returns up to limit unexpired records in insertion order.
func (s *MemoryStore) Scan(ctx context.Context, limit int) ([]domain.NewsRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	limit = ClampLimit(limit)
	now := nowUnix(s.now)

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.NewsRecord, 0, min(limit, len(s.order)))
	for _, id := range s.order {
		if len(out) == limit {
			break
		}
		if rec := s.items[id]; !rec.Expired(now) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Len returns the number of stored records, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *MemoryStore) Close() error { return nil }
