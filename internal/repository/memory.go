package repository

import (
	"context"
	"sync"
	"time"
)

type quotaEntry struct {
	count     int
	expiresAt time.Time
}

// MemoryQuotaStore is the in-process QuotaStore used without Redis.
type MemoryQuotaStore struct {
	mu      sync.Mutex
	entries map[int64]*quotaEntry
	now     func() time.Time
}

func NewMemoryQuotaStore() *MemoryQuotaStore {
	return &MemoryQuotaStore{
		entries: make(map[int64]*quotaEntry),
		now:     time.Now,
	}
}

func (r *MemoryQuotaStore) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	entry, ok := r.entries[userID]
	if !ok || !now.Before(entry.expiresAt) {
		entry = &quotaEntry{expiresAt: now.Add(window)}
		r.entries[userID] = entry
	}
	entry.count++
	return entry.count <= limit, nil
}

// Sweep drops expired windows and returns how many were removed.
func (r *MemoryQuotaStore) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	removed := 0
	for id, e := range r.entries {
		if !now.Before(e.expiresAt) {
			delete(r.entries, id)
			removed++
		}
	}
	return removed
}
