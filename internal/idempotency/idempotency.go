// Package idempotency remembers checkout results by client-supplied key so a
// retried request replays the first sale instead of ringing it up twice.
package idempotency

import (
	"context"
	"sync"
	"time"
)

// Store locks a key for the duration of a request and remembers its result.
// Scope keeps keys from different businesses apart.
type Store interface {
	// TryLock claims the key. It returns false when another request holds or
	// has completed it.
	TryLock(ctx context.Context, scope, key string) (bool, error)

	// Remember stores the serialized result for key.
	Remember(ctx context.Context, scope, key, value string) error

	// Recall returns the stored result, if any.
	Recall(ctx context.Context, scope, key string) (string, bool, error)

	// Release drops the lock so a failed request can be retried.
	Release(ctx context.Context, scope, key string) error
}

// MemoryStore is a Store for single-process deployments without Redis.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	locks   map[string]time.Time
	results map[string]entry
}

type entry struct {
	value   string
	expires time.Time
}

// NewMemoryStore creates a MemoryStore whose keys expire after ttl.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		now:     time.Now,
		locks:   make(map[string]time.Time),
		results: make(map[string]entry),
	}
}

func memoryKey(scope, key string) string {
	return scope + ":" + key
}

func (s *MemoryStore) TryLock(ctx context.Context, scope, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := memoryKey(scope, key)
	now := s.now()
	if expires, ok := s.locks[k]; ok && now.Before(expires) {
		return false, nil
	}
	s.locks[k] = now.Add(s.ttl)
	s.sweep(now)
	return true, nil
}

func (s *MemoryStore) Remember(ctx context.Context, scope, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[memoryKey(scope, key)] = entry{value: value, expires: s.now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Recall(ctx context.Context, scope, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.results[memoryKey(scope, key)]
	if !ok || !s.now().Before(e.expires) {
		return "", false, nil
	}
	return e.value, true, nil
}

func (s *MemoryStore) Release(ctx context.Context, scope, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.locks, memoryKey(scope, key))
	return nil
}

// sweep drops expired entries. Callers hold mu.
func (s *MemoryStore) sweep(now time.Time) {
	for k, expires := range s.locks {
		if !now.Before(expires) {
			delete(s.locks, k)
		}
	}
	for k, e := range s.results {
		if !now.Before(e.expires) {
			delete(s.results, k)
		}
	}
}

var _ Store = (*MemoryStore)(nil)
