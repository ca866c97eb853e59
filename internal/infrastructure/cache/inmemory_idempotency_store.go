package cache

import (
	"context"
	"sync"
	"time"

	"github.com/storefront/backend/internal/domain/shared"
)

// DefaultSweepInterval is how often expired keys are dropped from memory
const DefaultSweepInterval = 5 * time.Minute

// InMemoryIdempotencyStore keeps commit keys in a process-local map.
// Keys are not shared between instances, so it only suits a single instance
// and tests.
type InMemoryIdempotencyStore struct {
	mu        sync.Mutex
	expiry    map[string]time.Time
	now       func() time.Time
	stop      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// InMemoryOption configures an InMemoryIdempotencyStore
type InMemoryOption func(*inMemorySettings)

type inMemorySettings struct {
	sweepInterval time.Duration
	now           func() time.Time
}

// WithSweepInterval sets how often expired keys are swept. Zero or less
// disables the background sweep.
func WithSweepInterval(interval time.Duration) InMemoryOption {
	return func(s *inMemorySettings) {
		s.sweepInterval = interval
	}
}

// WithClock replaces the time source used for expiry
func WithClock(now func() time.Time) InMemoryOption {
	return func(s *inMemorySettings) {
		s.now = now
	}
}

// NewInMemoryIdempotencyStore creates an in-memory store and starts its sweeper
func NewInMemoryIdempotencyStore(opts ...InMemoryOption) *InMemoryIdempotencyStore {
	settings := inMemorySettings{sweepInterval: DefaultSweepInterval, now: time.Now}
	for _, opt := range opts {
		opt(&settings)
	}

	store := &InMemoryIdempotencyStore{
		expiry: make(map[string]time.Time),
		now:    settings.now,
		stop:   make(chan struct{}),
	}
	if settings.sweepInterval > 0 {
		store.wg.Add(1)
		go store.sweepLoop(settings.sweepInterval)
	}
	return store
}

// MarkProcessed claims key for ttl. It reports false while an unexpired claim
// exists. A ttl of zero or less never expires.
func (s *InMemoryIdempotencyStore) MarkProcessed(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if exp, ok := s.expiry[key]; ok && s.live(exp, now) {
		return false, nil
	}

	var exp time.Time
	if ttl > 0 {
		exp = now.Add(ttl)
	}
	s.expiry[key] = exp
	return true, nil
}

// IsProcessed reports whether key holds an unexpired claim
func (s *InMemoryIdempotencyStore) IsProcessed(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	exp, ok := s.expiry[key]
	return ok && s.live(exp, s.now()), nil
}

// Forget drops the claim on key. Forgetting an unknown key is not an error.
func (s *InMemoryIdempotencyStore) Forget(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.expiry, key)
	return nil
}

// Close stops the sweeper. Safe to call multiple times.
func (s *InMemoryIdempotencyStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stop)
		s.wg.Wait()
	})
	return nil
}

// Size returns the number of keys held, expired ones included until swept
func (s *InMemoryIdempotencyStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.expiry)
}

// live reports whether an expiry is still in the future; the zero time never expires
func (s *InMemoryIdempotencyStore) live(exp, now time.Time) bool {
	return exp.IsZero() || now.Before(exp)
}

func (s *InMemoryIdempotencyStore) sweepLoop(interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

// sweep removes expired keys
func (s *InMemoryIdempotencyStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, exp := range s.expiry {
		if !s.live(exp, now) {
			delete(s.expiry, key)
		}
	}
}

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
