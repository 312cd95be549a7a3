package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/securescan-api/internal/domain"
	"go.uber.org/zap"
)

// ErrStoreFull is returned by Put when the store holds capacity live codes.
var ErrStoreFull = errors.New("pending code store is full")

// CodeStore keeps pending codes in process memory. Records are lost on
// restart. Expired records are removed by Sweep or when capacity is reached.
type CodeStore struct {
	mu       sync.RWMutex
	codes    map[string]domain.PendingCode
	capacity int
	now      func() time.Time
}

// NewCodeStore returns a store bounded to capacity records; capacity <= 0 means unbounded.
func NewCodeStore(capacity int, now func() time.Time) *CodeStore {
	if now == nil {
		now = time.Now
	}
	return &CodeStore{
		codes:    make(map[string]domain.PendingCode),
		capacity: capacity,
		now:      now,
	}
}

func (s *CodeStore) Get(_ context.Context, identity string) (*domain.PendingCode, error) {
	s.mu.RLock()
	pc, ok := s.codes[identity]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("pending code not found: %w", domain.ErrNotFound)
	}
	return &pc, nil
}

func (s *CodeStore) Put(_ context.Context, pc *domain.PendingCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, replacing := s.codes[pc.Identity]; !replacing && s.capacity > 0 && len(s.codes) >= s.capacity {
		s.sweepLocked(s.now())
		if len(s.codes) >= s.capacity {
			return ErrStoreFull
		}
	}
	s.codes[pc.Identity] = *pc
	return nil
}

func (s *CodeStore) Delete(_ context.Context, identity string) error {
	s.mu.Lock()
	delete(s.codes, identity)
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored records, expired or not.
func (s *CodeStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.codes)
}

// Sweep removes every record expired at the store's current time and reports how many were removed.
func (s *CodeStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked(s.now())
}

func (s *CodeStore) sweepLocked(now time.Time) int {
	n := 0
	for k, pc := range s.codes {
		if pc.Expired(now) {
			delete(s.codes, k)
			n++
		}
	}
	return n
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *CodeStore) RunSweeper(ctx context.Context, interval time.Duration, log *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				log.Debug("swept expired codes", zap.Int("evicted", n), zap.Int("remaining", s.Len()))
			}
		}
	}
}
