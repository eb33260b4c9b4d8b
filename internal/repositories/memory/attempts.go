package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type attemptCounter struct {
	count   int64
	expires time.Time
}

// AttemptRepository counts failed verification attempts in process memory.
type AttemptRepository struct {
	mu       sync.Mutex
	window   time.Duration
	counters map[uuid.UUID]attemptCounter
	now      func() time.Time
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(window time.Duration) *AttemptRepository {
	return &AttemptRepository{
		window:   window,
		counters: make(map[uuid.UUID]attemptCounter),
		now:      time.Now,
	}
}

// Count returns the failed attempts recorded within the window.
func (r *AttemptRepository) Count(_ context.Context, transferID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.counters[transferID]
	if !ok || !r.now().Before(c.expires) {
		return 0, nil
	}
	return c.count, nil
}

// Increment records a failed attempt and returns the new count.
func (r *AttemptRepository) Increment(_ context.Context, transferID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	c, ok := r.counters[transferID]
	if !ok || !now.Before(c.expires) {
		c = attemptCounter{expires: now.Add(r.window)}
	}
	c.count++
	r.counters[transferID] = c
	return c.count, nil
}

// Reset clears the counter.
func (r *AttemptRepository) Reset(_ context.Context, transferID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.counters, transferID)
	return nil
}
