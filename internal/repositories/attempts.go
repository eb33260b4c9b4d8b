package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sbilibin2017/gw-bank-core/internal/logger"
)

const attemptsKeyPrefix = "verify_attempts:"

// AttemptRepository counts failed verification attempts per transfer in
// Redis. Counters expire after the window.
type AttemptRepository struct {
	client redis.Cmdable
	window time.Duration
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(client redis.Cmdable, window time.Duration) *AttemptRepository {
	return &AttemptRepository{client: client, window: window}
}

func attemptsKey(transferID uuid.UUID) string {
	return attemptsKeyPrefix + transferID.String()
}

// Count returns the failed attempts recorded within the window.
func (r *AttemptRepository) Count(ctx context.Context, transferID uuid.UUID) (int64, error) {
	key := attemptsKey(transferID)
	n, err := r.client.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	logger.Log.Debugw("redis get", "key", key, "result", n, "error", err)
	return n, err
}

// Increment records a failed attempt and returns the new count. The window
// starts at the first failure.
func (r *AttemptRepository) Increment(ctx context.Context, transferID uuid.UUID) (int64, error) {
	key := attemptsKey(transferID)
	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, r.window)
		return nil
	})
	logger.Log.Debugw("redis incr", "key", key, "error", err)
	if err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// Reset clears the counter after a successful verification.
func (r *AttemptRepository) Reset(ctx context.Context, transferID uuid.UUID) error {
	key := attemptsKey(transferID)
	err := r.client.Del(ctx, key).Err()
	logger.Log.Debugw("redis del", "key", key, "error", err)
	return err
}
