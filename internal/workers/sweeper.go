// Package workers holds background jobs that run next to the HTTP server.
package workers

//go:generate mockgen -source=sweeper.go -destination=sweeper_mock.go -package=workers

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-bank-core/internal/logger"
	"github.com/sbilibin2017/gw-bank-core/internal/metrics"
	"github.com/sbilibin2017/gw-bank-core/internal/models"
)

// StaleLister finds transfers that stayed in a status past a cutoff.
type StaleLister interface {
	ListStale(ctx context.Context, status models.TransferStatus, cutoff time.Time, limit int) ([]uuid.UUID, error)
}

// TransferCloser closes open transfers. Each call runs in its own
// transaction and re-checks the status under the row lock.
type TransferCloser interface {
	Expire(ctx context.Context, transferID uuid.UUID) (*models.TransferDB, error)
	Complete(ctx context.Context, actor string, transferID uuid.UUID) (*models.TransferDB, error)
}

// SweeperConfig tunes the sweeper.
type SweeperConfig struct {
	Interval   time.Duration
	PendingTTL time.Duration // PENDING transfers older than this are expired
	AutoSettle bool          // complete PROCESSING transfers without an admin
	BatchSize  int
	Now        func() time.Time
}

// SweepResult counts what one pass did.
type SweepResult struct {
	Expired   int
	Completed int
	Failed    int
}

// Sweeper expires abandoned transfers and, optionally, settles verified ones.
type Sweeper struct {
	transfers StaleLister
	closer    TransferCloser
	metrics   *metrics.Metrics
	cfg       SweeperConfig
}

// NewSweeper creates a new Sweeper.
func NewSweeper(transfers StaleLister, closer TransferCloser, m *metrics.Metrics, cfg SweeperConfig) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.PendingTTL <= 0 {
		cfg.PendingTTL = 24 * time.Hour
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Sweeper{transfers: transfers, closer: closer, metrics: m, cfg: cfg}
}

// Run sweeps on every tick until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	logger.Log.Infow("sweeper started", "interval", s.cfg.Interval, "pending_ttl", s.cfg.PendingTTL, "auto_settle", s.cfg.AutoSettle)
	for {
		select {
		case <-ctx.Done():
			logger.Log.Infow("sweeper stopped")
			return nil
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil && ctx.Err() == nil {
				logger.Log.Errorw("sweep failed", "error", err)
			}
		}
	}
}

// SweepOnce runs a single pass. A failing transfer is logged and skipped;
// only a failure to list candidates is returned.
func (s *Sweeper) SweepOnce(ctx context.Context) (SweepResult, error) {
	var res SweepResult

	cutoff := s.cfg.Now().Add(-s.cfg.PendingTTL)
	stale, err := s.transfers.ListStale(ctx, models.TransferPending, cutoff, s.cfg.BatchSize)
	if err != nil {
		return res, err
	}
	for _, id := range stale {
		_, err := s.closer.Expire(ctx, id)
		s.count(&res, "expire", id, err, &res.Expired)
	}

	if s.cfg.AutoSettle {
		ready, err := s.transfers.ListStale(ctx, models.TransferProcessing, s.cfg.Now(), s.cfg.BatchSize)
		if err != nil {
			return res, err
		}
		for _, id := range ready {
			_, err := s.closer.Complete(ctx, models.ActorSystem, id)
			s.count(&res, "complete", id, err, &res.Completed)
		}
	}

	if res.Expired+res.Completed+res.Failed > 0 {
		logger.Log.Infow("sweep finished", "expired", res.Expired, "completed", res.Completed, "failed", res.Failed)
	}
	return res, nil
}

func (s *Sweeper) count(res *SweepResult, action string, id uuid.UUID, err error, done *int) {
	switch {
	case err == nil:
		*done++
		s.metrics.IncSweep(action, metrics.OutcomeSuccess)
	case errors.Is(err, models.ErrTransferNotPending), errors.Is(err, models.ErrTransferNotProcessing):
		// closed by someone else since it was listed
		s.metrics.IncSweep(action, metrics.OutcomeNoop)
	default:
		res.Failed++
		s.metrics.IncSweep(action, metrics.OutcomeFailure)
		logger.Log.Warnw("sweeper could not close transfer", "transfer_id", id, "action", action, "error", err)
	}
}
