package retrieval

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/austiecodes/curator/internal/logging"
	"github.com/austiecodes/curator/internal/metrics"
)

// Pruner deletes memories created before a cutoff.
type Pruner interface {
	DeleteMemoriesBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Retention deletes memories older than a fixed window on an interval. A
// zero window disables it.
type Retention struct {
	store    Pruner
	window   time.Duration
	interval time.Duration
	now      func() time.Time
	log      zerolog.Logger
}

// NewRetention prunes memories older than window every interval. A zero
// window disables pruning.
func NewRetention(store Pruner, window, interval time.Duration) *Retention {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Retention{
		store:    store,
		window:   window,
		interval: interval,
		now:      time.Now,
		log:      logging.WithComponent("retention"),
	}
}

func (r *Retention) Enabled() bool { return r.window > 0 }

// PruneOnce deletes everything older than the window and returns the count.
func (r *Retention) PruneOnce(ctx context.Context) (int64, error) {
	if !r.Enabled() {
		return 0, nil
	}
	cutoff := r.now().Add(-r.window)
	n, err := r.store.DeleteMemoriesBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		metrics.MemoriesPruned.Add(float64(n))
		r.log.Info().Int64("deleted", n).Time("cutoff", cutoff).Msg("pruned old memories")
	}
	return n, nil
}

// Serve prunes immediately and then on every tick until ctx is cancelled.
func (r *Retention) Serve(ctx context.Context) error {
	if !r.Enabled() {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		if _, err := r.PruneOnce(ctx); err != nil {
			r.log.Error().Err(err).Msg("retention pass failed")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (r *Retention) String() string { return "retention" }
