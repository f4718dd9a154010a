package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/findash/findash/internal/locking"
	"github.com/findash/findash/internal/modules/marketdata"
)

// PriceRefreshJob refreshes all tracked symbols on a cron schedule. A tick
// that fires while the previous refresh is still running is skipped.
type PriceRefreshJob struct {
	log         zerolog.Logger
	lockManager *locking.Manager
	market      *marketdata.Service
	timeout     time.Duration
}

// NewPriceRefreshJob creates a new price refresh job
func NewPriceRefreshJob(market *marketdata.Service, lockManager *locking.Manager, log zerolog.Logger) *PriceRefreshJob {
	return &PriceRefreshJob{
		log:         log.With().Str("job", "price_refresh").Logger(),
		lockManager: lockManager,
		market:      market,
		timeout:     2 * time.Minute,
	}
}

// Name returns the job name
func (j *PriceRefreshJob) Name() string {
	return "price_refresh"
}

// Run executes one refresh cycle
func (j *PriceRefreshJob) Run() error {
	if err := j.lockManager.Acquire("price_refresh"); err != nil {
		j.log.Warn().Err(err).Msg("Price refresh already running, skipping tick")
		return nil
	}
	defer j.lockManager.Release("price_refresh")

	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	refreshed, err := j.market.RefreshAll(ctx)
	if err != nil {
		return err
	}

	j.log.Info().
		Int("refreshed", refreshed).
		Dur("duration_ms", time.Since(start)).
		Msg("Price refresh complete")

	return nil
}
