package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/aq-forecast-gateway/internal/observability"
	"github.com/hashicorp/go-multierror"
	"github.com/robfig/cron/v3"
)

// LiveRefresher periodically requests live predictions for every catalog
// site so downstream consumers see fresh forecasts without a dashboard open.
type LiveRefresher struct {
	forecaster *Forecaster
	schedule   string
	cron       *cron.Cron
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewLiveRefresher creates a refresher running on a standard five-field cron
// schedule. Overlapping runs are skipped.
func NewLiveRefresher(f *Forecaster, schedule string, logger *slog.Logger, metrics *observability.Metrics) (*LiveRefresher, error) {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("parse live refresh schedule: %w", err)
	}
	return &LiveRefresher{
		forecaster: f,
		schedule:   schedule,
		cron:       cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger:     logger,
		metrics:    metrics,
	}, nil
}

// Run schedules refreshes until ctx is cancelled, then waits for a running
// refresh to finish.
func (r *LiveRefresher) Run(ctx context.Context) error {
	_, err := r.cron.AddFunc(r.schedule, func() {
		if err := r.RefreshOnce(ctx); err != nil {
			r.logger.Warn("live refresh failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("add live refresh job: %w", err)
	}

	r.logger.Info("live refresher started", "schedule", r.schedule)
	r.cron.Start()

	<-ctx.Done()
	<-r.cron.Stop().Done()
	r.logger.Info("live refresher stopped")
	return nil
}

// RefreshOnce requests a live prediction for every site. Sites are refreshed
// one after another; a failing site does not stop the others. Cancellation
// stops the run and is reported apart from site failures.
func (r *LiveRefresher) RefreshOnce(ctx context.Context) error {
	start := time.Now()
	sites := r.forecaster.Sites()

	var (
		result    *multierror.Error
		attempted int
		failed    int
		cancelled bool
	)
	for _, site := range sites {
		if err := ctx.Err(); err != nil {
			result = multierror.Append(result, fmt.Errorf("refresh stopped after %d of %d sites: %w", attempted, len(sites), err))
			cancelled = true
			break
		}
		attempted++
		if _, err := r.forecaster.Live(ctx, site.ID); err != nil {
			failed++
			result = multierror.Append(result, fmt.Errorf("site %d: %w", site.ID, err))
		}
	}

	outcome := "success"
	switch {
	case cancelled:
		outcome = "cancelled"
	case failed == 0:
	case failed < attempted:
		outcome = "partial"
	default:
		outcome = "error"
	}
	r.metrics.LiveRefreshRuns.WithLabelValues(outcome).Inc()
	r.logger.Info("live refresh finished", "outcome", outcome, "sites", len(sites),
		"attempted", attempted, "failed", failed, "duration", time.Since(start))
	return result.ErrorOrNil()
}
