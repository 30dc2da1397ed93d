// Package jobs holds the background workers that keep the local snapshot
// fresh.
package jobs

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Refreshable is the slice of the tracker the refresher drives.
type Refreshable interface {
	Refresh(ctx context.Context, page, perPage int) error
	Pagination() (page, perPage int)
}

type RefresherConfig struct {
	Interval time.Duration
}

// Refresher periodically re-fetches the current page. Each cycle re-reads
// the pagination selection, so page changes between ticks take effect on
// the next cycle. Stop halts the schedule but never aborts a cycle that
// already started.
type Refresher struct {
	tracker Refreshable
	logger  *zap.SugaredLogger
	config  RefresherConfig

	// newTicker is swappable so tests can drive ticks directly.
	newTicker func(time.Duration) (<-chan time.Time, func())

	mu      sync.Mutex
	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

func NewRefresher(tracker Refreshable, logger *zap.SugaredLogger, config RefresherConfig) *Refresher {
	if config.Interval <= 0 {
		config.Interval = 10 * time.Second
	}
	return &Refresher{
		tracker: tracker,
		logger:  logger,
		config:  config,
		newTicker: func(d time.Duration) (<-chan time.Time, func()) {
			t := time.NewTicker(d)
			return t.C, t.Stop
		},
	}
}

// Start launches the refresh loop and triggers an immediate first cycle.
// Calling Start on a running refresher is a no-op.
func (r *Refresher) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return
	}
	r.running = true
	r.stopCh = make(chan struct{})
	r.doneCh = make(chan struct{})

	r.logger.Infow("starting snapshot refresher", "interval", r.config.Interval)
	go r.run(ctx, r.stopCh, r.doneCh)
}

// Stop halts the schedule and waits for the loop to exit. An in-flight
// refresh cycle runs to completion; its result still applies through the
// usual staleness rules.
func (r *Refresher) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	close(r.stopCh)
	done := r.doneCh
	r.mu.Unlock()

	<-done
	r.logger.Infow("snapshot refresher stopped")
}

func (r *Refresher) run(ctx context.Context, stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	r.cycle(ctx)

	ticks, stop := r.newTicker(r.config.Interval)
	defer stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticks:
			r.cycle(ctx)
		}
	}
}

func (r *Refresher) cycle(ctx context.Context) {
	page, perPage := r.tracker.Pagination()
	if err := r.tracker.Refresh(ctx, page, perPage); err != nil {
		r.logger.Warnw("snapshot refresh failed", "page", page, "error", err)
	}
}
