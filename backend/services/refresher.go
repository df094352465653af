// ABOUTME: Periodic and on-demand snapshot refresh from a data source
// ABOUTME: Collapses concurrent refreshes, records history, swaps the store

package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/markalston/virt-dashboard/internal/snapshot"
)

// RefreshObserver receives refresh outcomes, e.g. for metrics.
type RefreshObserver interface {
	ObserveRefresh(source string, elapsed time.Duration, err error)
	ObserveSnapshot(s *snapshot.Snapshot)
}

// HistoryRecorder appends a snapshot's utilization to its history and
// attaches the stored series.
type HistoryRecorder interface {
	Record(ctx context.Context, s *snapshot.Snapshot) error
}

// DefaultRefreshTimeout bounds one fetch when RefresherConfig.Timeout is zero.
const DefaultRefreshTimeout = 2 * time.Minute

// RefresherConfig wires a Refresher. History, Observer and OnRefresh are
// optional.
type RefresherConfig struct {
	Source   snapshot.Source
	Store    *snapshot.Store
	History  HistoryRecorder
	Observer RefreshObserver
	Interval time.Duration
	Timeout  time.Duration
	// OnRefresh runs after every successful swap.
	OnRefresh func(s *snapshot.Snapshot)
}

// RefreshStatus describes the latest refresh attempts.
type RefreshStatus struct {
	Source      string    `json:"source"`
	LastAttempt time.Time `json:"last_attempt,omitzero"`
	LastSuccess time.Time `json:"last_success,omitzero"`
	LastError   string    `json:"last_error,omitempty"`
}

type Refresher struct {
	cfg   RefresherConfig
	group singleflight.Group
	now   func() time.Time

	mu     sync.RWMutex
	status RefreshStatus

	firstOnce sync.Once
	first     chan struct{}
}

func NewRefresher(cfg RefresherConfig) *Refresher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultRefreshTimeout
	}
	return &Refresher{
		cfg:    cfg,
		now:    time.Now,
		status: RefreshStatus{Source: cfg.Source.Name()},
		first:  make(chan struct{}),
	}
}

// Refresh fetches a new snapshot and installs it. Callers arriving while a
// refresh is running share its result. The shared fetch is not tied to any
// caller's ctx: a caller whose ctx ends gets ctx.Err() while the fetch runs
// on, bounded by the configured timeout.
func (r *Refresher) Refresh(ctx context.Context) (*snapshot.Snapshot, error) {
	ch := r.group.DoChan("refresh", func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.cfg.Timeout)
		defer cancel()
		return r.refresh(fetchCtx)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			slog.Debug("Refresh shared with concurrent caller")
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*snapshot.Snapshot), nil
	}
}

// FirstSnapshot is closed once the first refresh has installed a snapshot.
func (r *Refresher) FirstSnapshot() <-chan struct{} {
	return r.first
}

// WaitFirstSnapshot blocks until the first snapshot is installed or ctx is
// done.
func (r *Refresher) WaitFirstSnapshot(ctx context.Context) error {
	select {
	case <-r.first:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Refresher) refresh(ctx context.Context) (*snapshot.Snapshot, error) {
	source := r.cfg.Source.Name()
	start := r.now()

	next, err := r.cfg.Source.Fetch(ctx)
	elapsed := r.now().Sub(start)
	if r.cfg.Observer != nil {
		r.cfg.Observer.ObserveRefresh(source, elapsed, err)
	}
	if err == nil && next == nil {
		err = errors.New("source returned no snapshot")
	}

	r.mu.Lock()
	r.status.LastAttempt = start
	if err != nil {
		r.status.LastError = err.Error()
	} else {
		r.status.LastError = ""
		r.status.LastSuccess = start
	}
	r.mu.Unlock()

	if err != nil {
		slog.Error("Snapshot refresh failed", "source", source, "error", err)
		return nil, err
	}

	if next.CollectedAt.IsZero() {
		next.CollectedAt = start
	}
	if prev, err := r.cfg.Store.Current(); err == nil {
		snapshot.ApplyTrends(prev, next)
	}
	if r.cfg.History != nil {
		if err := r.cfg.History.Record(ctx, next); err != nil {
			slog.Warn("Recording utilization history failed", "error", err)
		}
	}

	r.cfg.Store.Swap(next)
	r.firstOnce.Do(func() { close(r.first) })
	if r.cfg.Observer != nil {
		r.cfg.Observer.ObserveSnapshot(next)
	}
	if r.cfg.OnRefresh != nil {
		r.cfg.OnRefresh(next)
	}

	slog.Info("Snapshot refreshed", "source", source, "duration_ms", elapsed.Milliseconds())
	return next, nil
}

// Status returns the outcome of the latest refresh attempts.
func (r *Refresher) Status() RefreshStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

// Run refreshes once immediately and then every Interval until ctx is done.
// Failures are logged and retried on the next tick.
func (r *Refresher) Run(ctx context.Context) {
	_, _ = r.Refresh(ctx)

	if r.cfg.Interval <= 0 {
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = r.Refresh(ctx)
		}
	}
}
