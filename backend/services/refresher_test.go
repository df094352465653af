// ABOUTME: Tests for the snapshot refresher
// ABOUTME: Covers store swaps, trends, hooks, failures and collapsed refreshes

package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/markalston/virt-dashboard/internal/plugin"
	"github.com/markalston/virt-dashboard/internal/ranking"
	"github.com/markalston/virt-dashboard/internal/snapshot"
)

type fakeSource struct {
	calls atomic.Int32
	fetch func(ctx context.Context, n int32) (*snapshot.Snapshot, error)
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) Fetch(ctx context.Context) (*snapshot.Snapshot, error) {
	n := f.calls.Add(1)
	return f.fetch(ctx, n)
}

type recordingObserver struct {
	mu        sync.Mutex
	results   []error
	snapshots []*snapshot.Snapshot
}

func (o *recordingObserver) ObserveRefresh(_ string, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.results = append(o.results, err)
}

func (o *recordingObserver) ObserveSnapshot(s *snapshot.Snapshot) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.snapshots = append(o.snapshots, s)
}

type fakeHistory struct {
	err error
	n   int
}

func (h *fakeHistory) Record(_ context.Context, s *snapshot.Snapshot) error {
	h.n++
	s.GlobalUtilization.CPU.History = []snapshot.HistoryPoint{{Date: s.CollectedAt, Value: s.GlobalUtilization.CPU.Used}}
	return h.err
}

func cpuSnapshot(hostUsed float64) *snapshot.Snapshot {
	s := &snapshot.Snapshot{}
	s.GlobalUtilization.CPU = snapshot.Utilization{Used: hostUsed, Total: 100}
	s.GlobalUtilization.CPU.Utilization.Hosts = snapshot.Some(ranking.Record{Name: "h1", Used: hostUsed, Total: 100})
	return s
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRefresher_RefreshSwapsStore(t *testing.T) {
	store := &snapshot.Store{}
	obs := &recordingObserver{}
	hist := &fakeHistory{}
	var hooked *snapshot.Snapshot
	src := &fakeSource{fetch: func(_ context.Context, n int32) (*snapshot.Snapshot, error) {
		return cpuSnapshot(float64(n) * 20), nil
	}}

	r := NewRefresher(RefresherConfig{
		Source:    src,
		Store:     store,
		History:   hist,
		Observer:  obs,
		OnRefresh: func(s *snapshot.Snapshot) { hooked = s },
	})

	first, err := r.Refresh(context.Background())
	if err != nil {
		t.Fatalf("First refresh failed: %v", err)
	}
	if first.CollectedAt.IsZero() {
		t.Error("Expected collection time to be defaulted")
	}
	if len(first.GlobalUtilization.CPU.History) != 1 {
		t.Errorf("Expected 1 history point, got %d", len(first.GlobalUtilization.CPU.History))
	}

	second, err := r.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Second refresh failed: %v", err)
	}

	current, err := store.Current()
	if err != nil {
		t.Fatalf("Store empty after refresh: %v", err)
	}
	if current != second {
		t.Error("Expected store to hold the second snapshot")
	}
	if hooked != second {
		t.Error("Expected OnRefresh to receive the second snapshot")
	}
	if got := second.GlobalUtilization.CPU.Utilization.Hosts.Records[0].Trend; got != ranking.TrendUp {
		t.Errorf("Expected trend up, got %q", got)
	}
	if got := first.GlobalUtilization.CPU.Utilization.Hosts.Records[0].Trend; got != "" {
		t.Errorf("Expected no trend on first snapshot, got %q", got)
	}

	if hist.n != 2 {
		t.Errorf("Expected 2 history records, got %d", hist.n)
	}
	if len(obs.results) != 2 || obs.results[0] != nil || obs.results[1] != nil {
		t.Errorf("Expected two successful observations, got %v", obs.results)
	}
	if len(obs.snapshots) != 2 {
		t.Errorf("Expected 2 observed snapshots, got %d", len(obs.snapshots))
	}

	status := r.Status()
	if status.Source != "fake" {
		t.Errorf("Expected source fake, got %s", status.Source)
	}
	if status.LastError != "" {
		t.Errorf("Expected no last error, got %s", status.LastError)
	}
	if !status.LastAttempt.Equal(status.LastSuccess) {
		t.Errorf("Expected last attempt %s to equal last success %s", status.LastAttempt, status.LastSuccess)
	}
}

func TestRefresher_FailureKeepsPreviousSnapshot(t *testing.T) {
	store := &snapshot.Store{}
	obs := &recordingObserver{}
	boom := errors.New("vcenter unreachable")
	src := &fakeSource{fetch: func(_ context.Context, n int32) (*snapshot.Snapshot, error) {
		if n == 1 {
			return cpuSnapshot(10), nil
		}
		return nil, boom
	}}
	r := NewRefresher(RefresherConfig{Source: src, Store: store, Observer: obs})

	first, err := r.Refresh(context.Background())
	if err != nil {
		t.Fatalf("First refresh failed: %v", err)
	}

	if _, err := r.Refresh(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("Expected %v, got %v", boom, err)
	}

	current, err := store.Current()
	if err != nil {
		t.Fatalf("Store empty after failed refresh: %v", err)
	}
	if current != first {
		t.Error("Expected store to keep the first snapshot")
	}
	if got := r.Status().LastError; got != "vcenter unreachable" {
		t.Errorf("Expected last error to be recorded, got %q", got)
	}
	if len(obs.snapshots) != 1 {
		t.Errorf("Expected 1 observed snapshot, got %d", len(obs.snapshots))
	}
	if !errors.Is(obs.results[1], boom) {
		t.Errorf("Expected observed failure %v, got %v", boom, obs.results[1])
	}
}

func TestRefresher_HistoryFailureDoesNotBlockSwap(t *testing.T) {
	store := &snapshot.Store{}
	src := &fakeSource{fetch: func(_ context.Context, _ int32) (*snapshot.Snapshot, error) {
		return cpuSnapshot(10), nil
	}}
	r := NewRefresher(RefresherConfig{Source: src, Store: store, History: &fakeHistory{err: errors.New("disk full")}})

	if _, err := r.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if _, err := store.Current(); err != nil {
		t.Errorf("Expected snapshot in store, got %v", err)
	}
}

func TestRefresher_NilSnapshotIsAnError(t *testing.T) {
	src := &fakeSource{fetch: func(_ context.Context, _ int32) (*snapshot.Snapshot, error) {
		return nil, nil
	}}
	r := NewRefresher(RefresherConfig{Source: src, Store: &snapshot.Store{}})

	if _, err := r.Refresh(context.Background()); err == nil {
		t.Error("Expected error for nil snapshot")
	}
}

func TestRefresher_ConcurrentRefreshesShareOneFetch(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	src := &fakeSource{fetch: func(_ context.Context, _ int32) (*snapshot.Snapshot, error) {
		started <- struct{}{}
		<-release
		return cpuSnapshot(10), nil
	}}
	r := NewRefresher(RefresherConfig{Source: src, Store: &snapshot.Store{}})

	const callers = 5
	var wg sync.WaitGroup
	results := make([]*snapshot.Snapshot, callers)

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], _ = r.Refresh(context.Background())
	}()
	<-started

	for i := 1; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = r.Refresh(context.Background())
		}()
	}
	// give the followers time to join the in-flight call
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := src.calls.Load(); n != 1 {
		t.Errorf("Expected 1 fetch, got %d", n)
	}
	for i, s := range results {
		if s == nil || s != results[0] {
			t.Errorf("Caller %d got a different snapshot", i)
		}
	}
}

func TestRefresher_CancelledCallerDoesNotCancelSharedFetch(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	var fetchErr atomic.Value
	src := &fakeSource{fetch: func(ctx context.Context, _ int32) (*snapshot.Snapshot, error) {
		started <- struct{}{}
		select {
		case <-release:
			return cpuSnapshot(10), nil
		case <-ctx.Done():
			fetchErr.Store(ctx.Err())
			return nil, ctx.Err()
		}
	}}
	store := &snapshot.Store{}
	r := NewRefresher(RefresherConfig{Source: src, Store: store})

	ctx, cancel := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := r.Refresh(ctx)
		leaderErr <- err
	}()
	<-started

	follower := make(chan *snapshot.Snapshot, 1)
	go func() {
		s, _ := r.Refresh(context.Background())
		follower <- s
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	if err := <-leaderErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected cancelled caller to return %v, got %v", context.Canceled, err)
	}

	close(release)
	select {
	case s := <-follower:
		if s == nil {
			t.Fatalf("Expected follower to receive a snapshot, fetch saw %v", fetchErr.Load())
		}
	case <-time.After(time.Second):
		t.Fatal("Follower never received the shared result")
	}
	if _, err := store.Current(); err != nil {
		t.Errorf("Expected snapshot installed after the caller left, got %v", err)
	}
}

func TestRefresher_FetchTimeout(t *testing.T) {
	src := &fakeSource{fetch: func(ctx context.Context, _ int32) (*snapshot.Snapshot, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	r := NewRefresher(RefresherConfig{Source: src, Store: &snapshot.Store{}, Timeout: 20 * time.Millisecond})

	_, err := r.Refresh(context.Background())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected %v, got %v", context.DeadlineExceeded, err)
	}
}

func TestRefresher_FirstSnapshotAfterInitialFailure(t *testing.T) {
	src := &fakeSource{fetch: func(_ context.Context, n int32) (*snapshot.Snapshot, error) {
		if n == 1 {
			return nil, errors.New("vcenter unreachable")
		}
		return cpuSnapshot(10), nil
	}}
	r := NewRefresher(RefresherConfig{Source: src, Store: &snapshot.Store{}, Interval: 10 * time.Millisecond})
	manifest := plugin.NewManifest()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registered := make(chan error, 1)
	go func() {
		registered <- plugin.Register(ctx, manifest, plugin.Config{Title: "Dashboard"}, r.WaitFirstSnapshot)
	}()
	go r.Run(ctx)

	select {
	case err := <-registered:
		if err != nil {
			t.Fatalf("Register failed: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Plugin never became ready after a later refresh succeeded")
	}
	if !manifest.Info().Ready {
		t.Error("Expected manifest ready")
	}
	if n := src.calls.Load(); n < 2 {
		t.Errorf("Expected a retry after the failed first refresh, got %d fetches", n)
	}
}

func TestRefresher_WaitFirstSnapshotHonorsContext(t *testing.T) {
	src := &fakeSource{fetch: func(_ context.Context, _ int32) (*snapshot.Snapshot, error) {
		return nil, errors.New("down")
	}}
	r := NewRefresher(RefresherConfig{Source: src, Store: &snapshot.Store{}})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := r.WaitFirstSnapshot(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected %v, got %v", context.DeadlineExceeded, err)
	}
	select {
	case <-r.FirstSnapshot():
		t.Error("FirstSnapshot closed without a successful refresh")
	default:
	}
}

func TestRefresher_RunStopsWithContext(t *testing.T) {
	store := &snapshot.Store{}
	src := &fakeSource{fetch: func(_ context.Context, _ int32) (*snapshot.Snapshot, error) {
		return cpuSnapshot(10), nil
	}}
	r := NewRefresher(RefresherConfig{Source: src, Store: store, Interval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	waitFor(t, func() bool { return src.calls.Load() >= 3 }, time.Second)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
