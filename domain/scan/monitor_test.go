package scan

import (
	"errors"
	"image"
	"sync"
	"testing"
	"time"
)

// fakeSource serves a scripted frame and records every requested bounds.
type fakeSource struct {
	mu       sync.Mutex
	frame    *image.RGBA
	err      error
	failures int // errors to return before serving frames
	requests []image.Rectangle
}

func (f *fakeSource) Capture(bounds image.Rectangle) (*image.RGBA, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, bounds)
	if f.failures > 0 {
		f.failures--
		return nil, errors.New("transient capture failure")
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.frame, nil
}

func (f *fakeSource) requestsSnapshot() []image.Rectangle {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]image.Rectangle, len(f.requests))
	copy(out, f.requests)
	return out
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timeout: %s", msg)
}

func newTestMonitor(t *testing.T, src FrameSource, params func() Params) (*Monitor, *Store, *Catalog) {
	t.Helper()
	catalog := &Catalog{templates: []*Template{
		NewTemplate("Shield", grayImage(16, 16, shieldPattern)),
	}}
	store := NewStore(catalog)
	return NewMonitor(discardLogger, src, catalog, store, params), store, catalog
}

func fastParams(region Region) func() Params {
	return func() Params {
		return Params{Region: region, Threshold: 0.82, Interval: time.Millisecond, Backoff: time.Millisecond}
	}
}

func TestMonitor_DetectsAndPublishes(t *testing.T) {
	src := &fakeSource{frame: frameWithShield(100, 80, 16, 16, 20, 30)}
	m, store, _ := newTestMonitor(t, src, fastParams(Region{0, 0, 100, 80}))
	defer m.Close()
	if !m.Start() {
		t.Fatal("start from idle should succeed")
	}
	if m.Start() {
		t.Fatal("start while running must be rejected")
	}
	waitFor(t, time.Second, func() bool {
		return store.Snapshot()["Shield"].Active
	}, "shield never detected")
	rec := store.Snapshot()["Shield"]
	if rec.Crop == nil || rec.LastSeen.IsZero() {
		t.Fatalf("active record incomplete: %+v", rec)
	}
}

func TestMonitor_StopClearsRecords(t *testing.T) {
	src := &fakeSource{frame: frameWithShield(100, 80, 16, 16, 20, 30)}
	m, store, _ := newTestMonitor(t, src, fastParams(Region{0, 0, 100, 80}))
	defer m.Close()
	m.Start()
	waitFor(t, time.Second, func() bool {
		return store.Snapshot()["Shield"].Active
	}, "shield never detected")
	if !m.Stop() {
		t.Fatal("stop from running should succeed")
	}
	if m.Stop() {
		t.Fatal("stop while idle must be a no-op")
	}
	waitFor(t, time.Second, func() bool {
		rec := store.Snapshot()["Shield"]
		return !rec.Active && rec.Crop == nil
	}, "records not cleared after stop")
	// The cleared state must stick even if a cycle was in flight.
	time.Sleep(20 * time.Millisecond)
	if rec := store.Snapshot()["Shield"]; rec.Active || rec.Crop != nil {
		t.Fatalf("stale publish leaked after stop: %+v", rec)
	}
	if m.State() != StateIdle {
		t.Fatalf("expected idle, got %v", m.State())
	}
}

func TestMonitor_RegionPinnedForRun(t *testing.T) {
	src := &fakeSource{frame: frameWithShield(100, 80, 16, 16, 20, 30)}
	region := Region{0, 0, 100, 80}
	var mu sync.Mutex
	params := func() Params {
		mu.Lock()
		defer mu.Unlock()
		return Params{Region: region, Threshold: 0.82, Interval: time.Millisecond, Backoff: time.Millisecond}
	}
	m, _, _ := newTestMonitor(t, src, params)
	defer m.Close()
	m.Start()
	waitFor(t, time.Second, func() bool { return len(src.requestsSnapshot()) >= 3 }, "no captures")

	firstRect := Region{0, 0, 100, 80}.Rect()
	mu.Lock()
	region = Region{10, 10, 90, 70}
	mu.Unlock()

	// The running loop must keep using the region captured at start.
	before := len(src.requestsSnapshot())
	waitFor(t, time.Second, func() bool { return len(src.requestsSnapshot()) >= before+3 }, "loop stalled")
	for _, r := range src.requestsSnapshot() {
		if r != firstRect {
			t.Fatalf("region changed mid-run: requested %v", r)
		}
	}

	// Only the next Idle→Running transition picks up the new region.
	m.Stop()
	src.mu.Lock()
	src.requests = nil
	src.mu.Unlock()
	m.Start()
	newRect := Region{10, 10, 90, 70}.Rect()
	waitFor(t, time.Second, func() bool {
		reqs := src.requestsSnapshot()
		return len(reqs) > 0 && reqs[len(reqs)-1] == newRect
	}, "restart did not pick up new region")
}

func TestMonitor_RetriesTransientFailures(t *testing.T) {
	src := &fakeSource{frame: frameWithShield(100, 80, 16, 16, 20, 30), failures: 5}
	m, store, _ := newTestMonitor(t, src, fastParams(Region{0, 0, 100, 80}))
	defer m.Close()
	m.Start()
	waitFor(t, time.Second, func() bool {
		return store.Snapshot()["Shield"].Active
	}, "never recovered from transient failures")
	if m.Stats().CaptureFailures != 5 {
		t.Fatalf("expected 5 recorded failures, got %d", m.Stats().CaptureFailures)
	}
}

func TestMonitor_CloseFromEitherState(t *testing.T) {
	src := &fakeSource{frame: frameWithShield(100, 80, 16, 16, 20, 30)}

	idle, _, _ := newTestMonitor(t, src, fastParams(Region{0, 0, 100, 80}))
	idle.Close()
	if idle.State() != StateTerminated {
		t.Fatalf("close from idle: got %v", idle.State())
	}
	if idle.Start() {
		t.Fatal("terminated monitor must not restart")
	}

	running, store, _ := newTestMonitor(t, src, fastParams(Region{0, 0, 100, 80}))
	running.Start()
	waitFor(t, time.Second, func() bool { return len(src.requestsSnapshot()) > 0 }, "no captures")
	running.Close()
	if running.State() != StateTerminated {
		t.Fatalf("close from running: got %v", running.State())
	}
	waitFor(t, time.Second, func() bool {
		return !store.Snapshot()["Shield"].Active
	}, "records not cleared after close")
	running.Close() // idempotent
}
