package scan

import (
	"image"
	"log/slog"
	"sync/atomic"
	"time"
)

const statsLogInterval = 5 * time.Second

// State is the monitor loop lifecycle state.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateTerminated:
		return "terminated"
	}
	return "unknown"
}

// FrameSource supplies pixel frames for a screen rectangle. An error return
// is the transient-failure signal: the monitor backs off and retries, it
// never surfaces the error past its own loop.
type FrameSource interface {
	Capture(bounds image.Rectangle) (*image.RGBA, error)
}

// Params are the monitor's per-run settings. They are snapshotted once at
// each Idle→Running transition; later changes (e.g. a new region picked
// while running) only take effect on the next start.
type Params struct {
	Region    Region
	Threshold float64
	Interval  time.Duration
	Backoff   time.Duration
}

// Stats summarises monitor loop behaviour for instrumentation.
type Stats struct {
	Cycles          uint64
	CaptureFailures uint64
	AvgMatch        time.Duration
	LastCycle       time.Time
}

// Monitor drives the frame source → matcher → store pipeline at a fixed
// cadence. Start/Stop flip between Idle and Running; Close terminates.
type Monitor struct {
	logger  *slog.Logger
	source  FrameSource
	catalog *Catalog
	store   *Store
	params  func() Params

	state      atomic.Int32
	cycles     atomic.Uint64
	failures   atomic.Uint64
	matchNanos atomic.Uint64
	lastCycle  atomic.Int64
}

// NewMonitor constructs an idle monitor. params is evaluated once per Start.
func NewMonitor(logger *slog.Logger, source FrameSource, catalog *Catalog, store *Store, params func() Params) *Monitor {
	return &Monitor{logger: logger, source: source, catalog: catalog, store: store, params: params}
}

func (m *Monitor) State() State  { return State(m.state.Load()) }
func (m *Monitor) Running() bool { return m.State() == StateRunning }

// Start transitions Idle→Running, snapshots the run parameters, clears all
// detection records, and spawns the scan loop. Returns false if the monitor
// was not idle.
func (m *Monitor) Start() bool {
	if !m.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return false
	}
	p := m.params()
	if p.Interval <= 0 {
		p.Interval = 50 * time.Millisecond
	}
	if p.Backoff <= 0 {
		p.Backoff = 50 * time.Millisecond
	}
	gen := m.store.Reset()
	if m.logger != nil {
		m.logger.Info("monitor started",
			"region", p.Region.String(),
			"size", imageSize(p.Region.Width(), p.Region.Height()),
			"threshold", p.Threshold,
			"templates", m.catalog.Len(),
		)
	}
	go m.loop(p, gen)
	return true
}

// Stop transitions Running→Idle and resets every detection record to
// inactive with no retained crop. The in-flight cycle, if any, notices the
// generation change and drops its publish. Safe to call when already idle.
func (m *Monitor) Stop() bool {
	if !m.state.CompareAndSwap(int32(StateRunning), int32(StateIdle)) {
		return false
	}
	m.store.Reset()
	if m.logger != nil {
		m.logger.Info("monitor stopped")
	}
	return true
}

// Close terminates the monitor from either state. A terminated monitor
// cannot be restarted.
func (m *Monitor) Close() {
	prev := State(m.state.Swap(int32(StateTerminated)))
	if prev == StateTerminated {
		return
	}
	m.store.Reset()
	if m.logger != nil {
		m.logger.Info("monitor terminated", "from", prev.String())
	}
}

// Stats returns a copy of the loop counters.
func (m *Monitor) Stats() Stats {
	cycles := m.cycles.Load()
	total := m.matchNanos.Load()
	var avg time.Duration
	if cycles > 0 {
		avg = time.Duration(total / cycles)
	}
	var last time.Time
	if ns := m.lastCycle.Load(); ns > 0 {
		last = time.Unix(0, ns)
	}
	return Stats{
		Cycles:          cycles,
		CaptureFailures: m.failures.Load(),
		AvgMatch:        avg,
		LastCycle:       last,
	}
}

func (m *Monitor) loop(p Params, gen uint64) {
	bounds := p.Region.Rect()
	logTicker := time.NewTicker(statsLogInterval)
	defer logTicker.Stop()
	for m.store.Generation() == gen && m.State() == StateRunning {
		frame, err := m.source.Capture(bounds)
		if err != nil {
			m.failures.Add(1)
			if m.logger != nil {
				m.logger.Debug("capture failed, backing off", "error", err)
			}
			time.Sleep(p.Backoff)
			continue
		}

		start := time.Now()
		pre := NewFramePrecomp(frame)
		outcomes := make(map[string]Outcome, m.catalog.Len())
		for _, t := range m.catalog.Templates() {
			outcomes[t.Name] = Match(pre, t, p.Threshold)
		}
		m.matchNanos.Add(uint64(time.Since(start).Nanoseconds()))

		m.store.Publish(gen, time.Now(), outcomes)
		m.cycles.Add(1)
		m.lastCycle.Store(time.Now().UnixNano())

		select {
		case <-logTicker.C:
			m.logStats()
		default:
		}

		time.Sleep(p.Interval)
	}
}

func (m *Monitor) logStats() {
	if m.logger == nil {
		return
	}
	stats := m.Stats()
	m.logger.Debug("scan.stats",
		"cycles", stats.Cycles,
		"capture_failures", stats.CaptureFailures,
		"avg_match", stats.AvgMatch,
	)
}
