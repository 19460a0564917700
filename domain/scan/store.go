package scan

import (
	"image"
	"sync"
	"sync/atomic"
	"time"
)

// Record is the per-template runtime detection state.
type Record struct {
	Active bool
	Score  float64
	Crop   *image.RGBA
	// LastSeen is the time of the most recent activation; it carries
	// forward across inactive cycles and only resets with the store.
	LastSeen time.Time
	// ActiveSince marks the start of the current active streak. Readers use
	// it to tell a continuing activation from a fresh one.
	ActiveSince time.Time
}

// Store holds the latest detection record per template. A single writer
// (the monitor loop) publishes complete per-cycle maps; readers snapshot
// the current map via an atomic pointer, so a record never mixes fields
// from two publish cycles.
type Store struct {
	mu    sync.Mutex
	gen   atomic.Uint64
	names []string
	cur   atomic.Pointer[map[string]Record]
}

// NewStore creates a store with one inactive record per catalog template.
func NewStore(catalog *Catalog) *Store {
	s := &Store{}
	for _, t := range catalog.Templates() {
		s.names = append(s.names, t.Name)
	}
	s.cur.Store(s.clearedMap())
	return s
}

func (s *Store) clearedMap() *map[string]Record {
	m := make(map[string]Record, len(s.names))
	for _, name := range s.names {
		m[name] = Record{}
	}
	return &m
}

// Generation returns the token a writer must present to Publish. Reset
// bumps it, so publishes racing a pause are dropped.
func (s *Store) Generation() uint64 { return s.gen.Load() }

// Publish installs a complete per-cycle record map built from outcomes.
// A call with a stale generation is a no-op. LastSeen and ActiveSince carry
// forward per the Record contract.
func (s *Store) Publish(gen uint64, now time.Time, outcomes map[string]Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen.Load() {
		return
	}
	prev := *s.cur.Load()
	m := make(map[string]Record, len(s.names))
	for _, name := range s.names {
		out, ok := outcomes[name]
		old := prev[name]
		rec := Record{Score: out.Score, LastSeen: old.LastSeen}
		if ok && out.Active {
			rec.Active = true
			rec.Crop = out.Crop
			rec.LastSeen = now
			if old.Active {
				rec.ActiveSince = old.ActiveSince
			} else {
				rec.ActiveSince = now
			}
		}
		m[name] = rec
	}
	s.cur.Store(&m)
}

// Reset installs an all-inactive map, drops any in-flight publish, and
// returns the new generation. Idempotent: resetting a cleared store keeps
// it cleared.
func (s *Store) Reset() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	gen := s.gen.Add(1)
	s.cur.Store(s.clearedMap())
	return gen
}

// Snapshot returns the current record map. The map is immutable by
// contract: it is replaced wholesale on every publish and must not be
// mutated by readers.
func (s *Store) Snapshot() map[string]Record {
	return *s.cur.Load()
}
