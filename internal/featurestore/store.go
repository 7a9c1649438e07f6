// Package featurestore indexes insights by (instrument, feature-id) with
// time-ordered access (§4.4). Evict drops cells older than a given horizon;
// the store never calls it on its own, so cells are kept until a caller
// does. Fill semantics are applied at query time; the store never fabricates
// writes.
package featurestore

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arkinlabs/engine/internal/domain"
)

// Key identifies a single (instrument, feature-id) cell series.
type Key struct {
	InstrumentID uuid.UUID
	FeatureID    domain.FeatureID
}

// Sample is a single event-time/value cell.
type Sample struct {
	EventTime time.Time
	Value     float64
}

// FillStrategy controls how Range fills grid ticks with no native sample.
type FillStrategy int

const (
	ForwardFill FillStrategy = iota
	Zero
	Drop
)

// Store holds every feature-id series the engine has computed or ingested.
type Store struct {
	mu    sync.RWMutex
	grid  time.Duration
	cells map[Key][]Sample
}

// New constructs a Store with grid interval g (the tick spacing Range steps
// by; default 1 second per §4.4).
func New(g time.Duration) *Store {
	if g <= 0 {
		g = time.Second
	}
	return &Store{grid: g, cells: make(map[Key][]Sample)}
}

// InsertBatch idempotently upserts samples for key. Out-of-order arrivals
// are permitted; the series is kept sorted by event time on write so reads
// never need to sort.
func (s *Store) InsertBatch(key Key, samples []Sample) {
	if len(samples) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	series := s.cells[key]
	for _, sample := range samples {
		series = upsert(series, sample)
	}
	s.cells[key] = series
}

// Insert is InsertBatch for a single sample.
func (s *Store) Insert(key Key, sample Sample) {
	s.InsertBatch(key, []Sample{sample})
}

func upsert(series []Sample, sample Sample) []Sample {
	i := sort.Search(len(series), func(i int) bool {
		return !series[i].EventTime.Before(sample.EventTime)
	})
	if i < len(series) && series[i].EventTime.Equal(sample.EventTime) {
		series[i] = sample
		return series
	}
	series = append(series, Sample{})
	copy(series[i+1:], series[i:])
	series[i] = sample
	return series
}

// Last returns the most recent sample with event time <= at.
func (s *Store) Last(key Key, at time.Time) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	series := s.cells[key]
	i := lastIndexAtOrBefore(series, at)
	if i < 0 {
		return 0, false
	}
	return series[i].Value, true
}

// lastIndexAtOrBefore returns the index of the last sample with event time
// <= at, or -1 if none exists.
func lastIndexAtOrBefore(series []Sample, at time.Time) int {
	i := sort.Search(len(series), func(i int) bool {
		return series[i].EventTime.After(at)
	})
	return i - 1
}

// Range returns n values at grid ticks at, at-g, ..., at-(n-1)*g, newest
// first, with fill applied per §4.4. ok is false only when fill == Drop and
// at least one tick is natively absent, or when fill == ForwardFill and the
// oldest requested tick has no prior value at all.
func (s *Store) Range(key Key, at time.Time, n int, fill FillStrategy) ([]float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	series := s.cells[key]
	out := make([]float64, n)
	native := make([]bool, n)

	for i := 0; i < n; i++ {
		tick := at.Add(-time.Duration(i) * s.grid)
		if v, ok := exactAt(series, tick); ok {
			out[i] = v
			native[i] = true
		}
	}

	switch fill {
	case Drop:
		for i := 0; i < n; i++ {
			if !native[i] {
				return nil, false
			}
		}
		return out, true

	case Zero:
		for i := 0; i < n; i++ {
			if !native[i] {
				out[i] = 0
			}
		}
		return out, true

	default: // ForwardFill
		for i := 0; i < n; i++ {
			if native[i] {
				continue
			}
			tick := at.Add(-time.Duration(i) * s.grid)
			v, ok := s.lastLocked(series, tick)
			if !ok {
				return nil, false
			}
			out[i] = v
		}
		return out, true
	}
}

func (s *Store) lastLocked(series []Sample, at time.Time) (float64, bool) {
	i := lastIndexAtOrBefore(series, at)
	if i < 0 {
		return 0, false
	}
	return series[i].Value, true
}

func exactAt(series []Sample, at time.Time) (float64, bool) {
	i := sort.Search(len(series), func(i int) bool {
		return !series[i].EventTime.Before(at)
	})
	if i < len(series) && series[i].EventTime.Equal(at) {
		return series[i].Value, true
	}
	return 0, false
}

// Window returns every sample with event time in (at-w, at], chronological
// order.
func (s *Store) Window(key Key, at time.Time, w time.Duration) []Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()

	series := s.cells[key]
	start := at.Add(-w)

	lo := sort.Search(len(series), func(i int) bool {
		return series[i].EventTime.After(start)
	})
	hi := sort.Search(len(series), func(i int) bool {
		return series[i].EventTime.After(at)
	})
	if lo >= hi {
		return nil
	}
	out := make([]Sample, hi-lo)
	copy(out, series[lo:hi])
	return out
}

// Evict drops every cell with event time before horizon, across all keys.
func (s *Store) Evict(horizon time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, series := range s.cells {
		i := sort.Search(len(series), func(i int) bool {
			return !series[i].EventTime.Before(horizon)
		})
		if i == 0 {
			continue
		}
		if i == len(series) {
			delete(s.cells, key)
			continue
		}
		s.cells[key] = append([]Sample{}, series[i:]...)
	}
}

// NaN is the sentinel for an absent feature value, used by operators whose
// preconditions are unmet.
func NaN() float64 { return math.NaN() }

// Keys returns every (instrument, feature-id) series currently held, in no
// particular order. Used for read-only reporting, not the hot path.
func (s *Store) Keys() []Key {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Key, 0, len(s.cells))
	for key := range s.cells {
		out = append(out, key)
	}
	return out
}

// Dump returns a deep copy of every series currently held, keyed by Key.
// Used by periodic snapshot archival, not the hot path.
func (s *Store) Dump() map[Key][]Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[Key][]Sample, len(s.cells))
	for key, series := range s.cells {
		cp := make([]Sample, len(series))
		copy(cp, series)
		out[key] = cp
	}
	return out
}
