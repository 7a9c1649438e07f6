// Package registry resolves asset, instrument, venue, strategy, pipeline,
// and feature-id identities against a read-mostly reference-data snapshot,
// and mints synthetic instruments on behalf of the feature graph (§4.1).
package registry

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/arkinlabs/engine/internal/domain"
	"github.com/arkinlabs/engine/internal/events"
)

// snapshot is an immutable reference-data view. Refresh builds a new
// snapshot and atomically swaps it in, matching the "read-mostly; refresh
// swaps an immutable snapshot" shared-resource policy.
type snapshot struct {
	assets      []domain.Asset
	instruments []domain.Instrument
	venues      []domain.Venue
	strategies  []domain.Strategy
	pipelines   []domain.Pipeline
	features    []domain.FeatureID
}

// Registry is the engine's reference-data lookup service.
type Registry struct {
	reader PersistenceReader
	log    zerolog.Logger

	mu   sync.RWMutex
	snap *snapshot

	syntheticMu sync.Mutex
	synthetic   map[string]domain.Instrument
}

// New constructs a Registry over reader. Callers must call Refresh at least
// once before issuing queries.
func New(reader PersistenceReader, log zerolog.Logger) *Registry {
	return &Registry{
		reader:    reader,
		log:       log.With().Str("component", "registry").Logger(),
		snap:      &snapshot{},
		synthetic: make(map[string]domain.Instrument),
	}
}

// Refresh reloads every reference-data collection from the reader and
// atomically replaces the current snapshot. Synthetic instruments minted by
// the feature graph are preserved across refreshes — they have no backing
// row in the persistence reader.
func (r *Registry) Refresh(ctx context.Context) error {
	assets, err := r.reader.Assets(ctx)
	if err != nil {
		return err
	}
	instruments, err := r.reader.Instruments(ctx)
	if err != nil {
		return err
	}
	venues, err := r.reader.Venues(ctx)
	if err != nil {
		return err
	}
	strategies, err := r.reader.Strategies(ctx)
	if err != nil {
		return err
	}
	pipelines, err := r.reader.Pipelines(ctx)
	if err != nil {
		return err
	}
	features, err := r.reader.FeatureIDs(ctx)
	if err != nil {
		return err
	}

	next := &snapshot{
		assets:      assets,
		instruments: instruments,
		venues:      venues,
		strategies:  strategies,
		pipelines:   pipelines,
		features:    features,
	}

	r.mu.Lock()
	r.snap = next
	r.mu.Unlock()

	r.log.Info().
		Int("assets", len(assets)).
		Int("instruments", len(instruments)).
		Int("venues", len(venues)).
		Msg("reference data refreshed")
	return nil
}

// Backfill replays aggregated trade history for instruments between start
// and end through the configured PersistenceReader, buffered buffer-deep
// and paced at frequency. Callers re-publish the returned events (typically
// via Manager.EmitAt, preserving each event's original timestamp) to warm
// the feature store before live operation begins.
func (r *Registry) Backfill(ctx context.Context, instruments []uuid.UUID, start, end time.Time, buffer int, frequency time.Duration) (<-chan events.Event, error) {
	return r.reader.AggTradeStreamRangeBuffered(ctx, instruments, start, end, buffer, frequency)
}

func (r *Registry) current() *snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snap
}

// GetAsset resolves a single asset matching q, failing if zero or more than
// one asset satisfies every supplied predicate.
func (r *Registry) GetAsset(q AssetQuery) (domain.Asset, error) {
	var matches []domain.Asset
	for _, a := range r.current().assets {
		if q.ID != nil && *q.ID != a.ID {
			continue
		}
		if q.Symbol != nil && !strings.EqualFold(*q.Symbol, a.Symbol) {
			continue
		}
		if q.Kind != nil && *q.Kind != a.Kind {
			continue
		}
		matches = append(matches, a)
	}
	return singleMatch(matches)
}

// GetInstrument resolves a single instrument matching q. Synthetic
// instruments minted via MintSynthetic are included.
func (r *Registry) GetInstrument(q InstrumentQuery) (domain.Instrument, error) {
	var matches []domain.Instrument
	for _, i := range r.allInstruments() {
		if q.ID != nil && *q.ID != i.ID {
			continue
		}
		if q.VenueSymbol != nil && !strings.EqualFold(*q.VenueSymbol, i.VenueSymbol) {
			continue
		}
		if q.VenueID != nil && *q.VenueID != i.VenueID {
			continue
		}
		if q.Kind != nil && *q.Kind != i.Kind {
			continue
		}
		if q.Synthetic != nil && *q.Synthetic != i.Synthetic {
			continue
		}
		matches = append(matches, i)
	}
	return singleMatch(matches)
}

// GetVenue resolves a single venue matching q.
func (r *Registry) GetVenue(q VenueQuery) (domain.Venue, error) {
	var matches []domain.Venue
	for _, v := range r.current().venues {
		if q.ID != nil && *q.ID != v.ID {
			continue
		}
		if q.Name != nil && *q.Name != v.Name {
			continue
		}
		matches = append(matches, v)
	}
	return singleMatch(matches)
}

// GetStrategy resolves a single strategy matching q.
func (r *Registry) GetStrategy(q StrategyQuery) (domain.Strategy, error) {
	var matches []domain.Strategy
	for _, s := range r.current().strategies {
		if q.ID != nil && *q.ID != s.ID {
			continue
		}
		if q.Name != nil && !strings.EqualFold(*q.Name, s.Name) {
			continue
		}
		matches = append(matches, s)
	}
	return singleMatch(matches)
}

// GetPipeline resolves a single pipeline matching q.
func (r *Registry) GetPipeline(q PipelineQuery) (domain.Pipeline, error) {
	var matches []domain.Pipeline
	for _, p := range r.current().pipelines {
		if q.ID != nil && *q.ID != p.ID {
			continue
		}
		if q.Name != nil && !strings.EqualFold(*q.Name, p.Name) {
			continue
		}
		matches = append(matches, p)
	}
	return singleMatch(matches)
}

// GetFeatureID resolves a single declared feature-id matching q.
func (r *Registry) GetFeatureID(q FeatureQuery) (domain.FeatureID, error) {
	var matches []domain.FeatureID
	for _, f := range r.current().features {
		if q.Pipeline != nil && !strings.EqualFold(*q.Pipeline, f.Pipeline) {
			continue
		}
		if q.Name != nil && !strings.EqualFold(*q.Name, f.Name) {
			continue
		}
		matches = append(matches, f)
	}
	return singleMatch(matches)
}

// ListAssets returns every asset satisfying filter; an empty collection in
// any field of filter means "no filter on this dimension".
func (r *Registry) ListAssets(filter AssetListFilter) []domain.Asset {
	symbols := toUpperSet(filter.Symbols)
	kinds := assetKindSet(filter.Kinds)

	var out []domain.Asset
	for _, a := range r.current().assets {
		if len(symbols) > 0 && !symbols[strings.ToUpper(a.Symbol)] {
			continue
		}
		if len(kinds) > 0 && !kinds[a.Kind] {
			continue
		}
		out = append(out, a)
	}
	return out
}

// ListInstruments returns every instrument (real or synthetic) satisfying
// filter.
func (r *Registry) ListInstruments(filter InstrumentListFilter) []domain.Instrument {
	venueSymbols := toUpperSet(filter.VenueSymbols)
	kinds := instrumentKindSet(filter.Kinds)
	statuses := instrumentStatusSet(filter.Statuses)
	venueIDs := r.venueIDsForNames(filter.VenueNames)

	var out []domain.Instrument
	for _, i := range r.allInstruments() {
		if len(venueSymbols) > 0 && !venueSymbols[strings.ToUpper(i.VenueSymbol)] {
			continue
		}
		if venueIDs != nil && !venueIDs[i.VenueID] {
			continue
		}
		if len(kinds) > 0 && !kinds[i.Kind] {
			continue
		}
		if filter.Synthetic != nil && *filter.Synthetic != i.Synthetic {
			continue
		}
		if len(statuses) > 0 && !statuses[i.Status] {
			continue
		}
		out = append(out, i)
	}
	return out
}

// ListVenues returns every venue satisfying filter.
func (r *Registry) ListVenues(filter VenueListFilter) []domain.Venue {
	names := venueNameSet(filter.Names)
	var out []domain.Venue
	for _, v := range r.current().venues {
		if len(names) > 0 && !names[v.Name] {
			continue
		}
		out = append(out, v)
	}
	return out
}

// ListStrategies returns every strategy satisfying filter.
func (r *Registry) ListStrategies(filter StrategyListFilter) []domain.Strategy {
	names := toUpperSet(filter.Names)
	var out []domain.Strategy
	for _, s := range r.current().strategies {
		if len(names) > 0 && !names[strings.ToUpper(s.Name)] {
			continue
		}
		out = append(out, s)
	}
	return out
}

func (r *Registry) venueIDsForNames(names []domain.VenueName) map[uuid.UUID]bool {
	if len(names) == 0 {
		return nil
	}
	nameSet := venueNameSet(names)
	ids := make(map[uuid.UUID]bool)
	for _, v := range r.current().venues {
		if nameSet[v.Name] {
			ids[v.ID] = true
		}
	}
	return ids
}

func (r *Registry) allInstruments() []domain.Instrument {
	real := r.current().instruments

	r.syntheticMu.Lock()
	defer r.syntheticMu.Unlock()
	if len(r.synthetic) == 0 {
		return real
	}
	out := make([]domain.Instrument, 0, len(real)+len(r.synthetic))
	out = append(out, real...)
	for _, i := range r.synthetic {
		out = append(out, i)
	}
	return out
}

func singleMatch[T any](matches []T) (T, error) {
	var zero T
	switch len(matches) {
	case 0:
		return zero, ErrNotFound
	case 1:
		return matches[0], nil
	default:
		return zero, ErrAmbiguous
	}
}

func toUpperSet(values []string) map[string]bool {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[strings.ToUpper(v)] = true
	}
	return set
}

func assetKindSet(kinds []domain.AssetKind) map[domain.AssetKind]bool {
	if len(kinds) == 0 {
		return nil
	}
	set := make(map[domain.AssetKind]bool, len(kinds))
	for _, k := range kinds {
		set[k] = true
	}
	return set
}

func instrumentKindSet(kinds []domain.InstrumentKind) map[domain.InstrumentKind]bool {
	if len(kinds) == 0 {
		return nil
	}
	set := make(map[domain.InstrumentKind]bool, len(kinds))
	for _, k := range kinds {
		set[k] = true
	}
	return set
}

func instrumentStatusSet(statuses []domain.InstrumentStatus) map[domain.InstrumentStatus]bool {
	if len(statuses) == 0 {
		return nil
	}
	set := make(map[domain.InstrumentStatus]bool, len(statuses))
	for _, s := range statuses {
		set[s] = true
	}
	return set
}

func venueNameSet(names []domain.VenueName) map[domain.VenueName]bool {
	if len(names) == 0 {
		return nil
	}
	set := make(map[domain.VenueName]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}
