package registry

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/arkinlabs/engine/internal/domain"
	"github.com/arkinlabs/engine/internal/events"
)

// PersistenceReader is the reference-data source the registry refreshes
// from. It is consumed, not owned: the registry never writes through it,
// and callers are free to back it with SQLite, a remote API, or a static
// fixture in tests.
type PersistenceReader interface {
	Assets(ctx context.Context) ([]domain.Asset, error)
	Instruments(ctx context.Context) ([]domain.Instrument, error)
	Venues(ctx context.Context) ([]domain.Venue, error)
	Strategies(ctx context.Context) ([]domain.Strategy, error)
	Pipelines(ctx context.Context) ([]domain.Pipeline, error)
	FeatureIDs(ctx context.Context) ([]domain.FeatureID, error)

	// AggTradeStreamRangeBuffered replays aggregated trades for instruments
	// between start and end as bus events, buffered buffer-deep and paced at
	// frequency; used to backfill the feature store before live operation.
	AggTradeStreamRangeBuffered(ctx context.Context, instruments []uuid.UUID, start, end time.Time, buffer int, frequency time.Duration) (<-chan events.Event, error)
}

// AssetQuery is a single-match lookup over assets; every field is an
// optional predicate, all supplied fields must match.
type AssetQuery struct {
	ID     *uuid.UUID
	Symbol *string
	Kind   *domain.AssetKind
}

// InstrumentQuery is a single-match lookup over instruments.
type InstrumentQuery struct {
	ID          *uuid.UUID
	VenueSymbol *string
	VenueID     *uuid.UUID
	Kind        *domain.InstrumentKind
	Synthetic   *bool
}

// VenueQuery is a single-match lookup over venues.
type VenueQuery struct {
	ID   *uuid.UUID
	Name *domain.VenueName
}

// StrategyQuery is a single-match lookup over strategies.
type StrategyQuery struct {
	ID   *uuid.UUID
	Name *string
}

// PipelineQuery is a single-match lookup over pipelines.
type PipelineQuery struct {
	ID   *uuid.UUID
	Name *string
}

// FeatureQuery is a single-match lookup over declared feature-ids.
type FeatureQuery struct {
	Pipeline *string
	Name     *string
}

// AssetListFilter collects list-query predicates for assets. An empty slice
// in any field means "no filter on this dimension".
type AssetListFilter struct {
	Symbols []string
	Kinds   []domain.AssetKind
}

// InstrumentListFilter collects list-query predicates for instruments.
type InstrumentListFilter struct {
	VenueSymbols []string
	VenueNames   []domain.VenueName
	Kinds        []domain.InstrumentKind
	Synthetic    *bool
	Statuses     []domain.InstrumentStatus
}

// VenueListFilter collects list-query predicates for venues.
type VenueListFilter struct {
	Names []domain.VenueName
}

// StrategyListFilter collects list-query predicates for strategies.
type StrategyListFilter struct {
	Names []string
}
