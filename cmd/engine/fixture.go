package main

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/arkinlabs/engine/internal/domain"
	"github.com/arkinlabs/engine/internal/events"
)

// staticReader is a minimal registry.PersistenceReader backed by an
// in-process fixture describing a single simulated venue trading BTC/USDT
// spot. A real deployment backs the registry with SQLite or a venue's own
// reference-data API instead.
type staticReader struct {
	venue      domain.Venue
	btc        domain.Asset
	usdt       domain.Asset
	instrument domain.Instrument
}

func newStaticReader() *staticReader {
	venue := domain.NewVenue(domain.VenueSimulated, domain.VenueKindSpot)
	btc := domain.NewAsset("BTC", domain.AssetCrypto)
	usdt := domain.NewAsset("USDT", domain.AssetStablecoin)

	return &staticReader{
		venue: venue,
		btc:   btc,
		usdt:  usdt,
		instrument: domain.Instrument{
			ID:             uuid.New(),
			VenueID:        venue.ID,
			VenueSymbol:    "BTCUSDT",
			Kind:           domain.InstrumentSpot,
			BaseAssetID:    btc.ID,
			QuoteAssetID:   usdt.ID,
			PricePrecision: 2,
			QtyPrecision:   6,
			TickSize:       decimal.NewFromFloat(0.01),
			LotSize:        decimal.NewFromFloat(0.000001),
			Status:         domain.InstrumentTrading,
		},
	}
}

func (r *staticReader) Assets(ctx context.Context) ([]domain.Asset, error) {
	return []domain.Asset{r.btc, r.usdt}, nil
}

func (r *staticReader) Instruments(ctx context.Context) ([]domain.Instrument, error) {
	return []domain.Instrument{r.instrument}, nil
}

func (r *staticReader) Venues(ctx context.Context) ([]domain.Venue, error) {
	return []domain.Venue{r.venue}, nil
}

func (r *staticReader) Strategies(ctx context.Context) ([]domain.Strategy, error) {
	return nil, nil
}

func (r *staticReader) Pipelines(ctx context.Context) ([]domain.Pipeline, error) {
	return nil, nil
}

func (r *staticReader) FeatureIDs(ctx context.Context) ([]domain.FeatureID, error) {
	return nil, nil
}

// AggTradeStreamRangeBuffered has nothing to backfill from: the fixture
// carries no historical trade tape, so it returns an already-closed channel.
func (r *staticReader) AggTradeStreamRangeBuffered(ctx context.Context, instruments []uuid.UUID, start, end time.Time, buffer int, frequency time.Duration) (<-chan events.Event, error) {
	ch := make(chan events.Event)
	close(ch)
	return ch, nil
}
