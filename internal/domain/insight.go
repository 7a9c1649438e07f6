package domain

import (
	"time"

	"github.com/google/uuid"
)

// InsightKind distinguishes raw market inputs from pipeline-derived values.
type InsightKind string

const (
	InsightRaw     InsightKind = "raw"
	InsightDerived InsightKind = "derived"
)

// Insight is a single scalar value at a point in time for an
// (instrument, feature) cell. NaN denotes an absent value. Insights are
// immutable once committed for their (event time, instrument, feature-id)
// cell.
type Insight struct {
	EventTime    time.Time   `json:"event_time"`
	Pipeline     string      `json:"pipeline"`
	InstrumentID uuid.UUID   `json:"instrument_id"`
	FeatureID    string      `json:"feature_id"`
	Value        float64     `json:"value"`
	Kind         InsightKind `json:"kind"`
}

// MarketSide is the aggressor side of a trade.
type MarketSide string

const (
	MarketBuy  MarketSide = "buy"
	MarketSell MarketSide = "sell"
)

// Tick is a best-bid/ask snapshot for an instrument.
type Tick struct {
	EventTime    time.Time `json:"event_time"`
	InstrumentID uuid.UUID `json:"instrument_id"`
	BidPrice     float64   `json:"bid_price"`
	BidQuantity  float64   `json:"bid_quantity"`
	AskPrice     float64   `json:"ask_price"`
	AskQuantity  float64   `json:"ask_quantity"`
}

// Trade is a single executed trade reported by a venue's public feed.
type Trade struct {
	EventTime    time.Time  `json:"event_time"`
	InstrumentID uuid.UUID  `json:"instrument_id"`
	Side         MarketSide `json:"side"`
	Price        float64    `json:"price"`
	Quantity     float64    `json:"quantity"`
}

// Book is an order-book snapshot (depth beyond best bid/ask).
type Book struct {
	EventTime    time.Time `json:"event_time"`
	InstrumentID uuid.UUID `json:"instrument_id"`
	BidPrices    []float64 `json:"bid_prices"`
	BidQuantities []float64 `json:"bid_quantities"`
	AskPrices    []float64 `json:"ask_prices"`
	AskQuantities []float64 `json:"ask_quantities"`
}

// Metric is a generic venue-reported metric (funding rate, open interest, ...).
type Metric struct {
	EventTime    time.Time `json:"event_time"`
	InstrumentID uuid.UUID `json:"instrument_id"`
	Name         string    `json:"name"`
	Value        float64   `json:"value"`
}
