package domain

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InstrumentKind classifies an Instrument.
type InstrumentKind string

const (
	InstrumentSpot      InstrumentKind = "spot"
	InstrumentPerpetual InstrumentKind = "perpetual"
	InstrumentFuture    InstrumentKind = "future"
	InstrumentOption    InstrumentKind = "option"
)

// InstrumentStatus is the trading status of an Instrument.
type InstrumentStatus string

const (
	InstrumentTrading  InstrumentStatus = "trading"
	InstrumentHalted   InstrumentStatus = "halted"
	InstrumentDelisted InstrumentStatus = "delisted"
)

// Instrument is a tradable (or, if Synthetic, pipeline-internal) market.
// Immutable after creation except for Status, which the registry may update
// in place as venues report trading-status changes.
type Instrument struct {
	ID              uuid.UUID        `json:"id"`
	VenueID         uuid.UUID        `json:"venue_id"`
	VenueSymbol     string           `json:"venue_symbol"`
	Kind            InstrumentKind   `json:"kind"`
	BaseAssetID     uuid.UUID        `json:"base_asset_id"`
	QuoteAssetID    uuid.UUID        `json:"quote_asset_id"`
	MarginAssetID   uuid.UUID        `json:"margin_asset_id"`
	PricePrecision  int32            `json:"price_precision"`
	QtyPrecision    int32            `json:"qty_precision"`
	TickSize        decimal.Decimal  `json:"tick_size"`
	LotSize         decimal.Decimal  `json:"lot_size"`
	Synthetic       bool             `json:"synthetic"`
	Status          InstrumentStatus `json:"status"`
}

// Tradable is either a real/synthetic Instrument or an Asset, used as the
// common key for ledger accounts (position accounts key on an instrument,
// cash accounts key on an asset).
type Tradable struct {
	InstrumentID uuid.UUID
	AssetID      uuid.UUID
}

// IsInstrument reports whether the tradable names an instrument rather than
// a bare asset.
func (t Tradable) IsInstrument() bool {
	return t.InstrumentID != uuid.Nil
}

func TradableFromInstrument(id uuid.UUID) Tradable { return Tradable{InstrumentID: id} }
func TradableFromAsset(id uuid.UUID) Tradable       { return Tradable{AssetID: id} }

func normalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
