package domain

import "github.com/google/uuid"

// VenueName is the enumerated set of supported venues.
type VenueName string

const (
	VenueBinance  VenueName = "binance"
	VenueBybit    VenueName = "bybit"
	VenueOKX      VenueName = "okx"
	VenueSimulated VenueName = "simulated"
)

// VenueKind classifies the market structure a venue offers.
type VenueKind string

const (
	VenueKindSpot             VenueKind = "spot"
	VenueKindUSDMPerpetual    VenueKind = "usdm_perpetual"
	VenueKindCoinMPerpetual   VenueKind = "coinm_perpetual"
)

// Venue is an immutable identity for a trading venue.
type Venue struct {
	ID   uuid.UUID `json:"id"`
	Name VenueName `json:"name"`
	Kind VenueKind `json:"kind"`
}

func NewVenue(name VenueName, kind VenueKind) Venue {
	return Venue{ID: uuid.New(), Name: name, Kind: kind}
}
