package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Side is the buy/sell direction of an order.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// ExecStrategyKind names the execution-strategy policy driving a parent
// execution order.
type ExecStrategyKind string

const (
	ExecStrategyTaker ExecStrategyKind = "taker"
	ExecStrategyMaker ExecStrategyKind = "maker"
	ExecStrategyWide  ExecStrategyKind = "wide"
)

// ExecOrderStatus is the state of an ExecutionOrder. See internal/orderbook
// for the transition rules.
type ExecOrderStatus string

const (
	ExecNew                      ExecOrderStatus = "new"
	ExecPlaced                   ExecOrderStatus = "placed"
	ExecPartiallyFilled          ExecOrderStatus = "partially_filled"
	ExecFilled                   ExecOrderStatus = "filled"
	ExecCancelling                ExecOrderStatus = "cancelling"
	ExecCancelled                ExecOrderStatus = "cancelled"
	ExecPartiallyFilledCancelled ExecOrderStatus = "partially_filled_cancelled"
	ExecExpired                  ExecOrderStatus = "expired"
	ExecRejected                 ExecOrderStatus = "rejected"
)

// Terminal reports whether status admits no further transitions.
func (s ExecOrderStatus) Terminal() bool {
	switch s {
	case ExecFilled, ExecCancelled, ExecPartiallyFilledCancelled, ExecExpired, ExecRejected:
		return true
	default:
		return false
	}
}

// ExecutionOrder is a parent order describing trading intent, independent of
// venue mechanics.
type ExecutionOrder struct {
	ID               uuid.UUID        `json:"id"`
	StrategyID       uuid.UUID        `json:"strategy_id"`
	InstrumentID     uuid.UUID        `json:"instrument_id"`
	Side             Side             `json:"side"`
	ExecStrategyKind ExecStrategyKind `json:"exec_strategy_kind"`
	TargetPrice      decimal.Decimal  `json:"target_price"` // zero for market
	TargetQuantity   decimal.Decimal  `json:"target_quantity"`
	FilledQuantity   decimal.Decimal  `json:"filled_quantity"`
	AvgFilledPrice   decimal.Decimal  `json:"avg_filled_price"`
	Commission       decimal.Decimal  `json:"commission"`
	Status           ExecOrderStatus  `json:"status"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// OrderType is the venue order type.
type OrderType string

const (
	OrderMarket     OrderType = "market"
	OrderLimit      OrderType = "limit"
	OrderStopLimit  OrderType = "stop_limit"
)

// TimeInForce is the venue order's time-in-force instruction.
type TimeInForce string

const (
	TIFGTC      TimeInForce = "gtc"
	TIFIOC      TimeInForce = "ioc"
	TIFFOK      TimeInForce = "fok"
	TIFPostOnly TimeInForce = "post_only"
)

// VenueOrderStatus is the state of a VenueOrder. See internal/orderbook.
type VenueOrderStatus string

const (
	VenueNew             VenueOrderStatus = "new"
	VenueInflight        VenueOrderStatus = "inflight"
	VenuePlaced          VenueOrderStatus = "placed"
	VenuePartiallyFilled VenueOrderStatus = "partially_filled"
	VenueFilled          VenueOrderStatus = "filled"
	VenueCancelling      VenueOrderStatus = "cancelling"
	VenueCancelled       VenueOrderStatus = "cancelled"
	VenueRejected        VenueOrderStatus = "rejected"
	VenueExpired         VenueOrderStatus = "expired"
)

// Terminal reports whether status admits no further transitions.
func (s VenueOrderStatus) Terminal() bool {
	switch s {
	case VenueFilled, VenueCancelled, VenueRejected, VenueExpired:
		return true
	default:
		return false
	}
}

// VenueOrder is a child order actually submitted to a venue.
type VenueOrder struct {
	ID                uuid.UUID        `json:"id"`
	ParentExecOrderID *uuid.UUID       `json:"parent_exec_order_id,omitempty"`
	StrategyID        uuid.UUID        `json:"strategy_id"`
	InstrumentID      uuid.UUID        `json:"instrument_id"`
	Side              Side             `json:"side"`
	Type              OrderType        `json:"type"`
	TimeInForce       TimeInForce      `json:"time_in_force"`
	Price             decimal.Decimal  `json:"price"`
	Quantity          decimal.Decimal  `json:"quantity"`
	LastFillPrice     decimal.Decimal  `json:"last_fill_price"`
	LastFillQuantity  decimal.Decimal  `json:"last_fill_quantity"`
	LastFillCommission decimal.Decimal `json:"last_fill_commission"`
	CommissionAsset   uuid.UUID        `json:"commission_asset"`
	FilledQuantity    decimal.Decimal  `json:"filled_quantity"`
	AvgFilledPrice    decimal.Decimal  `json:"avg_filled_price"`
	Commission        decimal.Decimal  `json:"commission"`
	Status            VenueOrderStatus `json:"status"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// Remaining returns the unfilled quantity.
func (v VenueOrder) Remaining() decimal.Decimal {
	return v.Quantity.Sub(v.FilledQuantity)
}
