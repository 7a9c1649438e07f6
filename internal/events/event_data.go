package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/arkinlabs/engine/internal/domain"
)

// EventData is the interface every event payload implements. It lets the bus
// and subscribers treat payloads polymorphically while keeping each payload
// type-safe, mirroring the teacher's typed-event-data convention.
type EventData interface {
	EventType() EventType
}

// Event is an envelope carrying a typed payload, its kind, the publisher's
// event time, and the publishing component's name. Timestamp satisfies the
// "events carry a timestamp() accessor" requirement of §6.
type Event struct {
	Type      EventType `json:"type"`
	EventTime time.Time `json:"event_time"`
	Module    string    `json:"module"`
	Data      EventData `json:"data"`
}

// Timestamp returns the event's ordering key for downstream consumers.
func (e Event) Timestamp() time.Time { return e.EventTime }

// --- Market ---

type TickUpdateData struct{ Tick domain.Tick }

func (d TickUpdateData) EventType() EventType { return TickUpdate }

type TradeUpdateData struct{ Trade domain.Trade }

func (d TradeUpdateData) EventType() EventType { return TradeUpdate }

type AggTradeUpdateData struct{ Trade domain.Trade }

func (d AggTradeUpdateData) EventType() EventType { return AggTradeUpdate }

type BookUpdateData struct{ Book domain.Book }

func (d BookUpdateData) EventType() EventType { return BookUpdate }

type MetricUpdateData struct{ Metric domain.Metric }

func (d MetricUpdateData) EventType() EventType { return MetricUpdate }

// --- Accounting ---

// AccountSnapshot is a single account's reported balance from a venue, used
// to derive reconciliation adjustment transfers (§4.3).
type AccountSnapshot struct {
	AccountKey domain.AccountKey
	Balance    float64
}

type InitialAccountUpdateData struct{ Snapshots []AccountSnapshot }

func (d InitialAccountUpdateData) EventType() EventType { return InitialAccountUpdate }

type ReconcileAccountUpdateData struct{ Snapshots []AccountSnapshot }

func (d ReconcileAccountUpdateData) EventType() EventType { return ReconcileAccountUpdate }

type VenueAccountUpdateData struct{ Snapshots []AccountSnapshot }

func (d VenueAccountUpdateData) EventType() EventType { return VenueAccountUpdate }

// --- Insights ---

type InsightsTickData struct{ At time.Time }

func (d InsightsTickData) EventType() EventType { return InsightsTick }

type InsightsUpdateData struct{ Insights []domain.Insight }

func (d InsightsUpdateData) EventType() EventType { return InsightsUpdate }

type WarmupInsightsUpdateData struct{ Insights []domain.Insight }

func (d WarmupInsightsUpdateData) EventType() EventType { return WarmupInsightsUpdate }

// --- Execution orders ---

type NewExecutionOrderData struct{ Order domain.ExecutionOrder }

func (d NewExecutionOrderData) EventType() EventType { return NewExecutionOrder }

type CancelExecutionOrderData struct{ ID uuid.UUID }

func (d CancelExecutionOrderData) EventType() EventType { return CancelExecutionOrder }

type CancelAllExecutionOrdersData struct {
	At    time.Time
	Kinds []domain.ExecStrategyKind
}

func (d CancelAllExecutionOrdersData) EventType() EventType { return CancelAllExecutionOrders }

type ExecutionOrderActiveData struct{ Order domain.ExecutionOrder }

func (d ExecutionOrderActiveData) EventType() EventType { return ExecutionOrderActive }

type ExecutionOrderCompletedData struct{ Order domain.ExecutionOrder }

func (d ExecutionOrderCompletedData) EventType() EventType { return ExecutionOrderCompleted }

type ExecutionOrderCancelledData struct{ Order domain.ExecutionOrder }

func (d ExecutionOrderCancelledData) EventType() EventType { return ExecutionOrderCancelled }

type ExecutionOrderExpiredData struct{ Order domain.ExecutionOrder }

func (d ExecutionOrderExpiredData) EventType() EventType { return ExecutionOrderExpired }

// --- Venue orders ---

type NewVenueOrderData struct{ Order domain.VenueOrder }

func (d NewVenueOrderData) EventType() EventType { return NewVenueOrder }

type CancelVenueOrderData struct{ ID uuid.UUID }

func (d CancelVenueOrderData) EventType() EventType { return CancelVenueOrder }

type CancelAllVenueOrdersData struct{ At time.Time }

func (d CancelAllVenueOrdersData) EventType() EventType { return CancelAllVenueOrders }

type VenueOrderInflightData struct{ Order domain.VenueOrder }

func (d VenueOrderInflightData) EventType() EventType { return VenueOrderInflight }

type VenueOrderPlacedData struct{ Order domain.VenueOrder }

func (d VenueOrderPlacedData) EventType() EventType { return VenueOrderPlaced }

type VenueOrderRejectedData struct {
	Order  domain.VenueOrder
	Reason string
}

func (d VenueOrderRejectedData) EventType() EventType { return VenueOrderRejected }

type VenueOrderFillData struct {
	Order      domain.VenueOrder
	FillPrice  float64
	FillQty    float64
	Commission float64
}

func (d VenueOrderFillData) EventType() EventType { return VenueOrderFill }

type VenueOrderCancelledData struct{ Order domain.VenueOrder }

func (d VenueOrderCancelledData) EventType() EventType { return VenueOrderCancelled }

type VenueOrderExpiredData struct{ Order domain.VenueOrder }

func (d VenueOrderExpiredData) EventType() EventType { return VenueOrderExpired }

type VenueOrderUpdateData struct{ Order domain.VenueOrder }

func (d VenueOrderUpdateData) EventType() EventType { return VenueOrderUpdate }

// --- Ledger ---

type NewAccountData struct{ Account domain.Account }

func (d NewAccountData) EventType() EventType { return NewAccount }

type NewTransferData struct{ Transfer domain.Transfer }

func (d NewTransferData) EventType() EventType { return NewTransfer }

type NewTransferBatchData struct{ Transfers []domain.Transfer }

func (d NewTransferBatchData) EventType() EventType { return NewTransferBatch }

// --- Lifecycle ---

type FinishedData struct{ At time.Time }

func (d FinishedData) EventType() EventType { return Finished }

// MarshalJSON encodes an Event as a type/event_time/module/data object, with
// Data encoded by its own payload type, so no payload type needs its own
// envelope. There is no matching UnmarshalJSON.
func (e Event) MarshalJSON() ([]byte, error) {
	type alias struct {
		Type      EventType       `json:"type"`
		EventTime time.Time       `json:"event_time"`
		Module    string          `json:"module"`
		Data      json.RawMessage `json:"data"`
	}
	a := alias{Type: e.Type, EventTime: e.EventTime, Module: e.Module}
	if e.Data != nil {
		raw, err := json.Marshal(e.Data)
		if err != nil {
			return nil, err
		}
		a.Data = raw
	}
	return json.Marshal(a)
}
