// Package events provides the engine's typed, timestamped publish/subscribe
// bus (§4.2) and the wire-independent event taxonomy (§6). All inter-
// component communication in the engine flows through this package —
// components never hold references to each other's mutable state.
package events

// EventType is the stable, wire-independent event-kind discriminant of §6.
type EventType string

const (
	// Market
	TickUpdate     EventType = "TICK_UPDATE"
	TradeUpdate    EventType = "TRADE_UPDATE"
	AggTradeUpdate EventType = "AGG_TRADE_UPDATE"
	BookUpdate     EventType = "BOOK_UPDATE"
	MetricUpdate   EventType = "METRIC_UPDATE"

	// Accounting
	InitialAccountUpdate   EventType = "INITIAL_ACCOUNT_UPDATE"
	ReconcileAccountUpdate EventType = "RECONCILE_ACCOUNT_UPDATE"
	VenueAccountUpdate     EventType = "VENUE_ACCOUNT_UPDATE"

	// Insights
	InsightsTick         EventType = "INSIGHTS_TICK"
	InsightsUpdate       EventType = "INSIGHTS_UPDATE"
	WarmupInsightsUpdate EventType = "WARMUP_INSIGHTS_UPDATE"

	// Execution orders
	NewExecutionOrder        EventType = "NEW_EXECUTION_ORDER"
	CancelExecutionOrder     EventType = "CANCEL_EXECUTION_ORDER"
	CancelAllExecutionOrders EventType = "CANCEL_ALL_EXECUTION_ORDERS"
	ExecutionOrderActive     EventType = "EXECUTION_ORDER_ACTIVE"
	ExecutionOrderCompleted  EventType = "EXECUTION_ORDER_COMPLETED"
	ExecutionOrderCancelled  EventType = "EXECUTION_ORDER_CANCELLED"
	ExecutionOrderExpired    EventType = "EXECUTION_ORDER_EXPIRED"

	// Venue orders
	NewVenueOrder        EventType = "NEW_VENUE_ORDER"
	CancelVenueOrder     EventType = "CANCEL_VENUE_ORDER"
	CancelAllVenueOrders EventType = "CANCEL_ALL_VENUE_ORDERS"
	VenueOrderInflight   EventType = "VENUE_ORDER_INFLIGHT"
	VenueOrderPlaced     EventType = "VENUE_ORDER_PLACED"
	VenueOrderRejected   EventType = "VENUE_ORDER_REJECTED"
	VenueOrderFill       EventType = "VENUE_ORDER_FILL"
	VenueOrderCancelled  EventType = "VENUE_ORDER_CANCELLED"
	VenueOrderExpired    EventType = "VENUE_ORDER_EXPIRED"
	VenueOrderUpdate     EventType = "VENUE_ORDER_UPDATE"

	// Ledger
	NewAccount       EventType = "NEW_ACCOUNT"
	NewTransfer      EventType = "NEW_TRANSFER"
	NewTransferBatch EventType = "NEW_TRANSFER_BATCH"

	// Lifecycle
	Finished EventType = "FINISHED"
)
