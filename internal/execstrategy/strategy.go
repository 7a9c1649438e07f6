// Package execstrategy bridges internal/orderbook's ExecBook and VenueBook
// (§4.8): each Strategy is a stateless policy keyed by one
// domain.ExecStrategyKind, subscribed to a fixed event filter, that mutates
// the two books and publishes new venue orders or cancellations in reaction.
package execstrategy

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/arkinlabs/engine/internal/domain"
	"github.com/arkinlabs/engine/internal/events"
	"github.com/arkinlabs/engine/internal/orderbook"
)

// childBuilder constructs the venue order(s) an incoming ExecutionOrder
// should spawn. remaining is the parent's outstanding quantity at the time
// of the call.
type childBuilder func(order domain.ExecutionOrder, remaining decimal.Decimal) domain.VenueOrder

// Strategy is the common subscribe/filter/react loop every policy (Taker,
// Maker, Wide) shares; only the childBuilder and optional SlicePlan differ.
type Strategy struct {
	kind      domain.ExecStrategyKind
	execBook  *orderbook.ExecBook
	venueBook *orderbook.VenueBook
	bus       *events.Bus
	events    *events.Manager
	log       zerolog.Logger

	buildChild childBuilder
	slicing    *SlicePlan
}

func newStrategy(kind domain.ExecStrategyKind, execBook *orderbook.ExecBook, venueBook *orderbook.VenueBook, bus *events.Bus, mgr *events.Manager, log zerolog.Logger, build childBuilder) *Strategy {
	return &Strategy{
		kind:       kind,
		execBook:   execBook,
		venueBook:  venueBook,
		bus:        bus,
		events:     mgr,
		log:        log.With().Str("component", "execstrategy").Str("kind", string(kind)).Logger(),
		buildChild: build,
	}
}

// Kind returns the execution-strategy kind this instance serves.
func (s *Strategy) Kind() domain.ExecStrategyKind { return s.kind }

// Run subscribes to the common event filter and reacts to events until ctx
// is cancelled. Intended to be run in its own goroutine.
func (s *Strategy) Run(ctx context.Context) {
	sub := s.bus.Subscribe(events.NewEventFilter(
		events.NewExecutionOrder,
		events.CancelExecutionOrder,
		events.CancelAllExecutionOrders,
		events.VenueOrderInflight,
		events.VenueOrderPlaced,
		events.VenueOrderRejected,
		events.VenueOrderFill,
		events.VenueOrderCancelled,
		events.VenueOrderExpired,
	))
	defer sub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			s.handle(ctx, ev)
		}
	}
}

func (s *Strategy) handle(ctx context.Context, ev events.Event) {
	switch data := ev.Data.(type) {
	case events.NewExecutionOrderData:
		s.onNewExecutionOrder(ctx, data.Order)
	case events.CancelExecutionOrderData:
		s.onCancelExecutionOrder(data.ID, ev.EventTime)
	case events.CancelAllExecutionOrdersData:
		s.onCancelAllExecutionOrders(data, ev.EventTime)
	case events.VenueOrderInflightData:
		s.withOwnedChild(data.Order, func(id uuid.UUID, t time.Time) { s.venueBook.SetInflight(id, t) })
	case events.VenueOrderPlacedData:
		s.withOwnedChild(data.Order, func(id uuid.UUID, t time.Time) { s.venueBook.Place(id, t) })
	case events.VenueOrderRejectedData:
		s.onVenueOrderRejected(data)
	case events.VenueOrderFillData:
		s.onVenueOrderFill(data)
	case events.VenueOrderCancelledData:
		s.onVenueOrderTerminal(data.Order, func(id uuid.UUID, t time.Time) { s.venueBook.Cancel(id, t) })
	case events.VenueOrderExpiredData:
		s.onVenueOrderTerminal(data.Order, func(id uuid.UUID, t time.Time) { s.venueBook.Expire(id, t) })
	}
}

// owns reports whether order belongs to one of our own execution orders.
func (s *Strategy) owns(order domain.VenueOrder) (uuid.UUID, bool) {
	if order.ParentExecOrderID == nil {
		return uuid.Nil, false
	}
	if _, ok := s.execBook.Get(*order.ParentExecOrderID); !ok {
		return uuid.Nil, false
	}
	return *order.ParentExecOrderID, true
}

func (s *Strategy) withOwnedChild(order domain.VenueOrder, apply func(id uuid.UUID, t time.Time)) {
	if _, ok := s.owns(order); !ok {
		return
	}
	apply(order.ID, order.UpdatedAt)
}

func (s *Strategy) onVenueOrderRejected(data events.VenueOrderRejectedData) {
	execID, ok := s.owns(data.Order)
	if !ok {
		return
	}
	s.venueBook.Reject(data.Order.ID, data.Order.UpdatedAt, data.Reason)
	s.execBook.CheckFinalizeOrder(execID, data.Order.UpdatedAt)
}

func (s *Strategy) onVenueOrderTerminal(order domain.VenueOrder, apply func(id uuid.UUID, t time.Time)) {
	execID, ok := s.owns(order)
	if !ok {
		return
	}
	apply(order.ID, order.UpdatedAt)
	s.execBook.CheckFinalizeOrder(execID, order.UpdatedAt)
}

func (s *Strategy) onVenueOrderFill(data events.VenueOrderFillData) {
	execID, ok := s.owns(data.Order)
	if !ok {
		return
	}
	price := decimal.NewFromFloat(data.FillPrice)
	qty := decimal.NewFromFloat(data.FillQty)
	commission := decimal.NewFromFloat(data.Commission)

	s.venueBook.AddFill(data.Order.ID, data.Order.UpdatedAt, price, qty, commission, data.Order.CommissionAsset)
	s.execBook.AddFill(execID, data.Order.UpdatedAt, price, qty, commission)
	s.execBook.CheckFinalizeOrder(execID, data.Order.UpdatedAt)
}

func (s *Strategy) onNewExecutionOrder(ctx context.Context, order domain.ExecutionOrder) {
	if order.ExecStrategyKind != s.kind {
		return
	}
	now := order.CreatedAt
	if now.IsZero() {
		now = order.UpdatedAt
	}

	s.execBook.Insert(order)
	if err := s.execBook.Place(order.ID, now); err != nil {
		s.log.Warn().Err(err).Str("exec_order_id", order.ID.String()).Msg("could not place execution order")
		return
	}

	if s.slicing != nil {
		go s.runSlices(ctx, order)
		return
	}
	s.placeChild(order, order.TargetQuantity)
}

func (s *Strategy) placeChild(order domain.ExecutionOrder, remaining decimal.Decimal) {
	child := s.buildChild(order, remaining)
	s.venueBook.Insert(child)
	if s.events != nil {
		s.events.Emit("execstrategy", events.NewVenueOrderData{Order: child})
	}
}

func (s *Strategy) onCancelExecutionOrder(id uuid.UUID, t time.Time) {
	if err := s.execBook.Cancel(id, t); err != nil {
		return
	}
	// Fire-and-forget: a child that turns terminal before the executor acts
	// on this cancel is left as it is; the simulated executor only logs a
	// warning for an order it no longer holds.
	for _, child := range s.venueBook.ListByExecID(id) {
		if child.Status.Terminal() {
			continue
		}
		if s.events != nil {
			s.events.Emit("execstrategy", events.CancelVenueOrderData{ID: child.ID})
		}
	}
}

func (s *Strategy) onCancelAllExecutionOrders(data events.CancelAllExecutionOrdersData, t time.Time) {
	if len(data.Kinds) > 0 {
		owned := false
		for _, k := range data.Kinds {
			if k == s.kind {
				owned = true
				break
			}
		}
		if !owned {
			return
		}
	}
	for _, order := range s.execBook.ListByExecStrategy([]domain.ExecStrategyKind{s.kind}) {
		s.onCancelExecutionOrder(order.ID, t)
	}
}

func newVenueOrderBase(order domain.ExecutionOrder, remaining decimal.Decimal) domain.VenueOrder {
	id := order.ID
	return domain.VenueOrder{
		ID:                uuid.New(),
		ParentExecOrderID: &id,
		StrategyID:        order.StrategyID,
		InstrumentID:      order.InstrumentID,
		Side:              order.Side,
		Quantity:          remaining,
		CreatedAt:         order.UpdatedAt,
		UpdatedAt:         order.UpdatedAt,
	}
}
