// Package executor implements the Simulated Executor (§4.9): it keeps its
// own exchange-side view of resting venue orders and matches them against
// incoming ticks, independent of internal/orderbook's VenueBook (which is
// the strategy side's bookkeeping of the same orders). The two stay in sync
// only through the events each fill and lifecycle transition publishes,
// mirroring original_source/arkin-execution-sim's ExchangeBook split from
// the strategy's VenueOrderBook.
package executor

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/arkinlabs/engine/internal/domain"
	"github.com/arkinlabs/engine/internal/events"
)

// Executor matches outstanding venue orders against ticks for backtests and
// order-stack integration tests.
type Executor struct {
	mu     sync.Mutex
	orders map[uuid.UUID]domain.VenueOrder

	bus            *events.Bus
	events         *events.Manager
	commissionRate decimal.Decimal
	log            zerolog.Logger

	now func() time.Time
}

// New constructs an Executor charging commissionRate (e.g. 0.0005 for 5bps)
// per matched fill.
func New(bus *events.Bus, mgr *events.Manager, commissionRate decimal.Decimal, log zerolog.Logger) *Executor {
	return &Executor{
		orders:         make(map[uuid.UUID]domain.VenueOrder),
		bus:            bus,
		events:         mgr,
		commissionRate: commissionRate,
		log:            log.With().Str("component", "executor.simulated").Logger(),
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// Len returns the number of resting orders, used by tests.
func (e *Executor) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.orders)
}

// Get returns the executor's own view of order id, used by tests.
func (e *Executor) Get(id uuid.UUID) (domain.VenueOrder, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	o, ok := e.orders[id]
	return o, ok
}

// Run subscribes to venue-order ingress and market ticks until ctx is
// cancelled.
func (e *Executor) Run(ctx context.Context) {
	sub := e.bus.Subscribe(events.NewEventFilter(
		events.NewVenueOrder,
		events.CancelVenueOrder,
		events.CancelAllVenueOrders,
		events.TickUpdate,
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
			e.handle(ev)
		}
	}
}

func (e *Executor) handle(ev events.Event) {
	switch data := ev.Data.(type) {
	case events.NewVenueOrderData:
		e.placeOrder(data.Order)
	case events.CancelVenueOrderData:
		e.cancelOrder(data.ID)
	case events.CancelAllVenueOrdersData:
		e.cancelAll()
	case events.TickUpdateData:
		e.onTick(data.Tick)
	}
}

// placeOrder inserts order, publishing Inflight then immediately Placed —
// there is no real venue round-trip to wait on in simulation.
func (e *Executor) placeOrder(order domain.VenueOrder) {
	t := e.now()
	order.Status = domain.VenueInflight
	order.UpdatedAt = t

	e.mu.Lock()
	e.orders[order.ID] = order
	e.mu.Unlock()
	e.events.Emit("executor.simulated", events.VenueOrderInflightData{Order: order})

	t = e.now()
	order.Status = domain.VenuePlaced
	order.UpdatedAt = t

	e.mu.Lock()
	e.orders[order.ID] = order
	e.mu.Unlock()
	e.events.Emit("executor.simulated", events.VenueOrderPlacedData{Order: order})
}

func (e *Executor) cancelOrder(id uuid.UUID) {
	e.mu.Lock()
	order, ok := e.orders[id]
	if ok {
		delete(e.orders, id)
	}
	e.mu.Unlock()

	if !ok {
		e.log.Warn().Str("venue_order_id", id.String()).Msg("cancel requested for order not resting in the simulated book")
		return
	}
	order.Status = domain.VenueCancelled
	order.UpdatedAt = e.now()
	e.events.Emit("executor.simulated", events.VenueOrderCancelledData{Order: order})
}

func (e *Executor) cancelAll() {
	e.mu.Lock()
	orders := make([]domain.VenueOrder, 0, len(e.orders))
	for _, o := range e.orders {
		orders = append(orders, o)
	}
	e.orders = make(map[uuid.UUID]domain.VenueOrder)
	e.mu.Unlock()

	t := e.now()
	for _, o := range orders {
		o.Status = domain.VenueCancelled
		o.UpdatedAt = t
		e.events.Emit("executor.simulated", events.VenueOrderCancelledData{Order: o})
	}
}

// onTick matches every resting order for tick's instrument against it per
// the §4.9 Market/Limit rules, applying and publishing any resulting fill.
func (e *Executor) onTick(tick domain.Tick) {
	e.mu.Lock()
	var candidates []domain.VenueOrder
	for _, o := range e.orders {
		if o.InstrumentID == tick.InstrumentID {
			candidates = append(candidates, o)
		}
	}
	e.mu.Unlock()

	for _, o := range candidates {
		matched, price, qty := match(o, tick)
		if !matched || qty.IsZero() {
			continue
		}
		e.applyFill(o.ID, price, qty)
	}
}

// match reports whether o crosses tick, and if so the fill price/quantity.
func match(o domain.VenueOrder, tick domain.Tick) (bool, decimal.Decimal, decimal.Decimal) {
	remaining := o.Remaining()
	switch o.Type {
	case domain.OrderMarket:
		switch o.Side {
		case domain.SideBuy:
			return true, decimal.NewFromFloat(tick.AskPrice), minDecimal(remaining, decimal.NewFromFloat(tick.AskQuantity))
		default:
			return true, decimal.NewFromFloat(tick.BidPrice), minDecimal(remaining, decimal.NewFromFloat(tick.BidQuantity))
		}
	case domain.OrderLimit:
		switch o.Side {
		case domain.SideBuy:
			if tick.AskPrice > 0 && decimal.NewFromFloat(tick.AskPrice).LessThanOrEqual(o.Price) {
				return true, decimal.NewFromFloat(tick.AskPrice), minDecimal(remaining, decimal.NewFromFloat(tick.AskQuantity))
			}
		default:
			if decimal.NewFromFloat(tick.BidPrice).GreaterThanOrEqual(o.Price) {
				return true, decimal.NewFromFloat(tick.BidPrice), minDecimal(remaining, decimal.NewFromFloat(tick.BidQuantity))
			}
		}
	}
	return false, decimal.Zero, decimal.Zero
}

func minDecimal(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

func (e *Executor) applyFill(id uuid.UUID, price, qty decimal.Decimal) {
	commission := price.Mul(qty).Mul(e.commissionRate)
	t := e.now()

	e.mu.Lock()
	order, ok := e.orders[id]
	if !ok {
		e.mu.Unlock()
		return
	}

	prevFilled := order.FilledQuantity
	newFilled := prevFilled.Add(qty)
	if newFilled.IsZero() {
		order.AvgFilledPrice = decimal.Zero
	} else {
		weighted := order.AvgFilledPrice.Mul(prevFilled).Add(price.Mul(qty))
		order.AvgFilledPrice = weighted.Div(newFilled)
	}
	order.LastFillPrice = price
	order.LastFillQuantity = qty
	order.LastFillCommission = commission
	order.FilledQuantity = newFilled
	order.Commission = order.Commission.Add(commission)
	order.UpdatedAt = t

	if order.FilledQuantity.GreaterThanOrEqual(order.Quantity) {
		order.Status = domain.VenueFilled
		delete(e.orders, id)
	} else {
		order.Status = domain.VenuePartiallyFilled
		e.orders[id] = order
	}
	e.mu.Unlock()

	e.events.Emit("executor.simulated", events.VenueOrderFillData{
		Order:      order,
		FillPrice:  price.InexactFloat64(),
		FillQty:    qty.InexactFloat64(),
		Commission: commission.InexactFloat64(),
	})
}
