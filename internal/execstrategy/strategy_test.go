package execstrategy

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkinlabs/engine/internal/domain"
	"github.com/arkinlabs/engine/internal/events"
	"github.com/arkinlabs/engine/internal/orderbook"
)

func d(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

func newHarness(t *testing.T) (*orderbook.ExecBook, *orderbook.VenueBook, *events.Bus, *events.Manager, *events.Subscription) {
	t.Helper()
	bus := events.NewBus(zerolog.Nop())
	mgr := events.NewManager(bus, zerolog.Nop())
	venueBook := orderbook.NewVenueBook(mgr, zerolog.Nop())
	execBook := orderbook.NewExecBook(venueBook, mgr, zerolog.Nop())
	sub := bus.SubscribeAll()
	return execBook, venueBook, bus, mgr, sub
}

func newExecOrder(kind domain.ExecStrategyKind, side domain.Side, qty float64) domain.ExecutionOrder {
	now := time.Now().UTC()
	return domain.ExecutionOrder{
		ID:               uuid.New(),
		ExecStrategyKind: kind,
		Side:             side,
		TargetPrice:      d(49500),
		TargetQuantity:   d(qty),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func drain(t *testing.T, sub *events.Subscription) []events.Event {
	t.Helper()
	var out []events.Event
	for {
		select {
		case ev := <-sub.Events():
			out = append(out, ev)
		case <-time.After(20 * time.Millisecond):
			return out
		}
	}
}

func TestTakerFullFillFinalizesExecOrder(t *testing.T) {
	execBook, venueBook, bus, mgr, sub := newHarness(t)
	taker := NewTaker(execBook, venueBook, bus, mgr, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go taker.Run(ctx)

	order := newExecOrder(domain.ExecStrategyTaker, domain.SideBuy, 1)
	mgr.Emit("test", events.NewExecutionOrderData{Order: order})

	evs := drain(t, sub)
	var childID uuid.UUID
	for _, ev := range evs {
		if vo, ok := ev.Data.(events.NewVenueOrderData); ok {
			childID = vo.Order.ID
			assert.Equal(t, domain.OrderMarket, vo.Order.Type)
		}
	}
	require.NotEqual(t, uuid.Nil, childID)

	got, ok := execBook.Get(order.ID)
	require.True(t, ok)
	assert.Equal(t, domain.ExecPlaced, got.Status)

	now := time.Now().UTC()
	mgr.Emit("test", events.VenueOrderPlacedData{Order: domain.VenueOrder{ID: childID, ParentExecOrderID: &order.ID, UpdatedAt: now}})
	drain(t, sub)

	fullFill := domain.VenueOrder{ID: childID, ParentExecOrderID: &order.ID, Quantity: d(1), FilledQuantity: d(1), UpdatedAt: now, Status: domain.VenueFilled}
	mgr.Emit("test", events.VenueOrderFillData{Order: fullFill, FillPrice: 49500, FillQty: 1, Commission: 0.05})
	drain(t, sub)

	time.Sleep(10 * time.Millisecond)
	got, _ = execBook.Get(order.ID)
	assert.Equal(t, domain.ExecFilled, got.Status)
	assert.True(t, got.FilledQuantity.Equal(d(1)))
}

func TestTakerCancelWithNoFillPublishesCancelForLiveChild(t *testing.T) {
	execBook, venueBook, bus, mgr, sub := newHarness(t)
	taker := NewTaker(execBook, venueBook, bus, mgr, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go taker.Run(ctx)

	order := newExecOrder(domain.ExecStrategyTaker, domain.SideSell, 2)
	mgr.Emit("test", events.NewExecutionOrderData{Order: order})
	evs := drain(t, sub)

	var childID uuid.UUID
	for _, ev := range evs {
		if vo, ok := ev.Data.(events.NewVenueOrderData); ok {
			childID = vo.Order.ID
		}
	}
	venueBook.Insert(domain.VenueOrder{ID: childID, ParentExecOrderID: &order.ID, Quantity: d(2)})

	mgr.Emit("test", events.CancelExecutionOrderData{ID: order.ID})
	evs = drain(t, sub)

	var sawCancel bool
	for _, ev := range evs {
		if c, ok := ev.Data.(events.CancelVenueOrderData); ok && c.ID == childID {
			sawCancel = true
		}
	}
	assert.True(t, sawCancel, "expected CancelVenueOrder for the live child")

	got, _ := execBook.Get(order.ID)
	assert.Equal(t, domain.ExecCancelling, got.Status)
}

func TestMakerBuildsPostOnlyLimitAtTargetPrice(t *testing.T) {
	execBook, venueBook, bus, mgr, sub := newHarness(t)
	maker := NewMaker(execBook, venueBook, bus, mgr, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go maker.Run(ctx)

	order := newExecOrder(domain.ExecStrategyMaker, domain.SideBuy, 1)
	mgr.Emit("test", events.NewExecutionOrderData{Order: order})
	evs := drain(t, sub)

	var child domain.VenueOrder
	for _, ev := range evs {
		if vo, ok := ev.Data.(events.NewVenueOrderData); ok {
			child = vo.Order
		}
	}
	assert.Equal(t, domain.OrderLimit, child.Type)
	assert.Equal(t, domain.TIFPostOnly, child.TimeInForce)
	assert.True(t, child.Price.Equal(d(49500)))
}

func TestStrategyIgnoresExecutionOrderOfAnotherKind(t *testing.T) {
	execBook, venueBook, bus, mgr, sub := newHarness(t)
	taker := NewTaker(execBook, venueBook, bus, mgr, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go taker.Run(ctx)

	order := newExecOrder(domain.ExecStrategyMaker, domain.SideBuy, 1)
	mgr.Emit("test", events.NewExecutionOrderData{Order: order})
	evs := drain(t, sub)

	for _, ev := range evs {
		_, isVenueOrder := ev.Data.(events.NewVenueOrderData)
		assert.False(t, isVenueOrder, "taker should not react to a maker-kind order")
	}
	_, ok := execBook.Get(order.ID)
	assert.False(t, ok)
}

func TestWideSlicesQuantityAcrossChildren(t *testing.T) {
	execBook, venueBook, bus, mgr, sub := newHarness(t)
	plan := SlicePlan{Count: 2, Interval: 5 * time.Millisecond, Offset: d(10)}
	wide := NewWide(execBook, venueBook, bus, mgr, zerolog.Nop(), plan)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go wide.Run(ctx)

	order := newExecOrder(domain.ExecStrategyWide, domain.SideBuy, 10)
	mgr.Emit("test", events.NewExecutionOrderData{Order: order})

	time.Sleep(40 * time.Millisecond)
	evs := drain(t, sub)

	var children []domain.VenueOrder
	for _, ev := range evs {
		if vo, ok := ev.Data.(events.NewVenueOrderData); ok {
			children = append(children, vo.Order)
		}
	}
	require.Len(t, children, 2)
	assert.True(t, children[0].Quantity.Equal(d(5)))
	assert.True(t, children[1].Quantity.Equal(d(5)))
	assert.True(t, children[1].Price.LessThan(children[0].Price), "later slices widen away from target for a buy")
}
