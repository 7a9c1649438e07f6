package executor

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkinlabs/engine/internal/domain"
	"github.com/arkinlabs/engine/internal/events"
)

func newTestExecutor() (*Executor, *events.Bus, *events.Subscription) {
	bus := events.NewBus(zerolog.Nop())
	mgr := events.NewManager(bus, zerolog.Nop())
	e := New(bus, mgr, decimal.NewFromFloat(0.0005), zerolog.Nop())
	e.now = func() time.Time { return time.Unix(1_700_000_000, 0).UTC() }
	sub := bus.SubscribeAll()
	return e, bus, sub
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

func marketOrder(instrument uuid.UUID, side domain.Side, qty float64) domain.VenueOrder {
	return domain.VenueOrder{ID: uuid.New(), InstrumentID: instrument, Type: domain.OrderMarket, Side: side, Quantity: decimal.NewFromFloat(qty)}
}

func TestPlaceOrderPublishesInflightThenPlaced(t *testing.T) {
	e, _, sub := newTestExecutor()
	order := marketOrder(uuid.New(), domain.SideBuy, 1)

	e.handle(events.Event{Data: events.NewVenueOrderData{Order: order}})
	evs := drain(t, sub)

	require.Len(t, evs, 2)
	_, isInflight := evs[0].Data.(events.VenueOrderInflightData)
	assert.True(t, isInflight)
	_, isPlaced := evs[1].Data.(events.VenueOrderPlacedData)
	assert.True(t, isPlaced)
	assert.Equal(t, 1, e.Len())
}

func TestTickUpdateFillsMarketOrdersAtOppositeSidePrice(t *testing.T) {
	e, _, sub := newTestExecutor()
	instrument := uuid.New()
	buy := marketOrder(instrument, domain.SideBuy, 1)
	sell := marketOrder(instrument, domain.SideSell, 1)

	e.handle(events.Event{Data: events.NewVenueOrderData{Order: buy}})
	e.handle(events.Event{Data: events.NewVenueOrderData{Order: sell}})
	drain(t, sub)

	tick := domain.Tick{InstrumentID: instrument, BidPrice: 49000, BidQuantity: 1, AskPrice: 50000, AskQuantity: 1}
	e.handle(events.Event{Data: events.TickUpdateData{Tick: tick}})
	evs := drain(t, sub)

	var fills []events.VenueOrderFillData
	for _, ev := range evs {
		if f, ok := ev.Data.(events.VenueOrderFillData); ok {
			fills = append(fills, f)
		}
	}
	require.Len(t, fills, 2)
	for _, f := range fills {
		assert.Equal(t, domain.VenueFilled, f.Order.Status)
	}
	assert.Equal(t, 0, e.Len(), "both orders should be fully filled and removed")
}

func TestTickUpdateLimitOrderOnlyFillsWhenPriceCrosses(t *testing.T) {
	e, _, sub := newTestExecutor()
	instrument := uuid.New()
	buy := marketOrder(instrument, domain.SideBuy, 1)
	buy.Type = domain.OrderLimit
	buy.Price = decimal.NewFromFloat(49000)

	e.handle(events.Event{Data: events.NewVenueOrderData{Order: buy}})
	drain(t, sub)

	e.handle(events.Event{Data: events.TickUpdateData{Tick: domain.Tick{InstrumentID: instrument, BidPrice: 49400, AskPrice: 49600, AskQuantity: 1}}})
	require.Empty(t, drain(t, sub), "ask above limit price should not cross")
	assert.Equal(t, 1, e.Len())

	e.handle(events.Event{Data: events.TickUpdateData{Tick: domain.Tick{InstrumentID: instrument, BidPrice: 48700, AskPrice: 48900, AskQuantity: 1}}})
	evs := drain(t, sub)
	require.Len(t, evs, 1)
	fill, ok := evs[0].Data.(events.VenueOrderFillData)
	require.True(t, ok)
	assert.Equal(t, 48900.0, fill.FillPrice)
	assert.Equal(t, domain.VenueFilled, fill.Order.Status)
}

func TestCancelOrderRemovesAndPublishesCancelled(t *testing.T) {
	e, _, sub := newTestExecutor()
	order := marketOrder(uuid.New(), domain.SideBuy, 1)
	e.handle(events.Event{Data: events.NewVenueOrderData{Order: order}})
	drain(t, sub)

	e.handle(events.Event{Data: events.CancelVenueOrderData{ID: order.ID}})
	evs := drain(t, sub)
	require.Len(t, evs, 1)
	cancelled, ok := evs[0].Data.(events.VenueOrderCancelledData)
	require.True(t, ok)
	assert.Equal(t, domain.VenueCancelled, cancelled.Order.Status)
	assert.Equal(t, 0, e.Len())
}

func TestCancelAllRemovesEveryRestingOrder(t *testing.T) {
	e, _, sub := newTestExecutor()
	instrument := uuid.New()
	for i := 0; i < 3; i++ {
		e.handle(events.Event{Data: events.NewVenueOrderData{Order: marketOrder(instrument, domain.SideBuy, 1)}})
	}
	drain(t, sub)
	require.Equal(t, 3, e.Len())

	e.handle(events.Event{Data: events.CancelAllVenueOrdersData{}})
	evs := drain(t, sub)

	var cancelled int
	for _, ev := range evs {
		if _, ok := ev.Data.(events.VenueOrderCancelledData); ok {
			cancelled++
		}
	}
	assert.Equal(t, 3, cancelled)
	assert.Equal(t, 0, e.Len())
}

func TestApplyFillComputesCommissionFromRate(t *testing.T) {
	e, _, sub := newTestExecutor()
	instrument := uuid.New()
	order := marketOrder(instrument, domain.SideBuy, 2)
	e.handle(events.Event{Data: events.NewVenueOrderData{Order: order}})
	drain(t, sub)

	e.handle(events.Event{Data: events.TickUpdateData{Tick: domain.Tick{InstrumentID: instrument, AskPrice: 100, AskQuantity: 2}}})
	evs := drain(t, sub)
	fill, ok := evs[0].Data.(events.VenueOrderFillData)
	require.True(t, ok)
	// commission = price * qty * rate = 100 * 2 * 0.0005 = 0.1
	assert.InDelta(t, 0.1, fill.Commission, 1e-9)
}
