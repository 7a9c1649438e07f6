package execstrategy

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/arkinlabs/engine/internal/domain"
	"github.com/arkinlabs/engine/internal/events"
	"github.com/arkinlabs/engine/internal/orderbook"
)

// NewTaker builds the Taker policy: on NewExecutionOrder it creates a single
// Market venue order for the full remaining quantity.
func NewTaker(execBook *orderbook.ExecBook, venueBook *orderbook.VenueBook, bus *events.Bus, mgr *events.Manager, log zerolog.Logger) *Strategy {
	build := func(order domain.ExecutionOrder, remaining decimal.Decimal) domain.VenueOrder {
		vo := newVenueOrderBase(order, remaining)
		vo.Type = domain.OrderMarket
		vo.TimeInForce = domain.TIFIOC
		return vo
	}
	return newStrategy(domain.ExecStrategyTaker, execBook, venueBook, bus, mgr, log, build)
}

// NewMaker builds the Maker policy: on NewExecutionOrder it creates a single
// post-only Limit venue order at the parent's target price.
func NewMaker(execBook *orderbook.ExecBook, venueBook *orderbook.VenueBook, bus *events.Bus, mgr *events.Manager, log zerolog.Logger) *Strategy {
	build := func(order domain.ExecutionOrder, remaining decimal.Decimal) domain.VenueOrder {
		vo := newVenueOrderBase(order, remaining)
		vo.Type = domain.OrderLimit
		vo.TimeInForce = domain.TIFPostOnly
		vo.Price = order.TargetPrice
		return vo
	}
	return newStrategy(domain.ExecStrategyMaker, execBook, venueBook, bus, mgr, log, build)
}

// SlicePlan configures the Wide policy's passive, time-sliced child
// placement: Count children, Interval apart, each priced Offset further
// from the target than the last to trade patience for queue position.
type SlicePlan struct {
	Count    int
	Interval time.Duration
	Offset   decimal.Decimal
}

// NewWide builds the Wide policy: it slices the parent's target quantity
// into plan.Count GTC Limit children spaced plan.Interval apart, each
// priced plan.Offset further from the target price than the previous slice
// (widening the book's exposure instead of resting one static order).
func NewWide(execBook *orderbook.ExecBook, venueBook *orderbook.VenueBook, bus *events.Bus, mgr *events.Manager, log zerolog.Logger, plan SlicePlan) *Strategy {
	if plan.Count < 1 {
		plan.Count = 1
	}
	build := func(order domain.ExecutionOrder, remaining decimal.Decimal) domain.VenueOrder {
		vo := newVenueOrderBase(order, remaining)
		vo.Type = domain.OrderLimit
		vo.TimeInForce = domain.TIFGTC
		vo.Price = order.TargetPrice
		return vo
	}
	s := newStrategy(domain.ExecStrategyWide, execBook, venueBook, bus, mgr, log, build)
	s.slicing = &plan
	return s
}

func (s *Strategy) sliceOffset(order domain.ExecutionOrder, sliceIndex int) decimal.Decimal {
	step := s.slicing.Offset.Mul(decimal.NewFromInt(int64(sliceIndex)))
	if order.Side == domain.SideBuy {
		return order.TargetPrice.Sub(step)
	}
	return order.TargetPrice.Add(step)
}

// runSlices places plan.Count children one interval apart, each sized
// TargetQuantity/Count, with the last slice taking whatever is still
// unplaced. It bails out early once the parent is terminal or has been
// cancelled.
func (s *Strategy) runSlices(ctx context.Context, order domain.ExecutionOrder) {
	plan := s.slicing
	perSlice := order.TargetQuantity.Div(decimal.NewFromInt(int64(plan.Count)))
	placed := decimal.Zero

	for i := 0; i < plan.Count; i++ {
		current, ok := s.execBook.Get(order.ID)
		if !ok || current.Status.Terminal() || current.Status == domain.ExecCancelling {
			return
		}

		owed := current.TargetQuantity.Sub(placed)
		if !owed.IsPositive() {
			return
		}
		qty := perSlice
		if i == plan.Count-1 || qty.GreaterThan(owed) {
			qty = owed
		}
		placed = placed.Add(qty)
		if qty.IsPositive() {
			vo := s.buildChild(current, qty)
			vo.Price = s.sliceOffset(current, i)
			s.venueBook.Insert(vo)
			if s.events != nil {
				s.events.Emit("execstrategy", events.NewVenueOrderData{Order: vo})
			}
		}

		if i == plan.Count-1 {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(plan.Interval):
		}
	}
}
