// Package orderbook holds the two linked order state machines of §4.6/§4.7:
// ExecBook for parent ExecutionOrders and VenueBook for child VenueOrders.
// Both serialize writes per-id behind a single lock, mirroring
// internal/ledger's "hold the lock for the whole mutation" convention, and
// publish lifecycle transitions through the event bus rather than returning
// them to the caller (Insert, Cancel and ExecBook.AddFill publish nothing).
package orderbook

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/arkinlabs/engine/internal/domain"
	"github.com/arkinlabs/engine/internal/events"
)

// VenueChildren is the narrow view of VenueBook that ExecBook needs to
// finalize a parent once every child has reached a terminal state.
type VenueChildren interface {
	ListByExecID(execID uuid.UUID) []domain.VenueOrder
}

// ExecBook holds parent ExecutionOrders and their state machine (§4.6).
type ExecBook struct {
	mu     sync.Mutex
	orders map[uuid.UUID]domain.ExecutionOrder

	children VenueChildren
	events   *events.Manager
	log      zerolog.Logger
}

// NewExecBook constructs an empty ExecBook. children supplies the venue-order
// view check_finalize_order consults; mgr may be nil in tests that do not
// need lifecycle events published.
func NewExecBook(children VenueChildren, mgr *events.Manager, log zerolog.Logger) *ExecBook {
	return &ExecBook{
		orders:   make(map[uuid.UUID]domain.ExecutionOrder),
		children: children,
		events:   mgr,
		log:      log.With().Str("component", "orderbook.exec").Logger(),
	}
}

// Get returns the order with the given id.
func (b *ExecBook) Get(id uuid.UUID) (domain.ExecutionOrder, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	o, ok := b.orders[id]
	return o, ok
}

// Insert places a new entry in state New. Idempotent by id: re-inserting an
// id already present is a no-op.
func (b *ExecBook) Insert(order domain.ExecutionOrder) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.orders[order.ID]; exists {
		return
	}
	order.Status = domain.ExecNew
	b.orders[order.ID] = order
}

// Place transitions id from New to Placed.
func (b *ExecBook) Place(id uuid.UUID, t time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	o, ok := b.orders[id]
	if !ok {
		return ErrNotFound
	}
	if o.Status != domain.ExecNew {
		return ErrIllegalTransition
	}
	o.Status = domain.ExecPlaced
	o.UpdatedAt = t
	b.orders[id] = o
	if b.events != nil {
		b.events.Emit("orderbook.exec", events.ExecutionOrderActiveData{Order: o})
	}
	return nil
}

// Cancel transitions id to Cancelling if it is still active. Already-terminal
// orders are left untouched: cancel is idempotent, not an error, since a
// strategy's teardown cancel-all races freely against fills completing an
// order on its own.
func (b *ExecBook) Cancel(id uuid.UUID, t time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	o, ok := b.orders[id]
	if !ok {
		return ErrNotFound
	}
	if o.Status.Terminal() {
		return nil
	}
	o.Status = domain.ExecCancelling
	o.UpdatedAt = t
	b.orders[id] = o
	return nil
}

// AddFill updates the parent's filled_quantity, avg_filled_price and
// cumulative commission per §4.6, transitioning to Filled when fully filled.
func (b *ExecBook) AddFill(id uuid.UUID, t time.Time, price, qty, commission decimal.Decimal) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	o, ok := b.orders[id]
	if !ok {
		return ErrNotFound
	}

	prevFilled := o.FilledQuantity
	newFilled := prevFilled.Add(qty)

	if newFilled.IsZero() {
		o.AvgFilledPrice = decimal.Zero
	} else {
		weighted := o.AvgFilledPrice.Mul(prevFilled).Add(price.Mul(qty))
		o.AvgFilledPrice = weighted.Div(newFilled)
	}
	o.FilledQuantity = newFilled
	o.Commission = o.Commission.Add(commission)
	o.UpdatedAt = t

	if !o.Status.Terminal() && o.FilledQuantity.GreaterThanOrEqual(o.TargetQuantity) {
		o.Status = domain.ExecFilled
	} else if !o.Status.Terminal() && o.Status != domain.ExecCancelling {
		o.Status = domain.ExecPartiallyFilled
	}
	b.orders[id] = o
	return nil
}

// CheckFinalizeOrder consults the venue-order book; if every child of id is
// terminal, it sets the parent's terminal state per the §4.8 finalization
// rule and publishes the corresponding completion event.
func (b *ExecBook) CheckFinalizeOrder(id uuid.UUID, t time.Time) error {
	b.mu.Lock()
	o, ok := b.orders[id]
	if !ok {
		b.mu.Unlock()
		return ErrNotFound
	}
	if o.Status.Terminal() {
		b.mu.Unlock()
		return nil
	}

	var children []domain.VenueOrder
	if b.children != nil {
		children = b.children.ListByExecID(id)
	}
	if !allTerminal(children) {
		b.mu.Unlock()
		return nil
	}

	wasCancelling := o.Status == domain.ExecCancelling
	anyRejected := anyStatus(children, domain.VenueRejected)

	switch {
	case o.FilledQuantity.GreaterThanOrEqual(o.TargetQuantity):
		o.Status = domain.ExecFilled
	case wasCancelling && o.FilledQuantity.IsPositive():
		o.Status = domain.ExecPartiallyFilledCancelled
	case wasCancelling:
		o.Status = domain.ExecCancelled
	case anyRejected && o.FilledQuantity.IsZero():
		o.Status = domain.ExecRejected
	default:
		o.Status = domain.ExecExpired
	}
	o.UpdatedAt = t
	b.orders[id] = o
	b.mu.Unlock()

	if b.events == nil {
		return nil
	}
	switch o.Status {
	case domain.ExecFilled:
		b.events.Emit("orderbook.exec", events.ExecutionOrderCompletedData{Order: o})
	case domain.ExecCancelled, domain.ExecPartiallyFilledCancelled:
		b.events.Emit("orderbook.exec", events.ExecutionOrderCancelledData{Order: o})
	case domain.ExecExpired, domain.ExecRejected:
		b.events.Emit("orderbook.exec", events.ExecutionOrderExpiredData{Order: o})
	}
	return nil
}

// ListByExecStrategy returns every non-terminal order whose strategy kind is
// in kinds, used by cancel-all teardown paths.
func (b *ExecBook) ListByExecStrategy(kinds []domain.ExecStrategyKind) []domain.ExecutionOrder {
	want := make(map[domain.ExecStrategyKind]bool, len(kinds))
	for _, k := range kinds {
		want[k] = true
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	var out []domain.ExecutionOrder
	for _, o := range b.orders {
		if o.Status.Terminal() {
			continue
		}
		if len(want) == 0 || want[o.ExecStrategyKind] {
			out = append(out, o)
		}
	}
	return out
}

func allTerminal(orders []domain.VenueOrder) bool {
	if len(orders) == 0 {
		return false
	}
	for _, o := range orders {
		if !o.Status.Terminal() {
			return false
		}
	}
	return true
}

func anyStatus(orders []domain.VenueOrder, status domain.VenueOrderStatus) bool {
	for _, o := range orders {
		if o.Status == status {
			return true
		}
	}
	return false
}
