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

// VenueBook holds child VenueOrders and their state machine (§4.7).
type VenueBook struct {
	mu     sync.Mutex
	orders map[uuid.UUID]domain.VenueOrder

	events *events.Manager
	log    zerolog.Logger
}

// NewVenueBook constructs an empty VenueBook. mgr may be nil in tests that do
// not need lifecycle events published.
func NewVenueBook(mgr *events.Manager, log zerolog.Logger) *VenueBook {
	return &VenueBook{
		orders: make(map[uuid.UUID]domain.VenueOrder),
		events: mgr,
		log:    log.With().Str("component", "orderbook.venue").Logger(),
	}
}

// Get returns the order with the given id.
func (b *VenueBook) Get(id uuid.UUID) (domain.VenueOrder, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	o, ok := b.orders[id]
	return o, ok
}

// Insert places a new entry in state New. Idempotent by id.
func (b *VenueBook) Insert(order domain.VenueOrder) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.orders[order.ID]; exists {
		return
	}
	order.Status = domain.VenueNew
	b.orders[order.ID] = order
}

// SetInflight transitions id from New to Inflight: sent to the venue, not
// yet acknowledged.
func (b *VenueBook) SetInflight(id uuid.UUID, t time.Time) error {
	o, err := b.transition(id, t, domain.VenueNew, domain.VenueInflight)
	if err != nil {
		return err
	}
	if b.events != nil {
		b.events.Emit("orderbook.venue", events.VenueOrderInflightData{Order: o})
	}
	return nil
}

// Place transitions id from Inflight to Placed: acknowledged/resting.
func (b *VenueBook) Place(id uuid.UUID, t time.Time) error {
	o, err := b.transition(id, t, domain.VenueInflight, domain.VenuePlaced)
	if err != nil {
		return err
	}
	if b.events != nil {
		b.events.Emit("orderbook.venue", events.VenueOrderPlacedData{Order: o})
	}
	return nil
}

// Reject transitions id to Rejected.
func (b *VenueBook) Reject(id uuid.UUID, t time.Time, reason string) error {
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
	o.Status = domain.VenueRejected
	o.UpdatedAt = t
	b.orders[id] = o
	b.mu.Unlock()

	if b.events != nil {
		b.events.Emit("orderbook.venue", events.VenueOrderRejectedData{Order: o, Reason: reason})
	}
	return nil
}

// Expire transitions id to Expired.
func (b *VenueBook) Expire(id uuid.UUID, t time.Time) error {
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
	o.Status = domain.VenueExpired
	o.UpdatedAt = t
	b.orders[id] = o
	b.mu.Unlock()

	if b.events != nil {
		b.events.Emit("orderbook.venue", events.VenueOrderExpiredData{Order: o})
	}
	return nil
}

// Cancel transitions id to Cancelling if still active. Idempotent no-op on
// an order already terminal, matching ExecBook.Cancel.
func (b *VenueBook) Cancel(id uuid.UUID, t time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	o, ok := b.orders[id]
	if !ok {
		return ErrNotFound
	}
	if o.Status.Terminal() {
		return nil
	}
	o.Status = domain.VenueCancelling
	o.UpdatedAt = t
	b.orders[id] = o
	return nil
}

// AddFill updates last-fill fields, cumulative fields and avg price. The
// caller is responsible for invoking CheckFinalizeOrder afterward.
func (b *VenueBook) AddFill(id uuid.UUID, t time.Time, price, qty, commission decimal.Decimal, commissionAsset uuid.UUID) error {
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

	o.LastFillPrice = price
	o.LastFillQuantity = qty
	o.LastFillCommission = commission
	o.CommissionAsset = commissionAsset
	o.FilledQuantity = newFilled
	o.Commission = o.Commission.Add(commission)
	o.UpdatedAt = t

	if !o.Status.Terminal() && o.Status != domain.VenueCancelling && o.FilledQuantity.LessThan(o.Quantity) {
		o.Status = domain.VenuePartiallyFilled
	}
	b.orders[id] = o

	if b.events != nil {
		b.events.Emit("orderbook.venue", events.VenueOrderFillData{
			Order:      o,
			FillPrice:  price.InexactFloat64(),
			FillQty:    qty.InexactFloat64(),
			Commission: commission.InexactFloat64(),
		})
	}
	return nil
}

// CheckFinalizeOrder marks id Filled once filled_quantity reaches quantity,
// or Cancelled once a Cancelling order's residual is zero.
func (b *VenueBook) CheckFinalizeOrder(id uuid.UUID, t time.Time) error {
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

	switch {
	case o.FilledQuantity.GreaterThanOrEqual(o.Quantity):
		o.Status = domain.VenueFilled
	case o.Status == domain.VenueCancelling && o.Remaining().IsZero():
		o.Status = domain.VenueCancelled
	default:
		b.mu.Unlock()
		return nil
	}
	finalStatus := o.Status
	o.UpdatedAt = t
	b.orders[id] = o
	b.mu.Unlock()

	if b.events == nil {
		return nil
	}
	if finalStatus == domain.VenueCancelled {
		b.events.Emit("orderbook.venue", events.VenueOrderCancelledData{Order: o})
	} else {
		b.events.Emit("orderbook.venue", events.VenueOrderUpdateData{Order: o})
	}
	return nil
}

// ListByExecID returns every child of the given parent execution order.
func (b *VenueBook) ListByExecID(execID uuid.UUID) []domain.VenueOrder {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []domain.VenueOrder
	for _, o := range b.orders {
		if o.ParentExecOrderID != nil && *o.ParentExecOrderID == execID {
			out = append(out, o)
		}
	}
	return out
}

// ListActive returns every non-terminal order, used by strategy teardown
// polling.
func (b *VenueBook) ListActive() []domain.VenueOrder {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []domain.VenueOrder
	for _, o := range b.orders {
		if !o.Status.Terminal() {
			out = append(out, o)
		}
	}
	return out
}

func (b *VenueBook) transition(id uuid.UUID, t time.Time, from, to domain.VenueOrderStatus) (domain.VenueOrder, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	o, ok := b.orders[id]
	if !ok {
		return domain.VenueOrder{}, ErrNotFound
	}
	if o.Status != from {
		return domain.VenueOrder{}, ErrIllegalTransition
	}
	o.Status = to
	o.UpdatedAt = t
	b.orders[id] = o
	return o, nil
}
