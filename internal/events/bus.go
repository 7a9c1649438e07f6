package events

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// subscriberBuffer is the default capacity of a subscription's event channel.
// Sized generously because the feature graph and order books can burst many
// fills/insights within a single tick.
const subscriberBuffer = 1024

// EventFilter selects which event kinds a subscription receives. A nil or
// empty Kinds set means "all event kinds".
type EventFilter struct {
	Kinds map[EventType]bool
}

// NewEventFilter builds a filter matching exactly the given kinds. Calling it
// with no arguments matches every kind.
func NewEventFilter(kinds ...EventType) EventFilter {
	if len(kinds) == 0 {
		return EventFilter{}
	}
	set := make(map[EventType]bool, len(kinds))
	for _, k := range kinds {
		set[k] = true
	}
	return EventFilter{Kinds: set}
}

func (f EventFilter) matches(t EventType) bool {
	if len(f.Kinds) == 0 {
		return true
	}
	return f.Kinds[t]
}

// Subscription is a live registration on the Bus. Events reads the delivered
// stream; Unsubscribe tears the registration down and closes Events.
type Subscription struct {
	id     uint64
	filter EventFilter
	ch     chan Event
	bus    *Bus
	closed int32
}

// Events returns the channel events are delivered on.
func (s *Subscription) Events() <-chan Event { return s.ch }

// Unsubscribe removes the subscription from the bus and closes its channel.
// Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if !atomic.CompareAndSwapInt32(&s.closed, 0, 1) {
		return
	}
	s.bus.remove(s.id)
	close(s.ch)
}

// Bus is the engine's in-process, typed publish/subscribe event channel
// (§4.2). Every component reaches every other component only through it;
// nothing here reads or mutates caller state directly. Publish never blocks:
// a subscriber whose channel is full has its oldest buffered event dropped
// and a warning logged, trading lossless delivery for a bus that never
// stalls a publisher; the events a subscriber does receive keep their
// publish order.
type Bus struct {
	mu     sync.RWMutex
	subs   map[uint64]*Subscription
	nextID uint64
	log    zerolog.Logger
}

// NewBus constructs an empty Bus.
func NewBus(log zerolog.Logger) *Bus {
	return &Bus{
		subs: make(map[uint64]*Subscription),
		log:  log.With().Str("component", "events.bus").Logger(),
	}
}

// Subscribe registers a new subscription matching filter. Callers must read
// from the returned Subscription's channel or call Unsubscribe to stop
// receiving; an abandoned subscription otherwise keeps logging drop warnings
// as the bus backfills it.
func (b *Bus) Subscribe(filter EventFilter) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &Subscription{
		id:     b.nextID,
		filter: filter,
		ch:     make(chan Event, subscriberBuffer),
		bus:    b,
	}
	b.subs[sub.id] = sub
	return sub
}

// SubscribeAll registers a subscription that receives every event kind.
func (b *Bus) SubscribeAll() *Subscription {
	return b.Subscribe(EventFilter{})
}

func (b *Bus) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, id)
}

// Publish delivers ev to every matching subscriber. It never blocks the
// publisher: a full subscriber channel has its oldest event evicted to make
// room, so delivery is best-effort: a slow subscriber loses its oldest
// buffered events.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subs {
		if !sub.filter.matches(ev.Type) {
			continue
		}
		b.deliver(sub, ev)
	}
}

func (b *Bus) deliver(sub *Subscription, ev Event) {
	select {
	case sub.ch <- ev:
		return
	default:
	}

	// Channel full: drop the oldest buffered event and retry once.
	select {
	case dropped := <-sub.ch:
		b.log.Warn().
			Str("dropped_event_type", string(dropped.Type)).
			Str("event_type", string(ev.Type)).
			Uint64("subscriber_id", sub.id).
			Msg("subscriber buffer full, dropped oldest event")
	default:
	}

	select {
	case sub.ch <- ev:
	default:
		// Another goroutine raced us and refilled the slot; the event is
		// dropped rather than risk blocking the publisher.
		b.log.Warn().
			Str("event_type", string(ev.Type)).
			Uint64("subscriber_id", sub.id).
			Msg("subscriber buffer full after eviction, dropped incoming event")
	}
}

// Manager wraps a Bus with structured logging of every published event,
// mirroring the teacher's emit-and-log convention.
type Manager struct {
	bus *Bus
	log zerolog.Logger
}

// NewManager builds a Manager around bus, logging under the "events" service
// name.
func NewManager(bus *Bus, log zerolog.Logger) *Manager {
	return &Manager{bus: bus, log: log.With().Str("service", "events").Logger()}
}

// Emit publishes data as an event of its own declared type from module and
// logs it at info level.
func (m *Manager) Emit(module string, data EventData) {
	ev := Event{Type: data.EventType(), Module: module, Data: data, EventTime: time.Now().UTC()}
	m.bus.Publish(ev)
	m.log.Info().
		Str("event_type", string(ev.Type)).
		Str("module", module).
		Msg("event published")
}

// EmitAt is Emit with an explicit event time, used when replaying or
// backfilling historical events.
func (m *Manager) EmitAt(module string, data EventData, ev Event) {
	ev.Type = data.EventType()
	ev.Module = module
	ev.Data = data
	m.bus.Publish(ev)
	m.log.Info().
		Str("event_type", string(ev.Type)).
		Str("module", module).
		Msg("event published")
}

// Bus exposes the underlying Bus for components that need to subscribe
// directly rather than through the Manager.
func (m *Manager) Bus() *Bus { return m.bus }
