package events

import (
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func TestBusPublishDeliversToMatchingSubscriber(t *testing.T) {
	bus := NewBus(testLogger())
	sub := bus.Subscribe(NewEventFilter(TickUpdate))
	defer sub.Unsubscribe()

	bus.Publish(Event{Type: TickUpdate, EventTime: time.Now()})
	bus.Publish(Event{Type: TradeUpdate, EventTime: time.Now()})

	select {
	case ev := <-sub.Events():
		assert.Equal(t, TickUpdate, ev.Type)
	default:
		t.Fatal("expected a buffered TickUpdate event")
	}

	select {
	case ev := <-sub.Events():
		t.Fatalf("unexpected second event delivered: %v", ev.Type)
	default:
	}
}

func TestBusSubscribeAllReceivesEveryKind(t *testing.T) {
	bus := NewBus(testLogger())
	sub := bus.SubscribeAll()
	defer sub.Unsubscribe()

	bus.Publish(Event{Type: TickUpdate})
	bus.Publish(Event{Type: NewTransfer})

	first := <-sub.Events()
	second := <-sub.Events()
	assert.Equal(t, TickUpdate, first.Type)
	assert.Equal(t, NewTransfer, second.Type)
}

func TestBusDropsOldestWhenSubscriberFull(t *testing.T) {
	bus := NewBus(testLogger())
	sub := bus.Subscribe(NewEventFilter(TickUpdate))
	defer sub.Unsubscribe()

	for i := 0; i < subscriberBuffer+5; i++ {
		bus.Publish(Event{Type: TickUpdate, EventTime: time.Now(), Module: strconv.Itoa(i)})
	}

	require.Len(t, sub.ch, subscriberBuffer)

	// The channel still holds the most recently published events, not the
	// oldest: the first five were dropped, so draining starts at event 5 and
	// yields exactly subscriberBuffer entries without blocking.
	first := <-sub.Events()
	assert.Equal(t, "5", first.Module)
	count := 1
	for {
		select {
		case <-sub.Events():
			count++
		default:
			assert.Equal(t, subscriberBuffer, count)
			return
		}
	}
}

func TestEventFilterMatchesEmptyAsAll(t *testing.T) {
	f := EventFilter{}
	assert.True(t, f.matches(TickUpdate))
	assert.True(t, f.matches(NewTransfer))

	restricted := NewEventFilter(NewTransfer)
	assert.False(t, restricted.matches(TickUpdate))
	assert.True(t, restricted.matches(NewTransfer))
}

func TestSubscriptionUnsubscribeClosesChannel(t *testing.T) {
	bus := NewBus(testLogger())
	sub := bus.Subscribe(NewEventFilter(TickUpdate))

	sub.Unsubscribe()
	sub.Unsubscribe() // second call must be a no-op, not panic

	_, ok := <-sub.Events()
	assert.False(t, ok)

	bus.mu.RLock()
	_, stillRegistered := bus.subs[sub.id]
	bus.mu.RUnlock()
	assert.False(t, stillRegistered)
}

func TestManagerEmitStampsEventTimeAndPublishes(t *testing.T) {
	bus := NewBus(testLogger())
	mgr := NewManager(bus, testLogger())
	sub := bus.SubscribeAll()
	defer sub.Unsubscribe()

	mgr.Emit("ledger", NewTransferData{})

	ev := <-sub.Events()
	assert.Equal(t, NewTransfer, ev.Type)
	assert.Equal(t, "ledger", ev.Module)
	assert.False(t, ev.EventTime.IsZero())
}
