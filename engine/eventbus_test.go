package engine

import "testing"

func TestEventBusSubscribe(t *testing.T) {
	bus := NewEventBus()

	var got []EventType
	bus.Subscribe(func(evt Event) {
		got = append(got, evt.Type)
	})

	bus.Emit(Event{Type: EventOrderCreated})
	bus.Emit(Event{Type: EventTaskCreated})

	if len(got) != 2 || got[0] != EventOrderCreated || got[1] != EventTaskCreated {
		t.Fatalf("unexpected events: %v", got)
	}
}

func TestEventBusSubscribeTypes(t *testing.T) {
	bus := NewEventBus()

	var got []EventType
	bus.SubscribeTypes(func(evt Event) {
		got = append(got, evt.Type)
	}, EventStockAllocated)

	bus.Emit(Event{Type: EventOrderCreated})
	bus.Emit(Event{Type: EventStockAllocated})
	bus.Emit(Event{Type: EventStockReturned})

	if len(got) != 1 || got[0] != EventStockAllocated {
		t.Fatalf("filter leaked events: %v", got)
	}
}

func TestEventBusUnsubscribe(t *testing.T) {
	bus := NewEventBus()

	count := 0
	id := bus.Subscribe(func(Event) { count++ })

	bus.Emit(Event{Type: EventOrderCreated})
	bus.Unsubscribe(id)
	bus.Emit(Event{Type: EventOrderCreated})

	if count != 1 {
		t.Fatalf("expected 1 delivery, got %d", count)
	}
}

func TestEventBusSetsTimestamp(t *testing.T) {
	bus := NewEventBus()

	var stamped bool
	bus.Subscribe(func(evt Event) {
		stamped = !evt.Timestamp.IsZero()
	})
	bus.Emit(Event{Type: EventOrderCreated})

	if !stamped {
		t.Fatal("expected emit to stamp the event")
	}
}
