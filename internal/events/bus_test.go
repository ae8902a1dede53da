package events

import (
	"testing"
)

func TestBusBuffersAndFlushes(t *testing.T) {
	bus := NewBus(BusWithSubscriberCapacity(4))
	first := Event{ID: "evt-1", Step: "schedule", Type: TypeStepReady}
	second := Event{ID: "evt-2", Step: "schedule", Type: TypeDataSaved}
	bus.Publish(first)
	bus.Publish(second)
	sub := bus.Subscribe("schedule")
	defer sub.Close()
	got1 := <-sub.Events
	if got1.ID != first.ID {
		t.Fatalf("expected first buffered event, got %s", got1.ID)
	}
	got2 := <-sub.Events
	if got2.ID != second.ID {
		t.Fatalf("expected second buffered event, got %s", got2.ID)
	}
}

func TestBusDedupeByEventID(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe("tiers")
	defer sub.Close()
	event := Event{ID: "evt-1", Step: "tiers", Type: TypeStepReady}
	bus.Publish(event)
	bus.Publish(event)
	select {
	case got := <-sub.Events:
		if got.ID != event.ID {
			t.Fatalf("unexpected event: %s", got.ID)
		}
	default:
		t.Fatalf("expected first delivery")
	}
	select {
	case <-sub.Events:
		t.Fatalf("duplicate event delivered")
	default:
	}
}

func TestBusStepKeyIsCaseInsensitive(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe("Basics")
	defer sub.Close()
	bus.Publish(Event{ID: "evt-1", Step: "basics", Type: TypeStepReady})
	select {
	case got := <-sub.Events:
		if got.ID != "evt-1" {
			t.Fatalf("unexpected event: %s", got.ID)
		}
	default:
		t.Fatalf("expected delivery across case variants")
	}
}

func TestBusCriticalEventReplacesOldestOnOverflow(t *testing.T) {
	bus := NewBus(BusWithSubscriberCapacity(1))
	sub := bus.Subscribe("review")
	defer sub.Close()
	oldest := Event{ID: "evt-1", Step: "review", Type: TypeStepReady}
	critical := Event{ID: "evt-2", Step: "review", Type: TypeError}
	bus.Publish(oldest)
	bus.Publish(critical)
	if got := <-sub.Events; got.ID != critical.ID {
		t.Fatalf("expected critical event to replace oldest, got %s", got.ID)
	}
}

func TestBusKeepsOldestCriticalOnOverflow(t *testing.T) {
	bus := NewBus(BusWithSubscriberCapacity(1))
	sub := bus.Subscribe("review")
	defer sub.Close()
	oldest := Event{ID: "evt-1", Step: "review", Type: TypeWizardDone}
	droppable := Event{ID: "evt-2", Step: "review", Type: TypeStepReady}
	bus.Publish(oldest)
	bus.Publish(droppable)
	if got := <-sub.Events; got.ID != oldest.ID {
		t.Fatalf("expected oldest critical event to remain, got %s", got.ID)
	}
	select {
	case <-sub.Events:
		t.Fatalf("unexpected extra event")
	default:
	}
}

func TestBusUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe("basics")
	sub.Close()
	bus.Publish(Event{ID: "evt-1", Step: "basics", Type: TypeStepReady})
	if _, open := <-sub.Events; open {
		t.Fatalf("expected closed channel after unsubscribe")
	}
}

func TestNewEventStampsIdentity(t *testing.T) {
	event := NewEvent(" basics ", TypeStepReady, map[string]any{"step": "basics"})
	if event.ID == "" {
		t.Fatalf("expected generated event ID")
	}
	if event.Step != "basics" {
		t.Fatalf("step = %q", event.Step)
	}
	if event.Time.IsZero() {
		t.Fatalf("expected stamped time")
	}
}
