// Copyright (c) 2025 The Monetarium developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package indexcore

import (
	"testing"
	"time"
)

func TestEventBusDeliversToSubscriber(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	ch := make(chan Event, 4)
	bus.Subscribe(EventBlock, ch)

	bus.PublishBatch([]Event{{Kind: EventBlock, Block: &BlockEvent{Height: 7}}})

	select {
	case ev := <-ch:
		if ev.Kind != EventBlock || ev.Block == nil || ev.Block.Height != 7 {
			t.Fatalf("got unexpected event %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestEventBusOnlyDeliversMatchingKind(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	blockCh := make(chan Event, 4)
	txCh := make(chan Event, 4)
	bus.Subscribe(EventBlock, blockCh)
	bus.Subscribe(EventTransaction, txCh)

	bus.PublishBatch([]Event{{Kind: EventBlock, Block: &BlockEvent{Height: 1}}})

	select {
	case <-blockCh:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for block event")
	}

	select {
	case ev := <-txCh:
		t.Fatalf("unexpected event delivered to transaction subscriber: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEventBusPreservesBatchOrder(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	ch := make(chan Event, 8)
	bus.Subscribe(EventSpent, ch)

	batch := []Event{
		{Kind: EventSpent, Spent: &SpentEvent{Vin: 0}},
		{Kind: EventSpent, Spent: &SpentEvent{Vin: 1}},
		{Kind: EventSpent, Spent: &SpentEvent{Vin: 2}},
	}
	bus.PublishBatch(batch)

	for i := 0; i < 3; i++ {
		select {
		case ev := <-ch:
			if ev.Spent.Vin != uint32(i) {
				t.Fatalf("got vin %d at position %d, want %d", ev.Spent.Vin, i, i)
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for event")
		}
	}
}

func TestEventBusDropsWhenSubscriberFull(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	ch := make(chan Event) // unbuffered, never read from
	bus.Subscribe(EventBlock, ch)

	// Must not block even though the subscriber channel can never accept.
	done := make(chan struct{})
	go func() {
		bus.PublishBatch([]Event{{Kind: EventBlock, Block: &BlockEvent{Height: 1}}})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("PublishBatch blocked on a full subscriber channel")
	}
}

func TestEventKindString(t *testing.T) {
	cases := map[EventKind]string{
		EventSpent:       "spent",
		EventScript:      "script",
		EventTransaction: "transaction",
		EventBlock:       "block",
		EventKind(99):    "unknown",
	}
	for kind, want := range cases {
		if got := kind.String(); got != want {
			t.Fatalf("%d.String() = %q, want %q", kind, got, want)
		}
	}
}
