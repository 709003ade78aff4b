// Copyright (c) 2025 The Monetarium developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package indexcore

import (
	"sync"

	"github.com/decred/dcrd/chaincfg/chainhash"
)

// EventKind identifies the kind of a semantic event emitted by the indexer
// core after a successful CONNECT.
type EventKind int

// The four event kinds the core emits, in the order they occur within one
// connected block.
const (
	EventSpent EventKind = iota
	EventScript
	EventTransaction
	EventBlock
)

// SpentEvent reports that a previously connected output has been consumed.
type SpentEvent struct {
	PrevTxID chainhash.Hash
	Vout     uint32
	TxID     chainhash.Hash
	Vin      uint32
}

// ScriptEvent reports that an output committing to scID has been connected.
type ScriptEvent struct {
	ScID  ScriptID
	TxID  chainhash.Hash
	TxBuf []byte
}

// TransactionEvent reports that a transaction has been connected.
type TransactionEvent struct {
	TxID    chainhash.Hash
	TxBuf   []byte
	BlockID chainhash.Hash
}

// BlockEvent reports that a block has been connected.
type BlockEvent struct {
	BlockID chainhash.Hash
	Height  uint32
}

// Event is one queued occurrence. Exactly one of the typed fields is set,
// matching Kind.
type Event struct {
	Kind        EventKind
	Spent       *SpentEvent
	Script      *ScriptEvent
	Transaction *TransactionEvent
	Block       *BlockEvent
}

// EventBus is a single-publisher, multi-subscriber sink for the events
// CONNECT emits. Subscribers never run synchronously on the publisher's
// goroutine: Publish enqueues onto a bounded channel drained by a dedicated
// dispatch goroutine, so a connect caller that unwinds immediately after
// Publish cannot be re-entered by a subscriber before it returns, and a slow
// subscriber cannot stall CONNECT.
type EventBus struct {
	mtx  sync.RWMutex
	subs map[EventKind][]chan Event

	queue chan []Event
	done  chan struct{}
}

// NewEventBus returns a ready-to-use EventBus and starts its dispatch
// goroutine. Callers must call Close when finished to release it.
func NewEventBus() *EventBus {
	b := &EventBus{
		subs:  make(map[EventKind][]chan Event),
		queue: make(chan []Event, 64),
		done:  make(chan struct{}),
	}
	go b.run()
	return b
}

// Subscribe registers ch to receive events of the given kind. ch should have
// enough buffer for the subscriber's consumption rate; EventBus never blocks
// waiting on a subscriber beyond a single non-blocking send attempt logged
// on drop.
func (b *EventBus) Subscribe(kind EventKind, ch chan Event) {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	b.subs[kind] = append(b.subs[kind], ch)
}

// PublishBatch enqueues an ordered batch of events for asynchronous
// dispatch. It returns immediately; the events are delivered to subscribers
// on the bus's dispatch goroutine, strictly after the caller that produced
// them has returned control to its own caller (see the CONNECT emission
// ordering contract).
func (b *EventBus) PublishBatch(events []Event) {
	select {
	case b.queue <- events:
	case <-b.done:
	}
}

// run is the dedicated dispatch goroutine. It drains queued batches in
// order and fans each event out to subscribers of its kind.
func (b *EventBus) run() {
	for {
		select {
		case events := <-b.queue:
			b.dispatch(events)
		case <-b.done:
			return
		}
	}
}

func (b *EventBus) dispatch(events []Event) {
	for _, ev := range events {
		b.mtx.RLock()
		subs := b.subs[ev.Kind]
		b.mtx.RUnlock()
		for _, ch := range subs {
			select {
			case ch <- ev:
			default:
				log.Warnf("EventBus: dropping %v event, subscriber channel full", ev.Kind)
			}
		}
	}
}

// Close stops the dispatch goroutine. Events queued before Close is called
// are not guaranteed to be delivered.
func (b *EventBus) Close() {
	close(b.done)
}

// String implements fmt.Stringer for EventKind, used in log messages.
func (k EventKind) String() string {
	switch k {
	case EventSpent:
		return "spent"
	case EventScript:
		return "script"
	case EventTransaction:
		return "transaction"
	case EventBlock:
		return "block"
	default:
		return "unknown"
	}
}
