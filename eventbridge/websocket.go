// Copyright (c) 2025 The Monetarium developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package eventbridge republishes indexcore.EventBus events to connected
// websocket clients, the way the underlying node's own RPC server fans its
// OnBlockConnected/OnBlockDisconnected notifications out to websocket
// clients via github.com/gorilla/websocket (the same transport
// github.com/decred/dcrd/rpcclient uses on the other end of that protocol).
package eventbridge

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/monetarium/utxoindex/internal/indexcore"
)

// Envelope is the wire format published to every connected client.
type Envelope struct {
	Kind        string                      `json:"kind"`
	Spent       *indexcore.SpentEvent       `json:"spent,omitempty"`
	Script      *indexcore.ScriptEvent      `json:"script,omitempty"`
	Transaction *indexcore.TransactionEvent `json:"transaction,omitempty"`
	Block       *indexcore.BlockEvent       `json:"block,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// outboundQueueSize bounds how far a single slow client can lag before the
// bridge starts dropping events meant for it, mirroring EventBus's own
// drop-on-full policy rather than letting one stalled client back up every
// subscription.
const outboundQueueSize = 256

// Bridge fans indexcore events out to every currently connected websocket
// client.
type Bridge struct {
	bus *indexcore.EventBus

	mtx     sync.Mutex
	clients map[*client]struct{}

	spentCh  chan indexcore.Event
	scriptCh chan indexcore.Event
	txCh     chan indexcore.Event
	blockCh  chan indexcore.Event
	done     chan struct{}
}

type client struct {
	conn *websocket.Conn
	out  chan Envelope
	quit chan struct{}
}

// New creates a Bridge subscribed to every event kind on bus. Call Run in a
// goroutine to start dispatching, and ServeHTTP to accept client
// connections.
func New(bus *indexcore.EventBus) *Bridge {
	b := &Bridge{
		bus:      bus,
		clients:  make(map[*client]struct{}),
		spentCh:  make(chan indexcore.Event, outboundQueueSize),
		scriptCh: make(chan indexcore.Event, outboundQueueSize),
		txCh:     make(chan indexcore.Event, outboundQueueSize),
		blockCh:  make(chan indexcore.Event, outboundQueueSize),
		done:     make(chan struct{}),
	}
	bus.Subscribe(indexcore.EventSpent, b.spentCh)
	bus.Subscribe(indexcore.EventScript, b.scriptCh)
	bus.Subscribe(indexcore.EventTransaction, b.txCh)
	bus.Subscribe(indexcore.EventBlock, b.blockCh)
	return b
}

// Run drains subscribed events and fans each one out to every connected
// client until Close is called. It blocks; call it in its own goroutine.
func (b *Bridge) Run() {
	for {
		select {
		case ev := <-b.spentCh:
			b.broadcast(Envelope{Kind: "spent", Spent: ev.Spent})
		case ev := <-b.scriptCh:
			b.broadcast(Envelope{Kind: "script", Script: ev.Script})
		case ev := <-b.txCh:
			b.broadcast(Envelope{Kind: "transaction", Transaction: ev.Transaction})
		case ev := <-b.blockCh:
			b.broadcast(Envelope{Kind: "block", Block: ev.Block})
		case <-b.done:
			return
		}
	}
}

// Close stops Run and disconnects every client.
func (b *Bridge) Close() {
	close(b.done)
	b.mtx.Lock()
	defer b.mtx.Unlock()
	for c := range b.clients {
		close(c.quit)
		c.conn.Close()
	}
	b.clients = make(map[*client]struct{})
}

func (b *Bridge) broadcast(env Envelope) {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	for c := range b.clients {
		select {
		case c.out <- env:
		default:
			log.Warnf("eventbridge: dropping %s event, client outbound queue full", env.Kind)
		}
	}
}

// ServeHTTP upgrades the request to a websocket connection and registers it
// as a broadcast recipient until the client disconnects.
func (b *Bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("eventbridge: upgrade failed: %v", err)
		return
	}

	c := &client{conn: conn, out: make(chan Envelope, outboundQueueSize), quit: make(chan struct{})}
	b.mtx.Lock()
	b.clients[c] = struct{}{}
	b.mtx.Unlock()

	go b.readPump(c)
	b.writePump(c)
}

// readPump drains (and discards) client frames solely to detect disconnects
// and keep gorilla/websocket's control-frame handling alive; the protocol is
// publish-only from the server's side.
func (b *Bridge) readPump(c *client) {
	defer b.removeClient(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (b *Bridge) writePump(c *client) {
	defer b.removeClient(c)
	for {
		select {
		case env := <-c.out:
			data, err := json.Marshal(env)
			if err != nil {
				log.Warnf("eventbridge: marshal envelope: %v", err)
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-c.quit:
			return
		}
	}
}

func (b *Bridge) removeClient(c *client) {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	if _, ok := b.clients[c]; ok {
		delete(b.clients, c)
		c.conn.Close()
	}
}
