// Copyright (c) 2025 The Monetarium developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package indexcore implements the atomic block-ingest/undo state machine
// that maintains the secondary indexes over a UTXO-style chain: a deterministic
// key codec, a narrow ordered-KV façade, the CONNECT/DISCONNECT write paths,
// the per-block fee-rate derivation, and the read-only query algorithms that
// reconstruct transaction sets for a script from range scans.
package indexcore

import (
	"context"
	"sync"
)

// Config bundles the collaborators an Indexer needs. Db and Chain must be
// non-nil; FeeWorkers defaults to 8 when zero or negative.
type Config struct {
	Db         KV
	Chain      ChainSource
	FeeWorkers int
}

// Indexer implements CONNECT and DISCONNECT against a KV store, fed by a
// chain RPC collaborator, and exposes the read-only Query Layer over the
// same indexes. One Indexer drives one logical writer; see the package doc
// and SPEC_FULL.md §5 for the concurrency contract.
type Indexer struct {
	db         KV
	chain      ChainSource
	bus        *EventBus
	feeWorkers int

	// writeMu serializes CONNECT/DISCONNECT calls against each other.
	// Reads never take it.
	writeMu sync.Mutex
}

// New constructs an Indexer from cfg. The returned Indexer owns an internal
// EventBus; callers obtain it via Events to subscribe before the first
// Connect.
func New(cfg Config) *Indexer {
	workers := cfg.FeeWorkers
	if workers <= 0 {
		workers = 8
	}
	return &Indexer{
		db:         cfg.Db,
		chain:      cfg.Chain,
		bus:        NewEventBus(),
		feeWorkers: workers,
	}
}

// Events returns the EventBus events are published to after a successful
// Connect. Subscribe before calling Connect to avoid missing events.
func (idx *Indexer) Events() *EventBus {
	return idx.bus
}

// Close releases resources owned by the Indexer, including its event bus.
// It does not close the underlying KV store, which the caller owns.
func (idx *Indexer) Close() {
	idx.bus.Close()
}

// withBatch is a small helper shared by Connect and Disconnect: it opens a
// batch, runs fn, and commits on success.
func (idx *Indexer) withBatch(ctx context.Context, fn func(b Batch) error) error {
	b := idx.db.Atomic()
	if err := fn(b); err != nil {
		return err
	}
	if err := b.Commit(); err != nil {
		return indexerErrorf(ErrKvFailure, "commit: %v", err)
	}
	return nil
}
