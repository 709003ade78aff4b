// Copyright (c) 2025 The Monetarium developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package indexcore

// KV is the narrow façade the indexer core requires from the underlying
// ordered embedded store. Anything satisfying this contract — an LSM tree,
// a B-tree, an in-memory sorted map for tests — is acceptable; the core
// never reaches past it into a specific engine.
type KV interface {
	// Get performs a point lookup. A nil value with a nil error means the
	// key is absent; absence is a normal result, not an error.
	Get(key []byte) (value []byte, err error)

	// Atomic opens a new batch. The batch is not visible to readers, nor
	// to other batches, until Commit succeeds.
	Atomic() Batch

	// Iterate performs a forward traversal over encoded keys in
	// [opts.Gte, opts.Lt), bounded by opts.Limit entries (0 means
	// unbounded). The returned Iterator observes a snapshot no older than
	// the last successful Commit that happened-before the call to
	// Iterate, and none of the effects of batches not yet committed.
	Iterate(opts IterOptions) (Iterator, error)
}

// IterOptions bounds a single forward range scan. Lt == nil means
// unbounded above.
type IterOptions struct {
	Gte   []byte
	Lt    []byte
	Limit int
}

// Iterator yields decoded (key, value) pairs in ascending key order. Callers
// must call Release when done, even on error.
type Iterator interface {
	// Next advances the iterator and reports whether an entry is
	// available. It returns false at end-of-range or on error; callers
	// must check Err after Next returns false to distinguish the two.
	Next() bool

	// Key returns the key of the current entry. The slice is only valid
	// until the next call to Next or Release.
	Key() []byte

	// Value returns the value of the current entry. The slice is only
	// valid until the next call to Next or Release.
	Value() []byte

	// Err returns the first error encountered during iteration, if any.
	Err() error

	// Release frees resources held by the iterator. It is safe to call
	// Release more than once.
	Release()
}

// Batch accumulates a set of mutations for atomic application. A Batch must
// not be reused after Commit is called.
type Batch interface {
	// Put stages a key/value write.
	Put(key, value []byte)

	// Del stages a key deletion.
	Del(key []byte)

	// Commit applies every staged mutation atomically: either all of
	// them become visible to subsequent readers, or none do. Commit is
	// ordered after prior commits on the same store.
	Commit() error
}
