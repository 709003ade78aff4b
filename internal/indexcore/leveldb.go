// Copyright (c) 2025 The Monetarium developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package indexcore

import (
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// LevelDB is a KV implementation backed by a single goleveldb database. Index
// type tags become a one-byte prefix inside one flat goleveldb keyspace;
// goleveldb's own key ordering is byte-lexicographic, which is exactly the
// ordering the key codec is built to exploit.
type LevelDB struct {
	db *leveldb.DB
}

// Ensure LevelDB implements KV.
var _ KV = (*LevelDB)(nil)

// OpenLevelDB opens (creating if necessary) a goleveldb database at path.
func OpenLevelDB(path string) (*LevelDB, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, indexerErrorf(ErrKvFailure, "open leveldb at %s: %v", path, err)
	}
	return &LevelDB{db: db}, nil
}

// OpenMemLevelDB opens an in-memory goleveldb database. It is intended for
// tests and short-lived tooling; nothing is persisted to disk.
func OpenMemLevelDB() (*LevelDB, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, indexerErrorf(ErrKvFailure, "open in-memory leveldb: %v", err)
	}
	return &LevelDB{db: db}, nil
}

// Close releases the underlying goleveldb database.
func (l *LevelDB) Close() error {
	return l.db.Close()
}

// Get implements KV.
func (l *LevelDB) Get(key []byte) ([]byte, error) {
	value, err := l.db.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, indexerErrorf(ErrKvFailure, "get: %v", err)
	}
	return value, nil
}

// Atomic implements KV.
func (l *LevelDB) Atomic() Batch {
	return &levelDBBatch{db: l.db, batch: new(leveldb.Batch)}
}

// Iterate implements KV. The iterator is taken over a Snapshot so it
// observes a fixed point-in-time view regardless of batches committed after
// the call, satisfying the read-consistency requirement of the KV
// abstraction.
func (l *LevelDB) Iterate(opts IterOptions) (Iterator, error) {
	snap, err := l.db.GetSnapshot()
	if err != nil {
		return nil, indexerErrorf(ErrKvFailure, "snapshot: %v", err)
	}
	rng := &util.Range{Start: opts.Gte, Limit: opts.Lt}
	it := snap.NewIterator(rng, &opt.ReadOptions{})
	return &levelDBIterator{snap: snap, it: it, limit: opts.Limit}, nil
}

type levelDBBatch struct {
	db    *leveldb.DB
	batch *leveldb.Batch
}

func (b *levelDBBatch) Put(key, value []byte) {
	b.batch.Put(key, value)
}

func (b *levelDBBatch) Del(key []byte) {
	b.batch.Delete(key)
}

func (b *levelDBBatch) Commit() error {
	if err := b.db.Write(b.batch, nil); err != nil {
		return indexerErrorf(ErrKvFailure, "commit batch: %v", err)
	}
	return nil
}

type levelDBIterator struct {
	snap    *leveldb.Snapshot
	it      iterator
	limit   int
	seen    int
	err     error
	started bool
}

// iterator is the subset of goleveldb's iterator.Iterator the indexer core
// relies on. It is declared locally so the concrete type can be swapped in
// tests without importing the iterator package solely for its interface.
type iterator interface {
	Next() bool
	Key() []byte
	Value() []byte
	Error() error
	Release()
}

func (it *levelDBIterator) Next() bool {
	if it.err != nil {
		return false
	}
	if it.limit > 0 && it.seen >= it.limit {
		return false
	}
	if !it.it.Next() {
		it.err = it.it.Error()
		return false
	}
	it.seen++
	return true
}

func (it *levelDBIterator) Key() []byte {
	// goleveldb reuses the backing array across calls; copy so callers can
	// safely retain the slice across the next Next().
	k := it.it.Key()
	out := make([]byte, len(k))
	copy(out, k)
	return out
}

func (it *levelDBIterator) Value() []byte {
	v := it.it.Value()
	out := make([]byte, len(v))
	copy(out, v)
	return out
}

func (it *levelDBIterator) Err() error {
	if it.err == nil {
		return nil
	}
	return indexerErrorf(ErrKvFailure, "iterate: %v", it.err)
}

func (it *levelDBIterator) Release() {
	it.it.Release()
	it.snap.Release()
}
