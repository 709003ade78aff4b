// Copyright (c) 2025 The Monetarium developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package indexcore

import (
	"bytes"
	"testing"
)

func openTestDB(t *testing.T) *LevelDB {
	t.Helper()
	db, err := OpenMemLevelDB()
	if err != nil {
		t.Fatalf("OpenMemLevelDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestLevelDBGetMissingReturnsNilNil(t *testing.T) {
	db := openTestDB(t)
	value, err := db.Get([]byte("missing"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if value != nil {
		t.Fatalf("expected nil value for missing key, got %v", value)
	}
}

func TestLevelDBBatchPutCommitGet(t *testing.T) {
	db := openTestDB(t)
	b := db.Atomic()
	b.Put([]byte("a"), []byte("1"))
	b.Put([]byte("b"), []byte("2"))
	if err := b.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	got, err := db.Get([]byte("a"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(got, []byte("1")) {
		t.Fatalf("got %q, want %q", got, "1")
	}
}

func TestLevelDBBatchDel(t *testing.T) {
	db := openTestDB(t)
	b := db.Atomic()
	b.Put([]byte("a"), []byte("1"))
	if err := b.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	b = db.Atomic()
	b.Del([]byte("a"))
	if err := b.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	got, err := db.Get([]byte("a"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Fatalf("expected key to be deleted, got %v", got)
	}
}

func TestLevelDBIterateOrderAndBounds(t *testing.T) {
	db := openTestDB(t)
	b := db.Atomic()
	for _, k := range []string{"a", "b", "c", "d", "e"} {
		b.Put([]byte(k), []byte(k))
	}
	if err := b.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	it, err := db.Iterate(IterOptions{Gte: []byte("b"), Lt: []byte("e")})
	if err != nil {
		t.Fatalf("Iterate: %v", err)
	}
	defer it.Release()

	var got []string
	for it.Next() {
		got = append(got, string(it.Key()))
	}
	if err := it.Err(); err != nil {
		t.Fatalf("iteration error: %v", err)
	}
	want := []string{"b", "c", "d"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestLevelDBIterateLimit(t *testing.T) {
	db := openTestDB(t)
	b := db.Atomic()
	for _, k := range []string{"a", "b", "c", "d"} {
		b.Put([]byte(k), []byte(k))
	}
	if err := b.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	it, err := db.Iterate(IterOptions{Gte: []byte("a"), Lt: []byte("z"), Limit: 2})
	if err != nil {
		t.Fatalf("Iterate: %v", err)
	}
	defer it.Release()

	count := 0
	for it.Next() {
		count++
	}
	if count != 2 {
		t.Fatalf("got %d entries, want 2", count)
	}
}

func TestLevelDBIterateIsSnapshotted(t *testing.T) {
	db := openTestDB(t)
	b := db.Atomic()
	b.Put([]byte("a"), []byte("1"))
	if err := b.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	it, err := db.Iterate(IterOptions{Gte: []byte("a"), Lt: []byte("z")})
	if err != nil {
		t.Fatalf("Iterate: %v", err)
	}
	defer it.Release()

	b2 := db.Atomic()
	b2.Put([]byte("b"), []byte("2"))
	if err := b2.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	var got []string
	for it.Next() {
		got = append(got, string(it.Key()))
	}
	if len(got) != 1 || got[0] != "a" {
		t.Fatalf("expected snapshot to not observe post-snapshot commit, got %v", got)
	}
}
