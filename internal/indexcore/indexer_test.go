// Copyright (c) 2025 The Monetarium developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package indexcore

import (
	"context"
	"errors"
	"testing"

	"github.com/decred/dcrd/chaincfg/chainhash"
)

// fakeChain is a trivial in-memory ChainSource test double: blocks are
// pre-loaded by the test and never actually validated against each other.
type fakeChain struct {
	byID     map[chainhash.Hash]*Block
	byHeight map[uint32]chainhash.Hash
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		byID:     make(map[chainhash.Hash]*Block),
		byHeight: make(map[uint32]chainhash.Hash),
	}
}

func (c *fakeChain) add(b *Block) {
	c.byID[b.ID] = b
	c.byHeight[b.Height] = b.ID
}

func (c *fakeChain) Block(ctx context.Context, blockID chainhash.Hash) (*Block, error) {
	b, ok := c.byID[blockID]
	if !ok {
		return nil, errors.New("no such block")
	}
	return b, nil
}

func (c *fakeChain) BlockIDAtHeight(ctx context.Context, height uint32) (chainhash.Hash, error) {
	id, ok := c.byHeight[height]
	if !ok {
		return chainhash.Hash{}, errors.New("no block at height")
	}
	return id, nil
}

func newTestIndexer(t *testing.T, chain ChainSource) *Indexer {
	t.Helper()
	db, err := OpenMemLevelDB()
	if err != nil {
		t.Fatalf("OpenMemLevelDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	idx := New(Config{Db: db, Chain: chain, FeeWorkers: 4})
	t.Cleanup(idx.Close)
	return idx
}

func scIDFrom(b byte) ScriptID {
	var s ScriptID
	s[0] = b
	return s
}

func TestConnectEmptyBlock(t *testing.T) {
	chain := newFakeChain()
	genesis := mustHash(0x01)
	blk1ID := mustHash(0x02)
	chain.add(&Block{ID: blk1ID, Height: 1, PreviousBlockHash: genesis, NextBlockHash: chainhash.Hash{}})

	idx := newTestIndexer(t, chain)
	next, err := idx.Connect(context.Background(), blk1ID, 1)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if next != (chainhash.Hash{}) {
		t.Fatalf("got next %s, want zero hash", next)
	}

	height, ok, err := idx.TipHeight()
	if err != nil || !ok {
		t.Fatalf("TipHeight: ok=%v err=%v", ok, err)
	}
	if height != 1 {
		t.Fatalf("got tip height %d, want 1", height)
	}
}

func TestConnectCoinbaseOnlyBlock(t *testing.T) {
	chain := newFakeChain()
	coinbaseTxID := mustHash(0x10)
	scID := scIDFrom(0xaa)
	blk1ID := mustHash(0x11)
	chain.add(&Block{
		ID:     blk1ID,
		Height: 1,
		Size:   250,
		Transactions: []Tx{{
			TxID:  coinbaseTxID,
			VSize: 200,
			Ins:   []TxIn{{Coinbase: true}},
			Outs:  []TxOut{{ScID: scID, Value: 5000000000, Vout: 0, Script: []byte{0x51}}},
		}},
	})

	idx := newTestIndexer(t, chain)
	if _, err := idx.Connect(context.Background(), blk1ID, 1); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	txo, ok, err := idx.TxoByOutpoint(coinbaseTxID, 0)
	if err != nil || !ok {
		t.Fatalf("TxoByOutpoint: ok=%v err=%v", ok, err)
	}
	if txo.Value != 5000000000 {
		t.Fatalf("got value %d, want 5000000000", txo.Value)
	}

	height, ok, err := idx.BlockHeightByTransactionID(coinbaseTxID)
	if err != nil || !ok || height != 1 {
		t.Fatalf("BlockHeightByTransactionID: height=%d ok=%v err=%v", height, ok, err)
	}

	seen, err := idx.SeenScriptID(scID)
	if err != nil || !seen {
		t.Fatalf("SeenScriptID: seen=%v err=%v", seen, err)
	}

	fees, err := idx.Fees(1)
	if err != nil {
		t.Fatalf("Fees: %v", err)
	}
	if len(fees) != 1 || fees[0].Fees.Median != 0 {
		t.Fatalf("got %+v, want single zero-fee summary (coinbase)", fees)
	}
}

func TestConnectSpendsEarlierOutput(t *testing.T) {
	chain := newFakeChain()
	scID := scIDFrom(0xbb)

	coinbaseTxID := mustHash(0x20)
	blk1ID := mustHash(0x21)
	chain.add(&Block{
		ID:     blk1ID,
		Height: 1,
		Transactions: []Tx{{
			TxID:  coinbaseTxID,
			VSize: 200,
			Ins:   []TxIn{{Coinbase: true}},
			Outs:  []TxOut{{ScID: scID, Value: 1000, Vout: 0}},
		}},
	})

	spendTxID := mustHash(0x22)
	blk2ID := mustHash(0x23)
	chain.add(&Block{
		ID:                blk2ID,
		Height:            2,
		PreviousBlockHash: blk1ID,
		Transactions: []Tx{{
			TxID:  spendTxID,
			VSize: 150,
			Ins:   []TxIn{{PrevTxID: coinbaseTxID, Vout: 0}},
			Outs:  []TxOut{{ScID: scID, Value: 900, Vout: 0}},
		}},
	})

	idx := newTestIndexer(t, chain)
	if _, err := idx.Connect(context.Background(), blk1ID, 1); err != nil {
		t.Fatalf("connect block 1: %v", err)
	}
	if _, err := idx.Connect(context.Background(), blk2ID, 2); err != nil {
		t.Fatalf("connect block 2: %v", err)
	}

	spend, ok, err := idx.SpentFromTxo(coinbaseTxID, 0)
	if err != nil || !ok {
		t.Fatalf("SpentFromTxo: ok=%v err=%v", ok, err)
	}
	if spend.TxID != spendTxID || spend.Vin != 0 {
		t.Fatalf("got %+v, want spend by %s vin 0", spend, spendTxID)
	}

	fees, err := idx.Fees(1)
	if err != nil {
		t.Fatalf("Fees: %v", err)
	}
	if len(fees) != 1 {
		t.Fatalf("got %d fee rows, want 1", len(fees))
	}
	wantRate := (int64(1000) - int64(900)) / int64(150)
	if fees[0].Fees.Median != wantRate {
		t.Fatalf("got median fee rate %d, want %d", fees[0].Fees.Median, wantRate)
	}

	txos, err := idx.TxosByScriptID(scID, 0, 0)
	if err != nil {
		t.Fatalf("TxosByScriptID: %v", err)
	}
	if len(txos) != 2 {
		t.Fatalf("got %d txos, want 2 (one per block)", len(txos))
	}

	txIDs, _, err := idx.TransactionIDsByScriptID(scID, 0, ScriptTxLimit{Limit: 100})
	if err != nil {
		t.Fatalf("TransactionIDsByScriptID: %v", err)
	}
	if _, ok := txIDs[coinbaseTxID]; !ok {
		t.Fatalf("expected coinbase tx to be present, got %v", txIDs)
	}
	if _, ok := txIDs[spendTxID]; !ok {
		t.Fatalf("expected spending tx to be present via spend join, got %v", txIDs)
	}
}

func TestDisconnectUndoesConnect(t *testing.T) {
	chain := newFakeChain()
	scID := scIDFrom(0xcc)
	coinbaseTxID := mustHash(0x30)
	genesis := mustHash(0x2f)
	blk1ID := mustHash(0x31)
	chain.add(&Block{
		ID:                blk1ID,
		Height:            1,
		PreviousBlockHash: genesis,
		Transactions: []Tx{{
			TxID:  coinbaseTxID,
			VSize: 200,
			Ins:   []TxIn{{Coinbase: true}},
			Outs:  []TxOut{{ScID: scID, Value: 1000, Vout: 0}},
		}},
	})

	idx := newTestIndexer(t, chain)
	if _, err := idx.Connect(context.Background(), blk1ID, 1); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := idx.Disconnect(context.Background(), blk1ID); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}

	if _, ok, err := idx.TxoByOutpoint(coinbaseTxID, 0); err != nil || ok {
		t.Fatalf("expected txo to be removed after disconnect, ok=%v err=%v", ok, err)
	}
	if _, ok, err := idx.BlockHeightByTransactionID(coinbaseTxID); err != nil || ok {
		t.Fatalf("expected tx index entry to be removed after disconnect, ok=%v err=%v", ok, err)
	}

	height, ok, err := idx.TipHeight()
	if err != nil || !ok {
		t.Fatalf("TipHeight: ok=%v err=%v", ok, err)
	}
	if height != 0 {
		t.Fatalf("got tip height %d, want 0 after disconnect", height)
	}

	// FeeIndex entry is intentionally preserved across Disconnect.
	fees, err := idx.Fees(1)
	if err != nil {
		t.Fatalf("Fees: %v", err)
	}
	if len(fees) != 1 {
		t.Fatalf("expected FeeIndex entry to survive disconnect, got %d rows", len(fees))
	}
}

func TestConnectHeightMismatch(t *testing.T) {
	chain := newFakeChain()
	blk1ID := mustHash(0x40)
	chain.add(&Block{ID: blk1ID, Height: 5})

	idx := newTestIndexer(t, chain)
	_, err := idx.Connect(context.Background(), blk1ID, 1)
	if err == nil {
		t.Fatal("expected HeightMismatch error, got nil")
	}
	if !errors.Is(err, ErrHeightMismatch) {
		t.Fatalf("got %v, want ErrHeightMismatch", err)
	}
}

func TestConnectMissingTxoFailsFeePass(t *testing.T) {
	chain := newFakeChain()
	blk1ID := mustHash(0x50)
	chain.add(&Block{
		ID:     blk1ID,
		Height: 1,
		Transactions: []Tx{{
			TxID:  mustHash(0x51),
			VSize: 100,
			Ins:   []TxIn{{PrevTxID: mustHash(0xde), Vout: 0}},
			Outs:  []TxOut{{Value: 100}},
		}},
	})

	idx := newTestIndexer(t, chain)
	_, err := idx.Connect(context.Background(), blk1ID, 1)
	if err == nil {
		t.Fatal("expected fee pass to fail on missing txo, got nil")
	}
	if !errors.Is(err, ErrMissingTxo) {
		t.Fatalf("got %v, want a wrapped ErrMissingTxo (fee pass failure after primary commit)", err)
	}

	// The primary batch commits before the fee pass runs, so the tx is
	// still indexed despite the reported error.
	if _, ok, ferr := idx.BlockHeightByTransactionID(mustHash(0x51)); ferr != nil || !ok {
		t.Fatalf("expected primary batch to remain committed: ok=%v err=%v", ok, ferr)
	}
}

func TestLabelsRoundTrip(t *testing.T) {
	chain := newFakeChain()
	idx := newTestIndexer(t, chain)
	scID := scIDFrom(0xdd)

	if err := idx.PutLabel(scID, []byte("cold-storage")); err != nil {
		t.Fatalf("PutLabel: %v", err)
	}
	if err := idx.PutLabel(scID, []byte("savings")); err != nil {
		t.Fatalf("PutLabel: %v", err)
	}

	labels, err := idx.Labels(scID)
	if err != nil {
		t.Fatalf("Labels: %v", err)
	}
	if len(labels) != 2 {
		t.Fatalf("got %d labels, want 2", len(labels))
	}
}

func TestIndexStats(t *testing.T) {
	chain := newFakeChain()
	blk1ID := mustHash(0x60)
	chain.add(&Block{
		ID:     blk1ID,
		Height: 1,
		Transactions: []Tx{{
			TxID: mustHash(0x61),
			Ins:  []TxIn{{Coinbase: true}},
			Outs: []TxOut{{Value: 100}},
		}},
	})

	idx := newTestIndexer(t, chain)
	if _, err := idx.Connect(context.Background(), blk1ID, 1); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	stats, err := idx.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if !stats.HasTip || stats.TipHeight != 1 || stats.FeeSummaryCount != 1 {
		t.Fatalf("got %+v", stats)
	}
}
