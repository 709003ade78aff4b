// Copyright (c) 2025 The Monetarium developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package indexcore

import (
	"context"
	"fmt"

	"github.com/decred/dcrd/chaincfg/chainhash"
)

// Connect applies the block identified by blockID at expectedHeight: it
// fetches the block body, writes every index mutation in one atomic batch,
// commits, runs the fee-rate second-order pass in a second batch, and
// finally schedules the block's queued events for asynchronous dispatch.
// It returns the block's nextblockhash on success.
//
// See SPEC_FULL.md §4.3.1 for the full step-by-step contract, including the
// event emission ordering guarantee.
func (idx *Indexer) Connect(ctx context.Context, blockID chainhash.Hash, expectedHeight uint32) (chainhash.Hash, error) {
	idx.writeMu.Lock()
	defer idx.writeMu.Unlock()

	block, err := idx.chain.Block(ctx, blockID)
	if err != nil {
		return chainhash.Hash{}, indexerErrorf(ErrRpcFailure, "fetch block %s: %v", blockID, err)
	}
	if block.Height != expectedHeight {
		return chainhash.Hash{}, indexerErrorf(ErrHeightMismatch,
			"block %s has height %d, expected %d", blockID, block.Height, expectedHeight)
	}

	var events []Event
	err = idx.withBatch(ctx, func(b Batch) error {
		for _, tx := range block.Transactions {
			for vin, in := range tx.Ins {
				if in.Coinbase {
					continue
				}
				b.Put(spentKey(in.PrevTxID, in.Vout), encodeSpentValue(spentValue{
					txID: tx.TxID,
					vin:  uint32(vin),
				}))
				events = append(events, Event{Kind: EventSpent, Spent: &SpentEvent{
					PrevTxID: in.PrevTxID,
					Vout:     in.Vout,
					TxID:     tx.TxID,
					Vin:      uint32(vin),
				}})
			}

			for _, out := range tx.Outs {
				b.Put(scriptKey(out.ScID, block.Height, tx.TxID, out.Vout), nil)
				b.Put(txoKey(tx.TxID, out.Vout), encodeTxoValue(txoValue{
					value:  out.Value,
					script: out.Script,
				}))
				events = append(events, Event{Kind: EventScript, Script: &ScriptEvent{
					ScID:  out.ScID,
					TxID:  tx.TxID,
					TxBuf: tx.TxBuf,
				}})
			}

			b.Put(txKey(tx.TxID), encodeTxValue(block.Height))
			events = append(events, Event{Kind: EventTransaction, Transaction: &TransactionEvent{
				TxID:    tx.TxID,
				TxBuf:   tx.TxBuf,
				BlockID: blockID,
			}})
		}

		events = append(events, Event{Kind: EventBlock, Block: &BlockEvent{
			BlockID: blockID,
			Height:  block.Height,
		}})

		b.Put(tipKey(), encodeTipValue(tipValue{blockID: blockID, height: block.Height}))
		return nil
	})
	if err != nil {
		return chainhash.Hash{}, err
	}

	if err := idx.runFeePass(ctx, block); err != nil {
		// The primary batch is already committed; wrap (not replace) the
		// underlying error so errors.Is(err, ErrMissingTxo) and friends
		// still resolve to the real cause, while the message tells a
		// follower the two failure modes apart without re-deriving it
		// from index state (SPEC_FULL.md §9).
		return chainhash.Hash{}, IndexerError{
			Err: err,
			Description: fmt.Sprintf(
				"fee pass for block %s at height %d failed after primary commit: %v",
				blockID, block.Height, err),
		}
	}

	next := block.NextBlockHash

	// Schedule emission strictly after this point: the caller (the
	// completion callback in the original control flow) is about to get
	// control back, and subscribers must not be able to observe the block
	// before that happens.
	idx.bus.PublishBatch(events)

	return next, nil
}
