// Copyright (c) 2025 The Monetarium developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package indexcore

import (
	"context"

	"github.com/decred/dcrd/chaincfg/chainhash"
)

// Disconnect undoes the block identified by blockID: it deletes every index
// entry that block's Connect installed and rolls Tip back to
// {block.previousblockhash, block.Height - 1}.
//
// Disconnect does not emit events and does not remove the block's FeeIndex
// entry — see SPEC_FULL.md §9, an intentionally preserved behavior rather
// than an oversight.
func (idx *Indexer) Disconnect(ctx context.Context, blockID chainhash.Hash) error {
	idx.writeMu.Lock()
	defer idx.writeMu.Unlock()

	block, err := idx.chain.Block(ctx, blockID)
	if err != nil {
		return indexerErrorf(ErrRpcFailure, "fetch block %s: %v", blockID, err)
	}

	return idx.withBatch(ctx, func(b Batch) error {
		for _, tx := range block.Transactions {
			for _, in := range tx.Ins {
				if in.Coinbase {
					continue
				}
				b.Del(spentKey(in.PrevTxID, in.Vout))
			}

			for _, out := range tx.Outs {
				// tx.TxID is the enclosing transaction's id, which is the
				// correct owning txId for every output of this
				// transaction by construction.
				b.Del(scriptKey(out.ScID, block.Height, tx.TxID, out.Vout))
				b.Del(txoKey(tx.TxID, out.Vout))
			}

			b.Del(txKey(tx.TxID))
		}

		b.Put(tipKey(), encodeTipValue(tipValue{
			blockID: block.PreviousBlockHash,
			height:  block.Height - 1,
		}))
		return nil
	})
}
