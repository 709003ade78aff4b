// Copyright (c) 2025 The Monetarium developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package indexcore

import (
	"context"
	"sync"

	"github.com/monetarium/utxoindex/internal/fees"
)

// runFeePass is the fee-rate second-order pass (SPEC_FULL.md §4.3.3). It
// resolves every non-coinbase input's previous output from the TXO index,
// computes each transaction's fee rate, and commits the per-block box
// summary in a second batch. It must only be called after the primary batch
// for block has already committed.
func (idx *Indexer) runFeePass(ctx context.Context, block *Block) error {
	rates, err := idx.resolveFeeRates(ctx, block)
	if err != nil {
		return err
	}

	summary := fees.Summarize(rates)

	return idx.withBatch(ctx, func(b Batch) error {
		b.Put(feeKey(block.Height), encodeFeeValue(feeValue{
			fees: boxSummary{q1: summary.Q1, median: summary.Median, q3: summary.Q3},
			size: block.Size,
		}))
		return nil
	})
}

// resolveFeeRates computes the fee-rate sample for block. Per-transaction
// TXO lookups are independent of each other, so they run concurrently over
// a bounded worker pool; results are collected positionally so the box
// summary's input order does not matter (Summarize sorts it anyway) but
// errors are still deterministic to report.
func (idx *Indexer) resolveFeeRates(ctx context.Context, block *Block) ([]int64, error) {
	n := len(block.Transactions)
	rates := make([]int64, n)
	errs := make([]error, n)

	workers := idx.feeWorkers
	if workers > n {
		workers = n
	}
	if workers <= 0 {
		return rates, nil
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				rates[i], errs[i] = idx.txFeeRate(block.Transactions[i])
			}
		}()
	}
	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return rates, nil
}

// txFeeRate computes the fee rate for a single transaction. Coinbase
// transactions always contribute a fee rate of zero.
func (idx *Indexer) txFeeRate(tx Tx) (int64, error) {
	var inAccum, outAccum int64
	for _, in := range tx.Ins {
		if in.Coinbase {
			return 0, nil
		}
		data, err := idx.db.Get(txoKey(in.PrevTxID, in.Vout))
		if err != nil {
			return 0, indexerErrorf(ErrKvFailure, "resolve txo for fee pass: %v", err)
		}
		if data == nil {
			return 0, indexerErrorf(ErrMissingTxo,
				"txo (%s, %d) referenced by tx %s not found", in.PrevTxID, in.Vout, tx.TxID)
		}
		txo, err := decodeTxoValue(data)
		if err != nil {
			return 0, err
		}
		inAccum += int64(txo.value)
	}
	for _, out := range tx.Outs {
		outAccum += int64(out.Value)
	}
	fee := inAccum - outAccum
	return fees.Rate(fee, tx.VSize), nil
}
