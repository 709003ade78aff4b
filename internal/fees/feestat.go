// Copyright (c) 2025 The Monetarium developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package fees computes the per-block fee-rate statistic the indexer core's
// second-order pass derives from a connected block's transactions.
package fees

import "sort"

// Rate computes the integer satoshi-per-vbyte fee rate for a transaction
// given its total fee and virtual size: floor(fee / vsize). vsize must be
// positive; callers are expected to special-case coinbase transactions
// (feeRate = 0) before calling Rate.
func Rate(fee int64, vsize uint32) int64 {
	return fee / int64(vsize)
}

// BoxSummary is the (q1, median, q3) box-plot summary of a fee-rate sample.
type BoxSummary struct {
	Q1     int64
	Median int64
	Q3     int64
}

// Summarize sorts sample ascending (in place) and returns its box summary:
// given n = len(sample), q = n/4, m = n/2, the picks are
// sample[q], sample[m], sample[m+q]. All three are zero when n == 0.
func Summarize(sample []int64) BoxSummary {
	n := len(sample)
	if n == 0 {
		return BoxSummary{}
	}
	sort.Slice(sample, func(i, j int) bool { return sample[i] < sample[j] })
	q := n / 4
	m := n / 2
	return BoxSummary{
		Q1:     sample[q],
		Median: sample[m],
		Q3:     sample[m+q],
	}
}
