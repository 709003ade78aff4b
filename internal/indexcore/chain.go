// Copyright (c) 2025 The Monetarium developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package indexcore

import (
	"context"

	"github.com/decred/dcrd/chaincfg/chainhash"
)

// ScriptID is a fixed-width opaque commitment to an output's script, used as
// the join key for address-style activity lookups. The core never derives
// this value itself; the RPC collaborator (or the adapter wrapping it) is
// responsible for computing it from the script, by whatever scheme the
// caller's chain uses.
type ScriptID [20]byte

// TxIn is a single transaction input as exposed by the chain RPC
// collaborator. Coinbase inputs carry no meaningful PrevTxID/Vout.
type TxIn struct {
	Coinbase bool
	PrevTxID chainhash.Hash
	Vout     uint32
}

// TxOut is a single transaction output as exposed by the chain RPC
// collaborator.
type TxOut struct {
	ScID   ScriptID
	Script []byte
	Value  uint64
	Vout   uint32
}

// Tx is a single parsed transaction as exposed by the chain RPC
// collaborator. The core consumes pre-parsed transactions; it never decodes
// wire bytes itself.
type Tx struct {
	TxID  chainhash.Hash
	TxBuf []byte
	VSize uint32
	Ins   []TxIn
	Outs  []TxOut
}

// Block is a single parsed block body as exposed by the chain RPC
// collaborator.
type Block struct {
	ID                chainhash.Hash
	Height            uint32
	Size              uint64
	PreviousBlockHash chainhash.Hash
	NextBlockHash     chainhash.Hash
	Transactions      []Tx
}

// ChainSource is the chain RPC collaborator consumed by the indexer core.
// Its internals (the transport, the node being queried, retry/backoff
// policy) are out of scope for the core; only this narrow surface is
// required. See rpcadapter for a concrete implementation backed by
// github.com/decred/dcrd/rpcclient.
type ChainSource interface {
	// Block returns the full parsed body of the block identified by
	// blockID.
	Block(ctx context.Context, blockID chainhash.Hash) (*Block, error)

	// BlockIDAtHeight returns the identifier of the main-chain block at
	// the given height.
	BlockIDAtHeight(ctx context.Context, height uint32) (chainhash.Hash, error)
}
