// Copyright (c) 2025 The Monetarium developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package rpcadapter implements indexcore.ChainSource against a running
// chain node's JSON-RPC/websocket interface, by wrapping
// github.com/decred/dcrd/rpcclient the way dcrlnd's chainConnAdaptor wraps
// the same client for its own narrow notifier interface.
package rpcadapter

import (
	"context"
	"errors"
	"fmt"

	"github.com/decred/dcrd/chaincfg/chainhash"
	"github.com/decred/dcrd/dcrjson/v4"
	"github.com/decred/dcrd/rpcclient/v8"
	"github.com/decred/dcrd/wire"
	"github.com/decred/go-socks/socks"
	"github.com/monetarium/utxoindex/internal/indexcore"
)

// isNoBlockAtHeight reports whether err is the node's "-5 out of range"
// RPCError for a height that does not exist yet, which Block relies on to
// tell "blockID is the tip" apart from a genuine RPC failure.
func isNoBlockAtHeight(err error) bool {
	var rpcErr *dcrjson.RPCError
	if !errors.As(err, &rpcErr) {
		return false
	}
	return rpcErr.Code == dcrjson.ErrRPCOutOfRange
}

// ScriptCommitter derives a ScriptID from an output's script. The core never
// computes this itself (see indexcore.ChainSource); the caller supplies
// whatever commitment scheme its address format requires.
type ScriptCommitter func(pkScript []byte) indexcore.ScriptID

// Client adapts *rpcclient.Client to indexcore.ChainSource.
type Client struct {
	rpc    *rpcclient.Client
	commit ScriptCommitter
}

// Ensure Client implements indexcore.ChainSource.
var _ indexcore.ChainSource = (*Client)(nil)

// Options configures New.
type Options struct {
	Host string
	User string
	Pass string

	// Proxy, if set, is a SOCKS5 proxy address (host:port) the client
	// dials the node through.
	Proxy     string
	ProxyUser string
	ProxyPass string

	// ScriptCommitter computes a ScriptID from a raw output script. It
	// must be supplied; New returns an error otherwise.
	ScriptCommitter ScriptCommitter
}

// New dials a chain node's RPC endpoint and returns a Client backed by it.
// DisableConnectOnNew is left false: New blocks until the initial connection
// succeeds or fails, matching the collaborator's own New.
func New(opts Options) (*Client, error) {
	if opts.ScriptCommitter == nil {
		return nil, fmt.Errorf("rpcadapter: ScriptCommitter is required")
	}

	cfg := &rpcclient.ConnConfig{
		Host:         opts.Host,
		User:         opts.User,
		Pass:         opts.Pass,
		HTTPPostMode: false,
		DisableTLS:   false,
	}

	if opts.Proxy != "" {
		proxy := &socks.Proxy{
			Addr:     opts.Proxy,
			Username: opts.ProxyUser,
			Password: opts.ProxyPass,
		}
		cfg.Proxy = opts.Proxy
		cfg.ProxyUser = opts.ProxyUser
		cfg.ProxyPass = opts.ProxyPass
		cfg.Dial = proxy.Dial
	}

	rpc, err := rpcclient.New(cfg, nil)
	if err != nil {
		return nil, fmt.Errorf("rpcadapter: dial: %w", err)
	}
	return &Client{rpc: rpc, commit: opts.ScriptCommitter}, nil
}

// Shutdown closes the underlying RPC connection.
func (c *Client) Shutdown() {
	c.rpc.Shutdown()
}

// Block implements indexcore.ChainSource.
func (c *Client) Block(ctx context.Context, blockID chainhash.Hash) (*indexcore.Block, error) {
	msgBlock, err := c.rpc.GetBlock(ctx, &blockID)
	if err != nil {
		return nil, fmt.Errorf("rpcadapter: get block %s: %w", blockID, err)
	}

	var nextID chainhash.Hash
	nextHash, err := c.rpc.GetBlockHash(ctx, int64(msgBlock.Header.Height)+1)
	switch {
	case err == nil:
		nextID = *nextHash
	case isNoBlockAtHeight(err):
		// blockID is the current tip; NextBlockHash stays the zero hash.
	default:
		return nil, fmt.Errorf("rpcadapter: get next block hash: %w", err)
	}

	block := &indexcore.Block{
		ID:                blockID,
		Height:            msgBlock.Header.Height,
		Size:              uint64(msgBlock.Header.Size),
		PreviousBlockHash: msgBlock.Header.PrevBlock,
		NextBlockHash:     nextID,
	}

	// Regular and stake transactions share one transaction namespace in
	// the index's TxIndex/TxoIndex/ScriptIndex; the core treats them
	// uniformly as opaque transactions.
	block.Transactions = make([]indexcore.Tx, 0, len(msgBlock.Transactions)+len(msgBlock.STransactions))
	for _, tx := range msgBlock.Transactions {
		block.Transactions = append(block.Transactions, c.convertTx(tx))
	}
	for _, tx := range msgBlock.STransactions {
		block.Transactions = append(block.Transactions, c.convertTx(tx))
	}

	return block, nil
}

// BlockIDAtHeight implements indexcore.ChainSource.
func (c *Client) BlockIDAtHeight(ctx context.Context, height uint32) (chainhash.Hash, error) {
	hash, err := c.rpc.GetBlockHash(ctx, int64(height))
	if err != nil {
		return chainhash.Hash{}, fmt.Errorf("rpcadapter: get block hash at height %d: %w", height, err)
	}
	return *hash, nil
}

func (c *Client) convertTx(tx *wire.MsgTx) indexcore.Tx {
	txID := tx.TxHash()

	ins := make([]indexcore.TxIn, len(tx.TxIn))
	for i, in := range tx.TxIn {
		ins[i] = indexcore.TxIn{
			Coinbase: i == 0 && in.PreviousOutPoint.Hash == (chainhash.Hash{}),
			PrevTxID: in.PreviousOutPoint.Hash,
			Vout:     in.PreviousOutPoint.Index,
		}
	}

	outs := make([]indexcore.TxOut, len(tx.TxOut))
	for i, out := range tx.TxOut {
		outs[i] = indexcore.TxOut{
			ScID:   c.commit(out.PkScript),
			Script: out.PkScript,
			Value:  uint64(out.Value),
			Vout:   uint32(i),
		}
	}

	return indexcore.Tx{
		TxID:  txID,
		TxBuf: serializeTx(tx),
		VSize: uint32(tx.SerializeSize()),
		Ins:   ins,
		Outs:  outs,
	}
}

func serializeTx(tx *wire.MsgTx) []byte {
	buf := make([]byte, 0, tx.SerializeSize())
	w := &byteSliceWriter{buf: buf}
	if err := tx.Serialize(w); err != nil {
		return nil
	}
	return w.buf
}

// byteSliceWriter adapts a growable []byte to io.Writer without pulling in
// bytes.Buffer just for this one call site.
type byteSliceWriter struct {
	buf []byte
}

func (w *byteSliceWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	return len(p), nil
}
