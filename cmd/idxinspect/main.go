// Copyright (c) 2025 The Monetarium developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Command idxinspect is an operator tool for querying a running indexer's
// on-disk state directly, the way the node's own administrative tooling
// talks straight to its database rather than through the RPC server.
package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/decred/base58"
	"github.com/decred/dcrd/chaincfg/chainhash"
	"github.com/decred/slog"
	"github.com/monetarium/utxoindex/internal/indexcore"
	"golang.org/x/term"
)

var log = slog.Disabled

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "idxinspect:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, args, err := loadConfig()
	if err != nil {
		return err
	}

	backend, err := initLogRotator(cfg.LogFile)
	if err != nil {
		return err
	}
	log = slog.NewBackend(backend).Logger("INSP")
	log.SetLevel(backendLevel(cfg.Verbose))
	indexcore.UseLogger(log)

	if cfg.RPCPass == "" && cfg.RPCHost != "" {
		pass, err := promptPassword()
		if err != nil {
			return fmt.Errorf("read rpc password: %w", err)
		}
		cfg.RPCPass = pass
	}

	db, err := indexcore.OpenLevelDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open index db at %s: %w", cfg.DBPath, err)
	}
	defer db.Close()

	idx := indexcore.New(indexcore.Config{Db: db})
	defer idx.Close()

	if len(args) == 0 {
		return fmt.Errorf("expected a subcommand: tip, fees, txo, scan")
	}

	switch args[0] {
	case "tip":
		return cmdTip(idx)
	case "fees":
		return cmdFees(idx, args[1:])
	case "txo":
		return cmdTxo(idx, args[1:])
	case "scan":
		return cmdScan(idx, args[1:])
	default:
		return fmt.Errorf("unknown subcommand %q", args[0])
	}
}

func promptPassword() (string, error) {
	fmt.Fprint(os.Stderr, "RPC password: ")
	pass, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(pass), nil
}

func cmdTip(idx *indexcore.Indexer) error {
	id, ok, err := idx.Tip()
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("index is empty")
		return nil
	}
	height, _, err := idx.TipHeight()
	if err != nil {
		return err
	}
	fmt.Printf("tip: %s (height %d)\n", id, height)
	return nil
}

func cmdFees(idx *indexcore.Indexer, args []string) error {
	n := 10
	if len(args) > 0 {
		if _, err := fmt.Sscanf(args[0], "%d", &n); err != nil {
			return fmt.Errorf("invalid count %q: %w", args[0], err)
		}
	}
	summaries, err := idx.Fees(n)
	if err != nil {
		return err
	}
	for _, s := range summaries {
		fmt.Printf("height=%d q1=%d median=%d q3=%d size=%d\n",
			s.Height, s.Fees.Q1, s.Fees.Median, s.Fees.Q3, s.Size)
	}
	return nil
}

func cmdTxo(idx *indexcore.Indexer, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: txo <txid> <vout>")
	}
	txID, err := chainhash.NewHashFromStr(args[0])
	if err != nil {
		return fmt.Errorf("invalid txid: %w", err)
	}
	var vout uint32
	if _, err := fmt.Sscanf(args[1], "%d", &vout); err != nil {
		return fmt.Errorf("invalid vout: %w", err)
	}
	txo, ok, err := idx.TxoByOutpoint(*txID, vout)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("not found")
		return nil
	}
	fmt.Printf("value=%d script=%s\n", txo.Value, hex.EncodeToString(txo.Script))

	spend, ok, err := idx.SpentFromTxo(*txID, vout)
	if err != nil {
		return err
	}
	if ok {
		fmt.Printf("spent by %s (vin %d)\n", spend.TxID, spend.Vin)
	} else {
		fmt.Println("unspent")
	}
	return nil
}

func cmdScan(idx *indexcore.Indexer, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: scan <scriptId-base58>")
	}
	raw, ver, err := base58.CheckDecode(args[0])
	if err != nil {
		return fmt.Errorf("decode script id: %w", err)
	}
	if len(raw) != 20 {
		return fmt.Errorf("decoded script id has length %d, want 20", len(raw))
	}
	_ = ver
	var scID indexcore.ScriptID
	copy(scID[:], raw)

	txIDs, pos, err := idx.TransactionIDsByScriptID(scID, 0, indexcore.ScriptTxLimit{Limit: 10000})
	if err != nil {
		return err
	}
	for txID := range txIDs {
		fmt.Println(txID)
	}
	fmt.Fprintf(os.Stderr, "scanned through height %d (%d entries walked)\n", pos.Height, pos.Offset)
	return nil
}
