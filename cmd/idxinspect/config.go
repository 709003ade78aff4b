// Copyright (c) 2025 The Monetarium developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/decred/slog"
	"github.com/jessevdk/go-flags"
	"github.com/jrick/logrotate/rotator"
)

const (
	defaultDBPath  = "idxinspect.db"
	defaultLogFile = "idxinspect.log"
)

// config holds the operator-facing options for idxinspect, parsed from the
// command line the way the node's own daemon config is: a flags.Parser
// struct with one-line usage tags per field.
type config struct {
	DBPath  string `short:"d" long:"dbpath" description:"Path to the indexer's goleveldb directory"`
	RPCHost string `long:"rpchost" description:"host:port of the chain node's RPC endpoint"`
	RPCUser string `long:"rpcuser" description:"RPC username"`
	RPCPass string `long:"rpcpass" description:"RPC password; prompted interactively if omitted"`
	LogFile string `long:"logfile" description:"Path to the rotated log file"`
	Proxy   string `long:"proxy" description:"SOCKS5 proxy host:port to dial the RPC endpoint through"`
	Verbose bool   `short:"v" long:"verbose" description:"Enable debug-level logging"`
}

var logRotator *rotator.Rotator

func loadConfig() (*config, []string, error) {
	cfg := config{
		DBPath:  defaultDBPath,
		LogFile: defaultLogFile,
	}
	parser := flags.NewParser(&cfg, flags.Default)
	remaining, err := parser.Parse()
	if err != nil {
		return nil, nil, err
	}
	return &cfg, remaining, nil
}

// initLogRotator opens (creating if necessary) logFile for rotated writing
// and returns an io.Writer suitable for slog's backend, following the
// node's own logging setup: one rotator shared by every package logger.
func initLogRotator(logFile string) (io.Writer, error) {
	logDir := filepath.Dir(logFile)
	if err := os.MkdirAll(logDir, 0700); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	r, err := rotator.New(logFile, 10*1024, false, 3)
	if err != nil {
		return nil, fmt.Errorf("create log rotator: %w", err)
	}
	logRotator = r
	return r, nil
}

func backendLevel(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}
