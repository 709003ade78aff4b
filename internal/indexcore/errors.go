// Copyright (c) 2025 The Monetarium developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package indexcore

import "fmt"

// ErrorKind identifies a class of error returned by the indexer core.
type ErrorKind string

// These constants are used to identify a specific ErrorKind.
const (
	// ErrRpcFailure indicates the chain RPC collaborator returned an error
	// or could not be reached.
	ErrRpcFailure = ErrorKind("ErrRpcFailure")

	// ErrHeightMismatch indicates the height reported by the RPC
	// collaborator for a block did not match the height the caller
	// expected to connect.
	ErrHeightMismatch = ErrorKind("ErrHeightMismatch")

	// ErrKvFailure indicates the underlying key-value store returned an
	// error from a get, batch commit, or iteration.
	ErrKvFailure = ErrorKind("ErrKvFailure")

	// ErrMissingTxo indicates the fee-rate second-order pass could not
	// resolve an input's previous output from the TXO index. This means
	// the index is inconsistent with the chain and is fatal for the
	// current operation.
	ErrMissingTxo = ErrorKind("ErrMissingTxo")

	// ErrDecodeFailure indicates a stored key or value could not be
	// decoded. This represents data corruption and is always fatal.
	ErrDecodeFailure = ErrorKind("ErrDecodeFailure")
)

// Error satisfies the error interface and prints human-readable errors.
func (e ErrorKind) Error() string {
	return string(e)
}

// IndexerError identifies an error related to indexer operation. It has full
// support for errors.Is and errors.As, so the caller can ascertain the
// specific reason for the error by checking the underlying error via
// errors.Is(err, ErrMissingTxo) and so on.
type IndexerError struct {
	Err         error
	Description string
}

// Error satisfies the error interface and prints human-readable errors.
func (e IndexerError) Error() string {
	return e.Description
}

// Unwrap returns the underlying wrapped error.
func (e IndexerError) Unwrap() error {
	return e.Err
}

// indexerError creates an IndexerError given a set of arguments.
func indexerError(kind ErrorKind, desc string) IndexerError {
	return IndexerError{Err: kind, Description: desc}
}

// indexerErrorf creates an IndexerError given a kind and a format string.
func indexerErrorf(kind ErrorKind, format string, args ...interface{}) IndexerError {
	return IndexerError{Err: kind, Description: fmt.Sprintf(format, args...)}
}
