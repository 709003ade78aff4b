// Copyright (c) 2025 The Monetarium developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package indexcore

import (
	"encoding/binary"
	"fmt"

	"github.com/decred/dcrd/chaincfg/chainhash"
)

// byteOrder is the fixed-width integer byte order used throughout every
// encoded key and value. Big-endian is required, not a style choice: it is
// the property that makes lexicographic byte order on the encoded key agree
// with numeric order on the integer it encodes, which every range scan in
// the query layer depends on.
var byteOrder = binary.BigEndian

// Index tags. Each is a single byte so that all keys belonging to one index
// occupy a contiguous, non-overlapping range of the flat keyspace the KV
// abstraction exposes, regardless of what other indexes are interleaved in
// storage.
const (
	tagTip    byte = 0x01
	tagTx     byte = 0x02
	tagTxo    byte = 0x03
	tagScript byte = 0x04
	tagSpent  byte = 0x05
	tagFee    byte = 0x06
	tagLabel  byte = 0x07
)

const (
	hashSize    = chainhash.HashSize // 32
	scriptIDLen = 20
)

// tipKey is the singleton key of the Tip entity.
func tipKey() []byte {
	return []byte{tagTip}
}

// tipValue encodes the {blockId, height} tuple stored at the Tip key.
type tipValue struct {
	blockID chainhash.Hash
	height  uint32
}

func encodeTipValue(v tipValue) []byte {
	buf := make([]byte, hashSize+4)
	copy(buf[:hashSize], v.blockID[:])
	byteOrder.PutUint32(buf[hashSize:], v.height)
	return buf
}

func decodeTipValue(data []byte) (tipValue, error) {
	if len(data) != hashSize+4 {
		return tipValue{}, indexerErrorf(ErrDecodeFailure,
			"tip value has invalid length %d (want %d)", len(data), hashSize+4)
	}
	var v tipValue
	copy(v.blockID[:], data[:hashSize])
	v.height = byteOrder.Uint32(data[hashSize:])
	return v, nil
}

// txKey encodes the TxIndex key for a transaction id.
func txKey(txID chainhash.Hash) []byte {
	key := make([]byte, 1+hashSize)
	key[0] = tagTx
	copy(key[1:], txID[:])
	return key
}

func encodeTxValue(height uint32) []byte {
	buf := make([]byte, 4)
	byteOrder.PutUint32(buf, height)
	return buf
}

func decodeTxValue(data []byte) (uint32, error) {
	if len(data) != 4 {
		return 0, indexerErrorf(ErrDecodeFailure,
			"tx index value has invalid length %d (want 4)", len(data))
	}
	return byteOrder.Uint32(data), nil
}

// txoKey encodes the TxoIndex key for an outpoint (txId, vout).
func txoKey(txID chainhash.Hash, vout uint32) []byte {
	key := make([]byte, 1+hashSize+4)
	key[0] = tagTxo
	copy(key[1:1+hashSize], txID[:])
	byteOrder.PutUint32(key[1+hashSize:], vout)
	return key
}

type txoValue struct {
	value  uint64
	script []byte
}

func encodeTxoValue(v txoValue) []byte {
	buf := make([]byte, 8+len(v.script))
	byteOrder.PutUint64(buf[:8], v.value)
	copy(buf[8:], v.script)
	return buf
}

func decodeTxoValue(data []byte) (txoValue, error) {
	if len(data) < 8 {
		return txoValue{}, indexerErrorf(ErrDecodeFailure,
			"txo value has invalid length %d (want >= 8)", len(data))
	}
	script := make([]byte, len(data)-8)
	copy(script, data[8:])
	return txoValue{value: byteOrder.Uint64(data[:8]), script: script}, nil
}

// scriptKey encodes the ScriptIndex key (scId, height, txId, vout).
func scriptKey(scID ScriptID, height uint32, txID chainhash.Hash, vout uint32) []byte {
	key := make([]byte, 1+scriptIDLen+4+hashSize+4)
	off := 0
	key[off] = tagScript
	off++
	copy(key[off:], scID[:])
	off += scriptIDLen
	byteOrder.PutUint32(key[off:], height)
	off += 4
	copy(key[off:], txID[:])
	off += hashSize
	byteOrder.PutUint32(key[off:], vout)
	return key
}

// scriptRange returns the [gte, lt) bounds that cover every ScriptIndex key
// belonging to scID at height >= fromHeight.
func scriptRange(scID ScriptID, fromHeight uint32) (gte, lt []byte) {
	var zeroHash chainhash.Hash
	gte = scriptKey(scID, fromHeight, zeroHash, 0)
	var maxHash chainhash.Hash
	for i := range maxHash {
		maxHash[i] = 0xff
	}
	lt = scriptKey(scID, 0xFFFFFFFF, maxHash, 0xFFFFFFFF)
	return gte, lt
}

// decodeScriptKey decodes a ScriptIndex key back into its tuple. The caller
// is expected to have already verified the tag byte.
func decodeScriptKey(key []byte) (scID ScriptID, height uint32, txID chainhash.Hash, vout uint32, err error) {
	const wantLen = 1 + scriptIDLen + 4 + hashSize + 4
	if len(key) != wantLen {
		err = indexerErrorf(ErrDecodeFailure,
			"script index key has invalid length %d (want %d)", len(key), wantLen)
		return
	}
	off := 1
	copy(scID[:], key[off:off+scriptIDLen])
	off += scriptIDLen
	height = byteOrder.Uint32(key[off:])
	off += 4
	copy(txID[:], key[off:off+hashSize])
	off += hashSize
	vout = byteOrder.Uint32(key[off:])
	return
}

// spentKey encodes the SpentIndex key for a consumed outpoint.
func spentKey(prevTxID chainhash.Hash, vout uint32) []byte {
	key := make([]byte, 1+hashSize+4)
	key[0] = tagSpent
	copy(key[1:1+hashSize], prevTxID[:])
	byteOrder.PutUint32(key[1+hashSize:], vout)
	return key
}

type spentValue struct {
	txID chainhash.Hash
	vin  uint32
}

func encodeSpentValue(v spentValue) []byte {
	buf := make([]byte, hashSize+4)
	copy(buf[:hashSize], v.txID[:])
	byteOrder.PutUint32(buf[hashSize:], v.vin)
	return buf
}

func decodeSpentValue(data []byte) (spentValue, error) {
	if len(data) != hashSize+4 {
		return spentValue{}, indexerErrorf(ErrDecodeFailure,
			"spent index value has invalid length %d (want %d)", len(data), hashSize+4)
	}
	var v spentValue
	copy(v.txID[:], data[:hashSize])
	v.vin = byteOrder.Uint32(data[hashSize:])
	return v, nil
}

// feeKey encodes the FeeIndex key for a block height.
func feeKey(height uint32) []byte {
	key := make([]byte, 1+4)
	key[0] = tagFee
	byteOrder.PutUint32(key[1:], height)
	return key
}

func decodeFeeKeyHeight(key []byte) (uint32, error) {
	if len(key) != 5 {
		return 0, indexerErrorf(ErrDecodeFailure,
			"fee index key has invalid length %d (want 5)", len(key))
	}
	return byteOrder.Uint32(key[1:]), nil
}

// boxSummary is the (q1, median, q3) fee-rate summary for a block.
type boxSummary struct {
	q1, median, q3 int64
}

type feeValue struct {
	fees boxSummary
	size uint64
}

func encodeFeeValue(v feeValue) []byte {
	buf := make([]byte, 32)
	byteOrder.PutUint64(buf[0:8], uint64(v.fees.q1))
	byteOrder.PutUint64(buf[8:16], uint64(v.fees.median))
	byteOrder.PutUint64(buf[16:24], uint64(v.fees.q3))
	byteOrder.PutUint64(buf[24:32], v.size)
	return buf
}

func decodeFeeValue(data []byte) (feeValue, error) {
	if len(data) != 32 {
		return feeValue{}, indexerErrorf(ErrDecodeFailure,
			"fee index value has invalid length %d (want 32)", len(data))
	}
	return feeValue{
		fees: boxSummary{
			q1:     int64(byteOrder.Uint64(data[0:8])),
			median: int64(byteOrder.Uint64(data[8:16])),
			q3:     int64(byteOrder.Uint64(data[16:24])),
		},
		size: byteOrder.Uint64(data[24:32]),
	}, nil
}

// labelKey encodes the LabelIndex key (scId, label). label is the only
// variable-width trailing component in the whole codec, which is safe
// precisely because no further component follows it in the tuple.
func labelKey(scID ScriptID, label []byte) []byte {
	key := make([]byte, 1+scriptIDLen+len(label))
	key[0] = tagLabel
	copy(key[1:1+scriptIDLen], scID[:])
	copy(key[1+scriptIDLen:], label)
	return key
}

// labelRange returns the [gte, lt) bounds that cover every label key
// belonging to scID.
func labelRange(scID ScriptID) (gte, lt []byte) {
	gte = labelKey(scID, nil)
	var upper ScriptID
	copy(upper[:], scID[:])
	lt = make([]byte, len(gte))
	copy(lt, gte)
	// Bump the key to the smallest key strictly greater than every key
	// with this scID prefix by incrementing the last scID byte; scId is
	// fixed-width so no label bytes can sort below an empty label, and no
	// scID can wrap past 0xff in practice for a real chain, but guard it
	// anyway by falling back to no upper bound at all.
	incremented := incrementLastByte(lt[1 : 1+scriptIDLen])
	if !incremented {
		return gte, nil // nil lt means "no upper bound"; callers must treat this as +inf.
	}
	lt = lt[:1+scriptIDLen]
	return gte, lt
}

// incrementLastByte increments the big-endian byte string in place,
// carrying as needed. It returns false if the string overflowed (all bytes
// were already 0xff).
func incrementLastByte(b []byte) bool {
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] != 0xff {
			b[i]++
			return true
		}
		b[i] = 0
	}
	return false
}

// extractLabel splits a decoded LabelIndex key back into its label suffix.
func extractLabel(key []byte) ([]byte, error) {
	if len(key) < 1+scriptIDLen {
		return nil, indexerErrorf(ErrDecodeFailure,
			"label index key has invalid length %d (want >= %d)", len(key), 1+scriptIDLen)
	}
	label := make([]byte, len(key)-1-scriptIDLen)
	copy(label, key[1+scriptIDLen:])
	return label, nil
}

// fmtScriptID formats a ScriptID for diagnostic output.
func fmtScriptID(scID ScriptID) string {
	return fmt.Sprintf("%x", scID[:])
}
