/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package types

// ================================================================================

// StreamID identifies a logical append-only stream. IDs are densely allocated
// from a monotonic counter starting at 0.
type StreamID int64

// Pb converts a StreamID to its underlying native type.
func (sid StreamID) Pb() int64 {
	return int64(sid)
}

// ================================================================================

// BrokerID identifies the broker that owns writing to a stream at an epoch.
type BrokerID int32

// Pb converts a BrokerID to its underlying native type.
func (bid BrokerID) Pb() int32 {
	return int32(bid)
}

// ================================================================================

// Epoch is the monotonically non-decreasing ownership token of a stream.
// It is chosen by the broker; the controller only arbitrates.
type Epoch int64

// Pb converts an Epoch to its underlying native type.
func (e Epoch) Pb() int64 {
	return int64(e)
}

// ================================================================================

// RangeIndex is the stream-local index of an offset range. -1 denotes that a
// freshly created stream has no range yet.
type RangeIndex int32

// Pb converts a RangeIndex to its underlying native type.
func (ri RangeIndex) Pb() int32 {
	return int32(ri)
}

// ================================================================================

// Offset indexes logical data within a stream. Offsets are contiguous across
// the ranges of a stream.
type Offset int64

// Pb converts an Offset to its underlying native type.
func (o Offset) Pb() int64 {
	return int64(o)
}

// ================================================================================

// ObjectID identifies an immutable WAL object in the shared object store.
type ObjectID int64

// Pb converts an ObjectID to its underlying native type.
func (oid ObjectID) Pb() int64 {
	return int64(oid)
}

// ================================================================================

// LogOffset is the offset of an entry in the replicated metadata log.
// In-memory snapshots are versioned against it.
type LogOffset uint64

// Pb converts a LogOffset to its underlying native type.
func (lo LogOffset) Pb() uint64 {
	return uint64(lo)
}
