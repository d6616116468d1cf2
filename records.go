/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package streamcontrol

import (
	t "github.com/danthegoodman1/automq/pkg/types"
)

// Record is one entry of the replicated metadata log. The union is sealed:
// every variant lives in this file, and the replay dispatcher matches
// exhaustively so that adding a variant without handling it is caught
// immediately.
//
// Record names mirror the metadata log's record taxonomy and must not be
// renamed.
type Record interface {
	isRecord()
}

// AssignedStreamIdRecord advances the dense stream ID allocator.
// AssignedStreamId is the next ID to hand out, i.e. one past the ID the
// producing operation consumed.
type AssignedStreamIdRecord struct {
	AssignedStreamId t.StreamID
}

// S3StreamRecord creates a stream or updates its epoch, current range index
// and retained start offset.
type S3StreamRecord struct {
	StreamId    t.StreamID
	Epoch       t.Epoch
	RangeIndex  t.RangeIndex
	StartOffset t.Offset
}

// RemoveS3StreamRecord deletes a stream and all of its ranges. The ID
// allocator is not rewound.
type RemoveS3StreamRecord struct {
	StreamId t.StreamID
}

// RangeRecord creates or updates one offset range of a stream.
type RangeRecord struct {
	StreamId    t.StreamID
	RangeIndex  t.RangeIndex
	Epoch       t.Epoch
	BrokerId    t.BrokerID
	StartOffset t.Offset
	EndOffset   t.Offset
}

// RemoveRangeRecord deletes one offset range of a stream. Emitted when a
// trim retires ranges that fell entirely below the stream's start offset.
type RemoveRangeRecord struct {
	StreamId   t.StreamID
	RangeIndex t.RangeIndex
}

// BrokerWALMetadataRecord creates the per-broker WAL object container.
type BrokerWALMetadataRecord struct {
	BrokerId t.BrokerID
}

// WALObjectRecord registers a committed WAL object with its broker and
// advances the current range of every stream the object covers.
type WALObjectRecord struct {
	ObjectId     t.ObjectID
	BrokerId     t.BrokerID
	ObjectSize   int64
	StreamRanges []ObjectStreamRange
}

// ObjectStreamRange is the portion of one stream carried by a WAL object:
// a contiguous offset window written at a specific epoch.
type ObjectStreamRange struct {
	StreamId    t.StreamID
	StreamEpoch t.Epoch
	StartOffset t.Offset
	EndOffset   t.Offset
}

func (*AssignedStreamIdRecord) isRecord()  {}
func (*S3StreamRecord) isRecord()          {}
func (*RemoveS3StreamRecord) isRecord()    {}
func (*RangeRecord) isRecord()             {}
func (*RemoveRangeRecord) isRecord()       {}
func (*BrokerWALMetadataRecord) isRecord() {}
func (*WALObjectRecord) isRecord()         {}
