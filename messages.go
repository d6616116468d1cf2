/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package streamcontrol

import (
	t "github.com/danthegoodman1/automq/pkg/types"
)

// Request and response envelopes for the operations the controller exposes.
// Encoding and transport of these messages is the RPC layer's concern; the
// manager only consumes and produces the structs.

type CreateStreamRequest struct {
}

type CreateStreamResponse struct {
	ErrorCode ErrorCode
	StreamId  t.StreamID
}

type OpenStreamRequest struct {
	StreamId    t.StreamID
	StreamEpoch t.Epoch
	BrokerId    t.BrokerID
}

type OpenStreamResponse struct {
	ErrorCode ErrorCode

	// StartOffset is the inclusive lower bound of data still retained.
	StartOffset t.Offset

	// NextOffset is where the opener will write next, i.e. the end offset
	// of the range it now owns.
	NextOffset t.Offset
}

type CommitWALObjectRequest struct {
	ObjectId           t.ObjectID
	BrokerId           t.BrokerID
	ObjectSize         int64
	ObjectStreamRanges []ObjectStreamRange
}

type CommitWALObjectResponse struct {
	ErrorCode ErrorCode

	// FailedStreamIds lists the streams whose ranges were soft-rejected.
	// The commit as a whole still succeeds for the remaining streams.
	FailedStreamIds []t.StreamID
}

type TrimStreamRequest struct {
	StreamId       t.StreamID
	StreamEpoch    t.Epoch
	BrokerId       t.BrokerID
	NewStartOffset t.Offset
}

type TrimStreamResponse struct {
	ErrorCode ErrorCode
}

type DeleteStreamRequest struct {
	StreamId    t.StreamID
	StreamEpoch t.Epoch
	BrokerId    t.BrokerID
}

type DeleteStreamResponse struct {
	ErrorCode ErrorCode
}
