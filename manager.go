/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package streamcontrol

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/danthegoodman1/automq/pkg/timeline"
	t "github.com/danthegoodman1/automq/pkg/types"
)

// StreamControlManager owns the authoritative metadata for the stream
// abstraction: per-stream ownership epochs, offset ranges, and the
// per-broker index of committed WAL objects.
//
// Operations never mutate state. Each computes a response plus the ordered
// records to append to the metadata log and returns both as a
// ControllerResult; state changes only when the records are fed back
// through Replay. The manager is driven from a single-threaded controller
// loop and is not safe for concurrent use.
type StreamControlManager struct {
	logger Logger

	snapshotRegistry *timeline.Registry

	objectControl ObjectController

	// The dense stream ID allocator. Advanced only via replay of
	// AssignedStreamIdRecords so followers stay in sync.
	nextAssignedStreamID *timeline.Value[t.StreamID]

	streams *timeline.Map[t.StreamID, *StreamMetadata]
	brokers *timeline.Map[t.BrokerID, *BrokerMetadata]
}

func NewStreamControlManager(
	snapshotRegistry *timeline.Registry,
	logger Logger,
	objectControl ObjectController,
) *StreamControlManager {
	if logger == nil {
		logger = NilLogger
	}
	return &StreamControlManager{
		logger:               logger,
		snapshotRegistry:     snapshotRegistry,
		objectControl:        objectControl,
		nextAssignedStreamID: timeline.NewValue[t.StreamID](snapshotRegistry, 0),
		streams:              timeline.NewMap[t.StreamID, *StreamMetadata](snapshotRegistry),
		brokers:              timeline.NewMap[t.BrokerID, *BrokerMetadata](snapshotRegistry),
	}
}

// CreateStream allocates the next stream ID. It cannot fail.
func (m *StreamControlManager) CreateStream(req *CreateStreamRequest) *ControllerResult[*CreateStreamResponse] {
	streamID := m.nextAssignedStreamID.Get()
	resp := &CreateStreamResponse{
		ErrorCode: ErrorNone,
		StreamId:  streamID,
	}
	return controllerResultOf(resp,
		&AssignedStreamIdRecord{AssignedStreamId: streamID + 1},
		&S3StreamRecord{
			StreamId:    streamID,
			Epoch:       0,
			RangeIndex:  -1,
			StartOffset: 0,
		},
	)
}

// OpenStream grants the requesting broker write ownership of the stream at
// the requested epoch. A reopen at the current epoch by the current owner
// is an idempotent lookup producing zero records; a higher epoch opens a
// new range and fences the previous owner.
func (m *StreamControlManager) OpenStream(req *OpenStreamRequest) *ControllerResult[*OpenStreamResponse] {
	resp := &OpenStreamResponse{}
	stream, ok := m.streams.Get(req.StreamId)
	if !ok {
		resp.ErrorCode = ErrorStreamNotExist
		return controllerResultOf(resp)
	}

	currentEpoch := stream.CurrentEpoch()
	if req.StreamEpoch < currentEpoch {
		m.logger.Debug("open fenced by newer epoch",
			zap.Int64("streamId", req.StreamId.Pb()),
			zap.Int64("streamEpoch", req.StreamEpoch.Pb()),
			zap.Int64("currentEpoch", currentEpoch.Pb()))
		resp.ErrorCode = ErrorStreamFenced
		return controllerResultOf(resp)
	}

	if req.StreamEpoch == currentEpoch {
		if current, opened := stream.currentRange(); opened {
			if current.BrokerId != req.BrokerId {
				m.logger.Debug("open fenced by current owner",
					zap.Int64("streamId", req.StreamId.Pb()),
					zap.Int32("brokerId", req.BrokerId.Pb()),
					zap.Int32("ownerBrokerId", current.BrokerId.Pb()))
				resp.ErrorCode = ErrorStreamFenced
				return controllerResultOf(resp)
			}
			// Reopen by the current owner at the current epoch is a pure
			// lookup.
			resp.StartOffset = stream.StartOffset()
			resp.NextOffset = current.EndOffset
			return controllerResultOf(resp)
		}
		// currentRangeIndex == -1: first-time open on a freshly created
		// stream, handled below.
	}

	newRangeIndex := stream.CurrentRangeIndex() + 1
	nextOffset := t.Offset(0)
	if previous, opened := stream.currentRange(); opened {
		nextOffset = previous.EndOffset
	}

	resp.StartOffset = stream.StartOffset()
	resp.NextOffset = nextOffset
	return controllerResultOf(resp,
		&S3StreamRecord{
			StreamId:    req.StreamId,
			Epoch:       req.StreamEpoch,
			RangeIndex:  newRangeIndex,
			StartOffset: stream.StartOffset(),
		},
		&RangeRecord{
			StreamId:    req.StreamId,
			RangeIndex:  newRangeIndex,
			Epoch:       req.StreamEpoch,
			BrokerId:    req.BrokerId,
			StartOffset: nextOffset,
			EndOffset:   nextOffset,
		},
	)
}

// CommitWALObject registers a WAL object spanning one or more streams. The
// commit is per-stream atomic but cross-stream best-effort: ranges that
// fail validation are soft-rejected into FailedStreamIds while the rest
// commit, so a broker fenced on one stream can still durably record the
// others carried by the same object.
func (m *StreamControlManager) CommitWALObject(req *CommitWALObjectRequest) *ControllerResult[*CommitWALObjectResponse] {
	resp := &CommitWALObjectResponse{}

	objectRecords, existed, err := m.objectControl.CommitObject(req.ObjectId.Pb(), req.ObjectSize)
	if err != nil {
		m.logger.Warn("WAL object commit rejected by object controller",
			zap.Int64("objectId", req.ObjectId.Pb()),
			zap.Error(err))
		resp.ErrorCode = ErrorObjectNotExist
		return controllerResultOf(resp)
	}

	var surviving []ObjectStreamRange
	for _, streamRange := range req.ObjectStreamRanges {
		if reason := m.validateStreamRange(req.BrokerId, streamRange); reason != "" {
			m.logger.Debug("WAL commit stream range rejected",
				zap.Int64("streamId", streamRange.StreamId.Pb()),
				zap.Int32("brokerId", req.BrokerId.Pb()),
				zap.String("reason", reason))
			resp.FailedStreamIds = append(resp.FailedStreamIds, streamRange.StreamId)
			continue
		}
		surviving = append(surviving, streamRange)
	}

	result := controllerResultOf(resp)
	if len(surviving) == 0 {
		return result
	}

	if _, ok := m.brokers.Get(req.BrokerId); !ok {
		result.Records = append(result.Records, &BrokerWALMetadataRecord{BrokerId: req.BrokerId})
	}
	if !existed {
		result.Records = append(result.Records, &WALObjectRecord{
			ObjectId:     req.ObjectId,
			BrokerId:     req.BrokerId,
			ObjectSize:   req.ObjectSize,
			StreamRanges: surviving,
		})
	}
	return result.concat(objectRecords)
}

// validateStreamRange checks a submitted range against the stream's current
// ownership and offsets. It returns an empty string if the range may
// commit, or the rejection reason.
func (m *StreamControlManager) validateStreamRange(brokerID t.BrokerID, streamRange ObjectStreamRange) string {
	stream, ok := m.streams.Get(streamRange.StreamId)
	if !ok {
		return "stream does not exist"
	}
	current, opened := stream.currentRange()
	if !opened {
		return "stream has never been opened"
	}
	if streamRange.StreamEpoch != stream.CurrentEpoch() {
		return "stream epoch mismatch"
	}
	if current.BrokerId != brokerID {
		return "broker does not own the current range"
	}
	if streamRange.StartOffset != current.EndOffset {
		return "start offset is not contiguous with the committed end"
	}
	if streamRange.EndOffset <= streamRange.StartOffset {
		return "range is empty or inverted"
	}
	return ""
}

// TrimStream advances a stream's start offset, retiring every range that
// falls entirely below the new bound. Trimming to an offset at or below
// the current start offset is an idempotent no-op.
func (m *StreamControlManager) TrimStream(req *TrimStreamRequest) *ControllerResult[*TrimStreamResponse] {
	resp := &TrimStreamResponse{}
	stream, ok := m.streams.Get(req.StreamId)
	if !ok {
		resp.ErrorCode = ErrorStreamNotExist
		return controllerResultOf(resp)
	}
	current, opened := stream.currentRange()
	if !opened || req.StreamEpoch != stream.CurrentEpoch() || current.BrokerId != req.BrokerId {
		resp.ErrorCode = ErrorStreamFenced
		return controllerResultOf(resp)
	}
	if req.NewStartOffset <= stream.StartOffset() {
		return controllerResultOf(resp)
	}
	if req.NewStartOffset > current.EndOffset {
		m.logger.Warn("trim beyond committed end rejected",
			zap.Int64("streamId", req.StreamId.Pb()),
			zap.Int64("newStartOffset", req.NewStartOffset.Pb()),
			zap.Int64("endOffset", current.EndOffset.Pb()))
		resp.ErrorCode = ErrorStreamInnerError
		return controllerResultOf(resp)
	}

	result := controllerResultOf(resp, &S3StreamRecord{
		StreamId:    req.StreamId,
		Epoch:       stream.CurrentEpoch(),
		RangeIndex:  stream.CurrentRangeIndex(),
		StartOffset: req.NewStartOffset,
	})
	var retired []t.RangeIndex
	stream.ranges.Range(func(index t.RangeIndex, r RangeMetadata) bool {
		if index != stream.CurrentRangeIndex() && r.EndOffset <= req.NewStartOffset {
			retired = append(retired, index)
		}
		return true
	})
	sort.Slice(retired, func(i, j int) bool { return retired[i] < retired[j] })
	for _, index := range retired {
		result.Records = append(result.Records, &RemoveRangeRecord{
			StreamId:   req.StreamId,
			RangeIndex: index,
		})
	}
	return result
}

// DeleteStream destroys a stream's metadata. The requesting broker must
// hold the current epoch (or a newer one); the ID allocator is not rewound.
func (m *StreamControlManager) DeleteStream(req *DeleteStreamRequest) *ControllerResult[*DeleteStreamResponse] {
	resp := &DeleteStreamResponse{}
	stream, ok := m.streams.Get(req.StreamId)
	if !ok {
		resp.ErrorCode = ErrorStreamNotExist
		return controllerResultOf(resp)
	}
	if req.StreamEpoch < stream.CurrentEpoch() {
		resp.ErrorCode = ErrorStreamFenced
		return controllerResultOf(resp)
	}
	if current, opened := stream.currentRange(); opened {
		if req.StreamEpoch == stream.CurrentEpoch() && current.BrokerId != req.BrokerId {
			resp.ErrorCode = ErrorStreamFenced
			return controllerResultOf(resp)
		}
	}
	return controllerResultOf(resp, &RemoveS3StreamRecord{StreamId: req.StreamId})
}

// Replay applies one metadata record to the in-memory state. It is the
// sole mutator: the same record sequence applied in order on any
// controller yields identical state. A record that cannot be applied means
// a bug or log corruption, and the controller must not paper over either.
func (m *StreamControlManager) Replay(record Record) {
	switch r := record.(type) {
	case *AssignedStreamIdRecord:
		m.applyAssignedStreamId(r)
	case *S3StreamRecord:
		m.applyS3Stream(r)
	case *RemoveS3StreamRecord:
		m.applyRemoveS3Stream(r)
	case *RangeRecord:
		m.applyRange(r)
	case *RemoveRangeRecord:
		m.applyRemoveRange(r)
	case *BrokerWALMetadataRecord:
		m.applyBrokerWALMetadata(r)
	case *WALObjectRecord:
		m.applyWALObject(r)
	default:
		panic(fmt.Sprintf("unsupported metadata record type '%T'", record))
	}
}

func (m *StreamControlManager) applyAssignedStreamId(r *AssignedStreamIdRecord) {
	m.nextAssignedStreamID.Set(r.AssignedStreamId)
}

func (m *StreamControlManager) applyS3Stream(r *S3StreamRecord) {
	stream, ok := m.streams.Get(r.StreamId)
	if !ok {
		stream = newStreamMetadata(m.snapshotRegistry, r.StreamId)
		m.streams.Put(r.StreamId, stream)
	}
	stream.currentEpoch.Set(r.Epoch)
	stream.currentRangeIndex.Set(r.RangeIndex)
	stream.startOffset.Set(r.StartOffset)
}

func (m *StreamControlManager) applyRemoveS3Stream(r *RemoveS3StreamRecord) {
	if _, ok := m.streams.Get(r.StreamId); !ok {
		panic(fmt.Sprintf("RemoveS3StreamRecord for unknown stream %d", r.StreamId))
	}
	m.streams.Delete(r.StreamId)
}

func (m *StreamControlManager) applyRange(r *RangeRecord) {
	stream, ok := m.streams.Get(r.StreamId)
	if !ok {
		panic(fmt.Sprintf("RangeRecord for unknown stream %d", r.StreamId))
	}
	stream.ranges.Put(r.RangeIndex, RangeMetadata{
		RangeIndex:  r.RangeIndex,
		Epoch:       r.Epoch,
		BrokerId:    r.BrokerId,
		StartOffset: r.StartOffset,
		EndOffset:   r.EndOffset,
	})
}

func (m *StreamControlManager) applyRemoveRange(r *RemoveRangeRecord) {
	stream, ok := m.streams.Get(r.StreamId)
	if !ok {
		panic(fmt.Sprintf("RemoveRangeRecord for unknown stream %d", r.StreamId))
	}
	stream.ranges.Delete(r.RangeIndex)
}

func (m *StreamControlManager) applyBrokerWALMetadata(r *BrokerWALMetadataRecord) {
	if _, ok := m.brokers.Get(r.BrokerId); ok {
		return
	}
	m.brokers.Put(r.BrokerId, newBrokerMetadata(m.snapshotRegistry, r.BrokerId))
}

func (m *StreamControlManager) applyWALObject(r *WALObjectRecord) {
	broker, ok := m.brokers.Get(r.BrokerId)
	if !ok {
		broker = newBrokerMetadata(m.snapshotRegistry, r.BrokerId)
		m.brokers.Put(r.BrokerId, broker)
	}
	broker.addWALObject(WALObjectMetadata{
		ObjectID:     r.ObjectId,
		ObjectSize:   r.ObjectSize,
		StreamRanges: r.StreamRanges,
	})

	for _, streamRange := range r.StreamRanges {
		stream, ok := m.streams.Get(streamRange.StreamId)
		if !ok {
			panic(fmt.Sprintf("WALObjectRecord for unknown stream %d", streamRange.StreamId))
		}
		index := stream.CurrentRangeIndex()
		current, ok := stream.ranges.Get(index)
		if !ok {
			panic(fmt.Sprintf("WALObjectRecord for stream %d with no current range", streamRange.StreamId))
		}
		current.EndOffset = streamRange.EndOffset
		stream.ranges.Put(index, current)
	}
}

// NextAssignedStreamID returns the ID the next CreateStream will assign.
func (m *StreamControlManager) NextAssignedStreamID() t.StreamID {
	return m.nextAssignedStreamID.Get()
}

// Stream returns the metadata of one live stream, if present.
func (m *StreamControlManager) Stream(streamID t.StreamID) (*StreamMetadata, bool) {
	return m.streams.Get(streamID)
}

// StreamCount returns the number of live streams.
func (m *StreamControlManager) StreamCount() int {
	return m.streams.Len()
}

// Broker returns the WAL object index of one broker, if present.
func (m *StreamControlManager) Broker(brokerID t.BrokerID) (*BrokerMetadata, bool) {
	return m.brokers.Get(brokerID)
}

// BrokerCount returns the number of brokers that have ever committed.
func (m *StreamControlManager) BrokerCount() int {
	return m.brokers.Len()
}
