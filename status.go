/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package streamcontrol

import (
	"bytes"
	"fmt"
	"sort"

	t "github.com/danthegoodman1/automq/pkg/types"
)

// Status is a point-in-time description of the manager's state, suitable
// for debugging and for comparing a live manager against one rebuilt from
// the metadata log.
type Status struct {
	NextAssignedStreamId int64           `json:"next_assigned_stream_id"`
	Streams              []*StreamStatus `json:"streams"`
	Brokers              []*BrokerStatus `json:"brokers"`
}

type StreamStatus struct {
	StreamId          int64         `json:"stream_id"`
	CurrentEpoch      int64         `json:"current_epoch"`
	CurrentRangeIndex int32         `json:"current_range_index"`
	StartOffset       int64         `json:"start_offset"`
	Ranges            []RangeStatus `json:"ranges"`
}

type RangeStatus struct {
	RangeIndex  int32 `json:"range_index"`
	Epoch       int64 `json:"epoch"`
	BrokerId    int32 `json:"broker_id"`
	StartOffset int64 `json:"start_offset"`
	EndOffset   int64 `json:"end_offset"`
}

type BrokerStatus struct {
	BrokerId   int32   `json:"broker_id"`
	WALObjects []int64 `json:"wal_objects"`
}

// Status captures the manager's current state.
func (m *StreamControlManager) Status() *Status {
	status := &Status{
		NextAssignedStreamId: m.nextAssignedStreamID.Get().Pb(),
	}

	m.streams.Range(func(streamID t.StreamID, stream *StreamMetadata) bool {
		streamStatus := &StreamStatus{
			StreamId:          streamID.Pb(),
			CurrentEpoch:      stream.CurrentEpoch().Pb(),
			CurrentRangeIndex: stream.CurrentRangeIndex().Pb(),
			StartOffset:       stream.StartOffset().Pb(),
		}
		for _, r := range stream.Ranges() {
			streamStatus.Ranges = append(streamStatus.Ranges, RangeStatus{
				RangeIndex:  r.RangeIndex.Pb(),
				Epoch:       r.Epoch.Pb(),
				BrokerId:    r.BrokerId.Pb(),
				StartOffset: r.StartOffset.Pb(),
				EndOffset:   r.EndOffset.Pb(),
			})
		}
		status.Streams = append(status.Streams, streamStatus)
		return true
	})
	sort.Slice(status.Streams, func(i, j int) bool {
		return status.Streams[i].StreamId < status.Streams[j].StreamId
	})

	m.brokers.Range(func(brokerID t.BrokerID, broker *BrokerMetadata) bool {
		brokerStatus := &BrokerStatus{
			BrokerId: brokerID.Pb(),
		}
		for _, object := range broker.WALObjects() {
			brokerStatus.WALObjects = append(brokerStatus.WALObjects, object.ObjectID.Pb())
		}
		status.Brokers = append(status.Brokers, brokerStatus)
		return true
	})
	sort.Slice(status.Brokers, func(i, j int) bool {
		return status.Brokers[i].BrokerId < status.Brokers[j].BrokerId
	})

	return status
}

func (s *Status) Pretty() string {
	var buffer bytes.Buffer
	buffer.WriteString("===========================================\n")
	buffer.WriteString(fmt.Sprintf("NextAssignedStreamId=%d, Streams=%d, Brokers=%d\n",
		s.NextAssignedStreamId, len(s.Streams), len(s.Brokers)))
	buffer.WriteString("===========================================\n")

	for _, stream := range s.Streams {
		buffer.WriteString(fmt.Sprintf("Stream %d: epoch=%d rangeIndex=%d startOffset=%d\n",
			stream.StreamId, stream.CurrentEpoch, stream.CurrentRangeIndex, stream.StartOffset))
		for _, r := range stream.Ranges {
			buffer.WriteString(fmt.Sprintf("  Range %d: epoch=%d broker=%d [%d, %d)\n",
				r.RangeIndex, r.Epoch, r.BrokerId, r.StartOffset, r.EndOffset))
		}
	}
	for _, broker := range s.Brokers {
		buffer.WriteString(fmt.Sprintf("Broker %d: walObjects=%v\n", broker.BrokerId, broker.WALObjects))
	}
	return buffer.String()
}
