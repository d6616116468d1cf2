/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package streamcontrol

import (
	"sort"

	"github.com/danthegoodman1/automq/pkg/timeline"
	t "github.com/danthegoodman1/automq/pkg/types"
)

// RangeMetadata describes one contiguous offset window of a stream, written
// under a single (epoch, broker) ownership. Only the range at the stream's
// current range index may have its EndOffset advanced; all others are
// frozen until a trim removes them.
type RangeMetadata struct {
	RangeIndex  t.RangeIndex
	Epoch       t.Epoch
	BrokerId    t.BrokerID
	StartOffset t.Offset
	EndOffset   t.Offset
}

// StreamMetadata is the authoritative per-stream state. All fields live in
// versioned collections so snapshots taken at a metadata-log offset can be
// reverted to.
type StreamMetadata struct {
	streamID          t.StreamID
	currentEpoch      *timeline.Value[t.Epoch]
	currentRangeIndex *timeline.Value[t.RangeIndex]
	startOffset       *timeline.Value[t.Offset]
	ranges            *timeline.Map[t.RangeIndex, RangeMetadata]
}

func newStreamMetadata(registry *timeline.Registry, streamID t.StreamID) *StreamMetadata {
	return &StreamMetadata{
		streamID:          streamID,
		currentEpoch:      timeline.NewValue[t.Epoch](registry, 0),
		currentRangeIndex: timeline.NewValue[t.RangeIndex](registry, -1),
		startOffset:       timeline.NewValue[t.Offset](registry, 0),
		ranges:            timeline.NewMap[t.RangeIndex, RangeMetadata](registry),
	}
}

// StreamID returns the stream's identifier.
func (s *StreamMetadata) StreamID() t.StreamID {
	return s.streamID
}

// CurrentEpoch returns the epoch of the most recent successful open, or 0
// if the stream has never been opened.
func (s *StreamMetadata) CurrentEpoch() t.Epoch {
	return s.currentEpoch.Get()
}

// CurrentRangeIndex returns the index of the currently writable range, or
// -1 if the stream has never been opened.
func (s *StreamMetadata) CurrentRangeIndex() t.RangeIndex {
	return s.currentRangeIndex.Get()
}

// StartOffset returns the inclusive lower bound of data still retained.
func (s *StreamMetadata) StartOffset() t.Offset {
	return s.startOffset.Get()
}

// Range returns the range at the given index, if present.
func (s *StreamMetadata) Range(index t.RangeIndex) (RangeMetadata, bool) {
	return s.ranges.Get(index)
}

// RangeCount returns the number of live ranges.
func (s *StreamMetadata) RangeCount() int {
	return s.ranges.Len()
}

// Ranges returns the live ranges in ascending index order.
func (s *StreamMetadata) Ranges() []RangeMetadata {
	ranges := make([]RangeMetadata, 0, s.ranges.Len())
	s.ranges.Range(func(_ t.RangeIndex, r RangeMetadata) bool {
		ranges = append(ranges, r)
		return true
	})
	sort.Slice(ranges, func(i, j int) bool {
		return ranges[i].RangeIndex < ranges[j].RangeIndex
	})
	return ranges
}

// currentRange returns the writable range, if the stream has been opened.
func (s *StreamMetadata) currentRange() (RangeMetadata, bool) {
	index := s.currentRangeIndex.Get()
	if index < 0 {
		return RangeMetadata{}, false
	}
	return s.ranges.Get(index)
}
