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

// WALObjectMetadata records one WAL object committed by a broker.
type WALObjectMetadata struct {
	ObjectID     t.ObjectID
	ObjectSize   int64
	StreamRanges []ObjectStreamRange

	// order is the broker-local commit sequence, assigned during replay.
	order int64
}

// BrokerMetadata is the per-broker index of committed WAL objects. It is
// created lazily the first time a broker's commit is replayed.
type BrokerMetadata struct {
	brokerID   t.BrokerID
	walObjects *timeline.Map[t.ObjectID, WALObjectMetadata]
	nextOrder  *timeline.Value[int64]
}

func newBrokerMetadata(registry *timeline.Registry, brokerID t.BrokerID) *BrokerMetadata {
	return &BrokerMetadata{
		brokerID:   brokerID,
		walObjects: timeline.NewMap[t.ObjectID, WALObjectMetadata](registry),
		nextOrder:  timeline.NewValue[int64](registry, 0),
	}
}

// BrokerID returns the broker's identifier.
func (b *BrokerMetadata) BrokerID() t.BrokerID {
	return b.brokerID
}

// WALObjectCount returns the number of WAL objects the broker has committed.
func (b *BrokerMetadata) WALObjectCount() int {
	return b.walObjects.Len()
}

// WALObject returns the metadata of one committed object, if present.
func (b *BrokerMetadata) WALObject(objectID t.ObjectID) (WALObjectMetadata, bool) {
	return b.walObjects.Get(objectID)
}

// WALObjects returns the broker's committed objects in commit order.
func (b *BrokerMetadata) WALObjects() []WALObjectMetadata {
	objects := make([]WALObjectMetadata, 0, b.walObjects.Len())
	b.walObjects.Range(func(_ t.ObjectID, o WALObjectMetadata) bool {
		objects = append(objects, o)
		return true
	})
	sort.Slice(objects, func(i, j int) bool {
		return objects[i].order < objects[j].order
	})
	return objects
}

// addWALObject registers a committed object, preserving the original commit
// order if the object is already present.
func (b *BrokerMetadata) addWALObject(object WALObjectMetadata) {
	if existing, ok := b.walObjects.Get(object.ObjectID); ok {
		object.order = existing.order
		b.walObjects.Put(object.ObjectID, object)
		return
	}
	object.order = b.nextOrder.Get()
	b.nextOrder.Set(object.order + 1)
	b.walObjects.Put(object.ObjectID, object)
}
