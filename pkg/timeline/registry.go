/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package timeline provides a snapshot registry and versioned collections.
//
// Every collection registered with a Registry records, for each live
// snapshot, enough undo information to restore the collection to the state
// it had when the snapshot was created. The controller creates a snapshot
// after applying the records at a metadata-log offset; if the log later
// truncates past that offset, the in-memory state is reverted rather than
// rebuilt from scratch.
//
// The registry and its collections are not safe for concurrent use. They
// are only ever touched from the single-threaded controller loop.
package timeline

import (
	"fmt"

	t "github.com/danthegoodman1/automq/pkg/types"
)

// reversible is implemented by every versioned collection.
type reversible interface {
	// revert applies and discards the undo data recorded for the snapshot
	// at the given offset.
	revert(offset t.LogOffset)

	// forget discards the undo data recorded for the snapshot at the given
	// offset without applying it.
	forget(offset t.LogOffset)
}

// Registry tracks the set of live snapshots and the collections versioned
// against them.
type Registry struct {
	// Live snapshot offsets in ascending order.
	offsets []t.LogOffset

	collections []reversible
}

func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) register(c reversible) {
	r.collections = append(r.collections, c)
}

// latest returns the most recent snapshot offset, if any snapshot is live.
// Mutations to a collection are recorded against this snapshot.
func (r *Registry) latest() (t.LogOffset, bool) {
	if len(r.offsets) == 0 {
		return 0, false
	}
	return r.offsets[len(r.offsets)-1], true
}

// LatestOffset returns the most recent live snapshot offset.
// The second return value is false if no snapshot is live.
func (r *Registry) LatestOffset() (t.LogOffset, bool) {
	return r.latest()
}

// IdempotentCreateSnapshot creates a snapshot at the given metadata-log
// offset. Re-creating the latest snapshot is a no-op. Creating a snapshot
// below the latest one is a programmer error.
func (r *Registry) IdempotentCreateSnapshot(offset t.LogOffset) {
	if latest, ok := r.latest(); ok {
		if latest == offset {
			return
		}
		if offset < latest {
			panic(fmt.Sprintf("cannot create snapshot at offset %d, latest snapshot is already at %d", offset, latest))
		}
	}
	r.offsets = append(r.offsets, offset)
}

// RevertToSnapshot restores every registered collection to the state it had
// when the snapshot at the given offset was created. All newer snapshots are
// discarded; the target snapshot remains live (with empty undo data) and
// becomes the latest. Reverting to an unknown offset is a programmer error.
func (r *Registry) RevertToSnapshot(offset t.LogOffset) {
	idx := -1
	for i, o := range r.offsets {
		if o == offset {
			idx = i
			break
		}
	}
	if idx == -1 {
		panic(fmt.Sprintf("cannot revert to unknown snapshot offset %d", offset))
	}

	for i := len(r.offsets) - 1; i >= idx; i-- {
		for _, c := range r.collections {
			c.revert(r.offsets[i])
		}
	}
	r.offsets = r.offsets[:idx+1]
}

// DeleteSnapshotsUpTo discards every snapshot strictly below the given
// watermark. The state they would revert to can no longer be reached.
func (r *Registry) DeleteSnapshotsUpTo(watermark t.LogOffset) {
	keep := 0
	for _, o := range r.offsets {
		if o < watermark {
			for _, c := range r.collections {
				c.forget(o)
			}
			continue
		}
		r.offsets[keep] = o
		keep++
	}
	r.offsets = r.offsets[:keep]
}

// SnapshotCount returns the number of live snapshots.
func (r *Registry) SnapshotCount() int {
	return len(r.offsets)
}

// Offsets returns the live snapshot offsets in ascending order.
func (r *Registry) Offsets() []t.LogOffset {
	offsets := make([]t.LogOffset, len(r.offsets))
	copy(offsets, r.offsets)
	return offsets
}
