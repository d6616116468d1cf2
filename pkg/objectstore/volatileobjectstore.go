/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package objectstore

import (
	streamcontrol "github.com/danthegoodman1/automq"
)

// VolatileStore is an in-memory implementation of the object collaborator.
// All data is stored in RAM and Sync() does nothing. It backs tests and
// single-process deployments.
type VolatileStore struct {

	// Lifecycle state and committed size, indexed by object ID.
	objects map[int64]*objectInfo
}

type objectInfo struct {
	state ObjectState
	size  int64
}

func NewVolatileStore() *VolatileStore {
	return &VolatileStore{
		objects: map[int64]*objectInfo{},
	}
}

// PrepareObject registers an identifier a broker intends to upload.
func (vs *VolatileStore) PrepareObject(objectID int64) error {
	if _, ok := vs.objects[objectID]; ok {
		return nil
	}
	vs.objects[objectID] = &objectInfo{state: StatePrepared}
	return nil
}

// CommitObject transitions a prepared object to committed. The semantics
// match Store.CommitObject.
func (vs *VolatileStore) CommitObject(objectID int64, objectSize int64) ([]streamcontrol.Record, bool, error) {
	info, ok := vs.objects[objectID]
	if !ok {
		return nil, false, streamcontrol.ErrObjectNotExist
	}
	if info.state == StateCommitted {
		return nil, true, nil
	}
	info.state = StateCommitted
	info.size = objectSize
	return nil, false, nil
}

// ObjectState looks up the state and committed size of an identifier.
func (vs *VolatileStore) ObjectState(objectID int64) (ObjectState, int64, error) {
	info, ok := vs.objects[objectID]
	if !ok {
		return 0, 0, streamcontrol.ErrObjectNotExist
	}
	return info.state, info.size, nil
}

func (vs *VolatileStore) Sync() error {
	return nil
}

func (vs *VolatileStore) Close() {
}
