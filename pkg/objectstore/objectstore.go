/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package objectstore implements the shared-object lifecycle collaborator
// consumed by the stream control manager. It tracks WAL object identifiers
// through the prepared -> committed transition and answers the commit-time
// existence check; the object payloads themselves live in the object store
// and are never touched here.
package objectstore

import (
	"encoding/binary"
	"fmt"

	badger "github.com/dgraph-io/badger/v2"
	"github.com/pkg/errors"

	streamcontrol "github.com/danthegoodman1/automq"
)

// ObjectState is the lifecycle state of a WAL object identifier.
type ObjectState byte

const (
	// StatePrepared means the identifier was handed out but the object has
	// not been committed yet.
	StatePrepared ObjectState = 1

	// StateCommitted means the object is durable and registered.
	StateCommitted ObjectState = 2
)

func objectKey(objectID int64) []byte {
	return []byte(fmt.Sprintf("obj-%d", objectID))
}

// Values are a state byte followed by the committed object size.
func encodeObject(state ObjectState, size int64) []byte {
	value := make([]byte, 9)
	value[0] = byte(state)
	binary.LittleEndian.PutUint64(value[1:], uint64(size))
	return value
}

func decodeObject(value []byte) (ObjectState, int64, error) {
	if len(value) != 9 {
		return 0, 0, errors.Errorf("malformed object entry of %d bytes", len(value))
	}
	return ObjectState(value[0]), int64(binary.LittleEndian.Uint64(value[1:])), nil
}

// Store is a badger-backed object registry. An empty dir path opens an
// in-memory database, which is what the tests use.
type Store struct {
	db *badger.DB
}

func Open(dirPath string) (*Store, error) {
	var badgerOpts badger.Options
	if dirPath == "" {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		badgerOpts = badger.DefaultOptions(dirPath).WithSyncWrites(false).WithTruncate(true)
	}
	badgerOpts = badgerOpts.WithLogger(nil)
	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, errors.WithMessage(err, "could not open backing db")
	}

	return &Store{
		db: db,
	}, nil
}

// PrepareObject registers an identifier a broker intends to upload. A WAL
// commit for an unprepared identifier is refused.
func (s *Store) PrepareObject(objectID int64) error {
	return s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(objectKey(objectID))
		if err == nil {
			// Re-preparing is harmless; keep the existing state.
			return nil
		}
		if err != badger.ErrKeyNotFound {
			return err
		}
		return txn.Set(objectKey(objectID), encodeObject(StatePrepared, 0))
	})
}

// CommitObject transitions a prepared object to committed and records its
// size. Committing an already-committed object reports existed=true and
// changes nothing. An unknown identifier yields ErrObjectNotExist.
//
// The store has no metadata records of its own to piggyback on the WAL
// commit, so the returned record list is always empty.
func (s *Store) CommitObject(objectID int64, objectSize int64) ([]streamcontrol.Record, bool, error) {
	existed := false
	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(objectKey(objectID))
		if err == badger.ErrKeyNotFound {
			return streamcontrol.ErrObjectNotExist
		}
		if err != nil {
			return err
		}
		value, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		state, _, err := decodeObject(value)
		if err != nil {
			return err
		}
		if state == StateCommitted {
			existed = true
			return nil
		}
		return txn.Set(objectKey(objectID), encodeObject(StateCommitted, objectSize))
	})
	if err != nil {
		return nil, false, err
	}
	return nil, existed, nil
}

// ObjectState looks up the state and committed size of an identifier.
func (s *Store) ObjectState(objectID int64) (ObjectState, int64, error) {
	var state ObjectState
	var size int64
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(objectKey(objectID))
		if err == badger.ErrKeyNotFound {
			return streamcontrol.ErrObjectNotExist
		}
		if err != nil {
			return err
		}
		value, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		state, size, err = decodeObject(value)
		return err
	})
	return state, size, err
}

func (s *Store) Sync() error {
	return s.db.Sync()
}

func (s *Store) Close() {
	s.db.Close()
}
