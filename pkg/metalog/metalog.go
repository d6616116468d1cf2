/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package metalog persists the controller's metadata records. It is a thin
// layer over a write-ahead log: records are framed with a checksum,
// appended at densely increasing offsets, and replayed in order at
// startup. Replication of the log between controllers happens elsewhere.
package metalog

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"github.com/tidwall/wal"

	streamcontrol "github.com/danthegoodman1/automq"
)

type Log struct {
	mutex sync.Mutex
	log   *wal.Log

	// Offset of the next record to append. The underlying wal indexes
	// starting at 1; the metadata log starts at 0.
	next uint64
}

func Open(path string) (*Log, error) {
	log, err := wal.Open(path, &wal.Options{
		NoSync: true,
		NoCopy: true,
	})
	if err != nil {
		return nil, errors.WithMessage(err, "could not open metadata log")
	}

	last, err := log.LastIndex()
	if err != nil {
		return nil, errors.WithMessage(err, "failed obtaining last log index")
	}

	return &Log{
		log:  log,
		next: last,
	}, nil
}

// IsEmpty reports whether the log holds no records.
func (l *Log) IsEmpty() (bool, error) {
	firstIndex, err := l.log.FirstIndex()
	if err != nil {
		return false, errors.WithMessage(err, "could not read first index")
	}
	return firstIndex == 0, nil
}

// Append stores the record at the tail and returns its log offset.
func (l *Log) Append(record streamcontrol.Record) (uint64, error) {
	data, err := encodeRecord(record)
	if err != nil {
		return 0, errors.WithMessage(err, "could not encode record")
	}

	l.mutex.Lock()
	defer l.mutex.Unlock()

	offset := l.next
	if err := l.log.Write(offset+1, data); err != nil {
		return 0, errors.WithMessagef(err, "could not write offset %d", offset)
	}
	l.next = offset + 1
	return offset, nil
}

// LoadAll invokes forEach with every stored record in offset order.
func (l *Log) LoadAll(forEach func(offset uint64, record streamcontrol.Record)) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	firstIndex, err := l.log.FirstIndex()
	if err != nil {
		return errors.WithMessage(err, "could not read first index")
	}
	if firstIndex == 0 {
		// Log is empty
		return nil
	}
	lastIndex, err := l.log.LastIndex()
	if err != nil {
		return errors.WithMessage(err, "could not read last index")
	}

	for i := firstIndex; i <= lastIndex; i++ {
		data, err := l.log.Read(i)
		if err != nil {
			return errors.WithMessagef(err, "could not read index %d", i)
		}
		record, err := decodeRecord(data)
		if err != nil {
			return errors.WithMessagef(err, "offset %d", i-1)
		}
		forEach(i-1, record)
	}
	return nil
}

// TruncateFront drops all records below the given offset, typically after
// the state they rebuild has been captured by a snapshot.
func (l *Log) TruncateFront(offset uint64) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	return l.log.TruncateFront(offset + 1)
}

// TruncateBack drops all records at and above the given offset. Used when
// the replicated log's tail is discarded on leader change; the in-memory
// state must be reverted to a snapshot below the same offset.
func (l *Log) TruncateBack(offset uint64) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if offset == 0 {
		return fmt.Errorf("cannot truncate the whole log")
	}
	if err := l.log.TruncateBack(offset); err != nil {
		return err
	}
	l.next = offset
	return nil
}

func (l *Log) Sync() error {
	return l.log.Sync()
}

func (l *Log) Close() error {
	return l.log.Close()
}
