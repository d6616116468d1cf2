/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package streamcontrol

import (
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/danthegoodman1/automq/pkg/timeline"
	t "github.com/danthegoodman1/automq/pkg/types"
)

// controllerOp is one unit of work for the controller loop: it runs an
// operation against the manager and returns the records to commit.
type controllerOp struct {
	run    func(manager *StreamControlManager) []Record
	replyC chan error
}

// Controller provides a single-threaded way to access the stream control
// manager. Every operation is computed, appended to the metadata log, made
// durable, and replayed before the next operation is taken, so effects are
// observed strictly in log order.
type Controller struct {
	opC      chan *controllerOp
	statusC  chan chan<- *Status
	revertC  chan *revertReq
	doneC    chan struct{}
	errC     chan struct{}
	stopOnce sync.Once

	config        *Config
	metaLog       MetaLog
	objectControl ObjectController

	exitMutex sync.Mutex
	exitErr   error
}

type revertReq struct {
	offset t.LogOffset
	replyC chan error
}

// NewController replays the existing metadata log into a fresh manager and
// starts the controller loop.
func NewController(config *Config, metaLog MetaLog, objectControl ObjectController) (*Controller, error) {
	c := &Controller{
		opC:           make(chan *controllerOp),
		statusC:       make(chan chan<- *Status),
		revertC:       make(chan *revertReq),
		doneC:         make(chan struct{}),
		errC:          make(chan struct{}),
		config:        config,
		metaLog:       metaLog,
		objectControl: objectControl,
	}
	go c.run()
	return c, nil
}

// Stop terminates the controller loop and waits for it to drain.
func (c *Controller) Stop() {
	c.stopOnce.Do(func() {
		close(c.doneC)
	})
	<-c.errC
}

// ExitErr returns the error the loop terminated with, if any. It must only
// be called after Stop has returned.
func (c *Controller) ExitErr() error {
	c.exitMutex.Lock()
	defer c.exitMutex.Unlock()
	return c.exitErr
}

// run must be single threaded and is therefore hidden to prevent
// accidental capture by other go routines.
func (c *Controller) run() (exitErr error) {
	logger := c.config.logger()
	registry := timeline.NewRegistry()
	manager := NewStreamControlManager(registry, logger, c.objectControl)

	defer func() {
		c.exitMutex.Lock()
		defer c.exitMutex.Unlock()
		if r := recover(); r != nil {
			if err, ok := r.(error); ok {
				c.exitErr = errors.Wrapf(err, "controller loop caught panic")
			} else {
				c.exitErr = errors.Errorf("panic in controller loop: %v", r)
			}
		} else {
			c.exitErr = exitErr
		}
		close(c.errC)
	}()

	// Rebuild in-memory state from the durable log before serving.
	var lastApplied t.LogOffset
	var replayed bool
	err := c.metaLog.LoadAll(func(offset uint64, record Record) {
		manager.Replay(record)
		lastApplied = t.LogOffset(offset)
		replayed = true
	})
	if err != nil {
		return errors.WithMessage(err, "could not load metadata log")
	}
	if replayed {
		registry.IdempotentCreateSnapshot(lastApplied)
		logger.Info("metadata log replayed", zap.Uint64("lastOffset", lastApplied.Pb()))
	}

	commit := func(records []Record) error {
		if len(records) == 0 {
			return nil
		}
		for _, record := range records {
			offset, err := c.metaLog.Append(record)
			if err != nil {
				// The batch never reached the log, so it is not replayed;
				// the caller retries the operation against current state.
				return errors.WithMessage(err, "could not append to metadata log")
			}
			lastApplied = t.LogOffset(offset)
		}
		if err := c.metaLog.Sync(); err != nil {
			return errors.WithMessage(err, "could not sync metadata log")
		}
		for _, record := range records {
			manager.Replay(record)
		}

		if latest, ok := registry.LatestOffset(); !ok || lastApplied.Pb()-latest.Pb() >= c.config.SnapshotInterval {
			registry.IdempotentCreateSnapshot(lastApplied)
		}
		if max := c.config.RetainedSnapshots; max > 0 && registry.SnapshotCount() > max {
			offsets := registry.Offsets()
			registry.DeleteSnapshotsUpTo(offsets[len(offsets)-max])
		}
		return nil
	}

	for {
		select {
		case op := <-c.opC:
			records := op.run(manager)
			op.replyC <- commit(records)
		case replyC := <-c.statusC:
			replyC <- manager.Status()
		case req := <-c.revertC:
			req.replyC <- func() (err error) {
				defer func() {
					if r := recover(); r != nil {
						err = errors.Errorf("revert failed: %v", r)
					}
				}()
				registry.RevertToSnapshot(req.offset)
				return nil
			}()
		case <-c.doneC:
			return nil
		}
	}
}

func (c *Controller) submit(run func(manager *StreamControlManager) []Record) error {
	op := &controllerOp{
		run:    run,
		replyC: make(chan error, 1),
	}
	select {
	case c.opC <- op:
		return <-op.replyC
	case <-c.errC:
		return ErrStopped
	}
}

// CreateStream allocates a new stream and durably records it.
func (c *Controller) CreateStream(req *CreateStreamRequest) (*CreateStreamResponse, error) {
	var resp *CreateStreamResponse
	err := c.submit(func(manager *StreamControlManager) []Record {
		result := manager.CreateStream(req)
		resp = result.Response
		return result.Records
	})
	return resp, err
}

// OpenStream grants or refuses write ownership of a stream.
func (c *Controller) OpenStream(req *OpenStreamRequest) (*OpenStreamResponse, error) {
	var resp *OpenStreamResponse
	err := c.submit(func(manager *StreamControlManager) []Record {
		result := manager.OpenStream(req)
		resp = result.Response
		return result.Records
	})
	return resp, err
}

// CommitWALObject registers a committed WAL object.
func (c *Controller) CommitWALObject(req *CommitWALObjectRequest) (*CommitWALObjectResponse, error) {
	var resp *CommitWALObjectResponse
	err := c.submit(func(manager *StreamControlManager) []Record {
		result := manager.CommitWALObject(req)
		resp = result.Response
		return result.Records
	})
	return resp, err
}

// TrimStream advances a stream's retained start offset.
func (c *Controller) TrimStream(req *TrimStreamRequest) (*TrimStreamResponse, error) {
	var resp *TrimStreamResponse
	err := c.submit(func(manager *StreamControlManager) []Record {
		result := manager.TrimStream(req)
		resp = result.Response
		return result.Records
	})
	return resp, err
}

// DeleteStream destroys a stream's metadata.
func (c *Controller) DeleteStream(req *DeleteStreamRequest) (*DeleteStreamResponse, error) {
	var resp *DeleteStreamResponse
	err := c.submit(func(manager *StreamControlManager) []Record {
		result := manager.DeleteStream(req)
		resp = result.Response
		return result.Records
	})
	return resp, err
}

// Status captures the controller's current state.
func (c *Controller) Status() (*Status, error) {
	replyC := make(chan *Status, 1)
	select {
	case c.statusC <- replyC:
		return <-replyC, nil
	case <-c.errC:
		return nil, ErrStopped
	}
}

// RevertToOffset restores in-memory state to the snapshot taken at the
// given metadata-log offset, discarding everything applied after it. Used
// when the replicated log truncates past the controller's applied tail.
func (c *Controller) RevertToOffset(offset t.LogOffset) error {
	req := &revertReq{
		offset: offset,
		replyC: make(chan error, 1),
	}
	select {
	case c.revertC <- req:
		return <-req.replyC
	case <-c.errC:
		return ErrStopped
	}
}
