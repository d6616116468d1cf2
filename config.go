/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package streamcontrol

type Config struct {
	// Logger provides the logging functions.
	Logger Logger

	// SnapshotInterval is the number of metadata-log offsets between
	// snapshots of the in-memory state. The controller creates a snapshot
	// after the batch that crosses the interval boundary. Zero snapshots
	// after every applied batch.
	SnapshotInterval uint64

	// RetainedSnapshots bounds how many snapshots are kept live before the
	// oldest are discarded. Zero keeps all snapshots.
	RetainedSnapshots int
}

func (c *Config) logger() Logger {
	if c.Logger == nil {
		return NilLogger
	}
	return c.Logger
}
