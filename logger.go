/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package streamcontrol

import (
	"go.uber.org/zap"
)

// Logger is the subset of the *zap.Logger which the stream control manager
// utilizes. It has been abstracted as an interface to allow easier mocking
// and to make it possible to write a shim to support other loggers if
// necessary.
type Logger interface {
	Debug(msg string, fields ...zap.Field)
	Info(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)
	Panic(msg string, fields ...zap.Field)
}

// nilLogger drops all messages. It is the default when no Logger is
// configured, notably in tests.
type nilLogger struct{}

func (nilLogger) Debug(msg string, fields ...zap.Field) {}
func (nilLogger) Info(msg string, fields ...zap.Field)  {}
func (nilLogger) Warn(msg string, fields ...zap.Field)  {}
func (nilLogger) Error(msg string, fields ...zap.Field) {}
func (nilLogger) Panic(msg string, fields ...zap.Field) {
	panic(msg)
}

// NilLogger drops all log messages, except that Panic still panics.
var NilLogger Logger = nilLogger{}
