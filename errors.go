/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package streamcontrol

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorCode is the protocol-level error reported in operation responses.
// Values are part of the wire surface and must not be renumbered.
type ErrorCode int16

const (
	ErrorNone ErrorCode = iota
	ErrorStreamNotExist
	ErrorStreamFenced
	ErrorObjectNotExist
	ErrorStreamInnerError
)

func (e ErrorCode) String() string {
	switch e {
	case ErrorNone:
		return "NONE"
	case ErrorStreamNotExist:
		return "STREAM_NOT_EXIST"
	case ErrorStreamFenced:
		return "STREAM_FENCED"
	case ErrorObjectNotExist:
		return "OBJECT_NOT_EXIST"
	case ErrorStreamInnerError:
		return "STREAM_INNER_ERROR"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int16(e))
	}
}

// ErrObjectNotExist is returned by an ObjectController when the object
// identifier was never prepared.
var ErrObjectNotExist = errors.New("object does not exist")

// ErrStopped is returned for operations submitted to a controller that has
// been stopped.
var ErrStopped = errors.New("controller has been stopped")
