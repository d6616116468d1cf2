/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package streamcontrol

// ControllerResult pairs an operation's response with the ordered records
// the operation wants appended to the metadata log. The operation itself
// mutates nothing; state changes only when the records come back through
// the replay dispatcher, which guarantees that rebuilding from the log
// reproduces the exact state of the original computation.
type ControllerResult[R any] struct {
	Response R
	Records  []Record
}

func controllerResultOf[R any](response R, records ...Record) *ControllerResult[R] {
	return &ControllerResult[R]{
		Response: response,
		Records:  records,
	}
}

// concat appends the given records to this result's records.
func (r *ControllerResult[R]) concat(records []Record) *ControllerResult[R] {
	r.Records = append(r.Records, records...)
	return r
}
