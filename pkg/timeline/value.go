/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package timeline

import (
	t "github.com/danthegoodman1/automq/pkg/types"
)

// Value is a single mutable value versioned against a snapshot registry.
// It backs scalar state such as the stream ID allocator and a stream's
// current epoch.
//
// The stored value must be replaced on Set, never mutated in place.
type Value[T any] struct {
	registry *Registry
	current  T
	undos    map[t.LogOffset]T
}

func NewValue[T any](registry *Registry, initial T) *Value[T] {
	v := &Value[T]{
		registry: registry,
		current:  initial,
		undos:    map[t.LogOffset]T{},
	}
	registry.register(v)
	return v
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	return v.current
}

// Set replaces the current value.
func (v *Value[T]) Set(value T) {
	if offset, ok := v.registry.latest(); ok {
		if _, ok := v.undos[offset]; !ok {
			v.undos[offset] = v.current
		}
	}
	v.current = value
}

func (v *Value[T]) revert(offset t.LogOffset) {
	if prior, ok := v.undos[offset]; ok {
		v.current = prior
		delete(v.undos, offset)
	}
}

func (v *Value[T]) forget(offset t.LogOffset) {
	delete(v.undos, offset)
}
