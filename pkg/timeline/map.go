/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package timeline

import (
	t "github.com/danthegoodman1/automq/pkg/types"
)

// mapUndo is the displaced state of a single key: the value it held when the
// owning snapshot was created, or the fact that it was absent.
type mapUndo[V any] struct {
	value   V
	present bool
}

// Map is a mutable map versioned against a snapshot registry. The first
// mutation of a key after a snapshot records the key's prior state in that
// snapshot's undo table; reverting walks the undo tables newest-first.
//
// Values are replaced wholesale on Put. Callers must not mutate a stored
// value in place, as in-place changes are invisible to the undo tables.
type Map[K comparable, V any] struct {
	registry *Registry
	entries  map[K]V
	undos    map[t.LogOffset]map[K]mapUndo[V]
}

func NewMap[K comparable, V any](registry *Registry) *Map[K, V] {
	m := &Map[K, V]{
		registry: registry,
		entries:  map[K]V{},
		undos:    map[t.LogOffset]map[K]mapUndo[V]{},
	}
	registry.register(m)
	return m
}

// Get returns the value stored under the key, if present.
func (m *Map[K, V]) Get(key K) (V, bool) {
	v, ok := m.entries[key]
	return v, ok
}

// Put stores the value under the key, displacing any prior value.
func (m *Map[K, V]) Put(key K, value V) {
	m.recordUndo(key)
	m.entries[key] = value
}

// Delete removes the key, if present.
func (m *Map[K, V]) Delete(key K) {
	if _, ok := m.entries[key]; !ok {
		return
	}
	m.recordUndo(key)
	delete(m.entries, key)
}

// Len returns the number of live entries.
func (m *Map[K, V]) Len() int {
	return len(m.entries)
}

// Range calls fn for every live entry until fn returns false.
// Iteration order is unspecified.
func (m *Map[K, V]) Range(fn func(key K, value V) bool) {
	for k, v := range m.entries {
		if !fn(k, v) {
			return
		}
	}
}

// recordUndo captures the key's current state into the latest snapshot's
// undo table, unless that snapshot already holds an older state for it.
func (m *Map[K, V]) recordUndo(key K) {
	offset, ok := m.registry.latest()
	if !ok {
		return
	}
	undo, ok := m.undos[offset]
	if !ok {
		undo = map[K]mapUndo[V]{}
		m.undos[offset] = undo
	}
	if _, ok := undo[key]; ok {
		return
	}
	value, present := m.entries[key]
	undo[key] = mapUndo[V]{value: value, present: present}
}

func (m *Map[K, V]) revert(offset t.LogOffset) {
	undo, ok := m.undos[offset]
	if !ok {
		return
	}
	for key, u := range undo {
		if u.present {
			m.entries[key] = u.value
		} else {
			delete(m.entries, key)
		}
	}
	delete(m.undos, offset)
}

func (m *Map[K, V]) forget(offset t.LogOffset) {
	delete(m.undos, offset)
}
