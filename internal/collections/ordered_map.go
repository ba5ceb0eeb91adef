// Copyright 2026 EngFlow Inc. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package collections provides generic ordered-map and set primitives used
// to back scope/dictionary storage and duplicate-name detection.
package collections

import "iter"

// OrderedMap is a generic mapping from comparable keys to values that
// preserves insertion order on iteration. Re-setting an existing key
// updates its value in place without moving it to the end.
type OrderedMap[K comparable, V any] struct {
	index map[K]int
	keys  []K
	vals  []V
}

// NewOrderedMap returns an empty OrderedMap.
func NewOrderedMap[K comparable, V any]() *OrderedMap[K, V] {
	return &OrderedMap[K, V]{index: make(map[K]int)}
}

// Get returns the value bound to key and whether it was present.
func (m *OrderedMap[K, V]) Get(key K) (V, bool) {
	if i, ok := m.index[key]; ok {
		return m.vals[i], true
	}
	var zero V
	return zero, false
}

// Contains reports whether key is bound in the map.
func (m *OrderedMap[K, V]) Contains(key K) bool {
	_, ok := m.index[key]
	return ok
}

// Set binds key to value, appending key to the iteration order only if it
// is not already present.
func (m *OrderedMap[K, V]) Set(key K, value V) {
	if i, ok := m.index[key]; ok {
		m.vals[i] = value
		return
	}
	m.index[key] = len(m.keys)
	m.keys = append(m.keys, key)
	m.vals = append(m.vals, value)
}

// Len returns the number of entries in the map.
func (m *OrderedMap[K, V]) Len() int { return len(m.keys) }

// Keys returns a sequence over keys in insertion order.
func (m *OrderedMap[K, V]) Keys() iter.Seq[K] {
	return func(yield func(K) bool) {
		for _, k := range m.keys {
			if !yield(k) {
				return
			}
		}
	}
}

// Entries returns a sequence over (key, value) pairs in insertion order.
func (m *OrderedMap[K, V]) Entries() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for i, k := range m.keys {
			if !yield(k, m.vals[i]) {
				return
			}
		}
	}
}

// Clone returns a shallow copy sharing no backing storage with m, so that
// mutating the clone never observably mutates m.
func (m *OrderedMap[K, V]) Clone() *OrderedMap[K, V] {
	clone := &OrderedMap[K, V]{
		index: make(map[K]int, len(m.index)),
		keys:  append([]K(nil), m.keys...),
		vals:  append([]V(nil), m.vals...),
	}
	for k, i := range m.index {
		clone.index[k] = i
	}
	return clone
}
