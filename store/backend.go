/*
 * Copyright 2019 The CovenantSQL Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package store implements optimistic transactions over shared maps.
package store

import "sync"

// Backend is a shared map guarded by its own read/write lock. Callers hold
// RLock around Load/Len/Range and Lock around Store/Delete, transactions are
// the only intended callers.
type Backend[K comparable, V any] interface {
	RLock()
	RUnlock()
	Lock()
	Unlock()

	Load(key K) (value V, exists bool, err error)
	Store(key K, value V) error
	Delete(key K) error
	Len() (int, error)
	Range(fn func(key K, value V) bool) error
}

// Memory is a Backend on a plain map.
type Memory[K comparable, V any] struct {
	sync.RWMutex
	entries map[K]V
}

// NewMemory returns an empty in-memory backend.
func NewMemory[K comparable, V any]() *Memory[K, V] {
	return &Memory[K, V]{entries: make(map[K]V)}
}

// Load implements Backend.Load.
func (m *Memory[K, V]) Load(key K) (value V, exists bool, err error) {
	value, exists = m.entries[key]
	return
}

// Store implements Backend.Store.
func (m *Memory[K, V]) Store(key K, value V) error {
	m.entries[key] = value
	return nil
}

// Delete implements Backend.Delete.
func (m *Memory[K, V]) Delete(key K) error {
	delete(m.entries, key)
	return nil
}

// Len implements Backend.Len.
func (m *Memory[K, V]) Len() (int, error) {
	return len(m.entries), nil
}

// Range implements Backend.Range.
func (m *Memory[K, V]) Range(fn func(key K, value V) bool) error {
	for k, v := range m.entries {
		if !fn(k, v) {
			break
		}
	}
	return nil
}
