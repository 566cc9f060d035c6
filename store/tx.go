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

package store

import (
	"github.com/mohae/deepcopy"
)

// Options defines transaction behaviour.
type Options[V any] struct {
	// CopyOnRead deep copies values loaded from the backend, so mutating a
	// value in place never touches the shared map.
	CopyOnRead bool
	// ReadEqual enables read set checks at commit: every value read from the
	// backend must still compare equal before the writes are applied.
	ReadEqual func(a, b V) bool
	// Hooks are called around commit.
	Hooks *Hooks
}

// Tx buffers reads, writes and deletes over a backend. The backend is not
// modified until Commit.
type Tx[K comparable, V any] struct {
	backend Backend[K, V]
	opts    Options[V]
	// backend lock already held by the caller
	locked bool
	done   bool

	reads   map[K]V
	writes  map[K]V
	deletes map[K]struct{}
	// membership probes, false means the backend had no entry
	present map[K]bool

	readOrder  []K
	writeOrder []K
}

// Begin starts a transaction with default options.
func Begin[K comparable, V any](backend Backend[K, V]) *Tx[K, V] {
	return BeginWith(backend, nil)
}

// BeginWith starts a transaction with opts.
func BeginWith[K comparable, V any](backend Backend[K, V], opts *Options[V]) *Tx[K, V] {
	tx := &Tx[K, V]{
		backend: backend,
		reads:   make(map[K]V),
		writes:  make(map[K]V),
		deletes: make(map[K]struct{}),
		present: make(map[K]bool),
	}
	if opts != nil {
		tx.opts = *opts
	}
	return tx
}

func (tx *Tx[K, V]) load(key K) (value V, exists bool, err error) {
	if !tx.locked {
		tx.backend.RLock()
		defer tx.backend.RUnlock()
	}
	if value, exists, err = tx.backend.Load(key); err != nil || !exists {
		return
	}
	value = tx.copied(value)
	return
}

func (tx *Tx[K, V]) copied(value V) V {
	if tx.opts.CopyOnRead {
		if c, ok := deepcopy.Copy(value).(V); ok {
			return c
		}
	}
	return value
}

// fetch resolves a key against the local reads and the backend, caching
// whatever it finds.
func (tx *Tx[K, V]) fetch(key K) (value V, exists bool, err error) {
	if value, exists = tx.reads[key]; exists {
		return
	}
	if known, probed := tx.present[key]; probed && !known {
		return
	}
	if value, exists, err = tx.load(key); err != nil {
		return
	}
	tx.present[key] = exists
	if exists {
		tx.reads[key] = value
		tx.readOrder = append(tx.readOrder, key)
	}
	return
}

// Get returns the value of key as seen by the transaction: pending writes
// first, then pending deletes, then earlier reads, then the backend.
func (tx *Tx[K, V]) Get(key K) (value V, exists bool, err error) {
	if tx.done {
		err = ErrTxDone
		return
	}
	if value, exists = tx.writes[key]; exists {
		return
	}
	if _, deleted := tx.deletes[key]; deleted {
		return
	}
	return tx.fetch(key)
}

// Set buffers a write of key, clearing a pending delete.
func (tx *Tx[K, V]) Set(key K, value V) error {
	if tx.done {
		return ErrTxDone
	}
	if _, pending := tx.writes[key]; !pending {
		tx.writeOrder = append(tx.writeOrder, key)
	}
	tx.writes[key] = value
	delete(tx.deletes, key)
	return nil
}

// Delete buffers a delete of key, dropping a pending write.
func (tx *Tx[K, V]) Delete(key K) error {
	if tx.done {
		return ErrTxDone
	}
	tx.deletes[key] = struct{}{}
	delete(tx.writes, key)
	return nil
}

// Count returns 1 if key is visible to the transaction, 0 otherwise.
func (tx *Tx[K, V]) Count(key K) (int, error) {
	if tx.done {
		return 0, ErrTxDone
	}
	if _, ok := tx.writes[key]; ok {
		return 1, nil
	}
	if _, ok := tx.deletes[key]; ok {
		return 0, nil
	}
	if _, ok := tx.reads[key]; ok {
		return 1, nil
	}
	if known, probed := tx.present[key]; probed {
		if known {
			return 1, nil
		}
		return 0, nil
	}
	if !tx.locked {
		tx.backend.RLock()
		defer tx.backend.RUnlock()
	}
	_, exists, err := tx.backend.Load(key)
	if err != nil {
		return 0, err
	}
	tx.present[key] = exists
	if exists {
		return 1, nil
	}
	return 0, nil
}

// Size returns the number of keys visible to the transaction.
func (tx *Tx[K, V]) Size() (n int, err error) {
	it := tx.Iterator()
	for it.Next() {
		n++
	}
	err = it.Err()
	return
}

// Entry returns a proxy for key.
func (tx *Tx[K, V]) Entry(key K) *Entry[K, V] {
	return &Entry[K, V]{tx: tx, key: key}
}

// Entry reads and writes a single key of a transaction.
type Entry[K comparable, V any] struct {
	tx  *Tx[K, V]
	key K
}

// Key returns the entry key.
func (e *Entry[K, V]) Key() K { return e.key }

// Load is Tx.Get on the entry key.
func (e *Entry[K, V]) Load() (V, bool, error) { return e.tx.Get(e.key) }

// Store is Tx.Set on the entry key.
func (e *Entry[K, V]) Store(value V) error { return e.tx.Set(e.key, value) }

// Delete is Tx.Delete on the entry key.
func (e *Entry[K, V]) Delete() error { return e.tx.Delete(e.key) }

// Equal reports whether the entry exists and equals value under eq.
func (e *Entry[K, V]) Equal(value V, eq func(a, b V) bool) (bool, error) {
	v, exists, err := e.Load()
	if err != nil || !exists {
		return false, err
	}
	return eq(v, value), nil
}
