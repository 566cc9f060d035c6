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

// Iterator phases.
const (
	phaseWrites = iota
	phaseReads
	phaseBackend
	phaseEnd
)

type pair[K comparable, V any] struct {
	key   K
	value V
}

// Iterator walks every key visible to a transaction: pending writes first,
// then earlier reads, then the remaining backend entries.
type Iterator[K comparable, V any] struct {
	tx      *Tx[K, V]
	phase   int
	pos     int
	backend []pair[K, V]
	seen    map[K]struct{}
	key     K
	value   V
	err     error
}

// Iterator returns a new iterator positioned before the first entry.
func (tx *Tx[K, V]) Iterator() *Iterator[K, V] {
	it := &Iterator[K, V]{tx: tx, seen: make(map[K]struct{})}
	if tx.done {
		it.err = ErrTxDone
		it.phase = phaseEnd
	}
	return it
}

// Next advances the iterator, it returns false at the end or on error.
func (it *Iterator[K, V]) Next() bool {
	tx := it.tx
	for it.phase != phaseEnd {
		switch it.phase {
		case phaseWrites:
			for it.pos < len(tx.writeOrder) {
				k := tx.writeOrder[it.pos]
				it.pos++
				v, ok := tx.writes[k]
				if !ok || it.visited(k) {
					continue
				}
				return it.emit(k, v)
			}
		case phaseReads:
			for it.pos < len(tx.readOrder) {
				k := tx.readOrder[it.pos]
				it.pos++
				if !it.visible(k) {
					continue
				}
				return it.emit(k, tx.reads[k])
			}
		case phaseBackend:
			if it.backend == nil && !it.snapshot() {
				return false
			}
			for it.pos < len(it.backend) {
				p := it.backend[it.pos]
				it.pos++
				if !it.visible(p.key) {
					continue
				}
				return it.emit(p.key, tx.copied(p.value))
			}
		}
		it.phase++
		it.pos = 0
	}
	return false
}

func (it *Iterator[K, V]) visited(k K) bool {
	_, ok := it.seen[k]
	return ok
}

// visible reports whether a read or backend key is not superseded locally.
func (it *Iterator[K, V]) visible(k K) bool {
	if _, ok := it.tx.writes[k]; ok {
		return false
	}
	if _, ok := it.tx.deletes[k]; ok {
		return false
	}
	return !it.visited(k)
}

func (it *Iterator[K, V]) emit(k K, v V) bool {
	it.seen[k] = struct{}{}
	it.key, it.value = k, v
	return true
}

func (it *Iterator[K, V]) snapshot() bool {
	tx := it.tx
	if !tx.locked {
		tx.backend.RLock()
		defer tx.backend.RUnlock()
	}
	it.backend = make([]pair[K, V], 0)
	if err := tx.backend.Range(func(k K, v V) bool {
		it.backend = append(it.backend, pair[K, V]{key: k, value: v})
		return true
	}); err != nil {
		it.err = err
		it.phase = phaseEnd
		return false
	}
	return true
}

// Key returns the current key.
func (it *Iterator[K, V]) Key() K { return it.key }

// Value returns the current value.
func (it *Iterator[K, V]) Value() V { return it.value }

// End reports whether the iterator is exhausted.
func (it *Iterator[K, V]) End() bool { return it.phase == phaseEnd }

// Err returns the error that stopped the iteration.
func (it *Iterator[K, V]) Err() error { return it.err }
