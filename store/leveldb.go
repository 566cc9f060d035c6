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
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"

	"github.com/CovenantSQL/sequent/utils"
)

// LevelDB is a Backend persisting msgpack encoded entries into leveldb.
type LevelDB[K comparable, V any] struct {
	sync.RWMutex
	db     *leveldb.DB
	closed uint32
}

// OpenLevelDB opens a leveldb backend at path, an empty path keeps the
// database in memory.
func OpenLevelDB[K comparable, V any](path string) (b *LevelDB[K, V], err error) {
	var db *leveldb.DB
	if path == "" {
		db, err = leveldb.Open(storage.NewMemStorage(), nil)
	} else {
		db, err = leveldb.OpenFile(path, nil)
	}
	if err != nil {
		err = errors.Wrapf(err, "open leveldb backend %q failed", path)
		return
	}
	b = &LevelDB[K, V]{db: db}
	return
}

func (b *LevelDB[K, V]) encodeKey(key K) ([]byte, error) {
	buf, err := utils.EncodeMsgPack(key)
	if err != nil {
		return nil, errors.Wrap(err, "encode key failed")
	}
	return buf.Bytes(), nil
}

func (b *LevelDB[K, V]) check() error {
	if atomic.LoadUint32(&b.closed) == 1 {
		return ErrBackendClosed
	}
	return nil
}

// Load implements Backend.Load.
func (b *LevelDB[K, V]) Load(key K) (value V, exists bool, err error) {
	if err = b.check(); err != nil {
		return
	}
	var kb, data []byte
	if kb, err = b.encodeKey(key); err != nil {
		return
	}
	if data, err = b.db.Get(kb, nil); err == leveldb.ErrNotFound {
		err = nil
		return
	} else if err != nil {
		err = errors.Wrap(err, "load entry failed")
		return
	}
	if err = utils.DecodeMsgPack(data, &value); err != nil {
		err = errors.Wrap(err, "decode value failed")
		return
	}
	exists = true
	return
}

// Store implements Backend.Store.
func (b *LevelDB[K, V]) Store(key K, value V) (err error) {
	if err = b.check(); err != nil {
		return
	}
	var kb []byte
	if kb, err = b.encodeKey(key); err != nil {
		return
	}
	buf, err := utils.EncodeMsgPack(value)
	if err != nil {
		return errors.Wrap(err, "encode value failed")
	}
	return errors.Wrap(b.db.Put(kb, buf.Bytes(), nil), "store entry failed")
}

// Delete implements Backend.Delete.
func (b *LevelDB[K, V]) Delete(key K) (err error) {
	if err = b.check(); err != nil {
		return
	}
	var kb []byte
	if kb, err = b.encodeKey(key); err != nil {
		return
	}
	return errors.Wrap(b.db.Delete(kb, nil), "delete entry failed")
}

// Len implements Backend.Len.
func (b *LevelDB[K, V]) Len() (n int, err error) {
	if err = b.check(); err != nil {
		return
	}
	it := b.db.NewIterator(nil, nil)
	defer it.Release()
	for it.Next() {
		n++
	}
	err = errors.Wrap(it.Error(), "iterate entries failed")
	return
}

// Range implements Backend.Range.
func (b *LevelDB[K, V]) Range(fn func(key K, value V) bool) (err error) {
	if err = b.check(); err != nil {
		return
	}
	it := b.db.NewIterator(nil, nil)
	defer it.Release()
	for it.Next() {
		var (
			key   K
			value V
		)
		if err = utils.DecodeMsgPack(it.Key(), &key); err != nil {
			return errors.Wrap(err, "decode key failed")
		}
		if err = utils.DecodeMsgPack(it.Value(), &value); err != nil {
			return errors.Wrap(err, "decode value failed")
		}
		if !fn(key, value) {
			break
		}
	}
	return errors.Wrap(it.Error(), "iterate entries failed")
}

// Close closes the underlying database.
func (b *LevelDB[K, V]) Close() error {
	if !atomic.CompareAndSwapUint32(&b.closed, 0, 1) {
		return nil
	}
	return b.db.Close()
}
