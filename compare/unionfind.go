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

package compare

import (
	"github.com/CovenantSQL/sequent/store"
)

func sameID(a, b uint64) bool { return a == b }

// walk follows parent links from id to its root. Parents always have a
// lower identity than their children, so the walk terminates.
func walk(tx *store.Tx[uint64, uint64], id uint64) (uint64, error) {
	for {
		parent, ok, err := tx.Get(id)
		if err != nil {
			return 0, err
		}
		if !ok || parent == id {
			return id, nil
		}
		id = parent
	}
}

func isRoot(tx *store.Tx[uint64, uint64], id uint64) (bool, error) {
	parent, ok, err := tx.Get(id)
	return err == nil && (!ok || parent == id), err
}

// find returns the class root of id, checking that it is still a root.
func (c *Cache[V]) find(id uint64) (root uint64, err error) {
	err = store.Retry(c.limits.Find, func() error {
		tx := store.Begin(c.parents)
		r, err := walk(tx, id)
		if err != nil {
			return err
		}
		if err = tx.Commit(func(fresh *store.Tx[uint64, uint64]) (bool, error) {
			return isRoot(fresh, r)
		}); err != nil {
			return err
		}
		root = r
		return nil
	})
	return
}

// join merges the classes of a and b. The higher root is attached under the
// lower one and both endpoints are pointed at the new root directly.
func (c *Cache[V]) join(a, b uint64) error {
	return store.Retry(c.limits.Join, func() error {
		tx := store.BeginWith(c.parents, &store.Options[uint64]{ReadEqual: sameID})
		ra, err := walk(tx, a)
		if err != nil {
			return err
		}
		rb, err := walk(tx, b)
		if err != nil {
			return err
		}
		if ra == rb {
			return nil
		}

		lo, hi := ra, rb
		if hi < lo {
			lo, hi = hi, lo
		}
		for _, id := range []uint64{hi, a, b} {
			if id != lo {
				if err = tx.Set(id, lo); err != nil {
					return err
				}
			}
		}

		return tx.Commit(func(fresh *store.Tx[uint64, uint64]) (bool, error) {
			if ok, err := isRoot(fresh, lo); err != nil || !ok {
				return false, err
			}
			for _, id := range []uint64{a, b} {
				if r, err := walk(fresh, id); err != nil || r != lo {
					return false, err
				}
			}
			return true, nil
		})
	})
}

// memoHash returns the stored hash of v, computing it on first use.
func (c *Cache[V]) memoHash(v V) (hash uint64, err error) {
	id := v.Identity()
	err = store.Retry(c.limits.Hash, func() error {
		tx := store.Begin(c.hashes)
		h, ok, err := tx.Get(id)
		if err != nil {
			return err
		}
		if ok {
			hash = h
			return nil
		}

		h = c.hash(v)
		if err = tx.Set(id, h); err != nil {
			return err
		}
		if err = tx.Commit(func(fresh *store.Tx[uint64, uint64]) (bool, error) {
			got, ok, err := fresh.Get(id)
			return ok && got == h, err
		}); err != nil {
			return err
		}
		hash = h
		return nil
	})
	return
}

// Root returns the class root of v.
func (c *Cache[V]) Root(v V) (uint64, error) {
	return c.find(v.Identity())
}
