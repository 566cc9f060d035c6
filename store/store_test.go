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
	"sort"
	"sync"
	"testing"

	"github.com/ivpusic/grpool"
	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"
)

func intEqual(a, b int) bool { return a == b }

func keys(tx *Tx[string, int]) (out []string) {
	it := tx.Iterator()
	for it.Next() {
		out = append(out, it.Key())
	}
	So(it.Err(), ShouldBeNil)
	So(it.End(), ShouldBeTrue)
	return
}

func seed(b Backend[string, int], entries map[string]int) {
	tx := Begin(b)
	for k, v := range entries {
		So(tx.Set(k, v), ShouldBeNil)
	}
	So(tx.Commit(nil), ShouldBeNil)
}

func testBackend(b Backend[string, int]) {
	Convey("Reads resolve pending writes before deletes before the backend", func() {
		seed(b, map[string]int{"a": 1, "b": 2, "c": 3})
		tx := Begin(b)

		v, ok, err := tx.Get("a")
		So(err, ShouldBeNil)
		So(ok, ShouldBeTrue)
		So(v, ShouldEqual, 1)

		So(tx.Set("a", 10), ShouldBeNil)
		v, _, _ = tx.Get("a")
		So(v, ShouldEqual, 10)

		So(tx.Delete("a"), ShouldBeNil)
		_, ok, _ = tx.Get("a")
		So(ok, ShouldBeFalse)
		n, err := tx.Count("a")
		So(err, ShouldBeNil)
		So(n, ShouldEqual, 0)

		So(tx.Set("a", 11), ShouldBeNil)
		n, _ = tx.Count("a")
		So(n, ShouldEqual, 1)
		n, _ = tx.Count("missing")
		So(n, ShouldEqual, 0)

		// the backend is untouched until commit
		b.RLock()
		raw, _, err := b.Load("a")
		b.RUnlock()
		So(err, ShouldBeNil)
		So(raw, ShouldEqual, 1)

		Convey("The iterator walks writes, then reads, then the backend", func() {
			So(tx.Delete("c"), ShouldBeNil)
			So(tx.Set("d", 4), ShouldBeNil)
			_, _, _ = tx.Get("b")
			got := keys(tx)
			So(got[:2], ShouldResemble, []string{"a", "d"})
			So(got[2], ShouldEqual, "b")
			So(got, ShouldHaveLength, 3)
			size, err := tx.Size()
			So(err, ShouldBeNil)
			So(size, ShouldEqual, 3)
		})

		Convey("Commit publishes the buffered changes", func() {
			So(tx.Delete("c"), ShouldBeNil)
			So(tx.Commit(func(fresh *Tx[string, int]) (bool, error) {
				return fresh.Entry("a").Equal(11, intEqual)
			}), ShouldBeNil)
			So(errors.Cause(tx.Set("x", 1)), ShouldEqual, ErrTxDone)

			after := Begin(b)
			got := keys(after)
			sort.Strings(got)
			So(got, ShouldResemble, []string{"a", "b"})
			v, _, _ := after.Get("a")
			So(v, ShouldEqual, 11)
		})

		Convey("Rejected commits restore the previous state", func() {
			So(tx.Delete("b"), ShouldBeNil)
			So(tx.Set("e", 5), ShouldBeNil)
			var seen int
			err := tx.Commit(func(fresh *Tx[string, int]) (bool, error) {
				seen, _, _ = fresh.Get("e")
				return false, nil
			})
			So(IsConflict(err), ShouldBeTrue)
			So(seen, ShouldEqual, 5)

			after := Begin(b)
			got := keys(after)
			sort.Strings(got)
			So(got, ShouldResemble, []string{"a", "b", "c"})
			v, _, _ := after.Get("a")
			So(v, ShouldEqual, 1)
		})
	})
}

func TestMemoryBackend(t *testing.T) {
	Convey("Memory backend", t, func() {
		testBackend(NewMemory[string, int]())
	})
}

func TestLevelDBBackend(t *testing.T) {
	Convey("LevelDB backend", t, func() {
		b, err := OpenLevelDB[string, int]("")
		So(err, ShouldBeNil)
		Reset(func() {
			So(b.Close(), ShouldBeNil)
		})
		testBackend(b)
	})
	Convey("A closed LevelDB backend refuses access", t, func() {
		b, err := OpenLevelDB[string, int]("")
		So(err, ShouldBeNil)
		So(b.Close(), ShouldBeNil)
		_, _, err = Begin[string, int](b).Get("a")
		So(errors.Cause(err), ShouldEqual, ErrBackendClosed)
	})
}

func TestReadCheck(t *testing.T) {
	Convey("A changed read set aborts the commit before applying", t, func() {
		b := NewMemory[string, int]()
		seed(b, map[string]int{"a": 1})
		opts := &Options[int]{ReadEqual: intEqual}

		tx := BeginWith[string, int](b, opts)
		v, _, _ := tx.Get("a")
		So(tx.Set("b", v+1), ShouldBeNil)

		other := BeginWith[string, int](b, opts)
		So(other.Set("a", 7), ShouldBeNil)
		So(other.Commit(nil), ShouldBeNil)

		err := tx.Commit(nil)
		So(IsConflict(err), ShouldBeTrue)
		n, _ := Begin[string, int](b).Count("b")
		So(n, ShouldEqual, 0)
	})
}

func TestHooksAndCopy(t *testing.T) {
	Convey("Hooks run around apply and rollback", t, func() {
		b := NewMemory[string, int]()
		var calls []string
		hooks := &Hooks{
			BeforeApply:    func() error { calls = append(calls, "apply"); return nil },
			BeforeRollback: func() error { calls = append(calls, "rollback"); return nil },
			AfterCommit:    func() error { calls = append(calls, "commit"); return nil },
		}
		tx := BeginWith[string, int](b, &Options[int]{Hooks: hooks})
		So(tx.Set("a", 1), ShouldBeNil)
		So(tx.Commit(nil), ShouldBeNil)
		tx = BeginWith[string, int](b, &Options[int]{Hooks: hooks})
		So(tx.Set("a", 2), ShouldBeNil)
		So(tx.Commit(func(*Tx[string, int]) (bool, error) { return false, nil }), ShouldNotBeNil)
		So(calls, ShouldResemble, []string{"apply", "commit", "apply", "rollback"})
	})
	Convey("Copy on read isolates reference values", t, func() {
		b := NewMemory[string, []int]()
		tx := Begin[string, []int](b)
		So(tx.Set("a", []int{1, 2}), ShouldBeNil)
		So(tx.Commit(nil), ShouldBeNil)

		tx = BeginWith[string, []int](b, &Options[[]int]{CopyOnRead: true})
		v, _, _ := tx.Get("a")
		v[0] = 100
		raw, _, _ := b.Load("a")
		So(raw[0], ShouldEqual, 1)
	})
}

func TestRetry(t *testing.T) {
	Convey("Retry stops on success or hard errors", t, func() {
		var attempts int
		err := Retry(4, func() error {
			attempts++
			if attempts < 3 {
				return errors.Wrap(ErrTransaction, "conflict")
			}
			return nil
		})
		So(err, ShouldBeNil)
		So(attempts, ShouldEqual, 3)

		attempts = 0
		hard := errors.New("hard")
		So(Retry(4, func() error { attempts++; return hard }), ShouldEqual, hard)
		So(attempts, ShouldEqual, 1)
	})
	Convey("Retry gives up after the limit", t, func() {
		var attempts int
		err := Retry(2, func() error {
			attempts++
			return ErrTransaction
		})
		So(IsConflict(err), ShouldBeTrue)
		So(attempts, ShouldEqual, 2)
	})
	Convey("Concurrent increments never lose updates", t, func() {
		const jobs = 200
		b := NewMemory[string, int]()
		pool := grpool.NewPool(16, 32)
		defer pool.Release()

		var (
			mu     sync.Mutex
			failed []error
		)
		pool.WaitCount(jobs)
		for i := 0; i < jobs; i++ {
			pool.JobQueue <- func() {
				defer pool.JobDone()
				err := Retry(1000, func() error {
					tx := BeginWith[string, int](b, &Options[int]{ReadEqual: intEqual})
					v, _, err := tx.Get("counter")
					if err != nil {
						return err
					}
					if err = tx.Set("counter", v+1); err != nil {
						return err
					}
					return tx.Commit(nil)
				})
				if err != nil {
					mu.Lock()
					failed = append(failed, err)
					mu.Unlock()
				}
			}
		}
		pool.WaitAll()
		So(failed, ShouldBeEmpty)
		v, _, _ := Begin[string, int](b).Get("counter")
		So(v, ShouldEqual, jobs)
	})
}

func TestSharedLock(t *testing.T) {
	Convey("Shared locks upgrade once and downgrade once", t, func() {
		var mu sync.RWMutex
		l := NewSharedLock(&mu)
		So(l.Upgraded(), ShouldBeFalse)
		So(errors.Cause(l.Downgrade()), ShouldEqual, ErrLocking)
		So(l.Upgrade(), ShouldBeNil)
		So(l.Upgraded(), ShouldBeTrue)
		So(errors.Cause(l.Upgrade()), ShouldEqual, ErrDeadlock)
		So(l.Downgrade(), ShouldBeNil)
		l.Unlock()
		l.Unlock()

		// the mutex is free again
		mu.Lock()
		mu.Unlock()
	})
}
