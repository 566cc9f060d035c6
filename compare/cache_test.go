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
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
	"github.com/rcrowley/go-metrics"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/CovenantSQL/sequent/store"
)

type item struct {
	id    uint64
	group int
	parts []*item
}

func (i *item) Identity() uint64 { return i.id }

func (i *item) String() string { return fmt.Sprintf("item#%d", i.id) }

var lastID uint64

func newItem(group int, parts ...*item) *item {
	return &item{id: atomic.AddUint64(&lastID, 1), group: group, parts: parts}
}

func groupHash(i *item) uint64 { return uint64(i.group) }

type counter struct {
	calls int64
	err   error
}

func (c *counter) compare(_ context.Context, a, b *item) (bool, error) {
	atomic.AddInt64(&c.calls, 1)
	return a.group == b.group, c.err
}

func (c *counter) count() int64 { return atomic.LoadInt64(&c.calls) }

// corrupting breaks the first n stores by writing a different value.
type corrupting struct {
	*store.Memory[uint64, uint64]
	remaining int64
}

func (c *corrupting) Store(key, value uint64) error {
	if atomic.AddInt64(&c.remaining, -1) >= 0 {
		value ^= 1
	}
	return c.Memory.Store(key, value)
}

func meterCount(r metrics.Registry, name string) int64 {
	return r.Get(name).(metrics.Meter).Count()
}

func TestCache(t *testing.T) {
	ctx := context.Background()

	Convey("Identical values are equal without comparing", t, func() {
		c := &counter{}
		cache := New[*item](groupHash, c.compare, &Config{Registry: metrics.NewRegistry()})
		x := newItem(1)
		ok, err := cache.Equal(ctx, x, x)
		So(err, ShouldBeNil)
		So(ok, ShouldBeTrue)
		So(c.count(), ShouldEqual, 0)
	})
	Convey("Proven equalities are remembered", t, func() {
		c := &counter{}
		cache := New[*item](groupHash, c.compare, &Config{Registry: metrics.NewRegistry()})
		x, y, z := newItem(1), newItem(1), newItem(1)

		ok, err := cache.Equal(ctx, x, y)
		So(err, ShouldBeNil)
		So(ok, ShouldBeTrue)
		So(c.count(), ShouldEqual, 1)

		ok, err = cache.Equal(ctx, y, x)
		So(err, ShouldBeNil)
		So(ok, ShouldBeTrue)
		So(c.count(), ShouldEqual, 1)

		ok, _ = cache.Equal(ctx, z, y)
		So(ok, ShouldBeTrue)
		So(c.count(), ShouldEqual, 2)
		ok, _ = cache.Equal(ctx, x, z)
		So(ok, ShouldBeTrue)
		So(c.count(), ShouldEqual, 2)

		for _, v := range []*item{x, y, z} {
			root, err := cache.Root(v)
			So(err, ShouldBeNil)
			So(root, ShouldEqual, x.id)
		}
	})
	Convey("Different hashes short-circuit", t, func() {
		c := &counter{}
		cache := New[*item](groupHash, c.compare, &Config{Registry: metrics.NewRegistry()})
		ok, err := cache.Equal(ctx, newItem(1), newItem(2))
		So(err, ShouldBeNil)
		So(ok, ShouldBeFalse)
		So(c.count(), ShouldEqual, 0)
	})
	Convey("Failed comparisons are not remembered", t, func() {
		c := &counter{}
		hashAll := func(*item) uint64 { return 7 }
		cache := New[*item](hashAll, c.compare, &Config{Registry: metrics.NewRegistry()})
		x, y := newItem(1), newItem(2)
		for i := 0; i < 2; i++ {
			ok, err := cache.Equal(ctx, x, y)
			So(err, ShouldBeNil)
			So(ok, ShouldBeFalse)
		}
		So(c.count(), ShouldEqual, 2)
	})
	Convey("Comparison errors propagate", t, func() {
		boom := errors.New("boom")
		c := &counter{err: boom}
		cache := New[*item](groupHash, c.compare, &Config{Registry: metrics.NewRegistry()})
		_, err := cache.Equal(ctx, newItem(1), newItem(1))
		So(errors.Cause(err), ShouldEqual, boom)
	})
}

func TestNestedEqual(t *testing.T) {
	Convey("The compare function may query the cache", t, func() {
		var (
			cache *Cache[*item]
			calls int64
		)
		cmp := func(ctx context.Context, a, b *item) (bool, error) {
			atomic.AddInt64(&calls, 1)
			if len(a.parts) != len(b.parts) {
				return false, nil
			}
			for i := range a.parts {
				if ok, err := cache.Equal(ctx, a.parts[i], b.parts[i]); err != nil || !ok {
					return false, err
				}
			}
			return true, nil
		}
		cache = New[*item](groupHash, cmp, &Config{Registry: metrics.NewRegistry()})

		x := newItem(3, newItem(1), newItem(2))
		y := newItem(3, newItem(1), newItem(2))
		ok, err := cache.Equal(context.Background(), x, y)
		So(err, ShouldBeNil)
		So(ok, ShouldBeTrue)
		So(atomic.LoadInt64(&calls), ShouldEqual, 3)

		ok, err = cache.Equal(context.Background(), x.parts[0], y.parts[0])
		So(err, ShouldBeNil)
		So(ok, ShouldBeTrue)
		So(atomic.LoadInt64(&calls), ShouldEqual, 3)
	})
}

func TestConflicts(t *testing.T) {
	ctx := context.Background()

	Convey("Transient conflicts are retried", t, func() {
		r := metrics.NewRegistry()
		c := &counter{}
		hashes := &corrupting{Memory: store.NewMemory[uint64, uint64](), remaining: 3}
		cache := New[*item](groupHash, c.compare, &Config{Hashes: hashes, Registry: r})
		ok, err := cache.Equal(ctx, newItem(1), newItem(1))
		So(err, ShouldBeNil)
		So(ok, ShouldBeTrue)
		So(c.count(), ShouldEqual, 1)
		So(meterCount(r, "compare.lock.upgrade"), ShouldEqual, 0)
	})
	Convey("Persistent conflicts upgrade the lock then give up", t, func() {
		r := metrics.NewRegistry()
		c := &counter{}
		hashes := &corrupting{Memory: store.NewMemory[uint64, uint64](), remaining: 1 << 30}
		cache := New[*item](groupHash, c.compare, &Config{Hashes: hashes, Registry: r})
		_, err := cache.Equal(ctx, newItem(1), newItem(1))
		So(store.IsConflict(err), ShouldBeTrue)
		So(c.count(), ShouldEqual, 0)
		So(meterCount(r, "compare.lock.upgrade"), ShouldEqual, 1)
	})
}

func TestConcurrentClasses(t *testing.T) {
	Convey("Concurrent queries build consistent classes", t, func() {
		parents, err := store.OpenLevelDB[uint64, uint64]("")
		So(err, ShouldBeNil)
		defer parents.Close()

		c := &counter{}
		cache := New[*item](groupHash, c.compare, &Config{
			Parents:  parents,
			Registry: metrics.NewRegistry(),
		})

		const groups, perGroup = 3, 6
		items := make([]*item, 0, groups*perGroup)
		for g := 0; g < groups; g++ {
			for i := 0; i < perGroup; i++ {
				items = append(items, newItem(g))
			}
		}

		var (
			wg     sync.WaitGroup
			mu     sync.Mutex
			failed []error
		)
		for i := range items {
			for j := range items {
				wg.Add(1)
				go func(a, b *item) {
					defer wg.Done()
					ok, err := cache.Equal(context.Background(), a, b)
					if err == nil && ok != (a.group == b.group) {
						err = errors.Errorf("%s vs %s: got %v", a, b, ok)
					}
					if err != nil {
						mu.Lock()
						failed = append(failed, err)
						mu.Unlock()
					}
				}(items[i], items[j])
			}
		}
		wg.Wait()
		So(failed, ShouldBeEmpty)

		for g := 0; g < groups; g++ {
			first := items[g*perGroup]
			want, err := cache.Root(first)
			So(err, ShouldBeNil)
			So(want, ShouldEqual, first.id)
			for _, v := range items[g*perGroup : (g+1)*perGroup] {
				root, err := cache.Root(v)
				So(err, ShouldBeNil)
				So(root, ShouldEqual, want)
			}
		}
	})
}
