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

package executor

import (
	"context"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fortytw2/leaktest"
	"github.com/pkg/errors"
	"github.com/rcrowley/go-metrics"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/CovenantSQL/sequent/view"
)

var errTask = errors.New("task failed")

func init() {
	// the first meter starts the go-metrics ticker, keep it out of leak checks
	metrics.NewMeter().Stop()
	runtime.Gosched()
}

func newTestExecutor(maxWorkers int) *Executor {
	return New(&Config{
		Control:        NewControl(maxWorkers),
		WakeupInterval: 10 * time.Millisecond,
		Registry:       metrics.NewRegistry(),
	})
}

func ints(n int) view.View[int] {
	items := make([]int, n)
	for i := range items {
		items[i] = i
	}
	return view.Reference(items)
}

func TestReduction(t *testing.T) {
	defer leaktest.Check(t)()
	ctx := context.Background()

	Convey("Empty views degrade to the identity", t, func() {
		e := newTestExecutor(0)
		never := func(context.Context, int) (bool, error) {
			panic("must not run")
		}
		ok, err := ForAll[int](ctx, e, view.Empty[int](), never)
		So(err, ShouldBeNil)
		So(ok, ShouldBeTrue)
		ok, err = ForAny[int](ctx, e, view.Empty[int](), never)
		So(err, ShouldBeNil)
		So(ok, ShouldBeFalse)
	})
	Convey("ForAll and ForAny reduce results", t, func() {
		e := newTestExecutor(0)
		even := func(_ context.Context, x int) (bool, error) { return x%2 == 0, nil }
		positive := func(_ context.Context, x int) (bool, error) { return x >= 0, nil }
		big := func(_ context.Context, x int) (bool, error) { return x > 100, nil }

		ok, err := ForAll(ctx, e, ints(10), positive)
		So(err, ShouldBeNil)
		So(ok, ShouldBeTrue)
		ok, err = ForAll(ctx, e, ints(10), even)
		So(err, ShouldBeNil)
		So(ok, ShouldBeFalse)
		ok, err = ForAny(ctx, e, ints(10), even)
		So(err, ShouldBeNil)
		So(ok, ShouldBeTrue)
		ok, err = ForAny(ctx, e, ints(10), big)
		So(err, ShouldBeNil)
		So(ok, ShouldBeFalse)
	})
	Convey("Nested runs share the control", t, func() {
		e := newTestExecutor(2)
		ok, err := ForAll(ctx, e, ints(4), func(ctx context.Context, x int) (bool, error) {
			return ForAny(ctx, e, ints(4), func(_ context.Context, y int) (bool, error) {
				return x == y, nil
			})
		})
		So(err, ShouldBeNil)
		So(ok, ShouldBeTrue)
	})
}

func TestFailures(t *testing.T) {
	defer leaktest.Check(t)()
	ctx := context.Background()

	Convey("A task error is returned without a result", t, func() {
		e := newTestExecutor(0)
		ok, err := ForAny(ctx, e, ints(8), func(_ context.Context, x int) (bool, error) {
			if x == 3 {
				return false, errTask
			}
			return false, nil
		})
		So(errors.Cause(err), ShouldEqual, errTask)
		So(ok, ShouldBeFalse)
	})
	Convey("A panicking task becomes a concurrency error", t, func() {
		e := newTestExecutor(0)
		_, err := ForAll(ctx, e, ints(3), func(_ context.Context, x int) (bool, error) {
			if x == 1 {
				panic("boom")
			}
			return true, nil
		})
		So(errors.Cause(err), ShouldEqual, ErrConcurrency)
		So(err.Error(), ShouldContainSubstring, "boom")
	})
	Convey("Workers still running after a failure are abandoned", t, func() {
		e := newTestExecutor(0)
		release := make(chan struct{})
		defer close(release)
		_, err := ForAll(ctx, e, ints(2), func(ctx context.Context, x int) (bool, error) {
			if x == 0 {
				return false, errTask
			}
			select {
			case <-release:
			case <-ctx.Done():
			}
			return true, nil
		})
		So(errors.Cause(err), ShouldEqual, errTask)
	})
}

func TestCeiling(t *testing.T) {
	defer leaktest.Check(t)()

	Convey("Live workers never exceed the ceiling", t, func() {
		e := newTestExecutor(2)
		var live, peak int32
		ok, err := ForAll(context.Background(), e, ints(12), func(context.Context, int) (bool, error) {
			n := atomic.AddInt32(&live, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&live, -1)
			return true, nil
		})
		So(err, ShouldBeNil)
		So(ok, ShouldBeTrue)
		So(atomic.LoadInt32(&peak), ShouldBeLessThanOrEqualTo, 2)
	})
	Convey("The ceiling can be raised while blocked", t, func() {
		e := newTestExecutor(1)
		started := make(chan struct{}, 2)
		release := make(chan struct{})
		done := make(chan error, 1)
		go func() {
			_, err := ForAll(context.Background(), e, ints(2), func(context.Context, int) (bool, error) {
				started <- struct{}{}
				<-release
				return true, nil
			})
			done <- err
		}()
		<-started
		e.Control().SetMaxWorkers(0)
		<-started
		close(release)
		So(<-done, ShouldBeNil)
	})
}

func TestCancellation(t *testing.T) {
	defer leaktest.Check(t)()

	Convey("A cancelled control refuses to dispatch", t, func() {
		e := newTestExecutor(0)
		e.Control().Cancel()
		So(e.Control().Cancelled(), ShouldBeTrue)
		_, err := ForAll(context.Background(), e, ints(3), func(context.Context, int) (bool, error) {
			return true, nil
		})
		So(errors.Cause(err), ShouldEqual, ErrCancelled)
		So(IsCancellation(err), ShouldBeTrue)
		e.Control().Reset()
		So(e.Control().Cancelled(), ShouldBeFalse)
	})
	Convey("Cancelling while blocked on the ceiling stops the run", t, func() {
		e := newTestExecutor(1)
		release := make(chan struct{})
		started := make(chan struct{}, 1)
		done := make(chan error, 1)
		go func() {
			_, err := ForAny(context.Background(), e, ints(3), func(context.Context, int) (bool, error) {
				started <- struct{}{}
				<-release
				return false, nil
			})
			done <- err
		}()
		<-started
		e.Control().Cancel()
		err := <-done
		close(release)
		So(errors.Cause(err), ShouldEqual, ErrCancelled)
	})
	Convey("A cancelled context stops the run", t, func() {
		e := newTestExecutor(0)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := ForAll(ctx, e, ints(3), func(context.Context, int) (bool, error) {
			return true, nil
		})
		So(errors.Cause(err), ShouldEqual, context.Canceled)
	})
}
