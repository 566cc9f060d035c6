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

package timer

import (
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestTimer(t *testing.T) {
	Convey("Pivots measure sequential stages", t, func() {
		t := NewTimer()
		time.Sleep(time.Millisecond * 20)
		t.Add("parse")
		time.Sleep(time.Millisecond * 50)
		t.Add("prove")

		m := t.ToMap()
		So(m, ShouldHaveLength, 3)
		So(m["parse"], ShouldBeGreaterThanOrEqualTo, time.Millisecond*20)
		So(m["prove"], ShouldBeGreaterThanOrEqualTo, time.Millisecond*50)
		So(m["total"], ShouldBeGreaterThanOrEqualTo, time.Millisecond*70)
	})
	Convey("Concurrent stages accumulate", t, func() {
		t := NewTimer()
		var wg sync.WaitGroup
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				end := t.Begin("axiom")
				time.Sleep(time.Millisecond * 10)
				end()
			}()
		}
		wg.Wait()
		So(t.Calls("axiom"), ShouldEqual, 4)

		m := t.ToMap()
		So(m, ShouldHaveLength, 1)
		So(m["axiom"], ShouldBeGreaterThanOrEqualTo, time.Millisecond*40)

		f := t.ToLogFields()
		So(f, ShouldContainKey, "axiom")
		So(f["axiom_calls"], ShouldEqual, int64(4))
		So(f["axiom"], ShouldEqual, m["axiom"])
	})
}
