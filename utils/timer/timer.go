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

// Package timer measures named stages for log output.
package timer

import (
	"sync"
	"time"

	"github.com/CovenantSQL/sequent/utils/log"
)

// Timer is a stop watch with sequential pivots and accumulated stages.
// Stages may be measured from many goroutines at once.
type Timer struct {
	sync.Mutex
	start  time.Time
	names  []string
	pivots []time.Time

	spent map[string]time.Duration
	calls map[string]int64
}

// NewTimer returns a started timer.
func NewTimer() *Timer {
	return &Timer{
		start: time.Now(),
		spent: make(map[string]time.Duration),
		calls: make(map[string]int64),
	}
}

// Add records a pivot, its duration runs from the previous pivot.
func (t *Timer) Add(name string) {
	t.Lock()
	defer t.Unlock()

	t.names = append(t.names, name)
	t.pivots = append(t.pivots, time.Now())
}

// Begin starts measuring one run of stage, the returned func stops it.
func (t *Timer) Begin(stage string) (end func()) {
	begin := time.Now()
	return func() {
		t.Track(stage, time.Since(begin))
	}
}

// Track accumulates d into stage.
func (t *Timer) Track(stage string, d time.Duration) {
	t.Lock()
	defer t.Unlock()

	t.spent[stage] += d
	t.calls[stage]++
}

// Calls returns how many runs of stage were tracked.
func (t *Timer) Calls(stage string) int64 {
	t.Lock()
	defer t.Unlock()
	return t.calls[stage]
}

// ToLogFields returns the durations as log fields, stage run counts are
// reported under "<stage>_calls".
func (t *Timer) ToLogFields() log.Fields {
	f := log.Fields{}
	for k, v := range t.ToMap() {
		f[k] = v
	}

	t.Lock()
	defer t.Unlock()
	for k, n := range t.calls {
		f[k+"_calls"] = n
	}
	return f
}

// ToMap returns pivot durations, accumulated stage durations and "total",
// the time from start to the last pivot.
func (t *Timer) ToMap() map[string]time.Duration {
	t.Lock()
	defer t.Unlock()

	lp := len(t.pivots)
	m := make(map[string]time.Duration, 1+lp+len(t.spent))
	for k, v := range t.spent {
		m[k] = v
	}
	for i := 0; i != lp; i++ {
		prev := t.start
		if i > 0 {
			prev = t.pivots[i-1]
		}
		m[t.names[i]] = t.pivots[i].Sub(prev)
	}
	if lp > 0 {
		m["total"] = t.pivots[lp-1].Sub(t.start)
	}
	return m
}
