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

import "sync/atomic"

// Control holds the process-wide worker ceiling and cancellation flag shared
// by every executor built on it. Both are safe to change while runs are in
// flight.
type Control struct {
	maxWorkers int64
	cancelled  int32
}

// NewControl returns a control handle, maxWorkers 0 means unlimited.
func NewControl(maxWorkers int) *Control {
	c := &Control{}
	c.SetMaxWorkers(maxWorkers)
	return c
}

// SetMaxWorkers changes the live worker ceiling of every run.
func (c *Control) SetMaxWorkers(n int) {
	if n < 0 {
		n = 0
	}
	atomic.StoreInt64(&c.maxWorkers, int64(n))
}

// MaxWorkers returns the live worker ceiling, 0 means unlimited.
func (c *Control) MaxWorkers() int {
	return int(atomic.LoadInt64(&c.maxWorkers))
}

// Cancel raises the cooperative cancellation flag. It is safe to call from
// a signal handler goroutine.
func (c *Control) Cancel() {
	atomic.StoreInt32(&c.cancelled, 1)
}

// Cancelled reports whether Cancel was called since the last Reset.
func (c *Control) Cancelled() bool {
	return atomic.LoadInt32(&c.cancelled) != 0
}

// Reset clears the cancellation flag.
func (c *Control) Reset() {
	atomic.StoreInt32(&c.cancelled, 0)
}
