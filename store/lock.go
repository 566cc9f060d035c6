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

import "sync"

// SharedLock is a read lock on a RWMutex that can be upgraded to the write
// lock and back. Upgrading releases the read lock before waiting for the
// write lock, so state observed under the read lock must be revalidated.
// A SharedLock is owned by one goroutine.
type SharedLock struct {
	mu       *sync.RWMutex
	held     bool
	upgraded bool
}

// NewSharedLock acquires the read lock of mu.
func NewSharedLock(mu *sync.RWMutex) *SharedLock {
	mu.RLock()
	return &SharedLock{mu: mu, held: true}
}

// Upgraded reports whether the write lock is held.
func (l *SharedLock) Upgraded() bool { return l.upgraded }

// Upgrade trades the read lock for the write lock.
func (l *SharedLock) Upgrade() error {
	if l.upgraded {
		return ErrDeadlock
	}
	if l.held {
		l.mu.RUnlock()
	}
	l.mu.Lock()
	l.held, l.upgraded = true, true
	return nil
}

// Downgrade trades the write lock back for the read lock.
func (l *SharedLock) Downgrade() error {
	if !l.upgraded {
		return ErrLocking
	}
	l.mu.Unlock()
	l.mu.RLock()
	l.upgraded = false
	return nil
}

// Unlock releases whichever lock is held.
func (l *SharedLock) Unlock() {
	if !l.held {
		return
	}
	if l.upgraded {
		l.mu.Unlock()
	} else {
		l.mu.RUnlock()
	}
	l.held, l.upgraded = false, false
}
