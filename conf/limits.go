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

package conf

import "time"

// Retry limits of the equality cache, per call site.
const (
	// DefaultHashRetries bounds memoizing one hash.
	DefaultHashRetries = 2
	// DefaultJoinRetries bounds merging two equivalence classes.
	DefaultJoinRetries = 4
	// DefaultFindRetries bounds resolving a class root.
	DefaultFindRetries = 4
	// DefaultUnlockedEqualRetries is the number of failed equality checks
	// under the shared lock before upgrading to the exclusive lock.
	DefaultUnlockedEqualRetries = 6
	// DefaultLockedEqualRetries is the total number of failed equality
	// checks before giving up.
	DefaultLockedEqualRetries = 10
)

const (
	// DefaultWakeupInterval is how often a blocked dispatcher re-checks
	// cancellation.
	DefaultWakeupInterval = 4 * time.Second
	// DefaultLogLevel is the level used when none is configured.
	DefaultLogLevel = "info"
	// DefaultMetricInterval is the period of metric log and graphite reports.
	DefaultMetricInterval = 5 * time.Second
)

// Cache backends.
const (
	// MemoryBackend keeps the cache maps in Go maps.
	MemoryBackend = "memory"
	// LevelDBBackend keeps the cache maps in leveldb.
	LevelDBBackend = "leveldb"
)
