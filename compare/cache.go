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

// Package compare memoizes an expensive equivalence with a concurrent
// union-find and a hash cache, both kept in transactional stores.
package compare

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/rcrowley/go-metrics"

	"github.com/CovenantSQL/sequent/conf"
	"github.com/CovenantSQL/sequent/store"
	"github.com/CovenantSQL/sequent/utils/log"
)

// Value is an element with a stable process unique identity.
type Value interface {
	Identity() uint64
}

// HashFunc computes the structural hash of a value.
type HashFunc[V Value] func(v V) uint64

// CompareFunc is the deep equivalence. It may call Cache.Equal on parts of
// its arguments with the given context.
type CompareFunc[V Value] func(ctx context.Context, a, b V) (bool, error)

// Limits holds the retry limits of each call site.
type Limits struct {
	Hash          int
	Join          int
	Find          int
	UnlockedEqual int
	LockedEqual   int
}

// DefaultLimits returns the built-in retry limits.
func DefaultLimits() Limits {
	return Limits{
		Hash:          conf.DefaultHashRetries,
		Join:          conf.DefaultJoinRetries,
		Find:          conf.DefaultFindRetries,
		UnlockedEqual: conf.DefaultUnlockedEqualRetries,
		LockedEqual:   conf.DefaultLockedEqualRetries,
	}
}

// LimitsFromConfig returns the retry limits of c.
func LimitsFromConfig(c *conf.CacheConfig) Limits {
	return Limits{
		Hash:          c.HashRetries,
		Join:          c.JoinRetries,
		Find:          c.FindRetries,
		UnlockedEqual: c.UnlockedEqualRetries,
		LockedEqual:   c.LockedEqualRetries,
	}
}

// Config defines the cache settings.
type Config struct {
	// Parents maps an identity to its union-find parent, nil means memory.
	Parents store.Backend[uint64, uint64]
	// Hashes maps an identity to its memoized hash, nil means memory.
	Hashes store.Backend[uint64, uint64]
	// Limits are the retry limits, zero means DefaultLimits.
	Limits Limits
	// Registry receives the cache meters, nil means the default registry.
	Registry metrics.Registry
}

// Cache answers equivalence queries, remembering every proven equality.
// Roots are never ranked, the lower identity always becomes the parent.
type Cache[V Value] struct {
	hash    HashFunc[V]
	compare CompareFunc[V]
	parents store.Backend[uint64, uint64]
	hashes  store.Backend[uint64, uint64]
	limits  Limits
	lock    sync.RWMutex

	identityHits metrics.Meter
	classHits    metrics.Meter
	hashMisses   metrics.Meter
	deepCompares metrics.Meter
	upgrades     metrics.Meter
}

// New returns a cache over hash and compare.
func New[V Value](hash HashFunc[V], compare CompareFunc[V], cfg *Config) *Cache[V] {
	var c Config
	if cfg != nil {
		c = *cfg
	}
	if c.Parents == nil {
		c.Parents = store.NewMemory[uint64, uint64]()
	}
	if c.Hashes == nil {
		c.Hashes = store.NewMemory[uint64, uint64]()
	}
	if c.Limits == (Limits{}) {
		c.Limits = DefaultLimits()
	}
	if c.Registry == nil {
		c.Registry = metrics.DefaultRegistry
	}
	return &Cache[V]{
		hash:         hash,
		compare:      compare,
		parents:      c.Parents,
		hashes:       c.Hashes,
		limits:       c.Limits,
		identityHits: metrics.GetOrRegisterMeter("compare.identity.hit", c.Registry),
		classHits:    metrics.GetOrRegisterMeter("compare.class.hit", c.Registry),
		hashMisses:   metrics.GetOrRegisterMeter("compare.hash.miss", c.Registry),
		deepCompares: metrics.GetOrRegisterMeter("compare.deep", c.Registry),
		upgrades:     metrics.GetOrRegisterMeter("compare.lock.upgrade", c.Registry),
	}
}

type lockKey struct{}

// Equal reports whether a and b are equivalent. Conflicting transactions
// are retried under the shared cache lock, then under the exclusive lock
// once the unlocked limit is reached. Nested calls made by the compare
// function run under the lock of the outermost call.
func (c *Cache[V]) Equal(ctx context.Context, a, b V) (equal bool, err error) {
	if a.Identity() == b.Identity() {
		c.identityHits.Mark(1)
		return true, nil
	}

	if ctx.Value(lockKey{}) != nil {
		// nested call, the outermost call owns the lock and the upgrade
		for failures := 0; ; failures++ {
			if equal, err = c.equal(ctx, a, b); err == nil || !store.IsConflict(err) ||
				failures+1 >= c.limits.UnlockedEqual {
				return
			}
		}
	}

	lock := store.NewSharedLock(&c.lock)
	defer lock.Unlock()
	ctx = context.WithValue(ctx, lockKey{}, lock)

	for failures := 0; ; {
		if equal, err = c.equal(ctx, a, b); err == nil || !store.IsConflict(err) {
			return
		}
		failures++
		if failures >= c.limits.LockedEqual {
			err = errors.Wrapf(err, "equality still conflicting after %d attempts", failures)
			return
		}
		if failures >= c.limits.UnlockedEqual && !lock.Upgraded() {
			c.upgrades.Mark(1)
			log.WithFields(log.Fields{
				"a":        a.Identity(),
				"b":        b.Identity(),
				"failures": failures,
			}).Debug("upgrade equality cache lock")
			if err = lock.Upgrade(); err != nil {
				return
			}
		}
	}
}

func (c *Cache[V]) equal(ctx context.Context, a, b V) (bool, error) {
	ra, err := c.find(a.Identity())
	if err != nil {
		return false, err
	}
	rb, err := c.find(b.Identity())
	if err != nil {
		return false, err
	}
	if ra == rb {
		c.classHits.Mark(1)
		return true, nil
	}

	ha, err := c.memoHash(a)
	if err != nil {
		return false, err
	}
	hb, err := c.memoHash(b)
	if err != nil {
		return false, err
	}
	if ha != hb {
		c.hashMisses.Mark(1)
		return false, nil
	}

	c.deepCompares.Mark(1)
	equal, err := c.compare(ctx, a, b)
	if err != nil || !equal {
		return false, err
	}
	return true, c.join(a.Identity(), b.Identity())
}

// Hash returns the memoized hash of v.
func (c *Cache[V]) Hash(v V) (uint64, error) {
	return c.memoHash(v)
}
