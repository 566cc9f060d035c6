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
	"github.com/pkg/errors"
	"github.com/rcrowley/go-metrics"

	"github.com/CovenantSQL/sequent/utils/log"
)

var (
	commitMeter   metrics.Meter
	conflictMeter metrics.Meter
	retryMeter    metrics.Meter
)

func init() {
	commitMeter = metrics.NewMeter()
	metrics.Register("store-commit", commitMeter)
	conflictMeter = metrics.NewMeter()
	metrics.Register("store-conflict", conflictMeter)
	retryMeter = metrics.NewMeter()
	metrics.Register("store-retry", retryMeter)
}

// Hook is called during commit while the backend write lock is held.
type Hook func() error

// Hooks defines the commit callbacks. A failing BeforeApply aborts the
// commit untouched, a failing AfterCommit is reported but the commit stays.
type Hooks struct {
	BeforeApply    Hook
	BeforeRollback Hook
	AfterCommit    Hook
}

func (h *Hooks) call(hook func(*Hooks) Hook) error {
	if h == nil {
		return nil
	}
	if fn := hook(h); fn != nil {
		return fn()
	}
	return nil
}

// Validator inspects the backend after the writes are applied through a
// fresh transaction.
type Validator[K comparable, V any] func(fresh *Tx[K, V]) (bool, error)

type prior[V any] struct {
	value  V
	exists bool
}

// Commit applies the buffered writes and deletes, then runs validate on a
// fresh transaction over the updated backend. When validate rejects, every
// touched key is restored to its previous state and an ErrTransaction is
// returned. The backend write lock is held for the whole commit, a commit
// without writes or deletes only holds the read lock.
func (tx *Tx[K, V]) Commit(validate Validator[K, V]) (err error) {
	if tx.done {
		return ErrTxDone
	}

	b := tx.backend
	if len(tx.writes) == 0 && len(tx.deletes) == 0 {
		// nothing to apply, validation only needs a stable view
		b.RLock()
		defer b.RUnlock()
	} else {
		b.Lock()
		defer b.Unlock()
	}

	if err = tx.checkReads(); err != nil {
		conflictMeter.Mark(1)
		return
	}
	if err = tx.opts.Hooks.call(func(h *Hooks) Hook { return h.BeforeApply }); err != nil {
		return errors.Wrap(err, "before apply hook failed")
	}

	touched := make(map[K]prior[V], len(tx.writes)+len(tx.deletes))
	capture := func(k K) error {
		if _, ok := touched[k]; ok {
			return nil
		}
		v, exists, err := b.Load(k)
		if err != nil {
			return err
		}
		touched[k] = prior[V]{value: v, exists: exists}
		return nil
	}
	for k := range tx.writes {
		if err = capture(k); err != nil {
			return
		}
	}
	for k := range tx.deletes {
		if err = capture(k); err != nil {
			return
		}
	}

	if err = tx.apply(); err == nil {
		var ok bool
		fresh := tx.fresh()
		if ok, err = tx.validate(validate, fresh); err == nil && !ok {
			err = errors.Wrap(ErrTransaction, "validation rejected commit")
		}
	}

	if err != nil {
		conflictMeter.Mark(1)
		if hookErr := tx.opts.Hooks.call(func(h *Hooks) Hook { return h.BeforeRollback }); hookErr != nil {
			log.WithError(hookErr).Warning("before rollback hook failed")
		}
		if restoreErr := restore(b, touched); restoreErr != nil {
			log.WithError(restoreErr).Error("restore transaction failed")
			return errors.Wrap(restoreErr, "restore transaction failed")
		}
		return
	}

	tx.done = true
	commitMeter.Mark(1)
	if hookErr := tx.opts.Hooks.call(func(h *Hooks) Hook { return h.AfterCommit }); hookErr != nil {
		log.WithError(hookErr).Warning("after commit hook failed")
	}
	return
}

func (tx *Tx[K, V]) fresh() *Tx[K, V] {
	fresh := BeginWith(tx.backend, &Options[V]{CopyOnRead: tx.opts.CopyOnRead})
	fresh.locked = true
	return fresh
}

func (tx *Tx[K, V]) validate(validate Validator[K, V], fresh *Tx[K, V]) (ok bool, err error) {
	if validate == nil {
		return true, nil
	}
	defer func() {
		fresh.done = true
	}()
	return validate(fresh)
}

// checkReads compares the read set against the backend, requires the write lock.
func (tx *Tx[K, V]) checkReads() error {
	if tx.opts.ReadEqual == nil {
		return nil
	}
	for k, known := range tx.present {
		current, exists, err := tx.backend.Load(k)
		if err != nil {
			return err
		}
		if exists != known {
			return errors.Wrapf(ErrTransaction, "membership of %v changed", k)
		}
		if exists && !tx.opts.ReadEqual(tx.reads[k], current) {
			return errors.Wrapf(ErrTransaction, "value of %v changed", k)
		}
	}
	return nil
}

func (tx *Tx[K, V]) apply() error {
	for _, k := range tx.writeOrder {
		if v, ok := tx.writes[k]; ok {
			if err := tx.backend.Store(k, v); err != nil {
				return err
			}
		}
	}
	for k := range tx.deletes {
		if err := tx.backend.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

func restore[K comparable, V any](b Backend[K, V], touched map[K]prior[V]) error {
	for k, p := range touched {
		var err error
		if p.exists {
			err = b.Store(k, p.value)
		} else {
			err = b.Delete(k)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Retry calls fn until it succeeds or returns an error other than a
// transaction conflict, at most limit times. The last error is returned
// once the limit is exceeded.
func Retry(limit int, fn func() error) (err error) {
	if limit < 1 {
		limit = 1
	}
	for attempt := 1; attempt <= limit; attempt++ {
		if err = fn(); err == nil || !IsConflict(err) {
			return
		}
		if attempt < limit {
			retryMeter.Mark(1)
			log.WithFields(log.Fields{
				"attempt": attempt,
				"limit":   limit,
			}).WithError(err).Debug("retry conflicting transaction")
		}
	}
	return
}
