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

// Package executor fans a boolean task out over the elements of a view.
package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/rcrowley/go-metrics"

	"github.com/CovenantSQL/sequent/utils/log"
	"github.com/CovenantSQL/sequent/view"
)

// DefaultWakeupInterval is the period at which a blocked dispatcher
// re-checks cancellation.
const DefaultWakeupInterval = 4 * time.Second

// Mode selects the reduction of task results.
type Mode int

const (
	// All is the AND reduction, it stops at the first false result.
	All Mode = iota
	// Any is the OR reduction, it stops at the first true result.
	Any
)

func (m Mode) String() string {
	switch m {
	case All:
		return "All"
	case Any:
		return "Any"
	}
	return "Unknown"
}

// identity is the result of a run over an empty view.
func (m Mode) identity() bool {
	return m == All
}

// Task is evaluated once per element.
type Task[T any] func(ctx context.Context, item T) (bool, error)

// Config defines the executor settings.
type Config struct {
	// Control is the shared worker ceiling and cancellation flag.
	Control *Control
	// WakeupInterval bounds how long a blocked dispatcher sleeps between
	// cancellation checks.
	WakeupInterval time.Duration
	// Registry receives the executor meters, nil means the default registry.
	Registry metrics.Registry
}

// Executor runs tasks under one control handle.
type Executor struct {
	control *Control
	wakeup  time.Duration

	live      metrics.Counter
	spawned   metrics.Meter
	failed    metrics.Meter
	abandoned metrics.Meter
}

// New returns an executor for cfg.
func New(cfg *Config) *Executor {
	var c Config
	if cfg != nil {
		c = *cfg
	}
	if c.Control == nil {
		c.Control = NewControl(0)
	}
	if c.WakeupInterval <= 0 {
		c.WakeupInterval = DefaultWakeupInterval
	}
	if c.Registry == nil {
		c.Registry = metrics.DefaultRegistry
	}
	return &Executor{
		control:   c.Control,
		wakeup:    c.WakeupInterval,
		live:      metrics.GetOrRegisterCounter("executor.workers.live", c.Registry),
		spawned:   metrics.GetOrRegisterMeter("executor.workers.spawned", c.Registry),
		failed:    metrics.GetOrRegisterMeter("executor.tasks.failed", c.Registry),
		abandoned: metrics.GetOrRegisterMeter("executor.workers.abandoned", c.Registry),
	}
}

// Control returns the control handle of the executor.
func (e *Executor) Control() *Control {
	return e.control
}

type outcome struct {
	result bool
	err    error
}

// ForAll reports whether task holds for every element of v.
func ForAll[T any](ctx context.Context, e *Executor, v view.View[T], task Task[T]) (bool, error) {
	return Run(ctx, e, All, v, task)
}

// ForAny reports whether task holds for at least one element of v.
func ForAny[T any](ctx context.Context, e *Executor, v view.View[T], task Task[T]) (bool, error) {
	return Run(ctx, e, Any, v, task)
}

// Run spawns one worker per element of v, never more than the control
// ceiling at once, and reduces the results with mode. Dispatch stops once
// the result is decided or a task fails. Cancellation stops it as well.
// Workers still running after a failure or cancellation are abandoned and
// their context is cancelled. A failed or cancelled run returns no result.
func Run[T any](ctx context.Context, e *Executor, mode Mode, v view.View[T], task Task[T]) (result bool, err error) {
	result = mode.identity()
	n := v.Size()
	if n == 0 {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		// buffered so abandoned workers never block on send
		outcomes = make(chan outcome, n)
		ticker   = time.NewTicker(e.wakeup)
		live     int
		decided  bool
	)
	defer ticker.Stop()

	collect := func(o outcome) {
		live--
		if o.err != nil {
			// errors of siblings cancelled after the decision are moot
			if err == nil && !(decided && IsCancellation(o.err)) {
				err = o.err
			}
			return
		}
		if !decided && o.result != mode.identity() {
			result = o.result
			decided = true
			cancel()
		}
	}

	interrupted := func() error {
		if e.control.Cancelled() {
			return ErrCancelled
		}
		return ctx.Err()
	}

	for i := 0; i < n && !decided && err == nil; i++ {
		if err = interrupted(); err != nil {
			break
		}

		for ceiling := e.control.MaxWorkers(); ceiling > 0 && live >= ceiling && err == nil; ceiling = e.control.MaxWorkers() {
			select {
			case o := <-outcomes:
				collect(o)
			case <-ticker.C:
				err = interrupted()
			case <-ctx.Done():
				err = ctx.Err()
			}
		}
		if decided || err != nil {
			break
		}

		var item T
		if item, err = v.At(i); err != nil {
			break
		}

		live++
		e.live.Inc(1)
		e.spawned.Mark(1)
		go work(runCtx, e, task, item, outcomes)
	}

	for live > 0 && err == nil {
		select {
		case o := <-outcomes:
			collect(o)
		case <-ticker.C:
			err = interrupted()
		case <-ctx.Done():
			err = ctx.Err()
		}
	}

	if err != nil {
		if live > 0 {
			e.abandoned.Mark(int64(live))
			log.WithFields(log.Fields{
				"mode":      mode,
				"abandoned": live,
				"view":      v.String(),
			}).WithError(err).Debug("abandon parallel workers")
		}
		result = false
	}

	return
}

func work[T any](ctx context.Context, e *Executor, task Task[T], item T, outcomes chan<- outcome) {
	var o outcome
	defer func() {
		if r := recover(); r != nil {
			o = outcome{err: errors.Wrap(ErrConcurrency, fmt.Sprintf("task panicked: %v", r))}
		}
		if o.err != nil {
			e.failed.Mark(1)
		}
		e.live.Dec(1)
		outcomes <- o
	}()
	o.result, o.err = task(ctx, item)
}
