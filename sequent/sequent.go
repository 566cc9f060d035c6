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

// Package sequent decides classical propositional sequents by exploring
// decompositions in parallel.
package sequent

import (
	"context"

	uuid "github.com/satori/go.uuid"

	"github.com/CovenantSQL/sequent/compare"
	"github.com/CovenantSQL/sequent/executor"
	"github.com/CovenantSQL/sequent/formula"
	"github.com/CovenantSQL/sequent/utils/log"
	"github.com/CovenantSQL/sequent/utils/timer"
	"github.com/CovenantSQL/sequent/view"
)

// Debug enables invariant checks during breakdown.
var Debug = false

// Config defines the prover settings.
type Config struct {
	// UseCache routes every formula comparison through an equality cache.
	UseCache bool
	// Cache configures the equality cache, nil means in-memory defaults.
	Cache *compare.Config
}

// DefaultConfig returns a config with the equality cache enabled.
func DefaultConfig() *Config {
	return &Config{UseCache: true}
}

// Prover decides sequents on an executor. A prover is safe for
// concurrent use, proofs share its equality cache.
type Prover struct {
	exec  *executor.Executor
	cache *compare.Cache[*formula.Formula]
}

// New returns a prover running on exec, nil cfg means DefaultConfig.
func New(exec *executor.Executor, cfg *Config) *Prover {
	if exec == nil {
		exec = executor.New(nil)
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	p := &Prover{exec: exec}
	if cfg.UseCache {
		p.cache = compare.New[*formula.Formula](hashFormula, p.formulasEqual, cfg.Cache)
	}
	return p
}

// Executor returns the executor of the prover.
func (p *Prover) Executor() *executor.Executor {
	return p.exec
}

// Prove reports whether left entails right. The slices are only read.
func (p *Prover) Prove(ctx context.Context, left, right []*formula.Formula) (ok bool, err error) {
	pr := &proof{
		Prover: p,
		id:     uuid.Must(uuid.NewV4()).String(),
		timer:  timer.NewTimer(),
	}
	ok, err = pr.prove(ctx, view.Reference(left), view.Reference(right))
	pr.timer.Add("prove")

	entry := log.WithFields(pr.timer.ToLogFields()).WithFields(log.Fields{
		"proof":  pr.id,
		"left":   len(left),
		"right":  len(right),
		"proved": ok,
		"cached": p.cache != nil,
	})
	if err != nil {
		entry.WithError(err).Warning("proof failed")
	} else {
		entry.Debug("proof finished")
	}
	return
}

// Prove decides left ⊢ right on a fresh prover with the default executor,
// the equality cache is enabled unless useCache says otherwise.
func Prove(ctx context.Context, left, right []*formula.Formula, useCache ...bool) (bool, error) {
	cfg := DefaultConfig()
	if len(useCache) > 0 {
		cfg.UseCache = useCache[0]
	}
	return New(nil, cfg).Prove(ctx, left, right)
}

// proof is a single Prove run.
type proof struct {
	*Prover
	id    string
	timer *timer.Timer
}

// prove decides left ⊢ right, never modifying either side.
func (pr *proof) prove(ctx context.Context, left, right formulas) (bool, error) {
	if left.Size() == 0 && right.Size() == 0 {
		return true, nil
	}
	if ok, err := pr.axiom(ctx, left, right); err != nil || ok {
		return ok, err
	}
	return pr.breakdown(ctx, left, right)
}

// axiom looks for a formula equal on both sides, closest sizes first.
func (pr *proof) axiom(ctx context.Context, left, right formulas) (bool, error) {
	defer pr.timer.Begin("axiom")()

	pairs, err := view.Sort[pair](
		view.Cartesian[*formula.Formula, *formula.Formula](left, right), guidePair)
	if err != nil {
		return false, err
	}
	return executor.ForAny[pair](ctx, pr.exec, pairs, func(ctx context.Context, p pair) (bool, error) {
		return pr.equal(ctx, p.First, p.Second)
	})
}

// breakdown decomposes some compound formula of either side, small
// formulas first.
func (pr *proof) breakdown(ctx context.Context, left, right formulas) (bool, error) {
	defer pr.timer.Begin("breakdown")()

	side := func(f *formula.Formula) (inLeft, inRight bool) {
		return left.Count(f, view.Identical[*formula.Formula]) > 0,
			right.Count(f, view.Identical[*formula.Formula]) > 0
	}
	candidates, err := view.Sort[*formula.Formula](
		view.Concat[*formula.Formula](left, right),
		func(f *formula.Formula) float64 {
			var w int
			inLeft, inRight := side(f)
			if inLeft {
				w += f.TotalSize()
			}
			if inRight {
				w += f.TotalSize()
			}
			return float64(w)
		})
	if err != nil {
		return false, err
	}

	return executor.ForAny[*formula.Formula](ctx, pr.exec, candidates,
		func(ctx context.Context, f *formula.Formula) (bool, error) {
			single := view.Singleton(f)
			if inLeft, _ := side(f); inLeft {
				rest := view.Difference[*formula.Formula](left, single, view.Identical[*formula.Formula])
				if err := pr.check(f, left, rest); err != nil {
					return false, err
				}
				return pr.leftRule(ctx, f, rest, right)
			}
			rest := view.Difference[*formula.Formula](right, single, view.Identical[*formula.Formula])
			if err := pr.check(f, right, rest); err != nil {
				return false, err
			}
			return pr.rightRule(ctx, f, left, rest)
		})
}

// check asserts that removing f shrank its side.
func (pr *proof) check(f *formula.Formula, side, rest formulas) error {
	if !Debug {
		return nil
	}
	if rest.Size() >= side.Size() {
		log.WithFields(log.Fields{
			"proof":   pr.id,
			"formula": f.String(),
			"side":    side.String(),
		}).Error("breakdown candidate missing from its side")
		return ErrUnreachable
	}
	return nil
}
