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

package sequent

import (
	"context"

	"github.com/pkg/errors"

	"github.com/CovenantSQL/sequent/executor"
	"github.com/CovenantSQL/sequent/formula"
	"github.com/CovenantSQL/sequent/view"
)

type (
	formulas = view.View[*formula.Formula]
	pair     = view.Pair[*formula.Formula, *formula.Formula]
)

func hashFormula(f *formula.Formula) uint64 { return f.Hash(0) }

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// guideEqual grows with the sizes of a and b and with their difference,
// pairs that are likely equal come first when sorted ascending.
func guideEqual(a, b *formula.Formula) float64 {
	sa, sb := a.TotalSize(), b.TotalSize()
	return float64((sa + sb) * (1 + absInt(sa-sb)))
}

func guidePair(p pair) float64 { return guideEqual(p.First, p.Second) }

// equal decides formula equality through the cache when enabled.
func (p *Prover) equal(ctx context.Context, a, b *formula.Formula) (bool, error) {
	if p.cache != nil {
		return p.cache.Equal(ctx, a, b)
	}
	return p.formulasEqual(ctx, a, b)
}

// formulasEqual is the deep comparison behind equal. Commutative
// connectives compare by mutual containment of their children, other
// connectives position by position.
func (p *Prover) formulasEqual(ctx context.Context, a, b *formula.Formula) (bool, error) {
	sym := a.Symbol()
	if sym != b.Symbol() {
		return false, nil
	}
	if a.Identical(b) {
		return true, nil
	}
	if sym.IsRelation() || sym.IsQuantifier() {
		return false, errors.Wrapf(formula.ErrNotImplemented, "equality of %s", sym)
	}

	if sym.IsCommutative() {
		if !sym.IsIdempotent() && a.Size() != b.Size() {
			return false, nil
		}
		if ok, err := p.contains(ctx, a, b); err != nil || !ok {
			return false, err
		}
		return p.contains(ctx, b, a)
	}

	if a.Size() != b.Size() {
		return false, nil
	}
	zipped, err := view.Zip[*formula.Formula, *formula.Formula](a.Children(), b.Children())
	if err != nil {
		return false, err
	}
	// most different pairs first, they fail fastest
	pairs, err := view.Sort[pair](zipped, func(pr pair) float64 { return -guidePair(pr) })
	if err != nil {
		return false, err
	}
	return executor.ForAll[pair](ctx, p.exec, pairs, func(ctx context.Context, pr pair) (bool, error) {
		return p.equal(ctx, pr.First, pr.Second)
	})
}

// contains reports whether every child of a equals some child of b.
func (p *Prover) contains(ctx context.Context, a, b *formula.Formula) (bool, error) {
	return executor.ForAll[*formula.Formula](ctx, p.exec, a.Children(),
		func(ctx context.Context, ca *formula.Formula) (bool, error) {
			candidates, err := view.Sort[*formula.Formula](b.Children(), func(cb *formula.Formula) float64 {
				return guideEqual(ca, cb)
			})
			if err != nil {
				return false, err
			}
			return executor.ForAny[*formula.Formula](ctx, p.exec, candidates,
				func(ctx context.Context, cb *formula.Formula) (bool, error) {
					return p.equal(ctx, ca, cb)
				})
		})
}
