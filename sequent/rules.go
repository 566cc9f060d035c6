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

// goal is a sub-sequent produced by a rule.
type goal struct {
	left, right formulas
}

func with(side formulas, f *formula.Formula) formulas {
	return view.Concat[*formula.Formula](side, view.Singleton(f))
}

func withChildren(side formulas, f *formula.Formula) formulas {
	return view.Concat[*formula.Formula](side, f.Children())
}

func operands(f *formula.Formula) (a, b *formula.Formula, err error) {
	if f.Size() != 2 {
		err = errors.Wrapf(ErrArity, "%s expects 2 operands, got %d", f.Symbol(), f.Size())
		return
	}
	if a, err = f.Child(0); err != nil {
		return
	}
	b, err = f.Child(1)
	return
}

func operand(f *formula.Formula) (*formula.Formula, error) {
	if f.Size() != 1 {
		return nil, errors.Wrapf(ErrArity, "%s expects 1 operand, got %d", f.Symbol(), f.Size())
	}
	return f.Child(0)
}

// all proves every goal.
func (pr *proof) all(ctx context.Context, goals ...goal) (bool, error) {
	if len(goals) == 1 {
		return pr.prove(ctx, goals[0].left, goals[0].right)
	}
	return executor.ForAll[goal](ctx, pr.exec, view.Reference(goals), func(ctx context.Context, g goal) (bool, error) {
		return pr.prove(ctx, g.left, g.right)
	})
}

// eachChild builds one goal per child of f.
func eachChild(f *formula.Formula, build func(c *formula.Formula) goal) []goal {
	goals := make([]goal, 0, f.Size())
	for i := 0; i < f.Size(); i++ {
		c, _ := f.Child(i)
		goals = append(goals, build(c))
	}
	return goals
}

// leftRule decomposes f taken from the antecedent, rest is the antecedent
// without f.
func (pr *proof) leftRule(ctx context.Context, f *formula.Formula, rest, right formulas) (bool, error) {
	switch f.Symbol() {
	case formula.True:
		return pr.prove(ctx, rest, right)
	case formula.False:
		return true, nil
	case formula.Not:
		a, err := operand(f)
		if err != nil {
			return false, err
		}
		return pr.prove(ctx, rest, with(right, a))
	case formula.And:
		return pr.prove(ctx, withChildren(rest, f), right)
	case formula.Or:
		return pr.all(ctx, eachChild(f, func(c *formula.Formula) goal {
			return goal{with(rest, c), right}
		})...)
	case formula.NAnd:
		return pr.all(ctx, eachChild(f, func(c *formula.Formula) goal {
			return goal{rest, with(right, c)}
		})...)
	case formula.NOr:
		return pr.prove(ctx, rest, withChildren(right, f))
	case formula.Impl, formula.RImpl, formula.NImpl, formula.NRImpl:
		a, b, err := operands(f)
		if err != nil {
			return false, err
		}
		switch f.Symbol() {
		case formula.Impl:
			return pr.all(ctx, goal{rest, with(right, a)}, goal{with(rest, b), right})
		case formula.RImpl:
			return pr.all(ctx, goal{rest, with(right, b)}, goal{with(rest, a), right})
		case formula.NImpl:
			return pr.prove(ctx, with(rest, a), with(right, b))
		default:
			return pr.prove(ctx, with(rest, b), with(right, a))
		}
	}
	return false, nil
}

// rightRule decomposes f taken from the succedent, rest is the succedent
// without f.
func (pr *proof) rightRule(ctx context.Context, f *formula.Formula, left, rest formulas) (bool, error) {
	switch f.Symbol() {
	case formula.True:
		return true, nil
	case formula.False:
		return pr.prove(ctx, left, rest)
	case formula.Not:
		a, err := operand(f)
		if err != nil {
			return false, err
		}
		return pr.prove(ctx, with(left, a), rest)
	case formula.And:
		return pr.all(ctx, eachChild(f, func(c *formula.Formula) goal {
			return goal{left, with(rest, c)}
		})...)
	case formula.Or:
		return pr.prove(ctx, left, withChildren(rest, f))
	case formula.NAnd:
		return pr.prove(ctx, withChildren(left, f), rest)
	case formula.NOr:
		return pr.all(ctx, eachChild(f, func(c *formula.Formula) goal {
			return goal{with(left, c), rest}
		})...)
	case formula.Impl, formula.RImpl, formula.NImpl, formula.NRImpl:
		a, b, err := operands(f)
		if err != nil {
			return false, err
		}
		switch f.Symbol() {
		case formula.Impl:
			return pr.prove(ctx, with(left, a), with(rest, b))
		case formula.RImpl:
			return pr.prove(ctx, with(left, b), with(rest, a))
		case formula.NImpl:
			return pr.all(ctx, goal{left, with(rest, a)}, goal{with(left, b), rest})
		default:
			return pr.all(ctx, goal{left, with(rest, b)}, goal{with(left, a), rest})
		}
	}
	return false, nil
}
