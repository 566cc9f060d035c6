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

	"github.com/CovenantSQL/sequent/formula"
)

// Scenario is a sequent with its expected verdict, sides are written in
// formula.ParseList syntax.
type Scenario struct {
	Left  string
	Right string
	Want  bool
}

func (s Scenario) String() string {
	return "{" + s.Left + "} ⊢ {" + s.Right + "}"
}

// Parse returns both sides of the scenario.
func (s Scenario) Parse() (left, right []*formula.Formula, err error) {
	if left, err = formula.ParseList(s.Left); err != nil {
		return nil, nil, errors.Wrap(err, "parse left side")
	}
	if right, err = formula.ParseList(s.Right); err != nil {
		return nil, nil, errors.Wrap(err, "parse right side")
	}
	return
}

// Run proves the scenario on p and reports whether the verdict matched.
func (s Scenario) Run(ctx context.Context, p *Prover) (matched bool, err error) {
	left, right, err := s.Parse()
	if err != nil {
		return false, err
	}
	got, err := p.Prove(ctx, left, right)
	if err != nil {
		return false, errors.Wrapf(err, "prove %s", s)
	}
	return got == s.Want, nil
}

// Scenarios is the regression suite of known verdicts.
var Scenarios = []Scenario{
	{"", "", true},
	{"a", "a", true},
	{"a", "b", false},
	{"a", "b, a", true},
	{"a, b", "a", true},
	{"", "b", false},
	{"", "a", false},
	{"Or(a, b)", "b", false},
	{"And(a, b)", "a", true},
	{"", "Or(a, Not(a))", true},
	{"False", "False", true},
	{"", "True", true},
	{"a, Impl(a, b)", "b", true},
	{"Impl(a, b), a", "b", true},
	{"Impl(a, b)", "Or(Not(a), b)", true},
	{"a", "True", true},
	{"a, b", "a, b", true},
	{"a, b", "b, a", true},
	{"a, b", "And(a, b)", true},
	{"Impl(a, b), Impl(Not(a), b)", "b", true},
	{"Not(a), a", "", true},
	{"a", "a, b", true},
	{"Impl(a, b), Impl(b, c)", "Impl(a, c)", true},
	{"Impl(a, b), Impl(a, c)", "Impl(a, And(b, c))", true},
	{"Impl(a, b)", "Impl(b, a)", false},
	{"Impl(a, b)", "b", false},
	{"RImpl(b, a)", "b", false},
	{"", "NImpl(a, b)", false},
	{"Or(a, b), Not(a)", "b", true},
	{"Equal(x, x)", "Equal(x, x)", true},
	{"And(b, a)", "And(a, b)", true},
	{"Or(a, b)", "Or(b, a, a)", true},
	{"RImpl(b, a), a", "b", true},
	{"", "NAnd(a, Not(a))", true},
	{"NOr(a, b)", "Not(a)", true},
	{"NImpl(a, b)", "a", true},
	{"NImpl(a, b)", "b", false},
}
