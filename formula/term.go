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

package formula

import "strings"

// Term is a variable or a function applied to terms.
type Term struct {
	name     string
	variable bool
	args     []*Term
}

// Var returns the variable called name.
func Var(name string) *Term {
	return &Term{name: name, variable: true}
}

// Func returns the function name applied to args, constants have no args.
func Func(name string, args ...*Term) *Term {
	return &Term{name: name, args: args}
}

// Name returns the variable or function name.
func (t *Term) Name() string { return t.name }

// IsVariable reports whether t is a variable.
func (t *Term) IsVariable() bool { return t.variable }

// Args returns the function arguments.
func (t *Term) Args() []*Term { return t.args }

// Hash mixes the term into seed.
func (t *Term) Hash(seed uint64) uint64 {
	seed += 19
	if t.variable {
		seed += 7
	}
	for i := 0; i < len(t.name); i++ {
		seed = (323*seed + uint64(t.name[i]) + 29) ^ (seed >> (64 - 8))
	}
	for _, a := range t.args {
		seed ^= a.Hash(seed)
	}
	return seed
}

// Identical reports deep structural equality.
func (t *Term) Identical(o *Term) bool {
	if t == o {
		return true
	}
	if t == nil || o == nil || t.name != o.name || t.variable != o.variable || len(t.args) != len(o.args) {
		return false
	}
	for i := range t.args {
		if !t.args[i].Identical(o.args[i]) {
			return false
		}
	}
	return true
}

func (t *Term) String() string {
	if len(t.args) == 0 {
		return t.name
	}
	parts := make([]string, len(t.args))
	for i, a := range t.args {
		parts[i] = a.String()
	}
	return t.name + "(" + strings.Join(parts, ", ") + ")"
}
