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

// Package formula defines immutable logical formulas.
package formula

// Kind classifies symbols.
type Kind int

const (
	// Connective combines formulas, nullary connectives are atoms.
	Connective Kind = iota
	// Relation applies to terms.
	Relation
	// Quantifier binds a variable over a formula.
	Quantifier
)

func (k Kind) String() string {
	switch k {
	case Connective:
		return "Connective"
	case Relation:
		return "Relation"
	case Quantifier:
		return "Quantifier"
	}
	return "Unknown"
}

// Symbol is the head of a formula. Symbols compare by value.
type Symbol struct {
	Name string
	Kind Kind
}

var (
	// Not negates its argument.
	Not = Symbol{Name: "Not", Kind: Connective}
	// And is the conjunction.
	And = Symbol{Name: "And", Kind: Connective}
	// Or is the disjunction.
	Or = Symbol{Name: "Or", Kind: Connective}
	// NAnd is the negated conjunction.
	NAnd = Symbol{Name: "NAnd", Kind: Connective}
	// NOr is the negated disjunction.
	NOr = Symbol{Name: "NOr", Kind: Connective}
	// Xor is the exclusive disjunction.
	Xor = Symbol{Name: "Xor", Kind: Connective}
	// NXor is the negated exclusive disjunction.
	NXor = Symbol{Name: "NXor", Kind: Connective}
	// Equiv is the equivalence.
	Equiv = Symbol{Name: "Equiv", Kind: Connective}
	// NEquiv is the negated equivalence.
	NEquiv = Symbol{Name: "NEquiv", Kind: Connective}
	// Impl(a, b) is a implies b.
	Impl = Symbol{Name: "Impl", Kind: Connective}
	// NImpl is the negated implication.
	NImpl = Symbol{Name: "NImpl", Kind: Connective}
	// RImpl(a, b) is b implies a.
	RImpl = Symbol{Name: "RImpl", Kind: Connective}
	// NRImpl is the negated reverse implication.
	NRImpl = Symbol{Name: "NRImpl", Kind: Connective}
	// True is the nullary truth.
	True = Symbol{Name: "True", Kind: Connective}
	// False is the nullary falsehood.
	False = Symbol{Name: "False", Kind: Connective}

	// ForAll is the universal quantifier.
	ForAll = Symbol{Name: "ForAll", Kind: Quantifier}
	// Exists is the existential quantifier.
	Exists = Symbol{Name: "Exists", Kind: Quantifier}
	// Unique is the unique existential quantifier.
	Unique = Symbol{Name: "Unique", Kind: Quantifier}

	// Equal is term equality.
	Equal = Symbol{Name: "Equal", Kind: Relation}
	// NEqual is term inequality.
	NEqual = Symbol{Name: "NEqual", Kind: Relation}
)

var builtin = map[string]Symbol{}

func init() {
	for _, s := range []Symbol{
		Not, And, Or, NAnd, NOr, Xor, NXor, Equiv, NEquiv,
		Impl, NImpl, RImpl, NRImpl, True, False,
		ForAll, Exists, Unique, Equal, NEqual,
	} {
		builtin[s.Name] = s
	}
}

// Lookup returns the builtin symbol called name.
func Lookup(name string) (s Symbol, ok bool) {
	s, ok = builtin[name]
	return
}

// IsRelation reports whether s applies to terms.
func (s Symbol) IsRelation() bool { return s.Kind == Relation }

// IsQuantifier reports whether s binds a variable.
func (s Symbol) IsQuantifier() bool { return s.Kind == Quantifier }

// IsCommutative reports whether argument order is irrelevant to s.
func (s Symbol) IsCommutative() bool {
	switch s {
	case And, Or, NAnd, NOr, Xor, NXor, Equiv, NEquiv:
		return true
	}
	return false
}

// IsIdempotent reports whether repeated arguments are irrelevant to s.
func (s Symbol) IsIdempotent() bool {
	switch s {
	case And, Or, NAnd, NOr:
		return true
	}
	return false
}

// Hash mixes the symbol name into seed.
func (s Symbol) Hash(seed uint64) uint64 {
	for i := 0; i < len(s.Name); i++ {
		seed = (257*seed + uint64(s.Name[i]) + 13) ^ (seed >> (64 - 8))
	}
	return seed
}

func (s Symbol) String() string { return s.Name }
