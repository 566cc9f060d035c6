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

import (
	"sort"
	"strings"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/CovenantSQL/sequent/view"
)

var (
	// ErrNotImplemented defines error on operations unsupported for
	// relations and quantifiers.
	ErrNotImplemented = errors.New("not implemented")
	// ErrParse defines error on malformed formula text.
	ErrParse = errors.New("malformed formula")
)

var lastIdentity uint64

// Formula is an immutable formula tree. Every constructed node has a
// distinct identity, structurally identical trees may share none.
type Formula struct {
	id       uint64
	symbol   Symbol
	children []*Formula
	terms    []*Term
	bound    *Term
}

func newFormula(symbol Symbol, children []*Formula, terms []*Term, bound *Term) *Formula {
	return &Formula{
		id:       atomic.AddUint64(&lastIdentity, 1),
		symbol:   symbol,
		children: children,
		terms:    terms,
		bound:    bound,
	}
}

// Apply builds a connective formula, a nullary application is an atom.
func Apply(symbol Symbol, children ...*Formula) *Formula {
	return newFormula(symbol, children, nil, nil)
}

// Atom returns a new propositional atom called name.
func Atom(name string) *Formula {
	return Apply(Symbol{Name: name, Kind: Connective})
}

// Rel builds a relation over terms.
func Rel(symbol Symbol, terms ...*Term) *Formula {
	return newFormula(symbol, nil, terms, nil)
}

// Quantify binds variable over body.
func Quantify(symbol Symbol, variable *Term, body *Formula) *Formula {
	return newFormula(symbol, []*Formula{body}, nil, variable)
}

// MakeNot returns Not(a).
func MakeNot(a *Formula) *Formula { return Apply(Not, a) }

// MakeAnd returns And(args...).
func MakeAnd(args ...*Formula) *Formula { return Apply(And, args...) }

// MakeOr returns Or(args...).
func MakeOr(args ...*Formula) *Formula { return Apply(Or, args...) }

// MakeImpl returns Impl(a, b).
func MakeImpl(a, b *Formula) *Formula { return Apply(Impl, a, b) }

// MakeTrue returns a new True constant.
func MakeTrue() *Formula { return Apply(True) }

// MakeFalse returns a new False constant.
func MakeFalse() *Formula { return Apply(False) }

// Identity returns the process unique id of the node.
func (f *Formula) Identity() uint64 { return f.id }

// Symbol returns the head symbol.
func (f *Formula) Symbol() Symbol { return f.symbol }

// Size returns the number of sub-formulas.
func (f *Formula) Size() int { return len(f.children) }

// Child returns the i-th sub-formula.
func (f *Formula) Child(i int) (*Formula, error) {
	if i < 0 || i >= len(f.children) {
		return nil, &view.IndexError{View: f.String(), Index: i, Size: len(f.children)}
	}
	return f.children[i], nil
}

// Children returns a view over the sub-formulas.
func (f *Formula) Children() view.View[*Formula] {
	return view.Reference(f.children)
}

// Terms returns the relation arguments.
func (f *Formula) Terms() []*Term { return f.terms }

// Bound returns the quantified variable.
func (f *Formula) Bound() *Term { return f.bound }

// Hash mixes the tree into seed. Arguments of commutative symbols are
// mixed as a set, so formulas equal up to argument order and repetition
// share a hash.
func (f *Formula) Hash(seed uint64) uint64 {
	seed ^= f.symbol.Hash(seed)
	if f.bound != nil {
		seed ^= f.bound.Hash(seed)
	}
	for _, t := range f.terms {
		seed ^= t.Hash(seed)
	}
	if !f.symbol.IsCommutative() {
		for _, c := range f.children {
			seed ^= c.Hash(seed)
		}
		return seed
	}

	const childSeed = 0x38a10a1c
	hashes := make([]uint64, len(f.children))
	for i, c := range f.children {
		hashes[i] = c.Hash(childSeed)
	}
	sort.Slice(hashes, func(i, j int) bool { return hashes[i] < hashes[j] })
	for i, h := range hashes {
		if i > 0 && h == hashes[i-1] {
			continue
		}
		seed ^= h
	}
	return seed
}

// TotalSize returns the number of nodes of the tree.
func (f *Formula) TotalSize() int {
	s := 1
	for _, c := range f.children {
		s += c.TotalSize()
	}
	return s
}

// Depth returns the height of the tree, an atom has depth 1.
func (f *Formula) Depth() int {
	d := 0
	for _, c := range f.children {
		if cd := c.Depth(); cd > d {
			d = cd
		}
	}
	return d + 1
}

// Identical reports deep structural equality, argument order included.
func (f *Formula) Identical(o *Formula) bool {
	if f == o {
		return true
	}
	if f == nil || o == nil || f.symbol != o.symbol ||
		len(f.children) != len(o.children) || len(f.terms) != len(o.terms) {
		return false
	}
	if (f.bound == nil) != (o.bound == nil) || (f.bound != nil && !f.bound.Identical(o.bound)) {
		return false
	}
	for i := range f.terms {
		if !f.terms[i].Identical(o.terms[i]) {
			return false
		}
	}
	for i := range f.children {
		if !f.children[i].Identical(o.children[i]) {
			return false
		}
	}
	return true
}

func (f *Formula) String() string {
	var b strings.Builder
	f.write(&b)
	return b.String()
}

func (f *Formula) write(b *strings.Builder) {
	b.WriteString(f.symbol.Name)
	if f.symbol.Kind == Connective && len(f.children) == 0 {
		return
	}
	b.WriteByte('(')
	sep := ""
	if f.bound != nil {
		b.WriteString(f.bound.String())
		sep = ", "
	}
	for _, t := range f.terms {
		b.WriteString(sep)
		b.WriteString(t.String())
		sep = ", "
	}
	for _, c := range f.children {
		b.WriteString(sep)
		c.write(b)
		sep = ", "
	}
	b.WriteByte(')')
}
