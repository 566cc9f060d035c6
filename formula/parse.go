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
	"strings"

	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"
	"github.com/pkg/errors"
)

// Parse reads one formula, e.g. "Impl(a, b)", "not a or b",
// "ForAll(x, Equal(x, x))". Builtin symbols are called by name, other
// identifiers are atoms, calls of other names are relations.
func Parse(text string) (*Formula, error) {
	tree, err := parser.Parse(text)
	if err != nil {
		return nil, errors.Wrapf(ErrParse, "%q: %v", text, err)
	}
	return (&scope{}).formula(tree.Node)
}

// ParseList reads a comma separated list of formulas, the empty text is
// the empty list.
func ParseList(text string) ([]*Formula, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	tree, err := parser.Parse("[" + text + "]")
	if err != nil {
		return nil, errors.Wrapf(ErrParse, "%q: %v", text, err)
	}
	arr, ok := tree.Node.(*ast.ArrayNode)
	if !ok {
		return nil, errors.Wrapf(ErrParse, "%q is not a formula list", text)
	}
	s := &scope{}
	out := make([]*Formula, 0, len(arr.Nodes))
	for _, n := range arr.Nodes {
		f, err := s.formula(n)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// scope tracks the variables bound by enclosing quantifiers.
type scope struct {
	bound []string
}

func (s *scope) isBound(name string) bool {
	for i := len(s.bound) - 1; i >= 0; i-- {
		if s.bound[i] == name {
			return true
		}
	}
	return false
}

func (s *scope) formula(node ast.Node) (*Formula, error) {
	switch n := node.(type) {
	case *ast.BoolNode:
		if n.Value {
			return MakeTrue(), nil
		}
		return MakeFalse(), nil
	case *ast.IdentifierNode:
		if sym, ok := Lookup(n.Value); ok {
			if sym != True && sym != False {
				return nil, errors.Wrapf(ErrParse, "%s needs arguments", n.Value)
			}
			return Apply(sym), nil
		}
		return Atom(n.Value), nil
	case *ast.UnaryNode:
		if n.Operator != "not" && n.Operator != "!" {
			return nil, errors.Wrapf(ErrParse, "unsupported operator %q", n.Operator)
		}
		child, err := s.formula(n.Node)
		if err != nil {
			return nil, err
		}
		return MakeNot(child), nil
	case *ast.BinaryNode:
		return s.binary(n)
	case *ast.CallNode:
		return s.call(n)
	}
	return nil, errors.Wrapf(ErrParse, "unexpected %T", node)
}

func (s *scope) binary(n *ast.BinaryNode) (*Formula, error) {
	var sym Symbol
	switch n.Operator {
	case "and", "&&":
		sym = And
	case "or", "||":
		sym = Or
	case "==", "!=":
		left, err := s.term(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := s.term(n.Right)
		if err != nil {
			return nil, err
		}
		if n.Operator == "==" {
			return Rel(Equal, left, right), nil
		}
		return Rel(NEqual, left, right), nil
	default:
		return nil, errors.Wrapf(ErrParse, "unsupported operator %q", n.Operator)
	}

	var children []*Formula
	for _, side := range []ast.Node{n.Left, n.Right} {
		child, err := s.formula(side)
		if err != nil {
			return nil, err
		}
		// flatten chains of the same connective
		if b, ok := side.(*ast.BinaryNode); ok && child.symbol == sym && b.Operator == n.Operator {
			children = append(children, child.children...)
		} else {
			children = append(children, child)
		}
	}
	return Apply(sym, children...), nil
}

func (s *scope) call(n *ast.CallNode) (*Formula, error) {
	callee, ok := n.Callee.(*ast.IdentifierNode)
	if !ok {
		return nil, errors.Wrapf(ErrParse, "unexpected callee %T", n.Callee)
	}
	sym, builtin := Lookup(callee.Value)
	if !builtin {
		if len(n.Arguments) == 0 {
			return Atom(callee.Value), nil
		}
		sym = Symbol{Name: callee.Value, Kind: Relation}
	}

	switch sym.Kind {
	case Quantifier:
		if len(n.Arguments) != 2 {
			return nil, errors.Wrapf(ErrParse, "%s takes a variable and a body", sym)
		}
		v, ok := n.Arguments[0].(*ast.IdentifierNode)
		if !ok {
			return nil, errors.Wrapf(ErrParse, "%s must bind a variable", sym)
		}
		s.bound = append(s.bound, v.Value)
		body, err := s.formula(n.Arguments[1])
		s.bound = s.bound[:len(s.bound)-1]
		if err != nil {
			return nil, err
		}
		return Quantify(sym, Var(v.Value), body), nil
	case Relation:
		terms := make([]*Term, 0, len(n.Arguments))
		for _, a := range n.Arguments {
			t, err := s.term(a)
			if err != nil {
				return nil, err
			}
			terms = append(terms, t)
		}
		return Rel(sym, terms...), nil
	}

	children := make([]*Formula, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		child, err := s.formula(a)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	if err := checkArity(sym, len(children)); err != nil {
		return nil, err
	}
	return Apply(sym, children...), nil
}

func (s *scope) term(node ast.Node) (*Term, error) {
	switch n := node.(type) {
	case *ast.IdentifierNode:
		if s.isBound(n.Value) {
			return Var(n.Value), nil
		}
		return Func(n.Value), nil
	case *ast.CallNode:
		callee, ok := n.Callee.(*ast.IdentifierNode)
		if !ok {
			return nil, errors.Wrapf(ErrParse, "unexpected callee %T", n.Callee)
		}
		args := make([]*Term, 0, len(n.Arguments))
		for _, a := range n.Arguments {
			t, err := s.term(a)
			if err != nil {
				return nil, err
			}
			args = append(args, t)
		}
		return Func(callee.Value, args...), nil
	}
	return nil, errors.Wrapf(ErrParse, "unexpected term %T", node)
}

func checkArity(sym Symbol, n int) error {
	want := -1
	switch sym {
	case True, False:
		want = 0
	case Not:
		want = 1
	case Impl, NImpl, RImpl, NRImpl:
		want = 2
	}
	if want >= 0 && n != want {
		return errors.Wrapf(ErrParse, "%s takes %d arguments, got %d", sym, want, n)
	}
	return nil
}
