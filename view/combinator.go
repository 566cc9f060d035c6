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

package view

import "fmt"

// ConcatView dispatches indexes to two views one after another.
type ConcatView[T any] struct {
	first, second View[T]
}

// Concat returns the view of first followed by second.
func Concat[T any](first, second View[T]) *ConcatView[T] {
	return &ConcatView[T]{first: first, second: second}
}

// Size implements View.Size.
func (v *ConcatView[T]) Size() int { return v.first.Size() + v.second.Size() }

// At implements View.At.
func (v *ConcatView[T]) At(i int) (item T, err error) {
	if err = checkIndex(v, i); err != nil {
		return
	}
	if n := v.first.Size(); i >= n {
		return v.second.At(i - n)
	}
	return v.first.At(i)
}

// Count implements View.Count.
func (v *ConcatView[T]) Count(item T, eq Equal[T]) int {
	return v.first.Count(item, eq) + v.second.Count(item, eq)
}

func (v *ConcatView[T]) String() string {
	return fmt.Sprintf("Concat(%s, %s)", v.first, v.second)
}

// DifferenceView skips every element of a source view that the excluded
// view contains. Size and At rescan the source on every call, materialize
// the view when it is queried repeatedly.
type DifferenceView[T any] struct {
	source, excluded View[T]
	eq               Equal[T]
}

// Difference returns the elements of source not counted in excluded under eq.
func Difference[T any](source, excluded View[T], eq Equal[T]) *DifferenceView[T] {
	return &DifferenceView[T]{source: source, excluded: excluded, eq: equalOrDefault(eq)}
}

func (v *DifferenceView[T]) keep(item T) bool {
	return v.excluded.Count(item, v.eq) == 0
}

// Size implements View.Size.
func (v *DifferenceView[T]) Size() (n int) {
	_ = scan(v.source, func(_ int, item T) bool {
		if v.keep(item) {
			n++
		}
		return true
	})
	return
}

// At implements View.At.
func (v *DifferenceView[T]) At(i int) (item T, err error) {
	var (
		found bool
		seen  int
	)
	if i >= 0 {
		err = scan(v.source, func(_ int, candidate T) bool {
			if !v.keep(candidate) {
				return true
			}
			if seen == i {
				item, found = candidate, true
				return false
			}
			seen++
			return true
		})
	}
	if err == nil && !found {
		err = &IndexError{View: v.String(), Index: i, Size: v.Size()}
	}
	return
}

// Count implements View.Count.
func (v *DifferenceView[T]) Count(item T, eq Equal[T]) (n int) {
	eq = equalOrDefault(eq)
	_ = scan(v.source, func(_ int, other T) bool {
		if eq(other, item) && v.keep(other) {
			n++
		}
		return true
	})
	return
}

func (v *DifferenceView[T]) String() string {
	return fmt.Sprintf("Difference(%s, %s)", v.source, v.excluded)
}

// Pair holds one element of each side of a product or zip.
type Pair[A, B any] struct {
	First  A
	Second B
}

// CartesianView is the product of two views.
type CartesianView[A, B any] struct {
	rows View[A]
	cols View[B]
}

// Cartesian returns the |rows|*|cols| pairs, index i maps to
// (rows[i mod |rows|], cols[i div |rows|]).
func Cartesian[A, B any](rows View[A], cols View[B]) *CartesianView[A, B] {
	return &CartesianView[A, B]{rows: rows, cols: cols}
}

// Size implements View.Size.
func (v *CartesianView[A, B]) Size() int { return v.rows.Size() * v.cols.Size() }

// At implements View.At.
func (v *CartesianView[A, B]) At(i int) (p Pair[A, B], err error) {
	if err = checkIndex(v, i); err != nil {
		return
	}
	n := v.rows.Size()
	if p.First, err = v.rows.At(i % n); err != nil {
		return
	}
	p.Second, err = v.cols.At(i / n)
	return
}

// Count implements View.Count.
func (v *CartesianView[A, B]) Count(item Pair[A, B], eq Equal[Pair[A, B]]) int {
	return linearCount[Pair[A, B]](v, item, eq)
}

func (v *CartesianView[A, B]) String() string {
	return fmt.Sprintf("Cartesian(%s, %s)", v.rows, v.cols)
}

// ZipView pairs elements of two equally sized views by position.
type ZipView[A, B any] struct {
	first  View[A]
	second View[B]
}

// Zip returns the positional pairs of first and second.
func Zip[A, B any](first View[A], second View[B]) (*ZipView[A, B], error) {
	if first.Size() != second.Size() {
		return nil, ErrSizeMismatch
	}
	return &ZipView[A, B]{first: first, second: second}, nil
}

// Size implements View.Size.
func (v *ZipView[A, B]) Size() int { return v.first.Size() }

// At implements View.At.
func (v *ZipView[A, B]) At(i int) (p Pair[A, B], err error) {
	if err = checkIndex(v, i); err != nil {
		return
	}
	if p.First, err = v.first.At(i); err != nil {
		return
	}
	p.Second, err = v.second.At(i)
	return
}

// Count implements View.Count.
func (v *ZipView[A, B]) Count(item Pair[A, B], eq Equal[Pair[A, B]]) int {
	return linearCount[Pair[A, B]](v, item, eq)
}

func (v *ZipView[A, B]) String() string {
	return fmt.Sprintf("Zip(%s, %s)", v.first, v.second)
}
