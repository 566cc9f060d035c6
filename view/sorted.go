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

import (
	"fmt"
	"sort"
)

// Weight computes the sort key of an element.
type Weight[T any] func(item T) float64

// SortedView is an eager permutation of a source view by ascending weight.
type SortedView[T any] struct {
	source  View[T]
	order   []int
	weights []float64
	unique  bool
}

// Sort returns source ordered by non-decreasing weight, equal weights keep
// their source order.
func Sort[T any](source View[T], weight Weight[T]) (*SortedView[T], error) {
	return newSorted(source, weight, false)
}

// SortUnique is Sort keeping only the first element of each run of equal
// weights. Uniqueness is decided by the weight value alone.
func SortUnique[T any](source View[T], weight Weight[T]) (*SortedView[T], error) {
	return newSorted(source, weight, true)
}

func newSorted[T any](source View[T], weight Weight[T], unique bool) (v *SortedView[T], err error) {
	n := source.Size()
	v = &SortedView[T]{
		source:  source,
		order:   make([]int, n),
		weights: make([]float64, n),
		unique:  unique,
	}
	if err = scan(source, func(i int, item T) bool {
		v.order[i] = i
		v.weights[i] = weight(item)
		return true
	}); err != nil {
		return nil, err
	}
	sort.SliceStable(v.order, func(i, j int) bool {
		return v.weights[v.order[i]] < v.weights[v.order[j]]
	})
	if unique && n > 0 {
		kept := v.order[:1]
		for _, idx := range v.order[1:] {
			if v.weights[idx] != v.weights[kept[len(kept)-1]] {
				kept = append(kept, idx)
			}
		}
		v.order = kept
	}
	return
}

// Size implements View.Size.
func (v *SortedView[T]) Size() int { return len(v.order) }

// At implements View.At.
func (v *SortedView[T]) At(i int) (item T, err error) {
	if err = checkIndex(v, i); err != nil {
		return
	}
	return v.source.At(v.order[i])
}

// WeightAt returns the weight of the element at index i.
func (v *SortedView[T]) WeightAt(i int) (float64, error) {
	if err := checkIndex(v, i); err != nil {
		return 0, err
	}
	return v.weights[v.order[i]], nil
}

// Count implements View.Count.
func (v *SortedView[T]) Count(item T, eq Equal[T]) int {
	if !v.unique {
		return v.source.Count(item, eq)
	}
	return linearCount[T](v, item, eq)
}

func (v *SortedView[T]) String() string {
	if v.unique {
		return fmt.Sprintf("SortUnique(%s)", v.source)
	}
	return fmt.Sprintf("Sort(%s)", v.source)
}
