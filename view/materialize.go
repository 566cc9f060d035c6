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

// MaterializedView holds a snapshot of the element references of a view,
// giving O(1) access regardless of how the source was composed.
type MaterializedView[T any] struct {
	source string
	items  []T
}

// Materialize snapshots source. Elements are not cloned, pointer elements
// still refer to the caller's values.
func Materialize[T any](source View[T]) (*MaterializedView[T], error) {
	items, err := Slice(source)
	if err != nil {
		return nil, err
	}
	return &MaterializedView[T]{source: source.String(), items: items}, nil
}

// Size implements View.Size.
func (v *MaterializedView[T]) Size() int { return len(v.items) }

// At implements View.At.
func (v *MaterializedView[T]) At(i int) (item T, err error) {
	if err = checkIndex(v, i); err == nil {
		item = v.items[i]
	}
	return
}

// Count implements View.Count.
func (v *MaterializedView[T]) Count(item T, eq Equal[T]) int {
	return Reference(v.items).Count(item, eq)
}

func (v *MaterializedView[T]) String() string {
	return fmt.Sprintf("Materialize(%s)", v.source)
}
