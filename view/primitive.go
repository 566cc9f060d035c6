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

// EmptyView is a view without elements.
type EmptyView[T any] struct{}

// Empty returns an empty view.
func Empty[T any]() *EmptyView[T] {
	return &EmptyView[T]{}
}

// Size implements View.Size.
func (v *EmptyView[T]) Size() int { return 0 }

// At implements View.At.
func (v *EmptyView[T]) At(i int) (item T, err error) {
	err = checkIndex(v, i)
	return
}

// Count implements View.Count.
func (v *EmptyView[T]) Count(T, Equal[T]) int { return 0 }

func (v *EmptyView[T]) String() string { return "Empty" }

// SingletonView is a view over exactly one element.
type SingletonView[T any] struct {
	item T
}

// Singleton returns a view over item.
func Singleton[T any](item T) *SingletonView[T] {
	return &SingletonView[T]{item: item}
}

// Size implements View.Size.
func (v *SingletonView[T]) Size() int { return 1 }

// At implements View.At.
func (v *SingletonView[T]) At(i int) (item T, err error) {
	if err = checkIndex(v, i); err == nil {
		item = v.item
	}
	return
}

// Count implements View.Count.
func (v *SingletonView[T]) Count(item T, eq Equal[T]) int {
	if equalOrDefault(eq)(v.item, item) {
		return 1
	}
	return 0
}

func (v *SingletonView[T]) String() string { return "Singleton" }

// ReferenceView forwards to an existing slice with bounds checks.
type ReferenceView[T any] struct {
	items []T
}

// Reference returns a view over items, the slice is shared, not copied.
func Reference[T any](items []T) *ReferenceView[T] {
	return &ReferenceView[T]{items: items}
}

// Size implements View.Size.
func (v *ReferenceView[T]) Size() int { return len(v.items) }

// At implements View.At.
func (v *ReferenceView[T]) At(i int) (item T, err error) {
	if err = checkIndex(v, i); err == nil {
		item = v.items[i]
	}
	return
}

// Count implements View.Count.
func (v *ReferenceView[T]) Count(item T, eq Equal[T]) (n int) {
	eq = equalOrDefault(eq)
	for _, other := range v.items {
		if eq(other, item) {
			n++
		}
	}
	return
}

func (v *ReferenceView[T]) String() string { return fmt.Sprintf("Reference[%d]", len(v.items)) }
