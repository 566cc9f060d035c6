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

// Package view provides read-only zero-copy sequences composed over
// elements owned by the caller.
package view

import (
	"fmt"
	"reflect"
	"strings"
)

// Equal reports whether two elements are equivalent.
type Equal[T any] func(a, b T) bool

// View defines a finite indexable sequence of element references.
type View[T any] interface {
	// Size returns the number of elements in the view.
	Size() int
	// At returns the element at index i, failing with *IndexError when i is out of range.
	At(i int) (T, error)
	// Count returns how many elements are equivalent to item under eq,
	// a nil eq compares with ==, or deeply for non-comparable elements.
	Count(item T, eq Equal[T]) int
	// String describes the structure of the view, not its content.
	String() string
}

// Identical is the == equality, for pointer elements it is identity.
func Identical[T comparable](a, b T) bool {
	return a == b
}

// equalOrDefault falls back to ==, or to reflect.DeepEqual for elements
// that are not comparable such as slices and maps.
func equalOrDefault[T any](eq Equal[T]) Equal[T] {
	if eq != nil {
		return eq
	}
	return func(a, b T) bool {
		if t := reflect.TypeOf(a); t != nil && !t.Comparable() {
			return reflect.DeepEqual(a, b)
		}
		if t := reflect.TypeOf(b); t != nil && !t.Comparable() {
			return false
		}
		return any(a) == any(b)
	}
}

// scan walks every element of v until fn returns false.
func scan[T any](v View[T], fn func(i int, item T) bool) (err error) {
	for i, n := 0, v.Size(); i < n; i++ {
		var item T
		if item, err = v.At(i); err != nil {
			return
		}
		if !fn(i, item) {
			return
		}
	}
	return
}

// linearCount is the default Count implementation.
func linearCount[T any](v View[T], item T, eq Equal[T]) (n int) {
	eq = equalOrDefault(eq)
	_ = scan(v, func(_ int, other T) bool {
		if eq(other, item) {
			n++
		}
		return true
	})
	return
}

// Slice collects the view content into a new slice.
func Slice[T any](v View[T]) (items []T, err error) {
	items = make([]T, 0, v.Size())
	err = scan(v, func(_ int, item T) bool {
		items = append(items, item)
		return true
	})
	return
}

// Format renders the view content as "[a, b, c]".
func Format[T any](v View[T]) string {
	var parts []string
	if err := scan(v, func(_ int, item T) bool {
		parts = append(parts, fmt.Sprint(item))
		return true
	}); err != nil {
		return fmt.Sprintf("<%v>", err)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
