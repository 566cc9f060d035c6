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

// Cursor is a random access position within one view.
type Cursor[T any] struct {
	view View[T]
	pos  int
}

// Begin returns a cursor at the first element of v.
func Begin[T any](v View[T]) *Cursor[T] {
	return &Cursor[T]{view: v}
}

// End returns the past-the-end cursor of v.
func End[T any](v View[T]) *Cursor[T] {
	return &Cursor[T]{view: v, pos: v.Size()}
}

// Position returns the index of the cursor.
func (c *Cursor[T]) Position() int { return c.pos }

// Valid reports whether the cursor points at an element.
func (c *Cursor[T]) Valid() bool { return c.pos >= 0 && c.pos < c.view.Size() }

// Get returns the element under the cursor.
func (c *Cursor[T]) Get() (T, error) { return c.view.At(c.pos) }

// Next advances the cursor by one.
func (c *Cursor[T]) Next() *Cursor[T] { return c.Advance(1) }

// Advance moves the cursor by n positions, negative n moves backwards.
func (c *Cursor[T]) Advance(n int) *Cursor[T] {
	c.pos += n
	return c
}

// Clone returns an independent cursor at the same position.
func (c *Cursor[T]) Clone() *Cursor[T] {
	return &Cursor[T]{view: c.view, pos: c.pos}
}

func (c *Cursor[T]) compatible(other *Cursor[T]) error {
	if c.view != other.view {
		return &IteratorError{Left: c.view.String(), Right: other.view.String()}
	}
	return nil
}

// Distance returns other.Position() - c.Position().
func (c *Cursor[T]) Distance(other *Cursor[T]) (int, error) {
	if err := c.compatible(other); err != nil {
		return 0, err
	}
	return other.pos - c.pos, nil
}

// Equal reports whether both cursors point at the same position.
func (c *Cursor[T]) Equal(other *Cursor[T]) (bool, error) {
	if err := c.compatible(other); err != nil {
		return false, err
	}
	return c.pos == other.pos, nil
}

// Less reports whether c is before other.
func (c *Cursor[T]) Less(other *Cursor[T]) (bool, error) {
	if err := c.compatible(other); err != nil {
		return false, err
	}
	return c.pos < other.pos, nil
}
