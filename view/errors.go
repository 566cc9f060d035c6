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

	"github.com/pkg/errors"
)

var (
	// ErrSizeMismatch defines error on zipping views of different sizes.
	ErrSizeMismatch = errors.New("views have different sizes")
)

// IndexError defines out of range access on a view.
type IndexError struct {
	View  string
	Index int
	Size  int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("index %d out of range [0, %d) in %s", e.Index, e.Size, e.View)
}

// IteratorError defines comparison of cursors from unrelated views.
type IteratorError struct {
	Left, Right string
}

func (e *IteratorError) Error() string {
	return fmt.Sprintf("cursors of unrelated views: %s vs %s", e.Left, e.Right)
}

func checkIndex(v interface {
	Size() int
	String() string
}, i int) error {
	if i < 0 || i >= v.Size() {
		return &IndexError{View: v.String(), Index: i, Size: v.Size()}
	}
	return nil
}
