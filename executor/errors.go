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

package executor

import (
	"context"

	"github.com/pkg/errors"
)

var (
	// ErrCancelled defines error on a run stopped by the cancellation flag.
	ErrCancelled = errors.New("parallel run cancelled")
	// ErrConcurrency defines error on a task that panicked inside a worker.
	ErrConcurrency = errors.New("worker failure")
)

// IsCancellation reports whether err was caused by a cancellation, either
// from the control flag or from the context.
func IsCancellation(err error) bool {
	switch errors.Cause(err) {
	case ErrCancelled, context.Canceled, context.DeadlineExceeded:
		return true
	}
	return false
}
