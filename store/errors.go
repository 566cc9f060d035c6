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

package store

import "github.com/pkg/errors"

var (
	// ErrTransaction defines error on a commit rejected by validation or
	// by a conflicting read.
	ErrTransaction = errors.New("transaction conflict")
	// ErrLocking defines error on releasing a write lock which is not held.
	ErrLocking = errors.New("write lock not active")
	// ErrDeadlock defines error on upgrading an already upgraded lock.
	ErrDeadlock = errors.New("write lock already active")
	// ErrBackendClosed defines error on using a closed backend.
	ErrBackendClosed = errors.New("backend closed")
	// ErrTxDone defines error on using a committed transaction.
	ErrTxDone = errors.New("transaction already committed")
)

// IsConflict reports whether err is a retryable transaction error.
func IsConflict(err error) bool {
	return errors.Cause(err) == ErrTransaction
}
