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

package sequent

import "github.com/pkg/errors"

var (
	// ErrUnreachable defines error on a broken prover invariant, only
	// checked when Debug is set.
	ErrUnreachable = errors.New("unreachable prover state")
	// ErrArity defines error on a connective applied to the wrong number
	// of sub-formulas.
	ErrArity = errors.New("unexpected connective arity")
)
