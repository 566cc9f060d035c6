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

package utils

import (
	"os"
	"os/signal"
	"syscall"
)

// WaitForExit returns a channel receiving SIGINT and SIGTERM, SIGHUP and
// terminal job control signals are ignored.
func WaitForExit() chan os.Signal {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)
	signal.Ignore(syscall.SIGHUP, syscall.SIGTTIN, syscall.SIGTTOU)
	return signalCh
}

// OnExit calls fn once for the first exit signal, until stop is closed.
func OnExit(stop <-chan struct{}, fn func(os.Signal)) {
	ch := WaitForExit()
	go func() {
		defer signal.Stop(ch)
		select {
		case sig := <-ch:
			fn(sig)
		case <-stop:
		}
	}()
}
