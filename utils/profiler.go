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
	"runtime"
	"runtime/pprof"

	"github.com/pkg/errors"

	"github.com/CovenantSQL/sequent/utils/log"
)

var prof struct {
	cpu *os.File
	mem *os.File
}

// StartProfile starts CPU profiling and arms heap profiling for the given
// files, empty names are skipped.
func StartProfile(cpuprofile, memprofile string) (err error) {
	if cpuprofile != "" {
		if prof.cpu, err = os.Create(cpuprofile); err != nil {
			return errors.Wrap(err, "create cpu profile failed")
		}
		if err = pprof.StartCPUProfile(prof.cpu); err != nil {
			return errors.Wrap(err, "start cpu profile failed")
		}
		log.WithField("file", cpuprofile).Info("writing cpu profile")
	}
	if memprofile != "" {
		if prof.mem, err = os.Create(memprofile); err != nil {
			return errors.Wrap(err, "create memory profile failed")
		}
		runtime.MemProfileRate = 4096
		log.WithField("file", memprofile).Info("writing memory profile")
	}
	return
}

// StopProfile flushes and closes the running profiles.
func StopProfile() {
	if prof.cpu != nil {
		pprof.StopCPUProfile()
		_ = prof.cpu.Close()
		prof.cpu = nil
	}
	if prof.mem != nil {
		if err := pprof.WriteHeapProfile(prof.mem); err != nil {
			log.WithError(err).Warning("write memory profile failed")
		}
		_ = prof.mem.Close()
		prof.mem = nil
	}
}
