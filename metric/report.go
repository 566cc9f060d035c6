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

package metric

import (
	"net"
	"time"

	graphite "github.com/cyberdelia/go-metrics-graphite"
	"github.com/pkg/errors"
	"github.com/rcrowley/go-metrics"

	"github.com/CovenantSQL/sequent/utils/log"
)

// StartGraphite pushes registry to the graphite server at addr every
// interval, names are prefixed with prefix.
func StartGraphite(registry metrics.Registry, interval time.Duration, prefix, addr string) (err error) {
	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "resolve metric graphite server %s failed", addr)
	}
	go graphite.Graphite(registry, interval, prefix, tcpAddr)
	log.WithFields(log.Fields{
		"server":   addr,
		"interval": interval,
	}).Info("graphite reporting started")
	return
}

// StartLog writes registry to the standard logger every interval.
func StartLog(registry metrics.Registry, interval time.Duration) {
	go metrics.Log(registry, interval, log.StandardLogger())
}
