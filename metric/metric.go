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

// Package metric exports the go-metrics meters of the prover to
// Prometheus, expvar and graphite.
package metric

import (
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/version"
	"github.com/rcrowley/go-metrics"

	"github.com/CovenantSQL/sequent/utils/log"
)

const (
	// KB is 1024 Bytes
	KB int64 = 1024
	// MB is 1024 KB
	MB int64 = KB * 1024
)

// Namespace prefixes every exported metric name.
const Namespace = "sequent"

// StartMetricCollector returns a Prometheus registry exporting source
// next to the build information collector.
func StartMetricCollector(source metrics.Registry) (registry *prometheus.Registry) {
	if source == nil {
		source = metrics.DefaultRegistry
	}

	registry = prometheus.NewRegistry()
	for _, c := range []prometheus.Collector{
		version.NewCollector(Namespace),
		NewProverCollector(source),
	} {
		if err := registry.Register(c); err != nil {
			log.WithError(err).Error("couldn't register collector")
			return nil
		}
	}

	var names []string
	source.Each(func(name string, _ interface{}) {
		names = append(names, name)
	})
	sort.Strings(names)
	log.Infof("exporting %d meters", len(names))
	for _, n := range names {
		log.Debugf(" - %s", n)
	}
	return
}
