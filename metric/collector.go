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
	"strings"
	"unicode"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rcrowley/go-metrics"
)

// ProverCollector converts every meter of a go-metrics registry into
// Prometheus samples at collection time. Meters are discovered on each
// scrape, so the collector is unchecked and describes nothing.
type ProverCollector struct {
	source metrics.Registry
}

// NewProverCollector returns a collector over source.
func NewProverCollector(source metrics.Registry) prometheus.Collector {
	return &ProverCollector{source: source}
}

// MetricName maps a go-metrics name such as "executor.workers.live" to a
// Prometheus name such as "sequent_executor_workers_live".
func MetricName(name string) string {
	var b strings.Builder
	b.WriteString(Namespace)
	b.WriteByte('_')
	for _, r := range name {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// Describe implements prometheus.Collector.
func (pc *ProverCollector) Describe(chan<- *prometheus.Desc) {}

// Collect implements prometheus.Collector.
func (pc *ProverCollector) Collect(ch chan<- prometheus.Metric) {
	send := func(name, help string, valType prometheus.ValueType, value float64) {
		desc := prometheus.NewDesc(name, help, nil, nil)
		ch <- prometheus.MustNewConstMetric(desc, valType, value)
	}

	pc.source.Each(func(name string, i interface{}) {
		base := MetricName(name)
		switch m := i.(type) {
		case metrics.Counter:
			// counters go down as well, e.g. live workers
			send(base, name, prometheus.GaugeValue, float64(m.Count()))
		case metrics.Gauge:
			send(base, name, prometheus.GaugeValue, float64(m.Value()))
		case metrics.GaugeFloat64:
			send(base, name, prometheus.GaugeValue, m.Value())
		case metrics.Meter:
			s := m.Snapshot()
			send(base+"_total", name, prometheus.CounterValue, float64(s.Count()))
			send(base+"_rate1", name+" one minute rate", prometheus.GaugeValue, s.Rate1())
		case metrics.Timer:
			s := m.Snapshot()
			send(base+"_total", name, prometheus.CounterValue, float64(s.Count()))
			send(base+"_mean_seconds", name+" mean duration", prometheus.GaugeValue, s.Mean()/1e9)
		case metrics.Histogram:
			s := m.Snapshot()
			send(base+"_total", name, prometheus.CounterValue, float64(s.Count()))
			send(base+"_mean", name+" mean", prometheus.GaugeValue, s.Mean())
		}
	})
}
