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
	"expvar"
	"net"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	mw "github.com/zserge/metric"

	"github.com/CovenantSQL/sequent/utils/log"
)

// Web serves /debug/metrics (expvar gauges) and /metrics (Prometheus).
type Web struct {
	server   *http.Server
	listener net.Listener
	stop     chan struct{}
	wg       sync.WaitGroup
}

func gauge(name string) mw.Metric {
	if v := expvar.Get(name); v != nil {
		if m, ok := v.(mw.Metric); ok {
			return m
		}
	}
	m := mw.NewGauge("1m1s", "5m5s", "1h1m")
	expvar.Publish(name, m)
	return m
}

func collect(registry prometheus.Gatherer) (err error) {
	mm, err := Gather(registry)
	if err != nil {
		return
	}
	for k, v := range mm.FilterCrucialMetrics() {
		gauge("prover:" + k).Add(v)
	}
	return
}

func collectRuntime() {
	m := &runtime.MemStats{}
	runtime.ReadMemStats(m)
	gauge("go:numgoroutine").Add(float64(runtime.NumGoroutine()))
	gauge("go:alloc").Add(float64(m.Alloc) / float64(MB))
	gauge("go:alloctotal").Add(float64(m.TotalAlloc) / float64(MB))
}

// InitMetricWeb starts the metric web on metricWeb, sampling registry
// every interval.
func InitMetricWeb(metricWeb string, registry *prometheus.Registry, interval time.Duration) (w *Web, err error) {
	if err = collect(registry); err != nil {
		return
	}
	collectRuntime()

	w = &Web{stop: make(chan struct{})}
	if w.listener, err = net.Listen("tcp", metricWeb); err != nil {
		err = errors.Wrapf(err, "listen metric web on %s failed", metricWeb)
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/debug/metrics", mw.Handler(mw.Exposed))
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	w.server = &http.Server{Handler: mux}

	w.wg.Add(2)
	go func() {
		defer w.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-w.stop:
				return
			case <-ticker.C:
				collectRuntime()
				if err := collect(registry); err != nil {
					log.WithError(err).Warning("collect metrics failed")
				}
			}
		}
	}()
	go func() {
		defer w.wg.Done()
		if err := w.server.Serve(w.listener); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("metric web stopped")
		}
	}()

	log.WithField("addr", w.Addr()).Info("metric web started")
	return
}

// Addr returns the listening address.
func (w *Web) Addr() string {
	return w.listener.Addr().String()
}

// Close stops sampling and serving.
func (w *Web) Close() (err error) {
	close(w.stop)
	err = w.server.Close()
	w.wg.Wait()
	return
}
