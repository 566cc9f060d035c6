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
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/CovenantSQL/sequent/utils/log"
)

// SimpleMetricMap is map from metric name to MetricFamily.
type SimpleMetricMap map[string]*dto.MetricFamily

// crucialMetricNameMap names the metrics published on the metric web.
var crucialMetricNameMap = map[string]string{
	"sequent_executor_workers_live":            "workers_live",
	"sequent_executor_workers_spawned_total":   "workers_spawned",
	"sequent_executor_workers_abandoned_total": "workers_abandoned",
	"sequent_executor_tasks_failed_total":      "tasks_failed",
	"sequent_compare_class_hit_total":          "class_hits",
	"sequent_compare_deep_total":               "deep_compares",
	"sequent_compare_lock_upgrade_total":       "lock_upgrades",
	"sequent_store_commit_total":               "commits",
	"sequent_store_conflict_total":             "conflicts",
	"sequent_store_retry_total":                "retries",
}

// Gather collects the families of registry by name.
func Gather(registry prometheus.Gatherer) (mm SimpleMetricMap, err error) {
	mfs, err := registry.Gather()
	if err != nil {
		err = errors.Wrap(err, "gathering prover metrics failed")
		return
	}
	mm = make(SimpleMetricMap, len(mfs))
	for _, mf := range mfs {
		mm[mf.GetName()] = mf
	}
	return
}

// FilterCrucialMetrics returns the crucial metrics under their short names.
func (mfm SimpleMetricMap) FilterCrucialMetrics() (ret map[string]float64) {
	ret = make(map[string]float64)
	for _, v := range mfm {
		newName, ok := crucialMetricNameMap[v.GetName()]
		if !ok || len(v.GetMetric()) == 0 {
			continue
		}
		var metricVal float64
		switch v.GetType() {
		case dto.MetricType_GAUGE:
			metricVal = v.GetMetric()[0].GetGauge().GetValue()
		case dto.MetricType_COUNTER:
			metricVal = v.GetMetric()[0].GetCounter().GetValue()
		case dto.MetricType_UNTYPED:
			metricVal = v.GetMetric()[0].GetUntyped().GetValue()
		default:
			continue
		}
		ret[newName] = metricVal
	}
	log.Debugf("crucial metric added: %v", ret)
	return
}
