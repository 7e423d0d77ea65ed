/*
Copyright 2025.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package metrics provides Prometheus metrics for index configuration
// operations.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	// MetricsNamespace is the namespace prefix for all metrics
	MetricsNamespace = "elasticgraph"

	// MetricsSubsystemAdmin is the subsystem for index administration metrics
	MetricsSubsystemAdmin = "admin"
)

var (
	// ConfigureRunsTotal counts configuration runs by index and result
	ConfigureRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystemAdmin,
			Name:      "configure_runs_total",
			Help:      "Total number of index configuration runs by index and result",
		},
		[]string{"index", "result"},
	)

	// ConfigureDuration measures configuration run duration in seconds
	ConfigureDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystemAdmin,
			Name:      "configure_duration_seconds",
			Help:      "Duration of index configuration runs in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		},
		[]string{"index"},
	)

	// DatastoreWritesTotal counts write calls issued to the datastore
	DatastoreWritesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystemAdmin,
			Name:      "datastore_writes_total",
			Help:      "Total number of datastore write calls by cluster and operation",
		},
		[]string{"cluster", "operation"},
	)

	// ValidationProblemsTotal counts problems reported by the validation phase
	ValidationProblemsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystemAdmin,
			Name:      "validation_problems_total",
			Help:      "Total number of validation problems found by index",
		},
		[]string{"index"},
	)

	// MaintenanceModeToggles counts maintenance mode transitions by cluster
	MaintenanceModeToggles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystemAdmin,
			Name:      "maintenance_mode_toggles_total",
			Help:      "Total number of index maintenance mode transitions by cluster and direction",
		},
		[]string{"cluster", "direction"},
	)
)

func init() {
	prometheus.MustRegister(
		ConfigureRunsTotal,
		ConfigureDuration,
		DatastoreWritesTotal,
		ValidationProblemsTotal,
		MaintenanceModeToggles,
	)
}

// RecordConfigureRun records one configuration run outcome.
func RecordConfigureRun(index, result string, durationSeconds float64) {
	ConfigureRunsTotal.WithLabelValues(index, result).Inc()
	ConfigureDuration.WithLabelValues(index).Observe(durationSeconds)
}

// RecordDatastoreWrite records one write call against the datastore.
func RecordDatastoreWrite(cluster, operation string) {
	DatastoreWritesTotal.WithLabelValues(cluster, operation).Inc()
}

// RecordValidationProblems records problems found in a validation pass.
func RecordValidationProblems(index string, count int) {
	if count > 0 {
		ValidationProblemsTotal.WithLabelValues(index).Add(float64(count))
	}
}

// RecordMaintenanceModeToggle records one maintenance mode transition.
// direction is "start" or "end".
func RecordMaintenanceModeToggle(cluster, direction string) {
	MaintenanceModeToggles.WithLabelValues(cluster, direction).Inc()
}
