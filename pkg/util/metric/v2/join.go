// Copyright 2021 Matrix Origin
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package v2

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	registry = prometheus.NewRegistry()
)

func init() {
	initJoinMetrics()
}

func initJoinMetrics() {
	registry.MustRegister(joinCounter)
	registry.MustRegister(joinErrorCounter)
	registry.MustRegister(joinPhaseDurationHistogram)
	registry.MustRegister(JoinOutputRowsHistogram)
	registry.MustRegister(JoinBuildTablesGauge)
}

// GetPrometheusRegistry returns the registry holding the join metrics.
func GetPrometheusRegistry() *prometheus.Registry {
	return registry
}

var (
	joinCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mo",
			Subsystem: "join",
			Name:      "total",
			Help:      "Total number of joins run.",
		}, []string{"type"})

	joinErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mo",
			Subsystem: "join",
			Name:      "error_total",
			Help:      "Total number of failed joins.",
		}, []string{"type"})

	JoinOutputRowsHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "mo",
			Subsystem: "join",
			Name:      "output_rows",
			Help:      "Bucketed histogram of join result rows.",
			Buckets:   prometheus.ExponentialBuckets(1, 4.0, 16),
		})

	JoinBuildTablesGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "mo",
			Subsystem: "join",
			Name:      "build_tables",
			Help:      "Number of hash tables built by the last join.",
		})
)

// JoinCounter returns the counter of joins of type typ.
func JoinCounter(typ string) prometheus.Counter {
	return joinCounter.WithLabelValues(typ)
}

func JoinErrorCounter(typ string) prometheus.Counter {
	return joinErrorCounter.WithLabelValues(typ)
}

var (
	joinPhaseDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mo",
			Subsystem: "join",
			Name:      "phase_duration_seconds",
			Help:      "Bucketed histogram of join phase duration.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 2.0, 24),
		}, []string{"phase"})

	JoinNormalizeDurationHistogram = joinPhaseDurationHistogram.WithLabelValues("normalize")
	JoinBuildDurationHistogram     = joinPhaseDurationHistogram.WithLabelValues("build")
	JoinValidateDurationHistogram  = joinPhaseDurationHistogram.WithLabelValues("validate")
	JoinProbeDurationHistogram     = joinPhaseDurationHistogram.WithLabelValues("probe")
	JoinAssembleDurationHistogram  = joinPhaseDurationHistogram.WithLabelValues("assemble")
)
