/*
 * Copyright (C) 2025-2025, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	LogLinesEvaluated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "primus",
		Subsystem: "experiment_manager",
		Name:      "log_lines_evaluated_total",
		Help:      "Total number of output log lines fed through the condition evaluator",
	})

	ConditionsFired = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "primus",
		Subsystem: "experiment_manager",
		Name:      "conditions_fired_total",
		Help:      "Total number of fired conditions, partitioned by action label",
	}, []string{"action"})

	TerminationsExecuted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "primus",
		Subsystem: "experiment_manager",
		Name:      "terminations_total",
		Help:      "Total number of termination commands completed for met kill conditions",
	})

	MonitoredExperiments = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "primus",
		Subsystem: "experiment_manager",
		Name:      "monitored_experiments",
		Help:      "Number of experiments currently owned by a running monitor",
	})
)

func init() {
	prometheus.MustRegister(LogLinesEvaluated)
	prometheus.MustRegister(ConditionsFired)
	prometheus.MustRegister(TerminationsExecuted)
	prometheus.MustRegister(MonitoredExperiments)
}
