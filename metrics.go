// Copyright 2020 The hypia authors.
// SPDX-License-Identifier: Apache-2.0

package hypia

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	transformDuration = prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Namespace: "hypia",
		Name:      "transform_seconds",
		Help:      "Time taken by pipeline transforms in seconds.",
	}, []string{"op"})
	transformErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hypia",
		Name:      "transform_errors_total",
		Help:      "Total pipeline transform failures.",
	}, []string{"op"})
)

func init() {
	prometheus.MustRegister(transformDuration)
	prometheus.MustRegister(transformErrors)
}
