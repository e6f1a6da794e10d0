package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pairsTrained = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "annualref_pairs_trained_total",
		Help: "Training runs per (delivery point, fluid) pair, by final status.",
	}, []string{"status"})

	meanFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "annualref_mean_fallbacks_total",
		Help: "Pairs that ended up on the mean model instead of a regression.",
	})

	outlierMonths = promauto.NewCounter(prometheus.CounterOpts{
		Name: "annualref_outlier_months_total",
		Help: "Training months flagged anomalous and corrected.",
	})
)
