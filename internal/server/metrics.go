package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	studiesStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gmab_studies_started_total",
		Help: "Number of optimization studies accepted by the API.",
	})

	studiesFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gmab_studies_finished_total",
		Help: "Number of optimization studies reaching a terminal state.",
	}, []string{"status"})

	evaluationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gmab_objective_evaluations_total",
		Help: "Number of objective function evaluations spent across all studies.",
	})
)
