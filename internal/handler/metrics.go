package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	answersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "story_answers_total",
			Help: "Total number of answer submissions by result.",
		},
		[]string{"result"},
	)

	resetsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "story_progress_resets_total",
			Help: "Total number of progress reset requests by outcome.",
		},
		[]string{"outcome"},
	)

	accessRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "story_access_rejected_total",
			Help: "Total number of requests rejected by visibility or reachability checks.",
		},
		[]string{"code"},
	)
)
