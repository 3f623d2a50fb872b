package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	jobsSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ferry_jobs_submitted_total",
		Help: "Jobs accepted (or refused) by the submit endpoint.",
	}, []string{"result"})

	jobsCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ferry_jobs_cancelled_total",
		Help: "Cancel requests issued to the backend.",
	})
)
