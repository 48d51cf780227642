package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ReservationsAdmitted = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ridepool", Name: "reservations_admitted_total", Help: "Seat reservations admitted"})
	ReservationsRejected = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ridepool", Name: "reservations_rejected_total", Help: "Seat reservations rejected for lack of capacity"})
	AssignmentsAccepted  = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ridepool", Name: "assignments_accepted_total", Help: "Driver assignments accepted"})
	AssignmentsRejected  = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ridepool", Name: "assignments_rejected_total", Help: "Driver assignments rejected"})
	RidesCompleted       = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ridepool", Name: "rides_completed_total", Help: "Rides driven to completion"})

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ridepool", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ridepool",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
