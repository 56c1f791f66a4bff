package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BookingsTotal = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ride_booking", Name: "bookings_total", Help: "Total rides booked after confirmed payment"})
	PaymentFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ride_booking", Name: "payment_failures_total", Help: "Payment failures by stage"},
		[]string{"stage"},
	)
	ReconciliationFailures = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ride_booking", Name: "reconciliation_failures_total", Help: "Confirmed payments whose ride record could not be created"})

	PollTicks = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ride_booking", Name: "trip_poll_ticks_total", Help: "Trip tracker poll ticks executed"})
	PollErrors = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ride_booking", Name: "trip_poll_errors_total", Help: "Trip tracker poll ticks that failed transiently"})
	TripsTerminal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ride_booking", Name: "trips_terminal_total", Help: "Trips that reached a terminal view state"},
		[]string{"state"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ride_booking", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ride_booking",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
