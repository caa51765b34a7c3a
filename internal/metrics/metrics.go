package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "shareit"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		},
		[]string{"route", "code"},
	)

	bookingsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_created_total",
			Help:      "Bookings created.",
		},
	)

	bookingDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_decisions_total",
			Help:      "Owner decisions by outcome.",
		},
		[]string{"decision"},
	)

	directoryEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "directory_events_total",
			Help:      "Comments and item requests created.",
		},
		[]string{"kind"},
	)

	quotaRejections = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "user_quota_rejections_total",
			Help:      "Requests rejected by the per-user quota.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, bookingsCreated, bookingDecisions, directoryEvents, quotaRejections)
	})
}

func IncHTTP(route, code string) {
	httpRequests.WithLabelValues(route, code).Inc()
}

func IncBookingCreated() {
	bookingsCreated.Inc()
}

// IncDecision counts an owner decision; decision is "approved" or "rejected".
func IncDecision(decision string) {
	bookingDecisions.WithLabelValues(decision).Inc()
}

// IncDirectory counts a directory write; kind is "comment" or "request".
func IncDirectory(kind string) {
	directoryEvents.WithLabelValues(kind).Inc()
}

func IncQuotaRejected() {
	quotaRejections.Inc()
}
