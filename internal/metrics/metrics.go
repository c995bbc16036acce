package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hallslot_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hallslot_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// BookingsTotal counts booking writes by operation (create, update) and outcome
	// (accepted, conflict, invalid, error).
	BookingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hallslot_bookings_total",
			Help: "Total number of booking write attempts",
		},
		[]string{"operation", "outcome"},
	)

	BookingConflictsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hallslot_booking_conflicts_total",
			Help: "Total number of booking requests rejected for overlapping an existing booking",
		},
		[]string{"hall"},
	)

	ValidationFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hallslot_booking_validation_failures_total",
			Help: "Total number of booking payloads rejected by validation",
		},
		[]string{"kind"},
	)

	StatusTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hallslot_booking_status_transitions_total",
			Help: "Total number of booking status transitions",
		},
		[]string{"from", "to"},
	)

	CancelRequestsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hallslot_booking_cancel_requests_total",
			Help: "Total number of booking cancellation requests",
		},
	)

	HallLockWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hallslot_hall_lock_wait_seconds",
			Help:    "Time spent waiting for a per-hall booking lock",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
		},
	)

	EmailsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hallslot_emails_sent_total",
			Help: "Total number of emails sent",
		},
		[]string{"type", "status"},
	)

	EmailQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hallslot_email_queue_length",
			Help: "Current length of email queue",
		},
	)

	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hallslot_events_published_total",
			Help: "Total number of booking events published to the message broker",
		},
		[]string{"routing_key", "status"},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordBooking(operation, outcome string) {
	BookingsTotal.WithLabelValues(operation, outcome).Inc()
}

func RecordConflict(hall string) {
	BookingConflictsTotal.WithLabelValues(hall).Inc()
}

func RecordValidationFailure(kind string) {
	ValidationFailuresTotal.WithLabelValues(kind).Inc()
}

func RecordStatusTransition(from, to string) {
	StatusTransitionsTotal.WithLabelValues(from, to).Inc()
}

func RecordCancelRequest() {
	CancelRequestsTotal.Inc()
}

func ObserveHallLockWait(seconds float64) {
	HallLockWait.Observe(seconds)
}

func RecordEmail(emailType, status string) {
	EmailsSentTotal.WithLabelValues(emailType, status).Inc()
}

func SetEmailQueueLength(n int64) {
	EmailQueueLength.Set(float64(n))
}

func RecordEvent(routingKey, status string) {
	EventsPublishedTotal.WithLabelValues(routingKey, status).Inc()
}
