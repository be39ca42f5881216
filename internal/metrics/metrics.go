package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "campusrooms",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "campusrooms",
			Name:      "reservation_transitions_total",
			Help:      "Accepted reservation transitions by action.",
		},
		[]string{"action"},
	)

	admissionRejects = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "campusrooms",
			Name:      "admission_rejections_total",
			Help:      "Reservation requests rejected at admission, by cause.",
		},
		[]string{"cause"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, transitions, admissionRejects)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// IncTransition increments the counter for an accepted transition.
func IncTransition(action string) {
	transitions.WithLabelValues(action).Inc()
}

// IncAdmissionReject increments the counter for a failed admission check.
func IncAdmissionReject(cause string) {
	admissionRejects.WithLabelValues(cause).Inc()
}
