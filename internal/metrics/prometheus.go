package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Price feed metrics
	FetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goldsentinel_fetch_total",
			Help: "Total number of price series fetches",
		},
		[]string{"source", "result"}, // result: success|fallback
	)

	ComputeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "goldsentinel_compute_duration_seconds",
			Help:    "Statistics and indicator computation time in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
		[]string{"interval"},
	)

	// Report metrics
	ReportsReceived = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "goldsentinel_reports_received_total",
			Help: "Total number of sentiment reports received",
		},
	)

	ForwardTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goldsentinel_forward_total",
			Help: "Total number of report deliveries",
		},
		[]string{"forwarder", "status"}, // status: success|error
	)

	// HTTP metrics
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goldsentinel_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "code"},
	)

	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "goldsentinel_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	// Scheduler metrics
	JobExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "goldsentinel_job_executions_total",
			Help: "Total number of scheduled job executions",
		},
		[]string{"job", "status"},
	)
)

// Init registers all collectors with the default registry. Call once at startup.
func Init() {
	prometheus.MustRegister(FetchTotal)
	prometheus.MustRegister(ComputeDuration)
	prometheus.MustRegister(ReportsReceived)
	prometheus.MustRegister(ForwardTotal)
	prometheus.MustRegister(HTTPRequests)
	prometheus.MustRegister(HTTPDuration)
	prometheus.MustRegister(JobExecutions)
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
