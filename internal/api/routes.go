package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"GoldSentinel/internal/logger"
	"GoldSentinel/internal/metrics"
)

// RouterOptions configures the middleware wrapped around the routes.
type RouterOptions struct {
	CORSOrigins        []string
	RateLimitPerMinute int // 0 disables
}

// SetupRoutes configures all API routes. CORS and rate limiting wrap the
// router so preflight requests never reach method matching.
func SetupRoutes(handler *Handler, opts RouterOptions) http.Handler {
	r := mux.NewRouter()
	r.Use(accessLog(logger.Get().With("component", "http")))

	// Operations
	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")
	r.Handle("/metrics", metrics.Handler()).Methods("GET")

	// Reports
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/n8n-data", handler.ReceiveReport).Methods("POST")
	api.HandleFunc("/current-data", handler.CurrentData).Methods("GET")
	api.HandleFunc("/forward-report", handler.ForwardReport).Methods("POST")
	api.HandleFunc("/test-webhook-connection", handler.TestWebhookConnection).Methods("GET")

	// Gold market data
	api.HandleFunc("/gold-price", handler.GoldPrice).Methods("GET")
	api.HandleFunc("/gold-indicators", handler.GoldIndicators).Methods("GET")

	var h http.Handler = r
	if opts.RateLimitPerMinute > 0 {
		h = newRateLimiter(opts.RateLimitPerMinute).middleware(h)
	}
	if len(opts.CORSOrigins) > 0 {
		h = cors(opts.CORSOrigins)(h)
	}
	return h
}
