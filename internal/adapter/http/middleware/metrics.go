package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/Temutjin2k/fleet-ledger/pkg/metrics"
)

type routeCtxKey struct{}

// Metrics records request counts, latency and in-flight requests. Requests are
// labelled by the matched route pattern, filled in by Route, so path ids do not
// blow up label cardinality.
func (m *Middleware) Metrics(serviceName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			metrics.HttpRequestsInFlight.WithLabelValues(serviceName).Inc()
			defer metrics.HttpRequestsInFlight.WithLabelValues(serviceName).Dec()

			route := new(string)
			rw := newStatusRecorder(w)
			next.ServeHTTP(rw, r.WithContext(context.WithValue(r.Context(), routeCtxKey{}, route)))

			path := *route
			if path == "" {
				path = "unmatched"
			}
			metrics.RecordHTTPMetrics(serviceName, r.Method, path, rw.Status(), time.Since(start))
		})
	}
}

// Route wraps the mux and reports the pattern it matched back to Metrics.
func Route(mux http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mux.ServeHTTP(w, r)
		if route, ok := r.Context().Value(routeCtxKey{}).(*string); ok {
			*route = r.Pattern
		}
	})
}
