package registry

import (
	"net/http"
	"strconv"
	"time"
)

// wrapRoute wraps a Route's handler with metrics recording.
func wrapRoute(providerName string, route Route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusCapture{ResponseWriter: w, status: http.StatusOK}

		route.Handler.ServeHTTP(sw, r)

		providerAPIRequests.WithLabelValues(providerName, r.Method, route.Pattern, strconv.Itoa(sw.status)).Inc()
		providerAPIDuration.WithLabelValues(providerName, r.Method, route.Pattern).Observe(time.Since(start).Seconds())
	}
}

// statusCapture wraps http.ResponseWriter to capture the status code.
type statusCapture struct {
	http.ResponseWriter
	status  int
	written bool
}

func (w *statusCapture) WriteHeader(status int) {
	if !w.written {
		w.status = status
		w.written = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusCapture) Write(b []byte) (int, error) {
	w.written = true
	return w.ResponseWriter.Write(b)
}

func (w *statusCapture) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
