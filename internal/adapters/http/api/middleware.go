package api

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/okian/holotrumps/pkg/logger"
	"github.com/okian/holotrumps/pkg/metrics"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

var requestIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

type requestIDKey struct{}

// RequestIDFromContext returns the id assigned by instrument, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// instrument tags each request with an id, records HTTP metrics for
// endpoint and logs the outcome at debug level when log is set.
func instrument(endpoint string, log logger.Logger, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := r.Header.Get(RequestIDHeader)
		if !requestIDPattern.MatchString(id) {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		r = r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id))

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		took := time.Since(start)
		status := strconv.Itoa(rec.status)
		metrics.RecordHTTPRequest(endpoint, r.Method, status)
		metrics.RecordHTTPRequestDuration(endpoint, r.Method, status, float64(took.Milliseconds()))
		if rec.status >= http.StatusBadRequest {
			metrics.RecordErrorByComponent("http_"+endpoint, statusClass(rec.status))
		}

		if log != nil {
			log.Debug(r.Context(), "request complete",
				logger.String("request_id", id),
				logger.String("method", r.Method),
				logger.String("endpoint", endpoint),
				logger.Int("status", rec.status),
				logger.Duration("took", took),
			)
		}
	}
}

// statusClass buckets an error status for the component error counter.
func statusClass(status int) string {
	switch {
	case status >= http.StatusInternalServerError:
		return "server_error"
	case status == http.StatusRequestEntityTooLarge:
		return "too_large"
	case status == http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case status == http.StatusNotFound:
		return "not_found"
	default:
		return "client_error"
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("write response: %w", err)
	}
	return n, nil
}
