package rest

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/Pulsar1722/homeIoTServer/internal/logger"
)

const (
	// headerRequestID carries the request ID in both directions.
	headerRequestID = "X-Request-ID"
	// headerTriggerToken carries the shared trigger token.
	headerTriggerToken = "X-Trigger-Token"
	// queryTriggerToken is the query parameter alternative to headerTriggerToken.
	queryTriggerToken = "key"
	// requestIDBytes is the number of random bytes used for request IDs.
	requestIDBytes = 8
)

// requestIDMiddleware tags the request logger with a request ID.
// If the client sends an X-Request-ID header, it is used; otherwise one is generated.
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(headerRequestID)
		if requestID == "" {
			requestID = generateRequestID()
		}

		w.Header().Set(headerRequestID, requestID)

		ctx := logger.WithKV(s.baseContext(r.Context()), "request_id", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// loggingMiddleware logs each HTTP request with method, path, status, and duration.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		logger.InfoKV(r.Context(), "HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.status,
			"duration", time.Since(start),
		)
	})
}

// recoveryMiddleware catches panics in handlers and returns a 500 response.
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorKV(r.Context(), "Panic recovered in HTTP handler",
					"error", rec,
					"method", r.Method,
					"path", r.URL.Path,
				)
				writeError(w, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// authMiddleware checks the shared trigger token when one is configured.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.token == "" {
			next.ServeHTTP(w, r)

			return
		}

		presented := r.Header.Get(headerTriggerToken)
		if presented == "" {
			presented = r.URL.Query().Get(queryTriggerToken)
		}

		if subtle.ConstantTimeCompare([]byte(presented), []byte(s.token)) != 1 {
			logger.WarnKV(r.Context(), "Rejected trigger with invalid token", "path", r.URL.Path)
			writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid trigger token")

			return
		}

		next.ServeHTTP(w, r)
	})
}

// baseContext carries the server logger into request contexts
// that do not have one yet.
func (s *Server) baseContext(ctx context.Context) context.Context {
	return logger.ToContext(ctx, logger.FromContext(s.ctx))
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter

	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// generateRequestID creates a random hex request ID.
func generateRequestID() string {
	b := make([]byte, requestIDBytes)
	//nolint:errcheck // crypto/rand.Read always returns len(b) on supported platforms.
	rand.Read(b)

	return hex.EncodeToString(b)
}
