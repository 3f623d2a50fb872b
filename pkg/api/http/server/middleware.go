package server

import (
	"net/http"

	"go.uber.org/zap"
)

// loggingMiddleware shims in a handler middleware that logs requests.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("uri", r.RequestURI),
			zap.Int64("length", r.ContentLength),
		)
		next.ServeHTTP(w, r)
	})
}
