package httpapi

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"bilancio/internal/log"
)

// requestLogger logs basic request info at INFO and nothing else; panics
// are handled by recoverer.
func requestLogger(l *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			reqID := chimw.GetReqID(r.Context())
			l.Info("request started",
				log.FieldRequestID, reqID,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path,
			)

			next.ServeHTTP(ww, r)

			l.Info("request complete",
				log.FieldRequestID, reqID,
				log.FieldStatusCode, ww.Status(),
				"bytes", ww.BytesWritten(),
				log.FieldDuration, time.Since(start).Milliseconds(),
			)
		})
	}
}

// recoverer logs panics as ERROR and returns 500.
func recoverer(l *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					reqID := chimw.GetReqID(r.Context())
					l.Error("panic",
						log.FieldRequestID, reqID,
						log.FieldError, rec,
						"stack", string(debug.Stack()),
					)
					w.WriteHeader(http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
