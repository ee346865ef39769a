package httpapi

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/cloud-ru/emi-calculator-go/internal/logging"
	"github.com/cloud-ru/emi-calculator-go/internal/metrics"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// RequestIDHeader - заголовок с идентификатором запроса
const RequestIDHeader = "X-Request-ID"

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// RequestLogger присваивает запросу request_id, кладет логгер в контекст
// и пишет строку access-лога с метрикой по маршруту.
func RequestLogger(base zerolog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, requestID)

			ctx := logging.WithRequestID(r.Context(), base, requestID)
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			started := time.Now()

			next.ServeHTTP(rec, r.WithContext(ctx))

			route := r.URL.Path
			if current := mux.CurrentRoute(r); current != nil {
				if tpl, err := current.GetPathTemplate(); err == nil {
					route = tpl
				}
			}
			metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()

			logging.FromContext(ctx).Info().
				Str("method", r.Method).
				Str("route", route).
				Int("status", rec.status).
				Dur("duration", time.Since(started)).
				Msg("request handled")
		})
	}
}

// RateLimit отклоняет запросы сверх лимита с кодом 429. При сбое
// ограничителя запрос пропускается.
func RateLimit(limiter Limiter) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}

			allowed, err := limiter.Allow(r.Context(), ip)
			if err != nil {
				logging.FromContext(r.Context()).Warn().Err(err).Msg("rate limiter unavailable")
				allowed = true
			}
			if !allowed {
				metrics.RateLimited.Inc()
				writeError(w, http.StatusTooManyRequests, "слишком много запросов, повторите позже")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
