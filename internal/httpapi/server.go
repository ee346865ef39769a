package httpapi

import (
	"net/http"

	"github.com/cloud-ru/emi-calculator-go/internal/config"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// NewRouter собирает маршруты сервиса. API маршруты проходят через
// логирование и ограничитель; /healthz и /metrics только через логирование.
func NewRouter(cfg *config.Config, tracer trace.Tracer, logger zerolog.Logger, limiter Limiter) *mux.Router {
	handler := NewLoanHandler(cfg, tracer)

	router := mux.NewRouter()
	router.Use(RequestLogger(logger))

	router.HandleFunc("/healthz", handler.Health).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(RateLimit(limiter))
	api.HandleFunc("/loan/emi", handler.CalculateEMI).Methods(http.MethodPost)
	api.HandleFunc("/loan/emi/compare", handler.CompareModes).Methods(http.MethodPost)
	api.HandleFunc("/loan/emi/export", handler.ExportSchedule).Methods(http.MethodPost)
	api.HandleFunc("/tools/{name}", handler.InvokeTool).Methods(http.MethodPost)

	return router
}
