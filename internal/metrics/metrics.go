package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ToolCalls счетчик вызовов инструментов
	ToolCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tool_calls_total",
			Help: "Total number of calculation tool calls",
		},
		[]string{"tool_name", "status"},
	)

	// CalculationErrors счетчик ошибок расчетов
	CalculationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "calculation_errors_total",
			Help: "Number of failed calculations by error class",
		},
		[]string{"tool_name", "error_type"},
	)

	// APICalls счетчик вызовов API
	APICalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_calls_total",
			Help: "Tool API calls by lifecycle status",
		},
		[]string{"service", "endpoint", "status"},
	)

	// ScheduleMonths распределение длины построенных графиков
	ScheduleMonths = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "schedule_months",
			Help:    "Number of rows in computed amortization schedules",
			Buckets: []float64{6, 12, 24, 36, 60, 120, 240, 360, 600, 1000},
		},
		[]string{"mode"},
	)

	// HTTPRequests счетчик HTTP запросов по маршруту и коду ответа
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route and status code",
		},
		[]string{"route", "code"},
	)

	// RateLimited счетчик отклоненных лимитером запросов
	RateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rate_limited_requests_total",
			Help: "Requests rejected by the rate limiter",
		},
	)
)
