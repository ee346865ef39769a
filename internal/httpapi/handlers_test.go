package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cloud-ru/emi-calculator-go/internal/calculations"
	"github.com/cloud-ru/emi-calculator-go/internal/config"
	"github.com/cloud-ru/emi-calculator-go/internal/export"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel/trace/noop"
)

func newTestRouter(t *testing.T, limiter Limiter) http.Handler {
	t.Helper()
	if limiter == nil {
		mem := NewMemoryLimiter(1000, time.Minute)
		t.Cleanup(mem.Stop)
		limiter = mem
	}
	return NewRouter(config.Default(), noop.NewTracerProvider().Tracer("test"), zerolog.Nop(), limiter)
}

func doPost(t *testing.T, router http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCalculateEMIHandler_OK(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doPost(t, router, "/api/v1/loan/emi", `{
		"loanAmount": 100000,
		"annualRate": 12,
		"tenureMonths": 24,
		"prepayments": [{"month": 6, "amount": 20000}],
		"mode": "reduceEMI"
	}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	var body struct {
		LoanAmount    float64 `json:"loanAmount"`
		AnnualRate    float64 `json:"annualRate"`
		EMI           string  `json:"emi"`
		Mode          string  `json:"mode"`
		TotalInterest string  `json:"totalInterest"`
		TotalPaid     string  `json:"totalPaid"`
		TotalMonths   int     `json:"totalMonths"`
		Breakdown     []struct {
			Month              int    `json:"month"`
			EMI                string `json:"emi"`
			Interest           string `json:"interest"`
			Principal          string `json:"principal"`
			Prepayment         string `json:"prepayment"`
			RemainingPrincipal string `json:"remainingPrincipal"`
		} `json:"breakdown"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	assert.Equal(t, 100000.0, body.LoanAmount)
	assert.Equal(t, 12.0, body.AnnualRate)
	assert.Equal(t, "4707.35", body.EMI)
	assert.Equal(t, "reduceEMI", body.Mode)
	assert.Equal(t, 24, body.TotalMonths)
	require.Len(t, body.Breakdown, 24)
	assert.Equal(t, "20000.00", body.Breakdown[5].Prepayment)
	assert.Equal(t, "3487.71", body.Breakdown[6].EMI)
	assert.Equal(t, "0.00", body.Breakdown[23].RemainingPrincipal)
}

func TestCalculateEMIHandler_Errors(t *testing.T) {
	router := newTestRouter(t, nil)

	tests := []struct {
		name string
		body string
		code int
	}{
		{name: "malformed json", body: `{invalid-json}`, code: http.StatusBadRequest},
		{name: "missing emi and tenure", body: `{"loanAmount": 1000, "annualRate": 10}`, code: http.StatusBadRequest},
		{name: "negative amount", body: `{"loanAmount": -5, "annualRate": 10, "tenureMonths": 12}`, code: http.StatusBadRequest},
		{name: "unknown mode", body: `{"loanAmount": 1000, "annualRate": 10, "tenureMonths": 12, "mode": "x"}`, code: http.StatusBadRequest},
		{name: "non-amortizing emi", body: `{"loanAmount": 100000, "annualRate": 24, "emi": 500}`, code: http.StatusUnprocessableEntity},
		{name: "safety cap", body: `{"loanAmount": 100000, "annualRate": 12, "emi": 1000.01}`, code: http.StatusUnprocessableEntity},
		{name: "rate above limit", body: `{"loanAmount": 100000, "annualRate": 2000, "tenureMonths": 1000}`, code: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doPost(t, router, "/api/v1/loan/emi", tt.body)
			assert.Equal(t, tt.code, w.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestCalculateEMIHandler_RateBelowPrecision(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doPost(t, router, "/api/v1/loan/emi", `{"loanAmount": 100000, "annualRate": 1e-15, "tenureMonths": 12}`)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		EMI           string `json:"emi"`
		TotalInterest string `json:"totalInterest"`
		TotalMonths   int    `json:"totalMonths"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "8333.33", body.EMI)
	assert.Equal(t, "0.00", body.TotalInterest)
	assert.Equal(t, 12, body.TotalMonths)
}

func TestWriteJSONEncodeFailure(t *testing.T) {
	w := httptest.NewRecorder()
	writeJSON(w, http.StatusOK, map[string]calculations.Money{"emi": calculations.Money(math.Inf(1))})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body["error"])
}

func TestCompareModesHandler(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doPost(t, router, "/api/v1/loan/emi/compare",
		`{"loanAmount": 100000, "annualRate": 12, "tenureMonths": 24, "prepayments": [{"month": 6, "amount": 20000}]}`)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "reduceTenure", body["cheaperMode"])
	assert.Equal(t, "1497.43", body["savings"])
}

func TestExportScheduleHandler(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doPost(t, router, "/api/v1/loan/emi/export", `{"loanAmount": 10000, "annualRate": 0, "tenureMonths": 10}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, export.ContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "emi-schedule.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(export.ScheduleSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 20)
}

func TestInvokeToolHandler(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doPost(t, router, "/api/v1/tools/loan_emi_schedule", `{"loanAmount": 10000, "annualRate": 0, "tenureMonths": 10}`)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "1000.00", body["emi"])

	w = doPost(t, router, "/api/v1/tools/deposit_schedule", `{}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/healthz", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

	doPost(t, router, "/api/v1/loan/emi", `{"loanAmount": 10000, "annualRate": 0, "tenureMonths": 10}`)

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	out, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	assert.Contains(t, string(out), "tool_calls_total")
	assert.Contains(t, string(out), `http_requests_total{code="200",route="/api/v1/loan/emi"}`)
}

func TestRequestIDPropagated(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "req-from-gateway")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "req-from-gateway", w.Header().Get(RequestIDHeader))
}

func TestRateLimitedRouter(t *testing.T) {
	limiter := NewMemoryLimiter(1, time.Minute)
	t.Cleanup(limiter.Stop)
	router := newTestRouter(t, limiter)

	body := `{"loanAmount": 10000, "annualRate": 0, "tenureMonths": 10}`
	assert.Equal(t, http.StatusOK, doPost(t, router, "/api/v1/loan/emi", body).Code)
	assert.Equal(t, http.StatusTooManyRequests, doPost(t, router, "/api/v1/loan/emi", body).Code)

	// служебные маршруты не ограничиваются
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
