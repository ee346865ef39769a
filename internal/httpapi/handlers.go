package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cloud-ru/emi-calculator-go/internal/calculations"
	"github.com/cloud-ru/emi-calculator-go/internal/config"
	"github.com/cloud-ru/emi-calculator-go/internal/export"
	"github.com/cloud-ru/emi-calculator-go/internal/logging"
	"github.com/cloud-ru/emi-calculator-go/internal/tools"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel/trace"
)

const maxBodyBytes = 1 << 20

// LoanHandler обслуживает HTTP запросы калькулятора EMI
type LoanHandler struct {
	cfg    *config.Config
	tracer trace.Tracer
	tools  map[string]tools.ToolHandler
}

// NewLoanHandler создает обработчик
func NewLoanHandler(cfg *config.Config, tracer trace.Tracer) *LoanHandler {
	return &LoanHandler{
		cfg:    cfg,
		tracer: tracer,
		tools:  tools.Registry(cfg, tracer),
	}
}

// CalculateEMI возвращает график платежей в JSON
func (h *LoanHandler) CalculateEMI(w http.ResponseWriter, r *http.Request) {
	spec, ok := decodeSpec(w, r)
	if !ok {
		return
	}

	result, err := tools.CalculateSchedule(r.Context(), h.cfg, h.tracer, spec)
	if err != nil {
		writeCalculationError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// CompareModes возвращает сравнение режимов досрочного погашения
func (h *LoanHandler) CompareModes(w http.ResponseWriter, r *http.Request) {
	spec, ok := decodeSpec(w, r)
	if !ok {
		return
	}

	result, err := tools.CompareModes(r.Context(), h.cfg, h.tracer, spec)
	if err != nil {
		writeCalculationError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ExportSchedule отдает график платежей файлом XLSX
func (h *LoanHandler) ExportSchedule(w http.ResponseWriter, r *http.Request) {
	spec, ok := decodeSpec(w, r)
	if !ok {
		return
	}

	result, err := tools.CalculateSchedule(r.Context(), h.cfg, h.tracer, spec)
	if err != nil {
		writeCalculationError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteScheduleXLSX(&buf, result); err != nil {
		logging.FromContext(r.Context()).Error().Err(err).Msg("failed to render schedule workbook")
		writeError(w, http.StatusInternalServerError, "не удалось сформировать файл графика")
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="emi-schedule.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// InvokeTool вызывает инструмент по имени с произвольными параметрами
func (h *LoanHandler) InvokeTool(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	handler, ok := h.tools[name]
	if !ok {
		writeError(w, http.StatusNotFound, "неизвестный инструмент: "+name)
		return
	}

	var params map[string]interface{}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "некорректное тело запроса")
		return
	}

	result, err := handler(r.Context(), params)
	if err != nil {
		writeCalculationError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Health - проверка живости
func (h *LoanHandler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func decodeSpec(w http.ResponseWriter, r *http.Request) (calculations.LoanSpecification, bool) {
	var spec calculations.LoanSpecification
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&spec); err != nil {
		writeError(w, http.StatusBadRequest, "некорректное тело запроса")
		return spec, false
	}
	return spec, true
}

// statusFor сопоставляет ошибку расчета коду HTTP ответа
func statusFor(err error) int {
	switch {
	case errors.Is(err, calculations.ErrInvalidParameters):
		return http.StatusBadRequest
	case errors.Is(err, calculations.ErrNonAmortizingEMI),
		errors.Is(err, calculations.ErrSafetyCapExceeded):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeCalculationError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "ошибка при выполнении расчета"
	}
	writeError(w, status, msg)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeJSON кодирует ответ до отправки статуса; ошибка кодирования дает 500
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"не удалось сформировать ответ"}` + "\n"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
