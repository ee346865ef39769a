package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cloud-ru/emi-calculator-go/internal/calculations"
	"github.com/cloud-ru/emi-calculator-go/internal/config"
	"github.com/cloud-ru/emi-calculator-go/internal/logging"
	"github.com/cloud-ru/emi-calculator-go/internal/metrics"
	"github.com/cloud-ru/emi-calculator-go/internal/validators"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// LoanEMIScheduleTool строит график платежей
	LoanEMIScheduleTool = "loan_emi_schedule"
	// ComparePrepaymentModesTool сравнивает режимы досрочного погашения
	ComparePrepaymentModesTool = "compare_prepayment_modes"
)

// ToolHandler представляет обработчик инструмента
type ToolHandler func(ctx context.Context, params map[string]interface{}) (interface{}, error)

// Registry возвращает все инструменты сервиса по имени
func Registry(cfg *config.Config, tracer trace.Tracer) map[string]ToolHandler {
	return map[string]ToolHandler{
		LoanEMIScheduleTool:        LoanEMIScheduleHandler(cfg, tracer),
		ComparePrepaymentModesTool: ComparePrepaymentModesHandler(cfg, tracer),
	}
}

// LoanEMIScheduleHandler обрабатывает запрос на расчет графика EMI
func LoanEMIScheduleHandler(cfg *config.Config, tracer trace.Tracer) ToolHandler {
	return func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
		spec, err := decodeParams(params)
		if err != nil {
			metrics.ToolCalls.WithLabelValues(LoanEMIScheduleTool, "validation_error").Inc()
			return nil, err
		}
		return CalculateSchedule(ctx, cfg, tracer, spec)
	}
}

// ComparePrepaymentModesHandler обрабатывает запрос на сравнение режимов
func ComparePrepaymentModesHandler(cfg *config.Config, tracer trace.Tracer) ToolHandler {
	return func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
		spec, err := decodeParams(params)
		if err != nil {
			metrics.ToolCalls.WithLabelValues(ComparePrepaymentModesTool, "validation_error").Inc()
			return nil, err
		}
		return CompareModes(ctx, cfg, tracer, spec)
	}
}

// CalculateSchedule проверяет лимиты и строит график с трейсингом и метриками
func CalculateSchedule(ctx context.Context, cfg *config.Config, tracer trace.Tracer,
	spec calculations.LoanSpecification) (*calculations.LoanCalculationResult, error) {

	var result *calculations.LoanCalculationResult
	err := run(ctx, cfg, tracer, LoanEMIScheduleTool, spec, func(span trace.Span) error {
		var err error
		result, err = calculations.Compute(spec)
		if err != nil {
			return err
		}
		span.SetAttributes(
			attribute.Float64("emi", float64(result.EMI)),
			attribute.Int("total_months", result.TotalMonths),
			attribute.Float64("total_paid", float64(result.TotalPaid)),
		)
		metrics.ScheduleMonths.WithLabelValues(string(result.Mode)).Observe(float64(result.TotalMonths))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CompareModes проверяет лимиты и сравнивает режимы досрочного погашения
func CompareModes(ctx context.Context, cfg *config.Config, tracer trace.Tracer,
	spec calculations.LoanSpecification) (*calculations.ComparisonResult, error) {

	var result *calculations.ComparisonResult
	err := run(ctx, cfg, tracer, ComparePrepaymentModesTool, spec, func(span trace.Span) error {
		var err error
		result, err = calculations.CompareModes(spec)
		if err != nil {
			return err
		}
		span.SetAttributes(
			attribute.String("cheaper_mode", result.CheaperMode),
			attribute.Float64("savings", float64(result.Savings)),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// run оборачивает расчет: спан, валидация, метрики и лог результата
func run(ctx context.Context, cfg *config.Config, tracer trace.Tracer, toolName string,
	spec calculations.LoanSpecification, calc func(span trace.Span) error) error {

	ctx, span := tracer.Start(ctx, toolName)
	defer span.End()

	span.SetAttributes(
		attribute.Float64("loan_amount", spec.LoanAmount),
		attribute.Float64("annual_rate", spec.AnnualRate),
		attribute.Int("tenure_months", spec.TenureMonths),
		attribute.Float64("emi_input", spec.EMI),
		attribute.Int("prepayments", len(spec.Prepayments)),
		attribute.String("mode", string(spec.Mode.OrDefault())),
	)

	logger := logging.FromContext(ctx)
	metrics.APICalls.WithLabelValues("http", toolName, "started").Inc()

	// Валидация
	if err := validators.CheckSpecification(cfg, spec); err != nil {
		err = fmt.Errorf("%w: %v", calculations.ErrInvalidParameters, err)
		fail(span, toolName, "validation_error", "validation", err)
		logger.Warn().Err(err).Str("tool", toolName).Msg("rejected loan specification")
		return err
	}

	// Расчет
	if err := calc(span); err != nil {
		errorType := classify(err)
		status := "error"
		if errorType == "validation" {
			status = "validation_error"
		}
		fail(span, toolName, status, errorType, err)
		logger.Warn().Err(err).Str("tool", toolName).Str("error_type", errorType).Msg("calculation failed")
		return err
	}

	span.SetAttributes(attribute.Bool("success", true))
	metrics.ToolCalls.WithLabelValues(toolName, "success").Inc()
	metrics.APICalls.WithLabelValues("http", toolName, "success").Inc()
	logger.Debug().Str("tool", toolName).Msg("calculation completed")

	return nil
}

func fail(span trace.Span, toolName, status, errorType string, err error) {
	span.SetAttributes(attribute.String("error", errorType))
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	metrics.ToolCalls.WithLabelValues(toolName, status).Inc()
	metrics.CalculationErrors.WithLabelValues(toolName, errorType).Inc()
	metrics.APICalls.WithLabelValues("http", toolName, "error").Inc()
}

// classify возвращает метку класса ошибки для метрик
func classify(err error) string {
	switch {
	case errors.Is(err, calculations.ErrInvalidParameters):
		return "validation"
	case errors.Is(err, calculations.ErrNonAmortizingEMI):
		return "non_amortizing_emi"
	case errors.Is(err, calculations.ErrSafetyCapExceeded):
		return "safety_cap"
	default:
		return "calculation"
	}
}

// decodeParams переводит произвольные параметры инструмента в LoanSpecification
func decodeParams(params map[string]interface{}) (calculations.LoanSpecification, error) {
	var spec calculations.LoanSpecification

	raw, err := json.Marshal(params)
	if err != nil {
		return spec, fmt.Errorf("%w: %v", calculations.ErrInvalidParameters, err)
	}
	if err := json.Unmarshal(raw, &spec); err != nil {
		return spec, fmt.Errorf("%w: %v", calculations.ErrInvalidParameters, err)
	}
	return spec, nil
}
