package validators

import (
	"fmt"

	"github.com/cloud-ru/emi-calculator-go/internal/calculations"
	"github.com/cloud-ru/emi-calculator-go/internal/config"
	"github.com/cloud-ru/emi-calculator-go/pkg/utils"
)

// ValidatePositiveNumber проверяет, что число конечно и в допустимом диапазоне
func ValidatePositiveNumber(name string, value float64, minInclusive, maxInclusive float64) error {
	if !utils.IsFinite(value) {
		return fmt.Errorf("%s: значение не является конечным числом", name)
	}
	if value < minInclusive {
		return fmt.Errorf("%s: значение должно быть ≥ %g", name, minInclusive)
	}
	if value > maxInclusive {
		return fmt.Errorf("%s: значение слишком велико (>%g)", name, maxInclusive)
	}
	return nil
}

// ValidateIntRange проверяет, что целое число в допустимом диапазоне
func ValidateIntRange(name string, value int, minInclusive, maxInclusive int) error {
	if value < minInclusive || value > maxInclusive {
		return fmt.Errorf("%s: значение должно быть в диапазоне [%d; %d]", name, minInclusive, maxInclusive)
	}
	return nil
}

// CheckPrincipal проверяет сумму кредита
func CheckPrincipal(cfg *config.Config, principal float64) error {
	return ValidatePositiveNumber("loanAmount", principal, 1e-9, cfg.MaxPrincipal)
}

// CheckRate проверяет годовую ставку в процентах
func CheckRate(cfg *config.Config, rate float64) error {
	return ValidatePositiveNumber("annualRate", rate, 0.0, cfg.MaxRate)
}

// CheckMonths проверяет срок в месяцах
func CheckMonths(cfg *config.Config, months int) error {
	return ValidateIntRange("tenureMonths", months, 1, cfg.MaxMonths)
}

// CheckEMI проверяет ежемесячный взнос
func CheckEMI(cfg *config.Config, emi float64) error {
	return ValidatePositiveNumber("emi", emi, 1e-9, cfg.MaxPrincipal)
}

// CheckPrepayments проверяет список досрочных платежей
func CheckPrepayments(cfg *config.Config, prepayments []calculations.Prepayment) error {
	if len(prepayments) > cfg.MaxPrepayments {
		return fmt.Errorf("prepayments: допускается не более %d платежей", cfg.MaxPrepayments)
	}
	for i, p := range prepayments {
		if err := ValidateIntRange(fmt.Sprintf("prepayments[%d].month", i), p.Month, 1, cfg.MaxMonths); err != nil {
			return err
		}
		if err := ValidatePositiveNumber(fmt.Sprintf("prepayments[%d].amount", i), p.Amount, 1e-9, cfg.MaxPrincipal); err != nil {
			return err
		}
	}
	return nil
}

// CheckSpecification проверяет запрос целиком против лимитов конфигурации.
// Отсутствующие EMI и срок (нулевые) не проверяются: это решает движок.
func CheckSpecification(cfg *config.Config, spec calculations.LoanSpecification) error {
	if err := CheckPrincipal(cfg, spec.LoanAmount); err != nil {
		return err
	}
	if err := CheckRate(cfg, spec.AnnualRate); err != nil {
		return err
	}
	if spec.TenureMonths != 0 {
		if err := CheckMonths(cfg, spec.TenureMonths); err != nil {
			return err
		}
	}
	if spec.EMI != 0 {
		if err := CheckEMI(cfg, spec.EMI); err != nil {
			return err
		}
	}
	if err := CheckPrepayments(cfg, spec.Prepayments); err != nil {
		return err
	}
	if !spec.Mode.Valid() {
		return fmt.Errorf("mode: допустимые значения %q или %q", calculations.ModeReduceTenure, calculations.ModeReduceEMI)
	}
	return nil
}
