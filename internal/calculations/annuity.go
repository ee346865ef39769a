package calculations

import "math"

// MonthlyRate переводит годовую ставку в процентах в месячную долю
func MonthlyRate(annualRatePercent float64) float64 {
	return annualRatePercent / 12.0 / 100.0
}

// AnnuityPayment рассчитывает фиксированный ежемесячный взнос (EMI)
// для суммы principal на months месяцев при месячной ставке r.
//
// Форма P·r / (1 - (1+r)^-n) равна классической P·r·(1+r)^n / ((1+r)^n - 1),
// но не переполняется при больших n: при (1+r)^n = +Inf взнос равен P·r.
func AnnuityPayment(principal, r float64, months int) float64 {
	if months <= 0 {
		return 0
	}
	n := float64(months)
	growth := math.Pow(1.0+r, n)
	// при r = 0 или r за пределами точности float64 (1+r == 1) кредит беспроцентный
	if r == 0.0 || growth == 1.0 {
		return principal / n
	}
	return principal * r / (1.0 - 1.0/growth)
}
