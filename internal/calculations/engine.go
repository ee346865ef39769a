package calculations

import (
	"fmt"
	"math"

	"github.com/cloud-ru/emi-calculator-go/pkg/utils"
)

const (
	// MaxSimulationMonths - жесткий предел числа месяцев в любой симуляции
	MaxSimulationMonths = 1000

	// остаток меньше balanceEpsilon считается погрешностью float64
	balanceEpsilon = 1e-6
)

// simulation - промежуточный результат помесячной симуляции
type simulation struct {
	rows          []AmortizationRow
	totalInterest float64
	totalPaid     float64
}

// Compute восстанавливает недостающий параметр (EMI или срок) и строит
// помесячный график с учетом досрочных платежей.
func Compute(spec LoanSpecification) (*LoanCalculationResult, error) {
	if err := validateSpec(spec); err != nil {
		return nil, err
	}

	mode := spec.Mode.OrDefault()
	r := MonthlyRate(spec.AnnualRate)

	emi := spec.EMI
	if emi == 0 {
		emi = AnnuityPayment(spec.LoanAmount, r, spec.TenureMonths)
	}
	if !utils.IsFinite(emi) || emi <= 0 {
		return nil, fmt.Errorf("%w: взнос для суммы %g под %g%% на %d мес. не представим числом",
			ErrInvalidParameters, spec.LoanAmount, spec.AnnualRate, spec.TenureMonths)
	}

	tenure := spec.TenureMonths
	if tenure == 0 {
		var err error
		tenure, err = EstimateTenure(spec.LoanAmount, spec.AnnualRate, emi)
		if err != nil {
			return nil, err
		}
	}

	sim, err := simulate(spec.LoanAmount, r, emi, tenure, indexPrepayments(spec.Prepayments), mode)
	if err != nil {
		return nil, err
	}

	return &LoanCalculationResult{
		LoanAmount:    spec.LoanAmount,
		AnnualRate:    spec.AnnualRate,
		EMI:           Money(emi),
		Mode:          mode,
		TenureMonths:  tenure,
		TotalInterest: Money(sim.totalInterest),
		TotalPaid:     Money(sim.totalPaid),
		TotalMonths:   len(sim.rows),
		Breakdown:     sim.rows,
	}, nil
}

// EstimateTenure находит число месяцев, за которое взнос emi погашает кредит
// без досрочных платежей.
func EstimateTenure(loanAmount, annualRatePercent, emi float64) (int, error) {
	sim, err := simulate(loanAmount, MonthlyRate(annualRatePercent), emi, 0, nil, ModeReduceTenure)
	if err != nil {
		return 0, err
	}
	return len(sim.rows), nil
}

func simulate(loanAmount, r, emi float64, tenure int, prepayments map[int]float64, mode Mode) (*simulation, error) {
	remaining := loanAmount
	currentEMI := emi

	hint := tenure
	if hint <= 0 || hint > MaxSimulationMonths {
		hint = 0
	}
	sim := &simulation{rows: make([]AmortizationRow, 0, hint)}

	for month := 1; remaining > balanceEpsilon; month++ {
		if month > MaxSimulationMonths {
			return nil, fmt.Errorf("%w: после %d месяцев остаток долга %.2f",
				ErrSafetyCapExceeded, MaxSimulationMonths, remaining)
		}

		interest := remaining * r
		principal := currentEMI - interest
		if principal <= 0 {
			return nil, fmt.Errorf("%w: взнос %.2f не покрывает проценты %.2f в месяце %d",
				ErrNonAmortizingEMI, currentEMI, interest, month)
		}

		// последний взнос не больше остатка долга
		charged := currentEMI
		if principal >= remaining-balanceEpsilon {
			principal = remaining
			charged = principal + interest
		}

		remaining -= principal
		if remaining <= balanceEpsilon {
			remaining = 0
		}
		sim.totalInterest += interest

		prepaid := 0.0
		if amount, ok := prepayments[month]; ok && remaining > 0 {
			prepaid = math.Min(amount, remaining)
			remaining -= prepaid
			if remaining <= balanceEpsilon {
				remaining = 0
			}
			if mode == ModeReduceEMI && remaining > 0 {
				if left := tenure - month; left > 0 {
					currentEMI = AnnuityPayment(remaining, r, left)
				}
			}
		}

		sim.totalPaid += charged + prepaid
		sim.rows = append(sim.rows, AmortizationRow{
			Month:              month,
			EMI:                Money(charged),
			Interest:           Money(interest),
			Principal:          Money(principal),
			Prepayment:         Money(prepaid),
			RemainingPrincipal: Money(remaining),
		})
	}

	return sim, nil
}

// indexPrepayments строит таблицу месяц -> сумма; при дублях побеждает первый
func indexPrepayments(prepayments []Prepayment) map[int]float64 {
	if len(prepayments) == 0 {
		return nil
	}
	byMonth := make(map[int]float64, len(prepayments))
	for _, p := range prepayments {
		if _, seen := byMonth[p.Month]; !seen {
			byMonth[p.Month] = p.Amount
		}
	}
	return byMonth
}

func validateSpec(spec LoanSpecification) error {
	if spec.EMI == 0 && spec.TenureMonths == 0 {
		return fmt.Errorf("%w: нужно указать emi или tenureMonths", ErrInvalidParameters)
	}
	if !utils.IsFinite(spec.LoanAmount) || spec.LoanAmount <= 0 {
		return fmt.Errorf("%w: loanAmount должен быть положительным числом", ErrInvalidParameters)
	}
	if !utils.IsFinite(spec.AnnualRate) || spec.AnnualRate < 0 {
		return fmt.Errorf("%w: annualRate должен быть неотрицательным числом", ErrInvalidParameters)
	}
	if spec.TenureMonths < 0 {
		return fmt.Errorf("%w: tenureMonths должен быть положительным", ErrInvalidParameters)
	}
	if spec.TenureMonths > MaxSimulationMonths {
		return fmt.Errorf("%w: tenureMonths %d больше %d", ErrSafetyCapExceeded, spec.TenureMonths, MaxSimulationMonths)
	}
	if !utils.IsFinite(spec.EMI) || spec.EMI < 0 {
		return fmt.Errorf("%w: emi должен быть положительным числом", ErrInvalidParameters)
	}
	for i, p := range spec.Prepayments {
		if p.Month < 1 {
			return fmt.Errorf("%w: prepayments[%d].month должен быть ≥ 1", ErrInvalidParameters, i)
		}
		if !utils.IsFinite(p.Amount) || p.Amount <= 0 {
			return fmt.Errorf("%w: prepayments[%d].amount должен быть положительным", ErrInvalidParameters, i)
		}
	}
	if !spec.Mode.Valid() {
		return fmt.Errorf("%w: неизвестный режим %q", ErrInvalidParameters, spec.Mode)
	}
	return nil
}
