package calculations

import "github.com/cloud-ru/emi-calculator-go/pkg/utils"

// CompareModes сравнивает график без досрочных платежей с обоими режимами
// их применения: сокращением срока и уменьшением взноса.
func CompareModes(spec LoanSpecification) (*ComparisonResult, error) {
	baselineSpec := spec
	baselineSpec.Prepayments = nil
	baselineSpec.Mode = ModeReduceTenure
	baselineResult, err := Compute(baselineSpec)
	if err != nil {
		return nil, err
	}

	tenureSpec := spec
	tenureSpec.Mode = ModeReduceTenure
	tenureResult, err := Compute(tenureSpec)
	if err != nil {
		return nil, err
	}

	emiSpec := spec
	emiSpec.Mode = ModeReduceEMI
	emiResult, err := Compute(emiSpec)
	if err != nil {
		return nil, err
	}

	baseline := outcome("baseline", baselineResult, baselineResult)
	reduceTenure := outcome(string(ModeReduceTenure), tenureResult, baselineResult)
	reduceEMI := outcome(string(ModeReduceEMI), emiResult, baselineResult)

	// Выгоднее тот режим, где меньше суммарные проценты
	diff := float64(reduceEMI.TotalInterest - reduceTenure.TotalInterest)

	var cheaperMode string
	var savings float64
	var recommendation string

	switch {
	case utils.Round2(diff) == 0:
		cheaperMode = "equal"
		recommendation = "Оба режима дают одинаковую сумму процентов: досрочные платежи не меняют график."
	case diff > 0:
		cheaperMode = string(ModeReduceTenure)
		savings = diff
		recommendation = "Сокращение срока выгоднее по сумме процентов. Взнос остается прежним, а кредит закрывается раньше."
	default:
		cheaperMode = string(ModeReduceEMI)
		savings = -diff
		recommendation = "Уменьшение взноса выгоднее по сумме процентов, срок погашения сохраняется."
	}

	return &ComparisonResult{
		Baseline:       baseline,
		ReduceTenure:   reduceTenure,
		ReduceEMI:      reduceEMI,
		CheaperMode:    cheaperMode,
		Savings:        Money(savings),
		Recommendation: recommendation,
	}, nil
}

func outcome(name string, result, baseline *LoanCalculationResult) ModeOutcome {
	last := result.EMI
	if n := len(result.Breakdown); n > 1 {
		// последняя строка может быть урезана, берем предпоследний полный взнос
		last = result.Breakdown[n-2].EMI
	}
	return ModeOutcome{
		Mode:          name,
		StartingEMI:   result.EMI,
		LastEMI:       last,
		TotalInterest: result.TotalInterest,
		TotalPaid:     result.TotalPaid,
		TotalMonths:   result.TotalMonths,
		InterestSaved: baseline.TotalInterest - result.TotalInterest,
		MonthsSaved:   baseline.TotalMonths - result.TotalMonths,
	}
}
