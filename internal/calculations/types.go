package calculations

import (
	"fmt"

	"github.com/cloud-ru/emi-calculator-go/pkg/utils"
)

// Mode определяет, как досрочный платеж влияет на будущие взносы
type Mode string

const (
	// ModeReduceTenure сохраняет EMI и сокращает срок
	ModeReduceTenure Mode = "reduceTenure"
	// ModeReduceEMI сохраняет срок и уменьшает EMI
	ModeReduceEMI Mode = "reduceEMI"
)

// Valid сообщает, известен ли режим. Пустой режим считается reduceTenure.
func (m Mode) Valid() bool {
	return m == "" || m == ModeReduceTenure || m == ModeReduceEMI
}

// OrDefault возвращает режим, подставляя reduceTenure вместо пустого значения
func (m Mode) OrDefault() Mode {
	if m == "" {
		return ModeReduceTenure
	}
	return m
}

// Money хранит сумму с полной точностью и сериализуется строкой с 2 знаками
type Money float64

// MarshalJSON implements json.Marshaler.
func (m Money) MarshalJSON() ([]byte, error) {
	if !utils.IsFinite(float64(m)) {
		return nil, fmt.Errorf("money: cannot encode non-finite amount %v", float64(m))
	}
	return []byte(`"` + utils.Format2(float64(m)) + `"`), nil
}

// String возвращает сумму с 2 знаками после запятой
func (m Money) String() string {
	return utils.Format2(float64(m))
}

// Prepayment - разовый досрочный платеж в указанном месяце.
// Применяется не больше остатка долга: в строке графика и в totalPaid
// учитывается только фактически зачтенная сумма, платеж в месяце
// закрытия кредита или после него не учитывается вовсе.
type Prepayment struct {
	Month  int     `json:"month" yaml:"month"`
	Amount float64 `json:"amount" yaml:"amount"`
}

// LoanSpecification описывает входные параметры расчета.
// Нулевые TenureMonths или EMI означают, что значение не задано.
type LoanSpecification struct {
	LoanAmount   float64      `json:"loanAmount"`
	AnnualRate   float64      `json:"annualRate"`
	TenureMonths int          `json:"tenureMonths,omitempty"`
	EMI          float64      `json:"emi,omitempty"`
	Prepayments  []Prepayment `json:"prepayments,omitempty"`
	Mode         Mode         `json:"mode,omitempty"`
}

// AmortizationRow представляет один месяц графика платежей
type AmortizationRow struct {
	Month              int   `json:"month"`
	EMI                Money `json:"emi"`
	Interest           Money `json:"interest"`
	Principal          Money `json:"principal"`
	Prepayment         Money `json:"prepayment"` // зачтенная сумма, не больше остатка
	RemainingPrincipal Money `json:"remainingPrincipal"`
}

// LoanCalculationResult представляет полный результат расчета
type LoanCalculationResult struct {
	LoanAmount    float64           `json:"loanAmount"`
	AnnualRate    float64           `json:"annualRate"`
	EMI           Money             `json:"emi"`
	Mode          Mode              `json:"mode"`
	TenureMonths  int               `json:"tenureMonths"`
	TotalInterest Money             `json:"totalInterest"`
	TotalPaid     Money             `json:"totalPaid"`
	TotalMonths   int               `json:"totalMonths"`
	Breakdown     []AmortizationRow `json:"breakdown"`
}

// ModeOutcome - итоги одного сценария в сравнении
type ModeOutcome struct {
	Mode          string `json:"mode"`
	StartingEMI   Money  `json:"startingEmi"`
	LastEMI       Money  `json:"lastFullEmi"`
	TotalInterest Money  `json:"totalInterest"`
	TotalPaid     Money  `json:"totalPaid"`
	TotalMonths   int    `json:"totalMonths"`
	InterestSaved Money  `json:"interestSaved"`
	MonthsSaved   int    `json:"monthsSaved"`
}

// ComparisonResult представляет сравнение режимов досрочного погашения
type ComparisonResult struct {
	Baseline       ModeOutcome `json:"baseline"`
	ReduceTenure   ModeOutcome `json:"reduceTenure"`
	ReduceEMI      ModeOutcome `json:"reduceEMI"`
	CheaperMode    string      `json:"cheaperMode"`
	Savings        Money       `json:"savings"`
	Recommendation string      `json:"recommendation"`
}
