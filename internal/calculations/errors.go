package calculations

import "errors"

var (
	// ErrInvalidParameters - входные параметры не позволяют начать расчет
	ErrInvalidParameters = errors.New("неверные параметры кредита")
	// ErrNonAmortizingEMI - взнос не покрывает проценты, долг не уменьшается
	ErrNonAmortizingEMI = errors.New("взнос не погашает кредит")
	// ErrSafetyCapExceeded - кредит не погашен за MaxSimulationMonths месяцев
	ErrSafetyCapExceeded = errors.New("превышен предел симуляции")
)
