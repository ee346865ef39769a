package utils

import (
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// Round2 округляет число до 2 знаков после запятой
func Round2(value float64) float64 {
	return math.Round(value*100) / 100
}

// IsFinite проверяет, является ли число конечным
func IsFinite(value float64) bool {
	return !math.IsInf(value, 0) && !math.IsNaN(value)
}

// Format2 форматирует сумму ровно с 2 знаками после запятой (округление от нуля).
// Бесконечность и NaN возвращаются как есть: decimal их не представляет.
func Format2(value float64) string {
	if !IsFinite(value) {
		return strconv.FormatFloat(value, 'f', -1, 64)
	}
	return decimal.NewFromFloat(value).StringFixed(2)
}
