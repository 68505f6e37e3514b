// Package mathutil provides common mathematical utility functions.
package mathutil

import (
	"math"

	"github.com/iwvelando/savings-protocol/pkg/constants"
)

// Round rounds a value to two decimals, i.e. to represent real currency.
func Round(val float64) float64 {
	return math.Round(val*constants.DecimalPrecision) / constants.DecimalPrecision
}

// RoundRatio rounds a ratio to three decimals for reporting.
func RoundRatio(val float64) float64 {
	return math.Round(val*constants.RatioPrecision) / constants.RatioPrecision
}

// RoundAll returns a rounded copy of values; the input is left untouched.
func RoundAll(values []float64) []float64 {
	if values == nil {
		return nil
	}
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = Round(v)
	}
	return out
}

// IsFinite reports whether val is neither NaN nor infinite.
func IsFinite(val float64) bool {
	return !math.IsNaN(val) && !math.IsInf(val, 0)
}

// Sum adds values in order.
func Sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}

// MaxOf returns the largest value, or 0 for an empty slice.
func MaxOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	peak := values[0]
	for _, v := range values[1:] {
		if v > peak {
			peak = v
		}
	}
	return peak
}

// Min returns the minimum of two float64 values
func Min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// CalculatePercentage calculates what percentage value is of total
func CalculatePercentage(value, total float64) float64 {
	if total == 0 {
		return 0
	}
	return (value / total) * constants.PercentageMultiplier
}
