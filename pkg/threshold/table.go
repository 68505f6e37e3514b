// Package threshold provides ordered band tables that map a numeric value,
// typically a ratio, onto a result. Bands are evaluated top-down and the
// first band whose minimum is satisfied wins, so boundary values stay
// visible in one literal and can be tested in isolation.
package threshold

import "math"

// Band pairs an inclusive lower bound with the value it selects.
type Band[T any] struct {
	Min   float64
	Value T
}

// Table is an ordered list of bands with a fallback for values below every
// band (or NaN).
type Table[T any] struct {
	bands    []Band[T]
	fallback T
}

// New builds a table. Bands must be given in descending order of Min; the
// order is not re-sorted so the literal at the call site is the evaluation
// order.
func New[T any](fallback T, bands ...Band[T]) Table[T] {
	copied := make([]Band[T], len(bands))
	copy(copied, bands)
	return Table[T]{bands: copied, fallback: fallback}
}

// Lookup returns the value of the first band with Min <= x.
func (t Table[T]) Lookup(x float64) T {
	if math.IsNaN(x) {
		return t.fallback
	}
	for _, band := range t.bands {
		if x >= band.Min {
			return band.Value
		}
	}
	return t.fallback
}

// Bounds lists the band minimums in evaluation order.
func (t Table[T]) Bounds() []float64 {
	bounds := make([]float64, len(t.bands))
	for i, band := range t.bands {
		bounds[i] = band.Min
	}
	return bounds
}
