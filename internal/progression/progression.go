// Package progression computes capped and optimized arithmetic savings
// progressions. Every function is pure: results depend only on the explicit
// inputs, so calls may run concurrently without coordination.
package progression

import (
	"math"

	"github.com/iwvelando/savings-protocol/pkg/constants"
	"github.com/iwvelando/savings-protocol/pkg/mathutil"
)

// Result is the outcome of a single progression computation. It is built
// fresh by each call and never modified afterwards.
type Result struct {
	Progression []float64 `json:"progression"`
	Total       float64   `json:"total"`
	Periods     int       `json:"periods"`
	Average     float64   `json:"average"`
	Peak        float64   `json:"peak"`
}

// Range is an inclusive [Min, Max] interval swept by Simulate.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// At returns the i-th of samples evenly spaced points from Min to Max. A
// single sample sits at Min.
func (r Range) At(i, samples int) float64 {
	if samples <= 1 {
		return r.Min
	}
	return r.Min + float64(i)*(r.Max-r.Min)/float64(samples-1)
}

// Calculate builds a capped progression. The first term is start and each
// later term is the previous one plus increment, pinned at capValue once it is
// reached. A start above capValue is clamped from the first period on.
//
// The terms are returned unrounded; only Total, Average and Peak are rounded
// to cents.
func Calculate(periods int, start, increment, capValue float64) Result {
	if periods < 0 {
		periods = 0
	}

	terms := make([]float64, 0, periods)
	current := mathutil.Min(start, capValue)
	for i := 0; i < periods; i++ {
		terms = append(terms, current)
		current = mathutil.Min(current+increment, capValue)
	}

	return summarize(terms, terms, periods)
}

// Optimize solves for the common difference d of a progression seeded at
// constants.OptimizerSeed whose n terms sum to target:
//
//	S = n/2 × (2a + (n−1)d)  ⇒  d = (2S/n − 2a) / (n−1)
//
// A negative d is clamped to zero, so the sequence never decreases. One
// period yields [target] and zero periods an empty sequence. No cap applies.
//
// The returned terms are rounded to cents, while Total, Average and Peak are
// derived from the unrounded terms. Summing the rounded terms can therefore
// differ from Total by a few cents.
func Optimize(target float64, periods int) Result {
	if periods < 0 {
		periods = 0
	}

	var terms []float64
	switch {
	case periods == 0:
		terms = []float64{}
	case periods == 1:
		terms = []float64{target}
	default:
		terms = make([]float64, periods)
		step := CommonDifference(target, periods)
		for k := range terms {
			terms[k] = constants.OptimizerSeed + step*float64(k)
		}
	}

	return summarize(terms, mathutil.RoundAll(terms), periods)
}

// LinearDistribution spreads target evenly over periods. The terms are left
// unrounded like Calculate's; zero or negative periods give an empty sequence.
func LinearDistribution(target float64, periods int) Result {
	if periods <= 0 {
		return summarize([]float64{}, []float64{}, 0)
	}

	terms := make([]float64, periods)
	for k := range terms {
		terms[k] = target / float64(periods)
	}
	return summarize(terms, terms, periods)
}

// CommonDifference returns the optimizer's step for target over periods,
// already clamped at zero. It is zero when periods <= 1.
func CommonDifference(target float64, periods int) float64 {
	if periods <= 1 {
		return 0
	}
	n := float64(periods)
	step := (2*target/n - 2*constants.OptimizerSeed) / (n - 1)
	if step < 0 {
		return 0
	}
	return step
}

// Viability is the share of target covered by total, kept within [0, 1]. A
// non-positive target yields 0 rather than dividing by zero.
func Viability(target, total float64) float64 {
	if target <= 0 {
		return 0
	}
	ratio := mathutil.Min(1.0, total/target)
	if ratio < 0 {
		return 0
	}
	return ratio
}

// CheckArithmetic reports whether sequence has a constant common difference,
// within constants.ArithmeticTolerance, and returns that difference.
// Sequences shorter than two terms are trivially arithmetic with difference 0.
func CheckArithmetic(sequence []float64) (bool, float64) {
	if len(sequence) < 2 {
		return true, 0
	}

	first := sequence[1] - sequence[0]
	for i := 1; i < len(sequence)-1; i++ {
		diff := sequence[i+1] - sequence[i]
		if !(math.Abs(diff-first) < constants.ArithmeticTolerance) {
			return false, 0
		}
	}
	return true, first
}

// Simulate sweeps samples capped progressions, moving start and increment
// linearly from their range minimums to their maximums.
func Simulate(periods int, startRange, incrementRange Range, capValue float64, samples int) []Result {
	if samples <= 0 {
		return nil
	}

	scenarios := make([]Result, 0, samples)
	for i := 0; i < samples; i++ {
		scenarios = append(scenarios, Calculate(periods, startRange.At(i, samples), incrementRange.At(i, samples), capValue))
	}
	return scenarios
}

// summarize derives the rounded aggregates from raw and stores emitted as the
// visible sequence.
func summarize(raw, emitted []float64, periods int) Result {
	total := mathutil.Sum(raw)
	var average float64
	if periods > 0 {
		average = total / float64(periods)
	}

	return Result{
		Progression: emitted,
		Total:       mathutil.Round(total),
		Periods:     periods,
		Average:     mathutil.Round(average),
		Peak:        mathutil.Round(mathutil.MaxOf(raw)),
	}
}
