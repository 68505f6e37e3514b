// Package insights selects the pre-written interpretive text attached to
// protocol results. Every catalog is a threshold table keyed by a ratio or a
// period count; none of the text carries numeric results except the
// comparative improvement percentage.
package insights

import (
	"fmt"
	"math"

	"github.com/iwvelando/savings-protocol/internal/status"
	"github.com/iwvelando/savings-protocol/pkg/mathutil"
	"github.com/iwvelando/savings-protocol/pkg/threshold"
)

// InvalidGoal is returned by Insight when the target cannot be evaluated.
const InvalidGoal = "Invalid goal. Unable to evaluate."

// OptimizedRecommendation accompanies every optimized protocol.
const OptimizedRecommendation = "Mathematically optimized protocol. Follow the suggested progression."

var insightTable = threshold.New(
	"Adaptation phase. The system needs time to form behavior. Focus on constancy, not speed.",
	threshold.Band[string]{Min: 1.0, Value: "Constancy consolidated. Financial base stabilized. Protocol operating under full control."},
	threshold.Band[string]{Min: 0.85, Value: "Solid rhythm. The system is working. Financial maturity in development."},
	threshold.Band[string]{Min: 0.70, Value: "Consistent progress detected. Time is working in your favor. Keep the protocol active."},
	threshold.Band[string]{Min: 0.50, Value: "Measurable early progress. Patterns are starting to emerge. Avoid interruptions to the protocol."},
	threshold.Band[string]{Min: 0.30, Value: "Construction phase. The habit is still forming. Consistency matters more than amount."},
)

var recommendationTable = threshold.New(
	"The goal may be out of reach with the current protocol. Consider adjusting the timeframe or progression parameters.",
	threshold.Band[string]{Min: 1.0, Value: "Protocol completed successfully. Consider setting a new goal to keep the constancy."},
	threshold.Band[string]{Min: 0.85, Value: "Keep operating. Minor adjustments can optimize the final result."},
	threshold.Band[string]{Min: 0.50, Value: "Viable protocol. A gradual increase in pace can accelerate maturity."},
	threshold.Band[string]{Min: 0.30, Value: "Revisit the parameters. Small progressive increments can improve viability."},
)

var viabilityTable = threshold.New(
	"Not viable with the current protocol. Adjustments required.",
	threshold.Band[string]{Min: 0.95, Value: "Highly viable. High probability of success."},
	threshold.Band[string]{Min: 0.80, Value: "Viable. Minor adjustments can optimize."},
	threshold.Band[string]{Min: 0.60, Value: "Partially viable. Requires strategic adjustments."},
	threshold.Band[string]{Min: 0.40, Value: "Low viability. Review the protocol parameters."},
)

var maturityTable = threshold.New(
	"Protocol start. Behavior is still forming.",
	threshold.Band[string]{Min: 24, Value: "Maturity consolidated. Long-term financial behavior established."},
	threshold.Band[string]{Min: 12, Value: "Maturity in development. A year of constancy shows real commitment."},
	threshold.Band[string]{Min: 6, Value: "Initial pattern formed. Six months mark the shift from experiment to habit."},
	threshold.Band[string]{Min: 3, Value: "Adaptation phase. Three cycles are the minimum to validate a protocol."},
)

var narratives = map[status.Status]string{
	status.Reached:    "Protocol complete.\nConstancy established.\nFinancial base stabilized.",
	status.InProgress: "Protocol in operation.\nTime is processing the data.\nContinue.",
	status.Incomplete: "Protocol started.\nPatterns still forming.\nConstancy is being tested.",
	status.Optimal:    "Protocol optimized.\nThe path has been adjusted so the destination is reached in time.\nMaintain the commitment.",
}

// Curve classifications returned by Curve.
const (
	CurveInsufficient = "Insufficient data for curve analysis."
	CurveAccelerating = "Accelerating curve detected. Positive momentum built over time."
	CurveStable       = "Stable curve. Consistent pace kept across periods."
	CurveDecelerating = "Decelerating curve. Check for limiting factors in the protocol."
)

// Comparative outcomes returned by Comparative.
const (
	ComparativeNearOptimal = "The progressive protocol is close to optimal. Keep the current parameters."
	ComparativeAdequate    = "The progressive protocol is adequate. Further optimization is not critical."
	comparativeImprovement = "The optimized protocol offers %.1f%% more efficiency. Consider adjusting increments for better performance."
)

// Insight interprets total against target in five behavioral bands.
func Insight(total, target float64) string {
	if target <= 0 {
		return InvalidGoal
	}
	return insightTable.Lookup(total / target)
}

// Recommendation suggests the next step for a viability ratio.
func Recommendation(ratio float64) string {
	return recommendationTable.Lookup(ratio)
}

// InterpretViability describes a viability ratio in plain language.
func InterpretViability(viability float64) string {
	return viabilityTable.Lookup(viability)
}

// Maturity describes the behavioral maturity implied by a period count.
func Maturity(periods int) string {
	return maturityTable.Lookup(float64(periods))
}

// Narrative returns the multi-line protocol narrative for a status.
func Narrative(s status.Status) string {
	if text, ok := narratives[s]; ok {
		return text
	}
	return "Undefined status."
}

// Comparative contrasts a progressive total with an optimized total for the
// same target.
func Comparative(progressiveTotal, optimizedTotal, target float64) string {
	var progressiveRatio, optimizedRatio float64
	if target > 0 {
		progressiveRatio = progressiveTotal / target
		optimizedRatio = optimizedTotal / target
	}

	switch {
	case math.Abs(optimizedRatio-progressiveRatio) < 0.05:
		return ComparativeNearOptimal
	case optimizedRatio > progressiveRatio:
		var improvement float64
		if progressiveRatio > 0 {
			improvement = mathutil.CalculatePercentage(optimizedRatio-progressiveRatio, progressiveRatio)
		}
		return fmt.Sprintf(comparativeImprovement, improvement)
	default:
		return ComparativeAdequate
	}
}

// Curve compares the second half of a progression with the first half.
func Curve(progression []float64) string {
	if len(progression) < 3 {
		return CurveInsufficient
	}

	mid := len(progression) / 2
	firstHalf := mathutil.Sum(progression[:mid])
	secondHalf := mathutil.Sum(progression[mid:])

	switch {
	case secondHalf > firstHalf*1.2:
		return CurveAccelerating
	case secondHalf > firstHalf*0.8:
		return CurveStable
	default:
		return CurveDecelerating
	}
}
