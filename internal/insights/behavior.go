package insights

import (
	"fmt"
	"math"

	"github.com/iwvelando/savings-protocol/pkg/mathutil"
	"github.com/iwvelando/savings-protocol/pkg/threshold"
)

// Behavioral scoring looks at the deposits actually made against the
// expected protocol. It rates method, not amount.

// Maturity levels reported by ScoreMaturity.
const (
	LevelMature     = "mature"
	LevelDeveloping = "developing"
	LevelLearning   = "learning"
	LevelBeginner   = "beginner"
)

// Investment readiness thresholds.
const (
	MinimumReadyPeriods = 3
	MinimumReadyScore   = 0.8
)

// DefaultConsistencyTolerance is the mean relative deviation still counted as
// consistent.
const DefaultConsistencyTolerance = 0.2

// MaturityScore weighs how closely deposits followed the expected path
// (consistency) and how many periods received a deposit at all (continuity),
// half each.
type MaturityScore struct {
	Score              float64 `json:"score"`
	Consistency        float64 `json:"consistency"`
	Continuity         float64 `json:"continuity"`
	Level              string  `json:"level"`
	Interpretation     string  `json:"interpretation"`
	ReadyForInvestment bool    `json:"ready_for_investment"`
	PeriodsCompleted   int     `json:"periods_completed"`
	MinimumPeriods     int     `json:"minimum_periods_required"`
}

type maturityBand struct {
	level string
	ready bool
}

var maturityLevels = threshold.New(
	maturityBand{level: LevelBeginner},
	threshold.Band[maturityBand]{Min: 0.8, Value: maturityBand{level: LevelMature, ready: true}},
	threshold.Band[maturityBand]{Min: 0.6, Value: maturityBand{level: LevelDeveloping}},
	threshold.Band[maturityBand]{Min: 0.4, Value: maturityBand{level: LevelLearning}},
)

var maturityInterpretations = map[string]string{
	LevelMature:     "Constancy consolidated. Financial base stabilized. Protocol operating under full control.",
	LevelDeveloping: "Progress is consistent. Time is working in your favor. Maturity in development.",
	LevelLearning:   "Patterns are starting to emerge. Each period strengthens the method. Keep operating.",
	LevelBeginner:   "Adaptation phase. The system needs time to form behavior. Keep the protocol active.",
}

// ScoreMaturity rates actual deposits against expected, pairing them period by
// period. Periods without an expected value count toward continuity only.
func ScoreMaturity(expected, actual []float64) MaturityScore {
	if len(actual) == 0 {
		return MaturityScore{
			Level:          LevelBeginner,
			Interpretation: maturityInterpretations[LevelBeginner],
			MinimumPeriods: MinimumReadyPeriods,
		}
	}

	var deviation, expectedSum float64
	for i := 0; i < len(actual) && i < len(expected); i++ {
		deviation += math.Abs(expected[i] - actual[i])
		expectedSum += expected[i]
	}

	var consistency float64
	if expectedSum != 0 {
		consistency = math.Max(0, 1-deviation/expectedSum)
	}

	paid := 0
	for _, v := range actual {
		if v > 0 {
			paid++
		}
	}
	continuity := float64(paid) / float64(len(actual))

	score := consistency*0.5 + continuity*0.5
	band := maturityLevels.Lookup(score)

	return MaturityScore{
		Score:              mathutil.Round(score),
		Consistency:        mathutil.Round(consistency),
		Continuity:         mathutil.Round(continuity),
		Level:              band.level,
		Interpretation:     maturityInterpretations[band.level],
		ReadyForInvestment: band.ready,
		PeriodsCompleted:   len(actual),
		MinimumPeriods:     MinimumReadyPeriods,
	}
}

// Consistency statuses reported by CheckConsistency.
const (
	ConsistencyExcellent    = "excellent"
	ConsistencyGood         = "good"
	ConsistencyAcceptable   = "acceptable"
	ConsistencyInconsistent = "inconsistent"
	ConsistencyNoData       = "no_data"
	ConsistencyInvalid      = "invalid"
)

// ConsistencyReport is the mean relative deviation of deposits from the
// expected values.
type ConsistencyReport struct {
	Consistent       bool    `json:"consistent"`
	Deviation        float64 `json:"deviation"`
	Status           string  `json:"status"`
	PeriodsEvaluated int     `json:"periods_evaluated"`
}

// CheckConsistency compares the overlapping periods of expected and actual.
// Periods whose expected value is not positive are skipped.
func CheckConsistency(expected, actual []float64, tolerance float64) ConsistencyReport {
	if len(expected) == 0 || len(actual) == 0 {
		return ConsistencyReport{Deviation: 1, Status: ConsistencyNoData}
	}

	periods := len(expected)
	if len(actual) < periods {
		periods = len(actual)
	}

	var deviations []float64
	for i := 0; i < periods; i++ {
		if expected[i] > 0 {
			deviations = append(deviations, math.Abs(expected[i]-actual[i])/expected[i])
		}
	}
	if len(deviations) == 0 {
		return ConsistencyReport{Deviation: 1, Status: ConsistencyInvalid}
	}

	mean := mathutil.Sum(deviations) / float64(len(deviations))
	report := ConsistencyReport{
		Consistent:       mean <= tolerance,
		Deviation:        mathutil.Round(mean),
		Status:           ConsistencyInconsistent,
		PeriodsEvaluated: periods,
	}
	if report.Consistent {
		switch {
		case mean < 0.1:
			report.Status = ConsistencyExcellent
		case mean < 0.15:
			report.Status = ConsistencyGood
		default:
			report.Status = ConsistencyAcceptable
		}
	}
	return report
}

// Sustainability levels reported by ScoreSustainability.
const (
	SustainabilityConsolidated = "consolidated"
	SustainabilityStable       = "stable"
	SustainabilityForming      = "forming"
	SustainabilityUnstable     = "unstable"
	SustainabilityUndefined    = "undefined"
)

// SustainabilityScore measures the capacity to keep the protocol going:
// completion rate weighted 70% plus a streak bonus of up to 30%.
type SustainabilityScore struct {
	Score          float64 `json:"score"`
	Level          string  `json:"level"`
	Sustainable    bool    `json:"sustainable"`
	CompletionRate float64 `json:"completion_rate"`
	CurrentStreak  int     `json:"current_streak"`
}

type sustainabilityBand struct {
	level       string
	sustainable bool
}

var sustainabilityLevels = threshold.New(
	sustainabilityBand{level: SustainabilityUnstable},
	threshold.Band[sustainabilityBand]{Min: 0.9, Value: sustainabilityBand{level: SustainabilityConsolidated, sustainable: true}},
	threshold.Band[sustainabilityBand]{Min: 0.7, Value: sustainabilityBand{level: SustainabilityStable, sustainable: true}},
	threshold.Band[sustainabilityBand]{Min: 0.5, Value: sustainabilityBand{level: SustainabilityForming}},
)

// ScoreSustainability scores a record of totalPeriods with missedPeriods
// skipped and the latest currentStreak periods all completed.
func ScoreSustainability(currentStreak, totalPeriods, missedPeriods int) SustainabilityScore {
	if totalPeriods <= 0 {
		return SustainabilityScore{Level: SustainabilityUndefined, CurrentStreak: currentStreak}
	}

	completion := float64(totalPeriods-missedPeriods) / float64(totalPeriods)
	streakBonus := math.Min(float64(currentStreak)/float64(totalPeriods), 0.3)
	score := completion*0.7 + streakBonus
	band := sustainabilityLevels.Lookup(score)

	return SustainabilityScore{
		Score:          mathutil.Round(score),
		Level:          band.level,
		Sustainable:    band.sustainable,
		CompletionRate: mathutil.Round(completion),
		CurrentStreak:  currentStreak,
	}
}

// Readiness statuses reported by InvestmentReadiness.
const (
	ReadinessReady                = "ready"
	ReadinessInsufficientTime     = "insufficient_time"
	ReadinessInsufficientMaturity = "insufficient_maturity"
)

// Readiness says whether the saver may move on to investing.
type Readiness struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// InvestmentReadiness requires a maturity score of at least 0.8 over at least
// three completed periods.
func InvestmentReadiness(maturityScore float64, periods int) Readiness {
	switch {
	case maturityScore >= MinimumReadyScore && periods >= MinimumReadyPeriods:
		return Readiness{
			Status:  ReadinessReady,
			Message: "Financial base consolidated. Investment capacity verified. Investment module unlocked.",
		}
	case periods < MinimumReadyPeriods:
		return Readiness{
			Status:  ReadinessInsufficientTime,
			Message: fmt.Sprintf("Keep operating. %d more period(s) required.", MinimumReadyPeriods-periods),
		}
	default:
		return Readiness{
			Status:  ReadinessInsufficientMaturity,
			Message: "Time requirement met, but consistency is below the minimum. Reinforce the protocol before expanding.",
		}
	}
}

// Deposit patterns reported by Pattern.
const (
	PatternInsufficient = "insufficient_data"
	PatternGrowing      = "growing"
	PatternDeclining    = "declining"
	PatternStable       = "stable"
)

// PatternReport describes the direction and volatility of a deposit history.
type PatternReport struct {
	Pattern        string `json:"pattern"`
	Trend          string `json:"trend"`
	Volatility     string `json:"volatility"`
	Interpretation string `json:"interpretation"`
	DataPoints     int    `json:"data_points"`
}

// volatileVariance is the population variance above which five or more
// deposits count as highly volatile.
const volatileVariance = 10000

// Pattern counts period-over-period rises and falls. One direction wins when
// it outnumbers the other by more than half again.
func Pattern(deposits []float64) PatternReport {
	if len(deposits) < 3 {
		return PatternReport{
			Pattern:        PatternInsufficient,
			Trend:          "undefined",
			Volatility:     "undefined",
			Interpretation: "Insufficient data for pattern analysis.",
			DataPoints:     len(deposits),
		}
	}

	increases, decreases := 0, 0
	for i := 1; i < len(deposits); i++ {
		switch {
		case deposits[i] > deposits[i-1]:
			increases++
		case deposits[i] < deposits[i-1]:
			decreases++
		}
	}

	report := PatternReport{DataPoints: len(deposits), Volatility: "undefined"}
	switch {
	case float64(increases) > float64(decreases)*1.5:
		report.Pattern = PatternGrowing
		report.Trend = "expansion"
		report.Interpretation = "Commitment expanding. Evolving behavior detected."
	case float64(decreases) > float64(increases)*1.5:
		report.Pattern = PatternDeclining
		report.Trend = "retraction"
		report.Interpretation = "Retraction identified. Reassess capacity versus commitment."
	default:
		report.Pattern = PatternStable
		report.Trend = "constant"
		report.Interpretation = "Stable pattern kept. Consistency preserved over time."
	}

	if len(deposits) >= 5 {
		mean := mathutil.Sum(deposits) / float64(len(deposits))
		var variance float64
		for _, v := range deposits {
			variance += (v - mean) * (v - mean)
		}
		variance /= float64(len(deposits))

		report.Volatility = "low"
		if variance > volatileVariance {
			report.Volatility = "high"
		}
	}
	return report
}
