package protocol

import (
	"time"

	"github.com/iwvelando/savings-protocol/internal/insights"
	"github.com/iwvelando/savings-protocol/internal/progression"
	"github.com/iwvelando/savings-protocol/pkg/constants"
	"github.com/iwvelando/savings-protocol/pkg/validation"
)

// Assessment rates the deposits made so far against the optimized path for
// the same goal.
type Assessment struct {
	ProtocolVersion string                       `json:"protocol_version"`
	ID              string                       `json:"id"`
	Goal            Goal                         `json:"goal"`
	Deposits        []float64                    `json:"deposits"`
	Expected        []float64                    `json:"expected"`
	Maturity        insights.MaturityScore       `json:"maturity"`
	Consistency     insights.ConsistencyReport   `json:"consistency"`
	Sustainability  insights.SustainabilityScore `json:"sustainability"`
	Pattern         insights.PatternReport       `json:"pattern"`
	Readiness       insights.Readiness           `json:"readiness"`
	CreatedAt       time.Time                    `json:"created_at"`
}

// Assess validates the goal and the deposit history, then scores the history.
// deposits holds one amount per elapsed period, 0 for a missed one.
func (s *Service) Assess(goal Goal, deposits []float64) (*Assessment, error) {
	const op = "protocol.Assess"

	if err := s.validate(op, goal, nil); err != nil {
		return nil, err
	}
	if err := validation.ValidateDeposits(deposits, goal.Periods); err != nil {
		s.logRejection(op, "deposit_validation", err)
		return nil, err
	}
	if deposits == nil {
		deposits = []float64{}
	}

	expected := progression.Optimize(goal.TargetAmount, goal.Periods).Progression[:len(deposits)]
	streak, missed := streakOf(deposits)
	maturity := insights.ScoreMaturity(expected, deposits)

	s.logDecision(op, "assessment", "approved", maturity.Level)

	return &Assessment{
		ProtocolVersion: constants.ProtocolVersion,
		ID:              s.newID(),
		Goal:            goal,
		Deposits:        deposits,
		Expected:        expected,
		Maturity:        maturity,
		Consistency:     insights.CheckConsistency(expected, deposits, insights.DefaultConsistencyTolerance),
		Sustainability:  insights.ScoreSustainability(streak, len(deposits), missed),
		Pattern:         insights.Pattern(deposits),
		Readiness:       insights.InvestmentReadiness(maturity.Score, len(deposits)),
		CreatedAt:       s.now(),
	}, nil
}

// streakOf returns the run of paid periods ending at the latest one and the
// number of periods without a deposit.
func streakOf(deposits []float64) (streak, missed int) {
	for _, v := range deposits {
		if v <= 0 {
			missed++
		}
	}
	for i := len(deposits) - 1; i >= 0 && deposits[i] > 0; i-- {
		streak++
	}
	return streak, missed
}
