package protocol

import (
	"fmt"

	"github.com/iwvelando/savings-protocol/internal/progression"
	"github.com/iwvelando/savings-protocol/internal/status"
	"github.com/iwvelando/savings-protocol/pkg/constants"
	"github.com/iwvelando/savings-protocol/pkg/mathutil"
	"github.com/iwvelando/savings-protocol/pkg/validation"
)

// MaxSimulationSamples bounds a single sweep.
const MaxSimulationSamples = 50

// FieldSamples names the sample count in rejections.
const FieldSamples = "samples"

// Sweep asks for capped progressions whose start and increment move together
// from their range minimums to their maximums.
type Sweep struct {
	StartRange     progression.Range `json:"start_range"`
	IncrementRange progression.Range `json:"increment_range"`
	Cap            float64           `json:"cap"`
	Samples        int               `json:"samples"`
}

// Scenario is one sampled point of a sweep.
type Scenario struct {
	StartValue float64       `json:"start_value"`
	Increment  float64       `json:"increment"`
	Total      float64       `json:"total"`
	Peak       float64       `json:"peak"`
	Viability  float64       `json:"viability"`
	Status     status.Status `json:"status"`
}

// Simulation is the outcome of a sweep against one goal.
type Simulation struct {
	ProtocolVersion string     `json:"protocol_version"`
	Goal            Goal       `json:"goal"`
	Cap             float64    `json:"cap"`
	Scenarios       []Scenario `json:"scenarios"`
}

// Simulate validates the goal and both corners of the sweep, then samples the
// progressions between them.
func (s *Service) Simulate(goal Goal, sweep Sweep) (*Simulation, error) {
	const op = "protocol.Simulate"

	if sweep.Samples < 1 || sweep.Samples > MaxSimulationSamples {
		err := &validation.RejectionError{
			Field:      FieldSamples,
			Reason:     fmt.Sprintf("Samples must be between 1 and %d.", MaxSimulationSamples),
			Suggestion: "Request fewer scenarios.",
		}
		s.logRejection(op, "simulation_validation", err)
		return nil, err
	}
	for _, corner := range []Parameters{
		{StartValue: sweep.StartRange.Min, Increment: sweep.IncrementRange.Min, Cap: sweep.Cap},
		{StartValue: sweep.StartRange.Max, Increment: sweep.IncrementRange.Max, Cap: sweep.Cap},
	} {
		if err := s.validate(op, goal, &corner); err != nil {
			return nil, err
		}
	}

	results := progression.Simulate(goal.Periods, sweep.StartRange, sweep.IncrementRange, sweep.Cap, sweep.Samples)

	scenarios := make([]Scenario, 0, len(results))
	for i, result := range results {
		viability := progression.Viability(goal.TargetAmount, result.Total)
		scenarios = append(scenarios, Scenario{
			StartValue: mathutil.Round(sweep.StartRange.At(i, sweep.Samples)),
			Increment:  mathutil.Round(sweep.IncrementRange.At(i, sweep.Samples)),
			Total:      result.Total,
			Peak:       result.Peak,
			Viability:  mathutil.RoundRatio(viability),
			Status:     status.Classify(viability),
		})
	}

	s.logDecision(op, "simulation", "approved", fmt.Sprintf("%d scenarios", len(scenarios)))

	return &Simulation{
		ProtocolVersion: constants.ProtocolVersion,
		Goal:            goal,
		Cap:             sweep.Cap,
		Scenarios:       scenarios,
	}, nil
}
