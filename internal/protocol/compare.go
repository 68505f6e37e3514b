package protocol

import (
	"strconv"

	"github.com/iwvelando/savings-protocol/internal/insights"
	"github.com/iwvelando/savings-protocol/internal/progression"
	"github.com/iwvelando/savings-protocol/internal/status"
	"github.com/iwvelando/savings-protocol/pkg/constants"
	"github.com/iwvelando/savings-protocol/pkg/mathutil"
	"github.com/iwvelando/savings-protocol/pkg/validation"
)

// Outcome is one side of a comparison.
type Outcome struct {
	Total     float64       `json:"total"`
	Viability float64       `json:"viability"`
	Status    status.Status `json:"status"`
}

// Comparison contrasts the manual progression with the optimized one. Linear
// is the flat baseline of equal deposits.
type Comparison struct {
	ProtocolVersion string  `json:"protocol_version"`
	Goal            Goal    `json:"goal"`
	Progressive     Outcome `json:"progressive"`
	Optimized       Outcome `json:"optimized"`
	Linear          Outcome `json:"linear"`
	Insight         string  `json:"insight"`
	Recommendation  string  `json:"recommendation"`
}

// Compare runs both engines on the same goal.
func (s *Service) Compare(goal Goal, params Parameters) (*Comparison, error) {
	const op = "protocol.Compare"

	if err := s.validate(op, goal, &params); err != nil {
		return nil, err
	}

	manual := progression.Calculate(goal.Periods, params.StartValue, params.Increment, params.Cap)
	optimized := progression.Optimize(goal.TargetAmount, goal.Periods)
	linear := progression.LinearDistribution(goal.TargetAmount, goal.Periods)

	manualRatio := progression.Viability(goal.TargetAmount, manual.Total)
	optimizedRatio := progression.Viability(goal.TargetAmount, optimized.Total)
	linearRatio := progression.Viability(goal.TargetAmount, linear.Total)

	recommendation := "Progressive protocol adequate"
	if optimized.Total > manual.Total {
		recommendation = "Optimized protocol"
	}

	s.logDecision(op, "comparison", "approved", recommendation)

	return &Comparison{
		ProtocolVersion: constants.ProtocolVersion,
		Goal:            goal,
		Progressive: Outcome{
			Total:     manual.Total,
			Viability: mathutil.RoundRatio(manualRatio),
			Status:    status.Classify(manualRatio),
		},
		Optimized: Outcome{
			Total:     optimized.Total,
			Viability: mathutil.RoundRatio(optimizedRatio),
			Status:    status.Optimal,
		},
		Linear: Outcome{
			Total:     linear.Total,
			Viability: mathutil.RoundRatio(linearRatio),
			Status:    status.Classify(linearRatio),
		},
		Insight:        insights.Comparative(manual.Total, optimized.Total, goal.TargetAmount),
		Recommendation: recommendation,
	}, nil
}

// Descriptor documents one available protocol.
type Descriptor struct {
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Parameters  []string `json:"parameters"`
}

// Catalog lists the available protocols and the validation rules in force.
type Catalog struct {
	ProtocolVersion    string            `json:"protocol_version"`
	AvailableProtocols []Descriptor      `json:"available_protocols"`
	ValidationRules    map[string]string `json:"validation_rules"`
	StatusThresholds   []float64         `json:"status_thresholds"`
	Defaults           Parameters        `json:"defaults"`
}

// Info describes the protocols this service offers.
func (s *Service) Info() Catalog {
	return Catalog{
		ProtocolVersion: constants.ProtocolVersion,
		AvailableProtocols: []Descriptor{
			{
				Type:        TypeProgressive,
				Description: "Custom progression with a psychological ceiling",
				Parameters:  []string{validation.FieldStartValue, validation.FieldIncrement, validation.FieldCap},
			},
			{
				Type:        TypeOptimized,
				Description: "Mathematically optimized progression",
				Parameters:  []string{"automatic"},
			},
			{
				Type:        TypeLinear,
				Description: "Equal deposits every period, shown as a baseline in comparisons",
				Parameters:  []string{"automatic"},
			},
		},
		ValidationRules: map[string]string{
			validation.FieldTargetAmount: describe(s.limits.TargetAmount, "(educational scope)"),
			validation.FieldPeriods:      describe(s.limits.Periods, "periods"),
			validation.FieldStartValue:   describe(s.limits.StartValue, ""),
			validation.FieldIncrement:    describe(s.limits.Increment, ""),
			validation.FieldCap:          describe(s.limits.Cap, ""),
		},
		StatusThresholds: status.Bounds(),
		Defaults:         s.defaults,
	}
}

func describe(b validation.Bounds, suffix string) string {
	text := strconv.FormatFloat(b.Min, 'f', -1, 64) + " to " + strconv.FormatFloat(b.Max, 'f', -1, 64)
	if suffix != "" {
		text += " " + suffix
	}
	return text
}
