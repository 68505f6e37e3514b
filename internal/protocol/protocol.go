// Package protocol orchestrates a savings protocol request: it validates the
// goal and progression parameters, runs the progression engine, classifies the
// outcome and attaches the interpretive text.
package protocol

import (
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/savings-protocol/internal/insights"
	"github.com/iwvelando/savings-protocol/internal/progression"
	"github.com/iwvelando/savings-protocol/internal/status"
	"github.com/iwvelando/savings-protocol/pkg/constants"
	"github.com/iwvelando/savings-protocol/pkg/mathutil"
	"github.com/iwvelando/savings-protocol/pkg/validation"
	"go.uber.org/zap"
)

// Protocol types.
const (
	TypeProgressive = "progressive"
	TypeOptimized   = "optimized"
	TypeLinear      = "linear"
)

// Goal is the savings destination: a target amount over a number of periods.
type Goal struct {
	TargetAmount float64 `json:"target_amount"`
	Periods      int     `json:"periods"`
}

// Parameters shape a progressive (manual) protocol.
type Parameters struct {
	StartValue float64 `json:"start_value"`
	Increment  float64 `json:"increment"`
	Cap        float64 `json:"cap"`
}

// DefaultParameters returns the stock progression: start 1, increment 1,
// cap 500.
func DefaultParameters() Parameters {
	return Parameters{
		StartValue: constants.DefaultStartValue,
		Increment:  constants.DefaultIncrement,
		Cap:        constants.DefaultCap,
	}
}

// Summary is the client-facing view of a progression result.
type Summary struct {
	TotalAccumulated float64   `json:"total_accumulated"`
	PeriodsCompleted int       `json:"periods_completed"`
	AveragePerPeriod float64   `json:"average_per_period"`
	PeakValue        float64   `json:"peak_value"`
	Progression      []float64 `json:"progression"`
	Arithmetic       bool      `json:"arithmetic"`
	CommonDifference float64   `json:"common_difference"`
	CurveInsight     string    `json:"curve_insight"`
	MaturityInsight  string    `json:"maturity_insight,omitempty"`
}

// StatusBlock carries the classification and its interpretation.
type StatusBlock struct {
	Status         status.Status `json:"status"`
	Viability      float64       `json:"viability"`
	Interpretation string        `json:"interpretation"`
	Insight        string        `json:"insight"`
	Recommendation string        `json:"recommendation,omitempty"`
	Narrative      string        `json:"narrative"`
}

// Response is the outcome of a progressive or optimized protocol.
type Response struct {
	ProtocolVersion string      `json:"protocol_version"`
	ProtocolType    string      `json:"protocol_type"`
	ID              string      `json:"id"`
	Goal            Goal        `json:"goal"`
	Parameters      *Parameters `json:"parameters,omitempty"`
	Result          Summary     `json:"result"`
	Status          StatusBlock `json:"status"`
	CreatedAt       time.Time   `json:"created_at"`
}

// Service runs protocols against a fixed set of validation limits.
type Service struct {
	logger   *zap.Logger
	limits   validation.Limits
	defaults Parameters
	now      func() time.Time
	newID    func() string
}

// Option customizes a Service.
type Option func(*Service)

// WithDefaults overrides the parameters used when a request omits them.
func WithDefaults(p Parameters) Option {
	return func(s *Service) { s.defaults = p }
}

// WithClock overrides the CreatedAt clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService constructs a Service. A nil logger is replaced with a no-op
// logger.
func NewService(logger *zap.Logger, limits validation.Limits, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		logger:   logger,
		limits:   limits,
		defaults: DefaultParameters(),
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Defaults returns the parameters applied when a request omits them.
func (s *Service) Defaults() Parameters {
	return s.defaults
}

// Limits returns the validation limits in force.
func (s *Service) Limits() validation.Limits {
	return s.limits
}

// Progressive validates the request and computes a capped progression.
func (s *Service) Progressive(goal Goal, params Parameters) (*Response, error) {
	const op = "protocol.Progressive"

	if err := s.validate(op, goal, &params); err != nil {
		return nil, err
	}

	result := progression.Calculate(goal.Periods, params.StartValue, params.Increment, params.Cap)
	viability := progression.Viability(goal.TargetAmount, result.Total)
	classification := status.Classify(viability)
	// The sequence stops being arithmetic once the cap binds.
	arithmetic, diff := progression.CheckArithmetic(result.Progression)

	s.logDecision(op, "calculation", "approved", string(classification))

	return &Response{
		ProtocolVersion: constants.ProtocolVersion,
		ProtocolType:    TypeProgressive,
		ID:              s.newID(),
		Goal:            goal,
		Parameters:      &params,
		Result:          summarize(result, arithmetic, diff, ""),
		Status: StatusBlock{
			Status:         classification,
			Viability:      mathutil.RoundRatio(viability),
			Interpretation: insights.InterpretViability(viability),
			Insight:        insights.Insight(result.Total, goal.TargetAmount),
			Recommendation: insights.Recommendation(viability),
			Narrative:      insights.Narrative(classification),
		},
		CreatedAt: s.now(),
	}, nil
}

// Optimized validates the goal and solves the progression that lands on the
// target. The status is always optimal.
func (s *Service) Optimized(goal Goal) (*Response, error) {
	const op = "protocol.Optimized"

	if err := s.validate(op, goal, nil); err != nil {
		return nil, err
	}

	result := progression.Optimize(goal.TargetAmount, goal.Periods)
	viability := progression.Viability(goal.TargetAmount, result.Total)
	step := progression.CommonDifference(goal.TargetAmount, goal.Periods)
	summary := summarize(result, true, step, insights.Maturity(goal.Periods))

	s.logDecision(op, "calculation", "approved", string(status.Optimal))

	return &Response{
		ProtocolVersion: constants.ProtocolVersion,
		ProtocolType:    TypeOptimized,
		ID:              s.newID(),
		Goal:            goal,
		Result:          summary,
		Status: StatusBlock{
			Status:         status.Optimal,
			Viability:      mathutil.RoundRatio(viability),
			Interpretation: insights.InterpretViability(viability),
			Insight:        insights.Insight(result.Total, goal.TargetAmount),
			Recommendation: insights.OptimizedRecommendation,
			Narrative:      insights.Narrative(status.Optimal),
		},
		CreatedAt: s.now(),
	}, nil
}

func summarize(result progression.Result, arithmetic bool, diff float64, maturity string) Summary {
	return Summary{
		TotalAccumulated: result.Total,
		PeriodsCompleted: result.Periods,
		AveragePerPeriod: result.Average,
		PeakValue:        result.Peak,
		Progression:      result.Progression,
		Arithmetic:       arithmetic,
		CommonDifference: mathutil.Round(diff),
		CurveInsight:     insights.Curve(result.Progression),
		MaturityInsight:  maturity,
	}
}

// validate applies the limits and the behavioral checks. params is nil for
// optimized requests.
func (s *Service) validate(op string, goal Goal, params *Parameters) error {
	if err := s.limits.ValidateGoal(goal.TargetAmount, goal.Periods); err != nil {
		s.logRejection(op, "goal_validation", err)
		return err
	}
	if err := validation.CheckGoalSanity(goal.TargetAmount, goal.Periods); err != nil {
		s.logRejection(op, "behavior_validation", err)
		return err
	}
	if params == nil {
		return nil
	}
	if err := s.limits.ValidateProtocol(params.StartValue, params.Increment, params.Cap); err != nil {
		s.logRejection(op, "protocol_validation", err)
		return err
	}
	if err := validation.CheckProtocolSafety(params.StartValue, params.Increment, params.Cap); err != nil {
		s.logRejection(op, "protocol_validation", err)
		return err
	}
	return nil
}

// Decisions are logged without amounts.
func (s *Service) logDecision(op, decisionType, outcome, reason string) {
	s.logger.Info("protocol decision",
		zap.String("op", op),
		zap.String("decision_type", decisionType),
		zap.String("outcome", outcome),
		zap.String("reason", reason),
	)
}

func (s *Service) logRejection(op, decisionType string, err error) {
	s.logger.Warn("protocol decision",
		zap.String("op", op),
		zap.String("decision_type", decisionType),
		zap.String("outcome", "rejected"),
		zap.Error(err),
	)
}
