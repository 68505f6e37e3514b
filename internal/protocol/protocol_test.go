package protocol

import (
	"errors"
	"testing"
	"time"

	"github.com/iwvelando/savings-protocol/internal/insights"
	"github.com/iwvelando/savings-protocol/internal/progression"
	"github.com/iwvelando/savings-protocol/internal/status"
	"github.com/iwvelando/savings-protocol/pkg/mathutil"
	"github.com/iwvelando/savings-protocol/pkg/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var fixedTime = time.Date(2026, 1, 30, 10, 30, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	svc := NewService(zap.New(core), validation.DefaultLimits(), WithClock(func() time.Time { return fixedTime }))
	return svc, logs
}

func TestProgressiveScenario(t *testing.T) {
	svc, _ := newTestService(t)

	resp, err := svc.Progressive(Goal{TargetAmount: 1000, Periods: 10}, Parameters{StartValue: 1, Increment: 2, Cap: 50})
	require.NoError(t, err)

	assert.Equal(t, "1.0", resp.ProtocolVersion)
	assert.Equal(t, TypeProgressive, resp.ProtocolType)
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, fixedTime, resp.CreatedAt)

	assert.Equal(t, []float64{1, 3, 5, 7, 9, 11, 13, 15, 17, 19}, resp.Result.Progression)
	assert.Equal(t, 100.0, resp.Result.TotalAccumulated)
	assert.Equal(t, 10.0, resp.Result.AveragePerPeriod)
	assert.Equal(t, 19.0, resp.Result.PeakValue)
	assert.Equal(t, 10, resp.Result.PeriodsCompleted)
	assert.Equal(t, insights.CurveAccelerating, resp.Result.CurveInsight)
	assert.Empty(t, resp.Result.MaturityInsight)
	assert.True(t, resp.Result.Arithmetic)
	assert.Equal(t, 2.0, resp.Result.CommonDifference)

	assert.Equal(t, status.Incomplete, resp.Status.Status)
	assert.InDelta(t, 0.1, resp.Status.Viability, 1e-9)
	assert.Equal(t, insights.Insight(100, 1000), resp.Status.Insight)
	assert.Equal(t, insights.Recommendation(0.1), resp.Status.Recommendation)
	assert.Equal(t, insights.InterpretViability(0.1), resp.Status.Interpretation)
	require.NotNil(t, resp.Parameters)
	assert.Equal(t, 50.0, resp.Parameters.Cap)
}

func TestProgressiveReachesTarget(t *testing.T) {
	svc, _ := newTestService(t)

	resp, err := svc.Progressive(Goal{TargetAmount: 100, Periods: 12}, Parameters{StartValue: 5, Increment: 5, Cap: 100})
	require.NoError(t, err)

	assert.Equal(t, status.Reached, resp.Status.Status)
	assert.Equal(t, 1.0, resp.Status.Viability)
}

func TestProgressiveCapBreaksArithmetic(t *testing.T) {
	svc, _ := newTestService(t)

	resp, err := svc.Progressive(Goal{TargetAmount: 1000, Periods: 5}, Parameters{StartValue: 1, Increment: 20, Cap: 50})
	require.NoError(t, err)

	assert.Equal(t, []float64{1, 21, 41, 50, 50}, resp.Result.Progression)
	assert.False(t, resp.Result.Arithmetic)
	assert.Zero(t, resp.Result.CommonDifference)
}

func TestOptimizedScenario(t *testing.T) {
	svc, _ := newTestService(t)

	resp, err := svc.Optimized(Goal{TargetAmount: 1000, Periods: 12})
	require.NoError(t, err)

	assert.Equal(t, TypeOptimized, resp.ProtocolType)
	assert.Nil(t, resp.Parameters)
	assert.Len(t, resp.Result.Progression, 12)
	assert.InDelta(t, 1000, resp.Result.TotalAccumulated, 1)
	assert.Equal(t, status.Optimal, resp.Status.Status)
	assert.InDelta(t, 1.0, resp.Status.Viability, 0.001)
	assert.Equal(t, insights.OptimizedRecommendation, resp.Status.Recommendation)
	assert.Equal(t, insights.Maturity(12), resp.Result.MaturityInsight)
	assert.True(t, resp.Result.Arithmetic)
	// (2*1000/12 - 2) / 11
	assert.InDelta(t, 14.97, resp.Result.CommonDifference, 0.005)
}

func TestValidationRejections(t *testing.T) {
	svc, logs := newTestService(t)

	tests := []struct {
		name   string
		run    func() error
		field  string
		logged string
	}{
		{
			name: "Target too high",
			run: func() error {
				_, err := svc.Optimized(Goal{TargetAmount: 2_000_000, Periods: 12})
				return err
			},
			field:  validation.FieldTargetAmount,
			logged: "goal_validation",
		},
		{
			name: "High monthly rate on short horizon",
			run: func() error {
				_, err := svc.Optimized(Goal{TargetAmount: 100_000, Periods: 6})
				return err
			},
			field:  validation.FieldTargetAmount,
			logged: "behavior_validation",
		},
		{
			name: "Cap below start",
			run: func() error {
				_, err := svc.Progressive(Goal{TargetAmount: 1000, Periods: 12}, Parameters{StartValue: 100, Increment: 1, Cap: 50})
				return err
			},
			field:  validation.FieldCap,
			logged: "protocol_validation",
		},
		{
			name: "Aggressive increment",
			run: func() error {
				_, err := svc.Compare(Goal{TargetAmount: 1000, Periods: 12}, Parameters{StartValue: 1, Increment: 40, Cap: 60})
				return err
			},
			field:  validation.FieldIncrement,
			logged: "protocol_validation",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := logs.Len()
			err := tt.run()

			var rejection *validation.RejectionError
			require.True(t, errors.As(err, &rejection), "expected rejection, got %v", err)
			assert.Equal(t, tt.field, rejection.Field)

			entries := logs.All()[before:]
			require.NotEmpty(t, entries)
			last := entries[len(entries)-1]
			assert.Equal(t, zapcore.WarnLevel, last.Level)
			assert.Equal(t, tt.logged, last.ContextMap()["decision_type"])
			assert.Equal(t, "rejected", last.ContextMap()["outcome"])
		})
	}
}

func TestDecisionLogsCarryNoAmounts(t *testing.T) {
	svc, logs := newTestService(t)

	_, err := svc.Progressive(Goal{TargetAmount: 1000, Periods: 12}, DefaultParameters())
	require.NoError(t, err)

	entries := logs.FilterMessage("protocol decision").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "approved", fields["outcome"])
	for key := range fields {
		assert.NotContains(t, []string{"target_amount", "total", "amount"}, key)
	}
}

func TestCompare(t *testing.T) {
	svc, _ := newTestService(t)

	cmp, err := svc.Compare(Goal{TargetAmount: 1000, Periods: 12}, Parameters{StartValue: 1, Increment: 2, Cap: 100})
	require.NoError(t, err)

	// 1 + 3 + ... + 23 = 144
	assert.Equal(t, 144.0, cmp.Progressive.Total)
	assert.Equal(t, status.Incomplete, cmp.Progressive.Status)
	assert.InDelta(t, 0.144, cmp.Progressive.Viability, 1e-9)
	assert.Equal(t, status.Optimal, cmp.Optimized.Status)
	assert.InDelta(t, 1000, cmp.Optimized.Total, 1)
	assert.Equal(t, "Optimized protocol", cmp.Recommendation)
	assert.Contains(t, cmp.Insight, "more efficiency")

	assert.Equal(t, 1000.0, cmp.Linear.Total)
	assert.Equal(t, 1.0, cmp.Linear.Viability)
	assert.Equal(t, status.Reached, cmp.Linear.Status)
}

func TestInfoReflectsLimits(t *testing.T) {
	limits := validation.DefaultLimits()
	limits.Periods.Max = 60
	svc := NewService(nil, limits, WithDefaults(Parameters{StartValue: 2, Increment: 3, Cap: 300}))

	info := svc.Info()
	assert.Equal(t, "1.0", info.ProtocolVersion)
	require.Len(t, info.AvailableProtocols, 3)
	assert.Equal(t, TypeProgressive, info.AvailableProtocols[0].Type)
	assert.Equal(t, "3 to 60 periods", info.ValidationRules[validation.FieldPeriods])
	assert.Equal(t, "10 to 1000000 (educational scope)", info.ValidationRules[validation.FieldTargetAmount])
	assert.Equal(t, []float64{1.0, 0.80}, info.StatusThresholds)
	assert.Equal(t, 300.0, info.Defaults.Cap)
	assert.Equal(t, 300.0, svc.Defaults().Cap)
	assert.Equal(t, 60.0, svc.Limits().Periods.Max)
}

func TestSimulate(t *testing.T) {
	svc, logs := newTestService(t)

	sim, err := svc.Simulate(Goal{TargetAmount: 1000, Periods: 10}, Sweep{
		StartRange:     progression.Range{Min: 1, Max: 5},
		IncrementRange: progression.Range{Min: 1, Max: 3},
		Cap:            100,
		Samples:        3,
	})
	require.NoError(t, err)
	require.Len(t, sim.Scenarios, 3)

	first, mid, last := sim.Scenarios[0], sim.Scenarios[1], sim.Scenarios[2]
	assert.Equal(t, 1.0, first.StartValue)
	assert.Equal(t, 1.0, first.Increment)
	// 1 + 2 + ... + 10
	assert.Equal(t, 55.0, first.Total)
	assert.Equal(t, 3.0, mid.StartValue)
	assert.Equal(t, 2.0, mid.Increment)
	// 10*3 + 2*45
	assert.Equal(t, 120.0, mid.Total)
	// 10*5 + 3*45
	assert.Equal(t, 185.0, last.Total)
	assert.Equal(t, 32.0, last.Peak)
	assert.InDelta(t, 0.185, last.Viability, 1e-9)
	assert.Equal(t, status.Incomplete, last.Status)

	assert.Len(t, logs.FilterMessage("protocol decision").All(), 1)
}

func TestSimulateReportsSimulatedParameters(t *testing.T) {
	svc, _ := newTestService(t)
	goal := Goal{TargetAmount: 1000, Periods: 6}
	sweep := Sweep{
		StartRange:     progression.Range{Min: 1, Max: 2},
		IncrementRange: progression.Range{Min: 1, Max: 2},
		Cap:            100,
		Samples:        4,
	}

	sim, err := svc.Simulate(goal, sweep)
	require.NoError(t, err)

	results := progression.Simulate(goal.Periods, sweep.StartRange, sweep.IncrementRange, sweep.Cap, sweep.Samples)
	require.Len(t, sim.Scenarios, len(results))
	for i, scenario := range sim.Scenarios {
		terms := results[i].Progression
		assert.Equal(t, mathutil.Round(terms[0]), scenario.StartValue, "scenario %d start", i)
		assert.Equal(t, mathutil.Round(terms[1]-terms[0]), scenario.Increment, "scenario %d increment", i)
		assert.Equal(t, results[i].Total, scenario.Total, "scenario %d total", i)
	}
	assert.Equal(t, 1.33, sim.Scenarios[1].StartValue)
}

func TestSimulateRejections(t *testing.T) {
	svc, _ := newTestService(t)
	goal := Goal{TargetAmount: 1000, Periods: 10}

	_, err := svc.Simulate(goal, Sweep{StartRange: progression.Range{Min: 1, Max: 2}, IncrementRange: progression.Range{Min: 1, Max: 2}, Cap: 100, Samples: 0})
	var rejection *validation.RejectionError
	require.True(t, errors.As(err, &rejection))
	assert.Equal(t, FieldSamples, rejection.Field)

	_, err = svc.Simulate(goal, Sweep{StartRange: progression.Range{Min: 1, Max: 200}, IncrementRange: progression.Range{Min: 1, Max: 2}, Cap: 300, Samples: 5})
	require.True(t, errors.As(err, &rejection))
	assert.Equal(t, validation.FieldStartValue, rejection.Field)
}

func TestAssessOnTrack(t *testing.T) {
	svc, logs := newTestService(t)
	goal := Goal{TargetAmount: 1000, Periods: 12}
	expected := progression.Optimize(goal.TargetAmount, goal.Periods).Progression[:4]
	deposits := append([]float64(nil), expected...)

	a, err := svc.Assess(goal, deposits)
	require.NoError(t, err)

	assert.Equal(t, "1.0", a.ProtocolVersion)
	assert.NotEmpty(t, a.ID)
	assert.Equal(t, fixedTime, a.CreatedAt)
	assert.Equal(t, expected, a.Expected)

	assert.Equal(t, 1.0, a.Maturity.Score)
	assert.Equal(t, insights.LevelMature, a.Maturity.Level)
	assert.True(t, a.Maturity.ReadyForInvestment)
	assert.Equal(t, insights.ConsistencyExcellent, a.Consistency.Status)
	assert.Equal(t, insights.SustainabilityConsolidated, a.Sustainability.Level)
	assert.Equal(t, 4, a.Sustainability.CurrentStreak)
	assert.Equal(t, insights.PatternGrowing, a.Pattern.Pattern)
	assert.Equal(t, insights.ReadinessReady, a.Readiness.Status)

	entries := logs.FilterMessage("protocol decision").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "assessment", entries[0].ContextMap()["decision_type"])
	assert.Equal(t, insights.LevelMature, entries[0].ContextMap()["reason"])
}

func TestAssessWithMissedPeriods(t *testing.T) {
	svc, _ := newTestService(t)

	a, err := svc.Assess(Goal{TargetAmount: 1000, Periods: 12}, []float64{1, 0, 0})
	require.NoError(t, err)

	assert.Equal(t, insights.LevelBeginner, a.Maturity.Level)
	assert.False(t, a.Maturity.ReadyForInvestment)
	assert.Equal(t, insights.ConsistencyInconsistent, a.Consistency.Status)
	assert.Equal(t, 0, a.Sustainability.CurrentStreak)
	assert.Equal(t, insights.SustainabilityUnstable, a.Sustainability.Level)
	assert.Equal(t, insights.PatternDeclining, a.Pattern.Pattern)
	assert.Equal(t, insights.ReadinessInsufficientMaturity, a.Readiness.Status)
}

func TestAssessEmptyHistory(t *testing.T) {
	svc, _ := newTestService(t)

	a, err := svc.Assess(Goal{TargetAmount: 1000, Periods: 12}, nil)
	require.NoError(t, err)

	assert.NotNil(t, a.Deposits)
	assert.Empty(t, a.Expected)
	assert.Equal(t, insights.LevelBeginner, a.Maturity.Level)
	assert.Equal(t, insights.ConsistencyNoData, a.Consistency.Status)
	assert.Equal(t, insights.SustainabilityUndefined, a.Sustainability.Level)
	assert.Equal(t, insights.ReadinessInsufficientTime, a.Readiness.Status)
	assert.Contains(t, a.Readiness.Message, "3 more")
}

func TestAssessRejections(t *testing.T) {
	tests := []struct {
		name     string
		goal     Goal
		deposits []float64
		field    string
		logged   string
	}{
		{"Invalid goal", Goal{TargetAmount: 5, Periods: 12}, []float64{1}, validation.FieldTargetAmount, "goal_validation"},
		{"Too many deposits", Goal{TargetAmount: 1000, Periods: 3}, []float64{1, 2, 3, 4}, validation.FieldDeposits, "deposit_validation"},
		{"Negative deposit", Goal{TargetAmount: 1000, Periods: 12}, []float64{1, -5}, validation.FieldDeposits, "deposit_validation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, logs := newTestService(t)

			_, err := svc.Assess(tt.goal, tt.deposits)
			var rejection *validation.RejectionError
			require.True(t, errors.As(err, &rejection), "expected rejection, got %v", err)
			assert.Equal(t, tt.field, rejection.Field)

			entries := logs.All()
			require.NotEmpty(t, entries)
			assert.Equal(t, tt.logged, entries[len(entries)-1].ContextMap()["decision_type"])
		})
	}
}

func TestStreakOf(t *testing.T) {
	tests := []struct {
		deposits []float64
		streak   int
		missed   int
	}{
		{nil, 0, 0},
		{[]float64{1, 2, 3}, 3, 0},
		{[]float64{1, 0, 3, 4}, 2, 1},
		{[]float64{1, 2, 0}, 0, 1},
		{[]float64{0, 0}, 0, 2},
	}

	for _, tt := range tests {
		streak, missed := streakOf(tt.deposits)
		assert.Equal(t, tt.streak, streak, "streak of %v", tt.deposits)
		assert.Equal(t, tt.missed, missed, "missed in %v", tt.deposits)
	}
}
