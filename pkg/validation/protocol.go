package validation

import (
	"fmt"

	"github.com/iwvelando/savings-protocol/pkg/mathutil"
)

// Field names reported on rejections.
const (
	FieldTargetAmount = "target_amount"
	FieldPeriods      = "periods"
	FieldStartValue   = "start_value"
	FieldIncrement    = "increment"
	FieldCap          = "cap"
	FieldDeposits     = "deposits"
)

// RejectionError describes an input rejected before it reaches the
// progression engine.
type RejectionError struct {
	Field      string
	Reason     string
	Suggestion string
}

func (e *RejectionError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func reject(field, reason, suggestion string) *RejectionError {
	return &RejectionError{Field: field, Reason: reason, Suggestion: suggestion}
}

// Bounds is an inclusive numeric range.
type Bounds struct {
	Min float64 `yaml:"min" mapstructure:"min" json:"min"`
	Max float64 `yaml:"max" mapstructure:"max" json:"max"`
}

func (b Bounds) contains(v float64) bool {
	return v >= b.Min && v <= b.Max
}

// Limits holds the educational-scope bounds applied to goals and protocol
// parameters.
type Limits struct {
	TargetAmount Bounds `yaml:"targetAmount" mapstructure:"targetAmount" json:"target_amount"`
	Periods      Bounds `yaml:"periods" mapstructure:"periods" json:"periods"`
	StartValue   Bounds `yaml:"startValue" mapstructure:"startValue" json:"start_value"`
	Increment    Bounds `yaml:"increment" mapstructure:"increment" json:"increment"`
	Cap          Bounds `yaml:"cap" mapstructure:"cap" json:"cap"`
}

// DefaultLimits returns the stock bounds: targets of 10 to 1,000,000 over 3
// to 120 periods.
func DefaultLimits() Limits {
	return Limits{
		TargetAmount: Bounds{Min: 10, Max: 1_000_000},
		Periods:      Bounds{Min: 3, Max: 120},
		StartValue:   Bounds{Min: 1, Max: 100},
		Increment:    Bounds{Min: 0.5, Max: 50},
		Cap:          Bounds{Min: 10, Max: 2000},
	}
}

// ValidateGoal rejects targets and period counts outside the limits.
func (l Limits) ValidateGoal(target float64, periods int) error {
	switch {
	case !mathutil.IsFinite(target) || target <= 0:
		return reject(FieldTargetAmount, "Target amount must be a positive finite number.",
			"Provide a positive target amount.")
	case target > l.TargetAmount.Max:
		return reject(FieldTargetAmount,
			"Target outside the educational scope. This system builds constancy, it does not promise wealth.",
			fmt.Sprintf("Use a target of at most %.2f.", l.TargetAmount.Max))
	case target < l.TargetAmount.Min:
		return reject(FieldTargetAmount,
			"Target too low to form a behavioral pattern.",
			fmt.Sprintf("Use a target of at least %.2f.", l.TargetAmount.Min))
	case periods <= 0:
		return reject(FieldPeriods, "Periods must be a positive integer.",
			"Provide the number of periods for the protocol.")
	case float64(periods) < l.Periods.Min:
		return reject(FieldPeriods,
			fmt.Sprintf("Period too short. Behavior requires at least %.0f cycles to form.", l.Periods.Min),
			"Extend the protocol duration.")
	case float64(periods) > l.Periods.Max:
		return reject(FieldPeriods,
			"Period too long. Educational protocols work best over horizons of 3 months to 5 years.",
			fmt.Sprintf("Use at most %.0f periods.", l.Periods.Max))
	}
	return nil
}

// ValidateProtocol rejects progression parameters outside the limits and a
// cap that leaves no room to grow above the start value.
func (l Limits) ValidateProtocol(start, increment, capValue float64) error {
	if err := checkBounds(FieldStartValue, start, l.StartValue); err != nil {
		return err
	}
	if err := checkBounds(FieldIncrement, increment, l.Increment); err != nil {
		return err
	}
	if err := checkBounds(FieldCap, capValue, l.Cap); err != nil {
		return err
	}
	if capValue <= start {
		return reject(FieldCap,
			"The cap must be greater than the start value. Progression requires growth.",
			"Raise the cap or lower the start value.")
	}
	return nil
}

func checkBounds(field string, v float64, b Bounds) error {
	if !mathutil.IsFinite(v) {
		return reject(field, "Value must be a finite number.", "Review the protocol parameters.")
	}
	if !b.contains(v) {
		return reject(field,
			fmt.Sprintf("Value %.2f outside the allowed range %.2f to %.2f.", v, b.Min, b.Max),
			"Review the protocol parameters.")
	}
	return nil
}

// CheckGoalSanity rejects goals that are psychologically unhealthy: large
// monthly amounts over short horizons, or horizons beyond ten years.
func CheckGoalSanity(target float64, periods int) error {
	var monthlyRate float64
	if periods > 0 {
		monthlyRate = target / float64(periods)
	}

	if monthlyRate > 10_000 && periods < 12 {
		return reject(FieldTargetAmount,
			"Goal not aligned with financial education. High amounts require longer periods to form behavior.",
			"Adjust the parameters to educational values.")
	}
	if periods > 120 {
		return reject(FieldPeriods,
			"Period too long. Educational protocols work best over horizons of 3 months to 5 years.",
			"Adjust the parameters to educational values.")
	}
	return nil
}

// CheckProtocolSafety rejects progressions that grow too aggressively or have
// no room between start and cap.
func CheckProtocolSafety(start, increment, capValue float64) error {
	if increment > capValue*0.5 {
		return reject(FieldIncrement,
			"Increment too aggressive. Progression requires sustainable growth.",
			"Review the progression parameters.")
	}
	if capValue < start+increment*2 {
		return reject(FieldCap,
			"Cap too close to the start. The protocol needs room to progress.",
			"Review the progression parameters.")
	}
	return nil
}

// ValidateDeposits rejects a deposit history longer than the goal's periods or
// holding negative or non-finite amounts. A missed period is recorded as 0.
func ValidateDeposits(deposits []float64, periods int) error {
	if len(deposits) > periods {
		return reject(FieldDeposits,
			fmt.Sprintf("%d deposits recorded for a %d-period protocol.", len(deposits), periods),
			"Record at most one deposit per period.")
	}
	for i, v := range deposits {
		if !mathutil.IsFinite(v) || v < 0 {
			return reject(FieldDeposits,
				fmt.Sprintf("Deposit for period %d must be a non-negative finite number.", i+1),
				"Record missed periods as 0.")
		}
	}
	return nil
}
