// Package status classifies a viability ratio into the discrete protocol
// status reported to clients.
package status

import "github.com/iwvelando/savings-protocol/pkg/threshold"

// Status is the protocol state tag attached to every response.
type Status string

const (
	Reached    Status = "reached"
	InProgress Status = "in_progress"
	Incomplete Status = "incomplete"

	// Optimal is assigned by callers on the optimizer path. Classify never
	// returns it; it is not part of the ratio table.
	Optimal Status = "optimal"
)

var table = threshold.New(Incomplete,
	threshold.Band[Status]{Min: 1.0, Value: Reached},
	threshold.Band[Status]{Min: 0.80, Value: InProgress},
)

// Classify maps a ratio onto reached, in_progress or incomplete.
func Classify(ratio float64) Status {
	return table.Lookup(ratio)
}

// Bounds exposes the classification boundaries in evaluation order.
func Bounds() []float64 {
	return table.Bounds()
}

// Rank orders the ratio-derived statuses so that a higher rank is a better
// band. Optimal and unknown values rank -1.
func Rank(s Status) int {
	switch s {
	case Incomplete:
		return 0
	case InProgress:
		return 1
	case Reached:
		return 2
	default:
		return -1
	}
}
