package insights

import (
	"strings"
	"testing"

	"github.com/iwvelando/savings-protocol/internal/status"
)

func TestInsightBands(t *testing.T) {
	tests := []struct {
		name     string
		total    float64
		target   float64
		contains string
	}{
		{"Reached", 1000, 1000, "Constancy consolidated"},
		{"Solid rhythm", 850, 1000, "Solid rhythm"},
		{"Consistent progress", 700, 1000, "Consistent progress"},
		{"Early progress", 500, 1000, "Measurable early progress"},
		{"Construction", 300, 1000, "Construction phase"},
		{"Adaptation", 100, 1000, "Adaptation phase"},
		{"Invalid target", 100, 0, "Invalid goal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Insight(tt.total, tt.target)
			if !strings.Contains(got, tt.contains) {
				t.Errorf("Insight(%v, %v) = %q, expected to contain %q", tt.total, tt.target, got, tt.contains)
			}
		})
	}
}

func TestRecommendationBands(t *testing.T) {
	tests := []struct {
		ratio    float64
		contains string
	}{
		{1.0, "completed successfully"},
		{0.9, "Keep operating"},
		{0.6, "Viable protocol"},
		{0.35, "Revisit the parameters"},
		{0.1, "out of reach"},
	}

	for _, tt := range tests {
		if got := Recommendation(tt.ratio); !strings.Contains(got, tt.contains) {
			t.Errorf("Recommendation(%v) = %q, expected to contain %q", tt.ratio, got, tt.contains)
		}
	}
}

func TestInterpretViability(t *testing.T) {
	tests := []struct {
		viability float64
		prefix    string
	}{
		{0.95, "Highly viable"},
		{0.80, "Viable."},
		{0.60, "Partially viable"},
		{0.40, "Low viability"},
		{0.39, "Not viable"},
	}

	for _, tt := range tests {
		if got := InterpretViability(tt.viability); !strings.HasPrefix(got, tt.prefix) {
			t.Errorf("InterpretViability(%v) = %q, expected prefix %q", tt.viability, got, tt.prefix)
		}
	}
}

func TestMaturity(t *testing.T) {
	tests := []struct {
		periods  int
		contains string
	}{
		{36, "consolidated"},
		{24, "consolidated"},
		{12, "in development"},
		{6, "Initial pattern"},
		{3, "Three cycles"},
		{2, "Protocol start"},
	}

	for _, tt := range tests {
		if got := Maturity(tt.periods); !strings.Contains(got, tt.contains) {
			t.Errorf("Maturity(%d) = %q, expected to contain %q", tt.periods, got, tt.contains)
		}
	}
}

func TestNarrative(t *testing.T) {
	for _, s := range []status.Status{status.Reached, status.InProgress, status.Incomplete, status.Optimal} {
		if got := Narrative(s); got == "" || got == "Undefined status." {
			t.Errorf("Narrative(%s) = %q", s, got)
		}
	}
	if got := Narrative("bogus"); got != "Undefined status." {
		t.Errorf("Narrative(bogus) = %q", got)
	}
}

func TestComparative(t *testing.T) {
	if got := Comparative(980, 1000, 1000); got != ComparativeNearOptimal {
		t.Errorf("near optimal: got %q", got)
	}
	if got := Comparative(1000, 500, 1000); got != ComparativeAdequate {
		t.Errorf("adequate: got %q", got)
	}

	got := Comparative(500, 1000, 1000)
	if !strings.Contains(got, "100.0% more efficiency") {
		t.Errorf("improvement: got %q", got)
	}

	if got := Comparative(0, 1000, 1000); !strings.Contains(got, "0.0% more efficiency") {
		t.Errorf("zero progressive ratio: got %q", got)
	}
	if got := Comparative(100, 1000, 0); got != ComparativeNearOptimal {
		t.Errorf("zero target: got %q", got)
	}
}

func TestCurve(t *testing.T) {
	tests := []struct {
		name        string
		progression []float64
		expected    string
	}{
		{"Too short", []float64{1, 2}, CurveInsufficient},
		{"Accelerating", []float64{1, 3, 5, 7, 9, 11}, CurveAccelerating},
		{"Stable", []float64{10, 10, 10, 10}, CurveStable},
		{"Decelerating", []float64{10, 10, 1, 1}, CurveDecelerating},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Curve(tt.progression); got != tt.expected {
				t.Errorf("Curve(%v) = %q, expected %q", tt.progression, got, tt.expected)
			}
		})
	}
}
