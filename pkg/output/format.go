// Package output provides utilities for formatting and displaying protocol results.
package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/iwvelando/savings-protocol/internal/protocol"
	"github.com/iwvelando/savings-protocol/pkg/constants"
	"github.com/iwvelando/savings-protocol/pkg/format"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Render writes resp in the requested output format.
func Render(w io.Writer, outputFormat string, resp *protocol.Response) error {
	switch outputFormat {
	case constants.OutputFormatPretty:
		PrettyFormat(w, resp)
		return nil
	case constants.OutputFormatCSV:
		CsvFormat(w, resp)
		return nil
	case constants.OutputFormatJSON:
		return JSONFormat(w, resp)
	default:
		return fmt.Errorf("unsupported output format: %s", outputFormat)
	}
}

// RenderComparison writes cmp in the requested output format.
func RenderComparison(w io.Writer, outputFormat string, cmp *protocol.Comparison) error {
	switch outputFormat {
	case constants.OutputFormatPretty:
		PrettyComparison(w, cmp)
		return nil
	case constants.OutputFormatCSV:
		CsvComparison(w, cmp)
		return nil
	case constants.OutputFormatJSON:
		return JSONFormat(w, cmp)
	default:
		return fmt.Errorf("unsupported output format: %s", outputFormat)
	}
}

// RenderSimulation writes sim in the requested output format.
func RenderSimulation(w io.Writer, outputFormat string, sim *protocol.Simulation) error {
	switch outputFormat {
	case constants.OutputFormatPretty:
		PrettySimulation(w, sim)
		return nil
	case constants.OutputFormatCSV:
		CsvSimulation(w, sim)
		return nil
	case constants.OutputFormatJSON:
		return JSONFormat(w, sim)
	default:
		return fmt.Errorf("unsupported output format: %s", outputFormat)
	}
}

// RenderAssessment writes a in the requested output format.
func RenderAssessment(w io.Writer, outputFormat string, a *protocol.Assessment) error {
	switch outputFormat {
	case constants.OutputFormatPretty:
		PrettyAssessment(w, a)
		return nil
	case constants.OutputFormatCSV:
		CsvAssessment(w, a)
		return nil
	case constants.OutputFormatJSON:
		return JSONFormat(w, a)
	default:
		return fmt.Errorf("unsupported output format: %s", outputFormat)
	}
}

// PrettyFormat outputs a human-readable rather than machine-readable table.
func PrettyFormat(w io.Writer, resp *protocol.Response) {
	p := message.NewPrinter(language.English)

	_, _ = fmt.Fprintf(w, "--- %s protocol ---\n", resp.ProtocolType)
	_, _ = fmt.Fprintf(w, "Goal: %s over %d periods\n", format.Currency(resp.Goal.TargetAmount), resp.Goal.Periods)
	if resp.Parameters != nil {
		_, _ = fmt.Fprintf(w, "Parameters: start %s, increment %s, cap %s\n",
			format.Currency(resp.Parameters.StartValue),
			format.Currency(resp.Parameters.Increment),
			format.Currency(resp.Parameters.Cap))
	}
	_, _ = fmt.Fprintf(w, "Period | Deposit       | Cumulative\n")
	_, _ = fmt.Fprintf(w, "______ | _____________ | _____________\n")
	cumulative := 0.0
	for i, deposit := range resp.Result.Progression {
		cumulative += deposit
		_, _ = p.Fprintf(w, "%6d | $%12.2f | $%12.2f\n", i+1, deposit, cumulative)
	}

	_, _ = fmt.Fprintf(w, "\nTotal accumulated: %s\n", format.Currency(resp.Result.TotalAccumulated))
	_, _ = fmt.Fprintf(w, "Average per period: %s\n", format.Currency(resp.Result.AveragePerPeriod))
	_, _ = fmt.Fprintf(w, "Peak deposit: %s\n", format.Currency(resp.Result.PeakValue))
	_, _ = fmt.Fprintf(w, "Status: %s (viability %s)\n", resp.Status.Status, format.Ratio(resp.Status.Viability))
	_, _ = fmt.Fprintf(w, "Insight: %s\n", resp.Status.Insight)
	if resp.Status.Recommendation != "" {
		_, _ = fmt.Fprintf(w, "Recommendation: %s\n", resp.Status.Recommendation)
	}
	_, _ = fmt.Fprintf(w, "Curve: %s\n", resp.Result.CurveInsight)
	if resp.Result.MaturityInsight != "" {
		_, _ = fmt.Fprintf(w, "Maturity: %s\n", resp.Result.MaturityInsight)
	}
	_, _ = fmt.Fprintf(w, "%s\n", resp.Status.Narrative)
}

// CsvFormat outputs the progression in comma-separated value format.
func CsvFormat(w io.Writer, resp *protocol.Response) {
	_, _ = fmt.Fprintf(w, `"period","deposit","cumulative"`+"\n")
	cumulative := 0.0
	for i, deposit := range resp.Result.Progression {
		cumulative += deposit
		_, _ = fmt.Fprintf(w, `"%d","%.2f","%.2f"`+"\n", i+1, deposit, cumulative)
	}
}

// PrettyComparison outputs both protocols side by side.
func PrettyComparison(w io.Writer, cmp *protocol.Comparison) {
	_, _ = fmt.Fprintf(w, "--- Protocol comparison ---\n")
	_, _ = fmt.Fprintf(w, "Goal: %s over %d periods\n", format.Currency(cmp.Goal.TargetAmount), cmp.Goal.Periods)
	_, _ = fmt.Fprintf(w, "Protocol    | Total         | Viability | Status\n")
	_, _ = fmt.Fprintf(w, "___________ | _____________ | _________ | ______\n")
	prettyOutcome(w, protocol.TypeProgressive, cmp.Progressive)
	prettyOutcome(w, protocol.TypeOptimized, cmp.Optimized)
	prettyOutcome(w, protocol.TypeLinear, cmp.Linear)
	_, _ = fmt.Fprintf(w, "\nInsight: %s\n", cmp.Insight)
	_, _ = fmt.Fprintf(w, "Recommendation: %s\n", cmp.Recommendation)
}

func prettyOutcome(w io.Writer, name string, o protocol.Outcome) {
	_, _ = fmt.Fprintf(w, "%-11s | %13s | %9s | %s\n", name, format.Currency(o.Total), format.Ratio(o.Viability), o.Status)
}

// CsvComparison outputs both protocols in comma-separated value format.
func CsvComparison(w io.Writer, cmp *protocol.Comparison) {
	_, _ = fmt.Fprintf(w, `"protocol","total","viability","status"`+"\n")
	for _, row := range []struct {
		name    string
		outcome protocol.Outcome
	}{
		{protocol.TypeProgressive, cmp.Progressive},
		{protocol.TypeOptimized, cmp.Optimized},
		{protocol.TypeLinear, cmp.Linear},
	} {
		_, _ = fmt.Fprintf(w, `"%s","%.2f","%.3f","%s"`+"\n",
			row.name, row.outcome.Total, row.outcome.Viability, row.outcome.Status)
	}
}

// PrettySimulation outputs one row per sampled scenario.
func PrettySimulation(w io.Writer, sim *protocol.Simulation) {
	_, _ = fmt.Fprintf(w, "--- Simulation (cap %s) ---\n", format.Currency(sim.Cap))
	_, _ = fmt.Fprintf(w, "Goal: %s over %d periods\n", format.Currency(sim.Goal.TargetAmount), sim.Goal.Periods)
	_, _ = fmt.Fprintf(w, "Start     | Increment | Total         | Viability | Status\n")
	_, _ = fmt.Fprintf(w, "_________ | _________ | _____________ | _________ | ______\n")
	for _, sc := range sim.Scenarios {
		_, _ = fmt.Fprintf(w, "%9s | %9s | %13s | %9s | %s\n",
			format.Currency(sc.StartValue), format.Currency(sc.Increment),
			format.Currency(sc.Total), format.Ratio(sc.Viability), sc.Status)
	}
}

// CsvSimulation outputs the sampled scenarios in comma-separated value format.
func CsvSimulation(w io.Writer, sim *protocol.Simulation) {
	_, _ = fmt.Fprintf(w, `"start_value","increment","total","peak","viability","status"`+"\n")
	for _, sc := range sim.Scenarios {
		_, _ = fmt.Fprintf(w, `"%.2f","%.2f","%.2f","%.2f","%.3f","%s"`+"\n",
			sc.StartValue, sc.Increment, sc.Total, sc.Peak, sc.Viability, sc.Status)
	}
}

// PrettyAssessment outputs the deposit history next to the expected path,
// followed by the behavioral scores.
func PrettyAssessment(w io.Writer, a *protocol.Assessment) {
	p := message.NewPrinter(language.English)

	_, _ = fmt.Fprintf(w, "--- Protocol assessment ---\n")
	_, _ = fmt.Fprintf(w, "Goal: %s over %d periods\n", format.Currency(a.Goal.TargetAmount), a.Goal.Periods)
	_, _ = fmt.Fprintf(w, "Period | Deposit       | Expected\n")
	_, _ = fmt.Fprintf(w, "______ | _____________ | _____________\n")
	for i, deposit := range a.Deposits {
		_, _ = p.Fprintf(w, "%6d | $%12.2f | $%12.2f\n", i+1, deposit, a.Expected[i])
	}

	_, _ = fmt.Fprintf(w, "\nMaturity: %s (score %s)\n", a.Maturity.Level, format.Ratio(a.Maturity.Score))
	_, _ = fmt.Fprintf(w, "%s\n", a.Maturity.Interpretation)
	_, _ = fmt.Fprintf(w, "Consistency: %s (mean deviation %s)\n", a.Consistency.Status, format.Ratio(a.Consistency.Deviation))
	_, _ = fmt.Fprintf(w, "Sustainability: %s (score %s, streak %d)\n",
		a.Sustainability.Level, format.Ratio(a.Sustainability.Score), a.Sustainability.CurrentStreak)
	_, _ = fmt.Fprintf(w, "Pattern: %s. %s\n", a.Pattern.Pattern, a.Pattern.Interpretation)
	_, _ = fmt.Fprintf(w, "Investment readiness: %s. %s\n", a.Readiness.Status, a.Readiness.Message)
}

// CsvAssessment outputs the deposit history in comma-separated value format.
func CsvAssessment(w io.Writer, a *protocol.Assessment) {
	_, _ = fmt.Fprintf(w, `"period","deposit","expected"`+"\n")
	for i, deposit := range a.Deposits {
		_, _ = fmt.Fprintf(w, `"%d","%.2f","%.2f"`+"\n", i+1, deposit, a.Expected[i])
	}
}

// JSONFormat outputs v as indented JSON.
func JSONFormat(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON output: %w", err)
	}
	return nil
}
