// Package report renders pipeline results for humans and machines.
// Rendering is deliberately outside the cost-resolution core; it
// consumes the JSON-serializable result and owns all formatting.
package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"stackcost/core/model"
	"stackcost/core/pipeline"
	"stackcost/internal/errors"
)

// Format selects the output rendering
type Format string

const (
	// FormatText is plain terminal output
	FormatText Format = "text"

	// FormatJSON is the machine-readable result
	FormatJSON Format = "json"

	// FormatMarkdown is PR-comment flavored markup
	FormatMarkdown Format = "markdown"
)

// Render produces the report body for a result
func Render(result *pipeline.Result, format Format) (string, error) {
	switch format {
	case FormatText:
		return renderText(result), nil
	case FormatJSON:
		return renderJSON(result)
	case FormatMarkdown:
		return renderMarkdown(result), nil
	default:
		return "", errors.Configf("unknown report format: %s", format)
	}
}

func renderJSON(result *pipeline.Result) (string, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", errors.Internal("result not serializable", err)
	}
	return string(data), nil
}

func renderText(result *pipeline.Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Monthly cost delta: %s %s\n",
		signed(result.Delta.TotalDelta.StringFixed(2), result.Delta.TotalDelta.IsPositive()),
		result.Delta.Currency)
	fmt.Fprintf(&b, "Policy: %s (%s)\n\n", passedWord(result.Evaluation.Passed), result.Evaluation.Level)

	writeSection := func(title string, rows []string) {
		if len(rows) == 0 {
			return
		}
		b.WriteString(title + "\n")
		for _, row := range rows {
			b.WriteString("  " + row + "\n")
		}
		b.WriteString("\n")
	}

	var added, removed, modified []string
	for _, rc := range result.Delta.AddedCosts {
		added = append(added, fmt.Sprintf("+ %-40s %-35s %10s/mo  [%s]",
			rc.LogicalID, rc.Type, rc.MonthlyCost.Amount.StringFixed(2), rc.MonthlyCost.Confidence))
	}
	for _, rc := range result.Delta.RemovedCosts {
		removed = append(removed, fmt.Sprintf("- %-40s %-35s %10s/mo  [%s]",
			rc.LogicalID, rc.Type, rc.MonthlyCost.Amount.StringFixed(2), rc.MonthlyCost.Confidence))
	}
	for _, mc := range result.Delta.ModifiedCosts {
		modified = append(modified, fmt.Sprintf("~ %-40s %-35s %10s/mo (%s -> %s)",
			mc.LogicalID, mc.Type,
			signed(mc.CostDelta.StringFixed(2), mc.CostDelta.IsPositive()),
			mc.OldMonthlyCost.Amount.StringFixed(2), mc.NewMonthlyCost.Amount.StringFixed(2)))
	}

	writeSection("Added resources:", added)
	writeSection("Removed resources:", removed)
	writeSection("Modified resources:", modified)

	b.WriteString(result.Evaluation.Message + "\n")
	for _, rec := range result.Evaluation.Recommendations {
		b.WriteString("  * " + rec + "\n")
	}

	return b.String()
}

func renderMarkdown(result *pipeline.Result) string {
	var b strings.Builder

	b.WriteString("## " + statusEmoji(result.Evaluation) + " Monthly cost impact\n\n")
	fmt.Fprintf(&b, "**Delta: %s %s/month**, policy %s (level: %s)\n\n",
		signed(result.Delta.TotalDelta.StringFixed(2), result.Delta.TotalDelta.IsPositive()),
		result.Delta.Currency, passedWord(result.Evaluation.Passed), result.Evaluation.Level)

	if len(result.Delta.AddedCosts)+len(result.Delta.RemovedCosts)+len(result.Delta.ModifiedCosts) > 0 {
		b.WriteString("| Change | Resource | Type | Monthly cost | Confidence |\n")
		b.WriteString("|---|---|---|---|---|\n")
		for _, rc := range result.Delta.AddedCosts {
			fmt.Fprintf(&b, "| added | `%s` | `%s` | +%s | %s |\n",
				rc.LogicalID, rc.Type, rc.MonthlyCost.Amount.StringFixed(2), rc.MonthlyCost.Confidence)
		}
		for _, rc := range result.Delta.RemovedCosts {
			fmt.Fprintf(&b, "| removed | `%s` | `%s` | -%s | %s |\n",
				rc.LogicalID, rc.Type, rc.MonthlyCost.Amount.StringFixed(2), rc.MonthlyCost.Confidence)
		}
		for _, mc := range result.Delta.ModifiedCosts {
			fmt.Fprintf(&b, "| modified | `%s` | `%s` | %s | %s |\n",
				mc.LogicalID, mc.Type,
				signed(mc.CostDelta.StringFixed(2), mc.CostDelta.IsPositive()),
				mc.NewMonthlyCost.Confidence)
		}
		b.WriteString("\n")
	}

	b.WriteString(result.Evaluation.Message + "\n")
	if len(result.Evaluation.Recommendations) > 0 {
		b.WriteString("\n**Recommendations**\n\n")
		for _, rec := range result.Evaluation.Recommendations {
			b.WriteString("- " + rec + "\n")
		}
	}

	fmt.Fprintf(&b, "\n<sub>run `%s` | region `%s` | estimates are confidence-graded, not invoices</sub>\n",
		result.RunID, result.Region)

	return b.String()
}

func statusEmoji(eval model.ThresholdEvaluation) string {
	switch eval.Level {
	case model.LevelError:
		return ":no_entry:"
	case model.LevelWarning:
		return ":warning:"
	default:
		return ":white_check_mark:"
	}
}

func passedWord(passed bool) string {
	if passed {
		return "passed"
	}
	return "failed"
}

func signed(s string, positive bool) string {
	if positive {
		return "+" + s
	}
	return s
}
