package report

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"stackcost/core/model"
	"stackcost/core/pipeline"
)

func sampleResult() *pipeline.Result {
	return &pipeline.Result{
		RunID:  "run-123",
		Region: "us-east-1",
		Delta: model.CostDelta{
			TotalDelta: decimal.NewFromFloat(73.5),
			Currency:   model.CurrencyUSD,
			AddedCosts: []model.ResourceCost{
				{
					LogicalID: "Web",
					Type:      "AWS::EC2::Instance",
					MonthlyCost: model.MonthlyCost{
						Amount:     decimal.NewFromFloat(73.5),
						Currency:   model.CurrencyUSD,
						Confidence: model.ConfidenceHigh,
					},
				},
			},
		},
		Evaluation: model.ThresholdEvaluation{
			Passed:  true,
			Level:   model.LevelNone,
			Message: "within thresholds",
		},
	}
}

func TestRenderText(t *testing.T) {
	out, err := Render(sampleResult(), FormatText)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"+73.50", "Web", "AWS::EC2::Instance", "passed", "within thresholds"} {
		if !strings.Contains(out, want) {
			t.Errorf("text report missing %q:\n%s", want, out)
		}
	}
}

func TestRenderJSONRoundTrips(t *testing.T) {
	out, err := Render(sampleResult(), FormatJSON)
	if err != nil {
		t.Fatal(err)
	}

	var decoded pipeline.Result
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("json report must be parseable: %v", err)
	}
	if decoded.RunID != "run-123" {
		t.Errorf("run id lost: %q", decoded.RunID)
	}
	if !decoded.Delta.TotalDelta.Equal(decimal.NewFromFloat(73.5)) {
		t.Errorf("delta lost: %s", decoded.Delta.TotalDelta)
	}
}

func TestRenderMarkdownHasTableAndRunID(t *testing.T) {
	out, err := Render(sampleResult(), FormatMarkdown)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"| Change |", "`Web`", "run-123", ":white_check_mark:"} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown report missing %q:\n%s", want, out)
		}
	}
}

func TestRenderUnknownFormat(t *testing.T) {
	if _, err := Render(sampleResult(), Format("xml")); err == nil {
		t.Fatal("unknown formats must be rejected")
	}
}
