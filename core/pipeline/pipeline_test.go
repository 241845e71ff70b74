package pipeline

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"stackcost/core/model"
	"stackcost/core/pricing"
	"stackcost/core/resolve"
	"stackcost/internal/config"
)

type staticLookup struct {
	price decimal.Decimal
}

func (s *staticLookup) GetPrice(ctx context.Context, q pricing.Query) (*decimal.Decimal, error) {
	p := s.price
	return &p, nil
}

func newTestPipeline(thresholds *model.ThresholdConfig, opts ...Option) *Pipeline {
	resolver := resolve.New(&staticLookup{price: decimal.NewFromFloat(0.1)}, config.Default().Usage)
	return New(resolver, thresholds, "us-east-1", opts...)
}

func snapshot(resources ...model.ResourceSnapshot) model.TemplateSnapshot {
	snap := make(model.TemplateSnapshot, len(resources))
	for _, res := range resources {
		snap[res.LogicalID] = res
	}
	return snap
}

func TestRunEndToEnd(t *testing.T) {
	warning := decimal.NewFromInt(10)
	errLimit := decimal.NewFromInt(10000)
	thresholds := &model.ThresholdConfig{
		Default: &model.ThresholdLevels{Warning: &warning, Error: &errLimit},
	}

	base := snapshot(
		model.ResourceSnapshot{LogicalID: "Keep", Type: "AWS::S3::Bucket"},
	)
	target := snapshot(
		model.ResourceSnapshot{LogicalID: "Keep", Type: "AWS::S3::Bucket"},
		model.ResourceSnapshot{LogicalID: "Web", Type: "AWS::EC2::Instance",
			Properties: map[string]interface{}{"InstanceType": "m5.large"}},
	)

	result := newTestPipeline(thresholds).Run(context.Background(), base, target)

	if result.RunID == "" {
		t.Error("every run must carry an identifier")
	}
	if result.Region != "us-east-1" {
		t.Errorf("unexpected region %q", result.Region)
	}
	if len(result.Diff.Added) != 1 || result.Diff.Added[0].LogicalID != "Web" {
		t.Fatalf("unexpected diff: %+v", result.Diff)
	}
	if len(result.Delta.AddedCosts) != 1 {
		t.Fatalf("expected one added cost, got %d", len(result.Delta.AddedCosts))
	}

	// EC2 at 0.1/hr over 730 hours
	want := decimal.NewFromInt(73)
	if !result.Delta.TotalDelta.Equal(want) {
		t.Errorf("expected delta %s, got %s", want, result.Delta.TotalDelta)
	}

	// 73 breaches the 10 warning but not the 10000 error
	if result.Evaluation.Level != model.LevelWarning {
		t.Errorf("expected warning level, got %s", result.Evaluation.Level)
	}
	if !result.Evaluation.Passed {
		t.Error("warnings are advisory and must pass")
	}
}

func TestRunIdenticalTemplatesPass(t *testing.T) {
	warning := decimal.NewFromInt(1)
	thresholds := &model.ThresholdConfig{
		Default: &model.ThresholdLevels{Warning: &warning},
	}

	snap := snapshot(
		model.ResourceSnapshot{LogicalID: "Web", Type: "AWS::EC2::Instance",
			Properties: map[string]interface{}{"InstanceType": "m5.large"}},
	)

	result := newTestPipeline(thresholds).Run(context.Background(), snap, snap)

	if !result.Diff.IsEmpty() {
		t.Errorf("identical templates must produce an empty diff: %+v", result.Diff)
	}
	if !result.Delta.TotalDelta.IsZero() {
		t.Errorf("empty diff must cost zero, got %s", result.Delta.TotalDelta)
	}
	if !result.Evaluation.Passed || result.Evaluation.Level != model.LevelNone {
		t.Errorf("zero delta must pass cleanly: %+v", result.Evaluation)
	}
}

func TestRunEnvironmentThresholdSelection(t *testing.T) {
	loose := decimal.NewFromInt(10000)
	tight := decimal.NewFromFloat(0.01)
	thresholds := &model.ThresholdConfig{
		Default: &model.ThresholdLevels{Error: &loose},
		Environments: map[string]model.ThresholdLevels{
			"production": {Error: &tight},
		},
	}

	base := snapshot()
	target := snapshot(
		model.ResourceSnapshot{LogicalID: "Web", Type: "AWS::EC2::Instance"},
	)

	defaultRun := newTestPipeline(thresholds).Run(context.Background(), base, target)
	if !defaultRun.Evaluation.Passed {
		t.Errorf("default thresholds should pass: %s", defaultRun.Evaluation.Message)
	}

	prodRun := newTestPipeline(thresholds, WithEnvironment("production")).
		Run(context.Background(), base, target)
	if prodRun.Evaluation.Passed {
		t.Error("production thresholds should fail the same delta")
	}
	if prodRun.Environment != "production" {
		t.Errorf("environment not recorded: %q", prodRun.Environment)
	}
}

func TestRunOutputIsSortedByLogicalID(t *testing.T) {
	base := snapshot()
	target := snapshot(
		model.ResourceSnapshot{LogicalID: "Zulu", Type: "AWS::S3::Bucket"},
		model.ResourceSnapshot{LogicalID: "Alpha", Type: "AWS::S3::Bucket"},
		model.ResourceSnapshot{LogicalID: "Mike", Type: "AWS::S3::Bucket"},
	)

	result := newTestPipeline(nil).Run(context.Background(), base, target)

	if len(result.Delta.AddedCosts) != 3 {
		t.Fatalf("expected 3 added costs, got %d", len(result.Delta.AddedCosts))
	}
	for i, want := range []string{"Alpha", "Mike", "Zulu"} {
		if got := result.Delta.AddedCosts[i].LogicalID; got != want {
			t.Errorf("position %d: got %q, want %q", i, got, want)
		}
	}
}

func TestRunNilThresholdsAlwaysPass(t *testing.T) {
	base := snapshot()
	target := snapshot(
		model.ResourceSnapshot{LogicalID: "Fleet", Type: "AWS::EC2::Instance",
			Properties: map[string]interface{}{"InstanceType": "p4d.24xlarge"}},
	)

	result := newTestPipeline(nil).Run(context.Background(), base, target)
	if !result.Evaluation.Passed {
		t.Error("without a threshold policy every delta passes")
	}
}
