// Package pipeline wires diff, resolution, and policy evaluation into
// the run contract used by CLI and CI adapters.
package pipeline

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"stackcost/core/diff"
	"stackcost/core/model"
	"stackcost/core/policy"
	"stackcost/core/resolve"
)

// Result is the complete output of one run
type Result struct {
	// RunID uniquely identifies this invocation
	RunID string `json:"run_id"`

	// Region the resources were priced in
	Region string `json:"region"`

	// Environment used for threshold selection, if any
	Environment string `json:"environment,omitempty"`

	// Diff is the resource partition between base and target
	Diff model.ResourceDiff `json:"diff"`

	// Delta is the aggregated cost impact
	Delta model.CostDelta `json:"delta"`

	// Evaluation is the threshold policy decision
	Evaluation model.ThresholdEvaluation `json:"evaluation"`

	// StartedAt is when the run began
	StartedAt time.Time `json:"started_at"`

	// Duration is how long the run took
	Duration time.Duration `json:"duration"`
}

// Pipeline composes the cost resolution engine
type Pipeline struct {
	resolver    *resolve.Resolver
	thresholds  *model.ThresholdConfig
	region      string
	environment string
	logger      *zap.Logger
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithLogger injects a logger
func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// WithEnvironment selects the threshold environment
func WithEnvironment(env string) Option {
	return func(p *Pipeline) { p.environment = env }
}

// New creates a pipeline
func New(resolver *resolve.Resolver, thresholds *model.ThresholdConfig, region string, opts ...Option) *Pipeline {
	p := &Pipeline{
		resolver:   resolver,
		thresholds: thresholds,
		region:     region,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run diffs base against target, prices the delta, and evaluates it
// against the configured thresholds. Partial pricing failures degrade
// individual resources to unknown confidence; only structural and
// configuration problems abort a run, and those surface before Run.
func (p *Pipeline) Run(ctx context.Context, base, target model.TemplateSnapshot) *Result {
	started := time.Now()
	runID := uuid.NewString()

	p.logger.Info("run started",
		zap.String("run_id", runID),
		zap.Int("base_resources", len(base)),
		zap.Int("target_resources", len(target)))

	resourceDiff := diff.Diff(base, target)
	delta := p.resolver.ResolveCostDelta(ctx, resourceDiff, p.region)
	sortForDisplay(&delta)

	evaluation := policy.Evaluate(delta.TotalDelta, delta.AddedCosts, delta.ModifiedCosts, p.thresholds, p.environment)

	result := &Result{
		RunID:       runID,
		Region:      p.region,
		Environment: p.environment,
		Diff:        resourceDiff,
		Delta:       delta,
		Evaluation:  evaluation,
		StartedAt:   started,
		Duration:    time.Since(started),
	}

	p.logger.Info("run finished",
		zap.String("run_id", runID),
		zap.String("total_delta", delta.TotalDelta.StringFixed(2)),
		zap.String("level", string(evaluation.Level)),
		zap.Bool("passed", evaluation.Passed),
		zap.Duration("duration", result.Duration))

	return result
}

// sortForDisplay orders the delta lists by logical ID. Aggregation has
// already happened; this only stabilizes what consumers render.
func sortForDisplay(delta *model.CostDelta) {
	sort.Slice(delta.AddedCosts, func(i, j int) bool {
		return delta.AddedCosts[i].LogicalID < delta.AddedCosts[j].LogicalID
	})
	sort.Slice(delta.RemovedCosts, func(i, j int) bool {
		return delta.RemovedCosts[i].LogicalID < delta.RemovedCosts[j].LogicalID
	})
	sort.Slice(delta.ModifiedCosts, func(i, j int) bool {
		return delta.ModifiedCosts[i].LogicalID < delta.ModifiedCosts[j].LogicalID
	})
}
