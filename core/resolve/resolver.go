// Package resolve turns diffed resources into monthly cost estimates.
// Each resource type is handled by a calculator strategy; unsupported
// types resolve to a zero-amount unknown-confidence cost so diff
// coverage stays total.
package resolve

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"stackcost/core/model"
	"stackcost/core/pricing"
	"stackcost/internal/config"
)

// PriceLookup resolves a unit price. A nil price with nil error means
// the source has no matching SKU.
type PriceLookup interface {
	GetPrice(ctx context.Context, query pricing.Query) (*decimal.Decimal, error)
}

// Calculator prices one family of resource types
type Calculator interface {
	// Supports reports whether this calculator handles the type
	Supports(resourceType string) bool

	// Calculate produces a monthly cost estimate. Lookup failures are
	// absorbed here and downgrade the estimate to unknown confidence;
	// Calculate never fails the run.
	Calculate(ctx context.Context, res model.ResourceSnapshot, region string, lookup PriceLookup) model.MonthlyCost
}

// Resolver dispatches resources to calculators and aggregates diffs
// into cost deltas
type Resolver struct {
	calculators []Calculator
	lookup      PriceLookup
	excluded    map[string]struct{}

	maxConcurrency int
	timeout        time.Duration

	logger *zap.Logger
}

// Option configures a Resolver
type Option func(*Resolver)

// WithLogger injects a logger
func WithLogger(logger *zap.Logger) Option {
	return func(r *Resolver) { r.logger = logger }
}

// WithExcludedTypes sets resource types skipped before any calculation
func WithExcludedTypes(types []string) Option {
	return func(r *Resolver) {
		r.excluded = make(map[string]struct{}, len(types))
		for _, t := range types {
			r.excluded[t] = struct{}{}
		}
	}
}

// WithMaxConcurrency bounds parallel resolution
func WithMaxConcurrency(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.maxConcurrency = n
		}
	}
}

// WithTimeout bounds the whole resolution phase. Resources left
// unresolved at the deadline are reported with unknown confidence.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) { r.timeout = d }
}

// WithCalculators replaces the default calculator list
func WithCalculators(calculators ...Calculator) Option {
	return func(r *Resolver) { r.calculators = calculators }
}

// New creates a resolver with the default calculator registry. Order
// matters: the first calculator claiming a type wins, and types are
// mutually exclusive by convention.
func New(lookup PriceLookup, usage config.UsageConfig, opts ...Option) *Resolver {
	r := &Resolver{
		calculators: []Calculator{
			NewEC2Calculator(),
			NewFargateCalculator(usage),
			NewLambdaCalculator(usage),
			NewDynamoDBCalculator(usage),
			NewRDSCalculator(usage),
			NewElastiCacheCalculator(),
			NewS3Calculator(usage),
			NewEBSCalculator(),
			NewNATGatewayCalculator(usage),
			NewLoadBalancerCalculator(),
		},
		lookup:         lookup,
		excluded:       map[string]struct{}{},
		maxConcurrency: 8,
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveCost estimates the monthly cost of a single resource
func (r *Resolver) ResolveCost(ctx context.Context, res model.ResourceSnapshot, region string) model.MonthlyCost {
	if err := ctx.Err(); err != nil {
		return deadlineCost()
	}

	for _, calc := range r.calculators {
		if calc.Supports(res.Type) {
			return calc.Calculate(ctx, res, region, r.lookup)
		}
	}

	return model.MonthlyCost{
		Amount:      decimal.Zero,
		Currency:    model.CurrencyUSD,
		Confidence:  model.ConfidenceUnknown,
		Assumptions: []string{"Unsupported resource type: " + res.Type},
	}
}

// resolveTask is one independent unit of cost resolution
type resolveTask func()

// ResolveCostDelta prices every non-excluded resource in the diff and
// aggregates the result. Resolution fans out across a bounded worker
// pool; each resource is independent and a single failure never aborts
// its siblings. Aggregation is a plain sum, so fan-in order cannot
// change the total.
func (r *Resolver) ResolveCostDelta(ctx context.Context, diff model.ResourceDiff, region string) model.CostDelta {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	added := r.filterResources(diff.Added)
	removed := r.filterResources(diff.Removed)
	modified := r.filterModified(diff.Modified)

	delta := model.CostDelta{
		Currency:      model.CurrencyUSD,
		AddedCosts:    make([]model.ResourceCost, len(added)),
		RemovedCosts:  make([]model.ResourceCost, len(removed)),
		ModifiedCosts: make([]model.ModifiedResourceCost, len(modified)),
	}

	tasks := make([]resolveTask, 0, len(added)+len(removed)+len(modified))

	for i, res := range added {
		i, res := i, res
		tasks = append(tasks, func() {
			delta.AddedCosts[i] = model.ResourceCost{
				LogicalID:   res.LogicalID,
				Type:        res.Type,
				MonthlyCost: r.ResolveCost(ctx, res, region),
			}
		})
	}
	for i, res := range removed {
		i, res := i, res
		tasks = append(tasks, func() {
			delta.RemovedCosts[i] = model.ResourceCost{
				LogicalID:   res.LogicalID,
				Type:        res.Type,
				MonthlyCost: r.ResolveCost(ctx, res, region),
			}
		})
	}
	for i, mod := range modified {
		i, mod := i, mod
		tasks = append(tasks, func() {
			oldCost := r.ResolveCost(ctx, model.ResourceSnapshot{
				LogicalID:  mod.LogicalID,
				Type:       mod.Type,
				Properties: mod.OldProperties,
			}, region)
			newCost := r.ResolveCost(ctx, model.ResourceSnapshot{
				LogicalID:  mod.LogicalID,
				Type:       mod.Type,
				Properties: mod.NewProperties,
			}, region)
			delta.ModifiedCosts[i] = model.ModifiedResourceCost{
				LogicalID:      mod.LogicalID,
				Type:           mod.Type,
				OldMonthlyCost: oldCost,
				NewMonthlyCost: newCost,
				CostDelta:      newCost.Amount.Sub(oldCost.Amount),
			}
		})
	}

	r.runBounded(tasks)

	total := decimal.Zero
	for _, rc := range delta.AddedCosts {
		total = total.Add(rc.MonthlyCost.Amount)
	}
	for _, rc := range delta.RemovedCosts {
		total = total.Sub(rc.MonthlyCost.Amount)
	}
	for _, mc := range delta.ModifiedCosts {
		total = total.Add(mc.CostDelta)
	}
	delta.TotalDelta = total

	r.logger.Debug("cost delta resolved",
		zap.Int("added", len(delta.AddedCosts)),
		zap.Int("removed", len(delta.RemovedCosts)),
		zap.Int("modified", len(delta.ModifiedCosts)),
		zap.String("total_delta", delta.TotalDelta.StringFixed(2)))

	return delta
}

// runBounded executes tasks on at most maxConcurrency workers. Each
// task writes to its own result slot, so no ordering is required
// between them.
func (r *Resolver) runBounded(tasks []resolveTask) {
	workers := r.maxConcurrency
	if workers > len(tasks) {
		workers = len(tasks)
	}
	if workers < 1 {
		return
	}

	jobs := make(chan resolveTask)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for task := range jobs {
				task()
			}
		}()
	}
	for _, task := range tasks {
		jobs <- task
	}
	close(jobs)
	wg.Wait()
}

func (r *Resolver) filterResources(resources []model.ResourceSnapshot) []model.ResourceSnapshot {
	kept := make([]model.ResourceSnapshot, 0, len(resources))
	for _, res := range resources {
		if _, skip := r.excluded[res.Type]; skip {
			r.logger.Debug("resource type excluded", zap.String("logical_id", res.LogicalID), zap.String("type", res.Type))
			continue
		}
		kept = append(kept, res)
	}
	return kept
}

func (r *Resolver) filterModified(resources []model.ModifiedResource) []model.ModifiedResource {
	kept := make([]model.ModifiedResource, 0, len(resources))
	for _, res := range resources {
		if _, skip := r.excluded[res.Type]; skip {
			r.logger.Debug("resource type excluded", zap.String("logical_id", res.LogicalID), zap.String("type", res.Type))
			continue
		}
		kept = append(kept, res)
	}
	return kept
}

func deadlineCost() model.MonthlyCost {
	return model.MonthlyCost{
		Amount:      decimal.Zero,
		Currency:    model.CurrencyUSD,
		Confidence:  model.ConfidenceUnknown,
		Assumptions: []string{"Cost resolution deadline exceeded before this resource was priced"},
	}
}
