// Package policy turns an aggregated cost delta into a pass/warn/fail
// decision against configured thresholds.
//
// Evaluate is pure: identical inputs produce byte-identical messages
// and recommendations on every call.
package policy

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"stackcost/core/model"
)

// topContributors is how many ranked contributors appear in the
// message and drive remediation hints
const topContributors = 5

// contributor is one resource ranked by absolute cost impact
type contributor struct {
	logicalID string
	resType   string
	impact    decimal.Decimal // signed; modified resources may be negative
}

// Evaluate applies the threshold policy to a cost delta. Environment
// levels win over default levels; with no applicable levels the result
// passes at level none. The error threshold is checked before warning,
// comparisons are strict greater-than, and a zero or negative delta
// always passes.
func Evaluate(delta decimal.Decimal, added []model.ResourceCost, modified []model.ModifiedResourceCost, cfg *model.ThresholdConfig, environment string) model.ThresholdEvaluation {
	contributors := rankContributors(added, modified)

	levels := selectLevels(cfg, environment)
	if levels == nil {
		return model.ThresholdEvaluation{
			Passed:          true,
			Level:           model.LevelNone,
			Delta:           delta,
			Message:         fmt.Sprintf("Monthly cost delta %s USD; no thresholds configured.", signedAmount(delta)),
			Recommendations: []string{},
		}
	}

	if delta.LessThanOrEqual(decimal.Zero) {
		return model.ThresholdEvaluation{
			Passed:          true,
			Level:           model.LevelNone,
			Delta:           delta,
			Message:         fmt.Sprintf("Monthly cost delta %s USD does not increase spend.", signedAmount(delta)),
			Recommendations: []string{},
		}
	}

	// Error before warning: a misconfigured warning above error must
	// not mask an error-level breach
	if levels.Error != nil && delta.GreaterThan(*levels.Error) {
		return breach(delta, *levels.Error, model.LevelError, false, environment, contributors)
	}
	if levels.Warning != nil && delta.GreaterThan(*levels.Warning) {
		return breach(delta, *levels.Warning, model.LevelWarning, true, environment, contributors)
	}

	return model.ThresholdEvaluation{
		Passed:          true,
		Level:           model.LevelNone,
		Delta:           delta,
		Message:         fmt.Sprintf("Monthly cost delta %s USD is within thresholds.", signedAmount(delta)),
		Recommendations: []string{},
	}
}

func selectLevels(cfg *model.ThresholdConfig, environment string) *model.ThresholdLevels {
	if cfg == nil {
		return nil
	}
	if environment != "" {
		if levels, ok := cfg.Environments[environment]; ok {
			return &levels
		}
	}
	return cfg.Default
}

func breach(delta, threshold decimal.Decimal, level model.ThresholdLevel, passed bool, environment string, contributors []contributor) model.ThresholdEvaluation {
	var b strings.Builder
	fmt.Fprintf(&b, "Monthly cost increase of %s USD exceeds the %s threshold of %s USD",
		delta.StringFixed(2), level, threshold.StringFixed(2))
	if environment != "" {
		fmt.Fprintf(&b, " for environment %q", environment)
	}
	b.WriteString(".")

	top := contributors
	if len(top) > topContributors {
		top = top[:topContributors]
	}
	if len(top) > 0 {
		b.WriteString(" Top contributors: ")
		for i, c := range top {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s (%s, %s USD/month)", c.logicalID, c.resType, signedAmount(c.impact))
		}
		b.WriteString(".")
	}

	t := threshold
	return model.ThresholdEvaluation{
		Passed:          passed,
		Level:           level,
		Threshold:       &t,
		Delta:           delta,
		Message:         b.String(),
		Recommendations: recommendations(top),
	}
}

// rankContributors orders added and modified resources by descending
// absolute impact; ties break on logical ID so the ranking is
// deterministic.
func rankContributors(added []model.ResourceCost, modified []model.ModifiedResourceCost) []contributor {
	contributors := make([]contributor, 0, len(added)+len(modified))
	for _, rc := range added {
		contributors = append(contributors, contributor{
			logicalID: rc.LogicalID,
			resType:   rc.Type,
			impact:    rc.MonthlyCost.Amount,
		})
	}
	for _, mc := range modified {
		contributors = append(contributors, contributor{
			logicalID: mc.LogicalID,
			resType:   mc.Type,
			impact:    mc.CostDelta,
		})
	}

	sort.Slice(contributors, func(i, j int) bool {
		ai, aj := contributors[i].impact.Abs(), contributors[j].impact.Abs()
		if !ai.Equal(aj) {
			return ai.GreaterThan(aj)
		}
		return contributors[i].logicalID < contributors[j].logicalID
	})

	return contributors
}

// recommendations appends one targeted hint per distinct resource type
// among the top contributors, in ranking order.
func recommendations(top []contributor) []string {
	recs := []string{}
	seen := map[string]struct{}{}
	for _, c := range top {
		hint := remediationHint(c.resType)
		if hint == "" {
			continue
		}
		if _, dup := seen[c.resType]; dup {
			continue
		}
		seen[c.resType] = struct{}{}
		recs = append(recs, fmt.Sprintf("%s: %s", c.logicalID, hint))
	}
	return recs
}

func remediationHint(resourceType string) string {
	switch {
	case resourceType == "AWS::EC2::NatGateway":
		return "NAT gateways bill hourly per gateway; consolidate gateways across subnets or replace egress with VPC endpoints where possible"
	case resourceType == "AWS::EC2::Instance":
		return "consider a smaller or burstable instance class, or spot/savings plans for steady workloads"
	case resourceType == "AWS::RDS::DBInstance":
		return "consider a smaller DB instance class or Aurora Serverless for spiky workloads"
	case resourceType == "AWS::DynamoDB::Table":
		return "review provisioned capacity against real traffic; on-demand mode is cheaper for low or bursty volumes"
	case resourceType == "AWS::ElastiCache::CacheCluster":
		return "consider a smaller cache node type or fewer nodes"
	case resourceType == "AWS::EC2::Volume":
		return "gp3 volumes undercut gp2 and io1 for most workloads; right-size the volume"
	case resourceType == "AWS::S3::Bucket":
		return "add lifecycle rules to transition or expire cold objects"
	case resourceType == "AWS::ECS::Service":
		return "right-size task CPU/memory and desired count; Fargate bills per provisioned vCPU and GB"
	case strings.HasPrefix(resourceType, "AWS::ElasticLoadBalancing"):
		return "consolidate listeners onto fewer load balancers where routing rules allow"
	default:
		return ""
	}
}

// signedAmount formats a delta with an explicit sign for readability
func signedAmount(d decimal.Decimal) string {
	if d.IsPositive() {
		return "+" + d.StringFixed(2)
	}
	return d.StringFixed(2)
}
