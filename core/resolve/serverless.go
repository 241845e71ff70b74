// Serverless calculators: Lambda functions.
package resolve

import (
	"context"

	"stackcost/core/model"
	"stackcost/core/pricing"
	"stackcost/internal/config"
)

// LambdaCalculator prices AWS::Lambda::Function as monthly requests
// plus GB-seconds of execution, both driven by configurable usage
// assumptions
type LambdaCalculator struct {
	usage config.UsageConfig
}

// NewLambdaCalculator creates the calculator
func NewLambdaCalculator(usage config.UsageConfig) *LambdaCalculator {
	return &LambdaCalculator{usage: usage}
}

// Supports implements Calculator
func (c *LambdaCalculator) Supports(resourceType string) bool {
	return resourceType == "AWS::Lambda::Function"
}

// Calculate implements Calculator
func (c *LambdaCalculator) Calculate(ctx context.Context, res model.ResourceSnapshot, region string, lookup PriceLookup) model.MonthlyCost {
	memoryMB, hasMemory := res.GetFloat("MemorySize")
	if !hasMemory || memoryMB <= 0 {
		memoryMB = 128
	}

	requestPrice, failed := fetchPrice(ctx, lookup, pricing.Query{
		ServiceCode: "AWSLambda",
		Region:      region,
		Filters: []pricing.Filter{
			{Field: "group", Value: "AWS-Lambda-Requests"},
		},
	}, "Lambda requests")
	if failed != nil {
		return *failed
	}

	durationPrice, failed := fetchPrice(ctx, lookup, pricing.Query{
		ServiceCode: "AWSLambda",
		Region:      region,
		Filters: []pricing.Filter{
			{Field: "group", Value: "AWS-Lambda-Duration"},
		},
	}, "Lambda duration")
	if failed != nil {
		return *failed
	}

	requests := c.usage.LambdaMonthlyRequests
	durationMS := c.usage.LambdaAvgDurationMS

	gbSeconds := requests * (durationMS / 1000) * (memoryMB / 1024)

	amount := requestPrice.Mul(dec(requests)).Add(durationPrice.Mul(dec(gbSeconds)))

	return monthlyCost(amount, model.ConfidenceMedium, []string{
		assumptionf("Assumed monthly invocations: %g (configurable default)", requests),
		assumptionf("Assumed average duration: %g ms (configurable default)", durationMS),
		assumptionf("Memory size: %g MB", memoryMB),
		assumptionf("Derived compute: %g GB-seconds/month", gbSeconds),
		assumptionf("Rates: %s USD/request, %s USD/GB-second", requestPrice, durationPrice),
	})
}
