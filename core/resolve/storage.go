// Storage calculators: S3 buckets and EBS volumes.
package resolve

import (
	"context"
	"strings"

	"stackcost/core/model"
	"stackcost/core/pricing"
	"stackcost/internal/config"
)

// S3Calculator prices AWS::S3::Bucket from assumed storage volume and
// request counts. Bucket size is never in the template, so the
// estimate is assumption-driven by construction.
type S3Calculator struct {
	usage config.UsageConfig
}

// NewS3Calculator creates the calculator
func NewS3Calculator(usage config.UsageConfig) *S3Calculator {
	return &S3Calculator{usage: usage}
}

// Supports implements Calculator
func (c *S3Calculator) Supports(resourceType string) bool {
	return resourceType == "AWS::S3::Bucket"
}

// Calculate implements Calculator
func (c *S3Calculator) Calculate(ctx context.Context, res model.ResourceSnapshot, region string, lookup PriceLookup) model.MonthlyCost {
	storagePrice, failed := fetchPrice(ctx, lookup, pricing.Query{
		ServiceCode: "AmazonS3",
		Region:      region,
		Filters: []pricing.Filter{
			{Field: "productFamily", Value: "Storage"},
			{Field: "volumeType", Value: "Standard"},
			{Field: "storageClass", Value: "General Purpose"},
		},
	}, "S3 standard storage")
	if failed != nil {
		return *failed
	}

	storageGB := c.usage.S3StorageGB
	requests := c.usage.S3MonthlyRequests

	amount := storagePrice.Mul(dec(storageGB))

	requestPrice, failed := fetchPrice(ctx, lookup, pricing.Query{
		ServiceCode: "AmazonS3",
		Region:      region,
		Filters: []pricing.Filter{
			{Field: "group", Value: "S3-API-Tier2"},
		},
	}, "S3 GET requests")
	if failed != nil {
		return *failed
	}
	// Tier-2 request pricing is per 1,000 requests
	amount = amount.Add(requestPrice.Mul(dec(requests / 1000)))

	return monthlyCost(amount, model.ConfidenceMedium, []string{
		assumptionf("Assumed stored data: %g GB (configurable default)", storageGB),
		assumptionf("Assumed monthly requests: %g (configurable default)", requests),
		assumptionf("Rates: %s USD/GB-month storage, %s USD per 1,000 requests", storagePrice, requestPrice),
	})
}

// EBSCalculator prices AWS::EC2::Volume as GB-months by volume type
type EBSCalculator struct{}

// NewEBSCalculator creates the calculator
func NewEBSCalculator() *EBSCalculator {
	return &EBSCalculator{}
}

// Supports implements Calculator
func (c *EBSCalculator) Supports(resourceType string) bool {
	return resourceType == "AWS::EC2::Volume"
}

// Calculate implements Calculator
func (c *EBSCalculator) Calculate(ctx context.Context, res model.ResourceSnapshot, region string, lookup PriceLookup) model.MonthlyCost {
	volumeType := strings.ToLower(res.GetString("VolumeType"))
	if volumeType == "" {
		volumeType = "gp3"
	}

	sizeGB, hasSize := res.GetFloat("Size")
	confidence := model.ConfidenceHigh
	sizeSource := "from template"
	if !hasSize || sizeGB <= 0 {
		sizeGB = 8
		confidence = model.ConfidenceMedium
		sizeSource = "default"
	}

	gbPrice, failed := fetchPrice(ctx, lookup, pricing.Query{
		ServiceCode: "AmazonEC2",
		Region:      region,
		Filters: []pricing.Filter{
			{Field: "productFamily", Value: "Storage"},
			{Field: "volumeApiName", Value: volumeType},
		},
	}, "EBS volume "+volumeType)
	if failed != nil {
		return *failed
	}

	amount := gbPrice.Mul(dec(sizeGB))

	return monthlyCost(amount, confidence, []string{
		assumptionf("Volume: %g GB %s (%s)", sizeGB, volumeType, sizeSource),
		assumptionf("Storage rate: %s USD/GB-month", gbPrice),
	})
}
