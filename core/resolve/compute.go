// Compute calculators: EC2 instances and Fargate services.
package resolve

import (
	"context"

	"stackcost/core/model"
	"stackcost/core/pricing"
	"stackcost/internal/config"
)

// EC2Calculator prices AWS::EC2::Instance as instance-hours over a
// 730-hour month
type EC2Calculator struct{}

// NewEC2Calculator creates the calculator
func NewEC2Calculator() *EC2Calculator {
	return &EC2Calculator{}
}

// Supports implements Calculator
func (c *EC2Calculator) Supports(resourceType string) bool {
	return resourceType == "AWS::EC2::Instance"
}

// Calculate implements Calculator
func (c *EC2Calculator) Calculate(ctx context.Context, res model.ResourceSnapshot, region string, lookup PriceLookup) model.MonthlyCost {
	instanceType := res.GetString("InstanceType")
	confidence := model.ConfidenceHigh
	typeSource := "from template"
	if instanceType == "" {
		instanceType = "t3.micro"
		confidence = model.ConfidenceMedium
		typeSource = "default"
	}

	hourly, failed := fetchPrice(ctx, lookup, pricing.Query{
		ServiceCode: "AmazonEC2",
		Region:      region,
		Filters: []pricing.Filter{
			{Field: "instanceType", Value: instanceType},
			{Field: "operatingSystem", Value: "Linux"},
			{Field: "tenancy", Value: "Shared"},
			{Field: "preInstalledSw", Value: "NA"},
			{Field: "capacitystatus", Value: "Used"},
		},
	}, "EC2 instance "+instanceType)
	if failed != nil {
		return *failed
	}

	amount := hourly.Mul(dec(HoursPerMonth))
	return monthlyCost(amount, confidence, []string{
		assumptionf("Instance type: %s (%s)", instanceType, typeSource),
		assumptionf("On-demand Linux/shared tenancy rate: %s USD/hour", hourly),
		assumptionf("Always-on: %d hours/month", HoursPerMonth),
	})
}

// FargateCalculator prices AWS::ECS::Service as Fargate vCPU-hours
// plus GB-hours across the service's desired count
type FargateCalculator struct {
	usage config.UsageConfig
}

// NewFargateCalculator creates the calculator
func NewFargateCalculator(usage config.UsageConfig) *FargateCalculator {
	return &FargateCalculator{usage: usage}
}

// Supports implements Calculator
func (c *FargateCalculator) Supports(resourceType string) bool {
	return resourceType == "AWS::ECS::Service"
}

// Calculate implements Calculator
func (c *FargateCalculator) Calculate(ctx context.Context, res model.ResourceSnapshot, region string, lookup PriceLookup) model.MonthlyCost {
	desiredCount, hasCount := res.GetFloat("DesiredCount")
	if !hasCount || desiredCount <= 0 {
		desiredCount = 1
	}
	// CPU is in CPU units (1024 = 1 vCPU), memory in MiB
	cpuUnits, hasCPU := res.GetFloat("Cpu")
	if !hasCPU || cpuUnits <= 0 {
		cpuUnits = c.usage.FargateCPUUnits
	}
	memoryMiB, hasMem := res.GetFloat("Memory")
	if !hasMem || memoryMiB <= 0 {
		memoryMiB = c.usage.FargateMemoryMiB
	}

	vcpuPrice, failed := fetchPrice(ctx, lookup, pricing.Query{
		ServiceCode: "AmazonECS",
		Region:      region,
		Filters: []pricing.Filter{
			{Field: "usagetype", Value: "Fargate-vCPU-Hours:perCPU"},
		},
	}, "Fargate vCPU-hours")
	if failed != nil {
		return *failed
	}

	memPrice, failed := fetchPrice(ctx, lookup, pricing.Query{
		ServiceCode: "AmazonECS",
		Region:      region,
		Filters: []pricing.Filter{
			{Field: "usagetype", Value: "Fargate-GB-Hours"},
		},
	}, "Fargate GB-hours")
	if failed != nil {
		return *failed
	}

	vcpu := cpuUnits / 1024
	memoryGB := memoryMiB / 1024

	perTask := vcpuPrice.Mul(dec(vcpu)).Add(memPrice.Mul(dec(memoryGB)))
	amount := perTask.Mul(dec(HoursPerMonth)).Mul(dec(desiredCount))

	confidence := model.ConfidenceHigh
	sizeSource := "from template"
	if !hasCPU || !hasMem {
		confidence = model.ConfidenceMedium
		sizeSource = "configurable default"
	}

	return monthlyCost(amount, confidence, []string{
		assumptionf("Desired task count: %g", desiredCount),
		assumptionf("Task size: %g vCPU, %g GB memory (%s)", vcpu, memoryGB, sizeSource),
		assumptionf("Fargate rates: %s USD/vCPU-hour, %s USD/GB-hour", vcpuPrice, memPrice),
		assumptionf("Always-on: %d hours/month", HoursPerMonth),
	})
}
