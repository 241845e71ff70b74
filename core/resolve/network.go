// Network calculators: NAT gateways and load balancers.
package resolve

import (
	"context"

	"stackcost/core/model"
	"stackcost/core/pricing"
	"stackcost/internal/config"
)

// NATGatewayCalculator prices AWS::EC2::NatGateway as gateway-hours
// plus assumed data processing
type NATGatewayCalculator struct {
	usage config.UsageConfig
}

// NewNATGatewayCalculator creates the calculator
func NewNATGatewayCalculator(usage config.UsageConfig) *NATGatewayCalculator {
	return &NATGatewayCalculator{usage: usage}
}

// Supports implements Calculator
func (c *NATGatewayCalculator) Supports(resourceType string) bool {
	return resourceType == "AWS::EC2::NatGateway"
}

// Calculate implements Calculator
func (c *NATGatewayCalculator) Calculate(ctx context.Context, res model.ResourceSnapshot, region string, lookup PriceLookup) model.MonthlyCost {
	hourlyPrice, failed := fetchPrice(ctx, lookup, pricing.Query{
		ServiceCode: "AmazonEC2",
		Region:      region,
		Filters: []pricing.Filter{
			{Field: "productFamily", Value: "NAT Gateway"},
			{Field: "operation", Value: "NatGateway"},
			{Field: "groupDescription", Value: "Hourly charge for NAT Gateways"},
		},
	}, "NAT gateway hours")
	if failed != nil {
		return *failed
	}

	dataPrice, failed := fetchPrice(ctx, lookup, pricing.Query{
		ServiceCode: "AmazonEC2",
		Region:      region,
		Filters: []pricing.Filter{
			{Field: "productFamily", Value: "NAT Gateway"},
			{Field: "operation", Value: "NatGateway"},
			{Field: "groupDescription", Value: "Charge for per GB data processed by NAT Gateways"},
		},
	}, "NAT gateway data processing")
	if failed != nil {
		return *failed
	}

	processedGB := c.usage.NATProcessedGB
	amount := hourlyPrice.Mul(dec(HoursPerMonth)).Add(dataPrice.Mul(dec(processedGB)))

	return monthlyCost(amount, model.ConfidenceMedium, []string{
		assumptionf("Always-on: %d hours/month at %s USD/hour", HoursPerMonth, hourlyPrice),
		assumptionf("Assumed data processed: %g GB/month (configurable default) at %s USD/GB", processedGB, dataPrice),
	})
}

// LoadBalancerCalculator prices AWS::ElasticLoadBalancingV2::LoadBalancer
// as load-balancer-hours. Capacity-unit charges depend on traffic the
// template cannot describe, so they are noted as an assumption and the
// estimate is graded low.
type LoadBalancerCalculator struct{}

// NewLoadBalancerCalculator creates the calculator
func NewLoadBalancerCalculator() *LoadBalancerCalculator {
	return &LoadBalancerCalculator{}
}

// Supports implements Calculator
func (c *LoadBalancerCalculator) Supports(resourceType string) bool {
	return resourceType == "AWS::ElasticLoadBalancingV2::LoadBalancer"
}

// Calculate implements Calculator
func (c *LoadBalancerCalculator) Calculate(ctx context.Context, res model.ResourceSnapshot, region string, lookup PriceLookup) model.MonthlyCost {
	lbType := res.GetString("Type")
	if lbType == "" {
		lbType = "application"
	}

	productFamily := "Load Balancer-Application"
	if lbType == "network" {
		productFamily = "Load Balancer-Network"
	}

	hourly, failed := fetchPrice(ctx, lookup, pricing.Query{
		ServiceCode: "AWSELB",
		Region:      region,
		Filters: []pricing.Filter{
			{Field: "productFamily", Value: productFamily},
		},
	}, lbType+" load balancer hours")
	if failed != nil {
		return *failed
	}

	amount := hourly.Mul(dec(HoursPerMonth))

	return monthlyCost(amount, model.ConfidenceLow, []string{
		assumptionf("Load balancer type: %s", lbType),
		assumptionf("Always-on: %d hours/month at %s USD/hour", HoursPerMonth, hourly),
		"Capacity-unit (LCU/NLCU) charges excluded: traffic volume unknown",
	})
}
