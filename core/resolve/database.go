// Database calculators: DynamoDB tables, RDS instances, ElastiCache
// clusters.
package resolve

import (
	"context"

	"stackcost/core/model"
	"stackcost/core/pricing"
	"stackcost/internal/config"
)

// DynamoDBCalculator prices AWS::DynamoDB::Table. Provisioned tables
// are priced from their RCU/WCU capacity, high confidence only when
// the template carries the throughput block; on-demand tables fall
// back to assumed request volumes (medium confidence). Storage is
// always charged from the assumed table size.
type DynamoDBCalculator struct {
	usage config.UsageConfig
}

// NewDynamoDBCalculator creates the calculator
func NewDynamoDBCalculator(usage config.UsageConfig) *DynamoDBCalculator {
	return &DynamoDBCalculator{usage: usage}
}

// Supports implements Calculator
func (c *DynamoDBCalculator) Supports(resourceType string) bool {
	return resourceType == "AWS::DynamoDB::Table"
}

// Calculate implements Calculator
func (c *DynamoDBCalculator) Calculate(ctx context.Context, res model.ResourceSnapshot, region string, lookup PriceLookup) model.MonthlyCost {
	storagePrice, failed := fetchPrice(ctx, lookup, pricing.Query{
		ServiceCode: "AmazonDynamoDB",
		Region:      region,
		Filters: []pricing.Filter{
			{Field: "productFamily", Value: "Database Storage"},
			{Field: "volumeType", Value: "Amazon DynamoDB - Indexed DataStore"},
		},
	}, "DynamoDB storage")
	if failed != nil {
		return *failed
	}

	storageGB := c.usage.DynamoDBStorageGB
	amount := storagePrice.Mul(dec(storageGB))
	assumptions := []string{
		assumptionf("Assumed table storage: %g GB (configurable default)", storageGB),
		assumptionf("Storage rate: %s USD/GB-month", storagePrice),
	}

	billingMode := res.GetString("BillingMode")
	if billingMode == "" {
		billingMode = "PROVISIONED"
	}

	if billingMode == "PAY_PER_REQUEST" {
		readPrice, failed := fetchPrice(ctx, lookup, pricing.Query{
			ServiceCode: "AmazonDynamoDB",
			Region:      region,
			Filters: []pricing.Filter{
				{Field: "group", Value: "DDB-ReadUnits"},
			},
		}, "DynamoDB read request units")
		if failed != nil {
			return *failed
		}
		writePrice, failed := fetchPrice(ctx, lookup, pricing.Query{
			ServiceCode: "AmazonDynamoDB",
			Region:      region,
			Filters: []pricing.Filter{
				{Field: "group", Value: "DDB-WriteUnits"},
			},
		}, "DynamoDB write request units")
		if failed != nil {
			return *failed
		}

		reads := c.usage.DynamoDBMonthlyReadRequests
		writes := c.usage.DynamoDBMonthlyWriteRequests
		amount = amount.Add(readPrice.Mul(dec(reads))).Add(writePrice.Mul(dec(writes)))
		assumptions = append(assumptions,
			"Billing mode: PAY_PER_REQUEST",
			assumptionf("Assumed monthly read request units: %g (configurable default)", reads),
			assumptionf("Assumed monthly write request units: %g (configurable default)", writes),
			assumptionf("Request rates: %s USD/RRU, %s USD/WRU", readPrice, writePrice),
		)
		return monthlyCost(amount, model.ConfidenceMedium, assumptions)
	}

	// Capacity comes from the template when the throughput block is
	// there; otherwise the configured fallbacks apply and the estimate
	// is graded like any other assumed usage.
	rcu, wcu := c.usage.DynamoDBProvisionedRCU, c.usage.DynamoDBProvisionedWCU
	capacitySource := "configurable default"
	confidence := model.ConfidenceMedium
	if throughput := res.GetMap("ProvisionedThroughput"); throughput != nil {
		r, hasRCU := numeric(throughput["ReadCapacityUnits"])
		w, hasWCU := numeric(throughput["WriteCapacityUnits"])
		if hasRCU && hasWCU {
			rcu, wcu = r, w
			capacitySource = "from template"
			confidence = model.ConfidenceHigh
		}
	}

	rcuPrice, failed := fetchPrice(ctx, lookup, pricing.Query{
		ServiceCode: "AmazonDynamoDB",
		Region:      region,
		Filters: []pricing.Filter{
			{Field: "group", Value: "DDB-ReadUnits"},
			{Field: "groupDescription", Value: "DynamoDB Provisioned Read Units"},
		},
	}, "DynamoDB read capacity")
	if failed != nil {
		return *failed
	}
	wcuPrice, failed := fetchPrice(ctx, lookup, pricing.Query{
		ServiceCode: "AmazonDynamoDB",
		Region:      region,
		Filters: []pricing.Filter{
			{Field: "group", Value: "DDB-WriteUnits"},
			{Field: "groupDescription", Value: "DynamoDB Provisioned Write Units"},
		},
	}, "DynamoDB write capacity")
	if failed != nil {
		return *failed
	}

	amount = amount.
		Add(rcuPrice.Mul(dec(rcu)).Mul(dec(HoursPerMonth))).
		Add(wcuPrice.Mul(dec(wcu)).Mul(dec(HoursPerMonth)))
	assumptions = append(assumptions,
		"Billing mode: PROVISIONED",
		assumptionf("Provisioned capacity: %g RCU, %g WCU (%s)", rcu, wcu, capacitySource),
		assumptionf("Capacity rates: %s USD/RCU-hour, %s USD/WCU-hour", rcuPrice, wcuPrice),
		assumptionf("Always-on: %d hours/month", HoursPerMonth),
	)
	return monthlyCost(amount, confidence, assumptions)
}

// RDSCalculator prices AWS::RDS::DBInstance as instance-hours plus
// allocated storage
type RDSCalculator struct {
	usage config.UsageConfig
}

// NewRDSCalculator creates the calculator
func NewRDSCalculator(usage config.UsageConfig) *RDSCalculator {
	return &RDSCalculator{usage: usage}
}

// Supports implements Calculator
func (c *RDSCalculator) Supports(resourceType string) bool {
	return resourceType == "AWS::RDS::DBInstance"
}

// Calculate implements Calculator
func (c *RDSCalculator) Calculate(ctx context.Context, res model.ResourceSnapshot, region string, lookup PriceLookup) model.MonthlyCost {
	instanceClass := res.GetString("DBInstanceClass")
	confidence := model.ConfidenceHigh
	classSource := "from template"
	if instanceClass == "" {
		instanceClass = "db.t3.micro"
		confidence = model.ConfidenceMedium
		classSource = "default"
	}

	engine := res.GetString("Engine")
	if engine == "" {
		engine = "postgres"
	}

	hourly, failed := fetchPrice(ctx, lookup, pricing.Query{
		ServiceCode: "AmazonRDS",
		Region:      region,
		Filters: []pricing.Filter{
			{Field: "instanceType", Value: instanceClass},
			{Field: "databaseEngine", Value: rdsEngineName(engine)},
			{Field: "deploymentOption", Value: "Single-AZ"},
		},
	}, "RDS instance "+instanceClass)
	if failed != nil {
		return *failed
	}

	storageGB, hasStorage := res.GetFloat("AllocatedStorage")
	storageSource := "from template"
	if !hasStorage || storageGB <= 0 {
		storageGB = c.usage.RDSStorageGB
		storageSource = "configurable default"
	}

	storagePrice, failed := fetchPrice(ctx, lookup, pricing.Query{
		ServiceCode: "AmazonRDS",
		Region:      region,
		Filters: []pricing.Filter{
			{Field: "productFamily", Value: "Database Storage"},
			{Field: "volumeType", Value: "General Purpose"},
			{Field: "deploymentOption", Value: "Single-AZ"},
		},
	}, "RDS storage")
	if failed != nil {
		return *failed
	}

	amount := hourly.Mul(dec(HoursPerMonth)).Add(storagePrice.Mul(dec(storageGB)))

	return monthlyCost(amount, confidence, []string{
		assumptionf("Instance class: %s (%s), engine %s, Single-AZ", instanceClass, classSource, engine),
		assumptionf("Instance rate: %s USD/hour", hourly),
		assumptionf("Allocated storage: %g GB (%s) at %s USD/GB-month", storageGB, storageSource, storagePrice),
		assumptionf("Always-on: %d hours/month", HoursPerMonth),
	})
}

// rdsEngineName maps CloudFormation engine identifiers to the pricing
// source's engine vocabulary
func rdsEngineName(engine string) string {
	switch engine {
	case "postgres", "aurora-postgresql":
		return "PostgreSQL"
	case "mysql", "aurora-mysql", "aurora":
		return "MySQL"
	case "mariadb":
		return "MariaDB"
	case "oracle-se2", "oracle-ee":
		return "Oracle"
	case "sqlserver-ex", "sqlserver-web", "sqlserver-se", "sqlserver-ee":
		return "SQL Server"
	default:
		return engine
	}
}

// ElastiCacheCalculator prices AWS::ElastiCache::CacheCluster as
// node-hours
type ElastiCacheCalculator struct{}

// NewElastiCacheCalculator creates the calculator
func NewElastiCacheCalculator() *ElastiCacheCalculator {
	return &ElastiCacheCalculator{}
}

// Supports implements Calculator
func (c *ElastiCacheCalculator) Supports(resourceType string) bool {
	return resourceType == "AWS::ElastiCache::CacheCluster"
}

// Calculate implements Calculator
func (c *ElastiCacheCalculator) Calculate(ctx context.Context, res model.ResourceSnapshot, region string, lookup PriceLookup) model.MonthlyCost {
	nodeType := res.GetString("CacheNodeType")
	confidence := model.ConfidenceHigh
	typeSource := "from template"
	if nodeType == "" {
		nodeType = "cache.t3.micro"
		confidence = model.ConfidenceMedium
		typeSource = "default"
	}

	nodes, hasNodes := res.GetFloat("NumCacheNodes")
	if !hasNodes || nodes <= 0 {
		nodes = 1
	}

	hourly, failed := fetchPrice(ctx, lookup, pricing.Query{
		ServiceCode: "AmazonElastiCache",
		Region:      region,
		Filters: []pricing.Filter{
			{Field: "instanceType", Value: nodeType},
		},
	}, "ElastiCache node "+nodeType)
	if failed != nil {
		return *failed
	}

	amount := hourly.Mul(dec(nodes)).Mul(dec(HoursPerMonth))

	return monthlyCost(amount, confidence, []string{
		assumptionf("Node type: %s (%s), %g nodes", nodeType, typeSource, nodes),
		assumptionf("Node rate: %s USD/hour", hourly),
		assumptionf("Always-on: %d hours/month", HoursPerMonth),
	})
}

func numeric(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
