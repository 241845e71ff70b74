package resolve

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"stackcost/core/model"
)

func assumptionContaining(t *testing.T, cost model.MonthlyCost, want string) string {
	t.Helper()
	for _, a := range cost.Assumptions {
		if strings.Contains(a, want) {
			return a
		}
	}
	t.Fatalf("no assumption mentions %q: %v", want, cost.Assumptions)
	return ""
}

func TestDynamoDBProvisionedFromTemplateIsHighConfidence(t *testing.T) {
	calc := NewDynamoDBCalculator(usageDefaults())

	cost := calc.Calculate(context.Background(), resource("Table", "AWS::DynamoDB::Table",
		map[string]interface{}{
			"BillingMode": "PROVISIONED",
			"ProvisionedThroughput": map[string]interface{}{
				"ReadCapacityUnits":  20,
				"WriteCapacityUnits": 10,
			},
		}), "us-east-1", &flatLookup{price: decimal.NewFromFloat(0.0001)})

	if cost.Confidence != model.ConfidenceHigh {
		t.Errorf("template-declared capacity should grade high, got %s", cost.Confidence)
	}
	line := assumptionContaining(t, cost, "Provisioned capacity")
	if !strings.Contains(line, "20 RCU, 10 WCU (from template)") {
		t.Errorf("capacity assumption must echo the template values: %s", line)
	}
}

func TestDynamoDBProvisionedWithoutThroughputIsDefaulted(t *testing.T) {
	calc := NewDynamoDBCalculator(usageDefaults())

	cost := calc.Calculate(context.Background(),
		resource("Table", "AWS::DynamoDB::Table", nil),
		"us-east-1", &flatLookup{price: decimal.NewFromFloat(0.0001)})

	if cost.Confidence != model.ConfidenceMedium {
		t.Errorf("defaulted capacity must not grade high, got %s", cost.Confidence)
	}
	line := assumptionContaining(t, cost, "Provisioned capacity")
	if !strings.Contains(line, "configurable default") {
		t.Errorf("capacity assumption must label the fallback: %s", line)
	}
	if strings.Contains(line, "from template") {
		t.Errorf("fallback capacity must not claim to come from the template: %s", line)
	}
}

func TestDynamoDBProvisionedFallbackIsConfigurable(t *testing.T) {
	usage := usageDefaults()
	usage.DynamoDBProvisionedRCU = 50
	usage.DynamoDBProvisionedWCU = 25
	calc := NewDynamoDBCalculator(usage)

	cost := calc.Calculate(context.Background(),
		resource("Table", "AWS::DynamoDB::Table",
			map[string]interface{}{"BillingMode": "PROVISIONED"}),
		"us-east-1", &flatLookup{price: decimal.NewFromFloat(0.0001)})

	line := assumptionContaining(t, cost, "Provisioned capacity")
	if !strings.Contains(line, "50 RCU, 25 WCU") {
		t.Errorf("configured fallback capacity not used: %s", line)
	}
}

func TestDynamoDBPartialThroughputIsDefaulted(t *testing.T) {
	calc := NewDynamoDBCalculator(usageDefaults())

	// A throughput block with only one of the two units is incomplete;
	// the whole pair falls back to the defaults.
	cost := calc.Calculate(context.Background(),
		resource("Table", "AWS::DynamoDB::Table", map[string]interface{}{
			"ProvisionedThroughput": map[string]interface{}{
				"ReadCapacityUnits": 20,
			},
		}), "us-east-1", &flatLookup{price: decimal.NewFromFloat(0.0001)})

	if cost.Confidence != model.ConfidenceMedium {
		t.Errorf("incomplete capacity must not grade high, got %s", cost.Confidence)
	}
	assumptionContaining(t, cost, "configurable default")
}

func TestFargateTaskSizeFallbackIsConfigurable(t *testing.T) {
	usage := usageDefaults()
	usage.FargateCPUUnits = 1024
	usage.FargateMemoryMiB = 2048
	calc := NewFargateCalculator(usage)

	cost := calc.Calculate(context.Background(),
		resource("Svc", "AWS::ECS::Service", nil),
		"us-east-1", &flatLookup{price: decimal.NewFromFloat(0.01)})

	if cost.Confidence != model.ConfidenceMedium {
		t.Errorf("defaulted task size must grade medium, got %s", cost.Confidence)
	}
	line := assumptionContaining(t, cost, "Task size")
	if !strings.Contains(line, "1 vCPU, 2 GB memory (configurable default)") {
		t.Errorf("task-size assumption must echo the configured fallback: %s", line)
	}

	// 1 vCPU + 2 GB at 0.01/hr each over 730 hours, one task
	want := decimal.NewFromFloat(0.03).Mul(decimal.NewFromInt(730))
	if !cost.Amount.Equal(want) {
		t.Errorf("expected %s, got %s", want, cost.Amount)
	}
}

func TestFargateTaskSizeFromTemplate(t *testing.T) {
	calc := NewFargateCalculator(usageDefaults())

	cost := calc.Calculate(context.Background(),
		resource("Svc", "AWS::ECS::Service", map[string]interface{}{
			"Cpu":    512,
			"Memory": 1024,
		}), "us-east-1", &flatLookup{price: decimal.NewFromFloat(0.01)})

	if cost.Confidence != model.ConfidenceHigh {
		t.Errorf("template-declared task size should grade high, got %s", cost.Confidence)
	}
	assumptionContaining(t, cost, "(from template)")
}
