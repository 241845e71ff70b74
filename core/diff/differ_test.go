package diff

import (
	"testing"

	"stackcost/core/model"
)

func resource(id, resType string, props map[string]interface{}) model.ResourceSnapshot {
	return model.ResourceSnapshot{LogicalID: id, Type: resType, Properties: props}
}

func TestDiffPartitionsEveryResource(t *testing.T) {
	base := model.TemplateSnapshot{
		"KeepMe":   resource("KeepMe", "AWS::S3::Bucket", map[string]interface{}{"BucketName": "a"}),
		"DropMe":   resource("DropMe", "AWS::EC2::Instance", map[string]interface{}{"InstanceType": "t3.micro"}),
		"ChangeMe": resource("ChangeMe", "AWS::DynamoDB::Table", map[string]interface{}{"BillingMode": "PROVISIONED"}),
	}
	target := model.TemplateSnapshot{
		"KeepMe":   resource("KeepMe", "AWS::S3::Bucket", map[string]interface{}{"BucketName": "a"}),
		"ChangeMe": resource("ChangeMe", "AWS::DynamoDB::Table", map[string]interface{}{"BillingMode": "PAY_PER_REQUEST"}),
		"NewGuy":   resource("NewGuy", "AWS::Lambda::Function", map[string]interface{}{"MemorySize": 256}),
	}

	result := Diff(base, target)

	if len(result.Added) != 1 || result.Added[0].LogicalID != "NewGuy" {
		t.Errorf("expected NewGuy added, got %+v", result.Added)
	}
	if len(result.Removed) != 1 || result.Removed[0].LogicalID != "DropMe" {
		t.Errorf("expected DropMe removed, got %+v", result.Removed)
	}
	if len(result.Modified) != 1 || result.Modified[0].LogicalID != "ChangeMe" {
		t.Errorf("expected ChangeMe modified, got %+v", result.Modified)
	}

	// Every ID in base or target lands in exactly one bucket or none
	seen := map[string]int{}
	for _, r := range result.Added {
		seen[r.LogicalID]++
	}
	for _, r := range result.Removed {
		seen[r.LogicalID]++
	}
	for _, r := range result.Modified {
		seen[r.LogicalID]++
	}
	for id, count := range seen {
		if count != 1 {
			t.Errorf("logical ID %s appears in %d buckets", id, count)
		}
	}
	if _, ok := seen["KeepMe"]; ok {
		t.Error("unchanged resource must not appear in any bucket")
	}
}

func TestDiffIdenticalSnapshotsIsEmpty(t *testing.T) {
	snapshot := model.TemplateSnapshot{
		"A": resource("A", "AWS::S3::Bucket", map[string]interface{}{
			"Nested": map[string]interface{}{"X": []interface{}{1, 2, 3}},
		}),
		"B": resource("B", "AWS::EC2::Instance", nil),
	}

	result := Diff(snapshot, snapshot)
	if !result.IsEmpty() {
		t.Errorf("diff(T, T) must be empty, got %+v", result)
	}
}

func TestDiffIgnoresMapKeyOrder(t *testing.T) {
	// Same key/value pairs inserted in different orders
	baseProps := map[string]interface{}{}
	baseProps["Alpha"] = "1"
	baseProps["Beta"] = map[string]interface{}{"C": "x", "D": "y"}

	targetProps := map[string]interface{}{}
	targetProps["Beta"] = map[string]interface{}{"D": "y", "C": "x"}
	targetProps["Alpha"] = "1"

	result := Diff(
		model.TemplateSnapshot{"R": resource("R", "AWS::S3::Bucket", baseProps)},
		model.TemplateSnapshot{"R": resource("R", "AWS::S3::Bucket", targetProps)},
	)
	if !result.IsEmpty() {
		t.Errorf("key order must not affect equality, got %+v", result)
	}
}

func TestDiffArrayOrderIsSignificant(t *testing.T) {
	result := Diff(
		model.TemplateSnapshot{"R": resource("R", "AWS::S3::Bucket",
			map[string]interface{}{"List": []interface{}{"a", "b"}})},
		model.TemplateSnapshot{"R": resource("R", "AWS::S3::Bucket",
			map[string]interface{}{"List": []interface{}{"b", "a"}})},
	)
	if len(result.Modified) != 1 {
		t.Errorf("reordered array must count as a modification, got %+v", result)
	}
}

func TestDiffTreatsMissingPropertiesAsEmpty(t *testing.T) {
	result := Diff(
		model.TemplateSnapshot{"R": resource("R", "AWS::S3::Bucket", nil)},
		model.TemplateSnapshot{"R": resource("R", "AWS::S3::Bucket", map[string]interface{}{})},
	)
	if !result.IsEmpty() {
		t.Errorf("nil and empty properties must compare equal, got %+v", result)
	}
}

func TestDiffNumericTypesCompareByValue(t *testing.T) {
	result := Diff(
		model.TemplateSnapshot{"R": resource("R", "AWS::EC2::Volume",
			map[string]interface{}{"Size": 100})},
		model.TemplateSnapshot{"R": resource("R", "AWS::EC2::Volume",
			map[string]interface{}{"Size": float64(100)})},
	)
	if !result.IsEmpty() {
		t.Errorf("int 100 and float 100 must compare equal, got %+v", result)
	}
}

func TestDiffOutputIsSorted(t *testing.T) {
	target := model.TemplateSnapshot{
		"Zulu":  resource("Zulu", "AWS::S3::Bucket", nil),
		"Alpha": resource("Alpha", "AWS::S3::Bucket", nil),
		"Mike":  resource("Mike", "AWS::S3::Bucket", nil),
	}

	result := Diff(model.TemplateSnapshot{}, target)
	want := []string{"Alpha", "Mike", "Zulu"}
	for i, id := range want {
		if result.Added[i].LogicalID != id {
			t.Fatalf("expected sorted order %v, got %+v", want, result.Added)
		}
	}
}
