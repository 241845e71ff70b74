package template

import (
	"os"
	"path/filepath"
	"testing"

	"stackcost/core/diff"
	"stackcost/internal/errors"
)

const jsonTemplate = `{
  "AWSTemplateFormatVersion": "2010-09-09",
  "Resources": {
    "Web": {
      "Type": "AWS::EC2::Instance",
      "Properties": {
        "InstanceType": "t3.micro",
        "Tags": [{"Key": "env", "Value": "dev"}]
      }
    },
    "Logs": {
      "Type": "AWS::S3::Bucket"
    }
  }
}`

const yamlTemplate = `
AWSTemplateFormatVersion: "2010-09-09"
Resources:
  Web:
    Type: AWS::EC2::Instance
    Properties:
      InstanceType: t3.micro
      Tags:
        - Key: env
          Value: dev
  Logs:
    Type: AWS::S3::Bucket
`

func TestParseJSON(t *testing.T) {
	snap, err := ParseJSON([]byte(jsonTemplate))
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}
	if len(snap) != 2 {
		t.Fatalf("expected 2 resources, got %d", len(snap))
	}

	web := snap["Web"]
	if web.Type != "AWS::EC2::Instance" || web.LogicalID != "Web" {
		t.Errorf("unexpected resource: %+v", web)
	}
	if web.GetString("InstanceType") != "t3.micro" {
		t.Errorf("property lost in parsing: %v", web.Properties)
	}
}

func TestParseYAMLMatchesJSON(t *testing.T) {
	fromJSON, err := ParseJSON([]byte(jsonTemplate))
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}
	fromYAML, err := ParseYAML([]byte(yamlTemplate))
	if err != nil {
		t.Fatalf("ParseYAML: %v", err)
	}

	// Same template in either format must diff as unchanged
	if d := diff.Diff(fromJSON, fromYAML); !d.IsEmpty() {
		t.Errorf("format changed the snapshot: %+v", d)
	}
}

func TestParseMissingResourcesIsStructural(t *testing.T) {
	_, err := ParseJSON([]byte(`{"Description": "empty"}`))
	if err == nil {
		t.Fatal("expected an error for a template without Resources")
	}
	if !errors.IsType(err, errors.TypeStructural) {
		t.Errorf("expected a structural error, got %v", err)
	}
}

func TestParseMissingTypeIsStructural(t *testing.T) {
	_, err := ParseJSON([]byte(`{"Resources": {"Broken": {"Properties": {}}}}`))
	if err == nil {
		t.Fatal("expected an error for a resource without Type")
	}
	if !errors.IsType(err, errors.TypeStructural) {
		t.Errorf("expected a structural error, got %v", err)
	}
}

func TestParseMissingPropertiesDefaultsToEmpty(t *testing.T) {
	snap, err := ParseJSON([]byte(`{"Resources": {"Bucket": {"Type": "AWS::S3::Bucket"}}}`))
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}
	if snap["Bucket"].Properties == nil {
		t.Error("missing Properties must normalize to an empty map, not nil")
	}
	if len(snap["Bucket"].Properties) != 0 {
		t.Errorf("expected empty properties, got %v", snap["Bucket"].Properties)
	}
}

func TestParseInvalidJSON(t *testing.T) {
	_, err := ParseJSON([]byte(`{not json`))
	if err == nil {
		t.Fatal("expected a parse error")
	}
	if !errors.IsType(err, errors.TypeStructural) {
		t.Errorf("expected a structural error, got %v", err)
	}
}

func TestLoadFilePicksFormatByExtension(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "stack.json")
	if err := os.WriteFile(jsonPath, []byte(jsonTemplate), 0o644); err != nil {
		t.Fatal(err)
	}
	yamlPath := filepath.Join(dir, "stack.yaml")
	if err := os.WriteFile(yamlPath, []byte(yamlTemplate), 0o644); err != nil {
		t.Fatal(err)
	}

	fromJSON, err := LoadFile(jsonPath)
	if err != nil {
		t.Fatalf("LoadFile json: %v", err)
	}
	fromYAML, err := LoadFile(yamlPath)
	if err != nil {
		t.Fatalf("LoadFile yaml: %v", err)
	}
	if len(fromJSON) != len(fromYAML) {
		t.Errorf("formats disagree: %d vs %d resources", len(fromJSON), len(fromYAML))
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.json"))
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
	if !errors.IsType(err, errors.TypeStructural) {
		t.Errorf("expected a structural error, got %v", err)
	}
}
