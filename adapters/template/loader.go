// Package template acquires template snapshots for the pipeline:
// parsing JSON/YAML documents and materializing templates from source
// via an external synthesis command.
package template

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"stackcost/core/model"
	"stackcost/internal/errors"
)

// LoadFile reads and parses one template document. The format is
// chosen by extension; anything that is not .yaml/.yml parses as JSON.
func LoadFile(path string) (model.TemplateSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.TypeStructural, "could not read template "+path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return ParseJSON(data)
	}
}

// ParseJSON parses a JSON template document
func ParseJSON(data []byte) (model.TemplateSnapshot, error) {
	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(errors.TypeStructural, "template is not valid JSON", err)
	}
	return snapshotFromDocument(doc)
}

// ParseYAML parses a YAML template document
func ParseYAML(data []byte) (model.TemplateSnapshot, error) {
	var doc map[string]interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(errors.TypeStructural, "template is not valid YAML", err)
	}
	normalized, ok := normalizeValue(doc).(map[string]interface{})
	if !ok {
		return nil, errors.Structural("template document is not a mapping")
	}
	return snapshotFromDocument(normalized)
}

// snapshotFromDocument validates the Resources section and converts it
// into a snapshot. A missing Resources section is a structural error;
// a resource without Properties gets an empty property tree.
func snapshotFromDocument(doc map[string]interface{}) (model.TemplateSnapshot, error) {
	resourcesRaw, ok := doc["Resources"]
	if !ok {
		return nil, errors.Structural("template has no Resources section")
	}
	resources, ok := resourcesRaw.(map[string]interface{})
	if !ok {
		return nil, errors.Structural("template Resources section is not a mapping")
	}

	snapshot := make(model.TemplateSnapshot, len(resources))
	for logicalID, raw := range resources {
		body, ok := raw.(map[string]interface{})
		if !ok {
			return nil, errors.Structural(fmt.Sprintf("resource %s is not a mapping", logicalID))
		}

		resourceType, ok := body["Type"].(string)
		if !ok || resourceType == "" {
			return nil, errors.Structural(fmt.Sprintf("resource %s has no Type", logicalID))
		}

		properties := map[string]interface{}{}
		if props, ok := body["Properties"].(map[string]interface{}); ok {
			properties = props
		}

		snapshot[logicalID] = model.ResourceSnapshot{
			LogicalID:  logicalID,
			Type:       resourceType,
			Properties: properties,
		}
	}

	return snapshot, nil
}

// normalizeValue rewrites YAML's interface-keyed maps into
// string-keyed maps so diffing sees one representation regardless of
// input format
func normalizeValue(v interface{}) interface{} {
	switch value := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(value))
		for k, item := range value {
			out[k] = normalizeValue(item)
		}
		return out
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(value))
		for k, item := range value {
			out[fmt.Sprintf("%v", k)] = normalizeValue(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(value))
		for i, item := range value {
			out[i] = normalizeValue(item)
		}
		return out
	default:
		return v
	}
}
