// Package model defines core domain types shared across all layers.
// This package contains NO business logic - only type definitions.
package model

import "github.com/shopspring/decimal"

// Currency represents a currency code
type Currency string

const (
	CurrencyUSD Currency = "USD"
)

// String returns the string representation
func (c Currency) String() string {
	return string(c)
}

// Confidence grades the reliability of a cost estimate
type Confidence string

const (
	// ConfidenceHigh means the estimate is derived from exact
	// usage-relevant values in the template (e.g. provisioned capacity)
	ConfidenceHigh Confidence = "high"

	// ConfidenceMedium means the estimate relies on default usage assumptions
	ConfidenceMedium Confidence = "medium"

	// ConfidenceLow means the estimate is heuristic with no firm formula
	ConfidenceLow Confidence = "low"

	// ConfidenceUnknown means the lookup failed or the type is unsupported
	ConfidenceUnknown Confidence = "unknown"
)

// String returns the string representation
func (c Confidence) String() string {
	return string(c)
}

// ResourceSnapshot is a single resource as it appears in one template
type ResourceSnapshot struct {
	// LogicalID is the resource's stable identifier within its template
	LogicalID string `json:"logical_id"`

	// Type is the resource type (e.g. "AWS::DynamoDB::Table")
	Type string `json:"type"`

	// Properties is the resource's property tree. Key order is not
	// significant; array element order is.
	Properties map[string]interface{} `json:"properties"`
}

// GetString retrieves a string property value
func (r ResourceSnapshot) GetString(key string) string {
	if v, ok := r.Properties[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// GetFloat retrieves a numeric property value
func (r ResourceSnapshot) GetFloat(key string) (float64, bool) {
	v, ok := r.Properties[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case decimal.Decimal:
		f, _ := n.Float64()
		return f, true
	}
	return 0, false
}

// GetMap retrieves a nested object property
func (r ResourceSnapshot) GetMap(key string) map[string]interface{} {
	if v, ok := r.Properties[key]; ok {
		if m, ok := v.(map[string]interface{}); ok {
			return m
		}
	}
	return nil
}

// TemplateSnapshot is a full template keyed by logical ID.
// Immutable once produced by the template source.
type TemplateSnapshot map[string]ResourceSnapshot

// ModifiedResource pairs the old and new property sets of a resource
// present in both snapshots with differing properties
type ModifiedResource struct {
	// LogicalID is the resource identifier
	LogicalID string `json:"logical_id"`

	// Type is the resource type
	Type string `json:"type"`

	// OldProperties is the property tree in the base snapshot
	OldProperties map[string]interface{} `json:"old_properties"`

	// NewProperties is the property tree in the target snapshot
	NewProperties map[string]interface{} `json:"new_properties"`
}

// ResourceDiff partitions the resources of two snapshots.
// Every logical ID present in either input appears in exactly one of
// Added/Removed/Modified, or in none when its properties are equal.
type ResourceDiff struct {
	// Added contains resources present only in the target snapshot
	Added []ResourceSnapshot `json:"added"`

	// Removed contains resources present only in the base snapshot
	Removed []ResourceSnapshot `json:"removed"`

	// Modified contains resources present in both with differing properties
	Modified []ModifiedResource `json:"modified"`
}

// IsEmpty reports whether the diff contains no changes
func (d ResourceDiff) IsEmpty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Modified) == 0
}

// MonthlyCost is a recurring-cost estimate for one resource
type MonthlyCost struct {
	// Amount is the estimated monthly cost, never negative
	Amount decimal.Decimal `json:"amount"`

	// Currency is the cost currency
	Currency Currency `json:"currency"`

	// Confidence grades the estimate
	Confidence Confidence `json:"confidence"`

	// Assumptions is the audit trail of every numeric input used to
	// derive Amount
	Assumptions []string `json:"assumptions"`
}

// ResourceCost attaches a monthly cost to a resource
type ResourceCost struct {
	// LogicalID is the resource identifier
	LogicalID string `json:"logical_id"`

	// Type is the resource type
	Type string `json:"type"`

	// MonthlyCost is the resolved estimate
	MonthlyCost MonthlyCost `json:"monthly_cost"`
}

// ModifiedResourceCost carries both sides of a modified resource's cost
type ModifiedResourceCost struct {
	// LogicalID is the resource identifier
	LogicalID string `json:"logical_id"`

	// Type is the resource type
	Type string `json:"type"`

	// OldMonthlyCost is the estimate for the base properties
	OldMonthlyCost MonthlyCost `json:"old_monthly_cost"`

	// NewMonthlyCost is the estimate for the target properties
	NewMonthlyCost MonthlyCost `json:"new_monthly_cost"`

	// CostDelta is NewMonthlyCost.Amount - OldMonthlyCost.Amount
	CostDelta decimal.Decimal `json:"cost_delta"`
}

// CostDelta is the aggregated monthly cost impact of a diff
type CostDelta struct {
	// TotalDelta is the net monthly change:
	// sum(added) - sum(removed) + sum(modified deltas)
	TotalDelta decimal.Decimal `json:"total_delta"`

	// Currency is the delta currency
	Currency Currency `json:"currency"`

	// AddedCosts are estimates for added resources
	AddedCosts []ResourceCost `json:"added_costs"`

	// RemovedCosts are estimates for removed resources
	RemovedCosts []ResourceCost `json:"removed_costs"`

	// ModifiedCosts are paired estimates for modified resources
	ModifiedCosts []ModifiedResourceCost `json:"modified_costs"`
}

// ThresholdLevels holds the monthly-delta limits for one environment
type ThresholdLevels struct {
	// Warning is the warning limit in currency per month
	Warning *decimal.Decimal `json:"warning,omitempty"`

	// Error is the error limit in currency per month
	Error *decimal.Decimal `json:"error,omitempty"`
}

// ThresholdConfig maps environments to threshold levels
type ThresholdConfig struct {
	// Default applies when no environment-specific levels exist
	Default *ThresholdLevels `json:"default,omitempty"`

	// Environments holds per-environment overrides
	Environments map[string]ThresholdLevels `json:"environments,omitempty"`
}

// ThresholdLevel is the severity assigned to a cost delta
type ThresholdLevel string

const (
	// LevelNone means no threshold was exceeded
	LevelNone ThresholdLevel = "none"

	// LevelWarning means the warning threshold was exceeded
	LevelWarning ThresholdLevel = "warning"

	// LevelError means the error threshold was exceeded
	LevelError ThresholdLevel = "error"
)

// ThresholdEvaluation is the policy decision for a cost delta
type ThresholdEvaluation struct {
	// Passed is false only when the error threshold was exceeded
	Passed bool `json:"passed"`

	// Level is the assigned severity
	Level ThresholdLevel `json:"level"`

	// Threshold is the limit that was exceeded, if any
	Threshold *decimal.Decimal `json:"threshold,omitempty"`

	// Delta is the evaluated monthly delta
	Delta decimal.Decimal `json:"delta"`

	// Message is a human-readable summary with ranked contributors
	Message string `json:"message"`

	// Recommendations lists remediation hints for top contributors
	Recommendations []string `json:"recommendations"`
}
