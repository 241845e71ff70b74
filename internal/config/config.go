// Package config provides configuration management.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"stackcost/core/model"
	"stackcost/internal/errors"
	"stackcost/internal/logging"
)

// Config is the main application configuration
type Config struct {
	// Version is the configuration version
	Version string `json:"version" yaml:"version"`

	// Region is the region resources are priced in
	Region string `json:"region" yaml:"region"`

	// Cache contains price cache settings
	Cache CacheConfig `json:"cache" yaml:"cache"`

	// Usage contains usage assumptions for cost formulas
	Usage UsageConfig `json:"usage" yaml:"usage"`

	// Thresholds contains the cost-delta policy limits
	Thresholds model.ThresholdConfig `json:"thresholds" yaml:"thresholds"`

	// ExcludedTypes lists resource types skipped before cost calculation
	ExcludedTypes []string `json:"excluded_types" yaml:"excluded_types"`

	// ResolveTimeoutSeconds bounds the whole cost-resolution phase
	ResolveTimeoutSeconds int `json:"resolve_timeout_seconds" yaml:"resolve_timeout_seconds"`

	// MaxConcurrency bounds parallel resource resolution
	MaxConcurrency int `json:"max_concurrency" yaml:"max_concurrency"`

	// Logging contains logging configuration
	Logging logging.Config `json:"logging" yaml:"logging"`
}

// CacheConfig contains price cache settings
type CacheConfig struct {
	// Directory is where durable price records live
	Directory string `json:"directory" yaml:"directory"`

	// TTLHours is how long a cached price stays fresh; fractional
	// values are allowed
	TTLHours float64 `json:"ttl_hours" yaml:"ttl_hours"`
}

// UsageConfig contains the numeric usage assumptions substituted for
// unknown real-world usage. Every value used in a calculation is
// echoed into the cost's assumption trail.
type UsageConfig struct {
	// LambdaMonthlyRequests is assumed monthly Lambda invocations
	LambdaMonthlyRequests float64 `json:"lambda_monthly_requests" yaml:"lambda_monthly_requests"`

	// LambdaAvgDurationMS is assumed average Lambda duration
	LambdaAvgDurationMS float64 `json:"lambda_avg_duration_ms" yaml:"lambda_avg_duration_ms"`

	// S3StorageGB is assumed S3 bucket storage
	S3StorageGB float64 `json:"s3_storage_gb" yaml:"s3_storage_gb"`

	// S3MonthlyRequests is assumed monthly S3 requests
	S3MonthlyRequests float64 `json:"s3_monthly_requests" yaml:"s3_monthly_requests"`

	// DynamoDBStorageGB is assumed table storage
	DynamoDBStorageGB float64 `json:"dynamodb_storage_gb" yaml:"dynamodb_storage_gb"`

	// DynamoDBMonthlyReadRequests is assumed on-demand read request units
	DynamoDBMonthlyReadRequests float64 `json:"dynamodb_monthly_read_requests" yaml:"dynamodb_monthly_read_requests"`

	// DynamoDBMonthlyWriteRequests is assumed on-demand write request units
	DynamoDBMonthlyWriteRequests float64 `json:"dynamodb_monthly_write_requests" yaml:"dynamodb_monthly_write_requests"`

	// DynamoDBProvisionedRCU is the fallback read capacity when a
	// provisioned table omits its throughput block
	DynamoDBProvisionedRCU float64 `json:"dynamodb_provisioned_rcu" yaml:"dynamodb_provisioned_rcu"`

	// DynamoDBProvisionedWCU is the fallback write capacity when a
	// provisioned table omits its throughput block
	DynamoDBProvisionedWCU float64 `json:"dynamodb_provisioned_wcu" yaml:"dynamodb_provisioned_wcu"`

	// FargateCPUUnits is the fallback task CPU in CPU units (1024 = 1
	// vCPU) when the service does not declare one
	FargateCPUUnits float64 `json:"fargate_cpu_units" yaml:"fargate_cpu_units"`

	// FargateMemoryMiB is the fallback task memory when the service
	// does not declare one
	FargateMemoryMiB float64 `json:"fargate_memory_mib" yaml:"fargate_memory_mib"`

	// NATProcessedGB is assumed monthly NAT gateway data processing
	NATProcessedGB float64 `json:"nat_processed_gb" yaml:"nat_processed_gb"`

	// RDSStorageGB is the fallback RDS allocated storage when the
	// template does not specify one
	RDSStorageGB float64 `json:"rds_storage_gb" yaml:"rds_storage_gb"`
}

// Default returns a default configuration
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	cacheDir := filepath.Join(homeDir, ".stackcost", "price-cache")

	return &Config{
		Version: "1.0",
		Region:  "us-east-1",
		Cache: CacheConfig{
			Directory: cacheDir,
			TTLHours:  24,
		},
		Usage: UsageConfig{
			LambdaMonthlyRequests:        1_000_000,
			LambdaAvgDurationMS:          100,
			S3StorageGB:                  50,
			S3MonthlyRequests:            100_000,
			DynamoDBStorageGB:            10,
			DynamoDBMonthlyReadRequests:  1_000_000,
			DynamoDBMonthlyWriteRequests: 200_000,
			DynamoDBProvisionedRCU:       5,
			DynamoDBProvisionedWCU:       5,
			FargateCPUUnits:              256,
			FargateMemoryMiB:             512,
			NATProcessedGB:               100,
			RDSStorageGB:                 20,
		},
		ExcludedTypes:         []string{},
		ResolveTimeoutSeconds: 120,
		MaxConcurrency:        8,
		Logging:               logging.DefaultConfig(),
	}
}

// Load reads a configuration file. JSON and YAML are supported,
// selected by extension.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.TypeConfig, "could not read config file", err)
	}

	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, errors.Wrap(errors.TypeConfig, "could not parse config file", err)
	}

	warnings, err := cfg.Validate()
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		logging.Warn(w)
	}

	return cfg, nil
}

// Validate checks the configuration before the pipeline runs. Invalid
// numeric values are fatal; a warning threshold above the error
// threshold is reported as a warning only.
func (c *Config) Validate() (warnings []string, err error) {
	if c.Cache.TTLHours < 0 {
		return nil, errors.Configf("cache ttl_hours must be >= 0, got %v", c.Cache.TTLHours)
	}
	if c.ResolveTimeoutSeconds < 0 {
		return nil, errors.Configf("resolve_timeout_seconds must be >= 0, got %d", c.ResolveTimeoutSeconds)
	}
	if c.MaxConcurrency < 1 {
		return nil, errors.Configf("max_concurrency must be >= 1, got %d", c.MaxConcurrency)
	}

	for name, v := range map[string]float64{
		"lambda_monthly_requests":         c.Usage.LambdaMonthlyRequests,
		"lambda_avg_duration_ms":          c.Usage.LambdaAvgDurationMS,
		"s3_storage_gb":                   c.Usage.S3StorageGB,
		"s3_monthly_requests":             c.Usage.S3MonthlyRequests,
		"dynamodb_storage_gb":             c.Usage.DynamoDBStorageGB,
		"dynamodb_monthly_read_requests":  c.Usage.DynamoDBMonthlyReadRequests,
		"dynamodb_monthly_write_requests": c.Usage.DynamoDBMonthlyWriteRequests,
		"dynamodb_provisioned_rcu":        c.Usage.DynamoDBProvisionedRCU,
		"dynamodb_provisioned_wcu":        c.Usage.DynamoDBProvisionedWCU,
		"fargate_cpu_units":               c.Usage.FargateCPUUnits,
		"fargate_memory_mib":              c.Usage.FargateMemoryMiB,
		"nat_processed_gb":                c.Usage.NATProcessedGB,
		"rds_storage_gb":                  c.Usage.RDSStorageGB,
	} {
		if v < 0 {
			return nil, errors.Configf("usage assumption %s must be >= 0, got %v", name, v)
		}
	}

	validateLevels := func(scope string, levels *model.ThresholdLevels) error {
		if levels == nil {
			return nil
		}
		if levels.Warning != nil && levels.Warning.IsNegative() {
			return errors.Configf("%s warning threshold must be >= 0, got %s", scope, levels.Warning)
		}
		if levels.Error != nil && levels.Error.IsNegative() {
			return errors.Configf("%s error threshold must be >= 0, got %s", scope, levels.Error)
		}
		if levels.Warning != nil && levels.Error != nil && levels.Warning.GreaterThan(*levels.Error) {
			warnings = append(warnings, fmt.Sprintf(
				"%s warning threshold (%s) exceeds error threshold (%s)",
				scope, levels.Warning, levels.Error))
		}
		return nil
	}

	if err := validateLevels("default", c.Thresholds.Default); err != nil {
		return nil, err
	}
	for env := range c.Thresholds.Environments {
		levels := c.Thresholds.Environments[env]
		if err := validateLevels("environment "+env, &levels); err != nil {
			return nil, err
		}
	}

	return warnings, nil
}

// IsExcluded reports whether a resource type is in the exclusion set
func (c *Config) IsExcluded(resourceType string) bool {
	for _, t := range c.ExcludedTypes {
		if t == resourceType {
			return true
		}
	}
	return false
}

var current *Config

// Set replaces the active configuration
func Set(cfg *Config) {
	current = cfg
}

// Get returns the active configuration
func Get() *Config {
	if current == nil {
		current = Default()
	}
	return current
}
