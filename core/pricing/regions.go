package pricing

// regionLocations maps AWS region codes to the location names used by
// the pricing source. These strings are part of the cache-key contract
// and must remain stable.
var regionLocations = map[string]string{
	// US
	"us-east-1": "US East (N. Virginia)",
	"us-east-2": "US East (Ohio)",
	"us-west-1": "US West (N. California)",
	"us-west-2": "US West (Oregon)",

	// Canada
	"ca-central-1": "Canada (Central)",

	// South America
	"sa-east-1": "South America (Sao Paulo)",

	// Europe
	"eu-west-1":    "EU (Ireland)",
	"eu-west-2":    "EU (London)",
	"eu-west-3":    "EU (Paris)",
	"eu-central-1": "EU (Frankfurt)",
	"eu-north-1":   "EU (Stockholm)",
	"eu-south-1":   "EU (Milan)",

	// Asia Pacific
	"ap-northeast-1": "Asia Pacific (Tokyo)",
	"ap-northeast-2": "Asia Pacific (Seoul)",
	"ap-northeast-3": "Asia Pacific (Osaka)",
	"ap-southeast-1": "Asia Pacific (Singapore)",
	"ap-southeast-2": "Asia Pacific (Sydney)",
	"ap-southeast-3": "Asia Pacific (Jakarta)",
	"ap-south-1":     "Asia Pacific (Mumbai)",
	"ap-east-1":      "Asia Pacific (Hong Kong)",

	// Middle East
	"me-south-1":   "Middle East (Bahrain)",
	"me-central-1": "Middle East (UAE)",

	// Africa
	"af-south-1": "Africa (Cape Town)",
}

// NormalizeRegion maps a region code to the pricing source's location
// name. Unknown codes pass through unchanged; the lookup then degrades
// to unknown confidence rather than blocking the run.
func NormalizeRegion(region string) string {
	if location, ok := regionLocations[region]; ok {
		return location
	}
	return region
}
