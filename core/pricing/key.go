// Package pricing resolves unit prices through a two-tier cache backed
// by a rate-limited external pricing source.
package pricing

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Filter narrows a price query to a single SKU
type Filter struct {
	// Field is the pricing attribute name (e.g. "instanceType")
	Field string `json:"field"`

	// Value is the required attribute value
	Value string `json:"value"`
}

// Query identifies a single unit price
type Query struct {
	// ServiceCode is the pricing service code (e.g. "AmazonDynamoDB")
	ServiceCode string `json:"service_code"`

	// Region is the region code (e.g. "us-east-1"); normalized to a
	// location name before lookup and key derivation
	Region string `json:"region"`

	// Filters narrow the query to one SKU
	Filters []Filter `json:"filters"`
}

// CacheKey derives the deterministic cache key for a query. The key is
// a SHA-256 over service code, normalized region, and the sorted
// filter list; filter order in the query does not affect the key.
func CacheKey(q Query) string {
	parts := make([]string, 0, len(q.Filters))
	for _, f := range q.Filters {
		parts = append(parts, f.Field+"="+f.Value)
	}
	sort.Strings(parts)

	var b strings.Builder
	b.WriteString(q.ServiceCode)
	b.WriteByte('|')
	b.WriteString(NormalizeRegion(q.Region))
	b.WriteByte('|')
	b.WriteString(strings.Join(parts, ","))

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
