// Package diff classifies resources between two template snapshots.
// The diff is a pure function: no side effects, safe to call
// concurrently, never errors for well-typed input.
package diff

import (
	"sort"

	"stackcost/core/model"
)

// Diff partitions the resources of base and target.
// A logical ID present in both snapshots with structurally equal
// properties appears in no bucket. Output lists are sorted by logical
// ID for determinism.
func Diff(base, target model.TemplateSnapshot) model.ResourceDiff {
	result := model.ResourceDiff{
		Added:    []model.ResourceSnapshot{},
		Removed:  []model.ResourceSnapshot{},
		Modified: []model.ModifiedResource{},
	}

	for id, targetRes := range target {
		baseRes, existed := base[id]
		if !existed {
			result.Added = append(result.Added, targetRes)
			continue
		}
		if !PropertiesEqual(baseRes.Properties, targetRes.Properties) {
			result.Modified = append(result.Modified, model.ModifiedResource{
				LogicalID:     id,
				Type:          targetRes.Type,
				OldProperties: orEmpty(baseRes.Properties),
				NewProperties: orEmpty(targetRes.Properties),
			})
		}
	}

	for id, baseRes := range base {
		if _, exists := target[id]; !exists {
			result.Removed = append(result.Removed, baseRes)
		}
	}

	sort.Slice(result.Added, func(i, j int) bool {
		return result.Added[i].LogicalID < result.Added[j].LogicalID
	})
	sort.Slice(result.Removed, func(i, j int) bool {
		return result.Removed[i].LogicalID < result.Removed[j].LogicalID
	})
	sort.Slice(result.Modified, func(i, j int) bool {
		return result.Modified[i].LogicalID < result.Modified[j].LogicalID
	})

	return result
}

// PropertiesEqual reports deep structural equality of two property
// trees. Map key order is irrelevant; array element order is
// significant and compared positionally. A nil tree equals an empty
// tree.
func PropertiesEqual(a, b map[string]interface{}) bool {
	if len(a) != len(b) {
		return false
	}
	for key, av := range a {
		bv, ok := b[key]
		if !ok {
			return false
		}
		if !valueEqual(av, bv) {
			return false
		}
	}
	return true
}

func valueEqual(a, b interface{}) bool {
	switch av := a.(type) {
	case map[string]interface{}:
		bv, ok := b.(map[string]interface{})
		if !ok {
			return false
		}
		return PropertiesEqual(av, bv)
	case []interface{}:
		bv, ok := b.([]interface{})
		if !ok {
			return false
		}
		if len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !valueEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	case nil:
		return b == nil
	default:
		// Scalars: numbers from JSON and YAML may arrive as different
		// concrete types for the same value
		return scalarEqual(a, b)
	}
}

func scalarEqual(a, b interface{}) bool {
	if af, aok := toFloat(a); aok {
		bf, bok := toFloat(b)
		return bok && af == bf
	}
	return a == b
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

func orEmpty(props map[string]interface{}) map[string]interface{} {
	if props == nil {
		return map[string]interface{}{}
	}
	return props
}
