package merge

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/LarjGit/edinburgh-finds-core/pkg/domain"
)

// mergeModules recursively deep-merges the "modules" namespace across all
// contributing sources: dict fields union their keys (recursing into
// shared keys), array fields dispatch on element shape, and scalars fall
// back to missingness+trust. Agreement is computed over the top-level
// module values only, consistent with the rest of the field-merger API.
func mergeModules(values []domain.FieldValue) (interface{}, float64) {
	present := nonMissing(values)
	if len(present) == 0 {
		return nil, 0
	}

	merged := present[0].Value
	for _, v := range present[1:] {
		merged = deepMergeValue(merged, v.Value)
	}

	matches := 0
	for _, v := range present {
		if reflect.DeepEqual(v.Value, merged) {
			matches++
		}
	}
	return merged, float64(matches) / float64(len(present))
}

// deepMergeValue merges b into a:
//   - dict + dict: union of keys, recursing into keys present in both
//   - array + array, handled by deepMergeArrays: arrays containing any
//     object, or mixed element types, are taken wholesale from a; arrays
//     whose elements all share one scalar type are concatenated,
//     deduplicated and sorted
//   - anything else: b wins if a is missing, else a is kept (a is the
//     higher-trust accumulator since callers fold left-to-right over a
//     trust-descending slice)
func deepMergeValue(a, b interface{}) interface{} {
	if IsMissing(a) {
		return b
	}
	if IsMissing(b) {
		return a
	}

	aMap, aIsMap := a.(map[string]interface{})
	bMap, bIsMap := b.(map[string]interface{})
	if aIsMap && bIsMap {
		return deepMergeMaps(aMap, bMap)
	}

	aArr, aIsArr := toInterfaceSlice(a)
	bArr, bIsArr := toInterfaceSlice(b)
	if aIsArr && bIsArr {
		return deepMergeArrays(aArr, bArr)
	}

	return a
}

func deepMergeMaps(a, b map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, bv := range b {
		if av, ok := out[k]; ok {
			out[k] = deepMergeValue(av, bv)
		} else {
			out[k] = bv
		}
	}
	return out
}

// deepMergeArrays dispatches on element shape, matching the original
// extraction pipeline's _deep_merge_arrays:
//   - any element is an object (map)    → wholesale from the higher-trust
//     accumulator a (object identity across sources can't be merged by
//     value equality alone)
//   - every element is the same scalar
//     type                              → concat + trim-strings + dedup + sort
//   - mixed scalar types                → unsafe to sort → wholesale from a
func deepMergeArrays(a, b []interface{}) []interface{} {
	combined := make([]interface{}, 0, len(a)+len(b))
	combined = append(combined, a...)
	combined = append(combined, b...)

	for _, item := range combined {
		if _, ok := item.(map[string]interface{}); ok {
			return a
		}
	}

	trimmed := make([]interface{}, 0, len(combined))
	types := make(map[string]struct{})
	for _, item := range combined {
		if s, ok := item.(string); ok {
			trimmed = append(trimmed, strings.TrimSpace(s))
			types["string"] = struct{}{}
		} else {
			trimmed = append(trimmed, item)
			types[reflect.TypeOf(item).String()] = struct{}{}
		}
	}

	if len(trimmed) == 0 {
		return []interface{}{}
	}
	if len(types) > 1 {
		return a
	}

	seen := make(map[string]struct{}, len(trimmed))
	var out []interface{}
	for _, item := range trimmed {
		key := fmt.Sprint(item)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return fmt.Sprint(out[i]) < fmt.Sprint(out[j]) })
	return out
}

func toInterfaceSlice(v interface{}) ([]interface{}, bool) {
	switch vv := v.(type) {
	case []interface{}:
		return vv, true
	case []string:
		out := make([]interface{}, len(vv))
		for i, s := range vv {
			out[i] = s
		}
		return out, true
	default:
		return nil, false
	}
}
