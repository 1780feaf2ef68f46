// Package merge implements the Field-Group Merger (C10), Entity Merger
// (C11), and Conflict Detector (C12), grounded on
// original_source/engine/extraction/merging.py.
package merge

import (
	"sort"
	"strings"

	"github.com/LarjGit/edinburgh-finds-core/pkg/domain"
)

// Group names a field's merge strategy, assigned by the caller's field-to-
// group mapping (entity-model config), not inferred from the value.
type Group string

const (
	GroupCanonicalArray Group = "canonical_array"
	GroupModules        Group = "modules"
	GroupGeo            Group = "geo"
	GroupNarrative      Group = "narrative"
	GroupDefault        Group = "default"
)

// FieldMerger resolves one field's contending FieldValues down to a single
// winner plus an agreement-derived confidence, dispatching on Group.
type FieldMerger struct{}

// NewFieldMerger builds a FieldMerger.
func NewFieldMerger() *FieldMerger {
	return &FieldMerger{}
}

// Merge picks a winning value for one field across all contributing
// sources' FieldValues, already sorted by the caller into deterministic
// pre-merge order (trust desc, source asc). The returned agreement ratio
// is count(values equal to the winner) / count(non-missing contributors).
// source names the single connector that supplied the winning value, or
// "merged" for the union strategies (canonical array, modules) where
// every contributing source is a co-author and there is no sole winner.
func (m *FieldMerger) Merge(group Group, values []domain.FieldValue) (winner interface{}, agreement float64, source string) {
	switch group {
	case GroupCanonicalArray:
		w, a := mergeCanonicalArray(values)
		return w, a, "merged"
	case GroupModules:
		w, a := mergeModules(values)
		return w, a, "merged"
	case GroupGeo:
		return mergeByMissingnessAndTrust(values)
	case GroupNarrative:
		return mergeNarrative(values)
	default:
		return mergeByMissingnessAndTrust(values)
	}
}

// nonMissing returns the subset of values whose Value is not IsMissing.
func nonMissing(values []domain.FieldValue) []domain.FieldValue {
	out := make([]domain.FieldValue, 0, len(values))
	for _, v := range values {
		if !IsMissing(v.Value) {
			out = append(out, v)
		}
	}
	return out
}

// mergeByMissingnessAndTrust is the default strategy, also used for geo
// fields: among non-missing contributions, the pre-sorted trust order
// decides the winner; if every contribution is missing, the field stays
// missing. Agreement is the fraction of non-missing contributors whose
// value equals the winner.
func mergeByMissingnessAndTrust(values []domain.FieldValue) (interface{}, float64, string) {
	present := nonMissing(values)
	if len(present) == 0 {
		return nil, 0, ""
	}

	winner := present[0]
	matches := 0
	for _, v := range present {
		if valuesEqual(v.Value, winner.Value) {
			matches++
		}
	}
	return winner.Value, float64(matches) / float64(len(present)), winner.SourceID
}

// mergeNarrative picks the longest non-missing text, falling back to
// trust order among equal-length candidates, matching the original
// extraction pipeline's preference for the most complete description.
func mergeNarrative(values []domain.FieldValue) (interface{}, float64, string) {
	present := nonMissing(values)
	if len(present) == 0 {
		return nil, 0, ""
	}

	best := present[0]
	bestLen := textLen(best.Value)
	for _, v := range present[1:] {
		l := textLen(v.Value)
		if l > bestLen {
			best, bestLen = v, l
		}
	}

	matches := 0
	for _, v := range present {
		if valuesEqual(v.Value, best.Value) {
			matches++
		}
	}
	return best.Value, float64(matches) / float64(len(present)), best.SourceID
}

func textLen(v interface{}) int {
	s, ok := v.(string)
	if !ok {
		return 0
	}
	return len(strings.TrimSpace(s))
}

// mergeCanonicalArray unions all non-missing array contributions,
// normalizes each element (trimmed, collapsed whitespace), deduplicates,
// and returns them sorted for deterministic output.
func mergeCanonicalArray(values []domain.FieldValue) (interface{}, float64) {
	present := nonMissing(values)
	if len(present) == 0 {
		return nil, 0
	}

	seen := make(map[string]struct{})
	var union []string
	for _, v := range present {
		for _, item := range toStringSlice(v.Value) {
			norm := normalizeArrayItem(item)
			if norm == "" {
				continue
			}
			if _, ok := seen[norm]; ok {
				continue
			}
			seen[norm] = struct{}{}
			union = append(union, norm)
		}
	}
	sort.Strings(union)

	out := make([]interface{}, len(union))
	for i, s := range union {
		out[i] = s
	}

	// Agreement here measures how many sources contributed at least one
	// element of the final union, rather than exact-value equality.
	matches := 0
	for _, v := range present {
		for _, item := range toStringSlice(v.Value) {
			if _, ok := seen[normalizeArrayItem(item)]; ok {
				matches++
				break
			}
		}
	}
	return out, float64(matches) / float64(len(present))
}

func normalizeArrayItem(s string) string {
	fields := strings.Fields(strings.ToLower(s))
	return strings.Join(fields, " ")
}

func toStringSlice(v interface{}) []string {
	switch vv := v.(type) {
	case []string:
		return vv
	case []interface{}:
		out := make([]string, 0, len(vv))
		for _, item := range vv {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return []string{vv}
	default:
		return nil
	}
}

func valuesEqual(a, b interface{}) bool {
	return toComparable(a) == toComparable(b)
}

// toComparable renders a value as a comparable key; maps/slices compare by
// nothing (always distinct) since Go maps/slices aren't comparable and
// agreement-ratio counting for those cases is handled by the group-specific
// strategies instead of the generic equality check.
func toComparable(v interface{}) interface{} {
	switch v.(type) {
	case map[string]interface{}, []interface{}, []string:
		return nil
	default:
		return v
	}
}
