package merge

import (
	"sort"

	"github.com/LarjGit/edinburgh-finds-core/pkg/domain"
)

// DefaultConflictThreshold is the trust-gap threshold below which two
// disagreeing values are reported as a conflict rather than silently
// resolved by trust ranking.
const DefaultConflictThreshold = 15.0

// ConflictDetector flags fields where the top two distinct, non-missing
// values come from sources whose trust gap is too small to make the
// ranking decision a confident one.
type ConflictDetector struct {
	threshold float64
}

// NewConflictDetector builds a ConflictDetector. A threshold <= 0 uses
// DefaultConflictThreshold.
func NewConflictDetector(threshold float64) *ConflictDetector {
	if threshold <= 0 {
		threshold = DefaultConflictThreshold
	}
	return &ConflictDetector{threshold: threshold}
}

// Detect reports a MergeConflict for field if the top two distinct
// candidate values' trust gap is below the threshold. Severity is
// 1 - gap/threshold, so an exact tie has severity 1 and a gap right at
// the threshold has severity 0; gaps at or beyond the threshold are not
// reported at all.
func (d *ConflictDetector) Detect(field string, values []domain.FieldValue) (domain.MergeConflict, bool) {
	distinct := distinctByValue(nonMissing(values))
	if len(distinct) < 2 {
		return domain.MergeConflict{}, false
	}

	sort.SliceStable(distinct, func(i, j int) bool {
		a, b := distinct[i], distinct[j]
		if a.Trust != b.Trust {
			return a.Trust > b.Trust
		}
		return a.Confidence > b.Confidence
	})

	top, runnerUp := distinct[0], distinct[1]
	gap := top.Trust - runnerUp.Trust
	if gap < 0 {
		gap = 0
	}
	if gap >= d.threshold {
		return domain.MergeConflict{}, false
	}

	severity := 1 - gap/d.threshold
	if severity < 0 {
		severity = 0
	}
	if severity > 1 {
		severity = 1
	}

	return domain.MergeConflict{
		Field:     field,
		Winner:    top.Value,
		Runnerup:  runnerUp.Value,
		Severity:  severity,
		SourceIDs: []string{top.SourceID, runnerUp.SourceID},
	}, true
}

// distinctByValue keeps the first FieldValue seen for each distinct
// comparable value; values that aren't directly comparable (maps/arrays)
// are each kept as their own distinct entry since equality for those is
// group-specific and outside the conflict detector's scope.
func distinctByValue(values []domain.FieldValue) []domain.FieldValue {
	seen := make(map[interface{}]bool)
	var out []domain.FieldValue
	for _, v := range values {
		key := toComparable(v.Value)
		if key == nil {
			out = append(out, v)
			continue
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	return out
}
