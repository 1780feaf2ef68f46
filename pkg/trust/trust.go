// Package trust implements the Trust Hierarchy (C9): a per-source trust
// score used to break ties during field merging and to gate conflict
// reporting between disagreeing sources.
package trust

import "sort"

// DefaultTrust is assigned to any source absent from the configured
// hierarchy, so an unconfigured connector never wins over a configured one.
const DefaultTrust = 50.0

// Hierarchy maps a source identifier to its trust score (0-100 scale,
// higher wins ties). It is loaded from the trust-config YAML file
// (see internal/config) through pkg/modules' strict loader.
type Hierarchy struct {
	scores map[string]float64
}

// New builds a Hierarchy from a source -> trust-score map.
func New(scores map[string]float64) *Hierarchy {
	h := &Hierarchy{scores: make(map[string]float64, len(scores))}
	for k, v := range scores {
		h.scores[k] = v
	}
	return h
}

// Score returns the configured trust for sourceID, or DefaultTrust if unconfigured.
func (h *Hierarchy) Score(sourceID string) float64 {
	if h == nil {
		return DefaultTrust
	}
	if v, ok := h.scores[sourceID]; ok {
		return v
	}
	return DefaultTrust
}

// Ranked describes one candidate in a trust-ordered comparison: its
// source, trust score, and the confidence the source itself reported.
type Ranked struct {
	SourceID   string
	Trust      float64
	Confidence float64
}

// Sort orders candidates by the cascade used throughout the pipeline for
// deterministic tie-breaking: trust descending, then confidence
// descending, then source ID ascending (so identical trust/confidence
// still yields a stable, reproducible order regardless of input order).
func Sort(candidates []Ranked) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Trust != b.Trust {
			return a.Trust > b.Trust
		}
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		return a.SourceID < b.SourceID
	})
}
