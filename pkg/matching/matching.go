// Package matching implements the Matching Primitives (C8): the
// external-ID, slug, and fuzzy geo+name matchers used by the deduplicator
// to decide whether two extracted records describe the same entity,
// grounded on original_source/engine/extraction/deduplication.py.
package matching

import (
	"math"
	"strings"

	"github.com/LarjGit/edinburgh-finds-core/pkg/domain"
	"github.com/LarjGit/edinburgh-finds-core/pkg/slug"
)

const (
	slugSimilarityThreshold  = 0.9
	fuzzyMaxDistanceMeters   = 200.0
	fuzzyNameWeight          = 0.7
	fuzzyLocationWeight      = 0.3
	fuzzyLocationDecayMeters = 50.0
	fuzzyMatchThreshold      = 0.85
)

// Candidate is the minimal shape a matcher needs from a record: its
// external IDs keyed by type (e.g. "google_place_id"), name, and
// coordinates (if any).
type Candidate struct {
	ExternalIDs map[string]string
	Name        string
	Lat, Lng    float64
	HasCoords   bool
}

// MatchExternalID compares two {type: id} mappings and matches iff any
// shared key has an equal normalized value. This is the strongest and
// cheapest signal and is tried first in the deduplication cascade.
func MatchExternalID(a, b map[string]string) domain.MatchResult {
	if len(a) == 0 || len(b) == 0 {
		return domain.MatchResult{Matched: false, Method: "external_id", Reason: "missing external id"}
	}
	for key, valA := range a {
		valB, ok := b[key]
		if !ok {
			continue
		}
		na, nb := normalizeKey(valA), normalizeKey(valB)
		if na == "" || nb == "" {
			continue
		}
		if na == nb {
			return domain.MatchResult{Matched: true, Method: "external_id", Score: 1.0, Reason: key}
		}
	}
	return domain.MatchResult{Matched: false, Method: "external_id", Score: 0}
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// MatchSlug compares two names via their generated slugs: an exact slug
// match, or an edit-distance ratio at or above slugSimilarityThreshold.
func MatchSlug(nameA, nameB string) domain.MatchResult {
	slugA, slugB := slug.Generate(nameA), slug.Generate(nameB)
	if slugA == "" || slugB == "" {
		return domain.MatchResult{Matched: false, Method: "slug", Reason: "empty slug"}
	}
	if slugA == slugB {
		return domain.MatchResult{Matched: true, Method: "slug", Score: 1.0}
	}

	ratio := editDistanceRatio(slugA, slugB)
	if ratio >= slugSimilarityThreshold {
		return domain.MatchResult{Matched: true, Method: "slug", Score: ratio}
	}
	return domain.MatchResult{Matched: false, Method: "slug", Score: ratio}
}

// MatchFuzzy combines a Haversine geo-distance gate with token-sort-ratio
// name similarity: if either candidate lacks coordinates, or the two are
// further apart than fuzzyMaxDistanceMeters, no match is possible
// regardless of name similarity. Within range, the combined score is
// 0.7*nameScore + 0.3*locationScore, where locationScore decays
// exponentially with distance; a combined score at or above
// fuzzyMatchThreshold is a match.
func MatchFuzzy(a, b Candidate) domain.MatchResult {
	if !a.HasCoords || !b.HasCoords {
		return domain.MatchResult{Matched: false, Method: "fuzzy", Reason: "missing coordinates"}
	}

	dist := haversineMeters(a.Lat, a.Lng, b.Lat, b.Lng)
	if dist > fuzzyMaxDistanceMeters {
		return domain.MatchResult{Matched: false, Method: "fuzzy", Reason: "out of geo range", Score: 0}
	}

	nameScore := tokenSortRatio(a.Name, b.Name)
	locationScore := expDecay(dist, fuzzyLocationDecayMeters)
	combined := fuzzyNameWeight*nameScore + fuzzyLocationWeight*locationScore

	if combined >= fuzzyMatchThreshold {
		return domain.MatchResult{Matched: true, Method: "fuzzy", Score: combined}
	}
	return domain.MatchResult{Matched: false, Method: "fuzzy", Score: combined}
}

func expDecay(distance, decayConstant float64) float64 {
	return math.Exp(-distance / decayConstant)
}
