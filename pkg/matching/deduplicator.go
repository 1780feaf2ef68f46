package matching

import "github.com/LarjGit/edinburgh-finds-core/pkg/domain"

// Deduplicator runs the matching cascade in increasing order of cost and
// decreasing order of certainty: external ID first, then slug, then the
// fuzzy geo+name matcher. The first matcher to report a match wins; if
// none match, the candidates are treated as distinct entities.
type Deduplicator struct{}

// NewDeduplicator builds a Deduplicator.
func NewDeduplicator() *Deduplicator {
	return &Deduplicator{}
}

// Match runs the full cascade against two candidates.
func (d *Deduplicator) Match(a, b Candidate) domain.MatchResult {
	if result := MatchExternalID(a.ExternalIDs, b.ExternalIDs); result.Matched {
		return result
	}

	if result := MatchSlug(a.Name, b.Name); result.Matched {
		return result
	}

	return MatchFuzzy(a, b)
}

// FindDuplicates computes equivalence groups over candidates by
// iterating all pairs and union-ing positive matches (spec §4.8's
// find_duplicates: O(n^2), sufficient for the batch sizes this pipeline
// processes; an external-ID/slug pre-bucket is a valid optimization for
// larger inputs). Returns groups of indices into candidates.
func (d *Deduplicator) FindDuplicates(candidates []Candidate) [][]int {
	parent := make([]int, len(candidates))
	for i := range parent {
		parent[i] = i
	}

	var find func(int) int
	find = func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	union := func(x, y int) {
		rx, ry := find(x), find(y)
		if rx != ry {
			parent[rx] = ry
		}
	}

	for i := 0; i < len(candidates); i++ {
		for j := i + 1; j < len(candidates); j++ {
			if d.Match(candidates[i], candidates[j]).Matched {
				union(i, j)
			}
		}
	}

	groups := make(map[int][]int)
	for i := range candidates {
		root := find(i)
		groups[root] = append(groups[root], i)
	}

	result := make([][]int, 0, len(groups))
	for _, members := range groups {
		result = append(result, members)
	}
	return result
}
