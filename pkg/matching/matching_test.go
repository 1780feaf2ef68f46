package matching

import "testing"

func TestMatchExternalID(t *testing.T) {
	a := map[string]string{"google_place_id": "ABC-123"}
	b := map[string]string{"google_place_id": " abc-123 "}
	if res := MatchExternalID(a, b); !res.Matched {
		t.Fatal("expected case/whitespace-insensitive external id match")
	}
	if res := MatchExternalID(map[string]string{}, map[string]string{"x": "1"}); res.Matched {
		t.Fatal("expected no match when one side has no external ids")
	}
	if res := MatchExternalID(map[string]string{"a": "1"}, map[string]string{"b": "1"}); res.Matched {
		t.Fatal("expected no match when keys don't overlap")
	}
}

func TestMatchSlug(t *testing.T) {
	if res := MatchSlug("The Royal Garden", "Royal Garden"); !res.Matched {
		t.Fatal("expected near-identical names to slug-match")
	}
	if res := MatchSlug("The Royal Garden", "Completely Different Place"); res.Matched {
		t.Fatal("expected unrelated names not to slug-match")
	}
}

func TestMatchFuzzyRequiresCoordsAndProximity(t *testing.T) {
	a := Candidate{Name: "Riverside Cafe", Lat: 55.95, Lng: -3.19, HasCoords: true}
	b := Candidate{Name: "Riverside Cafe", HasCoords: false}
	if res := MatchFuzzy(a, b); res.Matched {
		t.Fatal("expected no match without coordinates on both sides")
	}

	far := Candidate{Name: "Riverside Cafe", Lat: 51.5, Lng: -0.1, HasCoords: true}
	if res := MatchFuzzy(a, far); res.Matched {
		t.Fatal("expected no match beyond the geo distance gate")
	}

	near := Candidate{Name: "Riverside Cafe", Lat: 55.9501, Lng: -3.1901, HasCoords: true}
	if res := MatchFuzzy(a, near); !res.Matched {
		t.Fatalf("expected match for nearby identical name, got score %v", res.Score)
	}
}

func TestDeduplicatorCascade(t *testing.T) {
	d := NewDeduplicator()
	a := Candidate{ExternalIDs: map[string]string{"id": "X1"}, Name: "Place One", Lat: 1, Lng: 1, HasCoords: true}
	b := Candidate{ExternalIDs: map[string]string{"id": "x1"}, Name: "Totally Different Name", Lat: 99, Lng: 99, HasCoords: true}

	res := d.Match(a, b)
	if !res.Matched || res.Method != "external_id" {
		t.Fatalf("expected external_id to short-circuit the cascade, got %+v", res)
	}
}

func TestFindDuplicatesGroupsByAnyMatcher(t *testing.T) {
	d := NewDeduplicator()
	candidates := []Candidate{
		{Name: "The Vault Bar", Lat: 55.95, Lng: -3.19, HasCoords: true},
		{Name: "Vault Bar", Lat: 55.9501, Lng: -3.1901, HasCoords: true},
		{Name: "Unrelated Cafe", Lat: 10, Lng: 10, HasCoords: true},
	}

	groups := d.FindDuplicates(candidates)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d: %+v", len(groups), groups)
	}
}
