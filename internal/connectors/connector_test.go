package connectors

import "testing"

func TestDefaultRegistryHasAllVariants(t *testing.T) {
	r := DefaultRegistry()
	want := []string{VariantTextSearch, VariantPlaceDetails, VariantGeoFeed, VariantRelease, VariantGeoAgg}

	names := make(map[string]bool)
	for _, n := range r.Names() {
		names[n] = true
	}
	for _, w := range want {
		if !names[w] {
			t.Errorf("expected variant %q to be registered", w)
		}
	}
}

func TestBuildUnknownSource(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Build("nope", nil); err == nil {
		t.Fatal("expected error building unknown source")
	}
}
