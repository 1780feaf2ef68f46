package extractors

import (
	"github.com/LarjGit/edinburgh-finds-core/internal/extractors/geoagg"
	"github.com/LarjGit/edinburgh-finds-core/internal/extractors/geofeed"
	"github.com/LarjGit/edinburgh-finds-core/internal/extractors/placedetails"
	"github.com/LarjGit/edinburgh-finds-core/internal/extractors/release"
	"github.com/LarjGit/edinburgh-finds-core/internal/extractors/textsearch"
)

// Variant names, matching internal/connectors' variant names one-to-one.
const (
	VariantTextSearch   = "textsearch"
	VariantPlaceDetails = "placedetails"
	VariantGeoFeed      = "geofeed"
	VariantRelease      = "release"
	VariantGeoAgg       = "geoagg"
)

// DefaultRegistry returns a Registry with all five shipped extractor
// variants registered under their variant names.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(VariantTextSearch, textsearch.New)
	r.Register(VariantPlaceDetails, placedetails.New)
	r.Register(VariantGeoFeed, geofeed.New)
	r.Register(VariantRelease, release.New)
	r.Register(VariantGeoAgg, geoagg.New)
	return r
}
