package connectors

import (
	"github.com/LarjGit/edinburgh-finds-core/internal/connectors/geoagg"
	"github.com/LarjGit/edinburgh-finds-core/internal/connectors/geofeed"
	"github.com/LarjGit/edinburgh-finds-core/internal/connectors/placedetails"
	"github.com/LarjGit/edinburgh-finds-core/internal/connectors/release"
	"github.com/LarjGit/edinburgh-finds-core/internal/connectors/textsearch"
)

// Variant names register each shipped connector under its source-type
// name, distinct from the per-instance "name" a deployment config assigns
// an individual connector (e.g. variant "geofeed" might back both
// "edinburgh_council" and "sport_scotland" source instances).
const (
	VariantTextSearch   = "textsearch"
	VariantPlaceDetails = "placedetails"
	VariantGeoFeed      = "geofeed"
	VariantRelease      = "release"
	VariantGeoAgg       = "geoagg"
)

// DefaultRegistry returns a Registry with all five shipped connector
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
