// Package geofeed extracts attributes from GeoJSON feature payloads
// (see internal/connectors/geofeed).
package geofeed

import (
	"context"
	"fmt"

	"github.com/LarjGit/edinburgh-finds-core/internal/extractors"
	"github.com/LarjGit/edinburgh-finds-core/pkg/normalize"
)

// Extractor extracts a name and geometry from a GeoJSON Feature.
type Extractor struct {
	name string
}

// New builds a geofeed Extractor. Required config key: "name".
func New(config map[string]interface{}) (extractors.Extractor, error) {
	name, _ := config["name"].(string)
	if name == "" {
		return nil, fmt.Errorf("geofeed extractor: config requires name")
	}
	return &Extractor{name: name}, nil
}

// SourceName implements extractors.Extractor.
func (e *Extractor) SourceName() string { return e.name }

// Extract implements extractors.Extractor. Coordinates are emitted as
// the top-level latitude/longitude schema fields, not nested under a
// modules namespace.
func (e *Extractor) Extract(_ context.Context, item map[string]interface{}) (extractors.ExtractResult, error) {
	if _, ok := item["geometry"]; !ok {
		return extractors.ExtractResult{}, fmt.Errorf("geofeed: feature missing geometry")
	}
	if _, ok := item["properties"]; !ok {
		return extractors.ExtractResult{}, fmt.Errorf("geofeed: feature missing properties")
	}

	props, _ := item["properties"].(map[string]interface{})
	geometry, _ := item["geometry"].(map[string]interface{})

	record := map[string]interface{}{
		"name": props["name"],
	}

	if coords, ok := geometry["coordinates"].([]interface{}); ok && len(coords) >= 2 {
		record["longitude"] = coords[0]
		record["latitude"] = coords[1]
	}

	return extractors.ExtractResult{Record: record}, nil
}

// Validate implements extractors.Extractor: enforces the required name
// field and normalizes phone/postcode/coordinates.
func (e *Extractor) Validate(record map[string]interface{}) (map[string]interface{}, error) {
	if name, _ := record["name"].(string); name == "" {
		return nil, fmt.Errorf("geofeed: missing required field name")
	}
	normalize.Record(record)
	return record, nil
}
