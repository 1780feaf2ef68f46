// Package release extracts attributes from static release-artifact
// items (see internal/connectors/release), e.g. a point-of-interest
// dataset dump.
package release

import (
	"context"
	"fmt"

	"github.com/LarjGit/edinburgh-finds-core/internal/extractors"
	"github.com/LarjGit/edinburgh-finds-core/pkg/normalize"
)

// Extractor extracts canonical attributes from a release-artifact item.
type Extractor struct {
	name string
}

// New builds a release Extractor. Required config key: "name".
func New(config map[string]interface{}) (extractors.Extractor, error) {
	name, _ := config["name"].(string)
	if name == "" {
		return nil, fmt.Errorf("release extractor: config requires name")
	}
	return &Extractor{name: name}, nil
}

// SourceName implements extractors.Extractor.
func (e *Extractor) SourceName() string { return e.name }

// Extract implements extractors.Extractor. Coordinates are emitted as
// the top-level latitude/longitude schema fields, not nested under a
// modules namespace.
func (e *Extractor) Extract(_ context.Context, item map[string]interface{}) (extractors.ExtractResult, error) {
	if _, ok := item["id"]; !ok {
		return extractors.ExtractResult{}, fmt.Errorf("release: item missing id")
	}
	externalID, _ := item["id"].(string)

	names, _ := item["names"].(map[string]interface{})
	var primaryName interface{}
	if names != nil {
		primaryName = names["primary"]
	}

	categories, _ := item["categories"].(map[string]interface{})
	var entityClass interface{}
	if categories != nil {
		entityClass = categories["primary"]
	}

	record := map[string]interface{}{
		"name":         primaryName,
		"entity_class": entityClass,
	}

	if geometry, ok := item["geometry"].(map[string]interface{}); ok {
		if coords, ok := geometry["coordinates"].([]interface{}); ok && len(coords) >= 2 {
			record["longitude"] = coords[0]
			record["latitude"] = coords[1]
		}
	}

	return extractors.ExtractResult{
		Record:     record,
		ExternalID: externalID,
	}, nil
}

// Validate implements extractors.Extractor: enforces the required name
// field and normalizes phone/postcode/coordinates.
func (e *Extractor) Validate(record map[string]interface{}) (map[string]interface{}, error) {
	if name, _ := record["name"].(string); name == "" {
		return nil, fmt.Errorf("release: missing required field name")
	}
	normalize.Record(record)
	return record, nil
}
