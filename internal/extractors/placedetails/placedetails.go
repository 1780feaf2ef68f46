// Package placedetails extracts attributes from single-object place
// details payloads (see internal/connectors/placedetails).
package placedetails

import (
	"context"
	"fmt"

	"github.com/LarjGit/edinburgh-finds-core/internal/extractors"
	"github.com/LarjGit/edinburgh-finds-core/pkg/normalize"
)

// Extractor extracts canonical location attributes from a place-details
// object.
type Extractor struct {
	name string
}

// New builds a placedetails Extractor. Required config key: "name".
func New(config map[string]interface{}) (extractors.Extractor, error) {
	name, _ := config["name"].(string)
	if name == "" {
		return nil, fmt.Errorf("placedetails extractor: config requires name")
	}
	return &Extractor{name: name}, nil
}

// SourceName implements extractors.Extractor.
func (e *Extractor) SourceName() string { return e.name }

// Extract implements extractors.Extractor. Coordinates are emitted as
// the top-level latitude/longitude schema fields, not nested under a
// modules namespace; the raw international_phone_number is passed
// through unnormalized here — Validate reformats it to E.164.
func (e *Extractor) Extract(_ context.Context, item map[string]interface{}) (extractors.ExtractResult, error) {
	if _, ok := item["place_id"]; !ok {
		return extractors.ExtractResult{}, fmt.Errorf("placedetails: item missing place_id")
	}
	externalID, _ := item["place_id"].(string)

	record := map[string]interface{}{
		"name":           item["name"],
		"street_address": item["formatted_address"],
		"phone":          item["international_phone_number"],
		"website_url":    item["website"],
	}

	if geo, ok := item["geometry"].(map[string]interface{}); ok {
		if loc, ok := geo["location"].(map[string]interface{}); ok {
			record["latitude"] = loc["lat"]
			record["longitude"] = loc["lng"]
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
		return nil, fmt.Errorf("placedetails: missing required field name")
	}
	normalize.Record(record)
	return record, nil
}
