// Package geoagg extracts attributes from coordinate-scoped aggregation
// results (see internal/connectors/geoagg).
package geoagg

import (
	"context"
	"fmt"
	"strconv"

	"github.com/LarjGit/edinburgh-finds-core/internal/extractors"
	"github.com/LarjGit/edinburgh-finds-core/pkg/normalize"
)

// Extractor extracts attributes from a geo-aggregated POI result.
type Extractor struct {
	name string
}

// New builds a geoagg Extractor. Required config key: "name".
func New(config map[string]interface{}) (extractors.Extractor, error) {
	name, _ := config["name"].(string)
	if name == "" {
		return nil, fmt.Errorf("geoagg extractor: config requires name")
	}
	return &Extractor{name: name}, nil
}

// SourceName implements extractors.Extractor.
func (e *Extractor) SourceName() string { return e.name }

// Extract implements extractors.Extractor. Coordinates are emitted as
// the top-level latitude/longitude schema fields, never nested under a
// modules namespace — extractors never emit modules (§4.5).
func (e *Extractor) Extract(_ context.Context, item map[string]interface{}) (extractors.ExtractResult, error) {
	if _, ok := item["ID"]; !ok {
		return extractors.ExtractResult{}, fmt.Errorf("geoagg: item missing ID")
	}

	var externalID string
	switch v := item["ID"].(type) {
	case string:
		externalID = v
	case float64:
		externalID = strconv.FormatFloat(v, 'f', -1, 64)
	}

	info, _ := item["AddressInfo"].(map[string]interface{})
	record := map[string]interface{}{}
	if info != nil {
		record["name"] = info["Title"]
		record["latitude"] = info["Latitude"]
		record["longitude"] = info["Longitude"]
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
		return nil, fmt.Errorf("geoagg: missing required field name")
	}
	normalize.Record(record)
	return record, nil
}
