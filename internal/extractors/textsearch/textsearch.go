// Package textsearch extracts attributes from flat text-search results
// (see internal/connectors/textsearch), grounded on
// original_source/engine/extraction/base.py's split_attributes contract.
package textsearch

import (
	"context"
	"fmt"

	"github.com/LarjGit/edinburgh-finds-core/internal/extractors"
	"github.com/LarjGit/edinburgh-finds-core/pkg/normalize"
)

// Extractor extracts name/address/snippet fields from a text-search result.
type Extractor struct {
	name string
}

// New builds a textsearch Extractor. Required config key: "name".
func New(config map[string]interface{}) (extractors.Extractor, error) {
	name, _ := config["name"].(string)
	if name == "" {
		return nil, fmt.Errorf("textsearch extractor: config requires name")
	}
	return &Extractor{name: name}, nil
}

// SourceName implements extractors.Extractor.
func (e *Extractor) SourceName() string { return e.name }

// Extract implements extractors.Extractor.
func (e *Extractor) Extract(_ context.Context, item map[string]interface{}) (extractors.ExtractResult, error) {
	if _, ok := item["title"]; !ok {
		return extractors.ExtractResult{}, fmt.Errorf("textsearch: item missing title")
	}

	record := map[string]interface{}{
		"name":           item["title"],
		"street_address": item["address"],
		"website_url":    item["link"],
	}
	richText, _ := item["snippet"].(string)

	return extractors.ExtractResult{
		Record:   record,
		RichText: richText,
	}, nil
}

// Validate implements extractors.Extractor: enforces the required name
// field and normalizes phone/postcode/coordinates.
func (e *Extractor) Validate(record map[string]interface{}) (map[string]interface{}, error) {
	if name, _ := record["name"].(string); name == "" {
		return nil, fmt.Errorf("textsearch: missing required field name")
	}
	normalize.Record(record)
	return record, nil
}

// ExtractRichText implements extractors.RichTextExtractor.
func (e *Extractor) ExtractRichText(item map[string]interface{}) string {
	s, _ := item["snippet"].(string)
	return s
}
