// Package extractors defines the Extractor Interface (C5) and a registry
// of concrete per-source extractors, grounded on
// original_source/engine/extraction/base.py.
package extractors

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/LarjGit/edinburgh-finds-core/pkg/structuredlog"
)

// Extractor turns one raw provider payload item into a flat record of
// schema-primitive keys plus source-native observation keys. extract
// and validate are deliberately separate steps (spec'd as extract →
// validate in that order): Extract never normalizes or drops fields,
// Validate enforces required fields and normalizes formats on the
// record Extract produced.
//
// Boundary contract (hard invariant): Extract must never emit a
// `canonical_*` dimension array or a `modules` key — those are
// finalize-time (entity merger) concerns, not per-source extraction
// concerns. A violation is a structural bug, not a data quirk.
type Extractor interface {
	SourceName() string
	// Validate enforces required fields are present and normalizes
	// formats in place (phone → E.164, postcode → canonical UK form,
	// coordinates checked against ±90/±180 and dropped if invalid). It
	// returns the normalized record.
	Validate(record map[string]interface{}) (map[string]interface{}, error)
	Extract(ctx context.Context, item map[string]interface{}) (ExtractResult, error)
}

// ExtractResult is the structured output of one extraction: a flat
// record of schema-primitive and source-native keys (split into
// attributes/discovered_attributes by SplitAttributes once validated),
// plus optional rich text and the source's external identifier.
type ExtractResult struct {
	Record     map[string]interface{}
	RichText   string
	ExternalID string
}

// schemaAttributeFields names every field the canonical entity model
// defines (identity, geo, postal, contact, canonical dimension
// arrays), matching spec's schema-primitive definition. Anything else
// observed in a record is a discovered (source-native) attribute.
var schemaAttributeFields = map[string]bool{
	"name": true, "entity_name": true, "entity_class": true,
	"latitude": true, "longitude": true,
	"street_address": true, "city": true, "postcode": true, "country": true,
	"phone": true, "email": true, "website_url": true,
	"canonical_activities":  true,
	"canonical_roles":       true,
	"canonical_place_types": true,
	"canonical_access":      true,
}

// SplitAttributes implements C5's split_attributes: schema-defined
// primitives go to attributes, everything else to discovered
// attributes, and the union of the two equals record — no field is
// lost.
func SplitAttributes(record map[string]interface{}) (attributes, discovered map[string]interface{}) {
	attributes = make(map[string]interface{})
	discovered = make(map[string]interface{})
	for k, v := range record {
		if schemaAttributeFields[k] {
			attributes[k] = v
		} else {
			discovered[k] = v
		}
	}
	return attributes, discovered
}

// RichTextExtractor is implemented by extractors that produce a
// free-text narrative beyond their structured attributes. Not every
// extractor has one, matching extract_rich_text's empty-string default
// in the original pipeline.
type RichTextExtractor interface {
	ExtractRichText(item map[string]interface{}) string
}

// Factory builds an Extractor from its source-specific configuration.
type Factory func(config map[string]interface{}) (Extractor, error)

// Registry maps a source variant name to the factory that builds its
// extractor.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under variant name.
func (r *Registry) Register(variant string, factory Factory) {
	r.factories[variant] = factory
}

// Build constructs an Extractor for variant.
func (r *Registry) Build(variant string, config map[string]interface{}) (Extractor, error) {
	factory, ok := r.factories[variant]
	if !ok {
		return nil, &UnknownVariantError{Variant: variant}
	}
	return factory(config)
}

// UnknownVariantError is returned by Build for an unregistered variant.
type UnknownVariantError struct {
	Variant string
}

func (e *UnknownVariantError) Error() string {
	return "extractors: unknown variant " + e.Variant
}

// ExtractWithLogging wraps Extract+Validate with structured
// start/success/failure logging, matching the original pipeline's
// extract_with_logging decorator. Extract runs first to produce the
// flat record, then Validate normalizes it and enforces required
// fields, per C5's extract(raw_item) → record, validate(record) →
// record ordering.
func ExtractWithLogging(ctx context.Context, e Extractor, logger *logrus.Logger, runID string, item map[string]interface{}) (ExtractResult, error) {
	entry := structuredlog.ForStage(logger, runID, "extract")
	entry = structuredlog.WithSource(entry, e.SourceName())

	result, err := e.Extract(ctx, item)
	if err != nil {
		entry.WithError(err).Warn("extraction failed")
		return ExtractResult{}, err
	}

	normalized, err := e.Validate(result.Record)
	if err != nil {
		entry.WithError(err).Warn("record failed validation")
		return ExtractResult{}, err
	}
	result.Record = normalized

	entry.Debug("extraction succeeded")
	return result, nil
}
