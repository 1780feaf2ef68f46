package extractors

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
)

type stubExtractor struct {
	failValidate bool
	source       string
}

func (s *stubExtractor) SourceName() string { return s.source }

func (s *stubExtractor) Validate(record map[string]interface{}) (map[string]interface{}, error) {
	if s.failValidate {
		return nil, &UnknownVariantError{Variant: "stub"}
	}
	return record, nil
}

func (s *stubExtractor) Extract(_ context.Context, item map[string]interface{}) (ExtractResult, error) {
	return ExtractResult{Record: map[string]interface{}{"name": item["name"]}}, nil
}

func TestExtractWithLoggingSuccess(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(discardWriter{})

	e := &stubExtractor{source: "stub"}
	result, err := ExtractWithLogging(context.Background(), e, logger, "run-1", map[string]interface{}{"name": "x"})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if result.Record["name"] != "x" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestExtractWithLoggingValidationFailure(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(discardWriter{})

	e := &stubExtractor{source: "stub", failValidate: true}
	if _, err := ExtractWithLogging(context.Background(), e, logger, "run-1", map[string]interface{}{"name": "x"}); err == nil {
		t.Fatal("expected validation error to propagate")
	}
}

func TestSplitAttributesUnionEqualsInput(t *testing.T) {
	record := map[string]interface{}{
		"name":           "The Vault",
		"street_address": "1 High St",
		"operator_name":  "Acme",
		"usage_type":     "public",
	}
	attributes, discovered := SplitAttributes(record)

	if attributes["name"] != "The Vault" || attributes["street_address"] != "1 High St" {
		t.Fatalf("expected schema fields in attributes, got %+v", attributes)
	}
	if discovered["operator_name"] != "Acme" || discovered["usage_type"] != "public" {
		t.Fatalf("expected non-schema fields in discovered, got %+v", discovered)
	}
	if len(attributes)+len(discovered) != len(record) {
		t.Fatalf("expected union of attributes and discovered to equal input, got %d+%d != %d",
			len(attributes), len(discovered), len(record))
	}
}

func TestSplitAttributesAddsNoModulesKeyAndKeepsCanonicalArrays(t *testing.T) {
	record := map[string]interface{}{
		"name":                 "The Vault",
		"canonical_activities": []interface{}{"padel"},
	}
	attributes, _ := SplitAttributes(record)
	if _, ok := attributes["modules"]; ok {
		t.Fatal("expected attributes to never contain a modules key")
	}
	if _, ok := attributes["canonical_activities"]; !ok {
		t.Fatal("expected canonical dimension arrays to be schema attributes once produced by finalize-time merge")
	}
}

func TestRegistryUnknownVariant(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Build("nope", nil); err == nil {
		t.Fatal("expected error for unknown variant")
	}
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
