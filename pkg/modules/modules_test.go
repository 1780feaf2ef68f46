package modules

import (
	"testing"
)

func TestValidateNamespacing(t *testing.T) {
	good := map[string]interface{}{
		"accessibility": map[string]interface{}{"wheelchair": true},
	}
	if err := ValidateNamespacing(good); err != nil {
		t.Fatalf("expected valid namespacing, got %v", err)
	}

	bad := map[string]interface{}{
		"accessibility": "wheelchair",
	}
	if err := ValidateNamespacing(bad); err == nil {
		t.Fatal("expected error for non-map module value")
	}
}

func TestLoadStrictDetectsDuplicateKeys(t *testing.T) {
	data := []byte(`
sources:
  serper:
    trust: 80
  serper:
    trust: 90
`)
	var out map[string]interface{}
	err := LoadStrict(data, &out)
	if err == nil {
		t.Fatal("expected duplicate key error")
	}
	if _, ok := err.(*DuplicateKeyError); !ok {
		t.Fatalf("expected DuplicateKeyError, got %T: %v", err, err)
	}
}

func TestLoadStrictAcceptsCleanDocument(t *testing.T) {
	data := []byte(`
sources:
  serper:
    trust: 80
  google_places:
    trust: 95
`)
	var out map[string]interface{}
	if err := LoadStrict(data, &out); err != nil {
		t.Fatalf("expected clean document to load, got %v", err)
	}
}
