package hashing

import "testing"

func TestContentHashStableAcrossKeyOrder(t *testing.T) {
	a := map[string]interface{}{"b": 1, "a": 2, "c": []interface{}{1, 2, 3}}
	b := map[string]interface{}{"c": []interface{}{1, 2, 3}, "a": 2, "b": 1}

	hashA, err := ContentHash(a)
	if err != nil {
		t.Fatalf("hash a: %v", err)
	}
	hashB, err := ContentHash(b)
	if err != nil {
		t.Fatalf("hash b: %v", err)
	}
	if hashA != hashB {
		t.Fatalf("expected stable hash regardless of key order, got %s != %s", hashA, hashB)
	}
}

func TestContentHashDiffersOnValueChange(t *testing.T) {
	a := map[string]interface{}{"name": "the vault"}
	b := map[string]interface{}{"name": "the vault bar"}

	hashA, _ := ContentHash(a)
	hashB, _ := ContentHash(b)
	if hashA == hashB {
		t.Fatal("expected different hashes for different content")
	}
}

func TestExtractionHashVariesByPromptAndModel(t *testing.T) {
	payload := map[string]interface{}{"name": "x"}

	h1, _ := ExtractionHash(payload, "prompt-a", "model-1")
	h2, _ := ExtractionHash(payload, "prompt-b", "model-1")
	h3, _ := ExtractionHash(payload, "prompt-a", "model-2")

	if h1 == h2 || h1 == h3 || h2 == h3 {
		t.Fatal("expected extraction hash to vary with prompt and model")
	}
}
