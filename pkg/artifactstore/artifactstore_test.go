package artifactstore

import (
	"testing"
)

func TestPutGetRoundTrip(t *testing.T) {
	store, err := New(t.TempDir(), false)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	hash := "abcd1234"
	payload := []byte(`{"name":"test"}`)

	if _, err := store.Put(hash, payload); err != nil {
		t.Fatalf("put: %v", err)
	}
	if !store.Exists(hash) {
		t.Fatal("expected artifact to exist after put")
	}

	got, err := store.Get(hash)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != string(payload) {
		t.Fatalf("round trip mismatch: got %q want %q", got, payload)
	}
}

func TestPutGetRoundTripCompressed(t *testing.T) {
	store, err := New(t.TempDir(), true)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	hash := "ffff0000"
	payload := []byte("a large release artifact payload, repeated. " +
		"a large release artifact payload, repeated.")

	if _, err := store.Put(hash, payload); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := store.Get(hash)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != string(payload) {
		t.Fatalf("compressed round trip mismatch: got %q want %q", got, payload)
	}
}
