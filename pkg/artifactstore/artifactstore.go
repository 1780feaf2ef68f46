// Package artifactstore implements the Artifact Store (C2): content-
// addressed storage for RawCapture payloads and large connector
// artifacts (e.g. release-artifact downloads), grounded on
// original_source/engine/ingestion/storage.py. Large artifacts may be
// stored zstd-compressed via github.com/klauspost/compress.
package artifactstore

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

// Store persists artifacts under a content hash key, optionally
// zstd-compressed, on the local filesystem. A real deployment can back
// this with object storage behind the same interface; this is the
// shipped in-process reference implementation (see SPEC_FULL.md §1).
type Store struct {
	baseDir  string
	compress bool
}

// New builds a Store rooted at baseDir. If compress is true, Put
// transparently zstd-compresses the artifact and Get transparently
// decompresses it.
func New(baseDir string, compress bool) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("artifactstore: create base dir: %w", err)
	}
	return &Store{baseDir: baseDir, compress: compress}, nil
}

// Put stores data under contentHash, returning the artifact URI it was
// written to.
func (s *Store) Put(contentHash string, data []byte) (string, error) {
	path := s.pathFor(contentHash)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("artifactstore: create artifact dir: %w", err)
	}

	payload := data
	if s.compress {
		compressed, err := compressZstd(data)
		if err != nil {
			return "", fmt.Errorf("artifactstore: compress: %w", err)
		}
		payload = compressed
	}

	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return "", fmt.Errorf("artifactstore: write: %w", err)
	}
	return path, nil
}

// Get retrieves the artifact stored under contentHash.
func (s *Store) Get(contentHash string) ([]byte, error) {
	path := s.pathFor(contentHash)
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("artifactstore: read: %w", err)
	}
	if !s.compress {
		return raw, nil
	}
	return decompressZstd(raw)
}

// Exists reports whether an artifact is already stored under contentHash,
// used by the release connector to skip re-downloading a cached artifact.
func (s *Store) Exists(contentHash string) bool {
	_, err := os.Stat(s.pathFor(contentHash))
	return err == nil
}

func (s *Store) pathFor(contentHash string) string {
	if len(contentHash) < 4 {
		return filepath.Join(s.baseDir, contentHash)
	}
	return filepath.Join(s.baseDir, contentHash[:2], contentHash[2:4], contentHash)
}

func compressZstd(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := zstd.NewWriter(&buf)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompressZstd(data []byte) ([]byte, error) {
	r, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
