// Package release implements a static release-artifact connector
// variant, grounded on original_source/engine/ingestion's
// overture_release.py: resolve a latest-release identifier, download a
// large file once, and cache it locally (optionally zstd-compressed)
// rather than re-downloading on every run.
package release

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/LarjGit/edinburgh-finds-core/internal/connectors"
	"github.com/LarjGit/edinburgh-finds-core/pkg/artifactstore"
	"github.com/LarjGit/edinburgh-finds-core/pkg/hashing"
)

// Connector resolves the latest release from a manifest endpoint,
// downloads the artifact if not already cached, and yields the parsed
// items it contains.
type Connector struct {
	name            string
	client          *http.Client
	manifestURL     string
	artifactStore   *artifactstore.Store
}

// New builds a release Connector from config. Required keys: "name",
// "manifest_url", "cache_dir". Optional: "compress" (bool).
func New(config map[string]interface{}) (connectors.Connector, error) {
	name, _ := config["name"].(string)
	manifestURL, _ := config["manifest_url"].(string)
	cacheDir, _ := config["cache_dir"].(string)
	compress, _ := config["compress"].(bool)

	if name == "" || manifestURL == "" || cacheDir == "" {
		return nil, fmt.Errorf("release: config requires name, manifest_url, cache_dir")
	}

	store, err := artifactstore.New(cacheDir, compress)
	if err != nil {
		return nil, fmt.Errorf("release: %w", err)
	}

	return &Connector{name: name, client: http.DefaultClient, manifestURL: manifestURL, artifactStore: store}, nil
}

// SourceName implements connectors.Connector.
func (c *Connector) SourceName() string { return c.name }

type releaseManifest struct {
	Version     string `json:"version"`
	DownloadURL string `json:"download_url"`
}

// Fetch implements connectors.Connector: resolve the manifest, download
// the artifact only if it isn't already cached under the hash of the
// release version, then parse it as a JSON array of items.
func (c *Connector) Fetch(ctx context.Context) ([]map[string]interface{}, error) {
	manifest, err := c.resolveManifest(ctx)
	if err != nil {
		return nil, fmt.Errorf("release(%s): resolve manifest: %w", c.name, err)
	}

	contentHash, err := hashing.ContentHash(manifest.Version)
	if err != nil {
		return nil, fmt.Errorf("release(%s): hash version: %w", c.name, err)
	}

	var body []byte
	if c.artifactStore.Exists(contentHash) {
		if body, err = c.artifactStore.Get(contentHash); err != nil {
			return nil, fmt.Errorf("release(%s): read cached artifact: %w", c.name, err)
		}
	} else {
		if body, err = c.downloadArtifact(ctx, manifest.DownloadURL); err != nil {
			return nil, fmt.Errorf("release(%s): download: %w", c.name, err)
		}
		if _, err := c.artifactStore.Put(contentHash, body); err != nil {
			return nil, fmt.Errorf("release(%s): cache artifact: %w", c.name, err)
		}
	}

	var items []map[string]interface{}
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("release(%s): parse artifact: %w", c.name, err)
	}
	return items, nil
}

func (c *Connector) resolveManifest(ctx context.Context) (releaseManifest, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.manifestURL, nil)
	if err != nil {
		return releaseManifest{}, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return releaseManifest{}, err
	}
	defer resp.Body.Close()

	var manifest releaseManifest
	if err := json.NewDecoder(resp.Body).Decode(&manifest); err != nil {
		return releaseManifest{}, err
	}
	return manifest, nil
}

func (c *Connector) downloadArtifact(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}
