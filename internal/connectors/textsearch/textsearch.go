// Package textsearch implements a flat result-array text-search
// connector variant, grounded on original_source/engine/ingestion's
// serper.py: a provider that returns a flat JSON array of results for a
// free-text query.
package textsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/LarjGit/edinburgh-finds-core/internal/connectors"
)

// Connector fetches search results for a configured query from a
// text-search API whose response body is a JSON array.
type Connector struct {
	name     string
	client   *http.Client
	endpoint string
	apiKey   string
	query    string
}

// New builds a textsearch Connector from config. Required keys: "name",
// "endpoint", "api_key", "query".
func New(config map[string]interface{}) (connectors.Connector, error) {
	name, _ := config["name"].(string)
	endpoint, _ := config["endpoint"].(string)
	apiKey, _ := config["api_key"].(string)
	query, _ := config["query"].(string)

	if name == "" || endpoint == "" || apiKey == "" || query == "" {
		return nil, fmt.Errorf("textsearch: config requires name, endpoint, api_key and query")
	}

	return &Connector{
		name:     name,
		client:   http.DefaultClient,
		endpoint: endpoint,
		apiKey:   apiKey,
		query:    query,
	}, nil
}

// SourceName implements connectors.Connector.
func (c *Connector) SourceName() string { return c.name }

// Fetch implements connectors.Connector.
func (c *Connector) Fetch(ctx context.Context) ([]map[string]interface{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("textsearch(%s): build request: %w", c.name, err)
	}
	q := req.URL.Query()
	q.Set("q", c.query)
	req.URL.RawQuery = q.Encode()
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("textsearch(%s): fetch: %w", c.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("textsearch(%s): unexpected status %d", c.name, resp.StatusCode)
	}

	var results []map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("textsearch(%s): decode: %w", c.name, err)
	}
	return results, nil
}
