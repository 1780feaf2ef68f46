// Package placedetails implements a single-object place-details
// connector variant, grounded on original_source/engine/ingestion's
// google_places.py: the provider returns one JSON object per configured
// place ID rather than a result array.
package placedetails

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/LarjGit/edinburgh-finds-core/internal/connectors"
)

// Connector fetches a single place-details object per configured place ID.
type Connector struct {
	name      string
	client    *http.Client
	endpoint  string
	apiKey    string
	placeIDs  []string
}

// New builds a placedetails Connector from config. Required keys:
// "name", "endpoint", "api_key", "place_ids" ([]interface{} of strings).
func New(config map[string]interface{}) (connectors.Connector, error) {
	name, _ := config["name"].(string)
	endpoint, _ := config["endpoint"].(string)
	apiKey, _ := config["api_key"].(string)

	if name == "" || endpoint == "" || apiKey == "" {
		return nil, fmt.Errorf("placedetails: config requires name, endpoint and api_key")
	}

	var placeIDs []string
	if raw, ok := config["place_ids"].([]interface{}); ok {
		for _, v := range raw {
			if s, ok := v.(string); ok {
				placeIDs = append(placeIDs, s)
			}
		}
	}
	if len(placeIDs) == 0 {
		return nil, fmt.Errorf("placedetails: config requires place_ids")
	}

	return &Connector{name: name, client: http.DefaultClient, endpoint: endpoint, apiKey: apiKey, placeIDs: placeIDs}, nil
}

// SourceName implements connectors.Connector.
func (c *Connector) SourceName() string { return c.name }

// Fetch implements connectors.Connector. Each configured place ID yields
// at most one item; a provider-side 404 for one place ID does not fail
// the whole fetch, matching the per-item failure tolerance the
// quarantine stage is designed around.
func (c *Connector) Fetch(ctx context.Context) ([]map[string]interface{}, error) {
	var out []map[string]interface{}
	for _, placeID := range c.placeIDs {
		item, err := c.fetchOne(ctx, placeID)
		if err != nil {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func (c *Connector) fetchOne(ctx context.Context, placeID string) (map[string]interface{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, err
	}
	q := req.URL.Query()
	q.Set("place_id", placeID)
	req.URL.RawQuery = q.Encode()
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("placedetails(%s): place %s: status %d", c.name, placeID, resp.StatusCode)
	}

	var item map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		return nil, err
	}
	return item, nil
}
