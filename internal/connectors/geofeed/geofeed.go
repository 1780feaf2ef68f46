// Package geofeed implements a GeoJSON FeatureCollection connector
// variant, grounded on original_source/engine/ingestion's
// edinburgh_council.py / sport_scotland.py: WFS/ArcGIS-style feeds that
// return one FeatureCollection whose "features" array is the unit of
// work.
package geofeed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/LarjGit/edinburgh-finds-core/internal/connectors"
)

// Connector fetches a GeoJSON FeatureCollection and yields its features.
type Connector struct {
	name     string
	client   *http.Client
	endpoint string
}

// New builds a geofeed Connector from config. Required keys: "name", "endpoint".
func New(config map[string]interface{}) (connectors.Connector, error) {
	name, _ := config["name"].(string)
	endpoint, _ := config["endpoint"].(string)
	if name == "" || endpoint == "" {
		return nil, fmt.Errorf("geofeed: config requires name and endpoint")
	}
	return &Connector{name: name, client: http.DefaultClient, endpoint: endpoint}, nil
}

// SourceName implements connectors.Connector.
func (c *Connector) SourceName() string { return c.name }

type featureCollection struct {
	Features []map[string]interface{} `json:"features"`
}

// Fetch implements connectors.Connector.
func (c *Connector) Fetch(ctx context.Context) ([]map[string]interface{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("geofeed(%s): build request: %w", c.name, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geofeed(%s): fetch: %w", c.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geofeed(%s): unexpected status %d", c.name, resp.StatusCode)
	}

	var fc featureCollection
	if err := json.NewDecoder(resp.Body).Decode(&fc); err != nil {
		return nil, fmt.Errorf("geofeed(%s): decode: %w", c.name, err)
	}
	return fc.Features, nil
}
