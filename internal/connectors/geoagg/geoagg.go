// Package geoagg implements a coordinate-scoped aggregation connector
// variant, grounded on original_source/engine/ingestion's
// open_charge_map.py: a provider queried per lat/lng point over a
// configured grid, whose per-point results are aggregated into one
// fetch.
package geoagg

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/LarjGit/edinburgh-finds-core/internal/connectors"
)

// Point is one lat/lng location the connector queries the provider around.
type Point struct {
	Lat float64
	Lng float64
}

// Connector queries a coordinate-scoped aggregation API once per
// configured point and concatenates the results.
type Connector struct {
	name     string
	client   *http.Client
	endpoint string
	apiKey   string
	points   []Point
	radiusM  float64
}

// New builds a geoagg Connector from config. Required keys: "name",
// "endpoint". "points" ([]interface{} of {"lat":.., "lng":..}) lists the
// query locations; it is not checked here, and with no points Fetch
// returns no items. Optional: "api_key", "radius_m" (default 5000).
func New(config map[string]interface{}) (connectors.Connector, error) {
	name, _ := config["name"].(string)
	endpoint, _ := config["endpoint"].(string)
	apiKey, _ := config["api_key"].(string)
	radiusM, _ := config["radius_m"].(float64)
	if radiusM <= 0 {
		radiusM = 5000
	}

	if name == "" || endpoint == "" {
		return nil, fmt.Errorf("geoagg: config requires name and endpoint")
	}

	var points []Point
	if raw, ok := config["points"].([]interface{}); ok {
		for _, v := range raw {
			if m, ok := v.(map[string]interface{}); ok {
				lat, _ := m["lat"].(float64)
				lng, _ := m["lng"].(float64)
				points = append(points, Point{Lat: lat, Lng: lng})
			}
		}
	}

	return &Connector{name: name, client: http.DefaultClient, endpoint: endpoint, apiKey: apiKey, points: points, radiusM: radiusM}, nil
}

// SourceName implements connectors.Connector.
func (c *Connector) SourceName() string { return c.name }

// Fetch implements connectors.Connector: one provider call per configured
// point, results concatenated. A failure on one point does not abort the
// others, since the grid is redundant by design.
func (c *Connector) Fetch(ctx context.Context) ([]map[string]interface{}, error) {
	var out []map[string]interface{}
	for _, p := range c.points {
		results, err := c.fetchPoint(ctx, p)
		if err != nil {
			continue
		}
		out = append(out, results...)
	}
	return out, nil
}

func (c *Connector) fetchPoint(ctx context.Context, p Point) ([]map[string]interface{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, err
	}
	q := req.URL.Query()
	q.Set("latitude", fmt.Sprintf("%f", p.Lat))
	q.Set("longitude", fmt.Sprintf("%f", p.Lng))
	q.Set("distance", fmt.Sprintf("%f", c.radiusM/1000))
	req.URL.RawQuery = q.Encode()
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geoagg(%s): status %d", c.name, resp.StatusCode)
	}

	var results []map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, err
	}
	return results, nil
}
