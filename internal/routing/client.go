// Package routing turns two GeoPoints into a drivable path and a trip
// distance via the geoapify routing collaborator.
package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/example/ride-booking/internal/errs"
	"github.com/example/ride-booking/internal/models"
)

// Client queries the routing collaborator over HTTP.
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{BaseURL: baseURL, APIKey: apiKey, HTTP: &http.Client{Timeout: 5 * time.Second}}
}

type routeResponse struct {
	Features []struct {
		Geometry struct {
			Type        string          `json:"type"`
			Coordinates json.RawMessage `json:"coordinates"`
		} `json:"geometry"`
		Properties struct {
			Distance float64 `json:"distance"` // meters
		} `json:"properties"`
	} `json:"features"`
}

// ComputeRoute fetches the route between pickup and dropoff. Any failure,
// from transport up to malformed geometry, comes back as a RoutingError:
// callers treat absence of a route as degraded but non-fatal.
func (c *Client) ComputeRoute(ctx context.Context, pickup, dropoff models.GeoPoint) (models.RouteGeometry, error) {
	q := url.Values{}
	q.Set("waypoints", fmt.Sprintf("%f,%f|%f,%f", pickup.Lat, pickup.Lon, dropoff.Lat, dropoff.Lon))
	q.Set("mode", "drive")
	q.Set("details", "geometry")
	q.Set("apiKey", c.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/routing?"+q.Encode(), nil)
	if err != nil {
		return models.RouteGeometry{}, &errs.RoutingError{Reason: "request build failed", Err: err}
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return models.RouteGeometry{}, &errs.RoutingError{Reason: "routing collaborator unreachable", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.RouteGeometry{}, &errs.RoutingError{
			Reason: "non-success response",
			Err:    &errs.NetworkError{Op: "routing.ComputeRoute", Status: resp.StatusCode},
		}
	}

	var out routeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return models.RouteGeometry{}, &errs.RoutingError{Reason: "malformed response", Err: err}
	}
	if len(out.Features) == 0 {
		return models.RouteGeometry{}, &errs.RoutingError{Reason: "no route"}
	}

	feat := out.Features[0]
	path, err := normalizePath(feat.Geometry.Type, feat.Geometry.Coordinates)
	if err != nil {
		return models.RouteGeometry{}, err
	}

	distanceKm := feat.Properties.Distance / 1000
	if distanceKm <= 0 {
		return models.RouteGeometry{}, &errs.RoutingError{Reason: "no route distance"}
	}

	return models.RouteGeometry{Path: path, DistanceKm: distanceKm}, nil
}

// normalizePath flattens both supported wire encodings to one ordered
// coordinate sequence, flipping the wire's [lon,lat] to [lat,lon]. For a
// MultiLineString only the first segment is taken.
func normalizePath(kind string, raw json.RawMessage) ([]models.LatLon, error) {
	var pairs [][2]float64
	switch kind {
	case "LineString":
		if err := json.Unmarshal(raw, &pairs); err != nil {
			return nil, &errs.RoutingError{Reason: "malformed geometry", Err: err}
		}
	case "MultiLineString":
		var segments [][][2]float64
		if err := json.Unmarshal(raw, &segments); err != nil {
			return nil, &errs.RoutingError{Reason: "malformed geometry", Err: err}
		}
		if len(segments) == 0 {
			return nil, &errs.RoutingError{Reason: "empty geometry"}
		}
		pairs = segments[0]
	default:
		return nil, &errs.RoutingError{Reason: fmt.Sprintf("unsupported geometry type %q", kind)}
	}

	if len(pairs) < 2 {
		return nil, &errs.RoutingError{Reason: "degenerate geometry"}
	}
	path := make([]models.LatLon, len(pairs))
	for i, p := range pairs {
		path[i] = models.LatLon{Lat: p[1], Lon: p[0]}
	}
	return path, nil
}
