// Package geocode wraps the geocoding collaborator and the keystroke-level
// resolver that decides when a lookup is actually issued.
package geocode

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

// Client performs autocomplete lookups against the geoapify geocoding API.
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{BaseURL: baseURL, APIKey: apiKey, HTTP: &http.Client{Timeout: 5 * time.Second}}
}

type autocompleteResponse struct {
	Features []struct {
		Properties struct {
			Formatted string  `json:"formatted"`
			Lat       float64 `json:"lat"`
			Lon       float64 `json:"lon"`
		} `json:"properties"`
	} `json:"features"`
}

// Autocomplete resolves free text into candidate points. The context is
// honored mid-flight so a superseded keystroke can abort the request.
func (c *Client) Autocomplete(ctx context.Context, text string, limit int) ([]models.GeoPoint, error) {
	q := url.Values{}
	q.Set("text", text)
	q.Set("limit", fmt.Sprintf("%d", limit))
	q.Set("apiKey", c.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/geocode/autocomplete?"+q.Encode(), nil)
	if err != nil {
		return nil, &errs.NetworkError{Op: "geocode.Autocomplete", Err: err}
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, &errs.NetworkError{Op: "geocode.Autocomplete", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &errs.NetworkError{Op: "geocode.Autocomplete", Status: resp.StatusCode}
	}

	var out autocompleteResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &errs.NetworkError{Op: "geocode.Autocomplete", Err: err}
	}

	points := make([]models.GeoPoint, 0, len(out.Features))
	for _, f := range out.Features {
		points = append(points, models.GeoPoint{
			Label: f.Properties.Formatted,
			Lat:   f.Properties.Lat,
			Lon:   f.Properties.Lon,
		})
	}
	return points, nil
}
