// Package rideapi is the HTTP client for the external ride-state service,
// the sole owner of durable ride records.
package rideapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/example/ride-booking/internal/errs"
	"github.com/example/ride-booking/internal/models"
)

// API is the surface the lifecycle orchestrator depends on. The driver
// advance is deliberately separate from the read so the read path stays
// idempotent.
type API interface {
	Create(ctx context.Context, req CreateRequest) (models.Ride, error)
	Get(ctx context.Context, id string) (models.Ride, error)
	ListByUser(ctx context.Context, userID string) ([]models.Ride, error)
	UpdateStatus(ctx context.Context, id string, status models.Status) (models.Ride, error)
	AdvanceDriver(ctx context.Context, id string) error
}

// CreateRequest is the booking record sent once payment has confirmed.
type CreateRequest struct {
	UserID     string          `json:"userId"`
	Pickup     models.GeoPoint `json:"pickup"`
	Dropoff    models.GeoPoint `json:"dropoff"`
	DistanceKm float64         `json:"distanceKm"`
	CarType    string          `json:"carType"`
	Price      float64         `json:"price"`
	Status     models.Status   `json:"status"`
	PaymentRef string          `json:"paymentReference"`
}

// Client talks to the ride-state service over HTTP.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{BaseURL: baseURL, HTTP: &http.Client{Timeout: 5 * time.Second}}
}

func (c *Client) Create(ctx context.Context, req CreateRequest) (models.Ride, error) {
	var ride models.Ride
	err := c.do(ctx, http.MethodPost, "/rides", req, &ride, "rideapi.Create")
	return ride, err
}

func (c *Client) Get(ctx context.Context, id string) (models.Ride, error) {
	var ride models.Ride
	err := c.do(ctx, http.MethodGet, "/rides/"+id, nil, &ride, "rideapi.Get")
	return ride, err
}

func (c *Client) ListByUser(ctx context.Context, userID string) ([]models.Ride, error) {
	var rides []models.Ride
	err := c.do(ctx, http.MethodGet, "/rides/user/"+userID, nil, &rides, "rideapi.ListByUser")
	return rides, err
}

func (c *Client) UpdateStatus(ctx context.Context, id string, status models.Status) (models.Ride, error) {
	var ride models.Ride
	body := map[string]string{"status": string(status)}
	err := c.do(ctx, http.MethodPatch, "/rides/"+id+"/status", body, &ride, "rideapi.UpdateStatus")
	return ride, err
}

func (c *Client) AdvanceDriver(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPatch, "/rides/"+id+"/move-driver", nil, nil, "rideapi.AdvanceDriver")
}

func (c *Client) do(ctx context.Context, method, path string, in, out any, op string) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return &errs.NetworkError{Op: op, Err: err}
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+"/api"+path, body)
	if err != nil {
		return &errs.NetworkError{Op: op, Err: err}
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return &errs.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s: %w", op, errs.ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &errs.NetworkError{Op: op, Status: resp.StatusCode}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &errs.NetworkError{Op: op, Err: err}
	}
	return nil
}
