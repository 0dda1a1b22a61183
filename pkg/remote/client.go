package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/arnavshah/manifest-api-go/pkg/logger"
	"github.com/arnavshah/manifest-api-go/pkg/models"
	"golang.org/x/oauth2"
)

// Client talks to the upstream trip service over its REST API
type Client struct {
	baseURL string
	http    *http.Client
	logger  logger.Logger
}

// NewClient creates a client for baseURL. A non-empty token is sent as a
// bearer token on every request.
func NewClient(baseURL, token string, log logger.Logger) *Client {
	httpClient := &http.Client{Timeout: 30 * time.Second}
	if token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: token,
			TokenType:   "Bearer",
		}))
		httpClient.Timeout = 30 * time.Second
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		logger:  log,
	}
}

// StatusError is a non-2xx response from the upstream service
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s returned status %d: %s", e.Method, e.Path, e.Code, e.Body)
}

// wireTrip is the trip shape used by the upstream service
type wireTrip struct {
	ID                 string         `json:"_id,omitempty"`
	PassengerID        string         `json:"passengerId"`
	FromOrigin         string         `json:"fromOrigin"`
	ToDestination      string         `json:"toDestination"`
	TripDate           string         `json:"tripDate"`
	Confirmed          bool           `json:"confirmed"`
	NumberOfPassengers *int           `json:"numberOfPassengers,omitempty"`
	SortIndices        map[string]int `json:"sortIndices"`
}

func (w wireTrip) toModel() models.Trip {
	return models.Trip{
		ID:                 w.ID,
		PassengerID:        w.PassengerID,
		FromOrigin:         w.FromOrigin,
		ToDestination:      w.ToDestination,
		TripDate:           w.TripDate,
		Confirmed:          w.Confirmed,
		NumberOfPassengers: w.NumberOfPassengers,
		SortIndices:        models.SortIndicesFromStringMap(w.SortIndices),
	}
}

func toWire(t models.Trip) wireTrip {
	return wireTrip{
		ID:                 t.ID,
		PassengerID:        t.PassengerID,
		FromOrigin:         t.FromOrigin,
		ToDestination:      t.ToDestination,
		TripDate:           t.TripDate,
		Confirmed:          t.Confirmed,
		NumberOfPassengers: t.NumberOfPassengers,
		SortIndices:        t.SortIndices.StringMap(),
	}
}

// ListTrips fetches every trip
func (c *Client) ListTrips(ctx context.Context) ([]models.Trip, error) {
	var wire []wireTrip
	if err := c.do(ctx, http.MethodGet, "/api/trips", nil, &wire); err != nil {
		return nil, err
	}
	trips := make([]models.Trip, len(wire))
	for i, w := range wire {
		trips[i] = w.toModel()
	}
	return trips, nil
}

// ListSites fetches every site snapshot
func (c *Client) ListSites(ctx context.Context) ([]models.Site, error) {
	var sites []models.Site
	if err := c.do(ctx, http.MethodGet, "/api/sites", nil, &sites); err != nil {
		return nil, err
	}
	return sites, nil
}

// ListPassengers fetches every passenger
func (c *Client) ListPassengers(ctx context.Context) ([]models.Passenger, error) {
	var passengers []models.Passenger
	if err := c.do(ctx, http.MethodGet, "/api/passengers", nil, &passengers); err != nil {
		return nil, err
	}
	return passengers, nil
}

// PatchTripSortIndices sends PATCH /api/trips/:id/sort
func (c *Client) PatchTripSortIndices(ctx context.Context, tripID string, indices models.SortIndices) error {
	body := map[string]any{"sortIndices": indices.StringMap()}
	return c.do(ctx, http.MethodPatch, "/api/trips/"+url.PathEscape(tripID)+"/sort", body, nil)
}

// ReplaceTrip sends PUT /api/trips/:id with the full record
func (c *Client) ReplaceTrip(ctx context.Context, tripID string, trip models.Trip) (models.Trip, error) {
	trip.ID = tripID
	var saved wireTrip
	if err := c.do(ctx, http.MethodPut, "/api/trips/"+url.PathEscape(tripID), toWire(trip), &saved); err != nil {
		return models.Trip{}, err
	}
	if saved.ID == "" {
		return trip, nil
	}
	return saved.toModel(), nil
}

// CreateTrip sends POST /api/trips
func (c *Client) CreateTrip(ctx context.Context, input models.TripInput) (models.Trip, error) {
	var saved wireTrip
	if err := c.do(ctx, http.MethodPost, "/api/trips", toWire(input.Trip("")), &saved); err != nil {
		return models.Trip{}, err
	}
	return saved.toModel(), nil
}

// DeleteTrip sends DELETE /api/trips/:id
func (c *Client) DeleteTrip(ctx context.Context, tripID string) error {
	return c.do(ctx, http.MethodDelete, "/api/trips/"+url.PathEscape(tripID), nil, nil)
}

// CreatePassenger sends POST /api/passengers
func (c *Client) CreatePassenger(ctx context.Context, p models.Passenger) (models.Passenger, error) {
	var saved models.Passenger
	if err := c.do(ctx, http.MethodPost, "/api/passengers", p, &saved); err != nil {
		return models.Passenger{}, err
	}
	return saved, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return models.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("Upstream request failed", "method", method, "path", path, "status", resp.StatusCode)
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
