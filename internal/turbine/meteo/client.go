// Package meteo pulls historical wind-speed station data used to
// precompute a turbine's cyclic power curve. Structurally grounded on
// devskill-org-miners-scheduler/meteo/client.go's Client, but adapted from
// a single-point forecast endpoint to a nearest-station historical time
// series lookup, since turbine precomputation needs several nearby
// stations to interpolate between rather than one forecast point.
package meteo

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Station is one weather station's location and a short time series of
// wind-speed samples (m/s), at whatever cadence the upstream source
// provides.
type Station struct {
	ID        string    `json:"id"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	WindSpeed []float64 `json:"wind_speed_ms"`
}

// Client fetches station data from a historical weather API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// NewClient creates a Client against baseURL with a sane default timeout.
func NewClient(baseURL, userAgent string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
		userAgent:  userAgent,
	}
}

// NewClientWithHTTPClient allows swapping in a custom http.Client, chiefly
// for tests.
func NewClientWithHTTPClient(baseURL, userAgent string, httpClient *http.Client) *Client {
	return &Client{httpClient: httpClient, baseURL: baseURL, userAgent: userAgent}
}

// APIError is returned when the upstream source responds with a non-200
// status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("meteo: unexpected status %d: %s", e.StatusCode, e.Body)
}

// NearestStations fetches the n stations nearest to (lat, lon).
func (c *Client) NearestStations(lat, lon float64, n int) ([]Station, error) {
	url := fmt.Sprintf("%s/stations/nearest?lat=%f&lon=%f&n=%d", c.baseURL, lat, lon, n)
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("meteo: build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("meteo: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("meteo: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var stations []Station
	if err := json.Unmarshal(body, &stations); err != nil {
		return nil, fmt.Errorf("meteo: decode response: %w", err)
	}
	return stations, nil
}
