// Package nominatim resolves postal codes to coordinates via the OSM
// Nominatim search API.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sabateri/water-quality/internal/domain"
	"github.com/sabateri/water-quality/internal/observability"
)

// Client implements pipeline.Geocoder using the Nominatim search API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a Nominatim geocoding client. The Nominatim usage policy
// requires an identifying User-Agent on every request.
func NewClient(baseURL, userAgent string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		userAgent:  userAgent,
		logger:     logger,
		metrics:    metrics,
	}
}

// GeocodePostalCode resolves a postal code within a country to coordinates
// using a structured query. No match returns (nil, nil), not an error; the
// caller does not distinguish "unknown postal code" from "provider down"
// beyond logging.
func (c *Client) GeocodePostalCode(ctx context.Context, postalCode, countryCode string) (*domain.GeoPoint, error) {
	params := url.Values{
		"postalcode": {postalCode},
		"country":    {countryCode},
		"format":     {"jsonv2"},
		"limit":      {"1"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("nominatim API error: status %d: %s", resp.StatusCode, body)
	}

	var places []place
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if len(places) == 0 {
		c.metrics.GeocodeRequests.WithLabelValues("no_match").Inc()
		c.logger.Info("postal code not found", "postal_code", postalCode, "country", countryCode)
		return nil, nil
	}

	// Nominatim serves coordinates as strings.
	lat, latErr := strconv.ParseFloat(places[0].Lat, 64)
	lon, lonErr := strconv.ParseFloat(places[0].Lon, 64)
	if latErr != nil || lonErr != nil {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("parse coordinates %q,%q", places[0].Lat, places[0].Lon)
	}

	c.metrics.GeocodeRequests.WithLabelValues("match").Inc()
	return &domain.GeoPoint{Lat: lat, Lon: lon}, nil
}

// Nominatim API response types.

type place struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}
