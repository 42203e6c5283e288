// Package geocode resolves free-text Korean addresses to coordinates via
// the Kakao Local API, with an LRU result cache and a batch resolver that
// paces lookups under the provider's rate ceiling.
package geocode

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

	"github.com/dongnemap/facility-sync/internal/domain"
)

// Geocoder converts one address into coordinates. A nil coordinate with a
// nil error means the provider had no match; that is not a failure.
type Geocoder interface {
	Resolve(ctx context.Context, address string) (*domain.Coord, error)
}

// Client implements Geocoder using the Kakao Local address search API.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a Kakao geocoding client.
func NewClient(apiKey string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: "https://dapi.kakao.com/v2/local/search/address.json",
		logger:  logger,
	}
}

// Resolve looks up an address and returns its coordinates, or nil when the
// provider has no match.
func (c *Client) Resolve(ctx context.Context, address string) (*domain.Coord, error) {
	params := url.Values{"query": {address}, "size": {"1"}}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "KakaoAK "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("kakao API error: status %d: %s", resp.StatusCode, body)
	}

	var kakaoResp response
	if err := json.NewDecoder(resp.Body).Decode(&kakaoResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if len(kakaoResp.Documents) == 0 {
		return nil, nil
	}

	doc := kakaoResp.Documents[0]
	// Kakao returns coordinates as strings: x is longitude, y is latitude.
	lng, errX := strconv.ParseFloat(doc.X, 64)
	lat, errY := strconv.ParseFloat(doc.Y, 64)
	if errX != nil || errY != nil {
		return nil, fmt.Errorf("unparsable coordinates %q,%q for %q", doc.Y, doc.X, address)
	}

	coord := domain.Coord{Lat: lat, Lng: lng}
	if !coord.InBounds() {
		c.logger.Warn("geocoder returned out-of-range coordinates",
			"address", address, "lat", lat, "lng", lng)
		return nil, nil
	}
	return &coord, nil
}

// Kakao API response types.

type response struct {
	Documents []document `json:"documents"`
}

type document struct {
	X string `json:"x"` // longitude
	Y string `json:"y"` // latitude
}
