// Package hazard provides the HTTP client for the hazard data API.
package hazard

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mapaction/hazardview/internal/metrics"
	"github.com/mapaction/hazardview/internal/selection"

	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"
)

// Endpoint labels used in logs and metrics.
const (
	EndpointHazard    = "hazard"
	EndpointCountries = "countries"
)

// maxBodySize caps a response body read into memory.
const maxBodySize = 64 << 20

// Client talks to the hazard API. It issues exactly one request per call
// and never retries.
type Client struct {
	httpClient *http.Client
	metrics    *metrics.Metrics
	baseURL    string
	maxBody    int64
}

// NewClient creates a client for the API rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration, m *metrics.Metrics) *Client {
	if m == nil {
		m = metrics.NewUnregistered()
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		metrics:    m,
		baseURL:    strings.TrimRight(baseURL, "/"),
		maxBody:    maxBodySize,
	}
}

// BaseURL returns the API root the client was created with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Load fetches the hazard dataset for a validated selection and decodes it
// according to the selection's format.
func (c *Client) Load(ctx context.Context, sel selection.Selection) (Payload, error) {
	url := c.baseURL + sel.Path()

	body, err := c.get(ctx, EndpointHazard, url)
	if err != nil {
		return Payload{}, err
	}

	if KindFor(sel.Format) == KindTable {
		c.observe(EndpointHazard, "success")
		return TablePayload(string(body)), nil
	}

	fc, err := geojson.UnmarshalFeatureCollection(body)
	if err != nil {
		c.observe(EndpointHazard, "decode_error")
		return Payload{}, &DecodeError{URL: url, Err: err}
	}

	c.observe(EndpointHazard, "success")
	log.Debug().
		Str("url", url).
		Int("features", len(fc.Features)).
		Msg("Hazard features decoded")

	return GeoPayload(fc), nil
}

// Countries fetches the list of countries the API has data for, in the
// order the API returns them.
func (c *Client) Countries(ctx context.Context) ([]Country, error) {
	url := c.baseURL + "/countries/"

	body, err := c.get(ctx, EndpointCountries, url)
	if err != nil {
		return nil, err
	}

	var list []Country
	if err := json.Unmarshal(body, &list); err != nil {
		c.observe(EndpointCountries, "decode_error")
		return nil, &DecodeError{URL: url, Err: err}
	}

	c.observe(EndpointCountries, "success")
	return list, nil
}

// get performs a GET and returns the body of a 2xx response.
func (c *Client) get(ctx context.Context, endpoint, url string) ([]byte, error) {
	start := time.Now()
	defer func() {
		c.metrics.FetchDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		c.observe(endpoint, "network_error")
		return nil, &NetworkError{URL: url, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("User-Agent", "hazardview/1.0")

	log.Debug().Str("endpoint", endpoint).Str("url", url).Msg("Fetching")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(endpoint, "network_error")
		return nil, &NetworkError{URL: url, Err: err}
	}
	// Explicitly ignore close error as it's a read-only operation
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, c.maxBody))
		c.observe(endpoint, "network_error")
		return nil, &NetworkError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		c.observe(endpoint, "network_error")
		return nil, &NetworkError{URL: url, Err: fmt.Errorf("read body: %w", err)}
	}
	if int64(len(body)) > c.maxBody {
		c.observe(endpoint, "network_error")
		return nil, &NetworkError{URL: url, Err: fmt.Errorf("response exceeds %d bytes", c.maxBody)}
	}

	return body, nil
}

func (c *Client) observe(endpoint, outcome string) {
	c.metrics.FetchRequests.WithLabelValues(endpoint, outcome).Inc()
}
