// Package climatiq realizes the external estimation capability over the
// Climatiq HTTPS estimate API.
package climatiq

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rshade/footprint/internal/estimate"
	"github.com/rshade/footprint/internal/greenops"
	"github.com/rshade/footprint/internal/logging"
)

// maxBody bounds how much of a response is read.
const maxBody = 1 << 20

// Config configures a Client.
type Config struct {
	APIKey      string
	Endpoint    string
	DataVersion string
	// Timeout is applied to the underlying http.Client as an upper bound;
	// callers should still pass a context with a deadline.
	Timeout time.Duration
	// HTTPClient overrides the default client, mainly for tests.
	HTTPClient *http.Client
}

// Client calls the Climatiq estimate endpoint.
type Client struct {
	apiKey      string
	endpoint    string
	dataVersion string
	httpClient  *http.Client
}

// NewClient constructs a client with sane defaults.
func NewClient(cfg Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{
		apiKey:      cfg.APIKey,
		endpoint:    cfg.Endpoint,
		dataVersion: cfg.DataVersion,
		httpClient:  hc,
	}
}

type emissionFactor struct {
	ActivityID  string `json:"activity_id"`
	DataVersion string `json:"data_version"`
	Region      string `json:"region,omitempty"`
}

type estimateRequest struct {
	EmissionFactor emissionFactor `json:"emission_factor"`
	Parameters     map[string]any `json:"parameters"`
}

type estimateResponse struct {
	CO2e     json.RawMessage `json:"co2e"`
	CO2eUnit string          `json:"co2e_unit"`
}

// Body returns the JSON request body for req.
func (c *Client) Body(req estimate.Request) ([]byte, error) {
	params := map[string]any{}
	switch req.Unit {
	case "kWh", "kwh", "MWh", "mwh":
		params["energy"] = req.Quantity
		params["energy_unit"] = req.Unit
	default:
		params["distance"] = req.Quantity
		params["distance_unit"] = req.Unit
	}
	return json.Marshal(estimateRequest{
		EmissionFactor: emissionFactor{
			ActivityID:  req.ActivityID,
			DataVersion: c.dataVersion,
			Region:      req.Region,
		},
		Parameters: params,
	})
}

// Estimate performs one POST to the estimate endpoint. Every failure is an
// *estimate.Error: transport problems are KindUnreachable; non-2xx statuses
// and bodies without a usable co2e value are KindUpstreamRejected.
func (c *Client) Estimate(ctx context.Context, req estimate.Request) (estimate.Response, error) {
	if c.apiKey == "" {
		return estimate.Response{}, estimate.NewError(estimate.KindConfigurationMissing, 0, "",
			errors.New("climatiq api key not set"))
	}

	body, err := c.Body(req)
	if err != nil {
		return estimate.Response{}, estimate.NewError(estimate.KindUpstreamRejected, 0, "", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return estimate.Response{}, estimate.NewError(estimate.KindUnreachable, 0, "", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return estimate.Response{}, estimate.NewError(estimate.KindUnreachable, 0, "", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return estimate.Response{}, estimate.NewError(estimate.KindUnreachable, resp.StatusCode, "", err)
	}

	logging.FromContext(ctx).Debug().
		Ctx(ctx).
		Str("component", "climatiq").
		Str("activity_id", req.ActivityID).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("estimate response")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return estimate.Response{}, estimate.NewError(estimate.KindUpstreamRejected, resp.StatusCode, string(data),
			fmt.Errorf("climatiq returned %s", http.StatusText(resp.StatusCode)))
	}

	kg, err := parseCO2e(data)
	if err != nil {
		return estimate.Response{}, estimate.NewError(estimate.KindUpstreamRejected, resp.StatusCode, string(data), err)
	}
	return estimate.Response{KgCO2e: kg}, nil
}

func parseCO2e(data []byte) (float64, error) {
	var payload estimateResponse
	if err := json.Unmarshal(data, &payload); err != nil {
		return 0, fmt.Errorf("decoding estimate response: %w", err)
	}
	if len(payload.CO2e) == 0 || string(payload.CO2e) == "null" {
		return 0, errors.New("response has no co2e value")
	}
	var value float64
	if err := json.Unmarshal(payload.CO2e, &value); err != nil {
		// Some gateways quote numbers.
		var s string
		if json.Unmarshal(payload.CO2e, &s) != nil {
			return 0, fmt.Errorf("co2e is not numeric: %s", payload.CO2e)
		}
		v, pErr := strconv.ParseFloat(s, 64)
		if pErr != nil {
			return 0, fmt.Errorf("co2e is not numeric: %q", s)
		}
		value = v
	}
	kg, err := greenops.NormalizeToKg(value, payload.CO2eUnit)
	if err != nil {
		return 0, fmt.Errorf("co2e %v %q: %w", value, payload.CO2eUnit, err)
	}
	return kg, nil
}
