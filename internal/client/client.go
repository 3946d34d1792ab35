package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/climadados/clima-dashboard/internal/models"
	"github.com/climadados/clima-dashboard/internal/observability"
	"github.com/climadados/clima-dashboard/internal/timeutil"
)

// WeatherAPI is the upstream boundary: free-text city search and current +
// forecast retrieval for a location.
type WeatherAPI interface {
	SearchCities(ctx context.Context, query string) ([]models.City, error)
	Forecast(ctx context.Context, q ForecastQuery) (models.Weather, error)
}

var (
	ErrInvalidAPIKey = errors.New("invalid API key")
	// ErrCityNotFound covers the upstream "no matching location" rejection.
	ErrCityNotFound = errors.New("city not found")
	// ErrUpstreamFailure covers transport errors and non-1006 API errors.
	ErrUpstreamFailure = errors.New("upstream failure")
)

// upstream error code for "no matching location found"
const codeNoMatchingLocation = 1006

// ForecastQuery selects the span of a forecast fetch. Location is free text or
// a "lat,lon" pair. Days is the forecast span for the home flow; Date anchors a
// single day for the detail flow and takes precedence when set.
type ForecastQuery struct {
	Location string
	Days     int
	Date     string
}

// Client talks to the weatherapi.com v1 endpoints (search.json, forecast.json).
// No retries and no caching: a failed call is reported once and the caller
// decides what the user sees.
type Client struct {
	apiKey  string
	baseURL string
	lang    string
	client  *http.Client
}

func New(apiKey, baseURL, lang string, timeout time.Duration) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: API key is required", ErrInvalidAPIKey)
	}
	if lang == "" {
		lang = "pt"
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		lang:    lang,
		client: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Error *apiError `json:"error"`
}

// SearchCities resolves free-text input to candidate cities. Callers must not
// invoke it with an empty query; that short-circuit belongs to the search
// controller.
func (c *Client) SearchCities(ctx context.Context, query string) ([]models.City, error) {
	body, err := c.call(ctx, "search.json", url.Values{"q": []string{query}})
	if err != nil {
		return nil, err
	}

	// search.json answers with a bare array on success and an error envelope
	// otherwise.
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, classifyEnvelope(trimmed)
	}

	var cities []models.City
	if err := json.Unmarshal(trimmed, &cities); err != nil {
		return nil, fmt.Errorf("parse search response: %w", err)
	}
	return cities, nil
}

// Forecast fetches current conditions plus the requested forecast span and
// normalizes the payload: every forecast day's weekday label is recomputed from
// its date, never taken from upstream.
func (c *Client) Forecast(ctx context.Context, q ForecastQuery) (models.Weather, error) {
	params := url.Values{}
	params.Set("q", q.Location)
	if q.Date != "" {
		params.Set("dt", q.Date)
	} else if q.Days > 0 {
		params.Set("days", fmt.Sprintf("%d", q.Days))
	}
	params.Set("aqi", "yes")
	params.Set("alerts", "no")
	params.Set("lang", c.lang)

	body, err := c.call(ctx, "forecast.json", params)
	if err != nil {
		return models.Weather{}, err
	}

	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error != nil {
		return models.Weather{}, classifyAPIError(env.Error)
	}

	var weather models.Weather
	if err := json.Unmarshal(body, &weather); err != nil {
		return models.Weather{}, fmt.Errorf("parse forecast response: %w", err)
	}

	for i := range weather.Forecast.Forecastday {
		day := &weather.Forecast.Forecastday[i]
		label, err := timeutil.WeekdayLabel(day.Date)
		if err != nil {
			return models.Weather{}, fmt.Errorf("%w: %v", ErrUpstreamFailure, err)
		}
		day.WeekDay = label
	}
	return weather, nil
}

// call issues one GET against the named endpoint and returns the raw body.
// HTTP-level failures are classified here; application-level error envelopes
// are left to the caller since success shapes differ per endpoint.
func (c *Client) call(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	start := time.Now()

	req, err := c.buildRequest(ctx, endpoint, params)
	if err != nil {
		observability.UpstreamCallsTotal.WithLabelValues(endpoint, "error").Inc()
		return nil, fmt.Errorf("build request: %w", err)
	}

	if corrID := extractCorrelationID(ctx); corrID != "" {
		req.Header.Set("X-Correlation-ID", corrID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		duration := time.Since(start).Seconds()
		observability.UpstreamCallsTotal.WithLabelValues(endpoint, "error").Inc()
		observability.UpstreamCallDuration.WithLabelValues(endpoint, "error").Observe(duration)

		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("%w: request timeout: %v", ErrUpstreamFailure, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrUpstreamFailure, err)
	}
	defer resp.Body.Close()

	duration := time.Since(start).Seconds()
	status := statusLabel(resp.StatusCode)
	observability.UpstreamCallsTotal.WithLabelValues(endpoint, status).Inc()
	observability.UpstreamCallDuration.WithLabelValues(endpoint, status).Observe(duration)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	// weatherapi.com reports application errors with 400/401/403 and an error
	// envelope in the body.
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if err := classifyEnvelope(body); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: HTTP %d", ErrUpstreamFailure, resp.StatusCode)
	}
	return body, nil
}

func (c *Client) buildRequest(ctx context.Context, endpoint string, params url.Values) (*http.Request, error) {
	baseURL, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}
	baseURL = baseURL.JoinPath(endpoint)

	params.Set("key", c.apiKey)
	baseURL.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", baseURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	return req, nil
}

// classifyEnvelope maps a raw error-envelope body to a sentinel error.
func classifyEnvelope(body []byte) error {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error != nil {
		return classifyAPIError(env.Error)
	}
	return fmt.Errorf("%w: unrecognized response", ErrUpstreamFailure)
}

func classifyAPIError(e *apiError) error {
	switch e.Code {
	case codeNoMatchingLocation:
		return fmt.Errorf("%w: %s", ErrCityNotFound, e.Message)
	case 1002, 2006, 2008:
		return fmt.Errorf("%w: %s", ErrInvalidAPIKey, e.Message)
	default:
		return fmt.Errorf("%w: code %d: %s", ErrUpstreamFailure, e.Code, e.Message)
	}
}

func extractCorrelationID(ctx context.Context) string {
	if corrIDVal := ctx.Value("correlation_id"); corrIDVal != nil {
		if corrID, ok := corrIDVal.(string); ok {
			return corrID
		}
	}
	return ""
}

func statusLabel(statusCode int) string {
	if statusCode >= 200 && statusCode < 300 {
		return "success"
	}
	if statusCode >= 400 && statusCode < 500 {
		return "client_error"
	}
	if statusCode >= 500 {
		return "server_error"
	}
	return "error"
}
