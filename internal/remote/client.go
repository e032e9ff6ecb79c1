package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/haesinais/aisdash/internal/config"
	"github.com/haesinais/aisdash/internal/vessel"
	"github.com/haesinais/aisdash/pkg/logger"
)

// ErrUnexpectedStatus is wrapped by every error caused by a non-expected HTTP status
var ErrUnexpectedStatus = errors.New("unexpected status code")

// StatusError carries the status code of a rejected request
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %d", ErrUnexpectedStatus, e.Code)
}

func (e *StatusError) Unwrap() error {
	return ErrUnexpectedStatus
}

// Remote API paths
const (
	pathVesselsAll     = "/api/vessels/all"
	pathVesselsAbove60 = "/api/vessels/ships-above-60"
	pathPredict        = "/api/predict"
	pathLogin          = "/login"
	pathJoin           = "/members/join"
)

// Client talks to the remote vessel API
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *logger.Logger
}

// NewClient creates a new remote API client
func NewClient(baseURL string, timeout time.Duration, loggerObj *logger.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: loggerObj.Named("remote-cli"),
	}
}

// BaseURL returns the base URL requests are sent to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// FetchVessels fetches the vessel list from the given source ("all" or "above-60")
func (c *Client) FetchVessels(ctx context.Context, source string) ([]vessel.Record, error) {
	path := pathVesselsAll
	if source == config.VesselSourceAbove60 {
		path = pathVesselsAbove60
	}
	urlStr := c.baseURL + path

	body, err := c.get(ctx, urlStr)
	if err != nil {
		return nil, err
	}

	result, err := vessel.DecodeList(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse vessel list: %w", err)
	}

	if result.Envelope == vessel.EnvelopeNone {
		c.logger.Warn("Vessel list response has no recognizable list",
			logger.String("url", urlStr),
			logger.String("body", preview(body)),
		)
	}

	c.logger.Debug("Successfully fetched vessel list",
		logger.String("envelope", string(result.Envelope)),
		logger.Int("vessel_count", len(result.Records)),
		logger.Int("dropped", result.Dropped),
	)

	return result.Records, nil
}

// Predict fetches the predicted route for a vessel, parsed in the given shape
func (c *Client) Predict(ctx context.Context, mmsi int64, shape string) ([]vessel.RoutePoint, error) {
	urlStr := c.baseURL + pathPredict + "?" + url.Values{"mmsi": {strconv.FormatInt(mmsi, 10)}}.Encode()

	body, err := c.get(ctx, urlStr)
	if err != nil {
		return nil, err
	}

	points, err := vessel.ParsePrediction(body, shape)
	if err != nil {
		return nil, fmt.Errorf("failed to parse prediction for %d: %w", mmsi, err)
	}

	c.logger.Debug("Successfully fetched prediction",
		logger.Int64("mmsi", mmsi),
		logger.Int("points", len(points)),
	)

	return points, nil
}

// Credentials is the body of login and join requests
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login authenticates against the remote API. Success is HTTP 200.
func (c *Client) Login(ctx context.Context, creds Credentials) error {
	return c.postJSON(ctx, pathLogin, creds, http.StatusOK)
}

// Join registers a new member. Success is HTTP 201.
func (c *Client) Join(ctx context.Context, creds Credentials) error {
	return c.postJSON(ctx, pathJoin, creds, http.StatusCreated)
}

func (c *Client) get(ctx context.Context, urlStr string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("Fetching", logger.String("url", urlStr))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	// Any 2xx carries a usable body
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Body: preview(body)}
	}

	return body, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, want int) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != want {
		c.logger.Debug("Request rejected",
			logger.String("path", path),
			logger.Int("status_code", resp.StatusCode),
		)
		return &StatusError{Code: resp.StatusCode, Body: preview(body)}
	}

	return nil
}

// preview shortens body for logging without splitting a rune
func preview(body []byte) string {
	const limit = 200
	if len(body) <= limit {
		return string(body)
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}
	return string(body[:cut]) + "..."
}
