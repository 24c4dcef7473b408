package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/types"
)

const (
	defaultBaseURL                  = "https://nominatim.openstreetmap.org"
	defaultLanguage                 = "fr"
	requestBodyReadLimit      int64 = 1024
	coordinateFormatPrecision       = 7
)

var (
	errUserAgentRequired = errors.New("geocoding user agent is required")
	// ErrNoMatch is returned by Search when the provider found nothing.
	ErrNoMatch = errors.New("geocoding: no match")
)

// Client wraps a Nominatim-compatible forward/reverse geocoding API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	language   string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the provider base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithLanguage sets the Accept-Language sent with every request.
func WithLanguage(lang string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(lang)
		if trimmed != "" {
			c.language = trimmed
		}
	}
}

// NewClient builds the geocoding client. Public providers require an identifying user agent.
func NewClient(userAgent string, opts ...Option) (*Client, error) {
	ua := strings.TrimSpace(userAgent)
	if ua == "" {
		return nil, errUserAgentRequired
	}

	client := &Client{
		userAgent:  ua,
		baseURL:    defaultBaseURL,
		language:   defaultLanguage,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

// Place is a single geocoding result.
type Place struct {
	DisplayName string
	Location    types.GeoPoint
}

// Search returns the best match for a free-text query.
func (c *Client) Search(ctx context.Context, query string) (*Place, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "geocoding client not configured")
	}
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "search query is required")
	}

	params := url.Values{}
	params.Set("format", "json")
	params.Set("limit", "1")
	params.Set("q", q)

	var results []struct {
		Lat         string `json:"lat"`
		Lon         string `json:"lon"`
		DisplayName string `json:"display_name"`
	}
	if err := c.get(ctx, "search", params, &results); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ErrNoMatch
	}

	point, err := types.ParseGeoPoint(results[0].Lat, results[0].Lon)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode search coordinates")
	}
	return &Place{DisplayName: results[0].DisplayName, Location: point}, nil
}

// Reverse returns the nearest address for the given coordinates.
func (c *Client) Reverse(ctx context.Context, point types.GeoPoint) (*Place, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "geocoding client not configured")
	}
	if !point.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coordinates out of range")
	}

	params := url.Values{}
	params.Set("format", "json")
	params.Set("lat", strconv.FormatFloat(point.Lat, 'f', coordinateFormatPrecision, 64))
	params.Set("lon", strconv.FormatFloat(point.Lng, 'f', coordinateFormatPrecision, 64))

	var result struct {
		DisplayName string `json:"display_name"`
		Error       string `json:"error"`
	}
	if err := c.get(ctx, "reverse", params, &result); err != nil {
		return nil, err
	}
	if result.Error != "" || strings.TrimSpace(result.DisplayName) == "" {
		return nil, ErrNoMatch
	}
	return &Place{DisplayName: result.DisplayName, Location: point}, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, dest any) error {
	endpoint := c.buildURL(path) + "?" + params.Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build "+path+" request")
	}
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("Accept-Language", c.language)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeNetwork, err, "execute "+path+" request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, requestBodyReadLimit))
		return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), path+" request failed")
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode "+path+" response")
	}
	return nil
}

func (c *Client) buildURL(path string) string {
	trimmed := strings.TrimRight(c.baseURL, "/")
	path = strings.TrimLeft(path, "/")
	return fmt.Sprintf("%s/%s", trimmed, path)
}
