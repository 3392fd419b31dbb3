package binance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Alias1177/TokenTrend/models"

	httpClient "github.com/Alias1177/TokenTrend/internal/platform/http"
)

const (
	// DefaultBaseURL is the public Binance spot REST endpoint
	DefaultBaseURL = "https://api.binance.com"

	// Interval and limit are fixed: one day of hourly candles.
	trendInterval = "1h"
	trendLimit    = 24
)

// ErrFetchFailure is matched by every *FetchError.
var ErrFetchFailure = errors.New("fetch failure")

// FetchError is returned when the klines request does not succeed,
// whatever the cause (transport, 4xx, 5xx).
type FetchError struct {
	Pair string
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch trend data for %s", e.Pair)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool { return target == ErrFetchFailure }

// Client is the Binance klines client
type Client struct {
	baseURL    string
	httpClient *httpClient.Client
}

// ClientOptions holds options for creating a new Binance client
type ClientOptions struct {
	BaseURL        string
	RequestTimeout time.Duration
	RequestsPerSec int
}

// NewClient creates a new Binance klines client
func NewClient(options ClientOptions) *Client {
	if options.BaseURL == "" {
		options.BaseURL = DefaultBaseURL
	}

	return &Client{
		baseURL: options.BaseURL,
		httpClient: httpClient.NewClient(httpClient.ClientOptions{
			Timeout:        options.RequestTimeout,
			RequestsPerSec: options.RequestsPerSec,
		}),
	}
}

// GetTrend fetches the last 24 hourly candles for pair.
// The pair is interpolated as given; no validation is done here.
func (c *Client) GetTrend(ctx context.Context, pair string) (models.TrendSeries, error) {
	url := fmt.Sprintf(
		"%s/api/v3/klines?symbol=%s&interval=%s&limit=%d",
		c.baseURL,
		pair,
		trendInterval,
		trendLimit,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{Pair: pair, Err: fmt.Errorf("creating request: %w", err)}
	}

	resp, err := c.httpClient.DoRequest(ctx, req)
	if err != nil {
		return nil, &FetchError{Pair: pair, Err: err}
	}
	defer resp.Body.Close()

	var series models.TrendSeries
	if err := json.NewDecoder(resp.Body).Decode(&series); err != nil {
		return nil, fmt.Errorf("parsing klines for %s: %w", pair, err)
	}

	return series, nil
}
