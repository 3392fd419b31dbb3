package binance

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	httpClient "github.com/Alias1177/TokenTrend/internal/platform/http"
)

const twoCandles = `[
	[1700000000000,"99.5","101.0","99.0","100","10.1",1700003599999,"1010.0",12,"5.0","500.0","0"],
	[1700003600000,"100","112.0","100","110","11.4",1700007199999,"1254.0",15,"6.0","660.0","0"]
]`

func TestGetTrend(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(twoCandles))
	}))
	defer srv.Close()

	c := NewClient(ClientOptions{BaseURL: srv.URL, RequestsPerSec: 100})
	series, err := c.GetTrend(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatalf("GetTrend() error = %v", err)
	}

	if gotPath != "/api/v3/klines" {
		t.Errorf("path = %q", gotPath)
	}
	if gotQuery != "symbol=BTCUSDT&interval=1h&limit=24" {
		t.Errorf("query = %q", gotQuery)
	}
	if len(series) != 2 {
		t.Fatalf("len(series) = %d, want 2", len(series))
	}
	if len(series[0]) != 12 {
		t.Errorf("row arity = %d, want 12 (rows are returned as-is)", len(series[0]))
	}
	if got := series[1].ClosePrice(); got != 110 {
		t.Errorf("close = %v, want 110", got)
	}
}

func TestGetTrendFailure(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{name: "bad symbol", status: http.StatusBadRequest},
		{name: "rate limited", status: http.StatusTooManyRequests},
		{name: "exchange down", status: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"code":-1121,"msg":"Invalid symbol."}`, tt.status)
			}))
			defer srv.Close()

			c := NewClient(ClientOptions{BaseURL: srv.URL, RequestsPerSec: 100})
			_, err := c.GetTrend(context.Background(), "NOPE")
			if !errors.Is(err, ErrFetchFailure) {
				t.Fatalf("error = %v, want fetch failure", err)
			}

			var fetchErr *FetchError
			if !errors.As(err, &fetchErr) || fetchErr.Pair != "NOPE" {
				t.Fatalf("error = %#v, want *FetchError for NOPE", err)
			}
			if !strings.Contains(err.Error(), "NOPE") {
				t.Errorf("message %q does not name the pair", err.Error())
			}

			var statusErr *httpClient.HTTPStatusError
			if !errors.As(err, &statusErr) || statusErr.StatusCode != tt.status {
				t.Errorf("status error = %v, want %d", statusErr, tt.status)
			}
		})
	}
}

func TestGetTrendUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient(ClientOptions{BaseURL: url, RequestsPerSec: 100})
	_, err := c.GetTrend(context.Background(), "BTCUSDT")
	if !errors.Is(err, ErrFetchFailure) {
		t.Fatalf("error = %v, want fetch failure", err)
	}
}

func TestGetTrendBadBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not":"rows"}`))
	}))
	defer srv.Close()

	c := NewClient(ClientOptions{BaseURL: srv.URL, RequestsPerSec: 100})
	_, err := c.GetTrend(context.Background(), "BTCUSDT")
	if err == nil {
		t.Fatal("expected decode error")
	}
	if errors.Is(err, ErrFetchFailure) {
		t.Errorf("decode error should not be a fetch failure: %v", err)
	}
}
