package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Alias1177/TokenTrend/internal/api/binance"
	"github.com/Alias1177/TokenTrend/internal/query"
)

const twoCandles = `[[1700000000000,"99","101","98","100","5",1700003599999,"0",1,"0","0","0"],` +
	`[1700003600000,"100","111","100","110","7",1700007199999,"0",1,"0","0","0"]]`

type exchange struct {
	srv     *httptest.Server
	hits    atomic.Int32
	status  int
	release chan struct{}
}

func newExchange(t *testing.T, status int) *exchange {
	t.Helper()
	ex := &exchange{status: status}
	ex.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ex.hits.Add(1)
		if ex.release != nil {
			<-ex.release
		}
		if ex.status != http.StatusOK {
			http.Error(w, `{"code":-1003}`, ex.status)
			return
		}
		w.Write([]byte(twoCandles))
	}))
	t.Cleanup(ex.srv.Close)
	return ex
}

func newTestServer(t *testing.T, ex *exchange) (*Server, *query.Client) {
	t.Helper()
	bc := binance.NewClient(binance.ClientOptions{BaseURL: ex.srv.URL, RequestsPerSec: 100})
	qc := query.New(bc, query.Options{Retry: 0}, zerolog.Nop())
	t.Cleanup(qc.Clear)

	renders, err := NewRenderCache(1)
	if err != nil {
		t.Fatalf("NewRenderCache() error = %v", err)
	}
	t.Cleanup(renders.Close)

	return New(qc, renders, zerolog.Nop()), qc
}

func get(t *testing.T, s *Server, path string) (*http.Response, string) {
	t.Helper()
	resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, string(body)
}

func TestWidgetLoaded(t *testing.T) {
	ex := newExchange(t, http.StatusOK)
	s, _ := newTestServer(t, ex)

	resp, body := get(t, s, "/widget/BTCUSDT?wait=true")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, body)
	}
	if view := resp.Header.Get("X-Widget-View"); view != "loaded" {
		t.Errorf("X-Widget-View = %q", view)
	}
	for _, want := range []string{"BTC/USDT", "$110", "+10.00%"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}

	_, again := get(t, s, "/widget/BTCUSDT")
	if again != body {
		t.Errorf("cached render differs:\n%s\nvs\n%s", again, body)
	}
	if got := ex.hits.Load(); got != 1 {
		t.Fatalf("exchange hits = %d, want 1", got)
	}
}

func TestWidgetExchangeFailure(t *testing.T) {
	ex := newExchange(t, http.StatusInternalServerError)
	s, _ := newTestServer(t, ex)

	resp, body := get(t, s, "/widget/BTCUSDT?wait=true")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(body, `role="alert"`) {
		t.Errorf("expected error placeholder, got:\n%s", body)
	}
	if strings.Contains(body, "24h") {
		t.Errorf("error view rendered loaded markup:\n%s", body)
	}
}

func TestWidgetColdPairShowsLoading(t *testing.T) {
	ex := newExchange(t, http.StatusOK)
	ex.release = make(chan struct{})
	s, qc := newTestServer(t, ex)

	resp, body := get(t, s, "/widget/ETHUSDT")
	if view := resp.Header.Get("X-Widget-View"); view != "loading" {
		t.Errorf("X-Widget-View = %q", view)
	}
	if !strings.Contains(body, "skeleton-el") {
		t.Errorf("expected skeleton, got:\n%s", body)
	}

	close(ex.release)
	deadline := time.Now().Add(2 * time.Second)
	for qc.Peek("ETHUSDT").Status != query.StatusSuccess {
		if time.Now().After(deadline) {
			t.Fatal("background fetch never completed")
		}
		time.Sleep(5 * time.Millisecond)
	}

	_, body = get(t, s, "/widget/ETHUSDT")
	if !strings.Contains(body, "ETH/USDT") || !strings.Contains(body, "+10.00%") {
		t.Errorf("expected loaded widget, got:\n%s", body)
	}
}

func TestTrendAPI(t *testing.T) {
	ex := newExchange(t, http.StatusOK)
	s, _ := newTestServer(t, ex)

	resp, body := get(t, s, "/api/trend/BTCUSDT?wait=true")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, body)
	}

	var got trendResponse
	if err := json.Unmarshal([]byte(body), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Status != "success" || got.View != "loaded" {
		t.Errorf("status/view = %s/%s", got.Status, got.View)
	}
	if got.CurrentPrice == nil || *got.CurrentPrice != 110 {
		t.Errorf("current_price = %v", got.CurrentPrice)
	}
	if got.ChangePercent == nil || *got.ChangePercent != 10 {
		t.Errorf("change_percent = %v", got.ChangePercent)
	}
	if got.Change != "+10.00%" || !got.IsPositive {
		t.Errorf("change = %q positive = %v", got.Change, got.IsPositive)
	}
	if got.Sparkline != "M0,12 L40,0" {
		t.Errorf("sparkline = %q", got.Sparkline)
	}
	if got.Candles != 2 {
		t.Errorf("candles = %d", got.Candles)
	}
}

func TestTrendAPIFailure(t *testing.T) {
	ex := newExchange(t, http.StatusBadRequest)
	s, _ := newTestServer(t, ex)

	resp, body := get(t, s, "/api/trend/NOPE?wait=true")
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, body)
	}
	if !strings.Contains(body, "failed to fetch trend data for NOPE") {
		t.Errorf("body = %s", body)
	}
}

func TestPairsSurviveLaterRequests(t *testing.T) {
	ex := newExchange(t, http.StatusOK)
	s, qc := newTestServer(t, ex)

	get(t, s, "/api/trend/AAAUSDT?wait=true")
	get(t, s, "/api/trend/ZZZUSDT?wait=true")
	get(t, s, "/widget/QQQUSDT?wait=true")

	for _, pair := range []string{"AAAUSDT", "ZZZUSDT", "QQQUSDT"} {
		st := qc.Peek(pair)
		if st.Status != query.StatusSuccess || st.Pair != pair {
			t.Errorf("Peek(%s) = status %v pair %q", pair, st.Status, st.Pair)
		}
	}
	if n := qc.Len(); n != 3 {
		t.Errorf("Len() = %d, want 3", n)
	}

	resp, _ := get(t, s, "/api/trend/AAAUSDT")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("cached pair status = %d, want 200", resp.StatusCode)
	}
	if got := ex.hits.Load(); got != 3 {
		t.Errorf("exchange hits = %d, want 3", got)
	}
}

func TestHealth(t *testing.T) {
	ex := newExchange(t, http.StatusOK)
	s, _ := newTestServer(t, ex)

	resp, body := get(t, s, "/healthz")
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, `"status":"ok"`) {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, body)
	}
}
