package dataprovider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/yourusername/quant-stock/internal/models"
)

func newTestClient(t *testing.T, handler http.Handler) (*EastMoneyClient, func()) {
	t.Helper()
	server := httptest.NewServer(handler)

	cfg := DefaultHTTPClientConfig()
	cfg.MaxRetries = 0
	httpClient := NewRateLimitedHTTPClient(cfg, nil)

	client := NewEastMoneyClient(httpClient, server.URL, nil)
	return client, func() {
		httpClient.Close()
		server.Close()
	}
}

// TestResolveSecID tests stock code validation and market mapping
func TestResolveSecID(t *testing.T) {
	tests := []struct {
		name   string
		code   string
		symbol string
		secid  string
		valid  bool
	}{
		{"Shanghai bare", "600000", "600000", "1.600000", true},
		{"Shanghai suffixed", "600519.SH", "600519", "1.600519", true},
		{"Shenzhen main", "000001.SZ", "000001", "0.000001", true},
		{"Shenzhen ChiNext", "300750", "300750", "0.300750", true},
		{"Too short", "60000", "", "", false},
		{"Bad suffix", "600000.BJ", "", "", false},
		{"Letters", "60000A", "", "", false},
		{"Empty", "", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			symbol, secid, err := resolveSecID(tt.code)
			if tt.valid {
				if err != nil {
					t.Fatalf("Expected no error, got: %v", err)
				}
				if symbol != tt.symbol || secid != tt.secid {
					t.Errorf("Expected %s/%s, got %s/%s", tt.symbol, tt.secid, symbol, secid)
				}
			} else if err == nil {
				t.Errorf("Expected error for code %q", tt.code)
			}
		})
	}
}

// TestParseKline tests decoding of kline records
func TestParseKline(t *testing.T) {
	bar, err := parseKline("2024-01-02,10.50,10.80,10.95,10.40,123456,1334567.50")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if bar.Date.Format(models.DateLayout) != "2024-01-02" {
		t.Errorf("Expected date 2024-01-02, got %s", bar.Date.Format(models.DateLayout))
	}
	if bar.Open != 10.50 || bar.Close != 10.80 || bar.High != 10.95 || bar.Low != 10.40 {
		t.Errorf("Unexpected OHLC: %+v", bar)
	}
	if bar.Volume != 123456 {
		t.Errorf("Expected volume 123456, got %f", bar.Volume)
	}
	if bar.Amount == nil || *bar.Amount != 1334567.50 {
		t.Errorf("Expected amount 1334567.50, got %v", bar.Amount)
	}
}

// TestParseKlineNoAmount tests records without the amount column
func TestParseKlineNoAmount(t *testing.T) {
	bar, err := parseKline("2024-01-02,10.50,10.80,10.95,10.40,123456")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if bar.Amount != nil {
		t.Errorf("Expected nil amount, got %v", bar.Amount)
	}
}

// TestParseKlineMalformed tests rejection of bad records
func TestParseKlineMalformed(t *testing.T) {
	cases := []string{
		"2024-01-02,10.50,10.80",
		"not-a-date,10.50,10.80,10.95,10.40,123456",
		"2024-01-02,abc,10.80,10.95,10.40,123456",
	}
	for _, line := range cases {
		if _, err := parseKline(line); err == nil {
			t.Errorf("Expected error for %q", line)
		}
	}
}

// TestFetchKlines tests a successful kline fetch
func TestFetchKlines(t *testing.T) {
	client, cleanup := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("secid"); got != "1.600000" {
			t.Errorf("Expected secid 1.600000, got %s", got)
		}
		if got := r.URL.Query().Get("klt"); got != "101" {
			t.Errorf("Expected klt 101, got %s", got)
		}
		if got := r.URL.Query().Get("fqt"); got != "1" {
			t.Errorf("Expected fqt 1, got %s", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"code":"600000","name":"浦发银行","klines":[
			"2024-01-02,10.00,10.20,10.30,9.90,100000,1020000.0",
			"2024-01-03,10.20,10.50,10.60,10.10,120000,1260000.0"
		]}}`))
	}))
	defer cleanup()

	bars, err := client.FetchKlines(context.Background(), "600000.SH", models.PeriodDaily, 100)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("Expected 2 bars, got %d", len(bars))
	}
	if bars[1].Close != 10.50 {
		t.Errorf("Expected close 10.50, got %f", bars[1].Close)
	}
}

// TestFetchKlinesPeriodMapping tests weekly and monthly klt codes
func TestFetchKlinesPeriodMapping(t *testing.T) {
	var gotKlt string
	client, cleanup := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKlt = r.URL.Query().Get("klt")
		w.Write([]byte(`{"data":{"code":"600000","klines":["2024-01-05,10,10,10,10,1"]}}`))
	}))
	defer cleanup()

	tests := []struct {
		period models.Period
		klt    string
	}{
		{models.PeriodWeekly, "102"},
		{models.PeriodMonthly, "103"},
	}
	for _, tt := range tests {
		if _, err := client.FetchKlines(context.Background(), "600000", tt.period, 10); err != nil {
			t.Fatalf("Expected no error for %s, got: %v", tt.period, err)
		}
		if gotKlt != tt.klt {
			t.Errorf("Expected klt %s for %s, got %s", tt.klt, tt.period, gotKlt)
		}
	}

	if _, err := client.FetchKlines(context.Background(), "600000", models.Period("hourly"), 10); err == nil {
		t.Error("Expected error for unsupported period")
	}
}

// TestFetchKlinesNotFound tests the empty payload case
func TestFetchKlinesNotFound(t *testing.T) {
	client, cleanup := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":null}`))
	}))
	defer cleanup()

	_, err := client.FetchKlines(context.Background(), "600000", models.PeriodDaily, 10)
	var provErr ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("Expected ProviderError, got: %v", err)
	}
	if provErr.Code != ErrCodeNotFound {
		t.Errorf("Expected code %s, got %s", ErrCodeNotFound, provErr.Code)
	}
}

// TestFetchKlinesServerError tests non-200 status mapping
func TestFetchKlinesServerError(t *testing.T) {
	client, cleanup := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer cleanup()

	_, err := client.FetchKlines(context.Background(), "600000", models.PeriodDaily, 10)
	var provErr ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("Expected ProviderError, got: %v", err)
	}
	if provErr.Code != ErrCodeServerError && provErr.Code != ErrCodeNetworkError {
		t.Errorf("Unexpected error code %s", provErr.Code)
	}
}

// TestFetchKlinesInvalidCode tests that bad codes fail before any request
func TestFetchKlinesInvalidCode(t *testing.T) {
	requested := false
	client, cleanup := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = true
	}))
	defer cleanup()

	_, err := client.FetchKlines(context.Background(), "ABC123", models.PeriodDaily, 10)
	if err == nil {
		t.Fatal("Expected error for invalid code")
	}
	if requested {
		t.Error("Expected no HTTP request for invalid code")
	}
}

// TestFetchStockList tests directory fetch and exchange inference
func TestFetchStockList(t *testing.T) {
	client, cleanup := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"total":3,"diff":[
			{"f12":"600000","f14":"浦发银行"},
			{"f12":"000001","f14":"平安银行"},
			{"f12":"300750","f14":"宁德时代"}
		]}}`))
	}))
	defer cleanup()

	stocks, err := client.FetchStockList(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(stocks) != 3 {
		t.Fatalf("Expected 3 stocks, got %d", len(stocks))
	}

	expected := map[string]string{
		"600000.SH": "SH",
		"000001.SZ": "SZ",
		"300750.SZ": "SZ",
	}
	for _, s := range stocks {
		exchange, ok := expected[s.Code]
		if !ok {
			t.Errorf("Unexpected code %s", s.Code)
			continue
		}
		if s.Exchange != exchange {
			t.Errorf("Expected exchange %s for %s, got %s", exchange, s.Code, s.Exchange)
		}
	}
}

// TestProviderErrorUnwrap tests error chain support
func TestProviderErrorUnwrap(t *testing.T) {
	inner := errors.New("connection reset")
	err := NewProviderError("test", ErrCodeNetworkError, "request failed", inner)
	if !errors.Is(err, inner) {
		t.Error("Expected errors.Is to find wrapped error")
	}
}
