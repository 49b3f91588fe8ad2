package dataprovider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/quant-stock/internal/models"
)

const (
	providerName = "eastmoney"

	// kline type codes used by the quote API
	kltDaily   = "101"
	kltWeekly  = "102"
	kltMonthly = "103"
)

var stockCodePattern = regexp.MustCompile(`^\d{6}(\.(SH|SZ))?$`)

// EastMoneyClient implements Provider against the Eastmoney quote API.
type EastMoneyClient struct {
	httpClient *RateLimitedHTTPClient
	baseURL    string
	logger     *logrus.Logger
}

// NewEastMoneyClient creates a new Eastmoney API client
func NewEastMoneyClient(httpClient *RateLimitedHTTPClient, baseURL string, logger *logrus.Logger) *EastMoneyClient {
	if baseURL == "" {
		baseURL = "https://push2his.eastmoney.com"
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &EastMoneyClient{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger,
	}
}

// Name returns the provider name
func (c *EastMoneyClient) Name() string {
	return providerName
}

// klineResponse mirrors the quote API kline payload
type klineResponse struct {
	Data *struct {
		Code   string   `json:"code"`
		Name   string   `json:"name"`
		Klines []string `json:"klines"`
	} `json:"data"`
}

// listResponse mirrors the quote API stock directory payload
type listResponse struct {
	Data *struct {
		Total int `json:"total"`
		Diff  []struct {
			Code string `json:"f12"`
			Name string `json:"f14"`
		} `json:"diff"`
	} `json:"data"`
}

// FetchKlines retrieves forward-adjusted bars for one stock
func (c *EastMoneyClient) FetchKlines(ctx context.Context, code string, period models.Period, limit int) (models.BarSeries, error) {
	symbol, secid, err := resolveSecID(code)
	if err != nil {
		return nil, err
	}

	klt, err := periodKlt(period)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10000
	}

	url := fmt.Sprintf(
		"%s/api/qt/stock/kline/get?secid=%s&klt=%s&fqt=1&lmt=%d&end=20500101&fields1=f1,f2,f3,f4,f5,f6&fields2=f51,f52,f53,f54,f55,f56,f57",
		c.baseURL, secid, klt, limit,
	)

	c.logger.WithFields(logrus.Fields{
		"stock_code": symbol,
		"period":     period,
		"limit":      limit,
	}).Debug("Fetching klines")

	var payload klineResponse
	if err := c.getJSON(ctx, url, &payload); err != nil {
		return nil, err
	}
	if payload.Data == nil || len(payload.Data.Klines) == 0 {
		return nil, NewProviderError(providerName, ErrCodeNotFound,
			fmt.Sprintf("no kline data for %s", symbol), nil)
	}

	bars := make(models.BarSeries, 0, len(payload.Data.Klines))
	for _, line := range payload.Data.Klines {
		bar, err := parseKline(line)
		if err != nil {
			return nil, NewProviderError(providerName, ErrCodeInvalidData,
				fmt.Sprintf("malformed kline for %s", symbol), err)
		}
		bars = append(bars, bar)
	}

	return bars, nil
}

// FetchStockList retrieves the A-share directory across both exchanges
func (c *EastMoneyClient) FetchStockList(ctx context.Context) ([]*models.Stock, error) {
	url := fmt.Sprintf(
		"%s/api/qt/clist/get?pn=1&pz=10000&po=0&fid=f12&fs=m:0+t:6,m:0+t:80,m:1+t:2,m:1+t:23&fields=f12,f14",
		c.baseURL,
	)

	var payload listResponse
	if err := c.getJSON(ctx, url, &payload); err != nil {
		return nil, err
	}
	if payload.Data == nil || len(payload.Data.Diff) == 0 {
		return nil, NewProviderError(providerName, ErrCodeNotFound, "empty stock directory", nil)
	}

	stocks := make([]*models.Stock, 0, len(payload.Data.Diff))
	for _, entry := range payload.Data.Diff {
		if len(entry.Code) != 6 {
			continue
		}
		exchange := "SZ"
		if strings.HasPrefix(entry.Code, "6") {
			exchange = "SH"
		}
		stocks = append(stocks, &models.Stock{
			Code:     entry.Code + "." + exchange,
			Name:     entry.Name,
			Exchange: exchange,
		})
	}

	return stocks, nil
}

func (c *EastMoneyClient) getJSON(ctx context.Context, url string, out interface{}) error {
	resp, err := c.httpClient.Get(ctx, url)
	if err != nil {
		return NewProviderError(providerName, ErrCodeNetworkError, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return NewProviderError(providerName, ErrCodeRateLimitExceeded, "rate limit exceeded", nil)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return NewProviderError(providerName, ErrCodeServerError,
			fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(body)), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return NewProviderError(providerName, ErrCodeInvalidData, "failed to parse response", err)
	}
	return nil
}

// resolveSecID validates a stock code and maps it to the quote API
// security id. Shanghai listings (6xxxxx) live on market 1, Shenzhen
// on market 0.
func resolveSecID(code string) (symbol, secid string, err error) {
	if !stockCodePattern.MatchString(code) {
		return "", "", NewProviderError(providerName, ErrCodeInvalidData,
			fmt.Sprintf("invalid stock code format: %s", code), nil)
	}
	symbol = code[:6]
	market := "0"
	if strings.HasPrefix(symbol, "6") {
		market = "1"
	}
	return symbol, market + "." + symbol, nil
}

func periodKlt(period models.Period) (string, error) {
	switch period {
	case models.PeriodDaily:
		return kltDaily, nil
	case models.PeriodWeekly:
		return kltWeekly, nil
	case models.PeriodMonthly:
		return kltMonthly, nil
	default:
		return "", NewProviderError(providerName, ErrCodeInvalidData,
			fmt.Sprintf("unsupported period: %s", period), nil)
	}
}

// parseKline decodes one comma-separated kline record:
// date,open,close,high,low,volume,amount
func parseKline(line string) (models.Bar, error) {
	fields := strings.Split(line, ",")
	if len(fields) < 6 {
		return models.Bar{}, fmt.Errorf("expected at least 6 fields, got %d", len(fields))
	}

	date, err := time.Parse(models.DateLayout, fields[0])
	if err != nil {
		return models.Bar{}, fmt.Errorf("bad date %q: %w", fields[0], err)
	}

	values := make([]float64, 5)
	for i := 0; i < 5; i++ {
		d, err := decimal.NewFromString(fields[i+1])
		if err != nil {
			return models.Bar{}, fmt.Errorf("bad numeric field %q: %w", fields[i+1], err)
		}
		values[i], _ = d.Float64()
	}

	bar := models.Bar{
		Date:   date,
		Open:   values[0],
		Close:  values[1],
		High:   values[2],
		Low:    values[3],
		Volume: values[4],
	}

	if len(fields) >= 7 {
		if d, err := decimal.NewFromString(fields[6]); err == nil {
			amount, _ := d.Float64()
			bar.Amount = &amount
		}
	}

	return bar, nil
}
