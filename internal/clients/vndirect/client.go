// Package vndirect provides a price-only client for the VNDirect finfo API
package vndirect

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/bobmcallan/vnstock-chat/internal/clients/rest"
	"github.com/bobmcallan/vnstock-chat/internal/common"
	"github.com/bobmcallan/vnstock-chat/internal/interfaces"
	"github.com/bobmcallan/vnstock-chat/internal/models"
)

const (
	DefaultBaseURL   = "https://finfo-api.vndirect.com.vn"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 5
	SourceName       = "VND"

	pageSize = 100
)

// VNDirect quotes prices in thousands of VND
var priceScale = decimal.NewFromInt(1000)

// Client implements interfaces.DataProvider. Only price history is available;
// fundamentals return models.ErrNotSupported.
type Client struct {
	baseURL string
	timeout time.Duration
	retry   rest.RetryPolicy
	http    *resty.Client
	logger  *common.Logger
	limiter *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
		}
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithRetryPolicy sets the retry policy
func WithRetryPolicy(p rest.RetryPolicy) ClientOption {
	return func(c *Client) {
		c.retry = p
	}
}

// NewClient creates a new VNDirect client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		timeout: DefaultTimeout,
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.http = rest.NewClient(c.baseURL, c.timeout, c.retry)
	return c
}

// Name returns the source tag
func (c *Client) Name() string {
	return SourceName
}

type stockPricesResponse struct {
	Data []struct {
		Code     string  `json:"code"`
		Date     string  `json:"date"`
		Open     float64 `json:"open"`
		High     float64 `json:"high"`
		Low      float64 `json:"low"`
		Close    float64 `json:"close"`
		NmVolume float64 `json:"nmVolume"`
	} `json:"data"`
	TotalElements int `json:"totalElements"`
}

// GetPriceHistory retrieves daily bars between from and to, oldest first
func (c *Client) GetPriceHistory(ctx context.Context, symbol string, from, to time.Time) ([]models.PriceBar, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	q := fmt.Sprintf("code:%s~date:gte:%s~date:lte:%s",
		symbol,
		from.In(common.VietnamLocation).Format(common.DateLayout),
		to.In(common.VietnamLocation).Format(common.DateLayout))

	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"sort": "date",
			"q":    q,
			"size": fmt.Sprintf("%d", pageSize),
			"page": "1",
		}).
		Get("/v4/stock_prices")
	if err != nil {
		return nil, fmt.Errorf("VNDirect request failed: %w", err)
	}

	c.logger.Debug().
		Str("symbol", symbol).
		Int("status", resp.StatusCode()).
		Dur("elapsed", time.Since(start)).
		Msg("VNDirect stock_prices")

	if err := rest.CheckResponse(SourceName, resp); err != nil {
		return nil, err
	}

	var body stockPricesResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, fmt.Errorf("failed to decode VNDirect response: %w", err)
	}

	bars := make([]models.PriceBar, 0, len(body.Data))
	for _, d := range body.Data {
		if d.Close <= 0 || !strings.EqualFold(d.Code, symbol) {
			continue
		}
		date, err := time.ParseInLocation(common.DateLayout, d.Date, common.VietnamLocation)
		if err != nil {
			continue
		}
		bars = append(bars, models.PriceBar{
			Date:   date,
			Open:   decimal.NewFromFloat(d.Open).Mul(priceScale),
			High:   decimal.NewFromFloat(d.High).Mul(priceScale),
			Low:    decimal.NewFromFloat(d.Low).Mul(priceScale),
			Close:  decimal.NewFromFloat(d.Close).Mul(priceScale),
			Volume: int64(d.NmVolume),
		})
	}

	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: no VNDirect price data for %s", models.ErrNoData, symbol)
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}

// GetCompanyProfile is not offered by this source
func (c *Client) GetCompanyProfile(ctx context.Context, symbol string) (*models.CompanyProfile, error) {
	return nil, fmt.Errorf("VNDirect company profile: %w", models.ErrNotSupported)
}

// GetRatios is not offered by this source
func (c *Client) GetRatios(ctx context.Context, symbol string) (*models.FinancialRatios, error) {
	return nil, fmt.Errorf("VNDirect ratios: %w", models.ErrNotSupported)
}

// GetFinancialReport is not offered by this source
func (c *Client) GetFinancialReport(ctx context.Context, symbol string, kind models.ReportKind, period models.ReportPeriod) (*models.FinancialReport, error) {
	return nil, fmt.Errorf("VNDirect financial report: %w", models.ErrNotSupported)
}

var _ interfaces.DataProvider = (*Client)(nil)
