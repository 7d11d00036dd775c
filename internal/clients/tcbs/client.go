// Package tcbs provides a client for the TCBS public market data API
package tcbs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
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
	DefaultBaseURL   = "https://apipubaws.tcbs.com.vn"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 5 // requests per second
	SourceName       = "TCBS"
)

// Client implements interfaces.DataProvider against TCBS
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

// WithRetryPolicy sets the retry policy for 429/5xx responses
func WithRetryPolicy(p rest.RetryPolicy) ClientOption {
	return func(c *Client) {
		c.retry = p
	}
}

// NewClient creates a new TCBS client
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

// get performs a rate-limited GET request and decodes the JSON body into result
func (c *Client) get(ctx context.Context, path string, params map[string]string, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(path)
	if err != nil {
		return fmt.Errorf("TCBS request %s failed: %w", path, err)
	}

	c.logger.Debug().
		Str("path", path).
		Int("status", resp.StatusCode()).
		Dur("elapsed", time.Since(start)).
		Msg("TCBS request")

	if err := rest.CheckResponse(SourceName, resp); err != nil {
		return err
	}

	if err := json.Unmarshal(resp.Body(), result); err != nil {
		return fmt.Errorf("failed to decode TCBS response from %s: %w", path, err)
	}
	return nil
}

// barsResponse is the bars-long-term payload
type barsResponse struct {
	Ticker string `json:"ticker"`
	Data   []struct {
		Open        float64 `json:"open"`
		High        float64 `json:"high"`
		Low         float64 `json:"low"`
		Close       float64 `json:"close"`
		Volume      int64   `json:"volume"`
		TradingDate string  `json:"tradingDate"`
	} `json:"data"`
}

// GetPriceHistory retrieves daily bars between from and to, oldest first
func (c *Client) GetPriceHistory(ctx context.Context, symbol string, from, to time.Time) ([]models.PriceBar, error) {
	params := map[string]string{
		"ticker":     symbol,
		"type":       "stock",
		"resolution": "D",
		"from":       strconv.FormatInt(startOfDay(from).Unix(), 10),
		"to":         strconv.FormatInt(endOfDay(to).Unix(), 10),
	}

	var resp barsResponse
	if err := c.get(ctx, "/stock-insight/v2/stock/bars-long-term", params, &resp); err != nil {
		return nil, err
	}

	bars := make([]models.PriceBar, 0, len(resp.Data))
	for _, d := range resp.Data {
		if d.Close <= 0 {
			continue
		}
		date, err := parseTradingDate(d.TradingDate)
		if err != nil {
			c.logger.Debug().Str("symbol", symbol).Str("trading_date", d.TradingDate).Msg("Skipping bar with unparseable date")
			continue
		}
		bars = append(bars, models.PriceBar{
			Date:   date,
			Open:   decimal.NewFromFloat(d.Open),
			High:   decimal.NewFromFloat(d.High),
			Low:    decimal.NewFromFloat(d.Low),
			Close:  decimal.NewFromFloat(d.Close),
			Volume: d.Volume,
		})
	}

	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: no TCBS price data for %s", models.ErrNoData, symbol)
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}

// overviewResponse is the ticker overview payload
type overviewResponse struct {
	Ticker           string  `json:"ticker"`
	Exchange         string  `json:"exchange"`
	ShortName        string  `json:"shortName"`
	Industry         string  `json:"industry"`
	NoEmployees      int64   `json:"noEmployees"`
	OutstandingShare float64 `json:"outstandingShare"` // millions
	Website          string  `json:"website"`
}

// GetCompanyProfile retrieves the company overview
func (c *Client) GetCompanyProfile(ctx context.Context, symbol string) (*models.CompanyProfile, error) {
	var resp overviewResponse
	if err := c.get(ctx, fmt.Sprintf("/tcanalysis/v1/ticker/%s/overview", symbol), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Ticker == "" && resp.ShortName == "" {
		return nil, fmt.Errorf("%w: %s", models.ErrSymbolNotFound, symbol)
	}

	return &models.CompanyProfile{
		Symbol:            symbol,
		Name:              resp.ShortName,
		Exchange:          resp.Exchange,
		Industry:          resp.Industry,
		Employees:         resp.NoEmployees,
		OutstandingShares: int64(resp.OutstandingShare * 1_000_000),
		Website:           resp.Website,
	}, nil
}

// ratioRow is one period of the financialratio payload. ROE/ROA are fractions.
type ratioRow struct {
	Quarter         int      `json:"quarter"`
	Year            int      `json:"year"`
	PriceToEarning  *float64 `json:"priceToEarning"`
	PriceToBook     *float64 `json:"priceToBook"`
	ROE             *float64 `json:"roe"`
	ROA             *float64 `json:"roa"`
	EarningPerShare *float64 `json:"earningPerShare"`
}

// GetRatios retrieves the most recent quarterly ratios
func (c *Client) GetRatios(ctx context.Context, symbol string) (*models.FinancialRatios, error) {
	var rows []ratioRow
	params := map[string]string{"yearly": "0", "isAll": "false"}
	if err := c.get(ctx, fmt.Sprintf("/tcanalysis/v1/finance/%s/financialratio", symbol), params, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no TCBS ratios for %s", models.ErrNoData, symbol)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Year != rows[j].Year {
			return rows[i].Year > rows[j].Year
		}
		return rows[i].Quarter > rows[j].Quarter
	})
	latest := rows[0]

	return &models.FinancialRatios{
		Period: periodLabel(latest.Year, latest.Quarter),
		PE:     decimalPtr(latest.PriceToEarning, 1),
		PB:     decimalPtr(latest.PriceToBook, 1),
		ROE:    decimalPtr(latest.ROE, 100),
		ROA:    decimalPtr(latest.ROA, 100),
		EPS:    decimalPtr(latest.EarningPerShare, 1),
	}, nil
}

var reportPaths = map[models.ReportKind]string{
	models.ReportIncome:   "incomestatement",
	models.ReportBalance:  "balancesheet",
	models.ReportCashFlow: "cashflow",
}

// GetFinancialReport retrieves a statement, newest period first
func (c *Client) GetFinancialReport(ctx context.Context, symbol string, kind models.ReportKind, period models.ReportPeriod) (*models.FinancialReport, error) {
	segment, ok := reportPaths[kind]
	if !ok {
		return nil, fmt.Errorf("unknown report kind %q", kind)
	}

	yearly := "1"
	if period == models.PeriodQuarter {
		yearly = "0"
	}

	var raw []map[string]json.RawMessage
	params := map[string]string{"yearly": yearly, "isAll": "true"}
	if err := c.get(ctx, fmt.Sprintf("/tcanalysis/v1/finance/%s/%s", symbol, segment), params, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: no TCBS %s for %s", models.ErrNoData, kind, symbol)
	}

	report := &models.FinancialReport{
		Symbol: symbol,
		Kind:   kind,
		Period: period,
		Rows:   make([]models.FinancialRow, 0, len(raw)),
	}
	for _, fields := range raw {
		row := models.FinancialRow{Values: make(map[string]float64)}
		for k, v := range fields {
			var f float64
			if err := json.Unmarshal(v, &f); err != nil {
				continue // strings and nulls
			}
			switch k {
			case "year":
				row.Year = int(f)
			case "quarter":
				row.Quarter = int(f)
			default:
				row.Values[k] = f
			}
		}
		if row.Year == 0 {
			continue
		}
		if period == models.PeriodYear {
			row.Quarter = 0
		}
		report.Rows = append(report.Rows, row)
	}

	sort.Slice(report.Rows, func(i, j int) bool {
		if report.Rows[i].Year != report.Rows[j].Year {
			return report.Rows[i].Year > report.Rows[j].Year
		}
		return report.Rows[i].Quarter > report.Rows[j].Quarter
	})
	return report, nil
}

// IsNotFound reports whether err means the symbol is unknown to TCBS
func IsNotFound(err error) bool {
	return errors.Is(err, models.ErrSymbolNotFound)
}

func parseTradingDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t, err = time.ParseInLocation(common.DateLayout, s, common.VietnamLocation)
		if err != nil {
			return time.Time{}, err
		}
	}
	t = t.In(common.VietnamLocation)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, common.VietnamLocation), nil
}

func periodLabel(year, quarter int) string {
	if quarter >= 1 && quarter <= 4 {
		return fmt.Sprintf("Q%d/%d", quarter, year)
	}
	return strconv.Itoa(year)
}

func decimalPtr(v *float64, scale float64) *decimal.Decimal {
	if v == nil {
		return nil
	}
	d := decimal.NewFromFloat(*v * scale).Round(2)
	return &d
}

func startOfDay(t time.Time) time.Time {
	t = t.In(common.VietnamLocation)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, common.VietnamLocation)
}

func endOfDay(t time.Time) time.Time {
	return startOfDay(t).Add(24*time.Hour - time.Second)
}

// Ensure Client implements DataProvider
var _ interfaces.DataProvider = (*Client)(nil)
