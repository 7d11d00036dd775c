// Package iqx provides a client for the IQX news API
package iqx

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/bobmcallan/vnstock-chat/internal/clients/rest"
	"github.com/bobmcallan/vnstock-chat/internal/common"
	"github.com/bobmcallan/vnstock-chat/internal/interfaces"
	"github.com/bobmcallan/vnstock-chat/internal/models"
)

const (
	DefaultBaseURL   = "https://proxy.iqx.vn/proxy/ai/api/v2"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 5
	DefaultLanguage  = "vi"
	SourceName       = "IQX"
)

// Client implements interfaces.NewsClient
type Client struct {
	baseURL  string
	timeout  time.Duration
	language string
	retry    rest.RetryPolicy
	http     *resty.Client
	logger   *common.Logger
	limiter  *rate.Limiter
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

// WithLanguage sets the article language filter
func WithLanguage(lang string) ClientOption {
	return func(c *Client) {
		if lang != "" {
			c.language = lang
		}
	}
}

// NewClient creates a new IQX news client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:  DefaultBaseURL,
		timeout:  DefaultTimeout,
		language: DefaultLanguage,
		limiter:  rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:   common.NewSilentLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.http = rest.NewClient(c.baseURL, c.timeout, c.retry)
	return c
}

// newsItem accepts both the short and the prefixed field names seen in the feed
type newsItem struct {
	Title        string `json:"title"`
	NewsTitle    string `json:"news_title"`
	Summary      string `json:"summary"`
	ShortContent string `json:"news_short_content"`
	Sentiment    string `json:"sentiment"`
	UpdateDate   string `json:"update_date"`
	PublicDate   string `json:"public_date"`
	NewsSource   string `json:"news_source"`
	NewsURL      string `json:"news_url"`
	URL          string `json:"url"`
	Ticker       string `json:"ticker"`
}

type newsResponse struct {
	NewsInfo     []newsItem `json:"news_info"`
	TotalRecords int        `json:"total_records"`
	Name         string     `json:"name"`
}

// GetNews returns one page of articles for the query's symbol
func (c *Client) GetNews(ctx context.Context, q models.NewsQuery) (*models.NewsPage, error) {
	q.Normalize()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	params := map[string]string{
		"page":        strconv.Itoa(q.Page),
		"ticker":      strings.ToUpper(q.Symbol),
		"industry":    q.Industry,
		"update_from": q.UpdateFrom,
		"update_to":   q.UpdateTo,
		"sentiment":   string(q.Sentiment),
		"newsfrom":    q.NewsFrom,
		"language":    c.language,
		"page_size":   strconv.Itoa(q.PageSize),
	}
	for k, v := range params {
		if v == "" {
			delete(params, k)
		}
	}

	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get("/news_info")
	if err != nil {
		return nil, fmt.Errorf("IQX request failed: %w", err)
	}

	c.logger.Debug().
		Str("symbol", q.Symbol).
		Int("page", q.Page).
		Int("status", resp.StatusCode()).
		Dur("elapsed", time.Since(start)).
		Msg("IQX news_info")

	if err := rest.CheckResponse(SourceName, resp); err != nil {
		return nil, err
	}

	var body newsResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, fmt.Errorf("failed to decode IQX response: %w", err)
	}

	page := &models.NewsPage{
		Symbol:        strings.ToUpper(q.Symbol),
		CompanyName:   body.Name,
		Items:         make([]*models.NewsItem, 0, len(body.NewsInfo)),
		Page:          q.Page,
		PageSize:      q.PageSize,
		TotalArticles: body.TotalRecords,
		TotalPages:    (body.TotalRecords + q.PageSize - 1) / q.PageSize,
	}
	if page.CompanyName == "" {
		page.CompanyName = page.Symbol
	}

	for _, raw := range body.NewsInfo {
		item := convertItem(raw)
		if item.Headline == "" {
			continue
		}
		page.Items = append(page.Items, item)
	}

	return page, nil
}

func convertItem(raw newsItem) *models.NewsItem {
	sentiment, _ := models.ParseSentiment(raw.Sentiment)
	return &models.NewsItem{
		Headline:    stripHTML(firstNonEmpty(raw.Title, raw.NewsTitle)),
		Summary:     stripHTML(firstNonEmpty(raw.Summary, raw.ShortContent)),
		Sentiment:   sentiment,
		PublishedAt: parsePublished(firstNonEmpty(raw.UpdateDate, raw.PublicDate)),
		Source:      raw.NewsSource,
		URL:         firstNonEmpty(raw.NewsURL, raw.URL),
		Ticker:      strings.ToUpper(raw.Ticker),
	}
}

// stripHTML returns the text content of an HTML fragment, whitespace collapsed
func stripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.TrimSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

var publishedLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	common.DateLayout,
}

func parsePublished(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range publishedLayouts {
		if t, err := time.ParseInLocation(layout, s, common.VietnamLocation); err == nil {
			return t
		}
	}
	return time.Time{}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

var _ interfaces.NewsClient = (*Client)(nil)
