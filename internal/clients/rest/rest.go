// Package rest holds the resty setup shared by the market data and news adapters
package rest

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/bobmcallan/vnstock-chat/internal/common"
	"github.com/bobmcallan/vnstock-chat/internal/models"
)

// RetryPolicy is applied per request. Only HTTP 429 and 5xx responses are
// retried; transport errors and timeouts fail immediately.
type RetryPolicy struct {
	Count   int
	Wait    time.Duration
	MaxWait time.Duration
}

// PolicyFromConfig converts the [retry] config section
func PolicyFromConfig(cfg common.RetryConfig) RetryPolicy {
	return RetryPolicy{
		Count:   cfg.Attempts(),
		Wait:    cfg.GetWait(),
		MaxWait: cfg.GetMaxWait(),
	}
}

// NewClient returns a resty client with base URL, timeout and retry policy applied.
func NewClient(baseURL string, timeout time.Duration, policy RetryPolicy) *resty.Client {
	c := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "vnstock-chat/"+common.GetVersion())
	applyRetry(c, policy)
	return c
}

// applyRetry configures resty's capped exponential backoff, which adds jitter
// to every wait.
func applyRetry(c *resty.Client, p RetryPolicy) {
	count := p.Count
	if count < 0 {
		count = 0
	}
	if count > common.MaxRetryCount {
		count = common.MaxRetryCount
	}
	c.SetRetryCount(count)
	if p.Wait > 0 {
		c.SetRetryWaitTime(p.Wait)
	}
	if p.MaxWait > 0 {
		c.SetRetryMaxWaitTime(p.MaxWait)
	}
	c.AddRetryCondition(func(r *resty.Response, err error) bool {
		if err != nil || r == nil {
			return false
		}
		return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= http.StatusInternalServerError
	})
}

// APIError represents a non-2xx response from an upstream API
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error: %s (status: %d, endpoint: %s)", e.Provider, e.Message, e.StatusCode, e.Endpoint)
}

// Is lets errors.Is(err, models.ErrSymbolNotFound) match a 404.
func (e *APIError) Is(target error) bool {
	return target == models.ErrSymbolNotFound && e.StatusCode == http.StatusNotFound
}

// CheckResponse converts a non-2xx response into an *APIError.
func CheckResponse(provider string, resp *resty.Response) error {
	if resp.IsSuccess() {
		return nil
	}
	msg := strings.TrimSpace(resp.String())
	if len(msg) > 200 {
		msg = msg[:200]
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode())
	}
	return &APIError{
		Provider:   provider,
		StatusCode: resp.StatusCode(),
		Message:    msg,
		Endpoint:   resp.Request.URL,
	}
}
