package models

import (
	"strings"
	"time"
)

// Sentiment of a news article
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// ParseSentiment accepts positive|neutral|negative in any case. Empty input is valid and means "any".
func ParseSentiment(s string) (Sentiment, bool) {
	switch v := Sentiment(strings.ToLower(strings.TrimSpace(s))); v {
	case "", SentimentPositive, SentimentNeutral, SentimentNegative:
		return v, true
	}
	return "", false
}

// NewsItem is a single article summary
type NewsItem struct {
	Headline    string    `json:"headline"`
	Summary     string    `json:"summary,omitempty"`
	Sentiment   Sentiment `json:"sentiment,omitempty"`
	PublishedAt time.Time `json:"published_at"`
	Source      string    `json:"source,omitempty"`
	URL         string    `json:"url,omitempty"`
	Ticker      string    `json:"ticker,omitempty"`
}

// NewsQuery holds the filters accepted by the news adapter
type NewsQuery struct {
	Symbol     string
	Page       int
	PageSize   int
	Sentiment  Sentiment
	UpdateFrom string // YYYY-MM-DD
	UpdateTo   string // YYYY-MM-DD
	NewsFrom   string
	Industry   string
}

// Default news paging
const (
	DefaultNewsPageSize = 12
	MaxNewsPageSize     = 50
)

// Normalize clamps paging to valid values.
func (q *NewsQuery) Normalize() {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 || q.PageSize > MaxNewsPageSize {
		q.PageSize = DefaultNewsPageSize
	}
}

// NewsPage is one page of results
type NewsPage struct {
	Symbol        string      `json:"symbol"`
	CompanyName   string      `json:"company_name,omitempty"`
	Items         []*NewsItem `json:"news"`
	Page          int         `json:"current_page"`
	PageSize      int         `json:"page_size"`
	TotalArticles int         `json:"total_articles"`
	TotalPages    int         `json:"total_pages"`
}
