package interfaces

import (
	"context"

	"github.com/bobmcallan/vnstock-chat/internal/models"
)

// QuoteService assembles snapshots from the configured data providers
type QuoteService interface {
	GetSnapshot(ctx context.Context, symbol string) (*models.StockSnapshot, error)
	GetPriceHistory(ctx context.Context, symbol string, dr *models.DateRange) ([]models.PriceBar, error)
	GetCompany(ctx context.Context, symbol string) (*models.CompanyProfile, error)
	GetRatios(ctx context.Context, symbol string) (*models.FinancialRatios, error)
	GetFinancialReport(ctx context.Context, symbol string, kind models.ReportKind, period models.ReportPeriod) (*models.FinancialReport, error)
}

// QueryParser turns a raw message into a ParsedQuery. It never fails.
type QueryParser interface {
	Parse(ctx context.Context, raw string) models.ParsedQuery
}

// HistoryStore keeps bounded per-session conversation history
type HistoryStore interface {
	// WithSession runs fn while holding the session's turn lock; waiting ends with ctx
	WithSession(ctx context.Context, sessionID string, fn func(h SessionHistory)) error
	Get(sessionID string) []models.ChatMessage
	Clear(sessionID string) bool
	MaxLength() int
}

// SessionHistory is the view of one session handed to WithSession callbacks
type SessionHistory interface {
	Recent(n int) []models.ChatMessage
	Append(msgs ...models.ChatMessage)
	Len() int
}

// ChatService answers chat messages
type ChatService interface {
	Handle(ctx context.Context, sessionID, message string) (*models.ChatResponse, error)
	History(sessionID string) []models.ChatMessage
	Clear(sessionID string) bool
	Suggestions(symbol string) []string
}

// MarketService provides market-wide views
type MarketService interface {
	Summary(ctx context.Context) (*models.MarketSummary, error)
	Compare(ctx context.Context, symbols []string) (*models.Comparison, error)
	Search(query string, limit int) []models.Listing
}

// PortfolioService values submitted holdings
type PortfolioService interface {
	Analyze(ctx context.Context, holdings []models.Holding) (*models.PortfolioAnalysis, error)
}
