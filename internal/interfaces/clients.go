// Package interfaces defines service contracts for vnstock-chat
package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/vnstock-chat/internal/models"
)

// PriceProvider supplies daily price history
type PriceProvider interface {
	// Name returns the source tag recorded on snapshots (e.g. "TCBS")
	Name() string

	// GetPriceHistory returns daily bars between from and to inclusive, oldest first
	GetPriceHistory(ctx context.Context, symbol string, from, to time.Time) ([]models.PriceBar, error)
}

// DataProvider is a market data source. Providers that lack fundamentals
// return models.ErrNotSupported from those methods.
type DataProvider interface {
	PriceProvider

	// GetCompanyProfile returns the company overview
	GetCompanyProfile(ctx context.Context, symbol string) (*models.CompanyProfile, error)

	// GetRatios returns the most recent valuation ratios
	GetRatios(ctx context.Context, symbol string) (*models.FinancialRatios, error)

	// GetFinancialReport returns a statement, newest period first
	GetFinancialReport(ctx context.Context, symbol string, kind models.ReportKind, period models.ReportPeriod) (*models.FinancialReport, error)
}

// NewsClient provides article summaries for a symbol
type NewsClient interface {
	// GetNews returns one page of news matching the query
	GetNews(ctx context.Context, q models.NewsQuery) (*models.NewsPage, error)
}

// AIClient sends a prompt to a completion model
type AIClient interface {
	// Name identifies the provider and model for logs
	Name() string

	// GenerateContent returns the completion text for a prompt
	GenerateContent(ctx context.Context, prompt string) (string, error)
}
