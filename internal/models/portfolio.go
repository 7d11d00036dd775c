package models

import "github.com/shopspring/decimal"

// Holding is a position submitted for analysis
type Holding struct {
	Symbol   string          `json:"symbol"`
	Shares   decimal.Decimal `json:"shares"`
	AvgPrice decimal.Decimal `json:"avg_price"`
}

// HoldingResult is the valuation of one holding at the current price
type HoldingResult struct {
	Symbol        string          `json:"symbol"`
	Shares        decimal.Decimal `json:"shares"`
	AvgPrice      decimal.Decimal `json:"avg_price"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
	InvestedValue decimal.Decimal `json:"invested_value"`
	CurrentValue  decimal.Decimal `json:"current_value"`
	GainLoss      decimal.Decimal `json:"gain_loss"`
	GainLossPct   decimal.Decimal `json:"gain_loss_percent"`
}

// PortfolioSummary holds portfolio-level totals
type PortfolioSummary struct {
	TotalInvested     decimal.Decimal `json:"total_invested"`
	TotalCurrentValue decimal.Decimal `json:"total_current_value"`
	TotalGainLoss     decimal.Decimal `json:"total_gain_loss"`
	TotalGainLossPct  decimal.Decimal `json:"total_gain_loss_percent"`
}

// PortfolioAnalysis is the result of analysing a set of holdings
type PortfolioAnalysis struct {
	Holdings []*HoldingResult `json:"holdings"`
	Summary  PortfolioSummary `json:"portfolio_summary"`
	Skipped  []string         `json:"skipped,omitempty"`
}
