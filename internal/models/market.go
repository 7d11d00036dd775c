package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Sentinel errors returned by data adapters
var (
	ErrSymbolNotFound = errors.New("symbol not found")
	ErrNotSupported   = errors.New("not supported by provider")
	ErrNoData         = errors.New("no data returned")
)

// PriceBar is one daily OHLCV bar, prices in VND
type PriceBar struct {
	Date   time.Time       `json:"date"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume int64           `json:"volume"`
}

// FinancialRatios holds the latest valuation ratios. Nil fields were not reported.
type FinancialRatios struct {
	Period string           `json:"period,omitempty"`
	PE     *decimal.Decimal `json:"pe,omitempty"`
	PB     *decimal.Decimal `json:"pb,omitempty"`
	ROE    *decimal.Decimal `json:"roe,omitempty"`
	ROA    *decimal.Decimal `json:"roa,omitempty"`
	EPS    *decimal.Decimal `json:"eps,omitempty"`
}

// Empty reports whether no ratio was reported
func (r FinancialRatios) Empty() bool {
	return r.PE == nil && r.PB == nil && r.ROE == nil && r.ROA == nil && r.EPS == nil
}

// CompanyProfile is the provider's company overview
type CompanyProfile struct {
	Symbol            string `json:"symbol"`
	Name              string `json:"name,omitempty"`
	Exchange          string `json:"exchange,omitempty"`
	Industry          string `json:"industry,omitempty"`
	Employees         int64  `json:"employees,omitempty"`
	OutstandingShares int64  `json:"outstanding_shares,omitempty"`
	Website           string `json:"website,omitempty"`
}

// StockSnapshot bundles price and ratio data for one symbol at one point in time
type StockSnapshot struct {
	Symbol      string           `json:"symbol"`
	Price       decimal.Decimal  `json:"current_price"`
	Change      decimal.Decimal  `json:"change"`
	ChangePct   decimal.Decimal  `json:"change_pct"`
	Open        decimal.Decimal  `json:"open"`
	High        decimal.Decimal  `json:"high"`
	Low         decimal.Decimal  `json:"low"`
	Volume      int64            `json:"volume"`
	TradingDate time.Time        `json:"trading_date"`
	Ratios      *FinancialRatios `json:"key_ratios,omitempty"`
	Company     *CompanyProfile  `json:"company,omitempty"`
	Source      string           `json:"source"`
}

// ReportKind selects a financial statement
type ReportKind string

const (
	ReportIncome   ReportKind = "income_statement"
	ReportBalance  ReportKind = "balance_sheet"
	ReportCashFlow ReportKind = "cash_flow"
)

// ReportPeriod selects annual or quarterly statements
type ReportPeriod string

const (
	PeriodYear    ReportPeriod = "year"
	PeriodQuarter ReportPeriod = "quarter"
)

// FinancialRow is one reporting period of a statement
type FinancialRow struct {
	Year    int                `json:"year"`
	Quarter int                `json:"quarter,omitempty"`
	Values  map[string]float64 `json:"values"`
}

// FinancialReport is a statement over several periods, newest first
type FinancialReport struct {
	Symbol string         `json:"symbol"`
	Kind   ReportKind     `json:"kind"`
	Period ReportPeriod   `json:"period"`
	Rows   []FinancialRow `json:"rows"`
}

// Listing is a catalogue entry for a well-known ticker
type Listing struct {
	Symbol  string   `json:"symbol"`
	Name    string   `json:"name"`
	Aliases []string `json:"-"`
}

// MarketSummary is a point-in-time view over the bellwether stocks
type MarketSummary struct {
	Stocks    []*StockSnapshot `json:"stocks"`
	Failed    []string         `json:"failed,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// Comparison holds snapshots for several symbols, in request order
type Comparison struct {
	Symbols   []string                  `json:"symbols"`
	Snapshots map[string]*StockSnapshot `json:"snapshots"`
	Failed    []string                  `json:"failed,omitempty"`
}
