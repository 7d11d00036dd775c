package models

import "time"

// Intent is the classified purpose of a user message
type Intent string

const (
	IntentPrice      Intent = "price"
	IntentFinancials Intent = "financials"
	IntentNews       Intent = "news"
	IntentComparison Intent = "comparison"
	IntentPortfolio  Intent = "portfolio"
	IntentGeneral    Intent = "general"
)

// ParseIntent maps a name onto an Intent. Unknown names return false.
func ParseIntent(s string) (Intent, bool) {
	switch Intent(s) {
	case IntentPrice, IntentFinancials, IntentNews, IntentComparison, IntentPortfolio, IntentGeneral:
		return Intent(s), true
	}
	return IntentGeneral, false
}

// DateRange is an inclusive range of calendar days
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Days returns the number of calendar days covered, at least 1.
func (r DateRange) Days() int {
	d := int(r.End.Sub(r.Start).Hours()/24) + 1
	if d < 1 {
		return 1
	}
	return d
}

// ParsedQuery is derived from a single message and never stored
type ParsedQuery struct {
	Symbol    string     `json:"symbol,omitempty"`
	Symbols   []string   `json:"symbols,omitempty"`
	Intent    Intent     `json:"intent"`
	DateRange *DateRange `json:"date_range,omitempty"`
	RawText   string     `json:"raw_text"`
}

// HasSymbol reports whether a ticker was found
func (q ParsedQuery) HasSymbol() bool {
	return q.Symbol != ""
}
