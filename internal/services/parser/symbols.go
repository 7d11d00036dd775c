package parser

import (
	"strings"

	"github.com/bobmcallan/vnstock-chat/internal/common"
	"github.com/bobmcallan/vnstock-chat/internal/models"
)

// stopWords have the ticker shape but are currency, metric or common words
var stopWords = map[string]bool{
	"VND": true, "USD": true, "EUR": true,
	"ROE": true, "ROA": true, "EPS": true, "CEO": true, "CFO": true,
	"ETF": true, "GDP": true, "CPI": true, "IPO": true,
	"BCTC": true, "HOSE": true, "HNX": true, "NEWS": true,
	"THE": true, "AND": true, "FOR": true, "HOW": true, "WHAT": true,
	"TIN": true, "CHO": true, "MUA": true, "SAU": true, "KHI": true,
	"HAY": true, "BAO": true, "GIA": true, "LAI": true, "QUY": true,
}

// aliasEntry is a listing alias pre-split into lowercase words
type aliasEntry struct {
	words  []string
	symbol string
}

var aliases = func() []aliasEntry {
	var out []aliasEntry
	for _, l := range models.Listings {
		for _, a := range l.Aliases {
			words := strings.Fields(strings.ToLower(a))
			if len(words) > 0 {
				out = append(out, aliasEntry{words: words, symbol: l.Symbol})
			}
		}
	}
	return out
}()

// extractSymbols returns every ticker mentioned, in order of first appearance
func extractSymbols(toks []token) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(s string) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}

	for i, t := range toks {
		if s, ok := tokenSymbol(t); ok {
			add(s)
			continue
		}
		if s, ok := aliasAt(toks, i); ok {
			add(s)
		}
	}
	return out
}

// tokenSymbol accepts an uppercase ticker-shaped token or any-case listed code
func tokenSymbol(t token) (string, bool) {
	upper := strings.ToUpper(t.text)
	if t.text == upper && common.IsValidSymbol(upper) && !stopWords[upper] {
		return upper, true
	}
	if _, ok := models.LookupListing(upper); ok && common.IsValidSymbol(upper) {
		return upper, true
	}
	return "", false
}

// aliasAt matches the longest alias starting at token i
func aliasAt(toks []token, i int) (string, bool) {
	best, bestLen := "", 0
	for _, a := range aliases {
		if len(a.words) <= bestLen || i+len(a.words) > len(toks) {
			continue
		}
		match := true
		for j, w := range a.words {
			if toks[i+j].lower != w {
				match = false
				break
			}
		}
		if match {
			best, bestLen = a.symbol, len(a.words)
		}
	}
	return best, bestLen > 0
}
