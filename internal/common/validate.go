package common

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxInputLength is the longest message accepted after sanitising, in runes.
const MaxInputLength = 1000

// DateLayout is the wire format for dates in query parameters.
const DateLayout = "2006-01-02"

var symbolPattern = regexp.MustCompile(`^[A-Z][A-Z0-9]{2,3}$`)

// reservedSymbols match the ticker shape but are never listed codes.
var reservedSymbols = map[string]bool{
	"NAY":  true,
	"XXX":  true,
	"TEST": true,
}

// NormalizeSymbol trims and uppercases a ticker.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// IsValidSymbol reports whether an already-normalised ticker is syntactically valid.
func IsValidSymbol(symbol string) bool {
	return symbolPattern.MatchString(symbol) && !reservedSymbols[symbol]
}

// ValidateSymbol normalises a ticker and reports whether it is usable.
func ValidateSymbol(raw string) (string, bool) {
	symbol := NormalizeSymbol(raw)
	return symbol, IsValidSymbol(symbol)
}

// SanitizeInput strips markup characters, trims and caps the message length.
func SanitizeInput(text string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', '"', '\'', ';':
			return -1
		}
		return r
	}, text)

	if utf8.RuneCountInString(cleaned) > MaxInputLength {
		runes := []rune(cleaned)
		cleaned = string(runes[:MaxInputLength])
	}
	return strings.TrimSpace(cleaned)
}

// ParseDate parses a YYYY-MM-DD query parameter.
func ParseDate(s string) (time.Time, bool) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), VietnamLocation)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// VietnamLocation is Asia/Ho_Chi_Minh (UTC+7, no DST).
var VietnamLocation = mustLoadLocation("Asia/Ho_Chi_Minh")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		// tzdata may be missing in minimal containers
		return time.FixedZone("ICT", 7*60*60)
	}
	return loc
}
