// Package parser extracts symbol, intent and date range from a chat message
package parser

import (
	"context"
	"strings"
	"time"
	"unicode"

	"github.com/bobmcallan/vnstock-chat/internal/common"
	"github.com/bobmcallan/vnstock-chat/internal/interfaces"
	"github.com/bobmcallan/vnstock-chat/internal/models"
)

// Parser implements interfaces.QueryParser
type Parser struct {
	classifier interfaces.AIClient
	now        func() time.Time
	logger     *common.Logger
}

// Option configures the parser
type Option func(*Parser)

// WithClassifier enables AI disambiguation of general-intent messages
func WithClassifier(ai interfaces.AIClient) Option {
	return func(p *Parser) {
		p.classifier = ai
	}
}

// WithClock overrides the clock used for relative dates
func WithClock(now func() time.Time) Option {
	return func(p *Parser) {
		p.now = now
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) Option {
	return func(p *Parser) {
		p.logger = logger
	}
}

// NewParser creates a query parser
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		now:    time.Now,
		logger: common.NewSilentLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse never fails: unusable input yields an empty symbol and the general intent.
func (p *Parser) Parse(ctx context.Context, raw string) models.ParsedQuery {
	text := common.SanitizeInput(raw)
	q := models.ParsedQuery{
		Intent:  models.IntentGeneral,
		RawText: text,
	}
	if text == "" {
		return q
	}

	toks := tokenize(text)
	q.Symbols = extractSymbols(toks)
	if len(q.Symbols) > 0 {
		q.Symbol = q.Symbols[0]
	}

	q.Intent = classifyIntent(toks)
	if q.Intent == models.IntentGeneral && q.HasSymbol() && p.classifier != nil {
		q.Intent = p.classify(ctx, text, q.Symbol)
	}

	q.DateRange = extractDateRange(text, p.now().In(common.VietnamLocation))

	p.logger.Debug().
		Str("symbol", q.Symbol).
		Strs("symbols", q.Symbols).
		Str("intent", string(q.Intent)).
		Bool("date_range", q.DateRange != nil).
		Msg("Parsed query")

	return q
}

// token is a run of letters and digits with its original casing
type token struct {
	text  string
	lower string
}

func tokenize(text string) []token {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	toks := make([]token, len(fields))
	for i, f := range fields {
		toks[i] = token{text: f, lower: strings.ToLower(f)}
	}
	return toks
}

// joinLower renders tokens as " a b c " so phrases can be matched on word boundaries
func joinLower(toks []token) string {
	var sb strings.Builder
	sb.WriteByte(' ')
	for _, t := range toks {
		sb.WriteString(t.lower)
		sb.WriteByte(' ')
	}
	return sb.String()
}

var _ interfaces.QueryParser = (*Parser)(nil)
