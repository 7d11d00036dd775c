// Package portfolio values holdings against current market prices
package portfolio

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/vnstock-chat/internal/common"
	"github.com/bobmcallan/vnstock-chat/internal/interfaces"
	"github.com/bobmcallan/vnstock-chat/internal/models"
)

// MaxHoldings bounds a single analysis request
const MaxHoldings = 50

var hundred = decimal.NewFromInt(100)

// ErrInvalidHolding is wrapped by every holding validation failure
var ErrInvalidHolding = errors.New("invalid holding")

// Service implements interfaces.PortfolioService
type Service struct {
	quotes interfaces.QuoteService
	logger *common.Logger
}

// NewService creates a portfolio service
func NewService(quotes interfaces.QuoteService, logger *common.Logger) *Service {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Service{quotes: quotes, logger: logger}
}

// Validate normalises symbols and checks shares and average price are positive.
func Validate(holdings []models.Holding) ([]models.Holding, error) {
	if len(holdings) == 0 {
		return nil, fmt.Errorf("%w: no holdings", ErrInvalidHolding)
	}
	if len(holdings) > MaxHoldings {
		return nil, fmt.Errorf("%w: at most %d holdings", ErrInvalidHolding, MaxHoldings)
	}

	out := make([]models.Holding, 0, len(holdings))
	for i, h := range holdings {
		sym, ok := common.ValidateSymbol(h.Symbol)
		if !ok {
			return nil, fmt.Errorf("%w: holding %d has invalid symbol %q", ErrInvalidHolding, i+1, h.Symbol)
		}
		if !h.Shares.IsPositive() {
			return nil, fmt.Errorf("%w: %s shares must be positive", ErrInvalidHolding, sym)
		}
		if !h.AvgPrice.IsPositive() {
			return nil, fmt.Errorf("%w: %s avg_price must be positive", ErrInvalidHolding, sym)
		}
		h.Symbol = sym
		out = append(out, h)
	}
	return out, nil
}

// Analyze values each holding at its latest price. Holdings whose price cannot
// be fetched are listed in Skipped and left out of the totals.
func (s *Service) Analyze(ctx context.Context, holdings []models.Holding) (*models.PortfolioAnalysis, error) {
	valid, err := Validate(holdings)
	if err != nil {
		return nil, err
	}

	prices := make(map[string]decimal.Decimal)
	analysis := &models.PortfolioAnalysis{Holdings: []*models.HoldingResult{}}
	skipped := make(map[string]bool)

	for _, h := range valid {
		if skipped[h.Symbol] {
			continue
		}
		price, ok := prices[h.Symbol]
		if !ok {
			snap, err := s.quotes.GetSnapshot(ctx, h.Symbol)
			if err != nil {
				s.logger.Warn().Str("symbol", h.Symbol).Err(err).Msg("Holding skipped: no price")
				skipped[h.Symbol] = true
				analysis.Skipped = append(analysis.Skipped, h.Symbol)
				continue
			}
			price = snap.Price
			prices[h.Symbol] = price
		}
		analysis.Holdings = append(analysis.Holdings, value(h, price))
	}

	analysis.Summary = summarise(analysis.Holdings)

	s.logger.Info().
		Int("holdings", len(analysis.Holdings)).
		Int("skipped", len(analysis.Skipped)).
		Str("gain_loss", analysis.Summary.TotalGainLoss.String()).
		Msg("Portfolio analysed")

	return analysis, nil
}

func value(h models.Holding, price decimal.Decimal) *models.HoldingResult {
	invested := h.Shares.Mul(h.AvgPrice)
	current := h.Shares.Mul(price)
	gain := current.Sub(invested)
	return &models.HoldingResult{
		Symbol:        h.Symbol,
		Shares:        h.Shares,
		AvgPrice:      h.AvgPrice,
		CurrentPrice:  price,
		InvestedValue: invested,
		CurrentValue:  current,
		GainLoss:      gain,
		GainLossPct:   pct(gain, invested),
	}
}

func summarise(results []*models.HoldingResult) models.PortfolioSummary {
	var sum models.PortfolioSummary
	for _, r := range results {
		sum.TotalInvested = sum.TotalInvested.Add(r.InvestedValue)
		sum.TotalCurrentValue = sum.TotalCurrentValue.Add(r.CurrentValue)
	}
	sum.TotalGainLoss = sum.TotalCurrentValue.Sub(sum.TotalInvested)
	sum.TotalGainLossPct = pct(sum.TotalGainLoss, sum.TotalInvested)
	return sum
}

// pct returns part/whole as a percentage rounded to 2dp, zero when whole is zero.
func pct(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred).Round(2)
}

var _ interfaces.PortfolioService = (*Service)(nil)
