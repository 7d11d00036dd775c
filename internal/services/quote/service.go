// Package quote assembles stock snapshots with automatic provider fallback
package quote

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/vnstock-chat/internal/common"
	"github.com/bobmcallan/vnstock-chat/internal/interfaces"
	"github.com/bobmcallan/vnstock-chat/internal/models"
)

// StalenessThreshold is the bar age beyond which the secondary provider is
// tried during trading hours.
var StalenessThreshold = 3 * 24 * time.Hour

// snapshotWindow covers weekends and short holidays when looking for the latest bar
const snapshotWindow = 7

// DefaultHistoryDays is used when a price history request has no date range
const DefaultHistoryDays = 30

var hundred = decimal.NewFromInt(100)

// Service implements QuoteService with a preferred and an optional secondary provider.
type Service struct {
	primary   interfaces.DataProvider
	secondary interfaces.DataProvider
	logger    *common.Logger
	now       func() time.Time // injectable clock for testing
}

// NewService creates a new quote service.
// secondary may be nil, in which case fallback is skipped.
func NewService(primary, secondary interfaces.DataProvider, logger *common.Logger) *Service {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Service{
		primary:   primary,
		secondary: secondary,
		logger:    logger,
		now:       time.Now,
	}
}

// GetSnapshot returns the latest price with change against the previous
// close, plus ratios and company profile when available.
func (s *Service) GetSnapshot(ctx context.Context, symbol string) (*models.StockSnapshot, error) {
	today := s.today()
	bars, source, err := s.fetchBars(ctx, symbol, today.AddDate(0, 0, -snapshotWindow), today, true)
	if err != nil {
		return nil, err
	}

	last := bars[len(bars)-1]
	snap := &models.StockSnapshot{
		Symbol:      symbol,
		Price:       last.Close,
		Open:        last.Open,
		High:        last.High,
		Low:         last.Low,
		Volume:      last.Volume,
		TradingDate: last.Date,
		Source:      source,
	}
	if len(bars) > 1 {
		prev := bars[len(bars)-2].Close
		snap.Change = last.Close.Sub(prev)
		if prev.IsPositive() {
			snap.ChangePct = snap.Change.Div(prev).Mul(hundred).Round(2)
		}
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if ratios, err := s.GetRatios(ctx, symbol); err == nil {
			snap.Ratios = ratios
		} else {
			s.logger.Debug().Err(err).Str("symbol", symbol).Msg("Ratios unavailable for snapshot")
		}
	}()
	go func() {
		defer wg.Done()
		if company, err := s.GetCompany(ctx, symbol); err == nil {
			snap.Company = company
		} else {
			s.logger.Debug().Err(err).Str("symbol", symbol).Msg("Company profile unavailable for snapshot")
		}
	}()
	wg.Wait()

	return snap, nil
}

// GetPriceHistory returns bars for the range, or the last DefaultHistoryDays when dr is nil.
func (s *Service) GetPriceHistory(ctx context.Context, symbol string, dr *models.DateRange) ([]models.PriceBar, error) {
	today := s.today()
	from, to := today.AddDate(0, 0, -DefaultHistoryDays), today
	if dr != nil {
		from, to = dr.Start, dr.End
	}
	if to.Before(from) {
		return nil, fmt.Errorf("invalid date range: %s is before %s", to.Format(common.DateLayout), from.Format(common.DateLayout))
	}
	bars, _, err := s.fetchBars(ctx, symbol, from, to, !to.Before(today))
	return bars, err
}

// GetCompany returns the company profile
func (s *Service) GetCompany(ctx context.Context, symbol string) (*models.CompanyProfile, error) {
	return withFallback(s, "company", symbol, func(p interfaces.DataProvider) (*models.CompanyProfile, error) {
		return p.GetCompanyProfile(ctx, symbol)
	})
}

// GetRatios returns the latest valuation ratios
func (s *Service) GetRatios(ctx context.Context, symbol string) (*models.FinancialRatios, error) {
	return withFallback(s, "ratios", symbol, func(p interfaces.DataProvider) (*models.FinancialRatios, error) {
		return p.GetRatios(ctx, symbol)
	})
}

// GetFinancialReport returns a financial statement
func (s *Service) GetFinancialReport(ctx context.Context, symbol string, kind models.ReportKind, period models.ReportPeriod) (*models.FinancialReport, error) {
	return withFallback(s, string(kind), symbol, func(p interfaces.DataProvider) (*models.FinancialReport, error) {
		return p.GetFinancialReport(ctx, symbol, kind, period)
	})
}

// fetchBars asks the primary provider first. The secondary is tried when the
// primary fails, or when checkFresh is set and the primary's latest bar is
// stale during trading hours.
func (s *Service) fetchBars(ctx context.Context, symbol string, from, to time.Time, checkFresh bool) ([]models.PriceBar, string, error) {
	bars, err := s.primary.GetPriceHistory(ctx, symbol, from, to)
	if err == nil && len(bars) == 0 {
		err = fmt.Errorf("%w: %s", models.ErrNoData, symbol)
	}

	if s.secondary == nil || errors.Is(err, models.ErrSymbolNotFound) {
		if err != nil {
			return nil, "", err
		}
		return bars, s.primary.Name(), nil
	}

	if err == nil {
		if !checkFresh || !s.isStale(bars[len(bars)-1].Date) || !isHOSEMarketHours(s.now()) {
			return bars, s.primary.Name(), nil
		}
	}

	s.logger.Info().
		Str("symbol", symbol).
		Str("primary", s.primary.Name()).
		Str("secondary", s.secondary.Name()).
		Bool("primary_failed", err != nil).
		Msg("Attempting secondary price provider")

	alt, altErr := s.secondary.GetPriceHistory(ctx, symbol, from, to)
	if altErr != nil || len(alt) == 0 {
		s.logger.Warn().Err(altErr).Str("symbol", symbol).Msg("Secondary price provider failed")
		if err != nil {
			return nil, "", err
		}
		return bars, s.primary.Name(), nil
	}

	// keep a stale primary series if the secondary is no newer
	if err == nil && !alt[len(alt)-1].Date.After(bars[len(bars)-1].Date) {
		return bars, s.primary.Name(), nil
	}
	return alt, s.secondary.Name(), nil
}

// withFallback runs fn on the primary, then on the secondary when the primary fails
// for any reason other than an unknown symbol.
func withFallback[T any](s *Service, what, symbol string, fn func(p interfaces.DataProvider) (T, error)) (T, error) {
	v, err := fn(s.primary)
	if err == nil || s.secondary == nil || errors.Is(err, models.ErrSymbolNotFound) {
		return v, err
	}

	alt, altErr := fn(s.secondary)
	if altErr != nil {
		s.logger.Debug().
			Str("symbol", symbol).
			Str("data", what).
			AnErr("primary_error", err).
			AnErr("secondary_error", altErr).
			Msg("No provider could serve request")
		return v, err
	}
	return alt, nil
}

func (s *Service) today() time.Time {
	t := s.now().In(common.VietnamLocation)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, common.VietnamLocation)
}

// isStale returns true when the bar date is older than StalenessThreshold.
func (s *Service) isStale(barDate time.Time) bool {
	if barDate.IsZero() {
		return true
	}
	return s.now().Sub(barDate) > StalenessThreshold
}

// isHOSEMarketHours returns true within 09:00-15:00 Asia/Ho_Chi_Minh, Monday-Friday.
func isHOSEMarketHours(t time.Time) bool {
	local := t.In(common.VietnamLocation)
	weekday := local.Weekday()
	if weekday == time.Saturday || weekday == time.Sunday {
		return false
	}
	hour, min, _ := local.Clock()
	minuteOfDay := hour*60 + min
	// 09:00 = 540, 15:00 = 900
	return minuteOfDay >= 540 && minuteOfDay <= 900
}

// Ensure Service implements QuoteService
var _ interfaces.QuoteService = (*Service)(nil)
