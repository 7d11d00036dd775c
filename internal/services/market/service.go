// Package market provides market-wide views over the bellwether stocks
package market

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bobmcallan/vnstock-chat/internal/common"
	"github.com/bobmcallan/vnstock-chat/internal/interfaces"
	"github.com/bobmcallan/vnstock-chat/internal/models"
)

// SummarySymbols are the large caps shown in the market summary
var SummarySymbols = []string{"VCB", "VIC", "HPG", "FPT", "TCB", "VNM"}

const (
	maxConcurrent = 4
	minCompare    = 2
	maxCompare    = 5
	defaultLimit  = 10
)

// ErrInvalidComparison is returned when a comparison has too few or too many symbols
var ErrInvalidComparison = fmt.Errorf("comparison needs %d-%d valid symbols", minCompare, maxCompare)

// Service implements interfaces.MarketService
type Service struct {
	quotes interfaces.QuoteService
	logger *common.Logger
	now    func() time.Time
}

// NewService creates a market service
func NewService(quotes interfaces.QuoteService, logger *common.Logger) *Service {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Service{quotes: quotes, logger: logger, now: time.Now}
}

type snapResult struct {
	idx  int
	snap *models.StockSnapshot
	err  error
}

// fetchAll gets snapshots with at most maxConcurrent requests in flight.
// Results keep input order; failed symbols are returned separately.
func (s *Service) fetchAll(ctx context.Context, symbols []string) ([]*models.StockSnapshot, []string) {
	semaphore := make(chan struct{}, maxConcurrent)
	results := make(chan snapResult, len(symbols))

	for i, sym := range symbols {
		go func(i int, sym string) {
			select {
			case semaphore <- struct{}{}: // Acquire
			case <-ctx.Done():
				results <- snapResult{idx: i, err: ctx.Err()}
				return
			}
			defer func() { <-semaphore }() // Release

			snap, err := s.quotes.GetSnapshot(ctx, sym)
			results <- snapResult{idx: i, snap: snap, err: err}
		}(i, sym)
	}

	ordered := make([]snapResult, len(symbols))
	for range symbols {
		r := <-results
		ordered[r.idx] = r
	}

	var snaps []*models.StockSnapshot
	var failed []string
	for i, r := range ordered {
		if r.err != nil {
			s.logger.Warn().Str("symbol", symbols[i]).Err(r.err).Msg("Snapshot failed")
			failed = append(failed, symbols[i])
			continue
		}
		snaps = append(snaps, r.snap)
	}
	return snaps, failed
}

// Summary returns snapshots of SummarySymbols. Individual failures are listed, not fatal.
func (s *Service) Summary(ctx context.Context) (*models.MarketSummary, error) {
	snaps, failed := s.fetchAll(ctx, SummarySymbols)
	if len(snaps) == 0 {
		return nil, fmt.Errorf("no market data available for %s", strings.Join(failed, ", "))
	}
	return &models.MarketSummary{
		Stocks:    snaps,
		Failed:    failed,
		Timestamp: s.now(),
	}, nil
}

// Compare fetches 2-5 symbols side by side. Duplicates are dropped.
func (s *Service) Compare(ctx context.Context, symbols []string) (*models.Comparison, error) {
	var valid []string
	seen := make(map[string]bool)
	for _, raw := range symbols {
		sym, ok := common.ValidateSymbol(raw)
		if !ok {
			return nil, fmt.Errorf("%w: invalid symbol %q", ErrInvalidComparison, raw)
		}
		if !seen[sym] {
			seen[sym] = true
			valid = append(valid, sym)
		}
	}
	if len(valid) < minCompare || len(valid) > maxCompare {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidComparison, len(valid))
	}

	snaps, failed := s.fetchAll(ctx, valid)
	if len(snaps) == 0 {
		return nil, fmt.Errorf("no data available for %s", strings.Join(failed, ", "))
	}

	out := &models.Comparison{
		Symbols:   valid,
		Snapshots: make(map[string]*models.StockSnapshot, len(snaps)),
		Failed:    failed,
	}
	for _, snap := range snaps {
		out.Snapshots[snap.Symbol] = snap
	}
	return out, nil
}

// Search matches the listing catalogue by symbol prefix, then by name or alias.
func (s *Service) Search(query string, limit int) []models.Listing {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []models.Listing{}
	}
	if limit <= 0 {
		limit = defaultLimit
	}

	type scored struct {
		listing models.Listing
		rank    int
	}
	var hits []scored
	for _, l := range models.Listings {
		sym := strings.ToLower(l.Symbol)
		switch {
		case sym == q:
			hits = append(hits, scored{l, 0})
		case strings.HasPrefix(sym, q):
			hits = append(hits, scored{l, 1})
		case strings.Contains(strings.ToLower(l.Name), q) || matchesAlias(l, q):
			hits = append(hits, scored{l, 2})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].rank != hits[j].rank {
			return hits[i].rank < hits[j].rank
		}
		return hits[i].listing.Symbol < hits[j].listing.Symbol
	})

	out := make([]models.Listing, 0, limit)
	for _, h := range hits {
		if len(out) == limit {
			break
		}
		out = append(out, h.listing)
	}
	return out
}

func matchesAlias(l models.Listing, q string) bool {
	for _, a := range l.Aliases {
		if strings.Contains(a, q) {
			return true
		}
	}
	return false
}

var _ interfaces.MarketService = (*Service)(nil)
