package quote

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/vnstock-chat/internal/common"
	"github.com/bobmcallan/vnstock-chat/internal/models"
)

// --- Mocks ---

type mockProvider struct {
	name    string
	bars    []models.PriceBar
	err     error
	ratios  *models.FinancialRatios
	company *models.CompanyProfile
	fundErr error

	mu    sync.Mutex
	calls int
}

func (m *mockProvider) Name() string { return m.name }

func (m *mockProvider) GetPriceHistory(_ context.Context, _ string, _, _ time.Time) ([]models.PriceBar, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	return m.bars, m.err
}

func (m *mockProvider) GetCompanyProfile(_ context.Context, _ string) (*models.CompanyProfile, error) {
	if m.company == nil {
		return nil, m.notSupported()
	}
	return m.company, nil
}

func (m *mockProvider) GetRatios(_ context.Context, _ string) (*models.FinancialRatios, error) {
	if m.ratios == nil {
		return nil, m.notSupported()
	}
	return m.ratios, nil
}

func (m *mockProvider) GetFinancialReport(_ context.Context, symbol string, kind models.ReportKind, period models.ReportPeriod) (*models.FinancialReport, error) {
	if m.fundErr != nil {
		return nil, m.fundErr
	}
	return &models.FinancialReport{Symbol: symbol, Kind: kind, Period: period}, nil
}

func (m *mockProvider) notSupported() error {
	if m.fundErr != nil {
		return m.fundErr
	}
	return models.ErrNotSupported
}

func (m *mockProvider) priceCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func newTestService(primary, secondary *mockProvider, now func() time.Time) *Service {
	var svc *Service
	if secondary == nil {
		svc = NewService(primary, nil, common.NewSilentLogger())
	} else {
		svc = NewService(primary, secondary, common.NewSilentLogger())
	}
	svc.now = now
	return svc
}

func bar(date time.Time, close int64) models.PriceBar {
	c := decimal.NewFromInt(close)
	return models.PriceBar{Date: date, Open: c, High: c, Low: c, Close: c, Volume: 1000}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, common.VietnamLocation)
}

// duringMarketHours is Wed 10:00 ICT
func duringMarketHours() time.Time {
	return time.Date(2024, 5, 15, 10, 0, 0, 0, common.VietnamLocation)
}

// outsideMarketHours is Wed 20:00 ICT
func outsideMarketHours() time.Time {
	return time.Date(2024, 5, 15, 20, 0, 0, 0, common.VietnamLocation)
}

// --- Tests ---

func TestGetSnapshot_ComputesChange(t *testing.T) {
	primary := &mockProvider{
		name: "TCBS",
		bars: []models.PriceBar{bar(day(2024, 5, 14), 94368), bar(day(2024, 5, 15), 95500)},
		ratios: &models.FinancialRatios{
			Period: "Q1/2024",
		},
		company: &models.CompanyProfile{Symbol: "VCB", Name: "Vietcombank"},
	}
	svc := newTestService(primary, nil, duringMarketHours)

	snap, err := svc.GetSnapshot(context.Background(), "VCB")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := snap.Price.String(); got != "95500" {
		t.Errorf("Price = %s, want 95500", got)
	}
	if got := snap.Change.String(); got != "1132" {
		t.Errorf("Change = %s, want 1132", got)
	}
	if got := snap.ChangePct.String(); got != "1.2" {
		t.Errorf("ChangePct = %s, want 1.2", got)
	}
	if snap.Source != "TCBS" {
		t.Errorf("Source = %s, want TCBS", snap.Source)
	}
	if snap.Ratios == nil || snap.Company == nil {
		t.Error("expected ratios and company on snapshot")
	}
}

func TestGetSnapshot_SingleBarHasZeroChange(t *testing.T) {
	primary := &mockProvider{name: "TCBS", bars: []models.PriceBar{bar(day(2024, 5, 15), 30000)}}
	svc := newTestService(primary, nil, duringMarketHours)

	snap, err := svc.GetSnapshot(context.Background(), "HPG")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !snap.Change.IsZero() || !snap.ChangePct.IsZero() {
		t.Errorf("expected zero change, got %s (%s%%)", snap.Change, snap.ChangePct)
	}
	if snap.Ratios != nil {
		t.Error("ratios should be nil when unsupported")
	}
}

func TestPrimaryFailure_SecondarySucceeds(t *testing.T) {
	primary := &mockProvider{name: "TCBS", err: errors.New("connection refused")}
	secondary := &mockProvider{name: "VND", bars: []models.PriceBar{bar(day(2024, 5, 15), 95500)}}
	svc := newTestService(primary, secondary, outsideMarketHours)

	snap, err := svc.GetSnapshot(context.Background(), "VCB")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Source != "VND" {
		t.Errorf("Source = %s, want VND", snap.Source)
	}
}

func TestBothProvidersFail_ReturnsPrimaryError(t *testing.T) {
	primaryErr := errors.New("tcbs down")
	primary := &mockProvider{name: "TCBS", err: primaryErr}
	secondary := &mockProvider{name: "VND", err: errors.New("vnd down")}
	svc := newTestService(primary, secondary, duringMarketHours)

	_, err := svc.GetSnapshot(context.Background(), "VCB")
	if !errors.Is(err, primaryErr) {
		t.Errorf("expected primary error, got %v", err)
	}
}

func TestSymbolNotFound_NoFallback(t *testing.T) {
	primary := &mockProvider{name: "TCBS", err: models.ErrSymbolNotFound}
	secondary := &mockProvider{name: "VND", bars: []models.PriceBar{bar(day(2024, 5, 15), 1)}}
	svc := newTestService(primary, secondary, duringMarketHours)

	_, err := svc.GetSnapshot(context.Background(), "ZZZ")
	if !errors.Is(err, models.ErrSymbolNotFound) {
		t.Errorf("expected ErrSymbolNotFound, got %v", err)
	}
	if secondary.priceCalls() != 0 {
		t.Error("secondary should not be asked about an unknown symbol")
	}
}

func TestStalePrimary_DuringMarketHours_UsesNewerSecondary(t *testing.T) {
	primary := &mockProvider{name: "TCBS", bars: []models.PriceBar{bar(day(2024, 5, 8), 90000)}}
	secondary := &mockProvider{name: "VND", bars: []models.PriceBar{bar(day(2024, 5, 15), 95500)}}
	svc := newTestService(primary, secondary, duringMarketHours)

	snap, err := svc.GetSnapshot(context.Background(), "VCB")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Source != "VND" || snap.Price.String() != "95500" {
		t.Errorf("expected fresher VND bar, got %s from %s", snap.Price, snap.Source)
	}
}

func TestStalePrimary_OutsideMarketHours_NoFallback(t *testing.T) {
	primary := &mockProvider{name: "TCBS", bars: []models.PriceBar{bar(day(2024, 5, 8), 90000)}}
	secondary := &mockProvider{name: "VND", bars: []models.PriceBar{bar(day(2024, 5, 15), 95500)}}
	svc := newTestService(primary, secondary, outsideMarketHours)

	snap, err := svc.GetSnapshot(context.Background(), "VCB")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Source != "TCBS" {
		t.Errorf("Source = %s, want TCBS", snap.Source)
	}
	if secondary.priceCalls() != 0 {
		t.Error("secondary should not be called outside market hours")
	}
}

func TestStalePrimary_SecondaryNotNewer_KeepsPrimary(t *testing.T) {
	primary := &mockProvider{name: "TCBS", bars: []models.PriceBar{bar(day(2024, 5, 8), 90000)}}
	secondary := &mockProvider{name: "VND", bars: []models.PriceBar{bar(day(2024, 5, 7), 89000)}}
	svc := newTestService(primary, secondary, duringMarketHours)

	snap, err := svc.GetSnapshot(context.Background(), "VCB")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Source != "TCBS" {
		t.Errorf("Source = %s, want TCBS", snap.Source)
	}
}

func TestGetPriceHistory_InvalidRange(t *testing.T) {
	svc := newTestService(&mockProvider{name: "TCBS"}, nil, duringMarketHours)
	_, err := svc.GetPriceHistory(context.Background(), "VCB", &models.DateRange{Start: day(2024, 5, 10), End: day(2024, 5, 1)})
	if err == nil {
		t.Error("expected error for inverted range")
	}
}

func TestGetPriceHistory_PastRangeSkipsFreshnessCheck(t *testing.T) {
	primary := &mockProvider{name: "TCBS", bars: []models.PriceBar{bar(day(2024, 3, 1), 80000)}}
	secondary := &mockProvider{name: "VND"}
	svc := newTestService(primary, secondary, duringMarketHours)

	bars, err := svc.GetPriceHistory(context.Background(), "VCB", &models.DateRange{Start: day(2024, 3, 1), End: day(2024, 3, 1)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bars) != 1 || secondary.priceCalls() != 0 {
		t.Errorf("expected primary-only history, got %d bars and %d secondary calls", len(bars), secondary.priceCalls())
	}
}

func TestFundamentals_FallBackWhenUnsupported(t *testing.T) {
	primary := &mockProvider{name: "VND"}
	secondary := &mockProvider{name: "TCBS", ratios: &models.FinancialRatios{Period: "Q1/2024"}}
	svc := newTestService(primary, secondary, duringMarketHours)

	ratios, err := svc.GetRatios(context.Background(), "VCB")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ratios.Period != "Q1/2024" {
		t.Errorf("Period = %s", ratios.Period)
	}
}

func TestFundamentals_BothUnsupported(t *testing.T) {
	svc := newTestService(&mockProvider{name: "VND"}, nil, duringMarketHours)
	if _, err := svc.GetCompany(context.Background(), "VCB"); !errors.Is(err, models.ErrNotSupported) {
		t.Errorf("expected ErrNotSupported, got %v", err)
	}
}

func TestIsHOSEMarketHours(t *testing.T) {
	tests := []struct {
		name string
		t    time.Time
		want bool
	}{
		{"open", time.Date(2024, 5, 15, 9, 0, 0, 0, common.VietnamLocation), true},
		{"close", time.Date(2024, 5, 15, 15, 0, 0, 0, common.VietnamLocation), true},
		{"pre-open", time.Date(2024, 5, 15, 8, 59, 0, 0, common.VietnamLocation), false},
		{"after close", time.Date(2024, 5, 15, 15, 1, 0, 0, common.VietnamLocation), false},
		{"saturday", time.Date(2024, 5, 18, 10, 0, 0, 0, common.VietnamLocation), false},
		{"utc input", time.Date(2024, 5, 15, 3, 0, 0, 0, time.UTC), true},
	}
	for _, tt := range tests {
		if got := isHOSEMarketHours(tt.t); got != tt.want {
			t.Errorf("%s: isHOSEMarketHours = %v, want %v", tt.name, got, tt.want)
		}
	}
}
