package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/vnstock-chat/internal/common"
	"github.com/bobmcallan/vnstock-chat/internal/models"
	"github.com/bobmcallan/vnstock-chat/internal/services/history"
	"github.com/bobmcallan/vnstock-chat/internal/services/parser"
)

// --- Mocks ---

type mockQuotes struct {
	mu        sync.Mutex
	snapshots map[string]*models.StockSnapshot
	err       error
	calls     []string
}

func (m *mockQuotes) GetSnapshot(_ context.Context, symbol string) (*models.StockSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, symbol)
	if m.err != nil {
		return nil, m.err
	}
	if snap, ok := m.snapshots[symbol]; ok {
		return snap, nil
	}
	return nil, models.ErrSymbolNotFound
}

func (m *mockQuotes) GetPriceHistory(_ context.Context, _ string, _ *models.DateRange) ([]models.PriceBar, error) {
	return nil, errors.New("no history in test")
}

func (m *mockQuotes) GetCompany(_ context.Context, _ string) (*models.CompanyProfile, error) {
	return nil, models.ErrNotSupported
}

func (m *mockQuotes) GetRatios(_ context.Context, _ string) (*models.FinancialRatios, error) {
	return nil, models.ErrNotSupported
}

func (m *mockQuotes) GetFinancialReport(_ context.Context, symbol string, kind models.ReportKind, period models.ReportPeriod) (*models.FinancialReport, error) {
	return &models.FinancialReport{Symbol: symbol, Kind: kind, Period: period, Rows: []models.FinancialRow{
		{Year: 2023, Values: map[string]float64{"revenue": 118953}},
	}}, nil
}

func (m *mockQuotes) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

type mockNews struct {
	page *models.NewsPage
	err  error
}

func (m *mockNews) GetNews(_ context.Context, q models.NewsQuery) (*models.NewsPage, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.page, nil
}

type mockAI struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []string

	// when set, each call signals entered then waits on release
	entered chan struct{}
	release chan struct{}
}

func (m *mockAI) Name() string { return "mock/ai" }

func (m *mockAI) GenerateContent(_ context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	reply, err := m.reply, m.err
	entered, release := m.entered, m.release
	m.mu.Unlock()

	if release != nil {
		entered <- struct{}{}
		<-release
	}
	return reply, err
}

func (m *mockAI) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

func vcbSnapshot() *models.StockSnapshot {
	pe := decimal.RequireFromString("15.2")
	return &models.StockSnapshot{
		Symbol:      "VCB",
		Price:       decimal.NewFromInt(95500),
		Change:      decimal.NewFromInt(1132),
		ChangePct:   decimal.RequireFromString("1.2"),
		Volume:      1200000,
		TradingDate: time.Date(2024, 5, 15, 0, 0, 0, 0, common.VietnamLocation),
		Ratios:      &models.FinancialRatios{PE: &pe},
		Source:      "TCBS",
	}
}

type fixture struct {
	svc     *Service
	quotes  *mockQuotes
	news    *mockNews
	ai      *mockAI
	history *history.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		quotes: &mockQuotes{snapshots: map[string]*models.StockSnapshot{
			"VCB": vcbSnapshot(),
			"TCB": {Symbol: "TCB", Price: decimal.NewFromInt(48000), Source: "TCBS"},
		}},
		news:    &mockNews{page: &models.NewsPage{Symbol: "FPT", TotalArticles: 1, Items: []*models.NewsItem{{Headline: "FPT lãi kỷ lục"}}}},
		ai:      &mockAI{reply: "VCB duy trì đà tăng nhẹ với thanh khoản ổn định.\nĐÁNH GIÁ: Tích cực"},
		history: history.NewStore(4),
	}
	f.svc = NewService(parser.NewParser(), f.quotes, f.news, f.ai, f.history, Config{ContextTurns: 4, MaxComparison: 5}, common.NewSilentLogger())
	return f
}

// --- Tests ---

func TestHandle_SymbolAnalysis(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Handle(context.Background(), "s1", "Phân tích VCB hiện tại")
	require.NoError(t, err)

	assert.Equal(t, "VCB", resp.Symbol)
	assert.Contains(t, resp.Response, "VCB")
	assert.Contains(t, resp.Response, "95.500")
	assert.Contains(t, resp.Response, "+1.2%")
	assert.Contains(t, resp.Response, "**Khuyến nghị:** Tích cực")
	assert.Contains(t, resp.Response, Disclaimer)
	assert.Equal(t, []string{"TCBS", "mock/ai"}, resp.DataSources)

	parsed, err := ParseMarkdown(resp.Response)
	require.NoError(t, err)
	assert.Equal(t, "VCB", parsed.Symbol)
	assert.True(t, parsed.Price.Equal(decimal.NewFromInt(95500)))
	assert.Equal(t, models.RecommendPositive, parsed.Recommendation)
}

func TestHandle_NoSymbol_NoDataCall(t *testing.T) {
	f := newFixture(t)
	f.ai.reply = "Thị trường giao dịch thận trọng trong phiên sáng."

	resp, err := f.svc.Handle(context.Background(), "", "Thị trường hôm nay thế nào?")
	require.NoError(t, err)

	assert.Equal(t, 0, f.quotes.callCount(), "data provider must not be called without a symbol")
	assert.Equal(t, 1, f.ai.callCount())
	assert.Equal(t, models.IntentGeneral, resp.Intent)
	assert.Equal(t, "default", resp.SessionID)
	assert.True(t, strings.HasPrefix(resp.Response, "## Phân tích thị trường"))
	assert.Contains(t, resp.Response, "**Khuyến nghị:** Trung lập")
}

func TestHandle_PriceIntent_DataFailure_NoAICall(t *testing.T) {
	f := newFixture(t)
	f.quotes.err = errors.New("TCBS API error: bad gateway")

	_, err := f.svc.Handle(context.Background(), "s1", "Giá VCB hôm nay")
	require.Error(t, err)

	assert.Equal(t, models.KindDataProviderUnavailable, models.KindOf(err))
	assert.Equal(t, 0, f.ai.callCount(), "AI must not be called when price data is missing")
	assert.Empty(t, f.history.Get("s1"))
}

func TestHandle_UnknownSymbol(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Handle(context.Background(), "s1", "Giá ABCD hôm nay")
	assert.Equal(t, models.KindInvalidSymbol, models.KindOf(err))

	var ce *models.ChatError
	require.True(t, errors.As(err, &ce))
	assert.Contains(t, ce.UserMessage(), "ABCD")
}

func TestHandle_GeneralIntent_DataFailureDegrades(t *testing.T) {
	f := newFixture(t)
	f.quotes.err = errors.New("timeout")

	resp, err := f.svc.Handle(context.Background(), "s1", "Phân tích VCB hiện tại")
	require.NoError(t, err)

	require.Len(t, resp.Notes, 1)
	assert.Contains(t, resp.Response, resp.Notes[0])
	assert.True(t, strings.HasPrefix(resp.Response, "## Phân tích thị trường"))
	assert.Contains(t, f.ai.prompts[0], "Dữ liệu còn thiếu")
}

func TestHandle_NewsFailure(t *testing.T) {
	f := newFixture(t)
	f.news.err = errors.New("IQX API error")

	_, err := f.svc.Handle(context.Background(), "s1", "Tin tức mới nhất về FPT")
	assert.Equal(t, models.KindNewsProviderUnavailable, models.KindOf(err))
	assert.Equal(t, 0, f.ai.callCount())
}

func TestHandle_NewsWithoutSnapshotDegrades(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Handle(context.Background(), "s1", "Tin tức mới nhất về FPT")
	require.NoError(t, err)

	assert.Equal(t, models.IntentNews, resp.Intent)
	assert.Contains(t, resp.DataSources, "IQX")
	assert.Len(t, resp.Notes, 1, "missing FPT snapshot should be noted")
	assert.Contains(t, f.ai.prompts[0], "FPT lãi kỷ lục")
}

func TestHandle_Comparison(t *testing.T) {
	f := newFixture(t)

	resp, err := f.svc.Handle(context.Background(), "s1", "So sánh VCB và TCB")
	require.NoError(t, err)

	assert.Equal(t, models.IntentComparison, resp.Intent)
	assert.ElementsMatch(t, []string{"VCB", "TCB"}, f.quotes.calls)
	assert.Contains(t, f.ai.prompts[0], "Dữ liệu TCB")
}

func TestHandle_FinancialsIncludesReport(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Handle(context.Background(), "s1", "Báo cáo tài chính VCB")
	require.NoError(t, err)
	assert.Contains(t, f.ai.prompts[0], "118953")
}

func TestHandle_AIFailure(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		err   error
	}{
		{"provider error", "", errors.New("503")},
		{"too short", "ok", nil},
		{"error text", "An error occurred while processing", nil},
		{"auth text", "Invalid API key provided", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.ai.reply, f.ai.err = tt.reply, tt.err

			_, err := f.svc.Handle(context.Background(), "s1", "Phân tích VCB hiện tại")
			assert.Equal(t, models.KindAIServiceUnavailable, models.KindOf(err))
			assert.Empty(t, f.history.Get("s1"), "failed turns are not recorded")
		})
	}
}

func TestHandle_MalformedInput(t *testing.T) {
	f := newFixture(t)
	for _, msg := range []string{"", "   ", "<>"} {
		_, err := f.svc.Handle(context.Background(), "s1", msg)
		assert.Equal(t, models.KindMalformedInput, models.KindOf(err), "message %q", msg)
	}
	assert.Equal(t, 0, f.ai.callCount())
}

func TestHandle_HistoryRecordedAndBounded(t *testing.T) {
	f := newFixture(t)

	for i := 0; i < 3; i++ {
		_, err := f.svc.Handle(context.Background(), "s1", "Phân tích VCB hiện tại")
		require.NoError(t, err)
	}

	h := f.svc.History("s1")
	require.Len(t, h, 4)
	assert.Equal(t, models.RoleUser, h[2].Role)
	assert.Equal(t, models.RoleAssistant, h[3].Role)
	assert.Contains(t, f.ai.prompts[2], "Lịch sử hội thoại gần đây")

	assert.True(t, f.svc.Clear("s1"))
	assert.Empty(t, f.svc.History("s1"))
}

func TestHandle_SameSessionWaitHonoursDeadline(t *testing.T) {
	f := newFixture(t)
	f.ai.entered = make(chan struct{}, 1)
	f.ai.release = make(chan struct{})

	first := make(chan error, 1)
	go func() {
		_, err := f.svc.Handle(context.Background(), "s1", "Phân tích VCB hiện tại")
		first <- err
	}()
	<-f.ai.entered

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := f.svc.Handle(ctx, "s1", "Phân tích VCB hiện tại")
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.Equal(t, models.KindAIServiceUnavailable, models.KindOf(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, elapsed, 2*time.Second)
	assert.Equal(t, 1, f.ai.callCount())

	close(f.ai.release)
	require.NoError(t, <-first)
	assert.Len(t, f.svc.History("s1"), 2)
}

func TestHandle_ClearDuringTurnKeepsReply(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Handle(context.Background(), "s1", "Phân tích VCB hiện tại")
	require.NoError(t, err)

	f.ai.entered = make(chan struct{}, 1)
	f.ai.release = make(chan struct{})
	done := make(chan error, 1)
	go func() {
		_, err := f.svc.Handle(context.Background(), "s1", "Phân tích VCB hiện tại")
		done <- err
	}()
	<-f.ai.entered

	assert.True(t, f.svc.Clear("s1"))
	close(f.ai.release)
	require.NoError(t, <-done)

	h := f.svc.History("s1")
	require.Len(t, h, 2)
	assert.Equal(t, models.RoleUser, h[0].Role)
	assert.Equal(t, models.RoleAssistant, h[1].Role)
}

func TestSuggestions(t *testing.T) {
	f := newFixture(t)

	general := f.svc.Suggestions("")
	assert.Len(t, general, 8)
	assert.Equal(t, "Giá cổ phiếu VCB hôm nay như thế nào?", general[0])

	withSymbol := f.svc.Suggestions("fpt")
	require.Len(t, withSymbol, 12)
	assert.Contains(t, withSymbol[0], "FPT")
	assert.Equal(t, general, withSymbol[4:])

	assert.Len(t, f.svc.Suggestions("not-a-symbol"), 8)
}
