package parser

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/vnstock-chat/internal/common"
	"github.com/bobmcallan/vnstock-chat/internal/models"
)

// 2024-05-15 is a Wednesday
var fixedNow = time.Date(2024, 5, 15, 10, 30, 0, 0, common.VietnamLocation)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, common.VietnamLocation)
}

func newTestParser(opts ...Option) *Parser {
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewParser(opts...)
}

type stubAI struct {
	reply string
	err   error
	calls int
}

func (s *stubAI) Name() string { return "stub" }

func (s *stubAI) GenerateContent(ctx context.Context, prompt string) (string, error) {
	s.calls++
	return s.reply, s.err
}

func TestParse_SymbolAndIntent(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		symbol  string
		symbols []string
		intent  models.Intent
	}{
		{"price today", "Giá cổ phiếu VCB hôm nay như thế nào?", "VCB", []string{"VCB"}, models.IntentPrice},
		{"analysis is general", "Phân tích VCB hiện tại", "VCB", []string{"VCB"}, models.IntentGeneral},
		{"market without ticker", "Thị trường hôm nay thế nào?", "", nil, models.IntentGeneral},
		{"comparison", "So sánh VCB và TCB", "VCB", []string{"VCB", "TCB"}, models.IntentComparison},
		{"company info is not news", "Thông tin về công ty Vingroup", "VIC", []string{"VIC"}, models.IntentGeneral},
		{"news", "Tin tức mới nhất về FPT", "FPT", []string{"FPT"}, models.IntentNews},
		{"financials", "Phân tích báo cáo tài chính của HPG", "HPG", []string{"HPG"}, models.IntentFinancials},
		{"multi-word alias", "giá hòa phát tuần này", "HPG", []string{"HPG"}, models.IntentPrice},
		{"lowercase listed code", "vcb có tin gì mới không", "VCB", []string{"VCB"}, models.IntentNews},
		{"currency is not a ticker", "Tỷ giá USD hôm nay", "", nil, models.IntentPrice},
		{"reserved word", "NAY giá thế nào", "", nil, models.IntentPrice},
		{"portfolio", "Danh mục của tôi có VNM", "VNM", []string{"VNM"}, models.IntentPortfolio},
		{"comparison beats price", "So sánh giá HPG", "HPG", []string{"HPG"}, models.IntentComparison},
		{"p/e is financials", "P/E của MWG bao nhiêu", "MWG", []string{"MWG"}, models.IntentFinancials},
		{"unlisted ticker shape", "Giá ABCD thế nào", "ABCD", []string{"ABCD"}, models.IntentPrice},
	}

	p := newTestParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := p.Parse(context.Background(), tt.input)
			assert.Equal(t, tt.symbol, q.Symbol)
			assert.Equal(t, tt.symbols, q.Symbols)
			assert.Equal(t, tt.intent, q.Intent)
		})
	}
}

func TestParse_EmptyInput(t *testing.T) {
	p := newTestParser()
	for _, in := range []string{"", "   ", "<>;'\""} {
		q := p.Parse(context.Background(), in)
		if q.Symbol != "" || q.Intent != models.IntentGeneral || q.DateRange != nil {
			t.Errorf("Parse(%q) = %+v, want empty general query", in, q)
		}
	}
}

func TestParse_SanitisesInput(t *testing.T) {
	q := newTestParser().Parse(context.Background(), "<script>Giá VCB</script>")
	assert.Equal(t, "VCB", q.Symbol)
	assert.NotContains(t, q.RawText, "<")
}

func TestParse_DateRanges(t *testing.T) {
	tests := []struct {
		name  string
		input string
		start time.Time
		end   time.Time
	}{
		{"two literals", "Giá VCB từ 01/03/2024 đến 15/03/2024", day(2024, 3, 1), day(2024, 3, 15)},
		{"reversed literals", "Giá VCB 15-03-2024 và 01-03-2024", day(2024, 3, 1), day(2024, 3, 15)},
		{"iso literal", "Giá VCB ngày 2024-05-10", day(2024, 5, 10), day(2024, 5, 10)},
		{"two-digit year", "Giá FPT 5/4/24", day(2024, 4, 5), day(2024, 4, 5)},
		{"today", "Giá VCB hôm nay", day(2024, 5, 15), day(2024, 5, 15)},
		{"yesterday", "Giá VCB hôm qua", day(2024, 5, 14), day(2024, 5, 14)},
		{"this week", "VCB tuần này", day(2024, 5, 13), day(2024, 5, 15)},
		{"last week", "VCB tuần trước", day(2024, 5, 6), day(2024, 5, 12)},
		{"this month", "VCB tháng này", day(2024, 5, 1), day(2024, 5, 15)},
		{"last month", "VCB tháng trước", day(2024, 4, 1), day(2024, 4, 30)},
		{"this year", "VCB năm nay", day(2024, 1, 1), day(2024, 5, 15)},
		{"last year", "VCB năm ngoái", day(2023, 1, 1), day(2023, 12, 31)},
		{"relative months", "Lịch sử giá VIC trong 3 tháng qua", day(2024, 2, 15), day(2024, 5, 15)},
		{"relative days", "VCB 10 ngày gần đây", day(2024, 5, 5), day(2024, 5, 15)},
		{"relative years", "HPG 2 năm trước", day(2022, 5, 15), day(2024, 5, 15)},
		{"english weeks", "VCB price last 2 weeks", day(2024, 5, 1), day(2024, 5, 15)},
		{"relative recent days", "VCB 5 ngày vừa qua", day(2024, 5, 10), day(2024, 5, 15)},
		{"within weeks", "Giá VCB trong 2 tuần", day(2024, 5, 1), day(2024, 5, 15)},
		{"quarter this year", "Lợi nhuận FPT quý 4 năm nay", day(2024, 1, 1), day(2024, 5, 15)},
		{"month this year", "Giá VCB tháng 3 năm nay", day(2024, 1, 1), day(2024, 5, 15)},
		{"index with digits this year", "Chỉ số VN30 năm nay", day(2024, 1, 1), day(2024, 5, 15)},
		{"month last year", "Giá VCB tháng 3 năm trước", day(2023, 1, 1), day(2023, 12, 31)},
	}

	p := newTestParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := p.Parse(context.Background(), tt.input)
			require.NotNil(t, q.DateRange)
			assert.True(t, tt.start.Equal(q.DateRange.Start), "start = %v, want %v", q.DateRange.Start, tt.start)
			assert.True(t, tt.end.Equal(q.DateRange.End), "end = %v, want %v", q.DateRange.End, tt.end)
		})
	}
}

func TestParse_NoDatePhrase(t *testing.T) {
	p := newTestParser()
	for _, in := range []string{"Giá VCB", "Doanh thu FPT quý 1 năm 2024", "Giá VCB ngày 31/02/2024", "VCB có 3 năm tăng trưởng"} {
		if q := p.Parse(context.Background(), in); q.DateRange != nil {
			t.Errorf("Parse(%q).DateRange = %+v, want nil", in, q.DateRange)
		}
	}
}

func TestParse_ClassifierRefinesGeneral(t *testing.T) {
	ai := &stubAI{reply: "```json\n{\"intent\": \"news\"}\n```"}
	q := newTestParser(WithClassifier(ai)).Parse(context.Background(), "Phân tích VCB hiện tại")

	assert.Equal(t, models.IntentNews, q.Intent)
	assert.Equal(t, 1, ai.calls)
}

func TestParse_ClassifierFailureKeepsGeneral(t *testing.T) {
	for _, ai := range []*stubAI{
		{err: errors.New("timeout")},
		{reply: "not json"},
		{reply: `{"intent": "buy"}`},
	} {
		q := newTestParser(WithClassifier(ai)).Parse(context.Background(), "Phân tích VCB hiện tại")
		assert.Equal(t, models.IntentGeneral, q.Intent)
	}
}

func TestParse_ClassifierSkipped(t *testing.T) {
	ai := &stubAI{reply: `{"intent": "news"}`}
	p := newTestParser(WithClassifier(ai))

	p.Parse(context.Background(), "Thị trường hôm nay thế nào?") // no symbol
	p.Parse(context.Background(), "Giá VCB")                      // keyword intent

	assert.Equal(t, 0, ai.calls)
}
