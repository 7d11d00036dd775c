package chat

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/vnstock-chat/internal/models"
)

func TestFormatMarkdown_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		snap *models.StockSnapshot
		rec  models.Recommendation
	}{
		{"positive", &models.StockSnapshot{Symbol: "VCB", Price: decimal.NewFromInt(95500), ChangePct: decimal.RequireFromString("1.2")}, models.RecommendPositive},
		{"negative change", &models.StockSnapshot{Symbol: "HPG", Price: decimal.RequireFromString("27150.5"), ChangePct: decimal.RequireFromString("-0.73")}, models.RecommendCautious},
		{"flat", &models.StockSnapshot{Symbol: "FPT", Price: decimal.NewFromInt(1234000), ChangePct: decimal.Zero}, models.RecommendNeutral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md := FormatMarkdown(tt.snap, models.Analysis{Recommendation: tt.rec, Body: "Nội dung."}, nil)

			parsed, err := ParseMarkdown(md)
			require.NoError(t, err)
			assert.True(t, parsed.HasPrice)
			assert.Equal(t, tt.snap.Symbol, parsed.Symbol)
			assert.True(t, tt.snap.Price.Equal(parsed.Price), "price %s != %s", parsed.Price, tt.snap.Price)
			assert.True(t, tt.snap.ChangePct.Round(2).Equal(parsed.ChangePct), "change %s != %s", parsed.ChangePct, tt.snap.ChangePct)
			assert.Equal(t, tt.rec, parsed.Recommendation)
		})
	}
}

func TestFormatMarkdown_Layout(t *testing.T) {
	snap := vcbSnapshot()
	md := FormatMarkdown(snap, models.Analysis{
		Recommendation: models.RecommendNeutral,
		Rationale:      rationale(snap),
		Body:           "Thân bài",
	}, []string{"Thiếu báo cáo"})

	lines := strings.Split(md, "\n")
	assert.Equal(t, "## VCB: 95.500 VND (+1.2%)", lines[0])
	assert.Contains(t, md, "- P/E: 15,2")
	assert.Contains(t, md, "- Phiên 15/05/2024, khối lượng 1.200.000")
	assert.Contains(t, md, "**Dữ liệu chưa đầy đủ:**\n- Thiếu báo cáo")
	assert.True(t, strings.HasSuffix(md, Disclaimer+"\n"))
	assert.Less(t, strings.Index(md, "Thân bài"), strings.Index(md, "Thiếu báo cáo"))
}

func TestFormatMarkdown_NoSnapshot(t *testing.T) {
	md := FormatMarkdown(nil, models.Analysis{}, nil)

	parsed, err := ParseMarkdown(md)
	require.NoError(t, err)
	assert.False(t, parsed.HasPrice)
	assert.Equal(t, models.RecommendNeutral, parsed.Recommendation)
}

func TestParseMarkdown_MissingRecommendation(t *testing.T) {
	_, err := ParseMarkdown("## VCB: 95.500 VND (+1.2%)\n\nbody")
	assert.Error(t, err)
}

func TestExtractAnalysis(t *testing.T) {
	tests := []struct {
		name       string
		completion string
		rec        models.Recommendation
		body       string
	}{
		{"plain marker", "Nội dung\nĐÁNH GIÁ: Thận trọng", models.RecommendCautious, "Nội dung"},
		{"bold marker", "Nội dung\n**Đánh giá:** Tích cực.", models.RecommendPositive, "Nội dung"},
		{"missing marker", "Chỉ có nội dung", models.RecommendNeutral, "Chỉ có nội dung"},
		{"unknown stance", "Nội dung\nĐÁNH GIÁ: Mua mạnh", models.RecommendNeutral, "Nội dung"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := extractAnalysis(tt.completion)
			assert.Equal(t, tt.rec, a.Recommendation)
			assert.Equal(t, tt.body, a.Body)
		})
	}
}

func TestValidateCompletion(t *testing.T) {
	assert.NoError(t, validateCompletion("Cổ phiếu tăng nhẹ"))
	assert.Error(t, validateCompletion("   "))
	assert.Error(t, validateCompletion("Lỗi"))
	assert.Error(t, validateCompletion("Internal Server Error"))
	assert.Error(t, validateCompletion("Authentication required"))
}
