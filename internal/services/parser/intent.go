package parser

import (
	"strings"

	"github.com/bobmcallan/vnstock-chat/internal/models"
)

// intentPatterns are checked in priority order; the first group with a hit wins.
var intentPatterns = []struct {
	intent   models.Intent
	keywords []string
}{
	{models.IntentComparison, []string{"so sánh", "so với", "compare", "vs", "versus"}},
	{models.IntentPortfolio, []string{"danh mục", "portfolio", "nắm giữ"}},
	{models.IntentNews, []string{"tin tức", "tin mới", "bản tin", "news", "cập nhật", "có tin", "tin gì", "tin về"}},
	{models.IntentFinancials, []string{
		"báo cáo tài chính", "bctc", "kết quả kinh doanh", "tài chính", "doanh thu",
		"lợi nhuận", "tài sản", "nợ phải trả", "p/e", "eps", "roe", "roa",
	}},
	{models.IntentPrice, []string{"lịch sử giá", "giá", "price", "biến động", "thị giá"}},
}

// newsExclusions are phrases that contain a news keyword but ask for company info
var newsExclusions = []string{"thông tin về"}

func classifyIntent(toks []token) models.Intent {
	text := joinLower(toks)
	for _, p := range intentPatterns {
		haystack := text
		if p.intent == models.IntentNews {
			for _, ex := range newsExclusions {
				haystack = strings.ReplaceAll(haystack, phrase(ex), " ")
			}
		}
		for _, kw := range p.keywords {
			if strings.Contains(haystack, phrase(kw)) {
				return p.intent
			}
		}
	}
	return models.IntentGeneral
}

// phrase normalises a keyword the way tokenize normalises the message
func phrase(kw string) string {
	return joinLower(tokenize(kw))
}
