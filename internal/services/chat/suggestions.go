package chat

import (
	"fmt"

	"github.com/bobmcallan/vnstock-chat/internal/common"
)

var generalSuggestions = []string{
	"Giá cổ phiếu VCB hôm nay như thế nào?",
	"Thông tin về công ty Vingroup",
	"Phân tích báo cáo tài chính của HPG",
	"So sánh VCB và TCB",
	"Lịch sử giá VIC trong 3 tháng qua",
	"Doanh thu của FPT quý gần nhất",
	"Cổ phiếu nào đáng chú ý hiện tại?",
	"Xu hướng thị trường chứng khoán",
}

var symbolSuggestionTemplates = []string{
	"Giá cổ phiếu %s hôm nay như thế nào?",
	"Phân tích báo cáo tài chính của %s",
	"Tin tức mới nhất về %s",
	"Lịch sử giá %s trong 1 tháng qua",
}

// Suggestions implements interfaces.ChatService
func (s *Service) Suggestions(symbol string) []string {
	return Suggestions(symbol)
}

// Suggestions returns example questions. A valid symbol adds four
// symbol-specific questions ahead of the general ones.
func Suggestions(symbol string) []string {
	out := make([]string, 0, len(generalSuggestions)+len(symbolSuggestionTemplates))
	if sym, ok := common.ValidateSymbol(symbol); ok {
		for _, tmpl := range symbolSuggestionTemplates {
			out = append(out, fmt.Sprintf(tmpl, sym))
		}
	}
	return append(out, generalSuggestions...)
}
