package chat

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/vnstock-chat/internal/common"
	"github.com/bobmcallan/vnstock-chat/internal/models"
	"github.com/bobmcallan/vnstock-chat/internal/signals"
)

// stanceMarker introduces the recommendation line the model is asked to end with
const stanceMarker = "ĐÁNH GIÁ:"

// maxPromptNews caps the articles embedded in a prompt
const maxPromptNews = 8

// promptInput carries everything gathered for one message
type promptInput struct {
	message string
	query   models.ParsedQuery
	facts   *facts
	history []models.ChatMessage
}

// buildPrompt creates the Vietnamese prompt for one chat turn
func buildPrompt(in promptInput) string {
	var sb strings.Builder

	sb.WriteString("Bạn là trợ lý phân tích chứng khoán Việt Nam. Trả lời bằng tiếng Việt, ngắn gọn, dùng markdown.\n")
	sb.WriteString("Chỉ dùng số liệu được cung cấp bên dưới. Không bịa số liệu. Không khuyến nghị mua hoặc bán.\n\n")

	if len(in.history) > 0 {
		sb.WriteString("Lịch sử hội thoại gần đây:\n")
		for _, m := range in.history {
			role := "Người dùng"
			if m.Role == models.RoleAssistant {
				role = "Trợ lý"
			}
			sb.WriteString(fmt.Sprintf("- %s: %s\n", role, oneLine(m.Text, 300)))
		}
		sb.WriteString("\n")
	}

	f := in.facts
	if f != nil {
		for _, snap := range f.snapshots {
			writeSnapshot(&sb, snap)
		}
		if len(f.history) > 0 {
			writePriceHistory(&sb, in.query.Symbol, f.history)
		}
		if f.report != nil {
			writeReport(&sb, f.report)
		}
		if f.news != nil {
			writeNews(&sb, f.news)
		}
		if len(f.notes) > 0 {
			sb.WriteString("Dữ liệu còn thiếu:\n")
			for _, n := range f.notes {
				sb.WriteString("- " + n + "\n")
			}
			sb.WriteString("\n")
		}
	}

	sb.WriteString(fmt.Sprintf("Câu hỏi: %s\n\n", in.message))
	sb.WriteString(intentInstruction(in.query))
	sb.WriteString("\n\nKết thúc bằng đúng một dòng: " + stanceMarker + " Tích cực | Trung lập | Thận trọng")

	return sb.String()
}

func intentInstruction(q models.ParsedQuery) string {
	switch q.Intent {
	case models.IntentPrice:
		return "Yêu cầu: mô tả diễn biến giá, khối lượng và mức thay đổi so với phiên trước trong 3-5 ý."
	case models.IntentFinancials:
		return "Yêu cầu: tóm tắt sức khỏe tài chính dựa trên các chỉ số và báo cáo kết quả kinh doanh."
	case models.IntentNews:
		return "Yêu cầu: tóm tắt các tin nổi bật, nêu sắc thái (Tốt, Xấu, Trung lập) của từng tin. Không phân tích giá."
	case models.IntentComparison:
		return "Yêu cầu: so sánh các mã theo giá, mức thay đổi và chỉ số định giá, trình bày dạng bảng markdown."
	case models.IntentPortfolio:
		return "Yêu cầu: đưa ra nhận xét chung về phân bổ danh mục và rủi ro tập trung."
	default:
		if q.HasSymbol() {
			return "Yêu cầu: đưa ra nhận định tổng quan về mã cổ phiếu dựa trên dữ liệu có sẵn."
		}
		return "Yêu cầu: trả lời câu hỏi chung về thị trường chứng khoán Việt Nam một cách khách quan."
	}
}

func writeSnapshot(sb *strings.Builder, s *models.StockSnapshot) {
	sb.WriteString(fmt.Sprintf("Dữ liệu %s (nguồn %s, phiên %s):\n", s.Symbol, s.Source, s.TradingDate.Format("02/01/2006")))
	if s.Company != nil && s.Company.Name != "" {
		sb.WriteString(fmt.Sprintf("- Công ty: %s", s.Company.Name))
		if s.Company.Industry != "" {
			sb.WriteString(fmt.Sprintf(" (%s)", s.Company.Industry))
		}
		sb.WriteString("\n")
	}
	sb.WriteString(fmt.Sprintf("- Giá đóng cửa: %s VND (%s, %s VND)\n",
		common.FormatVND(s.Price), common.FormatSignedPct(s.ChangePct), common.FormatVND(s.Change)))
	sb.WriteString(fmt.Sprintf("- Mở cửa/Cao/Thấp: %s / %s / %s\n",
		common.FormatVND(s.Open), common.FormatVND(s.High), common.FormatVND(s.Low)))
	sb.WriteString(fmt.Sprintf("- Khối lượng: %s\n", common.FormatInt(s.Volume)))
	for _, line := range ratioLines(s.Ratios) {
		sb.WriteString("- " + line + "\n")
	}
	sb.WriteString("\n")
}

func writePriceHistory(sb *strings.Builder, symbol string, bars []models.PriceBar) {
	first, last := bars[0], bars[len(bars)-1]
	low, high := first.Low, first.High
	for _, b := range bars {
		if b.Low.LessThan(low) {
			low = b.Low
		}
		if b.High.GreaterThan(high) {
			high = b.High
		}
	}
	sb.WriteString(fmt.Sprintf("Lịch sử giá %s từ %s đến %s (%d phiên):\n", symbol,
		first.Date.Format("02/01/2006"), last.Date.Format("02/01/2006"), len(bars)))
	sb.WriteString(fmt.Sprintf("- Đóng cửa đầu kỳ: %s, cuối kỳ: %s\n", common.FormatVND(first.Close), common.FormatVND(last.Close)))
	sb.WriteString(fmt.Sprintf("- Cao nhất: %s, thấp nhất: %s\n", common.FormatVND(high), common.FormatVND(low)))
	if first.Close.IsPositive() {
		pct := last.Close.Sub(first.Close).Div(first.Close).Mul(hundred)
		sb.WriteString(fmt.Sprintf("- Thay đổi cả kỳ: %s\n", common.FormatSignedPct(pct)))
	}
	writeIndicators(sb, signals.NewComputer().Compute(bars))
	sb.WriteString("\n")
}

var (
	trendLabels = map[signals.Trend]string{
		signals.TrendUp:      "tăng",
		signals.TrendDown:    "giảm",
		signals.TrendSideway: "đi ngang",
	}
	rsiLabels = map[string]string{
		"overbought": "quá mua",
		"oversold":   "quá bán",
		"neutral":    "trung tính",
	}
	volumeLabels = map[string]string{
		"spike":  "đột biến",
		"low":    "thấp",
		"normal": "bình thường",
	}
	crossLabels = map[string]string{
		signals.CrossGolden: "MA20 vừa cắt lên MA50",
		signals.CrossDeath:  "MA20 vừa cắt xuống MA50",
	}
)

// writeIndicators appends the technical read of a price history
func writeIndicators(sb *strings.Builder, ind *signals.Indicators) {
	if ind == nil {
		return
	}
	vnd := func(f float64) string { return common.FormatVND(decimal.NewFromFloat(f).Round(0)) }

	sb.WriteString(fmt.Sprintf("- Xu hướng: %s\n", trendLabels[ind.Trend]))
	if ind.SMA20 > 0 {
		line := fmt.Sprintf("- MA20: %s (giá cách %s)", vnd(ind.SMA20), common.FormatSignedPct(decimal.NewFromFloat(ind.DistSMA20).Round(2)))
		if ind.SMA50 > 0 {
			line += fmt.Sprintf(", MA50: %s", vnd(ind.SMA50))
		}
		sb.WriteString(line + "\n")
	}
	if ind.Sessions > 14 {
		sb.WriteString(fmt.Sprintf("- RSI(14): %.1f (%s)\n", ind.RSI14, rsiLabels[ind.RSIState]))
	}
	sb.WriteString(fmt.Sprintf("- Khối lượng phiên cuối: %.1f lần trung bình (%s)\n", ind.VolumeRatio, volumeLabels[ind.VolumeState]))
	sb.WriteString(fmt.Sprintf("- Hỗ trợ: %s, kháng cự: %s\n", vnd(ind.Support), vnd(ind.Resistance)))
	if label, ok := crossLabels[ind.Crossover]; ok {
		sb.WriteString("- Tín hiệu: " + label + "\n")
	}
}

func writeReport(sb *strings.Builder, r *models.FinancialReport) {
	rows := r.Rows
	if len(rows) > 2 {
		rows = rows[:2]
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return
	}
	sb.WriteString(fmt.Sprintf("Báo cáo %s của %s (kỳ gần nhất, đơn vị tỷ VND):\n", r.Kind, r.Symbol))
	sb.Write(data)
	sb.WriteString("\n\n")
}

func writeNews(sb *strings.Builder, page *models.NewsPage) {
	sb.WriteString(fmt.Sprintf("Tin tức về %s (%d bài):\n", page.Symbol, page.TotalArticles))
	for i, n := range page.Items {
		if i >= maxPromptNews {
			break
		}
		line := fmt.Sprintf("- [%s] %s", n.PublishedAt.Format("02/01/2006"), n.Headline)
		if n.Sentiment != "" {
			line += fmt.Sprintf(" (sắc thái: %s)", n.Sentiment)
		}
		if n.Summary != "" {
			line += ": " + oneLine(n.Summary, 200)
		}
		sb.WriteString(line + "\n")
	}
	sb.WriteString("\n")
}

// ratioLines renders the reported ratios, skipping missing ones
func ratioLines(r *models.FinancialRatios) []string {
	if r == nil || r.Empty() {
		return nil
	}
	var lines []string
	if r.PE != nil {
		lines = append(lines, "P/E: "+common.FormatVND(*r.PE))
	}
	if r.PB != nil {
		lines = append(lines, "P/B: "+common.FormatVND(*r.PB))
	}
	if r.ROE != nil {
		lines = append(lines, "ROE: "+common.FormatVND(*r.ROE)+"%")
	}
	if r.ROA != nil {
		lines = append(lines, "ROA: "+common.FormatVND(*r.ROA)+"%")
	}
	if r.EPS != nil {
		lines = append(lines, "EPS: "+common.FormatVND(*r.EPS)+" VND")
	}
	return lines
}

func oneLine(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > max {
		return string(r[:max]) + "…"
	}
	return s
}
