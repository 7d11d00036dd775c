package chat

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/vnstock-chat/internal/common"
	"github.com/bobmcallan/vnstock-chat/internal/models"
)

// Disclaimer closes every formatted reply
const Disclaimer = "> *Lưu ý: Thông tin chỉ mang tính tham khảo, không phải khuyến nghị đầu tư.*"

const (
	recommendationLabel = "**Khuyến nghị:**"
	defaultHeadline     = "Phân tích thị trường"
)

var hundred = decimal.NewFromInt(100)

// FormatMarkdown renders the reply shown to the user. snap may be nil.
func FormatMarkdown(snap *models.StockSnapshot, a models.Analysis, notes []string) string {
	var sb strings.Builder

	sb.WriteString("## " + headline(snap, a) + "\n\n")

	rec := a.Recommendation
	if rec == "" {
		rec = models.RecommendNeutral
	}
	sb.WriteString(fmt.Sprintf("%s %s\n\n", recommendationLabel, rec))

	if len(a.Rationale) > 0 {
		for _, r := range a.Rationale {
			sb.WriteString("- " + r + "\n")
		}
		sb.WriteString("\n")
	}

	if body := strings.TrimSpace(a.Body); body != "" {
		sb.WriteString(body + "\n\n")
	}

	if len(notes) > 0 {
		sb.WriteString("**Dữ liệu chưa đầy đủ:**\n")
		for _, n := range notes {
			sb.WriteString("- " + n + "\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString(Disclaimer + "\n")
	return sb.String()
}

func headline(snap *models.StockSnapshot, a models.Analysis) string {
	if snap != nil {
		return fmt.Sprintf("%s: %s VND (%s)", snap.Symbol, common.FormatVND(snap.Price), common.FormatSignedPct(snap.ChangePct))
	}
	if a.Headline != "" {
		return a.Headline
	}
	return defaultHeadline
}

// rationale lists the snapshot facts shown under the recommendation
func rationale(snap *models.StockSnapshot) []string {
	if snap == nil {
		return nil
	}
	lines := []string{
		fmt.Sprintf("Phiên %s, khối lượng %s", snap.TradingDate.Format("02/01/2006"), common.FormatInt(snap.Volume)),
	}
	return append(lines, ratioLines(snap.Ratios)...)
}

// extractAnalysis splits the model's stance line from the body.
// A missing or unknown stance is treated as neutral.
func extractAnalysis(completion string) models.Analysis {
	a := models.Analysis{Recommendation: models.RecommendNeutral}

	lines := strings.Split(strings.TrimSpace(completion), "\n")
	kept := lines[:0]
	for _, line := range lines {
		trimmed := strings.Trim(strings.TrimSpace(line), "*_ ")
		if rest, ok := cutPrefixFold(trimmed, stanceMarker); ok {
			if rec, ok := parseRecommendation(rest); ok {
				a.Recommendation = rec
			}
			continue
		}
		kept = append(kept, line)
	}

	a.Body = strings.TrimSpace(strings.Join(kept, "\n"))
	return a
}

func parseRecommendation(s string) (models.Recommendation, bool) {
	s = strings.ToLower(strings.Trim(strings.TrimSpace(s), "*_ ."))
	switch {
	case strings.HasPrefix(s, strings.ToLower(string(models.RecommendPositive))):
		return models.RecommendPositive, true
	case strings.HasPrefix(s, strings.ToLower(string(models.RecommendCautious))):
		return models.RecommendCautious, true
	case strings.HasPrefix(s, strings.ToLower(string(models.RecommendNeutral))):
		return models.RecommendNeutral, true
	}
	return "", false
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return "", false
	}
	return s[len(prefix):], true
}

// ParsedReply is what ParseMarkdown recovers from a formatted reply
type ParsedReply struct {
	Symbol         string
	Price          decimal.Decimal
	ChangePct      decimal.Decimal
	HasPrice       bool
	Recommendation models.Recommendation
}

var (
	headlinePattern       = regexp.MustCompile(`(?m)^## ([A-Z][A-Z0-9]{2,3}): ([\d.,]+) VND \(([+-]?[\d.]+)%\)\s*$`)
	recommendationPattern = regexp.MustCompile(`(?m)^\*\*Khuyến nghị:\*\* (.+?)\s*$`)
)

// ParseMarkdown recovers the headline figures and recommendation from FormatMarkdown output.
func ParseMarkdown(md string) (ParsedReply, error) {
	var out ParsedReply

	if m := headlinePattern.FindStringSubmatch(md); m != nil {
		price, err := common.ParseVND(m[2])
		if err != nil {
			return out, err
		}
		pct, err := decimal.NewFromString(m[3])
		if err != nil {
			return out, fmt.Errorf("invalid change %q: %w", m[3], err)
		}
		out.Symbol = m[1]
		out.Price = price
		out.ChangePct = pct
		out.HasPrice = true
	}

	m := recommendationPattern.FindStringSubmatch(md)
	if m == nil {
		return out, fmt.Errorf("no recommendation line")
	}
	rec, ok := parseRecommendation(m[1])
	if !ok {
		return out, fmt.Errorf("unknown recommendation %q", m[1])
	}
	out.Recommendation = rec
	return out, nil
}
