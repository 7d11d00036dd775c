package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bobmcallan/vnstock-chat/internal/models"
)

const classifyTimeout = 15 * time.Second

type classifyResponse struct {
	Intent string `json:"intent"`
}

// classify asks the AI adapter to pick an intent. Any failure keeps general.
func (p *Parser) classify(ctx context.Context, text, symbol string) models.Intent {
	ctx, cancel := context.WithTimeout(ctx, classifyTimeout)
	defer cancel()

	response, err := p.classifier.GenerateContent(ctx, buildClassifyPrompt(text, symbol))
	if err != nil {
		p.logger.Debug().Err(err).Str("symbol", symbol).Msg("Intent classification failed")
		return models.IntentGeneral
	}

	intent, ok := parseClassifyResponse(response)
	if !ok {
		p.logger.Debug().Str("response", truncate(response, 120)).Msg("Unusable intent classification")
		return models.IntentGeneral
	}
	return intent
}

func buildClassifyPrompt(text, symbol string) string {
	var sb strings.Builder
	sb.WriteString("Phân loại ý định của câu hỏi chứng khoán sau.\n")
	sb.WriteString(fmt.Sprintf("Mã cổ phiếu: %s\n", symbol))
	sb.WriteString(fmt.Sprintf("Câu hỏi: %s\n\n", text))
	sb.WriteString("Chọn đúng một giá trị: price, financials, news, comparison, portfolio, general.\n")
	sb.WriteString(`Chỉ trả về JSON dạng {"intent": "<giá trị>"}, không giải thích.`)
	return sb.String()
}

// parseClassifyResponse strips code fences and decodes {"intent": "..."}
func parseClassifyResponse(response string) (models.Intent, bool) {
	response = strings.TrimSpace(response)
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	response = strings.TrimSpace(response)

	var data classifyResponse
	if err := json.Unmarshal([]byte(response), &data); err != nil {
		return models.IntentGeneral, false
	}
	return models.ParseIntent(strings.ToLower(strings.TrimSpace(data.Intent)))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
