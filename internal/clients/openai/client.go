// Package openai adapts an OpenAI-compatible chat endpoint through eino
package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	einoopenai "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/bobmcallan/vnstock-chat/internal/common"
	"github.com/bobmcallan/vnstock-chat/internal/interfaces"
)

const (
	DefaultBaseURL   = "https://api.openai.com/v1"
	DefaultModel     = "gpt-4o-mini"
	DefaultMaxTokens = 2048
)

// SystemPrompt frames every completion as a Vietnamese market assistant
const SystemPrompt = `Bạn là trợ lý phân tích chứng khoán Việt Nam.
Trả lời bằng tiếng Việt, khách quan, dựa trên dữ liệu được cung cấp.
Không bịa số liệu. Không đưa ra khuyến nghị mua hoặc bán.`

// Client implements interfaces.AIClient
type Client struct {
	chat    model.BaseChatModel
	model   string
	system  string
	timeout time.Duration
	logger  *common.Logger
}

// Config holds connection settings for the endpoint
type Config struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTimeout bounds each completion call
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithSystemPrompt replaces the default system message. Empty disables it.
func WithSystemPrompt(prompt string) ClientOption {
	return func(c *Client) {
		c.system = prompt
	}
}

// withChatModel swaps the underlying model, used by tests
func withChatModel(m model.BaseChatModel) ClientOption {
	return func(c *Client) {
		c.chat = m
	}
}

// NewClient creates an eino-backed chat client
func NewClient(ctx context.Context, cfg Config, opts ...ClientOption) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}

	c := &Client{
		model:  cfg.Model,
		system: SystemPrompt,
		logger: common.NewSilentLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.chat == nil {
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai API key is required")
		}
		maxTokens := cfg.MaxTokens
		cm, err := einoopenai.NewChatModel(ctx, &einoopenai.ChatModelConfig{
			BaseURL:   cfg.BaseURL,
			APIKey:    cfg.APIKey,
			Model:     cfg.Model,
			MaxTokens: &maxTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create OpenAI chat model: %w", err)
		}
		c.chat = cm
	}

	return c, nil
}

// Name identifies the provider and model
func (c *Client) Name() string {
	return "openai/" + c.model
}

// GenerateContent sends the prompt as a single user turn
func (c *Client) GenerateContent(ctx context.Context, prompt string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	msgs := make([]*schema.Message, 0, 2)
	if c.system != "" {
		msgs = append(msgs, schema.SystemMessage(c.system))
	}
	msgs = append(msgs, schema.UserMessage(prompt))

	start := time.Now()
	out, err := c.chat.Generate(ctx, msgs)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	if out == nil || strings.TrimSpace(out.Content) == "" {
		return "", fmt.Errorf("no content generated")
	}

	c.logger.Debug().
		Str("model", c.model).
		Int("completion_chars", len(out.Content)).
		Dur("elapsed", time.Since(start)).
		Msg("OpenAI completion")

	return out.Content, nil
}

var _ interfaces.AIClient = (*Client)(nil)
