package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Supported data sources and AI providers.
const (
	SourceTCBS     = "TCBS"
	SourceVNDirect = "VND"

	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// MaxRetryCount caps the adapter retry policy regardless of configuration.
const MaxRetryCount = 3

// Config holds all configuration for vnstock-chat
type Config struct {
	Environment string        `toml:"environment"`
	Debug       bool          `toml:"debug"`
	Server      ServerConfig  `toml:"server"`
	Chat        ChatConfig    `toml:"chat"`
	Data        DataConfig    `toml:"data"`
	AI          AIConfig      `toml:"ai"`
	Retry       RetryConfig   `toml:"retry"`
	Clients     ClientsConfig `toml:"clients"`
	Logging     LoggingConfig `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// ChatConfig controls conversation handling.
type ChatConfig struct {
	MaxHistory    int `toml:"max_history"`    // messages kept per session
	ContextTurns  int `toml:"context_turns"`  // messages embedded in each prompt
	MaxComparison int `toml:"max_comparison"` // symbols fetched for a comparison
}

// DataConfig selects the market data provider.
type DataConfig struct {
	Source   string `toml:"source"`   // "TCBS" or "VND"
	Fallback bool   `toml:"fallback"` // try the other source when the preferred one fails
}

// AIConfig selects the completion provider.
type AIConfig struct {
	Provider       string `toml:"provider"` // "gemini" or "openai"
	Timeout        string `toml:"timeout"`
	ClassifyIntent bool   `toml:"classify_intent"`
}

// GetTimeout parses and returns the completion timeout
func (c *AIConfig) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 60*time.Second)
}

// RetryConfig is the adapter-level retry policy for HTTP 429/5xx responses.
type RetryConfig struct {
	Count   int    `toml:"count"`
	Wait    string `toml:"wait"`
	MaxWait string `toml:"max_wait"`
}

// Attempts returns the retry count clamped to [0, MaxRetryCount].
func (c *RetryConfig) Attempts() int {
	if c.Count < 0 {
		return 0
	}
	if c.Count > MaxRetryCount {
		return MaxRetryCount
	}
	return c.Count
}

// GetWait returns the initial backoff
func (c *RetryConfig) GetWait() time.Duration {
	return parseDuration(c.Wait, 200*time.Millisecond)
}

// GetMaxWait returns the backoff ceiling
func (c *RetryConfig) GetMaxWait() time.Duration {
	return parseDuration(c.MaxWait, 2*time.Second)
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	TCBS     HTTPClientConfig `toml:"tcbs"`
	VNDirect HTTPClientConfig `toml:"vndirect"`
	IQX      NewsClientConfig `toml:"iqx"`
	Gemini   GeminiConfig     `toml:"gemini"`
	OpenAI   OpenAIConfig     `toml:"openai"`
}

// HTTPClientConfig holds settings shared by the REST data adapters
type HTTPClientConfig struct {
	BaseURL   string `toml:"base_url"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *HTTPClientConfig) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 30*time.Second)
}

// NewsClientConfig holds the news adapter settings
type NewsClientConfig struct {
	BaseURL   string `toml:"base_url"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
	Language  string `toml:"language"`
}

// GetTimeout parses and returns the timeout duration
func (c *NewsClientConfig) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 30*time.Second)
}

// GeminiConfig holds Gemini API configuration
type GeminiConfig struct {
	APIKey    string `toml:"api_key"`
	Model     string `toml:"model"`
	MaxTokens int    `toml:"max_tokens"`
}

// OpenAIConfig holds configuration for any OpenAI-compatible endpoint
type OpenAIConfig struct {
	APIKey    string `toml:"api_key"`
	BaseURL   string `toml:"base_url"`
	Model     string `toml:"model"`
	MaxTokens int    `toml:"max_tokens"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level    string   `toml:"level"`
	Format   string   `toml:"format"`
	Outputs  []string `toml:"outputs"`
	FilePath string   `toml:"file_path"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 5005,
		},
		Chat: ChatConfig{
			MaxHistory:    10,
			ContextTurns:  6,
			MaxComparison: 5,
		},
		Data: DataConfig{
			Source:   SourceTCBS,
			Fallback: true,
		},
		AI: AIConfig{
			Provider:       ProviderGemini,
			Timeout:        "60s",
			ClassifyIntent: true,
		},
		Retry: RetryConfig{
			Count:   0,
			Wait:    "200ms",
			MaxWait: "2s",
		},
		Clients: ClientsConfig{
			TCBS: HTTPClientConfig{
				BaseURL:   "https://apipubaws.tcbs.com.vn",
				RateLimit: 5,
				Timeout:   "30s",
			},
			VNDirect: HTTPClientConfig{
				BaseURL:   "https://finfo-api.vndirect.com.vn",
				RateLimit: 5,
				Timeout:   "30s",
			},
			IQX: NewsClientConfig{
				BaseURL:   "https://proxy.iqx.vn/proxy/ai/api/v2",
				RateLimit: 5,
				Timeout:   "30s",
				Language:  "vi",
			},
			Gemini: GeminiConfig{
				Model:     "gemini-flash-latest",
				MaxTokens: 2048,
			},
			OpenAI: OpenAIConfig{
				BaseURL:   "https://api.openai.com/v1",
				Model:     "gpt-4o-mini",
				MaxTokens: 2048,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "console",
			Outputs:  []string{"console"},
			FilePath: "./logs/vnstock-chat.log",
		},
	}
}

// LoadDotEnv loads KEY=VALUE pairs from .env files into the process
// environment. Variables already set are left untouched; missing files are ignored.
func LoadDotEnv(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		_ = godotenv.Load(p)
	}
}

// LoadConfig loads configuration from files with environment overrides.
// Files are merged in order; later files override earlier ones.
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)
	normalize(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("VNSTOCK_ENV"); env != "" {
		config.Environment = env
	}

	if v := os.Getenv("DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.Debug = b
		}
	}

	if host := os.Getenv("VNSTOCK_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("VNSTOCK_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Logging.Level = strings.ToLower(level)
	}
	if level := os.Getenv("VNSTOCK_LOG_LEVEL"); level != "" {
		config.Logging.Level = strings.ToLower(level)
	}

	if src := os.Getenv("VNSTOCK_DEFAULT_SOURCE"); src != "" {
		config.Data.Source = src
	}

	if v := os.Getenv("MAX_CONVERSATION_HISTORY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Chat.MaxHistory = n
		}
	}

	if v := os.Getenv("AI_PROVIDER"); v != "" {
		config.AI.Provider = strings.ToLower(v)
	}

	if key, err := ResolveAPIKey("gemini_api_key", config.Clients.Gemini.APIKey); err == nil {
		config.Clients.Gemini.APIKey = key
	}
	if key, err := ResolveAPIKey("openai_api_key", config.Clients.OpenAI.APIKey); err == nil {
		config.Clients.OpenAI.APIKey = key
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		config.Clients.OpenAI.BaseURL = v
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		config.Clients.OpenAI.Model = v
	}
	if v := os.Getenv("GEMINI_MODEL"); v != "" {
		config.Clients.Gemini.Model = v
	}
}

// normalize resets out-of-range values to their defaults.
func normalize(config *Config) {
	defaults := NewDefaultConfig()

	config.Data.Source = strings.ToUpper(strings.TrimSpace(config.Data.Source))
	switch config.Data.Source {
	case SourceTCBS, SourceVNDirect:
	case "VNDIRECT":
		config.Data.Source = SourceVNDirect
	default:
		config.Data.Source = defaults.Data.Source
	}

	switch config.AI.Provider {
	case ProviderGemini, ProviderOpenAI:
	default:
		config.AI.Provider = defaults.AI.Provider
	}

	if config.Chat.MaxHistory <= 0 {
		config.Chat.MaxHistory = defaults.Chat.MaxHistory
	}
	if config.Chat.ContextTurns <= 0 || config.Chat.ContextTurns > config.Chat.MaxHistory {
		config.Chat.ContextTurns = config.Chat.MaxHistory
	}
	if config.Chat.MaxComparison < 2 {
		config.Chat.MaxComparison = defaults.Chat.MaxComparison
	}
}

// IsProduction returns true when running in production mode
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production") || strings.EqualFold(c.Environment, "prod")
}

// ValidateRequired returns the config keys that must be set for the selected AI provider.
func (c *Config) ValidateRequired() []string {
	var missing []string
	switch c.AI.Provider {
	case ProviderOpenAI:
		if c.Clients.OpenAI.APIKey == "" {
			missing = append(missing, "clients.openai.api_key")
		}
	default:
		if c.Clients.Gemini.APIKey == "" {
			missing = append(missing, "clients.gemini.api_key")
		}
	}
	return missing
}

// ResolveAPIKey resolves an API key from environment variables, falling back
// to the configured value.
func ResolveAPIKey(name string, fallback string) (string, error) {
	keyToEnvMapping := map[string][]string{
		"gemini_api_key": {"GEMINI_API_KEY", "VNSTOCK_GEMINI_API_KEY", "GOOGLE_API_KEY"},
		"openai_api_key": {"OPENAI_API_KEY", "VNSTOCK_OPENAI_API_KEY"},
	}

	if envVarNames, ok := keyToEnvMapping[name]; ok {
		for _, envVarName := range envVarNames {
			if envValue := os.Getenv(envVarName); envValue != "" {
				return envValue, nil
			}
		}
	}

	if fallback != "" {
		return fallback, nil
	}

	return "", fmt.Errorf("API key '%s' not found in environment or config", name)
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
