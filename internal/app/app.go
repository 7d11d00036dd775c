// Package app wires configuration, adapters and services into one App
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bobmcallan/vnstock-chat/internal/clients/gemini"
	"github.com/bobmcallan/vnstock-chat/internal/clients/iqx"
	"github.com/bobmcallan/vnstock-chat/internal/clients/openai"
	"github.com/bobmcallan/vnstock-chat/internal/clients/rest"
	"github.com/bobmcallan/vnstock-chat/internal/clients/tcbs"
	"github.com/bobmcallan/vnstock-chat/internal/clients/vndirect"
	"github.com/bobmcallan/vnstock-chat/internal/common"
	"github.com/bobmcallan/vnstock-chat/internal/interfaces"
	"github.com/bobmcallan/vnstock-chat/internal/services/chat"
	"github.com/bobmcallan/vnstock-chat/internal/services/history"
	"github.com/bobmcallan/vnstock-chat/internal/services/market"
	"github.com/bobmcallan/vnstock-chat/internal/services/parser"
	"github.com/bobmcallan/vnstock-chat/internal/services/portfolio"
	"github.com/bobmcallan/vnstock-chat/internal/services/quote"
)

// DefaultConfigFile is looked up next to the binary, then under config/
const DefaultConfigFile = "vnstock.toml"

// App holds all initialized adapters and services.
// It is the shared core used by both cmd/vnstock-server and cmd/vnstock.
type App struct {
	Config           *common.Config
	Logger           *common.Logger
	PrimaryData      interfaces.DataProvider
	SecondaryData    interfaces.DataProvider
	NewsClient       interfaces.NewsClient
	AIClient         interfaces.AIClient
	History          interfaces.HistoryStore
	Parser           interfaces.QueryParser
	QuoteService     interfaces.QuoteService
	ChatService      interfaces.ChatService
	MarketService    interfaces.MarketService
	PortfolioService interfaces.PortfolioService
	StartupTime      time.Time
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// ResolveConfigPath picks the config file: explicit path, VNSTOCK_CONFIG,
// the binary directory, then config/vnstock.toml for development.
func ResolveConfigPath(configPath string) string {
	if configPath == "" {
		configPath = os.Getenv("VNSTOCK_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(getBinaryDir(), DefaultConfigFile)
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = filepath.Join("config", DefaultConfigFile)
		}
	}
	return configPath
}

// LoadConfig reads .env files and the resolved config file.
func LoadConfig(configPath string) (*common.Config, error) {
	binDir := getBinaryDir()
	common.LoadDotEnv(".env", filepath.Join(binDir, ".env"))

	config, err := common.LoadConfig(ResolveConfigPath(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Resolve relative log file path to binary directory
	if config.Logging.FilePath != "" && !filepath.IsAbs(config.Logging.FilePath) {
		config.Logging.FilePath = filepath.Join(binDir, config.Logging.FilePath)
	}
	return config, nil
}

// NewApp loads configuration and initializes every adapter and service.
// configPath may be empty, in which case the default resolution logic is used.
func NewApp(configPath string) (*App, error) {
	// Load version from .version file (fallback if ldflags not set)
	common.LoadVersionFromFile()

	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger := common.NewLoggerFromConfig(config.Logging)
	return NewFromConfig(context.Background(), config, logger)
}

// NewFromConfig builds the App from an already loaded config.
func NewFromConfig(ctx context.Context, config *common.Config, logger *common.Logger) (*App, error) {
	startupStart := time.Now()
	if logger == nil {
		logger = common.NewSilentLogger()
	}

	primary, secondary := buildDataProviders(config, logger)

	news := iqx.NewClient(
		iqx.WithBaseURL(config.Clients.IQX.BaseURL),
		iqx.WithLogger(logger),
		iqx.WithRateLimit(config.Clients.IQX.RateLimit),
		iqx.WithTimeout(config.Clients.IQX.GetTimeout()),
		iqx.WithLanguage(config.Clients.IQX.Language),
		iqx.WithRetryPolicy(rest.PolicyFromConfig(config.Retry)),
	)

	ai, err := buildAIClient(ctx, config, logger)
	if err != nil {
		if missing := config.ValidateRequired(); len(missing) > 0 {
			logger.Warn().Strs("missing", missing).Msg("AI API key not configured - chat analysis will be unavailable")
		} else {
			logger.Warn().Err(err).Str("provider", config.AI.Provider).Msg("Failed to initialize AI client")
		}
		ai = unavailableAI{reason: err}
	}

	parserOpts := []parser.Option{parser.WithLogger(logger)}
	if config.AI.ClassifyIntent {
		if _, down := ai.(unavailableAI); !down {
			parserOpts = append(parserOpts, parser.WithClassifier(ai))
		}
	}
	queryParser := parser.NewParser(parserOpts...)

	historyStore := history.NewStore(config.Chat.MaxHistory)
	quoteService := quote.NewService(primary, secondary, logger)

	chatService := chat.NewService(queryParser, quoteService, news, ai, historyStore, chat.Config{
		ContextTurns:  config.Chat.ContextTurns,
		MaxComparison: config.Chat.MaxComparison,
	}, logger)

	a := &App{
		Config:           config,
		Logger:           logger,
		PrimaryData:      primary,
		SecondaryData:    secondary,
		NewsClient:       news,
		AIClient:         ai,
		History:          historyStore,
		Parser:           queryParser,
		QuoteService:     quoteService,
		ChatService:      chatService,
		MarketService:    market.NewService(quoteService, logger),
		PortfolioService: portfolio.NewService(quoteService, logger),
		StartupTime:      startupStart,
	}

	event := logger.Info().
		Str("data_source", primary.Name()).
		Str("ai", ai.Name()).
		Int("max_history", config.Chat.MaxHistory)
	if secondary != nil {
		event = event.Str("fallback", secondary.Name())
	}
	event.Dur("startup", time.Since(startupStart)).Msg("App initialized")

	return a, nil
}

// buildDataProviders returns the preferred provider and, when fallback is
// enabled, the other one.
func buildDataProviders(config *common.Config, logger *common.Logger) (interfaces.DataProvider, interfaces.DataProvider) {
	policy := rest.PolicyFromConfig(config.Retry)

	tcbsClient := tcbs.NewClient(
		tcbs.WithBaseURL(config.Clients.TCBS.BaseURL),
		tcbs.WithLogger(logger),
		tcbs.WithRateLimit(config.Clients.TCBS.RateLimit),
		tcbs.WithTimeout(config.Clients.TCBS.GetTimeout()),
		tcbs.WithRetryPolicy(policy),
	)
	vndClient := vndirect.NewClient(
		vndirect.WithBaseURL(config.Clients.VNDirect.BaseURL),
		vndirect.WithLogger(logger),
		vndirect.WithRateLimit(config.Clients.VNDirect.RateLimit),
		vndirect.WithTimeout(config.Clients.VNDirect.GetTimeout()),
		vndirect.WithRetryPolicy(policy),
	)

	var primary, secondary interfaces.DataProvider = tcbsClient, vndClient
	if config.Data.Source == common.SourceVNDirect {
		primary, secondary = vndClient, tcbsClient
	}
	if !config.Data.Fallback {
		secondary = nil
	}
	return primary, secondary
}

// buildAIClient creates the completion client for the configured provider.
func buildAIClient(ctx context.Context, config *common.Config, logger *common.Logger) (interfaces.AIClient, error) {
	timeout := config.AI.GetTimeout()

	switch config.AI.Provider {
	case common.ProviderOpenAI:
		return openai.NewClient(ctx, openai.Config{
			APIKey:    config.Clients.OpenAI.APIKey,
			BaseURL:   config.Clients.OpenAI.BaseURL,
			Model:     config.Clients.OpenAI.Model,
			MaxTokens: config.Clients.OpenAI.MaxTokens,
		},
			openai.WithLogger(logger),
			openai.WithTimeout(timeout),
		)
	default:
		return gemini.NewClient(ctx, config.Clients.Gemini.APIKey,
			gemini.WithLogger(logger),
			gemini.WithModel(config.Clients.Gemini.Model),
			gemini.WithMaxTokens(config.Clients.Gemini.MaxTokens),
			gemini.WithTimeout(timeout),
		)
	}
}

// errAIUnavailable is returned by every call when no AI client could be built
var errAIUnavailable = errors.New("AI provider not configured")

// unavailableAI stands in for the AI client when none could be configured,
// so data endpoints keep working and chat fails with AIServiceUnavailable.
type unavailableAI struct {
	reason error
}

func (u unavailableAI) Name() string {
	return "unavailable"
}

func (u unavailableAI) GenerateContent(context.Context, string) (string, error) {
	if u.reason != nil {
		return "", fmt.Errorf("%w: %v", errAIUnavailable, u.reason)
	}
	return "", errAIUnavailable
}
