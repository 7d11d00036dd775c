// Package chat answers stock questions by combining market data with an AI completion
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bobmcallan/vnstock-chat/internal/common"
	"github.com/bobmcallan/vnstock-chat/internal/interfaces"
	"github.com/bobmcallan/vnstock-chat/internal/models"
)

// Completion fragments that mean the provider returned an error as text
var invalidCompletionMarkers = []string{
	"error occurred",
	"internal server error",
	"failed to generate",
	"api key",
	"authentication",
}

const minCompletionLength = 5

// Config tunes the chat service
type Config struct {
	ContextTurns  int // history messages embedded in each prompt
	MaxComparison int // symbols fetched for a comparison
}

// Service implements interfaces.ChatService
type Service struct {
	parser  interfaces.QueryParser
	quotes  interfaces.QuoteService
	news    interfaces.NewsClient
	ai      interfaces.AIClient
	history interfaces.HistoryStore
	config  Config
	logger  *common.Logger
	now     func() time.Time
}

// NewService creates a chat service. news may be nil; news questions then
// fail with NewsProviderUnavailable.
func NewService(parser interfaces.QueryParser, quotes interfaces.QuoteService, news interfaces.NewsClient, ai interfaces.AIClient, history interfaces.HistoryStore, config Config, logger *common.Logger) *Service {
	if config.ContextTurns <= 0 {
		config.ContextTurns = 6
	}
	if config.MaxComparison < 2 {
		config.MaxComparison = 5
	}
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Service{
		parser:  parser,
		quotes:  quotes,
		news:    news,
		ai:      ai,
		history: history,
		config:  config,
		logger:  logger,
		now:     time.Now,
	}
}

// facts is the data gathered for one message
type facts struct {
	snapshots []*models.StockSnapshot
	history   []models.PriceBar
	report    *models.FinancialReport
	news      *models.NewsPage
	sources   []string
	notes     []string
}

func (f *facts) primary() *models.StockSnapshot {
	if len(f.snapshots) == 0 {
		return nil
	}
	return f.snapshots[0]
}

func (f *facts) addSource(name string) {
	for _, s := range f.sources {
		if s == name {
			return
		}
	}
	f.sources = append(f.sources, name)
}

// Handle answers one message. Errors are always *models.ChatError.
func (s *Service) Handle(ctx context.Context, sessionID, message string) (*models.ChatResponse, error) {
	if sessionID == "" {
		sessionID = "default"
	}
	if strings.TrimSpace(message) == "" || common.SanitizeInput(message) == "" {
		return nil, models.NewChatError(models.KindMalformedInput, nil)
	}

	start := s.now()
	log := s.logger.ForRequest(ctx)
	q := s.parser.Parse(ctx, message)

	f, err := s.gather(ctx, q)
	if err != nil {
		log.Warn().
			Err(err).
			Str("session_id", sessionID).
			Str("symbol", q.Symbol).
			Str("intent", string(q.Intent)).
			Msg("Chat data fetch failed")
		return nil, err
	}

	var (
		reply    string
		chatErr  error
		analysis models.Analysis
	)
	lockErr := s.history.WithSession(ctx, sessionID, func(h interfaces.SessionHistory) {
		prompt := buildPrompt(promptInput{
			message: q.RawText,
			query:   q,
			facts:   f,
			history: h.Recent(s.config.ContextTurns),
		})

		completion, err := s.ai.GenerateContent(ctx, prompt)
		if err == nil {
			err = validateCompletion(completion)
		}
		if err != nil {
			chatErr = models.NewChatError(models.KindAIServiceUnavailable, err)
			return
		}

		analysis = extractAnalysis(completion)
		analysis.Rationale = rationale(f.primary())
		reply = FormatMarkdown(f.primary(), analysis, f.notes)

		at := s.now()
		h.Append(
			models.NewChatMessage(models.RoleUser, q.RawText, at),
			models.NewChatMessage(models.RoleAssistant, reply, at),
		)
	})
	if lockErr != nil {
		chatErr = models.NewChatError(models.KindAIServiceUnavailable, fmt.Errorf("session %s busy: %w", sessionID, lockErr))
	}
	if chatErr != nil {
		log.Warn().Err(chatErr).Str("session_id", sessionID).Str("provider", s.ai.Name()).Msg("AI completion failed")
		return nil, chatErr
	}

	f.addSource(s.ai.Name())

	log.Info().
		Str("session_id", sessionID).
		Str("symbol", q.Symbol).
		Str("intent", string(q.Intent)).
		Str("recommendation", string(analysis.Recommendation)).
		Int("notes", len(f.notes)).
		Dur("elapsed", s.now().Sub(start)).
		Msg("Chat message handled")

	return &models.ChatResponse{
		SessionID:   sessionID,
		Response:    reply,
		Symbol:      q.Symbol,
		Intent:      q.Intent,
		DataSources: f.sources,
		Notes:       f.notes,
		Snapshot:    f.primary(),
	}, nil
}

// gather fetches the data the intent needs. Data-bound intents fail on a
// missing snapshot; other intents record a note and carry on.
func (s *Service) gather(ctx context.Context, q models.ParsedQuery) (*facts, error) {
	f := &facts{}
	if !q.HasSymbol() {
		return f, nil
	}

	switch q.Intent {
	case models.IntentComparison:
		symbols := q.Symbols
		if len(symbols) > s.config.MaxComparison {
			symbols = symbols[:s.config.MaxComparison]
		}
		snaps, err := s.snapshots(ctx, symbols)
		if err != nil {
			return nil, err
		}
		for _, snap := range snaps {
			f.snapshots = append(f.snapshots, snap)
			f.addSource(snap.Source)
		}

	case models.IntentPrice, models.IntentFinancials:
		snap, err := s.quotes.GetSnapshot(ctx, q.Symbol)
		if err != nil {
			return nil, dataError(q.Symbol, err)
		}
		f.snapshots = []*models.StockSnapshot{snap}
		f.addSource(snap.Source)

		if q.Intent == models.IntentPrice && q.DateRange != nil {
			if bars, err := s.quotes.GetPriceHistory(ctx, q.Symbol, q.DateRange); err == nil {
				f.history = bars
			} else {
				f.notes = append(f.notes, "Không lấy được lịch sử giá cho khoảng thời gian yêu cầu")
			}
		}
		if q.Intent == models.IntentFinancials {
			if report, err := s.quotes.GetFinancialReport(ctx, q.Symbol, models.ReportIncome, models.PeriodYear); err == nil {
				f.report = report
			} else {
				f.notes = append(f.notes, "Không lấy được báo cáo kết quả kinh doanh")
			}
		}

	case models.IntentNews:
		if s.news == nil {
			return nil, models.NewChatError(models.KindNewsProviderUnavailable, errors.New("no news client configured"))
		}
		nq := models.NewsQuery{Symbol: q.Symbol, Page: 1, PageSize: models.DefaultNewsPageSize}
		if q.DateRange != nil {
			nq.UpdateFrom = q.DateRange.Start.Format(common.DateLayout)
			nq.UpdateTo = q.DateRange.End.Format(common.DateLayout)
		}
		page, err := s.news.GetNews(ctx, nq)
		if err != nil {
			return nil, models.NewChatError(models.KindNewsProviderUnavailable, err).WithDetail(q.Symbol)
		}
		f.news = page
		f.addSource("IQX")
		s.optionalSnapshot(ctx, q.Symbol, f)

	default:
		s.optionalSnapshot(ctx, q.Symbol, f)
	}

	return f, nil
}

func (s *Service) optionalSnapshot(ctx context.Context, symbol string, f *facts) {
	snap, err := s.quotes.GetSnapshot(ctx, symbol)
	if err != nil {
		s.logger.Debug().Err(err).Str("symbol", symbol).Msg("Snapshot unavailable, continuing without price data")
		f.notes = append(f.notes, "Không lấy được dữ liệu giá của "+symbol)
		return
	}
	f.snapshots = []*models.StockSnapshot{snap}
	f.addSource(snap.Source)
}

// snapshots fetches several symbols concurrently, preserving order. The first
// failure is returned.
func (s *Service) snapshots(ctx context.Context, symbols []string) ([]*models.StockSnapshot, error) {
	out := make([]*models.StockSnapshot, len(symbols))
	errs := make([]error, len(symbols))

	var wg sync.WaitGroup
	for i, sym := range symbols {
		wg.Add(1)
		go func(i int, sym string) {
			defer wg.Done()
			out[i], errs[i] = s.quotes.GetSnapshot(ctx, sym)
		}(i, sym)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, dataError(symbols[i], err)
		}
	}
	return out, nil
}

// dataError maps an adapter failure onto the user-facing kind
func dataError(symbol string, err error) *models.ChatError {
	if errors.Is(err, models.ErrSymbolNotFound) {
		return models.NewChatError(models.KindInvalidSymbol, err).WithDetail(symbol)
	}
	return models.NewChatError(models.KindDataProviderUnavailable, err).WithDetail(symbol)
}

// validateCompletion rejects empty replies and provider errors returned as text
func validateCompletion(text string) error {
	trimmed := strings.TrimSpace(text)
	if len([]rune(trimmed)) < minCompletionLength {
		return errors.New("completion too short")
	}
	lower := strings.ToLower(trimmed)
	for _, marker := range invalidCompletionMarkers {
		if strings.Contains(lower, marker) {
			return errors.New("completion contains provider error text: " + marker)
		}
	}
	return nil
}

// History returns the session's messages, oldest first
func (s *Service) History(sessionID string) []models.ChatMessage {
	if sessionID == "" {
		sessionID = "default"
	}
	return s.history.Get(sessionID)
}

// Clear removes the session's history
func (s *Service) Clear(sessionID string) bool {
	if sessionID == "" {
		sessionID = "default"
	}
	return s.history.Clear(sessionID)
}

var _ interfaces.ChatService = (*Service)(nil)
