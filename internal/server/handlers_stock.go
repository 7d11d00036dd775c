package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/bobmcallan/vnstock-chat/internal/common"
	"github.com/bobmcallan/vnstock-chat/internal/models"
	"github.com/bobmcallan/vnstock-chat/internal/services/chart"
)

// --- Stock data handlers ---

// handleStockInfo handles GET /api/stock/{symbol}. Company and ratio failures
// are reported in notes; a price failure fails the request.
func (s *Server) handleStockInfo(w http.ResponseWriter, r *http.Request, symbol string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	ctx := r.Context()

	includePrice := queryBool(r, "include_price", true)
	includeCompany := queryBool(r, "include_company", true)
	includeFinancial := queryBool(r, "include_financial", true)

	resp := map[string]interface{}{"symbol": symbol}
	var notes []string
	var snap *models.StockSnapshot

	if includePrice {
		var err error
		snap, err = s.app.QuoteService.GetSnapshot(ctx, symbol)
		if err != nil {
			WriteServiceError(w, dataError(err, symbol))
			return
		}
		resp["price_data"] = snap
		resp["data_source"] = snap.Source
	}

	if includeCompany {
		if snap != nil && snap.Company != nil {
			resp["company_info"] = snap.Company
		} else if company, err := s.app.QuoteService.GetCompany(ctx, symbol); err == nil {
			resp["company_info"] = company
		} else {
			s.logger.Debug().Str("symbol", symbol).Err(err).Msg("Company profile unavailable")
			if errors.Is(err, models.ErrSymbolNotFound) && !includePrice {
				WriteServiceError(w, dataError(err, symbol))
				return
			}
			notes = append(notes, "company profile unavailable")
		}
	}

	if includeFinancial {
		if snap != nil && snap.Ratios != nil {
			resp["financial_data"] = snap.Ratios
		} else if ratios, err := s.app.QuoteService.GetRatios(ctx, symbol); err == nil {
			resp["financial_data"] = ratios
		} else {
			s.logger.Debug().Str("symbol", symbol).Err(err).Msg("Financial ratios unavailable")
			notes = append(notes, "financial ratios unavailable")
		}
	}

	if len(notes) > 0 {
		resp["notes"] = notes
	}
	resp["timestamp"] = time.Now().UTC()
	WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) priceBars(w http.ResponseWriter, r *http.Request, symbol string) ([]models.PriceBar, bool) {
	dr, msg := queryDateRange(r, time.Now())
	if msg != "" {
		writeBadRequest(w, msg)
		return nil, false
	}

	bars, err := s.app.QuoteService.GetPriceHistory(r.Context(), symbol, dr)
	if err != nil {
		WriteServiceError(w, dataError(err, symbol))
		return nil, false
	}
	return bars, true
}

func (s *Server) handleStockPrice(w http.ResponseWriter, r *http.Request, symbol string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	bars, ok := s.priceBars(w, r, symbol)
	if !ok {
		return
	}

	resp := map[string]interface{}{
		"symbol": symbol,
		"count":  len(bars),
		"prices": bars,
	}
	if len(bars) > 0 {
		resp["start_date"] = bars[0].Date.In(common.VietnamLocation).Format(common.DateLayout)
		resp["end_date"] = bars[len(bars)-1].Date.In(common.VietnamLocation).Format(common.DateLayout)
	}
	if queryBool(r, "indicators", true) {
		if ind := s.indicators.Compute(bars); ind != nil {
			resp["indicators"] = ind
		}
	}
	WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStockChart(w http.ResponseWriter, r *http.Request, symbol string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	bars, ok := s.priceBars(w, r, symbol)
	if !ok {
		return
	}

	png, err := chart.RenderPriceChart(symbol, bars)
	if err != nil {
		s.logger.Warn().Str("symbol", symbol).Int("bars", len(bars)).Err(err).Msg("Chart render failed")
		WriteServiceError(w, models.NewChatError(models.KindDataProviderUnavailable, err).WithDetail(symbol))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

func (s *Server) handleStockFinancials(w http.ResponseWriter, r *http.Request, symbol string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	kind := models.ReportKind(strings.ToLower(r.URL.Query().Get("kind")))
	switch kind {
	case "":
		kind = models.ReportIncome
	case models.ReportIncome, models.ReportBalance, models.ReportCashFlow:
	default:
		writeBadRequest(w, "kind must be income_statement, balance_sheet or cash_flow")
		return
	}

	period := models.ReportPeriod(strings.ToLower(r.URL.Query().Get("period")))
	switch period {
	case "":
		period = models.PeriodYear
	case models.PeriodYear, models.PeriodQuarter:
	default:
		writeBadRequest(w, "period must be year or quarter")
		return
	}

	report, err := s.app.QuoteService.GetFinancialReport(r.Context(), symbol, kind, period)
	if err != nil {
		WriteServiceError(w, dataError(err, symbol))
		return
	}
	WriteJSON(w, http.StatusOK, report)
}

// handleNews handles GET {prefix}{symbol} with paging and sentiment filters.
func (s *Server) handleNews(prefix string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !RequireMethod(w, r, http.MethodGet) {
			return
		}

		raw := PathParam(r, prefix, "")
		symbol, ok := common.ValidateSymbol(raw)
		if !ok {
			writeInvalidSymbol(w, raw)
			return
		}

		q := r.URL.Query()
		sentiment, ok := models.ParseSentiment(q.Get("sentiment"))
		if !ok {
			writeBadRequest(w, "sentiment must be positive, neutral or negative")
			return
		}
		for _, name := range []string{"update_from", "update_to"} {
			if v := q.Get(name); v != "" {
				if _, ok := common.ParseDate(v); !ok {
					writeBadRequest(w, name+" must be YYYY-MM-DD")
					return
				}
			}
		}

		pageSize := queryInt(r, "page_size", models.DefaultNewsPageSize)
		if pageSize < 1 || pageSize > models.MaxNewsPageSize {
			writeBadRequest(w, "page_size must be between 1 and 50")
			return
		}

		page, err := s.app.NewsClient.GetNews(r.Context(), models.NewsQuery{
			Symbol:     symbol,
			Page:       queryInt(r, "page", 1),
			PageSize:   pageSize,
			Sentiment:  sentiment,
			UpdateFrom: q.Get("update_from"),
			UpdateTo:   q.Get("update_to"),
			NewsFrom:   q.Get("newsfrom"),
		})
		if err != nil {
			WriteServiceError(w, models.NewChatError(models.KindNewsProviderUnavailable, err).WithDetail(symbol))
			return
		}
		WriteJSON(w, http.StatusOK, page)
	}
}
