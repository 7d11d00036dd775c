package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/bobmcallan/vnstock-chat/internal/common"
	"github.com/bobmcallan/vnstock-chat/internal/models"
	"github.com/bobmcallan/vnstock-chat/internal/services/market"
	"github.com/bobmcallan/vnstock-chat/internal/services/portfolio"
)

// --- Catalogue, market and portfolio handlers ---

const maxSearchResults = 50

func (s *Server) handleValidateSymbol(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	raw := PathParam(r, "/api/stocks/validate/", "")
	symbol, valid := common.ValidateSymbol(raw)

	resp := map[string]interface{}{
		"symbol": symbol,
		"valid":  valid,
	}
	if listing, ok := models.LookupListing(symbol); ok && valid {
		resp["name"] = listing.Name
	}
	WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeBadRequest(w, "q is required")
		return
	}

	limit := queryInt(r, "limit", 10)
	if limit < 1 || limit > maxSearchResults {
		limit = 10
	}

	results := s.app.MarketService.Search(query, limit)
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"query":   query,
		"results": results,
		"count":   len(results),
	})
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		Symbols []string `json:"symbols"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	cmp, err := s.app.MarketService.Compare(r.Context(), req.Symbols)
	if err != nil {
		if errors.Is(err, market.ErrInvalidComparison) {
			WriteErrorWithCode(w, http.StatusBadRequest, err.Error(), string(models.KindInvalidSymbol))
			return
		}
		WriteServiceError(w, models.NewChatError(models.KindDataProviderUnavailable, err))
		return
	}
	WriteJSON(w, http.StatusOK, cmp)
}

func (s *Server) handleMarketSummary(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	summary, err := s.app.MarketService.Summary(r.Context())
	if err != nil {
		WriteServiceError(w, models.NewChatError(models.KindDataProviderUnavailable, err))
		return
	}
	WriteJSON(w, http.StatusOK, summary)
}

func (s *Server) handlePortfolioAnalyze(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		Holdings []models.Holding `json:"holdings"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	analysis, err := s.app.PortfolioService.Analyze(r.Context(), req.Holdings)
	if err != nil {
		if errors.Is(err, portfolio.ErrInvalidHolding) {
			writeBadRequest(w, err.Error())
			return
		}
		WriteServiceError(w, models.NewChatError(models.KindDataProviderUnavailable, err))
		return
	}
	WriteJSON(w, http.StatusOK, analysis)
}
