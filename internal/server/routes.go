package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/bobmcallan/vnstock-chat/internal/common"
)

// HealthMessage is reported by the health endpoints
const HealthMessage = "VNStock AI Chatbot API is running"

// handleShutdown handles POST /api/shutdown (dev mode only).
func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if s.app.Config.IsProduction() {
		WriteError(w, http.StatusForbidden, "Shutdown endpoint disabled in production")
		return
	}

	s.logger.Info().Msg("Shutdown requested via HTTP endpoint")

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Shutting down gracefully...\n"))

	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	if s.shutdownChan != nil {
		go func() {
			time.Sleep(100 * time.Millisecond)
			s.requestShutdown()
		}()
	}
}

// requestShutdown signals the shutdown channel without blocking; a full
// buffer means a shutdown is already pending.
func (s *Server) requestShutdown() {
	select {
	case s.shutdownChan <- struct{}{}:
	default:
	}
}

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)
	mux.HandleFunc("/api/shutdown", s.handleShutdown)

	// Chat
	mux.HandleFunc("/api/chat", s.handleChat)
	mux.HandleFunc("/chat", s.handleChat)
	mux.HandleFunc("/api/chat/history", s.handleChatHistory)
	mux.HandleFunc("/api/chat/clear", s.handleChatClear)
	mux.HandleFunc("/api/suggestions", s.handleSuggestions)
	mux.HandleFunc("/suggestions", s.handleSuggestions)

	// Stock data
	mux.HandleFunc("/api/stock/", s.routeStock("/api/stock/"))
	mux.HandleFunc("/stock/", s.routeStock("/stock/"))
	mux.HandleFunc("/api/news/", s.handleNews("/api/news/"))
	mux.HandleFunc("/news/", s.handleNews("/news/"))

	// Catalogue and market views
	mux.HandleFunc("/api/stocks/validate/", s.handleValidateSymbol)
	mux.HandleFunc("/api/stocks/search", s.handleSearch)
	mux.HandleFunc("/api/stocks/compare", s.handleCompare)
	mux.HandleFunc("/api/market/summary", s.handleMarketSummary)
	mux.HandleFunc("/api/portfolio/analyze", s.handlePortfolioAnalyze)
}

// routeStock dispatches {prefix}{symbol}/* to the appropriate handler.
func (s *Server) routeStock(prefix string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/")
		if path == "" {
			writeBadRequest(w, "symbol is required in path")
			return
		}

		parts := strings.SplitN(path, "/", 2)
		symbol, ok := common.ValidateSymbol(parts[0])
		if !ok {
			writeInvalidSymbol(w, parts[0])
			return
		}

		subpath := ""
		if len(parts) > 1 {
			subpath = parts[1]
		}

		switch subpath {
		case "":
			s.handleStockInfo(w, r, symbol)
		case "price":
			s.handleStockPrice(w, r, symbol)
		case "chart":
			s.handleStockChart(w, r, symbol)
		case "financials":
			s.handleStockFinancials(w, r, symbol)
		default:
			WriteError(w, http.StatusNotFound, "Not found")
		}
	}
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		WriteError(w, http.StatusNotFound, "Not found")
		return
	}
	s.handleHealth(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"message": HealthMessage,
		"version": common.GetVersion(),
	})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, common.GetVersionInfo())
}
