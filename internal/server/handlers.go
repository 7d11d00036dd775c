package server

import (
	"net/http"
	"strings"

	"github.com/bobmcallan/vnstock-chat/internal/common"
	"github.com/bobmcallan/vnstock-chat/internal/models"
)

// --- Chat handlers ---

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

type sessionRequest struct {
	SessionID string `json:"session_id,omitempty"`
}

func sessionOrDefault(id string) string {
	if id = strings.TrimSpace(id); id == "" {
		return "default"
	}
	return id
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req chatRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	resp, err := s.app.ChatService.Handle(r.Context(), sessionOrDefault(req.SessionID), req.Message)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	sessionID := sessionOrDefault(r.URL.Query().Get("session_id"))
	history := s.app.ChatService.History(sessionID)
	if history == nil {
		history = []models.ChatMessage{}
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"session_id": sessionID,
		"history":    history,
		"count":      len(history),
	})
}

func (s *Server) handleChatClear(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req sessionRequest
	if !decodeOptionalJSON(w, r, &req) {
		return
	}

	sessionID := sessionOrDefault(req.SessionID)
	cleared := s.app.ChatService.Clear(sessionID)

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"session_id": sessionID,
		"cleared":    cleared,
		"message":    "Đã xóa lịch sử hội thoại",
	})
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	symbol := r.URL.Query().Get("symbol")
	resp := map[string]interface{}{
		"suggestions": s.app.ChatService.Suggestions(symbol),
	}
	if sym, ok := common.ValidateSymbol(symbol); ok {
		resp["symbol"] = sym
	}
	WriteJSON(w, http.StatusOK, resp)
}
