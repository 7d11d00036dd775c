// Package models defines data structures for vnstock-chat
package models

import "time"

// Role identifies the author of a chat message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one turn of a conversation. It is never modified after creation.
type ChatMessage struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// NewChatMessage creates a message stamped with the given time
func NewChatMessage(role Role, text string, at time.Time) ChatMessage {
	return ChatMessage{Role: role, Text: text, Timestamp: at}
}

// Recommendation is the stance shown in a formatted reply. It is deliberately
// not a buy/sell call.
type Recommendation string

const (
	RecommendPositive Recommendation = "Tích cực"
	RecommendNeutral  Recommendation = "Trung lập"
	RecommendCautious Recommendation = "Thận trọng"
)

// Analysis is the structured form of a completion
type Analysis struct {
	Headline       string         `json:"headline,omitempty"`
	Recommendation Recommendation `json:"recommendation"`
	Rationale      []string       `json:"rationale,omitempty"`
	Body           string         `json:"body,omitempty"`
}

// ChatResponse is returned by the chat service for one handled message
type ChatResponse struct {
	SessionID   string         `json:"session_id"`
	Response    string         `json:"response"`
	Symbol      string         `json:"symbol,omitempty"`
	Intent      Intent         `json:"intent"`
	DataSources []string       `json:"data_sources_used,omitempty"`
	Notes       []string       `json:"notes,omitempty"`
	Snapshot    *StockSnapshot `json:"-"`
}
