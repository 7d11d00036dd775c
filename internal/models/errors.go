package models

import (
	"errors"
	"fmt"
)

// ErrorKind is the stable machine-readable tag carried by every user-facing error
type ErrorKind string

const (
	KindInvalidSymbol           ErrorKind = "InvalidSymbol"
	KindDataProviderUnavailable ErrorKind = "DataProviderUnavailable"
	KindNewsProviderUnavailable ErrorKind = "NewsProviderUnavailable"
	KindAIServiceUnavailable    ErrorKind = "AIServiceUnavailable"
	KindMalformedInput          ErrorKind = "MalformedInput"
)

var kindMessages = map[ErrorKind][2]string{
	KindInvalidSymbol:           {"Mã cổ phiếu không hợp lệ", "Invalid stock symbol"},
	KindDataProviderUnavailable: {"Dữ liệu tạm thời không khả dụng", "Data temporarily unavailable"},
	KindNewsProviderUnavailable: {"Tin tức tạm thời không khả dụng", "News temporarily unavailable"},
	KindAIServiceUnavailable:    {"Dịch vụ phân tích tạm thời không khả dụng", "Analysis service unavailable"},
	KindMalformedInput:          {"Tin nhắn không được để trống", "Message is required"},
}

// ChatError is returned across the service boundary. Err keeps the adapter
// failure for logging; it is never shown to callers.
type ChatError struct {
	Kind      ErrorKind
	Message   string
	MessageEN string
	Err       error
}

// NewChatError builds an error of the given kind with its standard messages.
func NewChatError(kind ErrorKind, err error) *ChatError {
	msgs := kindMessages[kind]
	return &ChatError{Kind: kind, Message: msgs[0], MessageEN: msgs[1], Err: err}
}

// WithDetail appends context (such as the symbol) to both messages.
func (e *ChatError) WithDetail(detail string) *ChatError {
	if detail != "" {
		e.Message = fmt.Sprintf("%s: %s", e.Message, detail)
		e.MessageEN = fmt.Sprintf("%s: %s", e.MessageEN, detail)
	}
	return e
}

func (e *ChatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.MessageEN, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.MessageEN)
}

func (e *ChatError) Unwrap() error {
	return e.Err
}

// UserMessage is the bilingual text shown to callers.
func (e *ChatError) UserMessage() string {
	return e.Message + " / " + e.MessageEN
}

// KindOf extracts the kind from an error chain, or "" if it carries none.
func KindOf(err error) ErrorKind {
	var ce *ChatError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}
