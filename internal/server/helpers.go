package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bobmcallan/vnstock-chat/internal/common"
	"github.com/bobmcallan/vnstock-chat/internal/models"
)

// ErrorResponse is the standard error format for REST API responses.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// kindStatus maps service error kinds onto HTTP status codes.
var kindStatus = map[models.ErrorKind]int{
	models.KindInvalidSymbol:           http.StatusBadRequest,
	models.KindMalformedInput:          http.StatusBadRequest,
	models.KindDataProviderUnavailable: http.StatusServiceUnavailable,
	models.KindNewsProviderUnavailable: http.StatusServiceUnavailable,
	models.KindAIServiceUnavailable:    http.StatusServiceUnavailable,
}

// StatusForKind returns the HTTP status for an error kind, 500 when unknown.
func StatusForKind(kind models.ErrorKind) int {
	if status, ok := kindStatus[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// WriteError writes a JSON error response.
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: message})
}

// WriteErrorWithCode writes a JSON error response with an error code.
func WriteErrorWithCode(w http.ResponseWriter, statusCode int, message, code string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: message, Code: code})
}

// WriteServiceError writes err using its ChatError kind. Errors without a
// kind are reported as 500 without their text.
func WriteServiceError(w http.ResponseWriter, err error) {
	var ce *models.ChatError
	if errors.As(err, &ce) {
		WriteErrorWithCode(w, StatusForKind(ce.Kind), ce.UserMessage(), string(ce.Kind))
		return
	}
	WriteError(w, http.StatusInternalServerError, "Internal server error")
}

// writeBadRequest reports a validation failure as MalformedInput.
func writeBadRequest(w http.ResponseWriter, message string) {
	WriteErrorWithCode(w, http.StatusBadRequest, message, string(models.KindMalformedInput))
}

// writeInvalidSymbol reports a ticker that failed validation.
func writeInvalidSymbol(w http.ResponseWriter, raw string) {
	WriteServiceError(w, models.NewChatError(models.KindInvalidSymbol, nil).WithDetail(raw))
}

// dataError classifies a quote failure: unknown symbols are InvalidSymbol,
// everything else DataProviderUnavailable.
func dataError(err error, symbol string) error {
	if errors.Is(err, models.ErrSymbolNotFound) {
		return models.NewChatError(models.KindInvalidSymbol, err).WithDetail(symbol)
	}
	return models.NewChatError(models.KindDataProviderUnavailable, err).WithDetail(symbol)
}

// RequireMethod validates the HTTP method and returns true if it matches.
// If it doesn't match, it writes a 405 response and returns false.
func RequireMethod(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	return false
}

// DecodeJSON reads and decodes JSON from the request body into v.
// Returns false and writes a 400 error if decoding fails.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if r.Body == nil || r.Body == http.NoBody {
		writeBadRequest(w, "Request body is required")
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteErrorWithCode(w, http.StatusRequestEntityTooLarge, "Request body too large", string(models.KindMalformedInput))
			return false
		}
		writeBadRequest(w, "Invalid JSON: "+err.Error())
		return false
	}
	return true
}

// decodeOptionalJSON is DecodeJSON for endpoints whose body may be omitted.
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if r.Body == nil || r.Body == http.NoBody || r.ContentLength == 0 {
		return true
	}
	return DecodeJSON(w, r, v)
}

// PathParam extracts a path parameter from the URL path.
// For a pattern like /api/stock/{symbol}/price, calling PathParam(r, "/api/stock/", "/price")
// extracts the {symbol} part.
func PathParam(r *http.Request, prefix, suffix string) string {
	path := r.URL.Path
	if !strings.HasPrefix(path, prefix) {
		return ""
	}
	rest := path[len(prefix):]
	if suffix != "" {
		idx := strings.Index(rest, suffix)
		if idx < 0 {
			return rest
		}
		return rest[:idx]
	}
	// No suffix: return up to the next /
	if idx := strings.Index(rest, "/"); idx >= 0 {
		return rest[:idx]
	}
	return rest
}

// queryBool parses a boolean query parameter, returning def when absent or malformed.
func queryBool(r *http.Request, name string, def bool) bool {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// queryInt parses an integer query parameter, returning def when absent or malformed.
func queryInt(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// queryDateRange reads start_date and end_date (YYYY-MM-DD). It returns nil
// when neither is set; a missing bound defaults to 30 days before end or today.
func queryDateRange(r *http.Request, now time.Time) (*models.DateRange, string) {
	startRaw := r.URL.Query().Get("start_date")
	endRaw := r.URL.Query().Get("end_date")
	if startRaw == "" && endRaw == "" {
		return nil, ""
	}

	y, m, d := now.In(common.VietnamLocation).Date()
	end := time.Date(y, m, d, 0, 0, 0, 0, common.VietnamLocation)
	if endRaw != "" {
		t, ok := common.ParseDate(endRaw)
		if !ok {
			return nil, "end_date must be YYYY-MM-DD"
		}
		end = t
	}

	start := end.AddDate(0, 0, -30)
	if startRaw != "" {
		t, ok := common.ParseDate(startRaw)
		if !ok {
			return nil, "start_date must be YYYY-MM-DD"
		}
		start = t
	}

	if end.Before(start) {
		return nil, "start_date must not be after end_date"
	}
	return &models.DateRange{Start: start, End: end}, ""
}
