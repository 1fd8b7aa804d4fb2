package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/bobmcallan/nestegg/internal/common"
)

// ErrorResponse is the standard error format for REST API responses.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Error codes returned alongside provider failures.
const (
	CodeConfiguration = "configuration_error"
	CodeNoData        = "no_data"
	CodeProvider      = "provider_error"
	CodeValidation    = "validation_error"
)

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

// WriteServiceError maps a gateway error to a status and code:
// missing credential 503, empty result 404, any other upstream failure 502.
func WriteServiceError(w http.ResponseWriter, err error) {
	switch {
	case common.IsConfigurationError(err):
		WriteErrorWithCode(w, http.StatusServiceUnavailable, err.Error(), CodeConfiguration)
	case common.IsNoData(err):
		WriteErrorWithCode(w, http.StatusNotFound, err.Error(), CodeNoData)
	default:
		WriteErrorWithCode(w, http.StatusBadGateway, err.Error(), CodeProvider)
	}
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
	if r.Body == nil {
		WriteError(w, http.StatusBadRequest, "Request body is required")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return false
	}
	return true
}

// QueryInt parses an optional integer query parameter. An absent or empty
// value returns def. A malformed value writes a 400 and returns false.
func QueryInt(w http.ResponseWriter, q url.Values, name string, def int) (int, bool) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		WriteErrorWithCode(w, http.StatusBadRequest, "Invalid "+name+": must be an integer", CodeValidation)
		return 0, false
	}
	return v, true
}
