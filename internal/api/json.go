package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/starford/devflow/internal/apperr"
	"github.com/starford/devflow/internal/narrative"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

// decodeJSON reads a size-limited JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return false
	}
	return true
}

type errResponse struct {
	Error string `json:"error"`
	// UpstreamStatus is the text-generation service's HTTP status, when it
	// was the one that failed.
	UpstreamStatus int `json:"upstream_status,omitempty"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// writeError maps service errors to HTTP responses. Unknown errors are
// logged with op and reported as 500.
func writeError(w http.ResponseWriter, op string, err error) {
	var se *narrative.ServiceError
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrDigestDisabled):
		writeJSON(w, http.StatusConflict, errorBody("weekly digest is disabled; set summary.enabled in the config"))
	case errors.Is(err, narrative.ErrMissingAPIKey):
		writeJSON(w, http.StatusServiceUnavailable, errorBody("text generation API key not set; add OPENROUTER_API_KEY to .env"))
	case errors.As(err, &se):
		writeJSON(w, http.StatusBadGateway, errResponse{Error: "OpenRouter: " + se.Message, UpstreamStatus: se.StatusCode})
	case errors.Is(err, narrative.ErrEmptyCompletion):
		writeJSON(w, http.StatusBadGateway, errorBody("empty response from text generation service"))
	case errors.Is(err, apperr.ErrTimeout):
		writeJSON(w, http.StatusGatewayTimeout, errorBody(err.Error()))
	default:
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}
