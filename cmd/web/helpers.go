package main

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mkarvo/yachtmurder/internal/ai"
	"github.com/mkarvo/yachtmurder/internal/errors"
	"github.com/mkarvo/yachtmurder/internal/interrogation"
)

type errorResponse struct {
	Error string `json:"error"`
}

func (app *application) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		app.logger.ErrorContext(r.Context(), "encode response", errors.SlogError(err))
	}
}

func (app *application) serverError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		method = r.Method
		uri    = r.URL.RequestURI()
	)

	app.logger.LogAttrs(r.Context(), slog.LevelError, "server error",
		slog.String("method", method), slog.String("uri", uri), errors.SlogError(err))
	app.writeJSON(w, r, http.StatusInternalServerError, errorResponse{Error: "Error generating response: " + err.Error()})
}

func (app *application) clientError(w http.ResponseWriter, r *http.Request, status int, message string) {
	app.logger.DebugContext(r.Context(), message,
		"method", r.Method, "uri", r.URL.RequestURI(), "status", status)
	app.writeJSON(w, r, status, errorResponse{Error: message})
}

// apiError translates a service failure into the caller-visible error kind.
// The distinct upstream kinds let callers back off or fix credentials instead
// of blindly retrying a generic server error.
func (app *application) apiError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, interrogation.ErrMissingInput):
		app.clientError(w, r, http.StatusBadRequest, "Missing or invalid suspect, question, or day parameter")
	case errors.Is(err, ai.ErrUnauthorized):
		app.clientError(w, r, http.StatusUnauthorized, "Invalid OpenAI API key")
	case errors.Is(err, ai.ErrQuotaExhausted):
		app.clientError(w, r, http.StatusPaymentRequired, "OpenAI API quota exceeded")
	case errors.Is(err, ai.ErrRateLimited):
		app.clientError(w, r, http.StatusTooManyRequests, "OpenAI API rate limit exceeded")
	default:
		app.serverError(w, r, err)
	}
}
