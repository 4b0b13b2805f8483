package main

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mkarvo/yachtmurder/internal/errors"
)

type askRequest struct {
	Suspect  string `json:"suspect"`
	Question string `json:"question"`
}

type askResponse struct {
	Response string `json:"response"`
}

// askSuspect generates an in-character reply to the player's question and
// appends the exchange to the player's interrogation log.
func (app *application) askSuspect(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		app.clientError(w, r, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	answer, err := app.interrogations.Ask(r.Context(), req.Suspect, req.Question)
	if err != nil {
		app.apiError(w, r, err)
		return
	}

	app.logInterrogation(r, req.Suspect, req.Question, answer)

	app.writeJSON(w, r, http.StatusOK, askResponse{Response: answer})
}

// logInterrogation records the exchange. The reply has already been
// generated, so logging failures must not fail the request.
func (app *application) logInterrogation(r *http.Request, suspect, question, answer string) {
	ctx := r.Context()
	playerID := app.playerID(r)
	day, err := app.gameState.CurrentDay(ctx, playerID)
	if err != nil {
		app.logger.ErrorContext(ctx, "read current day for interrogation log", errors.SlogError(err))
		return
	}
	if err = app.gameState.LogInterrogation(ctx, playerID, day, suspect, question, answer); err != nil {
		app.logger.ErrorContext(ctx, "append interrogation log",
			slog.String("suspect", suspect), errors.SlogError(err))
	}
}
