package main

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/mkarvo/yachtmurder/internal/errors"
)

type clueResponse struct {
	Clue string `json:"clue"`
}

// getClue looks up the clue for a day/suspect pair. The "no new clues"
// sentinel is a normal success response.
func (app *application) getClue(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	suspect := query.Get("suspect")
	day, err := strconv.Atoi(query.Get("day"))
	if err != nil {
		app.clientError(w, r, http.StatusBadRequest, "Missing or invalid day or suspect parameter")
		return
	}

	clue, err := app.interrogations.Clue(day, suspect)
	if err != nil {
		app.apiError(w, r, err)
		return
	}

	// A real clue counts as unlocked for the player; the sentinel does not.
	if !strings.HasPrefix(clue, "No new clues") {
		playerID := app.playerID(r)
		if err = app.gameState.UnlockClue(r.Context(), playerID, day, strings.ToLower(strings.TrimSpace(suspect)), clue); err != nil {
			app.logger.ErrorContext(r.Context(), "record clue unlock", errors.SlogError(err))
		}
	}

	app.writeJSON(w, r, http.StatusOK, clueResponse{Clue: clue})
}
