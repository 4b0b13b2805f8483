package main

import (
	"net/http"
)

type advanceDayResponse struct {
	Day int `json:"day"`
}

// getGameState returns the player's full progress: current day, interrogation
// log, and unlocked clues.
func (app *application) getGameState(w http.ResponseWriter, r *http.Request) {
	state, err := app.gameState.State(r.Context(), app.playerID(r))
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, state)
}

// advanceDay moves the player to the next investigation day.
func (app *application) advanceDay(w http.ResponseWriter, r *http.Request) {
	day, err := app.gameState.AdvanceDay(r.Context(), app.playerID(r))
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, advanceDayResponse{Day: day})
}
