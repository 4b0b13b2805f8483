package main

import (
	"net/http"

	"github.com/justinas/alice"
)

func (app *application) routes() http.Handler {
	mux := http.NewServeMux()

	session := alice.New(app.sessionManager.LoadAndSave, app.ensurePlayer)

	mux.Handle("POST /api/ask", session.ThenFunc(app.askSuspect))
	mux.Handle("GET /api/clue", session.ThenFunc(app.getClue))
	mux.Handle("GET /api/state", session.ThenFunc(app.getGameState))
	mux.Handle("POST /api/state/advance-day", session.ThenFunc(app.advanceDay))

	// Health reporting needs no session: load balancers and smoke tests don't carry cookies.
	mux.HandleFunc("GET /api/health", app.health)

	return alice.New(app.recoverPanic, app.requestID, app.logRequest, enableCORS).Then(mux)
}
