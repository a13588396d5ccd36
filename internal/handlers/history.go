// internal/handlers/history.go
package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/jason-s-yu/lobbyd/internal/commands"
	"github.com/jason-s-yu/lobbyd/internal/store"
)

const (
	defaultHistoryLimit = 100
	maxHistoryLimit     = 500
)

// LobbyHistoryHandler returns the recorded events of a lobby, oldest first.
// Private lobbies answer only to their players.
func LobbyHistoryHandler(a *API) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lobbyID, err := lobbyIDParam(r)
		if err != nil {
			writeError(w, r, a.Logger, err)
			return
		}
		limit := defaultHistoryLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 || n > maxHistoryLimit {
				writeError(w, r, a.Logger, errBadRequest(fmt.Sprintf("limit must be between 1 and %d", maxHistoryLimit)))
				return
			}
			limit = n
		}

		snap, err := a.Service.Get(r.Context(), lobbyID)
		if err != nil {
			writeError(w, r, a.Logger, err)
			return
		}
		id, _ := identityFrom(r.Context())
		if !snap.VisibleTo(id.UserID) {
			writeError(w, r, a.Logger, fmt.Errorf("%w: %s", commands.ErrLobbyNotFound, lobbyID))
			return
		}

		records, err := a.History.History(r.Context(), lobbyID, limit)
		if err != nil {
			writeError(w, r, a.Logger, fmt.Errorf("%w: lobby history: %w", commands.ErrSystem, err))
			return
		}
		if records == nil {
			records = []store.EventRecord{}
		}
		writeJSON(w, http.StatusOK, records)
	}
}
