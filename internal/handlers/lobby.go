// internal/handlers/lobby.go
package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jason-s-yu/lobbyd/internal/commands"
	"github.com/jason-s-yu/lobbyd/internal/lobby"
)

// Defaults applied to create requests that leave a field out.
const (
	defaultMaxPlayers = 4
	defaultMinPlayers = 2
	defaultGameType   = "cambia"
)

type createLobbyRequest struct {
	Name       string `json:"name"`
	MaxPlayers int    `json:"maxPlayers"`
	MinPlayers int    `json:"minPlayers"`
	IsPrivate  bool   `json:"isPrivate"`
	GameType   string `json:"gameType"`
}

type joinRequest struct {
	InvitationCode string `json:"invitationCode"`
}

type kickRequest struct {
	UserID uuid.UUID `json:"userId"`
}

type readyRequest struct {
	Ready *bool `json:"ready"`
}

type startRequest struct {
	GameID uuid.UUID `json:"gameId"`
}

type gameRequest struct {
	Action commands.GameAction `json:"action"`
}

// CreateLobbyHandler creates a lobby owned by the caller.
func CreateLobbyHandler(a *API) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := identityFrom(r.Context())
		req := createLobbyRequest{
			MaxPlayers: defaultMaxPlayers,
			MinPlayers: defaultMinPlayers,
			GameType:   defaultGameType,
		}
		if err := decodeBody(r, &req); err != nil {
			writeError(w, r, a.Logger, err)
			return
		}

		snap, err := a.Service.CreateLobby(r.Context(), commands.CreateLobby{
			OwnerID:    id.UserID,
			Username:   id.Username,
			Name:       req.Name,
			MaxPlayers: req.MaxPlayers,
			MinPlayers: req.MinPlayers,
			IsPrivate:  req.IsPrivate,
			GameType:   req.GameType,
		})
		if err != nil {
			writeError(w, r, a.Logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, snap)
	}
}

// ListLobbiesHandler lists joinable public lobbies, or the lobbies in a given
// status when ?status= is set. Private lobbies are listed only to their players.
func ListLobbiesHandler(a *API) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			list []lobby.Snapshot
			err  error
		)
		if raw := r.URL.Query().Get("status"); raw != "" {
			status := lobby.Status(strings.ToUpper(raw))
			if !status.Valid() {
				writeError(w, r, a.Logger, errBadRequest("unknown lobby status"))
				return
			}
			id, _ := identityFrom(r.Context())
			list, err = a.Service.ListByStatus(r.Context(), status, id.UserID)
		} else {
			list, err = a.Service.ListAvailable(r.Context())
		}
		if err != nil {
			writeError(w, r, a.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func GetLobbyHandler(a *API) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lobbyID, err := lobbyIDParam(r)
		if err != nil {
			writeError(w, r, a.Logger, err)
			return
		}
		snap, err := a.Service.Get(r.Context(), lobbyID)
		if err != nil {
			writeError(w, r, a.Logger, err)
			return
		}
		id, _ := identityFrom(r.Context())
		writeJSON(w, http.StatusOK, snap.RedactedFor(id.UserID))
	}
}

// FindByCodeHandler resolves an invitation code, which is how private lobbies are found.
func FindByCodeHandler(a *API) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := a.Service.FindByInvitationCode(r.Context(), chi.URLParam(r, "code"))
		if err != nil {
			writeError(w, r, a.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

func JoinLobbyHandler(a *API) http.HandlerFunc {
	return a.lobbyCommand(func(r *http.Request, lobbyID uuid.UUID) (lobby.Snapshot, error) {
		id, _ := identityFrom(r.Context())
		var req joinRequest
		if err := decodeBody(r, &req); err != nil {
			return lobby.Snapshot{}, err
		}
		return a.Service.JoinLobby(r.Context(), commands.JoinLobby{
			LobbyID:        lobbyID,
			UserID:         id.UserID,
			Username:       id.Username,
			InvitationCode: req.InvitationCode,
		})
	})
}

func LeaveLobbyHandler(a *API) http.HandlerFunc {
	return a.lobbyCommand(func(r *http.Request, lobbyID uuid.UUID) (lobby.Snapshot, error) {
		id, _ := identityFrom(r.Context())
		return a.Service.LeaveLobby(r.Context(), commands.LeaveLobby{LobbyID: lobbyID, UserID: id.UserID})
	})
}

func KickPlayerHandler(a *API) http.HandlerFunc {
	return a.lobbyCommand(func(r *http.Request, lobbyID uuid.UUID) (lobby.Snapshot, error) {
		id, _ := identityFrom(r.Context())
		var req kickRequest
		if err := decodeBody(r, &req); err != nil {
			return lobby.Snapshot{}, err
		}
		if req.UserID == uuid.Nil {
			return lobby.Snapshot{}, errBadRequest("userId is required")
		}
		return a.Service.KickPlayer(r.Context(), commands.KickPlayer{LobbyID: lobbyID, KickerID: id.UserID, TargetUserID: req.UserID})
	})
}

func SetReadyHandler(a *API) http.HandlerFunc {
	return a.lobbyCommand(func(r *http.Request, lobbyID uuid.UUID) (lobby.Snapshot, error) {
		id, _ := identityFrom(r.Context())
		var req readyRequest
		if err := decodeBody(r, &req); err != nil {
			return lobby.Snapshot{}, err
		}
		if req.Ready == nil {
			return lobby.Snapshot{}, errBadRequest("ready is required")
		}
		return a.Service.SetReady(r.Context(), commands.SetReady{LobbyID: lobbyID, UserID: id.UserID, Ready: *req.Ready})
	})
}

// StartGameHandler starts the game. The body may name the game id; otherwise one is generated.
func StartGameHandler(a *API) http.HandlerFunc {
	return a.lobbyCommand(func(r *http.Request, lobbyID uuid.UUID) (lobby.Snapshot, error) {
		id, _ := identityFrom(r.Context())
		var req startRequest
		if err := decodeBody(r, &req); err != nil {
			return lobby.Snapshot{}, err
		}
		return a.Service.StartGame(r.Context(), commands.StartGame{LobbyID: lobbyID, UserID: id.UserID, GameID: req.GameID})
	})
}

func CancelLobbyHandler(a *API) http.HandlerFunc {
	return a.lobbyCommand(func(r *http.Request, lobbyID uuid.UUID) (lobby.Snapshot, error) {
		id, _ := identityFrom(r.Context())
		return a.Service.CancelLobby(r.Context(), commands.CancelLobby{LobbyID: lobbyID, UserID: id.UserID})
	})
}

func UpdateSettingsHandler(a *API) http.HandlerFunc {
	return a.lobbyCommand(func(r *http.Request, lobbyID uuid.UUID) (lobby.Snapshot, error) {
		id, _ := identityFrom(r.Context())
		var patch lobby.SettingsPatch
		if err := decodeBody(r, &patch); err != nil {
			return lobby.Snapshot{}, err
		}
		return a.Service.UpdateSettings(r.Context(), commands.UpdateSettings{LobbyID: lobbyID, UpdaterID: id.UserID, Settings: patch})
	})
}

// AdvanceGameHandler reports a game lifecycle step. Only the lobby owner may
// drive it over HTTP.
func AdvanceGameHandler(a *API) http.HandlerFunc {
	return a.lobbyCommand(func(r *http.Request, lobbyID uuid.UUID) (lobby.Snapshot, error) {
		id, _ := identityFrom(r.Context())
		var req gameRequest
		if err := decodeBody(r, &req); err != nil {
			return lobby.Snapshot{}, err
		}
		return a.Service.AdvanceGame(r.Context(), commands.AdvanceGame{LobbyID: lobbyID, RequesterID: id.UserID, Action: req.Action})
	})
}

// lobbyCommand parses {id}, runs fn and writes the resulting snapshot.
func (a *API) lobbyCommand(fn func(r *http.Request, lobbyID uuid.UUID) (lobby.Snapshot, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lobbyID, err := lobbyIDParam(r)
		if err != nil {
			writeError(w, r, a.Logger, err)
			return
		}
		snap, err := fn(r, lobbyID)
		if err != nil {
			writeError(w, r, a.Logger, err)
			return
		}
		id, _ := identityFrom(r.Context())
		writeJSON(w, http.StatusOK, snap.RedactedFor(id.UserID))
	}
}
