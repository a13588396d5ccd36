// internal/handlers/api.go
package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/jason-s-yu/lobbyd/internal/auth"
	"github.com/jason-s-yu/lobbyd/internal/commands"
	"github.com/jason-s-yu/lobbyd/internal/events"
	"github.com/jason-s-yu/lobbyd/internal/middleware"
	"github.com/jason-s-yu/lobbyd/internal/realtime"
	"github.com/jason-s-yu/lobbyd/internal/store"
	"github.com/sirupsen/logrus"
)

// StatsSource exposes event bus counters.
type StatsSource interface {
	Stats() events.Stats
}

// HistorySource reads the recorded events of a lobby. *store.EventLog satisfies it.
type HistorySource interface {
	History(ctx context.Context, lobbyID uuid.UUID, limit int) ([]store.EventRecord, error)
}

// API holds everything the HTTP and websocket handlers need.
type API struct {
	Service *commands.Service
	Signer  *auth.Signer
	Hub     *realtime.Hub
	Stats   StatsSource
	// History is optional; without it /lobbies/{id}/events is not served.
	History HistorySource
	Logger  logrus.FieldLogger
}

// NewAPI wires an API. stats may be nil, in which case /stats/events is not served.
func NewAPI(svc *commands.Service, signer *auth.Signer, hub *realtime.Hub, stats StatsSource, logger logrus.FieldLogger) *API {
	return &API{Service: svc, Signer: signer, Hub: hub, Stats: stats, Logger: logger}
}

// Routes builds the service router.
func (a *API) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.LogMiddleware(a.Logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post("/session", CreateSessionHandler(a))

	r.Route("/lobbies", func(r chi.Router) {
		r.Get("/ws", LobbyListWSHandler(a))
		r.Get("/{id}/ws", LobbyWSHandler(a))

		r.Group(func(r chi.Router) {
			r.Use(a.requireIdentity)
			r.Post("/", CreateLobbyHandler(a))
			r.Get("/", ListLobbiesHandler(a))
			r.Get("/code/{code}", FindByCodeHandler(a))
			r.Get("/{id}", GetLobbyHandler(a))
			r.Post("/{id}/join", JoinLobbyHandler(a))
			r.Post("/{id}/leave", LeaveLobbyHandler(a))
			r.Post("/{id}/kick", KickPlayerHandler(a))
			r.Post("/{id}/ready", SetReadyHandler(a))
			r.Post("/{id}/start", StartGameHandler(a))
			r.Post("/{id}/cancel", CancelLobbyHandler(a))
			r.Patch("/{id}/settings", UpdateSettingsHandler(a))
			r.Post("/{id}/game", AdvanceGameHandler(a))
			if a.History != nil {
				r.Get("/{id}/events", LobbyHistoryHandler(a))
			}
		})
	})

	if a.Stats != nil {
		r.Get("/stats/events", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, a.Stats.Stats())
		})
	}
	return r
}

// requireIdentity rejects requests without a valid session token.
func (a *API) requireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing auth_token"})
			return
		}
		id, err := a.Signer.Authenticate(token)
		if err != nil {
			writeError(w, r, a.Logger, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), id)))
	})
}
