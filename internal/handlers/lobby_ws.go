// internal/handlers/lobby_ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jason-s-yu/lobbyd/internal/commands"
	"github.com/jason-s-yu/lobbyd/internal/events"
	"github.com/jason-s-yu/lobbyd/internal/middleware"
	"github.com/jason-s-yu/lobbyd/internal/realtime"
	"github.com/sirupsen/logrus"
)

const (
	wsSubprotocol = "lobby"
	pingInterval  = 30 * time.Second
	writeTimeout  = 5 * time.Second
)

// snapshotMessage is the first frame on every subscription: the current state,
// after which the client only receives event envelopes.
type snapshotMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// LobbyListWSHandler streams lobby list changes. No session is needed.
func LobbyListWSHandler(a *API) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := a.accept(w, r)
		if !ok {
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		sub := a.Hub.Subscribe(realtime.GlobalChannel)
		defer sub.Close()

		list, err := a.Service.ListAvailable(r.Context())
		if err != nil {
			a.Logger.WithError(err).Warn("failed to load lobby list for websocket")
			c.Close(websocket.StatusInternalError, "failed to load lobbies")
			return
		}
		a.stream(r, c, sub, snapshotMessage{Type: "lobbies.snapshot", Payload: list}, nil)
	}
}

// LobbyWSHandler streams the events of one lobby. Private lobbies only accept
// their own players.
func LobbyWSHandler(a *API) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lobbyID, err := uuid.Parse(chi.URLParam(r, "id"))
		c, ok := a.accept(w, r)
		if !ok {
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if err != nil {
			c.Close(InvalidLobbyIDError, "invalid lobby id")
			return
		}
		id, err := a.Signer.Authenticate(extractToken(r))
		if err != nil {
			c.Close(InvalidAuthTokenError, "invalid auth token")
			return
		}

		sub := a.Hub.Subscribe(realtime.LobbyChannel(lobbyID))
		defer sub.Close()

		snap, err := a.Service.Get(r.Context(), lobbyID)
		if errors.Is(err, commands.ErrLobbyNotFound) {
			c.Close(InvalidLobbyIDError, "lobby does not exist")
			return
		}
		if err != nil {
			a.Logger.WithError(err).WithField("lobby_id", lobbyID).Warn("failed to load lobby for websocket")
			c.Close(websocket.StatusInternalError, "failed to load lobby")
			return
		}
		var until func(realtime.Message) bool
		if snap.Settings.IsPrivate {
			if !snap.Has(id.UserID) {
				c.Close(NotAMemberError, "lobby is private")
				return
			}
			until = leftLobby(id.UserID)
		}

		a.stream(r, c, sub, snapshotMessage{Type: "lobby.snapshot", Payload: snap}, until)
	}
}

func (a *API) accept(w http.ResponseWriter, r *http.Request) (*websocket.Conn, bool) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols:   []string{wsSubprotocol},
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		a.Logger.WithError(err).Warn("websocket accept error")
		return nil, false
	}
	if c.Subprotocol() != wsSubprotocol {
		c.Close(BadSubprotocolError, "client must speak the lobby subprotocol")
		return nil, false
	}
	return c, true
}

// errLeftLobby ends a private lobby stream once its viewer is no longer a player.
var errLeftLobby = errors.New("viewer left the lobby")

// leftLobby reports whether msg removes userID from the lobby.
func leftLobby(userID uuid.UUID) func(realtime.Message) bool {
	return func(msg realtime.Message) bool {
		if msg.Type != events.TypePlayerLeft {
			return false
		}
		var ev struct {
			Payload events.PlayerLeft `json:"payload"`
		}
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			return false
		}
		return ev.Payload.Player.UserID == userID
	}
}

// stream sends first and then every message on sub until the client goes away,
// or until a message satisfies until when it is set.
func (a *API) stream(r *http.Request, c *websocket.Conn, sub *realtime.Subscription, first snapshotMessage, until func(realtime.Message) bool) {
	middleware.LogWebSocketConnect(a.Logger, r.RemoteAddr, r.URL.Path)

	// the client never sends anything; CloseRead cancels ctx once it disconnects
	ctx := c.CloseRead(r.Context())

	data, err := json.Marshal(first)
	if err == nil {
		err = write(ctx, c, data)
	}
	if err == nil {
		err = writePump(ctx, c, sub, until, a.Logger)
	}
	if errors.Is(err, errLeftLobby) {
		middleware.LogWebSocketDisconnect(a.Logger, r.RemoteAddr, r.URL.Path, nil)
		c.Close(NotAMemberError, "no longer a player in this lobby")
		return
	}
	middleware.LogWebSocketDisconnect(a.Logger, r.RemoteAddr, r.URL.Path, err)
	if err == nil {
		c.Close(websocket.StatusNormalClosure, "")
	}
}

// writePump forwards subscription messages and pings the client periodically.
// It returns nil when the context ends or the subscription is closed, and
// errLeftLobby right after forwarding a message that satisfies until.
func writePump(ctx context.Context, c *websocket.Conn, sub *realtime.Subscription, until func(realtime.Message) bool, logger logrus.FieldLogger) error {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-sub.C:
			if !ok {
				return nil
			}
			if err := write(ctx, c, msg.Data); err != nil {
				logger.WithError(err).WithField("channel", msg.Channel).Warn("failed to write to websocket")
				return err
			}
			if until != nil && until(msg) {
				return errLeftLobby
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				logger.WithError(err).Warn("failed to ping websocket client; assuming disconnect")
				return err
			}
		}
	}
}

func write(ctx context.Context, c *websocket.Conn, data []byte) error {
	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return c.Write(writeCtx, websocket.MessageText, data)
}
