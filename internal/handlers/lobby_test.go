// internal/handlers/lobby_test.go
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/jason-s-yu/lobbyd/internal/auth"
	"github.com/jason-s-yu/lobbyd/internal/commands"
	"github.com/jason-s-yu/lobbyd/internal/events"
	"github.com/jason-s-yu/lobbyd/internal/lobby"
	"github.com/jason-s-yu/lobbyd/internal/observers"
	"github.com/jason-s-yu/lobbyd/internal/realtime"
	"github.com/jason-s-yu/lobbyd/internal/store"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	api     *API
	handler http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger, _ := test.NewNullLogger()
	signer, err := auth.NewSigner(time.Hour)
	require.NoError(t, err)

	memory := store.NewMemoryStore()
	durable := store.NewMemoryStore()
	repo := store.NewDualStore(memory, durable, store.NewMigrator(memory, durable, logger))

	hub := realtime.NewHub(0, logger)
	bus := events.NewBus(events.WithLogger(logger))
	observers.Register(bus, observers.NewBroadcastHandler(hub), observers.NewRuleCheckHandler())

	api := NewAPI(commands.NewService(repo, bus, commands.WithLogger(logger)), signer, hub, bus, logger)
	return &testServer{api: api, handler: api.Routes()}
}

func (s *testServer) token(t *testing.T, name string) (uuid.UUID, string) {
	t.Helper()
	id := auth.Identity{UserID: uuid.New(), Username: name}
	token, err := s.api.Signer.CreateJWT(id)
	require.NoError(t, err)
	return id.UserID, token
}

func (s *testServer) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if token != "" {
		req.Header.Set("Cookie", authCookieName+"="+token)
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func decodeSnapshot(t *testing.T, w *httptest.ResponseRecorder) lobby.Snapshot {
	t.Helper()
	var snap lobby.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap), w.Body.String())
	return snap
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body["error"]
}

// TestSessionIssuesGuestToken checks that /session sets the auth cookie and
// keeps the same user id for a caller that already has one.
func TestSessionIssuesGuestToken(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/session", "", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var first sessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))
	assert.NotEqual(t, uuid.Nil, first.UserID)
	assert.True(t, strings.HasPrefix(first.Username, "guest-"))

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, authCookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	w = s.do(t, http.MethodPost, "/session", first.Token, `{"username":"  alice "}`)
	require.Equal(t, http.StatusOK, w.Code)
	var second sessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &second))
	assert.Equal(t, first.UserID, second.UserID)
	assert.Equal(t, "alice", second.Username)
}

func TestLobbyRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/lobbies", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodGet, "/lobbies", "garbage", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	_, token := s.token(t, "ann")
	req := httptest.NewRequest(http.MethodGet, "/lobbies", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

// TestLobbyCreate checks defaults, ownership and the invitation code lookup.
func TestLobbyCreate(t *testing.T) {
	s := newTestServer(t)
	owner, token := s.token(t, "host")

	w := s.do(t, http.MethodPost, "/lobbies", token, `{"name":"Friday night","isPrivate":true}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	snap := decodeSnapshot(t, w)
	assert.Equal(t, owner, snap.OwnerID)
	assert.Equal(t, lobby.StatusWaiting, snap.Status)
	assert.Equal(t, defaultMaxPlayers, snap.Settings.MaxPlayers)
	assert.Equal(t, defaultGameType, snap.Settings.GameType)
	require.Len(t, snap.Players, 1)
	assert.True(t, snap.Players[0].IsOwner)

	w = s.do(t, http.MethodGet, "/lobbies/code/"+strings.ToLower(snap.InvitationCode), token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, snap.ID, decodeSnapshot(t, w).ID)

	// private lobbies are not listed
	w = s.do(t, http.MethodGet, "/lobbies", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = s.do(t, http.MethodGet, "/lobbies?status=waiting", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	var byStatus []lobby.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &byStatus))
	require.Len(t, byStatus, 1, "players see their own private lobby")
	assert.Equal(t, snap.InvitationCode, byStatus[0].InvitationCode)
}

// TestPrivateLobbyAccess checks outsiders can neither list a private lobby
// nor read its code, and cannot join it without the code.
func TestPrivateLobbyAccess(t *testing.T) {
	s := newTestServer(t)
	_, host := s.token(t, "host")
	_, stranger := s.token(t, "stranger")
	_, friend := s.token(t, "friend")

	w := s.do(t, http.MethodPost, "/lobbies", host, `{"name":"Secret","isPrivate":true}`)
	require.Equal(t, http.StatusCreated, w.Code)
	created := decodeSnapshot(t, w)
	id := created.ID.String()
	require.NotEmpty(t, created.InvitationCode)

	w = s.do(t, http.MethodGet, "/lobbies?status=waiting", stranger, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = s.do(t, http.MethodGet, "/lobbies/"+id, stranger, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeSnapshot(t, w).InvitationCode)

	w = s.do(t, http.MethodPost, "/lobbies/"+id+"/join", stranger, "")
	assert.Equal(t, http.StatusForbidden, w.Code, w.Body.String())
	w = s.do(t, http.MethodPost, "/lobbies/"+id+"/join", stranger, `{"invitationCode":"WRONG1"}`)
	assert.Equal(t, http.StatusForbidden, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/lobbies/"+id+"/join", friend, `{"invitationCode":"`+strings.ToLower(created.InvitationCode)+`"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	joined := decodeSnapshot(t, w)
	assert.Len(t, joined.Players, 2)
	assert.Equal(t, created.InvitationCode, joined.InvitationCode)

	w = s.do(t, http.MethodGet, "/lobbies?status=ready", friend, "")
	require.Equal(t, http.StatusOK, w.Code)
	var ready []lobby.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ready))
	assert.Len(t, ready, 1)
}

type fakeHistory struct {
	records []store.EventRecord
	limit   int
}

func (f *fakeHistory) History(_ context.Context, lobbyID uuid.UUID, limit int) ([]store.EventRecord, error) {
	f.limit = limit
	var out []store.EventRecord
	for _, r := range f.records {
		if r.LobbyID == lobbyID {
			out = append(out, r)
		}
	}
	return out, nil
}

// TestLobbyHistory checks the events route reads the event log and keeps
// private lobbies to their players.
func TestLobbyHistory(t *testing.T) {
	s := newTestServer(t)
	history := &fakeHistory{}
	s.api.History = history
	s.handler = s.api.Routes()

	_, host := s.token(t, "host")
	_, stranger := s.token(t, "stranger")
	w := s.do(t, http.MethodPost, "/lobbies", host, `{"name":"Recorded"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	public := decodeSnapshot(t, w)
	w = s.do(t, http.MethodPost, "/lobbies", host, `{"name":"Recorded too","isPrivate":true}`)
	require.Equal(t, http.StatusCreated, w.Code)
	private := decodeSnapshot(t, w)
	history.records = []store.EventRecord{
		{EventID: uuid.New(), LobbyID: public.ID, Type: string(events.TypeLobbyCreated), PlayerCount: 1},
		{EventID: uuid.New(), LobbyID: private.ID, Type: string(events.TypeLobbyCreated), PlayerCount: 1},
	}

	w = s.do(t, http.MethodGet, "/lobbies/"+public.ID.String()+"/events?limit=5", stranger, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var got []store.EventRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, string(events.TypeLobbyCreated), got[0].Type)
	assert.Equal(t, 5, history.limit)

	w = s.do(t, http.MethodGet, "/lobbies/"+private.ID.String()+"/events", stranger, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = s.do(t, http.MethodGet, "/lobbies/"+private.ID.String()+"/events", host, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, defaultHistoryLimit, history.limit)

	w = s.do(t, http.MethodGet, "/lobbies/"+public.ID.String()+"/events?limit=0", host, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLobbyHistoryNeedsEventLog(t *testing.T) {
	s := newTestServer(t)
	_, host := s.token(t, "host")
	w := s.do(t, http.MethodPost, "/lobbies", host, `{"name":"Unrecorded"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.do(t, http.MethodGet, "/lobbies/"+decodeSnapshot(t, w).ID.String()+"/events", host, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLobbyErrorStatuses(t *testing.T) {
	s := newTestServer(t)
	_, host := s.token(t, "host")
	guestID, guest := s.token(t, "guest")

	w := s.do(t, http.MethodPost, "/lobbies", host, `{"name":"Game","maxPlayers":2}`)
	require.Equal(t, http.StatusCreated, w.Code)
	id := decodeSnapshot(t, w).ID.String()
	_, third := s.token(t, "third")

	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/lobbies/"+id+"/join", guest, "").Code)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   string
		status int
	}{
		{"invalid settings", http.MethodPost, "/lobbies", host, `{"name":"ab"}`, http.StatusBadRequest},
		{"unknown field", http.MethodPost, "/lobbies", host, `{"title":"nope"}`, http.StatusBadRequest},
		{"bad lobby id", http.MethodGet, "/lobbies/not-a-uuid", host, "", http.StatusBadRequest},
		{"unknown lobby", http.MethodGet, "/lobbies/" + uuid.NewString(), host, "", http.StatusNotFound},
		{"unknown status", http.MethodGet, "/lobbies?status=sleeping", host, "", http.StatusBadRequest},
		{"duplicate join", http.MethodPost, "/lobbies/" + id + "/join", guest, "", http.StatusConflict},
		{"lobby full", http.MethodPost, "/lobbies/" + id + "/join", third, "", http.StatusConflict},
		{"kick by guest", http.MethodPost, "/lobbies/" + id + "/kick", guest, `{"userId":"` + uuid.NewString() + `"}`, http.StatusForbidden},
		{"owner kicks self", http.MethodPost, "/lobbies/" + id + "/kick", host, `{"userId":"` + decodeOwner(t, s, id, host) + `"}`, http.StatusBadRequest},
		{"kick without user", http.MethodPost, "/lobbies/" + id + "/kick", host, `{}`, http.StatusBadRequest},
		{"ready without flag", http.MethodPost, "/lobbies/" + id + "/ready", guest, `{}`, http.StatusBadRequest},
		{"start not ready", http.MethodPost, "/lobbies/" + id + "/start", host, "", http.StatusConflict},
		{"leave as stranger", http.MethodPost, "/lobbies/" + id + "/leave", third, "", http.StatusNotFound},
		{"max players out of range", http.MethodPatch, "/lobbies/" + id + "/settings", host, `{"maxPlayers":1}`, http.StatusBadRequest},
		{"unknown action", http.MethodPost, "/lobbies/" + id + "/game", host, `{"action":"explode"}`, http.StatusBadRequest},
		{"advance by guest", http.MethodPost, "/lobbies/" + id + "/game", guest, `{"action":"in_game"}`, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, tt.method, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.NotEmpty(t, errorBody(t, w))
		})
	}

	w = s.do(t, http.MethodPost, "/lobbies/"+id+"/kick", host, `{"userId":"`+guestID.String()+`"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeSnapshot(t, w).Players, 1)
}

func decodeOwner(t *testing.T, s *testServer, id, token string) string {
	t.Helper()
	return decodeSnapshot(t, s.do(t, http.MethodGet, "/lobbies/"+id, token, "")).OwnerID.String()
}

// TestLobbyGameFlow walks a lobby from creation to a finished game.
func TestLobbyGameFlow(t *testing.T) {
	s := newTestServer(t)
	_, host := s.token(t, "host")
	_, guest := s.token(t, "guest")

	w := s.do(t, http.MethodPost, "/lobbies", host, `{"name":"Flow"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	id := decodeSnapshot(t, w).ID.String()

	w = s.do(t, http.MethodPost, "/lobbies/"+id+"/join", guest, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, lobby.StatusReady, decodeSnapshot(t, w).Status)

	w = s.do(t, http.MethodPatch, "/lobbies/"+id+"/settings", host, `{"name":"Renamed"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Renamed", decodeSnapshot(t, w).Settings.Name)

	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/lobbies/"+id+"/ready", guest, `{"ready":true}`).Code)

	gameID := uuid.New()
	w = s.do(t, http.MethodPost, "/lobbies/"+id+"/start", host, `{"gameId":"`+gameID.String()+`"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	snap := decodeSnapshot(t, w)
	assert.Equal(t, lobby.StatusStarting, snap.Status)
	require.NotNil(t, snap.GameID)
	assert.Equal(t, gameID, *snap.GameID)

	w = s.do(t, http.MethodPatch, "/lobbies/"+id+"/settings", host, `{"name":"Too late"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodPost, "/lobbies/"+id+"/game", guest, `{"action":"in_game"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	for _, step := range []struct {
		action string
		status lobby.Status
	}{
		{"in_game", lobby.StatusInGame},
		{"pause", lobby.StatusPaused},
		{"resume", lobby.StatusInGame},
		{"finish", lobby.StatusFinished},
	} {
		w = s.do(t, http.MethodPost, "/lobbies/"+id+"/game", host, `{"action":"`+step.action+`"}`)
		require.Equal(t, http.StatusOK, w.Code, step.action)
		assert.Equal(t, step.status, decodeSnapshot(t, w).Status, step.action)
	}

	w = s.do(t, http.MethodGet, "/stats/events", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var stats events.Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.NotZero(t, stats.Published)
	assert.Contains(t, stats.Handlers, "broadcast")
}

func TestCancelDeletesWaitingLobby(t *testing.T) {
	s := newTestServer(t)
	_, host := s.token(t, "host")

	w := s.do(t, http.MethodPost, "/lobbies", host, `{"name":"Short lived"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	id := decodeSnapshot(t, w).ID.String()

	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/lobbies/"+id+"/cancel", host, "").Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/lobbies/"+id, host, "").Code)
}

func dial(t *testing.T, ctx context.Context, url, token string) *websocket.Conn {
	t.Helper()
	header := http.Header{}
	if token != "" {
		header.Set("Cookie", authCookieName+"="+token)
	}
	c, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{
		Subprotocols: []string{wsSubprotocol},
		HTTPHeader:   header,
	})
	require.NoError(t, err)
	return c
}

func readFrame(t *testing.T, ctx context.Context, c *websocket.Conn) map[string]any {
	t.Helper()
	_, data, err := c.Read(ctx)
	require.NoError(t, err)
	var frame map[string]any
	require.NoError(t, json.Unmarshal(data, &frame))
	return frame
}

// TestLobbyWebSocketStreamsEvents checks the initial snapshot frame and that
// later events reach both the lobby channel and the list channel.
func TestLobbyWebSocketStreamsEvents(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.handler)
	defer srv.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, host := s.token(t, "host")
	_, guest := s.token(t, "guest")
	w := s.do(t, http.MethodPost, "/lobbies", host, `{"name":"Streamed"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	id := decodeSnapshot(t, w).ID.String()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	lobbyConn := dial(t, ctx, wsURL+"/lobbies/"+id+"/ws", host)
	defer lobbyConn.CloseNow()
	listConn := dial(t, ctx, wsURL+"/lobbies/ws", "")
	defer listConn.CloseNow()

	first := readFrame(t, ctx, lobbyConn)
	assert.Equal(t, "lobby.snapshot", first["type"])
	assert.Equal(t, "lobbies.snapshot", readFrame(t, ctx, listConn)["type"])

	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/lobbies/"+id+"/join", guest, "").Code)

	for _, conn := range []*websocket.Conn{lobbyConn, listConn} {
		frame := readFrame(t, ctx, conn)
		assert.Equal(t, string(events.TypePlayerJoined), frame["type"])
		assert.Equal(t, id, frame["lobbyId"])
	}

	// ready changes stay on the lobby channel
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/lobbies/"+id+"/ready", guest, `{"ready":true}`).Code)
	assert.Equal(t, string(events.TypePlayerReady), readFrame(t, ctx, lobbyConn)["type"])
}

// TestPrivateLobbyWebSocketEndsOnKick checks a kicked player stops receiving
// the events of a private lobby.
func TestPrivateLobbyWebSocketEndsOnKick(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.handler)
	defer srv.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, host := s.token(t, "host")
	guestID, guest := s.token(t, "guest")
	w := s.do(t, http.MethodPost, "/lobbies", host, `{"name":"Members only","isPrivate":true}`)
	require.Equal(t, http.StatusCreated, w.Code)
	created := decodeSnapshot(t, w)
	id := created.ID.String()
	w = s.do(t, http.MethodPost, "/lobbies/"+id+"/join", guest, `{"invitationCode":"`+created.InvitationCode+`"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	guestConn := dial(t, ctx, wsURL+"/lobbies/"+id+"/ws", guest)
	defer guestConn.CloseNow()
	hostConn := dial(t, ctx, wsURL+"/lobbies/"+id+"/ws", host)
	defer hostConn.CloseNow()
	assert.Equal(t, "lobby.snapshot", readFrame(t, ctx, guestConn)["type"])
	assert.Equal(t, "lobby.snapshot", readFrame(t, ctx, hostConn)["type"])

	w = s.do(t, http.MethodPost, "/lobbies/"+id+"/kick", host, `{"userId":"`+guestID.String()+`"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.Equal(t, string(events.TypePlayerLeft), readFrame(t, ctx, guestConn)["type"])
	_, _, err := guestConn.Read(ctx)
	require.Error(t, err)
	assert.Equal(t, websocket.StatusCode(NotAMemberError), websocket.CloseStatus(err))

	// the owner keeps streaming
	assert.Equal(t, string(events.TypePlayerLeft), readFrame(t, ctx, hostConn)["type"])
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPatch, "/lobbies/"+id+"/settings", host, `{"name":"Still here"}`).Code)
	assert.Equal(t, string(events.TypeSettingsUpdated), readFrame(t, ctx, hostConn)["type"])
}

func TestLobbyWebSocketRejects(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.handler)
	defer srv.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, host := s.token(t, "host")
	_, stranger := s.token(t, "stranger")
	w := s.do(t, http.MethodPost, "/lobbies", host, `{"name":"Secret","isPrivate":true}`)
	require.Equal(t, http.StatusCreated, w.Code)
	id := decodeSnapshot(t, w).ID.String()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	tests := []struct {
		name  string
		path  string
		token string
		code  websocket.StatusCode
	}{
		{"private lobby", "/lobbies/" + id + "/ws", stranger, NotAMemberError},
		{"missing token", "/lobbies/" + id + "/ws", "", InvalidAuthTokenError},
		{"unknown lobby", "/lobbies/" + uuid.NewString() + "/ws", host, InvalidLobbyIDError},
		{"bad lobby id", "/lobbies/nope/ws", host, InvalidLobbyIDError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := dial(t, ctx, wsURL+tt.path, tt.token)
			defer c.CloseNow()
			_, _, err := c.Read(ctx)
			require.Error(t, err)
			assert.Equal(t, tt.code, websocket.CloseStatus(err))
		})
	}
}
