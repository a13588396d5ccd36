// internal/lobby/aggregate.go
package lobby

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jason-s-yu/lobbyd/internal/events"
)

// Aggregate is the consistency boundary for one lobby: the Lobby entity, its
// ordered players and the events raised since the last ClearEvents.
//
// Every mutating method is all-or-nothing: on error the aggregate is left
// exactly as it was and no event is recorded.
type Aggregate struct {
	lobby   Lobby
	players []*Player
	events  []events.Event
	closed  bool
	factory *events.Factory
}

type Option func(*Aggregate)

// WithFactory sets the factory used for event envelopes and timestamps.
func WithFactory(f *events.Factory) Option {
	return func(a *Aggregate) {
		if f != nil {
			a.factory = f
		}
	}
}

// WithInvitationCode presets the code a new lobby gets instead of a random one.
// It has no effect on rehydrated aggregates.
func WithInvitationCode(code string) Option {
	return func(a *Aggregate) {
		a.lobby.InvitationCode = NormalizeInvitationCode(code)
	}
}

// Create builds a WAITING lobby owned by ownerID, with the owner as its first player.
func Create(ownerID uuid.UUID, ownerName string, settings Settings, opts ...Option) (*Aggregate, error) {
	settings, err := NewSettings(settings.Name, settings.MaxPlayers, settings.MinPlayers, settings.IsPrivate, settings.GameType)
	if err != nil {
		return nil, err
	}

	a := &Aggregate{factory: events.DefaultFactory()}
	for _, opt := range opts {
		opt(a)
	}

	code := a.lobby.InvitationCode
	if code == "" {
		code = NewInvitationCode()
	}
	now := a.factory.Now()
	a.lobby = Lobby{
		ID:             a.factory.NewID(),
		OwnerID:        ownerID,
		Settings:       settings,
		Status:         StatusWaiting,
		CreatedAt:      now,
		InvitationCode: code,
	}
	owner, err := NewPlayer(ownerID, ownerName, a.lobby.ID, true, now)
	if err != nil {
		return nil, err
	}
	a.players = []*Player{owner}

	a.record(events.LobbyCreated{
		Settings:       settings.view(),
		InvitationCode: a.lobby.InvitationCode,
		CreatedAt:      now,
		Roster:         a.roster(),
	})
	return a, nil
}

func (a *Aggregate) ID() uuid.UUID      { return a.lobby.ID }
func (a *Aggregate) OwnerID() uuid.UUID { return a.lobby.OwnerID }
func (a *Aggregate) Status() Status     { return a.lobby.Status }
func (a *Aggregate) Settings() Settings { return a.lobby.Settings }
func (a *Aggregate) Closed() bool       { return a.closed }

// Lobby returns a copy of the root entity.
func (a *Aggregate) Lobby() Lobby {
	l := a.lobby
	if l.GameID != nil {
		id := *l.GameID
		l.GameID = &id
	}
	return l
}

// Players returns copies of the players in join order.
func (a *Aggregate) Players() []Player {
	out := make([]Player, len(a.players))
	for i, p := range a.players {
		out[i] = *p
	}
	return out
}

func (a *Aggregate) Player(userID uuid.UUID) (Player, bool) {
	if i := a.indexOf(userID); i >= 0 {
		return *a.players[i], true
	}
	return Player{}, false
}

// Events returns the events recorded since the last ClearEvents, oldest first.
func (a *Aggregate) Events() []events.Event {
	out := make([]events.Event, len(a.events))
	copy(out, a.events)
	return out
}

func (a *Aggregate) ClearEvents() {
	a.events = nil
}

// PullEvents returns the buffered events and clears the buffer.
func (a *Aggregate) PullEvents() []events.Event {
	out := a.Events()
	a.ClearEvents()
	return out
}

// CanStart reports whether StartGame would succeed for the owner.
func (a *Aggregate) CanStart() bool {
	return a.startError(a.lobby.OwnerID) == nil
}

// AddPlayer admits a new player and recomputes the pre-game status.
func (a *Aggregate) AddPlayer(userID uuid.UUID, username string) error {
	return a.mutate(func() error {
		if !a.lobby.Status.Joinable() {
			return fmt.Errorf("%w: lobby is %s", ErrLobbyNotJoinable, a.lobby.Status)
		}
		if len(a.players) >= a.lobby.Settings.MaxPlayers {
			return fmt.Errorf("%w: %d/%d players", ErrLobbyFull, len(a.players), a.lobby.Settings.MaxPlayers)
		}
		if a.indexOf(userID) >= 0 {
			return ErrDuplicatePlayer
		}
		p, err := NewPlayer(userID, username, a.lobby.ID, false, a.factory.Now())
		if err != nil {
			return err
		}
		a.players = append(a.players, p)
		if err := a.settleStatus(); err != nil {
			return err
		}
		a.record(events.PlayerJoined{Player: p.view(), Roster: a.roster()})
		return nil
	})
}

// RemovePlayer takes a player out of the lobby. Removing the last player closes
// the lobby; removing the owner hands ownership to the next player in join order.
//
// A lobby that already started a game keeps its record when it empties: it
// moves to a terminal status before closing.
func (a *Aggregate) RemovePlayer(userID uuid.UUID, reason string) error {
	return a.mutate(func() error {
		i := a.indexOf(userID)
		if i < 0 {
			return ErrPlayerNotFound
		}
		removed := a.players[i]

		remaining := make([]*Player, 0, len(a.players)-1)
		remaining = append(remaining, a.players[:i]...)
		remaining = append(remaining, a.players[i+1:]...)
		a.players = remaining

		if len(a.players) == 0 {
			if a.lobby.GameStarted() {
				if err := a.retire(); err != nil {
					return err
				}
			}
			a.closed = true
			a.record(events.PlayerLeft{Player: removed.view(), Reason: reason, Roster: a.roster()})
			a.record(events.LobbyClosed{Reason: events.CloseReasonEmpty})
			return nil
		}

		var previousOwner uuid.UUID
		if removed.IsOwner {
			next := a.players[0]
			next.IsOwner = true
			a.lobby.OwnerID = next.UserID
			previousOwner = removed.UserID
		}
		if err := a.settleStatus(); err != nil {
			return err
		}
		if previousOwner != uuid.Nil {
			a.record(events.OwnerChanged{
				PreviousOwnerID: previousOwner,
				NewOwnerID:      a.lobby.OwnerID,
				Roster:          a.roster(),
			})
		}
		a.record(events.PlayerLeft{Player: removed.view(), Reason: reason, Roster: a.roster()})
		return nil
	})
}

// retire ends an abandoned game: STARTING is cancelled, a running or paused
// game is finished. Terminal lobbies are left alone.
func (a *Aggregate) retire() error {
	switch a.lobby.Status {
	case StatusStarting:
		return a.transition(StatusCancelled)
	case StatusInGame, StatusPaused:
		return a.transition(StatusFinished)
	}
	return nil
}

// SetPlayerReady sets one player's ready flag. Only allowed before a game starts.
func (a *Aggregate) SetPlayerReady(userID uuid.UUID, ready bool) error {
	return a.mutate(func() error {
		if !a.lobby.Status.PreGame() {
			return fmt.Errorf("%w: lobby is %s", ErrLobbyNotJoinable, a.lobby.Status)
		}
		i := a.indexOf(userID)
		if i < 0 {
			return ErrPlayerNotFound
		}
		p := a.players[i]
		if p.IsReady == ready {
			return nil
		}
		p.SetReady(ready)
		a.record(events.PlayerReadyChanged{UserID: p.UserID, IsReady: ready, Roster: a.roster()})
		return nil
	})
}

// StartGame moves the lobby to STARTING under gameID.
func (a *Aggregate) StartGame(requesterID, gameID uuid.UUID) error {
	return a.mutate(func() error {
		if gameID == uuid.Nil {
			return fmt.Errorf("%w: game id is required", ErrInvalidTransition)
		}
		if err := a.startError(requesterID); err != nil {
			return err
		}
		a.lobby.Status = StatusStarting
		a.lobby.GameID = &gameID
		a.record(events.GameStarted{GameID: gameID, Roster: a.roster()})
		return nil
	})
}

func (a *Aggregate) startError(requesterID uuid.UUID) error {
	if a.closed {
		return ErrLobbyClosed
	}
	if requesterID != a.lobby.OwnerID {
		return ErrNotOwner
	}
	if n := len(a.players); n < a.lobby.Settings.MinPlayers {
		return fmt.Errorf("%w: %d of %d required", ErrNotEnoughPlayers, n, a.lobby.Settings.MinPlayers)
	}
	var waiting []string
	for _, p := range a.players {
		if !p.IsOwner && !p.IsReady {
			waiting = append(waiting, p.Username)
		}
	}
	if len(waiting) > 0 {
		return fmt.Errorf("%w: waiting on %s", ErrPlayersNotReady, strings.Join(waiting, ", "))
	}
	if !CanTransition(a.lobby.Status, StatusStarting) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, a.lobby.Status, StatusStarting)
	}
	return nil
}

// UpdateSettings applies patch on behalf of updaterID, who must own the lobby.
func (a *Aggregate) UpdateSettings(updaterID uuid.UUID, patch SettingsPatch) error {
	return a.mutate(func() error {
		if updaterID != a.lobby.OwnerID {
			return fmt.Errorf("%w: only the lobby creator can update settings", ErrNotOwner)
		}
		if !a.lobby.Status.PreGame() {
			return fmt.Errorf("%w (lobby is %s)", ErrSettingsLocked, a.lobby.Status)
		}
		next, err := a.lobby.Settings.Apply(patch)
		if err != nil {
			return err
		}
		if next.MaxPlayers < len(a.players) {
			return fmt.Errorf("%w: max players must be between %d and %d", ErrMaxPlayersBelowCount, len(a.players), MaxPlayersLimit)
		}
		previous := a.lobby.Settings
		a.lobby.Settings = next
		if err := a.settleStatus(); err != nil {
			return err
		}
		a.record(events.SettingsUpdated{
			Previous: previous.view(),
			Settings: next.view(),
			Roster:   a.roster(),
		})
		return nil
	})
}

// MarkInGame records that the game server picked up the started lobby.
func (a *Aggregate) MarkInGame() error {
	return a.mutate(func() error { return a.transition(StatusInGame) })
}

func (a *Aggregate) Pause() error {
	return a.mutate(func() error { return a.transition(StatusPaused) })
}

func (a *Aggregate) Resume() error {
	return a.mutate(func() error { return a.transition(StatusInGame) })
}

func (a *Aggregate) Finish() error {
	return a.mutate(func() error { return a.transition(StatusFinished) })
}

// Cancel abandons the lobby on behalf of its owner. A lobby that never started
// a game is closed; one that was STARTING keeps its record as CANCELLED.
func (a *Aggregate) Cancel(requesterID uuid.UUID) error {
	return a.mutate(func() error {
		if requesterID != a.lobby.OwnerID {
			return ErrNotOwner
		}
		wasPreGame := a.lobby.Status.PreGame()
		if err := a.transition(StatusCancelled); err != nil {
			return err
		}
		if wasPreGame {
			a.closed = true
			a.record(events.LobbyClosed{Reason: events.CloseReasonCancelled})
		}
		return nil
	})
}

func (a *Aggregate) transition(to Status) error {
	if a.closed {
		return ErrLobbyClosed
	}
	from := a.lobby.Status
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	a.lobby.Status = to
	a.record(events.StatusChanged{From: string(from), To: string(to), Roster: a.roster()})
	return nil
}

// settleStatus moves a pre-game lobby to the status its membership calls for,
// walking only legal edges.
func (a *Aggregate) settleStatus() error {
	cur := a.lobby.Status
	target := TargetStatus(len(a.players), a.lobby.Settings.MaxPlayers, cur)
	path, err := transitionPath(cur, target)
	if err != nil {
		return err
	}
	for _, s := range path {
		a.lobby.Status = s
	}
	return nil
}

// mutate runs fn and restores the previous state if it fails.
func (a *Aggregate) mutate(fn func() error) error {
	if a.closed {
		return ErrLobbyClosed
	}
	lobby := a.Lobby()
	players := make([]*Player, len(a.players))
	for i, p := range a.players {
		cp := *p
		players[i] = &cp
	}
	nEvents := len(a.events)
	closed := a.closed

	if err := fn(); err != nil {
		a.lobby = lobby
		a.players = players
		a.events = a.events[:nEvents]
		a.closed = closed
		return err
	}
	return nil
}

func (a *Aggregate) record(p events.Payload) {
	a.events = append(a.events, a.factory.New(a.lobby.ID, p))
}

func (a *Aggregate) roster() events.Roster {
	views := make([]events.PlayerView, len(a.players))
	for i, p := range a.players {
		views[i] = p.view()
	}
	r := events.Roster{
		OwnerID:        a.lobby.OwnerID,
		Status:         string(a.lobby.Status),
		Players:        views,
		CurrentPlayers: len(views),
		MaxPlayers:     a.lobby.Settings.MaxPlayers,
		MinPlayers:     a.lobby.Settings.MinPlayers,
		IsPrivate:      a.lobby.Settings.IsPrivate,
	}
	if len(a.players) > 0 {
		r.CanStart = a.startError(a.lobby.OwnerID) == nil
	}
	return r
}

func (a *Aggregate) indexOf(userID uuid.UUID) int {
	for i, p := range a.players {
		if p.UserID == userID {
			return i
		}
	}
	return -1
}
