// internal/lobby/snapshot.go
package lobby

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jason-s-yu/lobbyd/internal/events"
)

// Snapshot is the serializable form of an aggregate, used by the stores and the HTTP layer.
// Buffered events are not part of it.
type Snapshot struct {
	Lobby
	Players []Player `json:"players"`
}

func (a *Aggregate) Snapshot() Snapshot {
	return Snapshot{Lobby: a.Lobby(), Players: a.Players()}
}

// Clone returns a deep copy.
func (s Snapshot) Clone() Snapshot {
	out := s
	if s.GameID != nil {
		id := *s.GameID
		out.GameID = &id
	}
	out.Players = make([]Player, len(s.Players))
	copy(out.Players, s.Players)
	return out
}

// Available reports whether the lobby should be listed for anyone to join.
func (s Snapshot) Available() bool {
	return (s.Status == StatusWaiting || s.Status == StatusReady) &&
		!s.Settings.IsPrivate &&
		len(s.Players) < s.Settings.MaxPlayers
}

// Has reports whether userID is a player in the lobby.
func (s Snapshot) Has(userID uuid.UUID) bool {
	for _, p := range s.Players {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

// VisibleTo reports whether userID may see the lobby in listings. Private
// lobbies are shown to their players only.
func (s Snapshot) VisibleTo(userID uuid.UUID) bool {
	return !s.Settings.IsPrivate || s.Has(userID)
}

// RedactedFor returns the snapshot as userID may see it: the invitation code
// of a private lobby is withheld from outsiders.
func (s Snapshot) RedactedFor(userID uuid.UUID) Snapshot {
	out := s.Clone()
	if !s.VisibleTo(userID) {
		out.InvitationCode = ""
	}
	return out
}

// FromSnapshot rebuilds an aggregate, checking every invariant the aggregate
// maintains so a corrupt record never becomes a live lobby.
func FromSnapshot(s Snapshot, opts ...Option) (*Aggregate, error) {
	if s.ID == uuid.Nil {
		return nil, fmt.Errorf("%w: missing id", ErrInvalidSnapshot)
	}
	if !s.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidSnapshot, s.Status)
	}
	settings, err := NewSettings(s.Settings.Name, s.Settings.MaxPlayers, s.Settings.MinPlayers, s.Settings.IsPrivate, s.Settings.GameType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	// only a retired game may be stored without players
	retired := s.GameStarted() && s.Status.Terminal()
	if len(s.Players) == 0 && !retired {
		return nil, fmt.Errorf("%w: lobby %s has no players", ErrInvalidSnapshot, s.ID)
	}
	if len(s.Players) > settings.MaxPlayers {
		return nil, fmt.Errorf("%w: %d players exceed max %d", ErrInvalidSnapshot, len(s.Players), settings.MaxPlayers)
	}

	seen := make(map[uuid.UUID]bool, len(s.Players))
	players := make([]*Player, len(s.Players))
	ownerFound := false
	for i, p := range s.Players {
		if seen[p.UserID] {
			return nil, fmt.Errorf("%w: duplicate player %s", ErrInvalidSnapshot, p.UserID)
		}
		seen[p.UserID] = true
		cp := p
		cp.LobbyID = s.ID
		cp.IsOwner = p.UserID == s.OwnerID
		ownerFound = ownerFound || cp.IsOwner
		players[i] = &cp
	}
	if !ownerFound && len(players) > 0 {
		return nil, fmt.Errorf("%w: owner %s is not a player", ErrInvalidSnapshot, s.OwnerID)
	}

	a := &Aggregate{players: players, closed: len(players) == 0, factory: events.DefaultFactory()}
	for _, opt := range opts {
		opt(a)
	}
	a.lobby = s.Lobby
	a.lobby.Settings = settings
	if s.GameID != nil {
		id := *s.GameID
		a.lobby.GameID = &id
	}
	return a, nil
}
