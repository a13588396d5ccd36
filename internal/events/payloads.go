// internal/events/payloads.go
package events

import (
	"time"

	"github.com/google/uuid"
)

// Payload is implemented only by the payload structs in this file, one per event Type.
type Payload interface {
	EventType() Type
	isPayload()
}

// PlayerView is how a player appears inside event payloads.
type PlayerView struct {
	UserID   uuid.UUID `json:"userId"`
	Username string    `json:"username"`
	IsReady  bool      `json:"isReady"`
	IsOwner  bool      `json:"isOwner"`
	JoinedAt time.Time `json:"joinedAt"`
}

// SettingsView mirrors the lobby settings value object.
type SettingsView struct {
	Name       string `json:"name"`
	MaxPlayers int    `json:"maxPlayers"`
	MinPlayers int    `json:"minPlayers"`
	IsPrivate  bool   `json:"isPrivate"`
	GameType   string `json:"gameType"`
}

// Roster is the complete membership of a lobby at the moment an event was raised.
// Receivers replace their cached view with it; it is never a delta.
type Roster struct {
	OwnerID        uuid.UUID    `json:"ownerId"`
	Status         string       `json:"status"`
	Players        []PlayerView `json:"players"`
	CurrentPlayers int          `json:"currentPlayers"`
	MaxPlayers     int          `json:"maxPlayers"`
	MinPlayers     int          `json:"minPlayers"`
	CanStart       bool         `json:"canStart"`
	IsPrivate      bool         `json:"isPrivate"`
}

type LobbyCreated struct {
	Settings       SettingsView `json:"settings"`
	InvitationCode string       `json:"invitationCode"`
	CreatedAt      time.Time    `json:"createdAt"`
	Roster         Roster       `json:"roster"`
}

type PlayerJoined struct {
	Player PlayerView `json:"player"`
	Roster Roster     `json:"roster"`
}

// Reasons a player can leave a lobby.
const (
	LeaveReasonLeft   = "left"
	LeaveReasonKicked = "kicked"
)

type PlayerLeft struct {
	Player PlayerView `json:"player"`
	Reason string     `json:"reason"`
	Roster Roster     `json:"roster"`
}

type PlayerReadyChanged struct {
	UserID  uuid.UUID `json:"userId"`
	IsReady bool      `json:"isReady"`
	Roster  Roster    `json:"roster"`
}

type OwnerChanged struct {
	PreviousOwnerID uuid.UUID `json:"previousOwnerId"`
	NewOwnerID      uuid.UUID `json:"newOwnerId"`
	Roster          Roster    `json:"roster"`
}

type SettingsUpdated struct {
	Previous SettingsView `json:"previous"`
	Settings SettingsView `json:"settings"`
	Roster   Roster       `json:"roster"`
}

type GameStarted struct {
	GameID uuid.UUID `json:"gameId"`
	Roster Roster    `json:"roster"`
}

type StatusChanged struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Roster Roster `json:"roster"`
}

// Reasons a lobby can close.
const (
	CloseReasonEmpty     = "empty"
	CloseReasonCancelled = "cancelled"
)

type LobbyClosed struct {
	Reason string `json:"reason"`
}

func (LobbyCreated) EventType() Type       { return TypeLobbyCreated }
func (PlayerJoined) EventType() Type       { return TypePlayerJoined }
func (PlayerLeft) EventType() Type         { return TypePlayerLeft }
func (PlayerReadyChanged) EventType() Type { return TypePlayerReady }
func (OwnerChanged) EventType() Type       { return TypeOwnerChanged }
func (SettingsUpdated) EventType() Type    { return TypeSettingsUpdated }
func (GameStarted) EventType() Type        { return TypeGameStarted }
func (StatusChanged) EventType() Type      { return TypeStatusChanged }
func (LobbyClosed) EventType() Type        { return TypeLobbyClosed }

func (LobbyCreated) isPayload()       {}
func (PlayerJoined) isPayload()       {}
func (PlayerLeft) isPayload()         {}
func (PlayerReadyChanged) isPayload() {}
func (OwnerChanged) isPayload()       {}
func (SettingsUpdated) isPayload()    {}
func (GameStarted) isPayload()        {}
func (StatusChanged) isPayload()      {}
func (LobbyClosed) isPayload()        {}

// RosterOf returns the membership snapshot carried by p, if it carries one.
func RosterOf(p Payload) (Roster, bool) {
	switch v := p.(type) {
	case LobbyCreated:
		return v.Roster, true
	case PlayerJoined:
		return v.Roster, true
	case PlayerLeft:
		return v.Roster, true
	case PlayerReadyChanged:
		return v.Roster, true
	case OwnerChanged:
		return v.Roster, true
	case SettingsUpdated:
		return v.Roster, true
	case GameStarted:
		return v.Roster, true
	case StatusChanged:
		return v.Roster, true
	default:
		return Roster{}, false
	}
}
