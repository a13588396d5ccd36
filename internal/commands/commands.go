// internal/commands/commands.go
package commands

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/lobbyd/internal/lobby"
)

// CreateLobby opens a new lobby with OwnerID as its first player.
type CreateLobby struct {
	OwnerID    uuid.UUID
	Username   string
	Name       string
	MaxPlayers int
	MinPlayers int
	IsPrivate  bool
	GameType   string
}

// JoinLobby admits UserID. Private lobbies also need their InvitationCode.
type JoinLobby struct {
	LobbyID        uuid.UUID
	UserID         uuid.UUID
	Username       string
	InvitationCode string
}

type LeaveLobby struct {
	LobbyID uuid.UUID
	UserID  uuid.UUID
}

type KickPlayer struct {
	LobbyID      uuid.UUID
	KickerID     uuid.UUID
	TargetUserID uuid.UUID
}

// StartGame starts a game from the lobby. A nil GameID is replaced by a fresh one.
type StartGame struct {
	LobbyID uuid.UUID
	UserID  uuid.UUID
	GameID  uuid.UUID
}

type UpdateSettings struct {
	LobbyID   uuid.UUID
	UpdaterID uuid.UUID
	Settings  lobby.SettingsPatch
}

type SetReady struct {
	LobbyID uuid.UUID
	UserID  uuid.UUID
	Ready   bool
}

type CancelLobby struct {
	LobbyID uuid.UUID
	UserID  uuid.UUID
}

// GameAction is a lifecycle step reported by the game server after a start.
type GameAction string

const (
	ActionInGame GameAction = "in_game"
	ActionPause  GameAction = "pause"
	ActionResume GameAction = "resume"
	ActionFinish GameAction = "finish"
)

// AdvanceGame moves a started lobby through its game. RequesterID must be the
// lobby owner; uuid.Nil marks a step reported by the game server itself.
type AdvanceGame struct {
	LobbyID     uuid.UUID
	RequesterID uuid.UUID
	Action      GameAction
}
