// internal/lobby/errors.go
package lobby

import "errors"

var (
	ErrInvalidSettings      = errors.New("invalid lobby settings")
	ErrInvalidPlayer        = errors.New("invalid player")
	ErrInvalidSnapshot      = errors.New("invalid lobby snapshot")
	ErrLobbyFull            = errors.New("lobby is full")
	ErrDuplicatePlayer      = errors.New("player is already in the lobby")
	ErrPlayerNotFound       = errors.New("player is not in the lobby")
	ErrNotOwner             = errors.New("only the lobby owner can do this")
	ErrNotEnoughPlayers     = errors.New("not enough players to start")
	ErrPlayersNotReady      = errors.New("not all players are ready")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrLobbyNotJoinable     = errors.New("lobby is not accepting players")
	ErrSettingsLocked       = errors.New("cannot update settings during a game")
	ErrMaxPlayersBelowCount = errors.New("max players is out of range")
	ErrLobbyClosed          = errors.New("lobby is closed")
	ErrInvitationRequired   = errors.New("private lobby requires its invitation code")
)
