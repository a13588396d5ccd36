// internal/lobby/player.go
package lobby

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/lobbyd/internal/events"
)

// Player is a membership record inside one lobby.
type Player struct {
	UserID   uuid.UUID `json:"userId"`
	Username string    `json:"username"`
	LobbyID  uuid.UUID `json:"lobbyId"`
	IsReady  bool      `json:"isReady"`
	IsOwner  bool      `json:"isOwner"`
	JoinedAt time.Time `json:"joinedAt"`
}

func NewPlayer(userID uuid.UUID, username string, lobbyID uuid.UUID, isOwner bool, joinedAt time.Time) (*Player, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidPlayer)
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidPlayer)
	}
	return &Player{
		UserID:   userID,
		Username: username,
		LobbyID:  lobbyID,
		IsOwner:  isOwner,
		JoinedAt: joinedAt,
	}, nil
}

func (p *Player) SetReady(ready bool) {
	p.IsReady = ready
}

func (p *Player) view() events.PlayerView {
	return events.PlayerView{
		UserID:   p.UserID,
		Username: p.Username,
		IsReady:  p.IsReady,
		IsOwner:  p.IsOwner,
		JoinedAt: p.JoinedAt,
	}
}
