// internal/lobby/lobby.go
package lobby

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Lobby is the root entity of the aggregate.
type Lobby struct {
	ID             uuid.UUID  `json:"id"`
	OwnerID        uuid.UUID  `json:"ownerId"`
	Settings       Settings   `json:"settings"`
	Status         Status     `json:"status"`
	CreatedAt      time.Time  `json:"createdAt"`
	GameID         *uuid.UUID `json:"gameId,omitempty"`
	InvitationCode string     `json:"invitationCode"`
}

// GameStarted reports whether a game has ever been started from this lobby.
// Such lobbies belong in durable storage.
func (l Lobby) GameStarted() bool {
	return l.GameID != nil
}

// Admits reports whether code lets a newcomer into the lobby. Public lobbies
// need no code; codes compare case-insensitively.
func (l Lobby) Admits(code string) bool {
	if !l.Settings.IsPrivate {
		return true
	}
	return NormalizeInvitationCode(code) == l.InvitationCode
}

const (
	invitationCodeLength = 6
	// no 0/O or 1/I so codes survive being read aloud
	invitationAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// NewInvitationCode returns a random code used to join private lobbies.
func NewInvitationCode() string {
	buf := make([]byte, invitationCodeLength)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand does not fail on supported platforms; fall back to uuid bytes
		id := uuid.New()
		copy(buf, id[:])
	}
	for i, b := range buf {
		buf[i] = invitationAlphabet[int(b)%len(invitationAlphabet)]
	}
	return string(buf)
}

// NormalizeInvitationCode puts user input in the form codes are stored in.
func NormalizeInvitationCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
